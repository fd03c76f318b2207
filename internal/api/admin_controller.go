package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub-backend/internal/models"
)

type approvalRequest struct {
	IsApproved *bool `json:"isApproved" binding:"required"`
}

func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.admin.DashboardStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) RecentActivity(c *gin.Context) {
	activities, err := h.admin.RecentActivity(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"activities": activities})
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	users, meta, err := h.admin.ListUsers(
		c.Request.Context(),
		c.Query("search"),
		models.UserStatus(c.Query("status")),
		pageParams(c, 20),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"users": users, "pagination": meta})
}

func (h *Handler) AdminDeleteUser(c *gin.Context) {
	id, err := pathID(c, "userId", "user")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *Handler) ToggleUserStatus(c *gin.Context) {
	id, err := pathID(c, "userId", "user")
	if err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.admin.ToggleUserStatus(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := "User unblocked successfully"
	if user.IsBlocked() {
		message = "User blocked successfully"
	}
	respond(c, http.StatusOK, gin.H{"message": message, "user": user})
}

func (h *Handler) AdminListEvents(c *gin.Context) {
	events, meta, err := h.events.AdminList(
		c.Request.Context(),
		c.Query("search"),
		c.Query("status"),
		pageParams(c, 20),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"events": events, "pagination": meta})
}

func (h *Handler) AdminDeleteEvent(c *gin.Context) {
	id, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.events.AdminDelete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h *Handler) SetEventApproval(c *gin.Context) {
	id, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	event, err := h.events.SetApproval(c.Request.Context(), id, currentAdmin(c).ID, *req.IsApproved)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Event approval updated", "event": event})
}

func (h *Handler) ReportedComments(c *gin.Context) {
	comments, meta, err := h.comments.ListReported(c.Request.Context(), pageParams(c, 20))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"comments": comments, "pagination": meta})
}

func (h *Handler) SetCommentApproval(c *gin.Context) {
	id, err := pathID(c, "commentId", "comment")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	comment, err := h.comments.SetApproval(c.Request.Context(), id, currentAdmin(c).ID, *req.IsApproved)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Comment approval updated", "comment": comment})
}

func (h *Handler) AdminDeleteComment(c *gin.Context) {
	id, err := pathID(c, "commentId", "comment")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.comments.SoftDelete(c.Request.Context(), id, currentAdmin(c).ID); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
