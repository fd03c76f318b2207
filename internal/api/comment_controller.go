package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventhub-backend/internal/models"
)

type commentRequest struct {
	Content       string     `json:"content" binding:"required,max=1000"`
	ParentComment *uuid.UUID `json:"parentComment"`
}

type updateCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

type reportRequest struct {
	Reason models.ReportReason `json:"reason" binding:"required,report_reason"`
}

func (h *Handler) EventComments(c *gin.Context) {
	eventID, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	comments, meta, err := h.comments.ListForEvent(c.Request.Context(), eventID, pageParams(c, 20))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"comments": comments, "pagination": meta})
}

func (h *Handler) MyComments(c *gin.Context) {
	comments, meta, err := h.comments.ListMine(c.Request.Context(), currentUser(c).ID, pageParams(c, 10))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"comments": comments, "pagination": meta})
}

func (h *Handler) CreateComment(c *gin.Context) {
	eventID, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), eventID, currentUser(c).ID, req.Content, req.ParentComment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Comment created successfully", "comment": comment})
}

func (h *Handler) UpdateComment(c *gin.Context) {
	commentID, err := pathID(c, "commentId", "comment")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), commentID, currentUser(c).ID, req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Comment updated successfully", "comment": comment})
}

func (h *Handler) DeleteComment(c *gin.Context) {
	commentID, err := pathID(c, "commentId", "comment")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.comments.Delete(c.Request.Context(), commentID, currentUser(c).ID); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func (h *Handler) LikeComment(c *gin.Context) {
	commentID, err := pathID(c, "commentId", "comment")
	if err != nil {
		h.respondError(c, err)
		return
	}

	count, liked, err := h.comments.ToggleLike(c.Request.Context(), commentID, currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := "Comment unliked"
	if liked {
		message = "Comment liked"
	}
	respond(c, http.StatusOK, gin.H{"message": message, "liked": liked, "likeCount": count})
}

func (h *Handler) ReportComment(c *gin.Context) {
	commentID, err := pathID(c, "commentId", "comment")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	if err := h.comments.Report(c.Request.Context(), commentID, currentUser(c).ID, req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Comment reported successfully"})
}
