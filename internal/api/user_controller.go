package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub-backend/internal/service"
)

type profileRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=100"`
	Bio        *string `json:"bio" binding:"omitempty,max=500"`
	ProfilePic *string `json:"profilePic"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type updateEmailRequest struct {
	NewEmail string `json:"newEmail" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type deleteAccountRequest struct {
	Password      string `json:"password" binding:"required"`
	ConfirmDelete string `json:"confirmDelete" binding:"required"`
}

func (h *Handler) MyProfile(c *gin.Context) {
	profile, err := h.users.Profile(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": profile})
}

func (h *Handler) UserProfile(c *gin.Context) {
	id, err := pathID(c, "id", "user")
	if err != nil {
		h.respondError(c, err)
		return
	}
	profile, err := h.users.Profile(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": profile})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUser(c).ID, service.ProfileInput{
		Name:       req.Name,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), currentUser(c).ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *Handler) UpdateEmail(c *gin.Context) {
	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	session, err := h.users.UpdateEmail(c.Request.Context(), currentUser(c).ID, req.NewEmail, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message": "Email updated successfully",
		"token":   session.Token,
		"user":    session.User,
	})
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	if err := h.users.DeleteAccount(c.Request.Context(), currentUser(c).ID, req.Password, req.ConfirmDelete); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

func (h *Handler) UserDashboard(c *gin.Context) {
	dashboard, err := h.users.Dashboard(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"dashboard": dashboard})
}

func (h *Handler) SearchUsers(c *gin.Context) {
	users, meta, err := h.users.Search(c.Request.Context(), c.Query("query"), pageParams(c, 10))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"users": users, "pagination": meta})
}
