package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub-backend/internal/models"
	"eventhub-backend/internal/service"
)

type signupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

type createAdminRequest struct {
	Name        string              `json:"name" binding:"required,max=100"`
	Email       string              `json:"email" binding:"required,email"`
	Password    string              `json:"password" binding:"required,min=6"`
	Role        models.AdminRole    `json:"role" binding:"omitempty,oneof=admin super-admin"`
	Permissions []models.Permission `json:"permissions"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	session, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   session.Token,
		"user":    session.User,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   session.Token,
		"user":    session.User,
	})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message": "If an account exists for that email, a reset link has been sent",
	})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	session, err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Password reset successful",
		"token":   session.Token,
		"user":    session.User,
	})
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	session, err := h.auth.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Admin login successful",
		"token":   session.Token,
		"admin":   session.Admin,
	})
}

func (h *Handler) AdminLogout(c *gin.Context) {
	if err := h.auth.AdminLogout(c.Request.Context(), currentAdmin(c)); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	admin, err := h.auth.CreateAdmin(c.Request.Context(), currentAdmin(c), service.AdminInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message": "Admin created successfully",
		"admin":   admin,
	})
}
