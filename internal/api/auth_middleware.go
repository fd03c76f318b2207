package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/models"
)

const (
	userKey  = "user"
	adminKey = "admin"
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireUser rejects requests without a valid user token.
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			h.respondError(c, apperr.Unauthenticated("Access denied. No token provided."))
			return
		}
		user, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalUser attaches the user when a valid token is sent and otherwise
// lets the request through anonymously.
func (h *Handler) OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user, err := h.auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

// RequireAdmin rejects requests without a valid admin token.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			h.respondError(c, apperr.Unauthenticated("Access denied. Admin authentication required."))
			return
		}
		admin, err := h.auth.AuthenticateAdmin(c.Request.Context(), token)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Set(adminKey, admin)
		c.Next()
	}
}

// RequirePermission must run after RequireAdmin.
func (h *Handler) RequirePermission(p models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := currentAdmin(c)
		if admin == nil {
			h.respondError(c, apperr.Unauthenticated("Admin authentication required."))
			return
		}
		if !admin.HasPermission(p) {
			h.respondError(c, apperr.Forbidden("Access denied. "+string(p)+" permission required."))
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user, or nil.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func currentAdmin(c *gin.Context) *models.Admin {
	v, ok := c.Get(adminKey)
	if !ok {
		return nil
	}
	admin, _ := v.(*models.Admin)
	return admin
}
