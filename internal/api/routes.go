package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub-backend/internal/models"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", func(c *gin.Context) {
		respond(c, http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found", "code": "NOT_FOUND"})
	})

	// AUTH
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.PUT("/reset-password/:token", h.ResetPassword)
		authGroup.GET("/me", h.RequireUser(), h.Me)
		authGroup.POST("/admin/login", h.AdminLogin)
		authGroup.POST("/admin/logout", h.RequireAdmin(), h.AdminLogout)
	}

	// EVENTS
	events := r.Group("/events")
	{
		events.GET("", h.OptionalUser(), h.ListEvents)
		events.GET("/my/created", h.RequireUser(), h.MyEvents)
		events.GET("/:id", h.OptionalUser(), h.GetEvent)
		events.POST("", h.RequireUser(), h.CreateEvent)
		events.PUT("/:id", h.RequireUser(), h.UpdateEvent)
		events.DELETE("/:id", h.RequireUser(), h.DeleteEvent)
	}

	// RSVPS
	rsvps := r.Group("/rsvps", h.RequireUser())
	{
		rsvps.GET("/my", h.MyRSVPs)
		rsvps.POST("/events/:eventId", h.RespondRSVP)
		rsvps.GET("/events/:eventId", h.GetRSVP)
		rsvps.DELETE("/events/:eventId", h.CancelRSVP)
		rsvps.GET("/events/:eventId/all", h.EventRSVPs)
		rsvps.POST("/events/:eventId/checkin/:userId", h.CheckIn)
	}

	// COMMENTS
	comments := r.Group("/comments")
	{
		comments.GET("/events/:eventId", h.OptionalUser(), h.EventComments)
		comments.GET("/my", h.RequireUser(), h.MyComments)
		comments.POST("/events/:eventId", h.RequireUser(), h.CreateComment)
		comments.PUT("/:commentId", h.RequireUser(), h.UpdateComment)
		comments.DELETE("/:commentId", h.RequireUser(), h.DeleteComment)
		comments.POST("/:commentId/like", h.RequireUser(), h.LikeComment)
		comments.POST("/:commentId/report", h.RequireUser(), h.ReportComment)
	}

	// USERS
	users := r.Group("/users", h.RequireUser())
	{
		users.GET("/me", h.MyProfile)
		users.GET("/dashboard", h.UserDashboard)
		users.GET("/search", h.SearchUsers)
		users.GET("/:id", h.UserProfile)
		users.PUT("/profile", h.UpdateProfile)
		users.PUT("/password", h.ChangePassword)
		users.PUT("/email", h.UpdateEmail)
		users.DELETE("/account", h.DeleteAccount)
	}

	// ADMIN
	r.POST("/admin/login", h.AdminLogin)
	admin := r.Group("/admin", h.RequireAdmin())
	{
		analytics := admin.Group("/dashboard", h.RequirePermission(models.PermViewAnalytics))
		analytics.GET("/stats", h.DashboardStats)
		analytics.GET("/activity", h.RecentActivity)

		manageUsers := admin.Group("/users", h.RequirePermission(models.PermManageUsers))
		manageUsers.GET("", h.AdminListUsers)
		manageUsers.DELETE("/:userId", h.AdminDeleteUser)
		manageUsers.PATCH("/:userId/status", h.ToggleUserStatus)

		manageEvents := admin.Group("/events", h.RequirePermission(models.PermManageEvents))
		manageEvents.GET("", h.AdminListEvents)
		manageEvents.DELETE("/:eventId", h.AdminDeleteEvent)
		manageEvents.PATCH("/:eventId/approval", h.SetEventApproval)

		manageComments := admin.Group("/comments", h.RequirePermission(models.PermManageComments))
		manageComments.GET("/reported", h.ReportedComments)
		manageComments.PATCH("/:commentId/approval", h.SetCommentApproval)
		manageComments.DELETE("/:commentId", h.AdminDeleteComment)

		admin.POST("/admins", h.RequirePermission(models.PermManageAdmins), h.CreateAdmin)
	}
}
