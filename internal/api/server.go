// Package api exposes the EventHub services over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"eventhub-backend/config"
	"eventhub-backend/internal/service"
)

// Services are the business services the handlers call into.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Events   *service.EventService
	RSVPs    *service.RSVPService
	Comments *service.CommentService
	Admin    *service.AdminService
}

// Handler holds the route handlers and auth middleware.
type Handler struct {
	auth     *service.AuthService
	users    *service.UserService
	events   *service.EventService
	rsvps    *service.RSVPService
	comments *service.CommentService
	admin    *service.AdminService
	log      *logrus.Logger
	dev      bool
}

func NewHandler(svc Services, log *logrus.Logger, dev bool) *Handler {
	return &Handler{
		auth:     svc.Auth,
		users:    svc.Users,
		events:   svc.Events,
		rsvps:    svc.RSVPs,
		comments: svc.Comments,
		admin:    svc.Admin,
		log:      log,
		dev:      dev,
	}
}

// Server is the HTTP server.
type Server struct {
	log    *logrus.Logger
	router *gin.Engine
	srv    *http.Server
}

// NewServer builds the router with its middleware and routes.
func NewServer(cfg config.Config, log *logrus.Logger, svc Services) *Server {
	RegisterValidations()

	router := gin.New()
	router.Use(
		Recovery(log, cfg.IsDevelopment()),
		Logger(log),
		CORSMiddleware(cfg.Server.CorsOrigins),
	)
	SetupRoutes(router, NewHandler(svc, log, cfg.IsDevelopment()))

	return &Server{
		log:    log,
		router: router,
		srv: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("address", s.srv.Addr).Info("Starting HTTP server")
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
