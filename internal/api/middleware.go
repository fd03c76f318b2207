package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// Logger logs every request through logrus. 4xx are warnings, 5xx errors.
func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		statusCode := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"status":     statusCode,
			"latency":    time.Since(start),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"request_id": requestID,
		})

		switch {
		case statusCode >= http.StatusInternalServerError:
			entry.Error("Server error")
		case statusCode >= http.StatusBadRequest:
			entry.Warn("Client error")
		default:
			entry.Info("Request processed")
		}
	}
}

// Recovery turns a panic into the internal error envelope.
func Recovery(log *logrus.Logger, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"panic":      r,
					"request_id": c.Writer.Header().Get(requestIDHeader),
				}).Error("Panic recovered")
				writeError(c, log, dev, errors.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}

// CORSMiddleware applies the CORS policy and answers preflight requests.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	policy := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return func(c *gin.Context) {
		policy.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
