package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub-backend/internal/apperr"
)

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func panicRouter(log *logrus.Logger, dev bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(log, dev))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/missing", func(c *gin.Context) {
		writeError(c, log, dev, apperr.NotFound("Event not found"))
	})
	return r
}

func TestRecoveryWritesErrorEnvelope(t *testing.T) {
	log, hook := logtest.NewNullLogger()

	w := httptest.NewRecorder()
	panicRouter(log, false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Server error","code":"INTERNAL_ERROR"}`, w.Body.String())

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "Panic recovered", hook.AllEntries()[0].Message)

	w = httptest.NewRecorder()
	panicRouter(log, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Contains(t, w.Body.String(), `"error":"panic: kaboom"`)
}

func TestWriteErrorUsesApplicationStatus(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	w := httptest.NewRecorder()
	panicRouter(log, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Event not found","code":"NOT_FOUND"}`, w.Body.String())
}

func TestLoggerLevels(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	req := httptest.NewRequest(http.MethodGet, "/bad", nil)
	req.Header.Set(requestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "req-1", hook.LastEntry().Data["request_id"])
}
