package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eventhub-backend/config"
	"eventhub-backend/internal/auth"
	"eventhub-backend/internal/cache"
	"eventhub-backend/internal/database/dbtest"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
	"eventhub-backend/internal/service"
)

const testOrigin = "http://localhost:5173"

type testApp struct {
	t      *testing.T
	db     *gorm.DB
	tokens *auth.TokenManager
	router http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	log := dbtest.Logger()
	notifier := &notify.LogNotifier{Log: log}
	tokens := auth.NewTokenManager("test-secret", time.Hour, time.Hour)
	statsCache, err := cache.NewRedisCache(config.RedisConfig{})
	require.NoError(t, err)

	svc := Services{
		Auth:     service.NewAuthService(db, log, notifier, tokens, testOrigin),
		Users:    service.NewUserService(db, log, notifier, tokens),
		Events:   service.NewEventService(db, log, notifier),
		RSVPs:    service.NewRSVPService(db, log, notifier),
		Comments: service.NewCommentService(db, log, notifier),
		Admin:    service.NewAdminService(db, log, notifier, statsCache),
	}
	cfg := config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Address: ":0", CorsOrigins: []string{testOrigin}},
	}

	return &testApp{t: t, db: db, tokens: tokens, router: NewServer(cfg, log, svc).Handler()}
}

// do sends a JSON request and returns the recorded response and its decoded body.
func (a *testApp) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

// signup registers a user through the API and returns its token and id.
func (a *testApp) signup(name string) (string, string) {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/auth/signup", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret1",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return body["token"].(string), object(body, "user")["id"].(string)
}

func (a *testApp) adminToken(role models.AdminRole, perms ...models.Permission) string {
	a.t.Helper()
	admin := &models.Admin{
		Name:         "Moderator",
		Email:        string(role) + "@eventhub.test",
		PasswordHash: "x",
		Role:         role,
		Permissions:  datatypes.JSONSlice[models.Permission](perms),
		Status:       models.AdminActive,
	}
	require.NoError(a.t, a.db.Create(admin).Error)
	token, err := a.tokens.GenerateToken(admin.ID, auth.SubjectAdmin)
	require.NoError(a.t, err)
	return token
}

// createEvent creates an event through the API and returns its id.
func (a *testApp) createEvent(token string, capacity int) string {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/events", token, eventPayload(capacity))
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return object(body, "event")["id"].(string)
}

func eventPayload(capacity int) gin.H {
	return gin.H{
		"title":       "Go Meetup",
		"description": "Talks about Go",
		"location":    gin.H{"address": "1 Main St", "city": "Berlin", "country": "Germany"},
		"date":        time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"time":        gin.H{"start": "18:00", "end": "21:00"},
		"category":    "Technology",
		"capacity":    capacity,
		"tags":        []string{"go", "backend"},
	}
}

func object(body map[string]interface{}, key string) map[string]interface{} {
	v, _ := body[key].(map[string]interface{})
	return v
}

func list(body map[string]interface{}, key string) []interface{} {
	v, _ := body[key].([]interface{})
	return v
}
