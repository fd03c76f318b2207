package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub-backend/internal/apperr"
)

func TestUserProfileRoutes(t *testing.T) {
	app := newTestApp(t)
	token, id := app.signup("ann")
	_, otherID := app.signup("bob")
	app.createEvent(token, 10)

	w, body := app.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := object(body, "user")
	assert.Equal(t, id, user["id"])
	assert.Equal(t, float64(1), object(user, "stats")["eventsCreated"])

	w, body = app.do(http.MethodGet, "/users/"+otherID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", object(body, "user")["name"])

	w, body = app.do(http.MethodGet, "/users/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user id", body["message"])

	w, body = app.do(http.MethodPut, "/users/profile", token, gin.H{"bio": "Gopher"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Gopher", object(body, "user")["bio"])
	assert.Equal(t, "ann", object(body, "user")["name"])

	w, body = app.do(http.MethodGet, "/users/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dashboard := object(body, "dashboard")
	assert.Len(t, list(dashboard, "myEvents"), 1)
	assert.Equal(t, float64(1), object(dashboard, "stats")["totalEventsCreated"])

	w, body = app.do(http.MethodGet, "/users/search?query=bo", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, list(body, "users"), 1)
	assert.Equal(t, otherID, list(body, "users")[0].(map[string]interface{})["id"])
	assert.Equal(t, float64(1), object(body, "pagination")["totalItems"])

	w, _ = app.do(http.MethodGet, "/users/search?query=b", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserCredentialRoutes(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.signup("ann")

	w, body := app.do(http.MethodPut, "/users/password", token, gin.H{"currentPassword": "wrong-pass", "newPassword": "secret2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Current password is incorrect", body["message"])

	w, _ = app.do(http.MethodPut, "/users/password", token, gin.H{"currentPassword": "secret1", "newPassword": "secret2"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ann@example.com", "password": "secret2"})
	require.Equal(t, http.StatusOK, w.Code)

	app.signup("bob")
	w, body = app.do(http.MethodPut, "/users/email", token, gin.H{"newEmail": "bob@example.com", "password": "secret2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperr.CodeConflict, body["code"])

	w, body = app.do(http.MethodPut, "/users/email", token, gin.H{"newEmail": "ann2@example.com", "password": "secret2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "ann2@example.com", object(body, "user")["email"])

	w, _ = app.do(http.MethodDelete, "/users/account", token, gin.H{"password": "secret2", "confirmDelete": "yes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(http.MethodDelete, "/users/account", token, gin.H{"password": "secret2", "confirmDelete": "DELETE"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
