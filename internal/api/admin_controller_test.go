package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub-backend/internal/models"
)

func TestAdminPermissions(t *testing.T) {
	app := newTestApp(t)
	analystToken := app.adminToken(models.AdminRoleAdmin, models.PermViewAnalytics)

	w, body := app.do(http.MethodGet, "/admin/users", analystToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. manage-users permission required.", body["message"])

	w, body = app.do(http.MethodGet, "/admin/dashboard/stats", analystToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), object(object(body, "stats"), "overview")["totalUsers"])

	w, body = app.do(http.MethodGet, "/admin/dashboard/activity?limit=5", analystToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(body, "activities"))
}

func TestAdminManagesUsersAndEvents(t *testing.T) {
	app := newTestApp(t)
	orgToken, _ := app.signup("org")
	annToken, annID := app.signup("ann")
	superToken := app.adminToken(models.AdminRoleSuper)
	eventID := app.createEvent(orgToken, 10)

	w, body := app.do(http.MethodGet, "/admin/users?search=ann", superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, list(body, "users"), 1)

	w, body = app.do(http.MethodPatch, "/admin/users/"+annID+"/status", superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User blocked successfully", body["message"])

	w, _ = app.do(http.MethodGet, "/auth/me", annToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = app.do(http.MethodPatch, "/admin/users/"+annID+"/status", superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User unblocked successfully", body["message"])

	w, body = app.do(http.MethodGet, "/admin/events?status=upcoming", superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(body, "events"), 1)

	w, _ = app.do(http.MethodPatch, "/admin/events/"+eventID+"/approval", superToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = app.do(http.MethodPatch, "/admin/events/"+eventID+"/approval", superToken, gin.H{"isApproved": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, object(body, "event")["isApproved"])

	w, body = app.do(http.MethodGet, "/events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(body, "events"))

	w, body = app.do(http.MethodGet, "/admin/dashboard/stats", superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	overview := object(object(body, "stats"), "overview")
	assert.Equal(t, float64(2), overview["totalUsers"])
	assert.Equal(t, float64(1), overview["totalEvents"])

	w, _ = app.do(http.MethodDelete, "/admin/users/"+annID, superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(http.MethodDelete, "/admin/events/"+eventID, superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = app.do(http.MethodGet, "/admin/events", superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(body, "events"))
}
