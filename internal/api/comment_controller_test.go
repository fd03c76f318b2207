package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub-backend/internal/models"
)

func TestCommentThread(t *testing.T) {
	app := newTestApp(t)
	orgToken, _ := app.signup("org")
	annToken, _ := app.signup("ann")
	id := app.createEvent(orgToken, 10)

	w, body := app.do(http.MethodPost, "/comments/events/"+id, annToken, gin.H{"content": "Is there parking?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parentID := object(body, "comment")["id"].(string)

	w, body = app.do(http.MethodPost, "/comments/events/"+id, orgToken, gin.H{"content": "Yes, behind the venue.", "parentComment": parentID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	replyID := object(body, "comment")["id"].(string)

	w, _ = app.do(http.MethodPost, "/comments/events/"+id, annToken, gin.H{"content": "Thanks!", "parentComment": replyID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = app.do(http.MethodGet, "/comments/events/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := list(body, "comments")
	require.Len(t, comments, 1)
	replies := comments[0].(map[string]interface{})["replies"].([]interface{})
	require.Len(t, replies, 1)
	assert.Equal(t, replyID, replies[0].(map[string]interface{})["id"])

	w, body = app.do(http.MethodPost, "/comments/"+parentID+"/like", orgToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, float64(1), body["likeCount"])

	w, body = app.do(http.MethodPost, "/comments/"+parentID+"/like", orgToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["liked"])
	assert.Equal(t, float64(0), body["likeCount"])

	w, _ = app.do(http.MethodPut, "/comments/"+parentID, orgToken, gin.H{"content": "edited by someone else"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = app.do(http.MethodPut, "/comments/"+parentID, annToken, gin.H{"content": "Is there free parking?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, object(body, "comment")["isEdited"])

	w, body = app.do(http.MethodGet, "/comments/my", annToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(body, "comments"), 1)

	w, _ = app.do(http.MethodDelete, "/comments/"+parentID, annToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = app.do(http.MethodGet, "/comments/events/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(body, "comments"))
}

func TestReportAndModerateComment(t *testing.T) {
	app := newTestApp(t)
	orgToken, _ := app.signup("org")
	annToken, _ := app.signup("ann")
	modToken := app.adminToken(models.AdminRoleAdmin, models.PermManageComments)
	id := app.createEvent(orgToken, 10)

	_, body := app.do(http.MethodPost, "/comments/events/"+id, annToken, gin.H{"content": "buy cheap watches"})
	commentID := object(body, "comment")["id"].(string)

	w, body := app.do(http.MethodPost, "/comments/"+commentID+"/report", orgToken, gin.H{"reason": "rude"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Reason must be spam, inappropriate, harassment or other", body["message"])

	w, _ = app.do(http.MethodPost, "/comments/"+commentID+"/report", orgToken, gin.H{"reason": "spam"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(http.MethodPost, "/comments/"+commentID+"/report", orgToken, gin.H{"reason": "spam"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = app.do(http.MethodGet, "/admin/comments/reported", modToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reported := list(body, "comments")
	require.Len(t, reported, 1)
	assert.Equal(t, float64(1), reported[0].(map[string]interface{})["reportCount"])

	w, _ = app.do(http.MethodDelete, "/admin/comments/"+commentID, modToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = app.do(http.MethodGet, "/comments/events/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := list(body, "comments")
	require.Len(t, comments, 1)
	assert.Equal(t, models.DeletedCommentPlaceholder, comments[0].(map[string]interface{})["content"])

	w, _ = app.do(http.MethodPatch, "/admin/comments/"+commentID+"/approval", modToken, gin.H{"isApproved": false})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = app.do(http.MethodGet, "/comments/events/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(body, "comments"))
}
