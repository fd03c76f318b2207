package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/auth"
	"eventhub-backend/internal/database/dbtest"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
)

func newAuthService(t *testing.T, notifier notify.Notifier) (*AuthService, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour, time.Hour)
	return NewAuthService(newTestDB(t), dbtest.Logger(), notifier, tokens, "http://localhost:5173/"), tokens
}

func TestSignupAndLogin(t *testing.T) {
	svc, tokens := newAuthService(t, quietNotifier())
	ctx := context.Background()

	session, err := svc.Signup(ctx, SignupInput{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)

	id, err := tokens.Parse(session.Token, auth.SubjectUser)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, id)

	_, err = svc.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	_, err = svc.Signup(ctx, SignupInput{Name: "Bo", Email: "bo@example.com", Password: "123"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	_, err = svc.Signup(ctx, SignupInput{Name: "Bo", Email: "bo@example.com", Password: strings.Repeat("x", 80)})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	_, err = svc.Signup(ctx, SignupInput{Name: "Bo", Email: "bo@example.com", Password: strings.Repeat("x", auth.MaxPasswordLength)})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))

	logged, err := svc.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, logged.User.ID)

	user, err := svc.Authenticate(ctx, logged.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)

	require.NoError(t, svc.db.Model(user).Update("status", models.UserBlocked).Error)
	_, err = svc.Login(ctx, "ann@example.com", "secret1")
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
	_, err = svc.Authenticate(ctx, logged.Token)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	_, err = svc.Authenticate(ctx, "garbage")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
}

func TestPasswordReset(t *testing.T) {
	notifier := new(MockNotifier)
	svc, _ := newAuthService(t, notifier)
	ctx := context.Background()

	notifier.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.Subject == "Welcome to EventHub"
	})).Return(nil)

	var link string
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.Subject == "Password Reset Request"
	})).Run(func(args mock.Arguments) {
		html := args.Get(1).(notify.Message).HTML
		start := strings.Index(html, "http://localhost:5173/reset-password/")
		end := strings.Index(html[start:], `"`)
		link = html[start : start+end]
	}).Return(nil).Once()

	_, err := svc.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	// Unknown addresses look like success.
	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.com"))
	require.NoError(t, svc.ForgotPassword(ctx, "ann@example.com"))
	require.NotEmpty(t, link)
	token := link[strings.LastIndex(link, "/")+1:]

	var stored models.User
	require.NoError(t, svc.db.Where("email = ?", "ann@example.com").First(&stored).Error)
	assert.Equal(t, auth.DigestToken(token), stored.ResetPasswordToken)

	_, err = svc.ResetPassword(ctx, "not-the-token", "newpass1")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	session, err := svc.ResetPassword(ctx, token, "newpass1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = svc.Login(ctx, "ann@example.com", "newpass1")
	require.NoError(t, err)

	// Tokens are single use.
	_, err = svc.ResetPassword(ctx, token, "another1")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestExpiredResetToken(t *testing.T) {
	svc, _ := newAuthService(t, quietNotifier())
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	token, digest, err := auth.NewResetToken()
	require.NoError(t, err)
	expired := time.Now().Add(-time.Minute)
	require.NoError(t, svc.db.Model(&models.User{}).Where("email = ?", "ann@example.com").Updates(map[string]interface{}{
		"reset_password_token":  digest,
		"reset_password_expire": expired,
	}).Error)

	_, err = svc.ResetPassword(ctx, token, "newpass1")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestAdminLockout(t *testing.T) {
	svc, tokens := newAuthService(t, quietNotifier())
	ctx := context.Background()

	admin, err := svc.CreateSuperAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, models.AdminRoleSuper, admin.Role)
	assert.Len(t, admin.Permissions, 6)

	_, err = svc.CreateSuperAdmin(ctx, "Root", "root@example.com", "rootpass")
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	for i := 0; i < models.MaxLoginAttempts; i++ {
		_, err = svc.AdminLogin(ctx, "root@example.com", "wrong")
		assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
	}

	// Locked even with the right password.
	_, err = svc.AdminLogin(ctx, "root@example.com", "rootpass")
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	svc.now = func() time.Time { return time.Now().Add(models.LockDuration + time.Minute) }
	session, err := svc.AdminLogin(ctx, "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.Zero(t, session.Admin.LoginAttempts)
	assert.NotNil(t, session.Admin.LastLogin)

	// Admin tokens are not user tokens.
	_, err = tokens.Parse(session.Token, auth.SubjectUser)
	assert.Error(t, err)
	_, err = svc.Authenticate(ctx, session.Token)
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
}

func TestCreateAdminPermissions(t *testing.T) {
	svc, _ := newAuthService(t, quietNotifier())
	ctx := context.Background()

	root, err := svc.CreateSuperAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)

	mod, err := svc.CreateAdmin(ctx, root, AdminInput{
		Name:        "Mod",
		Email:       "mod@example.com",
		Password:    "modpass",
		Permissions: []models.Permission{models.PermManageComments},
	})
	require.NoError(t, err)
	assert.Equal(t, models.AdminRoleAdmin, mod.Role)
	assert.Equal(t, root.ID, *mod.CreatedBy)
	assert.True(t, mod.HasPermission(models.PermManageComments))
	assert.False(t, mod.HasPermission(models.PermManageUsers))

	_, err = svc.CreateAdmin(ctx, mod, AdminInput{Name: "X", Email: "x@example.com", Password: "xpass1"})
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	_, err = svc.CreateAdmin(ctx, root, AdminInput{
		Name: "Y", Email: "y@example.com", Password: "ypass1",
		Permissions: []models.Permission{"launch-missiles"},
	})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	got, err := svc.AuthenticateAdmin(ctx, mustAdminToken(t, svc, "mod@example.com", "modpass"))
	require.NoError(t, err)
	assert.Equal(t, mod.ID, got.ID)
}

func mustAdminToken(t *testing.T, svc *AuthService, email, password string) string {
	t.Helper()
	session, err := svc.AdminLogin(context.Background(), email, password)
	require.NoError(t, err)
	return session.Token
}
