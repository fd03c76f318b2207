package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/auth"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
)

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = 10 * time.Minute

// AuthService signs users and admins in and out.
type AuthService struct {
	base
	tokens      *auth.TokenManager
	frontendURL string
}

func NewAuthService(db *gorm.DB, log *logrus.Logger, notifier notify.Notifier, tokens *auth.TokenManager, frontendURL string) *AuthService {
	return &AuthService{
		base:        newBase(db, log, notifier),
		tokens:      tokens,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Session is a signed-in user.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AdminSession is a signed-in admin.
type AdminSession struct {
	Token string        `json:"token"`
	Admin *models.Admin `json:"admin"`
}

// SignupInput registers a new user.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AdminInput creates a new admin account.
type AdminInput struct {
	Name        string
	Email       string
	Password    string
	Role        models.AdminRole
	Permissions []models.Permission
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return "", apperr.Validation("Please provide a valid email address")
	}
	return email, nil
}

func validPassword(password string) error {
	if len(password) < auth.MinPasswordLength {
		return apperr.Validation("Password must be at least 6 characters long")
	}
	if len(password) > auth.MaxPasswordLength {
		return apperr.Validation("Password cannot exceed 72 bytes")
	}
	return nil
}

// Signup creates a user account and signs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Name is required")
	}
	if len([]rune(name)) > 100 {
		return nil, apperr.Validation("Name cannot exceed 100 characters")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       models.UserActive,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, conflictOr(err, "User already exists with this email")
	}

	token, err := s.tokens.GenerateToken(user.ID, auth.SubjectUser)
	if err != nil {
		return nil, err
	}

	s.send(ctx, notify.TemplateWelcome, user.Email, notify.Data{Name: user.Name})
	return &Session{Token: token, User: &user}, nil
}

// Login checks a user's credentials. Blocked users are refused.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("Please provide email and password")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if user.IsBlocked() {
		return nil, apperr.Forbidden("Your account has been blocked")
	}

	token, err := s.tokens.GenerateToken(user.ID, auth.SubjectUser)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: &user}, nil
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.findUser(ctx, userID)
}

// Authenticate resolves a user bearer token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := s.tokens.Parse(token, auth.SubjectUser)
	if err != nil {
		return nil, apperr.Unauthenticated("Token is not valid")
	}
	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("Token is not valid")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if user.IsBlocked() {
		return nil, apperr.Forbidden("Your account has been blocked")
	}
	return &user, nil
}

// ForgotPassword emails a reset link when the address belongs to a user. It
// never reveals whether it does.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperr.Validation("Please provide an email address")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to load user")
	}

	token, digest, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	expire := s.now().Add(ResetTokenTTL)
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"reset_password_token":  digest,
		"reset_password_expire": expire,
	}).Error
	if err != nil {
		return errors.Wrap(err, "failed to store reset token")
	}

	s.send(ctx, notify.TemplatePasswordReset, user.Email, notify.Data{
		Name: user.Name,
		URL:  s.frontendURL + "/reset-password/" + token,
	})
	return nil
}

// ResetPassword sets a new password from a reset link and signs the user in.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*Session, error) {
	if err := validPassword(password); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expire > ?", auth.DigestToken(token), s.now()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Validation("Invalid or expired reset token")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpire = nil
	err = s.db.WithContext(ctx).Model(&user).
		Select("password_hash", "reset_password_token", "reset_password_expire").
		Updates(&user).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to reset password")
	}

	signed, err := s.tokens.GenerateToken(user.ID, auth.SubjectUser)
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, User: &user}, nil
}

// AdminLogin checks an admin's credentials. Repeated failures lock the account.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AdminSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	var admin models.Admin
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load admin")
	}

	now := s.now()
	if admin.IsLocked(now) {
		return nil, apperr.Forbidden("Account is temporarily locked due to too many failed login attempts")
	}
	if admin.Status != models.AdminActive {
		return nil, apperr.Unauthenticated("Admin account is deactivated")
	}

	if !auth.CheckPassword(admin.PasswordHash, password) {
		admin.RegisterFailedLogin(now)
		if err := s.saveLoginState(ctx, &admin); err != nil {
			return nil, err
		}
		if admin.IsLocked(now) {
			s.log.WithField("admin_id", admin.ID).Warn("Admin account locked after repeated failed logins")
		}
		return nil, apperr.Unauthenticated("Invalid credentials")
	}

	admin.RegisterSuccessfulLogin(now)
	if err := s.saveLoginState(ctx, &admin); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(admin.ID, auth.SubjectAdmin)
	if err != nil {
		return nil, err
	}
	return &AdminSession{Token: token, Admin: &admin}, nil
}

func (s *AuthService) saveLoginState(ctx context.Context, admin *models.Admin) error {
	err := s.db.WithContext(ctx).Model(admin).
		Select("login_attempts", "lock_until", "last_login").
		Updates(admin).Error
	if err != nil {
		return errors.Wrap(err, "failed to record login attempt")
	}
	return nil
}

// AdminLogout acknowledges a logout. Tokens are stateless, so the client
// simply discards its copy.
func (s *AuthService) AdminLogout(ctx context.Context, admin *models.Admin) error {
	s.log.WithField("admin_id", admin.ID).Info("Admin logged out")
	return nil
}

// AuthenticateAdmin resolves an admin bearer token.
func (s *AuthService) AuthenticateAdmin(ctx context.Context, token string) (*models.Admin, error) {
	id, err := s.tokens.Parse(token, auth.SubjectAdmin)
	if err != nil {
		return nil, apperr.Unauthenticated("Token is not valid")
	}
	var admin models.Admin
	err = s.db.WithContext(ctx).First(&admin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("Token is not valid")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load admin")
	}
	if admin.Status != models.AdminActive {
		return nil, apperr.Forbidden("Admin account is deactivated")
	}
	if admin.IsLocked(s.now()) {
		return nil, apperr.Forbidden("Admin account is locked")
	}
	return &admin, nil
}

// CreateAdmin adds an admin account. The creator needs manage-admins, and only
// a super-admin may create another super-admin.
func (s *AuthService) CreateAdmin(ctx context.Context, creator *models.Admin, in AdminInput) (*models.Admin, error) {
	if !creator.HasPermission(models.PermManageAdmins) {
		return nil, apperr.Forbidden("Insufficient permissions")
	}
	if in.Role == "" {
		in.Role = models.AdminRoleAdmin
	}
	if in.Role == models.AdminRoleSuper && creator.Role != models.AdminRoleSuper {
		return nil, apperr.Forbidden("Only a super-admin can create another super-admin")
	}
	return s.createAdmin(ctx, &creator.ID, in)
}

// CreateSuperAdmin bootstraps the first super-admin from the command line.
func (s *AuthService) CreateSuperAdmin(ctx context.Context, name, email, password string) (*models.Admin, error) {
	return s.createAdmin(ctx, nil, AdminInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     models.AdminRoleSuper,
	})
}

func (s *AuthService) createAdmin(ctx context.Context, createdBy *uuid.UUID, in AdminInput) (*models.Admin, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validPassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role != models.AdminRoleAdmin && in.Role != models.AdminRoleSuper {
		return nil, apperr.Validation("Invalid admin role")
	}

	perms := in.Permissions
	if len(perms) == 0 {
		perms = models.DefaultPermissions(in.Role)
	}
	for _, p := range perms {
		if !models.ValidPermission(p) {
			return nil, apperr.Validation("Invalid permission: " + string(p))
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	admin := models.Admin{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Permissions:  datatypes.JSONSlice[models.Permission](perms),
		Status:       models.AdminActive,
		CreatedBy:    createdBy,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, conflictOr(err, "Admin already exists with this email")
	}

	s.log.WithFields(logrus.Fields{
		"admin_id": admin.ID,
		"role":     admin.Role,
	}).Info("Admin account created")
	return &admin, nil
}
