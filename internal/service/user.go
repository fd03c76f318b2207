package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/auth"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
	"eventhub-backend/internal/pagination"
)

const deleteConfirmation = "DELETE"

// UserService manages user profiles and accounts.
type UserService struct {
	base
	tokens *auth.TokenManager
}

func NewUserService(db *gorm.DB, log *logrus.Logger, notifier notify.Notifier, tokens *auth.TokenManager) *UserService {
	return &UserService{base: newBase(db, log, notifier), tokens: tokens}
}

// UserStats summarizes a user's activity.
type UserStats struct {
	EventsCreated  int64 `json:"eventsCreated"`
	EventsAttended int64 `json:"eventsAttended"`
	CommentsPosted int64 `json:"commentsPosted"`
}

// Profile is a user with activity stats.
type Profile struct {
	*models.User
	Stats UserStats `json:"stats"`
}

// ProfileInput changes profile fields; nil leaves a field unchanged.
type ProfileInput struct {
	Name       *string
	Bio        *string
	ProfilePic *string
}

// Dashboard is the signed-in user's home page.
type Dashboard struct {
	UpcomingEvents []models.Event `json:"upcomingEvents"`
	MyEvents       []models.Event `json:"myEvents"`
	RecentRSVPs    []models.RSVP  `json:"recentRSVPs"`
	Stats          DashboardStats `json:"stats"`
}

type DashboardStats struct {
	TotalEventsCreated int64 `json:"totalEventsCreated"`
	TotalRSVPs         int64 `json:"totalRSVPs"`
	TotalComments      int64 `json:"totalComments"`
}

func (s *UserService) stats(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	var st UserStats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Event{}).Where("organizer_id = ?", userID).Count(&st.EventsCreated).Error; err != nil {
		return st, errors.Wrap(err, "failed to count events")
	}
	if err := db.Model(&models.RSVP{}).Where("user_id = ?", userID).Count(&st.EventsAttended).Error; err != nil {
		return st, errors.Wrap(err, "failed to count RSVPs")
	}
	if err := db.Model(&models.Comment{}).Where("author_id = ?", userID).Count(&st.CommentsPosted).Error; err != nil {
		return st, errors.Wrap(err, "failed to count comments")
	}
	return st, nil
}

// Profile returns a user with their activity stats.
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	st, err := s.stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Stats: st}, nil
}

// UpdateProfile changes the user's name, bio or picture.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len([]rune(name)) > 100 {
			return nil, apperr.Validation("Name must be between 1 and 100 characters")
		}
		user.Name = name
	}
	if in.Bio != nil {
		if len([]rune(*in.Bio)) > 500 {
			return nil, apperr.Validation("Bio cannot exceed 500 characters")
		}
		user.Bio = *in.Bio
	}
	if in.ProfilePic != nil {
		user.ProfilePic = *in.ProfilePic
	}

	err = s.db.WithContext(ctx).Model(user).Select("name", "bio", "profile_pic").Updates(user).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to update profile")
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return apperr.Validation("Current password and new password are required")
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return apperr.Validation("Current password is incorrect")
	}
	if len(next) < auth.MinPasswordLength {
		return apperr.Validation("New password must be at least 6 characters long")
	}
	if len(next) > auth.MaxPasswordLength {
		return apperr.Validation("New password cannot exceed 72 bytes")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return errors.Wrap(err, "failed to change password")
	}
	return nil
}

// UpdateEmail changes the login address and returns a fresh token for it.
func (s *UserService) UpdateEmail(ctx context.Context, userID uuid.UUID, newEmail, password string) (*Session, error) {
	if newEmail == "" || password == "" {
		return nil, apperr.Validation("New email and password are required")
	}
	email, err := normalizeEmail(newEmail)
	if err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Validation("Password is incorrect")
	}

	var taken int64
	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, userID).
		Count(&taken).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to check email")
	}
	if taken > 0 {
		return nil, apperr.Conflict("Email is already taken")
	}

	user.Email = email
	if err := s.db.WithContext(ctx).Model(user).Update("email", email).Error; err != nil {
		return nil, conflictOr(err, "Email is already taken")
	}

	token, err := s.tokens.GenerateToken(user.ID, auth.SubjectUser)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// DeleteAccount removes the caller's account after re-checking the password.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID, password, confirm string) error {
	if password == "" || confirm != deleteConfirmation {
		return apperr.Validation(`Password and confirmation (type "DELETE") are required`)
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return apperr.Validation("Password is incorrect")
	}

	if err := deleteUser(ctx, s.db, userID, s.now()); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("User account deleted")
	return nil
}

// Dashboard collects the user's upcoming events, own events, recent RSVPs and totals.
func (s *UserService) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	d := &Dashboard{
		UpcomingEvents: []models.Event{},
		MyEvents:       []models.Event{},
		RecentRSVPs:    []models.RSVP{},
	}

	err := db.Model(&models.Event{}).
		Joins("JOIN rsvps ON rsvps.event_id = events.id").
		Where("rsvps.user_id = ? AND rsvps.status = ? AND events.date > ?", userID, models.RSVPAttending, s.now()).
		Order("events.date ASC").
		Limit(5).
		Find(&d.UpcomingEvents).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load upcoming events")
	}

	err = db.Where("organizer_id = ?", userID).Order("date DESC").Limit(5).Find(&d.MyEvents).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load events")
	}

	err = db.Preload("Event").Where("user_id = ?", userID).Order("response_date DESC").Limit(5).Find(&d.RecentRSVPs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load RSVPs")
	}

	st, err := s.stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.Stats = DashboardStats{
		TotalEventsCreated: st.EventsCreated,
		TotalRSVPs:         st.EventsAttended,
		TotalComments:      st.CommentsPosted,
	}
	return d, nil
}

// Search finds active users by name.
func (s *UserService) Search(ctx context.Context, query string, p pagination.Params) ([]models.UserSummary, pagination.Meta, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return nil, pagination.Meta{}, apperr.Validation("Search query must be at least 2 characters long")
	}

	q := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(name) LIKE ? AND status = ?", likePattern(query), models.UserActive)

	var users []models.User
	meta, err := paginate(q, p, &users, orderBy("name ASC"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	out := make([]models.UserSummary, len(users))
	for i := range users {
		out[i] = users[i].Summary()
	}
	return out, meta, nil
}
