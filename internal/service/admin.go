package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"eventhub-backend/internal/cache"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
	"eventhub-backend/internal/pagination"
)

const (
	statsCacheTTL = time.Minute
	recentPeriod  = 30 * 24 * time.Hour
)

// AdminService backs the moderation dashboard.
type AdminService struct {
	base
	cache cache.Cache
}

func NewAdminService(db *gorm.DB, log *logrus.Logger, notifier notify.Notifier, c cache.Cache) *AdminService {
	return &AdminService{base: newBase(db, log, notifier), cache: c}
}

type Overview struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalEvents   int64 `json:"totalEvents"`
	TotalRSVPs    int64 `json:"totalRSVPs"`
	TotalComments int64 `json:"totalComments"`
}

type Recent struct {
	NewUsers  int64 `json:"newUsers"`
	NewEvents int64 `json:"newEvents"`
	NewRSVPs  int64 `json:"newRSVPs"`
}

type TopOrganizer struct {
	User       models.UserSummary `json:"user"`
	Email      string             `json:"email"`
	EventCount int64              `json:"eventCount"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	Overview         Overview       `json:"overview"`
	Recent           Recent         `json:"recent"`
	UpcomingEvents   []models.Event `json:"upcomingEvents"`
	TopOrganizers    []TopOrganizer `json:"topOrganizers"`
	RSVPDistribution RSVPCounts     `json:"rsvpDistribution"`
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Activity types
const (
	ActivityUserJoined   = "user_joined"
	ActivityEventCreated = "event_created"
)

// DashboardStats computes the dashboard aggregate, served from cache for up
// to a minute.
func (s *AdminService) DashboardStats(ctx context.Context) (*Stats, error) {
	var cached Stats
	err := s.cache.Get(ctx, cache.DashboardStatsKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.WithError(err).Warn("Dashboard stats cache read failed")
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.DashboardStatsKey, stats, statsCacheTTL); err != nil {
		s.log.WithError(err).Warn("Dashboard stats cache write failed")
	}
	return stats, nil
}

func (s *AdminService) computeStats(ctx context.Context) (*Stats, error) {
	now := s.now()
	since := now.Add(-recentPeriod)
	stats := &Stats{UpcomingEvents: []models.Event{}, TopOrganizers: []TopOrganizer{}}

	g, gctx := errgroup.WithContext(ctx)
	count := func(model interface{}, dest *int64, query string, args ...interface{}) {
		g.Go(func() error {
			q := s.db.WithContext(gctx).Model(model)
			if query != "" {
				q = q.Where(query, args...)
			}
			return errors.Wrap(q.Count(dest).Error, "dashboard count failed")
		})
	}

	count(&models.User{}, &stats.Overview.TotalUsers, "")
	count(&models.Event{}, &stats.Overview.TotalEvents, "")
	count(&models.RSVP{}, &stats.Overview.TotalRSVPs, "")
	count(&models.Comment{}, &stats.Overview.TotalComments, "")
	count(&models.User{}, &stats.Recent.NewUsers, "created_at >= ?", since)
	count(&models.Event{}, &stats.Recent.NewEvents, "created_at >= ?", since)
	count(&models.RSVP{}, &stats.Recent.NewRSVPs, "response_date >= ?", since)

	g.Go(func() error {
		err := s.db.WithContext(gctx).
			Preload("Organizer").
			Where("date > ?", now).
			Order("date ASC").
			Limit(5).
			Find(&stats.UpcomingEvents).Error
		return errors.Wrap(err, "failed to load upcoming events")
	})

	g.Go(func() error {
		var err error
		stats.TopOrganizers, err = s.topOrganizers(gctx)
		return err
	})

	g.Go(func() error {
		var rows []struct {
			Status models.RSVPStatus
			Count  int64
		}
		err := s.db.WithContext(gctx).Model(&models.RSVP{}).
			Select("status, COUNT(*) AS count").
			Group("status").
			Scan(&rows).Error
		if err != nil {
			return errors.Wrap(err, "failed to load RSVP distribution")
		}
		for _, r := range rows {
			switch r.Status {
			case models.RSVPAttending:
				stats.RSVPDistribution.Attending = r.Count
			case models.RSVPMaybe:
				stats.RSVPDistribution.Maybe = r.Count
			case models.RSVPNotAttending:
				stats.RSVPDistribution.NotAttending = r.Count
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) topOrganizers(ctx context.Context) ([]TopOrganizer, error) {
	var rows []struct {
		OrganizerID uuid.UUID
		EventCount  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Event{}).
		Select("organizer_id, COUNT(*) AS event_count").
		Where("organizer_id IS NOT NULL").
		Group("organizer_id").
		Order("event_count DESC").
		Limit(5).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load top organizers")
	}
	if len(rows) == 0 {
		return []TopOrganizer{}, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.OrganizerID
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load organizers")
	}
	byID := make(map[uuid.UUID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	out := make([]TopOrganizer, 0, len(rows))
	for _, r := range rows {
		u, ok := byID[r.OrganizerID]
		if !ok {
			continue
		}
		out = append(out, TopOrganizer{User: u.Summary(), Email: u.Email, EventCount: r.EventCount})
	}
	return out, nil
}

// RecentActivity merges the newest signups and events into one feed, newest first.
func (s *AdminService) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	half := limit / 2
	if half == 0 {
		half = 1
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(half).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load recent users")
	}
	var events []models.Event
	err := s.db.WithContext(ctx).Preload("Organizer").Order("created_at DESC").Limit(half).Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent events")
	}

	activities := make([]Activity, 0, len(users)+len(events))
	for i := range users {
		activities = append(activities, Activity{Type: ActivityUserJoined, Data: users[i], Timestamp: users[i].CreatedAt})
	}
	for i := range events {
		activities = append(activities, Activity{Type: ActivityEventCreated, Data: events[i], Timestamp: events[i].CreatedAt})
	}
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

// ListUsers pages through users, optionally filtered by name/email and status.
func (s *AdminService) ListUsers(ctx context.Context, search string, status models.UserStatus, p pagination.Params) ([]models.User, pagination.Meta, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := likePattern(search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if status == models.UserActive || status == models.UserBlocked {
		q = q.Where("status = ?", status)
	}

	users := []models.User{}
	meta, err := paginate(q, p, &users, orderBy("created_at DESC"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return users, meta, nil
}

// DeleteUser removes a user account on behalf of an admin.
func (s *AdminService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.findUser(ctx, userID); err != nil {
		return err
	}
	if err := deleteUser(ctx, s.db, userID, s.now()); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

// ToggleUserStatus blocks an active user or reactivates a blocked one.
func (s *AdminService) ToggleUserStatus(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked() {
		user.Status = models.UserActive
	} else {
		user.Status = models.UserBlocked
	}
	if err := s.db.WithContext(ctx).Model(user).Update("status", user.Status).Error; err != nil {
		return nil, errors.Wrap(err, "failed to update user status")
	}
	return user, nil
}

func (s *AdminService) invalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.DashboardStatsKey); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate dashboard stats cache")
	}
}
