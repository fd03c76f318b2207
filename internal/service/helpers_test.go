package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eventhub-backend/internal/database/dbtest"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
)

// MockNotifier records outgoing email.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// quietNotifier accepts any message.
func quietNotifier() *MockNotifier {
	n := new(MockNotifier)
	n.On("Send", mock.Anything, mock.Anything).Return(nil)
	return n
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleUser,
		Status:       models.UserActive,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createEvent(t *testing.T, db *gorm.DB, organizer *models.User, capacity int) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:       "Go Meetup",
		Description: "Talks about Go",
		Location:    models.Location{Address: "1 Main St", City: "Berlin", Country: "Germany"},
		Date:        time.Now().Add(72 * time.Hour),
		Time:        models.TimeWindow{Start: "18:00", End: "21:00"},
		Category:    "Technology",
		Capacity:    capacity,
		Currency:    "USD",
		Status:      models.EventPublished,
		IsApproved:  true,
	}
	if organizer != nil {
		e.OrganizerID = &organizer.ID
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

func reloadEvent(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Event {
	t.Helper()
	var e models.Event
	require.NoError(t, db.First(&e, "id = ?", id).Error)
	return &e
}

func newTestDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t)
}
