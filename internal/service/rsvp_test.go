package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/database/dbtest"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
	"eventhub-backend/internal/pagination"
)

func TestRespondCapacityOne(t *testing.T) {
	db := newTestDB(t)
	svc := NewRSVPService(db, dbtest.Logger(), quietNotifier())
	ctx := context.Background()

	org := createUser(t, db, "org")
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	event := createEvent(t, db, org, 1)

	rsvp, created, err := svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: models.RSVPAttending})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RSVPAttending, rsvp.Status)

	e := reloadEvent(t, db, event.ID)
	assert.Equal(t, 1, e.AttendeeCount())
	assert.Equal(t, 0, e.AvailableSpots())

	_, _, err = svc.Respond(ctx, bob.ID, event.ID, RespondInput{Status: models.RSVPAttending})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeCapacityExceeded))

	var count int64
	db.Model(&models.RSVP{}).Where("event_id = ?", event.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// A maybe does not take a seat.
	_, _, err = svc.Respond(ctx, bob.ID, event.ID, RespondInput{Status: models.RSVPMaybe})
	require.NoError(t, err)

	// Re-confirming an existing seat is not blocked by the full event.
	_, created, err = svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: models.RSVPAttending, Guests: 2})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRespondMaybeThenAttendingKeepsOneRSVP(t *testing.T) {
	db := newTestDB(t)
	svc := NewRSVPService(db, dbtest.Logger(), quietNotifier())
	ctx := context.Background()

	org := createUser(t, db, "org")
	alice := createUser(t, db, "alice")
	event := createEvent(t, db, org, 10)

	notes := "maybe late"
	first, created, err := svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: models.RSVPMaybe, Notes: &notes})
	require.NoError(t, err)
	assert.True(t, created)

	e := reloadEvent(t, db, event.ID)
	status, ok := e.AttendeeStatus(alice.ID)
	assert.True(t, ok)
	assert.Equal(t, models.RSVPMaybe, status)
	assert.Equal(t, 0, e.AttendeeCount())

	svc.now = func() time.Time { return time.Now().Add(time.Minute) }
	second, created, err := svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: models.RSVPAttending})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.ResponseDate.After(first.ResponseDate))
	assert.Equal(t, "maybe late", second.Notes)

	var rsvps []models.RSVP
	require.NoError(t, db.Where("user_id = ? AND event_id = ?", alice.ID, event.ID).Find(&rsvps).Error)
	require.Len(t, rsvps, 1)
	assert.Equal(t, models.RSVPAttending, rsvps[0].Status)

	e = reloadEvent(t, db, event.ID)
	require.Len(t, e.Attendees, 1)
	assert.Equal(t, models.RSVPAttending, e.Attendees[0].Status)

	cleared := ""
	third, _, err := svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: models.RSVPAttending, Notes: &cleared})
	require.NoError(t, err)
	assert.Empty(t, third.Notes)

	var stored models.RSVP
	require.NoError(t, db.First(&stored, "id = ?", first.ID).Error)
	assert.Empty(t, stored.Notes)
}

func TestAttendeeEntryExistsIffRSVPNotDeclined(t *testing.T) {
	db := newTestDB(t)
	svc := NewRSVPService(db, dbtest.Logger(), quietNotifier())
	ctx := context.Background()

	org := createUser(t, db, "org")
	alice := createUser(t, db, "alice")
	event := createEvent(t, db, org, 10)

	steps := []struct {
		status models.RSVPStatus
		entry  bool
	}{
		{models.RSVPAttending, true},
		{models.RSVPNotAttending, false},
		{models.RSVPMaybe, true},
		{models.RSVPNotAttending, false},
		{models.RSVPAttending, true},
	}
	for _, step := range steps {
		_, _, err := svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: step.status})
		require.NoError(t, err)

		e := reloadEvent(t, db, event.ID)
		_, ok := e.AttendeeStatus(alice.ID)
		assert.Equal(t, step.entry, ok, "after %s", step.status)
	}

	require.NoError(t, svc.Cancel(ctx, alice.ID, event.ID))
	e := reloadEvent(t, db, event.ID)
	assert.Empty(t, e.Attendees)

	err := svc.Cancel(ctx, alice.ID, event.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestRespondRejections(t *testing.T) {
	db := newTestDB(t)
	svc := NewRSVPService(db, dbtest.Logger(), quietNotifier())
	ctx := context.Background()

	org := createUser(t, db, "org")
	alice := createUser(t, db, "alice")
	event := createEvent(t, db, org, 10)

	_, _, err := svc.Respond(ctx, org.ID, event.ID, RespondInput{Status: models.RSVPAttending})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, _, err = svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: "joined"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	missing := createEvent(t, db, org, 10)
	require.NoError(t, db.Delete(&models.Event{}, "id = ?", missing.ID).Error)
	_, _, err = svc.Respond(ctx, alice.ID, missing.ID, RespondInput{Status: models.RSVPAttending})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	past := createEvent(t, db, org, 10)
	require.NoError(t, db.Model(past).Update("date", time.Now().Add(-48*time.Hour)).Error)
	_, _, err = svc.Respond(ctx, alice.ID, past.ID, RespondInput{Status: models.RSVPAttending})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestRespondNotifiesOrganizer(t *testing.T) {
	db := newTestDB(t)
	notifier := new(MockNotifier)
	svc := NewRSVPService(db, dbtest.Logger(), notifier)
	ctx := context.Background()

	org := createUser(t, db, "org")
	alice := createUser(t, db, "alice")
	event := createEvent(t, db, org, 10)

	notifier.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.To == org.Email && m.Subject == "New RSVP Received"
	})).Return(assert.AnError).Once()

	// A failing mail server does not fail the RSVP.
	_, _, err := svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: models.RSVPAttending})
	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestListForEventOrganizerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewRSVPService(db, dbtest.Logger(), quietNotifier())
	ctx := context.Background()

	org := createUser(t, db, "org")
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	event := createEvent(t, db, org, 10)

	_, _, err := svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: models.RSVPAttending})
	require.NoError(t, err)
	_, _, err = svc.Respond(ctx, bob.ID, event.ID, RespondInput{Status: models.RSVPMaybe})
	require.NoError(t, err)

	_, _, _, err = svc.ListForEvent(ctx, alice.ID, event.ID, "", pagination.Params{Page: 1, Limit: 50})
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	rsvps, counts, meta, err := svc.ListForEvent(ctx, org.ID, event.ID, "", pagination.Params{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, rsvps, 2)
	assert.Equal(t, RSVPCounts{Attending: 1, Maybe: 1}, counts)
	assert.Equal(t, int64(2), meta.TotalItems)

	rsvps, _, _, err = svc.ListForEvent(ctx, org.ID, event.ID, models.RSVPMaybe, pagination.Params{Page: 1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, rsvps, 1)
	assert.Equal(t, bob.ID, rsvps[0].UserID)

	mine, meta, err := svc.ListMine(ctx, alice.ID, "", pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, event.ID, mine[0].Event.ID)
	assert.False(t, meta.HasNext)
}

func TestCheckIn(t *testing.T) {
	db := newTestDB(t)
	svc := NewRSVPService(db, dbtest.Logger(), quietNotifier())
	ctx := context.Background()

	org := createUser(t, db, "org")
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	event := createEvent(t, db, org, 10)

	_, _, err := svc.Respond(ctx, alice.ID, event.ID, RespondInput{Status: models.RSVPAttending})
	require.NoError(t, err)
	_, _, err = svc.Respond(ctx, bob.ID, event.ID, RespondInput{Status: models.RSVPMaybe})
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, alice.ID, event.ID, alice.ID)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	_, err = svc.CheckIn(ctx, org.ID, event.ID, bob.ID)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	rsvp, err := svc.CheckIn(ctx, org.ID, event.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, rsvp.IsCheckedIn)
	assert.NotNil(t, rsvp.CheckInTime)
}

func TestSendReminders(t *testing.T) {
	db := newTestDB(t)
	notifier := new(MockNotifier)
	svc := NewRSVPService(db, dbtest.Logger(), notifier)
	ctx := context.Background()

	org := createUser(t, db, "org")
	alice := createUser(t, db, "alice")
	soon := createEvent(t, db, org, 10)
	later := createEvent(t, db, org, 10)
	require.NoError(t, db.Model(soon).Update("date", time.Now().Add(2*time.Hour)).Error)

	notifier.On("Send", mock.Anything, mock.Anything).Return(nil)
	_, _, err := svc.Respond(ctx, alice.ID, soon.ID, RespondInput{Status: models.RSVPAttending})
	require.NoError(t, err)
	_, _, err = svc.Respond(ctx, alice.ID, later.ID, RespondInput{Status: models.RSVPAttending})
	require.NoError(t, err)

	sent, err := svc.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	notifier.AssertCalled(t, "Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.To == alice.Email && m.Subject == "Event Reminder"
	}))

	sent, err = svc.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}
