package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
	"eventhub-backend/internal/pagination"
)

// RSVPService manages attendance responses. Every write keeps the event's
// attendee list in step with the RSVP table.
type RSVPService struct {
	base
}

func NewRSVPService(db *gorm.DB, log *logrus.Logger, notifier notify.Notifier) *RSVPService {
	return &RSVPService{base: newBase(db, log, notifier)}
}

// RespondInput is a user's answer to an event. A nil Notes or SpecialRequests
// keeps the stored value; an empty string clears it.
type RespondInput struct {
	Status          models.RSVPStatus
	Guests          int
	Notes           *string
	SpecialRequests *string
}

// RSVPCounts tallies an event's RSVPs by status.
type RSVPCounts struct {
	Attending    int64 `json:"attending"`
	Maybe        int64 `json:"maybe"`
	NotAttending int64 `json:"not_attending"`
}

// Respond creates or updates the user's RSVP. The event row stays locked until
// commit so concurrent responses cannot overbook it. created reports whether
// this was the user's first response.
func (s *RSVPService) Respond(ctx context.Context, userID, eventID uuid.UUID, in RespondInput) (rsvp *models.RSVP, created bool, err error) {
	if !models.ValidRSVPStatus(in.Status) {
		return nil, false, apperr.Validation("Invalid RSVP status")
	}
	if in.Guests < 0 || in.Guests > 10 {
		return nil, false, apperr.Validation("Guests must be between 0 and 10")
	}

	now := s.now()
	var event models.Event
	rsvp = &models.RSVP{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(tx, eventID, &event); err != nil {
			return err
		}
		if event.IsOrganizer(userID) {
			return apperr.Validation("Event organizers cannot RSVP to their own events")
		}
		if event.Status != models.EventPublished {
			return apperr.Validation("Cannot RSVP to an event that is not published")
		}
		if !event.Date.After(now) {
			return apperr.Validation("Cannot RSVP to past events")
		}

		err := tx.Where("user_id = ? AND event_id = ?", userID, eventID).First(rsvp).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
		case err != nil:
			return errors.Wrap(err, "failed to load RSVP")
		}

		if in.Status == models.RSVPAttending {
			current, _ := event.AttendeeStatus(userID)
			if current != models.RSVPAttending && event.AttendeeCount() >= event.Capacity {
				return apperr.CapacityExceeded()
			}
		}

		rsvp.UserID = userID
		rsvp.EventID = eventID
		rsvp.Status = in.Status
		rsvp.Guests = in.Guests
		rsvp.ResponseDate = now
		if in.Notes != nil {
			rsvp.Notes = *in.Notes
		}
		if in.SpecialRequests != nil {
			rsvp.SpecialRequests = *in.SpecialRequests
		}

		if created {
			err = tx.Create(rsvp).Error
		} else {
			err = tx.Save(rsvp).Error
		}
		if err != nil {
			return conflictOr(err, "You have already responded to this event")
		}

		return syncAttendance(tx, eventID, userID, rsvp)
	})
	if err != nil {
		return nil, false, err
	}

	template := notify.TemplateRSVPUpdated
	if created {
		template = notify.TemplateRSVPNew
	}
	s.notifyOrganizer(ctx, &event, userID, template, string(in.Status))

	return rsvp, created, nil
}

// Cancel deletes the user's RSVP and drops their attendee entry.
func (s *RSVPService) Cancel(ctx context.Context, userID, eventID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND event_id = ?", userID, eventID).Delete(&models.RSVP{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to delete RSVP")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("RSVP not found")
		}
		return syncAttendance(tx, eventID, userID, nil)
	})
	if err != nil {
		return err
	}

	if event, err := s.findEvent(ctx, eventID); err == nil {
		s.notifyOrganizer(ctx, event, userID, notify.TemplateRSVPCancelled, "")
	}
	return nil
}

// Get returns the user's RSVP for an event.
func (s *RSVPService) Get(ctx context.Context, userID, eventID uuid.UUID) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&rsvp).Error
	if err != nil {
		return nil, dbError(err, "No RSVP found for this event")
	}
	return &rsvp, nil
}

// ListMine pages through the user's RSVPs, most recent response first.
func (s *RSVPService) ListMine(ctx context.Context, userID uuid.UUID, status models.RSVPStatus, p pagination.Params) ([]models.RSVP, pagination.Meta, error) {
	q := s.db.WithContext(ctx).Model(&models.RSVP{}).Where("user_id = ?", userID)
	if models.ValidRSVPStatus(status) {
		q = q.Where("status = ?", status)
	}

	rsvps := []models.RSVP{}
	meta, err := paginate(q, p, &rsvps, orderBy("response_date DESC"), preload("Event"), preload("Event.Organizer"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return rsvps, meta, nil
}

// ListForEvent pages through an event's RSVPs for its organizer, with the
// per-status counts over all of them.
func (s *RSVPService) ListForEvent(ctx context.Context, organizerID, eventID uuid.UUID, status models.RSVPStatus, p pagination.Params) ([]models.RSVP, RSVPCounts, pagination.Meta, error) {
	var counts RSVPCounts

	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, counts, pagination.Meta{}, err
	}
	if !event.IsOrganizer(organizerID) {
		return nil, counts, pagination.Meta{}, apperr.Forbidden("Only event organizers can view RSVPs")
	}

	q := s.db.WithContext(ctx).Model(&models.RSVP{}).Where("event_id = ?", eventID)
	if models.ValidRSVPStatus(status) {
		q = q.Where("status = ?", status)
	}

	rsvps := []models.RSVP{}
	meta, err := paginate(q, p, &rsvps, orderBy("response_date DESC"), preload("User"))
	if err != nil {
		return nil, counts, pagination.Meta{}, err
	}

	var rows []struct {
		Status models.RSVPStatus
		Count  int64
	}
	err = s.db.WithContext(ctx).Model(&models.RSVP{}).
		Select("status, COUNT(*) AS count").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, counts, pagination.Meta{}, errors.Wrap(err, "failed to count RSVPs")
	}
	for _, r := range rows {
		switch r.Status {
		case models.RSVPAttending:
			counts.Attending = r.Count
		case models.RSVPMaybe:
			counts.Maybe = r.Count
		case models.RSVPNotAttending:
			counts.NotAttending = r.Count
		}
	}

	return rsvps, counts, meta, nil
}

// CheckIn marks an attending user as present. Only the organizer may do it.
func (s *RSVPService) CheckIn(ctx context.Context, organizerID, eventID, attendeeID uuid.UUID) (*models.RSVP, error) {
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOrganizer(organizerID) {
		return nil, apperr.Forbidden("Only event organizers can check in attendees")
	}

	var rsvp models.RSVP
	err = s.db.WithContext(ctx).Where("user_id = ? AND event_id = ?", attendeeID, eventID).First(&rsvp).Error
	if err != nil {
		return nil, dbError(err, "RSVP not found")
	}
	if rsvp.Status != models.RSVPAttending {
		return nil, apperr.Validation("Only attending users can be checked in")
	}
	if rsvp.IsCheckedIn {
		return &rsvp, nil
	}

	now := s.now()
	rsvp.IsCheckedIn = true
	rsvp.CheckInTime = &now
	if err := s.db.WithContext(ctx).Save(&rsvp).Error; err != nil {
		return nil, errors.Wrap(err, "failed to check in")
	}
	return &rsvp, nil
}

// SendReminders mails every attending user whose event starts within window
// and who has not been reminded yet. It returns the number of reminders sent.
func (s *RSVPService) SendReminders(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()

	var rsvps []models.RSVP
	err := s.db.WithContext(ctx).
		Joins("Event").
		Preload("User").
		Where("rsvps.status = ? AND rsvps.reminder_sent = ?", models.RSVPAttending, false).
		Where(`"Event".status = ? AND "Event".date > ? AND "Event".date <= ?`, models.EventPublished, now, now.Add(window)).
		Find(&rsvps).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to load pending reminders")
	}

	sent := 0
	for i := range rsvps {
		r := &rsvps[i]
		if r.User == nil || r.Event == nil {
			continue
		}
		s.send(ctx, notify.TemplateEventReminder, r.User.Email, notify.Data{
			Name:       r.User.Name,
			EventTitle: r.Event.Title,
			Date:       formatDate(r.Event.Date),
			Time:       r.Event.Time.Start,
			Location:   r.Event.Location.Address + ", " + r.Event.Location.City,
		})
		if err := s.db.WithContext(ctx).Model(r).Update("reminder_sent", true).Error; err != nil {
			return sent, errors.Wrap(err, "failed to mark reminder sent")
		}
		sent++
	}

	if sent > 0 {
		s.log.WithField("count", sent).Info("Event reminders sent")
	}
	return sent, nil
}

func (s *RSVPService) notifyOrganizer(ctx context.Context, event *models.Event, userID uuid.UUID, template, status string) {
	if event.OrganizerID == nil {
		return
	}
	organizer, err := s.findUser(ctx, *event.OrganizerID)
	if err != nil {
		s.log.WithError(err).WithField("event_id", event.ID).Warn("Organizer lookup failed, skipping RSVP notification")
		return
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("User lookup failed, skipping RSVP notification")
		return
	}
	s.send(ctx, template, organizer.Email, notify.Data{
		Name:       user.Name,
		EventTitle: event.Title,
		Status:     status,
	})
}
