package service

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventhub-backend/internal/models"
)

// syncAttendance rewrites the user's entry in the event's attendee list so it
// mirrors rsvp. A nil rsvp, or one that is not_attending, leaves the user
// without an entry. It must run in the transaction that wrote the RSVP. A
// missing event is not an error.
func syncAttendance(tx *gorm.DB, eventID, userID uuid.UUID, rsvp *models.RSVP) error {
	var event models.Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, "id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to load event for attendance sync")
	}

	if rsvp != nil {
		event.ApplyRSVP(userID, rsvp.Status, rsvp.CreatedAt)
	} else {
		event.RemoveAttendee(userID)
	}

	if err := tx.Model(&event).Update("attendees", event.Attendees).Error; err != nil {
		return errors.Wrap(err, "failed to update attendee list")
	}
	return nil
}
