package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/models"
)

// deleteUser removes a user and their footprint in one transaction. Users
// still organizing upcoming events cannot be deleted. RSVPs are removed with
// their attendee entries, comments with their replies, and past events keep
// existing without an organizer.
func deleteUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var upcoming int64
		err := tx.Model(&models.Event{}).
			Where("organizer_id = ? AND date > ?", userID, now).
			Count(&upcoming).Error
		if err != nil {
			return errors.Wrap(err, "failed to count upcoming events")
		}
		if upcoming > 0 {
			return apperr.Validation(fmt.Sprintf(
				"Cannot delete user. They have %d upcoming event(s) as organizer. Please cancel or transfer them first.", upcoming))
		}

		var rsvps []models.RSVP
		if err := tx.Where("user_id = ?", userID).Find(&rsvps).Error; err != nil {
			return errors.Wrap(err, "failed to load RSVPs")
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.RSVP{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete RSVPs")
		}
		for _, r := range rsvps {
			if err := syncAttendance(tx, r.EventID, userID, nil); err != nil {
				return err
			}
		}

		var comments []models.Comment
		if err := tx.Where("author_id = ?", userID).Order("parent_id IS NULL").Find(&comments).Error; err != nil {
			return errors.Wrap(err, "failed to load comments")
		}
		for i := range comments {
			if err := deleteComment(tx, &comments[i]); err != nil {
				return err
			}
		}

		err = tx.Model(&models.Event{}).
			Where("organizer_id = ?", userID).
			Update("organizer_id", nil).Error
		if err != nil {
			return errors.Wrap(err, "failed to detach events")
		}

		res := tx.Delete(&models.User{}, "id = ?", userID)
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to delete user")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("User not found")
		}
		return nil
	})
}
