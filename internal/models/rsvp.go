package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RSVPStatus is the single status vocabulary shared by RSVPs and attendee entries.
type RSVPStatus string

const (
	RSVPAttending    RSVPStatus = "attending"
	RSVPMaybe        RSVPStatus = "maybe"
	RSVPNotAttending RSVPStatus = "not_attending"
)

func ValidRSVPStatus(s RSVPStatus) bool {
	switch s {
	case RSVPAttending, RSVPMaybe, RSVPNotAttending:
		return true
	}
	return false
}

// RSVP is the source of truth for attendance; exactly one exists per (user, event).
type RSVP struct {
	Base
	UserID          uuid.UUID  `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_rsvp_user_event;index:idx_rsvp_user_status"`
	EventID         uuid.UUID  `json:"eventId" gorm:"type:uuid;not null;uniqueIndex:idx_rsvp_user_event;index:idx_rsvp_event_status"`
	Status          RSVPStatus `json:"status" gorm:"type:varchar(16);not null;index:idx_rsvp_user_status;index:idx_rsvp_event_status"`
	Guests          int        `json:"guests"`
	Notes           string     `json:"notes" gorm:"size:500"`
	SpecialRequests string     `json:"specialRequests" gorm:"size:300"`
	ResponseDate    time.Time  `json:"responseDate" gorm:"index"`
	IsCheckedIn     bool       `json:"isCheckedIn"`
	CheckInTime     *time.Time `json:"checkInTime,omitempty"`
	ReminderSent    bool       `json:"reminderSent" gorm:"index"`

	User  *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Event *Event `json:"event,omitempty" gorm:"foreignKey:EventID"`
}

func (RSVP) TableName() string {
	return "rsvps"
}

// TotalAttendees counts the respondent plus their guests.
func (r *RSVP) TotalAttendees() int {
	return 1 + r.Guests
}

func (r RSVP) MarshalJSON() ([]byte, error) {
	type rsvp RSVP
	return json.Marshal(struct {
		rsvp
		TotalAttendees int `json:"totalAttendees"`
	}{rsvp(r), r.TotalAttendees()})
}
