package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

func ValidEventStatus(s EventStatus) bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// Categories is the closed set of event categories.
var Categories = []string{
	"Technology",
	"Business",
	"Arts & Culture",
	"Sports & Fitness",
	"Health & Wellness",
	"Food & Drink",
	"Music",
	"Education",
	"Social",
	"Networking",
	"Other",
}

var Currencies = []string{"USD", "EUR", "GBP", "INR", "CAD", "AUD"}

type Location struct {
	Address   string   `json:"address" gorm:"not null"`
	City      string   `json:"city" gorm:"index;not null"`
	State     string   `json:"state"`
	Country   string   `json:"country" gorm:"not null"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// TimeWindow holds the start and end time of day as HH:MM.
type TimeWindow struct {
	Start string `json:"start" gorm:"size:5;not null"`
	End   string `json:"end" gorm:"size:5;not null"`
}

type ContactInfo struct {
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

// Attendee is an entry of the event's embedded attendee list. It mirrors the
// user's RSVP and is rewritten every time that RSVP changes.
type Attendee struct {
	User     uuid.UUID  `json:"user"`
	JoinedAt time.Time  `json:"joinedAt"`
	Status   RSVPStatus `json:"status"`
}

// Event is the core event model
type Event struct {
	Base
	Title        string                        `json:"title" gorm:"size:200;not null"`
	Description  string                        `json:"description" gorm:"size:5000;not null"`
	Location     Location                      `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Date         time.Time                     `json:"date" gorm:"index;not null"`
	Time         TimeWindow                    `json:"time" gorm:"embedded;embeddedPrefix:time_"`
	Category     string                        `json:"category" gorm:"size:32;index;not null"`
	Capacity     int                           `json:"capacity" gorm:"not null"`
	Price        float64                       `json:"price"`
	Currency     string                        `json:"currency" gorm:"size:3;not null"`
	Image        string                        `json:"image"`
	Tags         datatypes.JSONSlice[string]   `json:"tags"`
	Requirements string                        `json:"requirements" gorm:"size:1000"`
	ContactInfo  ContactInfo                   `json:"contactInfo" gorm:"embedded;embeddedPrefix:contact_"`
	OrganizerID  *uuid.UUID                    `json:"organizerId" gorm:"type:uuid;index"`
	Organizer    *User                         `json:"organizer,omitempty" gorm:"foreignKey:OrganizerID;constraint:OnDelete:SET NULL"`
	Attendees    datatypes.JSONSlice[Attendee] `json:"attendees"`
	Status       EventStatus                   `json:"status" gorm:"type:varchar(16);index;not null"`
	IsApproved   bool                          `json:"isApproved" gorm:"index"`
	ApprovedBy   *uuid.UUID                    `json:"approvedBy,omitempty" gorm:"type:uuid"`
	ApprovedAt   *time.Time                    `json:"approvedAt,omitempty"`
}

// BeforeSave keeps at most one attendee entry per user.
func (e *Event) BeforeSave(tx *gorm.DB) error {
	e.Attendees = dedupeAttendees(e.Attendees)
	return nil
}

func dedupeAttendees(in []Attendee) []Attendee {
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := make([]Attendee, 0, len(in))
	for _, a := range in {
		if _, ok := seen[a.User]; ok {
			continue
		}
		seen[a.User] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (e *Event) IsOrganizer(userID uuid.UUID) bool {
	return e.OrganizerID != nil && *e.OrganizerID == userID
}

// AttendeeCount counts entries that are attending, not maybes.
func (e *Event) AttendeeCount() int {
	n := 0
	for _, a := range e.Attendees {
		if a.Status == RSVPAttending {
			n++
		}
	}
	return n
}

func (e *Event) AvailableSpots() int {
	return e.Capacity - e.AttendeeCount()
}

// AttendeeStatus returns the user's entry status, if any.
func (e *Event) AttendeeStatus(userID uuid.UUID) (RSVPStatus, bool) {
	for _, a := range e.Attendees {
		if a.User == userID {
			return a.Status, true
		}
	}
	return "", false
}

// RemoveAttendee drops every entry for userID.
func (e *Event) RemoveAttendee(userID uuid.UUID) {
	kept := make([]Attendee, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		if a.User != userID {
			kept = append(kept, a)
		}
	}
	e.Attendees = kept
}

// ApplyRSVP replaces the user's entry with one reflecting status. A
// not_attending status leaves the user without an entry.
func (e *Event) ApplyRSVP(userID uuid.UUID, status RSVPStatus, joinedAt time.Time) {
	e.RemoveAttendee(userID)
	if status == RSVPNotAttending {
		return
	}
	e.Attendees = append(e.Attendees, Attendee{User: userID, JoinedAt: joinedAt, Status: status})
}

// IsVisibleTo reports whether a viewer may see the event when it is not publicly listed.
func (e *Event) IsVisibleTo(viewer *User) bool {
	if e.Status == EventPublished && e.IsApproved {
		return true
	}
	if viewer == nil {
		return false
	}
	return e.IsOrganizer(viewer.ID) || viewer.IsAdmin()
}

func (e Event) MarshalJSON() ([]byte, error) {
	type event Event
	if e.Attendees == nil {
		e.Attendees = datatypes.JSONSlice[Attendee]{}
	}
	if e.Tags == nil {
		e.Tags = datatypes.JSONSlice[string]{}
	}
	return json.Marshal(struct {
		event
		AttendeeCount  int `json:"attendeeCount"`
		AvailableSpots int `json:"availableSpots"`
	}{event(e), e.AttendeeCount(), e.AvailableSpots()})
}
