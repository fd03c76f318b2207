package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
	"eventhub-backend/internal/pagination"
)

const (
	maxCapacity  = 10000
	maxTagLength = 50
)

var eventSortColumns = map[string]string{
	"date":      "date",
	"createdAt": "created_at",
	"title":     "title",
	"price":     "price",
	"capacity":  "capacity",
}

// EventService manages events and their lifecycle.
type EventService struct {
	base
}

func NewEventService(db *gorm.DB, log *logrus.Logger, notifier notify.Notifier) *EventService {
	return &EventService{base: newBase(db, log, notifier)}
}

// EventFilter narrows the public event listing.
type EventFilter struct {
	Category  string
	Location  string
	Date      *time.Time
	Search    string
	SortBy    string
	SortOrder string
	Page      pagination.Params
}

// EventInput holds every writable event field. On update, nil pointers and a
// nil Tags slice leave the stored value unchanged.
type EventInput struct {
	Title        *string
	Description  *string
	Location     *models.Location
	Date         *time.Time
	Time         *models.TimeWindow
	Category     *string
	Capacity     *int
	Price        *float64
	Currency     *string
	Image        *string
	Tags         []string
	Requirements *string
	ContactInfo  *models.ContactInfo
	Status       *models.EventStatus
}

func (in EventInput) apply(e *models.Event) {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		e.Location = *in.Location
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.Time != nil {
		e.Time = *in.Time
	}
	if in.Category != nil {
		e.Category = *in.Category
	}
	if in.Capacity != nil {
		e.Capacity = *in.Capacity
	}
	if in.Price != nil {
		e.Price = *in.Price
	}
	if in.Currency != nil {
		e.Currency = *in.Currency
	}
	if in.Image != nil {
		e.Image = *in.Image
	}
	if in.Tags != nil {
		tags := make([]string, 0, len(in.Tags))
		for _, t := range in.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		e.Tags = datatypes.JSONSlice[string](tags)
	}
	if in.Requirements != nil {
		e.Requirements = *in.Requirements
	}
	if in.ContactInfo != nil {
		e.ContactInfo = *in.ContactInfo
	}
	if in.Status != nil {
		e.Status = *in.Status
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func validateEvent(e *models.Event) error {
	switch {
	case e.Title == "" || e.Description == "":
		return apperr.Validation("Please provide all required fields")
	case len([]rune(e.Title)) > 200:
		return apperr.Validation("Title cannot exceed 200 characters")
	case len([]rune(e.Description)) > 5000:
		return apperr.Validation("Description cannot exceed 5000 characters")
	case e.Location.Address == "" || e.Location.City == "" || e.Location.Country == "":
		return apperr.Validation("Address, city and country are required")
	case e.Time.Start == "" || e.Time.End == "":
		return apperr.Validation("Start and end time are required")
	case !contains(models.Categories, e.Category):
		return apperr.Validation("Invalid category")
	case e.Capacity < 1 || e.Capacity > maxCapacity:
		return apperr.Validation("Capacity must be between 1 and 10000")
	case e.Price < 0:
		return apperr.Validation("Price cannot be negative")
	case !contains(models.Currencies, e.Currency):
		return apperr.Validation("Invalid currency")
	case !models.ValidEventStatus(e.Status):
		return apperr.Validation("Invalid event status")
	case len([]rune(e.Requirements)) > 1000:
		return apperr.Validation("Requirements cannot exceed 1000 characters")
	}
	for _, t := range e.Tags {
		if len([]rune(t)) > maxTagLength {
			return apperr.Validation("Tags cannot exceed 50 characters")
		}
	}
	return nil
}

// List returns published, approved events. Without a date filter only future
// events are listed; with one, the events of that whole day.
func (s *EventService) List(ctx context.Context, f EventFilter) ([]models.Event, pagination.Meta, error) {
	q := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ? AND is_approved = ?", models.EventPublished, true)

	if f.Date != nil {
		start := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
		q = q.Where("date >= ? AND date < ?", start, start.AddDate(0, 0, 1))
	} else {
		q = q.Where("date >= ?", s.now())
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		p := likePattern(loc)
		q = q.Where("LOWER(location_city) LIKE ? OR LOWER(location_country) LIKE ? OR LOWER(location_address) LIKE ?", p, p, p)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		p := likePattern(search)
		q = q.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location_city) LIKE ? OR LOWER(location_country) LIKE ? OR LOWER(location_address) LIKE ? OR LOWER(category) LIKE ?",
			p, p, p, p, p, p,
		)
	}

	column, ok := eventSortColumns[f.SortBy]
	if !ok {
		column = "date"
	}
	order := column + " ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		order = column + " DESC"
	}

	events := []models.Event{}
	meta, err := paginate(q, f.Page, &events, orderBy(order), preload("Organizer"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return events, meta, nil
}

// Get returns an event and the viewer's RSVP status, if any. Events that are
// not publicly listed look missing to everyone but their organizer and admins.
func (s *EventService) Get(ctx context.Context, id uuid.UUID, viewer *models.User) (*models.Event, models.RSVPStatus, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).Preload("Organizer").First(&event, "id = ?", id).Error; err != nil {
		return nil, "", dbError(err, "Event not found")
	}
	if !event.IsVisibleTo(viewer) {
		return nil, "", apperr.NotFound("Event not found")
	}

	if viewer == nil {
		return &event, "", nil
	}
	var rsvp models.RSVP
	err := s.db.WithContext(ctx).Where("user_id = ? AND event_id = ?", viewer.ID, id).First(&rsvp).Error
	switch {
	case err == nil:
		return &event, rsvp.Status, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &event, "", nil
	default:
		return nil, "", errors.Wrap(err, "failed to load RSVP")
	}
}

// Create stores a new event owned by organizerID. The date must be in the future.
func (s *EventService) Create(ctx context.Context, organizerID uuid.UUID, in EventInput) (*models.Event, error) {
	event := models.Event{
		OrganizerID: &organizerID,
		Currency:    "USD",
		Status:      models.EventPublished,
		IsApproved:  true,
		Tags:        datatypes.JSONSlice[string]{},
		Attendees:   datatypes.JSONSlice[models.Attendee]{},
	}
	in.apply(&event)

	if in.Date == nil || in.Capacity == nil || in.Category == nil {
		return nil, apperr.Validation("Please provide all required fields")
	}
	if !event.Date.After(s.now()) {
		return nil, apperr.Validation("Event date must be in the future")
	}
	if err := validateEvent(&event); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&event).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create event")
	}

	organizer, err := s.findUser(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	event.Organizer = organizer
	return &event, nil
}

func canManage(event *models.Event, actor *models.User) bool {
	return actor != nil && (event.IsOrganizer(actor.ID) || actor.IsAdmin())
}

// Update changes an event. Only its organizer or an admin may do it. Attending
// users are told about the change by email.
func (s *EventService) Update(ctx context.Context, id uuid.UUID, actor *models.User, in EventInput) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(tx, id, &event); err != nil {
			return err
		}
		if !canManage(&event, actor) {
			return apperr.Forbidden("Not authorized to update this event")
		}
		if in.Date != nil && !in.Date.After(s.now()) {
			return apperr.Validation("Event date must be in the future")
		}

		in.apply(&event)
		if err := validateEvent(&event); err != nil {
			return err
		}
		if event.Capacity < event.AttendeeCount() {
			return apperr.Validation("Capacity cannot be lower than the current number of attendees")
		}

		if err := tx.Omit(clause.Associations).Save(&event).Error; err != nil {
			return errors.Wrap(err, "failed to update event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event.OrganizerID != nil {
		if event.Organizer, err = s.findUser(ctx, *event.OrganizerID); err != nil {
			return nil, err
		}
	}

	s.notifyAttendees(ctx, &event)
	return &event, nil
}

func (s *EventService) notifyAttendees(ctx context.Context, event *models.Event) {
	ids := make([]uuid.UUID, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		if a.Status == models.RSVPAttending {
			ids = append(ids, a.User)
		}
	}
	if len(ids) == 0 {
		return
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		s.log.WithError(err).WithField("event_id", event.ID).Warn("Failed to load attendees for update notification")
		return
	}
	for _, u := range users {
		s.send(ctx, notify.TemplateEventUpdate, u.Email, notify.Data{
			Name:       u.Name,
			EventTitle: event.Title,
			Date:       formatDate(event.Date),
			Time:       event.Time.Start + " - " + event.Time.End,
		})
	}
}

// Delete removes an event with its RSVPs and comments. Only its organizer or
// an admin may do it.
func (s *EventService) Delete(ctx context.Context, id uuid.UUID, actor *models.User) error {
	event, err := s.findEvent(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(event, actor) {
		return apperr.Forbidden("Not authorized to delete this event")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteEvent(tx, id)
	})
}

// deleteEvent removes an event and everything that hangs off it.
func deleteEvent(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("event_id = ?", id).Delete(&models.RSVP{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete event RSVPs")
	}
	if err := tx.Where("event_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete event comments")
	}
	if err := tx.Delete(&models.Event{}, "id = ?", id).Error; err != nil {
		return errors.Wrap(err, "failed to delete event")
	}
	return nil
}

// ListByOrganizer pages through the events a user created, newest first.
func (s *EventService) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, status models.EventStatus, p pagination.Params) ([]models.Event, pagination.Meta, error) {
	q := s.db.WithContext(ctx).Model(&models.Event{}).Where("organizer_id = ?", organizerID)
	if models.ValidEventStatus(status) {
		q = q.Where("status = ?", status)
	}

	events := []models.Event{}
	meta, err := paginate(q, p, &events, orderBy("created_at DESC"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return events, meta, nil
}

// Admin listing filters
const (
	TimeFilterUpcoming = "upcoming"
	TimeFilterPast     = "past"
)

// AdminList pages through every event regardless of status or approval.
func (s *EventService) AdminList(ctx context.Context, search, when string, p pagination.Params) ([]models.Event, pagination.Meta, error) {
	q := s.db.WithContext(ctx).Model(&models.Event{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := likePattern(search)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	switch when {
	case TimeFilterUpcoming:
		q = q.Where("date >= ?", s.now())
	case TimeFilterPast:
		q = q.Where("date < ?", s.now())
	}

	events := []models.Event{}
	meta, err := paginate(q, p, &events, orderBy("created_at DESC"), preload("Organizer"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return events, meta, nil
}

// AdminDelete removes any event with its RSVPs and comments.
func (s *EventService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findEvent(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteEvent(tx, id)
	})
}

// SetApproval publishes or hides an event from the public listing.
func (s *EventService) SetApproval(ctx context.Context, id, adminID uuid.UUID, approved bool) (*models.Event, error) {
	event, err := s.findEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	event.IsApproved = approved
	event.ApprovedBy = &adminID
	event.ApprovedAt = &now
	err = s.db.WithContext(ctx).Model(event).
		Select("is_approved", "approved_by", "approved_at").
		Updates(event).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to update event approval")
	}
	return event, nil
}
