// Package service holds the business rules of EventHub. Handlers translate
// HTTP to calls on these services; every failure a caller should see is an
// *apperr.Error, anything else is an internal error.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/models"
	"eventhub-backend/internal/notify"
	"eventhub-backend/internal/pagination"
)

// base is embedded by every service.
type base struct {
	db       *gorm.DB
	log      *logrus.Logger
	notifier notify.Notifier
	now      func() time.Time
}

func newBase(db *gorm.DB, log *logrus.Logger, notifier notify.Notifier) base {
	return base{db: db, log: log, notifier: notifier, now: time.Now}
}

// dbError maps a missing row to NotFound and wraps everything else.
func dbError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(notFound)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return errors.Wrap(err, "database error")
}

// conflictOr maps a unique constraint violation to Conflict.
func conflictOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(msg)
	}
	return dbError(err, "")
}

// lockEvent loads an event row and holds it for the rest of the transaction.
func lockEvent(tx *gorm.DB, id uuid.UUID, event *models.Event) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(event, "id = ?", id).Error
	if err != nil {
		return dbError(err, "Event not found")
	}
	return nil
}

func (b *base) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := b.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "User not found")
	}
	return &user, nil
}

func (b *base) findEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := b.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "Event not found")
	}
	return &event, nil
}

// send renders and delivers an email, logging any failure.
func (b *base) send(ctx context.Context, template, to string, data notify.Data) {
	notify.Send(ctx, b.notifier, b.log, template, to, data)
}

// paginate counts the rows matched by q, then loads one page of them into
// dest. Ordering and preloads go in scopes so they do not touch the count.
func paginate(q *gorm.DB, p pagination.Params, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) (pagination.Meta, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return pagination.Meta{}, errors.Wrap(err, "count failed")
	}
	if err := q.Scopes(scopes...).Offset(p.Offset()).Limit(p.Limit).Find(dest).Error; err != nil {
		return pagination.Meta{}, errors.Wrap(err, "query failed")
	}
	return pagination.NewMeta(p, total), nil
}

func orderBy(order string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Order(order) }
}

func preload(assoc string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Preload(assoc) }
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func formatDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}
