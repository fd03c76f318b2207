package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the primary key and timestamps shared by every table.
type Base struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All lists the models in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Admin{}, &Event{}, &RSVP{}, &Comment{}}
}

// Migrate creates or updates every table and index.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
