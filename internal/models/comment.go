package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DeletedCommentPlaceholder replaces the content of a soft-deleted comment.
const DeletedCommentPlaceholder = "[This comment has been deleted]"

type ReportReason string

const (
	ReportSpam          ReportReason = "spam"
	ReportInappropriate ReportReason = "inappropriate"
	ReportHarassment    ReportReason = "harassment"
	ReportOther         ReportReason = "other"
)

func ValidReportReason(r ReportReason) bool {
	switch r {
	case ReportSpam, ReportInappropriate, ReportHarassment, ReportOther:
		return true
	}
	return false
}

type Like struct {
	User    uuid.UUID `json:"user"`
	LikedAt time.Time `json:"likedAt"`
}

type Report struct {
	User       uuid.UUID    `json:"user"`
	Reason     ReportReason `json:"reason"`
	ReportedAt time.Time    `json:"reportedAt"`
}

// Comment is a discussion entry on an event. ParentID is nil for top-level
// comments; ReplyIDs is a denormalized copy of the children's ids.
type Comment struct {
	Base
	EventID     uuid.UUID                      `json:"eventId" gorm:"type:uuid;not null;index:idx_comment_event"`
	Event       *Event                         `json:"event,omitempty" gorm:"foreignKey:EventID"`
	AuthorID    uuid.UUID                      `json:"authorId" gorm:"type:uuid;not null;index"`
	Author      *User                          `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Content     string                         `json:"content" gorm:"size:1000;not null"`
	ParentID    *uuid.UUID                     `json:"parentComment" gorm:"type:uuid;index"`
	ReplyIDs    datatypes.JSONSlice[uuid.UUID] `json:"replyIds"`
	Replies     []Comment                      `json:"replies" gorm:"-"`
	Likes       datatypes.JSONSlice[Like]      `json:"likes"`
	IsEdited    bool                           `json:"isEdited"`
	EditedAt    *time.Time                     `json:"editedAt,omitempty"`
	IsDeleted   bool                           `json:"isDeleted" gorm:"index:idx_comment_visibility"`
	DeletedAt   *time.Time                     `json:"deletedAt,omitempty"`
	IsReported  bool                           `json:"isReported" gorm:"index"`
	Reports     datatypes.JSONSlice[Report]    `json:"-"`
	IsApproved  bool                           `json:"isApproved" gorm:"index:idx_comment_visibility"`
	ModeratedBy *uuid.UUID                     `json:"moderatedBy,omitempty" gorm:"type:uuid"`
	ModeratedAt *time.Time                     `json:"moderatedAt,omitempty"`
}

func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

func (c *Comment) LikedBy(userID uuid.UUID) bool {
	for _, l := range c.Likes {
		if l.User == userID {
			return true
		}
	}
	return false
}

// ToggleLike likes or unlikes for userID and returns the resulting state.
func (c *Comment) ToggleLike(userID uuid.UUID, now time.Time) bool {
	if c.LikedBy(userID) {
		kept := make([]Like, 0, len(c.Likes))
		for _, l := range c.Likes {
			if l.User != userID {
				kept = append(kept, l)
			}
		}
		c.Likes = kept
		return false
	}
	c.Likes = append(c.Likes, Like{User: userID, LikedAt: now})
	return true
}

func (c *Comment) AddReply(id uuid.UUID) {
	for _, r := range c.ReplyIDs {
		if r == id {
			return
		}
	}
	c.ReplyIDs = append(c.ReplyIDs, id)
}

func (c *Comment) RemoveReply(id uuid.UUID) {
	kept := make([]uuid.UUID, 0, len(c.ReplyIDs))
	for _, r := range c.ReplyIDs {
		if r != id {
			kept = append(kept, r)
		}
	}
	c.ReplyIDs = kept
}

func (c *Comment) ReportedBy(userID uuid.UUID) bool {
	for _, r := range c.Reports {
		if r.User == userID {
			return true
		}
	}
	return false
}

// SoftDelete hides the content but keeps the row so the thread stays intact.
func (c *Comment) SoftDelete(now time.Time) {
	c.IsDeleted = true
	c.DeletedAt = &now
	c.Content = DeletedCommentPlaceholder
}

func (c Comment) MarshalJSON() ([]byte, error) {
	type comment Comment
	if c.Replies == nil {
		c.Replies = []Comment{}
	}
	if c.ReplyIDs == nil {
		c.ReplyIDs = datatypes.JSONSlice[uuid.UUID]{}
	}
	if c.Likes == nil {
		c.Likes = datatypes.JSONSlice[Like]{}
	}
	return json.Marshal(struct {
		comment
		LikeCount  int `json:"likeCount"`
		ReplyCount int `json:"replyCount"`
	}{comment(c), len(c.Likes), len(c.ReplyIDs)})
}
