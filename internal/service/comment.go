package service

import (
	"context"
	"strings"

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

const maxCommentLength = 1000

// CommentService manages two-level discussion threads on events.
type CommentService struct {
	base
}

func NewCommentService(db *gorm.DB, log *logrus.Logger, notifier notify.Notifier) *CommentService {
	return &CommentService{base: newBase(db, log, notifier)}
}

// ReportedComment is the moderation view of a comment, including its reports.
type ReportedComment struct {
	Comment     *models.Comment `json:"comment"`
	Reports     []models.Report `json:"reports"`
	ReportCount int             `json:"reportCount"`
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("Comment is required")
	}
	if len([]rune(content)) > maxCommentLength {
		return "", apperr.Validation("Comment cannot exceed 1000 characters")
	}
	return content, nil
}

// Create adds a comment to an event, or a reply when parentID is set. Replies
// must target a top-level comment of the same event.
func (s *CommentService) Create(ctx context.Context, eventID, authorID uuid.UUID, content string, parentID *uuid.UUID) (*models.Comment, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}

	var (
		event   models.Event
		parent  models.Comment
		comment = models.Comment{
			EventID:    eventID,
			AuthorID:   authorID,
			Content:    content,
			ParentID:   parentID,
			IsApproved: true,
		}
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			return dbError(err, "Event not found")
		}

		if parentID != nil {
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&parent, "id = ?", *parentID).Error
			if err != nil {
				return dbError(err, "Parent comment not found")
			}
			if parent.EventID != eventID {
				return apperr.Validation("Parent comment does not belong to this event")
			}
			if !parent.IsTopLevel() {
				return apperr.Validation("Replies can only be added to top-level comments")
			}
		}

		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return errors.Wrap(err, "failed to create comment")
		}

		if parentID != nil {
			parent.AddReply(comment.ID)
			if err := tx.Model(&parent).Update("reply_ids", parent.ReplyIDs).Error; err != nil {
				return errors.Wrap(err, "failed to link reply")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	author, err := s.findUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	comment.Author = author

	s.notifyComment(ctx, &event, &comment, author, parent)
	return &comment, nil
}

func (s *CommentService) notifyComment(ctx context.Context, event *models.Event, comment *models.Comment, author *models.User, parent models.Comment) {
	if event.OrganizerID != nil && *event.OrganizerID != author.ID {
		if organizer, err := s.findUser(ctx, *event.OrganizerID); err == nil {
			s.send(ctx, notify.TemplateComment, organizer.Email, notify.Data{
				Name:       author.Name,
				EventTitle: event.Title,
				Content:    comment.Content,
			})
		}
	}

	if comment.ParentID != nil && parent.AuthorID != author.ID {
		// Skip the parent author when they already got the organizer mail.
		if event.OrganizerID != nil && *event.OrganizerID == parent.AuthorID {
			return
		}
		if parentAuthor, err := s.findUser(ctx, parent.AuthorID); err == nil {
			s.send(ctx, notify.TemplateReply, parentAuthor.Email, notify.Data{
				Name:       author.Name,
				EventTitle: event.Title,
				Content:    comment.Content,
			})
		}
	}
}

// ListForEvent returns approved top-level comments newest first, each with its
// approved replies oldest first. Only top-level comments are paginated.
func (s *CommentService) ListForEvent(ctx context.Context, eventID uuid.UUID, p pagination.Params) ([]models.Comment, pagination.Meta, error) {
	if _, err := s.findEvent(ctx, eventID); err != nil {
		return nil, pagination.Meta{}, err
	}

	q := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("event_id = ? AND parent_id IS NULL AND is_approved = ?", eventID, true)

	comments := []models.Comment{}
	meta, err := paginate(q, p, &comments, orderBy("created_at DESC"), preload("Author"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	if len(comments) == 0 {
		return comments, meta, nil
	}

	ids := make([]uuid.UUID, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}

	var replies []models.Comment
	err = s.db.WithContext(ctx).
		Preload("Author").
		Where("parent_id IN ? AND is_approved = ?", ids, true).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, pagination.Meta{}, errors.Wrap(err, "failed to load replies")
	}

	byParent := make(map[uuid.UUID][]models.Comment, len(comments))
	for _, r := range replies {
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}
	for i := range comments {
		comments[i].Replies = byParent[comments[i].ID]
	}
	return comments, meta, nil
}

func (s *CommentService) find(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "Comment not found")
	}
	return &c, nil
}

// Update edits the content of the caller's own comment.
func (s *CommentService) Update(ctx context.Context, commentID, userID uuid.UUID, content string) (*models.Comment, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}

	c, err := s.find(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != userID {
		return nil, apperr.Forbidden("You can only edit your own comments")
	}
	if c.IsDeleted {
		return nil, apperr.Validation("Deleted comments cannot be edited")
	}

	now := s.now()
	c.Content = content
	c.IsEdited = true
	c.EditedAt = &now
	err = s.db.WithContext(ctx).Model(c).Select("content", "is_edited", "edited_at").Updates(c).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to update comment")
	}

	if c.Author, err = s.findUser(ctx, c.AuthorID); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a comment. The author and the event's organizer may delete.
// Deleting a top-level comment removes its replies; deleting a reply unlinks
// it from its parent.
func (s *CommentService) Delete(ctx context.Context, commentID, requesterID uuid.UUID) error {
	c, err := s.find(ctx, commentID)
	if err != nil {
		return err
	}

	allowed := c.AuthorID == requesterID
	if !allowed {
		if event, err := s.findEvent(ctx, c.EventID); err == nil {
			allowed = event.IsOrganizer(requesterID)
		}
	}
	if !allowed {
		return apperr.Forbidden("You can only delete your own comments or comments on your events")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteComment(tx, c)
	})
}

// deleteComment hard deletes c inside tx, keeping the thread consistent.
func deleteComment(tx *gorm.DB, c *models.Comment) error {
	if c.IsTopLevel() {
		if err := tx.Where("parent_id = ?", c.ID).Delete(&models.Comment{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete replies")
		}
	} else {
		var parent models.Comment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&parent, "id = ?", *c.ParentID).Error
		switch {
		case err == nil:
			parent.RemoveReply(c.ID)
			if err := tx.Model(&parent).Update("reply_ids", parent.ReplyIDs).Error; err != nil {
				return errors.Wrap(err, "failed to unlink reply")
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return errors.Wrap(err, "failed to load parent comment")
		}
	}

	if err := tx.Delete(&models.Comment{}, "id = ?", c.ID).Error; err != nil {
		return errors.Wrap(err, "failed to delete comment")
	}
	return nil
}

// ToggleLike likes the comment for userID, or unlikes it if already liked.
func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID uuid.UUID) (likeCount int, liked bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", commentID).Error; err != nil {
			return dbError(err, "Comment not found")
		}
		liked = c.ToggleLike(userID, s.now())
		likeCount = len(c.Likes)
		if err := tx.Model(&c).Update("likes", c.Likes).Error; err != nil {
			return errors.Wrap(err, "failed to update likes")
		}
		return nil
	})
	return likeCount, liked, err
}

// Report flags a comment for moderation. Each user may report it once.
func (s *CommentService) Report(ctx context.Context, commentID, userID uuid.UUID, reason models.ReportReason) error {
	if !models.ValidReportReason(reason) {
		return apperr.Validation("Invalid report reason")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", commentID).Error; err != nil {
			return dbError(err, "Comment not found")
		}
		if c.ReportedBy(userID) {
			return apperr.Conflict("You have already reported this comment")
		}
		c.Reports = append(c.Reports, models.Report{User: userID, Reason: reason, ReportedAt: s.now()})
		c.IsReported = true
		if err := tx.Model(&c).Select("reports", "is_reported").Updates(&c).Error; err != nil {
			return errors.Wrap(err, "failed to report comment")
		}
		return nil
	})
}

// ListMine pages through the user's comments, newest first.
func (s *CommentService) ListMine(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]models.Comment, pagination.Meta, error) {
	q := s.db.WithContext(ctx).Model(&models.Comment{}).Where("author_id = ?", userID)

	comments := []models.Comment{}
	meta, err := paginate(q, p, &comments, orderBy("created_at DESC"), preload("Event"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return comments, meta, nil
}

// ListReported pages through reported comments for moderators.
func (s *CommentService) ListReported(ctx context.Context, p pagination.Params) ([]ReportedComment, pagination.Meta, error) {
	q := s.db.WithContext(ctx).Model(&models.Comment{}).Where("is_reported = ?", true)

	var comments []models.Comment
	meta, err := paginate(q, p, &comments, orderBy("created_at DESC"), preload("Author"), preload("Event"))
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	out := make([]ReportedComment, len(comments))
	for i := range comments {
		out[i] = ReportedComment{
			Comment:     &comments[i],
			Reports:     comments[i].Reports,
			ReportCount: len(comments[i].Reports),
		}
	}
	return out, meta, nil
}

// SoftDelete replaces the comment's content with a placeholder, keeping the
// row so replies stay attached.
func (s *CommentService) SoftDelete(ctx context.Context, commentID, adminID uuid.UUID) error {
	c, err := s.find(ctx, commentID)
	if err != nil {
		return err
	}
	now := s.now()
	c.SoftDelete(now)
	c.ModeratedBy = &adminID
	c.ModeratedAt = &now
	err = s.db.WithContext(ctx).Model(c).
		Select("content", "is_deleted", "deleted_at", "moderated_by", "moderated_at").
		Updates(c).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete comment")
	}
	return nil
}

// SetApproval shows or hides a comment from public listings.
func (s *CommentService) SetApproval(ctx context.Context, commentID, adminID uuid.UUID, approved bool) (*models.Comment, error) {
	c, err := s.find(ctx, commentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c.IsApproved = approved
	c.ModeratedBy = &adminID
	c.ModeratedAt = &now
	err = s.db.WithContext(ctx).Model(c).
		Select("is_approved", "moderated_by", "moderated_at").
		Updates(c).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to update comment approval")
	}
	return c, nil
}
