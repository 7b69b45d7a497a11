package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/models"
	"github.com/jinzhu/gorm"
)

func (s *Store) GetLike(_ context.Context, id string) (*model.Like, error) {
	var rec models.Like
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return toLike(&rec), nil
}

// CreateLike stores a detached like; attaching it is a post list patch.
func (s *Store) CreateLike(_ context.Context, l *model.Like) (string, error) {
	rec := &models.Like{ID: s.ids.NewID(), UserID: l.UserID}
	if err := s.db.Create(rec).Error; err != nil {
		return "", fmt.Errorf("could not create like: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) DeleteLike(_ context.Context, id string) error {
	return deleteByID(s.db, &models.Like{}, id)
}

func (s *Store) GetComment(_ context.Context, id string) (*model.Comment, error) {
	return loadComment(s.db, id)
}

func (s *Store) CreateComment(_ context.Context, c *model.Comment) (string, error) {
	rec := &models.Comment{
		ID:        s.ids.NewID(),
		UserID:    c.UserID,
		Text:      c.Text,
		CreatedAt: s.stamp(c.CreatedAt),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return attach(tx, repliesTable, "comment_id", rec.ID, c.ReplyIDs)
	})
	if err != nil {
		return "", fmt.Errorf("could not create comment: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) UpdateComment(_ context.Context, id string, patch model.CommentPatch) (*model.Comment, error) {
	var updated *model.Comment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var rec models.Comment
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			return notFound(err)
		}
		if patch.Text != nil {
			if err := tx.Model(&models.Comment{}).Where("id = ?", id).Update("text", *patch.Text).Error; err != nil {
				return err
			}
		}
		if patch.ReplyIDs != nil {
			if err := attach(tx, repliesTable, "comment_id", id, *patch.ReplyIDs); err != nil {
				return err
			}
		}
		c, err := loadComment(tx, id)
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not update comment: %w", err)
	}
	return updated, nil
}

// DeleteComment removes the comment together with its replies.
func (s *Store) DeleteComment(_ context.Context, id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
			return fmt.Errorf("could not delete replies: %w", err)
		}
		return deleteByID(tx, &models.Comment{}, id)
	})
}

func (s *Store) GetReply(_ context.Context, id string) (*model.Reply, error) {
	var rec models.Reply
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return toReply(&rec), nil
}

func (s *Store) CreateReply(_ context.Context, r *model.Reply) (string, error) {
	rec := &models.Reply{
		ID:        s.ids.NewID(),
		UserID:    r.UserID,
		Text:      r.Text,
		CreatedAt: s.stamp(r.CreatedAt),
	}
	if err := s.db.Create(rec).Error; err != nil {
		return "", fmt.Errorf("could not create reply: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) DeleteReply(_ context.Context, id string) error {
	return deleteByID(s.db, &models.Reply{}, id)
}

func loadComment(db *gorm.DB, id string) (*model.Comment, error) {
	var rec models.Comment
	if err := db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	replyIDs, err := childIDs(db, repliesTable, "comment_id", id)
	if err != nil {
		return nil, fmt.Errorf("could not get replies: %w", err)
	}
	return &model.Comment{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Text:      rec.Text,
		CreatedAt: rec.CreatedAt,
		ReplyIDs:  replyIDs,
	}, nil
}

func deleteByID(db *gorm.DB, table interface{}, id string) error {
	res := db.Where("id = ?", id).Delete(table)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
