package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/models"
	"github.com/jinzhu/gorm"
)

func (s *Store) GetPost(_ context.Context, id string) (*model.Post, error) {
	return loadPost(s.db, id)
}

func (s *Store) ListPosts(_ context.Context, ownerID string) ([]*model.Post, error) {
	recs, err := listPostRecords(s.db, ownerID)
	if err != nil {
		return nil, err
	}

	posts := make([]*model.Post, 0, len(recs))
	for i := range recs {
		p, err := withLists(s.db, &recs[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Store) CreatePost(_ context.Context, p *model.Post) (string, error) {
	rec := &models.Post{
		ID:          s.ids.NewID(),
		Image:       p.Image,
		Title:       p.Title,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		CreatedAt:   s.stamp(p.CreatedAt),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if err := attach(tx, likesTable, "post_id", rec.ID, p.LikeIDs); err != nil {
			return err
		}
		return attach(tx, commentsTable, "post_id", rec.ID, p.CommentIDs)
	})
	if err != nil {
		return "", fmt.Errorf("could not create post: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) UpdatePost(_ context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	var updated *model.Post
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var rec models.Post
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			return notFound(err)
		}

		fields := map[string]interface{}{}
		if patch.Image != nil {
			fields["image"] = *patch.Image
		}
		if patch.Title != nil {
			fields["title"] = *patch.Title
		}
		if patch.Description != nil {
			fields["description"] = *patch.Description
		}
		if len(fields) > 0 {
			if err := tx.Model(&models.Post{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}

		if patch.LikeIDs != nil {
			if err := attach(tx, likesTable, "post_id", id, *patch.LikeIDs); err != nil {
				return err
			}
		}
		if patch.CommentIDs != nil {
			if err := attach(tx, commentsTable, "post_id", id, *patch.CommentIDs); err != nil {
				return err
			}
		}

		p, err := loadPost(tx, id)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not update post: %w", err)
	}
	return updated, nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var rec models.Post
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			return notFound(err)
		}

		commentIDs, err := childIDs(tx, commentsTable, "post_id", id)
		if err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.Reply{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Post{}).Error
	})
	if err != nil {
		return fmt.Errorf("could not delete post: %w", err)
	}
	return nil
}

func listPostRecords(db *gorm.DB, ownerID string) ([]models.Post, error) {
	var recs []models.Post
	q := db.Order("created_at desc").Order("id desc")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("could not get posts: %w", err)
	}
	return recs, nil
}

func loadPost(db *gorm.DB, id string) (*model.Post, error) {
	var rec models.Post
	if err := db.Where("id = ?", id).First(&rec).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("could not get post by id: %w", err)
	}
	return withLists(db, &rec)
}

func withLists(db *gorm.DB, rec *models.Post) (*model.Post, error) {
	likeIDs, err := childIDs(db, likesTable, "post_id", rec.ID)
	if err != nil {
		return nil, fmt.Errorf("could not get likes: %w", err)
	}
	commentIDs, err := childIDs(db, commentsTable, "post_id", rec.ID)
	if err != nil {
		return nil, fmt.Errorf("could not get comments: %w", err)
	}
	return &model.Post{
		ID:          rec.ID,
		Image:       rec.Image,
		Title:       rec.Title,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
		OwnerID:     rec.OwnerID,
		LikeIDs:     likeIDs,
		CommentIDs:  commentIDs,
	}, nil
}
