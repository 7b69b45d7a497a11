package postgres

import (
	"context"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/models"
	"github.com/jinzhu/gorm"
)

func (s *Store) GetPostView(_ context.Context, id string) (*model.PostView, error) {
	p, err := loadPost(s.db, id)
	if err != nil {
		return nil, err
	}
	parts, err := loadParts(s.db, p)
	if err != nil {
		return nil, err
	}
	return storage.BuildPostView(parts), nil
}

func (s *Store) ListPostViews(ctx context.Context, ownerID string) ([]*model.PostView, error) {
	posts, err := s.ListPosts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	views := make([]*model.PostView, 0, len(posts))
	for _, p := range posts {
		parts, err := loadParts(s.db, p)
		if err != nil {
			return nil, err
		}
		views = append(views, storage.BuildPostView(parts))
	}
	return views, nil
}

// loadParts fetches the post's likes, comments, replies and every user they
// mention, one query per kind.
func loadParts(db *gorm.DB, p *model.Post) (storage.ViewParts, error) {
	parts := storage.ViewParts{
		Post:     p,
		Likes:    map[string]*model.Like{},
		Comments: map[string]*model.Comment{},
		Replies:  map[string]*model.Reply{},
		Users:    map[string]*model.User{},
	}
	userIDs := []string{p.OwnerID}

	var likes []models.Like
	if err := db.Where("post_id = ?", p.ID).Find(&likes).Error; err != nil {
		return parts, err
	}
	for i := range likes {
		parts.Likes[likes[i].ID] = toLike(&likes[i])
		userIDs = append(userIDs, likes[i].UserID)
	}

	var comments []models.Comment
	if err := db.Where("post_id = ?", p.ID).Find(&comments).Error; err != nil {
		return parts, err
	}
	commentIDs := make([]string, 0, len(comments))
	for i := range comments {
		c := comments[i]
		parts.Comments[c.ID] = &model.Comment{ID: c.ID, UserID: c.UserID, Text: c.Text, CreatedAt: c.CreatedAt}
		commentIDs = append(commentIDs, c.ID)
		userIDs = append(userIDs, c.UserID)
	}

	if len(commentIDs) > 0 {
		var replies []models.Reply
		if err := db.Where("comment_id IN (?)", commentIDs).Order("position").Find(&replies).Error; err != nil {
			return parts, err
		}
		for i := range replies {
			r := replies[i]
			parts.Replies[r.ID] = toReply(&r)
			if c, ok := parts.Comments[*r.CommentID]; ok {
				c.ReplyIDs = append(c.ReplyIDs, r.ID)
			}
			userIDs = append(userIDs, r.UserID)
		}
	}

	var users []models.User
	if err := db.Where("id IN (?)", userIDs).Find(&users).Error; err != nil {
		return parts, err
	}
	for i := range users {
		parts.Users[users[i].ID] = toUser(&users[i])
	}
	return parts, nil
}
