package post

import (
	"context"

	"github.com/VitaminP8/postsync/internal/model"
)

// Input is the editable content of a post. Nil fields are left unchanged
// by UpdatePost.
type Input struct {
	Title       *string
	Description *string
	Image       *string
}

type PostStorage interface {
	CreatePost(ctx context.Context, ownerID string, in Input) (*model.PostView, error)
	GetPostById(ctx context.Context, id string) (*model.PostView, error)
	GetAllPosts(ctx context.Context, ownerID string) ([]*model.PostView, error)
	UpdatePost(ctx context.Context, ownerID, id string, in Input) (*model.PostView, error)
	DeletePostById(ctx context.Context, ownerID, id string) error
}
