// Package storage defines the document store consumed by the mutation engine
// and the collaborators around it. Backends live in the memory and postgres
// subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/VitaminP8/postsync/internal/model"
)

var (
	// ErrNotFound is returned when an entity, or an id referenced by a
	// patched list, does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique user field is already taken.
	ErrConflict = errors.New("already exists")
)

type UserStorage interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) (string, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type PostStorage interface {
	GetPost(ctx context.Context, id string) (*model.Post, error)
	// ListPosts returns posts newest first. An empty ownerID lists all posts.
	ListPosts(ctx context.Context, ownerID string) ([]*model.Post, error)
	CreatePost(ctx context.Context, p *model.Post) (string, error)
	UpdatePost(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error)
	// DeletePost removes the post together with its likes, its comments and
	// their replies.
	DeletePost(ctx context.Context, id string) error
}

type LikeStorage interface {
	GetLike(ctx context.Context, id string) (*model.Like, error)
	CreateLike(ctx context.Context, l *model.Like) (string, error)
	DeleteLike(ctx context.Context, id string) error
}

type CommentStorage interface {
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	CreateComment(ctx context.Context, c *model.Comment) (string, error)
	UpdateComment(ctx context.Context, id string, patch model.CommentPatch) (*model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type ReplyStorage interface {
	GetReply(ctx context.Context, id string) (*model.Reply, error)
	CreateReply(ctx context.Context, r *model.Reply) (string, error)
	DeleteReply(ctx context.Context, id string) error
}

// ViewStorage is the read-optimized join used for every broadcast.
type ViewStorage interface {
	GetPostView(ctx context.Context, id string) (*model.PostView, error)
	ListPostViews(ctx context.Context, ownerID string) ([]*model.PostView, error)
}

// Store is the full document store.
type Store interface {
	UserStorage
	PostStorage
	LikeStorage
	CommentStorage
	ReplyStorage
	ViewStorage
}
