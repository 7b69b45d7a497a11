package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/VitaminP8/postsync/internal/cache"
	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/microcosm-cc/bluemonday"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("only the owner can change this post")
)

type Posts interface {
	GetPost(ctx context.Context, id string) (*model.Post, error)
	CreatePost(ctx context.Context, p *model.Post) (string, error)
	UpdatePost(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error
	GetPostView(ctx context.Context, id string) (*model.PostView, error)
	ListPostViews(ctx context.Context, ownerID string) ([]*model.PostView, error)
}

// Broadcaster serializes work per post and announces the outcome. The
// gateway implements it.
type Broadcaster interface {
	Exec(ctx context.Context, postID string, fn func(context.Context) error) error
	PublishUpdated(ctx context.Context, view *model.PostView)
	PublishDeleted(ctx context.Context, postID string)
}

type Service struct {
	posts     Posts
	broadcast Broadcaster
	views     cache.ViewCache
	policy    *bluemonday.Policy
	logger    *slog.Logger
}

func NewService(posts Posts, broadcast Broadcaster, views cache.ViewCache, logger *slog.Logger) *Service {
	if views == nil {
		views = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		posts:     posts,
		broadcast: broadcast,
		views:     views,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

var _ PostStorage = (*Service)(nil)

func (s *Service) CreatePost(ctx context.Context, ownerID string, in Input) (*model.PostView, error) {
	title := s.clean(in.Title)
	description := s.clean(in.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrInvalidInput)
	}

	p := &model.Post{Title: title, Description: description, OwnerID: ownerID}
	if in.Image != nil {
		p.Image = *in.Image
	}

	id, err := s.posts.CreatePost(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	view, err := s.posts.GetPostView(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	s.broadcast.PublishUpdated(ctx, view)
	s.logger.Info("post created", "post_id", id, "user_id", ownerID)
	return view, nil
}

// GetPostById reads through the view cache.
func (s *Service) GetPostById(ctx context.Context, id string) (*model.PostView, error) {
	if view, ok := s.views.Get(ctx, id); ok {
		return view, nil
	}
	view, err := s.posts.GetPostView(ctx, id)
	if err != nil {
		return nil, err
	}
	s.views.Set(ctx, view)
	return view, nil
}

// GetAllPosts lists posts newest first, optionally only ownerID's.
func (s *Service) GetAllPosts(ctx context.Context, ownerID string) ([]*model.PostView, error) {
	return s.posts.ListPostViews(ctx, ownerID)
}

// UpdatePost edits the post on its serial queue and broadcasts the result.
func (s *Service) UpdatePost(ctx context.Context, ownerID, id string, in Input) (*model.PostView, error) {
	patch := model.PostPatch{Image: in.Image}
	if in.Title != nil {
		title := s.clean(in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		patch.Title = &title
	}
	if in.Description != nil {
		description := s.clean(in.Description)
		if description == "" {
			return nil, fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
		}
		patch.Description = &description
	}

	var view *model.PostView
	err := s.broadcast.Exec(ctx, id, func(ctx context.Context) error {
		if err := s.requireOwner(ctx, ownerID, id); err != nil {
			return err
		}
		if _, err := s.posts.UpdatePost(ctx, id, patch); err != nil {
			return err
		}
		v, err := s.posts.GetPostView(ctx, id)
		if err != nil {
			return err
		}
		view = v
		s.broadcast.PublishUpdated(ctx, view)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// DeletePostById removes the post with its likes, comments and replies on
// the post's serial queue.
func (s *Service) DeletePostById(ctx context.Context, ownerID, id string) error {
	return s.broadcast.Exec(ctx, id, func(ctx context.Context) error {
		if err := s.requireOwner(ctx, ownerID, id); err != nil {
			return err
		}
		if err := s.posts.DeletePost(ctx, id); err != nil {
			return err
		}
		s.views.Delete(ctx, id)
		s.broadcast.PublishDeleted(ctx, id)
		s.logger.Info("post deleted", "post_id", id, "user_id", ownerID)
		return nil
	})
}

func (s *Service) requireOwner(ctx context.Context, ownerID, id string) error {
	p, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) clean(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(*v))
}

// IsNotFound reports whether err means the post does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
