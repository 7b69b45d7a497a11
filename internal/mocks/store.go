package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
)

// ErrInjected is the default error returned by a failing method.
var ErrInjected = errors.New("injected store failure")

// FailingStore wraps a real store and fails the methods it is told to.
type FailingStore struct {
	storage.Store

	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func NewFailingStore(inner storage.Store) *FailingStore {
	return &FailingStore{Store: inner, fail: make(map[string]error)}
}

// FailOn makes method return err (ErrInjected when nil) from now on.
func (f *FailingStore) FailOn(method string, err error) {
	if err == nil {
		err = ErrInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = err
}

func (f *FailingStore) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = make(map[string]error)
	f.calls = nil
}

// Calls returns the intercepted method names in call order.
func (f *FailingStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FailingStore) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	return f.fail[method]
}

func (f *FailingStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	if err := f.check("GetPost"); err != nil {
		return nil, err
	}
	return f.Store.GetPost(ctx, id)
}

func (f *FailingStore) UpdatePost(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	if err := f.check("UpdatePost"); err != nil {
		return nil, err
	}
	return f.Store.UpdatePost(ctx, id, patch)
}

func (f *FailingStore) DeletePost(ctx context.Context, id string) error {
	if err := f.check("DeletePost"); err != nil {
		return err
	}
	return f.Store.DeletePost(ctx, id)
}

func (f *FailingStore) GetLike(ctx context.Context, id string) (*model.Like, error) {
	if err := f.check("GetLike"); err != nil {
		return nil, err
	}
	return f.Store.GetLike(ctx, id)
}

func (f *FailingStore) CreateLike(ctx context.Context, l *model.Like) (string, error) {
	if err := f.check("CreateLike"); err != nil {
		return "", err
	}
	return f.Store.CreateLike(ctx, l)
}

func (f *FailingStore) DeleteLike(ctx context.Context, id string) error {
	if err := f.check("DeleteLike"); err != nil {
		return err
	}
	return f.Store.DeleteLike(ctx, id)
}

func (f *FailingStore) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	if err := f.check("GetComment"); err != nil {
		return nil, err
	}
	return f.Store.GetComment(ctx, id)
}

func (f *FailingStore) CreateComment(ctx context.Context, c *model.Comment) (string, error) {
	if err := f.check("CreateComment"); err != nil {
		return "", err
	}
	return f.Store.CreateComment(ctx, c)
}

func (f *FailingStore) UpdateComment(ctx context.Context, id string, patch model.CommentPatch) (*model.Comment, error) {
	if err := f.check("UpdateComment"); err != nil {
		return nil, err
	}
	return f.Store.UpdateComment(ctx, id, patch)
}

func (f *FailingStore) DeleteComment(ctx context.Context, id string) error {
	if err := f.check("DeleteComment"); err != nil {
		return err
	}
	return f.Store.DeleteComment(ctx, id)
}

func (f *FailingStore) CreateReply(ctx context.Context, r *model.Reply) (string, error) {
	if err := f.check("CreateReply"); err != nil {
		return "", err
	}
	return f.Store.CreateReply(ctx, r)
}

func (f *FailingStore) DeleteReply(ctx context.Context, id string) error {
	if err := f.check("DeleteReply"); err != nil {
		return err
	}
	return f.Store.DeleteReply(ctx, id)
}

func (f *FailingStore) GetPostView(ctx context.Context, id string) (*model.PostView, error) {
	if err := f.check("GetPostView"); err != nil {
		return nil, err
	}
	return f.Store.GetPostView(ctx, id)
}
