package post

import (
	"context"
	"testing"
	"time"

	"github.com/VitaminP8/postsync/internal/cache"
	"github.com/VitaminP8/postsync/internal/mocks"
	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *Service
	store *memory.Store
	bc    *mocks.MockBroadcaster
	views *cache.Local
	owner string
	other string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore(memory.WithIDGenerator(storage.NewSequenceGenerator("id")))
	views, err := cache.NewLocal(10, time.Minute)
	require.NoError(t, err)

	f := &fixture{store: store, bc: mocks.NewMockBroadcaster(), views: views}
	f.svc = NewService(store, f.bc, views, nil)
	f.owner, err = store.CreateUser(ctx, &model.User{Username: "owner", Email: "owner@example.com"})
	require.NoError(t, err)
	f.other, err = store.CreateUser(ctx, &model.User{Username: "other", Email: "other@example.com"})
	require.NoError(t, err)
	return f
}

func in(title, description string) Input {
	return Input{Title: model.String(title), Description: model.String(description)}
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create and announce a post", func(t *testing.T) {
		f := newFixture(t)

		view, err := f.svc.CreatePost(ctx, f.owner, Input{
			Title:       model.String("Sunset"),
			Description: model.String("Golden hour"),
			Image:       model.String("uploads/1.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Sunset", view.Title)
		assert.Equal(t, "uploads/1.png", view.Image)
		assert.Equal(t, f.owner, view.User.ID)
		assert.Empty(t, view.Likes)

		assert.Len(t, f.bc.GetNotificationsForPost(view.ID), 1)
	})

	t.Run("Markup is stripped", func(t *testing.T) {
		f := newFixture(t)

		view, err := f.svc.CreatePost(ctx, f.owner, in(`<b>bold</b> title`, `<script>alert(1)</script>text`))
		require.NoError(t, err)
		assert.Equal(t, "bold title", view.Title)
		assert.Equal(t, "text", view.Description)
	})

	t.Run("Title and description are required", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreatePost(ctx, f.owner, in("", "d"))
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = f.svc.CreatePost(ctx, f.owner, in("<i></i>", "d"))
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = f.svc.CreatePost(ctx, f.owner, Input{Title: model.String("t")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestGetPosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	mine, err := f.svc.CreatePost(ctx, f.owner, in("mine", "d"))
	require.NoError(t, err)
	theirs, err := f.svc.CreatePost(ctx, f.other, in("theirs", "d"))
	require.NoError(t, err)

	t.Run("Get reads through the cache", func(t *testing.T) {
		_, ok := f.views.Get(ctx, mine.ID)
		require.False(t, ok)

		view, err := f.svc.GetPostById(ctx, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, "mine", view.Title)

		cached, ok := f.views.Get(ctx, mine.ID)
		require.True(t, ok)
		assert.Equal(t, view, cached)
	})

	t.Run("Unknown post", func(t *testing.T) {
		_, err := f.svc.GetPostById(ctx, "missing")
		assert.True(t, IsNotFound(err))
	})

	t.Run("List all and by owner", func(t *testing.T) {
		all, err := f.svc.GetAllPosts(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 2)

		own, err := f.svc.GetAllPosts(ctx, f.other)
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, theirs.ID, own[0].ID)
	})
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Owner updates through the post queue", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.CreatePost(ctx, f.owner, in("old", "d"))
		require.NoError(t, err)

		view, err := f.svc.UpdatePost(ctx, f.owner, created.ID, Input{Title: model.String("new")})
		require.NoError(t, err)
		assert.Equal(t, "new", view.Title)
		assert.Equal(t, "d", view.Description)

		assert.Equal(t, []string{created.ID}, f.bc.ExecCalls())
		notes := f.bc.GetNotificationsForPost(created.ID)
		require.Len(t, notes, 2)
		assert.Equal(t, "new", notes[1].Title)
	})

	t.Run("Someone else is forbidden", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.CreatePost(ctx, f.owner, in("old", "d"))
		require.NoError(t, err)

		_, err = f.svc.UpdatePost(ctx, f.other, created.ID, Input{Title: model.String("hijack")})
		assert.ErrorIs(t, err, ErrForbidden)

		p, err := f.store.GetPost(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "old", p.Title)
	})

	t.Run("Empty title is rejected before queueing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdatePost(ctx, f.owner, "any", Input{Title: model.String("  ")})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Empty(t, f.bc.ExecCalls())
	})

	t.Run("Unknown post", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdatePost(ctx, f.owner, "missing", Input{})
		assert.True(t, IsNotFound(err))
	})
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Owner deletes and the post is announced gone", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.CreatePost(ctx, f.owner, in("t", "d"))
		require.NoError(t, err)
		_, err = f.svc.GetPostById(ctx, created.ID)
		require.NoError(t, err)

		require.NoError(t, f.svc.DeletePostById(ctx, f.owner, created.ID))

		assert.Equal(t, []string{created.ID}, f.bc.Deleted())
		_, ok := f.views.Get(ctx, created.ID)
		assert.False(t, ok, "cache entry should be invalidated")
		_, err = f.svc.GetPostById(ctx, created.ID)
		assert.True(t, IsNotFound(err))
	})

	t.Run("Someone else is forbidden", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.CreatePost(ctx, f.owner, in("t", "d"))
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.DeletePostById(ctx, f.other, created.ID), ErrForbidden)
		assert.Empty(t, f.bc.Deleted())
	})
}
