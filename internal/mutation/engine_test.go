package mutation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/VitaminP8/postsync/internal/mocks"
	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memory.Store
	u1    string
	u2    string
	p1    string
	p2    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	store := memory.NewStore(
		memory.WithIDGenerator(storage.NewSequenceGenerator("id")),
		memory.WithClock(func() time.Time {
			n++
			return base.Add(time.Duration(n) * time.Second)
		}),
	)

	f := &fixture{store: store}
	var err error
	f.u1, err = store.CreateUser(ctx, &model.User{Username: "u1", Email: "u1@example.com"})
	require.NoError(t, err)
	f.u2, err = store.CreateUser(ctx, &model.User{Username: "u2", Email: "u2@example.com"})
	require.NoError(t, err)
	f.p1, err = store.CreatePost(ctx, &model.Post{Title: "p1", Description: "d", OwnerID: f.u1})
	require.NoError(t, err)
	f.p2, err = store.CreatePost(ctx, &model.Post{Title: "p2", Description: "d", OwnerID: f.u2})
	require.NoError(t, err)
	return f
}

func likers(v *model.PostView) []string {
	out := make([]string, 0, len(v.Likes))
	for _, l := range v.Likes {
		out = append(out, l.User.ID)
	}
	return out
}

func TestEngine_ToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("Like then unlike returns to an empty list", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		view, err := e.ToggleLike(ctx, f.p1, f.u1)
		require.NoError(t, err)
		require.Len(t, view.Likes, 1)
		assert.Equal(t, model.UserRef{ID: f.u1, Username: "u1"}, view.Likes[0].User)
		likeID := view.Likes[0].ID

		view, err = e.ToggleLike(ctx, f.p1, f.u1)
		require.NoError(t, err)
		assert.Empty(t, view.Likes)

		_, err = f.store.GetLike(ctx, likeID)
		assert.ErrorIs(t, err, storage.ErrNotFound, "unliked Like should be destroyed")
	})

	t.Run("Toggle twice restores membership of other users", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		_, err := e.ToggleLike(ctx, f.p1, f.u2)
		require.NoError(t, err)
		before, err := f.store.GetPostView(ctx, f.p1)
		require.NoError(t, err)

		_, err = e.ToggleLike(ctx, f.p1, f.u1)
		require.NoError(t, err)
		after, err := e.ToggleLike(ctx, f.p1, f.u1)
		require.NoError(t, err)

		assert.ElementsMatch(t, likers(before), likers(after))
	})

	t.Run("Likes never repeat a user", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		var view *model.PostView
		var err error
		for i := 0; i < 5; i++ {
			view, err = e.ToggleLike(ctx, f.p1, f.u1)
			require.NoError(t, err)
			view, err = e.ToggleLike(ctx, f.p1, f.u2)
			require.NoError(t, err)
		}
		assert.ElementsMatch(t, []string{f.u1, f.u2}, likers(view))
	})

	t.Run("Validation and lookups", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		_, err := e.ToggleLike(ctx, "", f.u1)
		assert.True(t, IsValidation(err))
		_, err = e.ToggleLike(ctx, f.p1, "")
		assert.True(t, IsValidation(err))
		_, err = e.ToggleLike(ctx, "missing", f.u1)
		assert.True(t, IsNotFound(err))
		_, err = e.ToggleLike(ctx, f.p1, "ghost")
		assert.True(t, IsNotFound(err))

		view, err := f.store.GetPostView(ctx, f.p1)
		require.NoError(t, err)
		assert.Empty(t, view.Likes)
	})
}

func TestEngine_AddComment(t *testing.T) {
	ctx := context.Background()

	t.Run("Comments are appended in call order", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		texts := []string{"first", "second", "third"}
		authors := []string{f.u1, f.u2, f.u1}
		var view *model.PostView
		var err error
		for i := range texts {
			view, err = e.AddComment(ctx, f.p1, authors[i], texts[i])
			require.NoError(t, err)
		}

		require.Len(t, view.Comments, len(texts))
		for i, c := range view.Comments {
			assert.Equal(t, texts[i], c.Text)
			assert.Equal(t, authors[i], c.User.ID)
			assert.Empty(t, c.Replies)
		}
	})

	t.Run("Text is stored unchanged", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		view, err := e.AddComment(ctx, f.p1, f.u1, "  padded  ")
		require.NoError(t, err)
		assert.Equal(t, "  padded  ", view.Comments[0].Text)
	})

	t.Run("Empty or oversized text is rejected", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		for _, text := range []string{"", "   \n\t", strings.Repeat("x", MaxTextLength+1)} {
			_, err := e.AddComment(ctx, f.p1, f.u1, text)
			assert.True(t, IsValidation(err), "text %q", text)
		}

		_, err := e.AddComment(ctx, f.p1, f.u1, strings.Repeat("é", MaxTextLength))
		assert.NoError(t, err, "length is counted in runes")
	})

	t.Run("Unknown post", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		_, err := e.AddComment(ctx, "missing", f.u1, "hello")
		assert.True(t, IsNotFound(err))
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestEngine_AddReply(t *testing.T) {
	ctx := context.Background()

	t.Run("Reply is nested under the named comment only", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		_, err := e.AddComment(ctx, f.p1, f.u1, "hello")
		require.NoError(t, err)
		view, err := e.AddComment(ctx, f.p1, f.u2, "other")
		require.NoError(t, err)
		target := view.Comments[0].ID

		view, err = e.AddReply(ctx, f.p1, target, f.u2, "hi")
		require.NoError(t, err)

		assert.Equal(t, f.p1, view.ID)
		require.Len(t, view.Comments, 2)
		require.Len(t, view.Comments[0].Replies, 1)
		assert.Equal(t, "hi", view.Comments[0].Replies[0].Text)
		assert.Equal(t, model.UserRef{ID: f.u2, Username: "u2"}, view.Comments[0].Replies[0].User)
		assert.Empty(t, view.Comments[1].Replies)
	})

	t.Run("Comment of another post is not found and nothing changes", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		view, err := e.AddComment(ctx, f.p2, f.u1, "elsewhere")
		require.NoError(t, err)
		foreign := view.Comments[0].ID

		_, err = e.AddReply(ctx, f.p1, foreign, f.u2, "hi")
		assert.True(t, IsNotFound(err))

		c, err := f.store.GetComment(ctx, foreign)
		require.NoError(t, err)
		assert.Empty(t, c.ReplyIDs)
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)

		_, err := e.AddReply(ctx, f.p1, "", f.u1, "hi")
		assert.True(t, IsValidation(err))
		_, err = e.AddReply(ctx, f.p1, "c", f.u1, " ")
		assert.True(t, IsValidation(err))
	})
}

func TestEngine_StoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("Failed persist removes the orphaned like", func(t *testing.T) {
		f := newFixture(t)
		store := mocks.NewFailingStore(f.store)
		store.FailOn("UpdatePost", nil)
		e := NewEngine(store, nil)

		_, err := e.ToggleLike(ctx, f.p1, f.u1)
		assert.True(t, IsStore(err))
		assert.ErrorIs(t, err, mocks.ErrInjected)
		assert.Contains(t, store.Calls(), "DeleteLike")

		store.Reset()
		view, err := e.ToggleLike(ctx, f.p1, f.u1)
		require.NoError(t, err)
		assert.Len(t, view.Likes, 1, "no leftover like from the failed attempt")
	})

	t.Run("Unlike keeps the like when the list cannot be patched", func(t *testing.T) {
		f := newFixture(t)
		e := NewEngine(f.store, nil)
		view, err := e.ToggleLike(ctx, f.p1, f.u1)
		require.NoError(t, err)
		likeID := view.Likes[0].ID

		store := mocks.NewFailingStore(f.store)
		store.FailOn("UpdatePost", nil)
		_, err = NewEngine(store, nil).ToggleLike(ctx, f.p1, f.u1)
		assert.True(t, IsStore(err))
		assert.NotContains(t, store.Calls(), "DeleteLike")

		_, err = f.store.GetLike(ctx, likeID)
		assert.NoError(t, err)
	})

	t.Run("Unlike still succeeds when the like cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		view, err := NewEngine(f.store, nil).ToggleLike(ctx, f.p1, f.u1)
		require.NoError(t, err)
		likeID := view.Likes[0].ID

		store := mocks.NewFailingStore(f.store)
		store.FailOn("DeleteLike", nil)
		view, err = NewEngine(store, nil).ToggleLike(ctx, f.p1, f.u1)
		require.NoError(t, err)
		assert.Empty(t, view.Likes)
		assert.Equal(t, []string{"GetPost", "GetLike", "UpdatePost", "DeleteLike", "GetPostView"}, store.Calls())

		p, err := f.store.GetPost(ctx, f.p1)
		require.NoError(t, err)
		assert.NotContains(t, p.LikeIDs, likeID)
	})

	t.Run("Failed persist removes the orphaned comment", func(t *testing.T) {
		f := newFixture(t)
		store := mocks.NewFailingStore(f.store)
		store.FailOn("UpdatePost", nil)

		_, err := NewEngine(store, nil).AddComment(ctx, f.p1, f.u1, "hello")
		assert.True(t, IsStore(err))
		assert.Equal(t, []string{"GetPost", "CreateComment", "UpdatePost", "DeleteComment"}, store.Calls())
	})

	t.Run("Failed persist removes the orphaned reply", func(t *testing.T) {
		f := newFixture(t)
		view, err := NewEngine(f.store, nil).AddComment(ctx, f.p1, f.u1, "hello")
		require.NoError(t, err)

		store := mocks.NewFailingStore(f.store)
		store.FailOn("UpdateComment", nil)
		_, err = NewEngine(store, nil).AddReply(ctx, f.p1, view.Comments[0].ID, f.u2, "hi")
		assert.True(t, IsStore(err))
		assert.Contains(t, store.Calls(), "DeleteReply")

		c, err := f.store.GetComment(ctx, view.Comments[0].ID)
		require.NoError(t, err)
		assert.Empty(t, c.ReplyIDs)
	})

	t.Run("Read failure is a store error", func(t *testing.T) {
		f := newFixture(t)
		store := mocks.NewFailingStore(f.store)
		store.FailOn("GetPost", nil)

		_, err := NewEngine(store, nil).AddComment(ctx, f.p1, f.u1, "hello")
		assert.True(t, IsStore(err))
		assert.Contains(t, err.Error(), mocks.ErrInjected.Error())
	})
}

func TestError(t *testing.T) {
	err := validationError(OpAddComment, "text is required")
	assert.Equal(t, "add-comment: text is required", err.Error())
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
	assert.False(t, IsStore(nil))
}
