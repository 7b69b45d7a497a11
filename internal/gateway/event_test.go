package gateway

import (
	"testing"
	"time"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goldenView() *model.PostView {
	at := func(min int) time.Time {
		return time.Date(2024, 5, 1, 12, min, 0, 0, time.UTC)
	}
	alice := model.UserRef{ID: "u1", Username: "alice"}
	bob := model.UserRef{ID: "u2", Username: "bob"}

	return &model.PostView{
		ID:          "p1",
		Image:       "uploads/1.png",
		Title:       "Sunset",
		Description: "Golden hour",
		Date:        at(0),
		User:        model.UserRef{ID: "u1", Username: "alice", Email: "alice@example.com"},
		Likes:       []model.LikeView{{ID: "l1", User: bob}},
		Comments: []model.CommentView{{
			ID:      "c1",
			User:    bob,
			Text:    "hello",
			Date:    at(1),
			Replies: []model.ReplyView{{ID: "r1", User: alice, Text: "hi", Date: at(2)}},
		}},
	}
}

func TestEncode_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	t.Run("post-updated carries the full view", func(t *testing.T) {
		out, err := Encode(EventPostUpdated, "", goldenView())
		require.NoError(t, err)
		g.Assert(t, "post_updated", out)
	})

	t.Run("error echoes the request", func(t *testing.T) {
		out, err := Encode(EventError, "r-7", ErrorData{
			Kind:      "validation",
			Message:   "text is required",
			Event:     EventCommentAdd,
			RequestID: "r-7",
		})
		require.NoError(t, err)
		g.Assert(t, "error", out)
	})

	t.Run("post-deleted carries the id", func(t *testing.T) {
		out, err := Encode(EventPostDeleted, "", DeletedData{ID: "p1"})
		require.NoError(t, err)
		g.Assert(t, "post_deleted", out)
	})
}

func TestDecode(t *testing.T) {
	t.Run("Reply event", func(t *testing.T) {
		env, p, err := Decode([]byte(`{"type":"reply-add","requestId":"7","data":{"postId":"p1","commentId":"c1","userId":"u1","text":"hi"}}`))
		require.NoError(t, err)
		assert.Equal(t, EventReplyAdd, env.Type)
		assert.Equal(t, "7", env.RequestID)
		assert.Equal(t, Payload{PostID: "p1", CommentID: "c1", UserID: "u1", Text: "hi"}, *p)
		assert.Equal(t, "hi", p.Body())
	})

	t.Run("Alias text fields", func(t *testing.T) {
		_, p, err := Decode([]byte(`{"type":"comment-add","data":{"postId":"p1","comment":"hello"}}`))
		require.NoError(t, err)
		assert.Equal(t, "hello", p.Body())

		_, p, err = Decode([]byte(`{"type":"reply-add","data":{"postId":"p1","reply":"hi"}}`))
		require.NoError(t, err)
		assert.Equal(t, "hi", p.Body())
	})

	t.Run("Malformed frame", func(t *testing.T) {
		env, _, err := Decode([]byte(`{not json`))
		assert.ErrorIs(t, err, errMalformed)
		assert.Nil(t, env)

		env, _, err = Decode([]byte(`{"type":"like-toggle","data":"oops"}`))
		assert.ErrorIs(t, err, errMalformed)
		assert.Equal(t, EventLikeToggle, env.Type)
	})

	t.Run("Unknown kind", func(t *testing.T) {
		env, _, err := Decode([]byte(`{"type":"post-updated","requestId":"x"}`))
		assert.ErrorIs(t, err, errUnknownKind)
		assert.Equal(t, "x", env.RequestID)
	})
}
