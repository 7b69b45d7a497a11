// Package mutation applies like, comment and reply transitions to a post's
// composite state and returns the post's canonical view afterwards.
//
// The engine is not synchronized. Callers must serialize transitions that
// target the same post id; the gateway does this with a per-post queue.
package mutation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
)

// MaxTextLength is the longest comment or reply text accepted, in runes.
const MaxTextLength = 2000

const (
	OpToggleLike = "toggle-like"
	OpAddComment = "add-comment"
	OpAddReply   = "add-reply"
)

// Store is the part of the document store the engine reads and writes.
type Store interface {
	storage.UserStorage
	storage.PostStorage
	storage.LikeStorage
	storage.CommentStorage
	storage.ReplyStorage
	storage.ViewStorage
}

type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// ToggleLike removes userID's like from the post if present, otherwise
// adds one.
func (e *Engine) ToggleLike(ctx context.Context, postID, userID string) (*model.PostView, error) {
	const op = OpToggleLike

	if err := requireIDs(op, postID, userID); err != nil {
		return nil, err
	}
	post, err := e.loadPost(ctx, op, postID)
	if err != nil {
		return nil, err
	}
	if err := e.requireUser(ctx, op, userID); err != nil {
		return nil, err
	}

	likeID, err := e.findLike(ctx, op, post, userID)
	if err != nil {
		return nil, err
	}

	if likeID != "" {
		// The list is patched before the Like is destroyed so the post never
		// references a missing entity.
		ids := without(post.LikeIDs, likeID)
		if _, err := e.store.UpdatePost(ctx, postID, model.PostPatch{LikeIDs: &ids}); err != nil {
			return nil, e.failure(op, "post", err)
		}
		// The post no longer lists the like, so a failed delete only leaves
		// an unreferenced row behind.
		e.cleanup(ctx, op, "like", likeID, e.store.DeleteLike)
		return e.view(ctx, op, postID)
	}

	likeID, err = e.store.CreateLike(ctx, &model.Like{UserID: userID})
	if err != nil {
		return nil, e.storeFailure(op, err)
	}
	ids := append(append([]string{}, post.LikeIDs...), likeID)
	if _, err := e.store.UpdatePost(ctx, postID, model.PostPatch{LikeIDs: &ids}); err != nil {
		e.cleanup(ctx, op, "like", likeID, e.store.DeleteLike)
		return nil, e.failure(op, "post", err)
	}
	return e.view(ctx, op, postID)
}

// AddComment appends a new comment by userID to the post.
func (e *Engine) AddComment(ctx context.Context, postID, userID, text string) (*model.PostView, error) {
	const op = OpAddComment

	if err := requireIDs(op, postID, userID); err != nil {
		return nil, err
	}
	if err := validateText(op, text); err != nil {
		return nil, err
	}
	post, err := e.loadPost(ctx, op, postID)
	if err != nil {
		return nil, err
	}
	if err := e.requireUser(ctx, op, userID); err != nil {
		return nil, err
	}

	commentID, err := e.store.CreateComment(ctx, &model.Comment{UserID: userID, Text: text, ReplyIDs: []string{}})
	if err != nil {
		return nil, e.storeFailure(op, err)
	}
	ids := append(append([]string{}, post.CommentIDs...), commentID)
	if _, err := e.store.UpdatePost(ctx, postID, model.PostPatch{CommentIDs: &ids}); err != nil {
		e.cleanup(ctx, op, "comment", commentID, e.store.DeleteComment)
		return nil, e.failure(op, "post", err)
	}
	return e.view(ctx, op, postID)
}

// AddReply appends a new reply by userID to a comment of the post and
// returns the view of the owning post.
func (e *Engine) AddReply(ctx context.Context, postID, commentID, userID, text string) (*model.PostView, error) {
	const op = OpAddReply

	if err := requireIDs(op, postID, userID); err != nil {
		return nil, err
	}
	if commentID == "" {
		return nil, validationError(op, "commentId is required")
	}
	if err := validateText(op, text); err != nil {
		return nil, err
	}
	post, err := e.loadPost(ctx, op, postID)
	if err != nil {
		return nil, err
	}
	if !contains(post.CommentIDs, commentID) {
		return nil, notFoundError(op, "comment not found on post", nil)
	}
	if err := e.requireUser(ctx, op, userID); err != nil {
		return nil, err
	}

	comment, err := e.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, e.failure(op, "comment", err)
	}

	replyID, err := e.store.CreateReply(ctx, &model.Reply{UserID: userID, Text: text})
	if err != nil {
		return nil, e.storeFailure(op, err)
	}
	ids := append(append([]string{}, comment.ReplyIDs...), replyID)
	if _, err := e.store.UpdateComment(ctx, commentID, model.CommentPatch{ReplyIDs: &ids}); err != nil {
		e.cleanup(ctx, op, "reply", replyID, e.store.DeleteReply)
		return nil, e.failure(op, "comment", err)
	}
	return e.view(ctx, op, postID)
}

func (e *Engine) loadPost(ctx context.Context, op, postID string) (*model.Post, error) {
	post, err := e.store.GetPost(ctx, postID)
	if err != nil {
		return nil, e.failure(op, "post", err)
	}
	return post, nil
}

func (e *Engine) requireUser(ctx context.Context, op, userID string) error {
	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return e.failure(op, "user", err)
	}
	return nil
}

// findLike returns the id of userID's like on post, or "".
func (e *Engine) findLike(ctx context.Context, op string, post *model.Post, userID string) (string, error) {
	for _, id := range post.LikeIDs {
		like, err := e.store.GetLike(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", e.storeFailure(op, err)
		}
		if like.UserID == userID {
			return like.ID, nil
		}
	}
	return "", nil
}

func (e *Engine) view(ctx context.Context, op, postID string) (*model.PostView, error) {
	v, err := e.store.GetPostView(ctx, postID)
	if err != nil {
		return nil, e.failure(op, "post", err)
	}
	return v, nil
}

// cleanup destroys an entity no list references any more. An entity that is
// already gone is not an error.
func (e *Engine) cleanup(ctx context.Context, op, kind, id string, del func(context.Context, string) error) {
	if err := del(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		e.logger.Warn("could not remove orphaned entity",
			"op", op, "kind", kind, "id", id, "error", err)
	}
}

// failure maps a store error about what onto the engine taxonomy.
func (e *Engine) failure(op, what string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFoundError(op, what+" not found", err)
	}
	return e.storeFailure(op, err)
}

func (e *Engine) storeFailure(op string, err error) error {
	e.logger.Error("store failure", "op", op, "error", err)
	return storeError(op, err)
}

func requireIDs(op, postID, userID string) error {
	if postID == "" {
		return validationError(op, "postId is required")
	}
	if userID == "" {
		return validationError(op, "userId is required")
	}
	return nil
}

func validateText(op, text string) error {
	if strings.TrimSpace(text) == "" {
		return validationError(op, "text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return validationError(op, "text is too long")
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
