package memory

import (
	"context"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
)

func (s *Store) GetLike(_ context.Context, id string) (*model.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.likes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneLike(l), nil
}

func (s *Store) CreateLike(_ context.Context, l *model.Like) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneLike(l)
	stored.ID = s.ids.NewID()
	s.likes[stored.ID] = stored
	return stored.ID, nil
}

// DeleteLike also drops the id from any post list still holding it.
func (s *Store) DeleteLike(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.likes[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.likes, id)
	for _, p := range s.posts {
		p.LikeIDs = removeID(p.LikeIDs, id)
	}
	return nil
}

func (s *Store) GetComment(_ context.Context, id string) (*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneComment(c), nil
}

func (s *Store) CreateComment(_ context.Context, c *model.Comment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneComment(c)
	stored.ID = s.ids.NewID()
	stored.CreatedAt = s.stamp(c.CreatedAt)
	if err := s.checkRepliesLocked(stored.ReplyIDs); err != nil {
		return "", err
	}
	s.comments[stored.ID] = stored
	return stored.ID, nil
}

func (s *Store) UpdateComment(_ context.Context, id string, patch model.CommentPatch) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	next := cloneComment(c)
	if patch.Text != nil {
		next.Text = *patch.Text
	}
	if patch.ReplyIDs != nil {
		next.ReplyIDs = copyIDs(*patch.ReplyIDs)
	}
	if err := s.checkRepliesLocked(next.ReplyIDs); err != nil {
		return nil, err
	}

	s.comments[id] = next
	return cloneComment(next), nil
}

// DeleteComment removes the comment with its replies and drops it from any
// post list.
func (s *Store) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return storage.ErrNotFound
	}
	for _, rid := range c.ReplyIDs {
		delete(s.replies, rid)
	}
	delete(s.comments, id)
	for _, p := range s.posts {
		p.CommentIDs = removeID(p.CommentIDs, id)
	}
	return nil
}

func (s *Store) GetReply(_ context.Context, id string) (*model.Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.replies[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneReply(r), nil
}

func (s *Store) CreateReply(_ context.Context, r *model.Reply) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneReply(r)
	stored.ID = s.ids.NewID()
	stored.CreatedAt = s.stamp(r.CreatedAt)
	s.replies[stored.ID] = stored
	return stored.ID, nil
}

func (s *Store) DeleteReply(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.replies[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.replies, id)
	for _, c := range s.comments {
		c.ReplyIDs = removeID(c.ReplyIDs, id)
	}
	return nil
}

func (s *Store) checkRepliesLocked(ids []string) error {
	for _, rid := range ids {
		if _, ok := s.replies[rid]; !ok {
			return storage.ErrNotFound
		}
	}
	return nil
}
