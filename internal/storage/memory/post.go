package memory

import (
	"context"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
)

func (s *Store) GetPost(_ context.Context, id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clonePost(p), nil
}

func (s *Store) ListPosts(_ context.Context, ownerID string) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := s.listPostsLocked(ownerID)
	out := make([]*model.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, clonePost(p))
	}
	return out, nil
}

func (s *Store) CreatePost(_ context.Context, p *model.Post) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clonePost(p)
	stored.ID = s.ids.NewID()
	stored.CreatedAt = s.stamp(p.CreatedAt)
	if err := s.checkListsLocked(stored.LikeIDs, stored.CommentIDs); err != nil {
		return "", err
	}
	s.posts[stored.ID] = stored
	return stored.ID, nil
}

func (s *Store) UpdatePost(_ context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	next := clonePost(p)
	if patch.Image != nil {
		next.Image = *patch.Image
	}
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.LikeIDs != nil {
		next.LikeIDs = copyIDs(*patch.LikeIDs)
	}
	if patch.CommentIDs != nil {
		next.CommentIDs = copyIDs(*patch.CommentIDs)
	}
	if err := s.checkListsLocked(next.LikeIDs, next.CommentIDs); err != nil {
		return nil, err
	}

	s.posts[id] = next
	return clonePost(next), nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return storage.ErrNotFound
	}
	for _, lid := range p.LikeIDs {
		delete(s.likes, lid)
	}
	for _, cid := range p.CommentIDs {
		if c, ok := s.comments[cid]; ok {
			for _, rid := range c.ReplyIDs {
				delete(s.replies, rid)
			}
		}
		delete(s.comments, cid)
	}
	delete(s.posts, id)
	return nil
}

// checkListsLocked rejects lists that reference missing entities.
func (s *Store) checkListsLocked(likeIDs, commentIDs []string) error {
	for _, lid := range likeIDs {
		if _, ok := s.likes[lid]; !ok {
			return storage.ErrNotFound
		}
	}
	for _, cid := range commentIDs {
		if _, ok := s.comments[cid]; !ok {
			return storage.ErrNotFound
		}
	}
	return nil
}
