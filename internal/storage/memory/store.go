package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
)

// Store is an in-process document store. Every entity crosses the API
// boundary as a copy, so callers never share mutable state with it.
type Store struct {
	mu       sync.RWMutex
	ids      storage.IDGenerator
	now      func() time.Time
	users    map[string]*model.User
	posts    map[string]*model.Post
	likes    map[string]*model.Like
	comments map[string]*model.Comment
	replies  map[string]*model.Reply
}

type Option func(*Store)

// WithIDGenerator replaces the default UUIDv7 ids.
func WithIDGenerator(g storage.IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock sets the clock used for CreatedAt when the caller leaves it zero.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		ids:      storage.UUIDv7Generator{},
		now:      time.Now,
		users:    make(map[string]*model.User),
		posts:    make(map[string]*model.Post),
		likes:    make(map[string]*model.Like),
		comments: make(map[string]*model.Comment),
		replies:  make(map[string]*model.Reply),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ storage.Store = (*Store)(nil)

func (s *Store) GetPostView(_ context.Context, id string) (*model.PostView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return storage.BuildPostView(s.partsLocked(p)), nil
}

func (s *Store) ListPostViews(_ context.Context, ownerID string) ([]*model.PostView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := s.listPostsLocked(ownerID)
	views := make([]*model.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, storage.BuildPostView(s.partsLocked(p)))
	}
	return views, nil
}

// partsLocked collects the entities reachable from p. Caller holds s.mu.
func (s *Store) partsLocked(p *model.Post) storage.ViewParts {
	parts := storage.ViewParts{
		Post:     clonePost(p),
		Likes:    make(map[string]*model.Like, len(p.LikeIDs)),
		Comments: make(map[string]*model.Comment, len(p.CommentIDs)),
		Replies:  make(map[string]*model.Reply),
		Users:    make(map[string]*model.User),
	}
	addUser := func(id string) {
		if u, ok := s.users[id]; ok {
			parts.Users[id] = cloneUser(u)
		}
	}

	addUser(p.OwnerID)
	for _, id := range p.LikeIDs {
		if l, ok := s.likes[id]; ok {
			parts.Likes[id] = cloneLike(l)
			addUser(l.UserID)
		}
	}
	for _, id := range p.CommentIDs {
		c, ok := s.comments[id]
		if !ok {
			continue
		}
		parts.Comments[id] = cloneComment(c)
		addUser(c.UserID)
		for _, rid := range c.ReplyIDs {
			if r, ok := s.replies[rid]; ok {
				parts.Replies[rid] = cloneReply(r)
				addUser(r.UserID)
			}
		}
	}
	return parts
}

func (s *Store) listPostsLocked(ownerID string) []*model.Post {
	var posts []*model.Post
	for _, p := range s.posts {
		if ownerID == "" || p.OwnerID == ownerID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func copyIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.LikeIDs = copyIDs(p.LikeIDs)
	c.CommentIDs = copyIDs(p.CommentIDs)
	return &c
}

func cloneLike(l *model.Like) *model.Like {
	c := *l
	return &c
}

func cloneComment(cm *model.Comment) *model.Comment {
	c := *cm
	c.ReplyIDs = copyIDs(cm.ReplyIDs)
	return &c
}

func cloneReply(r *model.Reply) *model.Reply {
	c := *r
	return &c
}
