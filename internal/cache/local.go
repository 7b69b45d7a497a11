package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/VitaminP8/postsync/internal/model"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the number of views the local cache holds.
const DefaultSize = 500

type item struct {
	view      *model.PostView
	expiresAt time.Time
}

// Local is an in-process LRU of post views with a per-entry TTL.
type Local struct {
	lruCache *lru.Cache[string, item]
	ttl      time.Duration
	now      func() time.Time
}

func NewLocal(size int, ttl time.Duration) (*Local, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l, err := lru.New[string, item](size)
	if err != nil {
		return nil, fmt.Errorf("could not create LRU cache: %w", err)
	}
	return &Local{lruCache: l, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached view, or false if it is absent or expired.
func (c *Local) Get(_ context.Context, postID string) (*model.PostView, bool) {
	val, ok := c.lruCache.Get(postID)
	if !ok {
		return nil, false
	}
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(postID)
		return nil, false
	}
	return val.view, true
}

func (c *Local) Set(_ context.Context, view *model.PostView) {
	c.lruCache.Add(view.ID, item{view: view, expiresAt: c.now().Add(c.ttl)})
}

func (c *Local) Delete(_ context.Context, postID string) {
	c.lruCache.Remove(postID)
}

func (c *Local) Len() int {
	return c.lruCache.Len()
}
