// Package cache keeps recently broadcast post views for the read path.
// The store stays the source of truth; the gateway writes through on every
// broadcast and post deletion invalidates.
package cache

import (
	"context"
	"time"

	"github.com/VitaminP8/postsync/internal/model"
)

// DefaultTTL bounds how long a view may be served without a broadcast.
const DefaultTTL = 5 * time.Minute

type ViewCache interface {
	Get(ctx context.Context, postID string) (*model.PostView, bool)
	Set(ctx context.Context, view *model.PostView)
	Delete(ctx context.Context, postID string)
}

// Noop caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) (*model.PostView, bool) { return nil, false }
func (Noop) Set(context.Context, *model.PostView)                {}
func (Noop) Delete(context.Context, string)                      {}

// Observer adapts a ViewCache to the gateway's broadcast notifications.
type Observer struct {
	Cache ViewCache
}

func (o Observer) PostUpdated(ctx context.Context, view *model.PostView) {
	o.Cache.Set(ctx, view)
}

func (o Observer) PostDeleted(ctx context.Context, postID string) {
	o.Cache.Delete(ctx, postID)
}
