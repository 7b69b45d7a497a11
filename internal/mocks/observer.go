package mocks

import (
	"context"
	"sync"

	"github.com/VitaminP8/postsync/internal/model"
)

// RecordingObserver keeps every notification it receives.
type RecordingObserver struct {
	mu      sync.Mutex
	updated map[string][]*model.PostView // postID -> views in delivery order
	deleted []string
	notify  chan struct{}
}

func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{
		updated: make(map[string][]*model.PostView),
		notify:  make(chan struct{}, 1024),
	}
}

func (o *RecordingObserver) PostUpdated(_ context.Context, view *model.PostView) {
	o.mu.Lock()
	o.updated[view.ID] = append(o.updated[view.ID], view)
	o.mu.Unlock()
	o.signal()
}

func (o *RecordingObserver) PostDeleted(_ context.Context, postID string) {
	o.mu.Lock()
	o.deleted = append(o.deleted, postID)
	o.mu.Unlock()
	o.signal()
}

func (o *RecordingObserver) signal() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// Notified is signalled once per notification.
func (o *RecordingObserver) Notified() <-chan struct{} {
	return o.notify
}

// GetUpdatesForPost returns every view delivered for postID.
func (o *RecordingObserver) GetUpdatesForPost(postID string) []*model.PostView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*model.PostView(nil), o.updated[postID]...)
}

func (o *RecordingObserver) Deleted() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.deleted...)
}
