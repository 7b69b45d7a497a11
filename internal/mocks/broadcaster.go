package mocks

import (
	"context"
	"sync"

	"github.com/VitaminP8/postsync/internal/model"
)

// MockBroadcaster runs queued work inline and records every announcement.
type MockBroadcaster struct {
	mu            sync.Mutex
	exec          sync.Mutex
	notifications map[string][]*model.PostView // Для отслеживания в тестах
	deleted       []string
	execCalls     []string
}

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{
		notifications: make(map[string][]*model.PostView),
	}
}

func (m *MockBroadcaster) Exec(ctx context.Context, postID string, fn func(context.Context) error) error {
	m.mu.Lock()
	m.execCalls = append(m.execCalls, postID)
	m.mu.Unlock()

	m.exec.Lock()
	defer m.exec.Unlock()
	return fn(ctx)
}

func (m *MockBroadcaster) PublishUpdated(_ context.Context, view *model.PostView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[view.ID] = append(m.notifications[view.ID], view)
}

func (m *MockBroadcaster) PublishDeleted(_ context.Context, postID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, postID)
}

// GetNotificationsForPost - вспомогательный метод для тестирования,
// возвращает все обновления для конкретного поста
func (m *MockBroadcaster) GetNotificationsForPost(postID string) []*model.PostView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.PostView(nil), m.notifications[postID]...)
}

func (m *MockBroadcaster) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// ExecCalls returns the post ids work was queued for, in call order.
func (m *MockBroadcaster) ExecCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.execCalls...)
}
