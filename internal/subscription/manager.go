package subscription

import (
	"sync"
)

// Mode selects which subscribers receive a post's updates.
type Mode string

const (
	// ModeGlobal delivers every update to every registered subscriber.
	ModeGlobal Mode = "global"

	// ModeSubscribed delivers an update only to subscribers of that post.
	ModeSubscribed Mode = "subscribed"
)

// DefaultBuffer is the number of undelivered messages a subscriber may hold
// before it is dropped.
const DefaultBuffer = 64

// Subscriber is one registered receiver, normally a websocket connection.
type Subscriber struct {
	id     string
	ch     chan []byte
	posts  map[string]struct{}
	closed bool
}

func (s *Subscriber) ID() string {
	return s.id
}

// C returns the delivery channel. It is closed when the subscriber is
// unregistered or dropped for falling behind.
func (s *Subscriber) C() <-chan []byte {
	return s.ch
}

type SubscriptionManager struct {
	mu     sync.Mutex
	mode   Mode
	buffer int
	all    map[string]*Subscriber
	subs   map[string]map[string]*Subscriber // postID -> subscribers by id
}

func NewSubscriptionManager(mode Mode, buffer int) *SubscriptionManager {
	if mode == "" {
		mode = ModeGlobal
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &SubscriptionManager{
		mode:   mode,
		buffer: buffer,
		all:    make(map[string]*Subscriber),
		subs:   make(map[string]map[string]*Subscriber),
	}
}

func (m *SubscriptionManager) Mode() Mode {
	return m.mode
}

// Register adds a subscriber and returns it with its cancel function.
// Cancel is safe to call more than once.
func (m *SubscriptionManager) Register(id string) (*Subscriber, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &Subscriber{
		id:    id,
		ch:    make(chan []byte, m.buffer),
		posts: make(map[string]struct{}),
	}
	m.all[id] = sub

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removeLocked(sub)
	}
	return sub, cancel
}

// Subscribe adds postID to the subscriber's topics. It has no effect on
// delivery in global mode.
func (m *SubscriptionManager) Subscribe(sub *Subscriber, postID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.closed {
		return
	}
	topic, ok := m.subs[postID]
	if !ok {
		topic = make(map[string]*Subscriber)
		m.subs[postID] = topic
	}
	topic[sub.id] = sub
	sub.posts[postID] = struct{}{}
}

func (m *SubscriptionManager) Unsubscribe(sub *Subscriber, postID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unsubscribeLocked(sub, postID)
}

// Publish delivers payload to the subscribers of postID and returns how
// many received it. A subscriber whose buffer is full is dropped.
func (m *SubscriptionManager) Publish(postID string, payload []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	targets := m.all
	if m.mode == ModeSubscribed {
		targets = m.subs[postID]
	}

	delivered := 0
	var slow []*Subscriber
	for _, sub := range targets {
		select {
		case sub.ch <- payload:
			delivered++
		default:
			slow = append(slow, sub)
		}
	}
	for _, sub := range slow {
		m.removeLocked(sub)
	}
	return delivered
}

// SendTo delivers payload to one subscriber. It reports false, and drops
// the subscriber, when its buffer is full.
func (m *SubscriptionManager) SendTo(sub *Subscriber, payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.closed {
		return false
	}
	select {
	case sub.ch <- payload:
		return true
	default:
		m.removeLocked(sub)
		return false
	}
}

// Count returns the number of registered subscribers.
func (m *SubscriptionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.all)
}

// Close unregisters every subscriber.
func (m *SubscriptionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.all {
		m.removeLocked(sub)
	}
}

func (m *SubscriptionManager) removeLocked(sub *Subscriber) {
	if sub.closed {
		return
	}
	for postID := range sub.posts {
		m.unsubscribeLocked(sub, postID)
	}
	delete(m.all, sub.id)
	sub.closed = true
	close(sub.ch)
}

func (m *SubscriptionManager) unsubscribeLocked(sub *Subscriber, postID string) {
	delete(sub.posts, postID)
	topic, ok := m.subs[postID]
	if !ok {
		return
	}
	delete(topic, sub.id)
	if len(topic) == 0 {
		delete(m.subs, postID)
	}
}
