package subscription

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscriber) []byte {
	t.Helper()
	select {
	case msg, ok := <-sub.C():
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatalf("subscriber %s timed out waiting for a message", sub.ID())
		return nil
	}
}

func assertNothing(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case msg := <-sub.C():
		t.Fatalf("subscriber %s should not receive %q", sub.ID(), msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionManager_Register(t *testing.T) {
	t.Run("Should register and cancel a subscriber", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeGlobal, 1)

		sub, cancel := manager.Register("c1")
		assert.Equal(t, "c1", sub.ID())
		assert.Equal(t, 1, manager.Count())

		cancel()
		assert.Equal(t, 0, manager.Count())
		_, ok := <-sub.C()
		assert.False(t, ok, "Channel should be closed after cancel")

		assert.NotPanics(t, cancel, "cancel should be idempotent")
	})

	t.Run("Cancel drops post subscriptions", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeSubscribed, 1)

		sub, cancel := manager.Register("c1")
		manager.Subscribe(sub, "post1")
		manager.Subscribe(sub, "post2")
		cancel()

		manager.mu.Lock()
		assert.Empty(t, manager.subs)
		manager.mu.Unlock()
	})

	t.Run("Subscribe after cancel is ignored", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeSubscribed, 1)

		sub, cancel := manager.Register("c1")
		cancel()
		manager.Subscribe(sub, "post1")

		manager.mu.Lock()
		assert.Empty(t, manager.subs)
		manager.mu.Unlock()
	})
}

func TestSubscriptionManager_Publish(t *testing.T) {
	t.Run("Global mode reaches every subscriber", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeGlobal, 4)

		s1, cancel1 := manager.Register("c1")
		s2, cancel2 := manager.Register("c2")
		defer cancel1()
		defer cancel2()

		n := manager.Publish("post1", []byte("update"))
		assert.Equal(t, 2, n)
		assert.Equal(t, []byte("update"), receive(t, s1))
		assert.Equal(t, []byte("update"), receive(t, s2))
	})

	t.Run("Subscribed mode only reaches subscribers of the post", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeSubscribed, 4)

		s1, cancel1 := manager.Register("c1")
		s2, cancel2 := manager.Register("c2")
		defer cancel1()
		defer cancel2()
		manager.Subscribe(s1, "post1")
		manager.Subscribe(s2, "post2")

		assert.Equal(t, 1, manager.Publish("post1", []byte("one")))
		assert.Equal(t, []byte("one"), receive(t, s1))
		assertNothing(t, s2)

		manager.Unsubscribe(s1, "post1")
		assert.Equal(t, 0, manager.Publish("post1", []byte("two")))
		assertNothing(t, s1)
	})

	t.Run("Publishing with no subscribers should not panic", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeSubscribed, 1)
		assert.NotPanics(t, func() {
			manager.Publish("post1", []byte("x"))
		})
	})

	t.Run("A full subscriber is dropped without blocking others", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeGlobal, 1)

		slow, cancelSlow := manager.Register("slow")
		fast, cancelFast := manager.Register("fast")
		defer cancelSlow()
		defer cancelFast()

		manager.Publish("post1", []byte("first"))
		assert.Equal(t, []byte("first"), receive(t, fast))

		n := manager.Publish("post1", []byte("second"))
		assert.Equal(t, 1, n)
		assert.Equal(t, []byte("second"), receive(t, fast))
		assert.Equal(t, 1, manager.Count())

		assert.Equal(t, []byte("first"), receive(t, slow))
		_, ok := <-slow.C()
		assert.False(t, ok, "slow subscriber should be closed")
	})
}

func TestSubscriptionManager_SendTo(t *testing.T) {
	t.Run("Should reach only the given subscriber", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeGlobal, 1)

		s1, cancel1 := manager.Register("c1")
		s2, cancel2 := manager.Register("c2")
		defer cancel1()
		defer cancel2()

		assert.True(t, manager.SendTo(s1, []byte("error")))
		assert.Equal(t, []byte("error"), receive(t, s1))
		assertNothing(t, s2)
	})

	t.Run("Full or cancelled subscriber is refused", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeGlobal, 1)

		sub, cancel := manager.Register("c1")
		assert.True(t, manager.SendTo(sub, []byte("one")))
		assert.False(t, manager.SendTo(sub, []byte("two")))
		assert.Equal(t, 0, manager.Count())

		cancel()
		assert.False(t, manager.SendTo(sub, []byte("three")))
	})
}

func TestSubscriptionManager_Concurrent(t *testing.T) {
	t.Run("Concurrent registrations and publications", func(t *testing.T) {
		numSubscribers := 10
		numPublications := 5
		manager := NewSubscriptionManager(ModeGlobal, numPublications)

		subs := make([]*Subscriber, numSubscribers)
		cancels := make([]func(), numSubscribers)

		var wg sync.WaitGroup
		for i := 0; i < numSubscribers; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				subs[idx], cancels[idx] = manager.Register(fmt.Sprintf("c%d", idx))
			}(i)
		}
		wg.Wait()

		for i := 0; i < numPublications; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				manager.Publish("post1", []byte(fmt.Sprintf("msg-%d", idx)))
			}(i)
		}
		wg.Wait()

		for i, sub := range subs {
			assert.Len(t, sub.C(), numPublications, "Subscriber %d did not receive all publications", i)
			cancels[i]()
		}
	})

	t.Run("Concurrent subscribes and cancels", func(t *testing.T) {
		manager := NewSubscriptionManager(ModeSubscribed, 1)

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				sub, cancel := manager.Register(fmt.Sprintf("c%d", idx))
				manager.Subscribe(sub, "post1")
				manager.Publish("post1", []byte("x"))
				cancel()
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 0, manager.Count())
		manager.mu.Lock()
		assert.Empty(t, manager.subs)
		manager.mu.Unlock()
	})
}
