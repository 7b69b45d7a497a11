package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned when work is submitted after Close.
var ErrClosed = errors.New("gateway is closed")

// Dispatcher runs submitted work one item at a time per key, in submission
// order. Different keys run concurrently. A key's worker goroutine exits as
// soon as its queue is empty.
type Dispatcher struct {
	mu     sync.Mutex
	queues map[string][]func() // key -> pending work; present while a worker runs
	closed bool
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queues: make(map[string][]func()),
		logger: logger,
	}
}

// Enqueue appends fn to key's queue, starting a worker if none is running.
// Returns false if the dispatcher is closed.
func (d *Dispatcher) Enqueue(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	q, running := d.queues[key]
	d.queues[key] = append(q, fn)
	if !running {
		d.wg.Add(1)
		go d.run(key)
	}
	return true
}

// Exec runs fn on key's queue and waits for its result. If ctx ends first
// Exec returns ctx.Err(); fn still runs when its turn comes.
func (d *Dispatcher) Exec(ctx context.Context, key string, fn func(context.Context) error) error {
	done := make(chan error, 1)
	ok := d.Enqueue(key, func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("queued work panicked: %v", r)
			}
		}()
		done <- fn(ctx)
	})
	if !ok {
		return ErrClosed
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the number of keys with a running worker.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Close stops accepting work and waits for every queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run(key string) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		q := d.queues[key]
		if len(q) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		fn := q[0]
		q[0] = nil
		d.queues[key] = q[1:]
		d.mu.Unlock()

		d.safeRun(key, fn)
	}
}

func (d *Dispatcher) safeRun(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("queued work panicked", "post_id", key, "panic", r)
		}
	}()
	fn()
}
