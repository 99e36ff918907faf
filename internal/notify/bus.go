package notify

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultQueueSize is the per-subscriber queue length for asynchronous observers.
const DefaultQueueSize = 256

// DropRecorder counts notifications dropped because a subscriber queue was full.
type DropRecorder interface {
	NotificationDropped(kind string)
}

// Bus fans notifications out to subscribers.
//
// Synchronous observers run on the publishing goroutine, in subscription order.
// Asynchronous observers and channels each own a bounded queue; a full queue
// drops the notification instead of blocking the publisher.
type Bus struct {
	mu       sync.RWMutex
	closed   bool
	sync     []Observer
	queues   []*queue
	wg       sync.WaitGroup
	recorder DropRecorder
}

type queue struct {
	name string
	ch   chan Notification
}

// NewBus creates a bus. recorder may be nil.
func NewBus(recorder DropRecorder) *Bus {
	return &Bus{recorder: recorder}
}

// Subscribe registers an observer that is called synchronously on Publish.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.sync = append(b.sync, o)
}

// SubscribeAsync registers an observer served by its own goroutine and queue.
func (b *Bus) SubscribeAsync(name string, o Observer, size int) {
	q := b.addQueue(name, size)
	if q == nil {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for n := range q.ch {
			o.Notify(context.Background(), n)
		}
	}()
}

// Channel returns a receive-only stream of notifications.
// The channel is closed by Close.
func (b *Bus) Channel(name string, size int) <-chan Notification {
	q := b.addQueue(name, size)
	if q == nil {
		ch := make(chan Notification)
		close(ch)
		return ch
	}
	return q.ch
}

func (b *Bus) addQueue(name string, size int) *queue {
	if size <= 0 {
		size = DefaultQueueSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	q := &queue{name: name, ch: make(chan Notification, size)}
	b.queues = append(b.queues, q)
	return q
}

// Publish delivers n to every subscriber. It never blocks on a slow
// asynchronous subscriber. Publishing after Close is a no-op.
func (b *Bus) Publish(ctx context.Context, n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, o := range b.sync {
		o.Notify(ctx, n)
	}

	for _, q := range b.queues {
		select {
		case q.ch <- n:
		default:
			slog.Warn("[Notify] Subscriber queue full, dropping notification",
				"subscriber", q.name,
				"kind", n.Kind)
			if b.recorder != nil {
				b.recorder.NotificationDropped(string(n.Kind))
			}
		}
	}
}

// Close stops accepting notifications, closes every queue, and waits for
// asynchronous observers to drain what was already queued.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, q := range b.queues {
		close(q.ch)
	}
	b.mu.Unlock()

	b.wg.Wait()
}
