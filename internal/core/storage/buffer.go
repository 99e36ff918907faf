package storage

import (
	"sync"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

// DefaultBufferCapacity is the number of newest events kept for realtime reads.
const DefaultBufferCapacity = 1000

// RollingBuffer holds the most recently ingested events.
// It is a disposable view; the canonical record lives in the EventStore.
//
// Append only trims once the buffer reaches twice its capacity, so the
// periodic Trim does most of the work off the ingestion path.
type RollingBuffer struct {
	mu       sync.RWMutex
	capacity int
	events   []*v1.AnalyticsEvent
}

func NewRollingBuffer(capacity int) *RollingBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &RollingBuffer{
		capacity: capacity,
		events:   make([]*v1.AnalyticsEvent, 0, capacity),
	}
}

func (b *RollingBuffer) Append(event *v1.AnalyticsEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) >= 2*b.capacity {
		b.trimLocked()
	}
}

// Trim drops everything but the newest capacity entries and returns the number dropped.
func (b *RollingBuffer) Trim() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trimLocked()
}

func (b *RollingBuffer) trimLocked() int {
	excess := len(b.events) - b.capacity
	if excess <= 0 {
		return 0
	}
	kept := make([]*v1.AnalyticsEvent, b.capacity, 2*b.capacity)
	copy(kept, b.events[excess:])
	b.events = kept
	return excess
}

// Since returns buffered events with timestamp at or after cutoff, oldest first.
func (b *RollingBuffer) Since(cutoff time.Time) []*v1.AnalyticsEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*v1.AnalyticsEvent, 0)
	for _, e := range b.events {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func (b *RollingBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

func (b *RollingBuffer) Capacity() int {
	return b.capacity
}
