package notify

import (
	"context"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

// Kind names a lifecycle notification emitted by the engine.
type Kind string

const (
	KindEventTracked      Kind = "event_tracked"
	KindRealtimeProcessed Kind = "realtime_processed"
	KindEventsPersisted   Kind = "events_persisted"
	KindOldEventsCleared  Kind = "old_events_cleared"
)

// Notification is a single lifecycle signal.
// Event is set for event_tracked; Count for events_persisted and old_events_cleared.
type Notification struct {
	Kind   Kind               `json:"kind"`
	At     time.Time          `json:"at"`
	Event  *v1.AnalyticsEvent `json:"event,omitempty"`
	Count  int                `json:"count,omitempty"`
	Detail interface{}        `json:"detail,omitempty"`
}

// Observer receives notifications.
type Observer interface {
	Notify(ctx context.Context, n Notification)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, n Notification)

func (f ObserverFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Publisher is what producers depend on.
type Publisher interface {
	Publish(ctx context.Context, n Notification)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Notification) {}
