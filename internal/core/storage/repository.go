package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

// ErrDuplicate is returned when an event with the same id already exists.
var ErrDuplicate = errors.New("event already exists")

// Counts summarizes the canonical collection.
type Counts struct {
	Events int `json:"events"`
	Users  int `json:"users"`
}

// EventStore is the canonical event collection.
// Every retrieval returns events in ingestion order.
type EventStore interface {
	SaveEvent(ctx context.Context, event *v1.AnalyticsEvent) error

	// RetrieveRange returns events with start <= timestamp <= end.
	RetrieveRange(ctx context.Context, start, end time.Time) ([]*v1.AnalyticsEvent, error)

	// RetrieveByUser returns every event recorded for userID.
	RetrieveByUser(ctx context.Context, userID string) ([]*v1.AnalyticsEvent, error)

	RetrieveAll(ctx context.Context) ([]*v1.AnalyticsEvent, error)

	// DeleteBefore removes events with timestamp strictly before cutoff and
	// returns how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)

	Counts(ctx context.Context) (Counts, error)
}
