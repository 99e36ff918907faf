package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/notify"
	"github.com/fanzdash/pulse/internal/observability"
	"github.com/fanzdash/pulse/internal/schema"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrInvalidEvent is returned when an event is missing its type or category,
// or a typed wrapper is missing a required property.
var ErrInvalidEvent = errors.New("invalid event")

// TrackOptions carries the optional identity and metadata of an event.
// Empty metadata fields are defaulted.
type TrackOptions struct {
	UserID    string
	SessionID string
	IP        string
	UserAgent string
	Referrer  string
	Platform  string
	Device    string

	// Properties are merged into the event properties. Wrapper arguments win
	// on key collisions.
	Properties map[string]interface{}
}

type Service struct {
	store            storage.EventStore
	buffer           *storage.RollingBuffer
	sessions         *storage.SessionIndex
	vocab            *schema.Vocabulary
	publisher        notify.Publisher
	metrics          *observability.Metrics
	maxBodySizeBytes int

	nowFn func() time.Time
	newID func() string
}

// NewService wires the ingestion path. publisher and metrics may be nil.
func NewService(
	store storage.EventStore,
	buffer *storage.RollingBuffer,
	sessions *storage.SessionIndex,
	vocab *schema.Vocabulary,
	publisher notify.Publisher,
	metrics *observability.Metrics,
	maxBodySizeMB int,
) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if buffer == nil {
		panic("ingestion: buffer must not be nil")
	}
	if sessions == nil {
		panic("ingestion: session index must not be nil")
	}
	if vocab == nil {
		panic("ingestion: vocabulary must not be nil")
	}
	if publisher == nil {
		publisher = notify.Discard
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		buffer:           buffer,
		sessions:         sessions,
		vocab:            vocab,
		publisher:        publisher,
		metrics:          metrics,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn:            time.Now,
		newID:            uuid.NewString,
	}
}

// RegisterRoutes registers the ingestion routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/events", s.TrackHandler)
	r.POST("/v1/events/:kind", s.TrackKindHandler)
}

// Track records an event and returns its id.
// Only an empty type or category, or a failing non-memory store, produce an error.
func (s *Service) Track(ctx context.Context, eventType, category string, props map[string]interface{}, opts TrackOptions) (string, error) {
	if eventType == "" {
		return "", fmt.Errorf("%w: type is required", ErrInvalidEvent)
	}
	if category == "" {
		return "", fmt.Errorf("%w: category is required", ErrInvalidEvent)
	}

	evt := &v1.AnalyticsEvent{
		ID:         s.newID(),
		Type:       eventType,
		Category:   category,
		UserID:     opts.UserID,
		SessionID:  opts.SessionID,
		Timestamp:  s.nowFn().Truncate(time.Microsecond),
		Properties: mergeProperties(opts.Properties, props),
		Metadata: v1.EventMetadata{
			IP:        defaultString(opts.IP, v1.DefaultIP),
			UserAgent: defaultString(opts.UserAgent, v1.DefaultUserAgent),
			Referrer:  opts.Referrer,
			Platform:  defaultString(opts.Platform, v1.DefaultPlatform),
			Device:    defaultString(opts.Device, v1.DefaultDevice),
		},
	}

	if err := s.store.SaveEvent(ctx, evt); err != nil {
		slog.Error("Failed to persist event", "error", err, "event_id", evt.ID, "type", evt.Type)
		return "", fmt.Errorf("failed to persist event: %w", err)
	}

	s.buffer.Append(evt)
	s.sessions.Register(evt.UserID, evt.SessionID)

	s.metrics.EventTracked(evt.Type, evt.Category)
	s.metrics.SetBufferSize(s.buffer.Len())

	s.publisher.Publish(ctx, notify.Notification{
		Kind:  notify.KindEventTracked,
		At:    evt.Timestamp,
		Event: evt,
	})

	slog.Debug("Tracked event",
		"event_id", evt.ID,
		"type", evt.Type,
		"category", evt.Category,
		"user_id", evt.UserID)

	return evt.ID, nil
}

// trackKnown validates props against the vocabulary entry for eventType and
// tracks it under the registered category.
func (s *Service) trackKnown(ctx context.Context, eventType string, props map[string]interface{}, opts TrackOptions) (string, error) {
	kind, ok := s.vocab.Lookup(eventType)
	if !ok {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, eventType)
	}
	if err := s.vocab.Check(eventType, kind.Category, props); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return s.Track(ctx, eventType, kind.Category, props, opts)
}

func mergeProperties(extra, props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(extra)+len(props))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range props {
		out[k] = v
	}
	return out
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
