package realtime

import (
	"context"
	"log/slog"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/notify"
	"github.com/shopspring/decimal"
)

const (
	// DefaultWindow is how far back realtime metrics look.
	DefaultWindow = 60 * time.Second

	topEvents = 5
)

// Metrics is a snapshot of the realtime window.
type Metrics struct {
	ActiveUsers         int                  `json:"activeUsers"`
	EventsPerMinute     int                  `json:"eventsPerMinute"`
	TopEvents           []aggregation.Ranked `json:"topEvents"`
	ErrorRate           float64              `json:"errorRate"`
	AverageResponseTime float64              `json:"averageResponseTime"`
	SystemLoad          SystemLoad           `json:"systemLoad"`
	Timestamp           time.Time            `json:"timestamp"`
}

// Service computes realtime metrics from the rolling buffer only.
type Service struct {
	buffer    *storage.RollingBuffer
	load      LoadSource
	publisher notify.Publisher
	window    time.Duration
	nowFn     func() time.Time
}

// NewService creates a realtime service. A nil load source falls back to
// SimulatedLoad; a non-positive window uses DefaultWindow.
func NewService(buffer *storage.RollingBuffer, load LoadSource, publisher notify.Publisher, window time.Duration) *Service {
	if buffer == nil {
		panic("realtime: rolling buffer is required")
	}
	if load == nil {
		load = NewSimulatedLoad(DefaultJitter, 0)
	}
	if publisher == nil {
		publisher = notify.Discard
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{
		buffer:    buffer,
		load:      load,
		publisher: publisher,
		window:    window,
		nowFn:     time.Now,
	}
}

// GetRealtimeMetrics summarizes buffered events no older than the window.
// A failing load source leaves SystemLoad zeroed.
func (s *Service) GetRealtimeMetrics(ctx context.Context) *Metrics {
	now := s.nowFn()
	events := s.buffer.Since(now.Add(-s.window))

	m := summarize(events)
	m.Timestamp = now

	load, err := s.load.Load(ctx)
	if err != nil {
		slog.Warn("[Realtime] Load source failed", "error", err)
	}
	m.SystemLoad = load

	s.publisher.Publish(ctx, notify.Notification{
		Kind:   notify.KindRealtimeProcessed,
		At:     now,
		Count:  len(events),
		Detail: *m,
	})
	return m
}

func summarize(events []*v1.AnalyticsEvent) *Metrics {
	types := aggregation.NewCounter()
	users := make(map[string]struct{})
	var responseTimes []decimal.Decimal
	errCount := 0

	for _, evt := range events {
		types.Add(evt.Type)
		if evt.UserID != "" {
			users[evt.UserID] = struct{}{}
		}
		switch evt.Type {
		case v1.TypeError:
			errCount++
		case v1.TypeAPICall:
			if rt, ok := aggregation.ExtractDecimal(evt.Properties, "responseTime"); ok {
				responseTimes = append(responseTimes, rt)
			}
		}
	}

	return &Metrics{
		ActiveUsers:         len(users),
		EventsPerMinute:     len(events),
		TopEvents:           types.Top(topEvents),
		ErrorRate:           aggregation.Percent(errCount, len(events)),
		AverageResponseTime: aggregation.Mean(responseTimes),
	}
}
