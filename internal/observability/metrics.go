package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
// Every recording method is safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Engine metrics
	EventsTrackedTotal        *prometheus.CounterVec
	EventsClearedTotal        prometheus.Counter
	BufferSize                prometheus.Gauge
	SnapshotWritesTotal       *prometheus.CounterVec
	QueryDuration             *prometheus.HistogramVec
	NotificationsDroppedTotal *prometheus.CounterVec
	BehaviorCacheTotal        *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		EventsTrackedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_events_tracked_total",
				Help: "Total number of tracked events",
			},
			[]string{"type", "category"},
		),
		EventsClearedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pulse_events_cleared_total",
				Help: "Total number of events removed by age-based pruning",
			},
		),
		BufferSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulse_realtime_buffer_size",
				Help: "Current number of events in the realtime buffer",
			},
		),
		SnapshotWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_snapshot_writes_total",
				Help: "Total number of snapshot attempts",
			},
			[]string{"status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulse_query_duration_seconds",
				Help:    "Read operation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"operation"},
		),
		NotificationsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_notifications_dropped_total",
				Help: "Notifications dropped because a subscriber queue was full",
			},
			[]string{"kind"},
		),
		BehaviorCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_behavior_cache_total",
				Help: "User behavior cache lookups",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.EventsTrackedTotal,
		m.EventsClearedTotal,
		m.BufferSize,
		m.SnapshotWritesTotal,
		m.QueryDuration,
		m.NotificationsDroppedTotal,
		m.BehaviorCacheTotal,
	)

	return m
}

func (m *Metrics) EventTracked(eventType, category string) {
	if m == nil {
		return
	}
	m.EventsTrackedTotal.WithLabelValues(eventType, category).Inc()
}

func (m *Metrics) EventsCleared(n int) {
	if m == nil {
		return
	}
	m.EventsClearedTotal.Add(float64(n))
}

func (m *Metrics) SetBufferSize(n int) {
	if m == nil {
		return
	}
	m.BufferSize.Set(float64(n))
}

func (m *Metrics) SnapshotWritten(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.SnapshotWritesTotal.WithLabelValues(status).Inc()
}

// ObserveQuery records how long a read operation took since start.
func (m *Metrics) ObserveQuery(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// NotificationDropped implements notify.DropRecorder.
func (m *Metrics) NotificationDropped(kind string) {
	if m == nil {
		return
	}
	m.NotificationsDroppedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) BehaviorCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.BehaviorCacheTotal.WithLabelValues(result).Inc()
}

// GinMiddleware records request counts and latency per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RegisterRoutes exposes the registry on GET /metrics.
func (m *Metrics) RegisterRoutes(r gin.IRouter) {
	if m == nil {
		return
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})))
}
