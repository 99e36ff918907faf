package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/funnel"
	"github.com/fanzdash/pulse/internal/ingestion"
	"github.com/fanzdash/pulse/internal/maintenance"
	"github.com/fanzdash/pulse/internal/notify"
	"github.com/fanzdash/pulse/internal/observability"
	"github.com/fanzdash/pulse/internal/projection"
	"github.com/fanzdash/pulse/internal/realtime"
	"github.com/fanzdash/pulse/internal/schema"
	"github.com/fanzdash/pulse/internal/scoring"
	"github.com/gin-gonic/gin"
)

const (
	DefaultBufferCapacity = 1000
	DefaultQueryMaxRange  = 90 * 24 * time.Hour

	stopTimeout = 30 * time.Second
)

// Deps are the pluggable collaborators of the engine. Only Store is required.
type Deps struct {
	Store storage.EventStore

	// Vocabulary defaults to schema.DefaultVocabulary.
	Vocabulary *schema.Vocabulary

	// Funnels holds saved funnel definitions; nil means none.
	Funnels funnel.DefinitionRepository

	// Snapshots is nil when persistence is off.
	Snapshots maintenance.Snapshotter

	// Load defaults to the simulated generator.
	Load realtime.LoadSource

	Metrics *observability.Metrics

	// Observers receive every notification on their own queue.
	Observers map[string]notify.Observer
}

// Options are the tunables of the engine. Zero values pick the defaults.
type Options struct {
	BufferCapacity  int
	MaxBodySizeMB   int
	QueryMaxRange   time.Duration
	CacheSize       int
	CacheTTL        time.Duration
	RealtimeWindow  time.Duration
	NotifyQueueSize int
	RestoreOnStart  bool
	Location        *time.Location
	Maintenance     maintenance.SchedulerOptions
}

// Stats summarizes the engine state.
type Stats struct {
	TotalEvents    int  `json:"totalEvents"`
	UniqueUsers    int  `json:"uniqueUsers"`
	TotalSessions  int  `json:"totalSessions"`
	BufferSize     int  `json:"bufferSize"`
	StorageEnabled bool `json:"storageEnabled"`
}

// Engine is the composition root. Construct one with New and pass it to
// whatever needs analytics; there is no package-level instance.
type Engine struct {
	store    storage.EventStore
	buffer   *storage.RollingBuffer
	sessions *storage.SessionIndex
	bus      *notify.Bus
	opts     Options

	ingestion   *ingestion.Service
	projection  *projection.Service
	scoring     *scoring.Service
	funnels     *funnel.Service
	realtime    *realtime.Service
	maintenance *maintenance.Service
	scheduler   *maintenance.Scheduler
}

// New wires every component around deps.Store.
func New(deps Deps, opts Options) (*Engine, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("engine: event store is required")
	}
	if deps.Vocabulary == nil {
		deps.Vocabulary = schema.DefaultVocabulary()
	}
	if opts.BufferCapacity <= 0 {
		opts.BufferCapacity = DefaultBufferCapacity
	}
	if opts.QueryMaxRange <= 0 {
		opts.QueryMaxRange = DefaultQueryMaxRange
	}
	if opts.NotifyQueueSize <= 0 {
		opts.NotifyQueueSize = notify.DefaultQueueSize
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Maintenance.Location == nil {
		opts.Maintenance.Location = opts.Location
	}

	e := &Engine{
		store:    deps.Store,
		buffer:   storage.NewRollingBuffer(opts.BufferCapacity),
		sessions: storage.NewSessionIndex(),
		bus:      notify.NewBus(deps.Metrics),
		opts:     opts,
	}

	e.scoring = scoring.NewService(e.store, deps.Metrics, opts.CacheSize, opts.CacheTTL)
	e.bus.Subscribe(e.scoring)
	for name, o := range deps.Observers {
		e.bus.SubscribeAsync(name, o, opts.NotifyQueueSize)
	}

	e.ingestion = ingestion.NewService(e.store, e.buffer, e.sessions, deps.Vocabulary, e.bus, deps.Metrics, opts.MaxBodySizeMB)
	e.projection = projection.NewService(e.store, deps.Metrics, opts.QueryMaxRange, opts.Location)
	e.funnels = funnel.NewService(e.store, deps.Funnels, deps.Metrics)
	e.realtime = realtime.NewService(e.buffer, deps.Load, e.bus, opts.RealtimeWindow)
	e.maintenance = maintenance.NewService(e.store, e.buffer, e.sessions, deps.Snapshots, e.bus, deps.Metrics, opts.Location)

	scheduler, err := maintenance.NewScheduler(e.maintenance, opts.Maintenance)
	if err != nil {
		e.bus.Close()
		return nil, fmt.Errorf("maintenance scheduler: %w", err)
	}
	e.scheduler = scheduler

	return e, nil
}

// Start restores today's snapshot when configured and starts the maintenance duties.
func (e *Engine) Start(ctx context.Context) error {
	e.maintenance.PrepareSnapshots(ctx)
	if e.opts.RestoreOnStart {
		n, err := e.maintenance.Restore(ctx)
		if err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		if n > 0 {
			slog.Info("[Engine] Restored events from snapshot", "events", n)
		}
	}
	e.scheduler.Start()
	return nil
}

// Stop halts the maintenance duties, writes a final snapshot and drains the
// notification queues.
func (e *Engine) Stop(ctx context.Context) error {
	err := e.scheduler.Stop(ctx)
	e.bus.Close()
	return err
}

// Run starts the engine and blocks until ctx is cancelled, then stops it.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("Starting analytics engine...")
	if err := e.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	slog.Info("Stopping analytics engine...")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return e.Stop(stopCtx)
}

// Stats reports collection sizes and whether snapshots are still written.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	counts, err := e.store.Counts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count events: %w", err)
	}
	return Stats{
		TotalEvents:    counts.Events,
		UniqueUsers:    counts.Users,
		TotalSessions:  e.sessions.Total(),
		BufferSize:     e.buffer.Len(),
		StorageEnabled: e.maintenance.StorageEnabled(),
	}, nil
}

// Ingestion exposes the typed tracking wrappers.
func (e *Engine) Ingestion() *ingestion.Service { return e.ingestion }

// Subscribe adds a synchronous observer of engine notifications.
func (e *Engine) Subscribe(o notify.Observer) { e.bus.Subscribe(o) }

func (e *Engine) Track(ctx context.Context, eventType, category string, props map[string]interface{}, opts ingestion.TrackOptions) (string, error) {
	return e.ingestion.Track(ctx, eventType, category, props, opts)
}

func (e *Engine) Query(ctx context.Context, q projection.EventQuery) (*projection.QueryResult, error) {
	return e.projection.Query(ctx, q)
}

func (e *Engine) ExportEvents(ctx context.Context, start, end time.Time) ([]*v1.AnalyticsEvent, error) {
	return e.projection.ExportEvents(ctx, start, end)
}

func (e *Engine) GetUserBehavior(ctx context.Context, userID string) (*scoring.UserBehavior, error) {
	return e.scoring.GetUserBehavior(ctx, userID)
}

func (e *Engine) CreateConversionFunnel(ctx context.Context, name string, steps []funnel.Step) (*funnel.ConversionFunnel, error) {
	return e.funnels.CreateConversionFunnel(ctx, name, steps)
}

func (e *Engine) GetRealtimeMetrics(ctx context.Context) *realtime.Metrics {
	return e.realtime.GetRealtimeMetrics(ctx)
}

func (e *Engine) ClearOldEvents(ctx context.Context, daysOld int) (int, error) {
	return e.maintenance.ClearOldEvents(ctx, daysOld)
}

// RegisterRoutes registers every component's routes plus GET /v1/stats.
func (e *Engine) RegisterRoutes(r gin.IRouter) {
	e.ingestion.RegisterRoutes(r)
	e.projection.RegisterRoutes(r)
	e.scoring.RegisterRoutes(r)
	e.funnels.RegisterRoutes(r)
	e.realtime.RegisterRoutes(r)
	e.maintenance.RegisterRoutes(r)
	r.GET("/v1/stats", e.HandleStats)
}
