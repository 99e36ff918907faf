package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	corecfg "github.com/fanzdash/pulse/internal/core/config"
	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/core/storage/memory"
	"github.com/fanzdash/pulse/internal/core/storage/postgres"
	"github.com/fanzdash/pulse/internal/engine"
	"github.com/fanzdash/pulse/internal/funnel"
	"github.com/fanzdash/pulse/internal/maintenance"
	"github.com/fanzdash/pulse/internal/migrations"
	"github.com/fanzdash/pulse/internal/notify"
	"github.com/fanzdash/pulse/internal/observability"
	"github.com/fanzdash/pulse/internal/realtime"
	"github.com/fanzdash/pulse/internal/schema"
	"github.com/fanzdash/pulse/internal/server"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "pulse.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Optional dotenv file loaded before the environment is read")
	flag.Parse()

	// 0. Initialize Logger (reconfigured once the config is known)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to load env file", "path", *envPath, "error", err)
		os.Exit(1)
	}

	// 1. Load Configuration
	if _, err := os.Stat(*configPath); errors.Is(err, fs.ErrNotExist) {
		slog.Info("Config file not found, using defaults and environment", "path", *configPath)
		*configPath = ""
	}
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))
	slog.Info("Loaded config",
		"storage", cfg.Storage.Backend,
		"snapshot_backend", cfg.Snapshot.Backend,
		"snapshots_enabled", cfg.Snapshot.Enabled,
		"load_source", cfg.Realtime.LoadSource,
		"timezone", cfg.Timezone,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := map[string]server.HealthChecker{}

	// 2. Initialize Metrics
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	// 3. Initialize Storage
	store, closeStore, err := openStore(cfg.Storage, health)
	if err != nil {
		slog.Error("Failed to initialize storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// 4. Vocabulary and saved funnels
	vocab := schema.DefaultVocabulary()
	if cfg.Vocabulary.Dir != "" {
		n, err := schema.LoadDir(vocab, cfg.Vocabulary.Dir)
		if err != nil {
			slog.Error("Failed to load vocabulary", "dir", cfg.Vocabulary.Dir, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded event kinds", "dir", cfg.Vocabulary.Dir, "count", n)
	}

	funnels, err := funnel.NewFileSystemDefinitionRepository(cfg.Funnels.ConfigDir)
	if err != nil {
		slog.Error("Failed to load funnel definitions", "dir", cfg.Funnels.ConfigDir, "error", err)
		os.Exit(1)
	}

	// 5. Snapshots, load source and notification fan-out
	snapshots, err := openSnapshotter(ctx, cfg.Snapshot)
	if err != nil {
		slog.Error("Failed to initialize snapshots", "backend", cfg.Snapshot.Backend, "error", err)
		os.Exit(1)
	}

	var load realtime.LoadSource
	if cfg.Realtime.LoadSource == "host" {
		load = realtime.NewHostLoad(cfg.Realtime.DiskPath, cfg.Realtime.NetworkCapacityBps())
	} else {
		load = realtime.NewSimulatedLoad(cfg.Realtime.Jitter, uint64(time.Now().UnixNano()))
	}

	observers := map[string]notify.Observer{}
	if cfg.Notify.Redis.URL != "" {
		redisObserver, err := notify.NewRedisStreamObserver(cfg.Notify.Redis.URL, cfg.Notify.Redis.Stream, cfg.Notify.Redis.MaxLen)
		if err != nil {
			slog.Error("Failed to initialize redis notifications", "error", err)
			os.Exit(1)
		}
		defer redisObserver.Close()
		if err := redisObserver.Ping(ctx); err != nil {
			slog.Warn("Redis unreachable at startup, notifications will be retried per event", "error", err)
		}
		observers["redis"] = redisObserver
		health["redis"] = redisObserver
	}

	// 6. Initialize Engine
	eng, err := engine.New(engine.Deps{
		Store:      store,
		Vocabulary: vocab,
		Funnels:    funnels,
		Snapshots:  snapshots,
		Load:       load,
		Metrics:    metrics,
		Observers:  observers,
	}, engine.Options{
		BufferCapacity:  cfg.Buffer.Capacity,
		MaxBodySizeMB:   cfg.Server.MaxBodySizeMB,
		QueryMaxRange:   cfg.Resolved.QueryMaxRange,
		CacheSize:       cfg.Scoring.CacheSize,
		CacheTTL:        cfg.Resolved.CacheTTL,
		RealtimeWindow:  cfg.Resolved.RealtimeWindow,
		NotifyQueueSize: cfg.Notify.QueueSize,
		RestoreOnStart:  cfg.Snapshot.RestoreOnStart && cfg.Storage.Backend == "memory",
		Location:        cfg.Resolved.Location,
		Maintenance: maintenance.SchedulerOptions{
			TrimInterval:      cfg.Resolved.TrimInterval,
			SnapshotInterval:  cfg.Resolved.SnapshotInterval,
			RetentionDays:     cfg.Resolved.RetentionDays,
			RetentionSchedule: cfg.Maintenance.RetentionSchedule,
		},
	})
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, health, metrics.GinMiddleware())
	eng.RegisterRoutes(srv.Engine)
	metrics.RegisterRoutes(srv.Engine)

	// Signal handler → triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// 8. Run engine and HTTP server until ctx is cancelled or one of them fails.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })

	if err := g.Wait(); err != nil {
		slog.Error("Stopped with error", "error", err)
		closeStore()
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

func newLogger(cfg corecfg.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openStore returns the canonical event store and its close function.
func openStore(cfg corecfg.StorageConfig, health map[string]server.HealthChecker) (storage.EventStore, func(), error) {
	if cfg.Backend != "postgres" {
		return memory.NewStore(), func() {}, nil
	}

	dbAdapter, err := postgres.NewAdapter(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.AutoMigrate); err != nil {
		dbAdapter.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := dbAdapter.Prepare(); err != nil {
		dbAdapter.Close()
		return nil, nil, fmt.Errorf("prepare statements: %w", err)
	}
	health["database"] = dbAdapter

	closed := false
	return dbAdapter, func() {
		if closed {
			return
		}
		closed = true
		if err := dbAdapter.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}, nil
}

// openSnapshotter returns nil when snapshots are disabled.
func openSnapshotter(ctx context.Context, cfg corecfg.SnapshotConfig) (maintenance.Snapshotter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Backend == "s3" {
		s3, err := maintenance.NewS3Snapshotter(ctx, maintenance.S3Options{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	return maintenance.NewFileSnapshotter(cfg.Dir), nil
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
