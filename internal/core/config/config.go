package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	coreagg "github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config plus resolved durations.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Log         LogConfig         `koanf:"log"`
	Storage     StorageConfig     `koanf:"storage"`
	Buffer      BufferConfig      `koanf:"buffer"`
	Snapshot    SnapshotConfig    `koanf:"snapshot"`
	Realtime    RealtimeConfig    `koanf:"realtime"`
	Query       QueryConfig       `koanf:"query"`
	Scoring     ScoringConfig     `koanf:"scoring"`
	Funnels     FunnelsConfig     `koanf:"funnels"`
	Vocabulary  VocabularyConfig  `koanf:"vocabulary"`
	Notify      NotifyConfig      `koanf:"notify"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
	Timezone    string            `koanf:"timezone"`

	// Resolved is populated by Validate.
	Resolved Resolved `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // text | json
}

type StorageConfig struct {
	Backend      string `koanf:"backend"` // memory | postgres
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type BufferConfig struct {
	Capacity int `koanf:"capacity"`
}

type SnapshotConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Backend        string   `koanf:"backend"` // file | s3
	Dir            string   `koanf:"dir"`
	RestoreOnStart bool     `koanf:"restore_on_start"`
	S3             S3Config `koanf:"s3"`
}

type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Prefix          string `koanf:"prefix"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

type RealtimeConfig struct {
	Window              string  `koanf:"window"`
	LoadSource          string  `koanf:"load_source"` // simulated | host
	Jitter              float64 `koanf:"jitter"`
	DiskPath            string  `koanf:"disk_path"`
	NetworkCapacityMbps float64 `koanf:"network_capacity_mbps"`
}

type QueryConfig struct {
	MaxRange string `koanf:"max_range"`
}

type ScoringConfig struct {
	CacheSize int    `koanf:"cache_size"`
	CacheTTL  string `koanf:"cache_ttl"`
}

type FunnelsConfig struct {
	ConfigDir string `koanf:"config_dir"`
}

type VocabularyConfig struct {
	Dir string `koanf:"dir"`
}

type NotifyConfig struct {
	QueueSize int         `koanf:"queue_size"`
	Redis     RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	URL    string `koanf:"url"`
	Stream string `koanf:"stream"`
	MaxLen int64  `koanf:"max_len"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type MaintenanceConfig struct {
	TrimInterval      string `koanf:"trim_interval"`
	SnapshotInterval  string `koanf:"snapshot_interval"`
	Retention         string `koanf:"retention"` // empty disables
	RetentionSchedule string `koanf:"retention_schedule"`
}

// Resolved holds the parsed forms of the string-typed settings.
type Resolved struct {
	Location         *time.Location
	RealtimeWindow   time.Duration
	QueryMaxRange    time.Duration
	CacheTTL         time.Duration
	TrimInterval     time.Duration
	SnapshotInterval time.Duration
	RetentionDays    int
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q (must be text or json)", c.Log.Format)
	}

	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage.dsn is required for the postgres backend")
		}
		if c.Storage.MaxOpenConns <= 0 {
			return fmt.Errorf("storage.max_open_conns must be > 0")
		}
		if c.Storage.MaxIdleConns <= 0 {
			return fmt.Errorf("storage.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported storage.backend %q", c.Storage.Backend)
	}

	if c.Buffer.Capacity <= 0 {
		return fmt.Errorf("buffer.capacity must be > 0")
	}

	if c.Snapshot.Enabled {
		switch c.Snapshot.Backend {
		case "file":
			if strings.TrimSpace(c.Snapshot.Dir) == "" {
				return fmt.Errorf("snapshot.dir is required for the file backend")
			}
		case "s3":
			if strings.TrimSpace(c.Snapshot.S3.Bucket) == "" {
				return fmt.Errorf("snapshot.s3.bucket is required for the s3 backend")
			}
		default:
			return fmt.Errorf("unsupported snapshot.backend %q", c.Snapshot.Backend)
		}
	}

	if c.Realtime.LoadSource != "simulated" && c.Realtime.LoadSource != "host" {
		return fmt.Errorf("invalid realtime.load_source %q (must be simulated or host)", c.Realtime.LoadSource)
	}
	if c.Realtime.Jitter < 0 {
		return fmt.Errorf("realtime.jitter must be >= 0")
	}
	if c.Realtime.NetworkCapacityMbps <= 0 {
		return fmt.Errorf("realtime.network_capacity_mbps must be > 0")
	}

	if c.Scoring.CacheSize < 0 {
		return fmt.Errorf("scoring.cache_size must be >= 0")
	}
	if c.Notify.QueueSize <= 0 {
		return fmt.Errorf("notify.queue_size must be > 0")
	}
	if c.Notify.Redis.URL != "" && strings.TrimSpace(c.Notify.Redis.Stream) == "" {
		return fmt.Errorf("notify.redis.stream is required when notify.redis.url is set")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	r := Resolved{Location: loc}
	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"realtime.window", c.Realtime.Window, &r.RealtimeWindow},
		{"query.max_range", c.Query.MaxRange, &r.QueryMaxRange},
		{"scoring.cache_ttl", c.Scoring.CacheTTL, &r.CacheTTL},
		{"maintenance.trim_interval", c.Maintenance.TrimInterval, &r.TrimInterval},
		{"maintenance.snapshot_interval", c.Maintenance.SnapshotInterval, &r.SnapshotInterval},
	}
	for _, d := range durations {
		parsed, err := coreagg.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if c.Maintenance.Retention != "" {
		retention, err := coreagg.ParseDuration(c.Maintenance.Retention)
		if err != nil {
			return fmt.Errorf("invalid maintenance.retention: %w", err)
		}
		if retention < 24*time.Hour {
			return fmt.Errorf("maintenance.retention must be at least 1d, got %q", c.Maintenance.Retention)
		}
		r.RetentionDays = int(retention / (24 * time.Hour))
	}

	c.Resolved = r
	return nil
}

// NetworkCapacityBps converts the configured link capacity to bytes per second.
func (c RealtimeConfig) NetworkCapacityBps() float64 {
	return c.NetworkCapacityMbps * 1e6 / 8
}

// Load parses config from defaults, an optional file and the environment, then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                    8080,
		"server.host":                    "0.0.0.0",
		"server.max_body_size_mb":        1,
		"server.mode":                    "release",
		"log.level":                      "info",
		"log.format":                     "text",
		"storage.backend":                "memory",
		"storage.dsn":                    "",
		"storage.max_open_conns":         25,
		"storage.max_idle_conns":         25,
		"storage.auto_migrate":           true,
		"buffer.capacity":                1000,
		"snapshot.enabled":               true,
		"snapshot.backend":               "file",
		"snapshot.dir":                   "analytics",
		"snapshot.restore_on_start":      false,
		"snapshot.s3.prefix":             "analytics",
		"realtime.window":                "60s",
		"realtime.load_source":           "simulated",
		"realtime.jitter":                10.0,
		"realtime.disk_path":             "/",
		"realtime.network_capacity_mbps": 1000.0,
		"query.max_range":                "90d",
		"scoring.cache_size":             1024,
		"scoring.cache_ttl":              "5m",
		"funnels.config_dir":             "./config/funnels",
		"vocabulary.dir":                 "",
		"notify.queue_size":              256,
		"notify.redis.url":               "",
		"notify.redis.stream":            "pulse:notifications",
		"notify.redis.max_len":           10000,
		"metrics.enabled":                true,
		"maintenance.trim_interval":      "10s",
		"maintenance.snapshot_interval":  "60s",
		"maintenance.retention":          "",
		"maintenance.retention_schedule": "@daily",
		"timezone":                       "UTC",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("PULSE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PULSE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
