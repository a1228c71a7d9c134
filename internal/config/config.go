// Package config loads and validates seeding configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Seed    SeedConfig    `mapstructure:"seed"`
	Grid    GridConfig    `mapstructure:"grid"`
	Source  SourceConfig  `mapstructure:"source"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Retry   RetryConfig   `mapstructure:"retry"`
	API     APIConfig     `mapstructure:"api"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SeedConfig governs traversal and worker pool behavior.
type SeedConfig struct {
	Concurrency            int `mapstructure:"concurrency"`
	QueueDepth             int `mapstructure:"queue_depth"`
	SkipGeomsForLastLevels int `mapstructure:"skip_geoms_for_last_levels"`
}

// GridConfig describes the tile grid the seeder walks.
type GridConfig struct {
	// Extent is [minx, miny, maxx, maxy] in grid coordinates.
	Extent []float64 `mapstructure:"extent"`
	Levels int       `mapstructure:"levels"`
	// MetaTile is [cols, rows] raw tiles per fetch unit.
	MetaTile []int `mapstructure:"metatile"`
}

// SourceConfig configures the upstream tile endpoint.
type SourceConfig struct {
	URLTemplate    string `mapstructure:"url_template"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CacheConfig selects and configures the tile store backend.
type CacheConfig struct {
	Backend  string              `mapstructure:"backend"`
	Local    LocalCacheConfig    `mapstructure:"local"`
	GCS      GCSCacheConfig      `mapstructure:"gcs"`
	Postgres PostgresCacheConfig `mapstructure:"postgres"`
}

// LocalCacheConfig sets the filesystem backend's directory.
type LocalCacheConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// GCSCacheConfig sets the Cloud Storage backend's bucket.
type GCSCacheConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// PostgresCacheConfig sets the Postgres backend's connection.
type PostgresCacheConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// RetryConfig bounds the fetch retry wrapper.
type RetryConfig struct {
	MaxAttempts int     `mapstructure:"max_attempts"`
	BaseDelayMs int     `mapstructure:"base_delay_ms"`
	MaxDelayMs  int     `mapstructure:"max_delay_ms"`
	Factor      float64 `mapstructure:"factor"`
}

// APIConfig controls the optional status listener.
type APIConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// PubSubConfig holds metadata for completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEEDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed.concurrency", 2)
	v.SetDefault("seed.queue_depth", 32)
	v.SetDefault("seed.skip_geoms_for_last_levels", 0)
	v.SetDefault("grid.extent", []float64{-180, -90, 180, 90})
	v.SetDefault("grid.levels", 20)
	v.SetDefault("grid.metatile", []int{1, 1})
	v.SetDefault("source.timeout_seconds", 30)
	v.SetDefault("source.user_agent", "mapproxy-seed/0.1")
	v.SetDefault("cache.backend", "local")
	v.SetDefault("cache.local.base_dir", "./tiles")
	v.SetDefault("cache.postgres.table", "tiles")
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.base_delay_ms", 250)
	v.SetDefault("retry.max_delay_ms", 30000)
	v.SetDefault("retry.factor", 2.0)
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Seed.Concurrency <= 0 {
		return fmt.Errorf("seed.concurrency must be > 0")
	}
	if c.Seed.QueueDepth <= 0 {
		return fmt.Errorf("seed.queue_depth must be > 0")
	}
	if c.Seed.SkipGeomsForLastLevels < 0 {
		return fmt.Errorf("seed.skip_geoms_for_last_levels must be >= 0")
	}
	if len(c.Grid.Extent) != 4 {
		return fmt.Errorf("grid.extent must have 4 values")
	}
	if c.Grid.Levels <= 0 {
		return fmt.Errorf("grid.levels must be > 0")
	}
	if len(c.Grid.MetaTile) != 2 {
		return fmt.Errorf("grid.metatile must have 2 values")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be > 0")
	}
	if c.Retry.Factor < 1 {
		return fmt.Errorf("retry.factor must be >= 1")
	}
	switch c.Cache.Backend {
	case "local":
		if c.Cache.Local.BaseDir == "" {
			return fmt.Errorf("cache.local.base_dir is required")
		}
	case "gcs":
		if c.Cache.GCS.Bucket == "" {
			return fmt.Errorf("cache.gcs.bucket is required")
		}
	case "postgres":
		if c.Cache.Postgres.DSN == "" {
			return fmt.Errorf("cache.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.API.Enabled && c.API.Port <= 0 {
		return fmt.Errorf("api.port must be > 0 when the api is enabled")
	}
	return nil
}

// SourceTimeout converts the configured timeout to a duration.
func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// RetryBaseDelay converts the configured base delay to a duration.
func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMs) * time.Millisecond
}

// RetryMaxDelay converts the configured delay cap to a duration.
func (c Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
}
