// Package config defines service configuration and its layered loader.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Dataset store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches the logger to JSON output.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the analysis job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// StoreDriver selects the dataset store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// DatasetFile, when set, is imported on startup.
	DatasetFile string `koanf:"dataset_file"`

	// WatchDataset re-imports DatasetFile whenever it changes.
	WatchDataset bool `koanf:"watch_dataset"`

	// JobRetention is how long finished jobs stay queryable.
	JobRetention time.Duration `koanf:"job_retention"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		QueueSize:      1_000,
		WorkerCount:    runtime.NumCPU(),
		StoreDriver:    DriverMemory,
		SQLitePath:     "hirepulse.db",
		JobRetention:   time.Hour,
		MetricsEnabled: true,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.JobRetention <= 0:
		return fmt.Errorf("%w: job_retention must be positive, got %s", ErrInvalidConfig, c.JobRetention)
	case c.WatchDataset && c.DatasetFile == "":
		return fmt.Errorf("%w: watch_dataset requires dataset_file", ErrInvalidConfig)
	}

	switch strings.ToLower(c.StoreDriver) {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
