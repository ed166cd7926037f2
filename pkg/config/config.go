// Package config loads engine settings by merging built-in defaults,
// the user configuration file, and FSWEEP_* environment variables, in
// that order.
package config

import (
	_ "embed"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/paths"
)

//go:embed defaults.toml
var defaultConfig []byte

// Engine holds batching and evaluation settings.
type Engine struct {
	BatchSize         int `koanf:"batch_size"`
	WorkerPoolSize    int `koanf:"worker_pool_size"`
	ConditionMaxDepth int `koanf:"condition_max_depth"`
}

// Naming holds counter defaults applied when a pattern leaves them
// unset.
type Naming struct {
	CounterStart   int `koanf:"counter_start"`
	CounterPadding int `koanf:"counter_padding"`
}

// History holds ledger retention and locking settings.
type History struct {
	MaxEntries            int   `koanf:"max_entries"`
	AutoCleanupDays       int   `koanf:"auto_cleanup_days"`
	LockTimeoutMs         int64 `koanf:"lock_timeout_ms"`
	LockStaleAfterMs      int64 `koanf:"lock_stale_after_ms"`
	LockMonitorIntervalMs int64 `koanf:"lock_monitor_interval_ms"`
}

// Watch holds file-watch trigger settings.
type Watch struct {
	DebounceMs    int64 `koanf:"debounce_ms"`
	SkipIfRunning bool  `koanf:"skip_if_running"`
}

// Config is the merged engine configuration.
type Config struct {
	Engine  Engine  `koanf:"engine"`
	Naming  Naming  `koanf:"naming"`
	History History `koanf:"history"`
	Watch   Watch   `koanf:"watch"`
}

// LockTimeout returns the lock acquisition timeout as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.History.LockTimeoutMs) * time.Millisecond
}

// LockStaleAfter returns the abandoned-lock staleness threshold.
func (c *Config) LockStaleAfter() time.Duration {
	return time.Duration(c.History.LockStaleAfterMs) * time.Millisecond
}

// LockMonitorInterval returns how often the stale-lock monitor runs.
func (c *Config) LockMonitorInterval() time.Duration {
	return time.Duration(c.History.LockMonitorIntervalMs) * time.Millisecond
}

// AutoCleanup returns the history age bound as a duration. Zero
// disables age-based cleanup.
func (c *Config) AutoCleanup() time.Duration {
	return time.Duration(c.History.AutoCleanupDays) * 24 * time.Hour
}

// Debounce returns the watch trigger quiet period.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// Load merges defaults, the user config file (if present), and
// environment overrides into a Config.
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom merges defaults, the given file (if present), and
// environment overrides into a Config.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load built-in defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path)
			}
		}
	}

	// FSWEEP_HISTORY__MAX_ENTRIES=500 -> history.max_entries
	if err := k.Load(env.Provider("FSWEEP_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "FSWEEP_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal config")
	}
	return &cfg, nil
}
