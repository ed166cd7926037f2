package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsweep/fsweep/pkg/testutil"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Engine.BatchSize)
	assert.Equal(t, 4, cfg.Engine.WorkerPoolSize)
	assert.Equal(t, 64, cfg.Engine.ConditionMaxDepth)
	assert.Equal(t, 1, cfg.Naming.CounterStart)
	assert.Equal(t, 3, cfg.Naming.CounterPadding)
	assert.Equal(t, 200, cfg.History.MaxEntries)
	assert.True(t, cfg.Watch.SkipIfRunning)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout())
	assert.Equal(t, 2*time.Second, cfg.Debounce())
	assert.Equal(t, 30*24*time.Hour, cfg.AutoCleanup())
}

func TestLoadFrom_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "fsweep.toml", `
[engine]
batch_size = 25

[watch]
skip_if_running = false
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Engine.BatchSize)
	assert.False(t, cfg.Watch.SkipIfRunning)
	// Untouched keys keep their defaults.
	assert.Equal(t, 4, cfg.Engine.WorkerPoolSize)
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/fsweep.toml")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Engine.BatchSize)
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "fsweep.toml", `
[history]
max_entries = 50
`)
	t.Setenv("FSWEEP_HISTORY__MAX_ENTRIES", "500")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.History.MaxEntries)
}

func TestLoadFrom_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "fsweep.toml", "not [valid toml")

	_, err := LoadFrom(path)
	assert.Error(t, err)
}
