// Package paths provides centralized path handling for fsweep. It
// implements XDG Base Directory compliance and is the single place
// that knows where the history database, trash area, lock file, log
// file, and user configuration live.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for fsweep
	EnvDataDir = "FSWEEP_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for fsweep
	EnvConfigDir = "FSWEEP_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for fsweep
	EnvStateDir = "FSWEEP_STATE_DIR"
)

// appDirName is the directory name used under each XDG base directory.
// It is part of fsweep's internal layout and not user-configurable.
const appDirName = "fsweep"

// DataDir returns the directory holding fsweep's durable state: the
// history database and the trash area.
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, appDirName)
}

// ConfigDir returns the directory searched for fsweep.toml.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, appDirName)
}

// StateDir returns the directory holding logs and the advisory lock.
func StateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.StateHome, appDirName)
}

// HistoryDB returns the path of the history ledger's sqlite database.
func HistoryDB() string {
	return filepath.Join(DataDir(), "history.db")
}

// TrashDir returns the directory deleted items are moved into.
func TrashDir() string {
	return filepath.Join(DataDir(), "trash")
}

// LockFile returns the advisory lock path serializing execute, undo
// and redo.
func LockFile() string {
	return filepath.Join(StateDir(), "fsweep.lock")
}

// LogFile returns the log file path.
func LogFile() string {
	return filepath.Join(StateDir(), "fsweep.log")
}

// ConfigFile returns the user configuration file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "fsweep.toml")
}

// ExpandHome expands a leading ~ to the user's home directory. Paths
// without a ~ prefix are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		return "", fmt.Errorf("cannot expand ~ in %q: home directory is unknown", path)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
