// Package testutil provides filesystem fixtures shared by tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsweep/fsweep/pkg/types"
)

// CreateFile creates a file with the given content under dir, creating
// parent directories as needed. It fails the test on error.
func CreateFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent directories for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file %s: %v", path, err)
	}
	return path
}

// CreateDir creates a directory under parent. It fails the test on
// error.
func CreateDir(t *testing.T, parent, name string) string {
	t.Helper()

	path := filepath.Join(parent, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", path, err)
	}
	return path
}

// FileExists reports whether path exists and is a regular file.
func FileExists(t *testing.T, path string) bool {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists reports whether path exists and is a directory.
func DirExists(t *testing.T, path string) bool {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ReadFile reads a file's content, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(data)
}

// Item builds a FileItem for a real path created by the fixtures
// above, failing the test if the path cannot be stat'd.
func Item(t *testing.T, root, path string) *types.FileItem {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat %s: %v", path, err)
	}
	return types.NewFileItemFromPath(
		filepath.Base(path), path, root,
		info.Size(), info.IsDir(), info.ModTime(), info.ModTime())
}

// TouchTime sets a path's modification time, failing the test on
// error. Useful for date classification fixtures.
func TouchTime(t *testing.T, path string, at time.Time) {
	t.Helper()

	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatalf("Failed to set times on %s: %v", path, err)
	}
}
