package history

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/logging"
)

const lockRetryInterval = 100 * time.Millisecond

// Lock serializes mutating operations (execute, undo, redo) across
// processes via a flock-based advisory lock. The kernel releases a
// flock when its holder dies; the staleness timeout additionally
// covers lock files abandoned on filesystems where that guarantee is
// weaker.
type Lock struct {
	path       string
	fl         *flock.Flock
	staleAfter time.Duration
	logger     zerolog.Logger
}

// NewLock creates a lock at path. staleAfter bounds how long an
// abandoned lock file survives before the monitor clears it.
func NewLock(path string, staleAfter time.Duration) *Lock {
	return &Lock{
		path:       path,
		fl:         flock.New(path),
		staleAfter: staleAfter,
		logger:     logging.GetLogger("history.lock"),
	}
}

// Acquire obtains the lock, retrying until timeout and then reporting
// LOCK_CONFLICT rather than blocking indefinitely.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to create lock directory")
	}

	deadline := time.Now().Add(timeout)
	for {
		ok, err := l.fl.TryLock()
		if err != nil {
			return errors.Wrap(err, errors.ErrLockConflict, "failed to acquire lock")
		}
		if ok {
			// Refresh the mtime so the stale monitor can age the file.
			now := time.Now()
			_ = os.Chtimes(l.path, now, now)
			return nil
		}

		if time.Now().After(deadline) {
			l.logger.Warn().Str("path", l.path).Msg("lock acquisition timed out")
			return errors.New(errors.ErrLockConflict, "a mutating operation is already in progress")
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrLockConflict, "lock acquisition cancelled")
		case <-time.After(lockRetryInterval):
		}
	}
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// StartMonitor launches a background goroutine that periodically
// resets lock files abandoned by crashed prior runs. It stops when
// ctx is cancelled.
func (l *Lock) StartMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || l.staleAfter <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweepStale()
			}
		}
	}()
}

// sweepStale resets the lock file's timestamp once it has aged past
// the staleness threshold and no live process holds the flock. The
// file is never unlinked: removing the path while another process
// still holds an open descriptor to it would let two later acquirers
// lock different inodes of the same path.
func (l *Lock) sweepStale() {
	info, err := os.Stat(l.path)
	if err != nil {
		return
	}
	age := time.Since(info.ModTime())
	if age < l.staleAfter {
		return
	}

	probe := flock.New(l.path)
	ok, err := probe.TryLock()
	if err != nil || !ok {
		// Someone alive still holds it.
		return
	}
	defer func() { _ = probe.Unlock() }()

	now := time.Now()
	if err := os.Chtimes(l.path, now, now); err == nil {
		l.logger.Info().
			Str("path", l.path).
			Dur("age", age).
			Msg("reset stale lock file")
	}
}
