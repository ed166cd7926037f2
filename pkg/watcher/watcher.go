// Package watcher triggers workflow runs from filesystem activity.
// Events are debounced so a burst of changes produces one run, and a
// run already in flight suppresses new triggers when skipIfRunning is
// set.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/types"
)

// Trigger runs a workflow over the watched roots. It is invoked from
// the watcher's own goroutine after the debounce window closes.
type Trigger func(ctx context.Context, wf types.Workflow, roots []string) error

// Watcher observes directory roots and fires a workflow when their
// contents change.
type Watcher struct {
	wf            types.Workflow
	roots         []string
	trigger       Trigger
	debounce      time.Duration
	skipIfRunning bool

	fw     *fsnotify.Watcher
	logger zerolog.Logger

	mu      sync.Mutex
	pending *time.Timer
	running bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet window required before a run fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSkipIfRunning controls whether events arriving during an active
// run are dropped (true) or queue another run (false).
func WithSkipIfRunning(skip bool) Option {
	return func(w *Watcher) { w.skipIfRunning = skip }
}

// New creates a watcher for the given workflow and roots.
func New(wf types.Workflow, roots []string, trigger Trigger, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot create filesystem watcher")
	}
	w := &Watcher{
		wf:            wf,
		roots:         roots,
		trigger:       trigger,
		debounce:      2 * time.Second,
		skipIfRunning: true,
		fw:            fw,
		logger:        logging.GetLogger("watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers the roots and blocks processing events until ctx is
// cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.registerAll(); err != nil {
		return err
	}
	w.logger.Info().
		Str("workflow", w.wf.ID).
		Strs("roots", w.roots).
		Dur("debounce", w.debounce).
		Msg("watching")

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error { return w.fw.Close() }

func (w *Watcher) registerAll() error {
	for _, root := range w.roots {
		info, err := os.Stat(root)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileNotFound, "watch root %s", root)
		}
		if !info.IsDir() {
			return errors.Newf(errors.ErrInvalidInput, "watch root %s is not a directory", root)
		}
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if d.IsDir() {
				if err := w.fw.Add(path); err != nil {
					w.logger.Warn().Err(err).Str("dir", path).Msg("cannot watch directory")
				}
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot register watch root %s", root)
		}
	}
	return nil
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	// Created subdirectories join the watch set immediately so their
	// contents are seen.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = filepath.WalkDir(ev.Name, func(path string, d os.DirEntry, walkErr error) error {
				if walkErr == nil && d.IsDir() {
					_ = w.fw.Add(path)
				}
				return nil
			})
		}
	}

	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running && w.skipIfRunning {
		w.logger.Debug().Str("path", ev.Name).Msg("run in flight, event dropped")
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, func() { w.fire(ctx) })
}

func (w *Watcher) fire(ctx context.Context) {
	w.mu.Lock()
	if w.running && w.skipIfRunning {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.pending = nil
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.trigger(ctx, w.wf, w.roots); err != nil {
		w.logger.Error().Err(err).Str("workflow", w.wf.ID).Msg("triggered run failed")
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
}
