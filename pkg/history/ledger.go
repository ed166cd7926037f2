package history

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gammazero/toposort"
	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/types"
)

// Retention bounds how much history the ledger keeps. Zero values
// disable the respective bound.
type Retention struct {
	MaxEntries int
	MaxAge     time.Duration
}

// UndoOptions control an undo request.
type UndoOptions struct {
	// ConfirmCopyDeletion must be set when the entry (or any entry in
	// a chain) contains copy operations: undoing a copy deletes the
	// created copy, which cannot be redone from history alone.
	ConfirmCopyDeletion bool
}

// OperationFailure records one operation that could not be reverted or
// reapplied. Failures are reported, never silently skipped.
type OperationFailure struct {
	Operation types.FileOperation
	Reason    string
}

// UndoResult reports the outcome of an undo or chain-undo.
type UndoResult struct {
	EntryID string

	// RequiresChainUndo is set when undoing this entry alone would
	// collide with the results of other entries. No filesystem writes
	// have happened when it is set.
	RequiresChainUndo bool

	// ConflictEntries lists the entries that must be undone together
	// with this one, in dependency order.
	ConflictEntries []string

	Reverted []types.FileOperation
	Failed   []OperationFailure

	// UndoneEntries lists every entry undone by this call (the target
	// plus chain members).
	UndoneEntries []string
}

// RedoResult reports the outcome of a redo.
type RedoResult struct {
	EntryID   string
	Reapplied []types.FileOperation
	Failed    []OperationFailure
}

// Ledger owns the history store, the advisory lock, and the undo/redo
// machinery. It is the only component that reverses mutations.
type Ledger struct {
	store       *Store
	fs          types.FS
	trash       types.Trasher
	lock        *Lock
	lockTimeout time.Duration
	retention   Retention
	logger      zerolog.Logger
}

// NewLedger creates a ledger.
func NewLedger(store *Store, fs types.FS, trash types.Trasher, lock *Lock, lockTimeout time.Duration, retention Retention) *Ledger {
	return &Ledger{
		store:       store,
		fs:          fs,
		trash:       trash,
		lock:        lock,
		lockTimeout: lockTimeout,
		retention:   retention,
		logger:      logging.GetLogger("history.ledger"),
	}
}

// Store exposes read access to the underlying store for listing.
func (l *Ledger) Store() *Store { return l.store }

// AcquireLock takes the global mutation lock on behalf of an execute
// run. Undo and redo acquire it themselves.
func (l *Ledger) AcquireLock(ctx context.Context) error {
	return l.lock.Acquire(ctx, l.lockTimeout)
}

// ReleaseLock releases the global mutation lock.
func (l *Ledger) ReleaseLock() {
	if err := l.lock.Release(); err != nil {
		l.logger.Warn().Err(err).Msg("failed to release lock")
	}
}

// Record persists a freshly executed entry and applies retention. The
// caller holds the mutation lock.
func (l *Ledger) Record(ctx context.Context, entry *types.HistoryEntry) error {
	if err := l.store.Append(ctx, entry); err != nil {
		return err
	}
	return l.store.Cleanup(ctx, l.retention.MaxEntries, l.retention.MaxAge)
}

// Undo reverses one entry. If restoring any operation would collide
// with the result of another not-yet-undone entry, Undo performs no
// writes and returns a result with RequiresChainUndo set.
func (l *Ledger) Undo(ctx context.Context, entryID string, opts UndoOptions) (*UndoResult, error) {
	return l.undo(ctx, entryID, opts, false)
}

// ChainUndo reverses one entry together with every entry whose results
// occupy paths its undo needs, in dependency order, as one unit. A
// true dependency cycle aborts with zero side effects.
func (l *Ledger) ChainUndo(ctx context.Context, entryID string, opts UndoOptions) (*UndoResult, error) {
	return l.undo(ctx, entryID, opts, true)
}

func (l *Ledger) undo(ctx context.Context, entryID string, opts UndoOptions, chain bool) (*UndoResult, error) {
	if err := l.lock.Acquire(ctx, l.lockTimeout); err != nil {
		return nil, err
	}
	defer l.ReleaseLock()

	entry, err := l.store.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.Newf(errors.ErrEntryNotFound, "history entry %s not found", entryID)
	}
	if entry.IsUndone || !entry.CanUndo {
		return nil, errors.Newf(errors.ErrEntryNotUndoable, "history entry %s cannot be undone", entryID)
	}

	order, cyclic, err := l.resolveChain(ctx, entry)
	if err != nil {
		return nil, err
	}

	result := &UndoResult{EntryID: entryID}
	if len(order) > 1 || cyclic {
		if !chain || cyclic {
			// Conflicts detected (or a true cycle): report, touch
			// nothing.
			result.RequiresChainUndo = true
			for _, e := range order {
				if e.ID != entryID {
					result.ConflictEntries = append(result.ConflictEntries, e.ID)
				}
			}
			if cyclic {
				return result, errors.Newf(errors.ErrChainUndoRequired,
					"entries %s form an undo cycle that cannot be resolved automatically", strings.Join(result.ConflictEntries, ", "))
			}
			return result, nil
		}
	}

	for _, e := range order {
		if e.HasCopies() && !opts.ConfirmCopyDeletion {
			return nil, errors.Newf(errors.ErrConfirmRequired,
				"undoing entry %s deletes created copies; set ConfirmCopyDeletion to proceed", e.ID)
		}
	}

	for _, e := range order {
		l.undoEntry(ctx, e, result)
		result.UndoneEntries = append(result.UndoneEntries, e.ID)
	}
	return result, nil
}

// resolveChain returns the entries that must be undone, dependencies
// first and the target last. A single-element slice means no
// conflicts. cyclic reports a true dependency cycle, in which case the
// returned slice lists the involved entries in arbitrary order.
func (l *Ledger) resolveChain(ctx context.Context, target *types.HistoryEntry) ([]*types.HistoryEntry, bool, error) {
	live, err := l.store.NotUndone(ctx)
	if err != nil {
		return nil, false, err
	}

	byID := make(map[string]*types.HistoryEntry, len(live))
	owners := make(map[string]string) // path currently occupied -> entry id
	for i := range live {
		e := &live[i]
		byID[e.ID] = e
		for _, op := range e.SuccessfulOperations() {
			switch op.Kind {
			case types.OpMove, types.OpRename, types.OpCopy, types.OpCreateFolder:
				owners[op.NewPath] = e.ID
			case types.OpDelete:
				// Trashed items occupy nothing at their original path.
			}
		}
	}

	set := map[string]*types.HistoryEntry{target.ID: target}
	var edges []toposort.Edge
	queue := []*types.HistoryEntry{target}
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]
		for _, need := range undoWritePaths(entry) {
			ownerID, occupied := owners[need]
			if !occupied || ownerID == entry.ID {
				continue
			}
			if _, statErr := l.fs.Lstat(need); statErr != nil {
				// The occupying result has since vanished from disk;
				// no actual conflict remains.
				continue
			}
			// The owner must be undone before this entry.
			edges = append(edges, toposort.Edge{ownerID, entry.ID})
			if _, seen := set[ownerID]; !seen {
				owner := byID[ownerID]
				set[ownerID] = owner
				queue = append(queue, owner)
			}
		}
	}

	if len(set) == 1 {
		return []*types.HistoryEntry{target}, false, nil
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		members := make([]*types.HistoryEntry, 0, len(set))
		for _, id := range sortedIDs(set) {
			members = append(members, set[id])
		}
		return members, true, nil
	}

	ordered := make([]*types.HistoryEntry, 0, len(set))
	seen := make(map[string]bool, len(set))
	for _, node := range sorted {
		id := node.(string)
		if e, ok := set[id]; ok && !seen[id] {
			ordered = append(ordered, e)
			seen[id] = true
		}
	}
	for _, id := range sortedIDs(set) {
		if !seen[id] {
			ordered = append(ordered, set[id])
		}
	}
	return ordered, false, nil
}

// undoWritePaths lists the paths undoing an entry will write to.
func undoWritePaths(entry *types.HistoryEntry) []string {
	var paths []string
	for _, op := range entry.SuccessfulOperations() {
		switch op.Kind {
		case types.OpMove, types.OpRename, types.OpDelete:
			paths = append(paths, op.OriginalPath)
		}
	}
	return paths
}

// undoEntry reverses one entry's successful operations in the inverse
// of execution order. Later operations may depend on earlier ones, so
// reversal order matters within an entry too.
func (l *Ledger) undoEntry(ctx context.Context, entry *types.HistoryEntry, result *UndoResult) {
	ops := entry.SuccessfulOperations()
	var failures []string

	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if err := l.undoOperation(op); err != nil {
			l.logger.Warn().
				Err(err).
				Str("entry", entry.ID).
				Str("op", op.ID).
				Msg("failed to undo operation")
			result.Failed = append(result.Failed, OperationFailure{Operation: op, Reason: err.Error()})
			failures = append(failures, err.Error())
			continue
		}
		result.Reverted = append(result.Reverted, op)
	}

	warning := strings.Join(failures, "; ")
	if err := l.store.SetUndone(ctx, entry.ID, true, false, warning); err != nil {
		l.logger.Error().Err(err).Str("entry", entry.ID).Msg("failed to persist undo state")
	}
}

func (l *Ledger) undoOperation(op types.FileOperation) error {
	switch op.Kind {
	case types.OpMove, types.OpRename:
		if _, err := l.fs.Lstat(op.NewPath); err != nil {
			return errors.Wrapf(err, errors.ErrFileNotFound, "result %s is missing", op.NewPath)
		}
		if _, err := l.fs.Lstat(op.OriginalPath); err == nil {
			return errors.Newf(errors.ErrFileExists, "original location %s is occupied", op.OriginalPath)
		}
		if err := l.fs.MkdirAll(filepath.Dir(op.OriginalPath), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to recreate parent of %s", op.OriginalPath)
		}
		return l.fs.Rename(op.NewPath, op.OriginalPath)
	case types.OpCopy:
		return l.fs.RemoveAll(op.NewPath)
	case types.OpDelete:
		return l.trash.Restore(op.TrashKey, op.OriginalPath)
	case types.OpCreateFolder:
		// Only removes the folder if it is still empty; anything the
		// user put inside stays put and the failure is reported.
		return l.fs.Remove(op.NewPath)
	default:
		return errors.Newf(errors.ErrInternal, "unknown operation kind %q", op.Kind)
	}
}

// Redo reapplies a previously undone entry in original execution
// order.
func (l *Ledger) Redo(ctx context.Context, entryID string) (*RedoResult, error) {
	if err := l.lock.Acquire(ctx, l.lockTimeout); err != nil {
		return nil, err
	}
	defer l.ReleaseLock()

	entry, err := l.store.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.Newf(errors.ErrEntryNotFound, "history entry %s not found", entryID)
	}
	if !entry.IsUndone {
		return nil, errors.Newf(errors.ErrEntryNotUndoable, "history entry %s is not undone", entryID)
	}

	result := &RedoResult{EntryID: entryID}
	for _, op := range entry.SuccessfulOperations() {
		if err := l.redoOperation(ctx, op); err != nil {
			l.logger.Warn().
				Err(err).
				Str("entry", entry.ID).
				Str("op", op.ID).
				Msg("failed to redo operation")
			result.Failed = append(result.Failed, OperationFailure{Operation: op, Reason: err.Error()})
			continue
		}
		result.Reapplied = append(result.Reapplied, op)
	}

	if err := l.store.SetUndone(ctx, entryID, false, true, ""); err != nil {
		return result, err
	}
	return result, nil
}

func (l *Ledger) redoOperation(ctx context.Context, op types.FileOperation) error {
	switch op.Kind {
	case types.OpMove, types.OpRename:
		if err := l.fs.MkdirAll(filepath.Dir(op.NewPath), 0755); err != nil {
			return err
		}
		return l.fs.Rename(op.OriginalPath, op.NewPath)
	case types.OpCopy:
		if err := l.fs.MkdirAll(filepath.Dir(op.NewPath), 0755); err != nil {
			return err
		}
		return l.copyFile(op.OriginalPath, op.NewPath)
	case types.OpDelete:
		key, err := l.trash.Put(op.OriginalPath)
		if err != nil {
			return err
		}
		return l.store.SetTrashKey(ctx, op.ID, key)
	case types.OpCreateFolder:
		return l.fs.MkdirAll(op.NewPath, 0755)
	default:
		return errors.Newf(errors.ErrInternal, "unknown operation kind %q", op.Kind)
	}
}

func (l *Ledger) copyFile(src, dest string) error {
	r, err := l.fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	w, err := l.fs.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func sortedIDs(set map[string]*types.HistoryEntry) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
