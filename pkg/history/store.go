package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id           TEXT PRIMARY KEY,
    created_at   TEXT NOT NULL,
    workflow_id  TEXT NOT NULL,
    status       TEXT NOT NULL,
    is_undone    INTEGER NOT NULL DEFAULT 0,
    can_undo     INTEGER NOT NULL DEFAULT 1,
    undo_warning TEXT NOT NULL DEFAULT '',
    source       TEXT NOT NULL DEFAULT 'manual'
);

CREATE TABLE IF NOT EXISTS operations (
    id            TEXT PRIMARY KEY,
    entry_id      TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    seq           INTEGER NOT NULL,
    original_path TEXT NOT NULL,
    new_path      TEXT NOT NULL DEFAULT '',
    kind          TEXT NOT NULL,
    status        TEXT NOT NULL,
    file_size     INTEGER NOT NULL DEFAULT 0,
    error         TEXT NOT NULL DEFAULT '',
    trash_key     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_operations_entry ON operations(entry_id, seq);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`

// Store persists history entries in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the history database.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrHistoryStore, "failed to create history directory for %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to open history db")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, errors.Wrapf(execErr, errors.ErrHistoryStore, "failed to apply pragma %q", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to apply schema")
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append persists a new entry and its operations atomically.
func (s *Store) Append(ctx context.Context, entry *types.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrHistoryStore, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, created_at, workflow_id, status, is_undone, can_undo, undo_warning, source)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.WorkflowID,
		string(entry.Status),
		boolInt(entry.IsUndone),
		boolInt(entry.CanUndo),
		entry.UndoWarning,
		string(entry.Source),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrHistoryStore, "failed to insert entry")
	}

	for seq, op := range entry.Operations {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO operations (id, entry_id, seq, original_path, new_path, kind, status, file_size, error, trash_key)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			op.ID, entry.ID, seq, op.OriginalPath, op.NewPath,
			string(op.Kind), string(op.Status), op.FileSize, op.Error, op.TrashKey,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrHistoryStore, "failed to insert operation")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrHistoryStore, "failed to commit entry")
	}
	return nil
}

// Get fetches an entry by id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*types.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, workflow_id, status, is_undone, can_undo, undo_warning, source
         FROM entries WHERE id = ?`, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to query entry")
	}
	entries, err := s.scanEntries(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// List returns up to limit entries, newest first. limit <= 0 returns
// everything.
func (s *Store) List(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	query := `SELECT id, created_at, workflow_id, status, is_undone, can_undo, undo_warning, source
              FROM entries ORDER BY created_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to list entries")
	}
	return s.scanEntries(ctx, rows)
}

// NotUndone returns all entries that still own their filesystem
// results, oldest first. This is the input set for conflict-graph
// construction.
func (s *Store) NotUndone(ctx context.Context) ([]types.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, workflow_id, status, is_undone, can_undo, undo_warning, source
         FROM entries WHERE is_undone = 0 ORDER BY created_at ASC`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to list live entries")
	}
	return s.scanEntries(ctx, rows)
}

// Delete removes an entry and its operations.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrHistoryStore, "failed to delete entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrEntryNotFound, "history entry %s not found", id)
	}
	return nil
}

// SetUndone flips an entry's undo state.
func (s *Store) SetUndone(ctx context.Context, id string, undone, canUndo bool, warning string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE entries SET is_undone = ?, can_undo = ?, undo_warning = ? WHERE id = ?`,
		boolInt(undone), boolInt(canUndo), warning, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrHistoryStore, "failed to update entry undo state")
	}
	return nil
}

// SetTrashKey updates one operation's trash key after a redo re-trashes
// the item into a new slot.
func (s *Store) SetTrashKey(ctx context.Context, opID, key string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE operations SET trash_key = ? WHERE id = ?`, key, opID)
	if err != nil {
		return errors.Wrap(err, errors.ErrHistoryStore, "failed to update trash key")
	}
	return nil
}

// Cleanup evicts entries beyond maxEntries (oldest first) and older
// than maxAge. Zero values disable the respective bound.
func (s *Store) Cleanup(ctx context.Context, maxEntries int, maxAge time.Duration) error {
	if maxAge > 0 {
		cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339Nano)
		if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE created_at < ?`, cutoff); err != nil {
			return errors.Wrap(err, errors.ErrHistoryStore, "failed to age out entries")
		}
	}
	if maxEntries > 0 {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM entries WHERE id NOT IN (
                 SELECT id FROM entries ORDER BY created_at DESC LIMIT ?
             )`, maxEntries)
		if err != nil {
			return errors.Wrap(err, errors.ErrHistoryStore, "failed to cap entries")
		}
	}
	return nil
}

func (s *Store) scanEntries(ctx context.Context, rows *sql.Rows) ([]types.HistoryEntry, error) {
	defer func() { _ = rows.Close() }()

	var entries []types.HistoryEntry
	for rows.Next() {
		var e types.HistoryEntry
		var created, status, source string
		var isUndone, canUndo int
		if err := rows.Scan(&e.ID, &created, &e.WorkflowID, &status, &isUndone, &canUndo, &e.UndoWarning, &source); err != nil {
			return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to scan entry")
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrHistoryStore, "invalid timestamp on entry %s", e.ID)
		}
		e.Timestamp = ts
		e.Status = types.EntryStatus(status)
		e.Source = types.HistorySource(source)
		e.IsUndone = isUndone != 0
		e.CanUndo = canUndo != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to iterate entries")
	}

	for i := range entries {
		ops, err := s.operations(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Operations = ops
	}
	return entries, nil
}

func (s *Store) operations(ctx context.Context, entryID string) ([]types.FileOperation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, original_path, new_path, kind, status, file_size, error, trash_key
         FROM operations WHERE entry_id = ? ORDER BY seq ASC`, entryID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to query operations")
	}
	defer func() { _ = rows.Close() }()

	var ops []types.FileOperation
	for rows.Next() {
		var op types.FileOperation
		var kind, status string
		if err := rows.Scan(&op.ID, &op.OriginalPath, &op.NewPath, &kind, &status, &op.FileSize, &op.Error, &op.TrashKey); err != nil {
			return nil, errors.Wrap(err, errors.ErrHistoryStore, "failed to scan operation")
		}
		op.Kind = types.OperationKind(kind)
		op.Status = types.OperationStatus(status)
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
