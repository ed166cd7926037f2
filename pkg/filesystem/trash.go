package filesystem

import (
	"encoding/json"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/types"
)

// trashMetaFile is the per-item sidecar recording where a trashed item
// came from.
const trashMetaFile = ".fsweep-trash.json"

// trashRecord is the sidecar payload for one trashed item.
type trashRecord struct {
	OriginalPath string    `json:"original_path"`
	TrashName    string    `json:"trash_name"`
	DeletedAt    time.Time `json:"deleted_at"`
}

// Trash moves items into a managed trash directory instead of
// permanently removing them. Each trashed item gets its own keyed
// subdirectory with a metadata sidecar, so restores survive process
// restarts.
type Trash struct {
	fs     types.FS
	root   string
	logger zerolog.Logger
}

// NewTrash creates a Trash rooted at dir.
func NewTrash(fs types.FS, dir string) *Trash {
	return &Trash{fs: fs, root: dir, logger: logging.GetLogger("filesystem.trash")}
}

// Put moves path into the trash and returns the key identifying the
// trashed location.
func (t *Trash) Put(path string) (string, error) {
	key := uuid.NewString()
	dir := filepath.Join(t.root, key)
	if err := t.fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "failed to create trash slot for %s", path)
	}

	name := filepath.Base(path)
	if err := t.fs.Rename(path, filepath.Join(dir, name)); err != nil {
		_ = t.fs.RemoveAll(dir)
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to trash %s", path)
	}

	rec := trashRecord{OriginalPath: path, TrashName: name, DeletedAt: time.Now()}
	if err := t.writeMeta(dir, rec); err != nil {
		t.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("failed to write trash metadata")
	}

	return key, nil
}

// Restore moves the trashed item identified by key back to
// originalPath. It fails with TRASH_UNRECOVERABLE if the trashed item
// no longer exists, and never overwrites an occupied destination.
func (t *Trash) Restore(key, originalPath string) error {
	dir := filepath.Join(t.root, key)
	rec, err := t.readMeta(dir)
	if err != nil {
		// Metadata is advisory; fall back to the destination basename.
		rec = trashRecord{TrashName: filepath.Base(originalPath)}
	}

	trashed := filepath.Join(dir, rec.TrashName)
	if _, statErr := t.fs.Lstat(trashed); statErr != nil {
		return errors.Wrapf(statErr, errors.ErrTrashUnrecoverable,
			"trashed item %s is no longer recoverable", key)
	}

	if _, statErr := t.fs.Lstat(originalPath); statErr == nil {
		return errors.Newf(errors.ErrFileExists,
			"restore destination %s is occupied", originalPath)
	}

	if err := t.fs.MkdirAll(filepath.Dir(originalPath), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to recreate parent of %s", originalPath)
	}
	if err := t.fs.Rename(trashed, originalPath); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to restore %s", originalPath)
	}

	_ = t.fs.RemoveAll(dir)
	return nil
}

func (t *Trash) writeMeta(dir string, rec trashRecord) error {
	w, err := t.fs.Create(filepath.Join(dir, trashMetaFile))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	return json.NewEncoder(w).Encode(rec)
}

func (t *Trash) readMeta(dir string) (trashRecord, error) {
	var rec trashRecord
	r, err := t.fs.Open(filepath.Join(dir, trashMetaFile))
	if err != nil {
		return rec, err
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}
