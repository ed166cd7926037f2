package pipeline

import (
	"context"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/classify"
	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/naming"
	"github.com/fsweep/fsweep/pkg/types"
)

// Pipeline applies actions to items.
type Pipeline struct {
	fs       types.FS
	trash    types.Trasher
	naming   *naming.Engine
	classify *classify.Engine
	logger   zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNamingEngine substitutes the naming engine, letting callers
// carry configured counter defaults.
func WithNamingEngine(e *naming.Engine) Option {
	return func(p *Pipeline) { p.naming = e }
}

// New creates a pipeline over the given filesystem and trash.
func New(fs types.FS, trash types.Trasher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fs:       fs,
		trash:    trash,
		naming:   naming.NewEngine(),
		classify: classify.NewEngine(),
		logger:   logging.GetLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan resolves the item's destination for action and claims its
// collision suffix from seq. index is the item's 0-based position
// within the run and drives counter naming. Plan mutates only
// item.Operation and item.NewPath and never touches the disk.
//
// Callers must plan all of an action's items sequentially in item
// order: the suffix an item receives depends on which names earlier
// items already claimed.
func (p *Pipeline) Plan(action types.Action, item *types.FileItem, index int, seq *naming.Sequence) {
	switch action.Type {
	case types.ActionMove:
		p.planTransfer(item, action.Move.TargetPath, action.Move.Naming, action.Move.Classify, index, seq, types.OpMove)
	case types.ActionCopy:
		cfg := action.Copy
		p.planTransfer(item, cfg.TargetPath, cfg.Naming, cfg.Classify, index, seq, types.OpCopy)
	case types.ActionRename:
		dir := filepath.Dir(item.Path)
		item.Operation = types.OpRename
		item.NewPath = filepath.Join(dir, seq.Claim(dir, p.naming.Resolve(action.Rename.Naming, item, index)))
	case types.ActionDelete:
		item.Operation = types.OpDelete
		item.NewPath = ""
	case types.ActionCreateFolder:
		item.Operation = types.OpCreateFolder
		item.NewPath = filepath.Join(item.Path, seq.Claim(item.Path, p.naming.Resolve(action.CreateFolder.Naming, item, index)))
	default:
		p.fail(item, types.OpMove, errors.Newf(errors.ErrInternal, "unknown action type %q", action.Type))
	}
}

// planTransfer computes the move/copy destination: the explicit target
// path (or the item's input root) plus the item's classification
// segment, named by the naming engine.
func (p *Pipeline) planTransfer(item *types.FileItem, targetPath string, namingCfg types.NamingPattern, classifyCfg types.ClassifyConfig, index int, seq *naming.Sequence, kind types.OperationKind) {
	destRoot := targetPath
	if destRoot == "" {
		destRoot = item.Root
	}

	destDir := filepath.Join(destRoot, p.classify.Segment(classifyCfg, item))
	name := seq.Claim(destDir, p.naming.Resolve(namingCfg, item, index))

	item.Operation = kind
	item.NewPath = filepath.Join(destDir, name)
}

// Apply carries out the destination planned on the item. In preview
// mode nothing on disk changes and the returned operation is nil. In
// execute mode it performs the mutation and returns the FileOperation
// record, including failed attempts (with status error).
//
// The returned error is non-nil only for fatal conditions that should
// abort the remaining batches; per-item failures are captured on the
// item and the operation record.
func (p *Pipeline) Apply(ctx context.Context, item *types.FileItem, mode types.RunMode) (*types.FileOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCancelled, "run cancelled")
	}
	if item.Status == types.ItemError {
		return nil, nil
	}
	if mode == types.ModePreview {
		item.Status = types.ItemSuccess
		return nil, nil
	}

	switch item.Operation {
	case types.OpMove, types.OpCopy:
		return p.transfer(item)
	case types.OpRename:
		return p.rename(item)
	case types.OpDelete:
		return p.delete(item)
	case types.OpCreateFolder:
		return p.createFolder(item)
	default:
		p.fail(item, item.Operation, errors.Newf(errors.ErrInternal, "unplanned operation %q", item.Operation))
		return nil, nil
	}
}

func (p *Pipeline) transfer(item *types.FileItem) (*types.FileOperation, error) {
	dest := item.NewPath
	if err := p.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		// Not being able to create the destination root means every
		// remaining item would fail the same way.
		return nil, errors.Wrapf(err, errors.ErrIOFatal, "destination %s is unreachable", filepath.Dir(dest))
	}

	op := p.newOp(item, item.Operation, dest)
	var err error
	if item.Operation == types.OpMove {
		err = p.fs.Rename(item.Path, dest)
	} else {
		err = p.copyItem(item.Path, dest, item.IsDirectory)
	}
	if err != nil {
		return p.failOp(item, op, err), nil
	}

	if item.Operation == types.OpMove {
		item.Path = dest
		item.Name = filepath.Base(dest)
	}
	item.Status = types.ItemSuccess
	return op, nil
}

func (p *Pipeline) rename(item *types.FileItem) (*types.FileOperation, error) {
	dest := item.NewPath

	op := p.newOp(item, types.OpRename, dest)
	if dest != item.Path {
		if err := p.fs.Rename(item.Path, dest); err != nil {
			return p.failOp(item, op, err), nil
		}
	}

	item.Path = dest
	item.Name = filepath.Base(dest)
	item.Status = types.ItemSuccess
	return op, nil
}

func (p *Pipeline) delete(item *types.FileItem) (*types.FileOperation, error) {
	op := p.newOp(item, types.OpDelete, "")
	key, err := p.trash.Put(item.Path)
	if err != nil {
		return p.failOp(item, op, err), nil
	}

	op.TrashKey = key
	item.Status = types.ItemSuccess
	return op, nil
}

func (p *Pipeline) createFolder(item *types.FileItem) (*types.FileOperation, error) {
	op := p.newOp(item, types.OpCreateFolder, item.NewPath)
	if err := p.fs.MkdirAll(item.NewPath, 0755); err != nil {
		return p.failOp(item, op, err), nil
	}

	item.Status = types.ItemSuccess
	return op, nil
}

// copyItem copies a file or directory tree. Timestamps and modes are
// not preserved beyond the default umask; fsweep copies content, not
// attributes.
func (p *Pipeline) copyItem(src, dest string, isDir bool) error {
	if !isDir {
		return p.copyFile(src, dest)
	}

	entries, err := p.fs.ReadDir(src)
	if err != nil {
		return err
	}
	if err := p.fs.MkdirAll(dest, 0755); err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())
		if err := p.copyItem(srcPath, destPath, entry.IsDir()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) copyFile(src, dest string) error {
	r, err := p.fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	w, err := p.fs.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		_ = p.fs.Remove(dest)
		return err
	}
	return w.Close()
}

func (p *Pipeline) newOp(item *types.FileItem, kind types.OperationKind, dest string) *types.FileOperation {
	return &types.FileOperation{
		ID:           uuid.NewString(),
		OriginalPath: item.Path,
		NewPath:      dest,
		Kind:         kind,
		Status:       types.OperationSuccess,
		FileSize:     item.Size,
	}
}

func (p *Pipeline) failOp(item *types.FileItem, op *types.FileOperation, err error) *types.FileOperation {
	p.fail(item, op.Kind, err)
	op.Status = types.OperationError
	op.Error = err.Error()
	return op
}

func (p *Pipeline) fail(item *types.FileItem, kind types.OperationKind, err error) {
	p.logger.Warn().
		Err(err).
		Str("path", item.Path).
		Str("kind", string(kind)).
		Msg("action failed for item")
	item.Status = types.ItemError
	item.Error = errors.Wrapf(err, errors.ErrItemFailed, "%s failed", kind).Error()
}
