package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/filesystem"
	"github.com/fsweep/fsweep/pkg/testutil"
	"github.com/fsweep/fsweep/pkg/types"
)

type ledgerFixture struct {
	ledger *Ledger
	store  *Store
	trash  *filesystem.Trash
}

func newTestLedger(t *testing.T) *ledgerFixture {
	t.Helper()
	store := newTestStore(t)
	fs := filesystem.NewOS()
	trash := filesystem.NewTrash(fs, t.TempDir())
	lock := NewLock(filepath.Join(t.TempDir(), "fsweep.lock"), time.Minute)
	ledger := NewLedger(store, fs, trash, lock, time.Second, Retention{})
	return &ledgerFixture{ledger: ledger, store: store, trash: trash}
}

func TestUndo_MoveEntry(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()
	dest := t.TempDir()

	// Simulate an executed move.
	src := filepath.Join(root, "a.txt")
	moved := filepath.Join(dest, "a.txt")
	testutil.CreateFile(t, dest, "a.txt", "content")

	entry := makeEntry("wf", time.Now(), moveOp(src, moved))
	require.NoError(t, f.ledger.Record(ctx, entry))

	result, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)
	assert.False(t, result.RequiresChainUndo)
	assert.Len(t, result.Reverted, 1)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []string{entry.ID}, result.UndoneEntries)

	assert.Equal(t, "content", testutil.ReadFile(t, src))
	assert.False(t, testutil.FileExists(t, moved))

	got, err := f.store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, got.IsUndone)
}

func TestUndo_ReversesOperationsInInverseOrder(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()

	// A run that renamed a.txt -> b.txt and then b.txt -> c.txt; undo
	// must unwind the second rename first.
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	c := filepath.Join(root, "c.txt")
	testutil.CreateFile(t, root, "c.txt", "x")

	entry := makeEntry("wf", time.Now(), moveOp(a, b), moveOp(b, c))
	require.NoError(t, f.ledger.Record(ctx, entry))

	result, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.True(t, testutil.FileExists(t, a))
	assert.False(t, testutil.FileExists(t, b))
	assert.False(t, testutil.FileExists(t, c))
}

func TestUndo_CopyNeedsConfirmation(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()
	dest := t.TempDir()

	src := testutil.CreateFile(t, root, "keep.txt", "x")
	copied := testutil.CreateFile(t, dest, "keep.txt", "x")

	entry := makeEntry("wf", time.Now(), types.FileOperation{
		ID:           "op-copy",
		OriginalPath: src,
		NewPath:      copied,
		Kind:         types.OpCopy,
		Status:       types.OperationSuccess,
	})
	require.NoError(t, f.ledger.Record(ctx, entry))

	_, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfirmRequired, errors.GetErrorCode(err))
	assert.True(t, testutil.FileExists(t, copied), "refused undo must not touch disk")

	result, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{ConfirmCopyDeletion: true})
	require.NoError(t, err)
	assert.Len(t, result.Reverted, 1)
	assert.False(t, testutil.FileExists(t, copied))
	assert.True(t, testutil.FileExists(t, src))
}

func TestUndo_DeleteRestoresFromTrash(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()

	path := testutil.CreateFile(t, root, "junk.tmp", "payload")
	key, err := f.trash.Put(path)
	require.NoError(t, err)

	entry := makeEntry("wf", time.Now(), types.FileOperation{
		ID:           "op-del",
		OriginalPath: path,
		Kind:         types.OpDelete,
		Status:       types.OperationSuccess,
		TrashKey:     key,
	})
	require.NoError(t, f.ledger.Record(ctx, entry))

	result, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "payload", testutil.ReadFile(t, path))
}

func TestUndo_MissingAndAlreadyUndoneEntries(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()

	_, err := f.ledger.Undo(ctx, "ghost", UndoOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrEntryNotFound, errors.GetErrorCode(err))

	root := t.TempDir()
	dest := t.TempDir()
	src := filepath.Join(root, "a.txt")
	moved := filepath.Join(dest, "a.txt")
	testutil.CreateFile(t, dest, "a.txt", "x")

	entry := makeEntry("wf", time.Now(), moveOp(src, moved))
	require.NoError(t, f.ledger.Record(ctx, entry))
	_, err = f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)

	_, err = f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrEntryNotUndoable, errors.GetErrorCode(err))
}

func TestUndo_OccupiedOriginalIsReportedNotOverwritten(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()
	dest := t.TempDir()

	src := testutil.CreateFile(t, root, "a.txt", "new occupant")
	moved := testutil.CreateFile(t, dest, "a.txt", "moved content")

	entry := makeEntry("wf", time.Now(), moveOp(src, moved))
	require.NoError(t, f.ledger.Record(ctx, entry))

	result, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "new occupant", testutil.ReadFile(t, src))
	assert.True(t, testutil.FileExists(t, moved))

	got, err := f.store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.UndoWarning)
}

func TestUndo_ConflictRequiresChain(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()

	// Entry A moved x -> y; entry B later moved z -> x, so x is
	// occupied by B's result.
	x := filepath.Join(root, "x.txt")
	y := filepath.Join(root, "y.txt")
	z := filepath.Join(root, "z.txt")
	testutil.CreateFile(t, root, "y.txt", "was x")
	testutil.CreateFile(t, root, "x.txt", "was z")

	entryA := makeEntry("wf", time.Now().Add(-time.Minute), moveOp(x, y))
	entryB := makeEntry("wf", time.Now(), moveOp(z, x))
	require.NoError(t, f.ledger.Record(ctx, entryA))
	require.NoError(t, f.ledger.Record(ctx, entryB))

	result, err := f.ledger.Undo(ctx, entryA.ID, UndoOptions{})
	require.NoError(t, err)
	assert.True(t, result.RequiresChainUndo)
	assert.Equal(t, []string{entryB.ID}, result.ConflictEntries)
	// Nothing moved.
	assert.Equal(t, "was x", testutil.ReadFile(t, y))
	assert.Equal(t, "was z", testutil.ReadFile(t, x))

	chained, err := f.ledger.ChainUndo(ctx, entryA.ID, UndoOptions{})
	require.NoError(t, err)
	assert.Empty(t, chained.Failed)
	assert.Equal(t, []string{entryB.ID, entryA.ID}, chained.UndoneEntries)

	// Both runs fully unwound.
	assert.Equal(t, "was x", testutil.ReadFile(t, x))
	assert.Equal(t, "was z", testutil.ReadFile(t, z))
	assert.False(t, testutil.FileExists(t, y))
}

func TestUndo_ChainWithCopiesNeedsSingleConfirmation(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()

	x := filepath.Join(root, "x.txt")
	y := filepath.Join(root, "y.txt")
	testutil.CreateFile(t, root, "y.txt", "was x")
	// B copied some file onto x's old location.
	src := testutil.CreateFile(t, root, "orig.txt", "copy source")
	testutil.CreateFile(t, root, "x.txt", "copied")

	entryA := makeEntry("wf", time.Now().Add(-time.Minute), moveOp(x, y))
	entryB := makeEntry("wf", time.Now(), types.FileOperation{
		ID:           "op-copy-b",
		OriginalPath: src,
		NewPath:      x,
		Kind:         types.OpCopy,
		Status:       types.OperationSuccess,
	})
	require.NoError(t, f.ledger.Record(ctx, entryA))
	require.NoError(t, f.ledger.Record(ctx, entryB))

	// The chain includes B's copy, so confirmation is required before
	// anything on disk changes.
	_, err := f.ledger.ChainUndo(ctx, entryA.ID, UndoOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfirmRequired, errors.GetErrorCode(err))
	assert.Equal(t, "copied", testutil.ReadFile(t, x))

	result, err := f.ledger.ChainUndo(ctx, entryA.ID, UndoOptions{ConfirmCopyDeletion: true})
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "was x", testutil.ReadFile(t, x))
}

func TestRedo_MoveEntry(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()
	dest := t.TempDir()

	src := filepath.Join(root, "a.txt")
	moved := filepath.Join(dest, "a.txt")
	testutil.CreateFile(t, dest, "a.txt", "content")

	entry := makeEntry("wf", time.Now(), moveOp(src, moved))
	require.NoError(t, f.ledger.Record(ctx, entry))

	_, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)
	require.True(t, testutil.FileExists(t, src))

	result, err := f.ledger.Redo(ctx, entry.ID)
	require.NoError(t, err)
	assert.Len(t, result.Reapplied, 1)
	assert.Empty(t, result.Failed)
	assert.True(t, testutil.FileExists(t, moved))
	assert.False(t, testutil.FileExists(t, src))

	got, err := f.store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, got.IsUndone)
	assert.True(t, got.CanUndo)
}

func TestRedo_DeleteReTrashesWithFreshKey(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()

	path := testutil.CreateFile(t, root, "junk.tmp", "payload")
	key, err := f.trash.Put(path)
	require.NoError(t, err)

	entry := makeEntry("wf", time.Now(), types.FileOperation{
		ID:           "op-del",
		OriginalPath: path,
		Kind:         types.OpDelete,
		Status:       types.OperationSuccess,
		TrashKey:     key,
	})
	require.NoError(t, f.ledger.Record(ctx, entry))

	_, err = f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)

	_, err = f.ledger.Redo(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, testutil.FileExists(t, path))

	got, err := f.store.Get(ctx, entry.ID)
	require.NoError(t, err)
	newKey := got.Operations[0].TrashKey
	assert.NotEmpty(t, newKey)
	assert.NotEqual(t, key, newKey)

	// The fresh key round-trips through another undo.
	result, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "payload", testutil.ReadFile(t, path))
}

func TestRedo_NotUndoneEntry(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()
	dest := t.TempDir()

	src := filepath.Join(root, "a.txt")
	moved := filepath.Join(dest, "a.txt")
	testutil.CreateFile(t, dest, "a.txt", "x")

	entry := makeEntry("wf", time.Now(), moveOp(src, moved))
	require.NoError(t, f.ledger.Record(ctx, entry))

	_, err := f.ledger.Redo(ctx, entry.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrEntryNotUndoable, errors.GetErrorCode(err))
}

func TestRecord_AppliesRetention(t *testing.T) {
	store := newTestStore(t)
	fs := filesystem.NewOS()
	trash := filesystem.NewTrash(fs, t.TempDir())
	lock := NewLock(filepath.Join(t.TempDir(), "fsweep.lock"), time.Minute)
	ledger := NewLedger(store, fs, trash, lock, time.Second, Retention{MaxEntries: 2})

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		entry := makeEntry("wf", base.Add(time.Duration(i)*time.Minute), moveOp("/a", "/b"))
		require.NoError(t, ledger.Record(ctx, entry))
	}

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUndo_PartialEntrySkipsFailedOperations(t *testing.T) {
	f := newTestLedger(t)
	ctx := context.Background()
	root := t.TempDir()
	dest := t.TempDir()

	// A partial run: a.txt and c.txt moved, b.txt failed and never
	// left its original place.
	aSrc := filepath.Join(root, "a.txt")
	aDst := filepath.Join(dest, "a.txt")
	testutil.CreateFile(t, dest, "a.txt", "a")
	bSrc := testutil.CreateFile(t, root, "b.txt", "b")
	bDst := filepath.Join(dest, "b.txt")
	cSrc := filepath.Join(root, "c.txt")
	cDst := filepath.Join(dest, "c.txt")
	testutil.CreateFile(t, dest, "c.txt", "c")

	failed := moveOp(bSrc, bDst)
	failed.Status = types.OperationError
	failed.Error = "permission denied"

	entry := makeEntry("wf", time.Now(), moveOp(aSrc, aDst), failed, moveOp(cSrc, cDst))
	entry.Status = types.EntryPartial
	require.NoError(t, f.ledger.Record(ctx, entry))

	result, err := f.ledger.Undo(ctx, entry.ID, UndoOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Reverted, 2, "only the successful operations are reverted")
	assert.Empty(t, result.Failed)

	assert.Equal(t, "a", testutil.ReadFile(t, aSrc))
	assert.Equal(t, "c", testutil.ReadFile(t, cSrc))
	assert.False(t, testutil.FileExists(t, aDst))
	assert.False(t, testutil.FileExists(t, cDst))

	// The failed operation's paths are untouched.
	assert.Equal(t, "b", testutil.ReadFile(t, bSrc))
	assert.False(t, testutil.FileExists(t, bDst))

	got, err := f.store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, got.IsUndone)
}
