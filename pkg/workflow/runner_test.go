package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsweep/fsweep/pkg/config"
	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/filesystem"
	"github.com/fsweep/fsweep/pkg/history"
	"github.com/fsweep/fsweep/pkg/testutil"
	"github.com/fsweep/fsweep/pkg/types"
)

type runnerFixture struct {
	runner *Runner
	store  *history.Store
	ledger *history.Ledger
}

func newTestRunner(t *testing.T) *runnerFixture {
	t.Helper()
	fs := filesystem.NewOS()
	trash := filesystem.NewTrash(fs, t.TempDir())
	store, err := history.OpenStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	lock := history.NewLock(filepath.Join(t.TempDir(), "fsweep.lock"), time.Minute)
	ledger := history.NewLedger(store, fs, trash, lock, time.Second, history.Retention{})

	cfg := &config.Config{
		Engine: config.Engine{BatchSize: 10, WorkerPoolSize: 2, ConditionMaxDepth: 64},
	}
	return &runnerFixture{
		runner: NewRunner(fs, trash, ledger, cfg),
		store:  store,
		ledger: ledger,
	}
}

func moveWorkflow(dest string, match types.ConditionGroup) types.Workflow {
	return types.Workflow{
		ID:      "wf-move",
		Enabled: true,
		Steps: []types.ProcessStep{
			{
				ID:      "step-1",
				Order:   1,
				Enabled: true,
				Target:  types.TargetFiles,
				Match:   match,
				Actions: []types.Action{
					{
						ID:      "act-move",
						Type:    types.ActionMove,
						Enabled: true,
						Move:    &types.MoveConfig{TargetPath: dest, ProcessSubfolders: true, MaxDepth: -1},
					},
				},
			},
		},
	}
}

func pdfMatch() types.ConditionGroup {
	return types.ConditionGroup{
		Conditions: []types.Condition{
			{Field: types.FieldExtension, Operator: types.OpEquals, Value: "pdf"},
		},
	}
}

func TestPreview_ComputesDestinationsWithoutMutating(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()
	a := testutil.CreateFile(t, root, "a.pdf", "a")
	b := testutil.CreateFile(t, root, "b.txt", "b")

	wf := moveWorkflow(dest, pdfMatch())
	result, err := f.runner.Preview(context.Background(), wf, []string{root})
	require.NoError(t, err)

	assert.Equal(t, types.ModePreview, result.Mode)
	assert.Equal(t, 1, result.TotalFiles)
	assert.Equal(t, 1, result.ProcessedFiles)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, a, result.Changes[0].OriginalPath)
	assert.Equal(t, filepath.Join(dest, "a.pdf"), result.Changes[0].NewPath)
	assert.Empty(t, result.HistoryEntryID)

	// Disk untouched.
	assert.True(t, testutil.FileExists(t, a))
	assert.True(t, testutil.FileExists(t, b))

	// Previews are repeatable: a second run plans the same changes.
	again, err := f.runner.Preview(context.Background(), wf, []string{root})
	require.NoError(t, err)
	require.Len(t, again.Changes, 1)
	assert.Equal(t, result.Changes[0].NewPath, again.Changes[0].NewPath)
}

func TestExecute_MovesAndRecordsHistory(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()
	testutil.CreateFile(t, root, "a.pdf", "a")
	testutil.CreateFile(t, root, "b.pdf", "b")
	testutil.CreateFile(t, root, "skip.txt", "s")

	result, err := f.runner.Execute(context.Background(), moveWorkflow(dest, pdfMatch()), []string{root})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProcessedFiles)
	assert.True(t, testutil.FileExists(t, filepath.Join(dest, "a.pdf")))
	assert.True(t, testutil.FileExists(t, filepath.Join(dest, "b.pdf")))
	assert.True(t, testutil.FileExists(t, filepath.Join(root, "skip.txt")))

	require.NotEmpty(t, result.HistoryEntryID)
	entry, err := f.store.Get(context.Background(), result.HistoryEntryID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, types.EntrySuccess, entry.Status)
	assert.Len(t, entry.Operations, 2)
}

func TestExecute_ThenUndoRoundTrip(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()
	src := testutil.CreateFile(t, root, "a.pdf", "content")

	result, err := f.runner.Execute(context.Background(), moveWorkflow(dest, pdfMatch()), []string{root})
	require.NoError(t, err)
	require.NotEmpty(t, result.HistoryEntryID)
	require.False(t, testutil.FileExists(t, src))

	undo, err := f.ledger.Undo(context.Background(), result.HistoryEntryID, history.UndoOptions{})
	require.NoError(t, err)
	assert.Empty(t, undo.Failed)
	assert.Equal(t, "content", testutil.ReadFile(t, src))
}

func TestRun_StepsChainThroughPreviousOutput(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()
	testutil.CreateFile(t, root, "a.pdf", "a")

	wf := types.Workflow{
		ID:      "wf-chain",
		Enabled: true,
		Steps: []types.ProcessStep{
			{
				ID: "rename", Order: 1, Enabled: true,
				Target: types.TargetFiles,
				Match:  pdfMatch(),
				Actions: []types.Action{
					{
						ID: "prefix", Type: types.ActionRename, Enabled: true,
						Rename: &types.RenameConfig{
							Naming: types.NamingPattern{Mode: types.NamePrefix, Value: "done-"},
						},
					},
				},
			},
			{
				ID: "move", Order: 2, Enabled: true,
				Target: types.TargetFiles,
				Source: types.InputPrevious,
				Actions: []types.Action{
					{
						ID: "relocate", Type: types.ActionMove, Enabled: true,
						Move: &types.MoveConfig{TargetPath: dest},
					},
				},
			},
		},
	}

	result, err := f.runner.Execute(context.Background(), wf, []string{root})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.True(t, testutil.FileExists(t, filepath.Join(dest, "done-a.pdf")))
}

func TestRun_PreviewChainsWithoutDisk(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()
	path := testutil.CreateFile(t, root, "a.pdf", "a")

	wf := types.Workflow{
		ID:      "wf-chain",
		Enabled: true,
		Steps: []types.ProcessStep{
			{
				ID: "rename", Order: 1, Enabled: true,
				Target: types.TargetFiles,
				Match:  pdfMatch(),
				Actions: []types.Action{
					{
						ID: "prefix", Type: types.ActionRename, Enabled: true,
						Rename: &types.RenameConfig{
							Naming: types.NamingPattern{Mode: types.NamePrefix, Value: "done-"},
						},
					},
				},
			},
			{
				ID: "move", Order: 2, Enabled: true,
				Target: types.TargetFiles,
				Source: types.InputPrevious,
				Actions: []types.Action{
					{
						ID: "relocate", Type: types.ActionMove, Enabled: true,
						Move: &types.MoveConfig{TargetPath: dest},
					},
				},
			},
		},
	}

	result, err := f.runner.Preview(context.Background(), wf, []string{root})
	require.NoError(t, err)

	// The second step plans against the first step's simulated result.
	var moved bool
	for _, change := range result.Changes {
		if change.NewPath == filepath.Join(dest, "done-a.pdf") {
			moved = true
		}
	}
	assert.True(t, moved, "second step must see the renamed name")
	assert.True(t, testutil.FileExists(t, path), "preview must not touch disk")
}

func TestRun_DeletedItemsLeaveTheFlow(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()
	testutil.CreateFile(t, root, "junk.pdf", "x")

	wf := types.Workflow{
		ID:      "wf-del",
		Enabled: true,
		Steps: []types.ProcessStep{
			{
				ID: "trash", Order: 1, Enabled: true,
				Target:  types.TargetFiles,
				Match:   pdfMatch(),
				Actions: []types.Action{{ID: "del", Type: types.ActionDelete, Enabled: true}},
			},
			{
				ID: "move", Order: 2, Enabled: true,
				Target: types.TargetFiles,
				Source: types.InputPrevious,
				Actions: []types.Action{
					{ID: "mv", Type: types.ActionMove, Enabled: true, Move: &types.MoveConfig{TargetPath: dest}},
				},
			},
		},
	}

	result, err := f.runner.Execute(context.Background(), wf, []string{root})
	require.NoError(t, err)
	// Only the delete shows up; the second step had no input.
	require.Len(t, result.Changes, 1)
	assert.Equal(t, types.OpDelete, result.Changes[0].Kind)
}

func TestRun_UnreachableDestinationIsFatal(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	testutil.CreateFile(t, root, "a.pdf", "x")

	// The destination path is occupied by a file, so the destination
	// directory can never be created.
	blocked := testutil.CreateFile(t, t.TempDir(), "blocked", "x")

	_, err := f.runner.Execute(context.Background(), moveWorkflow(blocked, pdfMatch()), []string{root})
	require.Error(t, err)
	assert.Equal(t, errors.ErrIOFatal, errors.GetErrorCode(err))
	assert.True(t, testutil.FileExists(t, filepath.Join(root, "a.pdf")), "fatal abort leaves the item in place")
}

func TestRun_InvalidWorkflowRejectedBeforeAnyMutation(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	path := testutil.CreateFile(t, root, "a.pdf", "x")

	wf := types.Workflow{ID: "bad", Enabled: true}
	_, err := f.runner.Execute(context.Background(), wf, []string{root})
	require.Error(t, err)
	assert.Equal(t, errors.ErrWorkflowInvalid, errors.GetErrorCode(err))
	assert.True(t, testutil.FileExists(t, path))
}

func TestRun_DisabledWorkflowAndStep(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()
	path := testutil.CreateFile(t, root, "a.pdf", "x")

	wf := moveWorkflow(dest, pdfMatch())
	wf.Enabled = false
	_, err := f.runner.Execute(context.Background(), wf, []string{root})
	require.Error(t, err)

	wf.Enabled = true
	wf.Steps[0].Enabled = false
	result, err := f.runner.Execute(context.Background(), wf, []string{root})
	require.NoError(t, err)
	assert.Zero(t, result.TotalFiles)
	assert.True(t, testutil.FileExists(t, path))
}

func TestRun_CleanupEmptyFolders(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()
	testutil.CreateFile(t, root, "sub/only.pdf", "x")

	wf := moveWorkflow(dest, pdfMatch())
	wf.CleanupEmptyFolders = true

	_, err := f.runner.Execute(context.Background(), wf, []string{root})
	require.NoError(t, err)

	assert.False(t, testutil.DirExists(t, filepath.Join(root, "sub")), "emptied folder is removed")
	assert.True(t, testutil.DirExists(t, root), "input roots are never removed")
}

func TestPreview_CollisionSuffixesAreStableUnderWorkers(t *testing.T) {
	f := newTestRunner(t)
	root := t.TempDir()
	dest := t.TempDir()

	var paths []string
	for i := 0; i < 30; i++ {
		paths = append(paths, testutil.CreateFile(t, root, fmt.Sprintf("f%03d.pdf", i), "x"))
	}

	// Every item resolves to the same base name, so all but the first
	// need a collision suffix.
	wf := moveWorkflow(dest, pdfMatch())
	wf.Steps[0].Actions[0].Move.Naming = types.NamingPattern{Mode: types.NameCustom, Value: "same"}

	byOriginal := func(result *types.WorkflowResult) map[string]string {
		m := make(map[string]string, len(result.Changes))
		for _, c := range result.Changes {
			m[c.OriginalPath] = c.NewPath
		}
		return m
	}

	first, err := f.runner.Preview(context.Background(), wf, []string{root})
	require.NoError(t, err)
	require.Len(t, first.Changes, len(paths))

	planned := byOriginal(first)
	assert.Equal(t, filepath.Join(dest, "same.pdf"), planned[paths[0]])
	for i := 1; i < len(paths); i++ {
		assert.Equal(t, filepath.Join(dest, fmt.Sprintf("same-%d.pdf", i)), planned[paths[i]],
			"suffix must follow scan order, not worker completion order")
	}

	for run := 0; run < 5; run++ {
		again, err := f.runner.Preview(context.Background(), wf, []string{root})
		require.NoError(t, err)
		assert.Equal(t, planned, byOriginal(again), "repeated previews must plan identical destinations")
	}
}
