package workflow

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/batch"
	"github.com/fsweep/fsweep/pkg/conditions"
	"github.com/fsweep/fsweep/pkg/config"
	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/history"
	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/naming"
	"github.com/fsweep/fsweep/pkg/pipeline"
	"github.com/fsweep/fsweep/pkg/scan"
	"github.com/fsweep/fsweep/pkg/types"
)

// Runner executes workflows.
type Runner struct {
	fs         types.FS
	scanner    *scan.Scanner
	evaluator  *conditions.Evaluator
	pipeline   *pipeline.Pipeline
	ledger     *history.Ledger
	cfg        *config.Config
	source     types.HistorySource
	onProgress func(types.Progress)
	logger     zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgress registers a batch progress callback.
func WithProgress(fn func(types.Progress)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// WithSource tags history entries with what triggered the run.
func WithSource(source types.HistorySource) Option {
	return func(r *Runner) { r.source = source }
}

// NewRunner creates a runner.
func NewRunner(fs types.FS, trash types.Trasher, ledger *history.Ledger, cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		fs:        fs,
		scanner:   scan.NewScanner(fs),
		evaluator: conditions.NewEvaluatorWithDepth(cfg.Engine.ConditionMaxDepth),
		pipeline: pipeline.New(fs, trash, pipeline.WithNamingEngine(
			naming.NewEngineWithDefaults(cfg.Naming.CounterStart, cfg.Naming.CounterPadding))),
		ledger:    ledger,
		cfg:       cfg,
		source:    types.SourceManual,
		logger:    logging.GetLogger("workflow.runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Preview dry-runs the workflow: intended destinations are computed,
// nothing on disk changes, and no history entry is produced.
func (r *Runner) Preview(ctx context.Context, wf types.Workflow, roots []string) (*types.WorkflowResult, error) {
	return r.run(ctx, wf, roots, types.ModePreview)
}

// Execute applies the workflow's mutations and commits one history
// entry recording every real file operation.
func (r *Runner) Execute(ctx context.Context, wf types.Workflow, roots []string) (*types.WorkflowResult, error) {
	return r.run(ctx, wf, roots, types.ModeExecute)
}

func (r *Runner) run(ctx context.Context, wf types.Workflow, roots []string, mode types.RunMode) (*types.WorkflowResult, error) {
	start := time.Now()
	result := &types.WorkflowResult{WorkflowID: wf.ID, Mode: mode}

	// All validation happens before any mutation.
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	if !wf.Enabled {
		return nil, errors.Newf(errors.ErrWorkflowInvalid, "workflow %s is disabled", wf.ID)
	}

	if mode == types.ModeExecute {
		if err := r.ledger.AcquireLock(ctx); err != nil {
			return nil, err
		}
		defer r.ledger.ReleaseLock()
	}

	r.logger.Info().
		Str("workflow", wf.ID).
		Str("mode", string(mode)).
		Int("roots", len(roots)).
		Msg("starting run")

	var (
		ops      []*types.FileOperation
		changes  = make(map[string]types.Change)
		order    []string
		prev     []*types.FileItem
		runErr   error
		rootsSet = make(map[string]struct{}, len(roots))
	)
	for _, root := range roots {
		rootsSet[filepath.Clean(root)] = struct{}{}
	}

steps:
	for _, step := range wf.OrderedSteps() {
		if !step.Enabled {
			continue
		}

		items, err := r.resolveInput(step, roots, prev, mode)
		if err != nil {
			runErr = err
			break
		}

		matched := make([]*types.FileItem, 0, len(items))
		for _, item := range items {
			if r.evaluator.Evaluate(item, step.Match) {
				matched = append(matched, item)
			}
		}

		stepResult := types.StepResult{StepID: step.ID, Matched: len(matched)}
		result.TotalFiles += len(matched)

		for _, action := range step.Actions {
			if !action.Enabled {
				continue
			}

			// Destinations are planned sequentially so collision
			// suffixes land in item order regardless of worker
			// scheduling; only the filesystem writes run concurrently.
			seq := naming.NewSequence()
			for i, item := range matched {
				if item.Status == types.ItemError {
					continue
				}
				r.pipeline.Plan(action, item, i, seq)
			}

			var mu sync.Mutex
			apply := func(ctx context.Context, item *types.FileItem, index int) error {
				before := item.Path
				op, err := r.pipeline.Apply(ctx, item, mode)
				mu.Lock()
				defer mu.Unlock()
				if op != nil {
					ops = append(ops, op)
				}
				if _, seen := changes[item.ID]; !seen {
					order = append(order, item.ID)
				}
				changes[item.ID] = types.Change{
					ItemID:       item.ID,
					OriginalPath: before,
					NewPath:      item.NewPath,
					Kind:         item.Operation,
					Status:       item.Status,
					Error:        item.Error,
				}
				return err
			}

			scheduler := batch.NewScheduler(
				batch.WithBatchSize(r.cfg.Engine.BatchSize),
				batch.WithWorkers(r.cfg.Engine.WorkerPoolSize),
				batch.WithProgress(r.onProgress),
			)
			if err := scheduler.Run(ctx, matched, apply); err != nil {
				runErr = err
				r.collectStep(&stepResult, matched)
				result.StepResults = append(result.StepResults, stepResult)
				break steps
			}
		}

		r.collectStep(&stepResult, matched)
		result.StepResults = append(result.StepResults, stepResult)
		prev = nextInput(matched, mode)
	}

	for _, id := range order {
		change := changes[id]
		result.Changes = append(result.Changes, change)
		if change.Status == types.ItemSuccess {
			result.ProcessedFiles++
		}
	}
	if runErr != nil {
		result.Errors = append(result.Errors, runErr.Error())
	}
	for _, change := range result.Changes {
		if change.Error != "" {
			result.Errors = append(result.Errors, change.Error)
		}
	}

	if mode == types.ModeExecute && len(ops) > 0 {
		entry := r.buildEntry(wf.ID, ops)
		if err := r.ledger.Record(ctx, entry); err != nil {
			r.logger.Error().Err(err).Msg("failed to record history entry")
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.HistoryEntryID = entry.ID
		}

		if wf.CleanupEmptyFolders && runErr == nil {
			r.cleanupEmptyFolders(ops, rootsSet)
		}
	}

	result.Duration = time.Since(start)
	r.logger.Info().
		Str("workflow", wf.ID).
		Str("mode", string(mode)).
		Int("processed", result.ProcessedFiles).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("run finished")

	return result, runErr
}

// resolveInput produces the step's input item set.
func (r *Runner) resolveInput(step types.ProcessStep, roots []string, prev []*types.FileItem, mode types.RunMode) ([]*types.FileItem, error) {
	opts := scan.Options{Target: step.Target, MaxDepth: stepDepth(step)}
	switch step.Source {
	case types.InputPrevious:
		return prev, nil
	case types.InputPath:
		return r.scanner.Enumerate([]string{step.Path}, opts)
	default:
		return r.scanner.Enumerate(roots, opts)
	}
}

// stepDepth derives the traversal bound from the step's first action
// carrying subfolder settings.
func stepDepth(step types.ProcessStep) int {
	for _, action := range step.Actions {
		var sub bool
		var depth int
		switch {
		case action.Type == types.ActionMove && action.Move != nil:
			sub, depth = action.Move.ProcessSubfolders, action.Move.MaxDepth
		case action.Type == types.ActionCopy && action.Copy != nil:
			sub, depth = action.Copy.ProcessSubfolders, action.Copy.MaxDepth
		default:
			continue
		}
		if !sub {
			return 1
		}
		return depth
	}
	return 0
}

func (r *Runner) collectStep(stepResult *types.StepResult, matched []*types.FileItem) {
	for _, item := range matched {
		switch item.Status {
		case types.ItemSuccess:
			stepResult.Processed++
		case types.ItemError:
			stepResult.Failed++
		case types.ItemSkipped:
			stepResult.Skipped++
		}
	}
}

// nextInput builds the following step's previous-output set: items
// that succeeded and still exist (deleted items leave the flow). In
// preview mode items are cloned with their simulated paths so the
// chain composes without disk writes.
func nextInput(matched []*types.FileItem, mode types.RunMode) []*types.FileItem {
	var next []*types.FileItem
	for _, item := range matched {
		if item.Status != types.ItemSuccess || item.Operation == types.OpDelete {
			continue
		}
		if mode == types.ModeExecute {
			next = append(next, item)
			continue
		}
		clone := *item
		if clone.NewPath != "" && clone.Operation != types.OpCreateFolder {
			clone.Path = clone.NewPath
			clone.Name = filepath.Base(clone.NewPath)
			if !clone.IsDirectory {
				clone.Extension = filepath.Ext(clone.Name)
			}
		}
		clone.Status = types.ItemPending
		next = append(next, &clone)
	}
	return next
}

func (r *Runner) buildEntry(workflowID string, ops []*types.FileOperation) *types.HistoryEntry {
	entry := &types.HistoryEntry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		WorkflowID: workflowID,
		Status:     types.EntrySuccess,
		CanUndo:    true,
		Source:     r.source,
	}

	failed := 0
	for _, op := range ops {
		entry.Operations = append(entry.Operations, *op)
		if op.Status == types.OperationError {
			failed++
		}
	}
	switch {
	case failed == len(ops):
		entry.Status = types.EntryError
	case failed > 0:
		entry.Status = types.EntryPartial
	}
	return entry
}

// cleanupEmptyFolders removes directories emptied by move/delete
// operations, walking bottom-up. Input roots themselves are never
// removed.
func (r *Runner) cleanupEmptyFolders(ops []*types.FileOperation, roots map[string]struct{}) {
	touched := make(map[string]struct{})
	for _, op := range ops {
		if op.Status != types.OperationSuccess {
			continue
		}
		if op.Kind == types.OpMove || op.Kind == types.OpDelete {
			touched[filepath.Dir(op.OriginalPath)] = struct{}{}
		}
	}

	dirs := make([]string, 0, len(touched))
	for dir := range touched {
		dirs = append(dirs, dir)
	}
	// Deepest first, so child directories empty out before parents are
	// considered.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	for _, dir := range dirs {
		r.removeWhileEmpty(dir, roots)
	}
}

func (r *Runner) removeWhileEmpty(dir string, roots map[string]struct{}) {
	for {
		clean := filepath.Clean(dir)
		if _, isRoot := roots[clean]; isRoot {
			return
		}
		entries, err := r.fs.ReadDir(clean)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := r.fs.Remove(clean); err != nil {
			return
		}
		r.logger.Debug().Str("dir", clean).Msg("removed empty folder")
		dir = filepath.Dir(clean)
	}
}
