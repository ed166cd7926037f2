// Package batch chunks ordered item sets for processing, reporting
// progress and honoring cancellation at batch boundaries only: an
// in-flight batch always runs to completion so no single-item write
// is torn by a cancel.
package batch

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/types"
)

const (
	defaultBatchSize = 100
	defaultWorkers   = 4
)

// Apply processes one item. index is the item's 0-based position in
// the full run. A returned error is fatal and aborts remaining
// batches; per-item failures must be absorbed by the callee.
type Apply func(ctx context.Context, item *types.FileItem, index int) error

// Scheduler splits item lists into batches.
type Scheduler struct {
	batchSize  int
	workers    int
	onProgress func(types.Progress)
	logger     zerolog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBatchSize sets the chunk size.
func WithBatchSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWorkers bounds the per-batch worker pool.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithProgress registers a progress callback invoked after each
// completed batch.
func WithProgress(fn func(types.Progress)) Option {
	return func(s *Scheduler) { s.onProgress = fn }
}

// NewScheduler creates a scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		batchSize: defaultBatchSize,
		workers:   defaultWorkers,
		logger:    logging.GetLogger("batch.scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes items in order-stable batches. Cancellation is
// cooperative: it is checked between batches, never mid-batch.
func (s *Scheduler) Run(ctx context.Context, items []*types.FileItem, apply Apply) error {
	total := len(items)
	if total == 0 {
		return nil
	}

	totalBatches := (total + s.batchSize - 1) / s.batchSize
	processed := 0

	for batchIdx := 0; batchIdx < totalBatches; batchIdx++ {
		if err := ctx.Err(); err != nil {
			s.logger.Info().
				Int("processed", processed).
				Int("total", total).
				Msg("run cancelled between batches")
			return errors.Wrap(err, errors.ErrCancelled, "run cancelled")
		}

		start := batchIdx * s.batchSize
		end := start + s.batchSize
		if end > total {
			end = total
		}
		chunk := items[start:end]

		// The batch context is deliberately detached from cancellation
		// so in-flight items always complete; fatal errors still
		// propagate through the group.
		g := new(errgroup.Group)
		g.SetLimit(s.workers)
		for i, item := range chunk {
			index := start + i
			item := item
			g.Go(func() error {
				return apply(context.WithoutCancel(ctx), item, index)
			})
		}
		if err := g.Wait(); err != nil {
			s.logger.Error().
				Err(err).
				Int("batch", batchIdx+1).
				Msg("fatal error, aborting remaining batches")
			return err
		}

		processed += len(chunk)
		if s.onProgress != nil {
			s.onProgress(types.Progress{
				Processed:    processed,
				Total:        total,
				CurrentBatch: batchIdx + 1,
				TotalBatches: totalBatches,
			})
		}
	}

	return nil
}
