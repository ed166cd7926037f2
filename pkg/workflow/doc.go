// Package workflow orchestrates runs: it resolves each step's input
// set, filters it through the condition evaluator, applies the step's
// actions through the batch scheduler, and feeds the output to the
// next step. Preview runs compute intended destinations without
// touching disk; execute runs mutate the filesystem and commit one
// history entry per run.
package workflow
