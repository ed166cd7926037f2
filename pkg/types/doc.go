// Package types defines the core data model shared across fsweep:
// file items, condition trees, actions, workflow steps, naming and
// classification settings, and the history records produced by real
// executions. It contains no behavior beyond validation and small
// accessors; the engines live in their own packages.
package types
