package types

import "time"

// OperationStatus is the outcome of one real filesystem mutation.
type OperationStatus string

const (
	OperationSuccess OperationStatus = "success"
	OperationError   OperationStatus = "error"
	OperationSkipped OperationStatus = "skipped"
)

// FileOperation is an immutable record of one mutation actually
// performed on disk. Preview runs never produce these.
type FileOperation struct {
	ID           string
	OriginalPath string
	NewPath      string
	Kind         OperationKind
	Status       OperationStatus
	FileSize     int64
	Error        string

	// TrashKey is the trashed location for delete operations, used to
	// restore the item on undo. Empty for other kinds.
	TrashKey string
}

// EntryStatus summarizes a history entry's execution outcome.
type EntryStatus string

const (
	EntrySuccess EntryStatus = "success"
	EntryPartial EntryStatus = "partial"
	EntryError   EntryStatus = "error"
)

// HistorySource records what triggered an execution.
type HistorySource string

const (
	SourceManual HistorySource = "manual"
	SourceWatch  HistorySource = "watch"
)

// HistoryEntry is the durable record of one execute run. Its
// Operations list is a 1:1 record of real mutations in execution
// order; undo replays them in the inverse order.
type HistoryEntry struct {
	ID          string
	Timestamp   time.Time
	WorkflowID  string
	Operations  []FileOperation
	Status      EntryStatus
	IsUndone    bool
	CanUndo     bool
	UndoWarning string
	Source      HistorySource
}

// SuccessfulOperations returns the subset of operations that actually
// mutated disk, preserving execution order.
func (e HistoryEntry) SuccessfulOperations() []FileOperation {
	var ops []FileOperation
	for _, op := range e.Operations {
		if op.Status == OperationSuccess {
			ops = append(ops, op)
		}
	}
	return ops
}

// HasCopies reports whether undoing this entry would delete created
// copies, which is irreversible and needs explicit confirmation.
func (e HistoryEntry) HasCopies() bool {
	for _, op := range e.Operations {
		if op.Kind == OpCopy && op.Status == OperationSuccess {
			return true
		}
	}
	return false
}
