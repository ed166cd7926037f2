package types

import "time"

// RunMode distinguishes dry-run preview from real execution.
type RunMode string

const (
	ModePreview RunMode = "preview"
	ModeExecute RunMode = "execute"
)

// Progress is emitted after each completed batch.
type Progress struct {
	Processed    int
	Total        int
	CurrentBatch int
	TotalBatches int
}

// Change records one planned or applied transformation for an item.
// The runner deduplicates changes per item; the last transformation
// wins.
type Change struct {
	ItemID       string        `json:"itemId"`
	OriginalPath string        `json:"originalPath"`
	NewPath      string        `json:"newPath"`
	Kind         OperationKind `json:"kind"`
	Status       ItemStatus    `json:"status"`
	Error        string        `json:"error,omitempty"`
}

// StepResult aggregates one step's outcome.
type StepResult struct {
	StepID    string `json:"stepId"`
	Matched   int    `json:"matched"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// WorkflowResult is the aggregate outcome of a run.
type WorkflowResult struct {
	WorkflowID     string        `json:"workflowId"`
	Mode           RunMode       `json:"mode"`
	StepResults    []StepResult  `json:"stepResults"`
	Changes        []Change      `json:"changes"`
	TotalFiles     int           `json:"totalFiles"`
	ProcessedFiles int           `json:"processedFiles"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"durationNs"`

	// HistoryEntryID is set only for execute runs that performed at
	// least one real mutation.
	HistoryEntryID string `json:"historyEntryId,omitempty"`
}
