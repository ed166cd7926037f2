package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/fsweep/fsweep/pkg/history"
	"github.com/fsweep/fsweep/pkg/types"
)

// renderResult prints a run's changes and a one-line summary.
func renderResult(w io.Writer, result *types.WorkflowResult) {
	if len(result.Changes) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Action", "From", "To", "Status"})
		for _, change := range result.Changes {
			status := string(change.Status)
			if change.Error != "" {
				status = change.Error
			}
			t.AppendRow(table.Row{change.Kind, change.OriginalPath, change.NewPath, status})
		}
		t.Render()
	}

	fmt.Fprintf(w, "%d of %d items processed in %s",
		result.ProcessedFiles, result.TotalFiles, result.Duration.Round(time.Millisecond))
	if n := len(result.Errors); n > 0 {
		fmt.Fprintf(w, ", %d error(s)", n)
	}
	fmt.Fprintln(w)
	if result.HistoryEntryID != "" {
		fmt.Fprintf(w, "Recorded as history entry %s\n", result.HistoryEntryID)
	}
}

// renderResultJSON emits the run result as indented JSON for
// non-interactive consumers.
func renderResultJSON(w io.Writer, result *types.WorkflowResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// renderEntries prints history entries as a table, newest first.
func renderEntries(w io.Writer, entries []types.HistoryEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "When", "Workflow", "Ops", "Status", "Source"})
	for _, e := range entries {
		status := string(e.Status)
		if e.IsUndone {
			status += " (undone)"
		}
		t.AppendRow(table.Row{
			e.ID,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.WorkflowID,
			len(e.Operations),
			status,
			e.Source,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Ops", Align: text.AlignRight},
	})
	t.Render()
}

// renderFailures lists operations that could not be reverted or
// reapplied.
func renderFailures(w io.Writer, failures []history.OperationFailure) {
	for _, f := range failures {
		fmt.Fprintf(w, "  failed: %s: %s\n", f.Operation.OriginalPath, f.Reason)
	}
}
