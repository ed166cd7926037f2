package commands

// User-facing strings, collected in one place so wording stays
// consistent across commands.
const (
	MsgRootShort = "Bulk file organization driven by workflows"
	MsgRootLong  = `fsweep applies rule-based workflows to files and folders: it matches
items against conditions, then renames, classifies, moves, copies or
trashes them. Every real change is recorded and can be undone.`

	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig  = "Config file (default is $XDG_CONFIG_HOME/fsweep/fsweep.toml)"

	MsgRunShort     = "Execute a workflow against one or more roots"
	MsgPreviewShort = "Show what a workflow would do without changing anything"

	MsgHistoryShort       = "Inspect and revert past runs"
	MsgHistoryListShort   = "List recorded runs"
	MsgHistoryUndoShort   = "Undo a recorded run"
	MsgHistoryRedoShort   = "Reapply an undone run"
	MsgHistoryDeleteShort = "Remove an entry from history"

	MsgWatchShort = "Watch directories and run a workflow on changes"

	MsgFlagJSON = "Emit the run result as JSON instead of a table"

	MsgFlagConfirmCopy = "Confirm that undoing will delete created copies"
	MsgFlagChain       = "Undo dependent entries together in dependency order"
	MsgFlagLimit       = "Maximum number of entries to show"

	MsgPreviewNotice  = "Preview: no files were changed."
	MsgChainRequired  = "This entry conflicts with later runs. Rerun with --chain to undo them together:"
	MsgConfirmCopyAsk = "Undoing this run deletes copies it created. Rerun with --confirm-copy-deletion to proceed."
)
