// Package history persists real filesystem mutations as reversible
// entries and implements undo, redo, and chain-undo conflict
// resolution over them.
//
// Every execute run commits one HistoryEntry whose operations are a
// 1:1 record of mutations actually performed, in execution order.
// Undo replays successful operations in the inverse order. Before any
// disk write, the ledger checks whether restoring an operation's
// original path would collide with the result of another not-yet-
// undone entry; such conflicts either resolve through ChainUndo in
// dependency order or surface as a structured chain-undo signal.
//
// Execute, undo and redo are mutually exclusive via a flock-based
// advisory lock with a staleness timeout.
package history
