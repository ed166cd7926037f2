// Package filesystem provides the OS-backed implementation of
// types.FS plus the managed trash area used by delete actions and
// their undo.
package filesystem
