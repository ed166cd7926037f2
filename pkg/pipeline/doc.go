// Package pipeline applies one action to one matched item in two
// phases: Plan combines the classification and naming engines to
// compute the destination, and Apply performs the filesystem mutation
// in execute mode. Planning runs sequentially in item order so
// collision suffixes are deterministic; only Apply runs concurrently.
//
// A failure applying an action to one item marks that item as errored
// and never aborts the rest of the batch; only the destination root
// becoming unreachable is treated as fatal.
package pipeline
