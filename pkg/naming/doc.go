// Package naming resolves naming patterns into concrete file names.
//
// A pattern is resolved per item against the item's 0-based position
// in the current batch run; counter sequences reset per run and are
// never persisted. Within-batch collisions after resolution are
// disambiguated deterministically with a numeric suffix in processing
// order.
package naming
