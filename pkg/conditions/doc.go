// Package conditions evaluates items against nested condition trees.
//
// A group with operator "and" requires all direct conditions and all
// child groups to match; "or" requires any. An empty group matches
// everything, so a step with no conditions applies to every item.
// String comparisons are case-insensitive. An invalid regular
// expression or glob fails its single condition instead of failing
// the evaluation.
package conditions
