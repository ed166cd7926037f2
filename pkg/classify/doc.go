// Package classify computes the destination subfolder segment for
// move and copy actions: by file-type category, creation/modification
// date, size bucket, raw extension, or by mirroring the item's
// relative path under its input root.
package classify
