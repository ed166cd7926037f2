package classify

import "strings"

// sizeBucket is one ordered bucket in a size scenario. maxBytes < 0
// means unlimited.
type sizeBucket struct {
	label    string
	minBytes int64
	maxBytes int64
}

const (
	kb int64 = 1 << 10
	mb int64 = 1 << 20
	gb int64 = 1 << 30
)

// Preset scenarios. Ordering within each list is load-bearing: the
// first bucket whose bounds contain the size wins, and no overlap
// validation is performed.
var sizePresets = map[string][]sizeBucket{
	"general": {
		{"small", 0, 1 * mb},
		{"medium", 1 * mb, 100 * mb},
		{"large", 100 * mb, 1 * gb},
		{"extra-large", 1 * gb, -1},
	},
	"photo": {
		{"thumbnail", 0, 100 * kb},
		{"web", 100 * kb, 2 * mb},
		{"print", 2 * mb, 15 * mb},
		{"raw", 15 * mb, -1},
	},
	"video": {
		{"clip", 0, 50 * mb},
		{"episode", 50 * mb, 2 * gb},
		{"movie", 2 * gb, 20 * gb},
		{"archive", 20 * gb, -1},
	},
}

// matchBuckets returns the label of the first bucket containing size,
// or empty when none match.
func matchBuckets(buckets []sizeBucket, size int64) string {
	for _, b := range buckets {
		if size < b.minBytes {
			continue
		}
		if b.maxBytes < 0 || size < b.maxBytes {
			return b.label
		}
	}
	return ""
}

// unitMultiplier converts a size-range unit into bytes.
func unitMultiplier(unit string) int64 {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "KB":
		return kb
	case "MB":
		return mb
	case "GB":
		return gb
	default:
		return 1
	}
}
