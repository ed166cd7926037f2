package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Sequence tracks resolved names per destination directory for one
// batch run and disambiguates collisions with a numeric suffix.
// Suffix assignment follows claim order, so callers wanting
// deterministic names must claim sequentially in item order before
// dispatching work.
type Sequence struct {
	mu   sync.Mutex
	used map[string]map[string]struct{}
}

// NewSequence creates an empty per-run sequence.
func NewSequence() *Sequence {
	return &Sequence{used: make(map[string]map[string]struct{})}
}

// Claim reserves name within dir, returning either name itself or the
// first free "-N" variant (inserted before the extension).
func (s *Sequence) Claim(dir, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.used[dir]
	if names == nil {
		names = make(map[string]struct{})
		s.used[dir] = names
	}

	key := strings.ToLower(name)
	if _, taken := names[key]; !taken {
		names[key] = struct{}{}
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		key := strings.ToLower(candidate)
		if _, taken := names[key]; !taken {
			names[key] = struct{}{}
			return candidate
		}
	}
}
