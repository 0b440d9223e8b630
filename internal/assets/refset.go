package assets

import (
	"path/filepath"
	"sort"
	"strings"
)

// ReferenceSet holds the normalized paths of every asset still referenced by
// at least one record. The sweeper deletes only files absent from it.
type ReferenceSet struct {
	paths map[string]struct{}
}

// NewReferenceSet returns an empty set.
func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{paths: make(map[string]struct{})}
}

// Add marks path as referenced.
func (s *ReferenceSet) Add(path string) {
	s.paths[NormalizePath(path)] = struct{}{}
}

// Has reports whether path is referenced.
func (s *ReferenceSet) Has(path string) bool {
	_, ok := s.paths[NormalizePath(path)]
	return ok
}

// Len returns the number of distinct referenced paths.
func (s *ReferenceSet) Len() int {
	return len(s.paths)
}

// Paths returns the normalized members in sorted order.
func (s *ReferenceSet) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NormalizePath returns the comparison key for a filesystem path: absolute,
// cleaned, forward-slashed, and case-folded. Case folding errs on the side
// of protecting files on case-sensitive filesystems.
func NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return strings.ToLower(filepath.ToSlash(abs))
}
