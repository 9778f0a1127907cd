package output

import (
	"sort"
	"sync"
)

// FailedSet is a deduplicated set of asset paths that failed extraction.
type FailedSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
	// order only grows, so prefixes handed out by Snapshot stay valid.
	order []string
}

// NewFailedSet returns an empty set.
func NewFailedSet() *FailedSet {
	return &FailedSet{paths: make(map[string]struct{})}
}

// Add records a path and reports whether it was new.
func (s *FailedSet) Add(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[path]; ok {
		return false
	}
	s.paths[path] = struct{}{}
	s.order = append(s.order, path)
	return true
}

// Contains reports whether path is in the set.
func (s *FailedSet) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of paths.
func (s *FailedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// Snapshot returns the paths added so far in insertion order without
// copying. The result is shared and must not be modified.
func (s *FailedSet) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.order)
	return s.order[:n:n]
}

// Sorted returns the paths in lexical order.
func (s *FailedSet) Sorted() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

// Union adds every path of others to s. Nil sets are ignored.
func (s *FailedSet) Union(others ...*FailedSet) {
	for _, o := range others {
		if o == nil || o == s {
			continue
		}
		for _, p := range o.Snapshot() {
			s.Add(p)
		}
	}
}
