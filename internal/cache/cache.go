// Package cache holds rendered public payloads so the landing page does not
// hit SQLite on every visit. Entries are indexed both by path (their key)
// and by named tags, so an admin mutation can drop exactly the payloads that
// depend on the content it touched.
package cache

import "sync"

type entry struct {
	data []byte
	tags []string
}

// Store is an in-memory tag-indexed response cache.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	byTag   map[string]map[string]struct{} // tag -> set of keys
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		byTag:   make(map[string]map[string]struct{}),
	}
}

// Get returns the cached payload for a path, if present.
func (s *Store) Get(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	return e.data, ok
}

// Set stores a payload under a path, registered against the given tags.
func (s *Store) Set(path string, data []byte, tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-setting a path first detaches it from its previous tags.
	s.removeLocked(path)

	s.entries[path] = entry{data: data, tags: tags}
	for _, tag := range tags {
		if s.byTag[tag] == nil {
			s.byTag[tag] = make(map[string]struct{})
		}
		s.byTag[tag][path] = struct{}{}
	}
}

// InvalidateTags drops every entry registered against any of the tags and
// returns the number of entries removed.
func (s *Store) InvalidateTags(tags ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, tag := range tags {
		for path := range s.byTag[tag] {
			s.removeLocked(path)
			removed++
		}
	}
	return removed
}

// InvalidatePaths drops entries by their exact path key.
func (s *Store) InvalidatePaths(paths ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, path := range paths {
		if _, ok := s.entries[path]; ok {
			s.removeLocked(path)
			removed++
		}
	}
	return removed
}

// Len reports how many payloads are currently cached.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) removeLocked(path string) {
	e, ok := s.entries[path]
	if !ok {
		return
	}
	for _, tag := range e.tags {
		delete(s.byTag[tag], path)
		if len(s.byTag[tag]) == 0 {
			delete(s.byTag, tag)
		}
	}
	delete(s.entries, path)
}
