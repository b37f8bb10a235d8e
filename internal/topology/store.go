package topology

import "sync"

// Ticket identifies one load attempt.
type Ticket uint64

// Store holds the current graph. Loads take a ticket first; only the newest ticket may commit,
// so a slow response for an older request cannot overwrite a newer one.
type Store struct {
	mu      sync.RWMutex
	current *Graph
	issued  Ticket
}

func NewStore() *Store {
	return &Store{current: Empty("")}
}

func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit installs g if t is still the newest ticket. A nil graph commits as empty.
func (s *Store) Commit(t Ticket, g *Graph) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.issued {
		return false
	}
	if g == nil {
		g = Empty("")
	}
	s.current = g
	return true
}

// IsLatest reports whether t is the most recently issued ticket.
func (s *Store) IsLatest(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t == s.issued
}

// Current never returns nil.
func (s *Store) Current() *Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
