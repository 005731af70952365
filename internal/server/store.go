package server

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/KaramelBytes/bizdata-cli/internal/advisor"
)

// entry is one uploaded dataset with its advisory conversation. The session
// owns the current analysis result; cleaning swaps it wholesale.
type entry struct {
	ID       string
	Uploaded time.Time
	Session  *advisor.Session
	Limiter  *rate.Limiter
}

// store keeps uploads in memory for the life of the process.
type store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newStore() *store {
	return &store{entries: make(map[string]*entry)}
}

func (s *store) put(e *entry) {
	s.mu.Lock()
	s.entries[e.ID] = e
	s.mu.Unlock()
}

func (s *store) get(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *store) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

func (s *store) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// list returns entries oldest upload first.
func (s *store) list() []*entry {
	s.mu.RLock()
	out := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Uploaded.Before(out[j].Uploaded) })
	return out
}
