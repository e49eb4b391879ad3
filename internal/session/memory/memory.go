// Package memory provides the default in-process session store.
// Snapshots are held in a mutex-guarded map with TTL-based expiry;
// nothing survives a process restart.
package memory

import (
	"context"
	"sync"
	"time"

	"finadvisor/internal/core"
)

type entry struct {
	snap      core.Snapshot
	expiresAt time.Time
}

type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]entry
}

func New(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		items: make(map[string]entry),
	}
}

// Get returns the snapshot for a session. Expired entries are removed
// and reported as absent.
func (s *Store) Get(_ context.Context, sessionID string) (core.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[sessionID]
	if !ok {
		return core.Snapshot{}, false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(s.items, sessionID)
		return core.Snapshot{}, false, nil
	}
	return e.snap, true, nil
}

// Set replaces the session's snapshot and refreshes its TTL.
func (s *Store) Set(_ context.Context, sessionID string, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[sessionID] = entry{
		snap:      snap,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Clear removes the session's snapshot.
func (s *Store) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, sessionID)
	return nil
}

// CleanExpired removes all expired entries and returns the count removed.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
