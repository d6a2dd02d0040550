// Package transcript persists conversation transcripts. Entries are
// append-only; a session's history is its entries in insertion order.
package transcript

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry is one recorded conversation event. Tool and Args are set only for
// tool invocations.
type Entry struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Tool      string    `json:"tool,omitempty"`
	Args      string    `json:"args,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store records and replays conversation transcripts
type Store interface {
	// Append records one entry. A zero Timestamp is stamped with the
	// current time.
	Append(ctx context.Context, entry Entry) error

	// History returns a session's entries in insertion order
	History(ctx context.Context, sessionID string) ([]Entry, error)

	// Close releases any underlying resources
	Close() error
}

// MemoryStore keeps transcripts in process memory. It is the default when no
// database is configured and the backing store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]Entry),
	}
}

// Append records one entry
func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.SessionID] = append(s.entries[entry.SessionID], entry)
	return nil
}

// History returns a session's entries in insertion order
func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[sessionID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Sessions returns the ids of all sessions with at least one entry, sorted
func (s *MemoryStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

// New selects a store implementation from the database URL. An empty URL
// selects the in-memory store.
func New(databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewMemoryStore(), nil
	}
	return NewPostgresStore(databaseURL)
}
