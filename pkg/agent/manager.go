package agent

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calbolt/calbolt/pkg/transcript"
)

// Manager tracks chat sessions by id and evicts inactive ones
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newAgent func() *Agent
	store    transcript.Store
}

// NewManager creates a session manager. newAgent builds a fresh agent for
// each new session; store may be nil to skip transcript recording.
func NewManager(newAgent func() *Agent, store transcript.Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		newAgent: newAgent,
		store:    store,
	}
}

// GetSession returns the session with the given id, creating it on first
// use. An empty id gets a generated one.
func (m *Manager) GetSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[id]; ok {
		return session
	}

	session := NewSession(id, m.newAgent(), m.store)
	m.sessions[id] = session
	return session
}

// Lookup returns an existing session without creating one
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// DeleteSession removes a session, reporting whether it existed
func (m *Manager) DeleteSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// ListSessions returns the ids of all live sessions, sorted
func (m *Manager) ListSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cleanup removes sessions inactive for more than maxInactiveHours and
// returns how many were removed
func (m *Manager) Cleanup(maxInactiveHours int) int {
	cutoff := time.Now().Add(-time.Duration(maxInactiveHours) * time.Hour)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if session.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
