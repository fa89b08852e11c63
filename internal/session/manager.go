package session

import "sync"

// Manager keeps one Session per reviewer so concurrent reviewers never
// share swipe state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Get returns the reviewer's session, or nil when none exists yet.
func (m *Manager) Get(key string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[key]
}

// GetOrCreate returns the reviewer's session, calling create under the
// write lock when the reviewer has none. create may return an error, in
// which case nothing is stored.
func (m *Manager) GetOrCreate(key string, create func() (*Session, error)) (*Session, error) {
	m.mu.RLock()
	s := m.sessions[key]
	m.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.sessions[key]; s != nil {
		return s, nil
	}
	s, err := create()
	if err != nil {
		return nil, err
	}
	m.sessions[key] = s
	return s, nil
}

// Delete drops the reviewer's session.
func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// InvalidateAll drops every session. Called when the candidate list
// changes shape, e.g. after a filter or reset, so stale cursors never
// point into the old ordering.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
}
