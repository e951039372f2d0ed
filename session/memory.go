package session

import (
	"context"
	"sync"
	"time"

	"github.com/tailored-agentic-units/procure/conversation"
)

type memoryStore struct {
	sessions  map[string]*conversation.Session
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	mu        sync.RWMutex
}

// NewMemoryStore creates a Store backed by a map. Sessions not updated within
// ttl are treated as absent and are evicted by a sweep that runs on Save at
// most once per ttl; a zero ttl keeps sessions until deleted.
func NewMemoryStore(ttl time.Duration) Store {
	return newMemoryStore(ttl, time.Now)
}

func newMemoryStore(ttl time.Duration, now func() time.Time) *memoryStore {
	return &memoryStore{
		sessions:  make(map[string]*conversation.Session),
		ttl:       ttl,
		now:       now,
		lastSweep: now(),
	}
}

func (m *memoryStore) Get(ctx context.Context, userID string) (*conversation.Session, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}

	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(s) {
		m.mu.Lock()
		if current, ok := m.sessions[userID]; ok && m.expired(current) {
			delete(m.sessions, userID)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memoryStore) Save(ctx context.Context, s *conversation.Session) error {
	if s == nil || s.UserID == "" {
		return ErrInvalidUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := s.Clone()
	stored.UpdatedAt = m.now()
	m.sessions[s.UserID] = stored
	m.sweep()
	return nil
}

// sweep evicts expired sessions. Callers hold m.mu.
func (m *memoryStore) sweep() {
	now := m.now()
	if m.ttl <= 0 || now.Sub(m.lastSweep) < m.ttl {
		return
	}
	m.lastSweep = now
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
		}
	}
}

func (m *memoryStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *memoryStore) expired(s *conversation.Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}
