package opac

import (
	"sync"

	"github.com/s0up4200/libgate/model"
)

// SessionStore holds at most one session per student
type SessionStore interface {
	Get(id model.StudentID) (*Session, bool)
	Put(id model.StudentID, s *Session)
	Invalidate(id model.StudentID)
	Len() int
}

// MemoryStore is a process-local SessionStore. Entries are never swept;
// staleness is discovered by the caller using the session.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[model.StudentID]*Session
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[model.StudentID]*Session)}
}

func (m *MemoryStore) Get(id model.StudentID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Put stores s, replacing any previous session for id
func (m *MemoryStore) Put(id model.StudentID, s *Session) {
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
}

func (m *MemoryStore) Invalidate(id model.StudentID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
