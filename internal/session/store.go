package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps live sessions in memory. Sessions idle longer than ttl are removed by Sweep.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore returns an empty store. A non-positive ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: map[uuid.UUID]*Session{}, ttl: ttl, now: time.Now}
}

// Create registers a new empty session.
func (st *Store) Create() *Session {
	s := New()
	st.mu.Lock()
	defer st.mu.Unlock()
	s.lastSeen = st.now()
	st.sessions[s.ID] = s
	return s
}

// Get looks up a session and marks it as active.
func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if ok {
		s.lastSeen = st.now()
	}
	return s, ok
}

// Delete removes a session.
func (st *Store) Delete(id uuid.UUID) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Len is the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes idle sessions and returns how many were dropped.
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := st.now().Add(-st.ttl)
	n := 0
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
