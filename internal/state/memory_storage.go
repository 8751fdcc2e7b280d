package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps sessions in process memory. Sessions are ephemeral by
// design: a restart resumes every user at idle.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStorage initializes an in-memory Storage implementation.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[int64]*Session)}
}

// GetSession returns the stored session or ErrSessionNotFound when absent.
func (s *MemoryStorage) GetSession(_ context.Context, userID int64) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

// SetSession saves the provided session.
func (s *MemoryStorage) SetSession(_ context.Context, userID int64, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	copied.UpdatedAt = time.Now().UTC()
	s.sessions[userID] = &copied
	return nil
}

// ClearSession removes the stored session for the given user.
func (s *MemoryStorage) ClearSession(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// EvictIdle removes sessions untouched for longer than ttl and returns how
// many were dropped. Keeps session memory bounded on long-running processes.
func (s *MemoryStorage) EvictIdle(ttl time.Duration) int {
	deadline := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, session := range s.sessions {
		if session.UpdatedAt.Before(deadline) {
			delete(s.sessions, userID)
			evicted++
		}
	}

	return evicted
}

// Len returns the number of live sessions.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sessions returns a copy of every live session, for metrics collection.
func (s *MemoryStorage) Sessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		copied := *session
		out = append(out, &copied)
	}

	return out
}
