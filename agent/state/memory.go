package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps conversations in process memory. State exists
// until restart; good enough for the interactive CLI and for tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Conversation)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Conversation, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return conv.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, c *Conversation) error {
	if c == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[c.SessionID] = c.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
