package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"donna/internal/agent/ports"
)

// Store keeps sessions in memory. Used by tests and by deployments that do
// not need durability. Sessions are deep-copied on every read and write so
// callers never share mutable state with the store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func New() *Store {
	return &Store{sessions: make(map[string][]byte)}
}

func (s *Store) Create(_ context.Context) (*ports.Session, error) {
	now := time.Now()
	session := &ports.Session{
		Version:   ports.SessionVersion,
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	session.Normalize()

	data, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sessions[session.ID] = data
	s.mu.Unlock()
	return session, nil
}

func (s *Store) Get(_ context.Context, sessionID string) (*ports.Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}

	var session ports.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	session.Normalize()
	return &session, nil
}

func (s *Store) Save(_ context.Context, session *ports.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("cannot save session without an id")
	}
	session.UpdatedAt = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[session.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

var _ ports.SessionStore = (*Store)(nil)
