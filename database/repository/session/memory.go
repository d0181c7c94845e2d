package sessionRepo

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"glowdesk/models"
)

// MemoryStore is an in-process Store used in tests and single-node
// development setups. Sessions expire after the inactivity TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	keys     *keyedMutex
}

type memoryEntry struct {
	data    []byte
	savedAt time.Time
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		keys:     newKeyedMutex(),
	}
}

func (s *MemoryStore) Get(_ context.Context, customerID string) (*models.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[customerID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.ttl > 0 && time.Since(entry.savedAt) > s.ttl {
		s.mu.Lock()
		delete(s.sessions, customerID)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	var session models.Session
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MemoryStore) Save(_ context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[session.CustomerID] = memoryEntry{data: data, savedAt: time.Now()}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, customerID string) error {
	s.mu.Lock()
	delete(s.sessions, customerID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Lock(customerID string) func() {
	return s.keys.lock(customerID)
}
