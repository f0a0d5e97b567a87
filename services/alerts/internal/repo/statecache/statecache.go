package statecache

import (
	"context"
	"strings"
	"sync"

	"pocketledger/services/alerts/internal/entity"
)

// Store is the flat key-value contract the balance toast machine runs on.
// Keys are entity.BalanceStateKey values. The machine only ever needs the
// last written state, so implementations keep no history.
type Store interface {
	Get(ctx context.Context, key string) (entity.BalanceState, bool, error)
	Set(ctx context.Context, key string, state entity.BalanceState) error
	Clear(ctx context.Context, key string) error
	// ClearPrefix removes every key starting with prefix. Keys embed the
	// tenant first, so a tenant-wide reset never touches other tenants.
	ClearPrefix(ctx context.Context, prefix string) error
	ClearAll(ctx context.Context) error
}

// MemoryStore is the in-process implementation, used in tests and in
// single-process deployments where crash tolerance is not required.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]entity.BalanceState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]entity.BalanceState)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (entity.BalanceState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[key]
	return state, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, state entity.BalanceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

func (s *MemoryStore) ClearPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.states {
		if strings.HasPrefix(key, prefix) {
			delete(s.states, key)
		}
	}
	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]entity.BalanceState)
	return nil
}
