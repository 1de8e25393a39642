package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Store implements ports.SettingsStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]int64
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]int64),
	}
}

func (s *Store) SaveTransactionNumber(ctx context.Context, terminalID string, number int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[terminalID] = number
	return nil
}

func (s *Store) LoadTransactionNumber(ctx context.Context, terminalID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.data[terminalID]
	if !ok {
		return 0, domain.ErrSettingNotFound
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, terminalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, terminalID)
	return nil
}

// List returns the terminals with stored settings, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
