package memory

import (
	"context"
	"sort"
	"sync"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/storage"
)

// SwapRecordStore is an in-memory implementation of storage.SwapRecordStore.
type SwapRecordStore struct {
	mu          sync.RWMutex
	data        map[string]*domain.SwapRecord // keyed by id
	bySignature map[string]string
}

// NewSwapRecordStore creates a new in-memory swap record store.
func NewSwapRecordStore() *SwapRecordStore {
	return &SwapRecordStore{
		data:        make(map[string]*domain.SwapRecord),
		bySignature: make(map[string]string),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *SwapRecordStore) Insert(_ context.Context, r *domain.SwapRecord) error {
	if r == nil || r.ID == "" || r.Signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.ID] = &copy
	s.bySignature[r.Signature] = r.ID
	return nil
}

// GetBySignature retrieves a record by signature. Returns ErrNotFound if not exists.
func (s *SwapRecordStore) GetBySignature(_ context.Context, signature string) (*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySignature[signature]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *s.data[id]
	return &copy, nil
}

// GetByWallet retrieves records of a wallet within [start, end] (inclusive).
func (s *SwapRecordStore) GetByWallet(_ context.Context, wallet string, start, end int64) ([]*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapRecord
	for _, r := range s.data {
		if r.Wallet == wallet && r.SubmittedAt >= start && r.SubmittedAt <= end {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SubmittedAt != result[j].SubmittedAt {
			return result[i].SubmittedAt < result[j].SubmittedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)
