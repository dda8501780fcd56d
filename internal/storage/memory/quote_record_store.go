package memory

import (
	"context"
	"sort"
	"sync"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/storage"
)

// QuoteRecordStore is an in-memory implementation of storage.QuoteRecordStore.
type QuoteRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.QuoteRecord // keyed by id
}

// NewQuoteRecordStore creates a new in-memory quote record store.
func NewQuoteRecordStore() *QuoteRecordStore {
	return &QuoteRecordStore{
		data: make(map[string]*domain.QuoteRecord),
	}
}

// InsertBulk adds multiple quotes atomically. Fails entire batch on any duplicate.
func (s *QuoteRecordStore) InsertBulk(_ context.Context, quotes []*domain.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(quotes))

	// First pass: check for duplicates (existing + intra-batch)
	for _, q := range quotes {
		if q == nil || q.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[q.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[q.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[q.ID] = struct{}{}
	}

	// Second pass: insert all
	for _, q := range quotes {
		copy := *q
		s.data[q.ID] = &copy
	}

	return nil
}

// GetByPool retrieves quotes of a pool within [start, end] (inclusive), ordered by timestamp ASC.
func (s *QuoteRecordStore) GetByPool(_ context.Context, pool string, start, end int64) ([]*domain.QuoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.QuoteRecord
	for _, q := range s.data {
		if q.Pool == pool && q.Timestamp >= start && q.Timestamp <= end {
			copy := *q
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.QuoteRecordStore = (*QuoteRecordStore)(nil)
