package storage

import (
	"context"
	"time"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/observability"
)

// ObservedSwapRecordStore records query latency and errors of a backend.
type ObservedSwapRecordStore struct {
	next     SwapRecordStore
	database string
	metrics  *observability.Metrics
}

// ObserveSwaps wraps next so every call is reported under database.
func ObserveSwaps(next SwapRecordStore, database string, m *observability.Metrics) *ObservedSwapRecordStore {
	return &ObservedSwapRecordStore{next: next, database: database, metrics: m}
}

var _ SwapRecordStore = (*ObservedSwapRecordStore)(nil)

func (s *ObservedSwapRecordStore) Insert(ctx context.Context, r *domain.SwapRecord) error {
	start := time.Now()
	err := s.next.Insert(ctx, r)
	s.metrics.RecordDBQuery(s.database, "insert_swap", time.Since(start).Seconds(), err)
	return err
}

func (s *ObservedSwapRecordStore) GetBySignature(ctx context.Context, signature string) (*domain.SwapRecord, error) {
	start := time.Now()
	r, err := s.next.GetBySignature(ctx, signature)
	s.metrics.RecordDBQuery(s.database, "get_swap_by_signature", time.Since(start).Seconds(), err)
	return r, err
}

func (s *ObservedSwapRecordStore) GetByWallet(ctx context.Context, wallet string, start, end int64) ([]*domain.SwapRecord, error) {
	t := time.Now()
	rs, err := s.next.GetByWallet(ctx, wallet, start, end)
	s.metrics.RecordDBQuery(s.database, "get_swaps_by_wallet", time.Since(t).Seconds(), err)
	return rs, err
}

// ObservedQuoteRecordStore is the QuoteRecordStore counterpart of
// ObservedSwapRecordStore.
type ObservedQuoteRecordStore struct {
	next     QuoteRecordStore
	database string
	metrics  *observability.Metrics
}

func ObserveQuotes(next QuoteRecordStore, database string, m *observability.Metrics) *ObservedQuoteRecordStore {
	return &ObservedQuoteRecordStore{next: next, database: database, metrics: m}
}

var _ QuoteRecordStore = (*ObservedQuoteRecordStore)(nil)

func (s *ObservedQuoteRecordStore) InsertBulk(ctx context.Context, quotes []*domain.QuoteRecord) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, quotes)
	s.metrics.RecordDBQuery(s.database, "insert_quotes", time.Since(start).Seconds(), err)
	return err
}

func (s *ObservedQuoteRecordStore) GetByPool(ctx context.Context, pool string, start, end int64) ([]*domain.QuoteRecord, error) {
	t := time.Now()
	qs, err := s.next.GetByPool(ctx, pool, start, end)
	s.metrics.RecordDBQuery(s.database, "get_quotes_by_pool", time.Since(t).Seconds(), err)
	return qs, err
}
