package storage

import (
	"context"

	"solana-swap-adapters/internal/domain"
)

// SwapRecordStore provides access to swap_records storage.
type SwapRecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.SwapRecord) error

	// GetBySignature retrieves a record by transaction signature. Returns ErrNotFound if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.SwapRecord, error)

	// GetByWallet retrieves records of a wallet submitted within [start, end] (inclusive),
	// ordered by submitted_at ASC.
	GetByWallet(ctx context.Context, wallet string, start, end int64) ([]*domain.SwapRecord, error)
}

// QuoteRecordStore provides access to quote_records storage.
type QuoteRecordStore interface {
	// InsertBulk adds multiple quotes. Fails entire batch on duplicate id.
	InsertBulk(ctx context.Context, quotes []*domain.QuoteRecord) error

	// GetByPool retrieves quotes of a pool within [start, end] (inclusive), ordered by timestamp ASC.
	GetByPool(ctx context.Context, pool string, start, end int64) ([]*domain.QuoteRecord, error)
}
