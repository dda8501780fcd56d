package clickhouse

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/storage"
)

const testPool = "Czfq3xZZDmsdGdUyrNLtRhGc47cXcZtLG4crryfu44zE"

func quote(id string, ts int64) *domain.QuoteRecord {
	return &domain.QuoteRecord{
		ID:          id,
		Venue:       domain.VenueOrcaWhirlpool,
		Pool:        testPool,
		InputMint:   "So11111111111111111111111111111111111111112",
		OutputMint:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		AmountIn:    1_000_000_000,
		ExpectedOut: 150_000_000,
		MinOut:      148_500_000,
		SlippageBps: 100,
		FeeRatePPM:  3000,
		Timestamp:   ts,
	}
}

func TestQuoteRecordStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewQuoteRecordStore(conn)
	ctx := context.Background()

	assert.NoError(t, store.InsertBulk(ctx, nil))

	var batch []*domain.QuoteRecord
	for i := 0; i < 3; i++ {
		batch = append(batch, quote(fmt.Sprintf("q-%d", i), int64(1000*(3-i))))
	}
	require.NoError(t, store.InsertBulk(ctx, batch))

	got, err := store.GetByPool(ctx, testPool, 0, 10_000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "q-2", got[0].ID)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.Equal(t, domain.VenueOrcaWhirlpool, got[0].Venue)
	assert.Equal(t, uint64(148_500_000), got[0].MinOut)
}

func TestQuoteRecordStore_InsertBulk_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewQuoteRecordStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.QuoteRecord{quote("q-1", 1), quote("q-1", 2)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	require.NoError(t, store.InsertBulk(ctx, []*domain.QuoteRecord{quote("q-1", 1)}))
	err = store.InsertBulk(ctx, []*domain.QuoteRecord{quote("q-2", 2), quote("q-1", 3)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// The failed batch must not be partially written.
	got, err := store.GetByPool(ctx, testPool, 0, 100)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestQuoteRecordStore_GetByPool_Range(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewQuoteRecordStore(conn)
	ctx := context.Background()

	other := quote("q-other", 1500)
	other.Pool = "other"
	require.NoError(t, store.InsertBulk(ctx, []*domain.QuoteRecord{
		quote("q-1", 1000), quote("q-2", 2000), quote("q-3", 3000), other,
	}))

	got, err := store.GetByPool(ctx, testPool, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q-1", got[0].ID)
	assert.Equal(t, "q-2", got[1].ID)
}
