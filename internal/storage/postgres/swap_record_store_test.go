package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/idhash"
	"solana-swap-adapters/internal/storage"
)

func newRecord(sig, wallet string, submittedAt int64) *domain.SwapRecord {
	return &domain.SwapRecord{
		ID:          idhash.ComputeSwapID(domain.VenueRaydiumCLMM, sig),
		Signature:   sig,
		Venue:       domain.VenueRaydiumCLMM,
		Pool:        "3ucNos4NbumPLZNWztqGHNFFgkHeRMBQAVemeeomsUxv",
		Wallet:      wallet,
		Side:        domain.SwapSideSell,
		InputMint:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		OutputMint:  "So11111111111111111111111111111111111111112",
		AmountIn:    18_446_744_073_709_551_615,
		ExpectedOut: 1_234_567,
		MinOut:      1_222_221,
		SlippageBps: 100,
		FeeLamports: 1_000_000,
		SubmittedAt: submittedAt,
	}
}

func TestSwapRecordStore_InsertAndGetBySignature(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)
	ctx := context.Background()

	rec := newRecord("sig-1", "wallet-1", 1704067200000)
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.GetBySignature(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestSwapRecordStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)
	ctx := context.Background()

	rec := newRecord("sig-1", "wallet-1", 1000)
	require.NoError(t, store.Insert(ctx, rec))

	err := store.Insert(ctx, rec)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSwapRecordStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)

	_, err := store.GetBySignature(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSwapRecordStore_GetByWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newRecord("sig-3", "wallet-1", 3000)))
	require.NoError(t, store.Insert(ctx, newRecord("sig-1", "wallet-1", 1000)))
	require.NoError(t, store.Insert(ctx, newRecord("sig-2", "wallet-1", 2000)))
	require.NoError(t, store.Insert(ctx, newRecord("sig-4", "wallet-2", 2000)))

	got, err := store.GetByWallet(ctx, "wallet-1", 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sig-1", got[0].Signature)
	assert.Equal(t, "sig-2", got[1].Signature)
}

func TestSwapRecordStore_RejectsUnknownSide(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)
	rec := newRecord("sig-side", "wallet-1", 1000)
	rec.Side = "hold"

	err := store.Insert(context.Background(), rec)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
