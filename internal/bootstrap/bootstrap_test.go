package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-adapters/internal/config"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/observability"
	"solana-swap-adapters/internal/storage"
)

func TestOpenJournals_MemoryByDefault(t *testing.T) {
	m := observability.NewMetrics("test", prometheus.NewRegistry())
	j, err := OpenJournals(context.Background(), config.JournalConfig{}, m, zerolog.Nop())
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Swaps.Insert(context.Background(), &domain.SwapRecord{ID: "a", Signature: "s"}))
	_, err = j.Swaps.GetBySignature(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NotNil(t, j.Quotes)
}

func TestOpenJournals_BadPostgresDSN(t *testing.T) {
	m := observability.NewMetrics("test", prometheus.NewRegistry())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := OpenJournals(ctx, config.JournalConfig{PostgresDSN: "://not a dsn"}, m, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	cfg := config.Default()
	network, err := cfg.Network()
	require.NoError(t, err)

	r := NewRegistry(cfg, network, nil, observability.NewMetrics("test", prometheus.NewRegistry()), zerolog.Nop())
	assert.Equal(t, domain.Venues(), r.Venues())
	assert.Equal(t, config.Mainnet, r.Network().Cluster)
}
