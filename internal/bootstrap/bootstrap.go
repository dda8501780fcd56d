// Package bootstrap wires configuration into the journal stores and the
// adapter registry shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/config"
	"solana-swap-adapters/internal/dex"
	"solana-swap-adapters/internal/observability"
	"solana-swap-adapters/internal/storage"
	chstore "solana-swap-adapters/internal/storage/clickhouse"
	"solana-swap-adapters/internal/storage/memory"
	"solana-swap-adapters/internal/storage/migrations"
	pgstore "solana-swap-adapters/internal/storage/postgres"
)

// Journals holds the swap and quote record stores.
type Journals struct {
	Swaps  storage.SwapRecordStore
	Quotes storage.QuoteRecordStore

	closers []func()
}

// Close releases database connections.
func (j *Journals) Close() {
	for i := len(j.closers) - 1; i >= 0; i-- {
		j.closers[i]()
	}
}

// OpenJournals connects the configured backends, applying migrations first.
// An empty DSN selects the in-memory store for that journal.
func OpenJournals(ctx context.Context, cfg config.JournalConfig, m *observability.Metrics, log zerolog.Logger) (*Journals, error) {
	j := &Journals{}

	if cfg.PostgresDSN == "" {
		j.Swaps = storage.ObserveSwaps(memory.NewSwapRecordStore(), "memory", m)
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		j.closers = append(j.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			j.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		j.Swaps = storage.ObserveSwaps(pgstore.NewSwapRecordStore(pool), "postgres", m)
		log.Info().Msg("swap journal: postgres")
	}

	if cfg.ClickHouseDSN == "" {
		j.Quotes = storage.ObserveQuotes(memory.NewQuoteRecordStore(), "memory", m)
	} else {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			j.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		j.closers = append(j.closers, func() { _ = conn.Close() })
		j.Quotes = storage.ObserveQuotes(chstore.NewQuoteRecordStore(conn), "clickhouse", m)
		log.Info().Msg("quote journal: clickhouse")
	}

	return j, nil
}

// NewRegistry builds the adapter registry for cfg. The ledger is dialed by
// the registry on first use.
func NewRegistry(cfg *config.Config, network config.Network, j *Journals, m *observability.Metrics, log zerolog.Logger) *dex.Registry {
	rpcOpts := []chain.ClientOption{
		chain.WithMaxRetries(cfg.RPC.MaxRetries),
	}
	if cfg.RPC.Timeout.Duration > 0 {
		rpcOpts = append(rpcOpts, chain.WithTimeout(cfg.RPC.Timeout.Duration))
	}
	if cfg.RPC.Commitment != "" {
		rpcOpts = append(rpcOpts, chain.WithCommitment(cfg.RPC.Commitment))
	}

	opts := []dex.RegistryOption{
		dex.WithLogger(log),
		dex.WithMetrics(m),
		dex.WithRPCOptions(rpcOpts...),
	}
	if cfg.Swap.PriorityMicroLamports > 0 {
		opts = append(opts, dex.WithPriorityPrice(cfg.Swap.PriorityMicroLamports))
	}
	if j != nil {
		opts = append(opts, dex.WithSwapJournal(j.Swaps), dex.WithQuoteJournal(j.Quotes))
	}
	return dex.NewRegistry(network, opts...)
}
