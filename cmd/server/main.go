// Package main runs the quote HTTP service: venue listing, quotes, the
// swap/quote journals, health and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"solana-swap-adapters/internal/api"
	"solana-swap-adapters/internal/bootstrap"
	"solana-swap-adapters/internal/config"
	"solana-swap-adapters/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	envFile := flag.String("env-file", ".env", "Environment file to load if present")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "server").Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	env, err := config.LoadEnv(*envFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("load environment")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	env.Apply(cfg)
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	network, err := cfg.Network()
	if err != nil {
		logger.Fatal().Err(err).Msg("resolve network")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.DefaultMetrics
	journals, err := bootstrap.OpenJournals(ctx, cfg.Journal, metrics, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open journals")
	}

	registry := bootstrap.NewRegistry(cfg, network, journals, metrics, logger)
	server, err := api.NewServer(api.Config{
		Addr:           cfg.Server.Addr,
		RatePerMinute:  cfg.Server.RatePerMinute,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		QuoteTimeout:   cfg.RPC.Timeout.Duration,
	}, registry, logger, metrics, api.WithJournals(journals.Swaps, journals.Quotes))
	if err != nil {
		journals.Close()
		logger.Fatal().Err(err).Msg("create server")
	}

	logger.Info().
		Str("cluster", string(network.Cluster)).
		Str("rpc", network.RPCEndpoint).
		Msg("serving quotes")

	err = server.Run(ctx)
	journals.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("shutdown complete")
}
