// Package main is a command-line client for the swap adapters.
//
// Usage:
//
//	swapctl venues
//	swapctl quote -venue raydium-cpmm -from <mint> -to <mint> -amount 1000000
//	swapctl swap  -venue raydium-clmm -from <mint> -to <mint> -amount 1000000 -wait
//	swapctl buy   -venue meteora-dlmm -token <mint> -amount 1000000
//	swapctl sell  -venue meteora-dlmm -token <mint> -amount 1000000 -dry-run
//	swapctl history -wallet <pubkey> -since 72h
//
// SECRET_KEY signs swaps; IS_DEV_CLUSTER=true selects devnet.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

var errUsage = errors.New("usage: swapctl <venues|quote|swap|buy|sell|history> [flags]")

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		stop()
		logger.Fatal().Err(err).Msg("swapctl failed")
	}
}

func run(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "venues":
		return runVenues(out)
	case "quote":
		return runQuote(ctx, rest, out, logger)
	case "swap":
		return runSwap(ctx, rest, out, logger)
	case "buy", "sell":
		return runTrade(ctx, cmd, rest, out, logger)
	case "history":
		return runHistory(ctx, rest, out, logger)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}
