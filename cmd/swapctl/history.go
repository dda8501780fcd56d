package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"solana-swap-adapters/internal/bootstrap"
	"solana-swap-adapters/internal/config"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/observability"
)

var errHistoryQuery = errors.New("history needs exactly one of -signature, -wallet or -pool")

// runHistory reads the swap and quote journals.
func runHistory(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to TOML config file")
	envFile := fs.String("env-file", ".env", "Environment file to load if present")
	signature := fs.String("signature", "", "Show the swap with this signature")
	wallet := fs.String("wallet", "", "List swaps of this wallet")
	pool := fs.String("pool", "", "List quotes observed on this pool")
	since := fs.Duration("since", 24*time.Hour, "How far back -wallet and -pool look")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := 0
	for _, v := range []string{*signature, *wallet, *pool} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return errHistoryQuery
	}
	if *signature != "" {
		if _, err := solana.SignatureFromBase58(*signature); err != nil {
			return fmt.Errorf("-signature: %w", err)
		}
	}
	for name, raw := range map[string]string{"wallet": *wallet, "pool": *pool} {
		if raw == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(raw); err != nil {
			return fmt.Errorf("-%s: %w", name, err)
		}
	}

	env, err := config.LoadEnv(*envFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	env.Apply(cfg)

	journals, err := bootstrap.OpenJournals(ctx, cfg.Journal, observability.DefaultMetrics, logger)
	if err != nil {
		return err
	}
	defer journals.Close()

	end := time.Now()
	start := end.Add(-*since).UnixMilli()

	switch {
	case *signature != "":
		rec, err := journals.Swaps.GetBySignature(ctx, *signature)
		if err != nil {
			return fmt.Errorf("swap %s: %w", *signature, err)
		}
		return printSwapRecord(out, rec)
	case *wallet != "":
		records, err := journals.Swaps.GetByWallet(ctx, *wallet, start, end.UnixMilli())
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := printSwapRecord(out, rec); err != nil {
				return err
			}
		}
		return nil
	default:
		records, err := journals.Quotes.GetByPool(ctx, *pool, start, end.UnixMilli())
		if err != nil {
			return err
		}
		for _, q := range records {
			if _, err := fmt.Fprintf(out, "%s  %-14s %s -> %s  in %d  expected %d  min %d\n",
				time.UnixMilli(q.Timestamp).UTC().Format(time.RFC3339), q.Venue,
				q.InputMint, q.OutputMint, q.AmountIn, q.ExpectedOut, q.MinOut); err != nil {
				return err
			}
		}
		return nil
	}
}

func printSwapRecord(out io.Writer, r *domain.SwapRecord) error {
	_, err := fmt.Fprintf(out, "%s  %-4s %-14s %s  in %d  min %d  fee %d  %s\n",
		time.UnixMilli(r.SubmittedAt).UTC().Format(time.RFC3339), r.Side, r.Venue,
		r.Pool, r.AmountIn, r.MinOut, r.FeeLamports, r.Signature)
	return err
}
