// Package dex exposes one Adapter per liquidity venue. Adapters find the
// best pool for a pair, quote against it and submit the swap; everything
// venue-specific sits behind the unexported venue interface.
package dex

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/fee"
	"solana-swap-adapters/internal/idhash"
	"solana-swap-adapters/internal/observability"
	"solana-swap-adapters/internal/storage"
	"solana-swap-adapters/internal/txn"
)

// Adapter is the common contract of every venue.
type Adapter interface {
	Venue() domain.VenueID

	// Quote prices amount of from against the best pool without submitting.
	Quote(ctx context.Context, from, to solana.PublicKey, amount uint64, slippageBps uint32) (*domain.SwapQuote, error)

	// Swap prices, signs and submits req once.
	Swap(ctx context.Context, req *domain.SwapRequest) (*domain.SwapResult, error)

	// Buy spends InputMint for OutputMint.
	Buy(ctx context.Context, req *domain.TradeRequest) (*domain.SwapResult, error)

	// Sell spends OutputMint for InputMint.
	Sell(ctx context.Context, req *domain.TradeRequest) (*domain.SwapResult, error)

	// BuyInstructions and SellInstructions return the swap instructions
	// without fee transfers, compute budget or submission. They fail with
	// ErrNotImplemented unless SupportsInstructions reports true.
	BuyInstructions(ctx context.Context, req *domain.TradeRequest) ([]solana.Instruction, error)
	SellInstructions(ctx context.Context, req *domain.TradeRequest) ([]solana.Instruction, error)
	SupportsInstructions() bool
}

type ledgerRef struct {
	chain.Ledger
}

// ledgerHandle dials the ledger on first use. Concurrent first callers may
// both dial; the first stored client wins and the others are dropped.
type ledgerHandle struct {
	current atomic.Pointer[ledgerRef]
	dial    func() chain.Ledger
}

func (h *ledgerHandle) get() chain.Ledger {
	if ref := h.current.Load(); ref != nil {
		return ref.Ledger
	}
	ref := &ledgerRef{Ledger: h.dial()}
	if !h.current.CompareAndSwap(nil, ref) {
		return h.current.Load().Ledger
	}
	return ref.Ledger
}

// swapper implements Adapter on top of a venue.
type swapper struct {
	venue         venue
	ledger        *ledgerHandle
	locator       *locator
	log           zerolog.Logger
	metrics       *observability.Metrics
	swaps         storage.SwapRecordStore
	quotes        storage.QuoteRecordStore
	priorityPrice uint64
	now           func() time.Time
}

var _ Adapter = (*swapper)(nil)

func (s *swapper) Venue() domain.VenueID {
	return s.venue.id()
}

func (s *swapper) SupportsInstructions() bool {
	return s.venue.rawInstructions()
}

func (s *swapper) Quote(ctx context.Context, from, to solana.PublicKey, amount uint64, slippageBps uint32) (*domain.SwapQuote, error) {
	switch {
	case amount == 0:
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case from.IsZero() || to.IsZero():
		return nil, fmt.Errorf("%w: both mints are required", ErrInvalidRequest)
	case from.Equals(to):
		return nil, fmt.Errorf("%w: input and output mint are the same", ErrInvalidRequest)
	case slippageBps > domain.MaxSlippageBps:
		return nil, fmt.Errorf("%w: slippage %d bps exceeds %d", ErrInvalidRequest, slippageBps, domain.MaxSlippageBps)
	}

	ps, err := s.price(ctx, s.ledger.get(), from, to, amount, slippageBps)
	if err != nil {
		return nil, err
	}
	return ps.quote, nil
}

func (s *swapper) Swap(ctx context.Context, req *domain.SwapRequest) (*domain.SwapResult, error) {
	return s.swap(ctx, req, domain.SwapSideSwap)
}

func (s *swapper) Buy(ctx context.Context, req *domain.TradeRequest) (*domain.SwapResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	return s.swap(ctx, req.BuySwap(), domain.SwapSideBuy)
}

func (s *swapper) Sell(ctx context.Context, req *domain.TradeRequest) (*domain.SwapResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	return s.swap(ctx, req.SellSwap(), domain.SwapSideSell)
}

func (s *swapper) BuyInstructions(ctx context.Context, req *domain.TradeRequest) ([]solana.Instruction, error) {
	if !s.SupportsInstructions() {
		return nil, fmt.Errorf("%w: %s raw instructions", ErrNotImplemented, s.venue.id())
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	return s.instructions(ctx, req.BuySwap())
}

func (s *swapper) SellInstructions(ctx context.Context, req *domain.TradeRequest) ([]solana.Instruction, error) {
	if !s.SupportsInstructions() {
		return nil, fmt.Errorf("%w: %s raw instructions", ErrNotImplemented, s.venue.id())
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	return s.instructions(ctx, req.SellSwap())
}

func (s *swapper) instructions(ctx context.Context, req *domain.SwapRequest) ([]solana.Instruction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	l := s.ledger.get()

	ps, err := s.price(ctx, l, req.InputMint, req.OutputMint, req.Amount, req.SlippageBps)
	if err != nil {
		return nil, err
	}
	plan, err := s.venue.build(ctx, l, req.Owner(), ps)
	if err != nil {
		return nil, fmt.Errorf("build %s swap: %w", s.venue.id(), err)
	}
	return plan.instructions, nil
}

// price locates the pool and quotes against it. Every call reads fresh
// ledger state.
func (s *swapper) price(ctx context.Context, l chain.Ledger, from, to solana.PublicKey, amount uint64, slippageBps uint32) (*pricedSwap, error) {
	venueID := string(s.venue.id())

	pool, err := s.locator.locate(ctx, l, from, to)
	if err != nil {
		s.metrics.RecordQuote(venueID, err)
		return nil, err
	}
	ps, err := s.venue.quote(ctx, l, pool, from, amount, slippageBps)
	if err != nil {
		s.metrics.RecordQuote(venueID, err)
		return nil, fmt.Errorf("quote %s: %w", s.venue.id(), err)
	}
	s.metrics.RecordQuote(venueID, nil)

	s.recordQuote(ctx, ps.quote)
	return ps, nil
}

func (s *swapper) swap(ctx context.Context, req *domain.SwapRequest, side string) (*domain.SwapResult, error) {
	start := s.now()
	venueID := string(s.venue.id())

	if err := req.Validate(); err != nil {
		return nil, err
	}
	l := s.ledger.get()
	owner := req.Owner()

	ps, err := s.price(ctx, l, req.InputMint, req.OutputMint, req.Amount, req.SlippageBps)
	if err != nil {
		s.metrics.RecordSwap(venueID, side, s.now().Sub(start), err)
		return nil, err
	}

	plan, err := s.venue.build(ctx, l, owner, ps)
	if err != nil {
		s.metrics.RecordSwap(venueID, side, s.now().Sub(start), err)
		return nil, fmt.Errorf("build %s swap: %w", s.venue.id(), err)
	}

	feeIxs, transfers, err := fee.Build(owner, req.Fee)
	if err != nil {
		s.metrics.RecordSwap(venueID, side, s.now().Sub(start), err)
		return nil, fmt.Errorf("build fee transfers: %w", err)
	}
	ixs := append(plan.instructions, feeIxs...)

	dispatcher := txn.NewDispatcher(l, txn.WithLogger(s.log), txn.WithPriorityPrice(s.priorityPrice))
	sig, err := dispatcher.Send(ctx, req.Signer, txn.Instructions(ixs...), txn.SendOptions{
		Priority:     req.Priority,
		ExtraSigners: plan.signers,
	})
	s.metrics.RecordSwap(venueID, side, s.now().Sub(start), err)
	if err != nil {
		return nil, err
	}

	for _, t := range transfers {
		s.metrics.RecordFeeTransfer(t.Referral, t.Lamports)
	}

	q := ps.quote
	s.log.Info().
		Str("venue", venueID).
		Str("side", side).
		Str("pool", q.Pool.String()).
		Str("signature", sig.String()).
		Uint64("amount_in", q.AmountIn).
		Uint64("expected_out", q.ExpectedOut).
		Uint64("min_out", q.MinOut).
		Msg("swap submitted")

	s.recordSwap(ctx, owner, side, sig, q, fee.Paid(transfers))

	return &domain.SwapResult{Signature: sig, Quote: q, Fees: transfers}, nil
}

// recordQuote journals a quote. Failures are logged only.
func (s *swapper) recordQuote(ctx context.Context, q *domain.SwapQuote) {
	if s.quotes == nil {
		return
	}
	ts := s.now().UnixMilli()
	rec := domain.NewQuoteRecord(q, ts)
	rec.ID = idhash.ComputeQuoteID(q.Venue, rec.Pool, rec.InputMint, q.AmountIn, ts)
	if err := s.quotes.InsertBulk(ctx, []*domain.QuoteRecord{&rec}); err != nil {
		s.log.Warn().Err(err).Str("venue", string(q.Venue)).Msg("quote journal write failed")
	}
}

// recordSwap journals a submitted swap. The transaction is already out, so
// failures are logged and never returned.
func (s *swapper) recordSwap(ctx context.Context, owner solana.PublicKey, side string, sig solana.Signature, q *domain.SwapQuote, feeLamports uint64) {
	if s.swaps == nil {
		return
	}
	rec := &domain.SwapRecord{
		ID:          idhash.ComputeSwapID(q.Venue, sig.String()),
		Signature:   sig.String(),
		Venue:       q.Venue,
		Pool:        q.Pool.String(),
		Wallet:      owner.String(),
		Side:        side,
		InputMint:   q.InputMint.String(),
		OutputMint:  q.OutputMint.String(),
		AmountIn:    q.AmountIn,
		ExpectedOut: q.ExpectedOut,
		MinOut:      q.MinOut,
		SlippageBps: q.SlippageBps,
		FeeLamports: feeLamports,
		SubmittedAt: s.now().UnixMilli(),
	}
	if err := s.swaps.Insert(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("signature", rec.Signature).Msg("swap journal write failed")
	}
}
