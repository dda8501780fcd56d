package dex

import (
	"context"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/layout"
	"solana-swap-adapters/internal/pricing"
)

const raydiumAMMSwapBaseIn uint8 = 9

// raydiumAMM is the Raydium AMM v4 constant-product venue. Its swaps settle
// through an OpenBook market, and wrapped SOL moves through a throwaway
// token account the transaction creates and closes.
type raydiumAMM struct {
	program solana.PublicKey
	newKey  func() (solana.PrivateKey, error)
}

func newRaydiumAMM(program solana.PublicKey) *raydiumAMM {
	return &raydiumAMM{program: program, newKey: solana.NewRandomPrivateKey}
}

func (v *raydiumAMM) id() domain.VenueID { return domain.VenueRaydiumAMM }

func (v *raydiumAMM) rawInstructions() bool { return false }

func (v *raydiumAMM) query() poolQuery {
	return poolQuery{
		program:     v.program,
		dataSize:    layout.AMMv4Size,
		mintAOffset: layout.AMMv4BaseMintOffset,
		mintBOffset: layout.AMMv4QuoteMintOffset,
	}
}

func (v *raydiumAMM) decode(key solana.PublicKey, data []byte) (*domain.PoolDescriptor, error) {
	s, err := layout.DecodeLiquidityStateV4(data)
	if err != nil {
		return nil, err
	}
	return &domain.PoolDescriptor{
		Address: key,
		Venue:   v.id(),
		MintA:   s.BaseMint,
		MintB:   s.QuoteMint,
		Active:  s.Active(),
		State:   s,
	}, nil
}

func (v *raydiumAMM) quote(ctx context.Context, l chain.Ledger, pool *domain.PoolDescriptor, from solana.PublicKey, amount uint64, slippageBps uint32) (*pricedSwap, error) {
	s := pool.State.(*layout.LiquidityStateV4)

	balances, err := tokenBalances(ctx, l, s.BaseVault, s.QuoteVault)
	if err != nil {
		return nil, err
	}
	base := saturatingSub(balances[0], s.BaseNeedTakePnl)
	quote := saturatingSub(balances[1], s.QuoteNeedTakePnl)

	reserveIn, reserveOut := base, quote
	if !pool.AToB(from) {
		reserveIn, reserveOut = quote, base
	}

	res, err := pricing.ConstantProductOut(amount, reserveIn, reserveOut, s.SwapFeeNumerator, s.SwapFeeDenominator)
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", pool.Address, err)
	}

	q := newQuote(v.id(), pool, from, amount, slippageBps)
	q.ExpectedOut = res.AmountOut
	q.MinOut = pricing.ApplySlippagePercent(res.AmountOut, pricing.BpsToPercent(slippageBps))
	if s.SwapFeeDenominator > 0 {
		q.FeeRatePPM = s.SwapFeeNumerator * pricing.FeeRateDenominator / s.SwapFeeDenominator
	}
	return &pricedSwap{pool: pool, quote: q}, nil
}

type raydiumAMMSwapArgs struct {
	Instruction uint8
	AmountIn    uint64
	MinOut      uint64
}

func (v *raydiumAMM) build(ctx context.Context, l chain.Ledger, owner solana.PublicKey, ps *pricedSwap) (*swapPlan, error) {
	s := ps.pool.State.(*layout.LiquidityStateV4)
	q := ps.quote

	marketAcc, err := l.GetAccountInfo(ctx, s.MarketID)
	if err != nil {
		return nil, fmt.Errorf("get market %s: %w", s.MarketID, err)
	}
	if marketAcc == nil {
		return nil, fmt.Errorf("market %s not found", s.MarketID)
	}
	market, err := layout.DecodeMarketStateV3(marketAcc.Data)
	if err != nil {
		return nil, fmt.Errorf("decode market %s: %w", s.MarketID, err)
	}

	authority, _, err := chain.FindProgramAddress([][]byte{[]byte("amm authority")}, v.program)
	if err != nil {
		return nil, fmt.Errorf("derive amm authority: %w", err)
	}
	vaultSigner, err := chain.CreateProgramAddress(
		[][]byte{s.MarketID.Bytes(), binary.LittleEndian.AppendUint64(nil, market.VaultSignerNonce)},
		s.MarketProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive market vault signer: %w", err)
	}

	plan := &swapPlan{}
	var pre, post []solana.Instruction

	account := func(mint solana.PublicKey, fund uint64) (solana.PublicKey, error) {
		if mint.Equals(solana.WrappedSol) {
			key, setup, closeIx, err := ephemeralWSOL(owner, fund, v.newKey)
			if err != nil {
				return solana.PublicKey{}, err
			}
			plan.signers = append(plan.signers, key)
			pre = append(pre, setup...)
			post = append(post, closeIx)
			return key.PublicKey(), nil
		}
		ata, err := chain.AssociatedTokenAddress(owner, mint, solana.TokenProgramID)
		if err != nil {
			return solana.PublicKey{}, err
		}
		pre = append(pre, createATAIdempotent(owner, ata, owner, mint, solana.TokenProgramID))
		return ata, nil
	}

	source, err := account(q.InputMint, q.AmountIn)
	if err != nil {
		return nil, err
	}
	dest, err := account(q.OutputMint, 0)
	if err != nil {
		return nil, err
	}

	data, err := bin.MarshalBorsh(&raydiumAMMSwapArgs{
		Instruction: raydiumAMMSwapBaseIn,
		AmountIn:    q.AmountIn,
		MinOut:      q.MinOut,
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap: %w", err)
	}

	swap := solana.NewInstruction(v.program, solana.AccountMetaSlice{
		readonly(solana.TokenProgramID),
		writable(ps.pool.Address),
		readonly(authority),
		writable(s.OpenOrders),
		writable(s.TargetOrders),
		writable(s.BaseVault),
		writable(s.QuoteVault),
		readonly(s.MarketProgramID),
		writable(s.MarketID),
		writable(market.Bids),
		writable(market.Asks),
		writable(market.EventQueue),
		writable(market.BaseVault),
		writable(market.QuoteVault),
		readonly(vaultSigner),
		writable(source),
		writable(dest),
		signer(owner),
	}, data)

	plan.instructions = append(append(pre, swap), post...)
	return plan, nil
}
