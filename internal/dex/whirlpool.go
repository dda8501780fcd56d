package dex

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/layout"
	"solana-swap-adapters/internal/pricing"
)

const whirlpoolTickArrays = 3

// whirlpool is the Orca concentrated-liquidity venue. Its swap instruction
// only moves SPL Token mints; pools holding a Token-2022 mint quote but do
// not build.
type whirlpool struct {
	program solana.PublicKey
}

func newWhirlpool(program solana.PublicKey) *whirlpool {
	return &whirlpool{program: program}
}

func (v *whirlpool) id() domain.VenueID { return domain.VenueOrcaWhirlpool }

func (v *whirlpool) rawInstructions() bool { return true }

func (v *whirlpool) query() poolQuery {
	return poolQuery{
		program:     v.program,
		dataSize:    layout.WhirlpoolSize,
		mintAOffset: layout.WhirlpoolMintAOffset,
		mintBOffset: layout.WhirlpoolMintBOffset,
	}
}

func (v *whirlpool) decode(key solana.PublicKey, data []byte) (*domain.PoolDescriptor, error) {
	w, err := layout.DecodeWhirlpool(data)
	if err != nil {
		return nil, err
	}
	return &domain.PoolDescriptor{
		Address: key,
		Venue:   v.id(),
		MintA:   w.TokenMintA,
		MintB:   w.TokenMintB,
		Active:  w.Initialized(),
		Rank:    new(big.Int).Set(w.Liquidity),
		State:   w,
	}, nil
}

// quote needs nothing beyond the pool account, so it makes no ledger calls.
func (v *whirlpool) quote(_ context.Context, _ chain.Ledger, pool *domain.PoolDescriptor, from solana.PublicKey, amount uint64, slippageBps uint32) (*pricedSwap, error) {
	w := pool.State.(*layout.Whirlpool)

	res, err := pricing.ConcentratedOut(amount, w.Liquidity, w.SqrtPrice, pool.AToB(from), uint64(w.FeeRate))
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", pool.Address, err)
	}

	q := newQuote(v.id(), pool, from, amount, slippageBps)
	q.ExpectedOut = res.AmountOut
	q.MinOut = pricing.ApplySlippageBps(res.AmountOut, slippageBps)
	q.FeeRatePPM = uint64(w.FeeRate)
	return &pricedSwap{pool: pool, quote: q}, nil
}

type whirlpoolSwapArgs struct {
	Amount                 uint64
	OtherAmountThreshold   uint64
	SqrtPriceLimit         [16]byte
	AmountSpecifiedIsInput bool
	AToB                   bool
}

func (v *whirlpool) build(ctx context.Context, l chain.Ledger, owner solana.PublicKey, ps *pricedSwap) (*swapPlan, error) {
	w := ps.pool.State.(*layout.Whirlpool)
	q := ps.quote
	aToB := ps.aToB()

	mints := []solana.PublicKey{w.TokenMintA, w.TokenMintB}
	owners, _, err := mintPrograms(ctx, l, mints...)
	if err != nil {
		return nil, err
	}
	for i, program := range owners {
		if !program.Equals(solana.TokenProgramID) {
			return nil, fmt.Errorf("%w: whirlpool swap of mint %s owned by %s", ErrNotImplemented, mints[i], program)
		}
	}

	legA := tokenLeg{mint: w.TokenMintA, program: solana.TokenProgramID}
	legB := tokenLeg{mint: w.TokenMintB, program: solana.TokenProgramID}
	in, out := legA, legB
	if !aToB {
		in, out = legB, legA
	}
	user, err := associatedAccounts(owner, in, out, q.AmountIn)
	if err != nil {
		return nil, err
	}
	ownerA, ownerB := user.in, user.out
	if !aToB {
		ownerA, ownerB = user.out, user.in
	}

	tickArrays, err := v.tickArrays(ps.pool.Address, w, aToB)
	if err != nil {
		return nil, err
	}
	oracle, _, err := chain.FindProgramAddress([][]byte{[]byte("oracle"), ps.pool.Address.Bytes()}, v.program)
	if err != nil {
		return nil, fmt.Errorf("derive oracle: %w", err)
	}

	limit := pricing.MaxSqrtPriceX64
	if aToB {
		limit = pricing.MinSqrtPriceX64
	}
	data, err := anchorData("swap", &whirlpoolSwapArgs{
		Amount:                 q.AmountIn,
		OtherAmountThreshold:   q.MinOut,
		SqrtPriceLimit:         le128(limit),
		AmountSpecifiedIsInput: true,
		AToB:                   aToB,
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap: %w", err)
	}

	swap := solana.NewInstruction(v.program, solana.AccountMetaSlice{
		readonly(solana.TokenProgramID),
		signer(owner),
		writable(ps.pool.Address),
		writable(ownerA),
		writable(w.TokenVaultA),
		writable(ownerB),
		writable(w.TokenVaultB),
		writable(tickArrays[0]),
		writable(tickArrays[1]),
		writable(tickArrays[2]),
		readonly(oracle),
	}, data)

	return &swapPlan{instructions: user.wrap(swap)}, nil
}

// tickArrays derives the arrays a swap crosses. Whirlpool seeds use the
// decimal start index.
func (v *whirlpool) tickArrays(pool solana.PublicKey, w *layout.Whirlpool, aToB bool) ([]solana.PublicKey, error) {
	span := int32(w.TickSpacing) * layout.WhirlpoolTickArraySize
	if aToB {
		span = -span
	}
	start := layout.WhirlpoolTickArrayStart(w.TickCurrentIndex, w.TickSpacing)

	out := make([]solana.PublicKey, whirlpoolTickArrays)
	for i := range out {
		seed := strconv.FormatInt(int64(start+int32(i)*span), 10)
		addr, _, err := chain.FindProgramAddress([][]byte{[]byte("tick_array"), pool.Bytes(), []byte(seed)}, v.program)
		if err != nil {
			return nil, fmt.Errorf("derive tick array: %w", err)
		}
		out[i] = addr
	}
	return out, nil
}
