package dex

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/layout"
	"solana-swap-adapters/internal/pricing"
)

// clmmTickArrays is how many tick arrays a swap passes, starting at the
// current one and stepping in the swap direction.
const clmmTickArrays = 3

var memoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// raydiumCLMM is the Raydium concentrated-liquidity venue.
type raydiumCLMM struct {
	program solana.PublicKey
}

// clmmMints is the token program of each pool mint, read while quoting.
type clmmMints struct {
	program0, program1 solana.PublicKey
}

func newRaydiumCLMM(program solana.PublicKey) *raydiumCLMM {
	return &raydiumCLMM{program: program}
}

func (v *raydiumCLMM) id() domain.VenueID { return domain.VenueRaydiumCLMM }

func (v *raydiumCLMM) rawInstructions() bool { return true }

func (v *raydiumCLMM) query() poolQuery {
	return poolQuery{
		program:     v.program,
		dataSize:    layout.CLMMPoolSize,
		mintAOffset: layout.CLMMMint0Offset,
		mintBOffset: layout.CLMMMint1Offset,
	}
}

func (v *raydiumCLMM) decode(key solana.PublicKey, data []byte) (*domain.PoolDescriptor, error) {
	p, err := layout.DecodeCLMMPool(data)
	if err != nil {
		return nil, err
	}
	return &domain.PoolDescriptor{
		Address: key,
		Venue:   v.id(),
		MintA:   p.TokenMint0,
		MintB:   p.TokenMint1,
		Active:  p.Active(),
		Rank:    new(big.Int).Set(p.Liquidity),
		State:   p,
	}, nil
}

// quote prices against the active range. A Token-2022 input mint withholds
// its transfer fee for the current epoch before the pool sees the amount.
func (v *raydiumCLMM) quote(ctx context.Context, l chain.Ledger, pool *domain.PoolDescriptor, from solana.PublicKey, amount uint64, slippageBps uint32) (*pricedSwap, error) {
	p := pool.State.(*layout.CLMMPool)

	accounts, err := l.GetMultipleAccounts(ctx, p.AmmConfig, p.TokenMint0, p.TokenMint1)
	if err != nil {
		return nil, fmt.Errorf("get pool accounts: %w", err)
	}
	for i, name := range []string{"amm config", "mint 0", "mint 1"} {
		if accounts[i] == nil {
			return nil, fmt.Errorf("%s of pool %s not found", name, pool.Address)
		}
	}
	cfg, err := layout.DecodeCLMMConfig(accounts[0].Data)
	if err != nil {
		return nil, fmt.Errorf("decode amm config: %w", err)
	}

	aToB := pool.AToB(from)
	inMintAcc := accounts[1]
	if !aToB {
		inMintAcc = accounts[2]
	}
	inMint, err := layout.DecodeMint(inMintAcc.Data)
	if err != nil {
		return nil, fmt.Errorf("decode input mint: %w", err)
	}

	var transferFee uint64
	if inMint.HasTransferFee {
		epoch, err := l.GetEpochInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("get epoch info: %w", err)
		}
		if f := inMint.TransferFeeAt(epoch.Epoch); f != nil {
			transferFee = pricing.TransferFee(amount, f.BasisPoints, f.MaximumFee)
		}
	}
	if transferFee >= amount {
		return nil, fmt.Errorf("price %s: %w: transfer fee consumes the input", pool.Address, pricing.ErrInsufficientLiquidity)
	}

	res, err := pricing.ConcentratedOut(amount-transferFee, p.Liquidity, p.SqrtPriceX64, aToB, uint64(cfg.TradeFeeRate))
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", pool.Address, err)
	}

	q := newQuote(v.id(), pool, from, amount, slippageBps)
	q.ExpectedOut = res.AmountOut
	q.MinOut = pricing.ApplySlippagePercent(res.AmountOut, pricing.BpsToPercent(slippageBps))
	q.FeeRatePPM = uint64(cfg.TradeFeeRate)
	q.TransferFee = transferFee

	return &pricedSwap{
		pool:  pool,
		quote: q,
		aux:   &clmmMints{program0: accounts[1].Owner, program1: accounts[2].Owner},
	}, nil
}

type clmmSwapV2Args struct {
	Amount               uint64
	OtherAmountThreshold uint64
	SqrtPriceLimitX64    [16]byte
	IsBaseInput          bool
}

func (v *raydiumCLMM) build(_ context.Context, _ chain.Ledger, owner solana.PublicKey, ps *pricedSwap) (*swapPlan, error) {
	p := ps.pool.State.(*layout.CLMMPool)
	mints := ps.aux.(*clmmMints)
	q := ps.quote
	aToB := ps.aToB()

	in := tokenLeg{mint: p.TokenMint0, program: mints.program0}
	out := tokenLeg{mint: p.TokenMint1, program: mints.program1}
	inVault, outVault := p.TokenVault0, p.TokenVault1
	if !aToB {
		in, out = out, in
		inVault, outVault = outVault, inVault
	}

	user, err := associatedAccounts(owner, in, out, q.AmountIn)
	if err != nil {
		return nil, err
	}

	remaining, err := v.tickAccounts(ps.pool.Address, p, aToB)
	if err != nil {
		return nil, err
	}

	// A zero price limit lets the program use the range bound.
	data, err := anchorData("swap_v2", &clmmSwapV2Args{
		Amount:               q.AmountIn,
		OtherAmountThreshold: q.MinOut,
		IsBaseInput:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap: %w", err)
	}

	accounts := solana.AccountMetaSlice{
		signer(owner),
		readonly(p.AmmConfig),
		writable(ps.pool.Address),
		writable(user.in),
		writable(user.out),
		writable(inVault),
		writable(outVault),
		writable(p.ObservationKey),
		readonly(solana.TokenProgramID),
		readonly(layout.Token2022ProgramID),
		readonly(memoProgramID),
		readonly(in.mint),
		readonly(out.mint),
	}
	accounts = append(accounts, remaining...)

	swap := solana.NewInstruction(v.program, accounts, data)
	return &swapPlan{instructions: user.wrap(swap)}, nil
}

// tickAccounts returns the bitmap extension and the tick arrays a swap
// walks, current array first.
func (v *raydiumCLMM) tickAccounts(pool solana.PublicKey, p *layout.CLMMPool, aToB bool) ([]*solana.AccountMeta, error) {
	ext, _, err := chain.FindProgramAddress([][]byte{[]byte("pool_tick_array_bitmap_extension"), pool.Bytes()}, v.program)
	if err != nil {
		return nil, fmt.Errorf("derive tick bitmap extension: %w", err)
	}
	metas := []*solana.AccountMeta{writable(ext)}

	span := int32(p.TickSpacing) * layout.CLMMTickArraySize
	if aToB {
		span = -span
	}
	start := layout.CLMMTickArrayStart(p.TickCurrent, p.TickSpacing)
	for i := 0; i < clmmTickArrays; i++ {
		idx := make([]byte, 4)
		binary.BigEndian.PutUint32(idx, uint32(start+int32(i)*span))
		addr, _, err := chain.FindProgramAddress([][]byte{[]byte("tick_array"), pool.Bytes(), idx}, v.program)
		if err != nil {
			return nil, fmt.Errorf("derive tick array: %w", err)
		}
		metas = append(metas, writable(addr))
	}
	return metas, nil
}
