package dex

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"

	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/layout"
	"solana-swap-adapters/internal/pricing"
)

// dlmmBinArrays is how many bin arrays a quote reads, starting at the one
// holding the active bin.
const dlmmBinArrays = 3

// meteoraDLMM is the Meteora discretized-liquidity venue.
type meteoraDLMM struct {
	program solana.PublicKey
}

// dlmmPath is the bin arrays a quote walked; the swap passes them on.
type dlmmPath struct {
	binArrays []solana.PublicKey
}

func newMeteoraDLMM(program solana.PublicKey) *meteoraDLMM {
	return &meteoraDLMM{program: program}
}

func (v *meteoraDLMM) id() domain.VenueID { return domain.VenueMeteoraDLMM }

func (v *meteoraDLMM) rawInstructions() bool { return true }

func (v *meteoraDLMM) query() poolQuery {
	return poolQuery{
		program:     v.program,
		dataSize:    layout.LbPairSize,
		mintAOffset: layout.LbPairTokenXOffset,
		mintBOffset: layout.LbPairTokenYOffset,
	}
}

func (v *meteoraDLMM) decode(key solana.PublicKey, data []byte) (*domain.PoolDescriptor, error) {
	p, err := layout.DecodeLbPair(data)
	if err != nil {
		return nil, err
	}
	return &domain.PoolDescriptor{
		Address: key,
		Venue:   v.id(),
		MintA:   p.TokenXMint,
		MintB:   p.TokenYMint,
		Active:  p.Active(),
		Rank:    big.NewInt(int64(p.BinStep)),
		State:   p,
	}, nil
}

func (v *meteoraDLMM) quote(ctx context.Context, l chain.Ledger, pool *domain.PoolDescriptor, from solana.PublicKey, amount uint64, slippageBps uint32) (*pricedSwap, error) {
	p := pool.State.(*layout.LbPair)
	swapForY := pool.AToB(from)

	keys, err := v.binArrayKeys(pool.Address, p.ActiveID, swapForY)
	if err != nil {
		return nil, err
	}
	accounts, err := l.GetMultipleAccounts(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("get bin arrays: %w", err)
	}

	var bins []pricing.Bin
	var used []solana.PublicKey
	for i, acc := range accounts {
		if acc == nil {
			continue
		}
		arr, err := layout.DecodeBinArray(acc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode bin array %s: %w", keys[i], err)
		}
		used = append(used, keys[i])
		for _, b := range arr.Bins {
			if (swapForY && b.ID > p.ActiveID) || (!swapForY && b.ID < p.ActiveID) {
				continue
			}
			bins = append(bins, pricing.Bin{ID: b.ID, AmountX: b.AmountX, AmountY: b.AmountY, Price: b.Price})
		}
	}
	if len(used) == 0 {
		return nil, fmt.Errorf("price %s: %w: no bin arrays around active bin %d", pool.Address, pricing.ErrInsufficientLiquidity, p.ActiveID)
	}

	// Selling X walks prices down, selling Y walks them up.
	sort.Slice(bins, func(i, j int) bool {
		if swapForY {
			return bins[i].ID > bins[j].ID
		}
		return bins[i].ID < bins[j].ID
	})

	feeRate := pricing.DLMMFeeRate(p.BaseFactor, p.BinStep, p.BaseFeePowerFactor, p.VolatilityAccumulator, p.VariableFeeControl)
	res, err := pricing.BinSwap(amount, bins, swapForY, feeRate)
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", pool.Address, err)
	}

	q := newQuote(v.id(), pool, from, amount, slippageBps)
	q.ExpectedOut = res.AmountOut
	q.MinOut = pricing.ApplySlippageBps(res.AmountOut, slippageBps)
	q.FeeRatePPM = feeRate / (pricing.DLMMFeePrecision / pricing.FeeRateDenominator)

	return &pricedSwap{pool: pool, quote: q, aux: &dlmmPath{binArrays: used}}, nil
}

// binArrayKeys derives the active bin array and the next ones in the swap
// direction.
func (v *meteoraDLMM) binArrayKeys(pair solana.PublicKey, activeID int32, swapForY bool) ([]solana.PublicKey, error) {
	step := int64(1)
	if swapForY {
		step = -1
	}
	start := layout.BinArrayIndex(activeID)

	keys := make([]solana.PublicKey, dlmmBinArrays)
	for i := range keys {
		idx := binary.LittleEndian.AppendUint64(nil, uint64(start+int64(i)*step))
		addr, _, err := chain.FindProgramAddress([][]byte{[]byte("bin_array"), pair.Bytes(), idx}, v.program)
		if err != nil {
			return nil, fmt.Errorf("derive bin array: %w", err)
		}
		keys[i] = addr
	}
	return keys, nil
}

type dlmmSwapArgs struct {
	AmountIn     uint64
	MinAmountOut uint64
}

func dlmmTokenProgram(flag uint8) solana.PublicKey {
	if flag == 1 {
		return layout.Token2022ProgramID
	}
	return solana.TokenProgramID
}

func (v *meteoraDLMM) build(_ context.Context, _ chain.Ledger, owner solana.PublicKey, ps *pricedSwap) (*swapPlan, error) {
	p := ps.pool.State.(*layout.LbPair)
	path := ps.aux.(*dlmmPath)
	q := ps.quote

	legX := tokenLeg{mint: p.TokenXMint, program: dlmmTokenProgram(p.TokenXProgramFlag)}
	legY := tokenLeg{mint: p.TokenYMint, program: dlmmTokenProgram(p.TokenYProgramFlag)}
	in, out := legX, legY
	if !ps.aToB() {
		in, out = legY, legX
	}
	user, err := associatedAccounts(owner, in, out, q.AmountIn)
	if err != nil {
		return nil, err
	}

	eventAuthority, _, err := chain.FindProgramAddress([][]byte{[]byte("__event_authority")}, v.program)
	if err != nil {
		return nil, fmt.Errorf("derive event authority: %w", err)
	}

	data, err := anchorData("swap", &dlmmSwapArgs{AmountIn: q.AmountIn, MinAmountOut: q.MinOut})
	if err != nil {
		return nil, fmt.Errorf("encode swap: %w", err)
	}

	// Optional accounts are passed as the program id.
	accounts := solana.AccountMetaSlice{
		writable(ps.pool.Address),
		readonly(v.program),
		writable(p.ReserveX),
		writable(p.ReserveY),
		writable(user.in),
		writable(user.out),
		readonly(p.TokenXMint),
		readonly(p.TokenYMint),
		writable(p.Oracle),
		readonly(v.program),
		signer(owner),
		readonly(legX.program),
		readonly(legY.program),
		readonly(eventAuthority),
		readonly(v.program),
	}
	for _, key := range path.binArrays {
		accounts = append(accounts, writable(key))
	}

	swap := solana.NewInstruction(v.program, accounts, data)
	return &swapPlan{instructions: user.wrap(swap)}, nil
}
