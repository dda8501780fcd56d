package dex

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/layout"
	"solana-swap-adapters/internal/pricing"
)

// raydiumCPMM is the Raydium constant-product venue with Token-2022 support.
type raydiumCPMM struct {
	program solana.PublicKey
}

func newRaydiumCPMM(program solana.PublicKey) *raydiumCPMM {
	return &raydiumCPMM{program: program}
}

func (v *raydiumCPMM) id() domain.VenueID { return domain.VenueRaydiumCPMM }

func (v *raydiumCPMM) rawInstructions() bool { return true }

func (v *raydiumCPMM) query() poolQuery {
	return poolQuery{
		program:     v.program,
		dataSize:    layout.CPMMPoolSize,
		mintAOffset: layout.CPMMToken0MintOffset,
		mintBOffset: layout.CPMMToken1MintOffset,
	}
}

func (v *raydiumCPMM) decode(key solana.PublicKey, data []byte) (*domain.PoolDescriptor, error) {
	p, err := layout.DecodeCPMMPool(data)
	if err != nil {
		return nil, err
	}
	return &domain.PoolDescriptor{
		Address: key,
		Venue:   v.id(),
		MintA:   p.Token0Mint,
		MintB:   p.Token1Mint,
		Active:  p.Active(),
		State:   p,
	}, nil
}

func (v *raydiumCPMM) quote(ctx context.Context, l chain.Ledger, pool *domain.PoolDescriptor, from solana.PublicKey, amount uint64, slippageBps uint32) (*pricedSwap, error) {
	p := pool.State.(*layout.CPMMPool)

	cfgAcc, err := l.GetAccountInfo(ctx, p.AmmConfig)
	if err != nil {
		return nil, fmt.Errorf("get amm config: %w", err)
	}
	if cfgAcc == nil {
		return nil, fmt.Errorf("amm config %s not found", p.AmmConfig)
	}
	cfg, err := layout.DecodeCPMMConfig(cfgAcc.Data)
	if err != nil {
		return nil, fmt.Errorf("decode amm config: %w", err)
	}

	balances, err := tokenBalances(ctx, l, p.Token0Vault, p.Token1Vault)
	if err != nil {
		return nil, err
	}
	reserve0 := saturatingSub(balances[0], p.ProtocolFeesToken0, p.FundFeesToken0)
	reserve1 := saturatingSub(balances[1], p.ProtocolFeesToken1, p.FundFeesToken1)

	reserveIn, reserveOut := reserve0, reserve1
	if !pool.AToB(from) {
		reserveIn, reserveOut = reserve1, reserve0
	}

	res, err := pricing.ConstantProductOut(amount, reserveIn, reserveOut, cfg.TradeFeeRate, pricing.FeeRateDenominator)
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", pool.Address, err)
	}

	q := newQuote(v.id(), pool, from, amount, slippageBps)
	q.ExpectedOut = res.AmountOut
	q.MinOut = pricing.ApplySlippagePercent(res.AmountOut, pricing.BpsToPercent(slippageBps))
	q.FeeRatePPM = cfg.TradeFeeRate
	return &pricedSwap{pool: pool, quote: q}, nil
}

type cpmmSwapArgs struct {
	AmountIn         uint64
	MinimumAmountOut uint64
}

func (v *raydiumCPMM) build(_ context.Context, _ chain.Ledger, owner solana.PublicKey, ps *pricedSwap) (*swapPlan, error) {
	p := ps.pool.State.(*layout.CPMMPool)
	q := ps.quote

	in := tokenLeg{mint: p.Token0Mint, program: p.Token0Program}
	out := tokenLeg{mint: p.Token1Mint, program: p.Token1Program}
	inVault, outVault := p.Token0Vault, p.Token1Vault
	if !ps.aToB() {
		in, out = out, in
		inVault, outVault = outVault, inVault
	}

	user, err := associatedAccounts(owner, in, out, q.AmountIn)
	if err != nil {
		return nil, err
	}

	authority, _, err := chain.FindProgramAddress([][]byte{[]byte("vault_and_lp_mint_auth_seed")}, v.program)
	if err != nil {
		return nil, fmt.Errorf("derive cpmm authority: %w", err)
	}

	data, err := anchorData("swap_base_input", &cpmmSwapArgs{AmountIn: q.AmountIn, MinimumAmountOut: q.MinOut})
	if err != nil {
		return nil, fmt.Errorf("encode swap: %w", err)
	}

	swap := solana.NewInstruction(v.program, solana.AccountMetaSlice{
		signer(owner),
		readonly(authority),
		readonly(p.AmmConfig),
		writable(ps.pool.Address),
		writable(user.in),
		writable(user.out),
		writable(inVault),
		writable(outVault),
		readonly(in.program),
		readonly(out.program),
		readonly(in.mint),
		readonly(out.mint),
		writable(p.ObservationKey),
	}, data)

	return &swapPlan{instructions: user.wrap(swap)}, nil
}
