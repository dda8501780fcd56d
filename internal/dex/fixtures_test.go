package dex

import (
	"math/big"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/chain/stub"
	"solana-swap-adapters/internal/config"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/layout"
	"solana-swap-adapters/internal/layout/layouttest"
	"solana-swap-adapters/internal/observability"
)

var (
	network  = config.MainnetNetwork()
	programs = network.Programs

	mintSOL  = solana.WrappedSol
	mintUSDC = key(0xA1)
	mintTKN  = key(0xA2)

	// q64One is a Q64.64 price of 1.
	q64One = new(big.Int).Lsh(big.NewInt(1), 64)

	fixedNow = time.UnixMilli(1_704_067_200_000)
)

// key returns a deterministic public key filled with b.
func key(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	k[31] = 0x5A
	return k
}

func testMetrics() *observability.Metrics {
	return observability.NewMetrics("test", prometheus.NewRegistry())
}

// newTestRegistry builds a registry over l with a fixed clock.
func newTestRegistry(l *stub.Ledger, opts ...RegistryOption) *Registry {
	base := []RegistryOption{
		WithLedger(l),
		WithMetrics(testMetrics()),
		withClock(func() time.Time { return fixedNow }),
	}
	return NewRegistry(network, append(base, opts...)...)
}

func mustAdapter(t *testing.T, r *Registry, v domain.VenueID) Adapter {
	t.Helper()
	a, err := r.Create(v)
	if err != nil {
		t.Fatalf("Create(%s): %v", v, err)
	}
	return a
}

func setMint(l *stub.Ledger, mint solana.PublicKey, decimals uint8) {
	l.SetAccount(mint, solana.TokenProgramID, layouttest.EncodeMint(&layout.Mint{Supply: 1_000_000_000_000, Decimals: decimals}))
}

func setTokenAccount(l *stub.Ledger, addr, mint solana.PublicKey, amount uint64) {
	l.SetAccount(addr, solana.TokenProgramID, layouttest.EncodeTokenAccount(&layout.TokenAccount{Mint: mint, Owner: key(0xEE), Amount: amount}))
}

// ammFixture is a Raydium AMM v4 pool with its vaults and market.
type ammFixture struct {
	addr, baseVault, quoteVault, market solana.PublicKey
}

func addAMMPool(l *stub.Ledger, seed byte, base, quote solana.PublicKey, baseReserve, quoteReserve uint64) ammFixture {
	f := ammFixture{
		addr:       key(seed),
		baseVault:  key(seed + 1),
		quoteVault: key(seed + 2),
		market:     key(seed + 3),
	}
	l.SetAccount(f.addr, programs.RaydiumAMM, layouttest.EncodeLiquidityStateV4(&layout.LiquidityStateV4{
		Status:             layout.AMMv4StatusInitialized,
		Nonce:              254,
		SwapFeeNumerator:   25,
		SwapFeeDenominator: 10_000,
		BaseVault:          f.baseVault,
		QuoteVault:         f.quoteVault,
		BaseMint:           base,
		QuoteMint:          quote,
		OpenOrders:         key(seed + 4),
		MarketID:           f.market,
		MarketProgramID:    programs.OpenBook,
		TargetOrders:       key(seed + 5),
	}))
	setTokenAccount(l, f.baseVault, base, baseReserve)
	setTokenAccount(l, f.quoteVault, quote, quoteReserve)
	l.SetAccount(f.market, programs.OpenBook, layouttest.EncodeMarketStateV3(&layout.MarketStateV3{
		OwnAddress:       f.market,
		VaultSignerNonce: findVaultSignerNonce(f.market),
		BaseMint:         base,
		QuoteMint:        quote,
		BaseVault:        key(seed + 6),
		QuoteVault:       key(seed + 7),
		EventQueue:       key(seed + 8),
		Bids:             key(seed + 9),
		Asks:             key(seed + 10),
	}))
	return f
}

// findVaultSignerNonce searches the nonce OpenBook would have stored.
func findVaultSignerNonce(market solana.PublicKey) uint64 {
	for nonce := uint64(0); nonce < 256; nonce++ {
		seed := make([]byte, 8)
		seed[0] = byte(nonce)
		if _, err := chain.CreateProgramAddress([][]byte{market.Bytes(), seed}, programs.OpenBook); err == nil {
			return nonce
		}
	}
	panic("no vault signer nonce")
}

// cpmmFixture is a Raydium CPMM pool with config and vaults.
type cpmmFixture struct {
	addr, config, vault0, vault1 solana.PublicKey
}

func addCPMMPool(l *stub.Ledger, seed byte, mint0, mint1 solana.PublicKey, reserve0, reserve1 uint64) cpmmFixture {
	f := cpmmFixture{
		addr:   key(seed),
		config: key(seed + 1),
		vault0: key(seed + 2),
		vault1: key(seed + 3),
	}
	l.SetAccount(f.addr, programs.RaydiumCPMM, layouttest.EncodeCPMMPool(&layout.CPMMPool{
		AmmConfig:      f.config,
		Token0Vault:    f.vault0,
		Token1Vault:    f.vault1,
		LpMint:         key(seed + 4),
		Token0Mint:     mint0,
		Token1Mint:     mint1,
		Token0Program:  solana.TokenProgramID,
		Token1Program:  solana.TokenProgramID,
		ObservationKey: key(seed + 5),
	}))
	l.SetAccount(f.config, programs.RaydiumCPMM, layouttest.EncodeCPMMConfig(&layout.CPMMConfig{TradeFeeRate: 2500}))
	setTokenAccount(l, f.vault0, mint0, reserve0)
	setTokenAccount(l, f.vault1, mint1, reserve1)
	return f
}

func addCLMMPool(l *stub.Ledger, seed byte, mint0, mint1 solana.PublicKey, liquidity int64) solana.PublicKey {
	addr := key(seed)
	cfg := key(seed + 1)
	l.SetAccount(addr, programs.RaydiumCLMM, layouttest.EncodeCLMMPool(&layout.CLMMPool{
		AmmConfig:      cfg,
		TokenMint0:     mint0,
		TokenMint1:     mint1,
		TokenVault0:    key(seed + 2),
		TokenVault1:    key(seed + 3),
		ObservationKey: key(seed + 4),
		TickSpacing:    10,
		Liquidity:      big.NewInt(liquidity),
		SqrtPriceX64:   new(big.Int).Set(q64One),
	}))
	l.SetAccount(cfg, programs.RaydiumCLMM, layouttest.EncodeCLMMConfig(&layout.CLMMConfig{TradeFeeRate: 500, TickSpacing: 10}))
	return addr
}

func addWhirlpool(l *stub.Ledger, seed byte, mintA, mintB solana.PublicKey, liquidity int64) solana.PublicKey {
	addr := key(seed)
	setMint(l, mintA, 9)
	setMint(l, mintB, 6)
	l.SetAccount(addr, programs.OrcaWhirlpool, layouttest.EncodeWhirlpool(&layout.Whirlpool{
		WhirlpoolsConfig: key(seed + 1),
		TickSpacing:      64,
		FeeRate:          3000,
		Liquidity:        big.NewInt(liquidity),
		SqrtPrice:        new(big.Int).Set(q64One),
		TokenMintA:       mintA,
		TokenVaultA:      key(seed + 2),
		TokenMintB:       mintB,
		TokenVaultB:      key(seed + 3),
	}))
	return addr
}

// addDLMMPair adds a pair with an active bin 0 at price 1 and liquidity in
// the neighbouring bins of bin array 0 and -1.
func addDLMMPair(t *testing.T, l *stub.Ledger, seed byte, mintX, mintY solana.PublicKey, binStep uint16) solana.PublicKey {
	t.Helper()
	addr := key(seed)
	l.SetAccount(addr, programs.MeteoraDLMM, layouttest.EncodeLbPair(&layout.LbPair{
		BaseFactor: 10_000,
		ActiveID:   0,
		BinStep:    binStep,
		TokenXMint: mintX,
		TokenYMint: mintY,
		ReserveX:   key(seed + 1),
		ReserveY:   key(seed + 2),
		Oracle:     key(seed + 3),
	}))

	v := newMeteoraDLMM(programs.MeteoraDLMM)
	for _, idx := range []int64{0, -1} {
		arrKey := binArrayAddress(t, v, addr, idx)
		var bins []layout.Bin
		lower := int32(idx) * layout.BinsPerArray
		for i := int32(0); i < layout.BinsPerArray; i++ {
			id := lower + i
			b := layout.Bin{ID: id, Price: new(big.Int).Set(q64One)}
			if id <= 0 {
				b.AmountY = 1_000_000
			}
			if id >= 0 {
				b.AmountX = 1_000_000
			}
			bins = append(bins, b)
		}
		l.SetAccount(arrKey, programs.MeteoraDLMM, layouttest.EncodeBinArray(&layout.BinArray{Index: idx, LbPair: addr, Bins: bins}))
	}
	return addr
}

func binArrayAddress(t *testing.T, v *meteoraDLMM, pair solana.PublicKey, idx int64) solana.PublicKey {
	t.Helper()
	// binArrayKeys starts at the array holding the given bin.
	keys, err := v.binArrayKeys(pair, int32(idx)*layout.BinsPerArray, false)
	if err != nil {
		t.Fatalf("binArrayKeys: %v", err)
	}
	return keys[0]
}
