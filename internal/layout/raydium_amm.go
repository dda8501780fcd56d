package layout

import (
	"github.com/gagliardetto/solana-go"
)

// Raydium AMM v4 LiquidityStateV4.
const (
	AMMv4Size            = 752
	AMMv4BaseMintOffset  = 400
	AMMv4QuoteMintOffset = 432
)

// AMM v4 status values that accept swaps.
const (
	AMMv4StatusInitialized = 1
	AMMv4StatusSwapOnly    = 6
)

// LiquidityStateV4 is the subset of the AMM v4 pool account the adapter uses.
type LiquidityStateV4 struct {
	Status             uint64
	Nonce              uint64
	BaseDecimal        uint64
	QuoteDecimal       uint64
	SwapFeeNumerator   uint64
	SwapFeeDenominator uint64
	BaseNeedTakePnl    uint64
	QuoteNeedTakePnl   uint64
	BaseVault          solana.PublicKey
	QuoteVault         solana.PublicKey
	BaseMint           solana.PublicKey
	QuoteMint          solana.PublicKey
	LpMint             solana.PublicKey
	OpenOrders         solana.PublicKey
	MarketID           solana.PublicKey
	MarketProgramID    solana.PublicKey
	TargetOrders       solana.PublicKey
}

// DecodeLiquidityStateV4 decodes an AMM v4 pool account.
func DecodeLiquidityStateV4(data []byte) (*LiquidityStateV4, error) {
	r, err := newReader(data, AMMv4Size, "LiquidityStateV4")
	if err != nil {
		return nil, err
	}
	s := &LiquidityStateV4{
		Status:             r.u64(0),
		Nonce:              r.u64(8),
		BaseDecimal:        r.u64(32),
		QuoteDecimal:       r.u64(40),
		SwapFeeNumerator:   r.u64(176),
		SwapFeeDenominator: r.u64(184),
		BaseNeedTakePnl:    r.u64(192),
		QuoteNeedTakePnl:   r.u64(200),
		BaseVault:          r.pubkey(336),
		QuoteVault:         r.pubkey(368),
		BaseMint:           r.pubkey(AMMv4BaseMintOffset),
		QuoteMint:          r.pubkey(AMMv4QuoteMintOffset),
		LpMint:             r.pubkey(464),
		OpenOrders:         r.pubkey(496),
		MarketID:           r.pubkey(528),
		MarketProgramID:    r.pubkey(560),
		TargetOrders:       r.pubkey(592),
	}
	return s, r.err
}

// Active reports whether the pool currently accepts swaps.
func (s *LiquidityStateV4) Active() bool {
	return s.Status == AMMv4StatusInitialized || s.Status == AMMv4StatusSwapOnly
}

// OpenBook (Serum v3) market state.
const MarketV3Size = 388

// MarketStateV3 holds the market accounts an AMM v4 swap must pass.
type MarketStateV3 struct {
	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	EventQueue       solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
}

// DecodeMarketStateV3 decodes an OpenBook market. The account is framed by
// a 5-byte "serum" head padding.
func DecodeMarketStateV3(data []byte) (*MarketStateV3, error) {
	r, err := newReader(data, MarketV3Size, "MarketStateV3")
	if err != nil {
		return nil, err
	}
	m := &MarketStateV3{
		OwnAddress:       r.pubkey(13),
		VaultSignerNonce: r.u64(45),
		BaseMint:         r.pubkey(53),
		QuoteMint:        r.pubkey(85),
		BaseVault:        r.pubkey(117),
		QuoteVault:       r.pubkey(165),
		EventQueue:       r.pubkey(253),
		Bids:             r.pubkey(285),
		Asks:             r.pubkey(317),
	}
	return m, r.err
}
