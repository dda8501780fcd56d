package layout

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Orca Whirlpool account.
const (
	WhirlpoolSize          = 653
	WhirlpoolMintAOffset   = 101
	WhirlpoolMintBOffset   = 181
	WhirlpoolTickArraySize = 88
)

// Whirlpool is the Orca concentrated-liquidity pool account.
type Whirlpool struct {
	WhirlpoolsConfig solana.PublicKey
	TickSpacing      uint16
	FeeRate          uint16 // hundredths of a basis point
	ProtocolFeeRate  uint16
	Liquidity        *big.Int
	SqrtPrice        *big.Int
	TickCurrentIndex int32
	TokenMintA       solana.PublicKey
	TokenVaultA      solana.PublicKey
	TokenMintB       solana.PublicKey
	TokenVaultB      solana.PublicKey
}

// DecodeWhirlpool decodes a Whirlpool account.
func DecodeWhirlpool(data []byte) (*Whirlpool, error) {
	if err := checkDiscriminator(data, "Whirlpool"); err != nil {
		return nil, err
	}
	r, err := newReader(data, WhirlpoolSize, "Whirlpool")
	if err != nil {
		return nil, err
	}
	w := &Whirlpool{
		WhirlpoolsConfig: r.pubkey(8),
		TickSpacing:      r.u16(41),
		FeeRate:          r.u16(45),
		ProtocolFeeRate:  r.u16(47),
		Liquidity:        r.u128(49),
		SqrtPrice:        r.u128(65),
		TickCurrentIndex: r.i32(81),
		TokenMintA:       r.pubkey(WhirlpoolMintAOffset),
		TokenVaultA:      r.pubkey(133),
		TokenMintB:       r.pubkey(WhirlpoolMintBOffset),
		TokenVaultB:      r.pubkey(213),
	}
	return w, r.err
}

// Initialized reports whether the pool has a price.
func (w *Whirlpool) Initialized() bool {
	return w.SqrtPrice.Sign() != 0
}

// WhirlpoolTickArrayStart returns the first tick of the array containing tick.
func WhirlpoolTickArrayStart(tick int32, tickSpacing uint16) int32 {
	return tickArrayStart(tick, int32(tickSpacing)*WhirlpoolTickArraySize)
}
