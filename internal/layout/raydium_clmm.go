package layout

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Raydium CLMM PoolState.
const (
	CLMMPoolSize        = 1544
	CLMMMint0Offset     = 73
	CLMMMint1Offset     = 105
	CLMMTickArraySize   = 60
	clmmSwapDisabledBit = 1 << 4
)

// CLMMPool is the Raydium concentrated-liquidity pool account.
type CLMMPool struct {
	AmmConfig      solana.PublicKey
	TokenMint0     solana.PublicKey
	TokenMint1     solana.PublicKey
	TokenVault0    solana.PublicKey
	TokenVault1    solana.PublicKey
	ObservationKey solana.PublicKey
	MintDecimals0  uint8
	MintDecimals1  uint8
	TickSpacing    uint16
	Liquidity      *big.Int
	SqrtPriceX64   *big.Int
	TickCurrent    int32
	Status         uint8
}

// DecodeCLMMPool decodes a CLMM PoolState account.
func DecodeCLMMPool(data []byte) (*CLMMPool, error) {
	if err := checkDiscriminator(data, "PoolState"); err != nil {
		return nil, err
	}
	r, err := newReader(data, CLMMPoolSize, "CLMM PoolState")
	if err != nil {
		return nil, err
	}
	p := &CLMMPool{
		AmmConfig:      r.pubkey(9),
		TokenMint0:     r.pubkey(CLMMMint0Offset),
		TokenMint1:     r.pubkey(CLMMMint1Offset),
		TokenVault0:    r.pubkey(137),
		TokenVault1:    r.pubkey(169),
		ObservationKey: r.pubkey(201),
		MintDecimals0:  r.u8(233),
		MintDecimals1:  r.u8(234),
		TickSpacing:    r.u16(235),
		Liquidity:      r.u128(237),
		SqrtPriceX64:   r.u128(253),
		TickCurrent:    r.i32(269),
		Status:         r.u8(389),
	}
	return p, r.err
}

// Active reports whether swaps are enabled.
func (p *CLMMPool) Active() bool {
	return p.Status&clmmSwapDisabledBit == 0
}

// CLMMConfig is the Raydium CLMM AmmConfig account.
type CLMMConfig struct {
	ProtocolFeeRate uint32
	TradeFeeRate    uint32 // parts per million
	TickSpacing     uint16
}

// DecodeCLMMConfig decodes a CLMM AmmConfig account.
func DecodeCLMMConfig(data []byte) (*CLMMConfig, error) {
	r, err := newReader(data, 53, "CLMM AmmConfig")
	if err != nil {
		return nil, err
	}
	c := &CLMMConfig{
		ProtocolFeeRate: r.u32(43),
		TradeFeeRate:    r.u32(47),
		TickSpacing:     r.u16(51),
	}
	return c, r.err
}

// CLMMTickArrayStart returns the first tick of the array containing tick.
func CLMMTickArrayStart(tick int32, tickSpacing uint16) int32 {
	return tickArrayStart(tick, int32(tickSpacing)*CLMMTickArraySize)
}

func tickArrayStart(tick, span int32) int32 {
	start := tick / span
	if tick < 0 && tick%span != 0 {
		start--
	}
	return start * span
}
