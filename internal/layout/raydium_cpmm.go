package layout

import (
	"github.com/gagliardetto/solana-go"
)

// Raydium CPMM PoolState.
const (
	CPMMPoolSize         = 637
	CPMMToken0MintOffset = 168
	CPMMToken1MintOffset = 200
)

// cpmmSwapDisabled is the status bit that halts swaps.
const cpmmSwapDisabled = 1 << 2

// CPMMPool is the Raydium CPMM pool account.
type CPMMPool struct {
	AmmConfig          solana.PublicKey
	Token0Vault        solana.PublicKey
	Token1Vault        solana.PublicKey
	LpMint             solana.PublicKey
	Token0Mint         solana.PublicKey
	Token1Mint         solana.PublicKey
	Token0Program      solana.PublicKey
	Token1Program      solana.PublicKey
	ObservationKey     solana.PublicKey
	Status             uint8
	Mint0Decimals      uint8
	Mint1Decimals      uint8
	ProtocolFeesToken0 uint64
	ProtocolFeesToken1 uint64
	FundFeesToken0     uint64
	FundFeesToken1     uint64
	OpenTime           uint64
}

// DecodeCPMMPool decodes a CPMM PoolState account.
func DecodeCPMMPool(data []byte) (*CPMMPool, error) {
	if err := checkDiscriminator(data, "PoolState"); err != nil {
		return nil, err
	}
	r, err := newReader(data, CPMMPoolSize, "CPMM PoolState")
	if err != nil {
		return nil, err
	}
	p := &CPMMPool{
		AmmConfig:          r.pubkey(8),
		Token0Vault:        r.pubkey(72),
		Token1Vault:        r.pubkey(104),
		LpMint:             r.pubkey(136),
		Token0Mint:         r.pubkey(CPMMToken0MintOffset),
		Token1Mint:         r.pubkey(CPMMToken1MintOffset),
		Token0Program:      r.pubkey(232),
		Token1Program:      r.pubkey(264),
		ObservationKey:     r.pubkey(296),
		Status:             r.u8(329),
		Mint0Decimals:      r.u8(331),
		Mint1Decimals:      r.u8(332),
		ProtocolFeesToken0: r.u64(341),
		ProtocolFeesToken1: r.u64(349),
		FundFeesToken0:     r.u64(357),
		FundFeesToken1:     r.u64(365),
		OpenTime:           r.u64(373),
	}
	return p, r.err
}

// Active reports whether swaps are enabled.
func (p *CPMMPool) Active() bool {
	return p.Status&cpmmSwapDisabled == 0
}

// CPMMConfig is the Raydium CPMM AmmConfig account.
type CPMMConfig struct {
	TradeFeeRate    uint64 // parts per million
	ProtocolFeeRate uint64
	FundFeeRate     uint64
}

// DecodeCPMMConfig decodes a CPMM AmmConfig account.
func DecodeCPMMConfig(data []byte) (*CPMMConfig, error) {
	r, err := newReader(data, 36, "CPMM AmmConfig")
	if err != nil {
		return nil, err
	}
	c := &CPMMConfig{
		TradeFeeRate:    r.u64(12),
		ProtocolFeeRate: r.u64(20),
		FundFeeRate:     r.u64(28),
	}
	return c, r.err
}
