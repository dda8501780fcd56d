// Package layouttest renders account images byte-compatible with the
// decoders in package layout, for deterministic ledger fixtures.
package layouttest

import (
	"encoding/binary"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/layout"
)

type writer []byte

func (w writer) u8(off int, v uint8)   { w[off] = v }
func (w writer) u16(off int, v uint16) { binary.LittleEndian.PutUint16(w[off:], v) }
func (w writer) u32(off int, v uint32) { binary.LittleEndian.PutUint32(w[off:], v) }
func (w writer) i32(off int, v int32)  { binary.LittleEndian.PutUint32(w[off:], uint32(v)) }
func (w writer) u64(off int, v uint64) { binary.LittleEndian.PutUint64(w[off:], v) }
func (w writer) i64(off int, v int64)  { binary.LittleEndian.PutUint64(w[off:], uint64(v)) }

func (w writer) pubkey(off int, k solana.PublicKey) { copy(w[off:off+32], k[:]) }

func (w writer) u128(off int, v *big.Int) {
	if v == nil {
		return
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	lo := new(big.Int).And(v, mask).Uint64()
	hi := new(big.Int).Rsh(v, 64).Uint64()
	w.u64(off, lo)
	w.u64(off+8, hi)
}

func (w writer) discriminator(name string) {
	d := layout.AccountDiscriminator(name)
	copy(w[:8], d[:])
}

// EncodeLiquidityStateV4 renders an AMM v4 pool account.
func EncodeLiquidityStateV4(s *layout.LiquidityStateV4) []byte {
	w := make(writer, layout.AMMv4Size)
	w.u64(0, s.Status)
	w.u64(8, s.Nonce)
	w.u64(32, s.BaseDecimal)
	w.u64(40, s.QuoteDecimal)
	w.u64(176, s.SwapFeeNumerator)
	w.u64(184, s.SwapFeeDenominator)
	w.u64(192, s.BaseNeedTakePnl)
	w.u64(200, s.QuoteNeedTakePnl)
	w.pubkey(336, s.BaseVault)
	w.pubkey(368, s.QuoteVault)
	w.pubkey(layout.AMMv4BaseMintOffset, s.BaseMint)
	w.pubkey(layout.AMMv4QuoteMintOffset, s.QuoteMint)
	w.pubkey(464, s.LpMint)
	w.pubkey(496, s.OpenOrders)
	w.pubkey(528, s.MarketID)
	w.pubkey(560, s.MarketProgramID)
	w.pubkey(592, s.TargetOrders)
	return w
}

// EncodeMarketStateV3 renders an OpenBook market account.
func EncodeMarketStateV3(m *layout.MarketStateV3) []byte {
	w := make(writer, layout.MarketV3Size)
	copy(w[:5], "serum")
	w.pubkey(13, m.OwnAddress)
	w.u64(45, m.VaultSignerNonce)
	w.pubkey(53, m.BaseMint)
	w.pubkey(85, m.QuoteMint)
	w.pubkey(117, m.BaseVault)
	w.pubkey(165, m.QuoteVault)
	w.pubkey(253, m.EventQueue)
	w.pubkey(285, m.Bids)
	w.pubkey(317, m.Asks)
	copy(w[layout.MarketV3Size-7:], "padding")
	return w
}

// EncodeCPMMPool renders a CPMM PoolState account.
func EncodeCPMMPool(p *layout.CPMMPool) []byte {
	w := make(writer, layout.CPMMPoolSize)
	w.discriminator("PoolState")
	w.pubkey(8, p.AmmConfig)
	w.pubkey(72, p.Token0Vault)
	w.pubkey(104, p.Token1Vault)
	w.pubkey(136, p.LpMint)
	w.pubkey(layout.CPMMToken0MintOffset, p.Token0Mint)
	w.pubkey(layout.CPMMToken1MintOffset, p.Token1Mint)
	w.pubkey(232, p.Token0Program)
	w.pubkey(264, p.Token1Program)
	w.pubkey(296, p.ObservationKey)
	w.u8(329, p.Status)
	w.u8(331, p.Mint0Decimals)
	w.u8(332, p.Mint1Decimals)
	w.u64(341, p.ProtocolFeesToken0)
	w.u64(349, p.ProtocolFeesToken1)
	w.u64(357, p.FundFeesToken0)
	w.u64(365, p.FundFeesToken1)
	w.u64(373, p.OpenTime)
	return w
}

// EncodeCPMMConfig renders a CPMM AmmConfig account.
func EncodeCPMMConfig(c *layout.CPMMConfig) []byte {
	w := make(writer, 236)
	w.discriminator("AmmConfig")
	w.u64(12, c.TradeFeeRate)
	w.u64(20, c.ProtocolFeeRate)
	w.u64(28, c.FundFeeRate)
	return w
}

// EncodeCLMMPool renders a CLMM PoolState account.
func EncodeCLMMPool(p *layout.CLMMPool) []byte {
	w := make(writer, layout.CLMMPoolSize)
	w.discriminator("PoolState")
	w.pubkey(9, p.AmmConfig)
	w.pubkey(layout.CLMMMint0Offset, p.TokenMint0)
	w.pubkey(layout.CLMMMint1Offset, p.TokenMint1)
	w.pubkey(137, p.TokenVault0)
	w.pubkey(169, p.TokenVault1)
	w.pubkey(201, p.ObservationKey)
	w.u8(233, p.MintDecimals0)
	w.u8(234, p.MintDecimals1)
	w.u16(235, p.TickSpacing)
	w.u128(237, p.Liquidity)
	w.u128(253, p.SqrtPriceX64)
	w.i32(269, p.TickCurrent)
	w.u8(389, p.Status)
	return w
}

// EncodeCLMMConfig renders a CLMM AmmConfig account.
func EncodeCLMMConfig(c *layout.CLMMConfig) []byte {
	w := make(writer, 117)
	w.discriminator("AmmConfig")
	w.u32(43, c.ProtocolFeeRate)
	w.u32(47, c.TradeFeeRate)
	w.u16(51, c.TickSpacing)
	return w
}

// EncodeWhirlpool renders a Whirlpool account.
func EncodeWhirlpool(p *layout.Whirlpool) []byte {
	w := make(writer, layout.WhirlpoolSize)
	w.discriminator("Whirlpool")
	w.pubkey(8, p.WhirlpoolsConfig)
	w.u16(41, p.TickSpacing)
	w.u16(45, p.FeeRate)
	w.u16(47, p.ProtocolFeeRate)
	w.u128(49, p.Liquidity)
	w.u128(65, p.SqrtPrice)
	w.i32(81, p.TickCurrentIndex)
	w.pubkey(layout.WhirlpoolMintAOffset, p.TokenMintA)
	w.pubkey(133, p.TokenVaultA)
	w.pubkey(layout.WhirlpoolMintBOffset, p.TokenMintB)
	w.pubkey(213, p.TokenVaultB)
	return w
}

// EncodeLbPair renders an LbPair account.
func EncodeLbPair(p *layout.LbPair) []byte {
	w := make(writer, layout.LbPairSize)
	w.discriminator("LbPair")
	w.u16(8, p.BaseFactor)
	w.u32(16, p.VariableFeeControl)
	w.u16(32, p.ProtocolShare)
	w.u8(34, p.BaseFeePowerFactor)
	w.u32(40, p.VolatilityAccumulator)
	w.i32(76, p.ActiveID)
	w.u16(80, p.BinStep)
	w.u8(82, p.Status)
	w.pubkey(layout.LbPairTokenXOffset, p.TokenXMint)
	w.pubkey(layout.LbPairTokenYOffset, p.TokenYMint)
	w.pubkey(152, p.ReserveX)
	w.pubkey(184, p.ReserveY)
	w.pubkey(552, p.Oracle)
	w.u8(880, p.TokenXProgramFlag)
	w.u8(881, p.TokenYProgramFlag)
	return w
}

// EncodeBinArray renders a BinArray account. Bins are placed by ID; bins
// outside the array are ignored.
func EncodeBinArray(a *layout.BinArray) []byte {
	w := make(writer, layout.BinArraySize)
	w.discriminator("BinArray")
	w.i64(8, a.Index)
	w.pubkey(24, a.LbPair)
	lower := int32(a.Index) * layout.BinsPerArray
	for _, b := range a.Bins {
		i := int(b.ID - lower)
		if i < 0 || i >= layout.BinsPerArray {
			continue
		}
		off := layout.BinArrayBinsOffset + i*layout.BinSize
		w.u64(off, b.AmountX)
		w.u64(off+8, b.AmountY)
		w.u128(off+16, b.Price)
	}
	return w
}

// EncodeTokenAccount renders an SPL token account.
func EncodeTokenAccount(a *layout.TokenAccount) []byte {
	w := make(writer, layout.TokenAccountSize)
	w.pubkey(0, a.Mint)
	w.pubkey(32, a.Owner)
	w.u64(64, a.Amount)
	w.u8(108, 1) // initialized
	return w
}

// EncodeMint renders a mint; a transfer fee turns it into a Token-2022 mint
// with a single TransferFeeConfig extension.
func EncodeMint(m *layout.Mint) []byte {
	if !m.HasTransferFee {
		w := make(writer, layout.MintSize)
		w.u64(36, m.Supply)
		w.u8(44, m.Decimals)
		w.u8(45, 1)
		return w
	}
	w := make(writer, layout.Token2022TLVOffset+4+layout.TransferFeeConfigLen)
	w.u64(36, m.Supply)
	w.u8(44, m.Decimals)
	w.u8(45, 1)
	w.u8(layout.Token2022AccountTypeOffset, layout.Token2022AccountTypeMint)
	w.u16(layout.Token2022TLVOffset, layout.ExtTransferFeeConfig)
	w.u16(layout.Token2022TLVOffset+2, layout.TransferFeeConfigLen)
	val := layout.Token2022TLVOffset + 4
	w.u64(val+72, m.OlderFee.Epoch)
	w.u64(val+80, m.OlderFee.MaximumFee)
	w.u16(val+88, m.OlderFee.BasisPoints)
	w.u64(val+90, m.NewerFee.Epoch)
	w.u64(val+98, m.NewerFee.MaximumFee)
	w.u16(val+106, m.NewerFee.BasisPoints)
	return w
}
