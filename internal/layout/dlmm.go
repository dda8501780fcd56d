package layout

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Meteora DLMM accounts.
const (
	LbPairSize          = 904
	LbPairTokenXOffset  = 88
	LbPairTokenYOffset  = 120
	BinArraySize        = 10136
	BinsPerArray        = 70
	BinArrayBinsOffset  = 56
	BinSize             = 144
	lbPairStatusEnabled = 0
)

// LbPair is the Meteora DLMM pair account.
type LbPair struct {
	BaseFactor            uint16
	VariableFeeControl    uint32
	ProtocolShare         uint16
	BaseFeePowerFactor    uint8
	VolatilityAccumulator uint32
	ActiveID              int32
	BinStep               uint16
	Status                uint8
	TokenXMint            solana.PublicKey
	TokenYMint            solana.PublicKey
	ReserveX              solana.PublicKey
	ReserveY              solana.PublicKey
	Oracle                solana.PublicKey
	TokenXProgramFlag     uint8
	TokenYProgramFlag     uint8
}

// DecodeLbPair decodes an LbPair account.
func DecodeLbPair(data []byte) (*LbPair, error) {
	if err := checkDiscriminator(data, "LbPair"); err != nil {
		return nil, err
	}
	r, err := newReader(data, LbPairSize, "LbPair")
	if err != nil {
		return nil, err
	}
	p := &LbPair{
		BaseFactor:            r.u16(8),
		VariableFeeControl:    r.u32(16),
		ProtocolShare:         r.u16(32),
		BaseFeePowerFactor:    r.u8(34),
		VolatilityAccumulator: r.u32(40),
		ActiveID:              r.i32(76),
		BinStep:               r.u16(80),
		Status:                r.u8(82),
		TokenXMint:            r.pubkey(LbPairTokenXOffset),
		TokenYMint:            r.pubkey(LbPairTokenYOffset),
		ReserveX:              r.pubkey(152),
		ReserveY:              r.pubkey(184),
		Oracle:                r.pubkey(552),
		TokenXProgramFlag:     r.u8(880),
		TokenYProgramFlag:     r.u8(881),
	}
	return p, r.err
}

// Active reports whether the pair is enabled and initialized.
func (p *LbPair) Active() bool {
	return p.Status == lbPairStatusEnabled && p.BinStep > 0
}

// Bin is one discretized price level.
type Bin struct {
	ID      int32
	AmountX uint64
	AmountY uint64
	Price   *big.Int // Q64.64, token Y per token X
}

// BinArray is a window of BinsPerArray consecutive bins.
type BinArray struct {
	Index  int64
	LbPair solana.PublicKey
	Bins   []Bin
}

// DecodeBinArray decodes a BinArray account.
func DecodeBinArray(data []byte) (*BinArray, error) {
	if err := checkDiscriminator(data, "BinArray"); err != nil {
		return nil, err
	}
	r, err := newReader(data, BinArraySize, "BinArray")
	if err != nil {
		return nil, err
	}
	a := &BinArray{
		Index:  r.i64(8),
		LbPair: r.pubkey(24),
		Bins:   make([]Bin, BinsPerArray),
	}
	lower := int32(a.Index) * BinsPerArray
	for i := range a.Bins {
		off := BinArrayBinsOffset + i*BinSize
		a.Bins[i] = Bin{
			ID:      lower + int32(i),
			AmountX: r.u64(off),
			AmountY: r.u64(off + 8),
			Price:   r.u128(off + 16),
		}
	}
	return a, r.err
}

// BinArrayIndex returns the index of the array holding binID.
func BinArrayIndex(binID int32) int64 {
	idx := int64(binID) / BinsPerArray
	if binID < 0 && binID%BinsPerArray != 0 {
		idx--
	}
	return idx
}
