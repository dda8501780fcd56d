package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeLiquidityStateV4_Short(t *testing.T) {
	_, err := DecodeLiquidityStateV4(make([]byte, 100))
	assert.ErrorIs(t, err, ErrShortData)
}

func TestBinArrayIndex(t *testing.T) {
	cases := map[int32]int64{0: 0, 69: 0, 70: 1, -1: -1, -70: -1, -71: -2}
	for bin, want := range cases {
		assert.Equal(t, want, BinArrayIndex(bin), "bin %d", bin)
	}
}

func TestTickArrayStart(t *testing.T) {
	// CLMM: spacing 10 -> 600 ticks per array.
	assert.Equal(t, int32(0), CLMMTickArrayStart(599, 10))
	assert.Equal(t, int32(600), CLMMTickArrayStart(600, 10))
	assert.Equal(t, int32(-600), CLMMTickArrayStart(-1, 10))
	assert.Equal(t, int32(-600), CLMMTickArrayStart(-600, 10))

	// Whirlpool: spacing 64 -> 5632 ticks per array.
	assert.Equal(t, int32(-5632), WhirlpoolTickArrayStart(-3, 64))
	assert.Equal(t, int32(5632), WhirlpoolTickArrayStart(6000, 64))
}

func TestInstructionDiscriminator(t *testing.T) {
	// Well-known Anchor tag of "global:swap".
	assert.Equal(t, [8]byte{0xf8, 0xc6, 0x9e, 0x91, 0xe1, 0x75, 0x87, 0xc8}, InstructionDiscriminator("swap"))
}
