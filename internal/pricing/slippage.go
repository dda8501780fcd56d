// Package pricing holds the swap math behind venue quotes: constant product,
// single-range concentrated liquidity, discretized bins, Token-2022 transfer
// fees and slippage bounds.
package pricing

import (
	"github.com/shopspring/decimal"
)

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10_000

var (
	decBps     = decimal.NewFromInt(BpsDenominator)
	decHundred = decimal.NewFromInt(100)
)

// BpsToPercent converts basis points to an exact percentage (50 -> 0.5).
func BpsToPercent(bps uint32) decimal.Decimal {
	return decimal.NewFromInt(int64(bps)).Div(decHundred)
}

// PercentToBps converts a percentage to basis points, flooring any
// fraction of a basis point (2.555 -> 255).
func PercentToBps(percent decimal.Decimal) uint64 {
	bps := percent.Mul(decHundred).Floor()
	if bps.IsNegative() {
		return 0
	}
	return bps.BigInt().Uint64()
}

// ApplySlippageBps returns floor(expected * (10000 - bps) / 10000). The
// result never exceeds expected and is zero at 100% slippage.
func ApplySlippageBps(expected uint64, bps uint32) uint64 {
	if bps >= BpsDenominator {
		return 0
	}
	keep := decBps.Sub(decimal.NewFromInt(int64(bps)))
	return floorUint(decimal.NewFromUint64(expected).Mul(keep).Div(decBps))
}

// ApplySlippagePercent is ApplySlippageBps for venues that take slippage as
// a percentage.
func ApplySlippagePercent(expected uint64, percent decimal.Decimal) uint64 {
	if percent.GreaterThanOrEqual(decHundred) {
		return 0
	}
	if percent.IsNegative() {
		return expected
	}
	keep := decHundred.Sub(percent)
	return floorUint(decimal.NewFromUint64(expected).Mul(keep).Div(decHundred))
}

func floorUint(d decimal.Decimal) uint64 {
	return d.Floor().BigInt().Uint64()
}
