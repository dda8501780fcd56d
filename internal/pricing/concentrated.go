package pricing

import (
	"fmt"
	"math/big"
)

// FeeRateDenominator is the parts-per-million denominator of CLMM and
// Whirlpool fee rates.
const FeeRateDenominator = 1_000_000

var (
	q64 = new(big.Int).Lsh(big.NewInt(1), 64)

	// MinSqrtPriceX64 and MaxSqrtPriceX64 bound the Q64.64 square-root price
	// of concentrated-liquidity pools.
	MinSqrtPriceX64    = big.NewInt(4295048016)
	MaxSqrtPriceX64, _ = new(big.Int).SetString("79226673515401279992447579055", 10)
)

// ConcentratedResult is the outcome of a concentrated-liquidity swap.
type ConcentratedResult struct {
	AmountOut    uint64
	TradeFee     uint64
	NewSqrtPrice *big.Int
}

// ConcentratedOut prices an exact-input swap against the liquidity active at
// the current price. Swaps that would leave the current range are priced as
// if the range extended; the on-chain program settles the difference against
// the minimum-out bound.
func ConcentratedOut(amountIn uint64, liquidity, sqrtPriceX64 *big.Int, aToB bool, feePPM uint64) (*ConcentratedResult, error) {
	if amountIn == 0 {
		return nil, ErrZeroAmount
	}
	if liquidity == nil || liquidity.Sign() == 0 {
		return nil, fmt.Errorf("%w: no active liquidity", ErrInsufficientLiquidity)
	}
	if sqrtPriceX64 == nil || sqrtPriceX64.Sign() == 0 {
		return nil, fmt.Errorf("%w: pool has no price", ErrInsufficientLiquidity)
	}
	if feePPM >= FeeRateDenominator {
		return nil, fmt.Errorf("invalid fee rate %d", feePPM)
	}

	in := new(big.Int).SetUint64(amountIn)
	fee := ceilDiv(new(big.Int).Mul(in, new(big.Int).SetUint64(feePPM)), big.NewInt(FeeRateDenominator))
	net := new(big.Int).Sub(in, fee)

	var next, out *big.Int
	if aToB {
		// sqrt' = L*sqrt*Q64 / (L*Q64 + net*sqrt), rounded up
		num := new(big.Int).Mul(liquidity, sqrtPriceX64)
		num.Mul(num, q64)
		den := new(big.Int).Mul(liquidity, q64)
		den.Add(den, new(big.Int).Mul(net, sqrtPriceX64))
		next = ceilDiv(num, den)

		// out = L*(sqrt - sqrt') / Q64
		out = new(big.Int).Sub(sqrtPriceX64, next)
		out.Mul(out, liquidity)
		out.Quo(out, q64)
	} else {
		// sqrt' = sqrt + net*Q64/L
		step := new(big.Int).Mul(net, q64)
		step.Quo(step, liquidity)
		next = new(big.Int).Add(sqrtPriceX64, step)

		// out = L*Q64*(sqrt' - sqrt) / (sqrt'*sqrt)
		num := new(big.Int).Sub(next, sqrtPriceX64)
		num.Mul(num, liquidity)
		num.Mul(num, q64)
		den := new(big.Int).Mul(next, sqrtPriceX64)
		out = num.Quo(num, den)
	}

	if next.Cmp(MinSqrtPriceX64) < 0 || next.Cmp(MaxSqrtPriceX64) > 0 {
		return nil, fmt.Errorf("%w: price moves past the supported range", ErrInsufficientLiquidity)
	}
	if !out.IsUint64() {
		return nil, fmt.Errorf("%w: output overflows", ErrInsufficientLiquidity)
	}

	return &ConcentratedResult{
		AmountOut:    out.Uint64(),
		TradeFee:     fee.Uint64(),
		NewSqrtPrice: next,
	}, nil
}
