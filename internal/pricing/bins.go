package pricing

import (
	"fmt"
	"math/big"
)

// DLMM fee constants.
const (
	DLMMFeePrecision = 1_000_000_000
	DLMMMaxFeeRate   = 100_000_000
)

// Bin is one discretized price level. Price is Q64.64 token Y per token X.
type Bin struct {
	ID      int32
	AmountX uint64
	AmountY uint64
	Price   *big.Int
}

// BinSwapResult is the outcome of walking bins for an exact-input swap.
type BinSwapResult struct {
	AmountOut   uint64
	Fee         uint64
	BinsCrossed int
	EndBinID    int32
}

// DLMMFeeRate returns the total fee rate (1e9 precision) of a pair: the
// base fee plus the volatility-driven variable fee, capped at 10%.
func DLMMFeeRate(baseFactor uint16, binStep uint16, powerFactor uint8, volatilityAccumulator, variableFeeControl uint32) uint64 {
	base := new(big.Int).SetUint64(uint64(baseFactor) * uint64(binStep) * 10)
	base.Mul(base, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(powerFactor)), nil))

	total := new(big.Int).Set(base)
	if variableFeeControl > 0 {
		// ceil((va * binStep)^2 * control / 1e11)
		v := new(big.Int).SetUint64(uint64(volatilityAccumulator) * uint64(binStep))
		v.Mul(v, v)
		v.Mul(v, new(big.Int).SetUint64(uint64(variableFeeControl)))
		total.Add(total, ceilDiv(v, big.NewInt(100_000_000_000)))
	}

	if total.Cmp(big.NewInt(DLMMMaxFeeRate)) > 0 {
		return DLMMMaxFeeRate
	}
	return total.Uint64()
}

// BinSwap walks bins in traversal order, starting at the active bin, until
// amountIn is consumed. swapForY sells token X for token Y. Fees are charged
// on the input of every bin touched.
func BinSwap(amountIn uint64, bins []Bin, swapForY bool, feeRate uint64) (*BinSwapResult, error) {
	if amountIn == 0 {
		return nil, ErrZeroAmount
	}
	if feeRate >= DLMMFeePrecision {
		return nil, fmt.Errorf("invalid fee rate %d", feeRate)
	}

	remaining := new(big.Int).SetUint64(amountIn)
	out := new(big.Int)
	fees := new(big.Int)
	res := &BinSwapResult{}

	for _, bin := range bins {
		if remaining.Sign() == 0 {
			break
		}
		if bin.Price == nil || bin.Price.Sign() == 0 {
			continue
		}

		var reserveOut uint64
		if swapForY {
			reserveOut = bin.AmountY
		} else {
			reserveOut = bin.AmountX
		}
		if reserveOut == 0 {
			continue
		}
		res.BinsCrossed++
		res.EndBinID = bin.ID

		reserve := new(big.Int).SetUint64(reserveOut)
		maxIn := maxAmountIn(reserve, bin.Price, swapForY)
		maxFee := dlmmFee(maxIn, feeRate)
		maxInWithFee := new(big.Int).Add(maxIn, maxFee)

		if remaining.Cmp(maxInWithFee) >= 0 {
			remaining.Sub(remaining, maxInWithFee)
			out.Add(out, reserve)
			fees.Add(fees, maxFee)
			continue
		}

		fee := dlmmFeeFromAmount(remaining, feeRate)
		net := new(big.Int).Sub(remaining, fee)
		got := amountOut(net, bin.Price, swapForY)
		if got.Cmp(reserve) > 0 {
			got = reserve
		}
		out.Add(out, got)
		fees.Add(fees, fee)
		remaining.SetInt64(0)
	}

	if remaining.Sign() > 0 {
		return nil, fmt.Errorf("%w: bins exhausted with %s left", ErrInsufficientLiquidity, remaining)
	}

	res.AmountOut = out.Uint64()
	res.Fee = fees.Uint64()
	return res, nil
}

// maxAmountIn is the fee-exclusive input that drains reserve at price.
func maxAmountIn(reserve, price *big.Int, swapForY bool) *big.Int {
	if swapForY {
		// ceil((reserveY << 64) / price)
		return ceilDiv(new(big.Int).Lsh(reserve, 64), price)
	}
	// ceil(reserveX * price >> 64)
	return ceilDiv(new(big.Int).Mul(reserve, price), q64)
}

func amountOut(in, price *big.Int, swapForY bool) *big.Int {
	if swapForY {
		v := new(big.Int).Mul(in, price)
		return v.Rsh(v, 64)
	}
	v := new(big.Int).Lsh(in, 64)
	return v.Quo(v, price)
}

// dlmmFee is the fee on a fee-exclusive amount.
func dlmmFee(amount *big.Int, feeRate uint64) *big.Int {
	num := new(big.Int).Mul(amount, new(big.Int).SetUint64(feeRate))
	return ceilDiv(num, new(big.Int).SetUint64(DLMMFeePrecision-feeRate))
}

// dlmmFeeFromAmount is the fee contained in a fee-inclusive amount.
func dlmmFeeFromAmount(amount *big.Int, feeRate uint64) *big.Int {
	num := new(big.Int).Mul(amount, new(big.Int).SetUint64(feeRate))
	return ceilDiv(num, big.NewInt(DLMMFeePrecision))
}
