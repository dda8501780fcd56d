package pricing

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrZeroAmount is returned for a zero input.
	ErrZeroAmount = errors.New("amount must be positive")
	// ErrInsufficientLiquidity is returned when a pool cannot fill a swap.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

// ConstantProductResult is the outcome of an x*y=k swap.
type ConstantProductResult struct {
	AmountOut uint64
	TradeFee  uint64
}

// ConstantProductOut prices an exact-input swap on x*y=k reserves. The trade
// fee feeNum/feeDen is taken from the input and rounded up.
func ConstantProductOut(amountIn, reserveIn, reserveOut, feeNum, feeDen uint64) (*ConstantProductResult, error) {
	if amountIn == 0 {
		return nil, ErrZeroAmount
	}
	if reserveIn == 0 || reserveOut == 0 {
		return nil, fmt.Errorf("%w: empty reserves", ErrInsufficientLiquidity)
	}
	if feeDen == 0 || feeNum >= feeDen {
		return nil, fmt.Errorf("invalid fee %d/%d", feeNum, feeDen)
	}

	in := new(big.Int).SetUint64(amountIn)
	fee := ceilDiv(new(big.Int).Mul(in, new(big.Int).SetUint64(feeNum)), new(big.Int).SetUint64(feeDen))
	inAfterFee := new(big.Int).Sub(in, fee)

	// out = reserveOut * inAfterFee / (reserveIn + inAfterFee)
	num := new(big.Int).Mul(new(big.Int).SetUint64(reserveOut), inAfterFee)
	den := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), inAfterFee)
	out := new(big.Int).Quo(num, den)

	return &ConstantProductResult{
		AmountOut: out.Uint64(),
		TradeFee:  fee.Uint64(),
	}, nil
}

func ceilDiv(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
