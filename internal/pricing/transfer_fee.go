package pricing

import "math/big"

// TransferFee is the Token-2022 fee withheld from a transfer of amount:
// ceil(amount * bps / 10000), capped at maxFee.
func TransferFee(amount uint64, bps uint16, maxFee uint64) uint64 {
	if bps == 0 || amount == 0 {
		return 0
	}
	num := new(big.Int).Mul(new(big.Int).SetUint64(amount), big.NewInt(int64(bps)))
	fee := ceilDiv(num, big.NewInt(BpsDenominator))
	if !fee.IsUint64() || fee.Uint64() > maxFee {
		return maxFee
	}
	return fee.Uint64()
}
