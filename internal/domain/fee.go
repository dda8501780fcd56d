package domain

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FeeShare names a recipient and a percentage in [0, 100].
type FeeShare struct {
	Wallet  solana.PublicKey
	Percent decimal.Decimal
}

// FeeSpec is a platform fee paid in lamports alongside a swap. Referrals are
// paid in order from the running remainder; the service wallet takes the
// rest regardless of ServicePercent, which is recorded but not applied.
type FeeSpec struct {
	Amount         uint64
	Service        solana.PublicKey
	ServicePercent decimal.Decimal
	Referrals      []FeeShare
}

// Validate checks wallets and percentages.
func (f *FeeSpec) Validate() error {
	if f.Amount == 0 {
		return nil
	}
	if f.Service.IsZero() {
		return errors.New("fee service wallet is required")
	}
	if f.ServicePercent.IsNegative() || f.ServicePercent.GreaterThan(hundred) {
		return fmt.Errorf("service percent %s out of range", f.ServicePercent)
	}
	for i, r := range f.Referrals {
		if r.Wallet.IsZero() {
			return fmt.Errorf("referral %d: wallet is required", i)
		}
		if r.Percent.IsNegative() || r.Percent.GreaterThan(hundred) {
			return fmt.Errorf("referral %d: percent %s out of range", i, r.Percent)
		}
	}
	return nil
}

// FeeTransfer is one scheduled lamport transfer.
type FeeTransfer struct {
	To       solana.PublicKey
	Lamports uint64
	Referral bool
}
