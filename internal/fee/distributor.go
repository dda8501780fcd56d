// Package fee splits a platform fee between referrals and the service
// wallet and renders the split as System Program transfers.
package fee

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/pricing"
)

// RentBuffer is added to every referral transfer so a fresh referral wallet
// ends up rent exempt.
const RentBuffer uint64 = 890_880

// Fee errors
var (
	ErrZeroRecipient = errors.New("fee transfer has no recipient")
	ErrFeeOverflow   = errors.New("referral share plus rent buffer overflows uint64")
)

// Plan splits spec.Amount. Each referral takes floor(remainder * bps / 10000)
// of the running remainder, in order; bps is the referral percent times 100,
// floored. A non-zero share is paid together with RentBuffer. Whatever is
// left goes to the service wallet. Shares plus the service payment always
// add up to spec.Amount; the rent buffers are on top.
func Plan(spec *domain.FeeSpec) ([]domain.FeeTransfer, error) {
	if spec == nil || spec.Amount == 0 {
		return nil, nil
	}

	remainder := new(big.Int).SetUint64(spec.Amount)
	var transfers []domain.FeeTransfer

	for _, ref := range spec.Referrals {
		bps := new(big.Int).SetUint64(pricing.PercentToBps(ref.Percent))
		share := new(big.Int).Mul(remainder, bps)
		share.Quo(share, big.NewInt(pricing.BpsDenominator))
		remainder.Sub(remainder, share)

		if share.Sign() > 0 {
			if share.Uint64() > math.MaxUint64-RentBuffer {
				return nil, fmt.Errorf("referral %s: %w", ref.Wallet, ErrFeeOverflow)
			}
			transfers = append(transfers, domain.FeeTransfer{
				To:       ref.Wallet,
				Lamports: share.Uint64() + RentBuffer,
				Referral: true,
			})
		}
	}

	if remainder.Sign() > 0 {
		transfers = append(transfers, domain.FeeTransfer{
			To:       spec.Service,
			Lamports: remainder.Uint64(),
		})
	}
	return transfers, nil
}

// Instructions renders transfers from payer. A single failure fails the
// whole batch so a swap is never submitted with a partial fee.
func Instructions(payer solana.PublicKey, transfers []domain.FeeTransfer) ([]solana.Instruction, error) {
	ixs := make([]solana.Instruction, 0, len(transfers))
	for i, t := range transfers {
		if t.To.IsZero() {
			return nil, fmt.Errorf("transfer %d: %w", i, ErrZeroRecipient)
		}
		ix, err := system.NewTransferInstruction(t.Lamports, payer, t.To).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("transfer %d to %s: %w", i, t.To, err)
		}
		ixs = append(ixs, ix)
	}
	return ixs, nil
}

// Build plans spec and renders it in one step.
func Build(payer solana.PublicKey, spec *domain.FeeSpec) ([]solana.Instruction, []domain.FeeTransfer, error) {
	transfers, err := Plan(spec)
	if err != nil {
		return nil, nil, err
	}
	if len(transfers) == 0 {
		return nil, nil, nil
	}
	ixs, err := Instructions(payer, transfers)
	if err != nil {
		return nil, nil, err
	}
	return ixs, transfers, nil
}

// Paid returns the lamports the fee recipients actually receive, excluding
// rent buffers.
func Paid(transfers []domain.FeeTransfer) uint64 {
	var total uint64
	for _, t := range transfers {
		if t.Referral {
			total += t.Lamports - RentBuffer
		} else {
			total += t.Lamports
		}
	}
	return total
}
