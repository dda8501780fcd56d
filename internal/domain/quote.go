package domain

import (
	"github.com/gagliardetto/solana-go"
)

// SwapQuote is the result of pricing a swap against a specific pool.
// MinOut never exceeds ExpectedOut.
type SwapQuote struct {
	Venue       VenueID
	Pool        solana.PublicKey
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	AmountIn    uint64
	ExpectedOut uint64
	MinOut      uint64
	SlippageBps uint32
	FeeRatePPM  uint64 // pool trade fee, parts per million
	// TransferFee is withheld by a Token-2022 input mint before the pool sees
	// the amount. Zero for plain SPL mints.
	TransferFee uint64
}

// SwapResult describes a submitted swap.
type SwapResult struct {
	Signature solana.Signature
	Quote     *SwapQuote
	Fees      []FeeTransfer
}
