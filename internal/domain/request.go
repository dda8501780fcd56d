package domain

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MaxSlippageBps is 100%.
const MaxSlippageBps = 10_000

// ErrInvalidRequest wraps every validation failure of a swap request.
var ErrInvalidRequest = errors.New("invalid swap request")

// SwapRequest is a single directional swap: spend Amount of InputMint,
// receive at least the slippage-bounded quote of OutputMint.
type SwapRequest struct {
	Signer      solana.PrivateKey
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	Amount      uint64 // base units of InputMint
	SlippageBps uint32 // out of 10000
	Fee         *FeeSpec
	Priority    bool // attach a compute-unit price instruction
}

// Validate checks the request without touching the network.
func (r *SwapRequest) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	case r.Amount == 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case r.InputMint.IsZero() || r.OutputMint.IsZero():
		return fmt.Errorf("%w: both mints are required", ErrInvalidRequest)
	case r.InputMint.Equals(r.OutputMint):
		return fmt.Errorf("%w: input and output mint are the same", ErrInvalidRequest)
	case r.SlippageBps > MaxSlippageBps:
		return fmt.Errorf("%w: slippage %d bps exceeds %d", ErrInvalidRequest, r.SlippageBps, MaxSlippageBps)
	case len(r.Signer) == 0:
		return fmt.Errorf("%w: signer is required", ErrInvalidRequest)
	case len(r.Signer) != ed25519.PrivateKeySize:
		return fmt.Errorf("%w: signer must be a %d-byte keypair, got %d bytes", ErrInvalidRequest, ed25519.PrivateKeySize, len(r.Signer))
	}
	if r.Fee != nil {
		if err := r.Fee.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}

// Owner returns the signer's public key.
func (r *SwapRequest) Owner() solana.PublicKey {
	return r.Signer.PublicKey()
}

// TradeRequest is the buy/sell form of a swap. InputMint is the asset paid
// with on a buy (typically SOL); OutputMint is the asset bought. A sell of the
// same request runs the pair in reverse.
type TradeRequest struct {
	Signer      solana.PrivateKey
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	Amount      uint64
	SlippageBps uint32
	Fee         *FeeSpec
	Priority    bool
}

// BuySwap converts the trade into a swap InputMint -> OutputMint.
func (t *TradeRequest) BuySwap() *SwapRequest {
	return &SwapRequest{
		Signer:      t.Signer,
		InputMint:   t.InputMint,
		OutputMint:  t.OutputMint,
		Amount:      t.Amount,
		SlippageBps: t.SlippageBps,
		Fee:         t.Fee,
		Priority:    t.Priority,
	}
}

// SellSwap converts the trade into a swap OutputMint -> InputMint.
func (t *TradeRequest) SellSwap() *SwapRequest {
	return &SwapRequest{
		Signer:      t.Signer,
		InputMint:   t.OutputMint,
		OutputMint:  t.InputMint,
		Amount:      t.Amount,
		SlippageBps: t.SlippageBps,
		Fee:         t.Fee,
		Priority:    t.Priority,
	}
}
