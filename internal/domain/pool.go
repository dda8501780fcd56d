package domain

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// PoolDescriptor is a decoded on-chain pool. It is fetched fresh for every
// call and never cached.
type PoolDescriptor struct {
	Address solana.PublicKey
	Venue   VenueID
	MintA   solana.PublicKey
	MintB   solana.PublicKey
	Active  bool
	// Rank orders candidates: bin step for DLMM, liquidity for CLMM and
	// Whirlpool, nil where the first match wins.
	Rank *big.Int
	// State holds the venue-specific decoded account.
	State any
}

// Connects reports whether the pool trades a against b in either direction.
func (p *PoolDescriptor) Connects(a, b solana.PublicKey) bool {
	return (p.MintA.Equals(a) && p.MintB.Equals(b)) || (p.MintA.Equals(b) && p.MintB.Equals(a))
}

// AToB reports whether swapping from mint sells the pool's A side.
func (p *PoolDescriptor) AToB(from solana.PublicKey) bool {
	return p.MintA.Equals(from)
}
