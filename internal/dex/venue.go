package dex

import (
	"context"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/layout"
)

// venue is the per-program part of an adapter: how pools are found and
// decoded, how a swap is priced, and which instructions execute it.
type venue interface {
	id() domain.VenueID
	query() poolQuery
	decode(key solana.PublicKey, data []byte) (*domain.PoolDescriptor, error)
	quote(ctx context.Context, l chain.Ledger, pool *domain.PoolDescriptor, from solana.PublicKey, amount uint64, slippageBps uint32) (*pricedSwap, error)
	build(ctx context.Context, l chain.Ledger, owner solana.PublicKey, s *pricedSwap) (*swapPlan, error)
	// rawInstructions reports whether build output can be handed to a
	// caller without extra signers.
	rawInstructions() bool
}

// poolQuery describes the getProgramAccounts lookup of a venue's pools.
type poolQuery struct {
	program     solana.PublicKey
	dataSize    uint64
	mintAOffset uint64
	mintBOffset uint64
}

// filters matches pools holding a at the A offset and b at the B offset.
func (q poolQuery) filters(a, b solana.PublicKey) []chain.Filter {
	return []chain.Filter{
		chain.DataSizeFilter(q.dataSize),
		chain.MemcmpFilter(q.mintAOffset, a.Bytes()),
		chain.MemcmpFilter(q.mintBOffset, b.Bytes()),
	}
}

// pricedSwap is a quote bound to the pool it was priced on. aux carries
// venue state the builder reuses (bin arrays, mint programs).
type pricedSwap struct {
	pool  *domain.PoolDescriptor
	quote *domain.SwapQuote
	aux   any
}

func (p *pricedSwap) aToB() bool {
	return p.pool.AToB(p.quote.InputMint)
}

// swapPlan is the instruction list of one swap plus any keys besides the
// owner that must sign it.
type swapPlan struct {
	instructions []solana.Instruction
	signers      []solana.PrivateKey
}

func newQuote(v domain.VenueID, pool *domain.PoolDescriptor, from solana.PublicKey, amount uint64, slippageBps uint32) *domain.SwapQuote {
	to := pool.MintB
	if !pool.AToB(from) {
		to = pool.MintA
	}
	return &domain.SwapQuote{
		Venue:       v,
		Pool:        pool.Address,
		InputMint:   from,
		OutputMint:  to,
		AmountIn:    amount,
		SlippageBps: slippageBps,
	}
}

// anchorData encodes an Anchor instruction: the global discriminator of
// name followed by the borsh-encoded args.
func anchorData(name string, args any) ([]byte, error) {
	body, err := bin.MarshalBorsh(args)
	if err != nil {
		return nil, err
	}
	disc := layout.InstructionDiscriminator(name)
	return append(disc[:], body...), nil
}

func readonly(k solana.PublicKey) *solana.AccountMeta { return solana.NewAccountMeta(k, false, false) }
func writable(k solana.PublicKey) *solana.AccountMeta { return solana.NewAccountMeta(k, true, false) }
func signer(k solana.PublicKey) *solana.AccountMeta   { return solana.NewAccountMeta(k, true, true) }

// le128 renders a non-negative integer below 2^128 as 16 little-endian
// bytes, the borsh form of u128.
func le128(v *big.Int) [16]byte {
	var out [16]byte
	b := v.Bytes()
	for i := 0; i < len(b) && i < 16; i++ {
		out[i] = b[len(b)-1-i]
	}
	return out
}
