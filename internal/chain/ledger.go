package chain

import (
	"bytes"
	"context"

	"github.com/gagliardetto/solana-go"
)

// Ledger is the narrow read/submit surface the swap adapters need from a
// Solana RPC node.
type Ledger interface {
	// GetProgramAccounts lists accounts owned by program that pass every filter.
	GetProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...Filter) ([]KeyedAccount, error)

	// GetAccountInfo returns nil, nil when the account does not exist.
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*Account, error)

	// GetMultipleAccounts preserves input order; missing accounts are nil.
	GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) ([]*Account, error)

	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	GetEpochInfo(ctx context.Context) (*EpochInfo, error)

	// SendTransaction submits a signed transaction once and returns its signature.
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts SendOptions) (solana.Signature, error)
}

// Account is a decoded account as returned by the node.
type Account struct {
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// KeyedAccount pairs an account with its address.
type KeyedAccount struct {
	Pubkey  solana.PublicKey
	Account *Account
}

// Blockhash from getLatestBlockhash.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
	Slot                 uint64
}

// EpochInfo from getEpochInfo.
type EpochInfo struct {
	Epoch        uint64
	SlotIndex    uint64
	SlotsInEpoch uint64
	AbsoluteSlot uint64
	BlockHeight  uint64
}

// SendOptions tunes sendTransaction. The zero value runs preflight at the
// client's commitment.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
}

// Filter is a getProgramAccounts filter: either a data size or a memcmp.
type Filter struct {
	DataSize uint64
	Memcmp   *Memcmp
}

// Memcmp matches Bytes at Offset of the account data.
type Memcmp struct {
	Offset uint64
	Bytes  []byte
}

// DataSizeFilter matches accounts whose data is exactly n bytes.
func DataSizeFilter(n uint64) Filter {
	return Filter{DataSize: n}
}

// MemcmpFilter matches accounts holding b at offset.
func MemcmpFilter(offset uint64, b []byte) Filter {
	return Filter{Memcmp: &Memcmp{Offset: offset, Bytes: b}}
}

// Match reports whether data passes the filter, mirroring node semantics.
func (f Filter) Match(data []byte) bool {
	if f.Memcmp != nil {
		end := f.Memcmp.Offset + uint64(len(f.Memcmp.Bytes))
		if end > uint64(len(data)) {
			return false
		}
		return bytes.Equal(data[f.Memcmp.Offset:end], f.Memcmp.Bytes)
	}
	return uint64(len(data)) == f.DataSize
}

// MatchAll reports whether data passes every filter.
func MatchAll(data []byte, filters []Filter) bool {
	for _, f := range filters {
		if !f.Match(data) {
			return false
		}
	}
	return true
}
