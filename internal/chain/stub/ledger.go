package stub

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/chain"
)

// ErrNoBlockhash is returned when no blockhash fixture is configured.
var ErrNoBlockhash = errors.New("stub: no blockhash")

// Ledger implements chain.Ledger over in-memory fixtures. It is safe for
// concurrent use so adapters can run their parallel pool lookups against it.
type Ledger struct {
	mu sync.Mutex

	accounts map[solana.PublicKey]*chain.Account
	// order keeps program account listings deterministic.
	order []solana.PublicKey

	Blockhash solana.Hash
	Epoch     chain.EpochInfo

	// SendErr, when set, is returned by SendTransaction.
	SendErr error
	// Sent collects every submitted transaction.
	Sent []*solana.Transaction

	calls map[string]int
}

var _ chain.Ledger = (*Ledger)(nil)

// NewLedger creates an empty stub ledger with a fixed blockhash.
func NewLedger() *Ledger {
	return &Ledger{
		accounts:  make(map[solana.PublicKey]*chain.Account),
		Blockhash: solana.HashFromBytes(sha256.New().Sum(nil)),
		Epoch:     chain.EpochInfo{Epoch: 500, SlotsInEpoch: 432000},
		calls:     make(map[string]int),
	}
}

// SetAccount adds or replaces an account fixture.
func (l *Ledger) SetAccount(key, owner solana.PublicKey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[key]; !ok {
		l.order = append(l.order, key)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	l.accounts[key] = &chain.Account{Owner: owner, Lamports: 2_039_280, Data: buf}
}

// DeleteAccount removes an account fixture.
func (l *Ledger) DeleteAccount(key solana.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.accounts, key)
	for i, k := range l.order {
		if k == key {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Calls returns how many times method was invoked.
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// TotalCalls returns the number of ledger calls of any kind.
func (l *Ledger) TotalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

// GetProgramAccounts returns fixtures owned by program that pass the filters.
func (l *Ledger) GetProgramAccounts(_ context.Context, program solana.PublicKey, filters ...chain.Filter) ([]chain.KeyedAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["getProgramAccounts"]++

	var out []chain.KeyedAccount
	for _, key := range l.order {
		acc := l.accounts[key]
		if acc.Owner != program || !chain.MatchAll(acc.Data, filters) {
			continue
		}
		out = append(out, chain.KeyedAccount{Pubkey: key, Account: clone(acc)})
	}
	return out, nil
}

// GetAccountInfo returns the fixture or nil.
func (l *Ledger) GetAccountInfo(_ context.Context, account solana.PublicKey) (*chain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["getAccountInfo"]++

	acc, ok := l.accounts[account]
	if !ok {
		return nil, nil
	}
	return clone(acc), nil
}

// GetMultipleAccounts returns fixtures in input order.
func (l *Ledger) GetMultipleAccounts(_ context.Context, accounts ...solana.PublicKey) ([]*chain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["getMultipleAccounts"]++

	out := make([]*chain.Account, len(accounts))
	for i, key := range accounts {
		if acc, ok := l.accounts[key]; ok {
			out[i] = clone(acc)
		}
	}
	return out, nil
}

// GetLatestBlockhash returns the configured blockhash.
func (l *Ledger) GetLatestBlockhash(_ context.Context) (*chain.Blockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["getLatestBlockhash"]++

	if l.Blockhash.IsZero() {
		return nil, ErrNoBlockhash
	}
	return &chain.Blockhash{Hash: l.Blockhash, LastValidBlockHeight: 1000}, nil
}

// GetEpochInfo returns the configured epoch.
func (l *Ledger) GetEpochInfo(_ context.Context) (*chain.EpochInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["getEpochInfo"]++

	info := l.Epoch
	return &info, nil
}

// SendTransaction records tx and returns its first signature.
func (l *Ledger) SendTransaction(_ context.Context, tx *solana.Transaction, _ chain.SendOptions) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["sendTransaction"]++

	if l.SendErr != nil {
		return solana.Signature{}, l.SendErr
	}
	l.Sent = append(l.Sent, tx)
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, errors.New("stub: unsigned transaction")
	}
	return tx.Signatures[0], nil
}

// LastSent returns the most recent submitted transaction, or nil.
func (l *Ledger) LastSent() *solana.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Sent) == 0 {
		return nil
	}
	return l.Sent[len(l.Sent)-1]
}

func clone(acc *chain.Account) *chain.Account {
	c := *acc
	c.Data = make([]byte, len(acc.Data))
	copy(c.Data, acc.Data)
	return &c
}
