// Package txn turns instruction lists into signed version-0 transactions and
// submits them exactly once.
package txn

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/rs/zerolog"

	"solana-swap-adapters/internal/chain"
)

// DefaultPriorityMicroLamports is the compute-unit price attached when a
// caller asks for priority without naming a price.
const DefaultPriorityMicroLamports uint64 = 100_000

var (
	// ErrEmptyPayload is returned when there is nothing to submit.
	ErrEmptyPayload = errors.New("transaction payload is empty")

	// ErrMissingSigner is returned when a required signature has no key.
	ErrMissingSigner = errors.New("missing signer")
)

// SubmissionError reports a failed sendTransaction. The transaction may or
// may not have landed; it is never resubmitted.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit transaction: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Payload is what a dispatcher submits: either raw instructions it compiles
// itself or a prepared transaction it only signs.
type Payload struct {
	instructions []solana.Instruction
	tx           *solana.Transaction
}

// Instructions wraps ixs as a payload.
func Instructions(ixs ...solana.Instruction) Payload {
	return Payload{instructions: ixs}
}

// Versioned wraps a prepared transaction as a payload. A zero recent
// blockhash is filled in at send time.
func Versioned(tx *solana.Transaction) Payload {
	return Payload{tx: tx}
}

// Empty reports whether the payload carries nothing.
func (p Payload) Empty() bool {
	return p.tx == nil && len(p.instructions) == 0
}

// SendOptions controls a single submission.
type SendOptions struct {
	// Priority prepends a SetComputeUnitPrice instruction to instruction
	// payloads. Prepared transactions are sent as built.
	Priority bool
	// PriorityMicroLamports overrides DefaultPriorityMicroLamports.
	PriorityMicroLamports uint64
	// ExtraSigners co-sign alongside the payer, e.g. ephemeral token accounts.
	ExtraSigners  []solana.PrivateKey
	SkipPreflight bool
}

// Dispatcher builds, signs and submits transactions.
type Dispatcher struct {
	ledger        chain.Ledger
	log           zerolog.Logger
	priorityPrice uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithPriorityPrice sets the default compute-unit price in micro-lamports.
func WithPriorityPrice(microLamports uint64) Option {
	return func(d *Dispatcher) {
		if microLamports > 0 {
			d.priorityPrice = microLamports
		}
	}
}

// NewDispatcher creates a dispatcher over ledger.
func NewDispatcher(ledger chain.Ledger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ledger:        ledger,
		log:           zerolog.Nop(),
		priorityPrice: DefaultPriorityMicroLamports,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Build compiles payload into an unsigned version-0 transaction paid by payer.
func (d *Dispatcher) Build(ctx context.Context, payer solana.PublicKey, payload Payload, opts SendOptions) (*solana.Transaction, error) {
	if payload.Empty() {
		return nil, ErrEmptyPayload
	}

	if payload.tx != nil {
		if payload.tx.Message.RecentBlockhash.IsZero() {
			bh, err := d.ledger.GetLatestBlockhash(ctx)
			if err != nil {
				return nil, fmt.Errorf("get latest blockhash: %w", err)
			}
			payload.tx.Message.RecentBlockhash = bh.Hash
		}
		return payload.tx, nil
	}

	ixs := payload.instructions
	if opts.Priority {
		price := opts.PriorityMicroLamports
		if price == 0 {
			price = d.priorityPrice
		}
		budget, err := computebudget.NewSetComputeUnitPriceInstruction(price).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("build compute unit price: %w", err)
		}
		ixs = append([]solana.Instruction{budget}, ixs...)
	}

	bh, err := d.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(ixs, bh.Hash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("compile transaction: %w", err)
	}
	tx.Message.SetVersion(solana.MessageVersionV0)
	return tx, nil
}

// Sign signs tx with payer and extra. Every required signer must be covered.
func Sign(tx *solana.Transaction, payer solana.PrivateKey, extra ...solana.PrivateKey) error {
	keys := make(map[solana.PublicKey]*solana.PrivateKey, len(extra)+1)
	keys[payer.PublicKey()] = &payer
	for i := range extra {
		keys[extra[i].PublicKey()] = &extra[i]
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return fmt.Errorf("malformed message: %d signers, %d accounts", required, len(tx.Message.AccountKeys))
	}
	for _, key := range tx.Message.AccountKeys[:required] {
		if _, ok := keys[key]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigner, key)
		}
	}

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return keys[key]
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}

// Send builds, signs and submits payload once. Failures before submission are
// returned as plain errors; a failed submission is a *SubmissionError.
func (d *Dispatcher) Send(ctx context.Context, payer solana.PrivateKey, payload Payload, opts SendOptions) (solana.Signature, error) {
	tx, err := d.Build(ctx, payer.PublicKey(), payload, opts)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := Sign(tx, payer, opts.ExtraSigners...); err != nil {
		return solana.Signature{}, err
	}

	sig, err := d.ledger.SendTransaction(ctx, tx, chain.SendOptions{SkipPreflight: opts.SkipPreflight})
	if err != nil {
		d.log.Warn().Err(err).Str("payer", payer.PublicKey().String()).Msg("transaction submission failed")
		return solana.Signature{}, &SubmissionError{Err: err}
	}

	d.log.Info().
		Str("signature", sig.String()).
		Int("instructions", len(tx.Message.Instructions)).
		Bool("priority", opts.Priority).
		Msg("transaction submitted")
	return sig, nil
}
