package dex

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/layout"
)

const (
	// tokenAccountRent is the rent-exempt minimum of a 165-byte token account.
	tokenAccountRent uint64 = 2_039_280

	ataCreateIdempotent byte = 1
)

// tokenLeg is one side of a swap from the owner's point of view.
type tokenLeg struct {
	mint    solana.PublicKey
	program solana.PublicKey
}

// userAccounts are the owner's token accounts for a swap plus the
// instructions that prepare them before the swap and clean up after.
type userAccounts struct {
	in, out solana.PublicKey
	pre     []solana.Instruction
	post    []solana.Instruction
}

func (u *userAccounts) wrap(swap ...solana.Instruction) []solana.Instruction {
	out := make([]solana.Instruction, 0, len(u.pre)+len(swap)+len(u.post))
	out = append(out, u.pre...)
	out = append(out, swap...)
	return append(out, u.post...)
}

// associatedAccounts resolves associated token accounts for both legs,
// creating them idempotently. A wrapped SOL input is funded with amountIn
// and synced; wrapped SOL accounts are closed back to the owner afterwards.
func associatedAccounts(owner solana.PublicKey, in, out tokenLeg, amountIn uint64) (*userAccounts, error) {
	u := &userAccounts{}

	var err error
	if u.in, err = chain.AssociatedTokenAddress(owner, in.mint, in.program); err != nil {
		return nil, err
	}
	if u.out, err = chain.AssociatedTokenAddress(owner, out.mint, out.program); err != nil {
		return nil, err
	}

	u.pre = append(u.pre, createATAIdempotent(owner, u.in, owner, in.mint, in.program))
	if in.mint.Equals(solana.WrappedSol) {
		fund, err := system.NewTransferInstruction(amountIn, owner, u.in).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("build wrap transfer: %w", err)
		}
		sync, err := token.NewSyncNativeInstruction(u.in).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("build sync native: %w", err)
		}
		u.pre = append(u.pre, fund, sync)

		closeIn, err := closeAccount(u.in, owner)
		if err != nil {
			return nil, err
		}
		u.post = append(u.post, closeIn)
	}

	u.pre = append(u.pre, createATAIdempotent(owner, u.out, owner, out.mint, out.program))
	if out.mint.Equals(solana.WrappedSol) {
		closeOut, err := closeAccount(u.out, owner)
		if err != nil {
			return nil, err
		}
		u.post = append(u.post, closeOut)
	}

	return u, nil
}

// createATAIdempotent builds the associated token program's
// CreateIdempotent instruction, a no-op when the account exists.
func createATAIdempotent(payer, ata, wallet, mint, tokenProgram solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			signer(payer),
			writable(ata),
			readonly(wallet),
			readonly(mint),
			readonly(solana.SystemProgramID),
			readonly(tokenProgram),
		},
		[]byte{ataCreateIdempotent},
	)
}

func closeAccount(account, owner solana.PublicKey) (solana.Instruction, error) {
	ix, err := token.NewCloseAccountInstruction(account, owner, owner, nil).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build close account: %w", err)
	}
	return ix, nil
}

// ephemeralWSOL creates a fresh wrapped SOL account owned by owner, funded
// with rent plus lamports. The returned key must co-sign the transaction.
func ephemeralWSOL(owner solana.PublicKey, lamports uint64, newKey func() (solana.PrivateKey, error)) (solana.PrivateKey, []solana.Instruction, solana.Instruction, error) {
	key, err := newKey()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate wsol account key: %w", err)
	}
	acct := key.PublicKey()

	create, err := system.NewCreateAccountInstruction(
		tokenAccountRent+lamports,
		layout.TokenAccountSize,
		solana.TokenProgramID,
		owner,
		acct,
	).ValidateAndBuild()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build create wsol account: %w", err)
	}
	initIx, err := token.NewInitializeAccountInstruction(acct, solana.WrappedSol, owner, solana.SysVarRentPubkey).ValidateAndBuild()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build initialize wsol account: %w", err)
	}
	closeIx, err := closeAccount(acct, owner)
	if err != nil {
		return nil, nil, nil, err
	}
	return key, []solana.Instruction{create, initIx}, closeIx, nil
}

// mintPrograms returns the token program owning each mint, in input order.
func mintPrograms(ctx context.Context, l chain.Ledger, mints ...solana.PublicKey) ([]solana.PublicKey, []*chain.Account, error) {
	accounts, err := l.GetMultipleAccounts(ctx, mints...)
	if err != nil {
		return nil, nil, fmt.Errorf("get mint accounts: %w", err)
	}
	programs := make([]solana.PublicKey, len(mints))
	for i, acc := range accounts {
		if acc == nil {
			return nil, nil, fmt.Errorf("mint %s not found", mints[i])
		}
		programs[i] = acc.Owner
	}
	return programs, accounts, nil
}

// tokenBalances reads the amount of each token account, in input order.
func tokenBalances(ctx context.Context, l chain.Ledger, accounts ...solana.PublicKey) ([]uint64, error) {
	raw, err := l.GetMultipleAccounts(ctx, accounts...)
	if err != nil {
		return nil, fmt.Errorf("get token accounts: %w", err)
	}
	out := make([]uint64, len(accounts))
	for i, acc := range raw {
		if acc == nil {
			return nil, fmt.Errorf("token account %s not found", accounts[i])
		}
		ta, err := layout.DecodeTokenAccount(acc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode token account %s: %w", accounts[i], err)
		}
		out[i] = ta.Amount
	}
	return out, nil
}

// saturatingSub returns a-b, or zero when b exceeds a.
func saturatingSub(a uint64, b ...uint64) uint64 {
	for _, v := range b {
		if v >= a {
			return 0
		}
		a -= v
	}
	return a
}
