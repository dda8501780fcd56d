package chain

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
	pdaMarker     = "ProgramDerivedAddress"
)

// ErrOnCurve is returned when seeds hash to a valid ed25519 point and so
// cannot be used as a program address.
var ErrOnCurve = errors.New("derived address is on the ed25519 curve")

// CreateProgramAddress derives the program address for an exact seed set,
// bump included.
func CreateProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return solana.PublicKey{}, fmt.Errorf("too many seeds: %d", len(seeds))
	}

	data := make([]byte, 0, 64)
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return solana.PublicKey{}, fmt.Errorf("seed too long: %d bytes", len(seed))
		}
		data = append(data, seed...)
	}
	data = append(data, programID[:]...)
	data = append(data, pdaMarker...)

	hash := sha256.Sum256(data)
	if isOnCurve(hash[:]) {
		return solana.PublicKey{}, ErrOnCurve
	}
	return solana.PublicKeyFromBytes(hash[:]), nil
}

// FindProgramAddress searches bumps from 255 down for the first off-curve
// address.
func FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if errors.Is(err, ErrOnCurve) {
			continue
		}
		if err != nil {
			return solana.PublicKey{}, 0, err
		}
		return addr, uint8(bump), nil
	}
	return solana.PublicKey{}, 0, fmt.Errorf("no viable bump for program %s", programID)
}

// AssociatedTokenAddress derives the associated token account of wallet for
// mint under the given token program.
func AssociatedTokenAddress(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := FindProgramAddress([][]byte{wallet[:], tokenProgram[:], mint[:]}, solana.SPLAssociatedTokenAccountProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}
	return addr, nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
