package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-swap-adapters/internal/domain"
)

// ComputeSwapID computes a deterministic swap record id using SHA256.
// Formula: SHA256(venue|tx_signature)
// Returns hex-encoded hash (64 characters).
func ComputeSwapID(venue domain.VenueID, txSignature string) string {
	data := fmt.Sprintf("%s|%s", string(venue), txSignature)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
