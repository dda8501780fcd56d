package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-swap-adapters/internal/domain"
)

// ComputeQuoteID computes a deterministic quote record id using SHA256.
// Formula: SHA256(venue|pool|input_mint|amount_in|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeQuoteID(
	venue domain.VenueID,
	pool string,
	inputMint string,
	amountIn uint64,
	timestampMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		string(venue),
		pool,
		inputMint,
		amountIn,
		timestampMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
