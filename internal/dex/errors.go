package dex

import (
	"errors"

	"solana-swap-adapters/internal/domain"
)

// Adapter errors
var (
	ErrUnsupportedVenue = errors.New("unsupported venue")
	ErrPoolNotFound     = errors.New("pool not found")
	ErrNotImplemented   = errors.New("not implemented")

	// ErrInvalidRequest is domain.ErrInvalidRequest, re-exported so callers
	// of this package need a single import for errors.Is checks.
	ErrInvalidRequest = domain.ErrInvalidRequest
)
