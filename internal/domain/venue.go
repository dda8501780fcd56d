package domain

import (
	"errors"
	"fmt"
)

// VenueID identifies a supported liquidity venue.
type VenueID string

// Supported venues.
const (
	VenueRaydiumAMM    VenueID = "raydium-amm"
	VenueRaydiumCPMM   VenueID = "raydium-cpmm"
	VenueRaydiumCLMM   VenueID = "raydium-clmm"
	VenueMeteoraDLMM   VenueID = "meteora-dlmm"
	VenueOrcaWhirlpool VenueID = "orca-whirlpool"
)

// ErrUnknownVenue is returned by ParseVenueID for identifiers outside the
// supported set.
var ErrUnknownVenue = errors.New("unknown venue")

// Venues returns every supported venue in a stable order.
func Venues() []VenueID {
	return []VenueID{
		VenueRaydiumAMM,
		VenueRaydiumCPMM,
		VenueRaydiumCLMM,
		VenueMeteoraDLMM,
		VenueOrcaWhirlpool,
	}
}

// ParseVenueID validates s against the supported venues.
func ParseVenueID(s string) (VenueID, error) {
	for _, v := range Venues() {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVenue, s)
}

func (v VenueID) String() string {
	return string(v)
}

// Family groups venues by liquidity model.
type Family string

// Liquidity families.
const (
	FamilyConstantProduct Family = "constant-product"
	FamilyConcentrated    Family = "concentrated"
	FamilyDiscretized     Family = "discretized"
)

// Family returns the liquidity model of the venue.
func (v VenueID) Family() Family {
	switch v {
	case VenueRaydiumCLMM, VenueOrcaWhirlpool:
		return FamilyConcentrated
	case VenueMeteoraDLMM:
		return FamilyDiscretized
	default:
		return FamilyConstantProduct
	}
}
