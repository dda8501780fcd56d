// Package config resolves the target cluster, program ids and runtime
// settings from a TOML file and the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/domain"
)

// Cluster names a Solana network.
type Cluster string

const (
	Devnet  Cluster = "devnet"
	Mainnet Cluster = "mainnet"
)

// ErrUnknownCluster is returned for a cluster name other than devnet or mainnet.
var ErrUnknownCluster = errors.New("unknown cluster")

// ParseCluster accepts "devnet" and "mainnet" (or "mainnet-beta").
func ParseCluster(s string) (Cluster, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "devnet", "dev":
		return Devnet, nil
	case "mainnet", "mainnet-beta", "":
		return Mainnet, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCluster, s)
}

// Programs holds the on-chain program ids of every venue.
type Programs struct {
	RaydiumAMM    solana.PublicKey
	RaydiumCPMM   solana.PublicKey
	RaydiumCLMM   solana.PublicKey
	OpenBook      solana.PublicKey
	MeteoraDLMM   solana.PublicKey
	OrcaWhirlpool solana.PublicKey
}

// For returns the program that owns venue's pools.
func (p Programs) For(venue domain.VenueID) (solana.PublicKey, bool) {
	switch venue {
	case domain.VenueRaydiumAMM:
		return p.RaydiumAMM, true
	case domain.VenueRaydiumCPMM:
		return p.RaydiumCPMM, true
	case domain.VenueRaydiumCLMM:
		return p.RaydiumCLMM, true
	case domain.VenueMeteoraDLMM:
		return p.MeteoraDLMM, true
	case domain.VenueOrcaWhirlpool:
		return p.OrcaWhirlpool, true
	}
	return solana.PublicKey{}, false
}

func (p *Programs) set(venue domain.VenueID, key solana.PublicKey) bool {
	switch venue {
	case domain.VenueRaydiumAMM:
		p.RaydiumAMM = key
	case domain.VenueRaydiumCPMM:
		p.RaydiumCPMM = key
	case domain.VenueRaydiumCLMM:
		p.RaydiumCLMM = key
	case domain.VenueMeteoraDLMM:
		p.MeteoraDLMM = key
	case domain.VenueOrcaWhirlpool:
		p.OrcaWhirlpool = key
	default:
		return false
	}
	return true
}

// Network is the explicit environment an adapter registry runs against.
type Network struct {
	Cluster     Cluster
	RPCEndpoint string
	WSEndpoint  string
	Programs    Programs
	// USDCMint is the cluster's USDC mint, used by the CLI defaults.
	USDCMint solana.PublicKey
}

var (
	meteoraDLMM   = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")
	orcaWhirlpool = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
)

// DevnetNetwork returns the public devnet preset.
func DevnetNetwork() Network {
	return Network{
		Cluster:     Devnet,
		RPCEndpoint: "https://api.devnet.solana.com",
		WSEndpoint:  "wss://api.devnet.solana.com",
		Programs: Programs{
			RaydiumAMM:    solana.MustPublicKeyFromBase58("HWy1jotHpo6UqeQxx49dpYYdQB8wj9Qk9MdxwjLvDHB8"),
			RaydiumCPMM:   solana.MustPublicKeyFromBase58("CPMDWBwJDtYax9qW7AyRuVC19Cc4L4Vcy4n2BHAbHkCW"),
			RaydiumCLMM:   solana.MustPublicKeyFromBase58("devi51mZmdwUJGU9hjN27vEz64Gps7uUefqxg27EAtH"),
			OpenBook:      solana.MustPublicKeyFromBase58("EoTcMgcDRTJVZDMZWBoU6rhYHZfkNTVEAfz3uUJRcYGj"),
			MeteoraDLMM:   meteoraDLMM,
			OrcaWhirlpool: orcaWhirlpool,
		},
		USDCMint: solana.MustPublicKeyFromBase58("Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr"),
	}
}

// MainnetNetwork returns the public mainnet-beta preset.
func MainnetNetwork() Network {
	return Network{
		Cluster:     Mainnet,
		RPCEndpoint: "https://api.mainnet-beta.solana.com",
		WSEndpoint:  "wss://api.mainnet-beta.solana.com",
		Programs: Programs{
			RaydiumAMM:    solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"),
			RaydiumCPMM:   solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"),
			RaydiumCLMM:   solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"),
			OpenBook:      solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX"),
			MeteoraDLMM:   meteoraDLMM,
			OrcaWhirlpool: orcaWhirlpool,
		},
		USDCMint: solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
	}
}

// NetworkFor returns the preset for c.
func NetworkFor(c Cluster) (Network, error) {
	switch c {
	case Devnet:
		return DevnetNetwork(), nil
	case Mainnet:
		return MainnetNetwork(), nil
	}
	return Network{}, fmt.Errorf("%w: %q", ErrUnknownCluster, c)
}

// Validate checks that every venue has a program id and an endpoint is set.
func (n Network) Validate() error {
	if n.RPCEndpoint == "" {
		return fmt.Errorf("network %s: rpc endpoint is required", n.Cluster)
	}
	for _, v := range domain.Venues() {
		id, _ := n.Programs.For(v)
		if id.IsZero() {
			return fmt.Errorf("network %s: program id for %s is required", n.Cluster, v)
		}
	}
	if n.Programs.OpenBook.IsZero() {
		return fmt.Errorf("network %s: openbook program id is required", n.Cluster)
	}
	return nil
}
