package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"solana-swap-adapters/internal/domain"
)

// Environment variables read by LoadEnv.
const (
	EnvDevCluster = "IS_DEV_CLUSTER"
	EnvSecretKey  = "SECRET_KEY"
	EnvRPCURL     = "SOLANA_RPC_URL"
	EnvWSURL      = "SOLANA_WS_URL"
)

// Config is the file-level configuration.
type Config struct {
	Cluster  string            `toml:"cluster"`
	RPC      RPCConfig         `toml:"rpc"`
	Programs map[string]string `toml:"programs"`
	Swap     SwapConfig        `toml:"swap"`
	Fee      FeeConfig         `toml:"fee"`
	Journal  JournalConfig     `toml:"journal"`
	Server   ServerConfig      `toml:"server"`
}

type RPCConfig struct {
	Endpoint   string   `toml:"endpoint"`
	WSEndpoint string   `toml:"ws_endpoint"`
	Timeout    Duration `toml:"timeout"`
	MaxRetries int      `toml:"max_retries"`
	Commitment string   `toml:"commitment"`
}

type SwapConfig struct {
	SlippageBps           uint32 `toml:"slippage_bps"`
	Priority              bool   `toml:"priority"`
	PriorityMicroLamports uint64 `toml:"priority_micro_lamports"`
}

// FeeConfig describes the platform fee charged on every swap.
type FeeConfig struct {
	Lamports       uint64           `toml:"lamports"`
	ServiceWallet  string           `toml:"service_wallet"`
	ServicePercent string           `toml:"service_percent"`
	Referrals      []ReferralConfig `toml:"referrals"`
}

type ReferralConfig struct {
	Wallet  string `toml:"wallet"`
	Percent string `toml:"percent"`
}

// JournalConfig selects where swap and quote records are written. Empty
// DSNs fall back to in-memory stores.
type JournalConfig struct {
	PostgresDSN   string `toml:"postgres_dsn"`
	ClickHouseDSN string `toml:"clickhouse_dsn"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	RatePerMinute  int      `toml:"rate_per_minute"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Duration is a time.Duration that decodes from a TOML string like "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Cluster: string(Mainnet),
		RPC: RPCConfig{
			Timeout:    Duration{30 * time.Second},
			MaxRetries: 3,
			Commitment: "confirmed",
		},
		Swap: SwapConfig{
			SlippageBps: 100,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RatePerMinute:  120,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if !strings.HasSuffix(path, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that do not need the network to be resolved.
func (c *Config) Validate() error {
	if _, err := ParseCluster(c.Cluster); err != nil {
		return err
	}
	if c.Swap.SlippageBps > domain.MaxSlippageBps {
		return fmt.Errorf("swap.slippage_bps %d exceeds %d", c.Swap.SlippageBps, domain.MaxSlippageBps)
	}
	if c.RPC.MaxRetries < 0 {
		return fmt.Errorf("rpc.max_retries must not be negative")
	}
	for name, id := range c.Programs {
		if _, err := domain.ParseVenueID(name); err != nil {
			return fmt.Errorf("programs: %w", err)
		}
		if _, err := solana.PublicKeyFromBase58(id); err != nil {
			return fmt.Errorf("programs.%s: %w", name, err)
		}
	}
	if _, err := c.FeeSpec(); err != nil {
		return err
	}
	return nil
}

// Network resolves the cluster preset and applies endpoint and program
// overrides.
func (c *Config) Network() (Network, error) {
	cluster, err := ParseCluster(c.Cluster)
	if err != nil {
		return Network{}, err
	}
	n, err := NetworkFor(cluster)
	if err != nil {
		return Network{}, err
	}
	if c.RPC.Endpoint != "" {
		n.RPCEndpoint = c.RPC.Endpoint
	}
	if c.RPC.WSEndpoint != "" {
		n.WSEndpoint = c.RPC.WSEndpoint
	}
	for name, id := range c.Programs {
		venue, err := domain.ParseVenueID(name)
		if err != nil {
			return Network{}, fmt.Errorf("programs: %w", err)
		}
		key, err := solana.PublicKeyFromBase58(id)
		if err != nil {
			return Network{}, fmt.Errorf("programs.%s: %w", name, err)
		}
		n.Programs.set(venue, key)
	}
	return n, n.Validate()
}

// FeeSpec builds the platform fee, or nil when no fee is configured.
func (c *Config) FeeSpec() (*domain.FeeSpec, error) {
	if c.Fee.Lamports == 0 {
		return nil, nil
	}
	service, err := solana.PublicKeyFromBase58(c.Fee.ServiceWallet)
	if err != nil {
		return nil, fmt.Errorf("fee.service_wallet: %w", err)
	}
	spec := &domain.FeeSpec{Amount: c.Fee.Lamports, Service: service}
	if c.Fee.ServicePercent != "" {
		if spec.ServicePercent, err = decimal.NewFromString(c.Fee.ServicePercent); err != nil {
			return nil, fmt.Errorf("fee.service_percent: %w", err)
		}
	}
	for i, r := range c.Fee.Referrals {
		wallet, err := solana.PublicKeyFromBase58(r.Wallet)
		if err != nil {
			return nil, fmt.Errorf("fee.referrals[%d].wallet: %w", i, err)
		}
		pct, err := decimal.NewFromString(r.Percent)
		if err != nil {
			return nil, fmt.Errorf("fee.referrals[%d].percent: %w", i, err)
		}
		spec.Referrals = append(spec.Referrals, domain.FeeShare{Wallet: wallet, Percent: pct})
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("fee: %w", err)
	}
	return spec, nil
}

// Env holds values taken from the process environment.
type Env struct {
	DevCluster bool
	SecretKey  solana.PrivateKey
	RPCURL     string
	WSURL      string
}

// LoadEnv loads files (default ".env") into the environment and reads the
// swap variables. A missing .env file is not an error since variables may
// come from the shell or a service manager.
func LoadEnv(files ...string) (*Env, error) {
	_ = godotenv.Load(files...)

	env := &Env{
		DevCluster: parseBool(os.Getenv(EnvDevCluster)),
		RPCURL:     os.Getenv(EnvRPCURL),
		WSURL:      os.Getenv(EnvWSURL),
	}
	if raw := os.Getenv(EnvSecretKey); raw != "" {
		key, err := ParseSecretKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSecretKey, err)
		}
		env.SecretKey = key
	}
	return env, nil
}

// Apply overlays the environment on c: IS_DEV_CLUSTER selects devnet and the
// URL variables override the endpoints.
func (e *Env) Apply(c *Config) {
	if e.DevCluster {
		c.Cluster = string(Devnet)
	}
	if e.RPCURL != "" {
		c.RPC.Endpoint = e.RPCURL
	}
	if e.WSURL != "" {
		c.RPC.WSEndpoint = e.WSURL
	}
}

// ParseSecretKey decodes a keypair given as a JSON byte array, the format
// written by solana-keygen. A base58 string is accepted too.
func ParseSecretKey(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, fmt.Errorf("decode key bytes: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("key byte %d out of range: %d", i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != 64 {
			return nil, fmt.Errorf("key must be 64 bytes, got %d", len(b))
		}
		return solana.PrivateKey(b), nil
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("decode base58 key: %w", err)
	}
	return key, nil
}

func parseBool(s string) bool {
	if s == "1" {
		return true
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	return err == nil && v
}
