package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-adapters/internal/domain"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNetworkPresets(t *testing.T) {
	for _, c := range []Cluster{Devnet, Mainnet} {
		n, err := NetworkFor(c)
		require.NoError(t, err)
		assert.NoError(t, n.Validate(), "cluster %s", c)
		for _, v := range domain.Venues() {
			_, ok := n.Programs.For(v)
			assert.True(t, ok, "venue %s", v)
		}
	}

	dev := DevnetNetwork()
	main := MainnetNetwork()
	assert.Equal(t, "https://api.devnet.solana.com", dev.RPCEndpoint)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", main.RPCEndpoint)
	assert.NotEqual(t, dev.Programs.RaydiumAMM, main.Programs.RaydiumAMM)
	assert.Equal(t, dev.Programs.MeteoraDLMM, main.Programs.MeteoraDLMM)

	_, err := NetworkFor("testnet")
	assert.ErrorIs(t, err, ErrUnknownCluster)
}

func TestParseCluster(t *testing.T) {
	tests := []struct {
		in   string
		want Cluster
		err  bool
	}{
		{"devnet", Devnet, false},
		{"DEVNET", Devnet, false},
		{"mainnet-beta", Mainnet, false},
		{"", Mainnet, false},
		{"localnet", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCluster(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrUnknownCluster, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoad(t *testing.T) {
	override := solana.NewWallet().PublicKey()
	service := solana.NewWallet().PublicKey()
	referral := solana.NewWallet().PublicKey()

	path := writeFile(t, "swap.toml", `
cluster = "devnet"

[rpc]
endpoint = "http://localhost:8899"
timeout = "5s"
max_retries = 1

[programs]
raydium-cpmm = "`+override.String()+`"

[swap]
slippage_bps = 50
priority = true

[fee]
lamports = 1000000
service_wallet = "`+service.String()+`"
service_percent = "92"

[[fee.referrals]]
wallet = "`+referral.String()+`"
percent = "2.5"

[journal]
postgres_dsn = "postgres://localhost/swaps"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RPC.Timeout.Duration)
	assert.Equal(t, uint32(50), cfg.Swap.SlippageBps)
	assert.True(t, cfg.Swap.Priority)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	n, err := cfg.Network()
	require.NoError(t, err)
	assert.Equal(t, Devnet, n.Cluster)
	assert.Equal(t, "http://localhost:8899", n.RPCEndpoint)
	assert.Equal(t, override, n.Programs.RaydiumCPMM)
	assert.Equal(t, DevnetNetwork().Programs.RaydiumCLMM, n.Programs.RaydiumCLMM)

	fee, err := cfg.FeeSpec()
	require.NoError(t, err)
	require.NotNil(t, fee)
	assert.Equal(t, uint64(1_000_000), fee.Amount)
	assert.Equal(t, service, fee.Service)
	assert.Equal(t, "92", fee.ServicePercent.String())
	require.Len(t, fee.Referrals, 1)
	assert.Equal(t, "2.5", fee.Referrals[0].Percent.String())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "swap.yaml", "cluster: devnet"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", `cluster = "testnet"`))
	assert.ErrorIs(t, err, ErrUnknownCluster)

	_, err = Load(writeFile(t, "venue.toml", "[programs]\nphoenix = \"11111111111111111111111111111111\"\n"))
	assert.ErrorIs(t, err, domain.ErrUnknownVenue)

	_, err = Load(writeFile(t, "slip.toml", "[swap]\nslippage_bps = 20000\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "fee.toml", "[fee]\nlamports = 10\nservice_wallet = \"nope\"\n"))
	assert.Error(t, err)
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	fee, err := cfg.FeeSpec()
	require.NoError(t, err)
	assert.Nil(t, fee)
}

func TestLoadEnv(t *testing.T) {
	wallet := solana.NewWallet()
	raw, err := json.Marshal(toInts(wallet.PrivateKey))
	require.NoError(t, err)

	t.Setenv(EnvDevCluster, "true")
	t.Setenv(EnvSecretKey, string(raw))
	t.Setenv(EnvRPCURL, "http://127.0.0.1:8899")
	t.Setenv(EnvWSURL, "")

	env, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.True(t, env.DevCluster)
	assert.Equal(t, wallet.PublicKey(), env.SecretKey.PublicKey())

	cfg := Default()
	env.Apply(cfg)
	n, err := cfg.Network()
	require.NoError(t, err)
	assert.Equal(t, Devnet, n.Cluster)
	assert.Equal(t, "http://127.0.0.1:8899", n.RPCEndpoint)
	assert.Equal(t, DevnetNetwork().WSEndpoint, n.WSEndpoint)
}

func TestLoadEnv_DotEnvFile(t *testing.T) {
	t.Setenv(EnvDevCluster, "")
	os.Unsetenv(EnvDevCluster)
	t.Setenv(EnvSecretKey, "")
	os.Unsetenv(EnvSecretKey)

	path := writeFile(t, ".env", EnvDevCluster+"=1\n")
	env, err := LoadEnv(path)
	require.NoError(t, err)
	assert.True(t, env.DevCluster)
	assert.Nil(t, env.SecretKey)
}

func TestParseSecretKey(t *testing.T) {
	wallet := solana.NewWallet()

	raw, err := json.Marshal(toInts(wallet.PrivateKey))
	require.NoError(t, err)
	key, err := ParseSecretKey(string(raw))
	require.NoError(t, err)
	assert.Equal(t, wallet.PrivateKey, key)

	key, err = ParseSecretKey(wallet.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, wallet.PrivateKey, key)

	_, err = ParseSecretKey("[1,2,3]")
	assert.Error(t, err)
	_, err = ParseSecretKey("[256" + string(raw[4:]))
	assert.Error(t, err)
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}
