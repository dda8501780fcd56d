package api

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-adapters/internal/chain/stub"
	"solana-swap-adapters/internal/config"
	"solana-swap-adapters/internal/dex"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/layout"
	"solana-swap-adapters/internal/layout/layouttest"
	"solana-swap-adapters/internal/observability"
	"solana-swap-adapters/internal/pricing"
)

var (
	mintSOL = solana.WrappedSol
	mintTKN = solana.PublicKey{0xA2, 0x5A}
	pool    = solana.PublicKey{0x10, 0x5A}
	q64One  = new(big.Int).Lsh(big.NewInt(1), 64)
)

type fixture struct {
	ledger   *stub.Ledger
	metrics  *observability.Metrics
	registry *dex.Registry
	server   *httptest.Server
}

// seedPool adds a SOL/TKN whirlpool and its SPL mints to l.
func seedPool(l *stub.Ledger, network config.Network) {
	l.SetAccount(pool, network.Programs.OrcaWhirlpool, layouttest.EncodeWhirlpool(&layout.Whirlpool{
		WhirlpoolsConfig: solana.PublicKey{0x11},
		TickSpacing:      64,
		FeeRate:          3000,
		Liquidity:        big.NewInt(1_000_000_000_000),
		SqrtPrice:        new(big.Int).Set(q64One),
		TokenMintA:       mintSOL,
		TokenVaultA:      solana.PublicKey{0x12},
		TokenMintB:       mintTKN,
		TokenVaultB:      solana.PublicKey{0x13},
	}))
	for _, mint := range []solana.PublicKey{mintSOL, mintTKN} {
		l.SetAccount(mint, solana.TokenProgramID, layouttest.EncodeMint(&layout.Mint{Supply: 1_000_000_000, Decimals: 9}))
	}
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixtureWithRegistry(t, nil, opts...)
}

// newFixtureWithRegistry serves a registry over a seeded stub ledger;
// regOpts are appended to the ledger and metrics options.
func newFixtureWithRegistry(t *testing.T, regOpts []dex.RegistryOption, opts ...Option) *fixture {
	t.Helper()
	network := config.MainnetNetwork()
	l := stub.NewLedger()
	seedPool(l, network)

	m := observability.NewMetrics("test", prometheus.NewRegistry())
	reg := dex.NewRegistry(network, append([]dex.RegistryOption{dex.WithLedger(l), dex.WithMetrics(m)}, regOpts...)...)
	s, err := NewServer(Config{AllowedOrigins: []string{"https://app.example"}}, reg, zerolog.Nop(), m, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &fixture{ledger: l, metrics: m, registry: reg, server: ts}
}

func (f *fixture) get(t *testing.T, path string, query url.Values) *http.Response {
	t.Helper()
	u := f.server.URL + path
	if query != nil {
		u += "?" + query.Encode()
	}
	resp, err := http.Get(u)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func quoteQuery(venue, from, to, amount string) url.Values {
	return url.Values{
		"venue":        {venue},
		"from":         {from},
		"to":           {to},
		"amount":       {amount},
		"slippage_bps": {"50"},
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, len(domain.Venues()), body.Venues)
}

func TestVenues(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/v1/venues", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []VenueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, len(domain.Venues()))
	assert.Equal(t, string(domain.VenueRaydiumAMM), body[0].ID)
	assert.False(t, body[0].SupportsInstructions)
	assert.Equal(t, string(domain.FamilyConcentrated), body[2].Family)
	assert.Equal(t, 0, f.ledger.TotalCalls())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HTTPRequests.WithLabelValues("/v1/venues", "OK")))
}

func TestQuote(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/v1/quote", quoteQuery("orca-whirlpool", mintSOL.String(), mintTKN.String(), "1000000"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var body QuoteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	want, err := pricing.ConcentratedOut(1_000_000, big.NewInt(1_000_000_000_000), q64One, true, 3000)
	require.NoError(t, err)
	assert.Equal(t, pool.String(), body.Pool)
	assert.Equal(t, uint64(1_000_000), body.AmountIn)
	assert.Equal(t, want.AmountOut, body.ExpectedOut)
	assert.Equal(t, pricing.ApplySlippageBps(want.AmountOut, 50), body.MinOut)
	assert.Equal(t, uint64(3000), body.FeeRatePPM)
}

func TestQuote_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  url.Values
		status int
	}{
		{"unknown venue", quoteQuery("uniswap", mintSOL.String(), mintTKN.String(), "1"), http.StatusBadRequest},
		{"bad mint", quoteQuery("orca-whirlpool", "not-a-key", mintTKN.String(), "1"), http.StatusBadRequest},
		{"bad amount", quoteQuery("orca-whirlpool", mintSOL.String(), mintTKN.String(), "-5"), http.StatusBadRequest},
		{"zero amount", quoteQuery("orca-whirlpool", mintSOL.String(), mintTKN.String(), "0"), http.StatusBadRequest},
		{"same mint", quoteQuery("orca-whirlpool", mintSOL.String(), mintSOL.String(), "1"), http.StatusBadRequest},
		{"no pool", quoteQuery("raydium-cpmm", mintSOL.String(), mintTKN.String(), "1"), http.StatusNotFound},
	}

	f := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.get(t, "/v1/quote", tt.query)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/v1/venues", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	m := observability.NewMetrics("test", prometheus.NewRegistry())
	reg := dex.NewRegistry(config.MainnetNetwork(), dex.WithLedger(stub.NewLedger()), dex.WithMetrics(m))
	s, err := NewServer(Config{RatePerMinute: 2}, reg, zerolog.Nop(), m)
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		s.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
