package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-adapters/internal/dex"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/storage/memory"
)

type journalFixture struct {
	*fixture
	swaps  *memory.SwapRecordStore
	quotes *memory.QuoteRecordStore
}

func newJournalFixture(t *testing.T, opts ...Option) *journalFixture {
	t.Helper()
	swaps := memory.NewSwapRecordStore()
	quotes := memory.NewQuoteRecordStore()
	f := newFixtureWithRegistry(t,
		[]dex.RegistryOption{dex.WithSwapJournal(swaps), dex.WithQuoteJournal(quotes)},
		append([]Option{WithJournals(swaps, quotes)}, opts...)...,
	)
	return &journalFixture{fixture: f, swaps: swaps, quotes: quotes}
}

// buy submits a SOL -> TKN swap through the registry against the stub ledger.
// Identical requests sign to identical signatures, so callers vary amount.
func (f *journalFixture) buy(t *testing.T, signer solana.PrivateKey, amount uint64) *domain.SwapResult {
	t.Helper()
	a, err := f.registry.Create(domain.VenueOrcaWhirlpool)
	require.NoError(t, err)
	res, err := a.Buy(context.Background(), &domain.TradeRequest{
		Signer:      signer,
		InputMint:   mintSOL,
		OutputMint:  mintTKN,
		Amount:      amount,
		SlippageBps: 100,
	})
	require.NoError(t, err)
	return res
}

func TestSwapBySignature(t *testing.T) {
	f := newJournalFixture(t)
	signer := solana.NewWallet().PrivateKey
	res := f.buy(t, signer, 1_000_000)

	resp := f.get(t, "/v1/swaps/"+res.Signature.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body SwapRecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, res.Signature.String(), body.Signature)
	assert.Equal(t, string(domain.VenueOrcaWhirlpool), body.Venue)
	assert.Equal(t, pool.String(), body.Pool)
	assert.Equal(t, signer.PublicKey().String(), body.Wallet)
	assert.Equal(t, domain.SwapSideBuy, body.Side)
	assert.Equal(t, uint64(1_000_000), body.AmountIn)
	assert.Equal(t, res.Quote.MinOut, body.MinOut)
}

func TestSwapBySignature_Errors(t *testing.T) {
	f := newJournalFixture(t)

	resp := f.get(t, "/v1/swaps/not-a-signature", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	unknown := solana.Signature{1, 2, 3}
	resp = f.get(t, "/v1/swaps/"+unknown.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWalletSwaps(t *testing.T) {
	f := newJournalFixture(t)
	signer := solana.NewWallet().PrivateKey
	first := f.buy(t, signer, 1_000_000)
	second := f.buy(t, signer, 2_000_000)
	f.buy(t, solana.NewWallet().PrivateKey, 1_000_000)

	resp := f.get(t, "/v1/swaps", url.Values{"wallet": {signer.PublicKey().String()}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []SwapRecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 2)
	got := []string{body[0].Signature, body[1].Signature}
	assert.ElementsMatch(t, []string{first.Signature.String(), second.Signature.String()}, got)
}

func TestWalletSwaps_Window(t *testing.T) {
	f := newJournalFixture(t)
	signer := solana.NewWallet().PrivateKey
	f.buy(t, signer, 1_000_000)
	wallet := signer.PublicKey().String()

	// A window that ended before the swap is empty, not an error.
	past := strconv.FormatInt(time.Now().Add(-48*time.Hour).UnixMilli(), 10)
	resp := f.get(t, "/v1/swaps", url.Values{"wallet": {wallet}, "until": {past}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body []SwapRecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body)

	tests := []struct {
		name  string
		query url.Values
	}{
		{"bad wallet", url.Values{"wallet": {"nope"}}},
		{"bad since", url.Values{"wallet": {wallet}, "since": {"yesterday"}}},
		{"inverted range", url.Values{"wallet": {wallet}, "since": {"2000"}, "until": {"1000"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.get(t, "/v1/swaps", tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestPoolQuotes(t *testing.T) {
	f := newJournalFixture(t)

	for _, amount := range []string{"1000", "2000"} {
		resp := f.get(t, "/v1/quote", quoteQuery("orca-whirlpool", mintSOL.String(), mintTKN.String(), amount))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := f.get(t, "/v1/pools/"+pool.String()+"/quotes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []QuoteRecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 2)
	amounts := []uint64{body[0].AmountIn, body[1].AmountIn}
	assert.ElementsMatch(t, []uint64{1000, 2000}, amounts)
	assert.Equal(t, string(domain.VenueOrcaWhirlpool), body[0].Venue)
	assert.Equal(t, uint32(50), body[0].SlippageBps)
}

func TestPoolQuotes_FixedClock(t *testing.T) {
	// With the server clock a week back, today's quotes fall outside the
	// default window.
	f := newJournalFixture(t, withClock(func() time.Time { return time.Now().Add(-7 * 24 * time.Hour) }))
	resp := f.get(t, "/v1/quote", quoteQuery("orca-whirlpool", mintSOL.String(), mintTKN.String(), "1000"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.get(t, "/v1/pools/"+pool.String()+"/quotes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body []QuoteRecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body)
}

func TestJournalRoutesNeedJournals(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/v1/swaps", url.Values{"wallet": {solana.NewWallet().PublicKey().String()}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = f.get(t, "/v1/pools/"+pool.String()+"/quotes", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
