package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/storage"
)

// defaultWindow bounds journal range queries without since/until.
const defaultWindow = 24 * time.Hour

// SwapRecordResponse is one journaled swap.
type SwapRecordResponse struct {
	Signature   string `json:"signature"`
	Venue       string `json:"venue"`
	Pool        string `json:"pool"`
	Wallet      string `json:"wallet"`
	Side        string `json:"side"`
	InputMint   string `json:"input_mint"`
	OutputMint  string `json:"output_mint"`
	AmountIn    uint64 `json:"amount_in,string"`
	ExpectedOut uint64 `json:"expected_out,string"`
	MinOut      uint64 `json:"min_out,string"`
	SlippageBps uint32 `json:"slippage_bps"`
	FeeLamports uint64 `json:"fee_lamports,string"`
	SubmittedAt int64  `json:"submitted_at_ms"`
}

// QuoteRecordResponse is one journaled quote.
type QuoteRecordResponse struct {
	Venue       string `json:"venue"`
	InputMint   string `json:"input_mint"`
	OutputMint  string `json:"output_mint"`
	AmountIn    uint64 `json:"amount_in,string"`
	ExpectedOut uint64 `json:"expected_out,string"`
	MinOut      uint64 `json:"min_out,string"`
	SlippageBps uint32 `json:"slippage_bps"`
	FeeRatePPM  uint64 `json:"fee_rate_ppm"`
	Timestamp   int64  `json:"timestamp_ms"`
}

func newSwapRecordResponse(r *domain.SwapRecord) SwapRecordResponse {
	return SwapRecordResponse{
		Signature:   r.Signature,
		Venue:       string(r.Venue),
		Pool:        r.Pool,
		Wallet:      r.Wallet,
		Side:        r.Side,
		InputMint:   r.InputMint,
		OutputMint:  r.OutputMint,
		AmountIn:    r.AmountIn,
		ExpectedOut: r.ExpectedOut,
		MinOut:      r.MinOut,
		SlippageBps: r.SlippageBps,
		FeeLamports: r.FeeLamports,
		SubmittedAt: r.SubmittedAt,
	}
}

// handleSwap serves GET /v1/swaps/{signature}.
func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	sig := chi.URLParam(r, "signature")
	if _, err := solana.SignatureFromBase58(sig); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("signature: invalid base58 signature"))
		return
	}

	rec, err := s.swaps.GetBySignature(r.Context(), sig)
	if err != nil {
		s.writeJournalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSwapRecordResponse(rec))
}

// handleWalletSwaps serves GET /v1/swaps?wallet=&since=&until=.
func (s *Server) handleWalletSwaps(w http.ResponseWriter, r *http.Request) {
	wallet, err := solana.PublicKeyFromBase58(r.URL.Query().Get("wallet"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("wallet: invalid public key"))
		return
	}
	since, until, err := s.timeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := s.swaps.GetByWallet(r.Context(), wallet.String(), since, until)
	if err != nil {
		s.writeJournalError(w, err)
		return
	}
	out := make([]SwapRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, newSwapRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePoolQuotes serves GET /v1/pools/{pool}/quotes?since=&until=.
func (s *Server) handlePoolQuotes(w http.ResponseWriter, r *http.Request) {
	pool, err := solana.PublicKeyFromBase58(chi.URLParam(r, "pool"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("pool: invalid public key"))
		return
	}
	since, until, err := s.timeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := s.quotes.GetByPool(r.Context(), pool.String(), since, until)
	if err != nil {
		s.writeJournalError(w, err)
		return
	}
	out := make([]QuoteRecordResponse, 0, len(records))
	for _, q := range records {
		out = append(out, QuoteRecordResponse{
			Venue:       string(q.Venue),
			InputMint:   q.InputMint,
			OutputMint:  q.OutputMint,
			AmountIn:    q.AmountIn,
			ExpectedOut: q.ExpectedOut,
			MinOut:      q.MinOut,
			SlippageBps: q.SlippageBps,
			FeeRatePPM:  q.FeeRatePPM,
			Timestamp:   q.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// timeRange reads since/until in Unix milliseconds. until defaults to now,
// since to defaultWindow before until.
func (s *Server) timeRange(r *http.Request) (int64, int64, error) {
	q := r.URL.Query()

	until := s.now().UnixMilli()
	if raw := q.Get("until"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, errors.New("until: expected Unix milliseconds")
		}
		until = v
	}
	since := until - defaultWindow.Milliseconds()
	if raw := q.Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, errors.New("since: expected Unix milliseconds")
		}
		since = v
	}
	if since > until {
		return 0, 0, errors.New("since is after until")
	}
	return since, until, nil
}

func (s *Server) writeJournalError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.log.Warn().Err(err).Msg("journal read failed")
	writeError(w, http.StatusInternalServerError, errors.New("journal unavailable"))
}
