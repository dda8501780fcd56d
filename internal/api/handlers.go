package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"

	"solana-swap-adapters/internal/dex"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/pricing"
)

// HealthResponse is the JSON body of /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Venues int    `json:"venues"`
}

// VenueResponse describes one venue in /v1/venues.
type VenueResponse struct {
	ID                   string `json:"id"`
	Family               string `json:"family"`
	SupportsInstructions bool   `json:"supports_instructions"`
}

// QuoteResponse is the JSON body of /v1/quote. Token amounts are decimal
// strings so clients without 64-bit integers keep full precision.
type QuoteResponse struct {
	Venue       string `json:"venue"`
	Pool        string `json:"pool"`
	InputMint   string `json:"input_mint"`
	OutputMint  string `json:"output_mint"`
	AmountIn    uint64 `json:"amount_in,string"`
	ExpectedOut uint64 `json:"expected_out,string"`
	MinOut      uint64 `json:"min_out,string"`
	SlippageBps uint32 `json:"slippage_bps"`
	FeeRatePPM  uint64 `json:"fee_rate_ppm"`
	TransferFee uint64 `json:"transfer_fee,string"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newQuoteResponse(q *domain.SwapQuote) QuoteResponse {
	return QuoteResponse{
		Venue:       string(q.Venue),
		Pool:        q.Pool.String(),
		InputMint:   q.InputMint.String(),
		OutputMint:  q.OutputMint.String(),
		AmountIn:    q.AmountIn,
		ExpectedOut: q.ExpectedOut,
		MinOut:      q.MinOut,
		SlippageBps: q.SlippageBps,
		FeeRatePPM:  q.FeeRatePPM,
		TransferFee: q.TransferFee,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Truncate(time.Second).String(),
		Venues: len(s.venues),
	})
}

func (s *Server) handleVenues(w http.ResponseWriter, _ *http.Request) {
	out := make([]VenueResponse, 0, len(s.venues))
	for _, v := range s.venues {
		out = append(out, VenueResponse{
			ID:                   string(v),
			Family:               string(v.Family()),
			SupportsInstructions: s.adapters[v].SupportsInstructions(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleQuote serves GET /v1/quote?venue=&from=&to=&amount=&slippage_bps=.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	venue, err := domain.ParseVenueID(q.Get("venue"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	adapter, ok := s.adapters[venue]
	if !ok {
		writeError(w, http.StatusNotFound, dex.ErrUnsupportedVenue)
		return
	}
	from, err := solana.PublicKeyFromBase58(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("from: invalid mint"))
		return
	}
	to, err := solana.PublicKeyFromBase58(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("to: invalid mint"))
		return
	}
	amount, err := strconv.ParseUint(q.Get("amount"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("amount: expected an unsigned integer"))
		return
	}
	var slippage uint64
	if raw := q.Get("slippage_bps"); raw != "" {
		if slippage, err = strconv.ParseUint(raw, 10, 32); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("slippage_bps: expected an unsigned integer"))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.QuoteTimeout)
	defer cancel()

	quote, err := adapter.Quote(ctx, from, to, amount, uint32(slippage))
	if err != nil {
		status := quoteErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Warn().Err(err).Str("venue", string(venue)).Msg("quote failed")
		}
		writeError(w, status, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, newQuoteResponse(quote))
}

func quoteErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, dex.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, pricing.ErrInsufficientLiquidity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
