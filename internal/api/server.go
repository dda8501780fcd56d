// Package api serves read-only swap quotes and the swap/quote journals over
// HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"solana-swap-adapters/internal/dex"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/observability"
	"solana-swap-adapters/internal/storage"
)

// Registry creates venue adapters. *dex.Registry satisfies it.
type Registry interface {
	Venues() []domain.VenueID
	Create(id domain.VenueID) (dex.Adapter, error)
}

// Config holds the HTTP server settings.
type Config struct {
	Addr           string
	RatePerMinute  int
	AllowedOrigins []string
	QuoteTimeout   time.Duration
}

// Server is the quote HTTP service.
type Server struct {
	cfg      Config
	log      zerolog.Logger
	metrics  *observability.Metrics
	venues   []domain.VenueID
	adapters map[domain.VenueID]dex.Adapter
	started  time.Time
	handler  http.Handler

	swaps  storage.SwapRecordStore
	quotes storage.QuoteRecordStore
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithJournals exposes the swap and quote journals under /v1/swaps and
// /v1/pools/{pool}/quotes. Either store may be nil.
func WithJournals(swaps storage.SwapRecordStore, quotes storage.QuoteRecordStore) Option {
	return func(s *Server) {
		s.swaps = swaps
		s.quotes = quotes
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates one adapter per venue of reg and mounts the routes.
func NewServer(cfg Config, reg Registry, log zerolog.Logger, metrics *observability.Metrics, opts ...Option) (*Server, error) {
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	if cfg.QuoteTimeout <= 0 {
		cfg.QuoteTimeout = 15 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		venues:   reg.Venues(),
		adapters: make(map[domain.VenueID]dex.Adapter),
		started:  time.Now(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, v := range s.venues {
		a, err := reg.Create(v)
		if err != nil {
			return nil, fmt.Errorf("create %s adapter: %w", v, err)
		}
		s.adapters[v] = a
	}

	r := chi.NewMux()
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.RatePerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RatePerMinute, time.Minute))
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/venues", s.handleVenues)
		r.Get("/quote", s.handleQuote)
		if s.swaps != nil {
			r.Get("/swaps", s.handleWalletSwaps)
			r.Get("/swaps/{signature}", s.handleSwap)
		}
		if s.quotes != nil {
			r.Get("/pools/{pool}/quotes", s.handlePoolQuotes)
		}
	})

	s.handler = newCORSHandler(cfg.AllowedOrigins, r)
	return s, nil
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newCORSHandler(allowedOrigins []string, next http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	// Wildcard origins cannot carry credentials.
	allowCredentials := !(len(allowedOrigins) == 1 && allowedOrigins[0] == "*")

	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: allowCredentials,
		MaxAge:           int(2 * time.Hour / time.Second),
	}).Handler(next)
}
