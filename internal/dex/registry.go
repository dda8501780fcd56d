package dex

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/config"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/observability"
	"solana-swap-adapters/internal/storage"
	"solana-swap-adapters/internal/txn"
)

// venueFactory builds a venue from the cluster's program ids.
type venueFactory func(config.Programs) venue

var venueFactories = map[domain.VenueID]venueFactory{
	domain.VenueRaydiumAMM:    func(p config.Programs) venue { return newRaydiumAMM(p.RaydiumAMM) },
	domain.VenueRaydiumCPMM:   func(p config.Programs) venue { return newRaydiumCPMM(p.RaydiumCPMM) },
	domain.VenueRaydiumCLMM:   func(p config.Programs) venue { return newRaydiumCLMM(p.RaydiumCLMM) },
	domain.VenueMeteoraDLMM:   func(p config.Programs) venue { return newMeteoraDLMM(p.MeteoraDLMM) },
	domain.VenueOrcaWhirlpool: func(p config.Programs) venue { return newWhirlpool(p.OrcaWhirlpool) },
}

// Registry creates adapters for one network.
type Registry struct {
	network       config.Network
	ledger        chain.Ledger
	rpcOpts       []chain.ClientOption
	log           zerolog.Logger
	metrics       *observability.Metrics
	rankers       map[domain.VenueID]Ranker
	swaps         storage.SwapRecordStore
	quotes        storage.QuoteRecordStore
	priorityPrice uint64
	now           func() time.Time
	newKey        func() (solana.PrivateKey, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLedger shares ledger between all adapters instead of dialing the
// network's RPC endpoint.
func WithLedger(ledger chain.Ledger) RegistryOption {
	return func(r *Registry) {
		r.ledger = ledger
	}
}

// WithRPCOptions tunes the HTTP client dialed when no ledger is given.
func WithRPCOptions(opts ...chain.ClientOption) RegistryOption {
	return func(r *Registry) {
		r.rpcOpts = append(r.rpcOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithRanker overrides the pool ranking of one venue.
func WithRanker(v domain.VenueID, rank Ranker) RegistryOption {
	return func(r *Registry) {
		r.rankers[v] = rank
	}
}

// WithSwapJournal records every submitted swap.
func WithSwapJournal(store storage.SwapRecordStore) RegistryOption {
	return func(r *Registry) {
		r.swaps = store
	}
}

// WithQuoteJournal records every computed quote.
func WithQuoteJournal(store storage.QuoteRecordStore) RegistryOption {
	return func(r *Registry) {
		r.quotes = store
	}
}

// WithPriorityPrice sets the compute-unit price of priority swaps.
func WithPriorityPrice(microLamports uint64) RegistryOption {
	return func(r *Registry) {
		r.priorityPrice = microLamports
	}
}

func withClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func withKeygen(newKey func() (solana.PrivateKey, error)) RegistryOption {
	return func(r *Registry) {
		r.newKey = newKey
	}
}

// NewRegistry creates a registry for network.
func NewRegistry(network config.Network, opts ...RegistryOption) *Registry {
	r := &Registry{
		network:       network,
		log:           zerolog.Nop(),
		metrics:       observability.DefaultMetrics,
		rankers:       make(map[domain.VenueID]Ranker),
		priorityPrice: txn.DefaultPriorityMicroLamports,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Network returns the network adapters are created for.
func (r *Registry) Network() config.Network {
	return r.network
}

// Venues lists the venues Create accepts, in a stable order.
func (r *Registry) Venues() []domain.VenueID {
	var out []domain.VenueID
	for _, v := range domain.Venues() {
		if _, ok := venueFactories[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Create returns an adapter for id. Unknown ids fail before any network
// access.
func (r *Registry) Create(id domain.VenueID) (Adapter, error) {
	factory, ok := venueFactories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVenue, id)
	}
	v := factory(r.network.Programs)
	if amm, ok := v.(*raydiumAMM); ok && r.newKey != nil {
		amm.newKey = r.newKey
	}

	rank, ok := r.rankers[id]
	if !ok {
		rank = defaultRanker(id)
	}
	log := r.log.With().Str("venue", string(id)).Logger()

	return &swapper{
		venue:  v,
		ledger: &ledgerHandle{dial: r.dial},
		locator: &locator{
			venue:   v,
			rank:    rank,
			log:     log,
			metrics: r.metrics,
		},
		log:           log,
		metrics:       r.metrics,
		swaps:         r.swaps,
		quotes:        r.quotes,
		priorityPrice: r.priorityPrice,
		now:           r.now,
	}, nil
}

func (r *Registry) dial() chain.Ledger {
	if r.ledger != nil {
		return r.ledger
	}
	opts := append([]chain.ClientOption{chain.WithObserver(r.metrics.ObserveRPC)}, r.rpcOpts...)
	return chain.NewHTTPClient(r.network.RPCEndpoint, opts...)
}
