package dex

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/observability"
)

// Ranker orders valid candidate pools, best first. It must not drop
// candidates and should be stable so equal pools keep discovery order.
type Ranker func(candidates []*domain.PoolDescriptor) []*domain.PoolDescriptor

// FirstMatch keeps discovery order: forward lookup results first, then
// reverse.
func FirstMatch(candidates []*domain.PoolDescriptor) []*domain.PoolDescriptor {
	return candidates
}

// HighestRank orders candidates by Rank descending. A nil Rank counts as zero.
func HighestRank(candidates []*domain.PoolDescriptor) []*domain.PoolDescriptor {
	out := make([]*domain.PoolDescriptor, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return rankOf(out[i]).Cmp(rankOf(out[j])) > 0
	})
	return out
}

var zeroRank = new(big.Int)

func rankOf(p *domain.PoolDescriptor) *big.Int {
	if p.Rank == nil {
		return zeroRank
	}
	return p.Rank
}

// defaultRanker picks by liquidity model: constant-product pools take the
// first match, the others the highest rank.
func defaultRanker(v domain.VenueID) Ranker {
	if v.Family() == domain.FamilyConstantProduct {
		return FirstMatch
	}
	return HighestRank
}

// locator discovers the pools of one venue trading a given pair.
type locator struct {
	venue   venue
	rank    Ranker
	log     zerolog.Logger
	metrics *observability.Metrics
}

// candidates looks the pair up in both mint orders concurrently, merges the
// results by address, decodes them and returns the active ones ranked.
func (lc *locator) candidates(ctx context.Context, l chain.Ledger, a, b solana.PublicKey) ([]*domain.PoolDescriptor, error) {
	q := lc.venue.query()

	var forward, reverse []chain.KeyedAccount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forward, err = l.GetProgramAccounts(gctx, q.program, q.filters(a, b)...)
		return err
	})
	g.Go(func() error {
		var err error
		reverse, err = l.GetProgramAccounts(gctx, q.program, q.filters(b, a)...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list %s pools: %w", lc.venue.id(), err)
	}

	seen := make(map[solana.PublicKey]struct{}, len(forward)+len(reverse))
	var pools []*domain.PoolDescriptor
	for _, acc := range append(forward, reverse...) {
		if _, dup := seen[acc.Pubkey]; dup {
			continue
		}
		seen[acc.Pubkey] = struct{}{}

		if acc.Account == nil {
			continue
		}
		pool, err := lc.venue.decode(acc.Pubkey, acc.Account.Data)
		if err != nil {
			lc.log.Debug().Err(err).Str("pool", acc.Pubkey.String()).Msg("skipping undecodable pool")
			continue
		}
		if !pool.Active || !pool.Connects(a, b) {
			continue
		}
		pools = append(pools, pool)
	}

	lc.metrics.RecordPoolCandidates(string(lc.venue.id()), len(pools))
	return lc.rank(pools), nil
}

// locate returns the best pool for the pair.
func (lc *locator) locate(ctx context.Context, l chain.Ledger, a, b solana.PublicKey) (*domain.PoolDescriptor, error) {
	pools, err := lc.candidates(ctx, l, a, b)
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: %s %s/%s", ErrPoolNotFound, lc.venue.id(), a, b)
	}

	best := pools[0]
	lc.log.Debug().
		Str("venue", string(lc.venue.id())).
		Str("pool", best.Address.String()).
		Int("candidates", len(pools)).
		Msg("pool selected")
	return best, nil
}
