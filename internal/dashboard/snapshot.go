package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xtding233/shardcost/internal/game"
	"github.com/xtding233/shardcost/internal/pricing"
)

var ErrNoComparison = errors.New("game does not define both regimes")

// Options controls what a snapshot precomputes.
type Options struct {
	MaxPulls int // upper end of the cost tables; <= 0 means pricing.DefaultMaxPulls
}

func (o Options) maxPulls() int {
	if o.MaxPulls <= 0 {
		return pricing.DefaultMaxPulls
	}
	return o.MaxPulls
}

// Snapshot is everything the dashboard shows for one game. It is immutable once built.
type Snapshot struct {
	Game     game.Game
	MaxPulls int
	Greedy   map[pricing.Regime]*pricing.CostTable
	Exact    map[pricing.Regime]*pricing.CostTable
	Metrics  map[pricing.Regime][]pricing.BundleMetrics
	Summary  *pricing.Summary // nil unless both regimes exist
	BuiltAt  time.Time
}

// Build precomputes greedy and exact cost tables for every regime of g concurrently.
func Build(ctx context.Context, g game.Game, opts Options, log *zap.Logger) (*Snapshot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	snap := &Snapshot{
		Game:     g,
		MaxPulls: opts.maxPulls(),
		Greedy:   make(map[pricing.Regime]*pricing.CostTable),
		Exact:    make(map[pricing.Regime]*pricing.CostTable),
		Metrics:  make(map[pricing.Regime][]pricing.BundleMetrics),
	}

	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	for _, regime := range g.Regimes() {
		cat := g.Catalogs[regime]
		snap.Metrics[regime] = pricing.MetricsFor(cat)
		for _, strategy := range []pricing.Strategy{pricing.StrategyGreedy, pricing.StrategyExact} {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				tbl, err := pricing.BuildCostTable(cat, snap.MaxPulls, strategy)
				if err != nil {
					return fmt.Errorf("%s/%s/%s: %w", g.ID, regime, strategy, err)
				}
				mu.Lock()
				defer mu.Unlock()
				if strategy == pricing.StrategyExact {
					snap.Exact[regime] = tbl
				} else {
					snap.Greedy[regime] = tbl
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	normal, hasNormal := snap.Greedy[pricing.RegimeNormal]
	bonus, hasBonus := snap.Greedy[pricing.RegimeFirstTimeBonus]
	if hasNormal && hasBonus {
		s, err := pricing.Summarize(normal, bonus)
		if err != nil {
			return nil, err
		}
		snap.Summary = &s
	}
	snap.BuiltAt = time.Now()

	log.Info("snapshot built",
		zap.String("game", g.ID),
		zap.Int("max_pulls", snap.MaxPulls),
		zap.Int("regimes", len(snap.Greedy)),
		zap.Duration("took", snap.BuiltAt.Sub(start)))
	return snap, nil
}

// Table returns the precomputed table for a regime and strategy.
func (s *Snapshot) Table(r pricing.Regime, strategy pricing.Strategy) (*pricing.CostTable, error) {
	tables := s.Greedy
	switch strategy {
	case pricing.StrategyGreedy, "":
	case pricing.StrategyExact:
		tables = s.Exact
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", pricing.ErrInvalidArgument, strategy)
	}
	tbl, ok := tables[r]
	if !ok {
		return nil, fmt.Errorf("game %s: %w: %s", s.Game.ID, pricing.ErrUnknownRegime, r)
	}
	return tbl, nil
}

// Plan looks pulls up in the precomputed table and falls back to computing it when
// pulls lies beyond the table.
func (s *Snapshot) Plan(r pricing.Regime, strategy pricing.Strategy, pulls int) (pricing.Plan, error) {
	if pulls <= 0 {
		return pricing.Plan{}, fmt.Errorf("%w: target pulls must be >= 1, got %d", pricing.ErrInvalidArgument, pulls)
	}
	tbl, err := s.Table(r, strategy)
	if err != nil {
		return pricing.Plan{}, err
	}
	if p, ok := tbl.Plan(pulls); ok {
		return p, nil
	}
	opt, err := pricing.OptimizerFor(strategy)
	if err != nil {
		return pricing.Plan{}, err
	}
	cat, err := s.Game.Catalog(r)
	if err != nil {
		return pricing.Plan{}, err
	}
	return opt(cat, pulls)
}

// Compare puts both regimes side by side for pulls within the table range.
func (s *Snapshot) Compare(pulls int) (pricing.Comparison, error) {
	if s.Summary == nil {
		return pricing.Comparison{}, fmt.Errorf("game %s: %w", s.Game.ID, ErrNoComparison)
	}
	return pricing.Compare(s.Greedy[pricing.RegimeNormal], s.Greedy[pricing.RegimeFirstTimeBonus], pulls)
}

// Gap is how much the greedy plan overpays against the exact minimum for pulls.
func (s *Snapshot) Gap(r pricing.Regime, pulls int) (float64, error) {
	g, err := s.Plan(r, pricing.StrategyGreedy, pulls)
	if err != nil {
		return 0, err
	}
	e, err := s.Plan(r, pricing.StrategyExact, pulls)
	if err != nil {
		return 0, err
	}
	return float64(g.TotalCents-e.TotalCents) / 100, nil
}
