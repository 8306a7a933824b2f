package dashboard

import (
	"context"
	"math"

	"github.com/xtding233/shardcost/internal/gacha"
	"github.com/xtding233/shardcost/internal/pricing"
)

// DefaultWorkers keeps a seeded projection identical across machines.
const DefaultWorkers = 8

// ProjectOptions configures a pull budget projection.
type ProjectOptions struct {
	Copies  int         // featured drops wanted; <= 0 means 1
	Start   gacha.State // pity carried into the banner
	Trials  int         // <= 0 means 20000
	Seed    uint64
	Workers int // <= 0 means DefaultWorkers; results depend on it
}

// ProjectionRow prices one point of the pull distribution.
type ProjectionRow struct {
	Label string // "mean", "p50", "p90", "p99", "max"
	Pulls int
	Costs map[pricing.Regime]float64
}

// Projection is a simulated pull distribution converted into money.
type Projection struct {
	Copies int
	Stats  gacha.Stats
	Rows   []ProjectionRow
}

// Project simulates the game's banner and prices the resulting pull counts with the
// greedy plans for every regime.
func Project(ctx context.Context, s *Snapshot, o ProjectOptions) (Projection, error) {
	if o.Trials <= 0 {
		o.Trials = 20000
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Copies <= 0 {
		o.Copies = 1
	}

	stats, err := gacha.RunMonteCarlo(ctx, gacha.SimParams{
		Banner: s.Game.Banner,
		Copies: o.Copies,
		Start:  o.Start,
	}, o.Trials, o.Seed, o.Workers)
	if err != nil {
		return Projection{}, err
	}

	points := []struct {
		label string
		v     float64
	}{
		{"mean", stats.Mean},
		{"p50", stats.P50},
		{"p90", stats.P90},
		{"p99", stats.P99},
		{"max", float64(stats.Max)},
	}

	proj := Projection{Copies: o.Copies, Stats: stats}
	for _, pt := range points {
		pulls := max(1, int(math.Ceil(pt.v)))
		row := ProjectionRow{Label: pt.label, Pulls: pulls, Costs: make(map[pricing.Regime]float64)}
		for _, r := range s.Game.Regimes() {
			plan, err := s.Plan(r, pricing.StrategyGreedy, pulls)
			if err != nil {
				return Projection{}, err
			}
			row.Costs[r] = plan.Cost()
		}
		proj.Rows = append(proj.Rows, row)
	}
	return proj, nil
}
