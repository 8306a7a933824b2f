package pricing

import "fmt"

// DefaultMaxPulls is the upper end of the range the dashboard precomputes.
const DefaultMaxPulls = 180

// CostTable holds the plan for every target in [1, MaxPulls].
// It is built once and must be treated as read-only afterwards.
type CostTable struct {
	Regime   Regime
	Strategy Strategy
	MaxPulls int
	plans    []Plan // index pulls-1
}

// GenerateCostTable runs OptimalCost for every target in [1, maxPulls].
func GenerateCostTable(cat Catalog, maxPulls int) (*CostTable, error) {
	return BuildCostTable(cat, maxPulls, StrategyGreedy)
}

// BuildCostTable runs the optimizer named by strategy for every target in [1, maxPulls].
// The exact strategy shares one DP across all targets.
func BuildCostTable(cat Catalog, maxPulls int, strategy Strategy) (*CostTable, error) {
	if maxPulls <= 0 {
		return nil, fmt.Errorf("%w: max pulls must be >= 1, got %d", ErrInvalidArgument, maxPulls)
	}
	if strategy == "" {
		strategy = StrategyGreedy
	}
	opt, err := OptimizerFor(strategy)
	if err != nil {
		return nil, err
	}
	if err := checkArgs(cat, maxPulls, limitFor(strategy)); err != nil {
		return nil, err
	}

	tbl := &CostTable{
		Regime:   cat.Regime,
		Strategy: strategy,
		MaxPulls: maxPulls,
		plans:    make([]Plan, maxPulls),
	}
	if strategy == StrategyExact {
		tbl.plans = exactPlans(cat, maxPulls)
		return tbl, nil
	}
	for pulls := 1; pulls <= maxPulls; pulls++ {
		plan, err := opt(cat, pulls)
		if err != nil {
			return nil, fmt.Errorf("pulls=%d: %w", pulls, err)
		}
		tbl.plans[pulls-1] = plan
	}
	return tbl, nil
}

func limitFor(s Strategy) int {
	if s == StrategyExact {
		return MaxExactPulls
	}
	return MaxTargetPulls
}

// Plan returns the precomputed plan for pulls. The Purchases slice is shared.
func (t *CostTable) Plan(pulls int) (Plan, bool) {
	if pulls < 1 || pulls > t.MaxPulls {
		return Plan{}, false
	}
	return t.plans[pulls-1], true
}

// Cost returns the precomputed total for pulls in major units.
func (t *CostTable) Cost(pulls int) (float64, bool) {
	p, ok := t.Plan(pulls)
	if !ok {
		return 0, false
	}
	return p.Cost(), true
}

// Cents returns the precomputed total for pulls in minor units.
func (t *CostTable) Cents(pulls int) (int, bool) {
	p, ok := t.Plan(pulls)
	if !ok {
		return 0, false
	}
	return p.TotalCents, true
}

// Costs returns totals ordered by pulls, index 0 being one pull.
func (t *CostTable) Costs() []float64 {
	out := make([]float64, len(t.plans))
	for i, p := range t.plans {
		out[i] = p.Cost()
	}
	return out
}

// Map returns the table as pulls -> cost.
func (t *CostTable) Map() map[int]float64 {
	out := make(map[int]float64, len(t.plans))
	for i, p := range t.plans {
		out[i+1] = p.Cost()
	}
	return out
}
