package pricing

import (
	"fmt"
	"sort"
)

const (
	// MaxTargetPulls bounds greedy targets.
	MaxTargetPulls = 1_000_000_000
	// MaxExactPulls bounds exact targets. The DP holds three ints per unit up to the target.
	MaxExactPulls = 10_000
)

// Optimizer produces a plan that covers targetPulls from a catalog.
type Optimizer func(cat Catalog, targetPulls int) (Plan, error)

// Strategy names an Optimizer.
type Strategy string

const (
	StrategyGreedy Strategy = "greedy"
	StrategyExact  Strategy = "exact"
)

// OptimizerFor resolves a strategy name. Empty means greedy.
func OptimizerFor(s Strategy) (Optimizer, error) {
	switch s {
	case StrategyGreedy, "":
		return OptimalCost, nil
	case StrategyExact:
		return ExactCost, nil
	}
	return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidArgument, s)
}

// OptimalCost plans purchases for targetPulls with the greedy-by-efficiency heuristic.
//
// Bundles are walked from most to least efficient and each is bought as many whole times
// as fits in the remaining requirement. Whatever is still missing afterwards is covered by
// a single unit of the smallest-yield bundle, which may overshoot the target.
//
// The result always covers the target but is not always the cheapest combination. When
// yields do not divide each other the heuristic can lose to a mix of less efficient
// bundles, and its cost is not monotone in the target (on the normal catalog 50 pulls
// cost more than 51). Use ExactCost when the true minimum is needed.
func OptimalCost(cat Catalog, targetPulls int) (Plan, error) {
	if err := checkArgs(cat, targetPulls, MaxTargetPulls); err != nil {
		return Plan{}, err
	}

	plan := newPlan(cat, targetPulls)
	ranked := rankByEfficiency(cat.Bundles)

	remaining := plan.Required
	for _, b := range ranked {
		if remaining <= 0 {
			break
		}
		n := remaining / b.TotalYield()
		if n > 0 {
			plan.add(b, n)
			remaining -= n * b.TotalYield()
		}
	}

	if remaining > 0 {
		plan.add(smallestYield(ranked), 1)
	}
	return plan, nil
}

// checkArgs rejects targets outside [1, limit] and targets whose units or price
// would overflow.
func checkArgs(cat Catalog, targetPulls, limit int) error {
	if targetPulls <= 0 {
		return fmt.Errorf("%w: target pulls must be >= 1, got %d", ErrInvalidArgument, targetPulls)
	}
	if err := cat.Validate(); err != nil {
		return err
	}
	if m := cat.maxPulls(); m < limit {
		limit = m
	}
	if targetPulls > limit {
		return fmt.Errorf("%w: target pulls must be <= %d, got %d", ErrInvalidArgument, limit, targetPulls)
	}
	return nil
}

// rankByEfficiency sorts a copy by efficiency descending; ties keep input order.
func rankByEfficiency(bundles []Bundle) []Bundle {
	out := append([]Bundle(nil), bundles...)
	sort.SliceStable(out, func(i, j int) bool { return moreEfficient(out[i], out[j]) })
	return out
}

// smallestYield returns the first bundle with the lowest total yield.
func smallestYield(bundles []Bundle) Bundle {
	best := bundles[0]
	for _, b := range bundles[1:] {
		if b.TotalYield() < best.TotalYield() {
			best = b
		}
	}
	return best
}
