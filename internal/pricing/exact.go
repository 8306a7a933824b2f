package pricing

const inf = int(^uint(0) >> 1)

// knapsack is an unbounded min-cost DP over units.
// dp[t] is the cheapest way to collect exactly t units, pick[t] the bundle index used
// to reach t and prev[t] the unit count before it.
type knapsack struct {
	dp, pick, prev []int
}

// solveUnits fills the DP up to limit. When capped, any step past limit lands on limit,
// which then stands for "limit or more".
func solveUnits(cat Catalog, limit int, capped bool) knapsack {
	k := knapsack{
		dp:   make([]int, limit+1),
		pick: make([]int, limit+1),
		prev: make([]int, limit+1),
	}
	for t := range k.dp {
		k.dp[t], k.pick[t], k.prev[t] = inf, -1, -1
	}
	k.dp[0] = 0

	for t := 0; t <= limit; t++ {
		if k.dp[t] == inf {
			continue
		}
		for i, b := range cat.Bundles {
			nt := t + b.TotalYield()
			if nt > limit {
				if !capped {
					continue
				}
				nt = limit
			}
			if cost := k.dp[t] + b.PriceCents; cost < k.dp[nt] {
				k.dp[nt], k.pick[nt], k.prev[nt] = cost, i, t
			}
		}
	}
	return k
}

// cheapest returns the cheapest reachable t in [lo, hi], smallest t on ties.
func (k knapsack) cheapest(lo, hi int) int {
	best := -1
	for t := lo; t <= hi && t < len(k.dp); t++ {
		if k.dp[t] == inf {
			continue
		}
		if best < 0 || k.dp[t] < k.dp[best] {
			best = t
		}
	}
	return best
}

// plan walks back from t and emits one line per bundle in catalog order.
func (k knapsack) plan(cat Catalog, pulls, t int) Plan {
	plan := newPlan(cat, pulls)
	counts := make([]int, len(cat.Bundles))
	for ; t > 0 && k.pick[t] >= 0; t = k.prev[t] {
		counts[k.pick[t]]++
	}
	for i, n := range counts {
		if n > 0 {
			plan.add(cat.Bundles[i], n)
		}
	}
	return plan
}

// ExactCost finds the minimum-cost combination of bundles that yields at least the
// required units for targetPulls. Quantities are unbounded. Targets above MaxExactPulls
// are rejected with ErrInvalidArgument.
//
// DP over units up to required + maxYield so that a slight overshoot can still win.
// Among equally cheap totals the smallest overshoot is kept. Purchases come out in
// catalog order, one line per bundle.
func ExactCost(cat Catalog, targetPulls int) (Plan, error) {
	if err := checkArgs(cat, targetPulls, MaxExactPulls); err != nil {
		return Plan{}, err
	}
	required := cat.Token.UnitsForPulls(targetPulls)
	limit := required + cat.MaxYield()

	k := solveUnits(cat, limit, true)
	return k.plan(cat, targetPulls, k.cheapest(required, limit)), nil
}

// exactPlans solves every target in [1, maxPulls] from one uncapped DP.
//
// An optimal basket never reaches required + maxYield: dropping any bundle from such a
// basket still covers the target for less. So each target only scans
// [required, required+maxYield) and the result matches ExactCost.
func exactPlans(cat Catalog, maxPulls int) []Plan {
	maxYield := cat.MaxYield()
	k := solveUnits(cat, cat.Token.UnitsForPulls(maxPulls)+maxYield-1, false)

	plans := make([]Plan, maxPulls)
	for pulls := 1; pulls <= maxPulls; pulls++ {
		required := cat.Token.UnitsForPulls(pulls)
		t := k.cheapest(required, required+maxYield-1)
		plans[pulls-1] = k.plan(cat, pulls, t)
	}
	return plans
}
