package pricing

import (
	"fmt"
	"math"
)

// BundleMetrics are per-bundle figures shown next to a catalog.
type BundleMetrics struct {
	Bundle      Bundle
	TotalYield  int
	PerDollar   float64 // units per major currency unit
	Pulls       int     // whole pulls granted by one unit
	Leftover    int     // units left over after Pulls
	CostPerPull float64 // price / (TotalYield / PerPull)
}

// MetricsFor computes BundleMetrics for every bundle in catalog order.
func MetricsFor(cat Catalog) []BundleMetrics {
	out := make([]BundleMetrics, 0, len(cat.Bundles))
	for _, b := range cat.Bundles {
		m := BundleMetrics{
			Bundle:     b,
			TotalYield: b.TotalYield(),
			PerDollar:  b.Efficiency(),
		}
		m.Pulls, m.Leftover = cat.Token.PullsFromUnits(m.TotalYield)
		if m.TotalYield > 0 && cat.Token.PerPull > 0 {
			m.CostPerPull = b.Price() / (float64(m.TotalYield) / float64(cat.Token.PerPull))
		} else {
			m.CostPerPull = math.Inf(1)
		}
		out = append(out, m)
	}
	return out
}

// MostEfficient returns the bundle with the best units per cent, first on ties.
func MostEfficient(cat Catalog) (Bundle, bool) {
	ranked := rankByEfficiency(cat.Bundles)
	if len(ranked) == 0 {
		return Bundle{}, false
	}
	return ranked[0], true
}

// Comparison puts both regimes side by side for one target.
type Comparison struct {
	Pulls            int
	Normal           float64
	FirstTime        float64
	Savings          float64 // Normal - FirstTime
	SavingsPct       float64 // Savings / Normal * 100
	NormalPerPull    float64
	FirstTimePerPull float64
}

// Compare looks up pulls in both tables.
func Compare(normal, bonus *CostTable, pulls int) (Comparison, error) {
	if normal == nil || bonus == nil {
		return Comparison{}, fmt.Errorf("%w: both cost tables are required", ErrInvalidArgument)
	}
	n, ok := normal.Cents(pulls)
	if !ok {
		return Comparison{}, fmt.Errorf("%w: pulls %d outside [1, %d]", ErrInvalidArgument, pulls, normal.MaxPulls)
	}
	b, ok := bonus.Cents(pulls)
	if !ok {
		return Comparison{}, fmt.Errorf("%w: pulls %d outside [1, %d]", ErrInvalidArgument, pulls, bonus.MaxPulls)
	}
	return comparison(pulls, n, b), nil
}

func comparison(pulls, normalCents, bonusCents int) Comparison {
	c := Comparison{
		Pulls:            pulls,
		Normal:           centsToDollars(normalCents),
		FirstTime:        centsToDollars(bonusCents),
		Savings:          centsToDollars(normalCents - bonusCents),
		NormalPerPull:    centsToDollars(normalCents) / float64(pulls),
		FirstTimePerPull: centsToDollars(bonusCents) / float64(pulls),
	}
	if normalCents > 0 {
		c.SavingsPct = float64(normalCents-bonusCents) / float64(normalCents) * 100
	}
	return c
}

// Summary is the headline of the dashboard.
type Summary struct {
	MaxPulls     int
	MaxSavings   float64
	MaxSavingsAt int // first target reaching MaxSavings
	AvgSavings   float64
	AtMax        Comparison // comparison at MaxPulls
}

// Summarize scans both tables over their shared range.
func Summarize(normal, bonus *CostTable) (Summary, error) {
	if normal == nil || bonus == nil {
		return Summary{}, fmt.Errorf("%w: both cost tables are required", ErrInvalidArgument)
	}
	if normal.MaxPulls != bonus.MaxPulls {
		return Summary{}, fmt.Errorf("%w: table ranges differ (%d vs %d)", ErrInvalidArgument, normal.MaxPulls, bonus.MaxPulls)
	}

	s := Summary{MaxPulls: normal.MaxPulls, MaxSavingsAt: 1}
	best, total := math.MinInt, 0
	for pulls := 1; pulls <= normal.MaxPulls; pulls++ {
		n, _ := normal.Cents(pulls)
		b, _ := bonus.Cents(pulls)
		diff := n - b
		total += diff
		if diff > best {
			best, s.MaxSavingsAt = diff, pulls
		}
	}
	s.MaxSavings = centsToDollars(best)
	s.AvgSavings = centsToDollars(total) / float64(normal.MaxPulls)

	n, _ := normal.Cents(normal.MaxPulls)
	b, _ := bonus.Cents(bonus.MaxPulls)
	s.AtMax = comparison(normal.MaxPulls, n, b)
	return s, nil
}
