package gacha

import (
	"context"
	"errors"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

var ErrInvalidSim = errors.New("invalid simulation params")

// SimParams describes one projection run.
type SimParams struct {
	Banner Banner
	Copies int   // featured drops wanted per trial; <= 0 means 1
	Start  State // pity carried into the banner
}

// Stats summarizes pulls-per-trial samples.
type Stats struct {
	Trials int
	Mean   float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
	Max    int
}

// RunMonteCarlo estimates how many pulls it takes to collect p.Copies featured drops.
//
// Trials are split across workers; worker w draws from PCG stream w of seed so a run is
// reproducible for a fixed (seed, workers) pair.
func RunMonteCarlo(ctx context.Context, p SimParams, trials int, seed uint64, workers int) (Stats, error) {
	if trials <= 0 {
		return Stats{}, nil
	}
	if err := p.Banner.Validate(); err != nil {
		return Stats{}, err
	}
	if p.Copies <= 0 {
		p.Copies = 1
	}
	if p.Start.SinceLast < 0 || p.Start.SinceLast >= p.Banner.Odds.Pity {
		return Stats{}, ErrInvalidSim
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > trials {
		workers = trials
	}

	samples := make([]int, trials)
	chunk := (trials + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, trials)
		if lo >= hi {
			break
		}
		rng := NewStreamRNG(seed, uint64(w))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				n, err := simulateOne(p, rng)
				if err != nil {
					return err
				}
				samples[i] = n
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return calcStats(samples), nil
}

// simulateOne pulls until Copies featured drops have landed and returns the pull count.
func simulateOne(p SimParams, rng RandomSource) (int, error) {
	s := p.Start
	pulls, got := 0, 0
	for got < p.Copies {
		pulls++
		out, err := p.Banner.Pull(&s, rng)
		if err != nil {
			return 0, err
		}
		if out.Hit && out.Featured {
			got++
		}
	}
	return pulls, nil
}

func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}

	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	percentile := func(q float64) float64 {
		pos := q * float64(n-1)
		i := int(math.Floor(pos))
		if i+1 >= n {
			return float64(sorted[n-1])
		}
		f := pos - float64(i)
		return float64(sorted[i])*(1-f) + float64(sorted[i+1])*f
	}

	return Stats{
		Trials: n,
		Mean:   mean,
		StdDev: math.Sqrt(acc / float64(n)),
		P50:    percentile(0.50),
		P90:    percentile(0.90),
		P99:    percentile(0.99),
		Max:    sorted[n-1],
	}
}
