package dashboard

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xtding233/shardcost/internal/game"
	"github.com/xtding233/shardcost/internal/pricing"
)

func loadHSR(t *testing.T) *Snapshot {
	t.Helper()
	g, err := game.NewLoader("").Load("hsr")
	require.NoError(t, err)
	snap, err := Build(context.Background(), g, Options{}, zap.NewNop())
	require.NoError(t, err)
	return snap
}

func TestBuildPrecomputesBothStrategies(t *testing.T) {
	snap := loadHSR(t)

	assert.Equal(t, pricing.DefaultMaxPulls, snap.MaxPulls)
	for _, r := range pricing.Regimes {
		require.Contains(t, snap.Greedy, r)
		require.Contains(t, snap.Exact, r)
		assert.Len(t, snap.Metrics[r], 6)
	}
	require.NotNil(t, snap.Summary)
	assert.InDelta(t, 142.09, snap.Summary.AtMax.Savings, 1e-9)

	n, ok := snap.Greedy[pricing.RegimeNormal].Cents(180)
	require.True(t, ok)
	assert.Equal(t, 36093, n)
	b, ok := snap.Greedy[pricing.RegimeFirstTimeBonus].Cents(180)
	require.True(t, ok)
	assert.Equal(t, 21884, b)
}

func TestBuildHonoursMaxPulls(t *testing.T) {
	g, err := game.NewLoader("").Load("hsr")
	require.NoError(t, err)
	snap, err := Build(context.Background(), g, Options{MaxPulls: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Greedy[pricing.RegimeNormal].MaxPulls)
	assert.Equal(t, 20, snap.Exact[pricing.RegimeFirstTimeBonus].MaxPulls)
}

func TestBuildCancelled(t *testing.T) {
	g, err := game.NewLoader("").Load("hsr")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Build(ctx, g, Options{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotPlanFallsBackBeyondTable(t *testing.T) {
	snap := loadHSR(t)

	inTable, err := snap.Plan(pricing.RegimeNormal, pricing.StrategyGreedy, 1)
	require.NoError(t, err)
	assert.Equal(t, 297, inTable.TotalCents)

	beyond, err := snap.Plan(pricing.RegimeNormal, pricing.StrategyGreedy, 200)
	require.NoError(t, err)
	direct, err := pricing.OptimalCost(pricing.NormalCatalog(), 200)
	require.NoError(t, err)
	assert.Equal(t, direct, beyond)

	_, err = snap.Plan(pricing.RegimeNormal, pricing.StrategyGreedy, 0)
	assert.ErrorIs(t, err, pricing.ErrInvalidArgument)
	_, err = snap.Plan(pricing.RegimeNormal, "random", 10)
	assert.ErrorIs(t, err, pricing.ErrInvalidArgument)
	_, err = snap.Plan(pricing.Regime("vip"), pricing.StrategyGreedy, 10)
	assert.ErrorIs(t, err, pricing.ErrUnknownRegime)
}

func TestSnapshotPlanBeyondTableIsBounded(t *testing.T) {
	snap := loadHSR(t)

	for _, r := range pricing.Regimes {
		beyond, err := snap.Plan(r, pricing.StrategyExact, 200)
		require.NoError(t, err)
		cat, err := snap.Game.Catalog(r)
		require.NoError(t, err)
		direct, err := pricing.ExactCost(cat, 200)
		require.NoError(t, err)
		assert.Equal(t, direct, beyond, "regime %s", r)
	}

	tests := []struct {
		strategy pricing.Strategy
		pulls    int
	}{
		{pricing.StrategyExact, pricing.MaxExactPulls + 1},
		{pricing.StrategyExact, 1_000_000_000_000},
		{pricing.StrategyGreedy, pricing.MaxTargetPulls + 1},
		{pricing.StrategyGreedy, math.MaxInt},
	}
	for _, tt := range tests {
		_, err := snap.Plan(pricing.RegimeNormal, tt.strategy, tt.pulls)
		assert.ErrorIs(t, err, pricing.ErrInvalidArgument, "%s pulls=%d", tt.strategy, tt.pulls)
	}
}

func TestSnapshotGapNeverNegative(t *testing.T) {
	snap := loadHSR(t)
	for pulls := 1; pulls <= snap.MaxPulls; pulls++ {
		for _, r := range pricing.Regimes {
			gap, err := snap.Gap(r, pulls)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, gap, 0.0, "regime %s pulls %d", r, pulls)
		}
	}
}

func TestSnapshotCompare(t *testing.T) {
	snap := loadHSR(t)
	c, err := snap.Compare(1)
	require.NoError(t, err)
	assert.InDelta(t, 2.97, c.Normal, 1e-9)
	assert.InDelta(t, 1.98, c.FirstTime, 1e-9)
	assert.InDelta(t, 0.99, c.Savings, 1e-9)

	_, err = snap.Compare(181)
	assert.ErrorIs(t, err, pricing.ErrInvalidArgument)
}

func TestCompareNeedsBothRegimes(t *testing.T) {
	snap := loadHSR(t)
	single := *snap
	single.Summary = nil
	_, err := single.Compare(10)
	assert.ErrorIs(t, err, ErrNoComparison)
}

func TestProjectIsDeterministicForSeed(t *testing.T) {
	snap := loadHSR(t)
	opts := ProjectOptions{Trials: 2000, Seed: 7, Workers: 4}

	a, err := Project(context.Background(), snap, opts)
	require.NoError(t, err)
	b, err := Project(context.Background(), snap, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.Len(t, a.Rows, 5)
	assert.Equal(t, 1, a.Copies)
	assert.LessOrEqual(t, a.Stats.Max, 2*90)
	for _, row := range a.Rows {
		assert.GreaterOrEqual(t, row.Pulls, 1)
		assert.Greater(t, row.Costs[pricing.RegimeNormal], row.Costs[pricing.RegimeFirstTimeBonus], row.Label)
	}
}

func TestStoreLoadAndGet(t *testing.T) {
	s := NewStore(game.NewLoader(""), Options{MaxPulls: 30}, nil)
	assert.Empty(t, s.Games())

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{"hsr", "wuwa"}, s.Games())

	snap, err := s.Get("wuwa")
	require.NoError(t, err)
	assert.Equal(t, "wuwa", snap.Game.ID)
	assert.Equal(t, 30, snap.MaxPulls)

	_, err = s.Get("genshin")
	assert.ErrorIs(t, err, game.ErrUnknownGame)
}

func TestStoreLoadUnknownKeepsPrevious(t *testing.T) {
	s := NewStore(game.NewLoader(""), Options{MaxPulls: 10}, nil)
	require.NoError(t, s.Load(context.Background(), "hsr"))

	err := s.Load(context.Background(), "genshin")
	assert.ErrorIs(t, err, game.ErrUnknownGame)
	assert.Equal(t, []string{"hsr"}, s.Games())
}

const testDefault = `
currency:
  per_pull: 160
draw:
  p_base: 0.006
  pity: 90
`

const testGame = `
name: Test
catalogs:
  normal:
    - {id: a, name: A, base: 160, bonus: 0, price_cents: %d}
`

func writeGame(t *testing.T, dir string, price int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "games"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "games", "default.yaml"), []byte(testDefault), 0o644))
	body := []byte(fmt.Sprintf(testGame, price))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "games", "test.yaml"), body, 0o644))
}

func TestStoreWatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir, 100)

	s := NewStore(game.NewLoader(dir), Options{MaxPulls: 5}, nil)
	require.NoError(t, s.Load(context.Background()))
	snap, err := s.Get("test")
	require.NoError(t, err)
	c, _ := snap.Greedy[pricing.RegimeNormal].Cents(1)
	assert.Equal(t, 100, c)

	stop := s.Watch(context.Background(), 20*time.Millisecond)
	defer stop()

	// make sure the new mtime is strictly later
	time.Sleep(30 * time.Millisecond)
	writeGame(t, dir, 250)
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "games", "test.yaml"), future, future))

	assert.Eventually(t, func() bool {
		snap, err := s.Get("test")
		if err != nil {
			return false
		}
		c, _ := snap.Greedy[pricing.RegimeNormal].Cents(1)
		return c == 250
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStoreWatchEmbeddedIsNoop(t *testing.T) {
	s := NewStore(game.NewLoader(""), Options{MaxPulls: 5}, nil)
	require.NoError(t, s.Load(context.Background(), "hsr"))
	stop := s.Watch(context.Background(), time.Millisecond)
	stop()
}
