package gacha

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted replays fixed values, then repeats the last one.
type scripted struct {
	vals []float64
	i    int
}

func (s *scripted) Float64() float64 {
	v := s.vals[min(s.i, len(s.vals)-1)]
	s.i++
	return v
}

func TestDrawBounds(t *testing.T) {
	got, err := Draw(0, NewSeededRNG(1))
	require.NoError(t, err)
	assert.False(t, got, "p=0 should never hit")

	got, err = Draw(1, NewSeededRNG(1))
	require.NoError(t, err)
	assert.True(t, got, "p=1 should always hit")

	_, err = Draw(-0.1, nil)
	assert.ErrorIs(t, err, ErrInvalidProb)
	_, err = Draw(1.1, nil)
	assert.ErrorIs(t, err, ErrInvalidProb)
}

func TestDrawStatApprox(t *testing.T) {
	const p = 0.3
	const n = 100000
	rng := NewSeededRNG(42)
	hit := 0
	for i := 0; i < n; i++ {
		ok, err := Draw(p, rng)
		require.NoError(t, err)
		if ok {
			hit++
		}
	}
	assert.InDelta(t, p, float64(hit)/n, 0.01)
}

func TestHardPity(t *testing.T) {
	b := Banner{Odds: Odds{Base: 0, Pity: 10}}
	require.NoError(t, b.Validate())

	var s State
	rng := NewSeededRNG(42)
	for i := 0; i < 9; i++ {
		out, err := b.Pull(&s, rng)
		require.NoError(t, err)
		require.False(t, out.Hit, "should not hit before pity, i=%d", i)
	}
	out, err := b.Pull(&s, rng)
	require.NoError(t, err)
	assert.True(t, out.Hit)
	assert.True(t, out.Featured)
	assert.Equal(t, 0, s.SinceLast)
}

func TestSoftRamp(t *testing.T) {
	o := Odds{Base: 0.006, Pity: 90, SoftStart: 73, SoftTarget: 0.5}
	require.NoError(t, o.Validate())
	assert.Equal(t, EaseLinear, o.Easing)

	assert.Equal(t, 0.006, o.Rate(0))
	assert.Equal(t, 0.006, o.Rate(72))
	assert.Equal(t, 0.006, o.Rate(73))
	assert.Equal(t, 1.0, o.Rate(89))

	prev := o.Rate(73)
	for n := 74; n <= 88; n++ {
		r := o.Rate(n)
		assert.Greater(t, r, prev, "n=%d", n)
		assert.Less(t, r, 0.5+1e-9)
		prev = r
	}

	quad := o
	quad.Easing = EaseOutQuad
	assert.Greater(t, quad.Rate(76), o.Rate(76))
	cubic := o
	cubic.Easing = EaseInOutCubic
	assert.Less(t, cubic.Rate(76), o.Rate(76))
}

func TestOddsValidate(t *testing.T) {
	tests := []struct {
		name string
		odds Odds
		want error
	}{
		{"bad base", Odds{Base: 1.5, Pity: 90}, ErrInvalidProb},
		{"no pity", Odds{Base: 0.01}, ErrInvalidOdds},
		{"target out of range", Odds{Base: 0.01, Pity: 90, SoftStart: 70, SoftTarget: 1}, ErrInvalidOdds},
		{"start past ramp", Odds{Base: 0.01, Pity: 90, SoftStart: 89, SoftTarget: 0.3}, ErrInvalidOdds},
		{"unknown easing", Odds{Base: 0.01, Pity: 90, SoftStart: 70, SoftTarget: 0.3, Easing: "bounce"}, ErrInvalidOdds},
		{"ok", Odds{Base: 0.01, Pity: 90, SoftStart: 70, SoftTarget: 0.3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.odds.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBannerGuaranteeAfterOff(t *testing.T) {
	b := Banner{Odds: Odds{Base: 1, Pity: 90}, OffProbs: []float64{0.5}}
	require.NoError(t, b.Validate())
	assert.Equal(t, 1, b.MaxOff)

	rng := &scripted{vals: []float64{0.1, 0.9}}
	var s State

	out, err := b.Pull(&s, rng)
	require.NoError(t, err)
	assert.True(t, out.Hit)
	assert.False(t, out.Featured)
	assert.True(t, s.Guaranteed)

	out, err = b.Pull(&s, rng)
	require.NoError(t, err)
	assert.True(t, out.Featured)
	assert.False(t, s.Guaranteed)
	assert.Equal(t, 0, s.OffStreak)
	assert.Equal(t, 1, rng.i, "guaranteed hit must not consume randomness")

	out, err = b.Pull(&s, rng)
	require.NoError(t, err)
	assert.True(t, out.Featured)
}

func TestRunMonteCarloDeterministicPity(t *testing.T) {
	p := SimParams{Banner: Banner{Odds: Odds{Base: 0, Pity: 10}}, Copies: 2}
	st, err := RunMonteCarlo(context.Background(), p, 500, 7, 4)
	require.NoError(t, err)
	assert.Equal(t, 500, st.Trials)
	assert.Equal(t, 20.0, st.Mean)
	assert.Equal(t, 20.0, st.P99)
	assert.Zero(t, st.StdDev)
	assert.Equal(t, 20, st.Max)
}

func TestRunMonteCarloFiftyFifty(t *testing.T) {
	p := SimParams{Banner: Banner{Odds: Odds{Base: 0, Pity: 10}, OffProbs: []float64{0.5}}}
	st, err := RunMonteCarlo(context.Background(), p, 20000, 42, 8)
	require.NoError(t, err)
	assert.InDelta(t, 15, st.Mean, 0.3)
	assert.Equal(t, 20, st.Max)
	assert.Equal(t, 20.0, st.P99)

	again, err := RunMonteCarlo(context.Background(), p, 20000, 42, 8)
	require.NoError(t, err)
	assert.Equal(t, st, again)
}

func TestRunMonteCarloCarriedPity(t *testing.T) {
	p := SimParams{Banner: Banner{Odds: Odds{Base: 0, Pity: 10}}, Start: State{SinceLast: 6}}
	st, err := RunMonteCarlo(context.Background(), p, 10, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, st.Mean)

	p.Start.SinceLast = 10
	_, err = RunMonteCarlo(context.Background(), p, 10, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidSim)
}

func TestRunMonteCarloCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := SimParams{Banner: Banner{Odds: Odds{Base: 0.01, Pity: 90}}}
	_, err := RunMonteCarlo(ctx, p, 100, 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMonteCarloNoTrials(t *testing.T) {
	st, err := RunMonteCarlo(context.Background(), SimParams{}, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

func TestStreamsDiffer(t *testing.T) {
	a, b := NewStreamRNG(9, 0), NewStreamRNG(9, 1)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 5)

	x, y := NewSeededRNG(9), NewStreamRNG(9, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, x.Float64(), y.Float64())
	}
}

func TestDefaultRNGConcurrent(t *testing.T) {
	rng := DefaultRNG()
	assert.Same(t, rng, DefaultRNG())

	done := make(chan struct{})
	for w := 0; w < 4; w++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 1000; i++ {
				v := rng.Float64()
				assert.True(t, v >= 0 && v < 1)
			}
		}()
	}
	for w := 0; w < 4; w++ {
		<-done
	}
}
