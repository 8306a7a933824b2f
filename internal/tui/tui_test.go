package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/game"
	"github.com/xtding233/shardcost/internal/pricing"
)

func snapshot(t *testing.T) *dashboard.Snapshot {
	t.Helper()
	g, err := game.NewLoader("").Load("hsr")
	require.NoError(t, err)
	snap, err := dashboard.Build(context.Background(), g, dashboard.Options{}, nil)
	require.NoError(t, err)
	return snap
}

func press(m tea.Model, msgs ...tea.KeyMsg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCalculatorStartsClamped(t *testing.T) {
	snap := snapshot(t)
	assert.Equal(t, DefaultPulls, NewCalculator(snap, DefaultPulls).Pulls())
	assert.Equal(t, 1, NewCalculator(snap, -5).Pulls())
	assert.Equal(t, 180, NewCalculator(snap, 1000).Pulls())
}

func TestCalculatorKeys(t *testing.T) {
	snap := snapshot(t)
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want int
	}{
		{"right", []tea.KeyMsg{{Type: tea.KeyRight}}, 91},
		{"left twice", []tea.KeyMsg{{Type: tea.KeyLeft}, runes("h")}, 88},
		{"up", []tea.KeyMsg{{Type: tea.KeyUp}}, 100},
		{"down", []tea.KeyMsg{runes("j")}, 80},
		{"home", []tea.KeyMsg{{Type: tea.KeyHome}}, 1},
		{"end", []tea.KeyMsg{runes("G")}, 180},
		{"no lower than one", []tea.KeyMsg{{Type: tea.KeyHome}, {Type: tea.KeyLeft}, {Type: tea.KeyDown}}, 1},
		{"no higher than max", []tea.KeyMsg{{Type: tea.KeyEnd}, {Type: tea.KeyUp}}, 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(NewCalculator(snap, DefaultPulls), tt.keys...)
			assert.Equal(t, tt.want, m.(Calculator).Pulls())
		})
	}
}

func TestCalculatorToggleStrategy(t *testing.T) {
	snap := snapshot(t)
	m := press(NewCalculator(snap, 50), runes("s"))
	assert.Equal(t, pricing.StrategyExact, m.(Calculator).Strategy())
	m = press(m, runes("s"))
	assert.Equal(t, pricing.StrategyGreedy, m.(Calculator).Strategy())
}

func TestCalculatorQuit(t *testing.T) {
	snap := snapshot(t)
	m, cmd := NewCalculator(snap, 10).Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestCalculatorView(t *testing.T) {
	snap := snapshot(t)
	view := NewCalculator(snap, 1).View()
	assert.Contains(t, view, "Honkai: Star Rail")
	assert.Contains(t, view, "$2.97")
	assert.Contains(t, view, "$1.98")
	assert.Contains(t, view, "saves $0.99")
	assert.Contains(t, view, "strategy: greedy")
}

func TestRenderCatalog(t *testing.T) {
	out := RenderCatalog(snapshot(t))
	for _, id := range []string{"hsr_n1", "hsr_n6", "hsr_b1", "hsr_b6"} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "$99.99")
	assert.Contains(t, out, "First-time bonus")
}

func TestRenderTable(t *testing.T) {
	snap := snapshot(t)
	out, err := RenderTable(snap, pricing.StrategyGreedy, 30)
	require.NoError(t, err)
	assert.Contains(t, out, "$360.93")
	assert.Contains(t, out, "$218.84")
	assert.Contains(t, out, "$142.09")

	_, err = RenderTable(snap, "random", 10)
	assert.ErrorIs(t, err, pricing.ErrInvalidArgument)
}

func TestRenderSummaryAndComparison(t *testing.T) {
	snap := snapshot(t)
	assert.Contains(t, RenderSummary(snap), "$142.09")

	c, err := snap.Compare(1)
	require.NoError(t, err)
	out := RenderComparison(c)
	assert.Contains(t, out, "1 pulls")
	assert.Contains(t, out, "save $0.99")
}

func TestRenderProjection(t *testing.T) {
	snap := snapshot(t)
	p, err := dashboard.Project(context.Background(), snap, dashboard.ProjectOptions{Trials: 500, Seed: 1, Copies: 2})
	require.NoError(t, err)
	out := RenderProjection(snap, p)
	assert.Contains(t, out, "2 featured copies")
	assert.Contains(t, out, "p90")
	assert.Contains(t, out, "500 trials")
}

func TestSliderBounds(t *testing.T) {
	assert.NotPanics(t, func() {
		slider(1, 180)
		slider(180, 180)
		slider(1, 1)
	})
}

func TestRenderError(t *testing.T) {
	assert.Empty(t, RenderError(nil))
	assert.Contains(t, RenderError(errors.New("boom")), "boom")
}
