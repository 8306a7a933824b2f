package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/pricing"
)

// DefaultPulls is where the calculator slider starts.
const DefaultPulls = 90

const sliderWidth = 40

type keyMap struct {
	Dec      key.Binding
	Inc      key.Binding
	DecTen   key.Binding
	IncTen   key.Binding
	Min      key.Binding
	Max      key.Binding
	Strategy key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Dec: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "-1 pull"),
		),
		Inc: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "+1 pull"),
		),
		DecTen: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "-10 pulls"),
		),
		IncTen: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "+10 pulls"),
		),
		Min: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first"),
		),
		Max: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "last"),
		),
		Strategy: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "greedy/exact"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dec, k.Inc, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Dec, k.Inc, k.DecTen, k.IncTen},
		{k.Min, k.Max, k.Strategy},
		{k.Help, k.Quit},
	}
}

// Calculator is the interactive pull slider. It only reads the snapshot.
type Calculator struct {
	snap     *dashboard.Snapshot
	pulls    int
	strategy pricing.Strategy
	keys     keyMap
	help     help.Model
	width    int
	quitting bool
}

// NewCalculator starts the slider at pulls, clamped to [1, snap.MaxPulls].
func NewCalculator(snap *dashboard.Snapshot, pulls int) Calculator {
	return Calculator{
		snap:     snap,
		pulls:    clamp(pulls, 1, snap.MaxPulls),
		strategy: pricing.StrategyGreedy,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

func (m Calculator) Pulls() int                 { return m.pulls }
func (m Calculator) Strategy() pricing.Strategy { return m.strategy }

func (m Calculator) Init() tea.Cmd { return nil }

func (m Calculator) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Dec):
			m.pulls--
		case key.Matches(msg, m.keys.Inc):
			m.pulls++
		case key.Matches(msg, m.keys.DecTen):
			m.pulls -= 10
		case key.Matches(msg, m.keys.IncTen):
			m.pulls += 10
		case key.Matches(msg, m.keys.Min):
			m.pulls = 1
		case key.Matches(msg, m.keys.Max):
			m.pulls = m.snap.MaxPulls
		case key.Matches(msg, m.keys.Strategy):
			if m.strategy == pricing.StrategyGreedy {
				m.strategy = pricing.StrategyExact
			} else {
				m.strategy = pricing.StrategyGreedy
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		m.pulls = clamp(m.pulls, 1, m.snap.MaxPulls)
	}
	return m, nil
}

func (m Calculator) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · %s calculator", m.snap.Game.Name, m.snap.Game.Token.Name)))
	b.WriteString("\n\n")
	b.WriteString(slider(m.pulls, m.snap.MaxPulls))
	b.WriteString(fmt.Sprintf("  %s %d\n\n", labelStyle.Render("pulls"), m.pulls))

	var cols []string
	costs := make(map[pricing.Regime]pricing.Plan)
	for _, r := range m.snap.Game.Regimes() {
		plan, err := m.snap.Plan(r, m.strategy, m.pulls)
		if err != nil {
			b.WriteString(RenderError(err) + "\n")
			continue
		}
		costs[r] = plan
		cols = append(cols, RenderPlan(fmt.Sprintf("%s  %s", RegimeLabel(r), FormatPrice(plan.Cost())), plan))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(cols)...))
	b.WriteString("\n\n")

	n, okN := costs[pricing.RegimeNormal]
	f, okF := costs[pricing.RegimeFirstTimeBonus]
	if okN && okF {
		saved := float64(n.TotalCents-f.TotalCents) / 100
		pct := 0.0
		if n.TotalCents > 0 {
			pct = float64(n.TotalCents-f.TotalCents) / float64(n.TotalCents) * 100
		}
		b.WriteString(savingStyle.Render(fmt.Sprintf("first-time bonus saves %s (%.1f%%)", FormatPrice(saved), pct)))
		b.WriteString("\n")
	}
	b.WriteString(subtleStyle.Render("strategy: " + string(m.strategy)))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func slider(v, maxV int) string {
	filled := 0
	if maxV > 1 {
		filled = (v - 1) * (sliderWidth - 1) / (maxV - 1)
	}
	return labelStyle.Render("1 ") +
		savingStyle.Render(strings.Repeat("━", filled)) +
		titleStyle.UnsetPadding().Render("●") +
		labelStyle.Render(strings.Repeat("─", sliderWidth-1-filled)) +
		labelStyle.Render(fmt.Sprintf(" %d", maxV))
}

func joinWithGap(cols []string) []string {
	out := make([]string, 0, 2*len(cols))
	for i, c := range cols {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, c)
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// RunCalculator runs the calculator full screen until the user quits.
func RunCalculator(snap *dashboard.Snapshot, pulls int) error {
	_, err := tea.NewProgram(NewCalculator(snap, pulls), tea.WithAltScreen()).Run()
	return err
}
