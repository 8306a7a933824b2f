package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/pricing"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0391ff")).
			Padding(0, 1)

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0391ff")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	numCellStyle = cellStyle.Align(lipgloss.Right)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	savingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)

	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// FormatPrice renders a major-unit amount with two decimals.
func FormatPrice(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func RegimeLabel(r pricing.Regime) string {
	switch r {
	case pricing.RegimeNormal:
		return "Normal"
	case pricing.RegimeFirstTimeBonus:
		return "First-time bonus"
	default:
		return string(r)
	}
}

// newTable returns a rounded table whose columns from numFrom on are right aligned.
func newTable(numFrom int, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCellStyle
			case col >= numFrom:
				return numCellStyle
			default:
				return cellStyle
			}
		})
}

// RenderCatalog lists the bundles of every regime with their per-bundle metrics.
func RenderCatalog(s *dashboard.Snapshot) string {
	var b strings.Builder
	for i, r := range s.Game.Regimes() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s · %s", s.Game.Name, RegimeLabel(r))))
		b.WriteString("\n")

		t := newTable(2, "ID", "Bundle", "Yield", "Price", "Per $", "Pulls", "Left", "Per pull")
		for _, m := range s.Metrics[r] {
			t.Row(
				m.Bundle.ID,
				m.Bundle.Name,
				strconv.Itoa(m.TotalYield),
				FormatPrice(m.Bundle.Price()),
				fmt.Sprintf("%.1f", m.PerDollar),
				strconv.Itoa(m.Pulls),
				strconv.Itoa(m.Leftover),
				FormatPrice(m.CostPerPull),
			)
		}
		b.WriteString(t.String())
		b.WriteString("\n")
	}
	return b.String()
}

// RenderPlan shows the line items of one plan.
func RenderPlan(title string, p pricing.Plan) string {
	t := newTable(1, "Bundle", "Qty", "Units", "Subtotal")
	for _, pu := range p.Purchases {
		t.Row(pu.Bundle.Name, strconv.Itoa(pu.Qty), strconv.Itoa(pu.Units()), FormatPrice(float64(pu.Subtotal)/100))
	}
	t.Row("Total", "", strconv.Itoa(p.TotalYield), FormatPrice(p.Cost()))

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		t.String(),
		subtleStyle.Render(fmt.Sprintf("needs %d units for %d pulls, %d left over", p.Required, p.TargetPulls, p.Overshoot())),
	)
}

// RenderTable prints every step-th row of the regime tables side by side, plus the last row.
func RenderTable(s *dashboard.Snapshot, strategy pricing.Strategy, step int) (string, error) {
	if step < 1 {
		step = 1
	}
	regimes := s.Game.Regimes()
	tables := make([]*pricing.CostTable, 0, len(regimes))
	headers := []string{"Pulls"}
	for _, r := range regimes {
		tbl, err := s.Table(r, strategy)
		if err != nil {
			return "", err
		}
		tables = append(tables, tbl)
		headers = append(headers, RegimeLabel(r))
	}
	both := s.Summary != nil
	if both {
		headers = append(headers, "Savings")
	}

	t := newTable(0, headers...)
	for pulls := 1; pulls <= s.MaxPulls; pulls++ {
		if pulls != 1 && pulls%step != 0 && pulls != s.MaxPulls {
			continue
		}
		row := []string{strconv.Itoa(pulls)}
		for _, tbl := range tables {
			c, _ := tbl.Cost(pulls)
			row = append(row, FormatPrice(c))
		}
		if both {
			// regimes come in display order: normal first
			n, _ := tables[0].Cents(pulls)
			f, _ := tables[1].Cents(pulls)
			row = append(row, FormatPrice(float64(n-f)/100))
		}
		t.Row(row...)
	}
	return t.String(), nil
}

// RenderComparison shows both regimes for one target.
func RenderComparison(c pricing.Comparison) string {
	t := newTable(1, "", "Normal", "First-time bonus")
	t.Row("Total", FormatPrice(c.Normal), FormatPrice(c.FirstTime))
	t.Row("Per pull", FormatPrice(c.NormalPerPull), FormatPrice(c.FirstTimePerPull))
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("%d pulls", c.Pulls)),
		t.String(),
		savingStyle.Render(fmt.Sprintf("save %s (%.1f%%)", FormatPrice(c.Savings), c.SavingsPct)),
	)
}

// RenderSummary is the dashboard headline.
func RenderSummary(s *dashboard.Snapshot) string {
	if s.Summary == nil {
		return subtleStyle.Render(s.Game.Name + " defines a single regime")
	}
	sum := s.Summary
	lines := []string{
		titleStyle.Render(s.Game.Name + " · summary"),
		labelStyle.Render("max savings   ") + savingStyle.Render(FormatPrice(sum.MaxSavings)) +
			labelStyle.Render(fmt.Sprintf(" at %d pulls", sum.MaxSavingsAt)),
		labelStyle.Render("avg savings   ") + FormatPrice(sum.AvgSavings),
		labelStyle.Render(fmt.Sprintf("at %d pulls  ", sum.MaxPulls)) +
			fmt.Sprintf("%s vs %s, %s per pull vs %s",
				FormatPrice(sum.AtMax.Normal), FormatPrice(sum.AtMax.FirstTime),
				FormatPrice(sum.AtMax.NormalPerPull), FormatPrice(sum.AtMax.FirstTimePerPull)),
		labelStyle.Render("total savings ") +
			savingStyle.Render(fmt.Sprintf("%s (%.1f%%)", FormatPrice(sum.AtMax.Savings), sum.AtMax.SavingsPct)),
	}
	return strings.Join(lines, "\n")
}

// RenderProjection prices the simulated pull distribution.
func RenderProjection(s *dashboard.Snapshot, p dashboard.Projection) string {
	regimes := s.Game.Regimes()
	headers := []string{"", "Pulls"}
	for _, r := range regimes {
		headers = append(headers, RegimeLabel(r))
	}
	t := newTable(1, headers...)
	for _, row := range p.Rows {
		cells := []string{row.Label, strconv.Itoa(row.Pulls)}
		for _, r := range regimes {
			cells = append(cells, FormatPrice(row.Costs[r]))
		}
		t.Row(cells...)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("%s · %d featured cop%s", s.Game.Name, p.Copies, plural(p.Copies, "y", "ies"))),
		t.String(),
		subtleStyle.Render(fmt.Sprintf("%d trials, σ %.1f pulls", p.Stats.Trials, p.Stats.StdDev)),
	)
}

// RenderError formats an error line for terminal output.
func RenderError(err error) string {
	if err == nil {
		return ""
	}
	return errorStyle.Render("✗ Error: " + err.Error())
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
