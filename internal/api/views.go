// Package api holds the wire views shared by the HTTP and gRPC surfaces.
package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/pricing"
)

type GameView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	Token    string   `json:"token"`
	PerPull  int      `json:"per_pull"`
	Regimes  []string `json:"regimes"`
	MaxPulls int      `json:"max_pulls"`
}

type BundleView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	BaseYield   int     `json:"base_yield"`
	BonusYield  int     `json:"bonus_yield"`
	TotalYield  int     `json:"total_yield"`
	Price       float64 `json:"price"`
	PerDollar   float64 `json:"per_dollar"`
	Pulls       int     `json:"pulls"`
	Leftover    int     `json:"leftover"`
	CostPerPull float64 `json:"cost_per_pull"`
}

type CatalogView struct {
	Regime   string       `json:"regime"`
	Currency string       `json:"currency"`
	Bundles  []BundleView `json:"bundles"`
}

type PurchaseView struct {
	BundleID string  `json:"bundle_id"`
	Name     string  `json:"name"`
	Qty      int     `json:"qty"`
	Units    int     `json:"units"`
	Subtotal float64 `json:"subtotal"`
}

type PlanView struct {
	Game       string         `json:"game"`
	Regime     string         `json:"regime"`
	Strategy   string         `json:"strategy"`
	Pulls      int            `json:"pulls"`
	Required   int            `json:"required_units"`
	TotalYield int            `json:"total_yield"`
	Overshoot  int            `json:"overshoot"`
	Cost       float64        `json:"cost"`
	Currency   string         `json:"currency"`
	Purchases  []PurchaseView `json:"purchases"`
}

type TableRow struct {
	Pulls int     `json:"pulls"`
	Cost  float64 `json:"cost"`
}

type TableView struct {
	Game     string     `json:"game"`
	Regime   string     `json:"regime"`
	Strategy string     `json:"strategy"`
	MaxPulls int        `json:"max_pulls"`
	Rows     []TableRow `json:"rows"`
}

type ComparisonView struct {
	Pulls            int     `json:"pulls"`
	Normal           float64 `json:"normal"`
	FirstTime        float64 `json:"first_time_bonus"`
	Savings          float64 `json:"savings"`
	SavingsPct       float64 `json:"savings_pct"`
	NormalPerPull    float64 `json:"normal_per_pull"`
	FirstTimePerPull float64 `json:"first_time_bonus_per_pull"`
}

type SummaryView struct {
	Game         string         `json:"game"`
	MaxPulls     int            `json:"max_pulls"`
	MaxSavings   float64        `json:"max_savings"`
	MaxSavingsAt int            `json:"max_savings_at"`
	AvgSavings   float64        `json:"avg_savings"`
	AtMax        ComparisonView `json:"at_max"`
}

func Game(s *dashboard.Snapshot) GameView {
	v := GameView{
		ID:       s.Game.ID,
		Name:     s.Game.Name,
		Version:  s.Game.Version,
		Token:    s.Game.Token.Name,
		PerPull:  s.Game.Token.PerPull,
		MaxPulls: s.MaxPulls,
	}
	for _, r := range s.Game.Regimes() {
		v.Regimes = append(v.Regimes, string(r))
	}
	return v
}

func Catalogs(s *dashboard.Snapshot) []CatalogView {
	var out []CatalogView
	for _, r := range s.Game.Regimes() {
		cat := s.Game.Catalogs[r]
		cv := CatalogView{Regime: string(r), Currency: cat.Currency}
		for _, m := range s.Metrics[r] {
			cv.Bundles = append(cv.Bundles, BundleView{
				ID:          m.Bundle.ID,
				Name:        m.Bundle.Name,
				BaseYield:   m.Bundle.BaseYield,
				BonusYield:  m.Bundle.BonusYield,
				TotalYield:  m.TotalYield,
				Price:       m.Bundle.Price(),
				PerDollar:   m.PerDollar,
				Pulls:       m.Pulls,
				Leftover:    m.Leftover,
				CostPerPull: m.CostPerPull,
			})
		}
		out = append(out, cv)
	}
	return out
}

func Plan(gameID string, r pricing.Regime, strategy pricing.Strategy, p pricing.Plan) PlanView {
	if strategy == "" {
		strategy = pricing.StrategyGreedy
	}
	v := PlanView{
		Game:       gameID,
		Regime:     string(r),
		Strategy:   string(strategy),
		Pulls:      p.TargetPulls,
		Required:   p.Required,
		TotalYield: p.TotalYield,
		Overshoot:  p.Overshoot(),
		Cost:       p.Cost(),
		Currency:   p.Currency,
		Purchases:  make([]PurchaseView, 0, len(p.Purchases)),
	}
	for _, pu := range p.Purchases {
		v.Purchases = append(v.Purchases, PurchaseView{
			BundleID: pu.Bundle.ID,
			Name:     pu.Bundle.Name,
			Qty:      pu.Qty,
			Units:    pu.Units(),
			Subtotal: float64(pu.Subtotal) / 100,
		})
	}
	return v
}

func Table(gameID string, t *pricing.CostTable) TableView {
	v := TableView{
		Game:     gameID,
		Regime:   string(t.Regime),
		Strategy: string(t.Strategy),
		MaxPulls: t.MaxPulls,
		Rows:     make([]TableRow, 0, t.MaxPulls),
	}
	for i, c := range t.Costs() {
		v.Rows = append(v.Rows, TableRow{Pulls: i + 1, Cost: c})
	}
	return v
}

func Comparison(c pricing.Comparison) ComparisonView {
	return ComparisonView(c)
}

func Summary(gameID string, s pricing.Summary) SummaryView {
	return SummaryView{
		Game:         gameID,
		MaxPulls:     s.MaxPulls,
		MaxSavings:   s.MaxSavings,
		MaxSavingsAt: s.MaxSavingsAt,
		AvgSavings:   s.AvgSavings,
		AtMax:        Comparison(s.AtMax),
	}
}

// Struct converts any view into a protobuf Struct through its JSON form.
func Struct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return out, nil
}

// Decode is the inverse of Struct.
func Decode(s *structpb.Struct, v any) error {
	b, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
