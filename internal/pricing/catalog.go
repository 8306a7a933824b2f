package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/xtding233/shardcost/internal/token"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidCatalog  = errors.New("invalid catalog")
	ErrUnknownRegime   = errors.New("unknown regime")
)

// Regime groups bundles that share a pricing rule.
type Regime string

const (
	RegimeNormal         Regime = "normal"
	RegimeFirstTimeBonus Regime = "first_time_bonus"
)

// Regimes lists every regime in display order.
var Regimes = []Regime{RegimeNormal, RegimeFirstTimeBonus}

// ParseRegime accepts the canonical names plus a few short aliases.
func ParseRegime(s string) (Regime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "n", "":
		return RegimeNormal, nil
	case "first_time_bonus", "first-time", "first_time", "bonus", "b":
		return RegimeFirstTimeBonus, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegime, s)
}

// Bundle models a purchasable SKU in the store.
type Bundle struct {
	ID         string // SKU id, e.g. "hsr_n6"
	Name       string // display name, e.g. "Oneiric Shard x6480"
	BaseYield  int    // guaranteed units granted
	BonusYield int    // extra units granted on top of BaseYield
	PriceCents int    // price in minor units
	Regime     Regime
}

// TotalYield is BaseYield plus BonusYield.
func (b Bundle) TotalYield() int { return b.BaseYield + b.BonusYield }

// Price returns the price in major units.
func (b Bundle) Price() float64 { return centsToDollars(b.PriceCents) }

// Efficiency is units per major currency unit.
func (b Bundle) Efficiency() float64 {
	if b.PriceCents <= 0 {
		return 0
	}
	return float64(b.TotalYield()) / b.Price()
}

// moreEfficient reports whether a yields strictly more units per cent than b.
// Cross-multiplied so equal ratios compare equal.
func moreEfficient(a, b Bundle) bool {
	return int64(a.TotalYield())*int64(b.PriceCents) > int64(b.TotalYield())*int64(a.PriceCents)
}

// Catalog is an ordered list of bundles for one regime.
type Catalog struct {
	Regime   Regime
	Currency string // ISO code of the store price, e.g. "USD"
	Token    token.Token
	Bundles  []Bundle
}

// Validate checks the catalog invariants and reports every violation at once.
func (c Catalog) Validate() error {
	var errs []string
	if len(c.Bundles) == 0 {
		errs = append(errs, "catalog has no bundles")
	}
	if c.Token.PerPull <= 0 {
		errs = append(errs, "token.per_pull must be >= 1")
	}
	for i, b := range c.Bundles {
		if b.PriceCents <= 0 {
			errs = append(errs, fmt.Sprintf("bundles[%d] (%s): price must be > 0", i, b.ID))
		}
		if b.BaseYield < 0 {
			errs = append(errs, fmt.Sprintf("bundles[%d] (%s): base yield must be >= 0", i, b.ID))
		}
		if b.BonusYield < 0 {
			errs = append(errs, fmt.Sprintf("bundles[%d] (%s): bonus yield must be >= 0", i, b.ID))
		}
		if b.TotalYield() <= 0 {
			errs = append(errs, fmt.Sprintf("bundles[%d] (%s): total yield must be > 0", i, b.ID))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w (%s): %s", ErrInvalidCatalog, c.Regime, strings.Join(errs, "; "))
	}
	return nil
}

// MaxYield returns the largest single-bundle yield.
func (c Catalog) MaxYield() int {
	best := 0
	for _, b := range c.Bundles {
		if y := b.TotalYield(); y > best {
			best = y
		}
	}
	return best
}

// maxPulls is the largest target whose unit requirement and worst-case greedy price
// both fit in an int. Any plan costs at most required*ceil(price/yield) plus one bundle.
func (c Catalog) maxPulls() int {
	perUnit, top := 1, 0
	for _, b := range c.Bundles {
		y := b.TotalYield()
		perUnit = max(perUnit, (b.PriceCents+y-1)/y)
		top = max(top, b.PriceCents)
	}
	pulls, _ := c.Token.PullsFromUnits((math.MaxInt - top) / perUnit)
	return pulls
}

// NormalCatalog returns the recurring Honkai: Star Rail shard catalog.
func NormalCatalog() Catalog {
	return Catalog{
		Regime:   RegimeNormal,
		Currency: "USD",
		Token:    token.Shards,
		Bundles: []Bundle{
			{ID: "hsr_n1", Name: "Oneiric Shard x60", BaseYield: 60, BonusYield: 0, PriceCents: 99, Regime: RegimeNormal},
			{ID: "hsr_n2", Name: "Oneiric Shard x300", BaseYield: 300, BonusYield: 30, PriceCents: 499, Regime: RegimeNormal},
			{ID: "hsr_n3", Name: "Oneiric Shard x980", BaseYield: 980, BonusYield: 110, PriceCents: 1499, Regime: RegimeNormal},
			{ID: "hsr_n4", Name: "Oneiric Shard x1980", BaseYield: 1980, BonusYield: 260, PriceCents: 2999, Regime: RegimeNormal},
			{ID: "hsr_n5", Name: "Oneiric Shard x3280", BaseYield: 3280, BonusYield: 600, PriceCents: 4999, Regime: RegimeNormal},
			{ID: "hsr_n6", Name: "Oneiric Shard x6480", BaseYield: 6480, BonusYield: 1600, PriceCents: 9999, Regime: RegimeNormal},
		},
	}
}

// FirstTimeCatalog returns the first-purchase catalog, where the bonus equals the base.
func FirstTimeCatalog() Catalog {
	return Catalog{
		Regime:   RegimeFirstTimeBonus,
		Currency: "USD",
		Token:    token.Shards,
		Bundles: []Bundle{
			{ID: "hsr_b1", Name: "Oneiric Shard x60 (First Purchase)", BaseYield: 60, BonusYield: 60, PriceCents: 99, Regime: RegimeFirstTimeBonus},
			{ID: "hsr_b2", Name: "Oneiric Shard x300 (First Purchase)", BaseYield: 300, BonusYield: 300, PriceCents: 499, Regime: RegimeFirstTimeBonus},
			{ID: "hsr_b3", Name: "Oneiric Shard x980 (First Purchase)", BaseYield: 980, BonusYield: 980, PriceCents: 1499, Regime: RegimeFirstTimeBonus},
			{ID: "hsr_b4", Name: "Oneiric Shard x1980 (First Purchase)", BaseYield: 1980, BonusYield: 1980, PriceCents: 2999, Regime: RegimeFirstTimeBonus},
			{ID: "hsr_b5", Name: "Oneiric Shard x3280 (First Purchase)", BaseYield: 3280, BonusYield: 3280, PriceCents: 4999, Regime: RegimeFirstTimeBonus},
			{ID: "hsr_b6", Name: "Oneiric Shard x6480 (First Purchase)", BaseYield: 6480, BonusYield: 6480, PriceCents: 9999, Regime: RegimeFirstTimeBonus},
		},
	}
}

func centsToDollars(c int) float64 { return float64(c) / 100 }
