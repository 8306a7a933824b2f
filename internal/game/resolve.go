// resolve.go
package game

import (
	"fmt"
	"math"

	"github.com/xtding233/shardcost/internal/gacha"
	"github.com/xtding233/shardcost/internal/pricing"
	"github.com/xtding233/shardcost/internal/token"
)

// Resolve validates a merged RawConfig and turns it into a Game.
func Resolve(id string, cfg RawConfig) (Game, error) {
	if err := ValidateRaw(cfg); err != nil {
		return Game{}, fmt.Errorf("game %s: %w", id, err)
	}

	g := Game{
		ID:       id,
		Name:     cfg.Name,
		Version:  cfg.Version,
		Token:    token.Token{Name: cfg.Currency.Name, PerPull: *cfg.Currency.PerPull},
		Catalogs: make(map[pricing.Regime]pricing.Catalog, len(cfg.Catalogs)),
	}
	if g.Name == "" {
		g.Name = id
	}
	store := cfg.Currency.Store
	if store == "" {
		store = "USD"
	}

	for key, bundles := range cfg.Catalogs {
		regime := pricing.Regime(key)
		cat := pricing.Catalog{Regime: regime, Currency: store, Token: g.Token}
		for _, b := range bundles {
			cat.Bundles = append(cat.Bundles, pricing.Bundle{
				ID:         b.ID,
				Name:       b.Name,
				BaseYield:  b.Base,
				BonusYield: b.Bonus,
				PriceCents: b.PriceCents,
				Regime:     regime,
			})
		}
		if err := cat.Validate(); err != nil {
			return Game{}, fmt.Errorf("game %s: %w", id, err)
		}
		g.Catalogs[regime] = cat
	}

	g.Banner = resolveBanner(cfg)
	if err := g.Banner.Validate(); err != nil {
		return Game{}, fmt.Errorf("game %s: %w: %v", id, ErrInvalidConfig, err)
	}
	return g, nil
}

func resolveBanner(cfg RawConfig) gacha.Banner {
	pity := *cfg.Draw.Pity
	b := gacha.Banner{Odds: gacha.Odds{Base: *cfg.Draw.PBase, Pity: pity}}
	if s := cfg.Draw.Soft; s != nil {
		var start int
		if s.StartAt != nil {
			start = *s.StartAt
		} else {
			start = int(math.Ceil(*s.StartPct * float64(pity)))
			if start >= pity-1 {
				start = pity - 2
			}
		}
		b.Odds.SoftStart = start
		b.Odds.SoftTarget = *s.Target
		b.Odds.Easing = gacha.Easing(s.Easing)
	}
	if cfg.Banner != nil {
		b.OffProbs = append([]float64(nil), cfg.Banner.OffProbs...)
		b.MaxOff = cfg.Banner.MaxOff
	}
	return b
}

// Catalog returns the catalog for a regime.
func (g Game) Catalog(r pricing.Regime) (pricing.Catalog, error) {
	cat, ok := g.Catalogs[r]
	if !ok {
		return pricing.Catalog{}, fmt.Errorf("game %s: %w: %s", g.ID, pricing.ErrUnknownRegime, r)
	}
	return cat, nil
}

// Regimes lists the regimes the game defines, in display order.
func (g Game) Regimes() []pricing.Regime {
	var out []pricing.Regime
	for _, r := range pricing.Regimes {
		if _, ok := g.Catalogs[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
