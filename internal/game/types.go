// types.go
package game

import (
	"github.com/xtding233/shardcost/internal/gacha"
	"github.com/xtding233/shardcost/internal/pricing"
	"github.com/xtding233/shardcost/internal/token"
)

// RawConfig is one YAML file as written on disk.
type RawConfig struct {
	Version  string                    `yaml:"version"`
	Name     string                    `yaml:"name,omitempty"`
	Currency *CurrencyConfig           `yaml:"currency,omitempty"`
	Draw     DrawConfig                `yaml:"draw"`
	Banner   *BannerConfig             `yaml:"banner,omitempty"`
	Catalogs map[string][]BundleConfig `yaml:"catalogs,omitempty"` // regime -> bundles
	Notes    string                    `yaml:"notes,omitempty"`
}

type CurrencyConfig struct {
	Name    string `yaml:"name,omitempty"`
	PerPull *int   `yaml:"per_pull,omitempty"`
	Store   string `yaml:"store,omitempty"` // ISO code of store prices, e.g. "USD"
}

type DrawConfig struct {
	PBase *float64 `yaml:"p_base,omitempty"`
	Pity  *int     `yaml:"pity,omitempty"`
	Soft  *SoftCfg `yaml:"soft,omitempty"`
}

type SoftCfg struct {
	StartAt  *int     `yaml:"start_at,omitempty"`
	StartPct *float64 `yaml:"start_pct,omitempty"` // used when start_at is absent
	Target   *float64 `yaml:"target,omitempty"`
	Easing   string   `yaml:"easing,omitempty"`
}

type BannerConfig struct {
	OffProbs []float64 `yaml:"off_probs"`
	MaxOff   int       `yaml:"max_off"`
}

type BundleConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Base       int    `yaml:"base"`
	Bonus      int    `yaml:"bonus"`
	PriceCents int    `yaml:"price_cents"`
}

// Game is a resolved, validated game definition.
type Game struct {
	ID       string
	Name     string
	Version  string
	Token    token.Token
	Catalogs map[pricing.Regime]pricing.Catalog
	Banner   gacha.Banner
}
