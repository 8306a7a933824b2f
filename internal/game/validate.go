package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xtding233/shardcost/internal/gacha"
	"github.com/xtding233/shardcost/internal/pricing"
)

var ErrInvalidConfig = errors.New("config validation failed")

// ValidateRaw checks semantic constraints of a merged RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// currency
	if cfg.Currency == nil || cfg.Currency.PerPull == nil {
		errs = append(errs, "currency.per_pull is required")
	} else if *cfg.Currency.PerPull <= 0 {
		errs = append(errs, "currency.per_pull must be >= 1")
	}

	// draw
	if cfg.Draw.Pity == nil {
		errs = append(errs, "draw.pity is required")
	} else if *cfg.Draw.Pity <= 0 {
		errs = append(errs, "draw.pity must be >= 1")
	}
	if cfg.Draw.PBase == nil {
		errs = append(errs, "draw.p_base is required")
	} else if *cfg.Draw.PBase <= 0 || *cfg.Draw.PBase >= 1 {
		errs = append(errs, "draw.p_base must be in (0,1)")
	}

	if s := cfg.Draw.Soft; s != nil {
		if s.Target == nil {
			errs = append(errs, "draw.soft.target is required")
		} else if *s.Target <= 0 || *s.Target >= 1 {
			errs = append(errs, "draw.soft.target must be in (0,1)")
		}
		if s.StartAt == nil && s.StartPct == nil {
			errs = append(errs, "draw.soft.start_at or start_pct is required")
		}
		if cfg.Draw.Pity != nil && s.StartAt != nil {
			if *s.StartAt < 0 || *s.StartAt >= *cfg.Draw.Pity-1 {
				errs = append(errs, "draw.soft.start_at must satisfy 0 <= start_at < pity-1")
			}
		}
		if s.StartPct != nil && (*s.StartPct < 0 || *s.StartPct > 1) {
			errs = append(errs, "draw.soft.start_pct must be in [0,1]")
		}
		switch gacha.Easing(s.Easing) {
		case "", gacha.EaseLinear, gacha.EaseOutQuad, gacha.EaseInOutCubic:
		default:
			errs = append(errs, "draw.soft.easing must be one of: linear, easeOutQuad, easeInOutCubic")
		}
	}

	// banner
	if cfg.Banner != nil {
		for i, p := range cfg.Banner.OffProbs {
			if !(p > 0 && p < 1) {
				errs = append(errs, fmt.Sprintf("banner.off_probs[%d] must be in (0,1)", i))
			}
		}
		if cfg.Banner.MaxOff < 0 {
			errs = append(errs, "banner.max_off must be >= 0 (0 means default to len(off_probs))")
		}
	}

	// catalogs
	if len(cfg.Catalogs) == 0 {
		errs = append(errs, "catalogs must define at least one regime")
	}
	seen := make(map[string]string)
	for _, key := range sortedKeys(cfg.Catalogs) {
		if r, err := pricing.ParseRegime(key); err != nil || string(r) != key {
			errs = append(errs, fmt.Sprintf("catalogs.%s: unknown regime (want normal or first_time_bonus)", key))
		}
		bundles := cfg.Catalogs[key]
		if len(bundles) == 0 {
			errs = append(errs, fmt.Sprintf("catalogs.%s must not be empty", key))
		}
		for i, b := range bundles {
			at := fmt.Sprintf("catalogs.%s[%d]", key, i)
			if b.ID == "" {
				errs = append(errs, at+".id is required")
			} else if other, dup := seen[b.ID]; dup {
				errs = append(errs, fmt.Sprintf("%s.id %q already used in catalogs.%s", at, b.ID, other))
			} else {
				seen[b.ID] = key
			}
			if b.PriceCents <= 0 {
				errs = append(errs, at+".price_cents must be > 0")
			}
			if b.Base < 0 || b.Bonus < 0 {
				errs = append(errs, at+".base and bonus must be >= 0")
			}
			if b.Base+b.Bonus <= 0 {
				errs = append(errs, at+": base + bonus must be > 0")
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

func sortedKeys(m map[string][]BundleConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
