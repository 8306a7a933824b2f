package gacha

import (
	"errors"
	"math"
)

var (
	ErrInvalidProb = errors.New("invalid probability p; must be 0..1")
	ErrInvalidOdds = errors.New("invalid odds config")
)

// Easing specifies how the rate ramps up as the pull count approaches pity.
type Easing string

const (
	EaseLinear     Easing = "linear"
	EaseOutQuad    Easing = "easeOutQuad"
	EaseInOutCubic Easing = "easeInOutCubic"
)

// Odds describes the high-rarity rate of a banner.
// Example: Base=0.006, Pity=90, SoftStart=73, SoftTarget=0.5 ramps the rate from
// pull #74 up to 0.5 at pull #89; pull #90 always hits.
type Odds struct {
	Base       float64 // rate far from pity
	Pity       int     // hard pity; the Pity-th pull since the last hit always hits
	SoftStart  int     // pulls since last hit at which the ramp begins
	SoftTarget float64 // rate at pull Pity-1; zero disables the ramp
	Easing     Easing
}

// Validate checks the odds and fills in the default easing.
func (o *Odds) Validate() error {
	if err := validateProb(o.Base); err != nil {
		return err
	}
	if o.Pity <= 0 {
		return ErrInvalidOdds
	}
	if o.SoftTarget == 0 {
		return nil
	}
	if o.Pity <= 1 || o.SoftTarget <= 0 || o.SoftTarget >= 1 {
		return ErrInvalidOdds
	}
	if o.SoftStart < 0 {
		o.SoftStart = 0
	}
	// the ramp ends at Pity-1 and needs room to climb
	if o.SoftStart >= o.Pity-1 {
		return ErrInvalidOdds
	}
	switch o.Easing {
	case "":
		o.Easing = EaseLinear
	case EaseLinear, EaseOutQuad, EaseInOutCubic:
	default:
		return ErrInvalidOdds
	}
	return nil
}

// Rate returns the hit probability of the next pull given the pulls since the last hit.
func (o Odds) Rate(sinceLast int) float64 {
	if sinceLast+1 >= o.Pity {
		return 1
	}
	if o.SoftTarget == 0 || sinceLast < o.SoftStart {
		return o.Base
	}
	length := float64(o.Pity - 1 - o.SoftStart)
	if length <= 0 {
		return o.Base
	}
	t := math.Min(1, math.Max(0, float64(sinceLast-o.SoftStart)/length))
	t = ease(o.Easing, t)

	p := o.Base + (o.SoftTarget-o.Base)*t
	// strictly below 1 so only hard pity guarantees a hit
	return math.Min(math.Max(p, 0), 0.999999999999)
}

func ease(e Easing, t float64) float64 {
	switch e {
	case EaseOutQuad:
		return 1 - (1-t)*(1-t)
	case EaseInOutCubic:
		if t < 0.5 {
			return 4 * t * t * t
		}
		u := -2*t + 2
		return 1 - u*u*u/2
	default:
		return t
	}
}

// Draw reports a hit with probability p.
func Draw(p float64, rng RandomSource) (bool, error) {
	if err := validateProb(p); err != nil {
		return false, err
	}
	switch {
	case p <= 0:
		return false, nil
	case p >= 1:
		return true, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	return rng.Float64() < p, nil
}

func validateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}
