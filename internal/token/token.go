package token

// DefaultPerPull is the cost of one pull in premium currency units.
const DefaultPerPull = 160

// Token defines the premium currency and how many units one pull costs.
type Token struct {
	Name    string // e.g. "Oneiric Shards", "Lunite"
	PerPull int    // units per single pull, e.g. 160
}

// Shards is the Honkai: Star Rail premium currency.
var Shards = Token{Name: "Oneiric Shards", PerPull: DefaultPerPull}

// UnitsForPulls returns how many units are required for n pulls.
func (t Token) UnitsForPulls(n int) int {
	if n <= 0 {
		return 0
	}
	return n * t.perPull()
}

// PullsFromUnits splits a unit amount into whole pulls and leftover units.
func (t Token) PullsFromUnits(units int) (pulls, leftover int) {
	if units <= 0 {
		return 0, 0
	}
	per := t.perPull()
	return units / per, units % per
}

func (t Token) perPull() int {
	if t.PerPull <= 0 {
		return DefaultPerPull
	}
	return t.PerPull
}
