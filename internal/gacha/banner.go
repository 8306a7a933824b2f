package gacha

// Banner layers a featured/off-banner split on top of Odds.
//
// On a hit, if the state is guaranteed the drop is featured. Otherwise the drop goes
// off-banner with probability OffProbs[min(OffStreak, len-1)]. After MaxOff consecutive
// off-banner drops the next hit is guaranteed featured. Empty OffProbs makes every hit
// featured.
type Banner struct {
	Odds     Odds
	OffProbs []float64
	MaxOff   int // <= 0 means len(OffProbs)
}

// State is the pity carried between pulls.
type State struct {
	SinceLast  int // pulls since the last hit
	OffStreak  int // consecutive off-banner hits
	Guaranteed bool
}

// Outcome reports one pull.
type Outcome struct {
	Hit      bool
	Featured bool // only meaningful when Hit
}

// Validate checks the odds and the off-banner probabilities.
func (b *Banner) Validate() error {
	if err := b.Odds.Validate(); err != nil {
		return err
	}
	for _, p := range b.OffProbs {
		if !(p > 0 && p < 1) {
			return ErrInvalidProb
		}
	}
	if b.MaxOff <= 0 {
		b.MaxOff = len(b.OffProbs)
	}
	return nil
}

func (b Banner) offProb(streak int) float64 {
	if streak >= len(b.OffProbs) {
		streak = len(b.OffProbs) - 1
	}
	return b.OffProbs[streak]
}

// Pull performs one pull and advances s.
func (b Banner) Pull(s *State, rng RandomSource) (Outcome, error) {
	hit, err := Draw(b.Odds.Rate(s.SinceLast), rng)
	if err != nil {
		return Outcome{}, err
	}
	if !hit {
		s.SinceLast++
		return Outcome{}, nil
	}
	s.SinceLast = 0

	if s.Guaranteed || len(b.OffProbs) == 0 {
		s.Guaranteed = false
		s.OffStreak = 0
		return Outcome{Hit: true, Featured: true}, nil
	}

	off, err := Draw(b.offProb(s.OffStreak), rng)
	if err != nil {
		return Outcome{}, err
	}
	if off {
		s.OffStreak++
		if s.OffStreak >= b.MaxOff {
			s.Guaranteed = true
		}
		return Outcome{Hit: true}, nil
	}
	s.OffStreak = 0
	return Outcome{Hit: true, Featured: true}, nil
}
