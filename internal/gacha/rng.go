package gacha

import (
	cryptorand "crypto/rand"
	"math/rand/v2"
	"sync"
)

// RandomSource yields uniform floats in [0, 1).
type RandomSource interface {
	Float64() float64
}

// lockedSource makes a *rand.Rand safe for concurrent Draw calls.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

var (
	defaultOnce sync.Once
	defaultSrc  RandomSource
)

// DefaultRNG is a process-wide ChaCha8 source keyed from crypto/rand.
func DefaultRNG() RandomSource {
	defaultOnce.Do(func() {
		var key [32]byte
		// crypto/rand.Read never fails on supported platforms
		_, _ = cryptorand.Read(key[:])
		defaultSrc = &lockedSource{r: rand.New(rand.NewChaCha8(key))}
	})
	return defaultSrc
}

// NewSeededRNG returns a reproducible source for tests. Not safe for concurrent use.
func NewSeededRNG(seed uint64) RandomSource {
	return NewStreamRNG(seed, 0)
}

// NewStreamRNG returns a PCG source keyed by (seed, stream). Workers of one run share
// the seed and differ in stream.
func NewStreamRNG(seed, stream uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, stream))
}
