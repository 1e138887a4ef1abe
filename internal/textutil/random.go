package textutil

import (
	"math/rand/v2"
	"sync"
)

// IntSource yields pseudo-random integers in [0, n).
type IntSource interface {
	IntN(n int) int
}

// lockedSource serializes access to a *rand.Rand, which is not safe for
// concurrent use on its own.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewSeededSource returns a deterministic, concurrency-safe source.
func NewSeededSource(seed uint64) IntSource {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource returns a source backed by the process-wide generator.
func DefaultSource() IntSource { return globalSource{} }

// RandomInt returns a uniformly distributed integer in [lo, hi]. The bounds
// are swapped if given in reverse order. A nil src uses DefaultSource.
func RandomInt(src IntSource, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	if src == nil {
		src = DefaultSource()
	}
	return lo + src.IntN(hi-lo+1)
}

// FixedSource always returns the same offset, clamped into range. Useful for
// pinning random choices in tests.
type FixedSource int

func (f FixedSource) IntN(n int) int {
	v := int(f)
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
