package forecast

import (
	"math/rand/v2"
	"time"
)

// Rand is the randomness seam for the cycler and generator. Production code
// uses a PCG-seeded source; tests inject scripted implementations to force
// specific draws.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
	// Shuffle pseudo-randomizes the order of n elements.
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns the default time-seeded source.
func NewRand() Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>17))
}
