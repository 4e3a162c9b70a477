package market

import (
	"math/rand"
	"time"
)

// Rand is the only source of non-determinism in the market. *rand.Rand
// satisfies it; tests script it.
type Rand interface {
	Float64() float64
}

// NewRand returns a seeded source. A zero seed is replaced by the current time.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func intn(r Rand, n int) int {
	if n <= 1 {
		return 0
	}
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func uniform(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
