package prediction

import (
	"math/rand/v2"
	"sync"
)

// Rand is the random source consumed by the feature builder, the fallback
// estimator and the jitter factors. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	NormFloat64() float64
	IntN(n int) int
}

// RandFactory returns a fresh, request-scoped random source
type RandFactory func() Rand

// NewRandFactory returns a factory of independent PCG generators.
// A zero seed draws each generator's seed from the runtime's global source;
// a non-zero seed makes the whole sequence of generators reproducible.
func NewRandFactory(seed uint64) RandFactory {
	if seed == 0 {
		return func() Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}

	var mu sync.Mutex
	master := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func() Rand {
		mu.Lock()
		s1, s2 := master.Uint64(), master.Uint64()
		mu.Unlock()
		return rand.New(rand.NewPCG(s1, s2))
	}
}

// JitterFunc returns a multiplicative perturbation factor in [lo, hi]
type JitterFunc func(rng Rand, lo, hi float64) float64

// UniformJitter draws the factor uniformly from [lo, hi)
func UniformJitter(rng Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// NoJitter always returns 1.0
func NoJitter(Rand, float64, float64) float64 {
	return 1.0
}

func bernoulli(rng Rand, p float64) int {
	if rng.Float64() < p {
		return 1
	}
	return 0
}
