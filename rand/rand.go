package rand

import (
	"math"

	"github.com/seehuhn/mt19937"
)

// A Generator uses a goroutine to populate batches of random numbers from a
// seeded Mersenne twister. A Generator is the only source of randomness in a
// sampler run: draws are consumed in a fixed order (partner, stretch, accept,
// per walker), so a fixed seed gives a fixed stream no matter how density
// evaluations are scheduled.
type Generator struct {
	ch chan int64
}

// NewGenerator starts a new background PRNG based on the given seed
func NewGenerator(seed int64) (*Generator, error) {
	numChan := make(chan int64, 1024)

	go func() {
		r := mt19937.New()
		r.Seed(seed)
		for {
			numChan <- r.Int63()
		}
	}()

	g := &Generator{
		ch: numChan,
	}

	return g, nil
}

// Int63 provides the same interface as Go's math/rand, but with pre-generation.
func (g *Generator) Int63() int64 {
	return <-g.ch
}

// Int63n is a copy of the current Go code
func (g *Generator) Int63n(n int64) int64 {
	if n <= 0 {
		panic("invalid argument to Int63n")
	}

	if n&(n-1) == 0 { // n is power of two, can mask
		return g.Int63() & (n - 1)
	}

	max := int64((1 << 63) - 1 - (1<<63)%uint64(n))
	v := g.Int63()
	for v > max {
		v = g.Int63()
	}

	return v % n
}

// Intn returns a value in [0, n). This is how partner walkers get selected.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("invalid argument to Intn")
	}
	return int(g.Int63n(int64(n)))
}

// Float64 uses the commented, simpler implmentation since we don't have the
// same support requirements for users
func (g *Generator) Float64() float64 {
	// See the Go lang comments for Rand Float64 implementation for details
	return float64(g.Int63n(1<<53)) / (1 << 53)
}

// NormFloat64 returns a standard normal draw via the Box-Muller transform.
// Two uniforms are consumed per attempt (the sine branch of the transform is
// discarded); a degenerate u1 is re-drawn, so the count is deterministic for
// a given seed but not fixed per call.
func (g *Generator) NormFloat64() float64 {
	for {
		u1 := g.Float64()
		u2 := g.Float64()
		if u1 > 1e-12 {
			return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		}
	}
}
