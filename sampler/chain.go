package sampler

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Chain is the append-only record of ensemble state across steps, together
// with the per-walker acceptance counts for the same span of steps. One
// Append per step, always covering all walkers whether or not their proposal
// was accepted.
type Chain struct {
	nwalkers int
	ndim     int

	steps    [][][]float64 // nsteps x nwalkers x ndim snapshots
	logProbs [][]float64   // nsteps x nwalkers cached values
	accepted []int64
}

// NewChain creates an empty chain for the given ensemble geometry.
func NewChain(nwalkers, ndim int) (*Chain, error) {
	if nwalkers < 1 || ndim < 1 {
		return nil, errors.Errorf("Invalid chain geometry %d x %d", nwalkers, ndim)
	}

	c := &Chain{
		nwalkers: nwalkers,
		ndim:     ndim,
		accepted: make([]int64, nwalkers),
	}
	return c, nil
}

// Len returns the number of completed steps recorded.
func (c *Chain) Len() int {
	return len(c.steps)
}

// Append records one completed step. Positions and log-probabilities are
// deep-copied so later ensemble mutation cannot corrupt history.
func (c *Chain) Append(positions [][]float64, lps []float64) error {
	if len(positions) != c.nwalkers || len(lps) != c.nwalkers {
		return errors.Errorf("Append expected %d walkers, got %d positions / %d log-probs",
			c.nwalkers, len(positions), len(lps))
	}

	snap := make([][]float64, c.nwalkers)
	for w, p := range positions {
		if len(p) != c.ndim {
			return errors.Errorf("Append walker %d has dimension %d, expected %d", w, len(p), c.ndim)
		}
		snap[w] = make([]float64, c.ndim)
		copy(snap[w], p)
	}

	lpSnap := make([]float64, c.nwalkers)
	copy(lpSnap, lps)

	c.steps = append(c.steps, snap)
	c.logProbs = append(c.logProbs, lpSnap)
	return nil
}

// CountAccept bumps the acceptance counter for one walker.
func (c *Chain) CountAccept(w int) {
	c.accepted[w]++
}

// Reset discards all recorded history and zeroes the acceptance counters.
// The live ensemble is not touched - this is how burn-in gets thrown away.
func (c *Chain) Reset() {
	c.steps = nil
	c.logProbs = nil
	for i := range c.accepted {
		c.accepted[i] = 0
	}
}

// States returns the recorded history with shape (nsteps, nwalkers, ndim).
// The returned slices are the chain's own storage - treat as read-only.
func (c *Chain) States() [][][]float64 {
	return c.steps
}

// LogProbs returns the recorded log-probability history with shape
// (nsteps, nwalkers). Treat as read-only.
func (c *Chain) LogProbs() [][]float64 {
	return c.logProbs
}

// Flat returns the flattened chain as an (nsteps*nwalkers, ndim) matrix with
// row order (step, walker). Returns nil for an empty chain since mat.Dense
// cannot represent zero rows.
func (c *Chain) Flat() *mat.Dense {
	n := len(c.steps) * c.nwalkers
	if n == 0 {
		return nil
	}

	data := make([]float64, n*c.ndim)
	i := 0
	for _, step := range c.steps {
		for _, p := range step {
			copy(data[i:i+c.ndim], p)
			i += c.ndim
		}
	}

	return mat.NewDense(n, c.ndim, data)
}

// MeanSeries returns, for dimension d, the time series of per-step means
// over walkers. This is the series the autocorrelation estimator consumes.
func (c *Chain) MeanSeries(d int) ([]float64, error) {
	if d < 0 || d >= c.ndim {
		return nil, errors.Errorf("Dimension %d out of range [0, %d)", d, c.ndim)
	}

	series := make([]float64, len(c.steps))
	inv := 1.0 / float64(c.nwalkers)
	for t, step := range c.steps {
		s := 0.0
		for _, p := range step {
			s += p[d]
		}
		series[t] = s * inv
	}
	return series, nil
}

// AcceptanceFraction returns the per-walker fraction of accepted proposals
// since the last Reset. All zeros when no steps have run.
func (c *Chain) AcceptanceFraction() []float64 {
	out := make([]float64, c.nwalkers)
	steps := len(c.steps)
	if steps == 0 {
		return out
	}
	for w, a := range c.accepted {
		out[w] = float64(a) / float64(steps)
	}
	return out
}
