package ensemble

import (
	"math"

	"github.com/pkg/errors"
)

// An Ensemble holds the current position and cached log-probability of every
// walker. It is owned exclusively by the sampler for the duration of a run:
// only the sampler may mutate it, and only through Replace or SetLogProbs.
//
// The walker count must be even and at least twice the dimension so that the
// fixed half-partition used by the stretch move is well defined.
type Ensemble struct {
	positions [][]float64
	logProbs  []float64

	nwalkers int
	ndim     int

	halfA []int
	halfB []int
}

// New creates an Ensemble from the given initial walker positions. The
// positions are deep-copied, must be rectangular, and every coordinate must
// be finite. Log-probabilities start as NaN and must be set via SetLogProbs
// before the first step.
func New(initial [][]float64) (*Ensemble, error) {
	nwalkers := len(initial)
	if nwalkers < 2 {
		return nil, errors.Errorf("Need at least 2 walkers, got %d", nwalkers)
	}
	if nwalkers%2 != 0 {
		return nil, errors.Errorf("Walker count must be even, got %d", nwalkers)
	}

	ndim := len(initial[0])
	if ndim < 1 {
		return nil, errors.Errorf("Walker dimension must be at least 1")
	}
	if nwalkers < 2*ndim {
		return nil, errors.Errorf("Need at least %d walkers for dimension %d, got %d", 2*ndim, ndim, nwalkers)
	}

	positions := make([][]float64, nwalkers)
	for w, p := range initial {
		if len(p) != ndim {
			return nil, errors.Errorf("Walker %d has dimension %d, expected %d", w, len(p), ndim)
		}
		for d, x := range p {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, errors.Errorf("Walker %d has non-finite coordinate at dimension %d", w, d)
			}
		}
		positions[w] = make([]float64, ndim)
		copy(positions[w], p)
	}

	logProbs := make([]float64, nwalkers)
	for i := range logProbs {
		logProbs[i] = math.NaN()
	}

	// The half-partition is fixed for the ensemble's lifetime
	half := nwalkers / 2
	halfA := make([]int, half)
	halfB := make([]int, half)
	for i := 0; i < half; i++ {
		halfA[i] = i
		halfB[i] = half + i
	}

	e := &Ensemble{
		positions: positions,
		logProbs:  logProbs,
		nwalkers:  nwalkers,
		ndim:      ndim,
		halfA:     halfA,
		halfB:     halfB,
	}

	return e, nil
}

// NumWalkers returns the walker count.
func (e *Ensemble) NumWalkers() int {
	return e.nwalkers
}

// Dim returns the position dimension.
func (e *Ensemble) Dim() int {
	return e.ndim
}

// Partition returns the two fixed complementary index subsets. The returned
// slices are shared - callers must not modify them.
func (e *Ensemble) Partition() ([]int, []int) {
	return e.halfA, e.halfB
}

// Positions returns row views (not copies) of the positions for the given
// index subset. The rows alias ensemble storage and are only valid until the
// next Replace.
func (e *Ensemble) Positions(subset []int) [][]float64 {
	out := make([][]float64, len(subset))
	for k, w := range subset {
		out[k] = e.positions[w]
	}
	return out
}

// LogProb returns the cached log-probability for one walker.
func (e *Ensemble) LogProb(w int) float64 {
	return e.logProbs[w]
}

// SetLogProbs installs the initial log-probabilities for all walkers. A NaN
// is rejected here because it means the density function misbehaved.
func (e *Ensemble) SetLogProbs(lps []float64) error {
	if len(lps) != e.nwalkers {
		return errors.Errorf("Expected %d log-probabilities, got %d", e.nwalkers, len(lps))
	}
	for w, lp := range lps {
		if math.IsNaN(lp) {
			return errors.Errorf("Initial log-probability for walker %d is NaN", w)
		}
	}
	copy(e.logProbs, lps)
	return nil
}

// Replace updates the walkers in subset whose accept entry is true with the
// corresponding candidate position and log-probability. Rejected walkers keep
// their previous position and cached log-probability untouched. No other
// mutation of the ensemble may be in flight.
func (e *Ensemble) Replace(subset []int, candidates [][]float64, lps []float64, accept []bool) error {
	if len(candidates) != len(subset) || len(lps) != len(subset) || len(accept) != len(subset) {
		return errors.Errorf("Replace size mismatch: subset %d, candidates %d, lps %d, accept %d",
			len(subset), len(candidates), len(lps), len(accept))
	}

	for k, w := range subset {
		if !accept[k] {
			continue
		}
		copy(e.positions[w], candidates[k])
		e.logProbs[w] = lps[k]
	}

	return nil
}

// Snapshot returns a deep copy of all positions and log-probabilities so a
// failed step can be rolled back without committing a partial update.
func (e *Ensemble) Snapshot() ([][]float64, []float64) {
	pos := make([][]float64, e.nwalkers)
	for w, p := range e.positions {
		pos[w] = make([]float64, e.ndim)
		copy(pos[w], p)
	}
	lps := make([]float64, e.nwalkers)
	copy(lps, e.logProbs)
	return pos, lps
}

// Restore rolls the ensemble back to a previous Snapshot.
func (e *Ensemble) Restore(positions [][]float64, lps []float64) {
	for w := range e.positions {
		copy(e.positions[w], positions[w])
	}
	copy(e.logProbs, lps)
}
