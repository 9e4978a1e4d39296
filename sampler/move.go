package sampler

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mkendall/affine/rand"
)

// A Move generates candidate positions for one half of the ensemble, using
// the complementary half as the partner pool. It returns the candidates and
// the per-walker log Jacobian factor that enters the acceptance ratio. A Move
// draws its randomness per walker, in index order, so the stream stays
// reproducible.
type Move interface {
	Propose(gen *rand.Generator, active [][]float64, complement [][]float64) (candidates [][]float64, factors []float64, err error)
}

// StretchMove is the affine-invariant stretch proposal: pick a partner x_j
// from the complement, draw z with density proportional to 1/sqrt(z) on
// [1/a, a], and propose y = x_j + z*(x_i - x_j). The (ndim-1)*ln(z) factor it
// reports is what keeps the move in detailed balance.
type StretchMove struct {
	a float64
}

// DefaultStretchScale is the conventional scale parameter and works well for
// most unimodal targets.
const DefaultStretchScale = 2.0

// NewStretchMove creates a StretchMove with scale a. The proposal is only
// valid for a > 1.
func NewStretchMove(a float64) (*StretchMove, error) {
	if math.IsNaN(a) || a <= 1.0 {
		return nil, errors.Errorf("Stretch scale must be > 1, got %v", a)
	}
	return &StretchMove{a: a}, nil
}

// Scale returns the configured scale parameter.
func (m *StretchMove) Scale() float64 {
	return m.a
}

// drawZ samples the stretch factor: with u uniform on [0,1),
// z = ((a-1)u + 1)^2 / a has density g(z) ~ 1/sqrt(z) on [1/a, a].
func (m *StretchMove) drawZ(gen *rand.Generator) float64 {
	u := gen.Float64()
	s := (m.a-1.0)*u + 1.0
	return s * s / m.a
}

// Propose implements Move. Exactly two draws are consumed per active walker:
// the partner index, then the stretch factor.
func (m *StretchMove) Propose(gen *rand.Generator, active [][]float64, complement [][]float64) ([][]float64, []float64, error) {
	if len(complement) < 1 {
		return nil, nil, errors.Errorf("Stretch move needs a non-empty complement")
	}
	if len(active) < 1 {
		return nil, nil, errors.Errorf("Stretch move needs at least one active walker")
	}

	ndim := len(active[0])
	candidates := make([][]float64, len(active))
	factors := make([]float64, len(active))

	for k, xi := range active {
		j := gen.Intn(len(complement))
		z := m.drawZ(gen)

		xj := complement[j]
		y := make([]float64, ndim)
		for d := range y {
			y[d] = xj[d] + z*(xi[d]-xj[d])
		}

		candidates[k] = y
		factors[k] = float64(ndim-1) * math.Log(z)
	}

	return candidates, factors, nil
}
