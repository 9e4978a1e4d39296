package ensemble

import (
	"math"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// LogProbFunc is the caller-supplied target: the log of an unnormalized
// density. It must return a finite value or negative infinity for infeasible
// positions. Returning NaN (or panicking) is treated as a fatal evaluation
// error by the Evaluators below.
type LogProbFunc func(x []float64) float64

// WithArgs adapts a density that takes fixed extra arguments into a
// LogProbFunc. The args are bound once and passed on every call.
func WithArgs(f func(x []float64, args ...any) float64, args ...any) LogProbFunc {
	return func(x []float64) float64 {
		return f(x, args...)
	}
}

// An Evaluator applies the target density to a batch of positions, filling
// out[i] with the value at positions[i]. The calls within one batch are
// independent, so implementations are free to run them in any order or in
// parallel - but they must not consume any sampler randomness.
type Evaluator interface {
	Evaluate(f LogProbFunc, positions [][]float64, out []float64) error
}

// evalOne runs a single density call, converting a panic or a NaN result
// into an error so a misbehaving target aborts the run instead of corrupting
// the chain.
func evalOne(f LogProbFunc, x []float64) (lp float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("Density function panicked: %v", r)
		}
	}()

	lp = f(x)
	if math.IsNaN(lp) {
		return 0, errors.Errorf("Density function returned NaN")
	}
	return lp, nil
}

// SerialEvaluator evaluates the batch one position at a time on the calling
// goroutine.
type SerialEvaluator struct{}

// Evaluate implements Evaluator.
func (SerialEvaluator) Evaluate(f LogProbFunc, positions [][]float64, out []float64) error {
	if len(out) != len(positions) {
		return errors.Errorf("Evaluate size mismatch: %d positions, %d outputs", len(positions), len(out))
	}

	for i, x := range positions {
		lp, err := evalOne(f, x)
		if err != nil {
			return errors.Wrapf(err, "Evaluating walker %d", i)
		}
		out[i] = lp
	}

	return nil
}

// PoolEvaluator fans the batch out over a bounded pool of goroutines. Useful
// when the density is expensive; results land at fixed indexes so the output
// is identical to SerialEvaluator's.
type PoolEvaluator struct {
	Workers int // <= 0 means GOMAXPROCS
}

// NewPoolEvaluator creates a PoolEvaluator with the given worker count.
func NewPoolEvaluator(workers int) *PoolEvaluator {
	return &PoolEvaluator{Workers: workers}
}

// Evaluate implements Evaluator.
func (p *PoolEvaluator) Evaluate(f LogProbFunc, positions [][]float64, out []float64) error {
	if len(out) != len(positions) {
		return errors.Errorf("Evaluate size mismatch: %d positions, %d outputs", len(positions), len(out))
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var eg errgroup.Group
	eg.SetLimit(workers)

	for i := range positions {
		i := i
		eg.Go(func() error {
			lp, err := evalOne(f, positions[i])
			if err != nil {
				return errors.Wrapf(err, "Evaluating walker %d", i)
			}
			out[i] = lp
			return nil
		})
	}

	return eg.Wait()
}
