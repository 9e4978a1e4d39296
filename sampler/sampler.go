// Package sampler implements an affine-invariant ensemble MCMC sampler: the
// stretch-move proposal, the two-phase walker update that preserves detailed
// balance, chain accumulation, and autocorrelation-based diagnostics.
package sampler

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mkendall/affine/ensemble"
	"github.com/mkendall/affine/rand"
)

// DefaultDriftWindow is the sliding-window length used by the built-in drift
// diagnostic when the config does not override it.
const DefaultDriftWindow = 128

// Config describes an EnsembleSampler. Walkers must be even and at least
// twice Dims; LogProb is required. Everything else has a usable default.
type Config struct {
	Walkers int
	Dims    int
	LogProb ensemble.LogProbFunc

	// Move defaults to the stretch move with scale 2.
	Move Move

	// Evaluator defaults to serial evaluation. A PoolEvaluator gives the
	// same chain bit-for-bit, just faster for expensive targets.
	Evaluator ensemble.Evaluator

	// Seed for the sampler-owned random stream.
	Seed int64

	// DriftWindow steps for the burn-in drift diagnostic.
	DriftWindow int
}

// RunResult is what Run hands back: the final walker state plus the random
// stream, which is the continuation state - reusing the same sampler (and
// hence the same Generator) continues the exact trajectory.
type RunResult struct {
	Positions [][]float64
	LogProbs  []float64
	Stream    *rand.Generator
}

// An EnsembleSampler owns a walker ensemble and evolves it with a Move,
// recording every step in a Chain. It is not safe for concurrent use: one
// run at a time, one goroutine driving it.
type EnsembleSampler struct {
	walkers int
	ndim    int
	logProb ensemble.LogProbFunc

	gen   *rand.Generator
	move  Move
	eval  ensemble.Evaluator
	ens   *ensemble.Ensemble
	chain *Chain
	drift *DriftMonitor

	autocorr *AutocorrEstimator
}

// New creates an EnsembleSampler from the config. Configuration problems are
// reported here, before any state exists.
func New(cfg Config) (*EnsembleSampler, error) {
	if cfg.Dims < 1 {
		return nil, errors.Errorf("Dims must be positive, got %d", cfg.Dims)
	}
	if cfg.Walkers%2 != 0 {
		return nil, errors.Errorf("Walkers must be even, got %d", cfg.Walkers)
	}
	if cfg.Walkers < 2*cfg.Dims {
		return nil, errors.Errorf("Need at least %d walkers for %d dims, got %d",
			2*cfg.Dims, cfg.Dims, cfg.Walkers)
	}
	if cfg.LogProb == nil {
		return nil, errors.Errorf("A log-probability function is required")
	}

	move := cfg.Move
	if move == nil {
		var err error
		move, err = NewStretchMove(DefaultStretchScale)
		if err != nil {
			return nil, err
		}
	}

	eval := cfg.Evaluator
	if eval == nil {
		eval = ensemble.SerialEvaluator{}
	}

	gen, err := rand.NewGenerator(cfg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "Could not create random stream")
	}

	chain, err := NewChain(cfg.Walkers, cfg.Dims)
	if err != nil {
		return nil, err
	}

	window := cfg.DriftWindow
	if window < 2 {
		window = DefaultDriftWindow
	}
	drift, err := NewDriftMonitor(cfg.Dims, window)
	if err != nil {
		return nil, err
	}

	s := &EnsembleSampler{
		walkers:  cfg.Walkers,
		ndim:     cfg.Dims,
		logProb:  cfg.LogProb,
		gen:      gen,
		move:     move,
		eval:     eval,
		chain:    chain,
		drift:    drift,
		autocorr: NewAutocorrEstimator(),
	}

	return s, nil
}

// Run advances the ensemble nsteps steps. On the first call (or whenever
// initial is non-nil) the ensemble is rebuilt from initial and its
// log-probabilities are evaluated; pass nil to continue from the current
// state, which is how production sampling resumes after a burn-in Reset.
//
// A density evaluation failure aborts the run with the ensemble and chain
// left at the last fully completed step.
func (s *EnsembleSampler) Run(initial [][]float64, nsteps int) (*RunResult, error) {
	if nsteps < 0 {
		return nil, errors.Errorf("Step count must be non-negative, got %d", nsteps)
	}

	if initial != nil {
		if len(initial) != s.walkers {
			return nil, errors.Errorf("Expected %d initial positions, got %d", s.walkers, len(initial))
		}
		for w, p := range initial {
			if len(p) != s.ndim {
				return nil, errors.Errorf("Initial position %d has dimension %d, expected %d", w, len(p), s.ndim)
			}
		}

		ens, err := ensemble.New(initial)
		if err != nil {
			return nil, errors.Wrap(err, "Invalid initial positions")
		}

		lps := make([]float64, s.walkers)
		all := make([]int, s.walkers)
		for i := range all {
			all[i] = i
		}
		if err := s.eval.Evaluate(s.logProb, ens.Positions(all), lps); err != nil {
			return nil, errors.Wrap(err, "Initial density evaluation failed")
		}
		if err := ens.SetLogProbs(lps); err != nil {
			return nil, err
		}

		s.ens = ens
	}

	if s.ens == nil {
		return nil, errors.Errorf("No ensemble state: the first Run needs initial positions")
	}

	halfA, halfB := s.ens.Partition()

	for k := 0; k < nsteps; k++ {
		// Keep a rollback point so an aborted step never commits a
		// half-updated ensemble.
		posSnap, lpSnap := s.ens.Snapshot()

		acceptedA, err := s.halfStep(halfA, halfB)
		var acceptedB []int
		if err == nil {
			acceptedB, err = s.halfStep(halfB, halfA)
		}
		if err != nil {
			s.ens.Restore(posSnap, lpSnap)
			return nil, errors.Wrapf(err, "Step %d of %d aborted", k+1, nsteps)
		}

		if err := s.appendStep(); err != nil {
			s.ens.Restore(posSnap, lpSnap)
			return nil, err
		}

		// Acceptance counters commit only with the step itself, so an
		// aborted step leaves them untouched along with the ensemble.
		for _, w := range acceptedA {
			s.chain.CountAccept(w)
		}
		for _, w := range acceptedB {
			s.chain.CountAccept(w)
		}
	}

	return s.result(), nil
}

// halfStep proposes and accepts moves for the active half against the fixed
// complement half, returning the walker indexes whose proposals were
// accepted - the caller counts them once the whole step commits. Randomness
// is drawn per walker in index order (partner, stretch during Propose;
// accept uniform afterward) so the trajectory does not depend on how the
// evaluator schedules the batch.
func (s *EnsembleSampler) halfStep(active, complement []int) ([]int, error) {
	activePos := s.ens.Positions(active)
	compPos := s.ens.Positions(complement)

	candidates, factors, err := s.move.Propose(s.gen, activePos, compPos)
	if err != nil {
		return nil, errors.Wrap(err, "Proposal failed")
	}

	lps := make([]float64, len(candidates))
	if err := s.eval.Evaluate(s.logProb, candidates, lps); err != nil {
		return nil, errors.Wrap(err, "Density evaluation failed")
	}

	accept := make([]bool, len(active))
	var accepted []int
	for k, w := range active {
		u := s.gen.Float64()

		cur := s.ens.LogProb(w)
		if math.IsInf(cur, -1) && math.IsInf(lps[k], -1) {
			// Never transition between two infeasible states
			continue
		}

		lnr := factors[k] + lps[k] - cur
		if math.Log(u) < lnr {
			accept[k] = true
			accepted = append(accepted, w)
		}
	}

	if err := s.ens.Replace(active, candidates, lps, accept); err != nil {
		return nil, err
	}
	return accepted, nil
}

// appendStep records the post-step ensemble and feeds the drift monitor.
func (s *EnsembleSampler) appendStep() error {
	pos, lps := s.ens.Snapshot()
	if err := s.chain.Append(pos, lps); err != nil {
		return err
	}

	means := make([]float64, s.ndim)
	inv := 1.0 / float64(s.walkers)
	for _, p := range pos {
		for d, x := range p {
			means[d] += x * inv
		}
	}
	return s.drift.Observe(means)
}

func (s *EnsembleSampler) result() *RunResult {
	pos, lps := s.ens.Snapshot()
	return &RunResult{
		Positions: pos,
		LogProbs:  lps,
		Stream:    s.gen,
	}
}

// Reset clears the chain, acceptance counters, and drift windows while
// leaving the live walker state alone, so a burn-in phase can be discarded
// and production sampling continued from the equilibrated positions.
func (s *EnsembleSampler) Reset() {
	s.chain.Reset()
	s.drift.Reset()
}

// Chain returns the recorded history, shape (nsteps, nwalkers, ndim).
// Read-only.
func (s *EnsembleSampler) Chain() [][][]float64 {
	return s.chain.States()
}

// ChainLogProbs returns the recorded log-probability history, shape
// (nsteps, nwalkers). Read-only.
func (s *EnsembleSampler) ChainLogProbs() [][]float64 {
	return s.chain.LogProbs()
}

// FlatChain returns the (nsteps*nwalkers, ndim) flattened view in
// (step, walker) row order, or nil for an empty chain.
func (s *EnsembleSampler) FlatChain() *mat.Dense {
	return s.chain.Flat()
}

// Steps returns the number of steps recorded since the last Reset.
func (s *EnsembleSampler) Steps() int {
	return s.chain.Len()
}

// AcceptanceFraction returns the per-walker accepted fraction since the last
// Reset.
func (s *EnsembleSampler) AcceptanceFraction() []float64 {
	return s.chain.AcceptanceFraction()
}

// AutocorrTime estimates the per-dimension integrated autocorrelation time
// of the walker-mean series. A too-short chain returns the estimate plus an
// ErrShortChain-based advisory error.
func (s *EnsembleSampler) AutocorrTime() ([]float64, error) {
	if s.chain.Len() < 2 {
		return nil, errors.Errorf("Need at least 2 recorded steps, have %d", s.chain.Len())
	}
	return s.autocorr.EstimateChain(s.chain)
}

// SetAutocorrWindow overrides the self-consistent windowing constant C used
// by AutocorrTime.
func (s *EnsembleSampler) SetAutocorrWindow(c float64) error {
	if c <= 0 {
		return errors.Errorf("Window constant must be positive, got %v", c)
	}
	s.autocorr.Window = c
	return nil
}

// Drift returns the burn-in drift diagnostic; false until the window fills.
func (s *EnsembleSampler) Drift() ([]float64, bool) {
	return s.drift.Drift()
}
