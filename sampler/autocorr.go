package sampler

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrShortChain is the advisory condition reported when a chain is too short
// relative to its estimated autocorrelation time. The estimate is still
// returned alongside it - callers decide whether to trust it.
var ErrShortChain = errors.New("chain too short for a reliable autocorrelation estimate")

// An AutocorrEstimator computes the integrated autocorrelation time of a
// scalar time series using the FFT-based autocorrelation function and
// Sokal's self-consistent windowing: the running estimate
// tau(m) = 1 + 2*sum_{k<=m} rho(k) is accepted at the first window m with
// m >= Window*tau(m).
type AutocorrEstimator struct {
	// Window is the windowing constant C. Larger values trade variance for
	// bias. The conventional choice is 5.
	Window float64

	// Reliability is the minimum chain length, in units of tau, below which
	// the estimate is flagged with ErrShortChain.
	Reliability float64
}

// NewAutocorrEstimator returns an estimator with the conventional constants
// (C=5, reliability factor 50).
func NewAutocorrEstimator() *AutocorrEstimator {
	return &AutocorrEstimator{
		Window:      5.0,
		Reliability: 50.0,
	}
}

// nextPowTwo returns the smallest power of two >= n.
func nextPowTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// acf returns the normalized autocorrelation function of the series,
// rho[0] == 1, computed by circular convolution on a zero-padded buffer.
func acf(series []float64) ([]float64, error) {
	n := len(series)
	if n < 2 {
		return nil, errors.Errorf("Need at least 2 points for an autocorrelation, got %d", n)
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	// Pad to 2x the next power of two so the circular transform does not
	// wrap the lagged products back onto themselves.
	padded := make([]float64, 2*nextPowTwo(n))
	for i, v := range series {
		padded[i] = v - mean
	}

	fft := fourier.NewFFT(len(padded))
	coeff := fft.Coefficients(nil, padded)
	for i, c := range coeff {
		re := real(c)
		im := imag(c)
		coeff[i] = complex(re*re+im*im, 0)
	}
	acov := fft.Sequence(nil, coeff)

	if acov[0] == 0 {
		return nil, errors.Errorf("Series is constant - autocorrelation undefined")
	}

	rho := make([]float64, n)
	inv := 1.0 / acov[0]
	for k := 0; k < n; k++ {
		rho[k] = acov[k] * inv
	}
	return rho, nil
}

// Estimate returns the integrated autocorrelation time of one series. The
// result is always >= 1. A chain shorter than Reliability*tau returns the
// estimate together with an ErrShortChain-based error.
func (e *AutocorrEstimator) Estimate(series []float64) (float64, error) {
	rho, err := acf(series)
	if err != nil {
		return 0, err
	}

	// Running window: taus[m] = 1 + 2*sum_{k=1..m} rho[k], take the first
	// m that satisfies m >= C*taus[m].
	tau := 1.0
	cumulative := 0.0
	for m := 1; m < len(rho); m++ {
		cumulative += rho[m]
		tau = 1.0 + 2.0*cumulative
		if float64(m) >= e.Window*tau {
			break
		}
	}

	if tau < 1.0 {
		tau = 1.0
	}

	if float64(len(series)) < e.Reliability*tau {
		return tau, errors.Wrapf(ErrShortChain,
			"Chain length %d < %.0f*tau (tau=%.2f)", len(series), e.Reliability, tau)
	}
	return tau, nil
}

// EstimateChain returns the per-dimension integrated autocorrelation time of
// the chain's walker-mean series. If any dimension trips the reliability
// check, the full estimate vector is still returned along with the error.
func (e *AutocorrEstimator) EstimateChain(c *Chain) ([]float64, error) {
	taus := make([]float64, c.ndim)

	var short error
	for d := 0; d < c.ndim; d++ {
		series, err := c.MeanSeries(d)
		if err != nil {
			return nil, err
		}

		tau, err := e.Estimate(series)
		if err != nil {
			if errors.Cause(err) != ErrShortChain {
				return nil, errors.Wrapf(err, "Estimating tau for dimension %d", d)
			}
			short = err
		}
		taus[d] = tau
	}

	return taus, short
}
