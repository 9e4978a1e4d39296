package sampler

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mkendall/affine/rand"
)

func TestAutocorrWhiteNoise(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(99)
	assert.NoError(err)

	series := make([]float64, 20000)
	for i := range series {
		series[i] = gen.NormFloat64()
	}

	tau, err := NewAutocorrEstimator().Estimate(series)
	assert.NoError(err)
	assert.True(tau >= 1.0)
	assert.InDelta(1.0, tau, 0.5)
}

func TestAutocorrAR1(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(12345)
	assert.NoError(err)

	// AR(1) with coefficient phi has integrated autocorrelation time
	// (1+phi)/(1-phi); for phi=0.9 that is 19.
	const phi = 0.9
	series := make([]float64, 100000)
	x := 0.0
	for i := range series {
		x = phi*x + gen.NormFloat64()
		series[i] = x
	}

	tau, err := NewAutocorrEstimator().Estimate(series)
	assert.NoError(err)
	assert.True(tau > 10.0 && tau < 30.0, "tau=%v not near 19", tau)
}

func TestAutocorrShortChain(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(4)
	assert.NoError(err)

	// Strongly correlated but only 200 points: nowhere near 50*tau
	const phi = 0.95
	series := make([]float64, 200)
	x := 0.0
	for i := range series {
		x = phi*x + gen.NormFloat64()
		series[i] = x
	}

	tau, err := NewAutocorrEstimator().Estimate(series)
	assert.Error(err)
	assert.Equal(ErrShortChain, errors.Cause(err))
	assert.True(tau >= 1.0) // estimate still returned
}

func TestAutocorrDegenerate(t *testing.T) {
	assert := assert.New(t)

	est := NewAutocorrEstimator()

	_, err := est.Estimate([]float64{1.0})
	assert.Error(err)

	_, err = est.Estimate([]float64{2.0, 2.0, 2.0, 2.0})
	assert.Error(err)
}

func TestAutocorrChain(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(8)
	assert.NoError(err)

	c, err := NewChain(4, 2)
	assert.NoError(err)

	for step := 0; step < 5000; step++ {
		pos := make([][]float64, 4)
		for w := range pos {
			pos[w] = []float64{gen.NormFloat64(), gen.NormFloat64()}
		}
		assert.NoError(c.Append(pos, []float64{0, 0, 0, 0}))
	}

	taus, err := NewAutocorrEstimator().EstimateChain(c)
	assert.NoError(err)
	assert.Len(taus, 2)
	for _, tau := range taus {
		assert.True(tau >= 1.0)
		assert.InDelta(1.0, tau, 0.5)
	}
}
