package ensemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sumSq(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return -0.5 * s
}

func TestSerialEvaluate(t *testing.T) {
	assert := assert.New(t)

	pos := grid(4, 3)
	out := make([]float64, 4)
	assert.NoError(SerialEvaluator{}.Evaluate(sumSq, pos, out))

	for i, x := range pos {
		assert.Equal(sumSq(x), out[i])
	}

	assert.Error(SerialEvaluator{}.Evaluate(sumSq, pos, make([]float64, 3)))
}

func TestPoolMatchesSerial(t *testing.T) {
	assert := assert.New(t)

	pos := grid(64, 5)
	serial := make([]float64, 64)
	pooled := make([]float64, 64)

	assert.NoError(SerialEvaluator{}.Evaluate(sumSq, pos, serial))
	assert.NoError(NewPoolEvaluator(4).Evaluate(sumSq, pos, pooled))
	assert.Equal(serial, pooled)

	// Zero workers falls back to GOMAXPROCS
	assert.NoError(NewPoolEvaluator(0).Evaluate(sumSq, pos, pooled))
	assert.Equal(serial, pooled)
}

func TestEvaluateNaNIsFatal(t *testing.T) {
	assert := assert.New(t)

	bad := func(x []float64) float64 {
		if x[0] > 2 {
			return math.NaN()
		}
		return 0
	}

	pos := grid(4, 1)
	out := make([]float64, 4)
	assert.Error(SerialEvaluator{}.Evaluate(bad, pos, out))
	assert.Error(NewPoolEvaluator(2).Evaluate(bad, pos, out))
}

func TestEvaluatePanicIsFatal(t *testing.T) {
	assert := assert.New(t)

	boom := func(x []float64) float64 {
		panic("target exploded")
	}

	pos := grid(4, 1)
	out := make([]float64, 4)
	assert.Error(SerialEvaluator{}.Evaluate(boom, pos, out))
	assert.Error(NewPoolEvaluator(2).Evaluate(boom, pos, out))
}

func TestWithArgs(t *testing.T) {
	assert := assert.New(t)

	shifted := func(x []float64, args ...any) float64 {
		mu := args[0].(float64)
		return -(x[0] - mu) * (x[0] - mu)
	}

	f := WithArgs(shifted, 3.0)
	assert.Equal(-4.0, f([]float64{1.0}))
	assert.Equal(0.0, f([]float64{3.0}))
}
