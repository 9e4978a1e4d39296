package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriftMonitorBadConfig(t *testing.T) {
	assert := assert.New(t)

	m, err := NewDriftMonitor(0, 10)
	assert.Nil(m)
	assert.Error(err)

	m, err = NewDriftMonitor(2, 1)
	assert.Nil(m)
	assert.Error(err)
}

func TestDriftMonitorWindow(t *testing.T) {
	assert := assert.New(t)

	m, err := NewDriftMonitor(2, 4)
	assert.NoError(err)

	_, ok := m.Drift()
	assert.False(ok)

	assert.Error(m.Observe([]float64{1.0})) // wrong length

	// First dimension trends upward, second is flat
	for i := 0; i < 4; i++ {
		assert.NoError(m.Observe([]float64{float64(i), 7.0}))
	}

	d, ok := m.Drift()
	assert.True(ok)
	// Halves are {0,1} and {2,3}: drift = |2.5 - 0.5| = 2
	assert.InDelta(2.0, d[0], 1e-12)
	assert.InDelta(0.0, d[1], 1e-12)

	m.Reset()
	_, ok = m.Drift()
	assert.False(ok)
}
