package sampler

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mkendall/affine/buffer"
)

// A DriftMonitor watches the per-step walker means over a sliding window and
// reports, per dimension, how far the mean of the newest half-window has
// drifted from the mean of the oldest half-window. Large drift means the
// ensemble is still in transit (burn-in not done); it is advisory only.
type DriftMonitor struct {
	windows []*buffer.CircularFloat
}

// NewDriftMonitor creates a monitor over window steps for ndim dimensions.
func NewDriftMonitor(ndim, window int) (*DriftMonitor, error) {
	if ndim < 1 {
		return nil, errors.Errorf("Drift monitor needs at least 1 dimension")
	}
	if window < 2 {
		return nil, errors.Errorf("Drift window must be at least 2, got %d", window)
	}

	windows := make([]*buffer.CircularFloat, ndim)
	for d := range windows {
		windows[d] = buffer.NewCircularFloat(window)
	}
	return &DriftMonitor{windows: windows}, nil
}

// Observe records one step's walker means (length ndim).
func (m *DriftMonitor) Observe(means []float64) error {
	if len(means) != len(m.windows) {
		return errors.Errorf("Expected %d means, got %d", len(m.windows), len(means))
	}
	for d, v := range means {
		m.windows[d].Add(v)
	}
	return nil
}

// Drift returns the per-dimension absolute half-window mean difference. The
// bool is false until the window has filled.
func (m *DriftMonitor) Drift() ([]float64, bool) {
	out := make([]float64, len(m.windows))
	for d, w := range m.windows {
		first, second, ok := w.HalfMeans()
		if !ok {
			return nil, false
		}
		out[d] = math.Abs(second - first)
	}
	return out, true
}

// Reset empties all windows.
func (m *DriftMonitor) Reset() {
	for d, w := range m.windows {
		m.windows[d] = buffer.NewCircularFloat(w.BufSize)
	}
}
