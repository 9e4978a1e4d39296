package cmd

import (
	"expvar"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/mkendall/affine/sampler"
)

type monitor struct {
	info    *expvar.Map
	stopped chan struct{}
	server  *http.Server

	Walkers    *expvar.Int
	Dims       *expvar.Int
	BurnIn     *expvar.Int
	Steps      *expvar.Int
	RunTime    *expvar.Float
	MeanAccept *expvar.Float
}

// Start begins the monitor
func (m *monitor) Start(cfg runConfig) error {
	if m.info != nil {
		return errors.Errorf("BUG: You may only start the process monitor once")
	}

	m.info = expvar.NewMap("affine-progress")
	m.stopped = make(chan struct{})
	m.server = &http.Server{
		Addr: ":8000", // TODO: allow override in call to start
	}

	// Help the user and redirect to the only thing currently available:
	// the handler from the expvar package
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/debug/vars", http.StatusTemporaryRedirect)
	})

	m.Walkers = expvar.NewInt("Walkers")
	m.Dims = expvar.NewInt("Dims")
	m.BurnIn = expvar.NewInt("Burn-In")
	m.Steps = expvar.NewInt("Steps")
	m.RunTime = expvar.NewFloat("Run-Time")
	m.MeanAccept = expvar.NewFloat("Mean-Acceptance")

	m.Walkers.Set(int64(cfg.Walkers))
	m.Dims.Set(int64(cfg.Dims))
	m.BurnIn.Set(int64(cfg.BurnIn))

	go func() {
		defer close(m.stopped)
		if err := m.server.ListenAndServe(); err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "Monitor server failed: %v\n", err)
		}
	}()

	return nil
}

// Finish records the post-run stats so they are visible until Stop.
func (m *monitor) Finish(s *sampler.EnsembleSampler, elapsed time.Duration) {
	m.Steps.Set(int64(s.Steps()))
	m.RunTime.Set(elapsed.Seconds())

	af := s.AcceptanceFraction()
	mean := 0.0
	for _, f := range af {
		mean += f
	}
	if len(af) > 0 {
		mean /= float64(len(af))
	}
	m.MeanAccept.Set(mean)
}

// Stop shuts the monitor server down and waits for it to exit.
func (m *monitor) Stop() error {
	if m.server == nil {
		return nil
	}
	if err := m.server.Close(); err != nil {
		return errors.Wrap(err, "Could not close monitor server")
	}
	<-m.stopped
	return nil
}
