package cmd

import (
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mkendall/affine/ensemble"
	"github.com/mkendall/affine/rand"
	"github.com/mkendall/affine/sampler"
)

// runConfig is the YAML run configuration consumed by the sample command.
type runConfig struct {
	Target  string  `yaml:"target"`  // gauss (default) or rosenbrock
	Walkers int     `yaml:"walkers"` // even, >= 2*dims
	Dims    int     `yaml:"dims"`
	BurnIn  int     `yaml:"burnin"`
	Steps   int     `yaml:"steps"`
	Seed    int64   `yaml:"seed"`
	Scale   float64 `yaml:"scale"`   // stretch scale a, default 2
	Workers int     `yaml:"workers"` // 0 = serial evaluation
	Spread  float64 `yaml:"spread"`  // stddev of the initial walker ball
}

func defaultRunConfig() runConfig {
	return runConfig{
		Target:  "gauss",
		Walkers: 64,
		Dims:    5,
		BurnIn:  200,
		Steps:   2000,
		Seed:    1,
		Scale:   sampler.DefaultStretchScale,
		Workers: 0,
		Spread:  1.0,
	}
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "Could not read config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "Could not parse config %s", path)
	}
	return cfg, nil
}

// builtinTarget returns one of the demo densities by name.
func builtinTarget(name string, dims int) (ensemble.LogProbFunc, error) {
	switch name {
	case "", "gauss":
		return func(x []float64) float64 {
			s := 0.0
			for _, v := range x {
				s += v * v
			}
			return -0.5 * s
		}, nil
	case "rosenbrock":
		if dims != 2 {
			return nil, errors.Errorf("The rosenbrock target is 2-dimensional, config has dims=%d", dims)
		}
		return func(x []float64) float64 {
			a := 1.0 - x[0]
			b := x[1] - x[0]*x[0]
			return -(a*a + 100.0*b*b) / 20.0
		}, nil
	}
	return nil, errors.Errorf("Unknown target %q (want gauss or rosenbrock)", name)
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Run the ensemble sampler on a built-in target",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(params.configFile)
		if err != nil {
			return err
		}
		return runSample(params, cfg)
	},
}

func runSample(sp *startupParams, cfg runConfig) error {
	target, err := builtinTarget(cfg.Target, cfg.Dims)
	if err != nil {
		return err
	}

	var eval ensemble.Evaluator
	if cfg.Workers > 0 {
		eval = ensemble.NewPoolEvaluator(cfg.Workers)
	}

	move, err := sampler.NewStretchMove(cfg.Scale)
	if err != nil {
		return err
	}

	s, err := sampler.New(sampler.Config{
		Walkers:   cfg.Walkers,
		Dims:      cfg.Dims,
		LogProb:   target,
		Move:      move,
		Evaluator: eval,
		Seed:      cfg.Seed,
	})
	if err != nil {
		return errors.Wrap(err, "Could not create sampler")
	}

	var mon *monitor
	if sp.monitor {
		mon = &monitor{}
		if err := mon.Start(cfg); err != nil {
			return err
		}
		defer func() {
			if err := mon.Stop(); err != nil {
				sp.out.Printf("Monitor stop failed: %v\n", err)
			}
		}()
	}

	sp.out.Printf("Target:  %s (%d dims)\n", cfg.Target, cfg.Dims)
	sp.out.Printf("Walkers: %d, Seed: %d, Scale: %.2f, Workers: %d\n",
		cfg.Walkers, cfg.Seed, cfg.Scale, cfg.Workers)

	initial, err := initialBall(cfg)
	if err != nil {
		return err
	}

	start := time.Now()

	sp.vlog("Burn-in for %d steps\n", cfg.BurnIn)
	if _, err := s.Run(initial, cfg.BurnIn); err != nil {
		return errors.Wrap(err, "Burn-in failed")
	}
	if drift, ok := s.Drift(); ok {
		sp.vlog("Post burn-in drift: %v\n", drift)
	}
	s.Reset()

	sp.vlog("Sampling for %d steps\n", cfg.Steps)
	if _, err := s.Run(nil, cfg.Steps); err != nil {
		return errors.Wrap(err, "Sampling failed")
	}

	elapsed := time.Since(start)
	if mon != nil {
		mon.Finish(s, elapsed)
	}

	report(sp, s, cfg, elapsed)
	return nil
}

// initialBall spreads the walkers in a normal ball around the origin, using
// a stream seeded separately from the sampler's so the two do not interact.
func initialBall(cfg runConfig) ([][]float64, error) {
	gen, err := rand.NewGenerator(cfg.Seed + 1)
	if err != nil {
		return nil, err
	}

	spread := cfg.Spread
	if spread <= 0 {
		spread = 1.0
	}

	pos := make([][]float64, cfg.Walkers)
	for w := range pos {
		pos[w] = make([]float64, cfg.Dims)
		for d := range pos[w] {
			pos[w][d] = spread * gen.NormFloat64()
		}
	}
	return pos, nil
}

func report(sp *startupParams, s *sampler.EnsembleSampler, cfg runConfig, elapsed time.Duration) {
	af := s.AcceptanceFraction()
	meanAccept := 0.0
	for _, f := range af {
		meanAccept += f
	}
	meanAccept /= float64(len(af))

	sp.out.Printf("Completed %d steps in %v\n", s.Steps(), elapsed)
	sp.out.Printf("Mean acceptance fraction: %.3f\n", meanAccept)
	if meanAccept < 0.2 || meanAccept > 0.5 {
		sp.out.Printf("WARNING: acceptance outside the healthy 0.2-0.5 band; consider adjusting scale\n")
	}

	taus, err := s.AutocorrTime()
	if err != nil {
		sp.out.Printf("Autocorrelation estimate is unreliable: %v\n", err)
	}
	if taus != nil {
		sp.out.Printf("Integrated autocorrelation time per dimension: %v\n", taus)
	}

	flat := s.FlatChain()
	if flat == nil {
		return
	}
	rows, _ := flat.Dims()
	for d := 0; d < cfg.Dims; d++ {
		sum, sumSq := 0.0, 0.0
		for i := 0; i < rows; i++ {
			v := flat.At(i, d)
			sum += v
			sumSq += v * v
		}
		mean := sum / float64(rows)
		sd := math.Sqrt(sumSq/float64(rows) - mean*mean)
		sp.out.Printf("dim %d: mean %+.4f  stddev %.4f\n", d, mean, sd)
	}
}
