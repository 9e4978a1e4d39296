package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// startupParams carries everything the subcommands need from the command
// line, plus the output logger.
type startupParams struct {
	configFile string
	verbose    bool
	monitor    bool

	out *log.Logger
}

func (sp *startupParams) vlog(format string, args ...any) {
	if sp.verbose {
		sp.out.Printf(format, args...)
	}
}

var params = &startupParams{
	out: log.New(os.Stdout, "", 0),
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "affine",
	Short: "Affine-invariant ensemble MCMC sampling",
	Long: `affine draws samples from an unnormalized log-density using an
ensemble of walkers and the affine-invariant stretch move. Among other
features:

  - Reproducible, seedable runs (bit-identical chains for a fixed seed)
  - Optional parallel evaluation of the target density
  - Autocorrelation-time and acceptance diagnostics
`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("affine\n")
		fmt.Printf("Verbose: %v\n", params.verbose)
		fmt.Printf("Config:  %s\n", params.configFile)
		fmt.Printf("Run 'affine sample -c <config.yaml>' to sample\n")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().StringVarP(&params.configFile, "config", "c", "", "YAML run configuration file")
	rootCmd.PersistentFlags().BoolVarP(&params.verbose, "verbose", "v", false, "Verbose logging (default is much more parsimonious)")
	rootCmd.PersistentFlags().BoolVarP(&params.monitor, "monitor", "", false, "Serve expvar progress counters on :8000 during the run")

	rootCmd.AddCommand(sampleCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
