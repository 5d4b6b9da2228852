package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/mcmcviz/engine"
	"github.com/spektr-org/mcmcviz/internal/config"
	"github.com/spektr-org/mcmcviz/internal/logging"
)

// ============================================================================
// MCMCVIZ CLI: Posterior predictive checks and MCMC diagnostics
// ============================================================================

const version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbose    bool
	format     string
	outPath    string
	scheme     string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "mcmcviz",
		Short: "mcmcviz - plots for posterior predictive checks and MCMC diagnostics",
		Long: `mcmcviz builds declarative plots, tables and text reports from
posterior predictive draws, MCMC draws and NUTS sampler diagnostics.

Plots are emitted as JSON layer specifications for an external renderer.

Examples:
  mcmcviz ppc bars --y y.csv --yrep yrep.csv --format pretty
  mcmcviz ppc summary --y y.csv --yrep yrep.csv --format csv --out summary.csv
  mcmcviz mcmc trace --draws chain1.csv --draws chain2.csv --regex-pars '^theta'
  mcmcviz nuts summary --draws chain1.csv --draws chain2.csv --format text
  mcmcviz discover --file chain1.csv --format pretty`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to YAML config file (env overrides use the MCMCVIZ_ prefix)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")
	pf.StringVar(&a.format, "format", "", "Output format: json, pretty, csv, text")
	pf.StringVar(&a.outPath, "out", "", "Write output to file instead of stdout")
	pf.StringVar(&a.scheme, "scheme", "", "Color scheme name")

	root.AddCommand(a.ppcCmd(), a.mcmcCmd(), a.nutsCmd(), a.discoverCmd())
	return root
}

// setup loads the config, applies persistent flag overrides and builds
// the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = a.format
	}
	if flags.Changed("scheme") {
		cfg.Scheme = a.scheme
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, false)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// output returns the destination writer and a close func.
func (a *app) output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if a.outPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(a.outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// execute runs spec through the engine and writes the result.
func (a *app) execute(cmd *cobra.Command, spec engine.PlotSpec, in engine.Inputs, extra ...engine.Option) error {
	scheme, err := a.cfg.ColorScheme()
	if err != nil {
		return err
	}
	opts := append([]engine.Option{
		engine.WithColorScheme(scheme),
		engine.WithLogger(a.logger),
	}, extra...)

	result, err := engine.Execute(spec, in, opts...)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		a.logger.Warn(w, zap.String("kind", spec.Kind))
	}

	w, closeOut, err := a.output(cmd)
	if err != nil {
		return err
	}
	if err := writeResult(w, result, a.cfg.Format); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}
	if a.outPath != "" {
		a.logger.Info("output written", zap.String("path", a.outPath), zap.String("format", a.cfg.Format))
	}
	return nil
}

// ============================================================================
// SHARED FLAGS
// ============================================================================

// statFlags registers the statistical flags a recipe accepts. Values not
// given on the command line fall back to the config file.
type statFlags struct {
	prob, probOuter bool
	freq, style     bool
	bins            bool
}

func addStatFlags(cmd *cobra.Command, s statFlags) {
	f := cmd.Flags()
	if s.prob {
		f.Float64("prob", 0, "Central interval mass (0 = recipe default)")
	}
	if s.probOuter {
		f.Float64("prob-outer", 0, "Outer interval mass (0 = recipe default)")
	}
	if s.freq {
		f.Bool("freq", true, "Counts (true) or proportions (false)")
	}
	if s.style {
		f.String("style", "", "Rootogram style: standing, hanging, suspended")
	}
	if s.bins {
		f.Int("bins", 0, "Histogram bins (0 = recipe default)")
	}
	f.String("title", "", "Plot title")
	f.String("caption", "", "Caption template, e.g. \"{nreps} draws, {prob} intervals\"")
	f.String("output", "", "Result type: plot, table, text (default per recipe)")
}

// applyStatFlags copies flag values, or config defaults for flags the
// command registers but the user did not set, into spec. A zero field in
// PlotSpec means "recipe default", so an explicit --prob 0 comes back as
// an Option.
func (a *app) applyStatFlags(cmd *cobra.Command, spec *engine.PlotSpec) []engine.Option {
	var extra []engine.Option
	f := cmd.Flags()
	if fl := f.Lookup("prob"); fl != nil {
		spec.Prob = a.cfg.Prob
		if fl.Changed {
			spec.Prob, _ = f.GetFloat64("prob")
			if spec.Prob == 0 {
				extra = append(extra, engine.WithProb(0))
			}
		}
	}
	if fl := f.Lookup("prob-outer"); fl != nil {
		spec.ProbOuter = a.cfg.ProbOuter
		if fl.Changed {
			spec.ProbOuter, _ = f.GetFloat64("prob-outer")
		}
	}
	if fl := f.Lookup("freq"); fl != nil {
		spec.Freq = a.cfg.Freq
		if fl.Changed {
			v, _ := f.GetBool("freq")
			spec.Freq = &v
		}
	}
	if fl := f.Lookup("style"); fl != nil {
		spec.Style = a.cfg.Style
		if fl.Changed {
			spec.Style, _ = f.GetString("style")
		}
	}
	if fl := f.Lookup("bins"); fl != nil {
		spec.Bins = a.cfg.Bins
		if fl.Changed {
			spec.Bins, _ = f.GetInt("bins")
		}
	}
	spec.Title, _ = f.GetString("title")
	spec.Caption, _ = f.GetString("caption")
	spec.Output, _ = f.GetString("output")
	return extra
}
