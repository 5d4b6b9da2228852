package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/mcmcviz/engine"
	"github.com/spektr-org/mcmcviz/schema"
	"github.com/spektr-org/mcmcviz/source"
)

// ============================================================================
// MCMC: mcmcviz mcmc {trace,hist,intervals,scatter,pairs,acf,rhat,neff}
// ============================================================================

type mcmcLeaf struct {
	use, kind, short string
	flags            statFlags
	transforms       bool
	lags             bool
}

var mcmcLeaves = []mcmcLeaf{
	{use: "trace", kind: "mcmc_trace", short: "Trace plots per parameter", transforms: true},
	{use: "hist", kind: "mcmc_hist", short: "Marginal posterior histograms",
		flags: statFlags{bins: true}, transforms: true},
	{use: "intervals", kind: "mcmc_intervals", short: "Posterior intervals per parameter",
		flags: statFlags{prob: true, probOuter: true}, transforms: true},
	{use: "scatter", kind: "mcmc_scatter", short: "Bivariate scatter of two parameters", transforms: true},
	{use: "pairs", kind: "mcmc_pairs", short: "Pairs plot matrix",
		flags: statFlags{bins: true}, transforms: true},
	{use: "acf", kind: "mcmc_acf", short: "Autocorrelation per parameter and chain",
		transforms: true, lags: true},
	{use: "rhat", kind: "mcmc_rhat", short: "Split R-hat per parameter"},
	{use: "neff", kind: "mcmc_neff", short: "Effective sample size ratio per parameter"},
}

// drawsFlags locate posterior draws on disk.
type drawsFlags struct {
	stanFiles  []string
	arvizFile  string
	refinePath string
}

func (d *drawsFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVar(&d.stanFiles, "draws", nil, "CmdStan CSV file, one per chain (repeatable)")
	f.StringVar(&d.arvizFile, "arviz", "", "ArviZ InferenceData JSON export")
	f.StringVar(&d.refinePath, "refine", "", "YAML refinement applied to the discovered CmdStan schema")
	cmd.MarkFlagsMutuallyExclusive("draws", "arviz")
	cmd.MarkFlagsOneRequired("draws", "arviz")
}

// loaded is everything read from one set of sampler output files.
type loaded struct {
	draws        *engine.Draws
	source       engine.DiagnosticsSource
	maxTreedepth int
}

func (a *app) loadDraws(d drawsFlags) (*loaded, error) {
	if d.arvizFile != "" {
		data, err := os.ReadFile(d.arvizFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ArviZ file: %w", err)
		}
		src, err := source.ReadArviZJSON(data)
		if err != nil {
			return nil, err
		}
		if len(src.Ignored) > 0 {
			a.logger.Debug("ignored sample_stats variables", zap.Strings("names", src.Ignored))
		}
		return &loaded{draws: src.Draws, source: src}, nil
	}

	var opts []source.StanOption
	opts = append(opts, source.WithLogger(a.logger))
	if d.refinePath != "" {
		f, err := os.Open(d.refinePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read refinement: %w", err)
		}
		ref, err := schema.LoadRefinement(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		opts = append(opts, source.WithRefinement(ref))
	}

	files := make([][]byte, len(d.stanFiles))
	for i, path := range d.stanFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read draws: %w", err)
		}
		files[i] = data
	}
	src, err := source.ReadStanCSV(files, opts...)
	if err != nil {
		return nil, err
	}
	return &loaded{draws: src.Draws, source: src, maxTreedepth: src.MaxTreedepth()}, nil
}

func (a *app) mcmcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcmc",
		Short: "Plots of posterior draws from CmdStan CSV or ArviZ JSON",
	}
	for _, leaf := range mcmcLeaves {
		cmd.AddCommand(a.mcmcLeafCmd(leaf))
	}
	return cmd
}

func (a *app) mcmcLeafCmd(leaf mcmcLeaf) *cobra.Command {
	var (
		files      drawsFlags
		pars       []string
		regexPars  []string
		transforms []string
		lags       int
	)
	cmd := &cobra.Command{
		Use:   leaf.use,
		Short: leaf.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := parseTransforms(transforms)
			if err != nil {
				return err
			}
			data, err := a.loadDraws(files)
			if err != nil {
				return err
			}
			if data.draws == nil {
				return fmt.Errorf("no posterior draws in input")
			}
			spec := engine.PlotSpec{Kind: leaf.kind, Pars: pars, RegexPars: regexPars, Lags: lags}
			extra = append(extra, a.applyStatFlags(cmd, &spec)...)
			return a.execute(cmd, spec, engine.Inputs{Draws: data.draws}, extra...)
		},
	}
	files.register(cmd)
	f := cmd.Flags()
	f.StringSliceVar(&pars, "pars", nil, "Parameter names to include")
	f.StringSliceVar(&regexPars, "regex-pars", nil, "Regular expressions selecting parameters")
	if leaf.transforms {
		f.StringArrayVar(&transforms, "transform", nil,
			fmt.Sprintf("param=name transformation, name one of %v (repeatable)", engine.TransformNames()))
	}
	if leaf.lags {
		f.IntVar(&lags, "lags", 0, "Number of autocorrelation lags (0 = recipe default)")
	}
	addStatFlags(cmd, leaf.flags)
	return cmd
}

// parseTransforms turns "param=name" pairs into options.
func parseTransforms(pairs []string) ([]engine.Option, error) {
	var out []engine.Option
	for _, p := range pairs {
		param, name, ok := strings.Cut(p, "=")
		if !ok || param == "" || name == "" {
			return nil, fmt.Errorf("--transform %q: want param=name", p)
		}
		out = append(out, engine.WithTransform(param, name))
	}
	return out, nil
}
