package main

import (
	"github.com/spf13/cobra"

	"github.com/spektr-org/mcmcviz/engine"
)

// ============================================================================
// NUTS: mcmcviz nuts {energy,divergence,summary}
// ============================================================================

func (a *app) nutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nuts",
		Short: "NUTS sampler diagnostics",
	}
	cmd.AddCommand(
		a.nutsLeafCmd("energy", "nuts_energy", "Marginal energy vs energy transitions", statFlags{bins: true}),
		a.nutsLeafCmd("divergence", "nuts_divergence", "lp__ and accept_stat__ split by divergence", statFlags{}),
		a.nutsLeafCmd("summary", "nuts_summary", "Divergences, treedepth saturation and E-BFMI", statFlags{}),
	)
	return cmd
}

func (a *app) nutsLeafCmd(use, kind, short string, flags statFlags) *cobra.Command {
	var (
		files        drawsFlags
		mergeChains  bool
		maxTreedepth int
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.loadDraws(files)
			if err != nil {
				return err
			}
			spec := engine.PlotSpec{Kind: kind, MergeChains: mergeChains}
			extra := a.applyStatFlags(cmd, &spec)
			if kind == "nuts_summary" {
				if depth := a.treedepth(cmd, maxTreedepth, data); depth > 0 {
					extra = append(extra, engine.WithMaxTreedepth(depth))
				}
			}
			return a.execute(cmd, spec, engine.Inputs{Draws: data.draws, Source: data.source}, extra...)
		},
	}
	files.register(cmd)
	switch kind {
	case "nuts_energy":
		cmd.Flags().BoolVar(&mergeChains, "merge-chains", false, "Pool chains into one panel")
	case "nuts_summary":
		cmd.Flags().IntVar(&maxTreedepth, "max-treedepth", 0, "Sampler max treedepth (default: from the CSV header, config, or 10)")
	}
	addStatFlags(cmd, flags)
	return cmd
}

// treedepth picks the max treedepth: flag, then config, then what the
// sampler recorded. Zero leaves the engine default.
func (a *app) treedepth(cmd *cobra.Command, flag int, data *loaded) int {
	if cmd.Flags().Changed("max-treedepth") {
		return flag
	}
	if a.cfg.MaxTreedepth > 0 {
		return a.cfg.MaxTreedepth
	}
	return data.maxTreedepth
}
