package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/mcmcviz/engine"
	"github.com/spektr-org/mcmcviz/helpers"
)

// ============================================================================
// PPC: mcmcviz ppc {bars,bars-grouped,rootogram,stat,intervals,summary}
// ============================================================================

type ppcLeaf struct {
	use, kind, short string
	flags            statFlags
	grouped          bool
	stat             bool
}

var ppcLeaves = []ppcLeaf{
	{use: "bars", kind: "ppc_bars", short: "Observed bars with replicate intervals",
		flags: statFlags{prob: true, freq: true}},
	{use: "bars-grouped", kind: "ppc_bars_grouped", short: "Bars faceted by group",
		flags: statFlags{prob: true, freq: true}, grouped: true},
	{use: "rootogram", kind: "ppc_rootogram", short: "Rootogram of observed and expected counts",
		flags: statFlags{prob: true, style: true}},
	{use: "stat", kind: "ppc_stat", short: "Distribution of a test statistic over replicates",
		flags: statFlags{bins: true}, stat: true},
	{use: "intervals", kind: "ppc_intervals", short: "Per-observation replicate intervals",
		flags: statFlags{prob: true, probOuter: true}},
	{use: "summary", kind: "ppc_summary", short: "Discrete summary table (x, y_obs, l, m, h)",
		flags: statFlags{prob: true, freq: true}, grouped: true},
}

func (a *app) ppcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ppc",
		Short: "Posterior predictive checks from y and yrep CSV files",
	}
	for _, leaf := range ppcLeaves {
		cmd.AddCommand(a.ppcLeafCmd(leaf))
	}
	return cmd
}

func (a *app) ppcLeafCmd(leaf ppcLeaf) *cobra.Command {
	var yPath, yrepPath, groupPath, stat string
	cmd := &cobra.Command{
		Use:   leaf.use,
		Short: leaf.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.loadPPC(yPath, yrepPath, groupPath)
			if err != nil {
				return err
			}
			if leaf.kind == "ppc_bars_grouped" && in.Group == nil {
				return fmt.Errorf("--group is required for %s", leaf.use)
			}
			spec := engine.PlotSpec{Kind: leaf.kind, Stat: stat}
			extra := a.applyStatFlags(cmd, &spec)
			if leaf.kind == "ppc_summary" && in.Group != nil {
				spec.Kind, spec.Output = "ppc_bars_grouped", engine.OutputTable
			}
			return a.execute(cmd, spec, in, extra...)
		},
	}
	f := cmd.Flags()
	f.StringVar(&yPath, "y", "", "CSV with the observed outcomes (one column or one row)")
	f.StringVar(&yrepPath, "yrep", "", "CSV with replicated outcomes (one row per draw)")
	_ = cmd.MarkFlagRequired("y")
	_ = cmd.MarkFlagRequired("yrep")
	if leaf.grouped {
		f.StringVar(&groupPath, "group", "", "CSV with one group label per observation")
	}
	if leaf.stat {
		f.StringVar(&stat, "stat", "", fmt.Sprintf("Test statistic: %v", engine.StatisticNames()))
	}
	addStatFlags(cmd, leaf.flags)
	return cmd
}

func (a *app) loadPPC(yPath, yrepPath, groupPath string) (engine.Inputs, error) {
	var in engine.Inputs
	data, err := os.ReadFile(yPath)
	if err != nil {
		return in, fmt.Errorf("failed to read y: %w", err)
	}
	if in.Y, err = helpers.ParseVectorCSV(data); err != nil {
		return in, fmt.Errorf("y: %w", err)
	}

	data, err = os.ReadFile(yrepPath)
	if err != nil {
		return in, fmt.Errorf("failed to read yrep: %w", err)
	}
	if in.YRep, err = helpers.ParseMatrixCSV(data); err != nil {
		return in, fmt.Errorf("yrep: %w", err)
	}

	if groupPath != "" {
		data, err = os.ReadFile(groupPath)
		if err != nil {
			return in, fmt.Errorf("failed to read group: %w", err)
		}
		if in.Group, err = helpers.ParseGroupCSV(data); err != nil {
			return in, fmt.Errorf("group: %w", err)
		}
	}
	a.logger.Debug("loaded ppc inputs",
		zap.Int("observations", len(in.Y)),
		zap.Int("replicates", len(in.YRep)),
		zap.Bool("grouped", in.Group != nil))
	return in, nil
}
