package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/mcmcviz/schema"
)

// ============================================================================
// DISCOVER: mcmcviz discover
// ============================================================================

func (a *app) discoverCmd() *cobra.Command {
	var (
		filePath    string
		refinePath  string
		recoverCols []string
		chains      int
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the auto-detected schema of a draws CSV",
		Long: `Classifies every column of a draws CSV as chain, iteration, sampler
diagnostic or model parameter, and reads sampler settings from CmdStan
comment lines. Save the output to reuse display names, or write a YAML
refinement and pass it with --refine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			opts := schema.DefaultDiscoverOptions()
			opts.RecoverColumns = recoverCols
			opts.Chains = chains
			sch, err := schema.DiscoverFromCSV(data, opts)
			if err != nil {
				return fmt.Errorf("auto-detect failed: %w", err)
			}
			a.logger.Info("auto-detected schema",
				zap.String("name", sch.Name),
				zap.Int("parameters", len(sch.Parameters)),
				zap.Int("diagnostics", len(sch.Diagnostics)),
				zap.Int("skipped", len(sch.SkippedColumns)))

			if refinePath != "" {
				f, err := os.Open(refinePath)
				if err != nil {
					return fmt.Errorf("failed to read refinement: %w", err)
				}
				ref, err := schema.LoadRefinement(f)
				f.Close()
				if err != nil {
					return err
				}
				if sch, err = schema.Refine(sch, ref); err != nil {
					return fmt.Errorf("refine: %w", err)
				}
			}

			w, closeOut, err := a.output(cmd)
			if err != nil {
				return err
			}
			if err := writeSchema(w, sch, a.cfg.Format); err != nil {
				_ = closeOut()
				return err
			}
			return closeOut()
		},
	}
	f := cmd.Flags()
	f.StringVar(&filePath, "file", "", "Path to draws CSV (required)")
	f.StringVar(&refinePath, "refine", "", "YAML refinement to apply")
	f.StringSliceVar(&recoverCols, "recover", nil, "Force auto-skipped columns back in as parameters")
	f.IntVar(&chains, "chains", 0, "Chain count for files without a chain column")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func writeSchema(w io.Writer, sch *schema.Config, format string) error {
	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"column", "role", "key", "display_name"})
		if sch.ChainColumn != "" {
			_ = cw.Write([]string{sch.ChainColumn, "chain", "", ""})
		}
		if sch.IterationColumn != "" {
			_ = cw.Write([]string{sch.IterationColumn, "iteration", "", ""})
		}
		for _, d := range sch.Diagnostics {
			_ = cw.Write([]string{d.Key, "diagnostic", d.Key, ""})
		}
		for _, p := range sch.Parameters {
			_ = cw.Write([]string{p.Column, "parameter", p.Key, p.DisplayName})
		}
		for _, s := range sch.SkippedColumns {
			_ = cw.Write([]string{s.Column, "skipped", "", s.Reason})
		}
		cw.Flush()
		return cw.Error()
	case "text":
		_, err := fmt.Fprintln(w, renderSchemaText(sch))
		return err
	default:
		return writeJSON(w, sch, format == "pretty")
	}
}

func renderSchemaText(sch *schema.Config) string {
	var lines []string
	lines = append(lines, titleStyle.Render(sch.Name))
	lines = append(lines, fmt.Sprintf("%d chains × %d iterations", sch.Chains, sch.Iterations))
	for _, base := range sch.SortedBases() {
		keys := sch.Bases()[base]
		label := base
		if len(keys) > 1 || keys[0] != base {
			label += " [" + strconv.Itoa(len(keys)) + "]"
		}
		lines = append(lines, "  "+label)
	}
	if len(sch.Diagnostics) > 0 {
		lines = append(lines, mutedStyle.Render("sampler: "+strings.Join(sch.DiagnosticNames(), ", ")))
	}
	for _, s := range sch.SkippedColumns {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("skipped %s: %s", s.Column, s.Reason)))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
