package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR: Dispatcher + Placeholder Resolution
// ============================================================================
// Entry point: Execute(spec, inputs, opts...)
//
// Pipeline:
//   1. Normalize the PlotSpec (kind aliases, default output)
//   2. Turn PlotSpec fields into Options (after the caller's own)
//   3. Dispatch to a recipe or builder (plot / table / text)
//   4. Resolve caption placeholders
//   5. Return Result
// ============================================================================

// Output kinds.
const (
	OutputPlot  = "plot"
	OutputTable = "table"
	OutputText  = "text"
)

// kindOutputs lists the outputs each recipe supports; the first is the
// default.
var kindOutputs = map[string][]string{
	"ppc_bars":         {OutputPlot, OutputTable},
	"ppc_bars_grouped": {OutputPlot, OutputTable},
	"ppc_rootogram":    {OutputPlot},
	"ppc_stat":         {OutputPlot, OutputText},
	"ppc_intervals":    {OutputPlot, OutputTable},
	"mcmc_trace":       {OutputPlot},
	"mcmc_hist":        {OutputPlot},
	"mcmc_intervals":   {OutputPlot, OutputTable},
	"mcmc_scatter":     {OutputPlot},
	"mcmc_pairs":       {OutputPlot},
	"mcmc_acf":         {OutputPlot},
	"mcmc_rhat":        {OutputPlot, OutputTable},
	"mcmc_neff":        {OutputPlot, OutputTable},
	"nuts_energy":      {OutputPlot},
	"nuts_divergence":  {OutputPlot},
	"nuts_summary":     {OutputText},
}

var kindAliases = map[string]struct{ kind, output string }{
	"ppc_summary":     {"ppc_bars", OutputTable},
	"mcmc_neff_ratio": {"mcmc_neff", ""},
	"mcmc_acf_bar":    {"mcmc_acf", ""},
}

// Kinds lists every recipe Execute understands.
func Kinds() []string {
	out := make([]string, 0, len(kindOutputs))
	for k := range kindOutputs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Execute runs a PlotSpec against Inputs and returns a render-ready Result.
// Options from the caller apply first; PlotSpec fields override them.
func Execute(spec PlotSpec, in Inputs, opts ...Option) (*Result, error) {
	spec = NormalizePlotSpec(spec)
	if _, ok := kindOutputs[spec.Kind]; !ok {
		return nil, validationErrorf("kind", "unknown plot kind %q", spec.Kind)
	}
	specOpts, err := spec.options()
	if err != nil {
		return nil, err
	}
	all := append(append([]Option(nil), opts...), specOpts...)
	cfg := applyOptions(all)
	cfg.Logger.Debug("execute", zap.String("kind", spec.Kind), zap.String("output", spec.Output))

	result := &Result{Success: true, Type: spec.Output, PlotSpec: &spec}
	switch spec.Output {
	case OutputPlot:
		result.Plot, err = executePlot(spec.Kind, in, all)
		if err == nil {
			result.Title = result.Plot.Title
			result.Caption = result.Plot.Caption
			result.Warnings = result.Plot.Warnings
		}
	case OutputTable:
		result.TableData, err = executeTable(spec.Kind, in, cfg, all)
		if err == nil {
			result.Title = result.TableData.Title
		}
	case OutputText:
		result.Data, err = executeText(spec.Kind, in, all)
		if err == nil {
			result.Title = spec.Title
			result.Warnings = result.Data.Warnings
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Kind, err)
	}

	if spec.Caption != "" {
		result.Caption = ResolvePlaceholders(spec.Caption, in, cfg)
		if result.Plot != nil {
			result.Plot.Caption = result.Caption
		}
	}
	return result, nil
}

func executePlot(kind string, in Inputs, opts []Option) (*Plot, error) {
	switch kind {
	case "ppc_bars":
		return PPCBars(in.Y, in.YRep, opts...)
	case "ppc_bars_grouped":
		return PPCBarsGrouped(in.Y, in.YRep, in.Group, opts...)
	case "ppc_rootogram":
		return PPCRootogram(in.Y, in.YRep, opts...)
	case "ppc_stat":
		return PPCStat(in.Y, in.YRep, opts...)
	case "ppc_intervals":
		return PPCIntervals(in.Y, in.YRep, opts...)
	case "mcmc_trace":
		return MCMCTrace(in.Draws, opts...)
	case "mcmc_hist":
		return MCMCHist(in.Draws, opts...)
	case "mcmc_intervals":
		return MCMCIntervals(in.Draws, opts...)
	case "mcmc_scatter":
		return MCMCScatter(in.Draws, opts...)
	case "mcmc_pairs":
		return MCMCPairs(in.Draws, opts...)
	case "mcmc_acf":
		return MCMCAcf(in.Draws, opts...)
	case "mcmc_rhat":
		values, err := diagnosticValues(in.Rhat, in.Draws, opts, RhatAll)
		if err != nil {
			return nil, err
		}
		return MCMCRhat(values, opts...)
	case "mcmc_neff":
		values, err := diagnosticValues(in.NeffRatio, in.Draws, opts, NeffRatioAll)
		if err != nil {
			return nil, err
		}
		return MCMCNeffRatio(values, opts...)
	case "nuts_energy":
		return NUTSEnergy(in.Source, opts...)
	case "nuts_divergence":
		return NUTSDivergence(in.Source, opts...)
	}
	return nil, validationErrorf("output", "%s has no plot output", kind)
}

func executeTable(kind string, in Inputs, cfg *config, opts []Option) (*TableData, error) {
	switch kind {
	case "ppc_bars", "ppc_bars_grouped":
		var group []string
		if kind == "ppc_bars_grouped" {
			if in.Group == nil {
				return nil, validationErrorf("group", "required for grouped bars")
			}
			group = in.Group
		}
		s, err := SummarizeDiscrete(in.Y, in.YRep, group, cfg.Prob, cfg.Freq)
		if err != nil {
			return nil, err
		}
		return BuildSummaryTable(s, cfg.Title), nil
	case "ppc_intervals":
		rows, err := SummarizeIntervals(in.Y, in.YRep, cfg.probOr(0.5), cfg.ProbOuter)
		if err != nil {
			return nil, err
		}
		return BuildIntervalTable(rows, cfg.Title), nil
	case "mcmc_intervals":
		rows, err := SummarizeParameterIntervals(in.Draws, cfg.probOr(0.5), cfg.ProbOuter, opts...)
		if err != nil {
			return nil, err
		}
		return BuildParameterIntervalTable(rows, cfg.Title), nil
	case "mcmc_rhat":
		values, err := diagnosticValues(in.Rhat, in.Draws, opts, RhatAll)
		if err != nil {
			return nil, err
		}
		rows, _, err := RateRhat(values)
		if err != nil {
			return nil, err
		}
		return BuildDiagnosticsTable(rows, "R-hat", cfg.Title), nil
	case "mcmc_neff":
		values, err := diagnosticValues(in.NeffRatio, in.Draws, opts, NeffRatioAll)
		if err != nil {
			return nil, err
		}
		rows, _, err := RateNeffRatio(values)
		if err != nil {
			return nil, err
		}
		return BuildDiagnosticsTable(rows, "N_eff/N", cfg.Title), nil
	}
	return nil, validationErrorf("output", "%s has no table output", kind)
}

func executeText(kind string, in Inputs, opts []Option) (*TextData, error) {
	switch kind {
	case "ppc_stat":
		return BuildStatText(in.Y, in.YRep, opts...)
	case "nuts_summary":
		return BuildNUTSText(in.Source, opts...)
	}
	return nil, validationErrorf("output", "%s has no text output", kind)
}

// diagnosticValues returns precomputed values when given, otherwise
// computes them from the selected draws.
func diagnosticValues(given []NamedValue, d *Draws, opts []Option, compute func(*Draws) []NamedValue) ([]NamedValue, error) {
	if len(given) > 0 {
		return given, nil
	}
	if d == nil {
		return nil, validationErrorf("draws", "required when no precomputed values are given")
	}
	cfg := applyOptions(opts)
	sel, err := d.Select(cfg.Pars, cfg.RegexPars)
	if err != nil {
		return nil, err
	}
	return compute(sel), nil
}

// options converts the non-zero PlotSpec fields into Options.
func (s PlotSpec) options() ([]Option, error) {
	var opts []Option
	if len(s.Pars) > 0 {
		opts = append(opts, WithPars(s.Pars...))
	}
	if len(s.RegexPars) > 0 {
		opts = append(opts, WithRegexPars(s.RegexPars...))
	}
	if s.Prob != 0 {
		opts = append(opts, WithProb(s.Prob))
	}
	if s.ProbOuter != 0 {
		opts = append(opts, WithProbOuter(s.ProbOuter))
	}
	if s.Freq != nil {
		opts = append(opts, WithFreq(*s.Freq))
	}
	if s.Style != "" {
		style, err := ParseRootogramStyle(s.Style)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithStyle(style))
	}
	if s.Stat != "" {
		opts = append(opts, WithStat(s.Stat))
	}
	if s.Bins != 0 {
		opts = append(opts, WithBins(s.Bins))
	}
	if s.Lags != 0 {
		opts = append(opts, WithLags(s.Lags))
	}
	if s.FacetScales != "" {
		opts = append(opts, WithFacetScales(s.FacetScales))
	}
	if s.MergeChains {
		opts = append(opts, WithMergeChains(true))
	}
	if s.Title != "" {
		opts = append(opts, WithTitle(s.Title))
	}
	return opts, nil
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes computed values into a caption template:
// {prob}, {prob_outer}, {nreps}, {nobs}, {ngroups}, {nchains}, {niter},
// {npars}. Placeholders that cannot be resolved are stripped.
func ResolvePlaceholders(template string, in Inputs, cfg *config) string {
	replacements := map[string]string{
		"{prob}":       FormatPercent(cfg.Prob),
		"{prob_outer}": FormatPercent(cfg.ProbOuter),
	}
	if len(in.YRep) > 0 {
		replacements["{nreps}"] = FormatInt(len(in.YRep))
	}
	if len(in.Y) > 0 {
		replacements["{nobs}"] = FormatInt(len(in.Y))
	}
	if in.Group != nil {
		replacements["{ngroups}"] = strconv.Itoa(len(distinct(in.Group)))
	}
	if in.Draws != nil {
		replacements["{nchains}"] = strconv.Itoa(in.Draws.NumChains())
		replacements["{niter}"] = FormatInt(in.Draws.NumIterations())
		replacements["{npars}"] = strconv.Itoa(len(in.Draws.params))
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return stripUnresolvedPlaceholders(result)
}

// ============================================================================
// PLOTSPEC NORMALIZATION
// ============================================================================

// NormalizePlotSpec applies deterministic fixes: kind names are lowercased
// with aliases resolved, and a missing or unsupported output falls back to
// the kind's default.
func NormalizePlotSpec(spec PlotSpec) PlotSpec {
	spec.Kind = strings.ToLower(strings.TrimSpace(spec.Kind))
	spec.Kind = strings.ReplaceAll(spec.Kind, "-", "_")
	if alias, ok := kindAliases[spec.Kind]; ok {
		spec.Kind = alias.kind
		if alias.output != "" && spec.Output == "" {
			spec.Output = alias.output
		}
	}
	spec.Output = strings.ToLower(strings.TrimSpace(spec.Output))

	outputs, ok := kindOutputs[spec.Kind]
	if !ok {
		return spec
	}
	supported := false
	for _, o := range outputs {
		if o == spec.Output {
			supported = true
			break
		}
	}
	if !supported {
		spec.Output = outputs[0]
	}
	spec.Pars = dedupe(spec.Pars)
	spec.RegexPars = dedupe(spec.RegexPars)
	return spec
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func dedupe(xs []string) []string {
	if len(xs) == 0 {
		return xs
	}
	seen := make(map[string]bool, len(xs))
	out := xs[:0:0]
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

func distinct(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.TrimRight(cleaned, " ,.-")
}
