package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aclements/go-moremath/stats"
	"go.uber.org/zap"
)

// ============================================================================
// NUTS: Sampler diagnostics
// ============================================================================

// Canonical NUTS sampler parameter names.
const (
	ParamLogPosterior = "lp__"
	ParamAcceptStat   = "accept_stat__"
	ParamStepsize     = "stepsize__"
	ParamTreedepth    = "treedepth__"
	ParamLeapfrog     = "n_leapfrog__"
	ParamDivergent    = "divergent__"
	ParamEnergy       = "energy__"
)

// DiagnosticsSource supplies sampler diagnostics from a fitted model.
// Both views carry dimensions chain and parameter and measures iteration
// and value; chains are labeled "1", "2", ...
type DiagnosticsSource interface {
	// LogPosterior returns lp__ per chain and iteration.
	LogPosterior() (RecordView, error)
	// NUTSParameters returns the sampler parameters per chain and
	// iteration under their canonical names.
	NUTSParameters() (RecordView, error)
}

// chainSeries is one sampler parameter split by chain, each series ordered
// by iteration.
type chainSeries struct {
	chains     []string
	iterations [][]float64
	values     [][]float64
}

func (s *chainSeries) pooled() []float64 {
	var out []float64
	for _, v := range s.values {
		out = append(out, v...)
	}
	return out
}

// extractSeries pulls one parameter out of a diagnostics view.
func extractSeries(view RecordView, param string) (*chainSeries, error) {
	sub, err := ApplyFilters(view, Filters{Dimensions: map[string][]string{DimParameter: {param}}})
	if err != nil {
		return nil, err
	}
	if sub.Len() == 0 {
		return nil, validationErrorf("source", "no %s values", param)
	}
	s := &chainSeries{}
	for _, g := range GroupAndAggregate(sub, []string{DimChain}, MeasureValue, "count", "numeric_asc", 0) {
		its := MeasureValues(g.View, MeasureIteration)
		vals := MeasureValues(g.View, MeasureValue)
		sortByIteration(its, vals)
		s.chains = append(s.chains, g.Key)
		s.iterations = append(s.iterations, its)
		s.values = append(s.values, vals)
	}
	return s, nil
}

// sortByIteration orders vals by its in place. Views are normally already
// in iteration order, so this is an insertion sort.
func sortByIteration(its, vals []float64) {
	for i := 1; i < len(its); i++ {
		for j := i; j > 0 && its[j] < its[j-1]; j-- {
			its[j], its[j-1] = its[j-1], its[j]
			vals[j], vals[j-1] = vals[j-1], vals[j]
		}
	}
}

func nutsView(src DiagnosticsSource) (RecordView, error) {
	if src == nil {
		return nil, validationErrorf("source", "required")
	}
	view, err := src.NUTSParameters()
	if err != nil {
		return nil, fmt.Errorf("read sampler parameters: %w", err)
	}
	return view, nil
}

// ============================================================================
// ENERGY
// ============================================================================

// EnergyTransitions returns the centered marginal energy and the energy
// transitions (first differences) of one chain.
func EnergyTransitions(energy []float64) (centered, diffs []float64) {
	if len(energy) == 0 {
		return nil, nil
	}
	mean := stats.Mean(energy)
	centered = make([]float64, len(energy))
	for i, e := range energy {
		centered[i] = e - mean
	}
	if len(energy) > 1 {
		diffs = make([]float64, len(energy)-1)
		for i := 1; i < len(energy); i++ {
			diffs[i-1] = energy[i] - energy[i-1]
		}
	}
	return centered, diffs
}

// EBFMI is the energy Bayesian fraction of missing information of one
// chain: the variance of energy transitions relative to the marginal
// energy variance. NaN for fewer than two draws or constant energy.
func EBFMI(energy []float64) float64 {
	if len(energy) < 2 {
		return math.NaN()
	}
	centered, diffs := EnergyTransitions(energy)
	var num, den float64
	for _, d := range diffs {
		num += d * d
	}
	for _, c := range centered {
		den += c * c
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// NUTSEnergy overlays histograms of the centered marginal energy and the
// energy transitions, one panel per chain unless WithMergeChains(true).
func NUTSEnergy(src DiagnosticsSource, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("nuts_energy", optBins, optAlpha, optMergeChains)
	if cfg.Bins < 1 {
		return nil, validationErrorf("bins", "must be positive, got %d", cfg.Bins)
	}
	if err := validateAlpha(cfg.Alpha); err != nil {
		return nil, err
	}
	view, err := nutsView(src)
	if err != nil {
		return nil, err
	}
	energy, err := extractSeries(view, ParamEnergy)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("nuts_energy", zap.Int("chains", len(energy.chains)), zap.Bool("merged", cfg.MergeChains))

	type panel struct {
		name            string
		centered, diffs []float64
	}
	var panels []panel
	if cfg.MergeChains {
		var p panel
		for _, e := range energy.values {
			c, d := EnergyTransitions(e)
			p.centered = append(p.centered, c...)
			p.diffs = append(p.diffs, d...)
		}
		panels = append(panels, p)
	} else {
		for i, e := range energy.values {
			c, d := EnergyTransitions(e)
			panels = append(panels, panel{name: energy.chains[i], centered: c, diffs: d})
		}
	}

	marginal := Layer{
		Geom:  GeomRect,
		Name:  "pi_E",
		Style: Style{Fill: cfg.Scheme.Light, Color: cfg.Scheme.LightHighlight, Alpha: cfg.Alpha},
	}
	transition := Layer{
		Geom:  GeomRect,
		Name:  "pi_delta_E",
		Style: Style{Fill: cfg.Scheme.Dark, Color: cfg.Scheme.DarkHighlight, Alpha: cfg.Alpha / 2},
	}
	var names []string
	for _, p := range panels {
		lo, hi := stats.Bounds(append(append([]float64(nil), p.centered...), p.diffs...))
		marginal.Marks = append(marginal.Marks, histogramMarks(histogramRange(p.centered, lo, hi, cfg.Bins), p.name, "pi_E")...)
		transition.Marks = append(transition.Marks, histogramMarks(histogramRange(p.diffs, lo, hi, cfg.Bins), p.name, "pi_delta_E")...)
		names = append(names, p.name)
	}

	plot := newPlot("nuts_energy", cfg)
	plot.Labels = Labels{X: "E - mean(E)", Y: "Count", Fill: "Energy"}
	plot.Layers = []Layer{marginal, transition}
	if !cfg.MergeChains {
		plot.Facet = &Facet{By: DimChain, Panels: names, Scales: ScalesFixed}
	}
	plot.Warnings = warnings
	return plot, nil
}

// ============================================================================
// DIVERGENCE
// ============================================================================

// DivergenceSplit holds a sampler quantity partitioned by whether the
// transition diverged.
type DivergenceSplit struct {
	Parameter string    `json:"parameter"`
	Regular   []float64 `json:"regular"`
	Divergent []float64 `json:"divergent"`
}

// SplitByDivergence partitions lp__ and accept_stat__ draws by the
// divergent__ flag of the same chain and iteration.
func SplitByDivergence(src DiagnosticsSource) ([]DivergenceSplit, error) {
	view, err := nutsView(src)
	if err != nil {
		return nil, err
	}
	lpView, err := src.LogPosterior()
	if err != nil {
		return nil, fmt.Errorf("read log posterior: %w", err)
	}
	div, err := extractSeries(view, ParamDivergent)
	if err != nil {
		return nil, err
	}
	flags := make(map[string]bool)
	for c, chain := range div.chains {
		for i, it := range div.iterations[c] {
			flags[drawKey(chain, it)] = div.values[c][i] > 0
		}
	}

	var out []DivergenceSplit
	for _, in := range []struct {
		view  RecordView
		param string
	}{{lpView, ParamLogPosterior}, {view, ParamAcceptStat}} {
		s, err := extractSeries(in.view, in.param)
		if err != nil {
			return nil, err
		}
		split := DivergenceSplit{Parameter: in.param}
		for c, chain := range s.chains {
			for i, it := range s.iterations[c] {
				if flags[drawKey(chain, it)] {
					split.Divergent = append(split.Divergent, s.values[c][i])
				} else {
					split.Regular = append(split.Regular, s.values[c][i])
				}
			}
		}
		out = append(out, split)
	}
	return out, nil
}

func drawKey(chain string, iteration float64) string {
	return chain + ":" + strconv.FormatFloat(iteration, 'f', -1, 64)
}

// boxMark summarizes xs as a boxplot mark at position x.
func boxMark(x float64, xs []float64, panel, label string) Mark {
	q := Quantiles(xs, 0, 0.25, 0.5, 0.75, 1)
	return Mark{
		X:     x,
		Y:     q[2],
		Lower: q[1],
		Upper: q[3],
		YMin:  q[0],
		YMax:  q[4],
		Panel: panel,
		Label: label,
	}
}

// NUTSDivergence compares lp__ and accept_stat__ between divergent and
// non-divergent transitions as boxplots, one panel per quantity.
func NUTSDivergence(src DiagnosticsSource, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("nuts_divergence", optAlpha)
	if err := validateAlpha(cfg.Alpha); err != nil {
		return nil, err
	}
	splits, err := SplitByDivergence(src)
	if err != nil {
		return nil, err
	}
	ndiv := len(splits[0].Divergent)
	cfg.Logger.Debug("nuts_divergence", zap.Int("divergent", ndiv))

	layer := Layer{
		Geom:  GeomBoxplot,
		Name:  "divergence",
		Style: Style{Fill: cfg.Scheme.Light, Color: cfg.Scheme.DarkHighlight, Alpha: cfg.Alpha},
	}
	var panels []string
	for _, s := range splits {
		panels = append(panels, s.Parameter)
		if len(s.Regular) > 0 {
			layer.Marks = append(layer.Marks, boxMark(1, s.Regular, s.Parameter, "No"))
		}
		if len(s.Divergent) > 0 {
			m := boxMark(2, s.Divergent, s.Parameter, "Yes")
			m.Highlight = true
			layer.Marks = append(layer.Marks, m)
		}
	}
	if ndiv == 0 {
		warnings = append(warnings, "no divergent transitions")
	}

	plot := newPlot("nuts_divergence", cfg)
	plot.Labels = Labels{X: "Divergent"}
	plot.Caption = fmt.Sprintf("%d divergent transitions", ndiv)
	plot.Layers = []Layer{layer}
	plot.XScale = discreteScale([]string{"No", "Yes"})
	plot.Facet = &Facet{By: DimParameter, Panels: panels, Scales: ScalesFreeY, Columns: 1}
	plot.Legend.Show = false
	plot.Warnings = warnings
	return plot, nil
}

// ============================================================================
// SUMMARY
// ============================================================================

// NUTSSummary collects the headline sampler checks.
type NUTSSummary struct {
	Draws        int          `json:"draws"`
	Chains       int          `json:"chains"`
	Divergent    int          `json:"divergent"`
	MaxTreedepth int          `json:"maxTreedepth"`
	TreedepthHit int          `json:"treedepthHits"`
	EBFMI        []ChainEBFMI `json:"ebfmi"`
}

// ChainEBFMI is the E-BFMI of one chain.
type ChainEBFMI struct {
	Chain string  `json:"chain"`
	Value float64 `json:"value"`
}

// LowEBFMI is the threshold below which E-BFMI suggests poor exploration.
const LowEBFMI = 0.3

// SummarizeNUTS counts divergences and saturated treedepths and computes
// E-BFMI per chain.
func SummarizeNUTS(src DiagnosticsSource, maxTreedepth int) (*NUTSSummary, error) {
	if maxTreedepth < 1 {
		return nil, validationErrorf(optTreedepth, "must be positive, got %d", maxTreedepth)
	}
	view, err := nutsView(src)
	if err != nil {
		return nil, err
	}
	div, err := extractSeries(view, ParamDivergent)
	if err != nil {
		return nil, err
	}
	depth, err := extractSeries(view, ParamTreedepth)
	if err != nil {
		return nil, err
	}
	energy, err := extractSeries(view, ParamEnergy)
	if err != nil {
		return nil, err
	}

	s := &NUTSSummary{Chains: len(div.chains), MaxTreedepth: maxTreedepth}
	for _, v := range div.pooled() {
		s.Draws++
		if v > 0 {
			s.Divergent++
		}
	}
	for _, v := range depth.pooled() {
		if v >= float64(maxTreedepth) {
			s.TreedepthHit++
		}
	}
	for i, e := range energy.values {
		s.EBFMI = append(s.EBFMI, ChainEBFMI{Chain: energy.chains[i], Value: EBFMI(e)})
	}
	return s, nil
}
