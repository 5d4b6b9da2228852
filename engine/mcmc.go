package engine

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// ============================================================================
// MCMC: Draw-level recipes
// ============================================================================
// Every recipe selects parameters (WithPars / WithRegexPars), applies
// transformations through a TransformView, then groups the long-format
// view by parameter and chain.
// ============================================================================

// selectionOptions are read by every MCMC recipe.
var selectionOptions = []string{optPars, optRegexPars, optTransform}

// preparedDraws is the grouped, transformed view a recipe works from.
type preparedDraws struct {
	params []string // display labels, storage order
	chains int
	iters  int
	groups []Group // parameter → chain subgroups
}

// values returns all draws of parameter i with chains concatenated.
func (p *preparedDraws) values(i int) []float64 {
	return MeasureValues(p.groups[i].View, MeasureValue)
}

// chainValues returns the draws of parameter i from chain c.
func (p *preparedDraws) chainValues(i, c int) []float64 {
	return MeasureValues(p.groups[i].SubGroups[c].View, MeasureValue)
}

func prepareDraws(d *Draws, cfg *config) (*preparedDraws, error) {
	if d == nil {
		return nil, validationErrorf("draws", "required")
	}
	sel, err := d.Select(cfg.Pars, cfg.RegexPars)
	if err != nil {
		return nil, err
	}
	tr, err := cfg.resolveTransforms(sel.Parameters())
	if err != nil {
		return nil, err
	}
	view := newTransformView(sel.View(), tr)
	groups := GroupAndAggregate(view, []string{DimParameter, DimChain}, MeasureValue, "none", "", 0)

	p := &preparedDraws{chains: sel.NumChains(), iters: sel.NumIterations(), groups: groups}
	for _, g := range groups {
		p.params = append(p.params, g.Key)
	}
	return p, nil
}

// chainIndex maps a 1-based chain label back to its position.
func chainIndex(key string) int {
	c, err := strconv.Atoi(key)
	if err != nil {
		return 0
	}
	return c - 1
}

// MCMCTrace draws each chain's draws against iteration, one panel per
// parameter. Facet scales default to "free".
func MCMCTrace(d *Draws, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("mcmc_trace", append(selectionOptions, optSize, optAlpha, optFacetScales)...)
	if !cfg.isSet(optFacetScales) {
		cfg.FacetScales = ScalesFree
	}
	if err := validateFacetScales(cfg.FacetScales); err != nil {
		return nil, err
	}
	if err := validateAlpha(cfg.Alpha); err != nil {
		return nil, err
	}
	p, err := prepareDraws(d, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("mcmc_trace", zap.Int("parameters", len(p.params)), zap.Int("chains", p.chains))

	colors := cfg.Scheme.Series(p.chains)
	layers := make([]Layer, p.chains)
	for c := range layers {
		layers[c] = Layer{
			Geom:  GeomLine,
			Name:  "chain " + strconv.Itoa(c+1),
			Style: Style{Color: colors[c], Size: cfg.Size / 3, Alpha: cfg.Alpha},
		}
	}
	for _, g := range p.groups {
		for _, sg := range g.SubGroups {
			c := chainIndex(sg.Key)
			for i := 0; i < sg.View.Len(); i++ {
				layers[c].Marks = append(layers[c].Marks, Mark{
					X:      sg.View.Measure(i, MeasureIteration),
					Y:      sg.View.Measure(i, MeasureValue),
					Panel:  g.Key,
					Series: sg.Key,
				})
			}
		}
	}

	plot := newPlot("mcmc_trace", cfg)
	plot.Labels = Labels{X: "Iteration", Color: "Chain"}
	plot.Layers = layers
	plot.Facet = &Facet{By: DimParameter, Panels: p.params, Scales: cfg.FacetScales}
	plot.Warnings = warnings
	return plot, nil
}

// MCMCHist draws a histogram of each parameter's pooled draws.
func MCMCHist(d *Draws, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("mcmc_hist", append(selectionOptions, optBins, optAlpha, optFacetScales)...)
	if !cfg.isSet(optFacetScales) {
		cfg.FacetScales = ScalesFree
	}
	if cfg.Bins < 1 {
		return nil, validationErrorf("bins", "must be positive, got %d", cfg.Bins)
	}
	if err := validateFacetScales(cfg.FacetScales); err != nil {
		return nil, err
	}
	if err := validateAlpha(cfg.Alpha); err != nil {
		return nil, err
	}
	p, err := prepareDraws(d, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("mcmc_hist", zap.Int("parameters", len(p.params)), zap.Int("bins", cfg.Bins))

	var marks []Mark
	for i, name := range p.params {
		marks = append(marks, histogramMarks(histogram(p.values(i), cfg.Bins), name, "")...)
	}

	plot := newPlot("mcmc_hist", cfg)
	plot.Labels = Labels{Y: "Count"}
	plot.Layers = []Layer{{
		Geom:  GeomRect,
		Name:  "draws",
		Marks: marks,
		Style: Style{Fill: cfg.Scheme.Mid, Color: cfg.Scheme.MidHighlight, Alpha: cfg.Alpha},
	}}
	plot.Facet = &Facet{By: DimParameter, Panels: p.params, Scales: cfg.FacetScales}
	plot.Legend.Show = false
	plot.Warnings = warnings
	return plot, nil
}

// ParameterInterval is a posterior interval summary of one parameter.
type ParameterInterval struct {
	Parameter string  `json:"parameter"`
	OuterLo   float64 `json:"ll"`
	InnerLo   float64 `json:"l"`
	Median    float64 `json:"m"`
	InnerHi   float64 `json:"h"`
	OuterHi   float64 `json:"hh"`
}

// SummarizeParameterIntervals computes inner and outer central intervals
// of the selected parameters with chains pooled.
func SummarizeParameterIntervals(d *Draws, prob, probOuter float64, opts ...Option) ([]ParameterInterval, error) {
	cfg := applyOptions(opts)
	if err := checkIntervalProbs(prob, probOuter); err != nil {
		return nil, err
	}
	p, err := prepareDraws(d, cfg)
	if err != nil {
		return nil, err
	}
	inner := intervalProbs(prob)
	outer := intervalProbs(probOuter)
	out := make([]ParameterInterval, len(p.params))
	for i, name := range p.params {
		q := Quantiles(p.values(i), outer[0], inner[0], 0.5, inner[2], outer[2])
		out[i] = ParameterInterval{
			Parameter: name,
			OuterLo:   q[0],
			InnerLo:   q[1],
			Median:    q[2],
			InnerHi:   q[3],
			OuterHi:   q[4],
		}
	}
	return out, nil
}

func checkIntervalProbs(prob, probOuter float64) error {
	if err := validateProb(optProb, prob); err != nil {
		return err
	}
	if err := validateProb(optProbOuter, probOuter); err != nil {
		return err
	}
	if probOuter < prob {
		return &ArgumentConflictError{
			Args:   []string{optProb, optProbOuter},
			Reason: fmt.Sprintf("prob_outer (%v) must be at least prob (%v)", probOuter, prob),
		}
	}
	return nil
}

// MCMCIntervals draws inner (default 50%) and outer (default 90%) posterior
// intervals with a point at the median, one row per parameter.
func MCMCIntervals(d *Draws, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("mcmc_intervals", append(selectionOptions, optProb, optProbOuter, optSize)...)

	rows, err := SummarizeParameterIntervals(d, cfg.probOr(0.5), cfg.ProbOuter, opts...)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("mcmc_intervals", zap.Int("parameters", len(rows)))

	names := make([]string, len(rows))
	outer := make([]Mark, len(rows))
	inner := make([]Mark, len(rows))
	median := make([]Mark, len(rows))
	for i, r := range rows {
		names[i] = r.Parameter
		// First parameter on top.
		y := float64(len(rows) - i)
		outer[i] = Mark{Y: y, XMin: r.OuterLo, XMax: r.OuterHi, Label: r.Parameter}
		inner[i] = Mark{Y: y, XMin: r.InnerLo, XMax: r.InnerHi, Label: r.Parameter}
		median[i] = Mark{X: r.Median, Y: y, Label: r.Parameter}
	}
	reversed := make([]string, len(names))
	for i, n := range names {
		reversed[len(names)-1-i] = n
	}

	plot := newPlot("mcmc_intervals", cfg)
	plot.Layers = []Layer{
		{Geom: GeomSegment, Name: "outer", Marks: outer, Style: Style{Color: cfg.Scheme.Mid, Size: cfg.Size}},
		{Geom: GeomSegment, Name: "inner", Marks: inner, Style: Style{Color: cfg.Scheme.DarkHighlight, Size: 2 * cfg.Size}},
		{Geom: GeomPoint, Name: "median", Marks: median, Style: Style{Color: cfg.Scheme.DarkHighlight, Fill: cfg.Scheme.LightHighlight, Size: 4 * cfg.Size}},
	}
	plot.YScale = discreteScale(reversed)
	plot.Legend.Show = false
	plot.Warnings = warnings
	return plot, nil
}

// MCMCScatter plots the draws of exactly two parameters against each other.
func MCMCScatter(d *Draws, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("mcmc_scatter", append(selectionOptions, optSize, optAlpha)...)
	if err := validateAlpha(cfg.Alpha); err != nil {
		return nil, err
	}
	p, err := prepareDraws(d, cfg)
	if err != nil {
		return nil, err
	}
	if len(p.params) != 2 {
		return nil, validationErrorf(optPars, "scatter needs exactly 2 parameters, got %d", len(p.params))
	}
	cfg.Logger.Debug("mcmc_scatter", zap.Strings("parameters", p.params))

	plot := newPlot("mcmc_scatter", cfg)
	plot.Labels = Labels{X: p.params[0], Y: p.params[1]}
	plot.Layers = []Layer{scatterLayer("draws", p.values(0), p.values(1), "", cfg)}
	plot.Legend.Show = false
	plot.Warnings = warnings
	return plot, nil
}

func scatterLayer(name string, xs, ys []float64, panel string, cfg *config) Layer {
	marks := make([]Mark, len(xs))
	for i := range xs {
		marks[i] = Mark{X: xs[i], Y: ys[i], Panel: panel}
	}
	return Layer{
		Geom:  GeomPoint,
		Name:  name,
		Marks: marks,
		Style: Style{Color: cfg.Scheme.Mid, Fill: cfg.Scheme.Mid, Size: 1.5 * cfg.Size, Alpha: cfg.Alpha},
	}
}

// PairsPanel names the grid cell for a row and column parameter.
func PairsPanel(row, col string) string { return row + "|" + col }

// MCMCPairs draws a scatterplot matrix: histograms on the diagonal and
// bivariate scatterplots off it.
func MCMCPairs(d *Draws, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("mcmc_pairs", append(selectionOptions, optBins, optSize, optAlpha)...)
	if cfg.Bins < 1 {
		return nil, validationErrorf("bins", "must be positive, got %d", cfg.Bins)
	}
	if err := validateAlpha(cfg.Alpha); err != nil {
		return nil, err
	}
	p, err := prepareDraws(d, cfg)
	if err != nil {
		return nil, err
	}
	if len(p.params) < 2 {
		return nil, validationErrorf(optPars, "pairs plot needs at least 2 parameters, got %d", len(p.params))
	}
	cfg.Logger.Debug("mcmc_pairs", zap.Int("parameters", len(p.params)))

	values := make([][]float64, len(p.params))
	for i := range values {
		values[i] = p.values(i)
	}
	diag := Layer{
		Geom:  GeomRect,
		Name:  "diagonal",
		Style: Style{Fill: cfg.Scheme.Mid, Color: cfg.Scheme.MidHighlight, Alpha: cfg.Alpha},
	}
	off := Layer{
		Geom:  GeomPoint,
		Name:  "off_diagonal",
		Style: Style{Color: cfg.Scheme.Mid, Size: cfg.Size, Alpha: cfg.Alpha},
	}
	var panels []string
	for r, row := range p.params {
		for c, col := range p.params {
			panel := PairsPanel(row, col)
			panels = append(panels, panel)
			if r == c {
				diag.Marks = append(diag.Marks, histogramMarks(histogram(values[r], cfg.Bins), panel, "")...)
				continue
			}
			off.Marks = append(off.Marks, scatterLayer("", values[c], values[r], panel, cfg).Marks...)
		}
	}

	plot := newPlot("mcmc_pairs", cfg)
	plot.Layers = []Layer{diag, off}
	plot.Facet = &Facet{
		By:     DimParameter,
		Panels: panels,
		Scales: ScalesFree,
		Grid:   true,
		Rows:   append([]string(nil), p.params...),
		Cols:   append([]string(nil), p.params...),
	}
	plot.Legend.Show = false
	plot.Warnings = warnings
	return plot, nil
}

// MCMCAcf draws per-chain autocorrelation bars for lags 0..WithLags, in a
// parameter × chain grid.
func MCMCAcf(d *Draws, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("mcmc_acf", append(selectionOptions, optLags, optBarWidth)...)
	if cfg.Lags < 1 {
		return nil, validationErrorf("lags", "must be positive, got %d", cfg.Lags)
	}
	if err := validateBarWidth(cfg.BarWidth); err != nil {
		return nil, err
	}
	p, err := prepareDraws(d, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Lags >= p.iters {
		return nil, validationErrorf("lags", "must be less than the number of iterations (%d), got %d", p.iters, cfg.Lags)
	}
	cfg.Logger.Debug("mcmc_acf", zap.Int("parameters", len(p.params)), zap.Int("lags", cfg.Lags))

	chains := make([]string, p.chains)
	for c := range chains {
		chains[c] = strconv.Itoa(c + 1)
	}
	var marks []Mark
	var panels []string
	for i, name := range p.params {
		for c := 0; c < p.chains; c++ {
			panel := PairsPanel(name, chains[c])
			panels = append(panels, panel)
			for lag, r := range Autocorrelation(p.chainValues(i, c), cfg.Lags) {
				marks = append(marks, Mark{
					X:      float64(lag),
					Y:      r,
					YMin:   0,
					YMax:   r,
					Panel:  panel,
					Series: chains[c],
				})
			}
		}
	}

	plot := newPlot("mcmc_acf", cfg)
	plot.Labels = Labels{X: "Lag", Y: "Autocorrelation"}
	plot.Layers = []Layer{
		{
			Geom:  GeomBar,
			Name:  "acf",
			Marks: marks,
			Style: Style{Fill: cfg.Scheme.Mid, Color: cfg.Scheme.MidHighlight, Width: cfg.BarWidth},
		},
		hline("zero", 0, cfg.Scheme.Dark),
	}
	plot.Facet = &Facet{
		By:     DimParameter,
		Panels: panels,
		Scales: ScalesFixed,
		Grid:   true,
		Rows:   append([]string(nil), p.params...),
		Cols:   chains,
	}
	plot.YScale = &Scale{Type: "continuous", Limits: []float64{-1, 1}}
	plot.Legend.Show = false
	plot.Warnings = warnings
	return plot, nil
}
