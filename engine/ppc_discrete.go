package engine

import (
	"math"
	"strconv"

	"go.uber.org/zap"
)

// ============================================================================
// PPC: Discrete outcomes: bars, grouped bars, rootograms
// ============================================================================

// RootogramStyle selects where rootogram bars sit.
type RootogramStyle string

const (
	// StyleStanding keeps bars on a zero baseline.
	StyleStanding RootogramStyle = "standing"
	// StyleHanging hangs bars from the expected-count curve.
	StyleHanging RootogramStyle = "hanging"
	// StyleSuspended plots the signed residual expected − observed.
	StyleSuspended RootogramStyle = "suspended"
)

// ParseRootogramStyle validates a style name.
func ParseRootogramStyle(s string) (RootogramStyle, error) {
	switch RootogramStyle(s) {
	case StyleStanding, StyleHanging, StyleSuspended:
		return RootogramStyle(s), nil
	}
	return "", validationErrorf("style", "unknown rootogram style %q (want standing, hanging or suspended)", s)
}

// PPCBars draws observed category frequencies as bars with replicate
// median and central intervals as pointranges.
func PPCBars(y []float64, yrep [][]float64, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("ppc_bars", optProb, optFreq, optBarWidth, optSize, optFatten, optAlpha)
	if err := checkBarStyle(cfg); err != nil {
		return nil, err
	}

	summary, err := SummarizeDiscrete(y, yrep, nil, cfg.Prob, cfg.Freq)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("ppc_bars",
		zap.Int("observations", len(y)),
		zap.Int("replicates", len(yrep)),
		zap.Int("categories", summary.MaxCategory+1))

	plot := newPlot("ppc_bars", cfg)
	plot.Labels = Labels{Y: summary.StatisticLabel()}
	plot.Layers = []Layer{
		observedBarLayer(summary.Rows, false, cfg),
		replicateIntervalLayer(summary.Rows, false, cfg),
	}
	plot.XScale = integerScale(summary.MaxCategory)
	plot.Warnings = warnings
	return plot, nil
}

// PPCBarsGrouped is PPCBars faceted by group. Facet scales default to
// "free"; every panel shares the global category domain.
func PPCBarsGrouped(y []float64, yrep [][]float64, group []string, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("ppc_bars_grouped", optProb, optFreq, optBarWidth, optSize, optFatten, optAlpha, optFacetScales)
	if !cfg.isSet(optFacetScales) {
		cfg.FacetScales = ScalesFree
	}
	if group == nil {
		return nil, validationErrorf("group", "required for grouped bars")
	}
	if err := validateFacetScales(cfg.FacetScales); err != nil {
		return nil, err
	}
	if err := checkBarStyle(cfg); err != nil {
		return nil, err
	}

	summary, err := SummarizeDiscrete(y, yrep, group, cfg.Prob, cfg.Freq)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("ppc_bars_grouped",
		zap.Int("observations", len(y)),
		zap.Int("groups", len(summary.Groups)))

	plot := newPlot("ppc_bars_grouped", cfg)
	plot.Labels = Labels{Y: summary.StatisticLabel()}
	plot.Layers = []Layer{
		observedBarLayer(summary.Rows, true, cfg),
		replicateIntervalLayer(summary.Rows, true, cfg),
	}
	plot.Facet = &Facet{By: DimGroup, Panels: summary.Groups, Scales: cfg.FacetScales}
	plot.XScale = integerScale(summary.MaxCategory)
	plot.Warnings = warnings
	return plot, nil
}

func checkBarStyle(cfg *config) error {
	if err := validateBarWidth(cfg.BarWidth); err != nil {
		return err
	}
	return validateAlpha(cfg.Alpha)
}

// ============================================================================
// ROOTOGRAM
// ============================================================================

// RootogramRow holds square-root-scale values for one category.
type RootogramRow struct {
	X        int     `json:"x"`
	Observed float64 `json:"ty"`      // sqrt(observed count)
	Expected float64 `json:"tyexp"`   // sqrt(mean replicate count)
	Lower    float64 `json:"tylower"` // sqrt of lower count quantile
	Upper    float64 `json:"tyupper"` // sqrt of upper count quantile
	BarMin   float64 `json:"ymin"`
	BarMax   float64 `json:"ymax"`
}

// SummarizeRootogram computes rootogram rows over [0, max(y ∪ yrep)].
func SummarizeRootogram(y []float64, yrep [][]float64, prob float64, style RootogramStyle) ([]RootogramRow, error) {
	if _, err := ParseRootogramStyle(string(style)); err != nil {
		return nil, err
	}
	summary, err := SummarizeDiscrete(y, yrep, nil, prob, true)
	if err != nil {
		return nil, err
	}

	all := make([]int, len(y))
	for i := range all {
		all[i] = i
	}
	mean := make([]float64, summary.MaxCategory+1)
	for _, row := range yrep {
		for x, c := range countCategories(row, all, summary.MaxCategory) {
			mean[x] += c
		}
	}

	rows := make([]RootogramRow, 0, len(summary.Rows))
	for _, r := range summary.Rows {
		var obs float64
		if r.Observed != nil {
			obs = *r.Observed
		}
		row := RootogramRow{
			X:        r.X,
			Observed: math.Sqrt(obs),
			Expected: math.Sqrt(mean[r.X] / float64(len(yrep))),
			Lower:    math.Sqrt(r.L),
			Upper:    math.Sqrt(r.H),
		}
		switch style {
		case StyleStanding:
			row.BarMin, row.BarMax = 0, row.Observed
		case StyleHanging:
			row.BarMin, row.BarMax = row.Expected-row.Observed, row.Expected
		case StyleSuspended:
			row.BarMin, row.BarMax = 0, row.Expected-row.Observed
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PPCRootogram compares observed and expected counts on a square-root
// scale. Rootograms always use counts: WithFreq(false) is a conflict.
func PPCRootogram(y []float64, yrep [][]float64, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	if cfg.isSet(optFreq) && !cfg.Freq {
		return nil, &ArgumentConflictError{
			Args:   []string{optFreq, optStyle},
			Reason: "rootograms are defined on counts; proportions are not supported",
		}
	}
	warnings := cfg.ignored("ppc_rootogram", optProb, optFreq, optStyle, optBarWidth, optSize, optAlpha)
	if err := checkBarStyle(cfg); err != nil {
		return nil, err
	}

	rows, err := SummarizeRootogram(y, yrep, cfg.Prob, cfg.Style)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("ppc_rootogram",
		zap.String("style", string(cfg.Style)),
		zap.Int("categories", len(rows)))

	half := cfg.BarWidth / 2
	bars := make([]Mark, len(rows))
	expected := make([]Mark, len(rows))
	band := make([]Mark, len(rows))
	for i, r := range rows {
		label := strconv.Itoa(r.X)
		bars[i] = Mark{
			X: float64(r.X), Y: r.Observed,
			XMin: float64(r.X) - half, XMax: float64(r.X) + half,
			YMin: r.BarMin, YMax: r.BarMax,
			Label: label,
		}
		expected[i] = Mark{X: float64(r.X), Y: r.Expected, Label: label}
		band[i] = Mark{X: float64(r.X), YMin: r.Lower, YMax: r.Upper, Label: label}
	}

	plot := newPlot("ppc_rootogram", cfg)
	plot.Labels = Labels{Y: "sqrt(Count)"}
	if cfg.Style == StyleSuspended {
		plot.Labels.Y = "sqrt(Expected) - sqrt(Observed)"
	}
	plot.Layers = append(plot.Layers, Layer{
		Geom:  GeomRect,
		Name:  "y",
		Marks: bars,
		Style: Style{Fill: cfg.Scheme.Light, Color: cfg.Scheme.LightHighlight, Alpha: cfg.Alpha},
	})
	if cfg.Style != StyleSuspended {
		plot.Layers = append(plot.Layers, Layer{
			Geom:  GeomRibbon,
			Name:  "y_rep_interval",
			Marks: band,
			Style: Style{Fill: cfg.Scheme.Dark, Alpha: 0.2},
		})
	}
	plot.Layers = append(plot.Layers,
		Layer{
			Geom:  GeomLine,
			Name:  "expected",
			Marks: expected,
			Style: Style{Color: cfg.Scheme.DarkHighlight, Size: cfg.Size},
		},
		Layer{
			Geom:  GeomPoint,
			Name:  "expected_points",
			Marks: expected,
			Style: Style{Color: cfg.Scheme.DarkHighlight, Size: cfg.Size * 2.5},
		},
		hline("baseline", 0, cfg.Scheme.Mid),
	)
	plot.XScale = integerScale(len(rows) - 1)
	plot.Warnings = warnings
	return plot, nil
}
