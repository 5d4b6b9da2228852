package engine

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
)

// ============================================================================
// MCMC: R-hat and effective sample size ratio plots
// ============================================================================

// Rating classifies a convergence diagnostic.
type Rating string

const (
	RatingLow  Rating = "low"
	RatingOK   Rating = "ok"
	RatingHigh Rating = "high"
)

// RhatRating buckets R-hat at 1.05 and 1.1.
func RhatRating(v float64) Rating {
	switch {
	case v <= 1.05:
		return RatingLow
	case v <= 1.1:
		return RatingOK
	}
	return RatingHigh
}

// NeffRating buckets the effective sample size ratio at 0.1 and 0.5.
func NeffRating(v float64) Rating {
	switch {
	case v <= 0.1:
		return RatingLow
	case v <= 0.5:
		return RatingOK
	}
	return RatingHigh
}

// ratingColor maps a rating to a scheme shade. For R-hat "low" is good;
// for neff ratios "low" is bad, so the shades are mirrored.
func ratingColor(s ColorScheme, r Rating, goodIsLow bool) string {
	if !goodIsLow {
		switch r {
		case RatingLow:
			r = RatingHigh
		case RatingHigh:
			r = RatingLow
		}
	}
	switch r {
	case RatingLow:
		return s.LightHighlight
	case RatingOK:
		return s.Mid
	}
	return s.DarkHighlight
}

// DiagnosticRow is one rated per-parameter diagnostic.
type DiagnosticRow struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
	Rating    Rating  `json:"rating"`
}

// rateDiagnostics validates values, drops NaNs with a warning, and sorts
// rows by value ascending.
func rateDiagnostics(arg string, values []NamedValue, valid func(float64) bool, bound string, rate func(float64) Rating) ([]DiagnosticRow, []string, error) {
	if len(values) == 0 {
		return nil, nil, validationErrorf(arg, "no values")
	}
	var rows []DiagnosticRow
	var dropped int
	for _, v := range values {
		if math.IsNaN(v.Value) {
			dropped++
			continue
		}
		if !valid(v.Value) {
			return nil, nil, validationErrorf(arg, "%s is %v, must be %s", v.Name, v.Value, bound)
		}
		rows = append(rows, DiagnosticRow{Parameter: v.Name, Value: v.Value, Rating: rate(v.Value)})
	}
	if len(rows) == 0 {
		return nil, nil, validationErrorf(arg, "all values are NaN")
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value < rows[j].Value })
	var warnings []string
	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("dropped %d NaN %s values", dropped, arg))
	}
	return rows, warnings, nil
}

// RateRhat validates and rates R-hat values. Every value must be positive
// and finite.
func RateRhat(values []NamedValue) ([]DiagnosticRow, []string, error) {
	return rateDiagnostics("rhat", values,
		func(v float64) bool { return v > 0 && !math.IsInf(v, 0) },
		"positive", RhatRating)
}

// RateNeffRatio validates and rates effective sample size ratios. Every
// value must be non-negative and finite.
func RateNeffRatio(values []NamedValue) ([]DiagnosticRow, []string, error) {
	return rateDiagnostics("neff_ratio", values,
		func(v float64) bool { return v >= 0 && !math.IsInf(v, 0) },
		"non-negative", NeffRating)
}

// MCMCRhat plots R-hat per parameter as segments from 1, colored by
// rating, with reference lines at 1, 1.05 and 1.1.
func MCMCRhat(values []NamedValue, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("mcmc_rhat", optSize, optPars, optRegexPars)
	rows, dropped, err := RateRhat(values)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("mcmc_rhat", zap.Int("parameters", len(rows)))

	plot := diagnosticPlot("mcmc_rhat", rows, 1, true, cfg)
	plot.Labels = Labels{X: "R-hat", Color: "Rating"}
	plot.Layers = append(plot.Layers,
		vline("rhat_1", 1, cfg.Scheme.Dark),
		vline("rhat_1.05", 1.05, cfg.Scheme.Mid),
		vline("rhat_1.1", 1.1, cfg.Scheme.Mid),
	)
	plot.Warnings = append(warnings, dropped...)
	return plot, nil
}

// MCMCNeffRatio plots effective sample size ratios per parameter as
// segments from 0, with reference lines at 0.1, 0.5 and 1.
func MCMCNeffRatio(values []NamedValue, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("mcmc_neff", optSize, optPars, optRegexPars)
	rows, dropped, err := RateNeffRatio(values)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("mcmc_neff", zap.Int("parameters", len(rows)))

	plot := diagnosticPlot("mcmc_neff", rows, 0, false, cfg)
	plot.Labels = Labels{X: "N_eff/N", Color: "Rating"}
	plot.Layers = append(plot.Layers,
		vline("neff_0.1", 0.1, cfg.Scheme.Mid),
		vline("neff_0.5", 0.5, cfg.Scheme.Mid),
		vline("neff_1", 1, cfg.Scheme.Dark),
	)
	plot.Warnings = append(warnings, dropped...)
	return plot, nil
}

func diagnosticPlot(kind string, rows []DiagnosticRow, base float64, goodIsLow bool, cfg *config) *Plot {
	segments := make([]Mark, len(rows))
	points := make([]Mark, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		y := float64(i + 1)
		color := ratingColor(cfg.Scheme, r.Rating, goodIsLow)
		segments[i] = Mark{Y: y, XMin: math.Min(base, r.Value), XMax: math.Max(base, r.Value), Label: r.Parameter, Series: string(r.Rating), Fill: color}
		points[i] = Mark{X: r.Value, Y: y, Label: r.Parameter, Series: string(r.Rating), Fill: color}
		names[i] = r.Parameter
	}
	plot := newPlot(kind, cfg)
	plot.Layers = []Layer{
		{Geom: GeomSegment, Name: "segments", Marks: segments, Style: Style{Size: cfg.Size}},
		{Geom: GeomPoint, Name: "points", Marks: points, Style: Style{Size: 2 * cfg.Size}},
	}
	plot.YScale = discreteScale(names)
	return plot
}
