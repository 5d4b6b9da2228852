package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/aclements/go-moremath/stats"
	"go.uber.org/zap"
)

// ============================================================================
// PPC: Test statistics and per-observation intervals
// ============================================================================

// statistics are the test statistics PPCStat understands. Each needs at
// least minN values.
var statistics = map[string]struct {
	fn   func([]float64) float64
	minN int
}{
	"mean":   {stats.Mean, 1},
	"median": {func(xs []float64) float64 { return Quantiles(xs, 0.5)[0] }, 1},
	"sd":     {stats.StdDev, 2},
	"var":    {stats.Variance, 2},
	"min":    {func(xs []float64) float64 { lo, _ := stats.Bounds(xs); return lo }, 1},
	"max":    {func(xs []float64) float64 { _, hi := stats.Bounds(xs); return hi }, 1},
}

// StatisticNames lists the supported test statistics.
func StatisticNames() []string {
	names := make([]string, 0, len(statistics))
	for n := range statistics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StatResult holds T(y), T(yrep) per draw, and the posterior predictive
// p-value Pr(T(yrep) ≥ T(y)).
type StatResult struct {
	Stat   string    `json:"stat"`
	TY     float64   `json:"ty"`
	TYRep  []float64 `json:"tyrep"`
	PValue float64   `json:"pValue"`
}

// ComputeStat evaluates a named test statistic on y and every row of yrep.
func ComputeStat(y []float64, yrep [][]float64, stat string) (*StatResult, error) {
	s, ok := statistics[stat]
	if !ok {
		return nil, validationErrorf("stat", "unknown statistic %q (want one of %v)", stat, StatisticNames())
	}
	if err := validateY(y); err != nil {
		return nil, err
	}
	if err := validateYrep(yrep, len(y)); err != nil {
		return nil, err
	}
	if len(y) < s.minN {
		return nil, validationErrorf("y", "statistic %q needs at least %d values", stat, s.minN)
	}

	res := &StatResult{Stat: stat, TY: s.fn(y), TYRep: make([]float64, len(yrep))}
	var above int
	for i, row := range yrep {
		res.TYRep[i] = s.fn(row)
		if res.TYRep[i] >= res.TY {
			above++
		}
	}
	res.PValue = float64(above) / float64(len(yrep))
	return res, nil
}

// PPCStat draws a histogram of T(yrep) with a vertical line at T(y).
func PPCStat(y []float64, yrep [][]float64, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("ppc_stat", optStat, optBins, optAlpha, optSize)
	if cfg.Bins < 1 {
		return nil, validationErrorf("bins", "must be positive, got %d", cfg.Bins)
	}
	if err := validateAlpha(cfg.Alpha); err != nil {
		return nil, err
	}

	res, err := ComputeStat(y, yrep, cfg.Stat)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("ppc_stat",
		zap.String("stat", cfg.Stat),
		zap.Float64("ty", res.TY),
		zap.Float64("p", res.PValue))

	plot := newPlot("ppc_stat", cfg)
	plot.Labels = Labels{X: fmt.Sprintf("T = %s", cfg.Stat), Y: "Count"}
	plot.Caption = fmt.Sprintf("Pr(T(y_rep) >= T(y)) = %s", strconv.FormatFloat(res.PValue, 'f', 3, 64))
	plot.Layers = []Layer{
		{
			Geom:  GeomRect,
			Name:  "T(y_rep)",
			Marks: histogramMarks(histogram(res.TYRep, cfg.Bins), "", ""),
			Style: Style{Fill: cfg.Scheme.Mid, Color: cfg.Scheme.MidHighlight, Alpha: cfg.Alpha},
		},
		{
			Geom:  GeomVLine,
			Name:  "T(y)",
			Marks: []Mark{{X: res.TY}},
			Style: Style{Color: cfg.Scheme.DarkHighlight, Size: 1.5 * cfg.Size},
		},
	}
	plot.Warnings = warnings
	return plot, nil
}

// ObservationInterval holds inner and outer replicate intervals for one
// observation.
type ObservationInterval struct {
	Index    int     `json:"index"`
	Observed float64 `json:"y_obs"`
	OuterLo  float64 `json:"ll"`
	InnerLo  float64 `json:"l"`
	Median   float64 `json:"m"`
	InnerHi  float64 `json:"h"`
	OuterHi  float64 `json:"hh"`
}

// SummarizeIntervals computes per-observation quantile intervals of yrep.
func SummarizeIntervals(y []float64, yrep [][]float64, prob, probOuter float64) ([]ObservationInterval, error) {
	if err := validateProb("prob", prob); err != nil {
		return nil, err
	}
	if err := validateProb("prob_outer", probOuter); err != nil {
		return nil, err
	}
	if probOuter < prob {
		return nil, &ArgumentConflictError{
			Args:   []string{optProb, optProbOuter},
			Reason: fmt.Sprintf("prob_outer (%v) must be at least prob (%v)", probOuter, prob),
		}
	}
	if err := validateY(y); err != nil {
		return nil, err
	}
	if err := validateYrep(yrep, len(y)); err != nil {
		return nil, err
	}

	inner := intervalProbs(prob)
	outer := intervalProbs(probOuter)
	column := make([]float64, len(yrep))
	out := make([]ObservationInterval, len(y))
	for j := range y {
		for s, row := range yrep {
			column[s] = row[j]
		}
		q := Quantiles(column, outer[0], inner[0], 0.5, inner[2], outer[2])
		out[j] = ObservationInterval{
			Index:    j + 1,
			Observed: y[j],
			OuterLo:  q[0],
			InnerLo:  q[1],
			Median:   q[2],
			InnerHi:  q[3],
			OuterHi:  q[4],
		}
	}
	return out, nil
}

// PPCIntervals draws replicate intervals per observation with the observed
// value overlaid. Defaults: prob 0.5, prob_outer 0.9.
func PPCIntervals(y []float64, yrep [][]float64, opts ...Option) (*Plot, error) {
	cfg := applyOptions(opts)
	warnings := cfg.ignored("ppc_intervals", optProb, optProbOuter, optSize, optFatten)

	rows, err := SummarizeIntervals(y, yrep, cfg.probOr(0.5), cfg.ProbOuter)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("ppc_intervals", zap.Int("observations", len(rows)))

	outer := make([]Mark, len(rows))
	inner := make([]Mark, len(rows))
	observed := make([]Mark, len(rows))
	for i, r := range rows {
		x := float64(r.Index)
		outer[i] = Mark{X: x, YMin: r.OuterLo, YMax: r.OuterHi}
		inner[i] = Mark{X: x, Y: r.Median, YMin: r.InnerLo, YMax: r.InnerHi}
		observed[i] = Mark{X: x, Y: r.Observed}
	}

	plot := newPlot("ppc_intervals", cfg)
	plot.Labels = Labels{X: "Data point (index)"}
	plot.Layers = []Layer{
		{Geom: GeomLineRange, Name: "y_rep_outer", Marks: outer, Style: Style{Color: cfg.Scheme.Mid, Size: cfg.Size}},
		{Geom: GeomPointRange, Name: "y_rep", Marks: inner, Style: Style{Color: cfg.Scheme.MidHighlight, Fill: cfg.Scheme.Light, Size: 2 * cfg.Size, Fatten: cfg.Fatten}},
		{Geom: GeomPoint, Name: "y", Marks: observed, Style: Style{Color: cfg.Scheme.DarkHighlight, Size: cfg.Size * 2.5}},
	}
	plot.Warnings = warnings
	return plot, nil
}
