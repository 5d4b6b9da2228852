package engine

import (
	"fmt"

	"go.uber.org/zap"
)

// ============================================================================
// TEXT BUILDER: Produces TextData for short diagnostic reports
// ============================================================================

// BuildNUTSText reports divergences, treedepth saturation and E-BFMI per
// chain. Problems are listed in Warnings.
func BuildNUTSText(src DiagnosticsSource, opts ...Option) (*TextData, error) {
	cfg := applyOptions(opts)
	s, err := SummarizeNUTS(src, cfg.Treedepth)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("nuts_summary",
		zap.Int("draws", s.Draws),
		zap.Int("divergent", s.Divergent),
		zap.Int("treedepth_hits", s.TreedepthHit))

	td := &TextData{
		Value:    fmt.Sprintf("%s of %s iterations ended with a divergence", FormatInt(s.Divergent), FormatInt(s.Draws)),
		RawValue: float64(s.Divergent),
		Count:    s.Draws,
		Chains:   s.Chains,
		Details: []TextDetail{
			{Label: "Divergent transitions", Value: fmt.Sprintf("%s (%s)", FormatInt(s.Divergent), FormatPercent(fraction(s.Divergent, s.Draws)))},
			{Label: fmt.Sprintf("Hit max treedepth (%d)", s.MaxTreedepth), Value: fmt.Sprintf("%s (%s)", FormatInt(s.TreedepthHit), FormatPercent(fraction(s.TreedepthHit, s.Draws)))},
		},
	}
	for _, e := range s.EBFMI {
		td.Details = append(td.Details, TextDetail{Label: "E-BFMI chain " + e.Chain, Value: FormatNumber(RoundTo(e.Value, 3), 3)})
		if e.Value < LowEBFMI {
			td.Warnings = append(td.Warnings, fmt.Sprintf("chain %s: E-BFMI %.3f is below %.1f, which may indicate poor exploration of the posterior", e.Chain, e.Value, LowEBFMI))
		}
	}
	if s.Divergent > 0 {
		td.Warnings = append(td.Warnings, fmt.Sprintf("%s divergent transitions after warmup; consider increasing adapt_delta", FormatInt(s.Divergent)))
	}
	if s.TreedepthHit > 0 {
		td.Warnings = append(td.Warnings, fmt.Sprintf("%s transitions hit the maximum treedepth of %d", FormatInt(s.TreedepthHit), s.MaxTreedepth))
	}
	return td, nil
}

// BuildStatText reports T(y) against the replicate distribution.
func BuildStatText(y []float64, yrep [][]float64, opts ...Option) (*TextData, error) {
	cfg := applyOptions(opts)
	res, err := ComputeStat(y, yrep, cfg.Stat)
	if err != nil {
		return nil, err
	}
	q := Quantiles(res.TYRep, 0.05, 0.5, 0.95)
	return &TextData{
		Value:    fmt.Sprintf("Pr(T(y_rep) >= T(y)) = %s", FormatNumber(RoundTo(res.PValue, 3), 3)),
		RawValue: res.PValue,
		Count:    len(yrep),
		Details: []TextDetail{
			{Label: "Statistic", Value: res.Stat},
			{Label: "T(y)", Value: FormatNumber(res.TY, 3)},
			{Label: "T(y_rep) median", Value: FormatNumber(q[1], 3)},
			{Label: "T(y_rep) 90% interval", Value: fmt.Sprintf("[%s, %s]", FormatNumber(q[0], 3), FormatNumber(q[2], 3))},
		},
	}, nil
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
