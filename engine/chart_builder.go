package engine

import (
	"math"
	"strconv"
)

// ============================================================================
// CHART BUILDER: Shared layer and scale helpers for recipes
// ============================================================================

func newPlot(kind string, cfg *config) *Plot {
	return &Plot{
		Kind:   kind,
		Title:  cfg.Title,
		Scheme: cfg.Scheme.Name,
		Legend: Legend{Show: true, Position: "right"},
	}
}

// observedBarLayer draws observed counts/proportions as bars. Rows with an
// absent observation produce no mark.
func observedBarLayer(rows []SummaryRow, grouped bool, cfg *config) Layer {
	marks := make([]Mark, 0, len(rows))
	for _, r := range rows {
		if r.Observed == nil {
			continue
		}
		m := Mark{X: float64(r.X), Y: *r.Observed, Label: strconv.Itoa(r.X)}
		if grouped {
			m.Panel = r.Group
		}
		marks = append(marks, m)
	}
	return Layer{
		Geom:  GeomBar,
		Name:  "y",
		Marks: marks,
		Style: Style{
			Fill:  cfg.Scheme.Light,
			Color: cfg.Scheme.LightHighlight,
			Width: cfg.BarWidth,
			Alpha: cfg.Alpha,
		},
	}
}

// replicateIntervalLayer draws the l/m/h band of replicates as pointranges.
func replicateIntervalLayer(rows []SummaryRow, grouped bool, cfg *config) Layer {
	marks := make([]Mark, 0, len(rows))
	for _, r := range rows {
		m := Mark{X: float64(r.X), Y: r.M, YMin: r.L, YMax: r.H, Label: strconv.Itoa(r.X)}
		if grouped {
			m.Panel = r.Group
		}
		marks = append(marks, m)
	}
	return Layer{
		Geom:  GeomPointRange,
		Name:  "y_rep",
		Marks: marks,
		Style: Style{
			Color:  cfg.Scheme.DarkHighlight,
			Fill:   cfg.Scheme.Dark,
			Size:   cfg.Size,
			Fatten: cfg.Fatten,
		},
	}
}

// integerScale places at most ~10 integer breaks on [0, max].
func integerScale(max int) *Scale {
	step := int(math.Ceil(float64(max+1) / 10))
	if step < 1 {
		step = 1
	}
	s := &Scale{Type: "continuous"}
	for x := 0; x <= max; x += step {
		s.Breaks = append(s.Breaks, float64(x))
		s.Labels = append(s.Labels, strconv.Itoa(x))
	}
	return s
}

// discreteScale labels positions 1..n with names.
func discreteScale(names []string) *Scale {
	s := &Scale{Type: "discrete", Labels: append([]string(nil), names...)}
	for i := range names {
		s.Breaks = append(s.Breaks, float64(i+1))
	}
	return s
}

func validateFacetScales(scales string) error {
	switch scales {
	case ScalesFixed, ScalesFree, ScalesFreeX, ScalesFreeY:
		return nil
	}
	return validationErrorf("facet_scales", "unknown facet scales %q", scales)
}

func validateBarWidth(width float64) error {
	if math.IsNaN(width) || width <= 0 || width > 1 {
		return validationErrorf("width", "must be in (0, 1], got %v", width)
	}
	return nil
}

func validateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return validationErrorf("alpha", "must be between 0 and 1, got %v", alpha)
	}
	return nil
}

func hline(name string, y float64, color string) Layer {
	return Layer{
		Geom:  GeomHLine,
		Name:  name,
		Marks: []Mark{{Y: y}},
		Style: Style{Color: color, Size: 0.5},
	}
}

func vline(name string, x float64, color string) Layer {
	return Layer{
		Geom:  GeomVLine,
		Name:  name,
		Marks: []Mark{{X: x}},
		Style: Style{Color: color, Size: 0.5, LineType: "dashed"},
	}
}
