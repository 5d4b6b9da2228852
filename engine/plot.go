package engine

// ============================================================================
// PLOT TYPES: Declarative layer grammar
// ============================================================================
// A Plot is a stack of layers sharing axes, optionally split into facet
// panels. Marks carry only numbers and labels; the renderer maps geoms to
// drawing primitives.
// ============================================================================

// Geom names the drawing primitive for a layer.
type Geom string

const (
	GeomBar        Geom = "bar"        // x, y (from 0) with Style.Width
	GeomRect       Geom = "rect"       // xmin, xmax, ymin, ymax
	GeomPointRange Geom = "pointrange" // x, y, ymin, ymax
	GeomLineRange  Geom = "linerange"  // x, ymin, ymax
	GeomPoint      Geom = "point"      // x, y
	GeomLine       Geom = "line"       // x, y, joined per Series
	GeomRibbon     Geom = "ribbon"     // x, ymin, ymax, joined per Series
	GeomHLine      Geom = "hline"      // y
	GeomVLine      Geom = "vline"      // x
	GeomSegment    Geom = "segment"    // x, y → xmax, ymax
	GeomBoxplot    Geom = "boxplot"    // x, ymin, lower, y (median), upper, ymax
)

// Plot is a complete declarative plot.
type Plot struct {
	Kind     string   `json:"kind"`
	Title    string   `json:"title,omitempty"`
	Caption  string   `json:"caption,omitempty"`
	Labels   Labels   `json:"labels"`
	Layers   []Layer  `json:"layers"`
	Facet    *Facet   `json:"facet,omitempty"`
	XScale   *Scale   `json:"xScale,omitempty"`
	YScale   *Scale   `json:"yScale,omitempty"`
	Legend   Legend   `json:"legend"`
	Scheme   string   `json:"scheme"`
	Warnings []string `json:"warnings,omitempty"`
}

// Labels are axis and legend titles.
type Labels struct {
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
	Fill  string `json:"fill,omitempty"`
	Color string `json:"color,omitempty"`
}

// Layer is one geom applied to a set of marks.
type Layer struct {
	Geom  Geom   `json:"geom"`
	Name  string `json:"name,omitempty"` // legend entry, e.g. "y" or "y_rep"
	Marks []Mark `json:"marks"`
	Style Style  `json:"style"`
}

// Style holds constant aesthetics for a layer.
type Style struct {
	Fill     string  `json:"fill,omitempty"`
	Color    string  `json:"color,omitempty"`
	Size     float64 `json:"size,omitempty"`
	Alpha    float64 `json:"alpha,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Fatten   float64 `json:"fatten,omitempty"`
	LineType string  `json:"lineType,omitempty"`
}

// Mark is a single data-bearing element. Which fields matter depends on
// the layer geom; omitted bounds read as zero.
type Mark struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XMin      float64 `json:"xmin,omitempty"`
	XMax      float64 `json:"xmax,omitempty"`
	YMin      float64 `json:"ymin,omitempty"`
	YMax      float64 `json:"ymax,omitempty"`
	Lower     float64 `json:"lower,omitempty"`
	Upper     float64 `json:"upper,omitempty"`
	Label     string  `json:"label,omitempty"`
	Series    string  `json:"series,omitempty"`
	Panel     string  `json:"panel,omitempty"`
	Fill      string  `json:"fill,omitempty"`
	Highlight bool    `json:"highlight,omitempty"`
}

// Facet splits marks into panels by Mark.Panel.
type Facet struct {
	By      string   `json:"by"`
	Panels  []string `json:"panels"`
	Scales  string   `json:"scales"` // "fixed", "free", "free_x", "free_y"
	Columns int      `json:"columns,omitempty"`
	Grid    bool     `json:"grid,omitempty"` // panels are "row|col" cells
	Rows    []string `json:"rows,omitempty"`
	Cols    []string `json:"cols,omitempty"`
}

// Scale describes an axis transformation and tick placement.
type Scale struct {
	Type   string    `json:"type"` // "continuous", "sqrt", "discrete"
	Breaks []float64 `json:"breaks,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	Limits []float64 `json:"limits,omitempty"`
}

// Legend controls the legend box.
type Legend struct {
	Show     bool   `json:"show"`
	Position string `json:"position,omitempty"`
}

// Facet scale modes.
const (
	ScalesFixed = "fixed"
	ScalesFree  = "free"
	ScalesFreeX = "free_x"
	ScalesFreeY = "free_y"
)

// Panel returns the marks of a layer that belong to one facet panel.
func (l Layer) Panel(name string) []Mark {
	var out []Mark
	for _, m := range l.Marks {
		if m.Panel == name {
			out = append(out, m)
		}
	}
	return out
}

// Layer returns the first layer with the given name, or nil.
func (p *Plot) Layer(name string) *Layer {
	for i := range p.Layers {
		if p.Layers[i].Name == name {
			return &p.Layers[i]
		}
	}
	return nil
}
