package engine

// ============================================================================
// MCMCVIZ ENGINE TYPES
// ============================================================================
// Rows flow through RecordView; recipes return declarative Plot objects.
// The engine never renders. It only assembles layers for a renderer.
// ============================================================================

// Well-known dimension and measure keys used by the built-in views.
const (
	DimChain         = "chain"
	DimParameter     = "parameter"
	DimGroup         = "group"
	MeasureValue     = "value"
	MeasureIteration = "iteration"
	MeasureIndex     = "index"
)

// ============================================================================
// RECORD: Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
//
// A long-format posterior draw looks like
// Record{Dimensions["parameter"]="sigma", Measures["value"]=1.27}.
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// PLOTSPEC: Declarative request handled by Execute
// ============================================================================

// PlotSpec names a recipe and its statistical/styling options.
// Zero values mean "use the recipe default".
type PlotSpec struct {
	Kind        string   `json:"kind" yaml:"kind"`                                 // "ppc_bars", "mcmc_trace", "nuts_energy", ...
	Output      string   `json:"output,omitempty" yaml:"output,omitempty"`         // "plot", "table", "text"
	Pars        []string `json:"pars,omitempty" yaml:"pars,omitempty"`             // exact parameter names
	RegexPars   []string `json:"regexPars,omitempty" yaml:"regexPars,omitempty"`   // parameter name patterns
	Prob        float64  `json:"prob,omitempty" yaml:"prob,omitempty"`             // central interval mass
	ProbOuter   float64  `json:"probOuter,omitempty" yaml:"probOuter,omitempty"`   // outer interval mass
	Freq        *bool    `json:"freq,omitempty" yaml:"freq,omitempty"`             // counts (true) or proportions (false)
	Style       string   `json:"style,omitempty" yaml:"style,omitempty"`           // rootogram style
	Stat        string   `json:"stat,omitempty" yaml:"stat,omitempty"`             // test statistic for ppc_stat
	Bins        int      `json:"bins,omitempty" yaml:"bins,omitempty"`             // histogram bins
	Lags        int      `json:"lags,omitempty" yaml:"lags,omitempty"`             // autocorrelation lags
	FacetScales string   `json:"facetScales,omitempty" yaml:"facetScales,omitempty"`
	MergeChains bool     `json:"mergeChains,omitempty" yaml:"mergeChains,omitempty"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Caption     string   `json:"caption,omitempty" yaml:"caption,omitempty"` // template: "{nreps} draws, {prob} intervals"
}

// Inputs bundles the data a recipe may read. Each recipe uses a subset.
type Inputs struct {
	Y     []float64
	YRep  [][]float64
	Group []string

	Draws  *Draws
	Source DiagnosticsSource

	// Precomputed diagnostics for mcmc_rhat / mcmc_neff. When empty,
	// Execute derives them from Draws.
	Rhat      []NamedValue
	NeffRatio []NamedValue
}

// NamedValue is a per-parameter scalar such as an R-hat value.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ============================================================================
// RESULT: Render-ready output
// ============================================================================

// Result is the engine's render-ready output.
type Result struct {
	Success bool   `json:"success"`
	Type    string `json:"type"` // "plot", "table", "text"
	Title   string `json:"title,omitempty"`
	Caption string `json:"caption,omitempty"`

	// Exactly one of these is populated based on Type:
	Plot      *Plot      `json:"plot,omitempty"`
	TableData *TableData `json:"tableData,omitempty"`
	Data      *TextData  `json:"data,omitempty"`

	Warnings []string  `json:"warnings,omitempty"`
	PlotSpec *PlotSpec `json:"plotSpec,omitempty"`
}

// ============================================================================
// GROUP: Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Recipes turn these into layers and marks.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals or aggregations for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// TextData is a short diagnostic report (type="text").
type TextData struct {
	Value    string       `json:"value"`
	RawValue float64      `json:"rawValue"`
	Count    int          `json:"count"`
	Chains   int          `json:"chains"`
	Details  []TextDetail `json:"details,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// TextDetail is a label-value pair.
type TextDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
