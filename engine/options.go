package engine

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ============================================================================
// ENGINE OPTIONS: Functional options for every recipe
// ============================================================================
// Each With* option records that it was set. Recipes declare which options
// they read; anything else set by the caller becomes a warning on the plot.
// ============================================================================

// Option configures recipe behavior via functional options pattern.
type Option func(*config)

// Option names, used in warnings and ArgumentConflictError.
const (
	optProb        = "prob"
	optProbOuter   = "prob_outer"
	optFreq        = "freq"
	optStyle       = "style"
	optBarWidth    = "width"
	optSize        = "size"
	optFatten      = "fatten"
	optAlpha       = "alpha"
	optFacetScales = "facet_scales"
	optStat        = "stat"
	optBins        = "bins"
	optLags        = "lags"
	optPars        = "pars"
	optRegexPars   = "regex_pars"
	optTransform   = "transformations"
	optMergeChains = "merge_chains"
	optTreedepth   = "max_treedepth"
	optTitle       = "title"
)

// ambient options never trigger "ignored" warnings.
var ambientOptions = map[string]bool{
	"scheme": true,
	"logger": true,
	optTitle: true,
}

type config struct {
	Prob        float64
	ProbOuter   float64
	Freq        bool
	Style       RootogramStyle
	BarWidth    float64
	Size        float64
	Fatten      float64
	Alpha       float64
	FacetScales string
	Stat        string
	Bins        int
	Lags        int
	Pars        []string
	RegexPars   []string
	Transforms  map[string]string // parameter → transform name
	MergeChains bool
	Treedepth   int
	Title       string
	Scheme      ColorScheme
	Logger      *zap.Logger

	set map[string]bool
}

// WithProb sets the central interval mass (0 ≤ prob ≤ 1).
func WithProb(prob float64) Option {
	return func(c *config) {
		c.Prob = prob
		c.set[optProb] = true
	}
}

// WithProbOuter sets the outer interval mass for interval plots.
func WithProbOuter(prob float64) Option {
	return func(c *config) {
		c.ProbOuter = prob
		c.set[optProbOuter] = true
	}
}

// WithFreq selects counts (true) or proportions (false).
func WithFreq(freq bool) Option {
	return func(c *config) {
		c.Freq = freq
		c.set[optFreq] = true
	}
}

// WithStyle selects the rootogram baseline style.
func WithStyle(style RootogramStyle) Option {
	return func(c *config) {
		c.Style = style
		c.set[optStyle] = true
	}
}

// WithBarWidth sets the bar width as a fraction of the category spacing.
func WithBarWidth(width float64) Option {
	return func(c *config) {
		c.BarWidth = width
		c.set[optBarWidth] = true
	}
}

// WithSize sets point/line size.
func WithSize(size float64) Option {
	return func(c *config) {
		c.Size = size
		c.set[optSize] = true
	}
}

// WithFatten sets the point enlargement factor for pointrange layers.
func WithFatten(fatten float64) Option {
	return func(c *config) {
		c.Fatten = fatten
		c.set[optFatten] = true
	}
}

// WithAlpha sets layer opacity.
func WithAlpha(alpha float64) Option {
	return func(c *config) {
		c.Alpha = alpha
		c.set[optAlpha] = true
	}
}

// WithFacetScales sets how facet panels share axes.
func WithFacetScales(scales string) Option {
	return func(c *config) {
		c.FacetScales = scales
		c.set[optFacetScales] = true
	}
}

// WithStat selects the test statistic for PPCStat.
func WithStat(stat string) Option {
	return func(c *config) {
		c.Stat = stat
		c.set[optStat] = true
	}
}

// WithBins sets the number of histogram bins.
func WithBins(bins int) Option {
	return func(c *config) {
		c.Bins = bins
		c.set[optBins] = true
	}
}

// WithLags sets the maximum autocorrelation lag.
func WithLags(lags int) Option {
	return func(c *config) {
		c.Lags = lags
		c.set[optLags] = true
	}
}

// WithPars selects parameters by exact name.
func WithPars(pars ...string) Option {
	return func(c *config) {
		c.Pars = append(c.Pars, pars...)
		c.set[optPars] = true
	}
}

// WithRegexPars selects parameters whose names match any pattern.
func WithRegexPars(patterns ...string) Option {
	return func(c *config) {
		c.RegexPars = append(c.RegexPars, patterns...)
		c.set[optRegexPars] = true
	}
}

// WithTransform applies a named transformation ("log", "exp", "sqrt",
// "logit", "inv_logit") to one parameter before plotting.
func WithTransform(parameter, name string) Option {
	return func(c *config) {
		if c.Transforms == nil {
			c.Transforms = make(map[string]string)
		}
		c.Transforms[parameter] = name
		c.set[optTransform] = true
	}
}

// WithMergeChains pools chains instead of faceting by chain.
func WithMergeChains(merge bool) Option {
	return func(c *config) {
		c.MergeChains = merge
		c.set[optMergeChains] = true
	}
}

// WithMaxTreedepth sets the sampler's treedepth limit used to count
// saturated transitions.
func WithMaxTreedepth(depth int) Option {
	return func(c *config) {
		c.Treedepth = depth
		c.set[optTreedepth] = true
	}
}

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(c *config) {
		c.Title = title
		c.set[optTitle] = true
	}
}

// WithColorScheme sets the color scheme used for every layer.
func WithColorScheme(scheme ColorScheme) Option {
	return func(c *config) {
		c.Scheme = scheme
		c.set["scheme"] = true
	}
}

// WithLogger routes recipe logging to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
		c.set["logger"] = true
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Prob:        0.9,
		ProbOuter:   0.9,
		Freq:        true,
		Style:       StyleStanding,
		BarWidth:    0.9,
		Size:        1,
		Fatten:      2.5,
		Alpha:       1,
		FacetScales: ScalesFixed,
		Stat:        "mean",
		Bins:        30,
		Lags:        20,
		Treedepth:   10,
		Scheme:      SchemeBlue,
		Logger:      zap.NewNop(),
		set:         make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// probOr returns the caller's prob or a recipe-specific default.
func (c *config) probOr(def float64) float64 {
	if c.set[optProb] {
		return c.Prob
	}
	return def
}

func (c *config) isSet(name string) bool { return c.set[name] }

// ignored returns the options the caller set that the recipe does not read,
// logs them, and formats them as plot warnings.
func (c *config) ignored(recipe string, accepted ...string) []string {
	ok := make(map[string]bool, len(accepted))
	for _, a := range accepted {
		ok[a] = true
	}
	var names []string
	for name := range c.set {
		if !ok[name] && !ambientOptions[name] {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	c.Logger.Warn("ignoring options",
		zap.String("recipe", recipe),
		zap.Strings("options", names))
	return []string{fmt.Sprintf("%s ignores %s", recipe, strings.Join(names, ", "))}
}
