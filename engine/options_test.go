package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptionsDefaults(t *testing.T) {
	cfg := applyOptions(nil)
	assert.Equal(t, 0.9, cfg.Prob)
	assert.Equal(t, 0.9, cfg.ProbOuter)
	assert.True(t, cfg.Freq)
	assert.Equal(t, StyleStanding, cfg.Style)
	assert.Equal(t, 30, cfg.Bins)
	assert.Equal(t, 20, cfg.Lags)
	assert.Equal(t, 10, cfg.Treedepth)
	assert.Equal(t, ScalesFixed, cfg.FacetScales)
	assert.Equal(t, SchemeBlue, cfg.Scheme)
	assert.NotNil(t, cfg.Logger)
	assert.Empty(t, cfg.ignored("any"))
}

func TestProbOr(t *testing.T) {
	assert.Equal(t, 0.5, applyOptions(nil).probOr(0.5))
	assert.Equal(t, 0.8, applyOptions([]Option{WithProb(0.8)}).probOr(0.5))
	assert.Equal(t, 0.0, applyOptions([]Option{WithProb(0)}).probOr(0.5), "an explicit zero is kept")
}

func TestIgnored(t *testing.T) {
	cfg := applyOptions([]Option{
		WithProb(0.5),
		WithStat("sd"),
		WithLags(3),
		WithTitle("t"),
		WithColorScheme(SchemeRed),
		WithLogger(nil),
	})
	assert.Equal(t, []string{"recipe ignores lags, stat"}, cfg.ignored("recipe", optProb))
	assert.Nil(t, cfg.ignored("recipe", optProb, optStat, optLags))
	assert.NotNil(t, cfg.Logger, "a nil logger keeps the no-op default")
}

func TestWithTransformAccumulates(t *testing.T) {
	cfg := applyOptions([]Option{WithTransform("sigma", "log"), WithTransform("p", "logit"), WithPars("a"), WithPars("b")})
	assert.Equal(t, map[string]string{"sigma": "log", "p": "logit"}, cfg.Transforms)
	assert.Equal(t, []string{"a", "b"}, cfg.Pars)
}

// ============================================================================
// SCHEMES
// ============================================================================

func TestSchemeByName(t *testing.T) {
	s, err := SchemeByName(" Red ")
	require.NoError(t, err)
	assert.Equal(t, SchemeRed, s)

	_, err = SchemeByName("plaid")
	assert.ErrorContains(t, err, `unknown color scheme "plaid"`)

	names := SchemeNames()
	assert.Len(t, names, 11)
	assert.IsNonDecreasing(t, names)
	for _, n := range names {
		s, err := SchemeByName(n)
		require.NoError(t, err)
		assert.NoError(t, s.Validate(), n)
	}
}

func TestCustomScheme(t *testing.T) {
	colors := []string{"#ffffff", "#eeeeee", "#aaaaaa", "#888888", "#444444", "#000000"}
	s, err := CustomScheme("mono", colors)
	require.NoError(t, err)
	assert.Equal(t, "mono", s.Name)
	assert.Equal(t, colors, s.Colors())

	_, err = CustomScheme("short", colors[:5])
	assert.ErrorContains(t, err, "needs 6 colors")

	bad := append([]string(nil), colors...)
	bad[3] = "grey"
	_, err = CustomScheme("bad", bad)
	assert.ErrorContains(t, err, "color 4")
}

func TestSchemeSeries(t *testing.T) {
	got := SchemeBlue.Series(8)
	require.Len(t, got, 8)
	assert.Equal(t, SchemeBlue.DarkHighlight, got[0])
	assert.Equal(t, got[0], got[6], "colors wrap after six series")
	assert.Empty(t, SchemeBlue.Series(0))
}

// ============================================================================
// TRANSFORMS
// ============================================================================

func TestLookupTransform(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"log", math.E, 1},
		{"exp", 0, 1},
		{"sqrt", 9, 3},
		{"logit", 0.5, 0},
		{"inv_logit", 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := LookupTransform(tt.name)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, tr.Fn(tt.in), 1e-12)
			assert.Equal(t, tt.name+"(theta)", tr.Label("theta"))
		})
	}

	_, err := LookupTransform("square")
	assert.ErrorContains(t, err, `unknown transformation "square"`)
	assert.Equal(t, []string{"exp", "inv_logit", "log", "logit", "sqrt"}, TransformNames())
}

func TestResolveTransforms(t *testing.T) {
	cfg := applyOptions([]Option{WithTransform("sigma", "log")})
	tr, err := cfg.resolveTransforms([]string{"mu", "sigma"})
	require.NoError(t, err)
	assert.Equal(t, "log", tr["sigma"].Name)

	_, err = cfg.resolveTransforms([]string{"mu"})
	assert.ErrorContains(t, err, `parameter "sigma" is not among the selected parameters`)

	cfg = applyOptions([]Option{WithTransform("mu", "cube")})
	_, err = cfg.resolveTransforms([]string{"mu"})
	assert.ErrorContains(t, err, "unknown transformation")

	tr, err = applyOptions(nil).resolveTransforms([]string{"mu"})
	assert.NoError(t, err)
	assert.Nil(t, tr)
}

// ============================================================================
// FORMATTING AND QUANTILES
// ============================================================================

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12,345", FormatInt(12345))
	assert.Equal(t, "2", FormatNumber(2, 3))
	assert.Equal(t, "2.500", FormatNumber(2.5, 3))
	assert.Equal(t, "NA", FormatNumber(math.NaN(), 3))
	assert.Equal(t, "90%", FormatPercent(0.9))
	assert.Equal(t, "5%", FormatPercent(0.05))
	assert.Equal(t, "2.5%", FormatPercent(0.025))
	assert.Equal(t, 0.286, RoundTo(0.285714, 3))
	assert.Equal(t, "Chain", LabelForDimension(DimChain))
	assert.Equal(t, "Count", LabelForStatistic(true))
}

func TestQuantiles(t *testing.T) {
	xs := []float64{5, 1, 4, 2, 3}
	got := Quantiles(xs, 0, 0.5, 1)
	assert.Equal(t, []float64{1, 3, 5}, got)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, xs, "input order is preserved")

	// Hyndman–Fan type 7: position 1 + p(n - 1).
	q := Quantiles([]float64{1, 2, 3, 4, 5}, 0.25)
	assert.InDelta(t, 2, q[0], 1e-12)

	q = Quantiles([]float64{10, 0, 3, 1, 2}, 0.05, 0.95)
	assert.InDeltaSlice(t, []float64{0.2, 8.6}, q, 1e-12, "tails interpolate instead of snapping to min/max")

	assert.True(t, math.IsNaN(Quantiles(nil, 0.5)[0]))

	assert.Equal(t, []float64{7}, Quantiles([]float64{7}, 0.1))
}
