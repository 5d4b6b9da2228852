package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDrawsValidation(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		chains [][][]float64
		want   string
	}{
		{"no parameters", nil, [][][]float64{{{1}}}, "no parameters"},
		{"empty name", []string{""}, [][][]float64{{{1}}}, "empty parameter name"},
		{"duplicate", []string{"a", "a"}, [][][]float64{{{1, 2}}}, `duplicate parameter "a"`},
		{"no chains", []string{"a"}, nil, "no iterations"},
		{"no iterations", []string{"a"}, [][][]float64{{}}, "no iterations"},
		{"ragged chains", []string{"a"}, [][][]float64{{{1}, {2}}, {{1}}}, "chain 2 has 1 iterations, chain 1 has 2"},
		{"short iteration", []string{"a", "b"}, [][][]float64{{{1, 2}, {3}}}, "chain 1 iteration 2 has 1 values for 2 parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDraws(tt.params, tt.chains)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "draws", verr.Arg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDrawsAccessors(t *testing.T) {
	d := testDraws(t)
	assert.Equal(t, 2, d.NumChains())
	assert.Equal(t, 4, d.NumIterations())
	assert.Equal(t, []string{"mu", "sigma", "theta[1]"}, d.Parameters())
	assert.Equal(t, 1, d.ParamIndex("sigma"))
	assert.Equal(t, -1, d.ParamIndex("tau"))

	assert.Equal(t, 2.4, d.At(1, 2, 2))
	assert.Equal(t, []float64{1.3, 0.8, 1.0, 1.1}, d.Chain(1, 1))
	assert.Equal(t, []float64{0.1, 0.3, -0.2, 0.0, 0.2, 0.4, -0.1, 0.1}, d.Merged(0))

	params := d.Parameters()
	params[0] = "changed"
	assert.Equal(t, "mu", d.Parameters()[0], "Parameters returns a copy")
}

func TestDrawsSelect(t *testing.T) {
	d := testDraws(t)

	same, err := d.Select(nil, nil)
	require.NoError(t, err)
	assert.Same(t, d, same)

	sel, err := d.Select([]string{"theta[1]"}, []string{"^m"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mu", "theta[1]"}, sel.Parameters(), "storage order is kept")
	assert.Equal(t, 2, sel.NumChains())
	assert.Equal(t, d.Chain(2, 1), sel.Chain(1, 1))

	sel, err = d.Select(nil, []string{`^theta\[`})
	require.NoError(t, err)
	assert.Equal(t, []string{"theta[1]"}, sel.Parameters())

	tests := []struct {
		name     string
		pars     []string
		patterns []string
		wantArg  string
	}{
		{"unknown name", []string{"tau"}, nil, "pars"},
		{"bad pattern", nil, []string{"("}, "regex_pars"},
		{"unmatched pattern", nil, []string{"^z"}, "regex_pars"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Select(tt.pars, tt.patterns)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantArg, verr.Arg)
		})
	}
}

func TestDrawsView(t *testing.T) {
	d := testDraws(t)
	v := d.View()
	require.Equal(t, 24, v.Len())

	// index 13 = chain 2, iteration 1, sigma
	assert.Equal(t, "2", v.Dimension(13, DimChain))
	assert.Equal(t, "sigma", v.Dimension(13, DimParameter))
	assert.Equal(t, 1.0, v.Measure(13, MeasureIteration))
	assert.Equal(t, 1.3, v.Measure(13, MeasureValue))

	assert.Equal(t, "", v.Dimension(24, DimChain))
	assert.Equal(t, 0.0, v.Measure(-1, MeasureValue))
	assert.Equal(t, []string{DimChain, DimParameter}, v.DimensionKeys())

	sigma, err := ApplyFilters(v, Filters{Dimensions: map[string][]string{DimParameter: {"sigma"}}})
	require.NoError(t, err)
	assert.Equal(t, d.Merged(1), MeasureValues(sigma, MeasureValue))
}

// ============================================================================
// CONVERGENCE
// ============================================================================

func TestAutocorrelation(t *testing.T) {
	assert.Equal(t, []float64{1, 0, 0}, Autocorrelation([]float64{2, 2, 2, 2}, 2))

	acf := Autocorrelation([]float64{1, -1, 1, -1}, 10)
	require.Len(t, acf, 4, "lags are capped at len-1")
	assert.InDelta(t, 1, acf[0], 1e-12)
	assert.InDelta(t, -0.75, acf[1], 1e-12)
	assert.InDelta(t, 0.5, acf[2], 1e-12)
	assert.InDelta(t, -0.25, acf[3], 1e-12)

	assert.Nil(t, Autocorrelation(nil, 3))
	assert.Nil(t, Autocorrelation([]float64{1}, -1))
}

func singleParam(t *testing.T, chains ...[]float64) *Draws {
	t.Helper()
	in := make([][][]float64, len(chains))
	for c, xs := range chains {
		for _, x := range xs {
			in[c] = append(in[c], []float64{x})
		}
	}
	d, err := NewDraws([]string{"x"}, in)
	require.NoError(t, err)
	return d
}

func TestSplitRhat(t *testing.T) {
	mixed := singleParam(t,
		[]float64{1, 2, 3, 4, 1, 2, 3, 4},
		[]float64{1, 2, 3, 4, 1, 2, 3, 4},
	)
	assert.InDelta(t, math.Sqrt(0.75), SplitRhat(mixed, 0), 1e-12, "identical halves have no between-chain variance")

	apart := singleParam(t,
		[]float64{0, 1, 0, 1, 0, 1, 0, 1},
		[]float64{10, 11, 10, 11, 10, 11, 10, 11},
	)
	assert.Greater(t, SplitRhat(apart, 0), 1.1)

	assert.True(t, math.IsNaN(SplitRhat(singleParam(t, []float64{1, 2, 3}), 0)), "too few iterations")
	assert.True(t, math.IsNaN(SplitRhat(singleParam(t, []float64{5, 5, 5, 5}), 0)), "constant draws")
}

func TestEffectiveSampleSize(t *testing.T) {
	alternating := make([]float64, 100)
	trend := make([]float64, 100)
	for i := range alternating {
		alternating[i] = float64(1 - 2*(i%2))
		trend[i] = float64(i + 1)
	}

	assert.Greater(t, EffectiveSampleSize(singleParam(t, alternating), 0), 100.0,
		"anticorrelated draws are worth more than independent ones")
	assert.Less(t, NeffRatio(singleParam(t, trend), 0), 0.1)
	assert.True(t, math.IsNaN(EffectiveSampleSize(singleParam(t, []float64{1, 2, 3}), 0)))
	assert.True(t, math.IsNaN(EffectiveSampleSize(singleParam(t, []float64{1, 1, 1, 1, 1}), 0)))
}

func TestRhatAndNeffAll(t *testing.T) {
	d := testDraws(t)
	rhat := RhatAll(d)
	neff := NeffRatioAll(d)
	require.Len(t, rhat, 3)
	require.Len(t, neff, 3)
	for i, name := range d.Parameters() {
		assert.Equal(t, name, rhat[i].Name)
		assert.Equal(t, name, neff[i].Name)
		assert.Greater(t, rhat[i].Value, 0.0)
		assert.GreaterOrEqual(t, neff[i].Value, 0.0)
	}
}
