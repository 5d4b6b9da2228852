package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(chain, param string, iter, value float64) Record {
	return Record{
		Dimensions: map[string]string{DimChain: chain, DimParameter: param},
		Measures:   map[string]float64{MeasureIteration: iter, MeasureValue: value},
	}
}

func TestSliceView(t *testing.T) {
	v := NewSliceView([]Record{
		record("1", "mu", 1, 0.5),
		record("1", "sigma", 1, 1.5),
	})
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, "sigma", v.Dimension(1, DimParameter))
	assert.Equal(t, 1.5, v.Measure(1, MeasureValue))
	assert.ElementsMatch(t, []string{DimChain, DimParameter}, v.DimensionKeys())
	assert.ElementsMatch(t, []string{MeasureIteration, MeasureValue}, v.MeasureKeys())

	assert.Equal(t, "", v.Dimension(5, DimParameter))
	assert.Equal(t, 0.0, v.Measure(-1, MeasureValue))

	empty := NewSliceView(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.DimensionKeys())
}

type draw struct {
	chain int
	name  string
	value float64
}

func TestDomainAdapter(t *testing.T) {
	adapter := NewDomainAdapter[draw]().
		Dimension(DimParameter, func(d draw) string { return d.name }).
		Dimension(DimChain, func(d draw) string { return string(rune('0' + d.chain)) }).
		Measure(MeasureValue, func(d draw) float64 { return d.value })

	data := []draw{{1, "mu", 0.1}, {2, "mu", 0.3}}
	v := adapter.Bind(data)

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, "2", v.Dimension(1, DimChain))
	assert.Equal(t, 0.3, v.Measure(1, MeasureValue))
	assert.Equal(t, []string{DimParameter, DimChain}, v.DimensionKeys())
	assert.Equal(t, []string{MeasureValue}, v.MeasureKeys())
	assert.Equal(t, "", v.Dimension(0, "unknown"))
	assert.Equal(t, 0.0, v.Measure(2, MeasureValue))

	data[0].value = 9
	assert.Equal(t, 9.0, v.Measure(0, MeasureValue), "bound views read through to the slice")
}

func TestConcatView(t *testing.T) {
	a := NewSliceView([]Record{record("1", "mu", 1, 1)})
	b := NewSliceView([]Record{record("2", "mu", 1, 2), record("2", "mu", 2, 3)})
	c := NewSliceView([]Record{record("3", "mu", 1, 4)})

	v := NewConcatView(a, nil, b, c)
	require.Equal(t, 4, v.Len())
	var chains []string
	var values []float64
	for i := 0; i < v.Len(); i++ {
		chains = append(chains, v.Dimension(i, DimChain))
		values = append(values, v.Measure(i, MeasureValue))
	}
	assert.Equal(t, []string{"1", "2", "2", "3"}, chains)
	assert.Equal(t, []float64{1, 2, 3, 4}, values)

	assert.Same(t, a, NewConcatView(nil, a), "a single view is returned as is")
	assert.Equal(t, 0, NewConcatView().Len())
}

func TestTransformView(t *testing.T) {
	log, err := LookupTransform("log")
	require.NoError(t, err)
	base := NewSliceView([]Record{
		record("1", "mu", 1, 0.5),
		record("1", "sigma", 1, math.E),
	})

	v := newTransformView(base, map[string]Transform{"sigma": log})
	assert.Equal(t, "mu", v.Dimension(0, DimParameter))
	assert.Equal(t, 0.5, v.Measure(0, MeasureValue))
	assert.Equal(t, "log(sigma)", v.Dimension(1, DimParameter))
	assert.InDelta(t, 1, v.Measure(1, MeasureValue), 1e-12)
	assert.Equal(t, 1.0, v.Measure(1, MeasureIteration), "only the value measure is transformed")

	assert.Same(t, base, newTransformView(base, nil))
}

func TestApplyFilters(t *testing.T) {
	v := NewSliceView([]Record{
		record("1", "mu", 1, 0),
		record("1", "theta[1]", 1, 1),
		record("2", "theta[2]", 1, 2),
		record("2", "sigma", 1, 3),
	})

	tests := []struct {
		name    string
		filters Filters
		want    []float64
	}{
		{"empty", Filters{}, []float64{0, 1, 2, 3}},
		{"exact", Filters{Dimensions: map[string][]string{DimParameter: {"mu", "sigma"}}}, []float64{0, 3}},
		{"pattern", Filters{Patterns: map[string][]string{DimParameter: {`^theta\[`}}}, []float64{1, 2}},
		{"exact or pattern", Filters{
			Dimensions: map[string][]string{DimParameter: {"mu"}},
			Patterns:   map[string][]string{DimParameter: {`^theta`}},
		}, []float64{0, 1, 2}},
		{"and across dimensions", Filters{Dimensions: map[string][]string{
			DimParameter: {"theta[1]", "theta[2]"},
			DimChain:     {"2"},
		}}, []float64{2}},
		{"no match", Filters{Dimensions: map[string][]string{DimChain: {"9"}}}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyFilters(v, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, MeasureValues(got, MeasureValue))
		})
	}

	_, err := ApplyFilters(v, Filters{Patterns: map[string][]string{DimParameter: {"("}}})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGroupAndAggregate(t *testing.T) {
	v := NewSliceView([]Record{
		record("2", "mu", 1, 4),
		record("10", "mu", 2, 1),
		record("1", "sigma", 1, 2),
		record("2", "sigma", 2, 7),
		record("1", "mu", 3, 3),
	})

	t.Run("single dimension", func(t *testing.T) {
		groups := GroupAndAggregate(v, []string{DimParameter}, MeasureValue, "sum", "value_desc", 0)
		require.Len(t, groups, 2)
		assert.Equal(t, "sigma", groups[0].Key)
		assert.Equal(t, 9.0, groups[0].Value)
		assert.Equal(t, 8.0, groups[1].Value)
		assert.Equal(t, 3, groups[1].Count)
	})

	t.Run("numeric keys", func(t *testing.T) {
		groups := GroupAndAggregate(v, []string{DimChain}, MeasureValue, "count", "numeric_asc", 0)
		var keys []string
		for _, g := range groups {
			keys = append(keys, g.Key)
		}
		assert.Equal(t, []string{"1", "2", "10"}, keys)
	})

	t.Run("nested", func(t *testing.T) {
		groups := GroupAndAggregate(v, []string{DimParameter, DimChain}, MeasureValue, "max", "label_asc", 1)
		require.Len(t, groups, 1, "limit")
		assert.Equal(t, "mu", groups[0].Key)
		require.Len(t, groups[0].SubGroups, 3)
		assert.Equal(t, "1", groups[0].SubGroups[0].Key)
		assert.Equal(t, 3.0, groups[0].SubGroups[0].Value)
	})

	assert.Nil(t, GroupAndAggregate(NewSliceView(nil), []string{DimChain}, MeasureValue, "sum", "", 0))
}

func TestUniqueValues(t *testing.T) {
	v := NewSliceView([]Record{
		record("2", "b", 1, 0),
		record("1", "a", 1, 0),
		record("2", "", 1, 0),
	})
	assert.Equal(t, []string{"b", "a"}, UniqueValues(v, DimParameter))
	assert.Equal(t, []string{"2", "1"}, UniqueValues(v, DimChain))
}
