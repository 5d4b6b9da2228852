package engine

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeDiscreteExample(t *testing.T) {
	y := []float64{1, 1, 2, 3}
	yrep := [][]float64{{1, 2, 2, 3}, {1, 2, 2, 3}, {1, 2, 2, 3}}

	s, err := SummarizeDiscrete(y, yrep, nil, 0.9, true)
	require.NoError(t, err)

	assert.False(t, s.Grouped)
	assert.Equal(t, 3, s.MaxCategory)
	assert.Equal(t, 3, s.Replicates)
	assert.InDeltaSlice(t, []float64{0.05, 0.5, 0.95}, s.Probs[:], 1e-12)

	want := []SummaryRow{
		{X: 0, Observed: ptr(0), L: 0, M: 0, H: 0},
		{X: 1, Observed: ptr(2), L: 1, M: 1, H: 1},
		{X: 2, Observed: ptr(1), L: 2, M: 2, H: 2},
		{X: 3, Observed: ptr(1), L: 1, M: 1, H: 1},
	}
	if diff := cmp.Diff(want, s.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeDiscreteRowCount(t *testing.T) {
	tests := []struct {
		name   string
		y      []float64
		yrep   [][]float64
		group  []string
		groups int
	}{
		{
			name:   "ungrouped",
			y:      []float64{0, 4, 2},
			yrep:   [][]float64{{1, 1, 1}, {6, 0, 2}},
			groups: 1,
		},
		{
			name:   "grouped",
			y:      []float64{0, 1, 2, 3, 1},
			yrep:   [][]float64{{0, 1, 2, 3, 1}, {1, 1, 1, 1, 1}},
			group:  []string{"b", "a", "c", "a", "b"},
			groups: 3,
		},
		{
			name:   "all zero",
			y:      []float64{0, 0},
			yrep:   [][]float64{{0, 0}},
			groups: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SummarizeDiscrete(tt.y, tt.yrep, tt.group, 0.5, true)
			require.NoError(t, err)
			assert.Len(t, s.Rows, (s.MaxCategory+1)*tt.groups)

			seen := make(map[[2]any]bool)
			for _, r := range s.Rows {
				key := [2]any{r.Group, r.X}
				assert.False(t, seen[key], "duplicate row %v", key)
				seen[key] = true
			}
		})
	}
}

func TestSummarizeDiscreteIsPure(t *testing.T) {
	y := []float64{0, 2, 1, 1}
	yrep := [][]float64{{0, 1, 1, 2}, {3, 0, 1, 1}, {1, 1, 1, 1}}
	group := []string{"x", "y", "x", "y"}

	first, err := SummarizeDiscrete(y, yrep, group, 0.8, false)
	require.NoError(t, err)
	second, err := SummarizeDiscrete(y, yrep, group, 0.8, false)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second call differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, []float64{0, 2, 1, 1}, y, "y must not be modified")
	assert.Equal(t, []float64{3, 0, 1, 1}, yrep[1], "yrep must not be modified")
}

func TestSummarizeDiscreteProbBoundaries(t *testing.T) {
	y := []float64{0, 1, 2}
	yrep := [][]float64{{0, 1, 1}, {2, 2, 0}, {1, 0, 3}, {0, 0, 0}}

	t.Run("prob 0 collapses to the median", func(t *testing.T) {
		s, err := SummarizeDiscrete(y, yrep, nil, 0, true)
		require.NoError(t, err)
		for _, r := range s.Rows {
			assert.Equal(t, r.M, r.L, "x=%d", r.X)
			assert.Equal(t, r.M, r.H, "x=%d", r.X)
		}
	})

	t.Run("prob 1 spans min to max", func(t *testing.T) {
		s, err := SummarizeDiscrete(y, yrep, nil, 1, true)
		require.NoError(t, err)
		// per-draw counts of x=0: 1, 1, 1, 3; of x=1: 2, 0, 1, 0
		assert.Equal(t, 1.0, s.Rows[0].L)
		assert.Equal(t, 3.0, s.Rows[0].H)
		assert.Equal(t, 0.0, s.Rows[1].L)
		assert.Equal(t, 2.0, s.Rows[1].H)
	})
}

func TestSummarizeDiscreteValidation(t *testing.T) {
	tests := []struct {
		name    string
		y       []float64
		yrep    [][]float64
		group   []string
		prob    float64
		wantArg string
		wantMsg string
	}{
		{name: "fractional yrep", y: []float64{1, 2}, yrep: [][]float64{{1, 2.5}}, prob: 0.9, wantArg: "yrep", wantMsg: "whole numbers"},
		{name: "negative fractional y", y: []float64{1, -0.3}, yrep: [][]float64{{1, 2}}, prob: 0.9, wantArg: "y", wantMsg: "whole numbers"},
		{name: "negative y", y: []float64{1, -1}, yrep: [][]float64{{1, 2}}, prob: 0.9, wantArg: "y", wantMsg: "non-negative"},
		{name: "infinite y", y: []float64{math.Inf(1)}, yrep: [][]float64{{1}}, prob: 0.9, wantArg: "y"},
		{name: "empty y", y: nil, yrep: [][]float64{{1}}, prob: 0.9, wantArg: "y"},
		{name: "no replicates", y: []float64{1}, yrep: nil, prob: 0.9, wantArg: "yrep"},
		{name: "short replicate", y: []float64{1, 2}, yrep: [][]float64{{1, 2}, {1}}, prob: 0.9, wantArg: "yrep", wantMsg: "length mismatch"},
		{name: "group length", y: []float64{1, 2}, yrep: [][]float64{{1, 2}}, group: []string{"a"}, prob: 0.9, wantArg: "group", wantMsg: "length mismatch"},
		{name: "huge y", y: []float64{1e300}, yrep: [][]float64{{0}}, prob: 0.9, wantArg: "y", wantMsg: "exceeds the maximum category"},
		{name: "y above limit", y: []float64{MaxCategoryLimit + 1}, yrep: [][]float64{{0}}, prob: 0.9, wantArg: "y", wantMsg: "exceeds the maximum category"},
		{name: "huge yrep", y: []float64{1, 2}, yrep: [][]float64{{1, 2}, {1e12, 0}}, prob: 0.9, wantArg: "yrep", wantMsg: "row 2, column 1 exceeds"},
		{name: "prob too large", y: []float64{1}, yrep: [][]float64{{1}}, prob: 1.5, wantArg: "prob"},
		{name: "prob negative", y: []float64{1}, yrep: [][]float64{{1}}, prob: -0.1, wantArg: "prob"},
		{name: "prob NaN", y: []float64{1}, yrep: [][]float64{{1}}, prob: math.NaN(), wantArg: "prob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SummarizeDiscrete(tt.y, tt.yrep, tt.group, tt.prob, true)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantArg, verr.Arg)
			assert.Contains(t, err.Error(), tt.wantArg)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSummarizeDiscreteAtCategoryLimit(t *testing.T) {
	s, err := SummarizeDiscrete([]float64{0}, [][]float64{{MaxCategoryLimit}}, nil, 0.9, true)
	require.NoError(t, err)
	assert.Equal(t, MaxCategoryLimit, s.MaxCategory)
	assert.Len(t, s.Rows, MaxCategoryLimit+1)
}

func TestSummarizeDiscreteDisjointGroups(t *testing.T) {
	y := []float64{0, 1, 3, 4}
	yrep := [][]float64{{0, 1, 3, 4}, {1, 0, 4, 3}}
	group := []string{"b", "b", "a", "a"}

	s, err := SummarizeDiscrete(y, yrep, group, 0.9, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Groups)
	assert.Equal(t, 4, s.MaxCategory)

	a := s.GroupRows("a")
	b := s.GroupRows("b")
	require.Len(t, a, 5)
	require.Len(t, b, 5)
	for x := 0; x <= 4; x++ {
		assert.Equal(t, x, a[x].X)
		assert.Equal(t, x, b[x].X)
		require.NotNil(t, a[x].Observed, "group a, x=%d", x)
		require.NotNil(t, b[x].Observed, "group b, x=%d", x)
	}
	assert.Equal(t, 0.0, *a[0].Observed, "category outside group a support is zero, not absent")
	assert.Equal(t, 1.0, *a[3].Observed)
	assert.Equal(t, 0.0, *b[4].Observed)
	assert.Equal(t, 0.0, a[1].H)
}

func TestSummarizeDiscreteAbsentAboveObservedMax(t *testing.T) {
	s, err := SummarizeDiscrete([]float64{0, 1}, [][]float64{{0, 3}, {1, 2}}, nil, 0.9, true)
	require.NoError(t, err)
	require.Len(t, s.Rows, 4)

	assert.NotNil(t, s.Rows[0].Observed)
	assert.NotNil(t, s.Rows[1].Observed)
	assert.Nil(t, s.Rows[2].Observed, "x=2 lies beyond every observed value")
	assert.Nil(t, s.Rows[3].Observed)
	assert.Greater(t, s.Rows[3].H, 0.0)
}

func TestSummarizeDiscreteProportions(t *testing.T) {
	y := []float64{0, 0, 1, 1, 1, 2}
	yrep := [][]float64{{0, 1, 1, 1, 2, 2}}
	group := []string{"a", "a", "a", "a", "b", "b"}

	s, err := SummarizeDiscrete(y, yrep, group, 0.9, false)
	require.NoError(t, err)
	assert.Equal(t, "Proportion", s.StatisticLabel())

	a := s.GroupRows("a")
	assert.InDelta(t, 0.5, *a[0].Observed, 1e-12)
	assert.InDelta(t, 0.5, *a[1].Observed, 1e-12)
	assert.InDelta(t, 0.75, a[1].M, 1e-12, "3 of group a's 4 replicate values are 1")

	b := s.GroupRows("b")
	assert.InDelta(t, 0.5, *b[2].Observed, 1e-12)
	assert.InDelta(t, 1.0, b[2].M, 1e-12)
}
