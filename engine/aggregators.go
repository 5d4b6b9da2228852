package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ============================================================================
// AGGREGATORS: Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView: zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// ============================================================================

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
func GroupAndAggregate(
	view RecordView,
	groupBy []string,
	measure string,
	aggregation string,
	sortBy string,
	limit int,
) []Group {
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	if len(groupBy) == 0 {
		groups = []Group{{
			Key:   "all",
			Label: "All",
			View:  view,
		}}
	} else if len(groupBy) == 1 {
		groups = groupBySingle(view, groupBy[0])
	} else {
		groups = groupByMulti(view, groupBy)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
		for j := range groups[i].SubGroups {
			aggregateGroup(&groups[i].SubGroups[j], measure, aggregation)
		}
		SortGroups(groups[i].SubGroups, sortBy)
	}

	// 3. Sort
	SortGroups(groups, sortBy)

	// 4. Limit
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

func groupByMulti(view RecordView, dimensions []string) []Group {
	if len(dimensions) < 2 {
		return groupBySingle(view, dimensions[0])
	}

	primaryGroups := groupBySingle(view, dimensions[0])
	for i := range primaryGroups {
		primaryGroups[i].SubGroups = groupBySingle(primaryGroups[i].View, dimensions[1])
	}
	return primaryGroups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case "sum":
		group.Value = SumMeasure(group.View, measure)
	case "count":
		group.Value = float64(group.Count)
	case "avg", "mean":
		group.Value = AvgMeasure(group.View, measure)
	case "median":
		group.Value = QuantileMeasure(group.View, measure, 0.5)
	case "sd":
		group.Value = stats.StdDev(MeasureValues(group.View, measure))
	case "max":
		group.Value = MaxMeasure(group.View, measure)
	case "min":
		group.Value = MinMeasure(group.View, measure)
	case "none":
		// pass through
	default:
		group.Value = SumMeasure(group.View, measure)
	}
}

// MeasureValues copies a named measure out of a view.
func MeasureValues(view RecordView, measure string) []float64 {
	out := make([]float64, view.Len())
	for i := range out {
		out[i] = view.Measure(i, measure)
	}
	return out
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure computes average of a named measure.
func AvgMeasure(view RecordView, measure string) float64 {
	if view.Len() == 0 {
		return 0
	}
	return stats.Mean(MeasureValues(view, measure))
}

// MaxMeasure returns the largest value of a named measure.
func MaxMeasure(view RecordView, measure string) float64 {
	if view.Len() == 0 {
		return 0
	}
	_, max := stats.Bounds(MeasureValues(view, measure))
	return max
}

// MinMeasure returns the smallest value of a named measure.
func MinMeasure(view RecordView, measure string) float64 {
	if view.Len() == 0 {
		return 0
	}
	min, _ := stats.Bounds(MeasureValues(view, measure))
	return min
}

// QuantileMeasure returns the q-th sample quantile of a named measure.
func QuantileMeasure(view RecordView, measure string, q float64) float64 {
	if view.Len() == 0 {
		return math.NaN()
	}
	return Quantiles(MeasureValues(view, measure), q)[0]
}

// Quantiles returns sample quantiles of xs at each probability, using the
// Hyndman–Fan type 7 estimator (linear interpolation between order
// statistics at position 1 + p(n-1)). q ≤ 0 yields the minimum, q ≥ 1 the
// maximum. xs is not modified.
func Quantiles(xs []float64, probs ...float64) []float64 {
	s := stats.Sample{Xs: append([]float64(nil), xs...)}
	s.Sort()
	out := make([]float64, len(probs))
	n := len(s.Xs)
	for i, p := range probs {
		switch {
		case n == 0 || math.IsNaN(p):
			out[i] = math.NaN()
		case p <= 0:
			out[i] = s.Xs[0]
		case p >= 1:
			out[i] = s.Xs[n-1]
		default:
			h := p * float64(n-1)
			lo := int(h)
			if lo+1 >= n {
				out[i] = s.Xs[n-1]
				continue
			}
			out[i] = s.Xs[lo] + (h-float64(lo))*(s.Xs[lo+1]-s.Xs[lo])
		}
	}
	return out
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case "numeric_asc":
		sort.SliceStable(groups, func(i, j int) bool { return numericKey(groups[i].Key) < numericKey(groups[j].Key) })
	case "label_asc", "alpha_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	case "label_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key > groups[j].Key })
	default:
		// preserve grouping order
	}
}

func numericKey(key string) float64 {
	v, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

var printer = message.NewPrinter(language.English)

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatNumber prints whole numbers without decimals and anything else with
// the given number of decimal places.
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "NA"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatPercent formats a probability as "90%", keeping at most two
// decimals.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(RoundTo(p*100, 2), 'f', -1, 64) + "%"
}

// RoundTo rounds to the given number of decimal places.
func RoundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// UniqueValues returns distinct values for a dimension across a view,
// in order of first appearance.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForDimension returns a capitalized label for a dimension.
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	return strings.ToUpper(dimension[:1]) + dimension[1:]
}

// LabelForStatistic returns the axis label for a count/proportion summary.
func LabelForStatistic(freq bool) string {
	if freq {
		return "Count"
	}
	return "Proportion"
}
