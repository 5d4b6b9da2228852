package engine

import (
	"math"
)

// ============================================================================
// DISCRETE-OUTCOME SUMMARIZER
// ============================================================================
// Buckets observed and replicated discrete outcomes into per-category
// counts or proportions and attaches quantile bands across replicates.
//
// Pipeline:
//   1. Validate y, yrep, group, prob (fail before any computation)
//   2. Category domain = [0, max(y ∪ yrep)], shared by every group
//   3. Partition observations by group (GroupAndAggregate on a DomainView)
//   4. Per group and replicate: zero-filled tabulation → count or proportion
//   5. Per group and category: l/m/h quantiles across replicates
//   6. Outer-join observed tabulation; observed is absent above max(y)
// ============================================================================

// DiscreteSummary is the per-(group, category) summary table.
type DiscreteSummary struct {
	Grouped     bool         `json:"grouped"`
	Freq        bool         `json:"freq"`
	Prob        float64      `json:"prob"`
	Probs       [3]float64   `json:"probs"`
	MaxCategory int          `json:"maxCategory"`
	Groups      []string     `json:"groups,omitempty"`
	Replicates  int          `json:"replicates"`
	Rows        []SummaryRow `json:"rows"`
}

// SummaryRow is one (group, category) cell. Observed is nil when the
// category lies beyond every observed value, which is distinct from an
// observed count of zero.
type SummaryRow struct {
	Group    string   `json:"group,omitempty"`
	X        int      `json:"x"`
	Observed *float64 `json:"y_obs"`
	L        float64  `json:"l"`
	M        float64  `json:"m"`
	H        float64  `json:"h"`
}

// StatisticLabel is the default axis label for the summarized statistic.
func (s *DiscreteSummary) StatisticLabel() string {
	return LabelForStatistic(s.Freq)
}

// GroupRows returns the rows of one group in category order.
func (s *DiscreteSummary) GroupRows(group string) []SummaryRow {
	var out []SummaryRow
	for _, r := range s.Rows {
		if r.Group == group {
			out = append(out, r)
		}
	}
	return out
}

type outcome struct {
	index int
	group string
}

var outcomeAdapter = NewDomainAdapter[outcome]().
	Dimension(DimGroup, func(o outcome) string { return o.group }).
	Measure(MeasureIndex, func(o outcome) float64 { return float64(o.index) })

// SummarizeDiscrete summarizes observed outcomes y against replicate draws
// yrep (S rows of len(y) values), optionally stratified by group. prob is
// the central mass of the l/h band; freq selects counts over proportions.
func SummarizeDiscrete(y []float64, yrep [][]float64, group []string, prob float64, freq bool) (*DiscreteSummary, error) {
	if err := validateProb("prob", prob); err != nil {
		return nil, err
	}
	if err := validateDiscreteY(y); err != nil {
		return nil, err
	}
	if err := validateDiscreteYrep(yrep, len(y)); err != nil {
		return nil, err
	}
	if err := validateGroup(group, len(y)); err != nil {
		return nil, err
	}

	probs := intervalProbs(prob)
	maxY := int(maxOf(y))
	maxCat := maxY
	for _, row := range yrep {
		if m := int(maxOf(row)); m > maxCat {
			maxCat = m
		}
	}

	groups := partitionOutcomes(len(y), group)

	summary := &DiscreteSummary{
		Grouped:     group != nil,
		Freq:        freq,
		Prob:        prob,
		Probs:       probs,
		MaxCategory: maxCat,
		Replicates:  len(yrep),
		Rows:        make([]SummaryRow, 0, len(groups)*(maxCat+1)),
	}

	for _, g := range groups {
		idx := groupIndices(g.View)
		n := float64(len(idx))
		if summary.Grouped {
			summary.Groups = append(summary.Groups, g.Key)
		}

		// perCategory[x][s] = statistic of category x in replicate s
		perCategory := make([][]float64, maxCat+1)
		for x := range perCategory {
			perCategory[x] = make([]float64, len(yrep))
		}
		for s, row := range yrep {
			counts := countCategories(row, idx, maxCat)
			for x, c := range counts {
				if !freq {
					c /= n
				}
				perCategory[x][s] = c
			}
		}

		observed := countCategories(y, idx, maxY)

		for x := 0; x <= maxCat; x++ {
			q := Quantiles(perCategory[x], probs[:]...)
			row := SummaryRow{Group: g.Key, X: x, L: q[0], M: q[1], H: q[2]}
			if x <= maxY {
				v := observed[x]
				if !freq {
					v /= n
				}
				row.Observed = &v
			}
			summary.Rows = append(summary.Rows, row)
		}
	}

	return summary, nil
}

// partitionOutcomes groups observation indices by label, labels sorted.
// A nil group yields a single unlabeled group.
func partitionOutcomes(n int, group []string) []Group {
	outcomes := make([]outcome, n)
	for i := range outcomes {
		outcomes[i] = outcome{index: i}
		if group != nil {
			outcomes[i].group = group[i]
		}
	}
	return GroupAndAggregate(outcomeAdapter.Bind(outcomes), []string{DimGroup}, MeasureIndex, "count", "label_asc", 0)
}

func groupIndices(view RecordView) []int {
	idx := make([]int, view.Len())
	for i := range idx {
		idx[i] = int(view.Measure(i, MeasureIndex))
	}
	return idx
}

// countCategories tabulates values[idx] over categories 0..maxCat,
// zero-filling unseen categories. Values above maxCat are dropped.
func countCategories(values []float64, idx []int, maxCat int) []float64 {
	counts := make([]float64, maxCat+1)
	for _, i := range idx {
		x := int(values[i])
		if x >= 0 && x <= maxCat {
			counts[x]++
		}
	}
	return counts
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	if math.IsInf(m, -1) {
		return 0
	}
	return m
}
