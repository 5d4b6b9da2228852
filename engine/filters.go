package engine

import (
	"regexp"
)

// ============================================================================
// FILTERS: Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent): zero data copy.
// ============================================================================

// Filters define which records to include.
// Keys are dimension names. A record passes a dimension if its value equals
// one of Dimensions[key] or matches one of Patterns[key].
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions,omitempty"`
	Patterns   map[string][]string `json:"patterns,omitempty"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	for _, pats := range f.Patterns {
		if len(pats) > 0 {
			return false
		}
	}
	return true
}

type dimensionMatcher struct {
	exact    map[string]bool
	patterns []*regexp.Regexp
}

func (m dimensionMatcher) match(val string) bool {
	if m.exact[val] {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(val) {
			return true
		}
	}
	return false
}

// ApplyFilters returns a view of records matching all dimension filters.
// Empty filter = no restriction (returns original view). A pattern that
// does not compile is a ValidationError.
func ApplyFilters(view RecordView, filters Filters) (RecordView, error) {
	if filters.IsEmpty() {
		return view, nil
	}

	matchers := make(map[string]*dimensionMatcher)
	get := func(dim string) *dimensionMatcher {
		m, ok := matchers[dim]
		if !ok {
			m = &dimensionMatcher{exact: make(map[string]bool)}
			matchers[dim] = m
		}
		return m
	}
	for dim, allowed := range filters.Dimensions {
		if len(allowed) == 0 {
			continue
		}
		m := get(dim)
		for _, a := range allowed {
			m.exact[a] = true
		}
	}
	for dim, pats := range filters.Patterns {
		if len(pats) == 0 {
			continue
		}
		m := get(dim)
		for _, p := range pats {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, validationErrorf("regex_pars", "pattern %q: %v", p, err)
			}
			m.patterns = append(m.patterns, re)
		}
	}

	// Single pass: record passes if it matches ALL dimension filters
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, m := range matchers {
			if !m.match(view.Dimension(i, dim)) {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices), nil
}
