package engine

import (
	"math"
)

// MaxCategoryLimit bounds the outcome values the discrete summaries accept.
// Every category in [0, max] gets a row, so larger values are rejected
// before any tabulation.
const MaxCategoryLimit = 1 << 20

// isWholeNumber reports whether v is finite and integral.
func isWholeNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v == math.Trunc(v)
}

// validateY checks observed data for recipes that accept continuous values.
func validateY(y []float64) error {
	if len(y) == 0 {
		return validationErrorf("y", "must contain at least one value")
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validationErrorf("y", "value at position %d is not finite", i+1)
		}
	}
	return nil
}

// validateYrep checks an S×N replicate matrix against len(y).
func validateYrep(yrep [][]float64, n int) error {
	if len(yrep) == 0 {
		return validationErrorf("yrep", "must contain at least one replicate draw")
	}
	for s, row := range yrep {
		if len(row) != n {
			return validationErrorf("yrep", "length mismatch: draw %d has %d columns, y has %d values", s+1, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return validationErrorf("yrep", "value at row %d, column %d is not finite", s+1, j+1)
			}
		}
	}
	return nil
}

// validateDiscreteY checks that every value is a non-negative whole number.
func validateDiscreteY(y []float64) error {
	if len(y) == 0 {
		return validationErrorf("y", "must contain at least one value")
	}
	for i, v := range y {
		if !isWholeNumber(v) {
			return validationErrorf("y", "expected whole numbers, found %v at position %d", v, i+1)
		}
		if v < 0 {
			return validationErrorf("y", "expected non-negative counts, found %v at position %d", v, i+1)
		}
		if v > MaxCategoryLimit {
			return validationErrorf("y", "value %v at position %d exceeds the maximum category %d", v, i+1, MaxCategoryLimit)
		}
	}
	return nil
}

func validateDiscreteYrep(yrep [][]float64, n int) error {
	if len(yrep) == 0 {
		return validationErrorf("yrep", "must contain at least one replicate draw")
	}
	for s, row := range yrep {
		for j, v := range row {
			if !isWholeNumber(v) {
				return validationErrorf("yrep", "expected whole numbers, found %v at row %d, column %d", v, s+1, j+1)
			}
			if v < 0 {
				return validationErrorf("yrep", "expected non-negative counts, found %v at row %d, column %d", v, s+1, j+1)
			}
			if v > MaxCategoryLimit {
				return validationErrorf("yrep", "value %v at row %d, column %d exceeds the maximum category %d", v, s+1, j+1, MaxCategoryLimit)
			}
		}
	}
	for s, row := range yrep {
		if len(row) != n {
			return validationErrorf("yrep", "length mismatch: draw %d has %d columns, y has %d values", s+1, len(row), n)
		}
	}
	return nil
}

// validateGroup checks an optional grouping label against len(y).
func validateGroup(group []string, n int) error {
	if group == nil {
		return nil
	}
	if len(group) != n {
		return validationErrorf("group", "length mismatch: %d labels for %d observations", len(group), n)
	}
	return nil
}

// validateProb checks an interval mass.
func validateProb(arg string, prob float64) error {
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return validationErrorf(arg, "must be between 0 and 1, got %v", prob)
	}
	return nil
}

// intervalProbs returns the sorted tail/median levels for a central mass.
func intervalProbs(prob float64) [3]float64 {
	alpha := (1 - prob) / 2
	return [3]float64{alpha, 0.5, 1 - alpha}
}
