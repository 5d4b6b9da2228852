package engine

import (
	"strconv"
)

// ============================================================================
// TABLE BUILDER: Produces TableData from summaries
// ============================================================================
// Numbers are formatted for display; the raw values stay available on the
// summary types themselves.
// ============================================================================

func textColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "text", Align: "left"}
}

func dimensionColumn(dimension string) Column {
	return textColumn(dimension, LabelForDimension(dimension))
}

func numberColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "number", Align: "right"}
}

// BuildSummaryTable lays out a DiscreteSummary as columns
// [group], x, y_obs, l, m, h. Absent observed values are empty cells.
func BuildSummaryTable(s *DiscreteSummary, title string) *TableData {
	decimals := 0
	if !s.Freq {
		decimals = 4
	}

	var columns []Column
	if s.Grouped {
		columns = append(columns, dimensionColumn(DimGroup))
	}
	columns = append(columns,
		numberColumn("x", "x"),
		numberColumn("y_obs", "y_obs"),
		numberColumn("l", "l ("+FormatPercent(s.Probs[0])+")"),
		numberColumn("m", "m (50%)"),
		numberColumn("h", "h ("+FormatPercent(s.Probs[2])+")"),
	)

	rows := make([][]string, 0, len(s.Rows))
	var observed float64
	for _, r := range s.Rows {
		var row []string
		if s.Grouped {
			row = append(row, r.Group)
		}
		obs := ""
		if r.Observed != nil {
			obs = FormatNumber(RoundTo(*r.Observed, decimals), decimals)
			observed += *r.Observed
		}
		row = append(row,
			strconv.Itoa(r.X),
			obs,
			FormatNumber(RoundTo(r.L, decimals), decimals),
			FormatNumber(RoundTo(r.M, decimals), decimals),
			FormatNumber(RoundTo(r.H, decimals), decimals),
		)
		rows = append(rows, row)
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: "Total",
			Values: map[string]string{
				"y_obs":      FormatNumber(RoundTo(observed, decimals), decimals),
				"replicates": FormatInt(s.Replicates),
			},
		},
	}
}

// BuildIntervalTable lays out per-observation replicate intervals.
func BuildIntervalTable(rows []ObservationInterval, title string) *TableData {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			strconv.Itoa(r.Index),
			FormatNumber(r.Observed, 3),
			FormatNumber(r.OuterLo, 3),
			FormatNumber(r.InnerLo, 3),
			FormatNumber(r.Median, 3),
			FormatNumber(r.InnerHi, 3),
			FormatNumber(r.OuterHi, 3),
		}
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			numberColumn(MeasureIndex, "Index"),
			numberColumn("y_obs", "y_obs"),
			numberColumn("ll", "ll"),
			numberColumn("l", "l"),
			numberColumn("m", "m"),
			numberColumn("h", "h"),
			numberColumn("hh", "hh"),
		},
		Rows: out,
	}
}

// BuildParameterIntervalTable lays out posterior intervals per parameter.
func BuildParameterIntervalTable(rows []ParameterInterval, title string) *TableData {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Parameter,
			FormatNumber(r.OuterLo, 3),
			FormatNumber(r.InnerLo, 3),
			FormatNumber(r.Median, 3),
			FormatNumber(r.InnerHi, 3),
			FormatNumber(r.OuterHi, 3),
		}
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			dimensionColumn(DimParameter),
			numberColumn("ll", "ll"),
			numberColumn("l", "l"),
			numberColumn("m", "m"),
			numberColumn("h", "h"),
			numberColumn("hh", "hh"),
		},
		Rows: out,
	}
}

// BuildDiagnosticsTable lays out rated R-hat or neff ratio values. The
// summary counts parameters per rating.
func BuildDiagnosticsTable(rows []DiagnosticRow, valueLabel, title string) *TableData {
	out := make([][]string, len(rows))
	counts := map[Rating]int{}
	for i, r := range rows {
		out[i] = []string{r.Parameter, FormatNumber(RoundTo(r.Value, 3), 3), string(r.Rating)}
		counts[r.Rating]++
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			dimensionColumn(DimParameter),
			numberColumn(MeasureValue, valueLabel),
			textColumn("rating", "Rating"),
		},
		Rows: out,
		Summary: &Summary{
			Label: "Parameters",
			Values: map[string]string{
				string(RatingLow):  FormatInt(counts[RatingLow]),
				string(RatingOK):   FormatInt(counts[RatingOK]),
				string(RatingHigh): FormatInt(counts[RatingHigh]),
			},
		},
	}
}
