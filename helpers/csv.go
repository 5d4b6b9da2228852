package helpers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/mcmcviz/engine"
	"github.com/spektr-org/mcmcviz/schema"
)

// ============================================================================
// CSV HELPER: Parses CSV data into engine inputs
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, S3, a sampler's
// output directory). These helpers turn the raw bytes into y, yrep, group
// labels, Draws and a long-format diagnostics view.
// ============================================================================

func newReader(data []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r
}

func readAll(data []byte) ([][]string, error) {
	rows, err := newReader(data).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	out := rows[:0]
	for _, row := range rows {
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// isHeader reports whether a row has any non-numeric cell.
func isHeader(row []string) bool {
	for _, cell := range row {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return true
		}
	}
	return false
}

func parseFloat(cell string, row, col int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, fmt.Errorf("row %d column %d: %q is not a number", row, col, cell)
	}
	return v, nil
}

// ParseVectorCSV reads a vector such as y: either one column (optionally
// with a header) or one row of values.
func ParseVectorCSV(data []byte) ([]float64, error) {
	rows, err := readAll(data)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && isHeader(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no values")
	}

	if len(rows) == 1 {
		out := make([]float64, len(rows[0]))
		for j, cell := range rows[0] {
			if out[j], err = parseFloat(cell, 1, j+1); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != 1 {
			return nil, fmt.Errorf("row %d has %d columns, want 1", i+1, len(row))
		}
		if out[i], err = parseFloat(row[0], i+1, 1); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ParseMatrixCSV reads yrep: one row per replicate, one column per
// observation. A header row is skipped.
func ParseMatrixCSV(data []byte) ([][]float64, error) {
	rows, err := readAll(data)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && isHeader(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no replicates")
	}

	width := len(rows[0])
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, row 1 has %d", i+1, len(row), width)
		}
		out[i] = make([]float64, width)
		for j, cell := range row {
			if out[i][j], err = parseFloat(cell, i+1, j+1); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// ParseGroupCSV reads one group label per row from the first column.
// A first row reading "group" is treated as a header.
func ParseGroupCSV(data []byte) ([]string, error) {
	rows, err := readAll(data)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && strings.EqualFold(strings.TrimSpace(rows[0][0]), engine.DimGroup) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no group labels")
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = strings.TrimSpace(row[0])
	}
	return out, nil
}

// ============================================================================
// DRAWS
// ============================================================================

// DiagnosticRow is one sampler diagnostic value in long format.
type DiagnosticRow struct {
	Chain     string
	Parameter string
	Iteration int
	Value     float64
}

var diagnosticAdapter = engine.NewDomainAdapter[DiagnosticRow]().
	Dimension(engine.DimChain, func(r DiagnosticRow) string { return r.Chain }).
	Dimension(engine.DimParameter, func(r DiagnosticRow) string { return r.Parameter }).
	Measure(engine.MeasureIteration, func(r DiagnosticRow) float64 { return float64(r.Iteration) }).
	Measure(engine.MeasureValue, func(r DiagnosticRow) float64 { return r.Value })

// DiagnosticsView wraps diagnostic rows as a RecordView.
func DiagnosticsView(rows []DiagnosticRow) engine.RecordView {
	return diagnosticAdapter.Bind(rows)
}

// ParseDrawsCSV reads a draws CSV described by cfg. Parameter columns
// become Draws; sampler columns ("__" suffix) become a long-format
// diagnostics view. Chains are relabeled 1..n in order of first
// appearance. Without a chain column the rows are split evenly into
// cfg.Chains chains.
func ParseDrawsCSV(data []byte, cfg *schema.Config) (*engine.Draws, engine.RecordView, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("schema is nil")
	}
	reader := newReader(data)
	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[strings.TrimSpace(h)] = i
	}
	lookup := func(name string) (int, error) {
		i, ok := col[name]
		if !ok {
			return 0, fmt.Errorf("column %q not found", name)
		}
		return i, nil
	}

	paramCols := make([]int, len(cfg.Parameters))
	for i, p := range cfg.Parameters {
		if paramCols[i], err = lookup(p.Column); err != nil {
			return nil, nil, err
		}
	}
	diagCols := make([]int, len(cfg.Diagnostics))
	for i, d := range cfg.Diagnostics {
		if diagCols[i], err = lookup(d.Key); err != nil {
			return nil, nil, err
		}
	}
	chainCol, iterCol := -1, -1
	if cfg.ChainColumn != "" {
		if chainCol, err = lookup(cfg.ChainColumn); err != nil {
			return nil, nil, err
		}
	}
	if cfg.IterationColumn != "" {
		if iterCol, err = lookup(cfg.IterationColumn); err != nil {
			return nil, nil, err
		}
	}

	// ── Rows → chains ─────────────────────────────────────────────────────
	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if len(row) < len(headers) {
			return nil, nil, fmt.Errorf("row %d has %d columns, header has %d", len(rows)+1, len(row), len(headers))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("CSV has no data rows")
	}

	chainOf, err := assignChains(rows, chainCol, cfg.Chains)
	if err != nil {
		return nil, nil, err
	}

	var (
		chains [][][]float64
		diags  []DiagnosticRow
	)
	for r, row := range rows {
		c := chainOf[r]
		for len(chains) <= c {
			chains = append(chains, nil)
		}
		iter := len(chains[c]) + 1
		if iterCol >= 0 {
			v, err := parseFloat(row[iterCol], r+1, iterCol+1)
			if err != nil {
				return nil, nil, err
			}
			iter = int(v)
		}

		values := make([]float64, len(paramCols))
		for i, j := range paramCols {
			if values[i], err = parseFloat(row[j], r+1, j+1); err != nil {
				return nil, nil, err
			}
		}
		chains[c] = append(chains[c], values)

		for i, j := range diagCols {
			v, err := parseFloat(row[j], r+1, j+1)
			if err != nil {
				return nil, nil, err
			}
			diags = append(diags, DiagnosticRow{
				Chain:     strconv.Itoa(c + 1),
				Parameter: cfg.Diagnostics[i].Key,
				Iteration: iter,
				Value:     v,
			})
		}
	}

	var draws *engine.Draws
	if len(paramCols) > 0 {
		draws, err = engine.NewDraws(cfg.ParameterNames(), chains)
		if err != nil {
			return nil, nil, err
		}
	}
	return draws, DiagnosticsView(diags), nil
}

// assignChains maps each row to a zero-based chain index.
func assignChains(rows [][]string, chainCol, chains int) ([]int, error) {
	out := make([]int, len(rows))
	if chainCol >= 0 {
		index := make(map[string]int)
		for r, row := range rows {
			label := strings.TrimSpace(row[chainCol])
			c, ok := index[label]
			if !ok {
				c = len(index)
				index[label] = c
			}
			out[r] = c
		}
		return out, nil
	}

	if chains <= 0 {
		chains = 1
	}
	if len(rows)%chains != 0 {
		return nil, fmt.Errorf("%d rows do not split evenly into %d chains", len(rows), chains)
	}
	per := len(rows) / chains
	for r := range rows {
		out[r] = r / per
	}
	return out, nil
}
