package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spektr-org/mcmcviz/engine"
)

// ============================================================================
// OUTPUT: json, pretty, csv, text
// ============================================================================

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func writeResult(w io.Writer, result *engine.Result, format string) error {
	switch format {
	case "csv":
		return writeCSV(w, result)
	case "text":
		_, err := fmt.Fprintln(w, renderText(result))
		return err
	default:
		return writeJSON(w, result, format == "pretty")
	}
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v any, pretty bool) error {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// CSV OUTPUT: tables as-is, plots as one row per mark
// ============================================================================

var markHeader = []string{"layer", "geom", "panel", "series", "label", "x", "y", "xmin", "xmax", "ymin", "ymax", "lower", "upper"}

func writeCSV(w io.Writer, result *engine.Result) error {
	cw := csv.NewWriter(w)
	switch {
	case result.TableData != nil:
		writeTableCSV(cw, result.TableData)
	case result.Plot != nil:
		writePlotCSV(cw, result.Plot)
	case result.Data != nil:
		_ = cw.Write([]string{"label", "value"})
		_ = cw.Write([]string{"Result", result.Data.Value})
		for _, d := range result.Data.Details {
			_ = cw.Write([]string{d.Label, d.Value})
		}
	default:
		_ = cw.Write([]string{"Result", "No data"})
	}
	cw.Flush()
	return cw.Error()
}

func writeTableCSV(cw *csv.Writer, t *engine.TableData) {
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	_ = cw.Write(header)
	for _, row := range t.Rows {
		_ = cw.Write(row)
	}
}

func writePlotCSV(cw *csv.Writer, p *engine.Plot) {
	_ = cw.Write(markHeader)
	for _, l := range p.Layers {
		for _, m := range l.Marks {
			_ = cw.Write([]string{
				l.Name, string(l.Geom), m.Panel, m.Series, m.Label,
				fmtNum(m.X), fmtNum(m.Y),
				fmtNum(m.XMin), fmtNum(m.XMax),
				fmtNum(m.YMin), fmtNum(m.YMax),
				fmtNum(m.Lower), fmtNum(m.Upper),
			})
		}
	}
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func renderText(result *engine.Result) string {
	var blocks []string
	if result.Title != "" {
		blocks = append(blocks, titleStyle.Render(result.Title))
	}
	switch {
	case result.TableData != nil:
		blocks = append(blocks, renderTable(result.TableData))
	case result.Plot != nil:
		blocks = append(blocks, renderPlotSummary(result.Plot))
	case result.Data != nil:
		blocks = append(blocks, renderTextData(result.Data))
	default:
		blocks = append(blocks, "No result.")
	}
	if result.Caption != "" {
		blocks = append(blocks, mutedStyle.Render(result.Caption))
	}
	for _, w := range result.Warnings {
		blocks = append(blocks, warnStyle.Render("! "+w))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderTable(t *engine.TableData) string {
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(header...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if col < len(t.Columns) && t.Columns[col].Align == "right" {
				s = s.Align(lipgloss.Right)
			}
			if row == table.HeaderRow {
				s = s.Bold(true)
			}
			return s
		})
	out := tbl.String()
	if t.Summary != nil {
		var parts []string
		for _, c := range t.Columns {
			if v, ok := t.Summary.Values[c.Key]; ok {
				parts = append(parts, c.Label+" "+v)
			}
		}
		for _, k := range sortedSummaryKeys(t) {
			parts = append(parts, k+" "+t.Summary.Values[k])
		}
		out += "\n" + mutedStyle.Render(t.Summary.Label+": "+strings.Join(parts, ", "))
	}
	return out
}

// sortedSummaryKeys lists summary values not tied to a column.
func sortedSummaryKeys(t *engine.TableData) []string {
	cols := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		cols[c.Key] = true
	}
	var keys []string
	for k := range t.Summary.Values {
		if !cols[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func renderPlotSummary(p *engine.Plot) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("%s (%s scheme)", p.Kind, p.Scheme))
	for _, l := range p.Layers {
		name := l.Name
		if name == "" {
			name = "-"
		}
		lines = append(lines, fmt.Sprintf("  %-14s %-10s %d marks", name, l.Geom, len(l.Marks)))
	}
	if p.Facet != nil {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("facet by %s: %s", p.Facet.By, strings.Join(p.Facet.Panels, ", "))))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderTextData(d *engine.TextData) string {
	lines := []string{lipgloss.NewStyle().Bold(true).Render(d.Value)}
	width := 0
	for _, det := range d.Details {
		if len(det.Label) > width {
			width = len(det.Label)
		}
	}
	for _, det := range d.Details {
		lines = append(lines, fmt.Sprintf("  %-*s  %s", width, det.Label, det.Value))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
