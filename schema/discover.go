package schema

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// AUTO-DISCOVERY: Heuristic classification of draws columns
// ============================================================================
// Inspects a draws CSV (CmdStan output or any wide export with one column
// per parameter) and generates a schema.Config.
//
// Classification pipeline per column:
//   1. Header → chain / iteration column by name
//   2. Header ending in "__" → sampler diagnostic
//   3. Sample values → numeric or not (non-numeric columns are skipped)
//   4. Header → base name and indices ("theta.1.2" or "theta[1,2]")
//   5. Rows → chain count and iterations per chain
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max rows to inspect for types (0 = all). Default: 1000
	RecoverColumns []string // Force-include columns that were auto-skipped as parameters
	Name           string   // Dataset name override (otherwise from metadata)
	Chains         int      // Chain count for files without a chain column (0 = 1)
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

var (
	chainHeaders     = map[string]bool{"chain": true, ".chain": true, "chain__": true, "chain_id": true}
	iterationHeaders = map[string]bool{"iteration": true, ".iteration": true, "iter": true, "draw": true, ".draw": true, "iteration__": true}
)

// samplerDescriptions documents the sampler columns CmdStan writes.
var samplerDescriptions = map[string]string{
	"lp__":          "Log density up to a constant",
	"accept_stat__": "Mean Metropolis acceptance probability of the trajectory",
	"stepsize__":    "Integrator step size",
	"treedepth__":   "Depth of the NUTS tree",
	"n_leapfrog__":  "Number of leapfrog steps",
	"divergent__":   "1 if the trajectory diverged",
	"energy__":      "Hamiltonian energy",
}

// DiscoverFromCSV generates a schema.Config by inspecting draws CSV data.
// Comment lines starting with '#' are read for "key = value" metadata and
// otherwise ignored.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	metadata := readMetadata(data)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	// 1. Read headers
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}

	// 2. Read rows
	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}
	sample := rows
	if opt.SampleSize > 0 && len(sample) > opt.SampleSize {
		sample = sample[:opt.SampleSize]
	}

	recoverSet := make(map[string]bool)
	for _, col := range opt.RecoverColumns {
		recoverSet[strings.TrimSpace(col)] = true
	}

	// 3. Classify columns
	config := &Config{
		Name:     opt.Name,
		Version:  "1.0",
		Metadata: metadata,
	}
	if config.Name == "" {
		config.Name = metadata["model"]
	}
	if config.Name == "" {
		config.Name = "Auto-discovered draws"
	}

	chainIdx := -1
	for i, raw := range headers {
		header := strings.TrimSpace(raw)
		lower := strings.ToLower(header)
		switch {
		case header == "":
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column: fmt.Sprintf("#%d", i+1),
				Reason: "Empty header",
			})
		case chainHeaders[lower] && config.ChainColumn == "":
			config.ChainColumn = header
			chainIdx = i
		case iterationHeaders[lower] && config.IterationColumn == "":
			config.IterationColumn = header
		case strings.HasSuffix(header, "__"):
			config.Diagnostics = append(config.Diagnostics, DiagnosticMeta{
				Key:         header,
				Index:       i,
				Description: samplerDescriptions[header],
			})
		case !columnIsNumeric(sample, i) && !recoverSet[header]:
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column:      header,
				Reason:      "Non-numeric values",
				Recoverable: true,
			})
		default:
			config.Parameters = append(config.Parameters, toParameter(header, i, rows))
		}
	}
	if len(config.Parameters) == 0 && len(config.Diagnostics) == 0 {
		return nil, fmt.Errorf("CSV has no numeric draw columns")
	}

	// 4. Chains and iterations
	if chainIdx >= 0 {
		counts := make(map[string]int)
		for _, row := range rows {
			if chainIdx < len(row) {
				counts[strings.TrimSpace(row[chainIdx])]++
			}
		}
		config.Chains = len(counts)
		for _, n := range counts {
			if config.Iterations == 0 || n < config.Iterations {
				config.Iterations = n
			}
		}
	} else {
		config.Chains = opt.Chains
		if config.Chains <= 0 {
			config.Chains = 1
		}
		if len(rows)%config.Chains != 0 {
			return nil, fmt.Errorf("%d rows do not split evenly into %d chains", len(rows), config.Chains)
		}
		config.Iterations = len(rows) / config.Chains
	}

	config.DiscoveredFrom = "CSV"
	config.DiscoveredAt = time.Now().Format(time.RFC3339)
	return config, nil
}

// ============================================================================
// METADATA
// ============================================================================

var metadataLine = regexp.MustCompile(`^#\s*([A-Za-z_][A-Za-z0-9_ ]*?)\s*=\s*(.*?)\s*(?:\(Default\))?\s*$`)

// readMetadata collects "# key = value" pairs from comment lines. Later
// keys win. Keys are snake_cased.
func readMetadata(data []byte) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "#") {
			continue
		}
		m := metadataLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out[toSnakeCase(m[1])] = m[2]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

// columnIsNumeric requires 80%+ of non-empty values to parse as numbers.
// Stan writes "inf", "-inf" and "nan", which count as numeric.
func columnIsNumeric(rows [][]string, index int) bool {
	var total, numeric int
	for _, row := range rows {
		if index >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[index])
		if v == "" {
			continue
		}
		total++
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			numeric++
		}
	}
	return total > 0 && numeric >= int(float64(total)*0.8)
}

var (
	bracketName = regexp.MustCompile(`^(.+?)\[\s*(\d+(?:\s*,\s*\d+)*)\s*\]$`)
	dottedName  = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)((?:\.\d+)+)$`)
)

// ParseParameterName splits "theta[1,2]" or "theta.1.2" into its base name
// and indices. Scalars return no indices.
func ParseParameterName(name string) (base string, indices []int) {
	if m := bracketName.FindStringSubmatch(name); m != nil {
		for _, part := range strings.Split(m[2], ",") {
			n, _ := strconv.Atoi(strings.TrimSpace(part))
			indices = append(indices, n)
		}
		return m[1], indices
	}
	if m := dottedName.FindStringSubmatch(name); m != nil {
		for _, part := range strings.Split(strings.TrimPrefix(m[2], "."), ".") {
			n, _ := strconv.Atoi(part)
			indices = append(indices, n)
		}
		return m[1], indices
	}
	return name, nil
}

// NormalizeParameterName rewrites any indexed form to "base[i,j]".
func NormalizeParameterName(name string) string {
	base, idx := ParseParameterName(name)
	if len(idx) == 0 {
		return base
	}
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = strconv.Itoa(n)
	}
	return base + "[" + strings.Join(parts, ",") + "]"
}

func toParameter(header string, index int, rows [][]string) ParameterMeta {
	base, idx := ParseParameterName(header)
	key := NormalizeParameterName(header)
	return ParameterMeta{
		Key:         key,
		Column:      header,
		Index:       index,
		Base:        base,
		Indices:     idx,
		DisplayName: key,
		Constant:    columnIsConstant(rows, index),
	}
}

func columnIsConstant(rows [][]string, index int) bool {
	first := ""
	for i, row := range rows {
		if index >= len(row) {
			return false
		}
		v := strings.TrimSpace(row[index])
		if i == 0 {
			first = v
			continue
		}
		if v != first {
			return false
		}
	}
	return true
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Step size" or "maxDepth" → "step_size" / "max_depth".
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' && i > 0 {
			prev := s[i-1]
			if (prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9') {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	out := strings.ToLower(b.String())
	out = strings.ReplaceAll(out, " ", "_")
	out = strings.ReplaceAll(out, "-", "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

// SortedBases returns base parameter names in alphabetical order.
func (c Config) SortedBases() []string {
	var out []string
	for b := range c.Bases() {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}
