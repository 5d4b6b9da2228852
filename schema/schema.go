package schema

import (
	"strconv"
	"strings"
)

// ============================================================================
// SCHEMA: Describes the shape of a posterior draws CSV
// ============================================================================
// Auto-discovered from the CSV header and rows (DiscoverFromCSV) and
// optionally refined from a YAML overrides file (Refine).
// helpers.ParseDrawsCSV uses it to split columns into parameters and
// sampler diagnostics, and to find the chain and iteration columns.
// ============================================================================

// Config describes the complete shape of a draws file.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Parameters  []ParameterMeta  `json:"parameters" yaml:"parameters"`
	Diagnostics []DiagnosticMeta `json:"diagnostics" yaml:"diagnostics"`

	// Layout. Empty column names mean the file has no such column.
	ChainColumn     string `json:"chainColumn,omitempty" yaml:"chainColumn,omitempty"`
	IterationColumn string `json:"iterationColumn,omitempty" yaml:"iterationColumn,omitempty"`
	Chains          int    `json:"chains" yaml:"chains"`
	Iterations      int    `json:"iterations" yaml:"iterations"` // per chain

	// Sampler settings read from "# key = value" comment lines.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty" yaml:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty" yaml:"discoveredAt,omitempty"`
	RefinedAt      string `json:"refinedAt,omitempty" yaml:"refinedAt,omitempty"`

	// Columns skipped during auto-discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" yaml:"skippedColumns,omitempty"`
}

// ParameterMeta describes one model parameter column.
type ParameterMeta struct {
	// Key is the normalized name, e.g. "theta[1,2]"; Column is the header
	// as written, e.g. "theta.1.2".
	Key         string `json:"key" yaml:"key"`
	Column      string `json:"column" yaml:"column"`
	Index       int    `json:"index" yaml:"index"`
	Base        string `json:"base" yaml:"base"`
	Indices     []int  `json:"indices,omitempty" yaml:"indices,omitempty"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Constant    bool   `json:"constant,omitempty" yaml:"constant,omitempty"`
}

// DiagnosticMeta describes one sampler diagnostic column (name ends in "__").
type DiagnosticMeta struct {
	Key         string `json:"key" yaml:"key"`
	Index       int    `json:"index" yaml:"index"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column      string `json:"column" yaml:"column"`
	Reason      string `json:"reason" yaml:"reason"`
	Recoverable bool   `json:"recoverable" yaml:"recoverable"` // Can be restored if consumer overrides
}

// ParameterNames returns all normalized parameter keys in column order.
func (c Config) ParameterNames() []string {
	keys := make([]string, len(c.Parameters))
	for i, p := range c.Parameters {
		keys[i] = p.Key
	}
	return keys
}

// DiagnosticNames returns all sampler diagnostic keys in column order.
func (c Config) DiagnosticNames() []string {
	keys := make([]string, len(c.Diagnostics))
	for i, d := range c.Diagnostics {
		keys[i] = d.Key
	}
	return keys
}

// Bases groups parameter keys by base name, preserving column order.
func (c Config) Bases() map[string][]string {
	out := make(map[string][]string)
	for _, p := range c.Parameters {
		out[p.Base] = append(out[p.Base], p.Key)
	}
	return out
}

// HasDiagnostic reports whether a sampler column is present.
func (c Config) HasDiagnostic(key string) bool {
	for _, d := range c.Diagnostics {
		if d.Key == key {
			return true
		}
	}
	return false
}

// MaxTreedepth returns the sampler's max_depth setting, or 0 if unknown.
func (c Config) MaxTreedepth() int {
	fields := strings.Fields(c.Metadata["max_depth"])
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return n
}
