package schema

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// REFINE: Consumer overrides applied to a discovered schema
// ============================================================================
//
// Auto-discovery names parameters after their headers. A refinement file
// lets the consumer give them readable names and descriptions, drop
// parameters (generated quantities, transformed parameters), and rename
// the dataset. It is applied once after discovery and never touches the
// draws themselves.
//
//   name: eight schools
//   exclude: [theta_tilde]
//   parameters:
//     mu:  {displayName: "Population mean"}
//     tau: {displayName: "Population sd", description: "Between-school scale"}
// ============================================================================

// Refinement holds consumer overrides for a discovered schema.
type Refinement struct {
	Name        string                         `yaml:"name,omitempty"`
	Description string                         `yaml:"description,omitempty"`
	Exclude     []string                       `yaml:"exclude,omitempty"` // parameter keys or base names
	Parameters  map[string]ParameterRefinement `yaml:"parameters,omitempty"`
}

// ParameterRefinement overrides the metadata of one parameter. Keyed by a
// parameter key ("theta[1]") or a base name ("theta"); exact keys win.
type ParameterRefinement struct {
	DisplayName string `yaml:"displayName,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// LoadRefinement decodes a YAML refinement. Unknown fields are errors.
func LoadRefinement(r io.Reader) (*Refinement, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var ref Refinement
	if err := dec.Decode(&ref); err != nil {
		if errors.Is(err, io.EOF) {
			return &ref, nil
		}
		return nil, fmt.Errorf("decode refinement: %w", err)
	}
	return &ref, nil
}

// Refine applies ref to a copy of draft. The draft is NOT mutated.
// Rules:
//   - Overrides may only name existing parameters or bases
//   - Refinement cannot change column roles or keys
//   - Excluding every parameter is an error
func Refine(draft *Config, ref *Refinement) (*Config, error) {
	if draft == nil {
		return nil, fmt.Errorf("draft schema is nil")
	}
	if ref == nil {
		return deepCopyConfig(draft), nil
	}

	keys := make(map[string]bool)
	bases := make(map[string]bool)
	for _, p := range draft.Parameters {
		keys[p.Key] = true
		bases[p.Base] = true
	}
	for _, name := range ref.Exclude {
		if !keys[name] && !bases[name] {
			return nil, fmt.Errorf("exclude: no parameter or base named %q", name)
		}
	}
	for name := range ref.Parameters {
		if !keys[name] && !bases[name] {
			return nil, fmt.Errorf("parameters: no parameter or base named %q", name)
		}
	}

	excluded := make(map[string]bool, len(ref.Exclude))
	for _, name := range ref.Exclude {
		excluded[name] = true
	}

	result := deepCopyConfig(draft)
	if ref.Name != "" {
		result.Name = ref.Name
	}
	if ref.Description != "" {
		result.Description = ref.Description
	}

	kept := result.Parameters[:0]
	for _, p := range result.Parameters {
		if excluded[p.Key] || excluded[p.Base] {
			result.SkippedColumns = append(result.SkippedColumns, SkippedColumn{
				Column:      p.Column,
				Reason:      "Excluded by refinement",
				Recoverable: true,
			})
			continue
		}
		applyParameterRefinement(&p, ref.Parameters)
		kept = append(kept, p)
	}
	if len(kept) == 0 && len(draft.Parameters) > 0 {
		return nil, fmt.Errorf("refinement excludes every parameter")
	}
	result.Parameters = kept
	result.RefinedAt = time.Now().Format(time.RFC3339)
	return result, nil
}

// applyParameterRefinement merges the base-level override first, then the
// exact-key override. Indexed parameters keep their index suffix on a
// base-level display name.
func applyParameterRefinement(p *ParameterMeta, overrides map[string]ParameterRefinement) {
	if o, ok := overrides[p.Base]; ok && p.Base != p.Key {
		if o.DisplayName != "" {
			p.DisplayName = o.DisplayName + p.Key[len(p.Base):]
		}
		if o.Description != "" {
			p.Description = o.Description
		}
	}
	if o, ok := overrides[p.Key]; ok {
		if o.DisplayName != "" {
			p.DisplayName = o.DisplayName
		}
		if o.Description != "" {
			p.Description = o.Description
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func deepCopyConfig(src *Config) *Config {
	dst := *src

	dst.Parameters = make([]ParameterMeta, len(src.Parameters))
	for i, p := range src.Parameters {
		dst.Parameters[i] = p
		dst.Parameters[i].Indices = append([]int(nil), p.Indices...)
	}

	dst.Diagnostics = append([]DiagnosticMeta(nil), src.Diagnostics...)
	dst.SkippedColumns = append([]SkippedColumn(nil), src.SkippedColumns...)

	if src.Metadata != nil {
		dst.Metadata = make(map[string]string, len(src.Metadata))
		for k, v := range src.Metadata {
			dst.Metadata[k] = v
		}
	}
	return &dst
}
