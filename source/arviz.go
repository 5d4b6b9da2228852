package source

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spektr-org/mcmcviz/engine"
	"github.com/spektr-org/mcmcviz/helpers"
)

// ============================================================================
// ARVIZ: InferenceData exported as JSON
// ============================================================================
// Layout (InferenceData.to_dict / to_json):
//
//   {
//     "posterior":    {"mu": [[...draws...], ...], "theta": [[[..], ..], ..]},
//     "sample_stats": {"lp": [[...]], "diverging": [[...]], ...}
//   }
//
// Every variable is nested as chain × draw × (shape...). Non-scalar
// posterior variables are flattened to "theta[1]", "theta[1,2]", ...
// with 1-based indices in row-major order.
// ============================================================================

// arvizNames maps ArviZ sample_stats names to canonical sampler names.
var arvizNames = map[string]string{
	"lp":              engine.ParamLogPosterior,
	"acceptance_rate": engine.ParamAcceptStat,
	"step_size":       engine.ParamStepsize,
	"tree_depth":      engine.ParamTreedepth,
	"n_steps":         engine.ParamLeapfrog,
	"diverging":       engine.ParamDivergent,
	"energy":          engine.ParamEnergy,
}

// CanonicalStatName returns the canonical name for an ArviZ sample_stats
// variable, and false if it has none.
func CanonicalStatName(name string) (string, bool) {
	c, ok := arvizNames[name]
	return c, ok
}

// ArviZ holds the posterior draws and sampler statistics of an
// InferenceData export.
type ArviZ struct {
	diagnostics

	Draws *engine.Draws
	// Ignored lists sample_stats variables with no canonical name.
	Ignored []string
}

type inferenceData struct {
	Posterior   map[string]json.RawMessage `json:"posterior"`
	SampleStats map[string]json.RawMessage `json:"sample_stats"`
}

// ReadArviZJSON decodes an InferenceData JSON export. Either group may be
// absent, but not both.
func ReadArviZJSON(data []byte) (*ArviZ, error) {
	var doc inferenceData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode InferenceData: %w", err)
	}
	if len(doc.Posterior) == 0 && len(doc.SampleStats) == 0 {
		return nil, fmt.Errorf("InferenceData has neither posterior nor sample_stats")
	}

	out := &ArviZ{}
	if len(doc.Posterior) > 0 {
		draws, err := posteriorDraws(doc.Posterior)
		if err != nil {
			return nil, fmt.Errorf("posterior: %w", err)
		}
		out.Draws = draws
	}

	var rows []helpers.DiagnosticRow
	for _, name := range sortedKeys(doc.SampleStats) {
		canonical, ok := arvizNames[name]
		if !ok {
			out.Ignored = append(out.Ignored, name)
			continue
		}
		series, err := decodeVariable(doc.SampleStats[name])
		if err != nil {
			return nil, fmt.Errorf("sample_stats %s: %w", name, err)
		}
		for c, chain := range series {
			for i, dr := range chain {
				if len(dr.values) != 1 {
					return nil, fmt.Errorf("sample_stats %s: want one value per draw, got %d", name, len(dr.values))
				}
				rows = append(rows, helpers.DiagnosticRow{
					Chain:     strconv.Itoa(c + 1),
					Parameter: canonical,
					Iteration: i + 1,
					Value:     dr.values[0],
				})
			}
		}
	}
	if len(rows) > 0 {
		out.diagnostics = diagnostics{view: helpers.DiagnosticsView(rows)}
	}
	return out, nil
}

// posteriorDraws flattens every posterior variable into Draws. Variables
// are taken in name order.
func posteriorDraws(vars map[string]json.RawMessage) (*engine.Draws, error) {
	var (
		params []string
		chains [][][]float64
	)
	for _, name := range sortedKeys(vars) {
		series, err := decodeVariable(vars[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if chains == nil {
			chains = make([][][]float64, len(series))
			for c := range series {
				chains[c] = make([][]float64, len(series[c]))
			}
		}
		if len(series) != len(chains) {
			return nil, fmt.Errorf("%s has %d chains, want %d", name, len(series), len(chains))
		}
		var names []string
		for c, chain := range series {
			if len(chain) != len(chains[c]) {
				return nil, fmt.Errorf("%s chain %d has %d draws, want %d", name, c+1, len(chain), len(chains[c]))
			}
			for i, dr := range chain {
				chains[c][i] = append(chains[c][i], dr.values...)
			}
			if c == 0 && len(chain) > 0 {
				names = flatNames(name, chain[0].shape)
			}
		}
		params = append(params, names...)
	}
	return engine.NewDraws(params, chains)
}

// draw is one draw of a variable flattened in row-major order.
type draw struct {
	shape  []int
	values []float64
}

// decodeVariable decodes chain × draw × (shape...) nested arrays.
func decodeVariable(raw json.RawMessage) ([][]draw, error) {
	var nested [][]any
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("want chain × draw arrays: %w", err)
	}
	out := make([][]draw, len(nested))
	var shape []int
	seen := false
	for c, chain := range nested {
		out[c] = make([]draw, len(chain))
		for i, v := range chain {
			d := draw{}
			if err := flatten(v, 0, &d); err != nil {
				return nil, fmt.Errorf("chain %d draw %d: %w", c+1, i+1, err)
			}
			if seen && !slices.Equal(d.shape, shape) {
				return nil, fmt.Errorf("chain %d draw %d: ragged array, shape %v differs from %v", c+1, i+1, d.shape, shape)
			}
			shape, seen = d.shape, true
			out[c][i] = d
		}
	}
	return out, nil
}

func flatten(v any, depth int, d *draw) error {
	switch x := v.(type) {
	case float64:
		d.values = append(d.values, x)
	case bool:
		if x {
			d.values = append(d.values, 1)
		} else {
			d.values = append(d.values, 0)
		}
	case []any:
		if len(d.shape) <= depth {
			d.shape = append(d.shape, len(x))
		} else if d.shape[depth] != len(x) {
			return fmt.Errorf("ragged array at depth %d", depth+1)
		}
		for _, e := range x {
			if err := flatten(e, depth+1, d); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported value %v", v)
	}
	return nil
}

// flatNames expands a variable name over its shape: theta with shape
// [2,2] gives theta[1,1], theta[1,2], theta[2,1], theta[2,2].
func flatNames(name string, shape []int) []string {
	if len(shape) == 0 {
		return []string{name}
	}
	total := 1
	for _, n := range shape {
		total *= n
	}
	out := make([]string, 0, total)
	idx := make([]int, len(shape))
	for k := 0; k < total; k++ {
		rem := k
		for j := len(shape) - 1; j >= 0; j-- {
			idx[j] = rem%shape[j] + 1
			rem /= shape[j]
		}
		parts := make([]string, len(idx))
		for j, n := range idx {
			parts[j] = strconv.Itoa(n)
		}
		out = append(out, name+"["+strings.Join(parts, ",")+"]")
	}
	return out
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
