package engine

import (
	"regexp"
	"strconv"
)

// ============================================================================
// DRAWS: iterations × chains × parameters
// ============================================================================
// Stored flat, chain-major, so one chain of one parameter is a strided
// walk and the long-format DrawsView index maps directly onto storage.
// ============================================================================

// Draws holds posterior draws for one or more chains of equal length.
type Draws struct {
	params []string
	chains int
	iters  int
	values []float64 // ((chain*iters)+iter)*len(params) + param
}

// NewDraws builds Draws from chains[c][i][p]. Every chain must have the
// same number of iterations and every iteration one value per parameter.
func NewDraws(params []string, chains [][][]float64) (*Draws, error) {
	if len(params) == 0 {
		return nil, validationErrorf("draws", "no parameters")
	}
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p == "" {
			return nil, validationErrorf("draws", "empty parameter name")
		}
		if seen[p] {
			return nil, validationErrorf("draws", "duplicate parameter %q", p)
		}
		seen[p] = true
	}
	if len(chains) == 0 || len(chains[0]) == 0 {
		return nil, validationErrorf("draws", "no iterations")
	}

	d := &Draws{
		params: append([]string(nil), params...),
		chains: len(chains),
		iters:  len(chains[0]),
	}
	d.values = make([]float64, 0, d.chains*d.iters*len(params))
	for c, chain := range chains {
		if len(chain) != d.iters {
			return nil, validationErrorf("draws", "chain %d has %d iterations, chain 1 has %d", c+1, len(chain), d.iters)
		}
		for i, iter := range chain {
			if len(iter) != len(params) {
				return nil, validationErrorf("draws", "chain %d iteration %d has %d values for %d parameters", c+1, i+1, len(iter), len(params))
			}
			d.values = append(d.values, iter...)
		}
	}
	return d, nil
}

// Parameters returns the parameter names in storage order.
func (d *Draws) Parameters() []string { return append([]string(nil), d.params...) }

// NumChains returns the number of chains.
func (d *Draws) NumChains() int { return d.chains }

// NumIterations returns the number of iterations per chain.
func (d *Draws) NumIterations() int { return d.iters }

// ParamIndex returns the position of a parameter or -1.
func (d *Draws) ParamIndex(name string) int {
	for i, p := range d.params {
		if p == name {
			return i
		}
	}
	return -1
}

// At returns one draw.
func (d *Draws) At(chain, iter, param int) float64 {
	return d.values[(chain*d.iters+iter)*len(d.params)+param]
}

// Chain copies one parameter's draws from one chain.
func (d *Draws) Chain(param, chain int) []float64 {
	out := make([]float64, d.iters)
	for i := range out {
		out[i] = d.At(chain, i, param)
	}
	return out
}

// Merged copies one parameter's draws with all chains concatenated.
func (d *Draws) Merged(param int) []float64 {
	out := make([]float64, 0, d.chains*d.iters)
	for c := 0; c < d.chains; c++ {
		out = append(out, d.Chain(param, c)...)
	}
	return out
}

// Select returns the draws of the named parameters plus those matching any
// pattern, in storage order. With no selectors every parameter is kept.
// Unknown names and patterns that match nothing are ValidationErrors.
func (d *Draws) Select(pars []string, patterns []string) (*Draws, error) {
	if len(pars) == 0 && len(patterns) == 0 {
		return d, nil
	}
	keep := make(map[string]bool)
	for _, p := range pars {
		if d.ParamIndex(p) < 0 {
			return nil, validationErrorf("pars", "no parameter named %q", p)
		}
		keep[p] = true
	}
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, validationErrorf("regex_pars", "pattern %q: %v", pat, err)
		}
		matched := false
		for _, p := range d.params {
			if re.MatchString(p) {
				keep[p] = true
				matched = true
			}
		}
		if !matched {
			return nil, validationErrorf("regex_pars", "pattern %q matches no parameter", pat)
		}
	}

	var idx []int
	var names []string
	for i, p := range d.params {
		if keep[p] {
			idx = append(idx, i)
			names = append(names, p)
		}
	}
	out := &Draws{params: names, chains: d.chains, iters: d.iters}
	out.values = make([]float64, 0, d.chains*d.iters*len(idx))
	for c := 0; c < d.chains; c++ {
		for i := 0; i < d.iters; i++ {
			for _, p := range idx {
				out.values = append(out.values, d.At(c, i, p))
			}
		}
	}
	return out, nil
}

// View returns a long-format RecordView: one row per (chain, iteration,
// parameter) with dimensions chain/parameter and measures iteration/value.
func (d *Draws) View() RecordView { return &DrawsView{d: d} }

// DrawsView is the zero-copy long-format view over Draws.
type DrawsView struct {
	d *Draws
}

func (v *DrawsView) Len() int { return len(v.d.values) }

func (v *DrawsView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.d.values) {
		return ""
	}
	np := len(v.d.params)
	switch key {
	case DimParameter:
		return v.d.params[i%np]
	case DimChain:
		return strconv.Itoa(i/np/v.d.iters + 1)
	}
	return ""
}

func (v *DrawsView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.d.values) {
		return 0
	}
	switch key {
	case MeasureValue:
		return v.d.values[i]
	case MeasureIteration:
		return float64((i/len(v.d.params))%v.d.iters + 1)
	}
	return 0
}

func (v *DrawsView) DimensionKeys() []string { return []string{DimChain, DimParameter} }
func (v *DrawsView) MeasureKeys() []string   { return []string{MeasureIteration, MeasureValue} }
