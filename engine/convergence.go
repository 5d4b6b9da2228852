package engine

import (
	"math"

	"github.com/aclements/go-moremath/stats"
)

// ============================================================================
// CONVERGENCE: Autocorrelation, split R-hat, effective sample size
// ============================================================================

// Autocorrelation returns the sample autocorrelation of xs at lags
// 0..maxLag. Lags beyond len(xs)-1 are dropped. A constant series has
// autocorrelation 1 at lag 0 and 0 elsewhere.
func Autocorrelation(xs []float64, maxLag int) []float64 {
	if len(xs) == 0 || maxLag < 0 {
		return nil
	}
	if maxLag > len(xs)-1 {
		maxLag = len(xs) - 1
	}
	mean := stats.Mean(xs)
	var denom float64
	for _, x := range xs {
		denom += (x - mean) * (x - mean)
	}
	out := make([]float64, maxLag+1)
	out[0] = 1
	if denom == 0 {
		return out
	}
	for lag := 1; lag <= maxLag; lag++ {
		var num float64
		for t := 0; t+lag < len(xs); t++ {
			num += (xs[t] - mean) * (xs[t+lag] - mean)
		}
		out[lag] = num / denom
	}
	return out
}

// SplitRhat computes the potential scale reduction factor for one
// parameter after splitting every chain in half. An odd middle draw is
// dropped. Returns NaN when there are fewer than 4 iterations or the
// within-chain variance is zero.
func SplitRhat(d *Draws, param int) float64 {
	half := d.NumIterations() / 2
	if half < 2 {
		return math.NaN()
	}
	var seqs [][]float64
	for c := 0; c < d.NumChains(); c++ {
		x := d.Chain(param, c)
		seqs = append(seqs, x[:half], x[len(x)-half:])
	}
	return rhat(seqs)
}

func rhat(seqs [][]float64) float64 {
	m := float64(len(seqs))
	n := float64(len(seqs[0]))
	means := make([]float64, len(seqs))
	var w float64
	for i, s := range seqs {
		means[i] = stats.Mean(s)
		w += stats.Variance(s)
	}
	w /= m
	if w == 0 || m < 2 {
		return math.NaN()
	}
	b := n * stats.Variance(means)
	varPlus := (n-1)/n*w + b/n
	return math.Sqrt(varPlus / w)
}

// EffectiveSampleSize estimates the number of independent draws of one
// parameter, pooling autocovariances across chains and truncating the sum
// with Geyer's initial positive sequence.
func EffectiveSampleSize(d *Draws, param int) float64 {
	m := d.NumChains()
	n := d.NumIterations()
	total := float64(m * n)
	if n < 4 {
		return math.NaN()
	}

	acov := make([][]float64, m)
	means := make([]float64, m)
	var w float64
	for c := 0; c < m; c++ {
		x := d.Chain(param, c)
		means[c] = stats.Mean(x)
		acov[c] = autocovariance(x, means[c])
		w += acov[c][0] * float64(n) / float64(n-1)
	}
	w /= float64(m)
	if w == 0 {
		return math.NaN()
	}
	varPlus := float64(n-1) / float64(n) * w
	if m > 1 {
		varPlus += stats.Variance(means)
	}

	rho := func(t int) float64 {
		var s float64
		for c := 0; c < m; c++ {
			s += acov[c][t]
		}
		return 1 - (w-s/float64(m))/varPlus
	}

	// Sum consecutive pairs while they stay positive.
	var sum float64
	for t := 0; t+1 < n; t += 2 {
		pair := rho(t) + rho(t+1)
		if pair < 0 {
			break
		}
		sum += pair
	}
	tau := -1 + 2*sum
	if tau < 1/math.Log10(total) {
		tau = 1 / math.Log10(total)
	}
	return total / tau
}

// autocovariance returns the biased (1/n) autocovariance at every lag.
func autocovariance(xs []float64, mean float64) []float64 {
	n := len(xs)
	out := make([]float64, n)
	for lag := 0; lag < n; lag++ {
		var s float64
		for t := 0; t+lag < n; t++ {
			s += (xs[t] - mean) * (xs[t+lag] - mean)
		}
		out[lag] = s / float64(n)
	}
	return out
}

// NeffRatio is the effective sample size divided by the total number of
// draws.
func NeffRatio(d *Draws, param int) float64 {
	return EffectiveSampleSize(d, param) / float64(d.NumChains()*d.NumIterations())
}

// RhatAll computes SplitRhat for every parameter of d.
func RhatAll(d *Draws) []NamedValue {
	out := make([]NamedValue, 0, len(d.params))
	for i, p := range d.params {
		out = append(out, NamedValue{Name: p, Value: SplitRhat(d, i)})
	}
	return out
}

// NeffRatioAll computes NeffRatio for every parameter of d.
func NeffRatioAll(d *Draws) []NamedValue {
	out := make([]NamedValue, 0, len(d.params))
	for i, p := range d.params {
		out = append(out, NamedValue{Name: p, Value: NeffRatio(d, i)})
	}
	return out
}
