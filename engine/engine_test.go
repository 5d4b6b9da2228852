package engine

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr(v float64) *float64 { return &v }

// testDraws is 2 chains × 4 iterations of mu, sigma and theta[1].
func testDraws(t *testing.T) *Draws {
	t.Helper()
	d, err := NewDraws([]string{"mu", "sigma", "theta[1]"}, [][][]float64{
		{{0.1, 1.0, 2.0}, {0.3, 1.2, 2.5}, {-0.2, 0.9, 1.5}, {0.0, 1.1, 2.2}},
		{{0.2, 1.3, 1.9}, {0.4, 0.8, 2.1}, {-0.1, 1.0, 2.4}, {0.1, 1.1, 1.8}},
	})
	if err != nil {
		t.Fatalf("NewDraws: %v", err)
	}
	return d
}

// fakeSource serves sampler diagnostics from in-memory records.
type fakeSource struct {
	lp   RecordView
	nuts RecordView
	err  error
}

func (f *fakeSource) LogPosterior() (RecordView, error)   { return f.lp, f.err }
func (f *fakeSource) NUTSParameters() (RecordView, error) { return f.nuts, f.err }

func series(chain, param string, values ...float64) []Record {
	out := make([]Record, len(values))
	for i, v := range values {
		out[i] = Record{
			Dimensions: map[string]string{DimChain: chain, DimParameter: param},
			Measures:   map[string]float64{MeasureIteration: float64(i + 1), MeasureValue: v},
		}
	}
	return out
}

// testSource is 2 chains × 6 iterations. Chain 1 diverges at iteration 3
// and saturates treedepth 10 at iteration 2. Chain 2 has a linear energy
// trace, so its E-BFMI is 5/17.5.
func testSource() *fakeSource {
	var nuts, lp []Record
	nuts = append(nuts, series("1", ParamDivergent, 0, 0, 1, 0, 0, 0)...)
	nuts = append(nuts, series("1", ParamTreedepth, 3, 10, 4, 3, 3, 3)...)
	nuts = append(nuts, series("1", ParamEnergy, 5, 1, 5, 1, 5, 1)...)
	nuts = append(nuts, series("1", ParamAcceptStat, 0.9, 0.8, 0.5, 0.9, 0.95, 0.85)...)
	nuts = append(nuts, series("2", ParamDivergent, 0, 0, 0, 0, 0, 0)...)
	nuts = append(nuts, series("2", ParamTreedepth, 3, 3, 2, 3, 3, 3)...)
	nuts = append(nuts, series("2", ParamEnergy, 0, 1, 2, 3, 4, 5)...)
	nuts = append(nuts, series("2", ParamAcceptStat, 0.92, 0.88, 0.97, 0.81, 0.9, 0.93)...)
	lp = append(lp, series("1", ParamLogPosterior, -4.0, -3.9, -5.0, -4.2, -4.1, -4.0)...)
	lp = append(lp, series("2", ParamLogPosterior, -4.4, -4.0, -3.8, -4.5, -4.3, -4.1)...)
	return &fakeSource{lp: NewSliceView(lp), nuts: NewSliceView(nuts)}
}
