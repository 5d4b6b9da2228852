package engine

import (
	"github.com/aclements/go-moremath/stats"
)

// histBin is one equal-width histogram bin.
type histBin struct {
	XMin  float64
	XMax  float64
	Count int
}

func (b histBin) mid() float64 { return (b.XMin + b.XMax) / 2 }

// histogram bins xs into n equal-width bins spanning its range.
func histogram(xs []float64, n int) []histBin {
	lo, hi := stats.Bounds(xs)
	return histogramRange(xs, lo, hi, n)
}

// histogramRange bins xs into n bins on [lo, hi]. The right edge is closed
// so the maximum lands in the last bin. A zero-width range is widened by
// half a unit on each side.
func histogramRange(xs []float64, lo, hi float64, n int) []histBin {
	if n < 1 {
		n = 1
	}
	if hi <= lo {
		lo, hi = lo-0.5, hi+0.5
	}
	h := stats.NewLinearHist(lo, hi, n)
	for _, x := range xs {
		h.Add(x)
	}
	_, counts, over := h.Counts()

	width := (hi - lo) / float64(n)
	out := make([]histBin, n)
	for i := range out {
		out[i] = histBin{
			XMin:  lo + float64(i)*width,
			XMax:  lo + float64(i+1)*width,
			Count: int(counts[i]),
		}
	}
	out[n-1].Count += int(over)
	return out
}

func histogramMarks(bins []histBin, panel, series string) []Mark {
	marks := make([]Mark, len(bins))
	for i, b := range bins {
		marks[i] = Mark{
			X:      b.mid(),
			Y:      float64(b.Count),
			XMin:   b.XMin,
			XMax:   b.XMax,
			YMax:   float64(b.Count),
			Panel:  panel,
			Series: series,
		}
	}
	return marks
}
