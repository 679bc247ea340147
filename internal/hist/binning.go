// Package hist holds the histogram arithmetic shared by the plotting and
// background-estimation commands: outflow folding, negative-bin clipping,
// scaled addition, ratios and uncertainty bands over hbook histograms.
package hist

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

// Binning describes either a fixed-width axis (N, Min, Max) or an
// explicit list of bin edges. Edges take precedence when set.
type Binning struct {
	N     int
	Min   float64
	Max   float64
	Edges []float64
}

// Uniform returns a fixed-width binning.
func Uniform(n int, min, max float64) Binning {
	return Binning{N: n, Min: min, Max: max}
}

// Variable returns a binning with explicit edges.
func Variable(edges ...float64) Binning {
	return Binning{Edges: edges}
}

func (b Binning) Validate() error {
	if len(b.Edges) > 0 {
		if len(b.Edges) < 2 {
			return fmt.Errorf("%w: need at least two edges, got %d", ErrBinning, len(b.Edges))
		}
		for i := 1; i < len(b.Edges); i++ {
			if !(b.Edges[i] > b.Edges[i-1]) {
				return fmt.Errorf("%w: edges not increasing at index %d", ErrBinning, i)
			}
		}
		return nil
	}
	if b.N <= 0 {
		return fmt.Errorf("%w: number of bins must be positive, got %d", ErrBinning, b.N)
	}
	if !(b.Max > b.Min) {
		return fmt.Errorf("%w: invalid range [%g, %g]", ErrBinning, b.Min, b.Max)
	}
	return nil
}

// Range returns the visible axis range.
func (b Binning) Range() (float64, float64) {
	if len(b.Edges) > 0 {
		return b.Edges[0], b.Edges[len(b.Edges)-1]
	}
	return b.Min, b.Max
}

// New creates an empty histogram named name.
func (b Binning) New(name string) *hbook.H1D {
	var h *hbook.H1D
	if len(b.Edges) > 0 {
		h = hbook.NewH1DFromEdges(b.Edges)
	} else {
		h = hbook.NewH1D(b.N, b.Min, b.Max)
	}
	if name != "" {
		h.Annotation()["name"] = name
	}
	return h
}

// Edges returns the bin edges of h.
func Edges(h *hbook.H1D) []float64 {
	bins := h.Binning.Bins
	edges := make([]float64, 0, len(bins)+1)
	for _, bin := range bins {
		edges = append(edges, bin.XMin())
	}
	if len(bins) > 0 {
		edges = append(edges, bins[len(bins)-1].XMax())
	}
	return edges
}

// FindBin returns the index of the visible bin containing x, -1 for
// underflow and len(bins) for overflow. Bins are closed on the left.
func FindBin(h *hbook.H1D, x float64) int {
	bins := h.Binning.Bins
	if len(bins) == 0 || x < bins[0].XMin() {
		return -1
	}
	for i, bin := range bins {
		if x < bin.XMax() {
			return i
		}
	}
	return len(bins)
}

func sameBinning(a, b *hbook.H1D) bool {
	ea, eb := Edges(a), Edges(b)
	if len(ea) != len(eb) {
		return false
	}
	for i := range ea {
		if math.Abs(ea[i]-eb[i]) > 1e-9*math.Max(1, math.Abs(ea[i])) {
			return false
		}
	}
	return true
}
