package hist

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

const (
	underflow = 0
	overflow  = 1
)

func addDist(dst *hbook.Dist1D, src hbook.Dist1D, c float64) {
	dst.Dist.N += src.Dist.N
	dst.Dist.SumW += c * src.Dist.SumW
	dst.Dist.SumW2 += c * c * src.Dist.SumW2
	dst.Stats.SumWX += c * src.Stats.SumWX
	dst.Stats.SumWX2 += c * src.Stats.SumWX2
}

// resum rebuilds the all-entries distribution from the bins and outflows
// after bin contents have been edited in place.
func resum(h *hbook.H1D) {
	b := &h.Binning
	var all hbook.Dist1D
	for _, bin := range b.Bins {
		addDist(&all, bin.Dist, 1)
	}
	addDist(&all, b.Outflows[underflow], 1)
	addDist(&all, b.Outflows[overflow], 1)
	b.Dist = all
}

// AddOverflow moves the overflow content of h into its last visible bin.
// Weights add and squared weights add, so the moved statistical error is
// combined in quadrature. The overflow is left empty.
func AddOverflow(h *hbook.H1D) *hbook.H1D {
	b := &h.Binning
	n := len(b.Bins)
	if n == 0 {
		return h
	}
	addDist(&b.Bins[n-1].Dist, b.Outflows[overflow], 1)
	b.Outflows[overflow] = hbook.Dist1D{}
	return h
}

// AddUnderflow moves the underflow content of h into its first visible bin.
func AddUnderflow(h *hbook.H1D) *hbook.H1D {
	b := &h.Binning
	if len(b.Bins) == 0 {
		return h
	}
	addDist(&b.Bins[0].Dist, b.Outflows[underflow], 1)
	b.Outflows[underflow] = hbook.Dist1D{}
	return h
}

// Fold folds the overflow, and the underflow when asked, into the visible
// range.
func Fold(h *hbook.H1D, underflow bool) *hbook.H1D {
	if underflow {
		AddUnderflow(h)
	}
	return AddOverflow(h)
}

// ClipNegative sets every visible bin with a negative sum of weights to
// zero. Squared weights are kept, as is every non-negative bin.
func ClipNegative(h *hbook.H1D) *hbook.H1D {
	clipped := false
	for i := range h.Binning.Bins {
		d := &h.Binning.Bins[i].Dist
		if d.Dist.SumW < 0 {
			d.Dist.SumW = 0
			d.Stats.SumWX = 0
			d.Stats.SumWX2 = 0
			clipped = true
		}
	}
	if clipped {
		resum(h)
	}
	return h
}

// AddScaled adds c*src to dst bin by bin, outflows included.
func AddScaled(dst, src *hbook.H1D, c float64) error {
	if !sameBinning(dst, src) {
		return fmt.Errorf("%w: cannot add %q to %q", ErrBinning, src.Name(), dst.Name())
	}
	for i := range dst.Binning.Bins {
		addDist(&dst.Binning.Bins[i].Dist, src.Binning.Bins[i].Dist, c)
	}
	for i := range dst.Binning.Outflows {
		addDist(&dst.Binning.Outflows[i], src.Binning.Outflows[i], c)
	}
	resum(dst)
	return nil
}

// Clone returns a deep copy of h named name.
func Clone(h *hbook.H1D, name string) *hbook.H1D {
	c := hbook.NewH1DFromEdges(Edges(h))
	copy(c.Binning.Bins, h.Binning.Bins)
	c.Binning.Outflows = h.Binning.Outflows
	c.Binning.Dist = h.Binning.Dist
	c.Annotation()["name"] = name
	return c
}

// Empty returns an empty histogram with the binning of h.
func Empty(h *hbook.H1D, name string) *hbook.H1D {
	c := hbook.NewH1DFromEdges(Edges(h))
	c.Annotation()["name"] = name
	return c
}

// Sum returns the bin-by-bin sum of hs, named name.
func Sum(name string, hs ...*hbook.H1D) (*hbook.H1D, error) {
	if len(hs) == 0 {
		return nil, fmt.Errorf("hist: no histograms to sum into %q", name)
	}
	total := Clone(hs[0], name)
	for _, h := range hs[1:] {
		if err := AddScaled(total, h, 1); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// IntegralAndError returns the sum of weights of h, outflows included, and
// its statistical error.
func IntegralAndError(h *hbook.H1D) (float64, float64) {
	var sumw, sumw2 float64
	for _, bin := range h.Binning.Bins {
		sumw += bin.Dist.Dist.SumW
		sumw2 += bin.Dist.Dist.SumW2
	}
	for _, d := range h.Binning.Outflows {
		sumw += d.Dist.SumW
		sumw2 += d.Dist.SumW2
	}
	return sumw, math.Sqrt(sumw2)
}

// VisibleIntegral returns the sum of weights over the visible bins.
func VisibleIntegral(h *hbook.H1D) float64 {
	var sumw float64
	for _, bin := range h.Binning.Bins {
		sumw += bin.Dist.Dist.SumW
	}
	return sumw
}

// Normalize scales h to unit visible integral. Empty histograms are left
// untouched.
func Normalize(h *hbook.H1D) *hbook.H1D {
	integral := VisibleIntegral(h)
	if integral == 0 {
		return h
	}
	h.Scale(1 / integral)
	return h
}

// Max returns the largest visible bin content over hs.
func Max(hs ...*hbook.H1D) float64 {
	max := 0.0
	for _, h := range hs {
		if h == nil {
			continue
		}
		for _, bin := range h.Binning.Bins {
			max = math.Max(max, bin.Dist.Dist.SumW)
		}
	}
	return max
}

// Content returns the sum of weights and its error for visible bin i.
func Content(h *hbook.H1D, i int) (float64, float64) {
	d := h.Binning.Bins[i].Dist.Dist
	return d.SumW, math.Sqrt(d.SumW2)
}
