package hist

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

// Points converts the visible bins of h into points at the bin centres
// with symmetric statistical errors. Empty bins are dropped when
// skipEmpty is set.
func Points(h *hbook.H1D, skipEmpty bool) *hbook.S2D {
	pts := make([]hbook.Point2D, 0, len(h.Binning.Bins))
	for _, bin := range h.Binning.Bins {
		y := bin.Dist.Dist.SumW
		if skipEmpty && y == 0 {
			continue
		}
		hw := 0.5 * bin.XWidth()
		ey := math.Sqrt(bin.Dist.Dist.SumW2)
		pts = append(pts, hbook.Point2D{
			X:    bin.XMid(),
			Y:    y,
			ErrX: hbook.Range{Min: hw, Max: hw},
			ErrY: hbook.Range{Min: ey, Max: ey},
		})
	}
	return hbook.NewS2D(pts...)
}

// Ratio divides num by den bin by bin, assuming uncorrelated errors.
// Bins with an empty denominator give a zero point with no error.
func Ratio(num, den *hbook.H1D) (*hbook.S2D, error) {
	if !sameBinning(num, den) {
		return nil, fmt.Errorf("%w: cannot divide %q by %q", ErrBinning, num.Name(), den.Name())
	}
	pts := make([]hbook.Point2D, 0, len(num.Binning.Bins))
	for i, bin := range num.Binning.Bins {
		a := bin.Dist.Dist.SumW
		ea2 := bin.Dist.Dist.SumW2
		b := den.Binning.Bins[i].Dist.Dist.SumW
		eb2 := den.Binning.Bins[i].Dist.Dist.SumW2

		hw := 0.5 * bin.XWidth()
		pt := hbook.Point2D{X: bin.XMid(), ErrX: hbook.Range{Min: hw, Max: hw}}
		if b != 0 {
			pt.Y = a / b
			err := math.Sqrt((ea2*b*b + eb2*a*a) / (b * b * b * b))
			pt.ErrY = hbook.Range{Min: err, Max: err}
		}
		pts = append(pts, pt)
	}
	return hbook.NewS2D(pts...), nil
}

// Band is an asymmetric per-bin envelope around a central histogram.
type Band struct {
	Edges  []float64
	Center []float64
	Low    []float64
	High   []float64
}

func (b Band) Len() int { return len(b.Center) }

// StatBand is the statistical envelope of h.
func StatBand(h *hbook.H1D) Band {
	band := Band{Edges: Edges(h)}
	for i := range h.Binning.Bins {
		y, err := Content(h, i)
		band.Center = append(band.Center, y)
		band.Low = append(band.Low, y-err)
		band.High = append(band.High, y+err)
	}
	return band
}

// SystBand builds the envelope given by the up and down variations of
// nominal. A variation pointing the wrong way contributes nothing.
func SystBand(nominal, up, down *hbook.H1D) (Band, error) {
	if !sameBinning(nominal, up) || !sameBinning(nominal, down) {
		return Band{}, fmt.Errorf("%w: systematic variations of %q", ErrBinning, nominal.Name())
	}
	band := Band{Edges: Edges(nominal)}
	for i := range nominal.Binning.Bins {
		y, _ := Content(nominal, i)
		yUp, _ := Content(up, i)
		yDown, _ := Content(down, i)
		band.Center = append(band.Center, y)
		band.High = append(band.High, y+math.Max(yUp-y, 0))
		band.Low = append(band.Low, y-math.Max(y-yDown, 0))
	}
	return band, nil
}

// Relative returns the band divided by its centre, so the centre sits at
// one. Bins with a zero centre collapse to one.
func (b Band) Relative() Band {
	rel := Band{Edges: b.Edges}
	for i, c := range b.Center {
		lo, hi := 1.0, 1.0
		if c != 0 {
			lo = 1 - (c-b.Low[i])/c
			hi = 1 + (b.High[i]-c)/c
		}
		rel.Center = append(rel.Center, 1)
		rel.Low = append(rel.Low, lo)
		rel.High = append(rel.High, hi)
	}
	return rel
}
