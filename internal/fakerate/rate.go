// Package fakerate measures lepton fake rates in the Z+ℓ region and uses
// them to extrapolate the 2P2F and 3P1F control regions into the signal
// region (the Z+X background).
package fakerate

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/rootio"
)

const (
	minRate = 0.001
	maxRate = 0.999
)

// Rater gives the fake rate of a lepton.
type Rater interface {
	Rate(pt, eta float64, pdgID int) float64
}

// Odds converts a fake rate f into the transfer factor f/(1-f).
func Odds(f float64) float64 { return f / (1 - f) }

// Weights2P2F returns the weights of a 2P2F event with failing leptons of
// fake rates f3 and f4 towards the signal region and towards 3P1F.
func Weights2P2F(f3, f4 float64) (toSR, to3P1F float64) {
	o3, o4 := Odds(f3), Odds(f4)
	return o3 * o4, o3 + o4
}

// Weight3P1F returns the weight of a 3P1F event towards the signal region.
func Weight3P1F(f3 float64) float64 { return Odds(f3) }

// Reader looks fake rates up in the barrel and endcap graphs of each
// flavour.
type Reader struct {
	flavors []config.Flavor
	graphs  map[string]*hbook.S2D
}

// NewReader returns a reader over graphs keyed by GraphName. Every
// flavour needs both of its graphs with at least one point.
func NewReader(flavors []config.Flavor, graphs map[string]*hbook.S2D) (*Reader, error) {
	if len(flavors) == 0 {
		return nil, fmt.Errorf("fakerate: no flavours")
	}
	for _, f := range flavors {
		for _, region := range Regions {
			name := GraphName(f, region)
			g, ok := graphs[name]
			if !ok || g == nil {
				return nil, fmt.Errorf("%w: %s", ErrMissingGraph, name)
			}
			if g.Len() == 0 {
				return nil, fmt.Errorf("%w: %s has no points", ErrMissingGraph, name)
			}
		}
	}
	return &Reader{flavors: flavors, graphs: graphs}, nil
}

// Load reads the graphs of every flavour from a ROOT file.
func Load(path string, flavors []config.Flavor) (*Reader, error) {
	f, err := rootio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	graphs := make(map[string]*hbook.S2D)
	for _, fl := range flavors {
		for _, region := range Regions {
			name := GraphName(fl, region)
			g, err := f.Graph(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMissingGraph, err)
			}
			graphs[name] = g
		}
	}
	return NewReader(flavors, graphs)
}

// Rate returns the fake rate for a lepton, clamped to [0.001, 0.999].
// Leptons of an unknown flavour use the first one. The rate is read from
// the first point whose pt lies above the lepton's, or the last point.
func (r *Reader) Rate(pt, eta float64, pdgID int) float64 {
	flavor := r.flavors[0]
	id := pdgID
	if id < 0 {
		id = -id
	}
	for _, f := range r.flavors {
		if f.PdgID == id {
			flavor = f
			break
		}
	}

	region := Endcap
	if math.Abs(eta) < flavor.LookupEta {
		region = Barrel
	}
	g := r.graphs[GraphName(flavor, region)]

	y := g.Point(g.Len() - 1).Y
	for i := 0; i < g.Len(); i++ {
		p := g.Point(i)
		if pt < p.X {
			y = p.Y
			break
		}
	}
	return math.Min(math.Max(y, minRate), maxRate)
}
