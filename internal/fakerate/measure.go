package fakerate

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/events"
	"github.com/hzz-analysis/hzzplot/internal/hist"
)

// Region is a detector region of the probe lepton.
type Region int

const (
	Barrel Region = iota
	Endcap
)

// Regions lists every region in output order.
var Regions = []Region{Barrel, Endcap}

func (r Region) String() string {
	if r == Barrel {
		return "barrel"
	}
	return "endcap"
}

// Short returns "EB" or "EE".
func (r Region) Short() string {
	if r == Barrel {
		return "EB"
	}
	return "EE"
}

// GraphName returns the name of the fake-rate graph of a flavour and
// region, e.g. FR_OS_muon_EB.
func GraphName(f config.Flavor, r Region) string {
	return "FR_OS_" + f.Name + "_" + r.Short()
}

// Measure computes the fake rate in each pt interval as the ratio of the
// passing to the denominator yield. Intervals starting below minPt and
// intervals with no positive denominator are left out.
func Measure(pass, all *hbook.H1D, ptBins []float64, minPt float64) (*hbook.S2D, error) {
	if err := hist.Variable(ptBins...).Validate(); err != nil {
		return nil, fmt.Errorf("pt bins: %w", err)
	}
	if len(pass.Binning.Bins) != len(all.Binning.Bins) {
		return nil, fmt.Errorf("%w: passing and denominator histograms differ", hist.ErrBinning)
	}

	last := len(all.Binning.Bins) - 1
	var pts []hbook.Point2D
	for i := 0; i+1 < len(ptBins); i++ {
		lo, hi := ptBins[i], ptBins[i+1]
		if lo < minPt {
			continue
		}

		first := max(hist.FindBin(all, lo), 0)
		end := min(hist.FindBin(all, hi)-1, last)

		var np, npErr2, na, naErr2 float64
		for bin := first; bin <= end; bin++ {
			p := pass.Binning.Bins[bin].Dist.Dist
			a := all.Binning.Bins[bin].Dist.Dist
			np += p.SumW
			npErr2 += p.SumW2
			na += a.SumW
			naErr2 += a.SumW2
		}
		if na <= 0 {
			continue
		}

		fr := np / na
		err := math.Sqrt(npErr2/(na*na) + (np*np)/(na*na*na*na)*naErr2)
		hw := 0.5 * (hi - lo)
		pts = append(pts, hbook.Point2D{
			X:    0.5 * (lo + hi),
			Y:    fr,
			ErrX: hbook.Range{Min: hw, Max: hw},
			ErrY: hbook.Range{Min: err, Max: err},
		})
	}
	return hbook.NewS2D(pts...), nil
}

// Probes holds the denominator and passing histograms of one flavour and
// region, for data and for the prompt-lepton sample subtracted from it.
type Probes struct {
	Flavor config.Flavor
	Region Region

	DataAll, DataPass     *hbook.H1D
	PromptAll, PromptPass *hbook.H1D
}

// PassName and AllName name the stored histograms, e.g. passing_mu_barrel.
func (p *Probes) PassName() string { return "passing_" + p.Flavor.Key + "_" + p.Region.String() }
func (p *Probes) AllName() string  { return "denominator_" + p.Flavor.Key + "_" + p.Region.String() }

func (p *Probes) GraphName() string { return GraphName(p.Flavor, p.Region) }

// probeCut selects events whose probe lepton in the branches starting
// with prefix falls in region.
func probeCut(prefix string, f config.Flavor, r Region) string {
	eta := prefix + f.Key + "_eta2"
	op := "<"
	if r == Endcap {
		op = ">="
	}
	return fmt.Sprintf("len(%s) > 0 && abs(%s[0]) %s %v", eta, eta, op, f.BarrelEta)
}

// Book registers the probe histograms of every flavour and region on the
// data frame and, when prompt is not nil, on the prompt frame. The
// histograms are filled by the frames' next Run.
func Book(data, prompt *events.Frame, fr config.FakeRate, b hist.Binning) ([]*Probes, error) {
	var probes []*Probes
	for _, f := range fr.Flavors {
		for _, r := range Regions {
			p := &Probes{Flavor: f, Region: r}
			all := events.Booking{
				Column:  fr.AllPrefix + f.Key + "_pt2",
				Cut:     probeCut(fr.AllPrefix, f, r),
				Binning: b,
			}
			pass := events.Booking{
				Column:  fr.PassPrefix + f.Key + "_pt2",
				Cut:     probeCut(fr.PassPrefix, f, r),
				Binning: b,
			}

			var err error
			all.Name, pass.Name = "data_"+p.AllName(), "data_"+p.PassName()
			if p.DataAll, err = data.Book(all); err != nil {
				return nil, err
			}
			if p.DataPass, err = data.Book(pass); err != nil {
				return nil, err
			}
			if prompt != nil {
				all.Name, pass.Name = "prompt_"+p.AllName(), "prompt_"+p.PassName()
				if p.PromptAll, err = prompt.Book(all); err != nil {
					return nil, err
				}
				if p.PromptPass, err = prompt.Book(pass); err != nil {
					return nil, err
				}
			}
			probes = append(probes, p)
		}
	}
	return probes, nil
}

// Fold moves the overflow of every filled histogram into its last bin.
func (p *Probes) Fold() {
	for _, h := range []*hbook.H1D{p.DataAll, p.DataPass, p.PromptAll, p.PromptPass} {
		if h != nil {
			hist.AddOverflow(h)
		}
	}
}

// Histograms returns the denominator and passing histograms, named for
// storage. With corrected set the prompt contribution is subtracted.
func (p *Probes) Histograms(corrected bool) (all, pass *hbook.H1D, err error) {
	all = hist.Clone(p.DataAll, p.AllName())
	pass = hist.Clone(p.DataPass, p.PassName())
	if !corrected || p.PromptAll == nil {
		return all, pass, nil
	}
	if err := hist.AddScaled(all, p.PromptAll, -1); err != nil {
		return nil, nil, err
	}
	if err := hist.AddScaled(pass, p.PromptPass, -1); err != nil {
		return nil, nil, err
	}
	return all, pass, nil
}

// Graph measures the fake rate of the probes over ptBins.
func (p *Probes) Graph(ptBins []float64, corrected bool) (*hbook.S2D, error) {
	all, pass, err := p.Histograms(corrected)
	if err != nil {
		return nil, err
	}
	g, err := Measure(pass, all, ptBins, p.Flavor.MinPt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.GraphName(), err)
	}
	g.Annotation()["name"] = p.GraphName()
	return g, nil
}
