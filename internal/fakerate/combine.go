package fakerate

import (
	"context"
	"fmt"

	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot/internal/events"
	"github.com/hzz-analysis/hzzplot/internal/hist"
)

// Estimate is the Z+X prediction of one final state.
type Estimate struct {
	FinalState string

	From2P2FSR   *hbook.H1D // 2P2F data extrapolated to the signal region
	From2P2F3P1F *hbook.H1D // 2P2F data extrapolated to 3P1F
	From3P1FSR   *hbook.H1D // 3P1F data extrapolated to the signal region
	From3P1FZZ   *hbook.H1D // 3P1F ZZ simulation extrapolated to the signal region
	Final        *hbook.H1D // 3P1F prediction after removing ZZ and the 2P2F double count
	ZX           *hbook.H1D
}

// Combine computes
//
//	final = 3P1F→SR − ZZ(3P1F→SR) − 2·(2P2F→SR)
//	Z+X   = final + 2P2F→SR
//
// and clips the negative bins of every histogram of the estimate,
// inputs included, once both are formed.
func Combine(fs string, from2P2FSR, from2P2F3P1F, from3P1FSR, from3P1FZZ *hbook.H1D) (*Estimate, error) {
	est := &Estimate{
		FinalState:   fs,
		From2P2FSR:   hist.Clone(from2P2FSR, "h_from2P2F_SR_2P2F_mass_"+fs),
		From2P2F3P1F: hist.Clone(from2P2F3P1F, "h_from2P2F_3P1F_2P2F_mass_"+fs),
		From3P1FSR:   hist.Clone(from3P1FSR, "h_from3P1F_SR_3P1F_mass_"+fs),
		From3P1FZZ:   hist.Clone(from3P1FZZ, "h_from3P1F_SR_ZZonly_3P1F_mass_"+fs),
	}

	est.Final = hist.Clone(est.From3P1FSR, "h_from3P1F_SR_final_"+fs)
	if err := hist.AddScaled(est.Final, est.From3P1FZZ, -1); err != nil {
		return nil, fmt.Errorf("final state %s: %w", fs, err)
	}
	if err := hist.AddScaled(est.Final, est.From2P2FSR, -2); err != nil {
		return nil, fmt.Errorf("final state %s: %w", fs, err)
	}

	est.ZX = hist.Clone(est.Final, "histos_ZX_"+fs)
	if err := hist.AddScaled(est.ZX, est.From2P2FSR, 1); err != nil {
		return nil, fmt.Errorf("final state %s: %w", fs, err)
	}

	for _, h := range est.Histograms() {
		hist.ClipNegative(h)
	}
	return est, nil
}

// Histograms returns the histograms of the estimate in storage order.
func (e *Estimate) Histograms() []*hbook.H1D {
	return []*hbook.H1D{e.From2P2FSR, e.From2P2F3P1F, e.From3P1FSR, e.From3P1FZZ, e.Final, e.ZX}
}

// leptons lists the branches describing the third and fourth leptons of
// a candidate whose branches start with prefix.
func leptons(prefix string) []string {
	var cols []string
	for _, lep := range []string{"lep3", "lep4"} {
		for _, v := range []string{"pt", "eta", "pdgId"} {
			cols = append(cols, prefix+lep+"_"+v)
		}
	}
	return cols
}

// Fill2P2F walks the 2P2F candidates of frame and fills their mass into
// the histograms extrapolated to the signal region and to 3P1F. Each
// entry carries the frame weight times the fake-rate weight.
func Fill2P2F(ctx context.Context, frame *events.Frame, prefix string, b hist.Binning, fr Rater) (toSR, to3P1F *hbook.H1D, err error) {
	toSR = b.New("")
	to3P1F = b.New("")
	mass := prefix + "mass"
	cols := append(leptons(prefix), mass)
	err = frame.Each(ctx, "", cols, func(row events.Row) error {
		f3 := fr.Rate(row.Scalar(cols[0]), row.Scalar(cols[1]), int(row.Scalar(cols[2])))
		f4 := fr.Rate(row.Scalar(cols[3]), row.Scalar(cols[4]), int(row.Scalar(cols[5])))
		wSR, w3P1F := Weights2P2F(f3, f4)
		m := row.Scalar(mass)
		toSR.Fill(m, row.Weight*wSR)
		to3P1F.Fill(m, row.Weight*w3P1F)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("2P2F %s: %w", prefix, err)
	}
	return toSR, to3P1F, nil
}

// Fill3P1F walks the 3P1F candidates of frame and fills their mass
// extrapolated to the signal region, weighted by the frame weight times
// the odds of the failing lepton.
func Fill3P1F(ctx context.Context, frame *events.Frame, prefix string, b hist.Binning, fr Rater) (*hbook.H1D, error) {
	toSR := b.New("")
	mass := prefix + "mass"
	cols := append(leptons(prefix)[:3], mass)
	err := frame.Each(ctx, "", cols, func(row events.Row) error {
		f3 := fr.Rate(row.Scalar(cols[0]), row.Scalar(cols[1]), int(row.Scalar(cols[2])))
		toSR.Fill(row.Scalar(mass), row.Weight*Weight3P1F(f3))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("3P1F %s: %w", prefix, err)
	}
	return toSR, nil
}
