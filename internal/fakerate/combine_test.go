package fakerate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hzz-analysis/hzzplot/internal/events"
	"github.com/hzz-analysis/hzzplot/internal/events/eventstest"
	"github.com/hzz-analysis/hzzplot/internal/hist"
)

func contents(t *testing.T, est *Estimate) map[string][]float64 {
	t.Helper()
	out := make(map[string][]float64)
	for _, h := range est.Histograms() {
		var vs []float64
		for i := range h.Binning.Bins {
			v, _ := hist.Content(h, i)
			vs = append(vs, v)
		}
		out[h.Name()] = vs
	}
	return out
}

func TestCombine(t *testing.T) {
	b := hist.Uniform(3, 0, 3)
	h2SR := fill(b, [2]float64{0.5, 1}, [2]float64{1.5, 1}, [2]float64{2.5, 1})
	h23P1F := fill(b, [2]float64{0.5, 3})
	h3SR := fill(b, [2]float64{0.5, 10}, [2]float64{1.5, 4}, [2]float64{2.5, 1})
	h3ZZ := fill(b, [2]float64{0.5, 2}, [2]float64{1.5, 1}, [2]float64{2.5, 1})

	est, err := Combine("4mu", h2SR, h23P1F, h3SR, h3ZZ)
	require.NoError(t, err)

	got := contents(t, est)
	assert.Equal(t, []float64{1, 1, 1}, got["h_from2P2F_SR_2P2F_mass_4mu"])
	assert.Equal(t, []float64{3, 0, 0}, got["h_from2P2F_3P1F_2P2F_mass_4mu"])
	assert.Equal(t, []float64{10, 4, 1}, got["h_from3P1F_SR_3P1F_mass_4mu"])
	assert.Equal(t, []float64{2, 1, 1}, got["h_from3P1F_SR_ZZonly_3P1F_mass_4mu"])
	// 10-2-2, 4-1-2, 1-1-2 clipped
	assert.Equal(t, []float64{6, 1, 0}, got["h_from3P1F_SR_final_4mu"])
	// formed before clipping: -2+1 clipped
	assert.Equal(t, []float64{7, 2, 0}, got["histos_ZX_4mu"])

	// inputs are not modified
	v, _ := hist.Content(h3SR, 0)
	assert.Equal(t, 10.0, v)

	for _, h := range est.Histograms() {
		for i := range h.Binning.Bins {
			v, _ := hist.Content(h, i)
			assert.GreaterOrEqual(t, v, 0.0, "%s bin %d", h.Name(), i)
		}
	}
}

func TestCombineMismatch(t *testing.T) {
	a := hist.Uniform(3, 0, 3).New("")
	c := hist.Uniform(4, 0, 3).New("")
	_, err := Combine("4e", a, a, a, c)
	require.ErrorIs(t, err, hist.ErrBinning)
}

type constRate float64

func (c constRate) Rate(float64, float64, int) float64 { return float64(c) }

func candidates(t *testing.T, prefix string) events.Source {
	t.Helper()
	evt := func(mass, pt3, eta3, id3, pt4, eta4, id4 float32, w float32) eventstest.Event {
		return eventstest.Event{
			prefix + "mass":       mass,
			prefix + "lep3_pt":    []float32{pt3},
			prefix + "lep3_eta":   []float32{eta3},
			prefix + "lep3_pdgId": []float32{id3},
			prefix + "lep4_pt":    []float32{pt4},
			prefix + "lep4_eta":   []float32{eta4},
			prefix + "lep4_pdgId": []float32{id4},
			"w":                   w,
		}
	}
	path := eventstest.Write(t, t.TempDir(), "cands.root", "Events",
		evt(100, 10, 0.1, 13, 12, 0.2, -13, 2),
		evt(200, 20, 1.9, 11, 25, 0.2, 11, 1),
		evt(900, 20, 1.9, 11, 25, 0.2, 11, 1),
	)
	return events.NewSource("Events", path)
}

func TestFill2P2F(t *testing.T) {
	prefix := "ZLL2P2F4mu_"
	frame, err := events.NewFrame(candidates(t, prefix), "", "w")
	require.NoError(t, err)

	b := hist.Uniform(40, 70, 870)
	sr, cr, err := Fill2P2F(context.Background(), frame, prefix, b, constRate(0.2))
	require.NoError(t, err)

	// odds 0.25: SR 0.0625, 3P1F 0.5 per unit weight
	total, _ := hist.IntegralAndError(sr)
	assert.InDelta(t, 0.0625*4, total, 1e-9)
	total, _ = hist.IntegralAndError(cr)
	assert.InDelta(t, 0.5*4, total, 1e-9)
	// 900 GeV sits in the overflow
	assert.InDelta(t, 0.0625*3, hist.VisibleIntegral(sr), 1e-9)
}

func TestFill3P1F(t *testing.T) {
	prefix := "ZLL3P1F4mu_"
	frame, err := events.NewFrame(candidates(t, prefix), "", "w")
	require.NoError(t, err)

	h, err := Fill3P1F(context.Background(), frame, prefix, hist.Uniform(40, 70, 870), constRate(0.5))
	require.NoError(t, err)
	total, _ := hist.IntegralAndError(h)
	assert.InDelta(t, 4, total, 1e-9)
}

func TestZeroFakeRateGivesZeroContribution(t *testing.T) {
	prefix := "ZLL2P2F4mu_"
	frame, err := events.NewFrame(candidates(t, prefix), "", "w")
	require.NoError(t, err)

	b := hist.Uniform(40, 70, 870)
	ctx := context.Background()
	sr, cr, err := Fill2P2F(ctx, frame, prefix, b, constRate(0))
	require.NoError(t, err)
	h3, err := Fill3P1F(ctx, frame, prefix, b, constRate(0))
	require.NoError(t, err)

	est, err := Combine("4mu", sr, cr, h3, b.New(""))
	require.NoError(t, err)
	for _, h := range est.Histograms() {
		total, _ := hist.IntegralAndError(h)
		assert.Zero(t, total, h.Name())
	}
}

func TestFillMissingBranch(t *testing.T) {
	frame, err := events.NewFrame(candidates(t, "ZLL2P2F4mu_"), "", "w")
	require.NoError(t, err)
	_, _, err = Fill2P2F(context.Background(), frame, "ZLL2P2F4e_", hist.Uniform(40, 70, 870), constRate(0.1))
	require.ErrorIs(t, err, events.ErrUnknownBranch)
}
