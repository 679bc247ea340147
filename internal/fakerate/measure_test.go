package fakerate

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/events"
	"github.com/hzz-analysis/hzzplot/internal/events/eventstest"
	"github.com/hzz-analysis/hzzplot/internal/hist"
)

var ptBins = []float64{5, 7, 10, 15, 20, 25, 30, 40, 60, 100}

func fill(b hist.Binning, fills ...[2]float64) *hbook.H1D {
	h := b.New("")
	for _, f := range fills {
		h.Fill(f[0], f[1])
	}
	return h
}

func TestMeasure(t *testing.T) {
	b := hist.Variable(ptBins...)
	all := fill(b,
		[2]float64{6, 1}, [2]float64{6, 1}, [2]float64{6, 1}, [2]float64{6, 1},
		[2]float64{8, 2}, [2]float64{8, 2},
		[2]float64{50, 1},
	)
	pass := fill(b,
		[2]float64{6, 1},
		[2]float64{8, 2},
	)

	g, err := Measure(pass, all, []float64{5, 7, 10, 15, 60, 100}, 5)
	require.NoError(t, err)
	// [10,15) and [60,100) have an empty denominator
	require.Equal(t, 3, g.Len())

	p := g.Point(0)
	assert.Equal(t, 6.0, p.X)
	assert.Equal(t, 1.0, p.ErrX.Min)
	assert.InDelta(t, 0.25, p.Y, 1e-12)
	// sqrt(1/16 * 1 + (1/16)^2 * 4)
	assert.InDelta(t, math.Sqrt(1.0/16+4.0/256), p.ErrY.Max, 1e-12)

	p = g.Point(1)
	assert.Equal(t, 8.5, p.X)
	assert.InDelta(t, 0.5, p.Y, 1e-12)
	// np=2 σp²=4, na=4 σa²=8
	assert.InDelta(t, math.Sqrt(4.0/16+4.0/256*8), p.ErrY.Max, 1e-12)

	// [15,60) spans several histogram bins
	p = g.Point(2)
	assert.Equal(t, 37.5, p.X)
	assert.Equal(t, 22.5, p.ErrX.Max)
	assert.Zero(t, p.Y)
}

func TestMeasureMinPt(t *testing.T) {
	b := hist.Variable(ptBins...)
	all := fill(b, [2]float64{6, 4}, [2]float64{8, 4})
	pass := fill(b, [2]float64{6, 1}, [2]float64{8, 1})

	g, err := Measure(pass, all, ptBins, 7)
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())
	assert.Equal(t, 8.5, g.Point(0).X)
}

func TestMeasureNegativeDenominator(t *testing.T) {
	b := hist.Variable(ptBins...)
	all := fill(b, [2]float64{8, -1})
	pass := fill(b, [2]float64{8, 1})

	g, err := Measure(pass, all, ptBins, 5)
	require.NoError(t, err)
	assert.Zero(t, g.Len())
}

func TestMeasureMismatch(t *testing.T) {
	_, err := Measure(hist.Uniform(3, 0, 3).New(""), hist.Uniform(4, 0, 3).New(""), ptBins, 5)
	require.ErrorIs(t, err, hist.ErrBinning)
}

func TestNames(t *testing.T) {
	mu, err := config.New().FakeRate.Flavor("mu")
	require.NoError(t, err)
	p := &Probes{Flavor: mu, Region: Endcap}
	assert.Equal(t, "passing_mu_endcap", p.PassName())
	assert.Equal(t, "denominator_mu_endcap", p.AllName())
	assert.Equal(t, "FR_OS_muon_EE", p.GraphName())
	assert.Equal(t, "len(ZLallmu_eta2) > 0 && abs(ZLallmu_eta2[0]) >= 1.2", probeCut("ZLall", mu, Endcap))
}

func TestBookAndCorrect(t *testing.T) {
	dir := t.TempDir()
	evt := func(allPt, allEta, passPt, passEta []float32) eventstest.Event {
		return eventstest.Event{
			"ZLallmu_pt2": allPt, "ZLallmu_eta2": allEta,
			"ZLpassmu_pt2": passPt, "ZLpassmu_eta2": passEta,
			"ZLalle_pt2": []float32{}, "ZLalle_eta2": []float32{},
			"ZLpasse_pt2": []float32{}, "ZLpasse_eta2": []float32{},
			"w": float32(0.5),
		}
	}
	dataPath := eventstest.Write(t, dir, "data.root", "Events",
		evt([]float32{8}, []float32{0.5}, []float32{8}, []float32{0.5}),
		evt([]float32{8}, []float32{0.5}, []float32{}, []float32{}),
		evt([]float32{8}, []float32{0.5}, []float32{}, []float32{}),
		evt([]float32{8}, []float32{0.5}, []float32{}, []float32{}),
		evt([]float32{150}, []float32{2.0}, []float32{150}, []float32{2.0}),
		evt([]float32{150}, []float32{2.0}, []float32{}, []float32{}),
	)
	wzPath := eventstest.Write(t, dir, "wz.root", "Events",
		evt([]float32{8}, []float32{0.5}, []float32{8}, []float32{0.5}),
	)

	data, err := events.NewFrame(events.NewSource("Events", dataPath), "", "")
	require.NoError(t, err)
	wz, err := events.NewFrame(events.NewSource("Events", wzPath), "", "w")
	require.NoError(t, err)

	fr := config.New().FakeRate
	probes, err := Book(data, wz, fr, hist.Variable(ptBins...))
	require.NoError(t, err)
	require.Len(t, probes, 4)

	ctx := context.Background()
	require.NoError(t, data.Run(ctx))
	require.NoError(t, wz.Run(ctx))
	for _, p := range probes {
		p.Fold()
	}

	muBarrel, muEndcap := probes[2], probes[3]
	require.Equal(t, "FR_OS_muon_EB", muBarrel.GraphName())

	g, err := muBarrel.Graph(fr.PtBins, false)
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())
	assert.InDelta(t, 0.25, g.Point(0).Y, 1e-12)

	// prompt subtraction: (1-0.5)/(4-0.5)
	g, err = muBarrel.Graph(fr.PtBins, true)
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())
	assert.InDelta(t, 0.5/3.5, g.Point(0).Y, 1e-12)
	assert.Equal(t, "FR_OS_muon_EB", g.Annotation()["name"])

	// overflow lands in the last interval
	g, err = muEndcap.Graph(fr.PtBins, true)
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())
	assert.Equal(t, 80.0, g.Point(0).X)
	assert.InDelta(t, 0.5, g.Point(0).Y, 1e-12)

	all, pass, err := muBarrel.Histograms(true)
	require.NoError(t, err)
	assert.Equal(t, "denominator_mu_barrel", all.Name())
	assert.Equal(t, "passing_mu_barrel", pass.Name())

	// electrons saw no probes
	g, err = probes[0].Graph(fr.PtBins, true)
	require.NoError(t, err)
	assert.Zero(t, g.Len())
}
