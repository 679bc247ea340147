package hzzplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot/internal/hist"
)

func mass(fills ...float64) *hbook.H1D {
	h := hist.Uniform(8, 70, 870).New("")
	for _, x := range fills {
		h.Fill(x, 1)
	}
	return h
}

func testPlot() *StackPlot {
	zz := mass(120, 220, 220, 320)
	wz := mass(120, 420)
	band := hist.StatBand(zz)
	rel := band.Relative()
	return &StackPlot{
		XLabel:     "m(4#mu) [GeV]",
		YLabel:     "Events",
		Header:     Header{Left: "CMS Preliminary", Right: "9.6 fb⁻¹ (13.6 TeV)"},
		Components: []Component{{"ZZ", zz, Palette[0]}, {"WZ", wz, Palette[1]}},
		Data:       mass(120, 220, 220, 320, 420, 520),
		Overlays:   []Overlay{{Label: "2P2F extrapolation", Hist: mass(220), Color: Red}},
		Band:       &band,
		BandLabel:  "Stat. unc.",
		Ratio:      true,
		RatioMin:   0.5,
		RatioMax:   1.5,
		RatioBand:  &rel,
		RatioLines: []float64{0.8, 1.2},
	}
}

func TestStackPlotSave(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"linear.png", "shape.svg", "log.pdf"} {
		sp := testPlot()
		switch name {
		case "shape.svg":
			sp.Shape = true
			sp.Band = nil
		case "log.pdf":
			sp.LogY = true
		}
		path := filepath.Join(dir, "sub", name)
		require.NoError(t, sp.Save(path), name)

		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, fi.Size(), name)
	}
}

func TestStackPlotErrors(t *testing.T) {
	sp := testPlot()
	require.Error(t, sp.Save(filepath.Join(t.TempDir(), "out.bmp")))

	sp.Components = nil
	require.ErrorIs(t, sp.Save(filepath.Join(t.TempDir(), "out.png")), errNoComponents)

	sp = testPlot()
	sp.Data = hist.Uniform(4, 70, 870).New("")
	require.ErrorIs(t, sp.Save(filepath.Join(t.TempDir(), "out.png")), hist.ErrBinning)
}

func TestYRange(t *testing.T) {
	sp := testPlot()
	total, err := hist.Sum("total", sp.Components[0].Hist, sp.Components[1].Hist)
	require.NoError(t, err)

	// data peaks at 2 in the 170-270 bin, the stack at 2 as well
	ymin, ymax := sp.yRange(total)
	assert.Equal(t, 0.0, ymin)
	assert.InDelta(t, 2.4, ymax, 1e-12)

	sp.LogY = true
	ymin, ymax = sp.yRange(total)
	assert.Equal(t, 0.1, ymin)
	assert.InDelta(t, 20, ymax, 1e-12)

	sp.YMin, sp.YMax = 1, 5e6
	ymin, ymax = sp.yRange(total)
	assert.Equal(t, 1.0, ymin)
	assert.Equal(t, 5e6, ymax)
}
