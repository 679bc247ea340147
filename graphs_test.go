package hzzplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

func TestGraphPlotSave(t *testing.T) {
	pts := hbook.NewS2D(
		hbook.Point2D{X: 8.5, Y: 0.10, ErrX: hbook.Range{Min: 1.5, Max: 1.5}, ErrY: hbook.Range{Min: 0.01, Max: 0.01}},
		hbook.Point2D{X: 12.5, Y: 0.12, ErrX: hbook.Range{Min: 2.5, Max: 2.5}, ErrY: hbook.Range{Min: 0.02, Max: 0.02}},
	)
	gp := &GraphPlot{
		XLabel: "p_{T}(e) [GeV]",
		YLabel: "Fake Rate",
		Header: Header{Left: "CMS Preliminary", Right: "(13.6 TeV)"},
		Series: []Series{
			{Label: "Barrel Uncorrected", Points: pts, Color: Palette[0]},
			{Label: "Barrel Corrected", Points: pts, Color: Palette[0], Dashed: true},
			{Label: "Endcap Corrected", Points: hbook.NewS2D(), Color: Red},
		},
		XMin: 5, XMax: 100,
		YMin: 0, YMax: 0.35,
	}

	path := filepath.Join(t.TempDir(), "FR", "fr_electrons.png")
	require.NoError(t, gp.Save(path))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, fi.Size())

	gp.Series = gp.Series[2:]
	require.ErrorIs(t, gp.Save(path), errNoSeries)
}
