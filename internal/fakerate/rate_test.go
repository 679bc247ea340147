package fakerate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/rootio"
)

func TestOddsAndWeights(t *testing.T) {
	assert.Equal(t, 0.0, Odds(0))
	assert.InDelta(t, 1.0, Odds(0.5), 1e-12)
	assert.InDelta(t, 0.25, Odds(0.2), 1e-12)

	sr, cr := Weights2P2F(0.2, 0.5)
	assert.InDelta(t, 0.25, sr, 1e-12)
	assert.InDelta(t, 1.25, cr, 1e-12)

	sr, cr = Weights2P2F(0, 0)
	assert.Zero(t, sr)
	assert.Zero(t, cr)
	assert.Zero(t, Weight3P1F(0))
}

func graph(pts ...[2]float64) *hbook.S2D {
	s := hbook.NewS2D()
	for _, p := range pts {
		s.Fill(hbook.Point2D{X: p[0], Y: p[1]})
	}
	return s
}

func testGraphs() map[string]*hbook.S2D {
	return map[string]*hbook.S2D{
		"FR_OS_electron_EB": graph([2]float64{8.5, 0.10}, [2]float64{12.5, 0.12}, [2]float64{80, 0.2}),
		"FR_OS_electron_EE": graph([2]float64{8.5, 0.30}, [2]float64{80, 0.4}),
		"FR_OS_muon_EB":     graph([2]float64{6, 0.05}, [2]float64{80, 0}),
		"FR_OS_muon_EE":     graph([2]float64{6, 1.2}),
	}
}

func TestReaderRate(t *testing.T) {
	r, err := NewReader(config.New().FakeRate.Flavors, testGraphs())
	require.NoError(t, err)

	for _, tc := range []struct {
		name  string
		pt    float64
		eta   float64
		pdgID int
		want  float64
	}{
		{"electron barrel first point", 7, 0.3, 11, 0.10},
		{"electron barrel second point", 9, -1.2, -11, 0.12},
		{"electron barrel above last point", 150, 1.49, 11, 0.2},
		{"electron endcap uses lookup boundary", 10, 1.5, 11, 0.4},
		{"muon barrel", 5, 1.1, 13, 0.05},
		{"muon endcap", 5, 1.2, -13, 0.999},
		{"muon clamped below", 20, 0, 13, 0.001},
		{"unknown flavour reads electrons", 7, 0, 15, 0.10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, r.Rate(tc.pt, tc.eta, tc.pdgID), 1e-12)
		})
	}
}

func TestNewReaderMissingGraph(t *testing.T) {
	graphs := testGraphs()
	delete(graphs, "FR_OS_muon_EE")
	_, err := NewReader(config.New().FakeRate.Flavors, graphs)
	require.ErrorIs(t, err, ErrMissingGraph)

	graphs = testGraphs()
	graphs["FR_OS_muon_EE"] = hbook.NewS2D()
	_, err = NewReader(config.New().FakeRate.Flavors, graphs)
	require.ErrorIs(t, err, ErrMissingGraph)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fr_graphs.root")
	w, err := rootio.Create(path)
	require.NoError(t, err)
	for name, g := range testGraphs() {
		require.NoError(t, w.PutGraph(name, g))
	}
	require.NoError(t, w.Close())

	r, err := Load(path, config.New().FakeRate.Flavors)
	require.NoError(t, err)
	assert.InDelta(t, 0.12, r.Rate(9, 0, 11), 1e-12)

	partial := filepath.Join(t.TempDir(), "partial.root")
	w, err = rootio.Create(partial)
	require.NoError(t, err)
	require.NoError(t, w.PutGraph("FR_OS_muon_EB", testGraphs()["FR_OS_muon_EB"]))
	require.NoError(t, w.Close())

	_, err = Load(partial, config.New().FakeRate.Flavors)
	require.ErrorIs(t, err, ErrMissingGraph)
}
