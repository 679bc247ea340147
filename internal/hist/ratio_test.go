package hist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	data := filled(t, Uniform(3, 0, 3), [2]float64{0.5, 1}, [2]float64{0.5, 1}, [2]float64{0.5, 1}, [2]float64{0.5, 1}, [2]float64{1.5, 1})
	mc := filled(t, Uniform(3, 0, 3), [2]float64{0.5, 2}, [2]float64{2.5, 1})

	r, err := Ratio(data, mc)
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	p := r.Point(0)
	assert.InDelta(t, 0.5, p.X, 1e-12)
	assert.InDelta(t, 2, p.Y, 1e-12)
	// a=4 (σ²=4), b=2 (σ²=4): sqrt((4*4 + 4*16)/16)
	assert.InDelta(t, math.Sqrt(5), p.ErrY.Max, 1e-12)
	assert.InDelta(t, 0.5, p.ErrX.Min, 1e-12)

	empty := r.Point(1)
	assert.Zero(t, empty.Y)
	assert.Zero(t, empty.ErrY.Max)

	zero := r.Point(2)
	assert.Zero(t, zero.Y)
	assert.InDelta(t, 0, zero.ErrY.Max, 1e-12)
}

func TestRatioBinningMismatch(t *testing.T) {
	_, err := Ratio(Uniform(2, 0, 1).New("a"), Uniform(2, 0, 2).New("b"))
	assert.ErrorIs(t, err, ErrBinning)
}

func TestPointsSkipsEmpty(t *testing.T) {
	h := filled(t, Uniform(3, 0, 3), [2]float64{0.5, 2}, [2]float64{2.5, 1})
	assert.Equal(t, 3, Points(h, false).Len())
	pts := Points(h, true)
	require.Equal(t, 2, pts.Len())
	assert.InDelta(t, 2.5, pts.Point(1).X, 1e-12)
}

func TestSystBand(t *testing.T) {
	nom := filled(t, Uniform(2, 0, 2), [2]float64{0.5, 10}, [2]float64{1.5, 4})
	up := filled(t, Uniform(2, 0, 2), [2]float64{0.5, 12}, [2]float64{1.5, 3})
	down := filled(t, Uniform(2, 0, 2), [2]float64{0.5, 9}, [2]float64{1.5, 5})

	band, err := SystBand(nom, up, down)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, band.Edges)
	assert.Equal(t, []float64{12, 4}, band.High)
	assert.Equal(t, []float64{9, 4}, band.Low)

	rel := band.Relative()
	assert.Equal(t, []float64{1, 1}, rel.Center)
	assert.InDelta(t, 1.2, rel.High[0], 1e-12)
	assert.InDelta(t, 0.9, rel.Low[0], 1e-12)
	assert.InDelta(t, 1, rel.High[1], 1e-12)
}

func TestStatBandRelativeZeroCenter(t *testing.T) {
	h := filled(t, Uniform(2, 0, 2), [2]float64{0.5, 1}, [2]float64{0.5, 1}, [2]float64{0.5, 1}, [2]float64{0.5, 1})
	rel := StatBand(h).Relative()
	assert.InDelta(t, 0.5, rel.Low[0], 1e-12)
	assert.InDelta(t, 1.5, rel.High[0], 1e-12)
	assert.Equal(t, 1.0, rel.Low[1])
	assert.Equal(t, 1.0, rel.High[1])
}
