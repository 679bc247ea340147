package hzzplot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(t *testing.T, min, max float64) map[float64]string {
	t.Helper()
	out := make(map[float64]string)
	for _, tick := range (PreciseTicks{NSuggestedTicks: 5}).Ticks(min, max) {
		if tick.Label != "" {
			out[tick.Value] = tick.Label
		}
	}
	return out
}

func TestPreciseTicks(t *testing.T) {
	assert.Equal(t, map[float64]string{
		200: "200", 400: "400", 600: "600", 800: "800",
	}, labels(t, 70, 870))

	assert.Equal(t, map[float64]string{
		0.6: "0.6", 0.8: "0.8", 1: "1", 1.2: "1.2", 1.4: "1.4",
	}, labels(t, 0.5, 1.5))
}

func TestPreciseTicksMinorInsideRange(t *testing.T) {
	ticks := PreciseTicks{}.Ticks(0, 0.35)
	require.NotEmpty(t, ticks)
	for _, tick := range ticks {
		assert.GreaterOrEqual(t, tick.Value, 0.0)
		assert.LessOrEqual(t, tick.Value, 0.35)
	}
}

func TestPreciseTicksDegenerateRange(t *testing.T) {
	ticks := PreciseTicks{}.Ticks(1, 1)
	require.Len(t, ticks, 1)
	assert.Equal(t, "1", ticks[0].Label)
}

func TestHideLabels(t *testing.T) {
	for _, tick := range (HideLabels{PreciseTicks{}}).Ticks(0, 10) {
		assert.Empty(t, tick.Label)
	}
}
