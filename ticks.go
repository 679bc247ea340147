package hzzplot

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks places major ticks on round multiples of a power of ten
// and labels them with no more digits than the step needs.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	if t.NSuggestedTicks < 2 {
		t.NSuggestedTicks = 4
	}
	if !(max > min) {
		return []plot.Tick{{Value: min, Label: strconv.FormatFloat(min, 'g', -1, 64)}}
	}

	mult, tens := majorStep(max-min, t.NSuggestedTicks)
	majorDelta := float64(mult) * tens

	var ticks []plot.Tick
	last := min
	for val := math.Floor(min/majorDelta) * majorDelta; val <= max; val += majorDelta {
		if val < min {
			continue
		}
		last = val
		ticks = append(ticks, plot.Tick{Value: val})
	}
	prec := int(math.Ceil(math.Log10(math.Abs(last)+majorDelta)) - math.Floor(math.Log10(majorDelta)))
	for i := range ticks {
		v := round(ticks[i].Value, prec)
		ticks[i] = plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)}
	}

	minorDelta := majorDelta / 2
	switch mult {
	case 3, 6:
		minorDelta = majorDelta / 3
	case 5:
		minorDelta = majorDelta / 5
	}
	nMajor := len(ticks)
	for val := math.Floor(min/minorDelta) * minorDelta; val <= max; val += minorDelta {
		if val < min || hasTick(ticks[:nMajor], val, minorDelta) {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: val})
	}
	return ticks
}

// majorStep splits span into about n intervals of mult·tens, mult being a
// small integer other than 7 or 9.
func majorStep(span float64, n int) (mult int, tens float64) {
	tens = math.Pow10(int(math.Floor(math.Log10(span))))
	for span/tens < float64(n)-1 {
		tens /= 10
	}
	mult = int(span / tens / float64(n-1))
	switch mult {
	case 0:
		mult = 1
	case 7:
		mult = 6
	case 9:
		mult = 8
	}
	return mult, tens
}

func hasTick(ticks []plot.Tick, v, delta float64) bool {
	for _, t := range ticks {
		if math.Abs(t.Value-v) < 1e-6*delta {
			return true
		}
	}
	return false
}

func round(x float64, prec int) float64 {
	if x == 0 {
		// no negative zero
		return 0
	}
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}
	if x == 0 {
		return 0
	}
	return x / pow
}

// HideLabels keeps the tick positions of Ticker and drops their labels.
// The main pad of a ratio plot uses it on its x axis.
type HideLabels struct {
	Ticker plot.Ticker
}

func (h HideLabels) Ticks(min, max float64) []plot.Tick {
	ticks := h.Ticker.Ticks(min, max)
	for i := range ticks {
		ticks[i].Label = ""
	}
	return ticks
}
