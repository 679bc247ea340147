package hzzplot

import (
	"errors"
	"image/color"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Series is one set of points of a GraphPlot.
type Series struct {
	Label  string
	Points *hbook.S2D
	Color  color.Color
	Dashed bool
}

// GraphPlot draws points with error bars, such as fake rates against pt.
type GraphPlot struct {
	XLabel string
	YLabel string
	Header Header
	Series []Series

	XMin, XMax float64
	YMin, YMax float64

	Width, Height vg.Length
}

var errNoSeries = errors.New("hzzplot: graph plot without points")

func (gp *GraphPlot) Save(path string) error {
	w, h := canvasSize(gp.Width, gp.Height)
	return save(path, w, h, gp.Draw)
}

func (gp *GraphPlot) Draw(c draw.Canvas) error {
	p := hplot.New()
	p.X.Label.Text = Latex(gp.XLabel)
	p.Y.Label.Text = Latex(gp.YLabel)
	p.X.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	p.Legend.Top = true
	p.Legend.XOffs = -vg.Points(8)
	p.Legend.YOffs = -vg.Points(8)

	drawn := 0
	for _, series := range gp.Series {
		if series.Points == nil || series.Points.Len() == 0 {
			continue
		}
		s := hplot.NewS2D(series.Points, hplot.WithXErrBars(true), hplot.WithYErrBars(true))
		s.GlyphStyle = dataGlyph
		s.GlyphStyle.Color = series.Color
		line := draw.LineStyle{Color: series.Color, Width: vg.Points(1.5)}
		if series.Dashed {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		if s.XErrs != nil {
			s.XErrs.LineStyle = line
		}
		if s.YErrs != nil {
			s.YErrs.LineStyle = line
		}
		p.Add(s)
		p.Legend.Add(Latex(series.Label), lineThumb{line})
		drawn++
	}
	if drawn == 0 {
		return errNoSeries
	}

	if gp.XMax > gp.XMin {
		p.X.Min, p.X.Max = gp.XMin, gp.XMax
	}
	if gp.YMax > gp.YMin {
		p.Y.Min, p.Y.Max = gp.YMin, gp.YMax
	}

	body := draw.Crop(c, 0, 0, 0, -headerHeight)
	p.Draw(body)
	gp.Header.draw(c, p.Title.TextStyle, p.DataCanvas(body), body.Max.Y)
	return nil
}

type lineThumb struct{ sty draw.LineStyle }

func (l lineThumb) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(l.sty, c.Min.X, y, c.Max.X, y)
}
