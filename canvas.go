package hzzplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/hzz-analysis/hzzplot/internal/hist"
)

// Component is one stacked contribution of a StackPlot.
type Component struct {
	Label string
	Hist  *hbook.H1D
	Color color.Color
}

// Overlay is a histogram drawn as a line on top of the stack.
type Overlay struct {
	Label string
	Hist  *hbook.H1D
	Color color.Color
	Width vg.Length
}

// StackPlot draws simulated components stacked (or superimposed in shape
// mode) with optional data points and a data/simulation ratio pad.
type StackPlot struct {
	XLabel string
	YLabel string
	Header Header

	Components []Component
	Data       *hbook.H1D
	Overlays   []Overlay

	// Band is drawn around the stack total, in absolute units.
	Band      *hist.Band
	BandLabel string

	Shape bool
	LogY  bool

	// A zero YMax fits the contents.
	YMin, YMax float64

	// Ratio adds the data/simulation pad when Data is set. RatioBand is
	// drawn around one in it.
	Ratio              bool
	RatioMin, RatioMax float64
	RatioBand          *hist.Band
	RatioLines         []float64

	Width, Height vg.Length
}

const (
	ratioFraction = 0.3
	headerHeight  = vg.Length(18)
)

var errNoComponents = errors.New("hzzplot: stack plot without components")

func (sp *StackPlot) size() (vg.Length, vg.Length) { return canvasSize(sp.Width, sp.Height) }

func canvasSize(w, h vg.Length) (vg.Length, vg.Length) {
	if w == 0 {
		w = 6 * vg.Inch
	}
	if h == 0 {
		h = 6 * vg.Inch
	}
	return w, h
}

func (sp *StackPlot) hasRatio() bool { return sp.Ratio && sp.Data != nil && !sp.Shape }

// Save draws the plot into path, the format following the extension.
func (sp *StackPlot) Save(path string) error {
	w, h := sp.size()
	return save(path, w, h, sp.Draw)
}

func save(path string, w, h vg.Length, drawFn func(draw.Canvas) error) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	cw, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return fmt.Errorf("could not create %s canvas: %w", format, err)
	}
	if err := drawFn(draw.New(cw)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := cw.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return f.Close()
}

// Draw renders the plot on c.
func (sp *StackPlot) Draw(c draw.Canvas) error {
	if len(sp.Components) == 0 {
		return errNoComponents
	}
	hs := make([]*hbook.H1D, len(sp.Components))
	for i, comp := range sp.Components {
		hs[i] = comp.Hist
	}
	total, err := hist.Sum("total", hs...)
	if err != nil {
		return err
	}

	main, err := sp.mainPad(total)
	if err != nil {
		return err
	}

	body := draw.Crop(c, 0, 0, 0, -headerHeight)
	if !sp.hasRatio() {
		main.Draw(body)
		sp.Header.draw(c, main.Title.TextStyle, main.DataCanvas(body), body.Max.Y)
		return nil
	}

	ratio, err := sp.ratioPad(total)
	if err != nil {
		return err
	}
	main.X.Tick.Marker = HideLabels{main.X.Tick.Marker}
	main.X.Label.Text = ""

	height := body.Max.Y - body.Min.Y
	mainC := draw.Crop(body, 0, 0, ratioFraction*height, 0)
	ratioC := draw.Crop(body, 0, 0, 0, -(1-ratioFraction)*height)
	mainC, ratioC = align(main.Plot, mainC, ratio.Plot, ratioC)

	main.Draw(mainC)
	ratio.Draw(ratioC)
	sp.Header.draw(c, main.Title.TextStyle, main.DataCanvas(mainC), body.Max.Y)
	return nil
}

// align crops two vertically stacked pads so their data areas share the
// same horizontal extent.
func align(top *plot.Plot, ct draw.Canvas, bottom *plot.Plot, cb draw.Canvas) (draw.Canvas, draw.Canvas) {
	dt, db := top.DataCanvas(ct), bottom.DataCanvas(cb)
	left := max(dt.Min.X, db.Min.X)
	right := min(dt.Max.X, db.Max.X)
	ct = draw.Crop(ct, left-dt.Min.X, right-dt.Max.X, 0, 0)
	cb = draw.Crop(cb, left-db.Min.X, right-db.Max.X, 0, 0)
	return ct, cb
}

// draw writes the header on c just above y, aligned on the data area.
func (hd Header) draw(c draw.Canvas, sty text.Style, data draw.Canvas, y vg.Length) {
	sty.YAlign = text.YBottom
	pt := vg.Point{X: data.Min.X, Y: y + 2}

	sty.XAlign = text.XLeft
	c.FillText(sty, pt, hd.Left)

	sty.XAlign = text.XRight
	pt.X = data.Max.X
	c.FillText(sty, pt, hd.Right)
}

func (sp *StackPlot) mainPad(total *hbook.H1D) (*hplot.Plot, error) {
	p := hplot.New()
	p.X.Label.Text = Latex(sp.XLabel)
	p.Y.Label.Text = Latex(sp.YLabel)
	p.X.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	p.Legend.Top = true
	p.Legend.XOffs = -vg.Points(8)
	p.Legend.YOffs = -vg.Points(8)

	hs := make([]*hplot.H1D, len(sp.Components))
	for i, comp := range sp.Components {
		h := hplot.NewH1D(comp.Hist, hplot.WithLogY(sp.LogY))
		h.Infos.Style = hplot.HInfoNone
		if sp.Shape {
			h.FillColor = nil
			h.LineStyle.Color = comp.Color
			h.LineStyle.Width = vg.Points(2)
		} else {
			h.FillColor = comp.Color
			h.LineStyle.Color = Black
			h.LineStyle.Width = vg.Points(0.5)
		}
		hs[i] = h
	}
	stack := hplot.NewHStack(hs, hplot.WithLogY(sp.LogY))
	if sp.Shape {
		stack.Stack = hplot.HStackOff
	}
	p.Add(stack)
	for i := len(hs) - 1; i >= 0; i-- {
		p.Legend.Add(Latex(sp.Components[i].Label), hs[i])
	}

	ymin, ymax := sp.yRange(total)

	if sp.Band != nil {
		band := hplot.NewBand(bandColor, steps(sp.Band.Edges, sp.Band.High, ymin), steps(sp.Band.Edges, sp.Band.Low, ymin))
		p.Add(band)
		if sp.BandLabel != "" {
			p.Legend.Add(sp.BandLabel, bandThumb{bandColor})
		}
	}

	for _, o := range sp.Overlays {
		h := hplot.NewH1D(o.Hist, hplot.WithLogY(sp.LogY))
		h.Infos.Style = hplot.HInfoNone
		h.FillColor = nil
		h.LineStyle.Color = o.Color
		h.LineStyle.Width = o.Width
		if h.LineStyle.Width == 0 {
			h.LineStyle.Width = vg.Points(1.5)
		}
		p.Add(h)
		p.Legend.Add(Latex(o.Label), h)
	}

	if sp.Data != nil {
		pts := hist.Points(sp.Data, true)
		if sp.LogY {
			clipErrors(pts, ymin)
		}
		s := hplot.NewS2D(pts, hplot.WithXErrBars(true), hplot.WithYErrBars(true))
		s.GlyphStyle = dataGlyph
		p.Add(s)
		p.Legend.Add("Data", glyphThumb{dataGlyph})
	}

	if sp.LogY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.X.Min, p.X.Max = xRange(total)
	p.Y.Min, p.Y.Max = ymin, ymax
	return p, nil
}

func (sp *StackPlot) yRange(total *hbook.H1D) (float64, float64) {
	ymin, ymax := sp.YMin, sp.YMax
	if sp.LogY && ymin <= 0 {
		ymin = 0.1
	}
	if ymax > ymin {
		return ymin, ymax
	}

	top := hist.Max(total)
	if sp.Shape {
		top = 0
		for _, comp := range sp.Components {
			top = max(top, hist.Max(comp.Hist))
		}
	}
	if sp.Data != nil {
		top = max(top, hist.Max(sp.Data))
	}
	for _, o := range sp.Overlays {
		top = max(top, hist.Max(o.Hist))
	}
	switch {
	case top <= 0:
		ymax = ymin + 1
	case sp.LogY:
		ymax = 10 * top
	default:
		ymax = 1.2 * top
	}
	return ymin, max(ymax, ymin*10)
}

func (sp *StackPlot) ratioPad(total *hbook.H1D) (*hplot.Plot, error) {
	r := hplot.New()
	r.X.Label.Text = Latex(sp.XLabel)
	r.Y.Label.Text = "Data/MC"
	r.X.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	r.Y.Tick.Marker = PreciseTicks{NSuggestedTicks: 3}

	if sp.RatioBand != nil {
		r.Add(hplot.NewBand(bandColor,
			steps(sp.RatioBand.Edges, sp.RatioBand.High, math.Inf(-1)),
			steps(sp.RatioBand.Edges, sp.RatioBand.Low, math.Inf(-1)),
		))
	}

	r.Add(hline(1, Black, nil))
	for _, y := range sp.RatioLines {
		r.Add(hline(y, Gray, []vg.Length{vg.Points(4), vg.Points(2)}))
	}

	ratio, err := hist.Ratio(sp.Data, total)
	if err != nil {
		return nil, err
	}
	var pts []hbook.Point2D
	for i := 0; i < ratio.Len(); i++ {
		if pt := ratio.Point(i); pt.Y != 0 {
			pts = append(pts, pt)
		}
	}
	if len(pts) > 0 {
		s := hplot.NewS2D(hbook.NewS2D(pts...), hplot.WithXErrBars(true), hplot.WithYErrBars(true))
		s.GlyphStyle = dataGlyph
		r.Add(s)
	}

	r.X.Min, r.X.Max = xRange(total)
	r.Y.Min, r.Y.Max = sp.RatioMin, sp.RatioMax
	if r.Y.Max <= r.Y.Min {
		r.Y.Min, r.Y.Max = 0.5, 1.5
	}
	return r, nil
}

func xRange(h *hbook.H1D) (float64, float64) {
	edges := hist.Edges(h)
	return edges[0], edges[len(edges)-1]
}

func hline(y float64, c color.Color, dashes []vg.Length) *plotter.Function {
	f := plotter.NewFunction(func(float64) float64 { return y })
	f.Color = c
	f.Width = vg.Points(1)
	f.Dashes = dashes
	return f
}

// steps turns per-bin values into the outline of a step function. Values
// are raised to floor, which keeps bands drawable on a log axis.
func steps(edges, ys []float64, floor float64) plotter.XYs {
	xys := make(plotter.XYs, 0, 2*len(ys))
	for i, y := range ys {
		y = max(y, floor)
		xys = append(xys, plotter.XY{X: edges[i], Y: y}, plotter.XY{X: edges[i+1], Y: y})
	}
	return xys
}

// clipErrors shortens the downward error bars of pts so none reaches
// below floor.
func clipErrors(pts *hbook.S2D, floor float64) {
	for i := 0; i < pts.Len(); i++ {
		pt := pts.Point(i)
		if pt.Y-pt.ErrY.Min < floor {
			pts.Points()[i].ErrY.Min = max(pt.Y-floor, 0)
		}
	}
}

var (
	bandColor = color.NRGBA{R: 128, G: 128, B: 128, A: 110}
	dataGlyph = draw.GlyphStyle{Color: Black, Radius: vg.Points(2.5), Shape: draw.CircleGlyph{}}
)

type bandThumb struct{ c color.Color }

func (b bandThumb) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(b.c, []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	})
}

type glyphThumb struct{ sty draw.GlyphStyle }

func (g glyphThumb) Thumbnail(c *draw.Canvas) { c.DrawGlyph(g.sty, c.Center()) }
