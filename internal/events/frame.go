package events

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot/internal/hist"
)

// Booking requests one histogram from a frame.
type Booking struct {
	Name    string
	Column  string // fill expression
	Cut     string // extra selection on top of the frame cut
	Weight  string // replaces the frame weight when set
	Binning hist.Binning
}

type booked struct {
	h      *hbook.H1D
	column *Expr
	cut    *Expr
	weight *Expr
}

// Frame applies a selection and a per-event weight to a source and fills
// every booked histogram in one pass over the entries.
type Frame struct {
	src    Source
	cut    *Expr
	weight *Expr
	books  []booked
}

// NewFrame returns a frame over src. An empty cut selects every entry and
// an empty weight gives each entry unit weight.
func NewFrame(src Source, cut, weight string) (*Frame, error) {
	c, err := Compile(cut)
	if err != nil {
		return nil, fmt.Errorf("frame cut: %w", err)
	}
	w, err := Compile(weight)
	if err != nil {
		return nil, fmt.Errorf("frame weight: %w", err)
	}
	return &Frame{src: src, cut: c, weight: w}, nil
}

func (f *Frame) Source() Source { return f.src }

// Book registers a histogram to be filled by the next Run.
func (f *Frame) Book(b Booking) (*hbook.H1D, error) {
	if err := b.Binning.Validate(); err != nil {
		return nil, fmt.Errorf("booking %q: %w", b.Name, err)
	}
	column, err := Compile(b.Column)
	if err != nil {
		return nil, fmt.Errorf("booking %q: %w", b.Name, err)
	}
	cut, err := Compile(b.Cut)
	if err != nil {
		return nil, fmt.Errorf("booking %q: %w", b.Name, err)
	}
	weight := f.weight
	if b.Weight != "" {
		if weight, err = Compile(b.Weight); err != nil {
			return nil, fmt.Errorf("booking %q: %w", b.Name, err)
		}
	}
	h := b.Binning.New(b.Name)
	f.books = append(f.books, booked{h: h, column: column, cut: cut, weight: weight})
	return h, nil
}

// Run fills every booked histogram. Bookings are consumed.
func (f *Frame) Run(ctx context.Context) error {
	books := f.books
	f.books = nil
	if len(books) == 0 {
		return nil
	}

	exprs := []*Expr{f.cut, f.weight}
	for _, b := range books {
		exprs = append(exprs, b.column, b.cut, b.weight)
	}

	var vals []float64
	return f.loop(ctx, exprs, func(_ int64, env map[string]any) error {
		for _, b := range books {
			pass, err := b.cut.Bool(env)
			if err != nil {
				return err
			}
			if !pass {
				continue
			}
			w, err := b.weight.Float(env)
			if err != nil {
				return err
			}
			vals, err = b.column.Values(env, vals)
			if err != nil {
				return err
			}
			for _, v := range vals {
				b.h.Fill(v, w)
			}
		}
		return nil
	})
}

// Row is a selected entry handed to Each.
type Row struct {
	Entry  int64
	Weight float64
	env    map[string]any
}

// Scalar returns a column as a scalar. Vector columns give their first
// element, or zero when empty.
func (r Row) Scalar(name string) float64 {
	switch v := r.env[name].(type) {
	case float64:
		return v
	case []float64:
		if len(v) == 0 {
			return 0
		}
		return v[0]
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Each calls fn for every entry passing the frame cut and the extra cut,
// with columns loaded and the frame weight evaluated.
func (f *Frame) Each(ctx context.Context, cut string, columns []string, fn func(Row) error) error {
	extra, err := Compile(cut)
	if err != nil {
		return err
	}
	exprs := []*Expr{f.cut, f.weight, extra, {vars: columns}}
	return f.loop(ctx, exprs, func(entry int64, env map[string]any) error {
		pass, err := extra.Bool(env)
		if err != nil || !pass {
			return err
		}
		w, err := f.weight.Float(env)
		if err != nil {
			return err
		}
		return fn(Row{Entry: entry, Weight: w, env: env})
	})
}

// loop walks the entries passing the frame cut, with every branch used by
// exprs loaded into env.
func (f *Frame) loop(ctx context.Context, exprs []*Expr, fn func(int64, map[string]any) error) error {
	log := zerolog.Ctx(ctx).With().Stringer("source", f.src).Logger()

	t, closer, err := f.src.open()
	if err != nil {
		return err
	}
	defer closer()

	rvars, err := readVars(t, branches(exprs...))
	if err != nil {
		return err
	}
	r, err := rtree.NewReader(t, rvars)
	if err != nil {
		return fmt.Errorf("could not create reader for %s: %w", f.src, err)
	}
	defer r.Close()

	log.Debug().Int64("entries", t.Entries()).Int("branches", len(rvars)).Msg("reading")

	env := make(map[string]any, len(rvars))
	var selected int64
	err = r.Read(func(rctx rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := load(env, rvars); err != nil {
			return err
		}
		pass, err := f.cut.Bool(env)
		if err != nil || !pass {
			return err
		}
		selected++
		return fn(rctx.Entry, env)
	})
	if err != nil {
		return fmt.Errorf("could not process %s: %w", f.src, err)
	}

	log.Debug().Int64("selected", selected).Msg("done")
	return nil
}

func branches(exprs ...*Expr) []string {
	set := make(map[string]struct{})
	for _, e := range exprs {
		if e == nil {
			continue
		}
		for _, name := range e.vars {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
