package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go-hep.org/x/hep/hbook"
	"golang.org/x/sync/errgroup"

	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/events"
	"github.com/hzz-analysis/hzzplot/internal/hist"
)

// sampleHists holds the histograms of one sample, one per variable.
type sampleHists struct {
	sample   config.Sample
	nominal  []*hbook.H1D
	up, down []*hbook.H1D
}

type filled struct {
	vars    []config.Variable
	samples []sampleHists
	data    []*hbook.H1D
}

type fillOptions struct {
	dataDir   string
	syst      bool
	underflow bool
	threads   int
}

func histName(sample string, v config.Variable) string { return "hist_" + sample + "_" + v.Name }

// fill books every variable of vars on each sample and on data, and runs
// the samples in parallel.
func fill(ctx context.Context, cfg *config.Config, vars []config.Variable, opts fillOptions) (*filled, error) {
	if len(cfg.Samples) == 0 {
		return nil, config.ErrNoSamples
	}
	out := &filled{vars: vars, samples: make([]sampleHists, len(cfg.Samples))}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(opts.threads)
	for i, s := range cfg.Samples {
		i, s := i, s
		grp.Go(func() error {
			sh, err := fillSample(ctx, cfg, s, vars, opts)
			if err != nil {
				return fmt.Errorf("sample %s: %w", s.Name, err)
			}
			out.samples[i] = *sh
			return nil
		})
	}
	if opts.dataDir != "" {
		grp.Go(func() error {
			hs, err := fillData(ctx, cfg, vars, opts)
			if err != nil {
				return fmt.Errorf("data: %w", err)
			}
			out.data = hs
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func fillSample(ctx context.Context, cfg *config.Config, s config.Sample, vars []config.Variable, opts fillOptions) (*sampleHists, error) {
	log := zerolog.Ctx(ctx).With().Str("sample", s.Name).Logger()
	ctx = log.WithContext(ctx)

	src := events.NewSource(cfg.TreeName, cfg.SamplePath(s))
	frame, err := events.NewFrame(src, cfg.SampleCuts(s), cfg.SampleWeight(s, config.Nominal))
	if err != nil {
		return nil, err
	}

	sh := &sampleHists{sample: s}
	for _, v := range vars {
		h, err := frame.Book(events.Booking{Name: histName(s.Name, v), Column: v.Expr, Binning: v.Binning()})
		if err != nil {
			return nil, err
		}
		sh.nominal = append(sh.nominal, h)

		if !opts.syst {
			continue
		}
		up, err := frame.Book(events.Booking{
			Name:    histName(s.Name, v) + "_up",
			Column:  v.Expr,
			Weight:  cfg.SampleWeight(s, config.Up),
			Binning: v.Binning(),
		})
		if err != nil {
			return nil, err
		}
		down, err := frame.Book(events.Booking{
			Name:    histName(s.Name, v) + "_down",
			Column:  v.Expr,
			Weight:  cfg.SampleWeight(s, config.Down),
			Binning: v.Binning(),
		})
		if err != nil {
			return nil, err
		}
		sh.up = append(sh.up, up)
		sh.down = append(sh.down, down)
	}

	log.Info().Stringer("source", src).Int("histograms", len(vars)).Msg("filling")
	if err := frame.Run(ctx); err != nil {
		return nil, err
	}
	for _, hs := range [][]*hbook.H1D{sh.nominal, sh.up, sh.down} {
		for _, h := range hs {
			hist.Fold(h, opts.underflow)
		}
	}
	return sh, nil
}

func fillData(ctx context.Context, cfg *config.Config, vars []config.Variable, opts fillOptions) ([]*hbook.H1D, error) {
	log := zerolog.Ctx(ctx).With().Str("sample", "data").Logger()
	ctx = log.WithContext(ctx)

	src := events.NewSource(cfg.TreeName, cfg.DataPaths(opts.dataDir)...)
	frame, err := events.NewFrame(src, cfg.Cuts, "")
	if err != nil {
		return nil, err
	}
	var hs []*hbook.H1D
	for _, v := range vars {
		h, err := frame.Book(events.Booking{Name: histName("data", v), Column: v.Expr, Binning: v.Binning()})
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}

	log.Info().Stringer("source", src).Msg("filling")
	if err := frame.Run(ctx); err != nil {
		return nil, err
	}
	for _, h := range hs {
		hist.Fold(h, opts.underflow)
	}
	return hs, nil
}

// variable returns the histograms of every sample for the i-th variable.
func (f *filled) variable(i int) (nominal, up, down []*hbook.H1D) {
	for _, sh := range f.samples {
		nominal = append(nominal, sh.nominal[i])
		if len(sh.up) > 0 {
			up = append(up, sh.up[i])
			down = append(down, sh.down[i])
		}
	}
	return nominal, up, down
}
