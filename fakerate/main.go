// Command fakerate measures the lepton fake rates in the Z+ℓ region, in
// the barrel and the endcap, with and without the prompt-lepton
// subtraction.
//
// The prompt passing histograms are filled from the passing-probe
// branches (ZLpass…_pt2), the same ones as the data passing histograms,
// so that data and prompt contributions subtract bin by bin.
package main

import (
	"context"
	"fmt"
	"image/color"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go-hep.org/x/hep/hbook"
	"golang.org/x/sync/errgroup"

	"github.com/hzz-analysis/hzzplot"
	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/events"
	"github.com/hzz-analysis/hzzplot/internal/fakerate"
	"github.com/hzz-analysis/hzzplot/internal/hist"
	"github.com/hzz-analysis/hzzplot/internal/rootio"
)

type frCmd struct {
	global hzzplot.GlobalOptions

	dataDir  string
	subtract string
}

func newCommand() *cobra.Command {
	fc := &frCmd{}
	cmd := &cobra.Command{
		Use:   "fakerate",
		Short: "Measure the electron and muon fake rates",
		Args:  cobra.NoArgs,
		RunE:  fc.run,
	}
	fc.global.Bind(cmd)

	cmd.Flags().StringVarP(&fc.dataDir, "data", "d", "", "directory of the collision data files")
	cmd.Flags().StringVar(&fc.subtract, "subtract", "", "sample whose prompt leptons are subtracted (default from the configuration)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func main() {
	hzzplot.Execute(newCommand())
}

func (fc *frCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cfg, stop, err := fc.global.Setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	if fc.subtract != "" {
		cfg.FakeRate.Subtract = fc.subtract
	}
	return fc.measure(ctx, cfg)
}

// binning returns the binning of the configured probe variable, or the
// measurement pt bins when the variable is not configured.
func binning(cfg *config.Config) hist.Binning {
	fr := cfg.FakeRate
	v, err := cfg.Variable(fr.Set, fr.Variable)
	if err != nil {
		return hist.Variable(fr.PtBins...)
	}
	return v.Binning()
}

func (fc *frCmd) measure(ctx context.Context, cfg *config.Config) error {
	log := zerolog.Ctx(ctx)
	fr := cfg.FakeRate
	b := binning(cfg)

	data, err := events.NewFrame(events.NewSource(cfg.TreeName, cfg.DataPaths(fc.dataDir)...), "", "")
	if err != nil {
		return err
	}

	var prompt *events.Frame
	if s, err := cfg.Sample(fr.Subtract); err == nil {
		prompt, err = events.NewFrame(events.NewSource(cfg.TreeName, cfg.SamplePath(s)), "", cfg.SampleWeight(s, config.Nominal))
		if err != nil {
			return err
		}
	} else {
		log.Warn().Str("sample", fr.Subtract).Msg("prompt sample not configured, corrected rates equal the uncorrected ones")
	}

	probes, err := fakerate.Book(data, prompt, fr, b)
	if err != nil {
		return err
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(fc.global.Threads)
	for _, frame := range []*events.Frame{data, prompt} {
		if frame == nil {
			continue
		}
		frame := frame
		grp.Go(func() error { return frame.Run(gctx) })
	}
	if err := grp.Wait(); err != nil {
		return err
	}
	for _, p := range probes {
		p.Fold()
	}

	if err := writeHistograms(cfg, probes); err != nil {
		return err
	}
	graphs, err := writeGraphs(ctx, cfg, probes)
	if err != nil {
		return err
	}
	return plot(ctx, cfg, probes, graphs)
}

func writeHistograms(cfg *config.Config, probes []*fakerate.Probes) error {
	fr := cfg.FakeRate
	passPath, err := hzzplot.OutputPath(cfg, fr.HistDir, fr.PassFile)
	if err != nil {
		return err
	}
	allPath, err := hzzplot.OutputPath(cfg, fr.HistDir, fr.DenominatorFile)
	if err != nil {
		return err
	}

	pass, err := rootio.Create(passPath)
	if err != nil {
		return err
	}
	defer pass.Close()
	all, err := rootio.Create(allPath)
	if err != nil {
		return err
	}
	defer all.Close()

	for _, p := range probes {
		hAll, hPass, err := p.Histograms(true)
		if err != nil {
			return err
		}
		if err := pass.PutH1F(hPass.Name(), hPass); err != nil {
			return err
		}
		if err := all.PutH1F(hAll.Name(), hAll); err != nil {
			return err
		}
	}
	if err := pass.Close(); err != nil {
		return err
	}
	return all.Close()
}

// writeGraphs stores the corrected fake rates, the ones the Z+X estimate
// reads back.
func writeGraphs(ctx context.Context, cfg *config.Config, probes []*fakerate.Probes) (map[string]*hbook.S2D, error) {
	log := zerolog.Ctx(ctx)
	path, err := hzzplot.OutputPath(cfg, cfg.FakeRate.GraphFile)
	if err != nil {
		return nil, err
	}
	w, err := rootio.Create(path)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	graphs := make(map[string]*hbook.S2D, len(probes))
	for _, p := range probes {
		g, err := p.Graph(cfg.FakeRate.PtBins, true)
		if err != nil {
			return nil, err
		}
		if g.Len() == 0 {
			log.Warn().Str("graph", p.GraphName()).Msg("no interval with a positive denominator")
		}
		if err := w.PutGraph(p.GraphName(), g); err != nil {
			return nil, err
		}
		graphs[p.GraphName()] = g
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("graphs", len(graphs)).Msg("fake rates saved")
	return graphs, nil
}

func regionStyle(r fakerate.Region) (string, color.Color) {
	if r == fakerate.Barrel {
		return "Barrel", hzzplot.Palette[0]
	}
	return "Endcap", hzzplot.Red
}

// plot draws, per flavour, the uncorrected and corrected rates of both
// regions.
func plot(ctx context.Context, cfg *config.Config, probes []*fakerate.Probes, corrected map[string]*hbook.S2D) error {
	fr := cfg.FakeRate
	for _, f := range fr.Flavors {
		gp := &hzzplot.GraphPlot{
			XLabel: f.AxisLabel,
			YLabel: "Fake Rate",
			Header: hzzplot.NewHeader(cfg),
			XMin:   fr.PtBins[0],
			XMax:   fr.PtBins[len(fr.PtBins)-1],
			YMax:   fr.YMax,
		}
		for _, p := range probes {
			if p.Flavor.Key != f.Key {
				continue
			}
			raw, err := p.Graph(fr.PtBins, false)
			if err != nil {
				return err
			}
			label, c := regionStyle(p.Region)
			gp.Series = append(gp.Series,
				hzzplot.Series{Label: label + " Uncorrected", Points: raw, Color: c},
				hzzplot.Series{Label: label + " Corrected", Points: corrected[p.GraphName()], Color: c, Dashed: true},
			)
		}

		path, err := hzzplot.OutputPath(cfg, "FR", fmt.Sprintf("fr_%ss.%s", f.Name, cfg.PlotFormat))
		if err != nil {
			return err
		}
		if err := gp.Save(path); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("flavour", f.Name).Msg("fake-rate plot skipped")
			continue
		}
		zerolog.Ctx(ctx).Info().Str("plot", path).Msg("saved")
	}
	return nil
}
