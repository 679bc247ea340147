// Command zxestimate predicts the reducible Z+X background in the signal
// region from the 2P2F and 3P1F control regions, weighting each candidate
// by the fake-rate odds of its failing leptons.
package main

import (
	"context"
	"path/filepath"

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

type zxCmd struct {
	global hzzplot.GlobalOptions

	dataDir string
	frFile  string
}

func newCommand() *cobra.Command {
	zc := &zxCmd{}
	cmd := &cobra.Command{
		Use:   "zxestimate",
		Short: "Estimate the Z+X background from the 2P2F and 3P1F regions",
		Args:  cobra.NoArgs,
		RunE:  zc.run,
	}
	zc.global.Bind(cmd)

	cmd.Flags().StringVarP(&zc.dataDir, "data", "d", "", "directory of the collision data files")
	cmd.Flags().StringVar(&zc.frFile, "fr", "", "fake-rate graph file (default <output-dir>/fr_graphs.root)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func main() {
	hzzplot.Execute(newCommand())
}

func (zc *zxCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cfg, stop, err := zc.global.Setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	return zc.estimate(ctx, cfg)
}

func (zc *zxCmd) graphFile(cfg *config.Config) string {
	if zc.frFile != "" {
		return zc.frFile
	}
	return filepath.Join(cfg.OutputDir, cfg.FakeRate.GraphFile)
}

// estimate fills, for every final state, the data extrapolations and the
// ZZ contamination of 3P1F, combines them and writes the result.
func (zc *zxCmd) estimate(ctx context.Context, cfg *config.Config) error {
	log := zerolog.Ctx(ctx)
	zx := cfg.ZX

	fr, err := fakerate.Load(zc.graphFile(cfg), cfg.FakeRate.Flavors)
	if err != nil {
		return err
	}

	data, err := events.NewFrame(events.NewSource(cfg.TreeName, cfg.DataPaths(zc.dataDir)...), "", "")
	if err != nil {
		return err
	}
	var zz *events.Frame
	if s, err := cfg.Sample(zx.Sample); err == nil {
		zz, err = events.NewFrame(events.NewSource(cfg.TreeName, cfg.SamplePath(s)), "", cfg.SampleWeight(s, config.Nominal))
		if err != nil {
			return err
		}
	} else {
		log.Warn().Str("sample", zx.Sample).Msg("sample not configured, no ZZ subtraction from 3P1F")
	}

	b := zx.Binning()
	estimates := make([]*fakerate.Estimate, len(zx.FinalStates))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(zc.global.Threads)
	for i, fs := range zx.FinalStates {
		i, fs := i, fs
		grp.Go(func() error {
			est, err := finalState(gctx, zx, fs, b, data, zz, fr)
			if err != nil {
				return err
			}
			estimates[i] = est
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	path, err := hzzplot.OutputPath(cfg, zx.OutputFile)
	if err != nil {
		return err
	}
	w, err := rootio.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	for _, est := range estimates {
		for _, h := range est.Histograms() {
			if err := w.PutH1F(h.Name(), h); err != nil {
				return err
			}
		}
		total, stat := hist.IntegralAndError(est.ZX)
		log.Info().Str("final_state", est.FinalState).Float64("yield", total).Float64("stat", stat).Msg("Z+X")
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Info().Str("file", path).Msg("Z+X histograms saved")
	return nil
}

func finalState(ctx context.Context, zx config.ZX, fs string, b hist.Binning, data, zz *events.Frame, fr fakerate.Rater) (*fakerate.Estimate, error) {
	log := zerolog.Ctx(ctx).With().Str("final_state", fs).Logger()
	ctx = log.WithContext(ctx)

	prefix2, err := zx.Branch("2P2F", fs)
	if err != nil {
		return nil, err
	}
	prefix3, err := zx.Branch("3P1F", fs)
	if err != nil {
		return nil, err
	}

	toSR2, to3P1F, err := fakerate.Fill2P2F(ctx, data, prefix2, b, fr)
	if err != nil {
		return nil, err
	}
	toSR3, err := fakerate.Fill3P1F(ctx, data, prefix3, b, fr)
	if err != nil {
		return nil, err
	}
	var zzSR *hbook.H1D
	if zz != nil {
		if zzSR, err = fakerate.Fill3P1F(ctx, zz, prefix3, b, fr); err != nil {
			return nil, err
		}
	} else {
		zzSR = b.New("")
	}

	log.Debug().Msg("combining")
	return fakerate.Combine(fs, toSR2, to3P1F, toSR3, zzSR)
}
