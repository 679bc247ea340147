// Command crplot draws the 3P1F and 2P2F control regions of a data-taking
// year: the simulated processes stacked against data, with the 2P2F
// extrapolation overlaid on 3P1F, and reports the yields.
package main

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/plot/vg"

	"github.com/hzz-analysis/hzzplot"
	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/hist"
	"github.com/hzz-analysis/hzzplot/internal/rootio"
)

type crCmd struct {
	global hzzplot.GlobalOptions

	year   string
	mcFile string
	zxFile string
}

func newCommand() *cobra.Command {
	cc := &crCmd{}
	cmd := &cobra.Command{
		Use:   "crplot",
		Short: "Plot the 3P1F and 2P2F control regions",
		Args:  cobra.NoArgs,
		RunE:  cc.run,
	}
	cc.global.Bind(cmd)

	cmd.Flags().StringVarP(&cc.year, "year", "y", "", "data-taking year, e.g. 2022 or 2022EE")
	cmd.Flags().StringVar(&cc.mcFile, "histos", "", "stacked-plot histogram file (default <year dir>/ZLL/DataMC_ZLL_Histos.root)")
	cmd.Flags().StringVar(&cc.zxFile, "zx", "", "Z+X histogram file (default <year dir>/ZXHistos_OS_<year>.root)")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func main() {
	hzzplot.Execute(newCommand())
}

func (cc *crCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cfg, stop, err := cc.global.Setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	return cc.plot(ctx, cfg)
}

func (cc *crCmd) paths(cfg *config.Config) (dir, mc, zx string) {
	dir = cfg.ControlRegion.YearDir(cc.year)
	mc, zx = cc.mcFile, cc.zxFile
	if mc == "" {
		mc = filepath.Join(dir, "ZLL", "DataMC_ZLL_Histos.root")
	}
	if zx == "" {
		zx = filepath.Join(dir, fmt.Sprintf("ZXHistos_OS_%s.root", cc.year))
	}
	return dir, mc, zx
}

// region is one control region to draw. overlay names the Z+X histogram
// drawn on top of the stack, if any.
type region struct {
	name    string
	overlay string
}

var regions = []region{
	{name: "3P1F", overlay: "h_from2P2F_3P1F_2P2F_mass_"},
	{name: "2P2F"},
}

func (cc *crCmd) plot(ctx context.Context, cfg *config.Config) error {
	dir, mcPath, zxPath := cc.paths(cfg)

	mc, err := rootio.Open(mcPath)
	if err != nil {
		return err
	}
	defer mc.Close()

	zx, err := rootio.Open(zxPath)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("no Z+X file, 3P1F drawn without the 2P2F extrapolation")
		zx = nil
	} else {
		defer zx.Close()
	}

	colors, err := processColors(cfg.ControlRegion)
	if err != nil {
		return err
	}

	for _, r := range regions {
		for _, fs := range cfg.ZX.FinalStates {
			if err := cc.finalState(ctx, cfg, dir, r, fs, mc, zx, colors); err != nil {
				return err
			}
		}
	}
	return nil
}

func processColors(cr config.ControlRegion) ([]color.Color, error) {
	colors := make([]color.Color, len(cr.Processes))
	for i := range cr.Processes {
		if i >= len(cr.Palette) {
			colors[i] = hzzplot.Palette[i%len(hzzplot.Palette)]
			continue
		}
		c, err := hzzplot.ParseColor(cr.Palette[i])
		if err != nil {
			return nil, fmt.Errorf("control-region palette: %w", err)
		}
		colors[i] = c
	}
	return colors, nil
}

// axisLabel returns the invariant-mass axis label of a final state.
func axisLabel(fs string) string {
	switch fs {
	case "4mu":
		fs = "4#mu"
	case "2e2mu":
		fs = "2e2#mu"
	}
	return "m(" + fs + ") [GeV]"
}

func (cc *crCmd) finalState(ctx context.Context, cfg *config.Config, dir string, r region, fs string, mc, zx *rootio.File, colors []color.Color) error {
	log := zerolog.Ctx(ctx).With().Str("region", r.name).Str("final_state", fs).Logger()

	prefix, err := cfg.ZX.Branch(r.name, fs)
	if err != nil {
		return err
	}
	suffix := prefix + "mass"

	data, err := mc.H1D("hist_data_" + suffix)
	if err != nil {
		log.Warn().Err(err).Msg("missing data, skipped")
		return nil
	}

	sp := &hzzplot.StackPlot{
		XLabel: axisLabel(fs),
		YLabel: "Events",
		Header: hzzplot.NewHeader(cfg),
		Data:   data,
		YMax:   cfg.ControlRegion.YScale * hist.Max(data),
	}
	for i, proc := range cfg.ControlRegion.Processes {
		h, err := mc.H1D("hist_" + proc + "_" + suffix)
		if err != nil {
			log.Debug().Str("process", proc).Msg("no histogram")
			continue
		}
		sp.Components = append(sp.Components, hzzplot.Component{Label: proc, Hist: h, Color: colors[i]})
	}
	if len(sp.Components) == 0 {
		log.Warn().Msg("no simulated process, skipped")
		return nil
	}

	var extrapolation *hbook.H1D
	if r.overlay != "" && zx != nil {
		if extrapolation, err = zx.H1D(r.overlay + fs); err != nil {
			log.Warn().Err(err).Msg("no 2P2F extrapolation")
		} else {
			sp.Overlays = append(sp.Overlays, hzzplot.Overlay{
				Label: "2P2F extrapolation",
				Hist:  extrapolation,
				Color: hzzplot.Red,
				Width: vg.Points(3),
			})
		}
	}

	path := filepath.Join(dir, r.name+"_fit", fmt.Sprintf("%s_%s.%s", r.name, fs, cfg.PlotFormat))
	if err := sp.Save(path); err != nil {
		return fmt.Errorf("%s %s: %w", r.name, fs, err)
	}
	log.Info().Str("plot", path).Msg("saved")

	logYields(log, sp.Components, extrapolation, data)
	return nil
}

// logYields reports the total yield of every process, of the 2P2F
// extrapolation and of data, and the share of data the extrapolation
// accounts for.
func logYields(log zerolog.Logger, components []hzzplot.Component, extrapolation, data *hbook.H1D) {
	for _, c := range components {
		total, _ := hist.IntegralAndError(c.Hist)
		log.Info().Str("process", c.Label).Str("yield", fmt.Sprintf("%.2f", total)).Msg("yield")
	}
	nData, _ := hist.IntegralAndError(data)
	log.Info().Str("process", "data").Str("yield", fmt.Sprintf("%.2f", nData)).Msg("yield")
	if extrapolation == nil {
		return
	}
	nZX, _ := hist.IntegralAndError(extrapolation)
	log.Info().Str("process", "2P2F extrapolation").Str("yield", fmt.Sprintf("%.2f", nZX)).Msg("yield")
	if nData > 0 {
		log.Info().Str("share", fmt.Sprintf("%.1f%%", 100*nZX/nData)).Msg("2P2F prediction relative to data")
	}
}
