// Command stackplot draws every variable of a variable set as a stack of
// the simulated samples, with data and a data/simulation ratio when a
// data directory is given.
package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot"
	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/hist"
	"github.com/hzz-analysis/hzzplot/internal/rootio"
)

type stackCmd struct {
	global hzzplot.GlobalOptions

	set        string
	plotType   string
	dataDir    string
	syst       bool
	underflow  bool
	ratioLines hzzplot.FloatArrayFlags
	rootOut    string
}

func newCommand() *cobra.Command {
	sc := &stackCmd{ratioLines: hzzplot.FloatArrayFlags{Array: []float64{0.8, 1.2}}}
	cmd := &cobra.Command{
		Use:   "stackplot",
		Short: "Draw data/simulation comparisons of a variable set",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}
	sc.global.Bind(cmd)

	cmd.Flags().StringVarP(&sc.set, "set", "s", "ZLL", "variable set to draw")
	cmd.Flags().StringVarP(&sc.plotType, "type", "t", "stack", "plot type, stack or shape")
	cmd.Flags().StringVarP(&sc.dataDir, "data", "d", "", "directory of the collision data files (default data_dir)")
	cmd.Flags().BoolVar(&sc.syst, "syst", false, "draw the band of the weight variations")
	cmd.Flags().BoolVar(&sc.underflow, "underflow", false, "fold the underflow into the first bin")
	cmd.Flags().Var(&sc.ratioLines, "ratio-lines", "reference lines of the ratio pad (repeatable)")
	cmd.Flags().StringVar(&sc.rootOut, "root-out", "", "histogram file name (default DataMC_<set>_Histos.root)")
	return cmd
}

func main() {
	hzzplot.Execute(newCommand())
}

func (sc *stackCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cfg, stop, err := sc.global.Setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	return sc.plot(ctx, cfg)
}

func (sc *stackCmd) plot(ctx context.Context, cfg *config.Config) error {
	log := zerolog.Ctx(ctx)
	if sc.plotType != "stack" && sc.plotType != "shape" {
		return fmt.Errorf("unknown plot type %q", sc.plotType)
	}
	vars, err := cfg.VariableSet(sc.set)
	if err != nil {
		return err
	}
	if sc.syst && !cfg.HasSyst() {
		log.Warn().Msg("no weight variations configured, drawing the statistical band")
		sc.syst = false
	}

	dataDir := sc.dataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	f, err := fill(ctx, cfg, vars, fillOptions{
		dataDir:   dataDir,
		syst:      sc.syst,
		underflow: sc.underflow,
		threads:   sc.global.Threads,
	})
	if err != nil {
		return err
	}

	if err := sc.write(cfg, f); err != nil {
		return err
	}

	for i, v := range vars {
		sp, err := sc.stackPlot(cfg, f, i)
		if err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		path, err := hzzplot.OutputPath(cfg, sc.set, v.Name+"."+cfg.PlotFormat)
		if err != nil {
			return err
		}
		if err := sp.Save(path); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		log.Info().Str("variable", v.Name).Str("plot", path).Msg("saved")
	}
	return nil
}

// write stores the nominal histograms of every sample and the data.
func (sc *stackCmd) write(cfg *config.Config, f *filled) error {
	name := sc.rootOut
	if name == "" {
		name = "DataMC_" + sc.set + "_Histos.root"
	}
	path, err := hzzplot.OutputPath(cfg, sc.set, name)
	if err != nil {
		return err
	}
	w, err := rootio.Create(path)
	if err != nil {
		return err
	}
	for i := range f.vars {
		nominal, _, _ := f.variable(i)
		for _, h := range nominal {
			if err := w.PutH1D(h.Name(), h); err != nil {
				w.Close()
				return err
			}
		}
		if f.data != nil {
			if err := w.PutH1D(f.data[i].Name(), f.data[i]); err != nil {
				w.Close()
				return err
			}
		}
	}
	return w.Close()
}

func (sc *stackCmd) stackPlot(cfg *config.Config, f *filled, i int) (*hzzplot.StackPlot, error) {
	v := f.vars[i]
	nominal, up, down := f.variable(i)
	shape := sc.plotType == "shape"

	sp := &hzzplot.StackPlot{
		XLabel:     v.Label,
		YLabel:     "Events",
		Header:     hzzplot.NewHeader(cfg),
		Shape:      shape,
		LogY:       cfg.LogY,
		YMin:       cfg.StackYMin,
		YMax:       cfg.StackYMax,
		Ratio:      true,
		RatioMin:   cfg.RatioYMin,
		RatioMax:   cfg.RatioYMax,
		RatioLines: sc.ratioLines.Array,
	}
	if sp.XLabel == "" {
		sp.XLabel = v.Name
	}
	if shape {
		sp.YLabel = "Normalised to unity"
	}

	for j, h := range nominal {
		s := f.samples[j].sample
		c, err := hzzplot.SampleColor(s, j)
		if err != nil {
			return nil, err
		}
		if shape {
			h = hist.Normalize(hist.Clone(h, h.Name()))
		}
		sp.Components = append(sp.Components, hzzplot.Component{Label: s.Label(), Hist: h, Color: c})
	}
	if f.data != nil {
		sp.Data = f.data[i]
		if shape {
			sp.Data = hist.Normalize(hist.Clone(sp.Data, sp.Data.Name()))
		}
	}
	if shape {
		return sp, nil
	}

	band, label, err := uncertainty(nominal, up, down)
	if err != nil {
		return nil, err
	}
	rel := band.Relative()
	sp.Band, sp.BandLabel, sp.RatioBand = &band, label, &rel
	return sp, nil
}

// uncertainty returns the band around the stack total: the weight
// variations when they were filled, the statistical error otherwise.
func uncertainty(nominal, up, down []*hbook.H1D) (hist.Band, string, error) {
	total, err := hist.Sum("total", nominal...)
	if err != nil {
		return hist.Band{}, "", err
	}
	if len(up) == 0 {
		return hist.StatBand(total), "Stat. unc.", nil
	}
	totalUp, err := hist.Sum("total_up", up...)
	if err != nil {
		return hist.Band{}, "", err
	}
	totalDown, err := hist.Sum("total_down", down...)
	if err != nil {
		return hist.Band{}, "", err
	}
	band, err := hist.SystBand(total, totalUp, totalDown)
	return band, "Syst. unc.", err
}
