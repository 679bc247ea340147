// Command yields prints the yield and statistical error of every 1-dim
// histogram of a ROOT file and saves the report next to it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hzz-analysis/hzzplot"
	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/hist"
	"github.com/hzz-analysis/hzzplot/internal/rootio"
)

type yieldsCmd struct {
	global hzzplot.GlobalOptions

	report string
}

func newCommand() *cobra.Command {
	yc := &yieldsCmd{}
	cmd := &cobra.Command{
		Use:   "yields [file.root]",
		Short: "Print the yields of every histogram of a ROOT file",
		Long:  "Print the yields of every histogram of a ROOT file. Without argument the Z+X histogram file of the output directory is read.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  yc.run,
	}
	yc.global.Bind(cmd)

	cmd.Flags().StringVar(&yc.report, "report", "", "text report path (default <output-dir>/All_ZX_yields.txt)")
	return cmd
}

func main() {
	hzzplot.Execute(newCommand())
}

func (yc *yieldsCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cfg, stop, err := yc.global.Setup(cmd)
	if err != nil {
		return err
	}
	defer stop()

	input := filepath.Join(cfg.OutputDir, cfg.ZX.OutputFile)
	if len(args) > 0 {
		input = args[0]
	}
	return yc.write(ctx, cfg, input, cmd.OutOrStdout())
}

func (yc *yieldsCmd) reportPath(cfg *config.Config) (string, error) {
	if yc.report != "" {
		return yc.report, nil
	}
	return hzzplot.OutputPath(cfg, "All_ZX_yields.txt")
}

// write prints the report of input to stdout and to the report file.
func (yc *yieldsCmd) write(ctx context.Context, cfg *config.Config, input string, stdout io.Writer) error {
	f, err := rootio.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	path, err := yc.reportPath(cfg)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create report: %w", err)
	}
	defer out.Close()

	if err := report(io.MultiWriter(stdout, out), f); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not close report: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("file", path).Msg("yields saved")
	return nil
}

var rule = strings.Repeat("=", 62)

// report writes one block per histogram of f with its integral, outflows
// included, and the statistical error.
func report(w io.Writer, f *rootio.File) error {
	if _, err := fmt.Fprintf(w, "%s\n[INFO] Yield and error for all histograms\n%s\n", rule, rule); err != nil {
		return err
	}
	for _, name := range f.H1Names() {
		h, err := f.H1D(name)
		if err != nil {
			return err
		}
		total, stat := hist.IntegralAndError(h)
		_, err = fmt.Fprintf(w, "Histogram: %s\nYield: %.2f +/- %.2f (statistical only)\n%s\n",
			name, total, stat, strings.Repeat("-", 62))
		if err != nil {
			return err
		}
	}
	return nil
}
