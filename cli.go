package hzzplot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/hzz-analysis/hzzplot/internal/config"
)

// GlobalOptions are the flags shared by every command.
type GlobalOptions struct {
	Config  string
	Verbose bool
	Profile bool
	Threads int
}

// Bind registers the shared flags and the configuration overrides on cmd.
func (o *GlobalOptions) Bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&o.Config, "config", "c", "", "analysis configuration file (default $"+config.EnvPrefix+"CONFIG)")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "debug logging")
	fs.BoolVar(&o.Profile, "profile", false, "write a CPU profile")
	fs.IntVarP(&o.Threads, "threads", "j", runtime.NumCPU(), "samples processed in parallel")
	config.BindFlags(fs)
}

// Setup loads the configuration and returns a context carrying the
// logger. The returned stop function ends profiling and must be called.
func (o *GlobalOptions) Setup(cmd *cobra.Command) (context.Context, *config.Config, func(), error) {
	logger := NewLogger(os.Stderr, o.Verbose).With().Str("cmd", cmd.Name()).Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.LoadWithFlags(o.Config, cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Debug().Str("config", o.Config).Str("base_dir", cfg.BaseDir).Msg("configuration loaded")

	stop := func() {}
	if o.Profile {
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
		stop = p.Stop
	}
	if o.Threads < 1 {
		o.Threads = 1
	}
	return ctx, cfg, stop, nil
}

// Execute runs cmd and exits with status 1 on error.
func Execute(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		logger := NewLogger(os.Stderr, false)
		logger.Error().Err(err).Msg(cmd.Name() + " failed")
		os.Exit(1)
	}
}

// OutputPath joins elem under the output directory and creates the
// directory holding the result.
func OutputPath(cfg *config.Config, elem ...string) (string, error) {
	path := filepath.Join(append([]string{cfg.OutputDir}, elem...)...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("could not create output directory: %w", err)
	}
	return path, nil
}
