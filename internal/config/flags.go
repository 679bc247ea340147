package config

import (
	"strings"

	"github.com/spf13/pflag"
)

const flagAnnotation = "koanf"

// BindFlags registers the command-line overrides of the plot layout on
// fs. LoadWithFlags applies the ones the user set.
func BindFlags(fs *pflag.FlagSet) {
	bind(fs, "base_dir", func(name string) { fs.String(name, "", "directory of the simulated samples") })
	bind(fs, "output_dir", func(name string) { fs.StringP(name, "o", "", "output directory") })
	bind(fs, "plot_format", func(name string) { fs.String(name, "", "plot format (png, pdf or svg)") })
	bind(fs, "lumi", func(name string) { fs.String(name, "", "luminosity shown in the plot header") })
	bind(fs, "logy", func(name string) { fs.Bool(name, false, "logarithmic y axis") })
}

func bind(fs *pflag.FlagSet, key string, register func(name string)) {
	name := flagName(key)
	register(name)
	_ = fs.SetAnnotation(name, flagAnnotation, []string{key})
}

// flagName turns a config key into a flag name, output_dir -> output-dir.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
