package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix starts the environment variables read by Load.
const EnvPrefix = "HZZ_"

// Load builds a Config by layering defaults, an optional YAML file and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file at path, or at $HZZ_CONFIG when path is empty
//  3. env (prefix HZZ_), e.g. HZZ_OUTPUT_DIR -> output_dir
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags is Load with a last layer made of the flags of fs that
// were registered by BindFlags and set on the command line.
func LoadWithFlags(path string, fs *pflag.FlagSet) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("could not load config file %q: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("could not load environment: %w", err)
	}

	if fs != nil {
		flagProvider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := f.Annotations[flagAnnotation]
			if !ok || len(key) == 0 || !f.Changed {
				return "", nil
			}
			return key[0], posflag.FlagVal(fs, f)
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, fmt.Errorf("could not load flags: %w", err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
