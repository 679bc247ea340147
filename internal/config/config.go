// Package config holds the analysis configuration shared by the plotting
// and background-estimation commands: input locations, weights and cuts,
// samples, variable groups and the fake-rate and Z+X settings.
//
// A Config is built once per invocation by Load and is not modified
// afterwards.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hzz-analysis/hzzplot/internal/hist"
)

// Config is one analysis version.
type Config struct {
	// TreeName is the event tree read from every input file.
	TreeName string `koanf:"tree_name"`

	// BaseDir holds the simulated sample files.
	BaseDir string `koanf:"base_dir"`

	// DataDir holds the collision data files. Commands taking --data
	// override it.
	DataDir string `koanf:"data_dir"`

	// DataFiles are read from DataDir. ExtraDataFiles adds files for a
	// data-taking era when the era is a path component of BaseDir.
	DataFiles      []string            `koanf:"data_files"`
	ExtraDataFiles map[string][]string `koanf:"extra_data_files"`

	// Weights is the per-event weight of simulated samples. WeightsUp and
	// WeightsDown are optional systematic variations of it.
	Weights     string `koanf:"weights"`
	WeightsUp   string `koanf:"weights_up"`
	WeightsDown string `koanf:"weights_down"`

	// Cuts is the selection applied to every sample and to data. "1"
	// selects everything.
	Cuts string `koanf:"cuts"`

	OutputDir  string `koanf:"output_dir"`
	PlotFormat string `koanf:"plot_format"`
	Lumi       string `koanf:"lumi"`
	Energy     string `koanf:"energy"`
	Label      string `koanf:"label"`
	LogY       bool   `koanf:"logy"`

	// StackYMin and StackYMax fix the range of the main pad. A zero
	// maximum lets the plot fit the contents.
	StackYMin float64 `koanf:"stack_ymin"`
	StackYMax float64 `koanf:"stack_ymax"`
	RatioYMin float64 `koanf:"ratio_ymin"`
	RatioYMax float64 `koanf:"ratio_ymax"`

	// Samples are stacked in list order.
	Samples []Sample `koanf:"samples"`

	// Variables groups variable descriptors by region, e.g. "Z", "ZL",
	// "ZLL" or "H".
	Variables map[string][]Variable `koanf:"variables"`

	FakeRate      FakeRate      `koanf:"fake_rate"`
	ZX            ZX            `koanf:"zx"`
	ControlRegion ControlRegion `koanf:"control_region"`
}

// Sample is one simulated process.
type Sample struct {
	Name string `koanf:"name"`
	File string `koanf:"file"`
	Cuts string `koanf:"cuts"`

	// Weight replaces Config.Weights for this sample. ExtraWeight
	// multiplies whichever weight applies.
	Weight      string `koanf:"weight"`
	ExtraWeight string `koanf:"extra_weight"`

	Legend string `koanf:"legend"`
	Color  string `koanf:"color"`
}

// Label returns the legend entry of s.
func (s Sample) Label() string {
	if s.Legend != "" {
		return s.Legend
	}
	return s.Name
}

// Variable describes one plotted quantity.
type Variable struct {
	Expr  string    `koanf:"expr"`
	Name  string    `koanf:"name"`
	Label string    `koanf:"label"`
	Bins  int       `koanf:"bins"`
	Min   float64   `koanf:"min"`
	Max   float64   `koanf:"max"`
	Edges []float64 `koanf:"edges"`
}

func (v Variable) Binning() hist.Binning {
	if len(v.Edges) > 0 {
		return hist.Variable(v.Edges...)
	}
	return hist.Uniform(v.Bins, v.Min, v.Max)
}

// Flavor holds the per-flavour fake-rate settings.
type Flavor struct {
	// Key is the branch infix, "e" or "mu".
	Key string `koanf:"key"`
	// Name is used in graph and plot names, "electron" or "muon".
	Name  string `koanf:"name"`
	PdgID int    `koanf:"pdg_id"`

	// BarrelEta splits barrel from endcap when measuring. LookupEta does
	// the same when applying the rates.
	BarrelEta float64 `koanf:"barrel_eta"`
	LookupEta float64 `koanf:"lookup_eta"`

	// MinPt drops measurement intervals starting below it.
	MinPt float64 `koanf:"min_pt"`

	AxisLabel string `koanf:"axis_label"`
}

// FakeRate configures the measurement in the Z+ℓ region.
type FakeRate struct {
	// Set and Variable name the variable whose binning is used for the
	// pass and denominator histograms.
	Set      string `koanf:"set"`
	Variable string `koanf:"variable"`

	PtBins []float64 `koanf:"pt_bins"`

	// AllPrefix and PassPrefix start the branches of the loose and tight
	// probe leptons, e.g. ZLallmu_pt2 and ZLpassmu_pt2.
	AllPrefix  string `koanf:"all_prefix"`
	PassPrefix string `koanf:"pass_prefix"`

	// Subtract is the sample whose prompt contribution is removed.
	Subtract string `koanf:"subtract"`

	Flavors []Flavor `koanf:"flavors"`

	HistDir         string  `koanf:"hist_dir"`
	PassFile        string  `koanf:"pass_file"`
	DenominatorFile string  `koanf:"denominator_file"`
	GraphFile       string  `koanf:"graph_file"`
	YMax            float64 `koanf:"ymax"`
}

// Flavor returns the settings of the flavour with the given key.
func (fr FakeRate) Flavor(key string) (Flavor, error) {
	for _, f := range fr.Flavors {
		if f.Key == key {
			return f, nil
		}
	}
	return Flavor{}, fmt.Errorf("%w: flavour %q", ErrUnknownSet, key)
}

// ZX configures the Z+X estimate from the 2P2F and 3P1F regions.
type ZX struct {
	FinalStates []string `koanf:"final_states"`

	// Branches2P2F and Branches3P1F map a final state to the prefix of its
	// branches: prefix+"mass", prefix+"lep3_pt", ...
	Branches2P2F map[string]string `koanf:"branches_2p2f"`
	Branches3P1F map[string]string `koanf:"branches_3p1f"`

	Bins int     `koanf:"bins"`
	Min  float64 `koanf:"min"`
	Max  float64 `koanf:"max"`

	// Sample is subtracted from the 3P1F prediction.
	Sample     string `koanf:"sample"`
	OutputFile string `koanf:"output_file"`
}

func (zx ZX) Binning() hist.Binning { return hist.Uniform(zx.Bins, zx.Min, zx.Max) }

// Branch returns the branch prefix of a final state in region "2P2F" or
// "3P1F".
func (zx ZX) Branch(region, fs string) (string, error) {
	var m map[string]string
	switch region {
	case "2P2F":
		m = zx.Branches2P2F
	case "3P1F":
		m = zx.Branches3P1F
	default:
		return "", fmt.Errorf("%w: region %q", ErrUnknownSet, region)
	}
	prefix, ok := m[fs]
	if !ok {
		return "", fmt.Errorf("%w: final state %q in %s", ErrUnknownSet, fs, region)
	}
	return prefix, nil
}

// ControlRegion configures the 2P2F and 3P1F data/simulation plots.
type ControlRegion struct {
	// Dir is the year directory; "{year}" is replaced.
	Dir       string   `koanf:"dir"`
	Processes []string `koanf:"processes"`
	Palette   []string `koanf:"palette"`
	YScale    float64  `koanf:"yscale"`
}

// YearDir returns Dir for year.
func (cr ControlRegion) YearDir(year string) string {
	return strings.ReplaceAll(cr.Dir, "{year}", year)
}

var finalStates = []string{"inclusive", "4e", "4mu", "2e2mu"}

// New returns the default configuration.
func New() *Config {
	zx2, zx3 := make(map[string]string), make(map[string]string)
	for _, fs := range finalStates {
		zx2[fs] = "ZLL2P2F" + fs + "_"
		zx3[fs] = "ZLL3P1F" + fs + "_"
	}
	return &Config{
		TreeName:  "Events",
		DataFiles: []string{"EGamma_merged.root", "MuonEG_merged.root", "Muon_merged.root"},
		ExtraDataFiles: map[string][]string{
			"2022": {"DoubleMuon_merged.root", "SingleMuon_merged.root"},
		},
		Weights:    "1",
		Cuts:       "1",
		OutputDir:  "plots",
		PlotFormat: "png",
		Energy:     "13.6",
		Label:      "CMS Preliminary",
		RatioYMin:  0.5,
		RatioYMax:  1.5,
		FakeRate: FakeRate{
			Set:        "ZL",
			Variable:   "ZLallmu_pt2",
			PtBins:     []float64{5, 7, 10, 15, 20, 25, 30, 40, 60, 100},
			AllPrefix:  "ZLall",
			PassPrefix: "ZLpass",
			Subtract:   "WZ",
			Flavors: []Flavor{
				{Key: "e", Name: "electron", PdgID: 11, BarrelEta: 1.479, LookupEta: 1.5, MinPt: 7, AxisLabel: "p_T(e) [GeV]"},
				{Key: "mu", Name: "muon", PdgID: 13, BarrelEta: 1.2, LookupEta: 1.2, MinPt: 5, AxisLabel: "p_T(μ) [GeV]"},
			},
			HistDir:         "fr_histos",
			PassFile:        "passing_hists.root",
			DenominatorFile: "denominator_hists.root",
			GraphFile:       "fr_graphs.root",
			YMax:            0.35,
		},
		ZX: ZX{
			FinalStates:  append([]string(nil), finalStates...),
			Branches2P2F: zx2,
			Branches3P1F: zx3,
			Bins:         40,
			Min:          70,
			Max:          870,
			Sample:       "ZZ",
			OutputFile:   "ZXHistos_OS.root",
		},
		ControlRegion: ControlRegion{
			Dir:       "plots_ZX_alt_{year}",
			Processes: []string{"ZZ", "WZ", "TTto2L2Nu", "DYJets"},
			Palette:   []string{"#00cccc", "#ff66ff", "#3333ff", "#009900"},
			YScale:    1.3,
		},
	}
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	if c.TreeName == "" {
		return fmt.Errorf("%w: empty tree name", ErrInvalid)
	}
	switch c.PlotFormat {
	case "png", "pdf", "svg", "jpg", "jpeg", "eps", "tif", "tiff":
	default:
		return fmt.Errorf("%w: unsupported plot format %q", ErrInvalid, c.PlotFormat)
	}
	if c.LogY && c.StackYMin < 0 {
		return fmt.Errorf("%w: negative stack minimum %g with log scale", ErrInvalid, c.StackYMin)
	}
	if c.RatioYMax <= c.RatioYMin {
		return fmt.Errorf("%w: ratio range [%g, %g]", ErrInvalid, c.RatioYMin, c.RatioYMax)
	}

	seen := make(map[string]bool, len(c.Samples))
	for i, s := range c.Samples {
		if s.Name == "" || s.File == "" {
			return fmt.Errorf("%w: sample %d needs a name and a file", ErrInvalid, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate sample %q", ErrInvalid, s.Name)
		}
		seen[s.Name] = true
	}

	for set, vars := range c.Variables {
		for i, v := range vars {
			if v.Expr == "" || v.Name == "" {
				return fmt.Errorf("%w: variable %d of set %q needs an expression and a name", ErrInvalid, i, set)
			}
			if err := v.Binning().Validate(); err != nil {
				return fmt.Errorf("%w: variable %q of set %q: %w", ErrInvalid, v.Name, set, err)
			}
		}
	}

	if err := hist.Variable(c.FakeRate.PtBins...).Validate(); err != nil {
		return fmt.Errorf("%w: fake-rate pt bins: %w", ErrInvalid, err)
	}
	if err := c.ZX.Binning().Validate(); err != nil {
		return fmt.Errorf("%w: Z+X binning: %w", ErrInvalid, err)
	}
	for _, fs := range c.ZX.FinalStates {
		for _, region := range []string{"2P2F", "3P1F"} {
			if _, err := c.ZX.Branch(region, fs); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalid, err)
			}
		}
	}
	return nil
}

// VariableSet returns the variables of a group.
func (c *Config) VariableSet(set string) ([]Variable, error) {
	vars, ok := c.Variables[set]
	if !ok || len(vars) == 0 {
		return nil, fmt.Errorf("%w: variable set %q", ErrUnknownSet, set)
	}
	return vars, nil
}

// Variable returns the variable of a group with the given name or
// expression.
func (c *Config) Variable(set, name string) (Variable, error) {
	vars, err := c.VariableSet(set)
	if err != nil {
		return Variable{}, err
	}
	for _, v := range vars {
		if v.Name == name || v.Expr == name {
			return v, nil
		}
	}
	return Variable{}, fmt.Errorf("%w: variable %q in set %q", ErrUnknownSet, name, set)
}

// Sample returns the sample with the given name.
func (c *Config) Sample(name string) (Sample, error) {
	for _, s := range c.Samples {
		if s.Name == name {
			return s, nil
		}
	}
	return Sample{}, fmt.Errorf("%w: sample %q", ErrUnknownSet, name)
}

// SamplePath returns the path of the sample file.
func (c *Config) SamplePath(s Sample) string {
	if filepath.IsAbs(s.File) {
		return s.File
	}
	return filepath.Join(c.BaseDir, s.File)
}

// Variation selects the nominal weight or one of its systematic shifts.
type Variation int

const (
	Nominal Variation = iota
	Up
	Down
)

// SampleWeight returns the weight expression of s for a variation. An
// empty variation falls back to the nominal weight.
func (c *Config) SampleWeight(s Sample, v Variation) string {
	w := c.Weights
	switch v {
	case Up:
		if c.WeightsUp != "" {
			w = c.WeightsUp
		}
	case Down:
		if c.WeightsDown != "" {
			w = c.WeightsDown
		}
	}
	if s.Weight != "" {
		w = s.Weight
	}
	if w == "" {
		w = "1"
	}
	if s.ExtraWeight != "" {
		w = "(" + w + ") * (" + s.ExtraWeight + ")"
	}
	return w
}

// HasSyst reports whether weight variations are configured.
func (c *Config) HasSyst() bool { return c.WeightsUp != "" || c.WeightsDown != "" }

// SampleCuts returns the global cuts combined with the cuts of s.
func (c *Config) SampleCuts(s Sample) string {
	return and(c.Cuts, s.Cuts)
}

func and(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" || a == "1":
		return b
	case b == "" || b == "1":
		return a
	}
	return "(" + a + ") && (" + b + ")"
}

// DataPaths returns the collision data files under dir, the era files
// included.
func (c *Config) DataPaths(dir string) []string {
	files := append([]string(nil), c.DataFiles...)

	eras := make([]string, 0, len(c.ExtraDataFiles))
	for era := range c.ExtraDataFiles {
		eras = append(eras, era)
	}
	sort.Strings(eras)

	parts := strings.Split(filepath.ToSlash(filepath.Clean(c.BaseDir)), "/")
	for _, era := range eras {
		for _, part := range parts {
			if part == era {
				files = append(files, c.ExtraDataFiles[era]...)
				break
			}
		}
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(dir, f)
	}
	return paths
}
