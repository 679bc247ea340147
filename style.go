package hzzplot

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/hzz-analysis/hzzplot/internal/config"
)

// Palette is the CMS colour scheme, used in order for samples without a
// configured colour.
var Palette = []color.Color{
	color.NRGBA{R: 63, G: 144, B: 218, A: 255},
	color.NRGBA{R: 255, G: 19, B: 14, A: 255},
	color.NRGBA{R: 189, G: 31, B: 1, A: 255},
	color.NRGBA{R: 131, G: 45, B: 182, A: 255},
	color.NRGBA{R: 148, G: 164, B: 162, A: 255},
	color.NRGBA{R: 169, G: 107, B: 89, A: 255},
	color.NRGBA{R: 231, G: 99, B: 0, A: 255},
	color.NRGBA{R: 185, G: 172, B: 112, A: 255},
	color.NRGBA{R: 113, G: 117, B: 129, A: 255},
	color.NRGBA{R: 146, G: 218, B: 221, A: 255},
}

var (
	Black = color.NRGBA{A: 255}
	Red   = color.NRGBA{R: 255, A: 255}
	Gray  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

// ParseColor reads "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return nil, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// SampleColor returns the configured colour of the i-th sample, or the
// palette entry when none is set.
func SampleColor(s config.Sample, i int) (color.Color, error) {
	if s.Color == "" {
		return Palette[i%len(Palette)], nil
	}
	c, err := ParseColor(s.Color)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", s.Name, err)
	}
	return c, nil
}

// Header is the text line drawn above the plot frame.
type Header struct {
	Left  string
	Right string
}

// NewHeader builds the experiment label and the luminosity and energy
// line from the configuration.
func NewHeader(cfg *config.Config) Header {
	lumi := Latex(cfg.Lumi)
	if lumi != "" && !strings.Contains(lumi, "fb") {
		lumi += " fb⁻¹"
	}
	right := lumi
	if cfg.Energy != "" {
		right = strings.TrimSpace(right + " (" + cfg.Energy + " TeV)")
	}
	return Header{Left: cfg.Label, Right: right}
}

var latex = strings.NewReplacer(
	"^{-1}", "⁻¹",
	"#bar{t}", "t̄",
	"#DeltaR", "ΔR",
	"#Delta", "Δ",
	"#mu", "μ",
	"#eta", "η",
	"#phi", "φ",
	"#gamma", "γ",
	"#tau", "τ",
	"#nu", "ν",
	"#ell", "ℓ",
	"#rightarrow", "→",
	"#pm", "±",
	"_{T}", "_T",
)

// Latex converts the ROOT markup used in labels, e.g. "4#mu", to plain
// unicode.
func Latex(s string) string { return latex.Replace(s) }
