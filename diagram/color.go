package diagram

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// Fixed fills for states without emissions.
var (
	DeleteColor   = color.RGBA{R: 255, A: 255}
	TerminalColor = color.RGBA{R: 191, G: 191, B: 191, A: 255}
)

// NormalizedEntropy returns the Shannon entropy (natural log) of probs
// divided by ln(len(probs)), the entropy of a uniform distribution over the
// same symbols. The result is clamped to [0, 1].
func NormalizedEntropy(probs []float64) float64 {
	if len(probs) < 2 {
		return 0
	}
	h := stat.Entropy(probs) / math.Log(float64(len(probs)))
	return math.Max(0, math.Min(1, h))
}

// A ColorScale maps a normalized entropy in [0, 1] to a fill color for an
// emitting state. Implementations must be deterministic and monotonic.
type ColorScale interface {
	Color(kind Kind, entropy float64) color.RGBA
}

// Tint fades the base color of a state kind toward white as entropy grows.
// Conserved states get the full base color, uniform ones are white.
type Tint struct {
	Match, Insert color.RGBA
}

// DefaultTint uses orange for match states and green for insert states.
var DefaultTint = Tint{
	Match:  color.RGBA{R: 255, G: 128, A: 255},
	Insert: color.RGBA{G: 255, A: 255},
}

func (t Tint) Color(kind Kind, entropy float64) color.RGBA {
	base := t.Match
	if kind == Insert {
		base = t.Insert
	}
	return Mix(base, clamp01(1-entropy))
}

// Mix returns c blended with white, keeping the fraction f of c.
func Mix(c color.RGBA, f float64) color.RGBA {
	mix := func(v uint8) uint8 {
		return uint8(math.Round(float64(v)*f + 255*(1-f)))
	}
	return color.RGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: 255}
}

// Palette maps entropy through a continuous color map, independent of the
// state kind.
type Palette struct {
	cm palette.ColorMap
}

var palettes = map[string]func() palette.ColorMap{
	"kindlmann": func() palette.ColorMap { return moreland.Kindlmann() },
	"blackbody": func() palette.ColorMap { return moreland.BlackBody() },
	"bluered":   func() palette.ColorMap { return moreland.SmoothBlueRed() },
}

// PaletteNames lists the names accepted by NewColorScale.
func PaletteNames() []string {
	names := []string{"tint"}
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

// NewColorScale returns the named color scale: "tint" for DefaultTint, or
// one of the Moreland color maps.
func NewColorScale(name string) (ColorScale, error) {
	if name == "" || name == "tint" {
		return DefaultTint, nil
	}
	mk, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q (choose from %v)", name, PaletteNames())
	}
	cm := mk()
	cm.SetMin(0)
	cm.SetMax(1)
	return Palette{cm: cm}, nil
}

func (p Palette) Color(kind Kind, entropy float64) color.RGBA {
	c, err := p.cm.At(clamp01(entropy))
	if err != nil {
		panic(fmt.Sprintf("BUG: color map rejected %v: %s", entropy, err))
	}
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
