package diagram

import (
	"image/color"
	"math"

	"gopkg.in/check.v1"
)

type colorSuite struct{}

var _ = check.Suite(&colorSuite{})

func (s *colorSuite) TestNormalizedEntropy(c *check.C) {
	h := NormalizedEntropy([]float64{0.25, 0.25, 0.25, 0.25})
	c.Check(math.Abs(h-1) < 1e-12, check.Equals, true, check.Commentf("%v", h))
	c.Check(NormalizedEntropy([]float64{1, 0, 0, 0}), check.Equals, 0.0)
	c.Check(NormalizedEntropy([]float64{1}), check.Equals, 0.0)

	// Sharper distributions have lower entropy.
	prev := 1.0
	for _, f := range []float64{0.3, 0.5, 0.7, 0.9, 0.99} {
		probs := []float64{f, (1 - f) / 3, (1 - f) / 3, (1 - f) / 3}
		h := NormalizedEntropy(probs)
		c.Check(h < prev, check.Equals, true, check.Commentf("f=%v h=%v prev=%v", f, h, prev))
		prev = h
	}
}

func lightness(c color.RGBA) int {
	return int(c.R) + int(c.G) + int(c.B)
}

func (s *colorSuite) TestTintMonotonic(c *check.C) {
	for _, kind := range []Kind{Match, Insert} {
		prev := -1
		for h := 0.0; h <= 1; h += 0.05 {
			l := lightness(DefaultTint.Color(kind, h))
			c.Check(l >= prev, check.Equals, true, check.Commentf("%s h=%v", kind, h))
			prev = l
		}
		c.Check(DefaultTint.Color(kind, 1), check.Equals, color.RGBA{255, 255, 255, 255})
	}
	c.Check(DefaultTint.Color(Match, 0), check.Equals, DefaultTint.Match)
	c.Check(DefaultTint.Color(Insert, 0), check.Equals, DefaultTint.Insert)
}

func (s *colorSuite) TestNewColorScale(c *check.C) {
	for _, name := range PaletteNames() {
		scale, err := NewColorScale(name)
		c.Assert(err, check.IsNil, check.Commentf("%s", name))
		c.Check(scale.Color(Match, 0), check.Not(check.Equals), scale.Color(Match, 1), check.Commentf("%s", name))
		c.Check(scale.Color(Match, 0.3), check.Equals, scale.Color(Match, 0.3))
		c.Check(scale.Color(Match, 2), check.Equals, scale.Color(Match, 1))
	}
	scale, err := NewColorScale("")
	c.Check(err, check.IsNil)
	c.Check(scale, check.Equals, ColorScale(DefaultTint))

	_, err = NewColorScale("rainbow")
	c.Check(err, check.ErrorMatches, `unknown palette "rainbow".*`)
}
