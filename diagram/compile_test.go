package diagram

import (
	"errors"
	"image/color"
	"math"
	"os"
	"sort"
	"testing"

	"github.com/arvados/hmmer2pdf/profile"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type compileSuite struct{}

var _ = check.Suite(&compileSuite{})

func readModels(c *check.C, filename string) []*profile.Model {
	f, err := os.Open(filename)
	c.Assert(err, check.IsNil)
	defer f.Close()
	models, err := profile.ReadAll(f)
	c.Assert(err, check.IsNil)
	return models
}

func compileFile(c *check.C, filename string, opts Options) []*Description {
	var descs []*Description
	for _, m := range readModels(c, filename) {
		d, err := Compile(m, opts)
		c.Assert(err, check.IsNil)
		descs = append(descs, d)
	}
	return descs
}

func (s *compileSuite) node(c *check.C, d *Description, pos int, kind Kind) Node {
	i, ok := d.NodeIndex(pos, kind)
	c.Assert(ok, check.Equals, true, check.Commentf("%s %d", kind, pos))
	return d.Nodes[i]
}

func (s *compileSuite) TestScenario(c *check.C) {
	m := readModels(c, "../testdata/scenario.hmm")[0]
	d, err := Compile(m, Options{})
	c.Assert(err, check.IsNil)

	m1 := s.node(c, d, 1, Match)
	m2 := s.node(c, d, 2, Match)
	c.Check(math.Abs(m1.Entropy-1) < 1e-4, check.Equals, true, check.Commentf("%v", m1.Entropy))
	c.Check(math.Abs(m2.Entropy-0.12098) < 1e-3, check.Equals, true, check.Commentf("%v", m2.Entropy))

	c.Check(m1.Color, check.Equals, color.RGBA{255, 255, 255, 255})
	c.Check(m2.Color.R, check.Equals, uint8(255))
	c.Check(m2.Color.G < 255 && m2.Color.B < 255, check.Equals, true, check.Commentf("%v", m2.Color))

	tables := map[int][]float64{}
	for _, t := range d.Emissions {
		if t.Kind == Match {
			tables[t.Position] = t.Probs
		}
	}
	c.Check(tables[1], check.DeepEquals, m.Positions[0].Match)
	c.Check(tables[2], check.DeepEquals, m.Positions[1].Match)
}

func (s *compileSuite) TestNodeCount(c *check.C) {
	for _, filename := range []string{"../testdata/scenario.hmm", "../testdata/multi.hmm", "../testdata/tiny.hmm", "../testdata/tinyhh.hhm"} {
		for _, d := range compileFile(c, filename, Options{}) {
			l := d.Length
			c.Check(d.Nodes, check.HasLen, 3*l+3, check.Commentf("%s %s", filename, d.Name))
			count := map[Kind]int{}
			profileNodes := 0
			for _, n := range d.Nodes {
				count[n.Kind]++
				if n.Position >= 1 && n.Position <= l {
					profileNodes++
				}
			}
			c.Check(profileNodes, check.Equals, 3*l)
			c.Check(count, check.DeepEquals, map[Kind]int{Begin: 1, End: 1, Match: l, Insert: l + 1, Delete: l})
			c.Check(d.Emissions, check.HasLen, 2*l+1)
			for i, n := range d.Nodes {
				j, ok := d.NodeIndex(n.Position, n.Kind)
				c.Check(ok, check.Equals, true)
				c.Check(j, check.Equals, i)
			}
		}
	}
}

func (s *compileSuite) TestZeroProbabilityOmitted(c *check.C) {
	m := readModels(c, "../testdata/scenario.hmm")[0]
	d, err := Compile(m, Options{})
	c.Assert(err, check.IsNil)
	c.Check(d.Edges, check.HasLen, 16)
	for _, e := range d.Edges {
		c.Check(e.Prob > 0, check.Equals, true)
		c.Check(e.Width > DefaultWidth.Min, check.Equals, true, check.Commentf("%+v", e))
		if e.Transition == profile.DD {
			c.Errorf("unexpected d->d edge %+v", e)
		}
		if d.Nodes[e.From].Position == 2 && e.Transition == profile.MD {
			c.Errorf("unexpected m->d edge out of the last position %+v", e)
		}
	}
	c.Check(DefaultWidth.Of(0.05) > 1, check.Equals, true)
}

func (s *compileSuite) TestEdgeEndpoints(c *check.C) {
	for _, d := range compileFile(c, "../testdata/multi.hmm", Options{}) {
		for _, e := range d.Edges {
			from, to := d.Nodes[e.From], d.Nodes[e.To]
			comment := check.Commentf("%s %s: %s -> %s", d.Name, e.Transition, from.Label(), to.Label())
			switch e.Transition {
			case profile.II:
				c.Check(e.From, check.Equals, e.To, comment)
			case profile.MI:
				c.Check(to.Position, check.Equals, from.Position, comment)
				c.Check(to.Kind, check.Equals, Insert, comment)
			default:
				c.Check(to.Position, check.Equals, from.Position+1, comment)
			}
			c.Check(from.Kind, check.Not(check.Equals), End, comment)
			c.Check(to.Kind, check.Not(check.Equals), Begin, comment)
		}
	}
}

func (s *compileSuite) TestWidthMonotonic(c *check.C) {
	var edges []Edge
	for _, d := range compileFile(c, "../testdata/multi.hmm", Options{}) {
		edges = append(edges, d.Edges...)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Prob < edges[j].Prob })
	for i := 1; i < len(edges); i++ {
		c.Check(edges[i].Width >= edges[i-1].Width, check.Equals, true,
			check.Commentf("p=%v w=%v, p=%v w=%v", edges[i-1].Prob, edges[i-1].Width, edges[i].Prob, edges[i].Width))
	}
}

func (s *compileSuite) TestDeterministic(c *check.C) {
	scale, err := NewColorScale("kindlmann")
	c.Assert(err, check.IsNil)
	for _, opts := range []Options{{}, {Scale: scale, Stretch: true}} {
		d1 := compileFile(c, "../testdata/tiny.hmm", opts)
		d2 := compileFile(c, "../testdata/tiny.hmm", opts)
		c.Check(d1, check.DeepEquals, d2)
	}
}

func (s *compileSuite) TestStretch(c *check.C) {
	m := readModels(c, "../testdata/scenario.hmm")[0]
	d, err := Compile(m, Options{Stretch: true})
	c.Assert(err, check.IsNil)
	c.Check(s.node(c, d, 1, Match).Color, check.Equals, color.RGBA{255, 255, 255, 255})
	c.Check(s.node(c, d, 2, Match).Color, check.Equals, DefaultTint.Match)
	// Entropy itself is not rescaled.
	c.Check(s.node(c, d, 2, Match).Entropy > 0.1, check.Equals, true)
}

func (s *compileSuite) TestInternalInvariant(c *check.C) {
	_, err := Compile(nil, Options{})
	c.Check(err, check.FitsTypeOf, &InternalInvariantError{})

	m := readModels(c, "../testdata/scenario.hmm")[0]
	m.Positions[1].Match[0] = 0.87
	_, err = Compile(m, Options{})
	c.Assert(err, check.FitsTypeOf, &InternalInvariantError{})
	c.Check(err, check.ErrorMatches, `BUG: .*position 2.*`)
	var merr *profile.MalformedModelError
	c.Check(errors.As(err, &merr), check.Equals, true)
}
