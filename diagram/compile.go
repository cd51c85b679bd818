package diagram

import (
	"errors"
	"math"

	"github.com/arvados/hmmer2pdf/profile"
)

// Width maps a transition probability to a line width, in multiples of the
// document's base line width: Min + Gain*p.
type Width struct {
	Min, Gain float64
}

// DefaultWidth draws a probability-1 edge three times as wide as the
// thinnest drawn edge.
var DefaultWidth = Width{Min: 1, Gain: 2}

func (w Width) Of(p float64) float64 {
	return w.Min + w.Gain*p
}

// Options control the visual encodings used by Compile.
type Options struct {
	// Colors for emitting states. Nil means DefaultTint.
	Scale ColorScale

	// Stretch rescales the entropies of each state kind to the full [0, 1]
	// range of the color scale (the lowest entropy in the model gets one
	// extreme, the highest the other). Node.Entropy is not affected.
	Stretch bool

	// Zero value means DefaultWidth.
	Width Width
}

// Compile builds the diagram of a model. Transitions with probability 0 are
// not drawn; every drawn edge is at least Width.Min wide.
//
// The model must satisfy the invariants checked by (*profile.Model).Validate,
// which every model returned by the profile package does. Otherwise Compile
// returns an *InternalInvariantError.
func Compile(m *profile.Model, opts Options) (*Description, error) {
	if m == nil {
		return nil, &InternalInvariantError{Err: errors.New("nil model")}
	}
	if err := m.Validate(); err != nil {
		return nil, &InternalInvariantError{Err: err}
	}
	if opts.Scale == nil {
		opts.Scale = DefaultTint
	}
	if opts.Width == (Width{}) {
		opts.Width = DefaultWidth
	}

	d := &Description{
		Name:     m.Name,
		Length:   m.Length,
		Alphabet: m.Alphabet,
		Nodes:    make([]Node, 0, 3*m.Length+3),
	}
	d.addNodes(m)
	d.addEmissions(m)
	d.color(opts.Scale, opts.Stretch)
	d.addEdges(m, opts.Width)
	return d, nil
}

func (d *Description) addNodes(m *profile.Model) {
	d.Nodes = append(d.Nodes,
		Node{Position: 0, Kind: Begin, Color: TerminalColor},
		Node{Position: 0, Kind: Insert, Entropy: NormalizedEntropy(m.Begin.Insert)},
	)
	for _, pos := range m.Positions {
		d.Nodes = append(d.Nodes,
			Node{Position: pos.Index, Kind: Match, Entropy: NormalizedEntropy(pos.Match)},
			Node{Position: pos.Index, Kind: Insert, Entropy: NormalizedEntropy(pos.Insert)},
			Node{Position: pos.Index, Kind: Delete, Color: DeleteColor},
		)
	}
	d.Nodes = append(d.Nodes, Node{Position: m.Length + 1, Kind: End, Color: TerminalColor})
}

func (d *Description) addEmissions(m *profile.Model) {
	for i, n := range d.Nodes {
		if !n.Kind.Emitting() {
			continue
		}
		pos := &m.Begin
		if n.Position > 0 {
			pos = &m.Positions[n.Position-1]
		}
		probs := pos.Insert
		if n.Kind == Match {
			probs = pos.Match
		}
		d.Emissions = append(d.Emissions, EmissionTable{
			Position: n.Position,
			Kind:     n.Kind,
			Node:     i,
			Probs:    append([]float64(nil), probs...),
		})
	}
}

func (d *Description) color(scale ColorScale, stretch bool) {
	type bounds struct{ lo, hi float64 }
	ranges := map[Kind]*bounds{}
	if stretch {
		for _, n := range d.Nodes {
			if !n.Kind.Emitting() {
				continue
			}
			b, ok := ranges[n.Kind]
			if !ok {
				ranges[n.Kind] = &bounds{n.Entropy, n.Entropy}
				continue
			}
			b.lo = math.Min(b.lo, n.Entropy)
			b.hi = math.Max(b.hi, n.Entropy)
		}
	}
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if !n.Kind.Emitting() {
			continue
		}
		h := n.Entropy
		if b, ok := ranges[n.Kind]; ok {
			span := b.hi - b.lo
			if span == 0 {
				span = 1
			}
			h = (h - b.lo) / span
		}
		n.Color = scale.Color(n.Kind, h)
	}
}

// edgeEnds gives, for each transition kind, the source state at position i
// and the target state together with its position offset from i.
var edgeEnds = [profile.NumTransitions]struct {
	from, to Kind
	next     int
}{
	profile.MM: {Match, Match, 1},
	profile.MI: {Match, Insert, 0},
	profile.MD: {Match, Delete, 1},
	profile.IM: {Insert, Match, 1},
	profile.II: {Insert, Insert, 0},
	profile.DM: {Delete, Match, 1},
	profile.DD: {Delete, Delete, 1},
}

func (d *Description) addEdges(m *profile.Model, width Width) {
	for pos := 0; pos <= m.Length; pos++ {
		trans := m.Begin.Trans
		if pos > 0 {
			trans = m.Positions[pos-1].Trans
		}
		for t := profile.MM; t < profile.NumTransitions; t++ {
			p := trans[t]
			if p == 0 {
				continue
			}
			ends := edgeEnds[t]
			from, ok := d.NodeIndex(pos, ends.from)
			if !ok {
				// Transitions out of D0, which is not drawn.
				continue
			}
			to, ok := d.NodeIndex(pos+ends.next, ends.to)
			if !ok {
				continue
			}
			d.Edges = append(d.Edges, Edge{
				From:       from,
				To:         to,
				Transition: t,
				Prob:       p,
				Width:      width.Of(p),
			})
		}
	}
}
