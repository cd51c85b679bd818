// Package diagram turns a profile HMM into a renderer-independent diagram:
// a left-to-right chain of match, insert and delete states with entropy
// colored nodes, probability weighted edges and per-state emission tables.
package diagram

import (
	"fmt"
	"image/color"

	"github.com/arvados/hmmer2pdf/profile"
)

// Kind is the kind of state a node draws.
type Kind int

const (
	Match Kind = iota
	Insert
	Delete
	Begin
	End
)

func (k Kind) String() string {
	switch k {
	case Match:
		return "match"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Begin:
		return "begin"
	case End:
		return "end"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Emitting reports whether states of this kind emit symbols.
func (k Kind) Emitting() bool {
	return k == Match || k == Insert
}

// Node is a single state in the diagram.
type Node struct {
	Position int
	Kind     Kind

	// Entropy of the state's emissions divided by the maximum entropy for
	// the alphabet, in [0, 1]. Zero for states that emit nothing.
	Entropy float64

	Color color.RGBA
}

// Edge is a transition drawn between two nodes. From and To index
// Description.Nodes; they are equal for insert self-loops.
type Edge struct {
	From, To   int
	Transition profile.Transition
	Prob       float64
	Width      float64
}

// EmissionTable is the emission distribution of an emitting state, in
// alphabet order.
type EmissionTable struct {
	Position int
	Kind     Kind
	Node     int
	Probs    []float64
}

// Description is a compiled diagram of one model.
//
// Nodes are laid out as B, I0, then M_i, I_i, D_i for every position i of
// the model, then E. The delete state of the begin node (D0) is never
// entered and is left out, so a model of length L has 3L+3 nodes. Its
// outgoing transitions (D0->M1, normally probability 1) are dropped with it.
type Description struct {
	Name      string
	Length    int
	Alphabet  profile.Alphabet
	Nodes     []Node
	Edges     []Edge
	Emissions []EmissionTable
}

// NodeIndex returns the index in Nodes of the state of the given kind at
// position pos. Position 0 holds the begin state (asked for as either Begin
// or Match) and I0; position Length+1 holds the end state (End or Match).
func (d *Description) NodeIndex(pos int, kind Kind) (int, bool) {
	return nodeIndex(d.Length, pos, kind)
}

func nodeIndex(length, pos int, kind Kind) (int, bool) {
	switch {
	case pos == 0:
		switch kind {
		case Begin, Match:
			return 0, true
		case Insert:
			return 1, true
		}
	case pos >= 1 && pos <= length:
		switch kind {
		case Match:
			return 2 + 3*(pos-1), true
		case Insert:
			return 3 + 3*(pos-1), true
		case Delete:
			return 4 + 3*(pos-1), true
		}
	case pos == length+1:
		if kind == End || kind == Match {
			return 2 + 3*length, true
		}
	}
	return -1, false
}

// Label is the text drawn inside a node.
func (n Node) Label() string {
	switch n.Kind {
	case Begin:
		return "B"
	case End:
		return "E"
	case Match:
		return fmt.Sprintf("m_{%d}", n.Position)
	case Insert:
		return fmt.Sprintf("i_{%d}", n.Position)
	case Delete:
		return fmt.Sprintf("d_{%d}", n.Position)
	}
	return "?"
}

// InternalInvariantError is returned when Compile is given a model that
// violates the invariants the parser guarantees. It always indicates a bug.
type InternalInvariantError struct {
	Err error
}

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("BUG: model violates parser invariants: %s", e.Err)
}

func (e *InternalInvariantError) Unwrap() error {
	return e.Err
}
