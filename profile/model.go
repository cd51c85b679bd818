// Package profile reads profile hidden Markov models from HMMER3 (.hmm) and
// HH-suite (.hhm) files.
//
// All scores in the files are converted to linear probabilities in [0, 1]
// when read. A model that breaks a stochastic invariant (an emission row or a
// transition group that does not sum to 1) is rejected with a
// *MalformedModelError; it is never repaired.
package profile

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Tolerance is the maximum distance from 1 allowed for the sum of an
// emission distribution or of a transition group.
const Tolerance = 1e-3

// Format identifies the file format a model was read from.
type Format int

const (
	HMMER3 Format = iota
	HHsuite
)

func (f Format) String() string {
	switch f {
	case HMMER3:
		return "HMMER3"
	case HHsuite:
		return "HH-suite"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Transition indexes the transition probabilities of a position.
type Transition int

// Transition kinds, in the column order used by both file formats.
const (
	MM Transition = iota
	MI
	MD
	IM
	II
	DM
	DD
	NumTransitions
)

var transitionNames = [NumTransitions]string{
	"m->m", "m->i", "m->d", "i->m", "i->i", "d->m", "d->d",
}

func (t Transition) String() string {
	if t < 0 || t >= NumTransitions {
		return fmt.Sprintf("Transition(%d)", int(t))
	}
	return transitionNames[t]
}

// transitionGroups lists the transitions leaving each source state.
var transitionGroups = []struct {
	name  string
	trans []Transition
}{
	{"match transitions", []Transition{MM, MI, MD}},
	{"insert transitions", []Transition{IM, II}},
	{"delete transitions", []Transition{DM, DD}},
}

// Transitions holds one probability per Transition.
type Transitions [NumTransitions]float64

// Alphabet is the ordered set of emission symbols. Index i of an emission
// distribution is the probability of symbol i.
type Alphabet []byte

func (a Alphabet) Len() int {
	return len(a)
}

func (a Alphabet) String() string {
	return string(a)
}

// Position is a single node (alignment column) of a profile HMM.
type Position struct {
	// 1-based node number. The begin record has index 0.
	Index int

	// Match emissions. Nil for the begin record.
	Match []float64

	// Insert emissions.
	Insert []float64

	// Transitions from this node's states to the next node.
	Trans Transitions
}

// Model is a profile HMM with every score converted to a probability.
type Model struct {
	Format      Format
	Name        string
	Accession   string
	Description string

	// The ALPH header (HMMER3 only), e.g. "amino" or "DNA".
	AlphabetType string

	// Declared number of match states.
	Length int

	Alphabet Alphabet

	// Begin state transitions and the emissions of the insert state that
	// precedes the first node.
	Begin Position

	// Nodes 1..Length, in file order.
	Positions []Position
}

// Validate checks the invariants every parsed model satisfies: a positive
// length matching the number of positions, emission rows sized to the
// alphabet, probabilities in [0, 1], and rows and transition groups that sum
// to 1 within Tolerance.
func (m *Model) Validate() error {
	if m.Length < 1 {
		return &MalformedModelError{Field: "LENG",
			Err: fmt.Errorf("model length is %d", m.Length)}
	}
	if len(m.Positions) != m.Length {
		return &MalformedModelError{Field: "LENG",
			Err: fmt.Errorf("declared length %d but %d positions",
				m.Length, len(m.Positions))}
	}
	if m.Alphabet.Len() == 0 {
		return &MalformedModelError{Field: "HMM", Err: fmt.Errorf("empty alphabet")}
	}
	if err := m.validatePosition(&m.Begin, false); err != nil {
		return err
	}
	for i := range m.Positions {
		pos := &m.Positions[i]
		if pos.Index != i+1 {
			return &MalformedModelError{Position: pos.Index, Field: "node number",
				Err: fmt.Errorf("expected node %d", i+1)}
		}
		if err := m.validatePosition(pos, i == len(m.Positions)-1); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) validatePosition(pos *Position, last bool) error {
	if pos.Index > 0 {
		if err := m.validateEmissions(pos.Index, "match emissions", pos.Match); err != nil {
			return err
		}
	}
	if err := m.validateEmissions(pos.Index, "insert emissions", pos.Insert); err != nil {
		return err
	}
	for _, p := range pos.Trans {
		if !isProb(p) {
			return &MalformedModelError{Position: pos.Index, Field: "transitions",
				Err: fmt.Errorf("%v is not a probability", p)}
		}
	}
	for _, group := range transitionGroups {
		vals := make([]float64, len(group.trans))
		for i, t := range group.trans {
			vals[i] = pos.Trans[t]
		}
		if sum := floats.Sum(vals); !scalar.EqualWithinAbs(sum, 1, Tolerance) {
			return &MalformedModelError{Position: pos.Index, Field: group.name,
				Err: fmt.Errorf("sum is %.5f", sum)}
		}
	}
	if last && (pos.Trans[MD] != 0 || pos.Trans[DD] != 0) {
		return &MalformedModelError{Position: pos.Index, Field: "transitions",
			Err: fmt.Errorf("last node has a transition to a delete state past the end")}
	}
	return nil
}

func (m *Model) validateEmissions(index int, field string, probs []float64) error {
	if len(probs) != m.Alphabet.Len() {
		return &MalformedModelError{Position: index, Field: field,
			Err: fmt.Errorf("%d values for an alphabet of size %d",
				len(probs), m.Alphabet.Len())}
	}
	for _, p := range probs {
		if !isProb(p) {
			return &MalformedModelError{Position: index, Field: field,
				Err: fmt.Errorf("%v is not a probability", p)}
		}
	}
	if sum := floats.Sum(probs); !scalar.EqualWithinAbs(sum, 1, Tolerance) {
		return &MalformedModelError{Position: index, Field: field,
			Err: fmt.Errorf("sum is %.5f", sum)}
	}
	return nil
}

func isProb(p float64) bool {
	return p >= 0 && p <= 1
}
