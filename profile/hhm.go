package profile

import (
	"errors"
	"fmt"
	"strconv"
)

// readHHM reads the rest of an HH-suite model after its format line.
//
// An hhm file has four logical sections: meta data, secondary structure and
// alignment sequences (introduced by "SEQ"), and the HMM (introduced by "#").
// The sequences are skipped. In the HMM section the NULL line holds the
// background frequencies, which HH-suite also uses as the insert emissions
// of every node. Each node is two lines: the consensus residue, node number,
// match emissions and the node number again; then seven transitions followed
// by three diversity (Neff) values, which are ignored.
func (rd *reader) readHHM() (*Model, error) {
	m := &Model{Format: HHsuite}
	haveLength := false

	// Meta data, up to the sequence or HMM section.
META:
	for {
		fields, err := rd.demandFields(0, "header")
		if err != nil {
			return nil, err
		}
		switch fields[0] {
		case "NAME":
			m.Name = headerRest(fields)
		case "DESC":
			m.Description = headerRest(fields)
		case "LENG":
			// e.g., "LENG  86 match states, 86 columns in multiple alignment"
			if len(fields) < 2 {
				return nil, rd.fail(0, "LENG", errors.New("missing value"))
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, rd.fail(0, "LENG", fmt.Errorf("cannot parse %q", fields[1]))
			}
			m.Length = n
			haveLength = true
		case "SEQ", "#":
			break META
		case "//":
			return nil, rd.fail(0, "HMM", errors.New("model has no HMM section"))
		}
	}
	if !haveLength {
		return nil, rd.fail(0, "LENG", errors.New("missing header field"))
	}
	if m.Length < 1 {
		return nil, rd.fail(0, "LENG", fmt.Errorf("model length %d, nothing to draw", m.Length))
	}

	// Skip the sequences. The NULL line comes after "#", so anything before
	// it is either a sequence or the "#" separator itself.
	var nullFields []string
	for {
		fields, err := rd.demandFields(0, "NULL")
		if err != nil {
			return nil, err
		}
		if fields[0] == "NULL" {
			nullFields = fields[1:]
			break
		}
		if fields[0] == "//" {
			return nil, rd.fail(0, "HMM", errors.New("model has no HMM section"))
		}
	}

	fields, err := rd.demandFields(0, "HMM")
	if err != nil {
		return nil, err
	}
	if fields[0] != "HMM" {
		return nil, rd.fail(0, "HMM", fmt.Errorf("expected alphabet line, got %q", fields[0]))
	}
	if m.Alphabet, err = rd.readAlphabet(fields); err != nil {
		return nil, err
	}
	k := m.Alphabet.Len()

	// We couldn't read the NULL emissions until we had an alphabet.
	null, err := rd.readEmissionRow(0, "NULL emissions", nullFields, k, negLog2Milli)
	if err != nil {
		return nil, err
	}
	m.Begin.Insert = null

	// The transition column labels, then the begin transitions.
	if _, err := rd.demandFields(0, "transition header"); err != nil {
		return nil, err
	}
	if m.Begin.Trans, err = rd.readTransitionRow(0, negLog2Milli, true); err != nil {
		return nil, err
	}

	m.Positions = make([]Position, 0, m.Length)
	for node := 1; ; node++ {
		fields, err := rd.demandFields(node, "match emissions")
		if err != nil {
			if node > m.Length {
				return nil, rd.fail(0, "//", errors.New("missing model terminator"))
			}
			return nil, rd.fail(node, "match emissions",
				fmt.Errorf("truncated input: %d of %d positions", node-1, m.Length))
		}
		if fields[0] == "//" {
			if node <= m.Length {
				return nil, rd.fail(node, "match emissions",
					fmt.Errorf("truncated model: %d of %d positions", node-1, m.Length))
			}
			break
		}
		if node > m.Length {
			return nil, rd.fail(node, "LENG",
				fmt.Errorf("more positions than the declared length %d", m.Length))
		}
		pos, err := rd.readHHMNode(node, fields, null)
		if err != nil {
			return nil, err
		}
		m.Positions = append(m.Positions, pos)
	}
	return m, nil
}

func (rd *reader) readHHMNode(node int, fields []string, null []float64) (Position, error) {
	k := len(null)
	pos := Position{Index: node}
	if len(fields) != k+3 {
		return pos, rd.fail(node, "match emissions", errAlphabetSize(len(fields)-3, k))
	}
	num, err := strconv.Atoi(fields[1])
	if err != nil || num != node {
		return pos, rd.fail(node, "node number", fmt.Errorf("got %q, want %d", fields[1], node))
	}
	if pos.Match, err = parseProbs(fields[2:k+2], negLog2Milli); err != nil {
		return pos, rd.fail(node, "match emissions", err)
	}
	pos.Insert = append([]float64(nil), null...)
	if pos.Trans, err = rd.readTransitionRow(node, negLog2Milli, true); err != nil {
		return pos, err
	}
	return pos, nil
}
