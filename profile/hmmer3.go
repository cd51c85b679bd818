package profile

import (
	"errors"
	"fmt"
	"strconv"
)

// HMMER3 match rows end with up to five annotation columns:
// MAP, CONS, RF, MM (3/f only) and CS.
const maxMatchAnnotations = 5

// readHMMER3 reads the rest of a HMMER3 model after its format line.
//
// The model section looks like
//
//	HMM          A        C        D  ...
//	            m->m     m->i     m->d     i->m     i->i     d->m     d->d
//	  COMPO   2.70271  4.89246  ...                 (optional)
//	          2.68618  4.42225  ...                 (I0 emissions)
//	          0.00338  6.08833  ...                 (begin transitions)
//	      1   3.16986  5.29871  ...  1 p - - -      (match emissions)
//	          2.68618  4.42225  ...                 (insert emissions)
//	          0.03156  4.08275  ...                 (transitions)
//	  ...
//	//
func (rd *reader) readHMMER3() (*Model, error) {
	m := &Model{Format: HMMER3}
	haveLength := false

HEADER:
	for {
		fields, err := rd.demandFields(0, "header")
		if err != nil {
			return nil, err
		}
		switch fields[0] {
		case "NAME":
			m.Name = headerRest(fields)
		case "ACC":
			m.Accession = headerRest(fields)
		case "DESC":
			m.Description = headerRest(fields)
		case "ALPH":
			m.AlphabetType = headerRest(fields)
		case "LENG":
			if len(fields) < 2 {
				return nil, rd.fail(0, "LENG", errors.New("missing value"))
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, rd.fail(0, "LENG", fmt.Errorf("cannot parse %q", fields[1]))
			}
			m.Length = n
			haveLength = true
		case "HMM":
			if m.Alphabet, err = rd.readAlphabet(fields); err != nil {
				return nil, err
			}
			break HEADER
		case "//":
			return nil, rd.fail(0, "HMM", errors.New("model has no HMM section"))
		}
	}
	if !haveLength {
		return nil, rd.fail(0, "LENG", errors.New("missing header field"))
	}
	if m.AlphabetType == "" {
		return nil, rd.fail(0, "ALPH", errors.New("missing header field"))
	}
	if m.Length < 1 {
		return nil, rd.fail(0, "LENG", fmt.Errorf("model length %d, nothing to draw", m.Length))
	}
	k := m.Alphabet.Len()

	// The transition column labels.
	if _, err := rd.demandFields(0, "transition header"); err != nil {
		return nil, err
	}

	fields, err := rd.demandFields(0, "insert emissions")
	if err != nil {
		return nil, err
	}
	if fields[0] == "COMPO" {
		if len(fields) != k+1 {
			return nil, rd.fail(0, "COMPO", errAlphabetSize(len(fields)-1, k))
		}
		if fields, err = rd.demandFields(0, "insert emissions"); err != nil {
			return nil, err
		}
	}
	m.Begin.Insert, err = rd.readEmissionRow(0, "insert emissions", fields, k, negLn)
	if err != nil {
		return nil, err
	}
	if m.Begin.Trans, err = rd.readTransitionRow(0, negLn, false); err != nil {
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
		pos, err := rd.readHMMER3Node(node, fields, k)
		if err != nil {
			return nil, err
		}
		m.Positions = append(m.Positions, pos)
	}
	return m, nil
}

func (rd *reader) readHMMER3Node(node int, fields []string, k int) (Position, error) {
	pos := Position{Index: node}
	num, err := strconv.Atoi(fields[0])
	if err != nil || num != node {
		return pos, rd.fail(node, "node number", fmt.Errorf("got %q, want %d", fields[0], node))
	}
	if len(fields) < k+1 {
		return pos, rd.fail(node, "match emissions", errAlphabetSize(len(fields)-1, k))
	}
	annotations := fields[k+1:]
	if len(annotations) > maxMatchAnnotations || (len(annotations) > 0 && !isMapAnnotation(annotations[0])) {
		return pos, rd.fail(node, "match emissions",
			fmt.Errorf("row does not match an alphabet of size %d", k))
	}
	if pos.Match, err = parseProbs(fields[1:k+1], negLn); err != nil {
		return pos, rd.fail(node, "match emissions", err)
	}

	fields, err = rd.demandFields(node, "insert emissions")
	if err != nil {
		return pos, err
	}
	if pos.Insert, err = rd.readEmissionRow(node, "insert emissions", fields, k, negLn); err != nil {
		return pos, err
	}
	if pos.Trans, err = rd.readTransitionRow(node, negLn, false); err != nil {
		return pos, err
	}
	return pos, nil
}

func (rd *reader) readEmissionRow(node int, field string, fields []string, k int, sc scale) ([]float64, error) {
	if len(fields) != k {
		return nil, rd.fail(node, field, errAlphabetSize(len(fields), k))
	}
	probs, err := parseProbs(fields, sc)
	if err != nil {
		return nil, rd.fail(node, field, err)
	}
	return probs, nil
}

// readTransitionRow reads a row of transitions. HH-suite rows carry three
// trailing diversity values, allowed when neff is true.
func (rd *reader) readTransitionRow(node int, sc scale, neff bool) (Transitions, error) {
	fields, err := rd.demandFields(node, "transitions")
	if err != nil {
		return Transitions{}, err
	}
	want := int(NumTransitions)
	if len(fields) != want && !(neff && len(fields) == want+3) {
		return Transitions{}, rd.fail(node, "transitions",
			fmt.Errorf("%d values, want %d", len(fields), NumTransitions))
	}
	tp, err := parseTransitions(fields, sc)
	if err != nil {
		return tp, rd.fail(node, "transitions", err)
	}
	return tp, nil
}

// isMapAnnotation reports whether s can be the MAP column of a match row:
// an alignment column number or "-".
func isMapAnnotation(s string) bool {
	if s == "-" {
		return true
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func errAlphabetSize(got, want int) error {
	return fmt.Errorf("%d values for an alphabet of size %d", got, want)
}
