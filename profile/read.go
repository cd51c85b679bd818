package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
)

// ReadAll reads every model in r. Models may be HMMER3 or HH-suite records,
// each terminated by a "//" line. The whole input is read before parsing.
func ReadAll(r io.Reader) ([]*Model, error) {
	rd, err := newReader(r)
	if err != nil {
		return nil, err
	}
	var models []*Model
	for {
		m, err := rd.readModel()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, &MalformedModelError{Field: "header",
			Err: errors.New("no model found in input")}
	}
	return models, nil
}

// Read reads an input holding exactly one model.
func Read(r io.Reader) (*Model, error) {
	models, err := ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(models) != 1 {
		return nil, fmt.Errorf("input has %d models, expected 1", len(models))
	}
	return models[0], nil
}

// reader walks the input line by line, remembering line numbers for error
// messages.
type reader struct {
	lines [][]byte
	next  int
}

func newReader(r io.Reader) (*reader, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading model: %s", err)
	}
	lines := bytes.Split(data, []byte{'\n'})
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, "\r")
	}
	return &reader{lines: lines}, nil
}

// lineNum is the 1-based number of the line most recently returned.
func (rd *reader) lineNum() int {
	return rd.next
}

// nextLine returns the next line, or false at the end of the input.
func (rd *reader) nextLine() ([]byte, bool) {
	if rd.next >= len(rd.lines) {
		return nil, false
	}
	line := rd.lines[rd.next]
	rd.next++
	return line, true
}

// nextFields returns the fields of the next non-blank line.
func (rd *reader) nextFields() ([]string, bool) {
	for {
		line, ok := rd.nextLine()
		if !ok {
			return nil, false
		}
		if fields := strings.Fields(string(line)); len(fields) > 0 {
			return fields, true
		}
	}
}

// demandFields is nextFields for places where the input may not end.
func (rd *reader) demandFields(pos int, what string) ([]string, error) {
	fields, ok := rd.nextFields()
	if !ok {
		return nil, &MalformedModelError{Line: rd.lineNum(), Position: pos, Field: what,
			Err: io.ErrUnexpectedEOF}
	}
	return fields, nil
}

func (rd *reader) fail(pos int, field string, err error) error {
	return &MalformedModelError{Line: rd.lineNum(), Position: pos, Field: field, Err: err}
}

// readModel reads the next model, dispatching on the format line. It
// returns io.EOF when only blank lines remain.
func (rd *reader) readModel() (*Model, error) {
	fields, ok := rd.nextFields()
	if !ok {
		return nil, io.EOF
	}
	var m *Model
	var err error
	switch {
	case strings.HasPrefix(fields[0], "HMMER3"):
		m, err = rd.readHMMER3()
	case strings.HasPrefix(fields[0], "HH"):
		m, err = rd.readHHM()
	default:
		return nil, rd.fail(0, "format", fmt.Errorf("unrecognized format line %q", fields[0]))
	}
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// headerRest returns the text following the tag of a header line.
func headerRest(fields []string) string {
	return strings.Join(fields[1:], " ")
}

// readAlphabet reads the symbols on an "HMM" line.
func (rd *reader) readAlphabet(fields []string) (Alphabet, error) {
	if len(fields) < 2 {
		return nil, rd.fail(0, "HMM", errors.New("no alphabet symbols"))
	}
	alphabet := make(Alphabet, 0, len(fields)-1)
	for _, sym := range fields[1:] {
		if len(sym) != 1 {
			return nil, rd.fail(0, "HMM", fmt.Errorf("invalid alphabet symbol %q", sym))
		}
		alphabet = append(alphabet, sym[0])
	}
	return alphabet, nil
}
