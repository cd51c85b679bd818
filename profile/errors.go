package profile

import (
	"fmt"
	"strings"
)

// MalformedModelError reports input that is not a well-formed profile HMM.
// Position is the node number the fault was found in (0 for the begin
// record or the header), and Line the 1-based input line when known.
type MalformedModelError struct {
	Line     int
	Position int
	Field    string
	Err      error
}

func (e *MalformedModelError) Error() string {
	var where []string
	if e.Line > 0 {
		where = append(where, fmt.Sprintf("line %d", e.Line))
	}
	if e.Position > 0 {
		where = append(where, fmt.Sprintf("position %d", e.Position))
	}
	msg := "malformed model"
	if len(where) > 0 {
		msg += " (" + strings.Join(where, ", ") + ")"
	}
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedModelError) Unwrap() error {
	return e.Err
}
