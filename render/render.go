// Package render turns compiled diagrams into document bytes.
package render

import (
	"bytes"
	"fmt"

	"github.com/arvados/hmmer2pdf/diagram"
	"github.com/arvados/hmmer2pdf/tikz"
)

// A Renderer produces a document (normally a PDF) holding one diagram per
// description. It is called once per run and never retried.
type Renderer interface {
	Render(descs []*diagram.Description) ([]byte, error)
}

// BackendError is returned when a rendering backend fails. Dir, if not
// empty, is a working directory that was kept for inspection.
type BackendError struct {
	Backend string
	Dir     string
	Err     error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Backend, e.Err)
	if e.Dir != "" {
		msg += fmt.Sprintf(" (inspect the .log and .tex files in %s)", e.Dir)
	}
	return msg
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Source renders the TeX source of the document instead of compiling it.
type Source struct{}

func (Source) Render(descs []*diagram.Description) ([]byte, error) {
	var buf bytes.Buffer
	if err := tikz.Write(&buf, descs); err != nil {
		return nil, &BackendError{Backend: "tex", Err: err}
	}
	return buf.Bytes(), nil
}
