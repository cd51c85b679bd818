package main

import (
	"errors"
	"strings"

	"git.arvados.org/arvados.git/sdk/go/arvados"
	"github.com/arvados/hmmer2pdf/render"
	"gopkg.in/check.v1"
)

type arvadosSuite struct{}

var _ = check.Suite(&arvadosSuite{})

func (s *arvadosSuite) TestDocumentCollectionName(c *check.C) {
	name := documentCollectionName([]byte("\\documentclass{standalone}\n"))
	c.Check(strings.HasPrefix(name, "hmmer2pdf-"), check.Equals, true)
	c.Check(name, check.HasLen, len("hmmer2pdf-")+64)
	c.Check(documentCollectionName([]byte("\\documentclass{standalone}\n")), check.Equals, name)
	c.Check(documentCollectionName([]byte("\\documentclass{article}\n")), check.Not(check.Equals), name)
}

func (s *arvadosSuite) TestRequiresProject(c *check.C) {
	runner := &arvadosRenderer{Client: &arvados.Client{}}
	_, err := runner.Render(nil)
	var berr *render.BackendError
	c.Assert(errors.As(err, &berr), check.Equals, true)
	c.Check(berr.Backend, check.Equals, "arvados")
	c.Check(err, check.ErrorMatches, `arvados: cannot run arvados container: ProjectUUID not provided`)
}
