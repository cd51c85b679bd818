package render

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/arvados/hmmer2pdf/diagram"
	"github.com/arvados/hmmer2pdf/tikz"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultEngine = "lualatex"

	// DefaultImage is the docker image the engine runs in, when an image
	// with that tag exists on the local host.
	DefaultImage = "hmmer2pdf-runtime"

	texName = "hmm"
)

// LaTeX compiles the TikZ document with a local TeX engine.
type LaTeX struct {
	// Engine is the TeX executable, "lualatex" if empty. pdflatex works
	// too, but runs out of memory on large models.
	Engine string

	// Image is a docker image to run the engine in. It is used only if
	// present on the local host. Empty means always run on the host.
	Image string

	// KeepTemp keeps the working directory even when compiling succeeds.
	// It is always kept on failure.
	KeepTemp bool
}

func (l LaTeX) engine() string {
	if l.Engine == "" {
		return DefaultEngine
	}
	return l.Engine
}

// command returns the argv that runs the engine with args in dir, wrapped in
// "docker run" when the runtime image is available.
func (l LaTeX) command(dir string, args ...string) []string {
	argv := append([]string{l.engine()}, args...)
	if l.Image == "" {
		return argv
	}
	if out, err := exec.Command("docker", "image", "ls", "-q", l.Image).Output(); err != nil || len(out) == 0 {
		return argv
	}
	docker := []string{"docker", "run", "--rm", "--log-driver=none"}
	if dir != "" {
		docker = append(docker, "--volume="+dir+":"+dir, "--workdir="+dir)
	}
	return append(append(docker, l.Image), argv...)
}

// Check returns an error if the engine cannot be executed.
func (l LaTeX) Check() error {
	argv := l.command("", "--version")
	if out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput(); err != nil {
		return &BackendError{Backend: l.engine(),
			Err: fmt.Errorf("could not execute %q (do you have a LaTeX suite installed?): %s %s",
				l.engine(), err, bytes.TrimSpace(out))}
	}
	return nil
}

// Render writes the document to a temporary directory, compiles it there
// and returns the resulting PDF.
func (l LaTeX) Render(descs []*diagram.Description) ([]byte, error) {
	tmpdir, err := ioutil.TempDir("", "hmmer2pdf-")
	if err != nil {
		return nil, &BackendError{Backend: l.engine(), Err: err}
	}
	keep := l.KeepTemp
	defer func() {
		if keep {
			log.Printf("keeping temporary data in %s", tmpdir)
			return
		}
		log.Print("cleaning up temporary data")
		os.RemoveAll(tmpdir)
	}()
	fail := func(err error) ([]byte, error) {
		keep = true
		return nil, &BackendError{Backend: l.engine(), Dir: tmpdir, Err: err}
	}

	texfile, err := os.Create(filepath.Join(tmpdir, texName+".tex"))
	if err != nil {
		return fail(err)
	}
	defer texfile.Close()
	err = tikz.Write(texfile, descs)
	if err != nil {
		return fail(err)
	}
	err = texfile.Close()
	if err != nil {
		return fail(err)
	}

	argv := l.command(tmpdir, "-interaction=batchmode", "-halt-on-error", texName)
	log.Printf("compiling %s.tex in %s", texName, tmpdir)
	compile := exec.Command(argv[0], argv[1:]...)
	compile.Dir = tmpdir
	var output bytes.Buffer
	compile.Stdout = &output
	compile.Stderr = &output
	err = compile.Run()
	if err != nil {
		return fail(fmt.Errorf("compiler failed: %s", err))
	}
	pdf, err := ioutil.ReadFile(filepath.Join(tmpdir, texName+".pdf"))
	if err != nil {
		return fail(err)
	}
	return pdf, nil
}
