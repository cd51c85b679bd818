package main

import (
	"io"
	"io/ioutil"
	"os"
	"os/exec"

	"git.arvados.org/arvados.git/lib/cmd"
	"github.com/arvados/hmmer2pdf/render"
)

var (
	handler        cmd.Handler = &hmmer2pdf{}
	versionHandler cmd.Handler = cmd.Version
)

func main() {
	os.Exit(handler.RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

const runtimeDockerfile = `FROM debian:10
RUN apt-get update
RUN DEBIAN_FRONTEND=noninteractive apt-get install -y --no-install-recommends texlive-latex-base texlive-latex-extra texlive-pictures texlive-luatex
`

// buildDockerImage builds the image the LaTeX backend runs in when it is
// present on the local host.
func buildDockerImage(tag string, stdout, stderr io.Writer) error {
	tmpdir, err := ioutil.TempDir("", "")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpdir)
	err = ioutil.WriteFile(tmpdir+"/Dockerfile", []byte(runtimeDockerfile), 0644)
	if err != nil {
		return err
	}
	if tag == "" {
		tag = render.DefaultImage
	}
	docker := exec.Command("docker", "build", "--tag="+tag, tmpdir)
	docker.Stdout = stdout
	docker.Stderr = stderr
	return docker.Run()
}
