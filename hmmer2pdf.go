package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"git.arvados.org/arvados.git/sdk/go/arvados"
	"github.com/arvados/hmmer2pdf/diagram"
	"github.com/arvados/hmmer2pdf/profile"
	"github.com/arvados/hmmer2pdf/render"
	log "github.com/sirupsen/logrus"
)

type hmmer2pdf struct {
	engine      string
	image       string
	texOnly     bool
	keepTemp    bool
	palette     string
	stretch     bool
	npyFilename string
	runLocal    bool
	projectUUID string
	priority    int
}

func (cmd *hmmer2pdf) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [options] [infile [outfile]]\n\nReads a HMMER3 (or HH-suite) profile HMM from infile (default stdin) and writes a PDF diagram to outfile (default stdout).\n\n", prog)
		flags.PrintDefaults()
	}
	flags.StringVar(&cmd.engine, "engine", render.DefaultEngine, "TeX `program` used to compile the diagram")
	pdflatex := flags.Bool("pdflatex", false, "use pdflatex instead of lualatex (only works on small HMMs)")
	flags.BoolVar(&cmd.texOnly, "tex", false, "write the TeX source instead of compiling it")
	flags.BoolVar(&cmd.keepTemp, "keep", false, "keep the temporary TeX directory even on success")
	flags.StringVar(&cmd.palette, "palette", "tint", "state color `scale`: "+strings.Join(diagram.PaletteNames(), ", "))
	flags.BoolVar(&cmd.stretch, "stretch", false, "stretch entropies of each state kind to the full color scale")
	flags.StringVar(&cmd.npyFilename, "npy", "", "also write the emission tables as a numpy array to `file`")
	flags.StringVar(&cmd.image, "image", render.DefaultImage, "docker `image` to run the TeX program in, if present")
	flags.BoolVar(&cmd.runLocal, "local", true, "render on local host (false: render in an arvados container)")
	flags.StringVar(&cmd.projectUUID, "project", "", "project `UUID` for containers and output data")
	flags.IntVar(&cmd.priority, "priority", 500, "container request priority")
	buildImage := flags.Bool("build-docker-image", false, "build the docker image named by -image and exit")
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	version := flags.Bool("version", false, "print version information and exit")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if *version {
		return versionHandler.RunCommand(prog, nil, stdin, stdout, stderr)
	}
	if *buildImage {
		err = buildDockerImage(cmd.image, stdout, stderr)
		if err != nil {
			return 1
		}
		return 0
	}
	if flags.NArg() > 2 {
		err = fmt.Errorf("too many arguments: %q", flags.Args()[2:])
		return 2
	}
	if *pdflatex {
		cmd.engine = "pdflatex"
	}
	scale, err := diagram.NewColorScale(cmd.palette)
	if err != nil {
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	renderer, err := cmd.renderer()
	if err != nil {
		return 1
	}

	var input io.Reader = stdin
	if infile := flags.Arg(0); infile != "" && infile != "-" {
		var f *os.File
		f, err = os.Open(infile)
		if err != nil {
			return 1
		}
		defer f.Close()
		input = f
	}
	log.Print("reading HMM file")
	models, err := profile.ReadAll(input)
	if err != nil {
		return 1
	}
	descs := make([]*diagram.Description, 0, len(models))
	for _, m := range models {
		log.Printf("compiling %q (%d positions)", m.Name, m.Length)
		var d *diagram.Description
		d, err = diagram.Compile(m, diagram.Options{Scale: scale, Stretch: cmd.stretch})
		if err != nil {
			return 1
		}
		descs = append(descs, d)
	}

	log.Print("rendering")
	out, err := renderer.Render(descs)
	if err != nil {
		return 1
	}

	// Nothing is written until the document exists.
	if cmd.npyFilename != "" {
		log.Printf("writing emission tables to %s", cmd.npyFilename)
		err = writeEmissionsNumpyFile(cmd.npyFilename, descs)
		if err != nil {
			return 1
		}
	}
	if outfile := flags.Arg(1); outfile != "" && outfile != "-" {
		err = ioutil.WriteFile(outfile, out, 0666)
	} else {
		_, err = stdout.Write(out)
	}
	if err != nil {
		return 1
	}
	return 0
}

// renderer returns the backend selected by the flags. The local TeX engine
// is checked here so a missing installation is reported before any parsing.
func (cmd *hmmer2pdf) renderer() (render.Renderer, error) {
	if cmd.texOnly {
		return render.Source{}, nil
	}
	if !cmd.runLocal {
		return &arvadosRenderer{
			Client:      arvados.NewClientFromEnv(),
			ProjectUUID: cmd.projectUUID,
			Image:       cmd.image,
			Engine:      cmd.engine,
			Priority:    cmd.priority,
		}, nil
	}
	if cmd.engine == "pdflatex" {
		log.Warn("pdflatex runs out of memory on large HMMs, consider lualatex")
	}
	l := render.LaTeX{
		Engine:   cmd.engine,
		Image:    cmd.image,
		KeepTemp: cmd.keepTemp,
	}
	if err := l.Check(); err != nil {
		return nil, err
	}
	return l, nil
}
