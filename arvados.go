package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"git.arvados.org/arvados.git/sdk/go/arvados"
	"git.arvados.org/arvados.git/sdk/go/arvadosclient"
	"git.arvados.org/arvados.git/sdk/go/keepclient"
	"github.com/arvados/hmmer2pdf/diagram"
	"github.com/arvados/hmmer2pdf/render"
	"github.com/arvados/hmmer2pdf/tikz"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// arvadosRenderer compiles the document in an Arvados container and fetches
// the PDF from the container's output collection.
type arvadosRenderer struct {
	Client       *arvados.Client
	ProjectUUID  string
	Image        string
	Engine       string
	Priority     int
	PollInterval time.Duration
}

func (runner *arvadosRenderer) Render(descs []*diagram.Description) ([]byte, error) {
	var tex bytes.Buffer
	err := tikz.Write(&tex, descs)
	if err != nil {
		return nil, &render.BackendError{Backend: "arvados", Err: err}
	}
	pdf, err := runner.run(tex.Bytes())
	if err != nil {
		return nil, &render.BackendError{Backend: "arvados", Err: err}
	}
	return pdf, nil
}

func (runner *arvadosRenderer) run(tex []byte) ([]byte, error) {
	if runner.ProjectUUID == "" {
		return nil, errors.New("cannot run arvados container: ProjectUUID not provided")
	}
	ac, err := arvadosclient.New(runner.Client)
	if err != nil {
		return nil, err
	}
	kc := keepclient.New(ac)
	docUUID, err := runner.makeDocumentCollection(kc, tex)
	if err != nil {
		return nil, err
	}
	cr, err := runner.submit(docUUID)
	if err != nil {
		return nil, err
	}
	cr, err = runner.wait(cr)
	if err != nil {
		return nil, err
	}
	var ctr arvados.Container
	err = runner.Client.RequestAndDecode(&ctr, "GET", "arvados/v1/containers/"+cr.ContainerUUID, nil, nil)
	if err != nil {
		return nil, err
	}
	if ctr.State != arvados.ContainerStateComplete || ctr.ExitCode != 0 {
		return nil, fmt.Errorf("container %s finished with state %s, exit code %d (see log collection %s)", ctr.UUID, ctr.State, ctr.ExitCode, cr.LogUUID)
	}
	var coll arvados.Collection
	err = runner.Client.RequestAndDecode(&coll, "GET", "arvados/v1/collections/"+cr.OutputUUID, nil, nil)
	if err != nil {
		return nil, err
	}
	fs, err := coll.FileSystem(runner.Client, kc)
	if err != nil {
		return nil, err
	}
	f, err := fs.OpenFile("hmm.pdf", os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("output collection %s: %s", coll.UUID, err)
	}
	defer f.Close()
	return ioutil.ReadAll(f)
}

func (runner *arvadosRenderer) submit(docUUID string) (arvados.ContainerRequest, error) {
	engine := runner.Engine
	if engine == "" {
		engine = render.DefaultEngine
	}
	image := runner.Image
	if image == "" {
		image = render.DefaultImage
	}
	mounts := map[string]map[string]interface{}{
		"/mnt/input": {
			"kind": "collection",
			"uuid": docUUID,
		},
		"/mnt/output": {
			"kind":     "tmp",
			"writable": true,
			"capacity": 1000000000,
		},
	}
	rc := arvados.RuntimeConstraints{
		VCPUs:        1,
		RAM:          4000000000,
		KeepCacheRAM: 1 << 26,
	}
	var cr arvados.ContainerRequest
	err := runner.Client.RequestAndDecode(&cr, "POST", "arvados/v1/container_requests", nil, map[string]interface{}{
		"container_request": map[string]interface{}{
			"owner_uuid":          runner.ProjectUUID,
			"name":                "hmmer2pdf " + engine,
			"container_image":     image,
			"command":             []string{engine, "-interaction=batchmode", "-halt-on-error", "-output-directory=/mnt/output", "/mnt/input/hmm.tex"},
			"cwd":                 "/mnt/output",
			"mounts":              mounts,
			"use_existing":        true,
			"output_path":         "/mnt/output",
			"runtime_constraints": rc,
			"priority":            runner.Priority,
			"state":               arvados.ContainerRequestStateCommitted,
		},
	})
	if err != nil {
		return cr, err
	}
	log.Printf("container request %s", cr.UUID)
	return cr, nil
}

func (runner *arvadosRenderer) wait(cr arvados.ContainerRequest) (arvados.ContainerRequest, error) {
	interval := runner.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	state := cr.State
	for cr.State != arvados.ContainerRequestStateFinal {
		time.Sleep(interval)
		err := runner.Client.RequestAndDecode(&cr, "GET", "arvados/v1/container_requests/"+cr.UUID, nil, nil)
		if err != nil {
			return cr, err
		}
		if cr.State != state {
			log.Printf("container request %s is %s", cr.UUID, cr.State)
			state = cr.State
		}
	}
	if cr.OutputUUID == "" {
		return cr, fmt.Errorf("container request %s finished without output", cr.UUID)
	}
	return cr, nil
}

// documentCollectionName names the collection holding a TeX document by
// its content, so rendering the same models again reuses the upload.
func documentCollectionName(tex []byte) string {
	return fmt.Sprintf("hmmer2pdf-%x", blake2b.Sum256(tex))
}

func (runner *arvadosRenderer) makeDocumentCollection(kc *keepclient.KeepClient, tex []byte) (string, error) {
	cname := documentCollectionName(tex)
	var existing arvados.CollectionList
	err := runner.Client.RequestAndDecode(&existing, "GET", "arvados/v1/collections", nil, arvados.ListOptions{
		Limit: 1,
		Count: "none",
		Filters: []arvados.Filter{
			{Attr: "name", Operator: "=", Operand: cname},
			{Attr: "owner_uuid", Operator: "=", Operand: runner.ProjectUUID},
		},
	})
	if err != nil {
		return "", err
	}
	if len(existing.Items) > 0 {
		uuid := existing.Items[0].UUID
		log.Printf("using existing collection %q named %q", uuid, cname)
		return uuid, nil
	}
	log.Printf("writing TeX document to new collection %q", cname)
	var coll arvados.Collection
	fs, err := coll.FileSystem(runner.Client, kc)
	if err != nil {
		return "", err
	}
	f, err := fs.OpenFile("hmm.tex", os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	_, err = f.Write(tex)
	if err != nil {
		return "", err
	}
	err = f.Close()
	if err != nil {
		return "", err
	}
	mtxt, err := fs.MarshalManifest(".")
	if err != nil {
		return "", err
	}
	err = runner.Client.RequestAndDecode(&coll, "POST", "arvados/v1/collections", nil, map[string]interface{}{
		"collection": map[string]interface{}{
			"owner_uuid":    runner.ProjectUUID,
			"manifest_text": mtxt,
			"name":          cname,
		},
	})
	if err != nil {
		return "", err
	}
	log.Printf("collection %s", coll.UUID)
	return coll.UUID, nil
}
