package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/arvados/hmmer2pdf/diagram"
	"github.com/kshedden/gonpy"
)

// writeEmissionsNumpy writes the emission tables of all descs, in order, as
// one float64 array with a row per table and a column per symbol.
func writeEmissionsNumpy(w io.Writer, descs []*diagram.Description) error {
	rows, cols := 0, 0
	for _, d := range descs {
		if len(d.Emissions) == 0 {
			continue
		}
		k := d.Alphabet.Len()
		if cols == 0 {
			cols = k
		} else if cols != k {
			return fmt.Errorf("cannot export emission tables of models with different alphabet sizes (%d, %d)", cols, k)
		}
		rows += len(d.Emissions)
	}
	out := make([]float64, 0, rows*cols)
	for _, d := range descs {
		for _, t := range d.Emissions {
			out = append(out, t.Probs...)
		}
	}

	bufw := bufio.NewWriter(w)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	npw.Shape = []int{rows, cols}
	err = npw.WriteFloat64(out)
	if err != nil {
		return err
	}
	return bufw.Flush()
}

func writeEmissionsNumpyFile(filename string, descs []*diagram.Description) error {
	output, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer output.Close()
	err = writeEmissionsNumpy(output, descs)
	if err != nil {
		return err
	}
	return output.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
