// Package tikz writes compiled profile HMM diagrams as a LaTeX document
// drawn with TikZ. Each diagram becomes one tikzpicture, which the
// standalone document class puts on a page of its own.
package tikz

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/arvados/hmmer2pdf/diagram"
	"github.com/arvados/hmmer2pdf/profile"
)

// Symbols per column of an emission table.
const tableRows = 10

const preamble = `\documentclass[tikz,crop,10pt]{standalone}
\usetikzlibrary{positioning}
\usetikzlibrary{matrix}
\usetikzlibrary{arrows.meta}
\usetikzlibrary{shapes.geometric}
\newlength\hdist
\newlength\vdist
\newlength\lwidth
\setlength\hdist{1mm}
\setlength\vdist{1mm}
\setlength\lwidth{.0125mm}
`

const settings = `    [
    % Overall settings
    every node/.append style={scale=0.05},
    font=\small,
    line width=.0125mm,
    % Probability text nodes
    prob/.style={inner sep=.5mm, fill=white, midway},
    loopprob/.style={prob, above=.03mm},
    dprob/.style={prob, near end},
    % General states
    state/.style={minimum size=2.0em, inner sep=0mm, draw},
    emitting/.style={state, circle},
    nonemitting/.style={state, diamond},
    mstate/.style={emitting, minimum size=2.0em},
    istate/.style={emitting},
    dstate/.style={nonemitting},
    % Transitions
    arr/.tip={Triangle[scale=.1]},
    trans/.style={-arr},
    ]
`

// Write writes a complete LaTeX document holding one picture per
// description.
func Write(w io.Writer, descs []*diagram.Description) error {
	buf := bufio.NewWriter(w)
	if _, err := buf.WriteString(preamble); err != nil {
		return err
	}
	if err := writeColors(buf); err != nil {
		return err
	}
	if _, err := buf.WriteString("\\begin{document}\n"); err != nil {
		return err
	}
	for _, d := range descs {
		if err := writePicture(buf, d); err != nil {
			return err
		}
	}
	if _, err := buf.WriteString("\\end{document}\n"); err != nil {
		return err
	}
	return buf.Flush()
}

// writeColors defines the base colors of the emission table cells. Cells
// encode probability, not entropy, so they keep the default tint whatever
// color scale the nodes were drawn with.
func writeColors(buf *bufio.Writer) error {
	_, err := fmt.Fprintf(buf, "\\definecolor{mcolor}{RGB}{%s}\n\\definecolor{icolor}{RGB}{%s}\n",
		rgb(diagram.DefaultTint.Match), rgb(diagram.DefaultTint.Insert))
	return err
}

func writePicture(buf *bufio.Writer, d *diagram.Description) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if err, ok = r.(error); ok {
				return
			}
			panic(r)
		}
	}()
	w := func(format string, v ...interface{}) {
		if _, err = fmt.Fprintf(buf, format, v...); err != nil {
			panic(err)
		}
	}

	w("%% %s\n", comment(d.Name))
	w("    \\begin{tikzpicture}\n")
	w("%s", settings)
	for _, n := range d.Nodes {
		w("        %s\n", nodeCommand(n))
	}
	for _, t := range d.Emissions {
		writeTable(w, d, t)
	}
	for _, e := range d.Edges {
		w("        %s\n", edgeCommand(d, e))
	}
	w("    \\end{tikzpicture}\n")
	return nil
}

// nodeName is the TikZ name of a node. The begin and end states share the
// "m" prefix with match states so the chain can be placed uniformly.
func nodeName(n diagram.Node) string {
	switch n.Kind {
	case diagram.Insert:
		return fmt.Sprintf("i%d", n.Position)
	case diagram.Delete:
		return fmt.Sprintf("d%d", n.Position)
	}
	return fmt.Sprintf("m%d", n.Position)
}

func nodeCommand(n diagram.Node) string {
	style := "fill=" + fill(n.Color)
	switch n.Kind {
	case diagram.Begin:
		return fmt.Sprintf("\\node[mstate, %s] (%s) {%s};", style, nodeName(n), n.Label())
	case diagram.Match, diagram.End:
		return fmt.Sprintf("\\node[mstate, %s, right=\\hdist of m%d] (%s) {%s};",
			style, n.Position-1, nodeName(n), mathLabel(n))
	case diagram.Insert:
		return fmt.Sprintf("\\node[istate, %s, above right=\\vdist and .5\\hdist of m%d] (%s) {%s};",
			style, n.Position, nodeName(n), mathLabel(n))
	case diagram.Delete:
		return fmt.Sprintf("\\node[dstate, %s, below=\\vdist of m%d] (%s) {%s};",
			style, n.Position, nodeName(n), mathLabel(n))
	}
	panic(fmt.Sprintf("BUG: unknown node kind %v", n.Kind))
}

func mathLabel(n diagram.Node) string {
	if n.Kind == diagram.End {
		return n.Label()
	}
	return "$" + n.Label() + "$"
}

func edgeCommand(d *diagram.Description, e diagram.Edge) string {
	from, to := nodeName(d.Nodes[e.From]), nodeName(d.Nodes[e.To])
	style := fmt.Sprintf("trans, line width=%s\\lwidth", num(e.Width))
	label := fmt.Sprintf("{$%.3f$}", e.Prob)
	switch e.Transition {
	case profile.II:
		return fmt.Sprintf("\\draw [%s] (%s) to [out=60,in=120,looseness=8] node [loopprob] %s (%s);",
			style, from, label, to)
	case profile.MD, profile.DM:
		return fmt.Sprintf("\\draw [%s] (%s) -- (%s) node [dprob] %s;", style, from, to, label)
	}
	return fmt.Sprintf("\\draw [%s] (%s) -- (%s) node [prob] %s;", style, from, to, label)
}

// writeTable draws an emission table next to its state: below match
// states, above insert states. Symbols fill the columns top to bottom, ten
// per column, each on a circle tinted by its probability.
func writeTable(w func(string, ...interface{}), d *diagram.Description, t diagram.EmissionTable) {
	n := d.Nodes[t.Node]
	place, tint := "below=1.8mm of", "mcolor"
	if t.Kind == diagram.Insert {
		place, tint = "above=.8mm of", "icolor"
	}
	k := len(t.Probs)
	cols := (k + tableRows - 1) / tableRows
	rows := (k + cols - 1) / cols

	w("        \\matrix [inner sep=.05mm, outer sep=0pt, %s %s, matrix of nodes, "+
		"nodes={inner sep=.2mm, font=\\tiny, minimum size=1.0em}, row sep=.04mm] (e%s) {%%\n",
		place, nodeName(n), nodeName(n))
	for row := 0; row < rows; row++ {
		var cells []string
		for col := 0; col < cols; col++ {
			i := col*rows + row
			if i >= k {
				cells = append(cells, "", "")
				continue
			}
			pct := int(math.Floor(100 * t.Probs[i]))
			cells = append(cells,
				fmt.Sprintf("|[circle, fill=%s!%d]|%s", tint, pct, symbol(d.Alphabet[i])),
				fmt.Sprintf("$%.3f$", t.Probs[i]))
		}
		w("            %s \\\\\n", strings.Join(cells, " & "))
	}
	w("        };\n")
	w("        \\draw [rounded corners=.1mm] (e%s.south west) rectangle (e%s.north east);\n",
		nodeName(n), nodeName(n))
}

// symbol escapes characters that are special to TeX.
func symbol(c byte) string {
	switch c {
	case '#', '$', '%', '&', '_', '{', '}':
		return "\\" + string(c)
	case '~', '^', '\\':
		return fmt.Sprintf("\\char%d{}", c)
	case '-':
		return "{-}"
	}
	return string(c)
}

func fill(c color.RGBA) string {
	return fmt.Sprintf("{rgb,255:red,%d;green,%d;blue,%d}", c.R, c.G, c.B)
}

func rgb(c color.RGBA) string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

func num(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}

func comment(s string) string {
	if s == "" {
		return "(unnamed model)"
	}
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}
