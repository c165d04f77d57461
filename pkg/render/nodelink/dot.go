package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/scenebox/pkg/core/box"
	"github.com/matzehuels/scenebox/pkg/core/dag"
	"github.com/matzehuels/scenebox/pkg/core/relative"
	"github.com/matzehuels/scenebox/pkg/scene"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds kind, size and the symbolic top-left corner to labels.
	// When false, only the node id is shown.
	Detailed bool
}

// ToDOT converts the relation graphs of a scene to Graphviz DOT.
//
// Every relative container becomes a cluster holding its children. An edge
// points from the reference node to the node placed against it and is
// labeled with the relation; prior_to edges are dashed since they only
// order drawing. Flex and stack containers are linked to their children
// with dotted, unlabeled edges.
func ToDOT(s *scene.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if root := s.Root(); root != nil {
		w := &writer{buf: &buf, s: s, opts: opts}
		w.node(root, "  ")
		w.object(root, "  ")
	}

	buf.WriteString("}\n")
	return buf.String()
}

type writer struct {
	buf     *bytes.Buffer
	s       *scene.Scene
	opts    Options
	cluster int
}

func (w *writer) name(o scene.Object) string {
	if id := w.s.ID(o); id != "" {
		return id
	}
	return fmt.Sprintf("%s_%p", scene.Kind(o), o)
}

func (w *writer) node(o scene.Object, indent string, extra ...string) {
	attrs := append([]string{fmt.Sprintf("label=%q", w.label(o, ""))}, extra...)
	if _, ok := o.(scene.Arranger); ok {
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	fmt.Fprintf(w.buf, "%s%q [%s];\n", indent, w.name(o), strings.Join(attrs, ", "))
}

func (w *writer) label(o scene.Object, pos string) string {
	if !w.opts.Detailed {
		return w.name(o)
	}
	parts := []string{w.name(o), fmt.Sprintf("%s %dx%d", scene.Kind(o), o.Width(), o.Height())}
	if pos != "" {
		parts = append(parts, pos)
	}
	return strings.Join(parts, "\n")
}

// object emits the children of o and the edges to them.
func (w *writer) object(o scene.Object, indent string) {
	switch c := o.(type) {
	case *scene.Relative:
		w.relative(c, indent)
	case scene.Arranger:
		for _, child := range c.Children() {
			w.node(child, indent)
			fmt.Fprintf(w.buf, "%s%q -> %q [style=dotted, arrowhead=none];\n", indent, w.name(o), w.name(child))
			w.object(child, indent)
		}
	}
}

func (w *writer) relative(r *scene.Relative, indent string) {
	c := r.Container()
	w.cluster++
	fmt.Fprintf(w.buf, "%ssubgraph cluster_%d {\n", indent, w.cluster)
	inner := indent + "  "
	fmt.Fprintf(w.buf, "%slabel=%q;\n%sstyle=\"rounded,dashed\";\n", inner, w.name(r), inner)

	var boxes map[dag.NodeID]box.Box
	if w.opts.Detailed {
		boxes, _, _ = c.Boxes()
	}
	children := c.Children()
	for _, it := range children {
		child, ok := it.(scene.Object)
		if !ok {
			continue
		}
		id, _ := c.ID(it)
		pos := ""
		if b, ok := boxes[id]; ok {
			pos = fmt.Sprintf("(%s, %s)", b.X1(), b.Y1())
		}
		fmt.Fprintf(w.buf, "%s%q [label=%q];\n", inner, w.name(child), w.label(child, pos))
	}
	fmt.Fprintf(w.buf, "%s}\n", indent)

	g := c.Graph()
	for _, it := range children {
		id, _ := c.ID(it)
		for _, e := range g.InEdges(id) {
			from, _ := c.Item(e.From)
			src := w.name(r)
			if e.From != relative.Root {
				src = w.name(from.(scene.Object))
			}
			attrs := []string{fmt.Sprintf("label=%q", e.Label.String())}
			if e.Label == box.PriorTo {
				attrs = append(attrs, "style=dashed")
			}
			fmt.Fprintf(w.buf, "%s%q -> %q [%s];\n", indent, src, w.name(it.(scene.Object)), strings.Join(attrs, ", "))
		}
	}
	for _, it := range children {
		if child, ok := it.(scene.Object); ok {
			w.object(child, indent)
		}
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := render(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG. A scale of 2.0 doubles the default
// 96 dpi for high-DPI displays.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	dpi := fmt.Sprintf("  dpi=%.0f;\n", 96*scale)
	dot = strings.Replace(dot, "{\n", "{\n"+dpi, 1)
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
