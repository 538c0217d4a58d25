package sink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/d3fig/pkg/scene"
)

// DOTOptions configures the dataset diagram.
type DOTOptions struct {
	// Detailed adds dataset shapes and record counts to node labels.
	Detailed bool
}

// ToDOT converts a document to a Graphviz diagram of dataset usage.
// Primitives are grouped in one cluster per axes; dataset nodes sit outside
// the clusters since axes may share them.
func ToDOT(doc *scene.Document, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, label := range slices.Sorted(maps.Keys(doc.Data)) {
		text := label
		if opts.Detailed {
			t := doc.Data[label]
			cols := 0
			if len(t) > 0 {
				cols = len(t[0])
			}
			text = fmt.Sprintf("%s\n%d×%d", label, len(t), cols)
		}
		fmt.Fprintf(&buf, "  %q [label=%q, shape=cylinder, fillcolor=lightyellow];\n", "ds:"+label, text)
	}

	for i, ax := range doc.Axes {
		fmt.Fprintf(&buf, "\n  subgraph %q {\n", fmt.Sprintf("cluster_%d", i))
		fmt.Fprintf(&buf, "    label=%q;\n", "axes "+ax.ID)
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, n := range primitiveNodes(ax) {
			fmt.Fprintf(&buf, "    %q [label=%q];\n", n.node, n.kind+"\n"+n.id)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, ax := range doc.Axes {
		for _, n := range primitiveNodes(ax) {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", n.node, "ds:"+n.data, fmt.Sprintf("%d,%d", n.x, n.y))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

type primitiveNode struct {
	node, kind, id, data string
	x, y                 int
}

func primitiveNodes(ax *scene.Axes) []primitiveNode {
	var out []primitiveNode
	add := func(kind, id, data string, x, y int) {
		out = append(out, primitiveNode{node: "el:" + id, kind: kind, id: id, data: data, x: x, y: y})
	}
	for _, l := range ax.Lines {
		add("line", l.ID, l.Data, l.XIndex, l.YIndex)
	}
	for _, p := range ax.Paths {
		add("path", p.ID, p.Data, p.XIndex, p.YIndex)
	}
	for _, m := range ax.Markers {
		add("markers", m.ID, m.Data, m.XIndex, m.YIndex)
	}
	for _, c := range ax.Collections {
		add("collection", c.ID, c.Offsets, c.XIndex, c.YIndex)
	}
	return out
}

// RenderDOTSVG lays out a DOT graph with Graphviz and returns SVG.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
