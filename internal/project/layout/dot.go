package layout

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// WriteDOT writes the diagram as a Graphviz DOT digraph. Node positions are
// left to Graphviz; colours and labels follow the SVG rendering and custom
// edges are dashed.
func WriteDOT(d *Diagram, w io.Writer) error {
	g := graph.New(graph.StringHash, graph.Directed())
	for _, n := range d.Nodes {
		err := g.AddVertex(n.ID,
			graph.VertexAttribute("label", fmt.Sprintf(`%s\n%s`, n.Name, n.Label)),
			graph.VertexAttribute("style", "filled"),
			graph.VertexAttribute("fillcolor", n.Color),
			graph.VertexAttribute("fontcolor", textColor),
			graph.VertexAttribute("shape", "circle"),
		)
		if err != nil {
			return fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, e := range d.Edges {
		style := "solid"
		if e.Custom {
			style = "dashed"
		}
		if err := g.AddEdge(e.From, e.To, graph.EdgeAttribute("style", style)); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", e.From, e.To, err)
		}
	}
	return draw.DOT(g, w)
}
