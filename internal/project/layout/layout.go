// Package layout positions the resources of a project on a 2-D canvas and
// draws the dependency diagram onto a Surface.
package layout

import "github.com/iac-studio/blueprint/internal/project"

// Options control the geometry of a diagram. Zero fields take defaults.
type Options struct {
	Width       float64
	NodeRadius  float64
	NodeSpacing float64
	TopY        float64
	RowGap      float64
}

const (
	DefaultWidth       = 800
	DefaultNodeRadius  = 30
	DefaultNodeSpacing = 150
	DefaultTopY        = 100
	DefaultRowGap      = 100

	margin = 40
)

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.NodeRadius <= 0 {
		o.NodeRadius = DefaultNodeRadius
	}
	if o.NodeSpacing <= 0 {
		o.NodeSpacing = DefaultNodeSpacing
	}
	if o.TopY <= 0 {
		o.TopY = DefaultTopY
	}
	if o.RowGap <= 0 {
		o.RowGap = DefaultRowGap
	}
	return o
}

// Node is a positioned resource.
type Node struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Kind  project.Kind `json:"kind"`
	Label string       `json:"label"`
	Color string       `json:"color"`
	X     float64      `json:"x"`
	Y     float64      `json:"y"`
}

// Diagram is the result of Layout.
type Diagram struct {
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Radius float64        `json:"radius"`
	Nodes  []Node         `json:"nodes"`
	Edges  []project.Edge `json:"edges"`
}

// Node returns the node for id.
func (d *Diagram) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Layout assigns coordinates to resources. Nodes start in evenly spaced
// slots, in store order and centred on the canvas; nodes without
// dependencies sit on the top row. Each dependent is then moved one row
// below its lowest dependency and centred under them, visiting nodes in
// topological order. Cyclic input is visited in store order instead.
// References to missing resources are ignored.
func Layout(resources []project.Resource, opts Options) *Diagram {
	opts = opts.withDefaults()
	edges, _ := project.Edges(resources)

	d := &Diagram{
		Width:  opts.Width,
		Radius: opts.NodeRadius,
		Nodes:  make([]Node, 0, len(resources)),
		Edges:  edges,
	}
	if d.Edges == nil {
		d.Edges = []project.Edge{}
	}
	if len(resources) == 0 {
		d.Height = opts.TopY + opts.NodeRadius + margin
		return d
	}

	span := float64(len(resources)-1) * opts.NodeSpacing
	if need := span + 2*(opts.NodeRadius+margin); need > d.Width {
		d.Width = need
	}
	startX := d.Width/2 - span/2

	deps := make(map[string][]string, len(resources))
	for _, e := range edges {
		deps[e.To] = append(deps[e.To], e.From)
	}

	index := make(map[string]int, len(resources))
	for i, r := range resources {
		if _, dup := index[r.ID]; dup {
			continue
		}
		y := opts.TopY
		if len(deps[r.ID]) > 0 {
			y += opts.RowGap
		}
		index[r.ID] = len(d.Nodes)
		d.Nodes = append(d.Nodes, Node{
			ID:    r.ID,
			Name:  r.Name,
			Kind:  r.Kind(),
			Label: r.TypeLabel(),
			Color: Color(r.RuleKind()),
			X:     startX + float64(i)*opts.NodeSpacing,
			Y:     y,
		})
	}

	for _, id := range visitOrder(resources) {
		ds := deps[id]
		if len(ds) == 0 {
			continue
		}
		var sumX, maxY float64
		for i, dep := range ds {
			n := d.Nodes[index[dep]]
			sumX += n.X
			if i == 0 || n.Y > maxY {
				maxY = n.Y
			}
		}
		node := &d.Nodes[index[id]]
		node.X = sumX / float64(len(ds))
		node.Y = maxY + opts.RowGap
	}

	maxY := opts.TopY
	for _, n := range d.Nodes {
		if n.Y > maxY {
			maxY = n.Y
		}
	}
	d.Height = maxY + opts.NodeRadius + margin
	return d
}

func visitOrder(resources []project.Resource) []string {
	if order, err := project.TopologicalOrder(resources); err == nil {
		return order
	}
	order := make([]string, 0, len(resources))
	for _, r := range resources {
		order = append(order, r.ID)
	}
	return order
}

var colors = map[project.Kind]string{
	project.KindCompute:            "#f97316",
	project.KindNetwork:            "#0ea5e9",
	project.KindObjectStorage:      "#22c55e",
	project.KindRelationalDatabase: "#8b5cf6",
}

const defaultColor = "#64748b"

// Color returns the fill colour of a kind.
func Color(k project.Kind) string {
	if c, ok := colors[k]; ok {
		return c
	}
	return defaultColor
}
