package layout

import "math"

// Surface is a drawing target for Render.
type Surface interface {
	Begin(width, height float64)
	Line(x1, y1, x2, y2 float64, stroke string)
	Circle(cx, cy, r float64, fill string)
	Text(x, y float64, text string, size float64, fill string)
	End() error
}

const (
	edgeColor   = "#94a3b8"
	textColor   = "#ffffff"
	arrowLength = 10
	arrowAngle  = math.Pi / 6
	nameSize    = 12
	labelSize   = 10
	labelOffset = 15
)

// Render draws every edge, from the bottom of the dependency to the top of
// the dependent with an arrowhead, and then every node on top.
func Render(d *Diagram, s Surface) error {
	s.Begin(d.Width, d.Height)

	pos := make(map[string]Node, len(d.Nodes))
	for _, n := range d.Nodes {
		pos[n.ID] = n
	}
	for _, e := range d.Edges {
		from, ok := pos[e.From]
		if !ok {
			continue
		}
		to, ok := pos[e.To]
		if !ok {
			continue
		}
		x1, y1 := from.X, from.Y+d.Radius
		x2, y2 := to.X, to.Y-d.Radius
		s.Line(x1, y1, x2, y2, edgeColor)

		angle := math.Atan2(y2-y1, x2-x1)
		for _, side := range []float64{-arrowAngle, arrowAngle} {
			s.Line(x2, y2,
				x2-arrowLength*math.Cos(angle+side),
				y2-arrowLength*math.Sin(angle+side),
				edgeColor)
		}
	}

	for _, n := range d.Nodes {
		s.Circle(n.X, n.Y, d.Radius, n.Color)
		s.Text(n.X, n.Y, n.Name, nameSize, textColor)
		s.Text(n.X, n.Y+labelOffset, n.Label, labelSize, textColor)
	}
	return s.End()
}
