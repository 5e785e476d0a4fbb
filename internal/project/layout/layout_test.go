package layout

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iac-studio/blueprint/internal/project"
)

func network(id string) project.Resource {
	return project.Resource{ID: id, Name: "net-" + id, Spec: project.NetworkSpec{CIDRBlock: "10.0.0.0/16"}, IsAnchorNetwork: true}
}

func compute(id string, deps ...string) project.Resource {
	return project.Resource{ID: id, Name: "vm-" + id, Spec: project.ComputeSpec{InstanceType: "t2.micro", AMI: "ami-1"}, Dependencies: deps}
}

func bucket(id string) project.Resource {
	return project.Resource{ID: id, Name: "bucket-" + id, Spec: project.ObjectStorageSpec{}}
}

func node(t *testing.T, d *Diagram, id string) Node {
	t.Helper()
	n, ok := d.Node(id)
	require.True(t, ok, id)
	return n
}

func TestLayoutSingleDependency(t *testing.T) {
	d := Layout([]project.Resource{network("n"), compute("c", "n"), bucket("s")}, Options{})

	n, c, s := node(t, d, "n"), node(t, d, "c"), node(t, d, "s")
	require.Equal(t, float64(DefaultWidth), d.Width)
	require.Equal(t, n.X, c.X)
	require.Less(t, n.Y, c.Y)
	require.Equal(t, float64(DefaultTopY), n.Y)
	require.Equal(t, float64(DefaultTopY), s.Y)

	// three slots centred on the canvas
	require.Equal(t, 250.0, n.X)
	require.Equal(t, 550.0, s.X)
	require.Equal(t, "#0ea5e9", n.Color)
	require.Equal(t, "#f97316", c.Color)
}

func TestLayoutColoursCustomByTypeLabel(t *testing.T) {
	typed := project.Resource{ID: "x", Name: "worker", Spec: project.CustomSpec{Type: "EC2"}}
	free := project.Resource{ID: "f", Name: "fn", Spec: project.CustomSpec{Type: "aws_lambda_function"}}
	d := Layout([]project.Resource{typed, free}, Options{})

	require.Equal(t, Color(project.KindCompute), node(t, d, "x").Color)
	require.Equal(t, defaultColor, node(t, d, "f").Color)
}

func TestLayoutAveragesDependencies(t *testing.T) {
	db := project.Resource{ID: "d", Name: "db", Spec: project.DatabaseSpec{Engine: "mysql", InstanceClass: "db.t3.micro", AllocatedStorage: 20}, Dependencies: []string{"n", "c"}}
	d := Layout([]project.Resource{network("n"), compute("c", "n"), db}, Options{})

	n, c, dn := node(t, d, "n"), node(t, d, "c"), node(t, d, "d")
	require.Equal(t, n.X, c.X)
	require.Equal(t, c.Y+DefaultRowGap, dn.Y)
	require.Equal(t, (n.X+c.X)/2, dn.X)
	require.Equal(t, dn.Y+DefaultNodeRadius+margin, d.Height)
}

func TestLayoutIgnoresInsertionOrder(t *testing.T) {
	// dependents listed before their dependencies
	resources := []project.Resource{compute("c2", "c1"), compute("c1", "n"), network("n")}
	d := Layout(resources, Options{})

	n, c1, c2 := node(t, d, "n"), node(t, d, "c1"), node(t, d, "c2")
	require.Equal(t, n.Y+DefaultRowGap, c1.Y)
	require.Equal(t, c1.Y+DefaultRowGap, c2.Y)
	require.Equal(t, n.X, c1.X)
	require.Equal(t, n.X, c2.X)
}

func TestLayoutSkipsDanglingReferences(t *testing.T) {
	c := compute("c", "gone")
	d := Layout([]project.Resource{network("n"), c}, Options{})

	require.Equal(t, float64(DefaultTopY), node(t, d, "c").Y)
	require.Empty(t, d.Edges)
}

func TestLayoutCyclicInputFallsBack(t *testing.T) {
	a := compute("a", "b")
	b := compute("b", "a")
	require.NotPanics(t, func() {
		d := Layout([]project.Resource{a, b}, Options{})
		require.Len(t, d.Nodes, 2)
	})
}

func TestLayoutWidensForManyNodes(t *testing.T) {
	var resources []project.Resource
	for _, id := range strings.Split("abcdefghij", "") {
		resources = append(resources, bucket(id))
	}
	d := Layout(resources, Options{Width: 400})

	require.Greater(t, d.Width, 400.0)
	first, last := node(t, d, "a"), node(t, d, "j")
	require.InDelta(t, d.Width/2, (first.X+last.X)/2, 1e-9)
	require.Greater(t, first.X, 0.0)
}

func TestLayoutIsIdempotent(t *testing.T) {
	resources := []project.Resource{network("n"), compute("c", "n")}
	before := append([]project.Resource(nil), resources...)

	require.Equal(t, Layout(resources, Options{}), Layout(resources, Options{}))
	require.Equal(t, before, resources)
}

type call struct {
	op   string
	args []float64
	text string
}

type recorder struct {
	calls []call
}

func (r *recorder) Begin(w, h float64) { r.calls = append(r.calls, call{op: "begin", args: []float64{w, h}}) }
func (r *recorder) Line(x1, y1, x2, y2 float64, _ string) {
	r.calls = append(r.calls, call{op: "line", args: []float64{x1, y1, x2, y2}})
}
func (r *recorder) Circle(cx, cy, rad float64, fill string) {
	r.calls = append(r.calls, call{op: "circle", args: []float64{cx, cy, rad}, text: fill})
}
func (r *recorder) Text(x, y float64, text string, _ float64, _ string) {
	r.calls = append(r.calls, call{op: "text", args: []float64{x, y}, text: text})
}
func (r *recorder) End() error {
	r.calls = append(r.calls, call{op: "end"})
	return nil
}

func (r *recorder) ops() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.op
	}
	return out
}

func TestRenderDrawsEdgesBeforeNodes(t *testing.T) {
	d := Layout([]project.Resource{network("n"), compute("c", "n")}, Options{})
	rec := &recorder{}
	require.NoError(t, Render(d, rec))

	require.Equal(t, []string{
		"begin",
		"line", "line", "line",
		"circle", "text", "text",
		"circle", "text", "text",
		"end",
	}, rec.ops())

	n, c := node(t, d, "n"), node(t, d, "c")
	edge := rec.calls[1].args
	require.Equal(t, []float64{n.X, n.Y + d.Radius, c.X, c.Y - d.Radius}, edge)

	// arrowhead wings point back up at ±30°
	for _, wing := range rec.calls[2:4] {
		dx, dy := wing.args[2]-wing.args[0], wing.args[3]-wing.args[1]
		require.InDelta(t, arrowLength, math.Hypot(dx, dy), 1e-9)
		require.Less(t, dy, 0.0)
	}

	require.Equal(t, "net-n", rec.calls[5].text)
	require.Equal(t, "VPC", rec.calls[6].text)
	require.Equal(t, n.Y+labelOffset, rec.calls[6].args[1])
}

func TestSVGAndDOT(t *testing.T) {
	custom := compute("c", "n")
	custom.CustomDependencies = []string{"s"}
	d := Layout([]project.Resource{network("n"), bucket("s"), custom}, Options{})

	var svgOut bytes.Buffer
	require.NoError(t, Render(d, NewSVG(&svgOut)))
	require.Contains(t, svgOut.String(), "<svg")
	require.Contains(t, svgOut.String(), "net-n")
	require.Contains(t, svgOut.String(), "#22c55e")
	require.True(t, strings.HasSuffix(strings.TrimSpace(svgOut.String()), "</svg>"))

	var dot bytes.Buffer
	require.NoError(t, WriteDOT(d, &dot))
	require.Contains(t, dot.String(), "digraph")
	require.Contains(t, dot.String(), `"n" -> "c"`)
	require.Contains(t, dot.String(), "dashed")
}
