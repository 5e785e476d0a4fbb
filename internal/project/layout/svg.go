package layout

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// SVG is a Surface writing an SVG document.
type SVG struct {
	canvas *svg.SVG
}

func NewSVG(w io.Writer) *SVG {
	return &SVG{canvas: svg.New(w)}
}

func (s *SVG) Begin(width, height float64) {
	s.canvas.Start(px(width), px(height))
	s.canvas.Rect(0, 0, px(width), px(height), "fill:#ffffff")
}

func (s *SVG) Line(x1, y1, x2, y2 float64, stroke string) {
	s.canvas.Line(px(x1), px(y1), px(x2), px(y2), fmt.Sprintf("stroke:%s;stroke-width:2", stroke))
}

func (s *SVG) Circle(cx, cy, r float64, fill string) {
	s.canvas.Circle(px(cx), px(cy), px(r), "fill:"+fill)
}

func (s *SVG) Text(x, y float64, text string, size float64, fill string) {
	s.canvas.Text(px(x), px(y), text,
		fmt.Sprintf("fill:%s;font-size:%gpx;font-family:sans-serif;text-anchor:middle", fill, size))
}

func (s *SVG) End() error {
	s.canvas.End()
	return nil
}

func px(v float64) int { return int(math.Round(v)) }
