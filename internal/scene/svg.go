package scene

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"topomap/core-go/internal/projection"
)

// SVG collects scene elements and writes them as a standalone overlay document whose viewBox
// matches the base-map asset.
type SVG struct {
	Width  float64
	Height float64
	// Reference, when set, draws a marker at the projected null island for calibration checks.
	Reference *projection.PlanarPoint

	markers  []Marker
	strokes  []Stroke
	handlers []HitHandler
}

func NewSVG(width, height float64) *SVG {
	return &SVG{Width: width, Height: height}
}

func (s *SVG) Clear() {
	s.markers = nil
	s.strokes = nil
}

func (s *SVG) AddMarker(m Marker) { s.markers = append(s.markers, m) }

func (s *SVG) AddStroke(st Stroke) { s.strokes = append(s.strokes, st) }

// OnHitTest is accepted for interface parity. Elements carry data-node-id/data-link-id
// attributes so a browser can dispatch clicks itself.
func (s *SVG) OnHitTest(h HitHandler) {
	if h != nil {
		s.handlers = append(s.handlers, h)
	}
}

func (s *SVG) String() string {
	var b strings.Builder
	_, _ = s.WriteTo(&b)
	return b.String()
}

func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %s %s\" width=\"%s\" height=\"%s\">\n",
		f(s.Width), f(s.Height), f(s.Width), f(s.Height))

	b.WriteString("  <defs>\n")
	for _, st := range Statuses() {
		class, color := st.Class(), StatusColor(st)
		fmt.Fprintf(&b, "    <marker id=\"arrow-end-%s\" viewBox=\"0 0 10 10\" refX=\"9\" refY=\"5\" markerWidth=\"8\" markerHeight=\"8\" orient=\"auto\">\n", class)
		fmt.Fprintf(&b, "      <path d=\"M 0 0 L 10 5 L 0 10 z\" fill=\"%s\" />\n", color)
		b.WriteString("    </marker>\n")
		fmt.Fprintf(&b, "    <marker id=\"arrow-start-%s\" viewBox=\"0 0 10 10\" refX=\"1\" refY=\"5\" markerWidth=\"8\" markerHeight=\"8\" orient=\"auto\">\n", class)
		fmt.Fprintf(&b, "      <path d=\"M 10 0 L 0 5 L 10 10 z\" fill=\"%s\" />\n", color)
		b.WriteString("    </marker>\n")
	}
	b.WriteString("  </defs>\n")

	b.WriteString("  <g class=\"links\">\n")
	for _, st := range s.strokes {
		fmt.Fprintf(&b, "    <line class=\"%s\" data-link-id=\"%s\" x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\" stroke=\"%s\" stroke-width=\"%s\" opacity=\"%s\"",
			attr(strings.Join(st.Classes, " ")), attr(st.ID),
			f(st.From.X), f(st.From.Y), f(st.To.X), f(st.To.Y),
			st.Color, f(st.Width), f(st.Opacity))
		if id := st.StartMarkerID(); id != "" {
			fmt.Fprintf(&b, " marker-start=\"url(#%s)\"", id)
		}
		if id := st.EndMarkerID(); id != "" {
			fmt.Fprintf(&b, " marker-end=\"url(#%s)\"", id)
		}
		b.WriteString(" />\n")
	}
	b.WriteString("  </g>\n")

	b.WriteString("  <g class=\"nodes\">\n")
	for _, m := range s.markers {
		fmt.Fprintf(&b, "    <g class=\"%s\" data-node-id=\"%s\" opacity=\"%s\">\n", attr(strings.Join(m.Classes, " ")), attr(m.ID), f(m.Opacity))
		fmt.Fprintf(&b, "      <circle cx=\"%s\" cy=\"%s\" r=\"%s\" fill=\"%s\" stroke=\"white\" stroke-width=\"2\" />\n",
			f(m.At.X), f(m.At.Y), f(m.Radius), m.Fill)
		fmt.Fprintf(&b, "      <text x=\"%s\" y=\"%s\" text-anchor=\"middle\">%s</text>\n",
			f(m.At.X), f(m.At.Y-10), html.EscapeString(m.Label))
		b.WriteString("    </g>\n")
	}
	b.WriteString("  </g>\n")

	if p := s.Reference; p != nil {
		b.WriteString("  <g class=\"reference\">\n")
		fmt.Fprintf(&b, "    <circle cx=\"%s\" cy=\"%s\" r=\"8\" fill=\"red\" stroke=\"white\" stroke-width=\"2\" />\n", f(p.X), f(p.Y))
		fmt.Fprintf(&b, "    <text x=\"%s\" y=\"%s\" fill=\"red\" text-anchor=\"middle\">0,0</text>\n", f(p.X), f(p.Y-12))
		b.WriteString("  </g>\n")
	}

	b.WriteString("</svg>\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attr(v string) string {
	return html.EscapeString(v)
}
