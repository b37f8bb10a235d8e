package scene

import (
	"math"

	"topomap/core-go/internal/projection"
)

// DefaultStrokeTolerance is how far from a stroke, in drawn pixels, a point still hits it.
const DefaultStrokeTolerance = 5.0

// Canvas is an in-memory Scene that supports hit-testing and selection emphasis.
// It is not safe for concurrent use.
type Canvas struct {
	StrokeTolerance float64

	markers  []Marker
	strokes  []Stroke
	handlers []HitHandler
	focus    Target
}

func NewCanvas() *Canvas {
	return &Canvas{StrokeTolerance: DefaultStrokeTolerance}
}

// Clear drops all elements. Handlers and the current highlight are kept so a redraw during a
// highlight stays emphasized.
func (c *Canvas) Clear() {
	c.markers = c.markers[:0]
	c.strokes = c.strokes[:0]
}

func (c *Canvas) AddMarker(m Marker) {
	c.markers = append(c.markers, c.styleMarker(m))
}

func (c *Canvas) AddStroke(s Stroke) {
	c.strokes = append(c.strokes, c.styleStroke(s))
}

func (c *Canvas) OnHitTest(h HitHandler) {
	if h != nil {
		c.handlers = append(c.handlers, h)
	}
}

func (c *Canvas) Markers() []Marker { return append([]Marker(nil), c.markers...) }

func (c *Canvas) Strokes() []Stroke { return append([]Stroke(nil), c.strokes...) }

func (c *Canvas) Marker(id string) (Marker, bool) {
	for _, m := range c.markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

func (c *Canvas) Stroke(id string) (Stroke, bool) {
	for _, s := range c.strokes {
		if s.ID == id {
			return s, true
		}
	}
	return Stroke{}, false
}

// HitTest finds the element under p in drawn coordinates. Markers win over strokes and later
// elements win over earlier ones, matching paint order.
func (c *Canvas) HitTest(p projection.PlanarPoint) (Target, bool) {
	for i := len(c.markers) - 1; i >= 0; i-- {
		m := c.markers[i]
		if math.Hypot(p.X-m.At.X, p.Y-m.At.Y) <= m.Radius {
			return Target{Kind: KindNode, ID: m.ID}, true
		}
	}
	tol := c.StrokeTolerance
	if tol <= 0 {
		tol = DefaultStrokeTolerance
	}
	for i := len(c.strokes) - 1; i >= 0; i-- {
		s := c.strokes[i]
		if segmentDistance(p, s.From, s.To) <= math.Max(tol, s.Width/2) {
			return Target{Kind: KindLink, ID: s.ID}, true
		}
	}
	return Target{}, false
}

// Activate reports t to every registered hit handler.
func (c *Canvas) Activate(t Target) {
	for _, h := range c.handlers {
		h(t)
	}
}

// Highlight emphasizes t and dims the other elements of the same kind.
func (c *Canvas) Highlight(t Target) {
	c.focus = t
	c.restyle()
}

// ResetHighlight restores default opacity and size everywhere.
func (c *Canvas) ResetHighlight() {
	c.focus = Target{}
	c.restyle()
}

func (c *Canvas) Highlighted() Target { return c.focus }

func (c *Canvas) restyle() {
	for i := range c.markers {
		c.markers[i] = c.styleMarker(c.markers[i])
	}
	for i := range c.strokes {
		c.strokes[i] = c.styleStroke(c.strokes[i])
	}
}

func (c *Canvas) styleMarker(m Marker) Marker {
	m.Opacity, m.Radius = 1, NodeRadius
	if c.focus.Kind != KindNode {
		return m
	}
	if m.ID == c.focus.ID {
		m.Radius = NodeRadiusFocus
	} else {
		m.Opacity = DimmedNodeOpacity
	}
	return m
}

func (c *Canvas) styleStroke(s Stroke) Stroke {
	s.Opacity, s.Width = LinkOpacity, LinkWidth
	if c.focus.Kind != KindLink {
		return s
	}
	if s.ID == c.focus.ID {
		s.Opacity, s.Width = 1, LinkWidthFocus
	} else {
		s.Opacity = DimmedLinkOpacity
	}
	return s
}

func segmentDistance(p, a, b projection.PlanarPoint) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
