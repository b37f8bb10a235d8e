package scene

import (
	"topomap/core-go/internal/topology"
	"topomap/core-go/internal/viewport"
)

// Renderer turns a graph into scene elements. The zero value draws links.
type Renderer struct {
	HideLinks bool
}

// Stats describes what the last render drew and skipped.
type Stats struct {
	Markers      int `json:"markers"`
	Strokes      int `json:"strokes"`
	SkippedNodes int `json:"skipped_nodes"`
	SkippedLinks int `json:"skipped_links"`
	HiddenLinks  int `json:"hidden_links"`
}

// Render clears s and draws g under t. Strokes are added before markers so nodes sit on top.
// Nodes without a position and links with an unpositioned or unknown endpoint are skipped.
func (r Renderer) Render(s Scene, g *topology.Graph, t viewport.Transform) Stats {
	s.Clear()
	var st Stats
	if g == nil {
		return st
	}

	for _, l := range g.Links() {
		if r.HideLinks {
			st.HiddenLinks++
			continue
		}
		a, aok, z, zok := g.Endpoints(l)
		if !aok || !zok || !a.Positioned || !z.Positioned {
			st.SkippedLinks++
			continue
		}
		s.AddStroke(Stroke{
			ID:         l.ID,
			From:       t.Apply(a.Position),
			To:         t.Apply(z.Position),
			Color:      StatusColor(l.Status),
			Width:      LinkWidth,
			Opacity:    LinkOpacity,
			ArrowStart: l.Direction.ArrowAtStart(),
			ArrowEnd:   l.Direction.ArrowAtEnd(),
			Direction:  l.Direction,
			Status:     l.Status,
			Classes:    []string{"link", l.Direction.Class(), l.Status.Class()},
		})
		st.Strokes++
	}

	for _, n := range g.Nodes() {
		if !n.Positioned {
			st.SkippedNodes++
			continue
		}
		s.AddMarker(Marker{
			ID:      n.ID,
			Label:   n.DisplayName,
			At:      t.Apply(n.Position),
			Radius:  NodeRadius,
			Fill:    NodeFill,
			Opacity: 1,
			Classes: []string{"node"},
		})
		st.Markers++
	}
	return st
}
