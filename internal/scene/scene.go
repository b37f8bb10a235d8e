// Package scene draws a topology graph onto an abstract overlay surface.
package scene

import (
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/topology"
)

type Kind string

const (
	KindNode Kind = "node"
	KindLink Kind = "link"
)

// Target identifies the graph entity behind a drawn element.
type Target struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

func (t Target) IsZero() bool { return t.ID == "" }

// Marker is a node glyph with its label.
type Marker struct {
	ID      string
	Label   string
	At      projection.PlanarPoint
	Radius  float64
	Fill    string
	Opacity float64
	Classes []string
}

// Stroke is a link drawn from its a-side to its z-side.
type Stroke struct {
	ID         string
	From       projection.PlanarPoint
	To         projection.PlanarPoint
	Color      string
	Width      float64
	Opacity    float64
	ArrowStart bool
	ArrowEnd   bool
	Direction  topology.Direction
	Status     topology.Status
	Classes    []string
}

// StartMarkerID is the arrowhead definition used at the a-side end, or "" when there is none.
func (s Stroke) StartMarkerID() string {
	if !s.ArrowStart {
		return ""
	}
	return "arrow-start-" + s.Status.Class()
}

// EndMarkerID is the arrowhead definition used at the z-side end, or "" when there is none.
func (s Stroke) EndMarkerID() string {
	if !s.ArrowEnd {
		return ""
	}
	return "arrow-end-" + s.Status.Class()
}

type HitHandler func(Target)

// Scene is the drawing surface the renderer targets.
type Scene interface {
	Clear()
	AddMarker(Marker)
	AddStroke(Stroke)
	// OnHitTest registers the handler invoked when a drawn element is activated.
	OnHitTest(HitHandler)
}

const (
	NodeFill        = "#1e88e5"
	NodeRadius      = 6.0
	NodeRadiusFocus = 8.0

	LinkWidth      = 2.0
	LinkWidthFocus = 4.0
	LinkOpacity    = 0.7

	DimmedNodeOpacity = 0.3
	DimmedLinkOpacity = 0.2
)

var palette = map[topology.Status]string{
	topology.StatusUp:      "#00c853",
	topology.StatusDown:    "#ff3d00",
	topology.StatusPartial: "#ffc107",
	topology.StatusInvalid: "#757575",
}

// StatusColor maps a link status to its stroke and arrowhead color.
func StatusColor(s topology.Status) string {
	if c, ok := palette[s]; ok {
		return c
	}
	return palette[topology.StatusInvalid]
}

// Statuses lists every status in code order.
func Statuses() []topology.Status {
	return []topology.Status{topology.StatusInvalid, topology.StatusUp, topology.StatusDown, topology.StatusPartial}
}
