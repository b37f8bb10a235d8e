package viewer

import (
	"topomap/core-go/internal/interaction"
	"topomap/core-go/internal/listview"
	"topomap/core-go/internal/scene"
	"topomap/core-go/internal/viewport"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Status is the one-line message shown next to the map.
type Status struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type EventType string

const (
	EventSelection EventType = "selection"
	EventViewport  EventType = "viewport"
	EventStatus    EventType = "status"
	EventHover     EventType = "hover"
	EventLoaded    EventType = "loaded"
	EventLists     EventType = "lists"
)

// Event is a notification for collaborators outside the core. Exactly one payload is set,
// matching Type.
type Event struct {
	Type      EventType               `json:"type"`
	Selection *scene.Target           `json:"selection,omitempty"`
	Viewport  *viewport.Readout       `json:"viewport,omitempty"`
	Status    *Status                 `json:"status,omitempty"`
	Hover     *interaction.HoverEvent `json:"hover,omitempty"`
	Summary   *Summary                `json:"summary,omitempty"`
	Lists     *Lists                  `json:"lists,omitempty"`
}

type Lists struct {
	Nodes      listview.Page[listview.NodeRow] `json:"nodes"`
	Links      listview.Page[listview.LinkRow] `json:"links"`
	NodesLabel string                          `json:"nodes_label"`
	LinksLabel string                          `json:"links_label"`
}
