package listview

import (
	"fmt"

	"topomap/core-go/internal/topology"
)

const notAvailable = "N/A"

type NodeRow struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Location    string `json:"location"`
	Coordinates string `json:"coordinates"`
	Positioned  bool   `json:"positioned"`
}

type LinkRow struct {
	ID          string `json:"id"`
	ASide       string `json:"a_side"`
	ZSide       string `json:"z_side"`
	ASideLabel  string `json:"a_side_label"`
	ZSideLabel  string `json:"z_side_label"`
	Title       string `json:"title"`
	Direction   int    `json:"direction"`
	Symbol      string `json:"symbol"`
	Status      int    `json:"status"`
	StatusText  string `json:"status_text"`
	StatusClass string `json:"status_class"`
	Aggregated  int    `json:"aggregated"`
}

func NodeRows(g *topology.Graph) []NodeRow {
	nodes := g.Nodes()
	rows := make([]NodeRow, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, NewNodeRow(n))
	}
	return rows
}

func NewNodeRow(n topology.Node) NodeRow {
	row := NodeRow{
		ID:          n.ID,
		DisplayName: n.DisplayName,
		Location:    n.LocationLabel,
		Coordinates: notAvailable,
		Positioned:  n.Positioned,
	}
	if c := n.Coordinate; c != nil {
		row.Coordinates = fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
	}
	return row
}

// LinkRows resolves endpoint labels against g. Unknown endpoints keep their raw ids.
func LinkRows(g *topology.Graph) []LinkRow {
	links := g.Links()
	rows := make([]LinkRow, 0, len(links))
	for _, l := range links {
		rows = append(rows, NewLinkRow(g, l))
	}
	return rows
}

func NewLinkRow(g *topology.Graph, l topology.Link) LinkRow {
	a, z := g.Label(l.ASide), g.Label(l.ZSide)
	return LinkRow{
		ID:          l.ID,
		ASide:       l.ASide,
		ZSide:       l.ZSide,
		ASideLabel:  a,
		ZSideLabel:  z,
		Title:       a + " " + l.Direction.Symbol() + " " + z,
		Direction:   int(l.Direction),
		Symbol:      l.Direction.Symbol(),
		Status:      int(l.Status),
		StatusText:  l.Status.Text(),
		StatusClass: l.Status.BadgeClass(),
		Aggregated:  len(l.Aggregated),
	}
}

// NodeFields are the strings a node filter matches: id, display name and location.
func NodeFields(r NodeRow) []string {
	return []string{r.ID, r.DisplayName, r.Location}
}

// LinkFields are the strings a link filter matches: id, both node ids and both labels.
func LinkFields(r LinkRow) []string {
	return []string{r.ID, r.ASide, r.ZSide, r.ASideLabel, r.ZSideLabel}
}

func NewNodeExplorer(pageSize int) *Explorer[NodeRow] {
	return New(pageSize, NodeFields)
}

func NewLinkExplorer(pageSize int) *Explorer[LinkRow] {
	return New(pageSize, LinkFields)
}
