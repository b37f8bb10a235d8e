package viewer

import (
	"fmt"

	"topomap/core-go/internal/listview"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/topology"
)

// Summary describes the loaded graph for headers and status lines.
type Summary struct {
	Name       string `json:"name"`
	Nodes      int    `json:"nodes"`
	Links      int    `json:"links"`
	Positioned int    `json:"positioned"`
	Text       string `json:"text"`
}

func (v *Viewer) Summary() Summary {
	return Summarize(v.store.Current())
}

// Summarize counts g. Text reads like "1,234 nodes, 2,001 links".
func Summarize(g *topology.Graph) Summary {
	s := Summary{Name: g.Name(), Nodes: g.NodeCount(), Links: g.LinkCount()}
	for _, n := range g.Nodes() {
		if n.Positioned {
			s.Positioned++
		}
	}
	s.Text = fmt.Sprintf("%s nodes, %s links", listview.FormatCount(s.Nodes), listview.FormatCount(s.Links))
	return s
}

type NodeDetail struct {
	Node           topology.Node      `json:"node"`
	Location       string             `json:"location"`
	Latitude       string             `json:"latitude"`
	Longitude      string             `json:"longitude"`
	Region         string             `json:"region"`
	ConnectedLinks []listview.LinkRow `json:"connected_links"`
	Neighbors      []string           `json:"neighbors"`
}

type LinkDetail struct {
	Link          topology.Link      `json:"link"`
	Title         string             `json:"title"`
	ASide         string             `json:"a_side"`
	ZSide         string             `json:"z_side"`
	DirectionText string             `json:"direction_text"`
	StatusText    string             `json:"status_text"`
	StatusClass   string             `json:"status_class"`
	Aggregated    []listview.LinkRow `json:"aggregated"`
	// DistanceKm and LatencyMs are set only when both endpoints have coordinates.
	DistanceKm *float64 `json:"distance_km,omitempty"`
	LatencyMs  *float64 `json:"latency_ms,omitempty"`
}

func (v *Viewer) NodeDetails(id string) (NodeDetail, error) {
	return DescribeNode(v.store.Current(), id)
}

func (v *Viewer) LinkDetails(id string) (LinkDetail, error) {
	return DescribeLink(v.store.Current(), id)
}

// DescribeNode gathers what a node detail view shows. Missing values read "N/A".
func DescribeNode(g *topology.Graph, id string) (NodeDetail, error) {
	n, err := g.Node(id)
	if err != nil {
		return NodeDetail{}, err
	}
	d := NodeDetail{
		Node:           n,
		Location:       orNA(n.LocationLabel),
		Latitude:       "N/A",
		Longitude:      "N/A",
		Region:         "Unknown Region",
		ConnectedLinks: []listview.LinkRow{},
		Neighbors:      g.Neighbors(id),
	}
	if c := n.Coordinate; c != nil {
		d.Latitude = fmt.Sprintf("%.4f", c.Latitude)
		d.Longitude = fmt.Sprintf("%.4f", c.Longitude)
		d.Region = projection.Region(*c)
	}
	for _, l := range g.ConnectedLinks(id) {
		d.ConnectedLinks = append(d.ConnectedLinks, listview.NewLinkRow(g, l))
	}
	if d.Neighbors == nil {
		d.Neighbors = []string{}
	}
	return d, nil
}

// DescribeLink gathers what a link detail view shows, including the great-circle distance
// between its endpoints and the propagation delay it implies.
func DescribeLink(g *topology.Graph, id string) (LinkDetail, error) {
	l, err := g.Link(id)
	if err != nil {
		return LinkDetail{}, err
	}
	row := listview.NewLinkRow(g, l)
	d := LinkDetail{
		Link:          l,
		Title:         row.Title,
		ASide:         endpointLabel(g, l.ASide),
		ZSide:         endpointLabel(g, l.ZSide),
		DirectionText: l.Direction.Text(),
		StatusText:    l.Status.Text(),
		StatusClass:   l.Status.BadgeClass(),
		Aggregated:    []listview.LinkRow{},
	}
	for _, a := range l.Aggregated {
		d.Aggregated = append(d.Aggregated, listview.NewLinkRow(g, a))
	}

	a, aok, z, zok := g.Endpoints(l)
	if aok && zok && a.Coordinate != nil && z.Coordinate != nil {
		km := projection.GreatCircleKm(*a.Coordinate, *z.Coordinate)
		ms := projection.RoundTripMillis(km)
		d.DistanceKm, d.LatencyMs = &km, &ms
	}
	return d, nil
}

// endpointLabel is "R1 (London, UK)" or just the label when no location is known.
func endpointLabel(g *topology.Graph, id string) string {
	label := g.Label(id)
	if n, err := g.Node(id); err == nil && n.LocationLabel != "" {
		return fmt.Sprintf("%s (%s)", label, n.LocationLabel)
	}
	return label
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
