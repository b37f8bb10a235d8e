// Package topology holds the immutable node/link model built from topology documents.
package topology

import (
	"errors"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"topomap/core-go/internal/projection"
)

var ErrNotFound = errors.New("not found")

// Projector places geographic coordinates on the map.
type Projector interface {
	Project(projection.GeoCoordinate) (projection.PlanarPoint, bool)
}

type Node struct {
	ID            string                    `json:"id"`
	DisplayName   string                    `json:"displayName"`
	Coordinate    *projection.GeoCoordinate `json:"coordinate,omitempty"`
	LocationLabel string                    `json:"locationLabel,omitempty"`
	Position      projection.PlanarPoint    `json:"position"`
	// Positioned is false when the coordinate is missing or did not project.
	Positioned bool `json:"positioned"`
}

type Link struct {
	ID         string    `json:"id"`
	ASide      string    `json:"aSideNodeId"`
	ZSide      string    `json:"zSideNodeId"`
	Direction  Direction `json:"direction"`
	Status     Status    `json:"status"`
	Aggregated []Link    `json:"aggregatedLinks,omitempty"`
}

// Touches reports whether nodeID is either endpoint.
func (l Link) Touches(nodeID string) bool {
	return l.ASide == nodeID || l.ZSide == nodeID
}

// Graph is never mutated after Build; reloads replace it.
type Graph struct {
	name     string
	nodes    *orderedmap.OrderedMap[string, Node]
	links    *orderedmap.OrderedMap[string, Link]
	order    map[string]int
	adj      map[string]map[string]graph.Edge[string]
	warnings []string
}

// Empty returns a graph with no nodes or links.
func Empty(name string) *Graph {
	return &Graph{
		name:  name,
		nodes: orderedmap.New[string, Node](),
		links: orderedmap.New[string, Link](),
		order: map[string]int{},
		adj:   map[string]map[string]graph.Edge[string]{},
	}
}

// Build normalizes doc into a graph, projecting every node that has a coordinate. A nil
// document yields an empty graph.
func Build(doc *Document, p Projector) *Graph {
	if doc == nil {
		return Empty("")
	}
	g := Empty(doc.Name)
	g.warnings = append(g.warnings, doc.Warnings...)

	adjacency := graph.New(graph.StringHash)

	if doc.Nodes != nil {
		for pair := doc.Nodes.Oldest(); pair != nil; pair = pair.Next() {
			rec := pair.Value
			n := Node{
				ID:            rec.ID,
				DisplayName:   rec.DisplayName,
				Coordinate:    rec.Coordinate,
				LocationLabel: rec.LocationLabel,
			}
			if n.DisplayName == "" {
				n.DisplayName = n.ID
			}
			if n.Coordinate != nil && p != nil {
				n.Position, n.Positioned = p.Project(*n.Coordinate)
			}
			if _, seen := g.order[n.ID]; !seen {
				g.order[n.ID] = len(g.order)
			}
			g.nodes.Set(n.ID, n)
			_ = adjacency.AddVertex(n.ID)
		}
	}

	if doc.Links != nil {
		for pair := doc.Links.Oldest(); pair != nil; pair = pair.Next() {
			l := linkFromRecord(pair.Value)
			g.links.Set(l.ID, l)

			_, aok := g.order[l.ASide]
			_, zok := g.order[l.ZSide]
			if !aok || !zok {
				continue
			}
			// Parallel links share one adjacency edge.
			_ = adjacency.AddEdge(l.ASide, l.ZSide)
		}
	}

	if m, err := adjacency.AdjacencyMap(); err == nil {
		g.adj = m
	}
	return g
}

func linkFromRecord(r LinkRecord) Link {
	l := Link{ID: r.ID, ASide: r.ASide, ZSide: r.ZSide, Direction: r.Direction, Status: r.Status}
	for _, a := range r.Aggregated {
		l.Aggregated = append(l.Aggregated, Link{
			ID: a.ID, ASide: a.ASide, ZSide: a.ZSide, Direction: a.Direction, Status: a.Status,
		})
	}
	return l
}

func (g *Graph) Name() string { return g.name }

// Warnings lists document problems that were recovered from while building.
func (g *Graph) Warnings() []string { return append([]string(nil), g.warnings...) }

func (g *Graph) IsEmpty() bool {
	return g.nodes.Len() == 0 && g.links.Len() == 0
}

func (g *Graph) NodeCount() int { return g.nodes.Len() }

func (g *Graph) LinkCount() int { return g.links.Len() }

func (g *Graph) Node(id string) (Node, error) {
	n, ok := g.nodes.Get(id)
	if !ok {
		return Node{}, ErrNotFound
	}
	return n, nil
}

func (g *Graph) Link(id string) (Link, error) {
	l, ok := g.links.Get(id)
	if !ok {
		return Link{}, ErrNotFound
	}
	return l, nil
}

// Nodes returns all nodes in document order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, g.nodes.Len())
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Links returns all links in document order.
func (g *Graph) Links() []Link {
	out := make([]Link, 0, g.links.Len())
	for pair := g.links.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// ConnectedLinks returns links with nodeID at either end, in document order.
func (g *Graph) ConnectedLinks(nodeID string) []Link {
	var out []Link
	for pair := g.links.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Touches(nodeID) {
			out = append(out, pair.Value)
		}
	}
	return out
}

// Neighbors returns the ids of nodes sharing a resolvable link with nodeID, in document order.
func (g *Graph) Neighbors(nodeID string) []string {
	edges, ok := g.adj[nodeID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(edges))
	for id := range edges {
		if id != nodeID {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return g.order[out[i]] < g.order[out[j]] })
	return out
}

// Endpoints resolves both ends of l. Missing nodes are reported with ok=false.
func (g *Graph) Endpoints(l Link) (a Node, aok bool, z Node, zok bool) {
	a, aok = g.nodes.Get(l.ASide)
	z, zok = g.nodes.Get(l.ZSide)
	return a, aok, z, zok
}

// Label returns the node's display name, or the raw id when it cannot be resolved.
func (g *Graph) Label(nodeID string) string {
	if n, ok := g.nodes.Get(nodeID); ok && strings.TrimSpace(n.DisplayName) != "" {
		return n.DisplayName
	}
	return nodeID
}
