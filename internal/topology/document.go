package topology

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"topomap/core-go/internal/projection"
)

// ErrNotDocument is returned when the payload is not a JSON/YAML object at all.
var ErrNotDocument = errors.New("topology document must be an object")

// NodeRecord is a node as it appeared in the document, after field aliasing.
type NodeRecord struct {
	ID            string                    `json:"id"`
	DisplayName   string                    `json:"displayName"`
	Coordinate    *projection.GeoCoordinate `json:"coordinate,omitempty"`
	LocationLabel string                    `json:"locationLabel,omitempty"`
}

// LinkRecord is a link as it appeared in the document. Aggregated members never nest further.
type LinkRecord struct {
	ID         string       `json:"id"`
	ASide      string       `json:"aSideNodeId"`
	ZSide      string       `json:"zSideNodeId"`
	Direction  Direction    `json:"direction"`
	Status     Status       `json:"status"`
	Aggregated []LinkRecord `json:"aggregatedLinks,omitempty"`
}

// Document is a parsed topology payload with key order preserved.
type Document struct {
	Name     string
	Nodes    *orderedmap.OrderedMap[string, NodeRecord]
	Links    *orderedmap.OrderedMap[string, LinkRecord]
	Warnings []string
}

func NewDocument(name string) *Document {
	return &Document{
		Name:  name,
		Nodes: orderedmap.New[string, NodeRecord](),
		Links: orderedmap.New[string, LinkRecord](),
	}
}

func (d *Document) AddNode(n NodeRecord) {
	if n.DisplayName == "" {
		n.DisplayName = n.ID
	}
	d.Nodes.Set(n.ID, n)
}

func (d *Document) AddLink(l LinkRecord) {
	d.Links.Set(l.ID, l)
}

func (d *Document) warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// MarshalJSON writes the canonical document shape, keeping insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	nodes := orderedmap.New[string, NodeRecord]()
	links := orderedmap.New[string, LinkRecord]()
	if d.Nodes != nil {
		nodes = d.Nodes
	}
	if d.Links != nil {
		links = d.Links
	}
	return json.Marshal(struct {
		Name  string                                    `json:"name,omitempty"`
		Nodes *orderedmap.OrderedMap[string, NodeRecord] `json:"nodes"`
		Links *orderedmap.OrderedMap[string, LinkRecord] `json:"links"`
	}{d.Name, nodes, links})
}

// DecodeJSON parses a topology document. Missing or malformed node/link collections degrade to
// empty ones with a warning; only a payload that is not an object is an error.
func DecodeJSON(name string, data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode topology %q: %w: %v", name, ErrNotDocument, err)
	}
	if top == nil {
		return nil, fmt.Errorf("decode topology %q: %w", name, ErrNotDocument)
	}

	doc := NewDocument(name)
	if raw, ok := top["name"]; ok && name == "" {
		_ = json.Unmarshal(raw, &doc.Name)
	}

	if raw, ok := top["nodes"]; ok {
		decodeNodes(doc, raw)
	} else {
		doc.warnf("document has no nodes")
	}
	if raw, ok := top["links"]; ok {
		decodeLinks(doc, raw)
	} else {
		doc.warnf("document has no links")
	}
	return doc, nil
}

// scalar accepts a JSON string, number or boolean as text. Null, objects and arrays read as
// empty, so a mistyped field never rejects the surrounding record.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	*s = scalar(rawScalar(b))
	return nil
}

func (s scalar) float() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

type rawCoordinate struct {
	Latitude  scalar `json:"latitude"`
	Longitude scalar `json:"longitude"`
	Lat       scalar `json:"lat"`
	Lon       scalar `json:"lon"`
}

// resolve returns nil when either axis is absent. ok is false when both axes are present but
// one of them is not a finite number.
func (c rawCoordinate) resolve() (coord *projection.GeoCoordinate, ok bool) {
	lat, lon := firstScalar(c.Latitude, c.Lat), firstScalar(c.Longitude, c.Lon)
	if lat == "" || lon == "" {
		return nil, true
	}
	latV, latOK := lat.float()
	lonV, lonOK := lon.float()
	if !latOK || !lonOK {
		return nil, false
	}
	return &projection.GeoCoordinate{Latitude: latV, Longitude: lonV}, true
}

type rawNode struct {
	rawCoordinate
	ID            scalar          `json:"id"`
	GlobalID      scalar          `json:"globalL8id"`
	DisplayID     scalar          `json:"displayId"`
	DisplayName   scalar          `json:"displayName"`
	NodeID        scalar          `json:"nodeId"`
	Name          scalar          `json:"name"`
	Coordinate    json.RawMessage `json:"coordinate"`
	LocationLabel scalar          `json:"locationLabel"`
	Location      scalar          `json:"location"`
}

func (r rawNode) record(doc *Document, key string) NodeRecord {
	id := firstString(key, string(r.ID), string(r.GlobalID), string(r.NodeID))
	n := NodeRecord{
		ID:            id,
		DisplayName:   firstString(string(r.DisplayID), string(r.DisplayName), string(r.NodeID), string(r.Name), id),
		LocationLabel: firstString(string(r.LocationLabel), string(r.Location)),
	}
	if present(r.Coordinate) {
		var c rawCoordinate
		if err := json.Unmarshal(r.Coordinate, &c); err != nil {
			doc.warnf("node %q coordinate ignored: %v", id, err)
		} else if coord, ok := c.resolve(); !ok {
			doc.warnf("node %q coordinate ignored: latitude %q, longitude %q", id,
				firstScalar(c.Latitude, c.Lat), firstScalar(c.Longitude, c.Lon))
		} else {
			n.Coordinate = coord
		}
	}
	if n.Coordinate == nil {
		coord, ok := r.rawCoordinate.resolve()
		if !ok {
			doc.warnf("node %q coordinate ignored: latitude %q, longitude %q", id,
				firstScalar(r.Latitude, r.Lat), firstScalar(r.Longitude, r.Lon))
		}
		n.Coordinate = coord
	}
	return n
}

type rawLink struct {
	ID         scalar          `json:"id"`
	LinkID     scalar          `json:"linkId"`
	ASideID    scalar          `json:"aSideNodeId"`
	ASideShort scalar          `json:"aSide"`
	ASideLower scalar          `json:"aside"`
	ZSideID    scalar          `json:"zSideNodeId"`
	ZSideShort scalar          `json:"zSide"`
	ZSideLower scalar          `json:"zside"`
	Direction  Direction       `json:"direction"`
	Status     Status          `json:"status"`
	Aggregated json.RawMessage `json:"aggregatedLinks"`
	Aggr       json.RawMessage `json:"aggregated"`
}

func (r rawLink) record(key string) LinkRecord {
	return LinkRecord{
		ID:        firstString(key, string(r.ID), string(r.LinkID)),
		ASide:     string(firstScalar(r.ASideID, r.ASideShort, r.ASideLower)),
		ZSide:     string(firstScalar(r.ZSideID, r.ZSideShort, r.ZSideLower)),
		Direction: r.Direction,
		Status:    r.Status,
	}
}

func decodeNodes(doc *Document, raw json.RawMessage) {
	each(doc, "nodes", raw, func(key string, item json.RawMessage) {
		var r rawNode
		if err := json.Unmarshal(item, &r); err != nil {
			doc.warnf("node %q skipped: %v", key, err)
			return
		}
		n := r.record(doc, key)
		if n.ID == "" {
			doc.warnf("node without id skipped")
			return
		}
		doc.AddNode(n)
	})
}

func decodeLinks(doc *Document, raw json.RawMessage) {
	each(doc, "links", raw, func(key string, item json.RawMessage) {
		l, r, ok := decodeLink(doc, key, item)
		if !ok {
			return
		}
		members := r.Aggregated
		if !present(members) {
			members = r.Aggr
		}
		if present(members) {
			each(doc, "aggregated links of "+l.ID, members, func(k string, m json.RawMessage) {
				if a, _, ok := decodeLink(doc, k, m); ok {
					l.Aggregated = append(l.Aggregated, a)
				}
			})
		}
		doc.AddLink(l)
	})
}

func decodeLink(doc *Document, key string, item json.RawMessage) (LinkRecord, rawLink, bool) {
	var r rawLink
	if err := json.Unmarshal(item, &r); err != nil {
		doc.warnf("link %q skipped: %v", key, err)
		return LinkRecord{}, r, false
	}
	l := r.record(key)
	if l.ID == "" {
		doc.warnf("link without id skipped")
		return LinkRecord{}, r, false
	}
	return l, r, true
}

// each walks an id-keyed object in document order. Arrays are accepted too; their items are
// keyed by their own id fields.
func each(doc *Document, what string, raw json.RawMessage, fn func(key string, item json.RawMessage)) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		doc.warnf("%s missing", what)
	case trimmed[0] == '{':
		m := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(trimmed, m); err != nil {
			doc.warnf("%s malformed: %v", what, err)
			return
		}
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			fn(pair.Key, pair.Value)
		}
	case trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			doc.warnf("%s malformed: %v", what, err)
			return
		}
		for _, item := range items {
			fn("", item)
		}
	default:
		doc.warnf("%s malformed: expected object", what)
	}
}

func present(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && !bytes.Equal(t, []byte("null"))
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstScalar(vals ...scalar) scalar {
	for _, v := range vals {
		if strings.TrimSpace(string(v)) != "" {
			return v
		}
	}
	return ""
}
