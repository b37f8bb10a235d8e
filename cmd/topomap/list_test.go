package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"topomap/core-go/internal/config"
	"topomap/core-go/internal/listview"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/topology"
)

func sampleGraph() *topology.Graph {
	d := topology.NewDocument("Network-L1")
	d.AddNode(topology.NodeRecord{ID: "node-1", DisplayName: "R1", Coordinate: &projection.GeoCoordinate{Latitude: 40.7128, Longitude: -74.006}, LocationLabel: "New York, USA"})
	d.AddNode(topology.NodeRecord{ID: "node-2", DisplayName: "R2"})
	d.AddLink(topology.LinkRecord{ID: "link-1", ASide: "node-1", ZSide: "node-2", Direction: topology.DirectionASideToZSide, Status: topology.StatusPartial})
	return topology.Build(d, projection.New(projection.DefaultCalibration()))
}

func TestPrintLinks(t *testing.T) {
	color.NoColor = true
	e := listview.NewLinkExplorer(10)
	e.SetSource(listview.LinkRows(sampleGraph()))

	var buf bytes.Buffer
	printLinks(&buf, e.Page(), e.CountLabel()+" links")
	out := buf.String()
	for _, want := range []string{"A SIDE", "link-1", "R1", "→", "R2", "Partial", "page 1/1, 1 links"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintNodes_FilteredLabel(t *testing.T) {
	color.NoColor = true
	e := listview.NewNodeExplorer(10)
	e.SetSource(listview.NodeRows(sampleGraph()))
	e.SetFilter("york")

	var buf bytes.Buffer
	printNodes(&buf, e.Page(), e.CountLabel()+" nodes")
	out := buf.String()
	if !strings.Contains(out, "New York, USA") || strings.Contains(out, "node-2") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "1 of 2 nodes") {
		t.Fatalf("missing count label:\n%s", out)
	}
}

func TestTopologyName(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := topologyName(cfg, nil); err == nil {
		t.Fatalf("expected an error without a name or default")
	}
	cfg.Sources.Default = "Network-L2"
	if got, _ := topologyName(cfg, nil); got != "Network-L2" {
		t.Fatalf("expected default, got %q", got)
	}
	if got, _ := topologyName(cfg, []string{"Network-L1"}); got != "Network-L1" {
		t.Fatalf("expected argument, got %q", got)
	}
}
