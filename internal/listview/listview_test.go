package listview

import (
	"fmt"
	"testing"
	"time"

	"topomap/core-go/internal/clock"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/topology"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func intFields(i int) []string { return []string{fmt.Sprintf("item-%03d", i)} }

func TestExplorer_Paginates(t *testing.T) {
	e := New(50, intFields)
	e.SetSource(ints(120))

	p := e.Page()
	if len(p.Items) != 50 || p.TotalPages != 3 || p.TotalCount != 120 || p.FilteredCount != 120 {
		t.Fatalf("unexpected first page %+v", p.State)
	}
	if p.HasPrev() || !p.HasNext() {
		t.Fatalf("unexpected pager flags")
	}

	e.GoToPage(2)
	p = e.Page()
	if p.PageIndex != 2 || len(p.Items) != 20 || p.Items[0] != 100 {
		t.Fatalf("unexpected last page %+v", p)
	}
	if p.HasNext() {
		t.Fatalf("expected no next page")
	}
}

func TestExplorer_GoToPageClamps(t *testing.T) {
	e := New(10, intFields)
	e.SetSource(ints(25))

	e.GoToPage(99)
	if e.State().PageIndex != 2 {
		t.Fatalf("expected clamp to last page, got %d", e.State().PageIndex)
	}
	e.GoToPage(-4)
	if e.State().PageIndex != 0 {
		t.Fatalf("expected clamp to first page, got %d", e.State().PageIndex)
	}
	e.Prev()
	if e.State().PageIndex != 0 {
		t.Fatalf("expected prev on first page to stay put")
	}
	e.Next()
	e.Next()
	e.Next()
	if e.State().PageIndex != 2 {
		t.Fatalf("expected next to stop at last page, got %d", e.State().PageIndex)
	}
}

func TestExplorer_FilterResetsPageAndIsCaseInsensitive(t *testing.T) {
	e := New(5, intFields)
	e.SetSource(ints(40))
	e.GoToPage(3)

	e.SetFilter("ITEM-01")
	s := e.State()
	if s.PageIndex != 0 || s.FilteredCount != 10 || s.Filter != "ITEM-01" {
		t.Fatalf("unexpected state %+v", s)
	}
	if got := e.CountLabel(); got != "10 of 40" {
		t.Fatalf("unexpected count label %q", got)
	}
}

func TestExplorer_FilterWithNoMatchesYieldsEmptyPage(t *testing.T) {
	e := New(5, intFields)
	e.SetSource(ints(12))

	e.SetFilter("zzz")
	p := e.Page()
	if len(p.Items) != 0 || p.Items == nil || p.FilteredCount != 0 || p.PageIndex != 0 || p.TotalPages != 1 {
		t.Fatalf("unexpected empty page %+v", p)
	}
	e.GoToPage(3)
	if e.State().PageIndex != 0 {
		t.Fatalf("expected page 0")
	}
}

func TestExplorer_SetSourceResetsState(t *testing.T) {
	e := New(5, intFields)
	e.SetSource(ints(30))
	e.SetFilter("item")
	e.GoToPage(2)

	e.SetSource(ints(3))
	s := e.State()
	if s.PageIndex != 0 || s.Filter != "" || s.FilteredCount != 3 {
		t.Fatalf("expected reset state, got %+v", s)
	}
}

func TestExplorer_DoesNotMutateSource(t *testing.T) {
	src := ints(10)
	e := New(3, intFields)
	e.SetSource(src)
	e.SetFilter("item-00")

	p := e.Page()
	p.Items[0] = 999
	for i, v := range src {
		if v != i {
			t.Fatalf("source mutated at %d: %d", i, v)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Fatalf("unexpected %q", got)
	}
	e := New(5, intFields)
	e.SetSource(ints(1500))
	if got := e.CountLabel(); got != "1,500" {
		t.Fatalf("unexpected label %q", got)
	}
}

func sampleGraph() *topology.Graph {
	doc := topology.NewDocument("t")
	doc.AddNode(topology.NodeRecord{ID: "node-1", DisplayName: "R1", LocationLabel: "San Francisco", Coordinate: &projection.GeoCoordinate{Latitude: 37.7749, Longitude: -122.4194}})
	doc.AddNode(topology.NodeRecord{ID: "node-2", DisplayName: "R2", LocationLabel: "London"})
	doc.AddLink(topology.LinkRecord{ID: "link-1", ASide: "node-1", ZSide: "node-2", Direction: topology.DirectionASideToZSide, Status: topology.StatusUp})
	doc.AddLink(topology.LinkRecord{ID: "link-2", ASide: "node-2", ZSide: "ghost", Direction: topology.DirectionBidirectional, Status: topology.StatusDown})
	return topology.Build(doc, projection.New(projection.DefaultCalibration()))
}

func TestLinkRows_FallBackToRawIDs(t *testing.T) {
	rows := LinkRows(sampleGraph())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Title != "R1 → R2" || rows[0].StatusText != "Up" || rows[0].StatusClass != "status-up" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Title != "R2 ↔ ghost" || rows[1].ZSideLabel != "ghost" {
		t.Fatalf("unexpected dangling row %+v", rows[1])
	}
}

func TestNodeRows_CoordinatesFallback(t *testing.T) {
	rows := NodeRows(sampleGraph())
	if rows[0].Coordinates != "37.7749, -122.4194" || !rows[0].Positioned {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Coordinates != "N/A" || rows[1].Positioned {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
}

func TestLinkExplorer_MatchesEndpointLabels(t *testing.T) {
	e := NewLinkExplorer(0)
	e.SetSource(LinkRows(sampleGraph()))

	e.SetFilter("r1")
	if e.State().FilteredCount != 1 {
		t.Fatalf("expected one match on a-side label, got %d", e.State().FilteredCount)
	}
	e.SetFilter("GHOST")
	if e.State().FilteredCount != 1 {
		t.Fatalf("expected one match on raw z-side id, got %d", e.State().FilteredCount)
	}
	if e.State().PageSize != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", e.State().PageSize)
	}
}

func TestNodeExplorer_MatchesLocation(t *testing.T) {
	e := NewNodeExplorer(10)
	e.SetSource(NodeRows(sampleGraph()))

	e.SetFilter("lond")
	p := e.Page()
	if len(p.Items) != 1 || p.Items[0].ID != "node-2" {
		t.Fatalf("unexpected matches %+v", p.Items)
	}
}

func TestDebouncer_RunsLastCallAfterQuietPeriod(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	d := NewDebouncer(clk, 0)

	var got []string
	d.Call(func() { got = append(got, "a") })
	clk.Advance(200 * time.Millisecond)
	d.Call(func() { got = append(got, "ab") })
	clk.Advance(200 * time.Millisecond)
	d.Call(func() { got = append(got, "abc") })

	clk.Advance(299 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("expected nothing before quiet period, got %v", got)
	}
	clk.Advance(time.Millisecond)
	if len(got) != 1 || got[0] != "abc" {
		t.Fatalf("expected only the last call, got %v", got)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	d := NewDebouncer(clk, time.Second)

	ran := false
	d.Call(func() { ran = true })
	if !d.Cancel() {
		t.Fatalf("expected pending call to be cancelled")
	}
	clk.Advance(time.Minute)
	if ran {
		t.Fatalf("expected cancelled call not to run")
	}
	if d.Cancel() {
		t.Fatalf("expected nothing to cancel")
	}
}
