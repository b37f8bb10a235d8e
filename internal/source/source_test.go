package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"topomap/core-go/internal/metrics"
	"topomap/core-go/internal/snapshot"
	"topomap/core-go/internal/sqlcgen"
	"topomap/core-go/internal/topology"
)

const l1JSON = `{"name":"Network-L1","nodes":{"node-1":{"nodeId":"R1","latitude":37.7,"longitude":-122.4},"node-2":{"nodeId":"R2"}},"links":{"link-1":{"aside":"node-1","zside":"node-2","direction":3,"status":1}}}`

const l2YAML = `
nodes:
  b:
    nodeId: B
  a:
    nodeId: A
links: {}
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDir_ListAndFetch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Network-L1.json", l1JSON)
	writeFile(t, root, "Network-L2.yaml", l2YAML)
	writeFile(t, root, "README.md", "ignored")
	writeFile(t, root, ".hidden.json", "{}")

	d := NewDir(root)
	list, err := d.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Network-L1" || list[0].NodeCount != 2 || list[1].Name != "Network-L2" {
		t.Fatalf("unexpected list %+v", list)
	}

	doc, err := d.Fetch(context.Background(), "Network-L2")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if first := doc.Nodes.Oldest(); first == nil || first.Key != "b" {
		t.Fatalf("expected YAML key order to be kept")
	}
}

func TestDir_FetchMissingOrEscaping(t *testing.T) {
	d := NewDir(t.TempDir())
	for _, name := range []string{"nope", "../etc/passwd", "", ".hidden"} {
		if _, err := d.Fetch(context.Background(), name); !errors.Is(err, ErrTopologyNotFound) {
			t.Fatalf("%q: expected ErrTopologyNotFound, got %v", name, err)
		}
	}
}

func newTopologyServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/probler/0/TopoList":
			if !strings.Contains(r.URL.Query().Get("body"), "l8topologymetadata") {
				http.Error(w, "bad query", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"list":[{"name":"Network-L1","serviceName":"Topo1","serviceArea":7},{"name":"Other","serviceName":"X","serviceArea":"2"},{"name":""}]}`))
		case "/probler/7/Topo1", "/probler/1/L3":
			_, _ = w.Write([]byte(l1JSON))
		case "/probler/1/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func TestHTTP_ListRemembersServiceAddress(t *testing.T) {
	srv, paths := newTopologyServer(t)
	h := NewHTTP(srv.URL+"/probler/", srv.Client())

	list, err := h.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ServiceArea != "7" || list[1].ServiceArea != "2" {
		t.Fatalf("unexpected list %+v", list)
	}

	doc, err := h.Fetch(context.Background(), "Network-L1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.Name != "Network-L1" || doc.Nodes.Len() != 2 {
		t.Fatalf("unexpected doc %q with %d nodes", doc.Name, doc.Nodes.Len())
	}
	if last := (*paths)[len(*paths)-1]; last != "/probler/7/Topo1" {
		t.Fatalf("expected catalog endpoint, got %s", last)
	}
}

func TestHTTP_EndpointFallbacks(t *testing.T) {
	h := NewHTTP("http://svc/probler", nil)
	cases := map[string]string{
		"Network-L3": "http://svc/probler/1/L3",
		"core-l12":   "http://svc/probler/1/L12",
		"Backbone":   "http://svc/probler/1/Backbone",
	}
	for name, want := range cases {
		if got := h.Endpoint(name); got != want {
			t.Fatalf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestHTTP_FetchErrors(t *testing.T) {
	srv, _ := newTopologyServer(t)
	h := NewHTTP(srv.URL+"/probler", srv.Client())

	_, err := h.Fetch(context.Background(), "broken")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status error, got %v", err)
	}
	if err.Error() != "HTTP error! status: 500" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if _, err := h.Fetch(context.Background(), "missing"); !errors.Is(err, ErrTopologyNotFound) {
		t.Fatalf("expected ErrTopologyNotFound, got %v", err)
	}
}

func TestHTTP_SendsHeaders(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"list":[]}`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, srv.Client())
	h.Header = http.Header{"Authorization": []string{"Bearer abc"}}
	if err := h.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if got != "Bearer abc" {
		t.Fatalf("expected auth header, got %q", got)
	}
}

type fakeQueries struct {
	rows    map[string]sqlcgen.Topology
	listErr error
	saved   []sqlcgen.UpsertTopologyParams
}

func (f *fakeQueries) ListTopologies(context.Context) ([]sqlcgen.TopologySummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []sqlcgen.TopologySummary
	for _, r := range f.rows {
		out = append(out, sqlcgen.TopologySummary{Name: r.Name, ServiceName: r.ServiceName, ServiceArea: r.ServiceArea, NodeCount: r.NodeCount, LinkCount: r.LinkCount})
	}
	return out, nil
}

func (f *fakeQueries) GetTopology(_ context.Context, name string) (sqlcgen.Topology, error) {
	r, ok := f.rows[name]
	if !ok {
		return sqlcgen.Topology{}, pgx.ErrNoRows
	}
	return r, nil
}

func (f *fakeQueries) UpsertTopology(_ context.Context, arg sqlcgen.UpsertTopologyParams) (sqlcgen.Topology, error) {
	f.saved = append(f.saved, arg)
	return sqlcgen.Topology{Name: arg.Name, Document: arg.Document}, nil
}

func TestPostgres_FetchAndList(t *testing.T) {
	area := int32(4)
	svc := "Topo1"
	q := &fakeQueries{rows: map[string]sqlcgen.Topology{
		"Network-L1": {Name: "Network-L1", ServiceName: &svc, ServiceArea: &area, Document: []byte(l1JSON), NodeCount: 2, LinkCount: 1},
	}}
	p := NewPostgres(q, nil)

	list, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ServiceArea != "4" || list[0].ServiceName != "Topo1" || list[0].LinkCount != 1 {
		t.Fatalf("unexpected list %+v", list)
	}

	doc, err := p.Fetch(context.Background(), "Network-L1")
	if err != nil || doc.Links.Len() != 1 {
		t.Fatalf("unexpected fetch result %v", err)
	}
	if _, err := p.Fetch(context.Background(), "nope"); !errors.Is(err, ErrTopologyNotFound) {
		t.Fatalf("expected ErrTopologyNotFound, got %v", err)
	}
}

func TestPostgres_Save(t *testing.T) {
	q := &fakeQueries{}
	p := NewPostgres(q, nil)
	doc, _ := topology.DecodeJSON("Network-L1", []byte(l1JSON))

	if err := p.Save(context.Background(), doc, topology.Descriptor{ServiceName: "Topo1", ServiceArea: "3"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(q.saved) != 1 {
		t.Fatalf("expected one upsert")
	}
	s := q.saved[0]
	if s.NodeCount != 2 || s.LinkCount != 1 || *s.ServiceArea != 3 || *s.ServiceName != "Topo1" {
		t.Fatalf("unexpected params %+v", s)
	}
	if err := p.Save(context.Background(), doc, topology.Descriptor{ServiceArea: "x"}); err == nil {
		t.Fatalf("expected bad service area to fail")
	}
}

type flakySource struct {
	doc     *topology.Document
	fail    error
	listErr error
}

func (f *flakySource) List(context.Context) ([]topology.Descriptor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []topology.Descriptor{describe(f.doc)}, nil
}

func (f *flakySource) Fetch(context.Context, string) (*topology.Document, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.doc, nil
}

func TestCached_ServesLastGoodCopy(t *testing.T) {
	cache, err := snapshot.OpenMemory()
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	doc, _ := topology.DecodeJSON("Network-L1", []byte(l1JSON))
	inner := &flakySource{doc: doc}
	c := NewCached(inner, cache, zerolog.Nop(), metrics.New())
	ctx := context.Background()

	if _, err := c.Fetch(ctx, "Network-L1"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	inner.fail = errors.New("connection refused")
	got, err := c.Fetch(ctx, "Network-L1")
	if err != nil {
		t.Fatalf("expected cached copy, got %v", err)
	}
	if got.Nodes.Len() != 2 {
		t.Fatalf("unexpected cached doc")
	}
	last := got.Warnings[len(got.Warnings)-1]
	if !strings.HasPrefix(last, "served from cache saved at ") || !strings.Contains(last, "connection refused") {
		t.Fatalf("expected stale warning, got %q", last)
	}

	inner.listErr = errors.New("down")
	list, err := c.List(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "Network-L1" {
		t.Fatalf("expected cached catalog, got %+v %v", list, err)
	}
}

func TestCached_DoesNotMaskMissingOrUncached(t *testing.T) {
	cache, err := snapshot.OpenMemory()
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	inner := &flakySource{fail: errors.New("timeout")}
	c := NewCached(inner, cache, zerolog.Nop(), nil)

	if _, err := c.Fetch(context.Background(), "never-seen"); err == nil || err.Error() != "timeout" {
		t.Fatalf("expected inner error, got %v", err)
	}

	inner.fail = ErrTopologyNotFound
	if _, err := c.Fetch(context.Background(), "x"); !errors.Is(err, ErrTopologyNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecode_ChoosesByExtension(t *testing.T) {
	doc, err := Decode("t", "t.YML", []byte(l2YAML))
	if err != nil || doc.Nodes.Len() != 2 {
		t.Fatalf("expected YAML decode, got %v", err)
	}
	if _, err := Decode("t", "t.json", []byte(l2YAML)); err == nil {
		t.Fatalf("expected JSON decode to reject YAML")
	}
}

func TestPing(t *testing.T) {
	p := NewPostgres(&fakeQueries{}, func(context.Context) error { return errors.New("db down") })
	if err := Ping(context.Background(), p); err == nil {
		t.Fatalf("expected ping error")
	}
	if err := Ping(context.Background(), NewDir(t.TempDir())); err != nil {
		t.Fatalf("dir should always be ready: %v", err)
	}
}
