package httpapi

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"topomap/core-go/internal/topology"
)

// frame is the union of viewer events and session replies as a client sees them.
type frame struct {
	Type    string          `json:"type"`
	Session string          `json:"session"`
	Data    json.RawMessage `json:"data"`
	Error   *sessionError   `json:"error"`
	Status  *struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"status"`
	Summary *struct {
		Name  string `json:"name"`
		Nodes int    `json:"nodes"`
	} `json:"summary"`
	Selection *struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	} `json:"selection"`
	Viewport *struct {
		Label string `json:"label"`
	} `json:"viewport"`
	Lists *struct {
		NodesLabel string `json:"nodes_label"`
		LinksLabel string `json:"links_label"`
	} `json:"lists"`
}

func dialSession(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/viewer"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	hello := readUntil(t, conn, "hello")
	if hello.Session == "" {
		t.Fatalf("expected a session id")
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, cmd command) {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil skips frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read waiting for %q: %v", typ, err)
		}
		if f.Type == typ {
			return f
		}
	}
}

func TestSession_LoadPublishesEvents(t *testing.T) {
	conn := dialSession(t, sampleHandler())

	send(t, conn, command{Type: "load", Name: "Network-L1"})
	loaded := readUntil(t, conn, "loaded")
	if loaded.Summary == nil || loaded.Summary.Name != "Network-L1" || loaded.Summary.Nodes != 3 {
		t.Fatalf("unexpected loaded event %+v", loaded.Summary)
	}
	lists := readUntil(t, conn, "lists")
	if lists.Lists == nil || lists.Lists.NodesLabel != "3 nodes" || lists.Lists.LinksLabel != "2 links" {
		t.Fatalf("unexpected lists event %+v", lists.Lists)
	}
	status := readUntil(t, conn, "status")
	if status.Status == nil || status.Status.Message != "Loaded Network-L1: 3 nodes, 2 links" {
		t.Fatalf("unexpected status %+v", status.Status)
	}
}

func TestSession_LoadMissingTopologyReportsError(t *testing.T) {
	conn := dialSession(t, sampleHandler())

	send(t, conn, command{Type: "load", Name: "Network-L9"})
	for {
		f := readUntil(t, conn, "status")
		if f.Status != nil && f.Status.Level == "error" {
			if !strings.Contains(f.Status.Message, "Network-L9") {
				t.Fatalf("unexpected status %+v", f.Status)
			}
			return
		}
	}
}

func TestSession_ListTopologies(t *testing.T) {
	conn := dialSession(t, sampleHandler())

	send(t, conn, command{Type: "list"})
	f := readUntil(t, conn, "topologies")
	var list []topology.Descriptor
	if err := json.Unmarshal(f.Data, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Network-L1" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestSession_ZoomAndSelect(t *testing.T) {
	conn := dialSession(t, sampleHandler())

	send(t, conn, command{Type: "load", Name: "Network-L1"})
	readUntil(t, conn, "loaded")

	send(t, conn, command{Type: "zoomIn"})
	vp := readUntil(t, conn, "viewport")
	if vp.Viewport == nil || vp.Viewport.Label != "120%" {
		t.Fatalf("unexpected viewport %+v", vp.Viewport)
	}

	send(t, conn, command{Type: "selectLink", ID: "link-1"})
	sel := readUntil(t, conn, "selection")
	if sel.Selection == nil || sel.Selection.Kind != "link" || sel.Selection.ID != "link-1" {
		t.Fatalf("unexpected selection %+v", sel.Selection)
	}

	send(t, conn, command{Type: "selectNode", ID: "node-9"})
	if f := readUntil(t, conn, "error"); f.Error == nil || f.Error.Code != "not_found" {
		t.Fatalf("unexpected error frame %+v", f.Error)
	}
}

func TestSession_DetailsAndScene(t *testing.T) {
	conn := dialSession(t, sampleHandler())

	send(t, conn, command{Type: "load", Name: "Network-L1"})
	readUntil(t, conn, "loaded")

	send(t, conn, command{Type: "linkDetails", ID: "link-2"})
	f := readUntil(t, conn, "details")
	var detail struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(f.Data, &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Title != "R2 → SW1" {
		t.Fatalf("unexpected title %q", detail.Title)
	}

	send(t, conn, command{Type: "toggleLinks"})
	readUntil(t, conn, "links")

	send(t, conn, command{Type: "scene"})
	f = readUntil(t, conn, "scene")
	var sc sceneView
	if err := json.Unmarshal(f.Data, &sc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sc.Markers) != 2 || len(sc.Strokes) != 0 {
		t.Fatalf("expected markers only after hiding links, got %d markers and %d strokes", len(sc.Markers), len(sc.Strokes))
	}
}

func TestSession_FilterIsDebounced(t *testing.T) {
	h := NewHandler(zerolog.New(io.Discard), sampleHandler().source, Options{Debounce: 20 * time.Millisecond})
	conn := dialSession(t, h)

	send(t, conn, command{Type: "load", Name: "Network-L1"})
	readUntil(t, conn, "loaded")
	readUntil(t, conn, "lists")

	send(t, conn, command{Type: "nodeFilter", Text: "lon"})
	send(t, conn, command{Type: "nodeFilter", Text: "london"})
	f := readUntil(t, conn, "lists")
	if f.Lists == nil || f.Lists.NodesLabel != "1 of 3 nodes" {
		t.Fatalf("unexpected lists %+v", f.Lists)
	}
}

func TestSession_RejectsBadCommands(t *testing.T) {
	conn := dialSession(t, newTestHandler(nil))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := readUntil(t, conn, "error"); f.Error.Code != "invalid_json" {
		t.Fatalf("unexpected error %+v", f.Error)
	}

	send(t, conn, command{Type: "teleport"})
	if f := readUntil(t, conn, "error"); f.Error.Code != "unknown_command" {
		t.Fatalf("unexpected error %+v", f.Error)
	}

	send(t, conn, command{Type: "load", Name: "Network-L1"})
	if f := readUntil(t, conn, "error"); f.Error.Code != "source_unavailable" {
		t.Fatalf("unexpected error %+v", f.Error)
	}
}
