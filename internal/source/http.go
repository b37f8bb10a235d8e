package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"topomap/core-go/internal/topology"
)

const (
	DefaultListPath  = "/0/TopoList"
	DefaultListQuery = `{"text":"select * from l8topologymetadata"}`

	maxDocumentBytes = 64 << 20
)

var layerPattern = regexp.MustCompile(`(?i)L(\d+)`)

// StatusError is a non-2xx answer from the topology service.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// HTTP fetches topologies from a topology service. The catalog lives at BaseURL+ListPath and
// each topology at BaseURL/{serviceArea}/{serviceName}.
type HTTP struct {
	BaseURL   string
	ListPath  string
	ListQuery string
	// Header is added to every request, e.g. a bearer token issued out of band.
	Header http.Header
	Client *http.Client

	mu      sync.RWMutex
	catalog map[string]topology.Descriptor
}

func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ListPath:  DefaultListPath,
		ListQuery: DefaultListQuery,
		Client:    client,
		catalog:   map[string]topology.Descriptor{},
	}
}

type listResponse struct {
	List []listItem `json:"list"`
}

type listItem struct {
	Name        string          `json:"name"`
	ServiceName string          `json:"serviceName"`
	ServiceArea json.RawMessage `json:"serviceArea"`
}

// List reads the catalog and remembers each entry's service address for Fetch.
func (h *HTTP) List(ctx context.Context) ([]topology.Descriptor, error) {
	u := h.BaseURL + h.ListPath
	if h.ListQuery != "" {
		u += "?body=" + url.QueryEscape(h.ListQuery)
	}
	body, err := h.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode topology list: %w", err)
	}

	out := make([]topology.Descriptor, 0, len(resp.List))
	catalog := make(map[string]topology.Descriptor, len(resp.List))
	for _, item := range resp.List {
		if item.Name == "" {
			continue
		}
		d := topology.Descriptor{
			Name:        item.Name,
			ServiceName: item.ServiceName,
			ServiceArea: scalarString(item.ServiceArea),
		}
		out = append(out, d)
		catalog[d.Name] = d
	}

	h.mu.Lock()
	h.catalog = catalog
	h.mu.Unlock()
	return out, nil
}

func (h *HTTP) Fetch(ctx context.Context, name string) (*topology.Document, error) {
	body, err := h.get(ctx, h.Endpoint(name))
	if err != nil {
		if se, ok := err.(*StatusError); ok && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %q: %v", ErrTopologyNotFound, name, err)
		}
		return nil, err
	}
	return topology.DecodeJSON(name, body)
}

// Endpoint is where name is fetched from. Catalog entries with a service address win; otherwise a
// layer number in the name ("Network-L2") maps to area 1, service L2, and anything else to area 1
// under its own name.
func (h *HTTP) Endpoint(name string) string {
	h.mu.RLock()
	d, ok := h.catalog[name]
	h.mu.RUnlock()
	if ok && d.ServiceName != "" && d.ServiceArea != "" {
		return fmt.Sprintf("%s/%s/%s", h.BaseURL, url.PathEscape(d.ServiceArea), url.PathEscape(d.ServiceName))
	}
	if m := layerPattern.FindStringSubmatch(name); m != nil {
		return fmt.Sprintf("%s/1/L%s", h.BaseURL, m[1])
	}
	return fmt.Sprintf("%s/1/%s", h.BaseURL, url.PathEscape(name))
}

// Ping checks that the catalog answers.
func (h *HTTP) Ping(ctx context.Context) error {
	_, err := h.List(ctx)
	return err
}

func (h *HTTP) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range h.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, URL: u}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}

// scalarString renders a JSON string or number as plain text.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
