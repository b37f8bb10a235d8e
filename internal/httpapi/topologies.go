package httpapi

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"topomap/core-go/internal/listview"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/scene"
	"topomap/core-go/internal/topology"
	"topomap/core-go/internal/viewer"
	"topomap/core-go/internal/viewport"
)

const maxPageSize = 500

type topologyView struct {
	Summary  viewer.Summary  `json:"summary"`
	Warnings []string        `json:"warnings"`
	Nodes    []topology.Node `json:"nodes"`
	Links    []linkView      `json:"links"`
}

type linkView struct {
	topology.Link
	// Renderable is true when both endpoints resolve to positioned nodes.
	Renderable bool `json:"renderable"`
}

type sceneView struct {
	Viewport viewport.Readout `json:"viewport"`
	Stats    scene.Stats      `json:"stats"`
	Markers  []markerView     `json:"markers"`
	Strokes  []strokeView     `json:"strokes"`
}

type markerView struct {
	ID      string                 `json:"id"`
	Label   string                 `json:"label"`
	At      projection.PlanarPoint `json:"at"`
	Radius  float64                `json:"radius"`
	Fill    string                 `json:"fill"`
	Opacity float64                `json:"opacity"`
	Classes []string               `json:"classes"`
}

type strokeView struct {
	ID          string                 `json:"id"`
	From        projection.PlanarPoint `json:"from"`
	To          projection.PlanarPoint `json:"to"`
	Color       string                 `json:"color"`
	Width       float64                `json:"width"`
	Opacity     float64                `json:"opacity"`
	MarkerStart string                 `json:"marker_start,omitempty"`
	MarkerEnd   string                 `json:"marker_end,omitempty"`
	Classes     []string               `json:"classes"`
}

type listResponse[T any] struct {
	listview.Page[T]
	Label string `json:"label"`
}

type projectionView struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Region    string  `json:"region"`
}

func (h *Handler) handleListTopologies(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSource(w) {
		return
	}
	list, err := h.source.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list topologies failed")
		h.writeError(w, http.StatusBadGateway, "source_unavailable", "failed to list topologies", map[string]any{"error": err.Error()})
		return
	}
	if list == nil {
		list = []topology.Descriptor{}
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetTopology(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGraph(w, r)
	if !ok {
		return
	}

	resp := topologyView{
		Summary:  viewer.Summarize(g),
		Warnings: g.Warnings(),
		Nodes:    g.Nodes(),
		Links:    make([]linkView, 0, g.LinkCount()),
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	for _, l := range g.Links() {
		a, aok, z, zok := g.Endpoints(l)
		resp.Links = append(resp.Links, linkView{Link: l, Renderable: aok && zok && a.Positioned && z.Positioned})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetScene(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "svg" {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid format", map[string]any{"format": format})
		return
	}
	zoom, err := parseFloatParam(q.Get("zoom"), 1)
	if err != nil || zoom <= 0 {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid zoom", map[string]any{"zoom": q.Get("zoom")})
		return
	}
	panX, errX := parseFloatParam(q.Get("panX"), 0)
	panY, errY := parseFloatParam(q.Get("panY"), 0)
	if errX != nil || errY != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid pan", nil)
		return
	}
	showLinks, err := parseBoolParam(q.Get("links"), true)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid links flag", map[string]any{"error": err.Error()})
		return
	}
	reference, err := parseBoolParam(q.Get("reference"), false)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid reference flag", map[string]any{"error": err.Error()})
		return
	}

	doc, ok := h.fetchDocument(w, r)
	if !ok {
		return
	}

	v := h.newViewer(viewer.Options{})
	defer v.Close()
	v.Apply(doc)
	v.Viewport().Restore(viewport.State{Zoom: zoom, Pan: viewport.Offset{DX: panX, DY: panY}})
	if !showLinks {
		v.ToggleLinks()
	}

	if format == "svg" {
		cal := h.opts.Calibration
		svg := scene.NewSVG(cal.Width, cal.Height)
		if reference {
			p := v.Viewport().Transform().Apply(cal.Center())
			svg.Reference = &p
		}
		v.RenderTo(svg)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = svg.WriteTo(w)
		return
	}

	h.writeJSON(w, http.StatusOK, sceneOf(v, v.Render()))
}

func sceneOf(v *viewer.Viewer, stats scene.Stats) sceneView {
	resp := sceneView{
		Viewport: v.Readout(),
		Stats:    stats,
		Markers:  make([]markerView, 0, stats.Markers),
		Strokes:  make([]strokeView, 0, stats.Strokes),
	}
	for _, s := range v.Canvas().Strokes() {
		resp.Strokes = append(resp.Strokes, toStrokeView(s))
	}
	for _, m := range v.Canvas().Markers() {
		resp.Markers = append(resp.Markers, toMarkerView(m))
	}
	return resp
}

func (h *Handler) handleListNodes(w http.ResponseWriter, r *http.Request) {
	page, pageSize, filter, ok := h.parseListParams(w, r)
	if !ok {
		return
	}
	g, ok := h.loadGraph(w, r)
	if !ok {
		return
	}
	e := listview.NewNodeExplorer(pageSize)
	e.SetSource(listview.NodeRows(g))
	e.SetFilter(filter)
	e.GoToPage(page)
	h.writeJSON(w, http.StatusOK, listResponse[listview.NodeRow]{Page: e.Page(), Label: e.CountLabel() + " nodes"})
}

func (h *Handler) handleListLinks(w http.ResponseWriter, r *http.Request) {
	page, pageSize, filter, ok := h.parseListParams(w, r)
	if !ok {
		return
	}
	g, ok := h.loadGraph(w, r)
	if !ok {
		return
	}
	e := listview.NewLinkExplorer(pageSize)
	e.SetSource(listview.LinkRows(g))
	e.SetFilter(filter)
	e.GoToPage(page)
	h.writeJSON(w, http.StatusOK, listResponse[listview.LinkRow]{Page: e.Page(), Label: e.CountLabel() + " links"})
}

func (h *Handler) handleGetNode(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGraph(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	d, err := viewer.DescribeNode(g, id)
	if errors.Is(err, topology.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "node not found", map[string]any{"id": id})
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleGetLink(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGraph(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	d, err := viewer.DescribeLink(g, id)
	if errors.Is(err, topology.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "link not found", map[string]any{"id": id})
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleProject(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid lat", map[string]any{"lat": q.Get("lat")})
		return
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lon")), 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid lon", map[string]any{"lon": q.Get("lon")})
		return
	}

	c := projection.GeoCoordinate{Latitude: lat, Longitude: lon}
	p, ok := h.engine.Project(c)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "coordinate cannot be projected", map[string]any{"lat": lat, "lon": lon})
		return
	}
	h.writeJSON(w, http.StatusOK, projectionView{Latitude: lat, Longitude: lon, X: p.X, Y: p.Y, Region: projection.Region(c)})
}

func (h *Handler) parseListParams(w http.ResponseWriter, r *http.Request) (page, pageSize int, filter string, ok bool) {
	q := r.URL.Query()
	page, err := parseIntParam(q.Get("page"), 0)
	if err != nil || page < 0 {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid page", map[string]any{"page": q.Get("page")})
		return 0, 0, "", false
	}
	def := h.opts.PageSize
	if def <= 0 {
		def = listview.DefaultPageSize
	}
	pageSize, err = parseIntParam(q.Get("pageSize"), def)
	if err != nil || pageSize <= 0 || pageSize > maxPageSize {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid pageSize", map[string]any{"pageSize": q.Get("pageSize"), "max": maxPageSize})
		return 0, 0, "", false
	}
	return page, pageSize, q.Get("filter"), true
}

func toMarkerView(m scene.Marker) markerView {
	return markerView{
		ID:      m.ID,
		Label:   m.Label,
		At:      m.At,
		Radius:  m.Radius,
		Fill:    m.Fill,
		Opacity: m.Opacity,
		Classes: m.Classes,
	}
}

func toStrokeView(s scene.Stroke) strokeView {
	return strokeView{
		ID:          s.ID,
		From:        s.From,
		To:          s.To,
		Color:       s.Color,
		Width:       s.Width,
		Opacity:     s.Opacity,
		MarkerStart: s.StartMarkerID(),
		MarkerEnd:   s.EndMarkerID(),
		Classes:     s.Classes,
	}
}

func parseIntParam(value string, def int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}

func parseFloatParam(value string, def float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", value)
	}
	return v, nil
}

func parseBoolParam(value string, def bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	return strconv.ParseBool(value)
}
