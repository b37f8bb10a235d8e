package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"topomap/core-go/internal/metrics"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/refresher"
	"topomap/core-go/internal/source"
	"topomap/core-go/internal/topology"
	"topomap/core-go/internal/viewer"
	"topomap/core-go/internal/viewport"
)

// Options carries the map and session settings shared by every request.
type Options struct {
	Calibration      projection.Calibration
	Viewport         viewport.Config
	PageSize         int
	Debounce         time.Duration
	HighlightTimeout time.Duration
	DragDeadZone     float64
	// Refresh.Interval > 0 makes live sessions reload their topology periodically.
	Refresh     refresher.Options
	CORSOrigins []string
	Metrics     *metrics.Metrics
}

type Handler struct {
	log      zerolog.Logger
	source   source.Source
	opts     Options
	engine   *projection.Engine
	upgrader websocket.Upgrader
}

// NewHandler serves topologies from src. A nil src still serves health, metrics and projection
// probes; topology routes answer 503.
func NewHandler(log zerolog.Logger, src source.Source, opts Options) *Handler {
	if opts.Calibration == (projection.Calibration{}) {
		opts.Calibration = projection.DefaultCalibration()
	}
	if opts.Viewport == (viewport.Config{}) {
		opts.Viewport = viewport.DefaultConfig()
	}
	h := &Handler{
		log:    log,
		source: src,
		opts:   opts,
		engine: projection.New(opts.Calibration),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)
	if len(h.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.opts.Metrics.Handler())

	// Live viewer sessions are long-lived; keep them out of the request timeout.
	r.Get("/ws/viewer", h.handleViewerSession)

	// API
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Route("/v1", func(r chi.Router) {
			r.Get("/project", h.handleProject)

			r.Route("/topologies", func(r chi.Router) {
				r.Get("/", h.handleListTopologies)
				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", h.handleGetTopology)
					r.Get("/scene", h.handleGetScene)
					r.Get("/nodes", h.handleListNodes)
					r.Get("/nodes/{id}", h.handleGetNode)
					r.Get("/links", h.handleListLinks)
					r.Get("/links/{id}", h.handleGetLink)
				})
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		if id := middleware.GetReqID(r.Context()); id != "" {
			ww.Header().Set(middleware.RequestIDHeader, id)
		}

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		h.opts.Metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), elapsed)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.CORSOrigins) == 0 {
		return true
	}
	for _, o := range h.opts.CORSOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.source == nil {
		h.writeError(w, http.StatusServiceUnavailable, "source_unavailable", "topology source not configured", nil)
		return
	}

	if err := source.Ping(ctx, h.source); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "source_unavailable", "topology source not ready", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

func (h *Handler) ensureSource(w http.ResponseWriter) bool {
	if h.source == nil {
		h.writeError(w, http.StatusServiceUnavailable, "source_unavailable", "topology source not configured", nil)
		return false
	}
	return true
}

// fetchDocument fetches the topology named in the route, writing the error response itself
// when it fails.
func (h *Handler) fetchDocument(w http.ResponseWriter, r *http.Request) (*topology.Document, bool) {
	if !h.ensureSource(w) {
		return nil, false
	}
	name := chi.URLParam(r, "name")

	start := time.Now()
	doc, err := h.source.Fetch(r.Context(), name)
	if err != nil {
		h.opts.Metrics.ObserveLoad(metrics.LoadError, time.Since(start))
		switch {
		case errors.Is(err, source.ErrTopologyNotFound):
			h.writeError(w, http.StatusNotFound, "not_found", "topology not found", map[string]any{"name": name})
		default:
			h.log.Error().Err(err).Str("topology", name).Msg("fetch topology failed")
			h.writeError(w, http.StatusBadGateway, "source_unavailable", "failed to fetch topology", map[string]any{"name": name, "error": err.Error()})
		}
		return nil, false
	}
	h.opts.Metrics.ObserveLoad(metrics.LoadOK, time.Since(start))
	return doc, true
}

func (h *Handler) loadGraph(w http.ResponseWriter, r *http.Request) (*topology.Graph, bool) {
	doc, ok := h.fetchDocument(w, r)
	if !ok {
		return nil, false
	}
	g := topology.Build(doc, h.engine)
	for _, warning := range g.Warnings() {
		h.log.Warn().Str("topology", doc.Name).Str("warning", warning).Msg("topology document degraded")
	}
	return g, true
}

// newViewer builds a viewer with the handler's settings. Sessions pass their own clock,
// source and event sink.
func (h *Handler) newViewer(opts viewer.Options) *viewer.Viewer {
	opts.Calibration = h.opts.Calibration
	opts.Viewport = h.opts.Viewport
	opts.PageSize = h.opts.PageSize
	opts.Debounce = h.opts.Debounce
	opts.HighlightTimeout = h.opts.HighlightTimeout
	opts.DragDeadZone = h.opts.DragDeadZone
	opts.Log = h.log
	opts.Metrics = h.opts.Metrics
	return viewer.New(opts)
}
