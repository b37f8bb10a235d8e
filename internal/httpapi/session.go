package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"topomap/core-go/internal/clock"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/refresher"
	"topomap/core-go/internal/topology"
	"topomap/core-go/internal/viewer"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxCommandSize = 64 << 10
)

// command is one client request on a viewer session. Only the fields the type needs are read.
type command struct {
	Type   string                   `json:"type"`
	Name   string                   `json:"name,omitempty"`
	ID     string                   `json:"id,omitempty"`
	Text   string                   `json:"text,omitempty"`
	Page   int                      `json:"page,omitempty"`
	X      float64                  `json:"x,omitempty"`
	Y      float64                  `json:"y,omitempty"`
	DX     float64                  `json:"dx,omitempty"`
	DY     float64                  `json:"dy,omitempty"`
	Width  float64                  `json:"width,omitempty"`
	Height float64                  `json:"height,omitempty"`
	DeltaY float64                  `json:"delta_y,omitempty"`
	Points []projection.PlanarPoint `json:"points,omitempty"`
}

func (c command) point() projection.PlanarPoint {
	return projection.PlanarPoint{X: c.X, Y: c.Y}
}

// message is a session reply that is not a viewer event.
type message struct {
	Type    string        `json:"type"`
	Session string        `json:"session,omitempty"`
	Data    any           `json:"data,omitempty"`
	Error   *sessionError `json:"error,omitempty"`
}

type sessionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type session struct {
	h    *Handler
	id   string
	conn *websocket.Conn
	log  zerolog.Logger
	v    *viewer.Viewer

	ctx     context.Context
	cancel  context.CancelFunc
	actions chan func()
	out     chan any
}

func (h *Handler) handleViewerSession(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("viewer session upgrade failed")
		return
	}

	id := uuid.NewString()
	s := &session{
		h:       h,
		id:      id,
		conn:    conn,
		log:     h.log.With().Str("session", id).Logger(),
		actions: make(chan func(), 16),
		out:     make(chan any, 64),
	}
	h.opts.Metrics.SessionOpened()
	defer h.opts.Metrics.SessionClosed()

	s.log.Info().Str("remote", r.RemoteAddr).Msg("viewer session opened")
	s.run(r.Context())
	s.log.Info().Msg("viewer session closed")
}

// run owns the session's viewer. Every viewer call happens on this goroutine; the reader,
// timers, fetches and the refresher post work into it.
func (s *session) run(parent context.Context) {
	s.ctx, s.cancel = context.WithCancel(parent)
	defer s.cancel()
	defer s.conn.Close()

	s.v = s.h.newViewer(viewer.Options{
		Clock:   clock.Posted(clock.Real{}, func(fn func()) { s.post(fn) }),
		Source:  s.h.source,
		OnEvent: func(e viewer.Event) { s.send(e) },
	})
	defer s.v.Close()

	go s.writeLoop()
	go s.readLoop()

	if s.h.source != nil && s.h.opts.Refresh.Interval > 0 {
		opts := s.h.opts.Refresh
		opts.OnResult = func(err error, next time.Duration) {
			if err != nil {
				s.log.Warn().Err(err).Dur("retry_in", next).Msg("topology refresh failed")
			}
		}
		go refresher.New(s.log, s.refresh, opts).Run(s.ctx)
	}

	s.send(message{Type: "hello", Session: s.id})
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.actions:
			fn()
		}
	}
}

// post queues fn for the session loop. It reports false once the session has ended.
func (s *session) post(fn func()) bool {
	select {
	case s.actions <- fn:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// call runs fn on the session loop and waits for it to finish.
func (s *session) call(fn func()) bool {
	done := make(chan struct{})
	if !s.post(func() { fn(); close(done) }) {
		return false
	}
	select {
	case <-done:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *session) send(v any) {
	select {
	case s.out <- v:
	case <-s.ctx.Done():
	}
}

func (s *session) sendError(code, msg string) {
	s.send(message{Type: "error", Error: &sessionError{Code: code, Message: msg}})
}

func (s *session) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case v := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(v); err != nil {
				s.log.Debug().Err(err).Msg("viewer session write failed")
				s.cancel()
				return
			}
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.cancel()
				return
			}
		}
	}
}

func (s *session) readLoop() {
	defer s.cancel()

	s.conn.SetReadLimit(maxCommandSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("viewer session read failed")
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.sendError("invalid_json", "invalid command: "+err.Error())
			continue
		}
		if !s.post(func() { s.handle(cmd) }) {
			return
		}
	}
}

func (s *session) handle(cmd command) {
	v := s.v
	ctrl := v.Controller()

	switch cmd.Type {
	case "list":
		if !s.requireSource() {
			return
		}
		go s.listTopologies()
	case "load":
		if !s.requireSource() {
			return
		}
		if cmd.Name == "" {
			s.sendError("validation_failed", "load requires a name")
			return
		}
		p := v.BeginLoad(cmd.Name)
		go func() { _ = s.fetch(p) }()
	case "refresh":
		if !s.requireSource() {
			return
		}
		if name := v.Graph().Name(); name != "" {
			p := v.BeginLoad(name)
			go func() { _ = s.fetch(p) }()
		}
	case "zoomIn":
		v.ZoomIn()
	case "zoomOut":
		v.ZoomOut()
	case "center":
		v.Center()
	case "pan":
		v.Pan(cmd.DX, cmd.DY)
	case "resize":
		v.Resize(cmd.Width, cmd.Height)
	case "wheel":
		ctrl.Wheel(cmd.DeltaY)
	case "pointerDown":
		ctrl.PointerDown(cmd.point())
	case "pointerMove":
		ctrl.PointerMove(cmd.point())
	case "pointerUp":
		ctrl.PointerUp(cmd.point())
	case "pointerLeave":
		ctrl.PointerLeave()
	case "click":
		ctrl.Click(cmd.point())
	case "touchStart":
		ctrl.TouchStart(cmd.Points)
	case "touchMove":
		ctrl.TouchMove(cmd.Points)
	case "touchEnd":
		ctrl.TouchEnd()
	case "toggleLinks":
		s.send(message{Type: "links", Data: map[string]bool{"visible": v.ToggleLinks()}})
	case "nodeFilter":
		v.SetNodeFilter(cmd.Text)
	case "linkFilter":
		v.SetLinkFilter(cmd.Text)
	case "nodesPage":
		v.NodesPage(cmd.Page)
	case "linksPage":
		v.LinksPage(cmd.Page)
	case "selectNode":
		s.notFound(v.SelectNode(cmd.ID), "node", cmd.ID)
	case "selectLink":
		s.notFound(v.SelectLink(cmd.ID), "link", cmd.ID)
	case "nodeDetails":
		d, err := v.NodeDetails(cmd.ID)
		if !s.notFound(err, "node", cmd.ID) {
			s.send(message{Type: "details", Data: d})
		}
	case "linkDetails":
		d, err := v.LinkDetails(cmd.ID)
		if !s.notFound(err, "link", cmd.ID) {
			s.send(message{Type: "details", Data: d})
		}
	case "scene":
		s.send(message{Type: "scene", Data: sceneOf(v, v.Render())})
	default:
		s.sendError("unknown_command", "unknown command type "+cmd.Type)
	}
}

// notFound reports err to the client and returns true when there was one.
func (s *session) notFound(err error, kind, id string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, topology.ErrNotFound) {
		s.sendError("not_found", kind+" "+id+" not found")
		return true
	}
	s.sendError("internal", err.Error())
	return true
}

func (s *session) requireSource() bool {
	if s.h.source == nil {
		s.sendError("source_unavailable", "topology source not configured")
		return false
	}
	return true
}

func (s *session) listTopologies() {
	list, err := s.h.source.List(s.ctx)
	if err != nil {
		s.sendError("source_unavailable", "failed to list topologies: "+err.Error())
		return
	}
	if list == nil {
		list = []topology.Descriptor{}
	}
	s.send(message{Type: "topologies", Data: list})
}

// fetch runs off the loop and hands the result back to it. Superseded loads are dropped by
// the viewer.
func (s *session) fetch(p viewer.Pending) error {
	doc, err := s.h.source.Fetch(s.ctx, p.Name)
	if errors.Is(err, context.Canceled) && s.ctx.Err() != nil {
		return err
	}
	s.post(func() { s.v.CompleteLoad(p, doc, err) })
	return err
}

func (s *session) refresh(ctx context.Context) error {
	var (
		p    viewer.Pending
		name string
	)
	ok := s.call(func() {
		name = s.v.Graph().Name()
		if name != "" {
			p = s.v.BeginLoad(name)
		}
	})
	if !ok {
		return ctx.Err()
	}
	if name == "" {
		return nil
	}
	return s.fetch(p)
}
