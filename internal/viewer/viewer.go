// Package viewer owns the mutable map state for one page or session: the loaded graph, the
// viewport, the overlay, the input controller and both list explorers.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"topomap/core-go/internal/clock"
	"topomap/core-go/internal/interaction"
	"topomap/core-go/internal/listview"
	"topomap/core-go/internal/metrics"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/scene"
	"topomap/core-go/internal/topology"
	"topomap/core-go/internal/viewport"
)

// ErrNoSource is returned by loads on a viewer built without a Source.
var ErrNoSource = errors.New("viewer has no topology source")

// Source supplies topology documents.
type Source interface {
	List(ctx context.Context) ([]topology.Descriptor, error)
	Fetch(ctx context.Context, name string) (*topology.Document, error)
}

type Options struct {
	Calibration      projection.Calibration
	Viewport         viewport.Config
	PageSize         int
	Debounce         time.Duration
	HighlightTimeout time.Duration
	DragDeadZone     float64

	// Clock drives debounce and highlight timers. Wrap it with clock.Posted when the viewer
	// is owned by an event loop.
	Clock   clock.Clock
	Source  Source
	Log     zerolog.Logger
	Metrics *metrics.Metrics
	// OnEvent receives every notification the viewer emits.
	OnEvent func(Event)
}

// Viewer is not safe for concurrent use.
type Viewer struct {
	opts     Options
	engine   *projection.Engine
	store    *topology.Store
	vp       *viewport.Viewport
	canvas   *scene.Canvas
	renderer scene.Renderer
	ctrl     *interaction.Controller
	nodes    *listview.Explorer[listview.NodeRow]
	links    *listview.Explorer[listview.LinkRow]

	nodeFilter *listview.Debouncer
	linkFilter *listview.Debouncer

	selected string
	status   Status
	lastLoad time.Time
}

func New(opts Options) *Viewer {
	if opts.Calibration == (projection.Calibration{}) {
		opts.Calibration = projection.DefaultCalibration()
	}
	if opts.Viewport == (viewport.Config{}) {
		opts.Viewport = viewport.DefaultConfig()
		opts.Viewport.Content = viewport.Size{Width: opts.Calibration.Width, Height: opts.Calibration.Height}
		opts.Viewport.Container = opts.Viewport.Content
	}
	if opts.PageSize <= 0 {
		opts.PageSize = listview.DefaultPageSize
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	v := &Viewer{
		opts:   opts,
		engine: projection.New(opts.Calibration),
		store:  topology.NewStore(),
		vp:     viewport.New(opts.Viewport),
		canvas: scene.NewCanvas(),
		nodes:  listview.NewNodeExplorer(opts.PageSize),
		links:  listview.NewLinkExplorer(opts.PageSize),
		status: Status{Level: LevelInfo, Message: "No topology loaded"},
	}
	v.nodeFilter = listview.NewDebouncer(opts.Clock, opts.Debounce)
	v.linkFilter = listview.NewDebouncer(opts.Clock, opts.Debounce)
	v.ctrl = interaction.New(v.vp, v.canvas, interaction.Options{
		DragDeadZone:     opts.DragDeadZone,
		HighlightTimeout: opts.HighlightTimeout,
		Clock:            opts.Clock,
		OnSelect:         v.onSelect,
		OnHover: func(e interaction.HoverEvent) {
			v.emit(Event{Type: EventHover, Hover: &e})
		},
	})
	v.vp.OnChange(func(r viewport.Readout) {
		v.Render()
		r.Cursor = v.ctrl.Cursor()
		v.emit(Event{Type: EventViewport, Viewport: &r})
	})
	return v
}

func (v *Viewer) Graph() *topology.Graph { return v.store.Current() }

func (v *Viewer) Engine() *projection.Engine { return v.engine }

func (v *Viewer) Viewport() *viewport.Viewport { return v.vp }

func (v *Viewer) Canvas() *scene.Canvas { return v.canvas }

func (v *Viewer) Controller() *interaction.Controller { return v.ctrl }

func (v *Viewer) Status() Status { return v.status }

// Readout is the current viewport readout with the controller's cursor.
func (v *Viewer) Readout() viewport.Readout {
	r := v.vp.Readout()
	r.Cursor = v.ctrl.Cursor()
	return r
}

// Topologies lists what the source can load.
func (v *Viewer) Topologies(ctx context.Context) ([]topology.Descriptor, error) {
	if v.opts.Source == nil {
		return nil, ErrNoSource
	}
	list, err := v.opts.Source.List(ctx)
	if err != nil {
		v.setStatus(LevelError, fmt.Sprintf("Failed to list topologies: %v", err))
		return nil, err
	}
	return list, nil
}

// Pending is an issued load waiting for its document.
type Pending struct {
	Ticket  topology.Ticket
	Name    string
	Started time.Time
}

// BeginLoad issues a load ticket for name. Fetch the document off the viewer's goroutine and
// hand the result to CompleteLoad.
func (v *Viewer) BeginLoad(name string) Pending {
	v.setStatus(LevelInfo, fmt.Sprintf("Loading %s...", name))
	return Pending{Ticket: v.store.Begin(), Name: name, Started: v.opts.Clock.Now()}
}

// CompleteLoad applies a fetched document. It reports false when a newer load has been issued
// since p, in which case the result is dropped.
func (v *Viewer) CompleteLoad(p Pending, doc *topology.Document, fetchErr error) bool {
	elapsed := v.opts.Clock.Now().Sub(p.Started)
	if !v.store.IsLatest(p.Ticket) {
		v.opts.Metrics.ObserveLoad(metrics.LoadStale, elapsed)
		v.opts.Log.Debug().Str("topology", p.Name).Msg("dropping stale topology load")
		return false
	}

	prev := v.store.Current()
	if fetchErr != nil {
		v.opts.Metrics.ObserveLoad(metrics.LoadError, elapsed)
		v.opts.Log.Warn().Err(fetchErr).Str("topology", p.Name).Msg("topology load failed")
		v.setStatus(LevelError, fmt.Sprintf("Failed to load topology %s: %v", p.Name, fetchErr))
		if prev.Name() == p.Name {
			// Keep showing the last good graph for the same topology.
			return true
		}
		v.apply(p.Ticket, topology.Empty(p.Name), prev)
		return true
	}

	g := topology.Build(renamed(doc, p.Name), v.engine)
	for _, w := range g.Warnings() {
		v.opts.Log.Warn().Str("topology", p.Name).Str("warning", w).Msg("topology document degraded")
	}
	v.apply(p.Ticket, g, prev)
	v.opts.Metrics.ObserveLoad(metrics.LoadOK, elapsed)
	v.lastLoad = v.opts.Clock.Now()
	v.setStatus(LevelInfo, fmt.Sprintf("Loaded %s: %s", g.Name(), v.Summary().Text))
	return true
}

// Load fetches and applies name synchronously.
func (v *Viewer) Load(ctx context.Context, name string) error {
	if v.opts.Source == nil {
		return ErrNoSource
	}
	p := v.BeginLoad(name)
	doc, err := v.opts.Source.Fetch(ctx, name)
	v.CompleteLoad(p, doc, err)
	return err
}

// Refresh reloads the current topology, keeping the viewport.
func (v *Viewer) Refresh(ctx context.Context) error {
	name := v.store.Current().Name()
	if name == "" {
		return nil
	}
	return v.Load(ctx, name)
}

// Apply installs an already-parsed document without a source.
func (v *Viewer) Apply(doc *topology.Document) {
	name := ""
	if doc != nil {
		name = doc.Name
	}
	v.CompleteLoad(v.BeginLoad(name), doc, nil)
}

func (v *Viewer) apply(t topology.Ticket, g *topology.Graph, prev *topology.Graph) {
	if !v.store.Commit(t, g) {
		return
	}
	if g.Name() != prev.Name() {
		// Switching topology starts from a clean view; refreshes keep it.
		v.ctrl.Stop()
		v.canvas.ResetHighlight()
		v.selected = ""
		v.vp.Reset()
	}
	v.nodeFilter.Cancel()
	v.linkFilter.Cancel()
	v.nodes.SetSource(listview.NodeRows(g))
	v.links.SetSource(listview.LinkRows(g))
	v.Render()
	v.emit(Event{Type: EventLoaded, Summary: ptr(v.Summary())})
	v.emitLists()
}

// Render redraws the overlay from the current graph and viewport.
func (v *Viewer) Render() scene.Stats {
	start := time.Now()
	st := v.renderer.Render(v.canvas, v.store.Current(), v.vp.Transform())
	v.opts.Metrics.ObserveRender(st.Markers, st.Strokes, time.Since(start))
	return st
}

// RenderTo draws the current state onto another scene, e.g. an SVG export.
func (v *Viewer) RenderTo(s scene.Scene) scene.Stats {
	return v.renderer.Render(s, v.store.Current(), v.vp.Transform())
}

func (v *Viewer) ZoomIn() { v.vp.ZoomIn() }

func (v *Viewer) ZoomOut() { v.vp.ZoomOut() }

// Center resets zoom and pan.
func (v *Viewer) Center() { v.vp.Reset() }

func (v *Viewer) Pan(dx, dy float64) { v.vp.Pan(dx, dy) }

func (v *Viewer) Resize(width, height float64) {
	v.vp.SetContainer(viewport.Size{Width: width, Height: height})
}

// ToggleLinks shows or hides link strokes and reports the new visibility.
func (v *Viewer) ToggleLinks() bool {
	v.renderer.HideLinks = !v.renderer.HideLinks
	v.Render()
	return !v.renderer.HideLinks
}

func (v *Viewer) LinksVisible() bool { return !v.renderer.HideLinks }

// SetNodeFilter applies text to the node list after the debounce quiet period.
func (v *Viewer) SetNodeFilter(text string) {
	v.nodeFilter.Call(func() { v.ApplyNodeFilter(text) })
}

func (v *Viewer) SetLinkFilter(text string) {
	v.linkFilter.Call(func() { v.ApplyLinkFilter(text) })
}

// ApplyNodeFilter filters the node list immediately.
func (v *Viewer) ApplyNodeFilter(text string) {
	v.nodes.SetFilter(text)
	v.emitLists()
}

func (v *Viewer) ApplyLinkFilter(text string) {
	v.links.SetFilter(text)
	v.emitLists()
}

func (v *Viewer) NodesPage(n int) {
	v.nodes.GoToPage(n)
	v.emitLists()
}

func (v *Viewer) LinksPage(n int) {
	v.links.GoToPage(n)
	v.emitLists()
}

func (v *Viewer) Nodes() listview.Page[listview.NodeRow] { return v.nodes.Page() }

func (v *Viewer) Links() listview.Page[listview.LinkRow] { return v.links.Page() }

// Lists is the state of both explorers, as published in list events.
func (v *Viewer) Lists() Lists {
	return Lists{
		Nodes:      v.nodes.Page(),
		Links:      v.links.Page(),
		NodesLabel: v.nodes.CountLabel() + " nodes",
		LinksLabel: v.links.CountLabel() + " links",
	}
}

// SelectNode highlights a node as if it had been clicked, e.g. from a list row.
func (v *Viewer) SelectNode(id string) error {
	if _, err := v.store.Current().Node(id); err != nil {
		return err
	}
	v.ctrl.Select(scene.Target{Kind: scene.KindNode, ID: id})
	return nil
}

func (v *Viewer) SelectLink(id string) error {
	if _, err := v.store.Current().Link(id); err != nil {
		return err
	}
	v.ctrl.Select(scene.Target{Kind: scene.KindLink, ID: id})
	return nil
}

// LastLoaded is when the current graph was applied, or the zero time.
func (v *Viewer) LastLoaded() time.Time { return v.lastLoad }

// Selected is the id of the last selected node or link.
func (v *Viewer) Selected() string { return v.selected }

// Close cancels pending timers.
func (v *Viewer) Close() {
	v.ctrl.Stop()
	v.nodeFilter.Cancel()
	v.linkFilter.Cancel()
}

func (v *Viewer) onSelect(t scene.Target) {
	v.selected = t.ID
	v.emit(Event{Type: EventSelection, Selection: &t})
}

func (v *Viewer) setStatus(level Level, msg string) {
	v.status = Status{Level: level, Message: msg}
	s := v.status
	v.emit(Event{Type: EventStatus, Status: &s})
}

func (v *Viewer) emitLists() {
	l := v.Lists()
	v.emit(Event{Type: EventLists, Lists: &l})
}

func (v *Viewer) emit(e Event) {
	if v.opts.OnEvent != nil {
		v.opts.OnEvent(e)
	}
}

// renamed files the graph under the name it was requested by, so refreshes ask for the same
// thing again.
func renamed(doc *topology.Document, name string) *topology.Document {
	if doc == nil {
		return topology.NewDocument(name)
	}
	if doc.Name == name {
		return doc
	}
	cp := *doc
	cp.Name = name
	return &cp
}

func ptr[T any](v T) *T { return &v }
