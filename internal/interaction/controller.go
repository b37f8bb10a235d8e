// Package interaction turns pointer, wheel and touch input into viewport changes and selections.
package interaction

import (
	"math"
	"time"

	"topomap/core-go/internal/clock"
	"topomap/core-go/internal/projection"
	"topomap/core-go/internal/scene"
	"topomap/core-go/internal/viewport"
)

type State int

const (
	Idle State = iota
	Panning
)

func (s State) String() string {
	if s == Panning {
		return "panning"
	}
	return "idle"
}

const (
	CursorGrabbing = "grabbing"

	DefaultDragDeadZone     = 4.0 // pixels
	DefaultHighlightTimeout = 2 * time.Second
)

// Viewport is the part of the viewport the controller drives.
type Viewport interface {
	Zoom() float64
	ZoomIn()
	ZoomOut()
	Pan(dx, dy float64)
}

// Surface is the drawn overlay: something to hit-test and to emphasize a selection on.
type Surface interface {
	HitTest(p projection.PlanarPoint) (scene.Target, bool)
	Highlight(scene.Target)
	ResetHighlight()
}

type HoverEvent struct {
	Target  scene.Target `json:"target"`
	Entered bool         `json:"entered"`
}

type Options struct {
	DragDeadZone     float64
	HighlightTimeout time.Duration
	Clock            clock.Clock
	OnSelect         func(scene.Target)
	OnHover          func(HoverEvent)
}

// Controller is not safe for concurrent use; timer callbacks must be serialized with input
// events by the caller, e.g. with clock.Posted.
type Controller struct {
	vp      Viewport
	surface Surface
	opts    Options

	state   State
	down    bool
	origin  projection.PlanarPoint
	last    projection.PlanarPoint
	dragged bool
	hover   scene.Target
	timer   clock.Timer
	gen     int
}

func New(vp Viewport, surface Surface, opts Options) *Controller {
	if opts.DragDeadZone <= 0 {
		opts.DragDeadZone = DefaultDragDeadZone
	}
	if opts.HighlightTimeout <= 0 {
		opts.HighlightTimeout = DefaultHighlightTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Controller{vp: vp, surface: surface, opts: opts}
}

func (c *Controller) State() State { return c.state }

// Cursor is the pointer affordance for the current state.
func (c *Controller) Cursor() string {
	switch {
	case c.state == Panning:
		return CursorGrabbing
	case c.vp.Zoom() > 1:
		return viewport.CursorGrab
	default:
		return viewport.CursorDefault
	}
}

// Wheel zooms in for negative deltaY and out for positive. Ignored while panning.
func (c *Controller) Wheel(deltaY float64) {
	if c.state != Idle {
		return
	}
	switch {
	case deltaY < 0:
		c.vp.ZoomIn()
	case deltaY > 0:
		c.vp.ZoomOut()
	}
}

// PointerDown starts a gesture. Panning only begins when the content is zoomed in.
func (c *Controller) PointerDown(p projection.PlanarPoint) {
	c.down = true
	c.origin, c.last = p, p
	c.dragged = false
	if c.vp.Zoom() > 1 {
		c.state = Panning
	}
}

func (c *Controller) PointerMove(p projection.PlanarPoint) {
	if c.state == Panning {
		if !c.dragged {
			// The content stays put until the gesture leaves the dead zone.
			if math.Hypot(p.X-c.origin.X, p.Y-c.origin.Y) <= c.opts.DragDeadZone {
				return
			}
			c.dragged = true
			c.last = c.origin
		}
		dx, dy := p.X-c.last.X, p.Y-c.last.Y
		c.last = p
		c.vp.Pan(dx, dy)
		return
	}
	if c.down {
		c.last = p
		return
	}
	c.updateHover(p)
}

// PointerUp ends the gesture. The drag flag survives until the click that follows it.
func (c *Controller) PointerUp(projection.PlanarPoint) {
	c.down = false
	c.state = Idle
}

func (c *Controller) PointerLeave() {
	c.down = false
	c.state = Idle
	c.dragged = false
	c.setHover(scene.Target{})
}

// Click activates the element under p. It is suppressed while panning and after a gesture
// that moved past the drag dead zone, so ending a drag over a marker does not select it.
func (c *Controller) Click(p projection.PlanarPoint) (scene.Target, bool) {
	suppressed := c.state == Panning || c.dragged
	c.dragged = false
	if suppressed {
		return scene.Target{}, false
	}
	t, ok := c.surface.HitTest(p)
	if !ok {
		return scene.Target{}, false
	}
	c.Select(t)
	return t, true
}

// Select emphasizes t and schedules the highlight to clear. It is also used for selections
// made outside the map, such as list rows.
func (c *Controller) Select(t scene.Target) {
	if t.IsZero() {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.surface.Highlight(t)
	c.timer = c.opts.Clock.AfterFunc(c.opts.HighlightTimeout, func() {
		// A newer selection owns the highlight now.
		if gen != c.gen {
			return
		}
		c.timer = nil
		c.surface.ResetHighlight()
	})
	if c.opts.OnSelect != nil {
		c.opts.OnSelect(t)
	}
}

// Stop cancels any pending highlight reset.
func (c *Controller) Stop() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// TouchStart maps a single-finger touch to PointerDown. Multi-touch is ignored.
func (c *Controller) TouchStart(points []projection.PlanarPoint) {
	if len(points) != 1 {
		return
	}
	c.PointerDown(points[0])
}

func (c *Controller) TouchMove(points []projection.PlanarPoint) {
	if len(points) != 1 || !c.down {
		return
	}
	c.PointerMove(points[0])
}

func (c *Controller) TouchEnd() {
	c.PointerUp(c.last)
}

func (c *Controller) updateHover(p projection.PlanarPoint) {
	t, _ := c.surface.HitTest(p)
	c.setHover(t)
}

func (c *Controller) setHover(t scene.Target) {
	if t == c.hover {
		return
	}
	prev := c.hover
	c.hover = t
	if c.opts.OnHover == nil {
		return
	}
	if !prev.IsZero() {
		c.opts.OnHover(HoverEvent{Target: prev, Entered: false})
	}
	if !t.IsZero() {
		c.opts.OnHover(HoverEvent{Target: t, Entered: true})
	}
}
