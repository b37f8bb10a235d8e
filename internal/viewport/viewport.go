// Package viewport holds the zoom/pan state shared by the base map and its overlay.
package viewport

import (
	"fmt"
	"math"

	"topomap/core-go/internal/projection"
)

const (
	CursorGrab    = "grab"
	CursorDefault = "default"
)

type Size struct {
	Width  float64 `json:"width" koanf:"width" yaml:"width"`
	Height float64 `json:"height" koanf:"height" yaml:"height"`
}

type Offset struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// State is the persisted part of a viewport.
type State struct {
	Zoom float64 `json:"zoom"`
	Pan  Offset  `json:"pan"`
}

type Config struct {
	MinZoom   float64 `koanf:"min_zoom" yaml:"min_zoom"`
	MaxZoom   float64 `koanf:"max_zoom" yaml:"max_zoom"`
	Step      float64 `koanf:"step" yaml:"step"`
	Content   Size    `koanf:"content" yaml:"content"`
	Container Size    `koanf:"container" yaml:"container"`
}

func DefaultConfig() Config {
	return Config{
		MinZoom:   0.5,
		MaxZoom:   5,
		Step:      1.2,
		Content:   Size{Width: 2000, Height: 857},
		Container: Size{Width: 2000, Height: 857},
	}
}

// Readout is published after every change for zoom labels and cursor affordance.
type Readout struct {
	ZoomPercent int       `json:"zoom_percent"`
	Label       string    `json:"label"`
	Cursor      string    `json:"cursor"`
	Transform   Transform `json:"transform"`
}

// Viewport is owned by a single viewer and is not safe for concurrent use.
type Viewport struct {
	cfg       Config
	state     State
	listeners []func(Readout)
}

func New(cfg Config) *Viewport {
	def := DefaultConfig()
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = def.MinZoom
	}
	if cfg.MaxZoom < cfg.MinZoom {
		cfg.MaxZoom = math.Max(def.MaxZoom, cfg.MinZoom)
	}
	if cfg.Step <= 1 {
		cfg.Step = def.Step
	}
	if cfg.Content.Width <= 0 || cfg.Content.Height <= 0 {
		cfg.Content = def.Content
	}
	if cfg.Container.Width <= 0 || cfg.Container.Height <= 0 {
		cfg.Container = cfg.Content
	}

	v := &Viewport{cfg: cfg}
	v.state = State{Zoom: clamp(1, cfg.MinZoom, cfg.MaxZoom)}
	return v
}

func (v *Viewport) Config() Config { return v.cfg }

func (v *Viewport) State() State { return v.state }

func (v *Viewport) Zoom() float64 { return v.state.Zoom }

// OnChange registers fn to receive a readout after each mutation.
func (v *Viewport) OnChange(fn func(Readout)) {
	if fn != nil {
		v.listeners = append(v.listeners, fn)
	}
}

func (v *Viewport) ZoomIn() {
	v.setZoom(v.state.Zoom * v.cfg.Step)
}

func (v *Viewport) ZoomOut() {
	v.setZoom(v.state.Zoom / v.cfg.Step)
}

// Reset restores 100% zoom with no pan.
func (v *Viewport) Reset() {
	v.state = State{Zoom: clamp(1, v.cfg.MinZoom, v.cfg.MaxZoom)}
	v.changed()
}

// Restore applies a previously captured state, clamping it to the current bounds.
func (v *Viewport) Restore(s State) {
	z := s.Zoom
	if math.IsNaN(z) || z <= 0 {
		z = 1
	}
	v.state = State{Zoom: clamp(z, v.cfg.MinZoom, v.cfg.MaxZoom), Pan: s.Pan}
	v.clampPan()
	v.changed()
}

// Pan moves the content by a screen-space delta. The delta is divided by the zoom so the
// perceived speed stays constant.
func (v *Viewport) Pan(dx, dy float64) {
	if !finite(dx) || !finite(dy) {
		return
	}
	v.state.Pan.DX += dx / v.state.Zoom
	v.state.Pan.DY += dy / v.state.Zoom
	v.clampPan()
	v.changed()
}

// SetContainer updates the visible area, e.g. after a window resize.
func (v *Viewport) SetContainer(s Size) {
	if s.Width <= 0 || s.Height <= 0 {
		return
	}
	v.cfg.Container = s
	v.clampPan()
	v.changed()
}

// MaxPan is the largest pan magnitude per axis at the current zoom.
func (v *Viewport) MaxPan() Offset {
	z := v.state.Zoom
	return Offset{
		DX: math.Max(0, (v.cfg.Content.Width*z-v.cfg.Container.Width)/2) / z,
		DY: math.Max(0, (v.cfg.Content.Height*z-v.cfg.Container.Height)/2) / z,
	}
}

func (v *Viewport) Transform() Transform {
	return Transform{
		Scale:   v.state.Zoom,
		Pan:     v.state.Pan,
		OriginX: v.cfg.Content.Width / 2,
		OriginY: v.cfg.Content.Height / 2,
	}
}

func (v *Viewport) Readout() Readout {
	cursor := CursorDefault
	if v.state.Zoom > 1 {
		cursor = CursorGrab
	}
	pct := int(math.Round(v.state.Zoom * 100))
	return Readout{
		ZoomPercent: pct,
		Label:       fmt.Sprintf("%d%%", pct),
		Cursor:      cursor,
		Transform:   v.Transform(),
	}
}

func (v *Viewport) setZoom(z float64) {
	z = clamp(z, v.cfg.MinZoom, v.cfg.MaxZoom)
	if z == v.state.Zoom {
		return
	}
	v.state.Zoom = z
	v.clampPan()
	v.changed()
}

func (v *Viewport) clampPan() {
	limit := v.MaxPan()
	v.state.Pan.DX = clamp(v.state.Pan.DX, -limit.DX, limit.DX)
	v.state.Pan.DY = clamp(v.state.Pan.DY, -limit.DY, limit.DY)
}

func (v *Viewport) changed() {
	if len(v.listeners) == 0 {
		return
	}
	r := v.Readout()
	for _, fn := range v.listeners {
		fn(r)
	}
}

// Transform is scale(Scale)·translate(Pan) about the content center.
type Transform struct {
	Scale   float64 `json:"scale"`
	Pan     Offset  `json:"pan"`
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
}

// Identity leaves points where they are.
func Identity(content Size) Transform {
	return Transform{Scale: 1, OriginX: content.Width / 2, OriginY: content.Height / 2}
}

// Apply maps a content-space point to where it is drawn.
func (t Transform) Apply(p projection.PlanarPoint) projection.PlanarPoint {
	return projection.PlanarPoint{
		X: t.OriginX + t.Scale*(p.X-t.OriginX+t.Pan.DX),
		Y: t.OriginY + t.Scale*(p.Y-t.OriginY+t.Pan.DY),
	}
}

// Invert maps a drawn point back to content space.
func (t Transform) Invert(p projection.PlanarPoint) projection.PlanarPoint {
	s := t.Scale
	if s == 0 {
		s = 1
	}
	return projection.PlanarPoint{
		X: (p.X-t.OriginX)/s + t.OriginX - t.Pan.DX,
		Y: (p.Y-t.OriginY)/s + t.OriginY - t.Pan.DY,
	}
}

// CSS renders the transform for a style attribute. transform-origin must be "center center".
func (t Transform) CSS() string {
	return fmt.Sprintf("scale(%s) translate(%spx, %spx)", num(t.Scale), num(t.Pan.DX), num(t.Pan.DY))
}

func num(v float64) string {
	return fmt.Sprintf("%g", v)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
