package timeline

import (
	"fmt"
	"math"
)

// Zoom limits and wheel sensitivity.
const (
	MinZoom          = 0.5
	MaxZoom          = 2.5
	WheelSensitivity = 0.001
)

// Viewport is the pan offset and zoom factor applied to the canvas.
// The transform origin is the top-left corner of the canvas.
type Viewport struct {
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
	Zoom float64 `json:"zoom"`
}

// PanZoom turns wheel and pointer gestures into a Viewport.
// It is owned by a single caller and is not safe for concurrent use.
type PanZoom struct {
	view Viewport
	last *Point
}

// NewPanZoom returns an identity viewport.
func NewPanZoom() *PanZoom {
	return &PanZoom{view: Viewport{Zoom: 1}}
}

// Viewport returns the current transform.
func (p *PanZoom) Viewport() Viewport {
	return p.view
}

// Wheel zooms by exp(-deltaY * WheelSensitivity), clamped to [MinZoom, MaxZoom].
func (p *PanZoom) Wheel(deltaY float64) {
	if !finite(deltaY) {
		return
	}
	factor := math.Exp(-deltaY * WheelSensitivity)
	p.view.Zoom = math.Min(MaxZoom, math.Max(MinZoom, p.view.Zoom*factor))
}

// PointerDown starts a pan at the given screen position.
func (p *PanZoom) PointerDown(at Point) {
	p.last = &Point{X: at.X, Y: at.Y}
}

// PointerMove pans by the raw pointer delta. Pan is unbounded.
func (p *PanZoom) PointerMove(at Point) {
	if p.last == nil {
		return
	}
	p.view.PanX += at.X - p.last.X
	p.view.PanY += at.Y - p.last.Y
	p.last.X, p.last.Y = at.X, at.Y
}

// PointerUp ends the pan.
func (p *PanZoom) PointerUp() {
	p.last = nil
}

// Panning reports whether a pointer is held down.
func (p *PanZoom) Panning() bool {
	return p.last != nil
}

// ToCanvas converts a screen position to canvas coordinates.
func (v Viewport) ToCanvas(screen Point) Point {
	k := v.Zoom
	if !(k > 0) {
		k = 1
	}
	return Point{X: (screen.X - v.PanX) / k, Y: (screen.Y - v.PanY) / k}
}

// ToScreen converts a canvas position to screen coordinates.
func (v Viewport) ToScreen(canvas Point) Point {
	return Point{X: v.PanX + canvas.X*v.Zoom, Y: v.PanY + canvas.Y*v.Zoom}
}

// Transform renders the viewport as an SVG/CSS transform.
func (v Viewport) Transform() string {
	return fmt.Sprintf("translate(%g, %g) scale(%g)", v.PanX, v.PanY, v.Zoom)
}
