package crop

import (
	"image"
	"math"

	"github.com/google/uuid"

	"github.com/dixieflatline76/courtside/util/log"
)

// DragTarget identifies what a pointer drag moves.
type DragTarget int

const (
	// DragBox moves the crop window over the image.
	DragBox DragTarget = iota
	// DragImage translates the image underneath the crop window.
	DragImage
)

func (d DragTarget) String() string {
	if d == DragImage {
		return "image"
	}
	return "box"
}

// Source is a decoded image together with the encoded form it was loaded from.
// The encoded form is what Apply hands back when cropping fails.
type Source struct {
	Image   image.Image
	DataURI string
	MIME    string
}

// NaturalSize returns the true pixel dimensions of the source image.
func (s Source) NaturalSize() Size {
	if s.Image == nil {
		return Size{}
	}
	b := s.Image.Bounds()
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Session is the transient state of one crop interaction.
// A Session is owned by a single caller and is not safe for concurrent use.
type Session struct {
	ID     string
	Source Source
	Type   Type
	Aspect float64
	Tuning Tuning

	// Canvas rasterizes the output. A nil Canvas makes Apply fall back to the source.
	Canvas Rasterizer

	Viewport Size
	Box      Rect
	Offset   Point
	Scale    float64
	Rotation int

	dragging  bool
	target    DragTarget
	dragStart Point
	closed    bool
}

// NewSession creates a session for src. Call Initialize once the viewport is measured.
func NewSession(src Source, typ Type, aspect float64) *Session {
	if typ == Avatar && !(aspect > 0) {
		aspect = 1
	}
	return &Session{
		ID:     uuid.New().String(),
		Source: src,
		Type:   typ,
		Aspect: aspect,
		Tuning: DefaultTuning(),
		Canvas: NewDrawRasterizer(),
		Scale:  1,
	}
}

// Initialize computes a centered crop box with the session's aspect ratio that fits
// within InitialFraction of the viewport. An unmeasured viewport leaves a zero box and
// returns false; the caller retries after layout.
func (s *Session) Initialize(viewport Size) bool {
	if s.closed {
		return false
	}
	s.Viewport = viewport
	s.Offset = Point{}
	if viewport.Empty() || !(s.Aspect > 0) {
		s.Box = Rect{}
		return false
	}

	frac := s.Tuning.InitialFraction
	var w, h float64
	if s.Aspect > 1 {
		w = math.Min(viewport.Width*frac, viewport.Width)
		h = w / s.Aspect
	} else {
		h = math.Min(viewport.Height*frac, viewport.Height)
		w = h * s.Aspect
	}
	// Shrink when the derived side overflows its share of the viewport.
	if h > viewport.Height*frac {
		h = viewport.Height * frac
		w = h * s.Aspect
	}
	if w > viewport.Width*frac {
		w = viewport.Width * frac
		h = w / s.Aspect
	}

	s.Box = Rect{
		X:      math.Max(0, (viewport.Width-w)/2),
		Y:      math.Max(0, (viewport.Height-h)/2),
		Width:  w,
		Height: h,
	}
	log.Debugf("crop %s: initialized box %.1fx%.1f at (%.1f,%.1f) in %.0fx%.0f",
		s.ID, w, h, s.Box.X, s.Box.Y, viewport.Width, viewport.Height)
	return true
}

// BeginDrag records the drag origin as the delta between the pointer and the
// current position of the dragged element.
func (s *Session) BeginDrag(p Point, target DragTarget) {
	if s.closed {
		return
	}
	s.dragging = true
	s.target = target
	switch target {
	case DragImage:
		s.dragStart = Point{X: p.X - s.Offset.X, Y: p.Y - s.Offset.Y}
	default:
		s.dragStart = Point{X: p.X - s.Box.X, Y: p.Y - s.Box.Y}
	}
}

// UpdateDrag moves the dragged element to follow the pointer.
// Box drags stay inside the viewport; image drags stay within ±MaxOffset on each axis.
func (s *Session) UpdateDrag(p Point) {
	if !s.dragging || s.closed {
		return
	}
	nx := p.X - s.dragStart.X
	ny := p.Y - s.dragStart.Y

	switch s.target {
	case DragImage:
		m := s.Tuning.MaxOffset
		s.Offset = Point{X: clamp(nx, -m, m), Y: clamp(ny, -m, m)}
	default:
		maxX := math.Max(0, s.Viewport.Width-s.Box.Width)
		maxY := math.Max(0, s.Viewport.Height-s.Box.Height)
		s.Box.X = clamp(nx, 0, maxX)
		s.Box.Y = clamp(ny, 0, maxY)
	}
}

// EndDrag clears drag state. It is a no-op when nothing is being dragged.
func (s *Session) EndDrag() {
	s.dragging = false
}

// Dragging reports whether a drag is in progress and what it moves.
func (s *Session) Dragging() (bool, DragTarget) {
	return s.dragging, s.target
}

// ZoomIn multiplies the scale by ZoomStep, up to MaxScale.
func (s *Session) ZoomIn() {
	if s.closed {
		return
	}
	s.Scale = math.Min(s.Scale*s.Tuning.ZoomStep, s.Tuning.MaxScale)
}

// ZoomOut divides the scale by ZoomStep, down to MinScale.
func (s *Session) ZoomOut() {
	if s.closed {
		return
	}
	s.Scale = math.Max(s.Scale/s.Tuning.ZoomStep, s.Tuning.MinScale)
}

// Rotate advances the rotation by 90 degrees.
func (s *Session) Rotate() {
	if s.closed {
		return
	}
	s.Rotation = (s.Rotation + 90) % 360
}

// ResetTransform restores offset, scale and rotation. The crop box is untouched.
func (s *Session) ResetTransform() {
	if s.closed {
		return
	}
	s.Offset = Point{}
	s.Scale = 1
	s.Rotation = 0
}

// Cancel discards the session. No output is produced afterwards.
func (s *Session) Cancel() {
	s.dragging = false
	s.closed = true
	log.Debugf("crop %s: cancelled", s.ID)
}

// Closed reports whether the session was cancelled or already applied.
func (s *Session) Closed() bool {
	return s.closed
}

// CenterBoxOn moves the crop box so its center sits on p (viewport coordinates),
// clamped to the viewport. The box size is kept.
func (s *Session) CenterBoxOn(p Point) {
	if s.closed || !finite(p.X, p.Y) {
		return
	}
	maxX := math.Max(0, s.Viewport.Width-s.Box.Width)
	maxY := math.Max(0, s.Viewport.Height-s.Box.Height)
	s.Box.X = clamp(p.X-s.Box.Width/2, 0, maxX)
	s.Box.Y = clamp(p.Y-s.Box.Height/2, 0, maxY)
}

// ApplySuggestion centers the crop box on a region given in natural image pixels,
// using the same natural-to-viewport ratio Apply uses.
func (s *Session) ApplySuggestion(r image.Rectangle) {
	natural := s.Source.NaturalSize()
	if natural.Empty() || s.Viewport.Empty() || r.Empty() {
		return
	}
	r = r.Sub(s.Source.Image.Bounds().Min)
	scaleX := natural.Width / s.Viewport.Width
	scaleY := natural.Height / s.Viewport.Height
	cx := (float64(r.Min.X+r.Max.X) / 2) / scaleX
	cy := (float64(r.Min.Y+r.Max.Y) / 2) / scaleY
	s.CenterBoxOn(Point{X: cx + s.Offset.X, Y: cy + s.Offset.Y})
}
