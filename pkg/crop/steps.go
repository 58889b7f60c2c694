package crop

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Steps replays the interactive edits for callers that have no pointer, such as the
// command line and form posts. Every step goes through the same clamps as a drag.
type Steps struct {
	Zoom   int    // positive zooms in, negative zooms out, one ZoomStep each
	Rotate int    // quarter turns clockwise
	Offset *Point // image translation
	Box    *Point // top-left corner of the crop box
}

// Play applies st to the session in a fixed order: box, image offset, zoom, rotation.
func (s *Session) Play(st Steps) {
	if s.closed {
		return
	}
	if st.Box != nil {
		s.BeginDrag(Point{X: s.Box.X, Y: s.Box.Y}, DragBox)
		s.UpdateDrag(*st.Box)
		s.EndDrag()
	}
	if st.Offset != nil {
		s.BeginDrag(s.Offset, DragImage)
		s.UpdateDrag(*st.Offset)
		s.EndDrag()
	}
	zoom := s.zoomSteps(st.Zoom)
	for i := 0; i < zoom; i++ {
		s.ZoomIn()
	}
	for i := 0; i > zoom; i-- {
		s.ZoomOut()
	}
	for i := 0; i < ((st.Rotate%4)+4)%4; i++ {
		s.Rotate()
	}
}

// zoomSteps clamps n to the number of steps that can still change the scale.
func (s *Session) zoomSteps(n int) int {
	t := s.Tuning
	if t.ZoomStep <= 1 || t.MinScale <= 0 || t.MaxScale <= t.MinScale {
		return max(-1, min(n, 1))
	}
	limit := int(math.Ceil(math.Log(t.MaxScale/t.MinScale)/math.Log(t.ZoomStep))) + 1
	return max(-limit, min(n, limit))
}

// ParsePoint reads "x,y". An empty string yields nil.
func ParsePoint(v string) (*Point, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	xs, ys, ok := strings.Cut(v, ",")
	if !ok {
		return nil, fmt.Errorf("point %q must be x,y", v)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return nil, fmt.Errorf("point %q: %w", v, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return nil, fmt.Errorf("point %q: %w", v, err)
	}
	if !finite(x, y) {
		return nil, fmt.Errorf("point %q is not finite", v)
	}
	return &Point{X: x, Y: y}, nil
}
