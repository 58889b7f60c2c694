package timeline

import "math"

// LaneConfig sets the vertical rhythm of the lanes.
type LaneConfig struct {
	BaseY       float64 `json:"baseY" yaml:"base_y"`
	LaneHeight  float64 `json:"laneHeight" yaml:"lane_height"`
	LaneSpacing float64 `json:"laneSpacing" yaml:"lane_spacing"`
}

// DefaultLanes returns the standard lane geometry.
func DefaultLanes() LaneConfig {
	return LaneConfig{BaseY: 200, LaneHeight: 200, LaneSpacing: 50}
}

// Pitch is the distance between two consecutive lanes.
func (c LaneConfig) Pitch() float64 {
	return c.LaneHeight + c.LaneSpacing
}

// Y returns the vertical position of the lane at index i.
func (c LaneConfig) Y(i int) float64 {
	return c.BaseY + float64(i)*c.Pitch()
}

// Lane is the placement of one track.
type Lane struct {
	TrackID       string  `json:"trackId"`
	Name          string  `json:"name"`
	Index         int     `json:"index"`
	Y             float64 `json:"y"`
	IsCurrentUser bool    `json:"isCurrentUser"`
}

// LayoutTracks gives every track a lane in the order given. Positions follow the
// order of the slice, so hiding a track moves the ones after it.
func LayoutTracks(tracks []Track, cfg LaneConfig) []Lane {
	lanes := make([]Lane, len(tracks))
	for i, t := range tracks {
		lanes[i] = Lane{
			TrackID:       t.ID,
			Name:          t.Name,
			Index:         i,
			Y:             cfg.Y(i),
			IsCurrentUser: t.IsCurrentUser,
		}
	}
	return lanes
}

// Bounds is the region of the canvas that holds content.
type Bounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// ContainsX reports whether x lies within the horizontal range.
func (b Bounds) ContainsX(x float64) bool {
	return x >= b.MinX && x <= b.MaxX
}

// Horizontal and vertical content margins.
const (
	popoverReach  = 400
	contentMargin = 50
	headroom      = 200
	footroom      = 300
	minCanvasW    = 1600
	canvasFooter  = 100
	growRight     = 100
	growBottom    = 200
)

// CanvasSize returns the nominal canvas for n lanes in a viewport.
func CanvasSize(viewport Size, n int, cfg LaneConfig) Size {
	return Size{
		Width:  math.Max(viewport.Width, minCanvasW),
		Height: math.Max(viewport.Height, cfg.BaseY+float64(n)*cfg.Pitch()+canvasFooter),
	}
}

// AdjustCanvas grows the nominal canvas so the content bounds fit with room to spare.
func AdjustCanvas(canvas Size, b Bounds) Size {
	return Size{
		Width:  math.Max(canvas.Width, b.MaxX+growRight),
		Height: math.Max(canvas.Height, b.MaxY+growBottom),
	}
}

// ComputeContentBounds returns the area covered by the tracks' events and their
// popovers, clamped to the canvas. Without tracks it is the whole canvas.
// Events with unparseable dates are ignored.
func ComputeContentBounds(tracks []Track, scale DateScale, cfg LaneConfig, canvas Size) Bounds {
	if len(tracks) == 0 {
		return Bounds{MaxX: canvas.Width, MaxY: canvas.Height}
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, t := range tracks {
		for _, e := range t.Events {
			x := scale.X(e.Date)
			if !finite(x) {
				continue
			}
			minX = math.Min(minX, x-popoverReach)
			maxX = math.Max(maxX, x+popoverReach)
		}
	}

	b := Bounds{
		MinY: math.Max(0, cfg.BaseY-headroom),
		MaxY: math.Min(canvas.Height, cfg.BaseY+float64(len(tracks))*cfg.Pitch()+footroom),
	}
	if math.IsInf(minX, 1) {
		b.MaxX = canvas.Width
		return b
	}
	b.MinX = math.Max(0, minX-contentMargin)
	b.MaxX = math.Min(canvas.Width, maxX+contentMargin)
	return b
}
