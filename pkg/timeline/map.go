package timeline

import "sort"

// Options configures Build.
type Options struct {
	Viewport     Size       `json:"viewport" yaml:"viewport"`
	PaddingLeft  float64    `json:"paddingLeft" yaml:"padding_left"`
	PaddingRight float64    `json:"paddingRight" yaml:"padding_right"`
	Lanes        LaneConfig `json:"lanes" yaml:"lanes"`
}

// DefaultOptions returns the standard layout for a 1400x720 viewport.
func DefaultOptions() Options {
	return Options{
		Viewport:     Size{Width: 1400, Height: 720},
		PaddingLeft:  DefaultPadding,
		PaddingRight: DefaultPadding,
		Lanes:        DefaultLanes(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if !(o.Viewport.Width > 0) {
		o.Viewport.Width = d.Viewport.Width
	}
	if !(o.Viewport.Height > 0) {
		o.Viewport.Height = d.Viewport.Height
	}
	if o.PaddingLeft == 0 {
		o.PaddingLeft = d.PaddingLeft
	}
	if o.PaddingRight == 0 {
		o.PaddingRight = d.PaddingRight
	}
	if o.Lanes == (LaneConfig{}) {
		o.Lanes = d.Lanes
	}
	return o
}

// Map is the full placement of a set of tracks, ready to draw.
type Map struct {
	Scale       DateScale    `json:"scale"`
	Canvas      Size         `json:"canvas"`
	Bounds      Bounds       `json:"bounds"`
	Lanes       []Lane       `json:"lanes"`
	Ticks       []Tick       `json:"ticks"`
	Markers     []Marker     `json:"markers"`
	Edges       []Edge       `json:"edges"`
	Shared      []string     `json:"shared"`
	Connections []Connection `json:"connections"`
}

// Build lays out the visible tracks. The date scale falls back to every track when
// none is visible, so an empty map still keeps its axis.
func Build(tracks []Track, opts Options) Map {
	opts = opts.withDefaults()
	active := Visible(tracks)

	scale := BuildDateScale(ScaleTracks(tracks), opts.Viewport.Width, opts.PaddingLeft, opts.PaddingRight)
	nominal := CanvasSize(opts.Viewport, len(active), opts.Lanes)
	bounds := ComputeContentBounds(active, scale, opts.Lanes, nominal)
	markers := Place(active, scale, opts.Lanes)

	shared := make([]string, 0)
	for id := range DetectSharedEvents(active) {
		shared = append(shared, id)
	}
	sort.Strings(shared)

	return Map{
		Scale:       scale,
		Canvas:      AdjustCanvas(nominal, bounds),
		Bounds:      bounds,
		Lanes:       LayoutTracks(active, opts.Lanes),
		Ticks:       Ticks(scale, bounds),
		Markers:     markers,
		Edges:       Edges(markers),
		Shared:      shared,
		Connections: DetectConnectedEvents(active),
	}
}
