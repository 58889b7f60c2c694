package timeline

import (
	"fmt"
	"math"
	"time"
)

// TickInterval is the spacing of the date ruler.
const TickInterval = 14 * 24 * time.Hour

// Tick is a labelled mark on the date ruler.
type Tick struct {
	Date string  `json:"date"`
	X    float64 `json:"x"`
}

// Ticks returns one tick every TickInterval from the earliest to the latest date of
// the scale, keeping only those inside the horizontal content bounds.
func Ticks(scale DateScale, b Bounds) []Tick {
	if scale.Empty() {
		return nil
	}
	var ticks []Tick
	for t := scale.Min; !t.After(scale.Max); t = t.Add(TickInterval) {
		x := scale.XTime(t)
		if b.ContainsX(x) {
			ticks = append(ticks, Tick{Date: t.Format(DateLayout), X: x})
		}
	}
	return ticks
}

// Marker is an event placed on the canvas.
type Marker struct {
	TrackID       string    `json:"trackId"`
	TrackName     string    `json:"trackName"`
	IsCurrentUser bool      `json:"isCurrentUser"`
	Event         Event     `json:"event"`
	Style         KindStyle `json:"style"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	Shared        bool      `json:"shared"`
}

// Place positions every event of tracks on its lane. Events whose date can't be
// mapped are left out.
func Place(tracks []Track, scale DateScale, cfg LaneConfig) []Marker {
	shared := DetectSharedEvents(tracks)
	var markers []Marker
	for i, t := range tracks {
		y := cfg.Y(i)
		for _, e := range t.Events {
			x := scale.X(e.Date)
			if !finite(x) {
				continue
			}
			markers = append(markers, Marker{
				TrackID:       t.ID,
				TrackName:     t.Name,
				IsCurrentUser: t.IsCurrentUser,
				Event:         e,
				Style:         e.Kind.Style(),
				X:             x,
				Y:             y,
				Shared:        shared[e.ID],
			})
		}
	}
	return markers
}

// Edge connects an event to its parent on the same lane.
type Edge struct {
	TrackID       string `json:"trackId"`
	FromID        string `json:"from"`
	ToID          string `json:"to"`
	Start         Point  `json:"start"`
	End           Point  `json:"end"`
	Dashed        bool   `json:"dashed"`
	IsCurrentUser bool   `json:"isCurrentUser"`
	Path          string `json:"path"`
}

// Edges links each placed event to its placed parent. The path is a quadratic curve
// that bows upwards by a tenth of the horizontal distance. Edges into suggested
// events are dashed.
func Edges(markers []Marker) []Edge {
	type key struct{ track, event string }
	index := make(map[key]Marker, len(markers))
	for _, m := range markers {
		index[key{m.TrackID, m.Event.ID}] = m
	}

	var edges []Edge
	for _, child := range markers {
		if child.Event.Parent == "" {
			continue
		}
		parent, ok := index[key{child.TrackID, child.Event.Parent}]
		if !ok {
			continue
		}
		start := Point{X: parent.X, Y: parent.Y}
		end := Point{X: child.X, Y: child.Y}
		edges = append(edges, Edge{
			TrackID:       child.TrackID,
			FromID:        parent.Event.ID,
			ToID:          child.Event.ID,
			Start:         start,
			End:           end,
			Dashed:        child.Event.Kind == KindSuggested,
			IsCurrentUser: child.IsCurrentUser,
			Path:          curvePath(start, end),
		})
	}
	return edges
}

func curvePath(a, b Point) string {
	mid := Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	bow := math.Abs(b.X-a.X) * 0.1
	return fmt.Sprintf("M %g %g Q %g %g %g %g", a.X, a.Y, mid.X, mid.Y-bow, b.X, b.Y)
}
