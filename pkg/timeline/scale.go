package timeline

import (
	"math"
	"time"
)

const (
	// DefaultPadding is the space kept left and right of the plotted dates.
	DefaultPadding = 200
	// MinInnerWidth is the smallest plotting width regardless of the viewport.
	MinInnerWidth = 600
)

// DateScale maps calendar dates linearly to horizontal canvas positions.
type DateScale struct {
	Min         time.Time `json:"min"`
	Max         time.Time `json:"max"`
	PaddingLeft float64   `json:"paddingLeft"`
	Inner       float64   `json:"inner"`
	empty       bool
}

// BuildDateScale spans the earliest to the latest event date of tracks.
// Without any dated event the scale maps everything to 0.
// Unparseable dates are left out of the span and map to NaN.
func BuildDateScale(tracks []Track, viewportWidth, paddingLeft, paddingRight float64) DateScale {
	var lo, hi time.Time
	found := false
	for _, tr := range tracks {
		for _, e := range tr.Events {
			t, ok := e.Time()
			if !ok {
				continue
			}
			if !found || t.Before(lo) {
				lo = t
			}
			if !found || t.After(hi) {
				hi = t
			}
			found = true
		}
	}
	if !found {
		return DateScale{empty: true}
	}
	return DateScale{
		Min:         lo,
		Max:         hi,
		PaddingLeft: paddingLeft,
		Inner:       math.Max(MinInnerWidth, viewportWidth-paddingLeft-paddingRight),
	}
}

// Empty reports whether the scale was built without events.
func (s DateScale) Empty() bool {
	return s.empty
}

// span is the date range in milliseconds, at least 1.
func (s DateScale) span() float64 {
	return math.Max(1, float64(s.Max.UnixMilli()-s.Min.UnixMilli()))
}

// X maps a YYYY-MM-DD date to a canvas position.
func (s DateScale) X(date string) float64 {
	if s.empty {
		return 0
	}
	t, ok := ParseDate(date)
	if !ok {
		return math.NaN()
	}
	return s.XTime(t)
}

// XTime maps an instant to a canvas position.
func (s DateScale) XTime(t time.Time) float64 {
	if s.empty {
		return 0
	}
	ratio := float64(t.UnixMilli()-s.Min.UnixMilli()) / s.span()
	return s.PaddingLeft + ratio*s.Inner
}
