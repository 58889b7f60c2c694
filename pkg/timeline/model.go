// Package timeline maps dated events of several players onto a shared canvas:
// a date axis, one horizontal lane per player, content bounds for the scrollable
// area, cross-lane overlaps and a pan/zoom viewport.
package timeline

import (
	"math"
	"time"
)

// DateLayout is the calendar date format used by events.
const DateLayout = "2006-01-02"

// Kind is the category of a timeline event.
type Kind string

const (
	KindMatch     Kind = "match"
	KindCoaching  Kind = "coaching"
	KindEvent     Kind = "event"
	KindSuggested Kind = "suggested"
)

// Status is the workflow state shown for a kind.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

// KindStyle is the visual token set for a kind.
type KindStyle struct {
	Icon   string `json:"icon"`
	Fill   string `json:"fill"`
	Ring   string `json:"ring"`
	Text   string `json:"text"`
	Status Status `json:"status"`
}

var kindStyles = map[Kind]KindStyle{
	KindMatch:     {Icon: "🏆", Fill: "#ecfdf5", Ring: "#6ee7b7", Text: "#064e3b", Status: StatusCompleted},
	KindCoaching:  {Icon: "📚", Fill: "#f0f9ff", Ring: "#7dd3fc", Text: "#0c4a6e", Status: StatusCompleted},
	KindEvent:     {Icon: "🎯", Fill: "#f5f3ff", Ring: "#c4b5fd", Text: "#4c1d95", Status: StatusCompleted},
	KindSuggested: {Icon: "⏳", Fill: "#fffbeb", Ring: "#fcd34d", Text: "#78350f", Status: StatusPending},
}

// Known reports whether k is one of the defined kinds.
func (k Kind) Known() bool {
	_, ok := kindStyles[k]
	return ok
}

// Style returns the style of k. Unknown kinds use the style of KindEvent.
func (k Kind) Style() KindStyle {
	if s, ok := kindStyles[k]; ok {
		return s
	}
	return kindStyles[KindEvent]
}

// Event is one dated item on a player's lane.
type Event struct {
	ID     string            `json:"id" yaml:"id"`
	Kind   Kind              `json:"kind" yaml:"kind"`
	Label  string            `json:"label" yaml:"label"`
	Date   string            `json:"date" yaml:"date"`
	Parent string            `json:"parent,omitempty" yaml:"parent,omitempty"`
	Meta   map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Location returns the event's location metadata, if any.
func (e Event) Location() string {
	return e.Meta["location"]
}

// Time parses the event date at midnight UTC.
func (e Event) Time() (time.Time, bool) {
	return ParseDate(e.Date)
}

// Track is one player's sequence of events.
type Track struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	UTR           float64 `json:"utr" yaml:"utr"`
	Color         string  `json:"color" yaml:"color"`
	IsCurrentUser bool    `json:"isCurrentUser" yaml:"current_user"`
	Hidden        bool    `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Events        []Event `json:"events" yaml:"events"`
}

// ParseDate parses a YYYY-MM-DD date at midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Visible returns the tracks that are shown. The current user's track can't be hidden.
func Visible(tracks []Track) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if !t.Hidden || t.IsCurrentUser {
			out = append(out, t)
		}
	}
	return out
}

// ScaleTracks returns the tracks the date scale is built from: the visible ones,
// or all of them when none is visible.
func ScaleTracks(tracks []Track) []Track {
	if v := Visible(tracks); len(v) > 0 {
		return v
	}
	return tracks
}

// Point is a canvas position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a canvas or viewport size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
