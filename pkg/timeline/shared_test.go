package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withLocation(e Event, loc string) Event {
	e.Meta = map[string]string{"location": loc}
	return e
}

func TestDetectSharedEvents(t *testing.T) {
	tracks := []Track{
		track("a", ev("shared-1", KindEvent, "2025-06-15"), ev("a-only", KindMatch, "2025-06-16")),
		track("b", ev("shared-1", KindEvent, "2025-06-15"), ev("b-only", KindMatch, "2025-06-16")),
	}

	shared := DetectSharedEvents(tracks)

	assert.Equal(t, map[string]bool{"shared-1": true}, shared)
}

func TestDetectSharedEvents_SameTrackDoesNotCount(t *testing.T) {
	tracks := []Track{track("a", ev("dup", KindMatch, "2025-06-15"), ev("dup", KindMatch, "2025-06-16"))}
	assert.Empty(t, DetectSharedEvents(tracks))
}

func TestDetectConnectedEvents(t *testing.T) {
	tracks := []Track{
		track("a", withLocation(ev("a1", KindMatch, "2025-05-10"), "Fort Collins, CO")),
		track("b", withLocation(ev("b1", KindMatch, "2025-05-10"), "Fort Collins, CO")),
	}

	conns := DetectConnectedEvents(tracks)
	require.Len(t, conns, 1)
	assert.Equal(t, "Fort Collins, CO", conns[0].Location)
	assert.Equal(t, KindMatch, conns[0].Kind)
	assert.Equal(t, []EventRef{{TrackID: "a", EventID: "a1"}, {TrackID: "b", EventID: "b1"}}, conns[0].Events)

	// The id based detector disagrees.
	assert.Empty(t, DetectSharedEvents(tracks))
}

func TestDetectConnectedEvents_NoMatch(t *testing.T) {
	tests := []struct {
		name string
		b    Event
	}{
		{"different kind", withLocation(ev("b1", KindCoaching, "2025-05-10"), "Denver, CO")},
		{"different date", withLocation(ev("b1", KindMatch, "2025-05-11"), "Denver, CO")},
		{"different location", withLocation(ev("b1", KindMatch, "2025-05-10"), "Boulder, CO")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks := []Track{
				track("a", withLocation(ev("a1", KindMatch, "2025-05-10"), "Denver, CO")),
				track("b", tt.b),
			}
			assert.Empty(t, DetectConnectedEvents(tracks))
		})
	}
}

func TestDetectConnectedEvents_RequiresLocationAndTwoTracks(t *testing.T) {
	noLocation := []Track{
		track("a", ev("a1", KindMatch, "2025-05-10")),
		track("b", ev("b1", KindMatch, "2025-05-10")),
	}
	assert.Empty(t, DetectConnectedEvents(noLocation))

	sameTrack := []Track{track("a",
		withLocation(ev("a1", KindMatch, "2025-05-10"), "Denver, CO"),
		withLocation(ev("a2", KindMatch, "2025-05-10"), "Denver, CO"),
	)}
	assert.Empty(t, DetectConnectedEvents(sameTrack))
}
