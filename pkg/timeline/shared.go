package timeline

import "sort"

// DetectSharedEvents returns the ids of events that appear in more than one track.
// An id repeated inside a single track does not count.
func DetectSharedEvents(tracks []Track) map[string]bool {
	owners := make(map[string]map[int]struct{})
	for i, t := range tracks {
		for _, e := range t.Events {
			if owners[e.ID] == nil {
				owners[e.ID] = make(map[int]struct{})
			}
			owners[e.ID][i] = struct{}{}
		}
	}

	shared := make(map[string]bool)
	for id, set := range owners {
		if len(set) > 1 {
			shared[id] = true
		}
	}
	return shared
}

// EventRef points at one event of one track.
type EventRef struct {
	TrackID string `json:"trackId"`
	EventID string `json:"eventId"`
}

// Connection links events of different tracks that took place at the same location,
// on the same date and are of the same kind.
type Connection struct {
	Location string     `json:"location"`
	Date     string     `json:"date"`
	Kind     Kind       `json:"kind"`
	Events   []EventRef `json:"events"`
}

type connectionKey struct {
	location string
	date     string
	kind     Kind
}

// DetectConnectedEvents groups events by location, date and kind. Only groups that
// span at least two tracks are returned. Events without a location never connect.
// Event ids play no part, so this can disagree with DetectSharedEvents.
func DetectConnectedEvents(tracks []Track) []Connection {
	groups := make(map[connectionKey][]EventRef)
	trackSets := make(map[connectionKey]map[int]struct{})
	var order []connectionKey

	for i, t := range tracks {
		for _, e := range t.Events {
			loc := e.Location()
			if loc == "" {
				continue
			}
			k := connectionKey{location: loc, date: e.Date, kind: e.Kind}
			if _, ok := groups[k]; !ok {
				order = append(order, k)
				trackSets[k] = make(map[int]struct{})
			}
			groups[k] = append(groups[k], EventRef{TrackID: t.ID, EventID: e.ID})
			trackSets[k][i] = struct{}{}
		}
	}

	var out []Connection
	for _, k := range order {
		if len(trackSets[k]) < 2 {
			continue
		}
		out = append(out, Connection{Location: k.location, Date: k.date, Kind: k.kind, Events: groups[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
