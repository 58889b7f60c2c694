package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults for players added by hand.
const (
	DefaultUTR         = 5.0
	DefaultPlayerColor = "#0ea5e9"
	CurrentUserColor   = "#8b5cf6"
)

// NewPlayer describes a player added from the comparison form.
type NewPlayer struct {
	Name  string  `json:"name" yaml:"name"`
	UTR   float64 `json:"utr" yaml:"utr"`
	Color string  `json:"color" yaml:"color"`
}

// NewPlayerTrack creates a track for a compared player, seeded with a match today and
// a coaching session a week later. existing is the number of tracks already shown and
// numbers the default name.
func NewPlayerTrack(p NewPlayer, existing int, today time.Time) Track {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = fmt.Sprintf("Player %d", existing+1)
	}
	utr := p.UTR
	if utr == 0 {
		utr = DefaultUTR
	}
	color := p.Color
	if color == "" {
		color = DefaultPlayerColor
	}

	day := today.UTC()
	return Track{
		ID:    newID(),
		Name:  name,
		UTR:   utr,
		Color: color,
		Events: []Event{
			{
				ID:    newID(),
				Kind:  KindMatch,
				Label: "Local ladder match",
				Date:  day.Format(DateLayout),
				Meta:  map[string]string{"score": "6-4 6-4", "location": "Fort Collins"},
			},
			{
				ID:    newID(),
				Kind:  KindCoaching,
				Label: "Suggested coaching: Topspin",
				Date:  day.AddDate(0, 0, 7).Format(DateLayout),
				Meta:  map[string]string{"coach": "Coach Mia"},
			},
		},
	}
}

func newID() string {
	return uuid.New().String()
}
