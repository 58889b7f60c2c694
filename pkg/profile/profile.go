// Package profile holds the signed-in player's profile and persists it.
package profile

import (
	"time"
)

// Trend is the direction of a rating.
type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNegative Trend = "negative"
)

// Valid reports whether t is one of the known trends.
func (t Trend) Valid() bool {
	return t == TrendPositive || t == TrendNegative
}

// Today returns the current local date at noon, so date arithmetic never crosses midnight.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)
}

// Profile is the player shown on the dashboard. Avatar and CoverImage hold either a
// URL or a data URI produced by the crop engine.
type Profile struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Avatar     string  `json:"avatar,omitempty"`
	CoverImage string  `json:"coverImage,omitempty"`
	Location   string  `json:"location"`
	Birthday   string  `json:"birthday"`
	Age        int     `json:"age"`
	UTR        float64 `json:"utr"`
	USTA       float64 `json:"usta"`
	NSL        float64 `json:"nsl"`
	UTRTrend   Trend   `json:"utrTrend"`
	USTATrend  Trend   `json:"ustaTrend"`
	NSLTrend   Trend   `json:"nslTrend"`
}

// Default returns the profile used before anything was saved.
func Default() Profile {
	return Profile{
		Name:       "Olivia Rhye",
		Email:      "olivia@untitledui.com",
		Avatar:     "https://images.unsplash.com/photo-1544005313-94ddf0286df2?q=80&w=256&auto=format&fit=crop",
		CoverImage: "https://images.unsplash.com/photo-1551698618-1dfe5d97d256?q=80&w=1200&auto=format&fit=crop",
		Location:   "Fort Collins, CO",
		Birthday:   "2007-03-15",
		Age:        17,
		UTR:        7.8,
		USTA:       1453,
		NSL:        212,
		UTRTrend:   TrendPositive,
		USTATrend:  TrendNegative,
		NSLTrend:   TrendPositive,
	}
}

// AgeOn returns the age in whole years on the given day. The second result is false
// when birthday is not a YYYY-MM-DD date.
func AgeOn(birthday string, today time.Time) (int, bool) {
	b, err := time.Parse("2006-01-02", birthday)
	if err != nil {
		return 0, false
	}
	age := today.Year() - b.Year()
	if today.Month() < b.Month() || (today.Month() == b.Month() && today.Day() < b.Day()) {
		age--
	}
	return age, true
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name       *string  `json:"name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Avatar     *string  `json:"avatar,omitempty"`
	CoverImage *string  `json:"coverImage,omitempty"`
	Location   *string  `json:"location,omitempty"`
	Birthday   *string  `json:"birthday,omitempty"`
	UTR        *float64 `json:"utr,omitempty"`
	USTA       *float64 `json:"usta,omitempty"`
	NSL        *float64 `json:"nsl,omitempty"`
	UTRTrend   *Trend   `json:"utrTrend,omitempty"`
	USTATrend  *Trend   `json:"ustaTrend,omitempty"`
	NSLTrend   *Trend   `json:"nslTrend,omitempty"`
}

// Apply merges the patch into p. A new birthday recomputes the age.
func (pt Patch) Apply(p *Profile, today time.Time) {
	setString(&p.Name, pt.Name)
	setString(&p.Email, pt.Email)
	setString(&p.Avatar, pt.Avatar)
	setString(&p.CoverImage, pt.CoverImage)
	setString(&p.Location, pt.Location)
	if pt.UTR != nil {
		p.UTR = *pt.UTR
	}
	if pt.USTA != nil {
		p.USTA = *pt.USTA
	}
	if pt.NSL != nil {
		p.NSL = *pt.NSL
	}
	if pt.UTRTrend != nil {
		p.UTRTrend = *pt.UTRTrend
	}
	if pt.USTATrend != nil {
		p.USTATrend = *pt.USTATrend
	}
	if pt.NSLTrend != nil {
		p.NSLTrend = *pt.NSLTrend
	}
	if pt.Birthday != nil && *pt.Birthday != "" {
		p.Birthday = *pt.Birthday
		if age, ok := AgeOn(p.Birthday, today); ok {
			p.Age = age
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
