package timeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Ruler and marker geometry.
const (
	rulerY       = 60
	tickHalf     = 8
	tickLabelY   = 40
	markerRadius = 11
	sharedRadius = 16
	laneColor    = "#94a3b8"
	edgeSuggest  = "#f59e0b"
	connectColor = "#f59e0b"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// RenderSVG draws the map of tracks as a standalone SVG document: the date ruler,
// one lane per visible track, parent edges, cross-track connectors and the markers.
func RenderSVG(w io.Writer, tracks []Track, opts Options) error {
	m := Build(tracks, opts)
	return WriteSVG(w, m, tracks)
}

// WriteSVG writes an already built map. tracks supplies names, ratings and colors.
func WriteSVG(w io.Writer, m Map, tracks []Track) error {
	byID := make(map[string]Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p(`<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	p(`<svg width="%g" height="%g" xmlns="http://www.w3.org/2000/svg" font-family="Arial, sans-serif">`+"\n",
		m.Canvas.Width, m.Canvas.Height)
	p(`<rect width="100%%" height="100%%" fill="#f8fafc"/>` + "\n")

	// Ruler
	p(`<line x1="0" y1="%d" x2="%g" y2="%d" stroke="#e2e8f0" stroke-width="1"/>`+"\n", rulerY, m.Canvas.Width, rulerY)
	for _, t := range m.Ticks {
		p(`<line x1="%g" y1="%d" x2="%g" y2="%d" stroke="#cbd5e1"/>`+"\n", t.X, rulerY-tickHalf, t.X, rulerY+tickHalf)
		p(`<text x="%g" y="%d" font-size="10" text-anchor="middle" fill="#64748b">%s</text>`+"\n", t.X, tickLabelY, t.Date)
	}

	// Lanes
	for _, l := range m.Lanes {
		stroke, width, dash := laneColor, 2, "5 5"
		if l.IsCurrentUser {
			stroke, width, dash = CurrentUserColor, 3, "0"
		}
		p(`<line x1="0" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="%d" stroke-dasharray="%s"/>`+"\n",
			l.Y, m.Canvas.Width, l.Y, stroke, width, dash)

		t := byID[l.TrackID]
		label := fmt.Sprintf("%s · UTR %g", t.Name, t.UTR)
		if l.IsCurrentUser {
			label += " (You)"
		}
		p(`<circle cx="14" cy="%g" r="5" fill="%s"/>`+"\n", l.Y-38, escape(t.Color))
		p(`<text x="24" y="%g" font-size="12" fill="#0f172a">%s</text>`+"\n", l.Y-34, escape(label))
	}

	// Parent edges
	for _, e := range m.Edges {
		stroke, width, dash := laneColor, 2, "0"
		if e.Dashed {
			stroke, dash = edgeSuggest, "6 6"
		}
		if e.IsCurrentUser {
			stroke, width = CurrentUserColor, 3
		}
		p(`<path d="%s" fill="none" stroke="%s" stroke-width="%d" stroke-dasharray="%s"/>`+"\n", e.Path, stroke, width, dash)
	}

	// Cross-track connectors
	pos := make(map[EventRef]Marker, len(m.Markers))
	for _, mk := range m.Markers {
		pos[EventRef{TrackID: mk.TrackID, EventID: mk.Event.ID}] = mk
	}
	for _, c := range m.Connections {
		for i := 1; i < len(c.Events); i++ {
			a, okA := pos[c.Events[i-1]]
			b, okB := pos[c.Events[i]]
			if !okA || !okB || a.TrackID == b.TrackID {
				continue
			}
			p(`<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="1.5" stroke-dasharray="3 4"/>`+"\n",
				a.X, a.Y, b.X, b.Y, connectColor)
		}
	}

	// Markers
	for _, mk := range m.Markers {
		stroke, width := laneColor, 2
		if mk.IsCurrentUser {
			stroke, width = CurrentUserColor, 3
		}
		p(`<g transform="translate(%g, %g)">`, mk.X, mk.Y)
		p(`<title>%s (%s, %s)</title>`, escape(mk.Event.Label), escape(string(mk.Event.Kind)), escape(mk.Event.Date))
		if mk.Shared {
			p(`<circle r="%d" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="2 2"/>`, sharedRadius, mk.Style.Ring)
		}
		p(`<circle r="%d" fill="white" stroke="%s" stroke-width="%d"/>`, markerRadius, stroke, width)
		p(`<circle r="%d" fill="%s"/>`, markerRadius-3, mk.Style.Fill)
		p(`<text y="4" font-size="10" text-anchor="middle">%s</text>`, mk.Style.Icon)
		p("</g>\n")
	}

	p("</svg>\n")
	return bw.Flush()
}

func escape(s string) string {
	return xmlEscaper.Replace(s)
}
