package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dixieflatline76/courtside/pkg/timeline"
	"github.com/dixieflatline76/courtside/util/log"
)

// handleTimelineLayout lays out posted tracks. The body is a track file in JSON.
// With ?format=svg the map is returned as an SVG document instead of JSON.
func (s *Server) handleTimelineLayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	f, err := timeline.LoadTracks(r.Body, timeline.FormatJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := timeline.DefaultOptions()
	if f.Options != nil {
		opts = *f.Options
	}
	if v := r.URL.Query().Get("width"); v != "" {
		if width, err := strconv.ParseFloat(v, 64); err == nil && width > 0 {
			opts.Viewport.Width = width
		}
	}

	m := timeline.Build(f.Tracks, opts)
	if r.URL.Query().Get("format") == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
		if err := timeline.WriteSVG(w, m, f.Tracks); err != nil {
			log.Printf("Failed to write timeline SVG: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleNewPlayer creates a comparison track from the add player form.
// ?existing=N is the number of tracks already shown.
func (s *Server) handleNewPlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var p timeline.NewPlayer
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	existing, _ := strconv.Atoi(r.URL.Query().Get("existing"))
	writeJSON(w, http.StatusCreated, timeline.NewPlayerTrack(p, existing, time.Now()))
}
