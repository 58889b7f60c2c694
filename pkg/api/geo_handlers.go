package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dixieflatline76/courtside/pkg/geo"
)

// handleGeoReverse names the place at ?lat=&lon=. It never fails on geocoder errors:
// the coordinates are returned as the name instead.
func (s *Server) handleGeoReverse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err := errors.Join(errLat, errLon); err != nil || !(lat >= -90 && lat <= 90) || !(lon >= -180 && lon <= 180) {
		writeError(w, http.StatusBadRequest, "lat and lon must be valid coordinates")
		return
	}

	name := geo.Coordinates(lat, lon)
	if s.geocoder != nil {
		name = s.geocoder.ReverseOrCoordinates(r.Context(), lat, lon)
	}
	writeJSON(w, http.StatusOK, map[string]string{"location": name})
}

// handleGeoSearch returns location suggestions for ?q=.
func (s *Server) handleGeoSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "Feature not available")
		return
	}
	places, err := s.geocoder.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if places == nil {
		places = []geo.Place{}
	}
	writeJSON(w, http.StatusOK, places)
}
