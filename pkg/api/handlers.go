package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dixieflatline76/courtside/config"
	"github.com/dixieflatline76/courtside/pkg/profile"
	"github.com/dixieflatline76/courtside/util/log"
)

const (
	msgProfile        = "profile"
	msgProfileUpdated = "profile_updated"
)

// message is what the server pushes over the WebSocket.
type message struct {
	Type    string           `json:"type"`
	Profile *profile.Profile `json:"profile,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version := config.AppVersion
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "running",
		"version": version,
		"clients": s.Clients(),
	})
}

// handleWebSocket upgrades the connection to WebSocket and sends the current profile.
// Later profile changes arrive as profile_updated messages.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	p := s.store.Get()
	s.clientsMu.Lock()
	s.clients[conn] = true
	err = conn.WriteJSON(message{Type: msgProfile, Profile: &p})
	s.clientsMu.Unlock()
	if err != nil {
		log.Printf("WebSocket greeting failed: %v", err)
	}
	s.connected.Increment()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		s.connected.Decrement()
	}()

	for {
		// Clients only send keepalives.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// handleProfile returns the profile on GET and applies a partial update on PUT or PATCH.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.Get())
	case http.MethodPut, http.MethodPatch:
		var patch profile.Patch
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validatePatch(patch); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.store.Update(patch))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func validatePatch(pt profile.Patch) error {
	if pt.Name != nil && *pt.Name == "" {
		return errors.New("name must not be empty")
	}
	if pt.Birthday != nil && *pt.Birthday != "" {
		if _, ok := profile.AgeOn(*pt.Birthday, profile.Today()); !ok {
			return errors.New("birthday must be a YYYY-MM-DD date")
		}
	}
	for _, tr := range []*profile.Trend{pt.UTRTrend, pt.USTATrend, pt.NSLTrend} {
		if tr != nil && !tr.Valid() {
			return errors.New("trend must be positive or negative")
		}
	}
	return nil
}
