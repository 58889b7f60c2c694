package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dixieflatline76/courtside/config"
	"github.com/dixieflatline76/courtside/pkg/crop"
	"github.com/dixieflatline76/courtside/pkg/geo"
	"github.com/dixieflatline76/courtside/pkg/profile"
	"github.com/dixieflatline76/courtside/util"
	"github.com/dixieflatline76/courtside/util/log"
)

// Options wires the server to its collaborators. Only Store is required; a nil
// Geocoder disables the /geo endpoints and a nil Suggester ignores suggest requests.
type Options struct {
	Addr           string
	Store          *profile.Store
	Geocoder       *geo.Client
	Suggester      *crop.Suggester
	MaxUploadBytes int64
}

// Server represents the local REST/WebSocket server of the dashboard.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	upgrader   websocket.Upgrader
	addr       string

	// WebSocket management
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	connected *util.SafeCounter
	running   *util.SafeFlag

	store       *profile.Store
	geocoder    *geo.Client
	suggester   *crop.Suggester
	maxUpload   int64
	unsubscribe func()
}

// NewServer creates a new API server.
func NewServer(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = config.DefaultAPIAddr
	}
	if opts.Store == nil {
		opts.Store = profile.NewStore(nil)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.MaxUploadBytes
	}

	s := &Server{
		mux:  http.NewServeMux(),
		addr: opts.Addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		connected: util.NewSafeInt(),
		running:   util.NewSafeBool(),
		store:     opts.Store,
		geocoder:  opts.Geocoder,
		suggester: opts.Suggester,
		maxUpload: opts.MaxUploadBytes,
	}
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.unsubscribe = s.store.Subscribe(func(p profile.Profile) {
		s.broadcast(message{Type: msgProfileUpdated, Profile: &p})
	})
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.enableCORS(s.handleHealth))
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/profile", s.enableCORS(s.handleProfile))
	s.mux.HandleFunc("/profile/", s.enableCORS(s.handleProfileImage))
	s.mux.HandleFunc("/crop/preview", s.enableCORS(s.handleCropPreview))
	s.mux.HandleFunc("/timeline/layout", s.enableCORS(s.handleTimelineLayout))
	s.mux.HandleFunc("/timeline/player", s.enableCORS(s.handleNewPlayer))
	s.mux.HandleFunc("/geo/reverse", s.enableCORS(s.handleGeoReverse))
	s.mux.HandleFunc("/geo/search", s.enableCORS(s.handleGeoSearch))
}

// enableCORS adds CORS headers to the handler.
func (s *Server) enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The dashboard is served from another origin during development.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Addr returns the address Start listens on.
func (s *Server) Addr() string {
	return s.addr
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	return s.connected.Value()
}

// Start starts the server. It blocks until the server stops.
// After Stop it returns http.ErrServerClosed without listening.
func (s *Server) Start() error {
	s.running.Set(true)
	defer s.running.Set(false)
	log.Printf("API listening on http://%s", s.addr)
	return s.httpServer.ListenAndServe()
}

// Running reports whether Start is serving.
func (s *Server) Running() bool {
	return s.running.Value()
}

// Stop stops the server, closes WebSocket clients and stops listening for profile changes.
func (s *Server) Stop(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
	s.clientsMu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// broadcast sends msg to all connected clients, dropping the ones that fail.
func (s *Server) broadcast(msg message) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(msg); err != nil {
			log.Printf("Failed to broadcast to client: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}
