package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bryanchriswhite/FocusSwitch/internal/feed"
	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
	"github.com/bryanchriswhite/FocusSwitch/internal/switcher"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

const writeWait = 5 * time.Second

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	switcher *switcher.Switcher
	hub      *feed.Hub
	upgrader websocket.Upgrader
	http     *http.Server
	log      *zerolog.Logger
}

// NewServer creates a new API server. hub must be registered as the
// switcher's observer for /api/events to stream anything.
func NewServer(sw *switcher.Switcher, hub *feed.Hub) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		switcher: sw,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: logger.WithComponent("api"),
	}

	s.setupRoutes()
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupRoutes configures the API routes. They hang off the root router
// rather than a /api subrouter so a method mismatch is answered with 405.
func (s *Server) setupRoutes() {
	r := s.router

	// Window list and selection
	r.HandleFunc("/api/windows", s.handleGetWindows).Methods("GET")
	r.HandleFunc("/api/index", s.handleGetIndex).Methods("GET")
	r.HandleFunc("/api/index", s.handleSetIndex).Methods("PUT")
	r.HandleFunc("/api/next", s.handleNext).Methods("POST")
	r.HandleFunc("/api/previous", s.handlePrevious).Methods("POST")
	r.HandleFunc("/api/selected", s.handleGetSelected).Methods("GET")
	r.HandleFunc("/api/select", s.handleSelectMatching).Methods("POST")

	r.HandleFunc("/api/events", s.handleEvents)

	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped in the CORS middleware
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until Shutdown is called. It returns nil at once if
// Shutdown already ran.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}

	s.log.Info().Str("addr", ln.Addr().String()).Msg("Starting HTTP server")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests up to ctx.
// Safe to call before or concurrently with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HTTP Handlers

type indexBody struct {
	Index uint `json:"index"`
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.switcher.Windows())
}

func (s *Server) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, indexBody{Index: s.switcher.Index()})
}

func (s *Server) handleSetIndex(w http.ResponseWriter, r *http.Request) {
	var req indexBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.switcher.SetIndex(req.Index)
	s.writeJSON(w, http.StatusOK, indexBody{Index: s.switcher.Index()})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.switcher.Next()
	s.writeJSON(w, http.StatusOK, indexBody{Index: s.switcher.Index()})
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.switcher.Previous()
	s.writeJSON(w, http.StatusOK, indexBody{Index: s.switcher.Index()})
}

func (s *Server) handleGetSelected(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.switcher.Selected()
	if !ok {
		http.Error(w, "No windows", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, selected)
}

func (s *Server) handleSelectMatching(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	selected, ok := s.switcher.SelectMatching(req.Query)
	if !ok {
		http.Error(w, "No matching window", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, selected)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.With().Str("conn", uuid.NewString()).Logger()
	log.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client connected")

	snapshot, updates := s.hub.SubscribeWithSnapshot()
	defer s.hub.Unsubscribe(updates)

	// The client never sends anything; reading only surfaces the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeEvent(conn, snapshot); err != nil {
		log.Debug().Err(err).Msg("WebSocket write failed")
		return
	}

	for {
		select {
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-closed:
			log.Debug().Msg("WebSocket client disconnected")
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev feed.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"windows": s.switcher.Len(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode response")
	}
}
