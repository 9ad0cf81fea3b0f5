// Package simserver is the reference simulation backend: a SQLite body
// catalog, a softened Newtonian integrator and the HTTP API the viewer
// polls.
package simserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacehole-rogue/orbitview/internal/metrics"
	"github.com/spacehole-rogue/orbitview/internal/monitoring"
	"github.com/spacehole-rogue/orbitview/internal/timeutil"
)

// DefaultStreamInterval is the push period of snapshot streams.
const DefaultStreamInterval = time.Second / 30

const maxBodyBytes = 64 << 10

// ServerConfig sets up a Server.
type ServerConfig struct {
	StreamInterval time.Duration
	Clock          timeutil.Clock
	Registry       *prometheus.Registry // serves /metrics when non-nil
}

// Server exposes a Simulation over HTTP.
type Server struct {
	sim      *Simulation
	cfg      ServerConfig
	metrics  *metrics.Server
	upgrader websocket.Upgrader
}

// NewServer creates a server for sim.
func NewServer(sim *Simulation, cfg ServerConfig) *Server {
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = DefaultStreamInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	s := &Server{
		sim: sim,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if cfg.Registry != nil {
		s.metrics = metrics.NewServer(cfg.Registry)
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/simulation", s.handleStep)
	mux.HandleFunc("POST /api/simulation/start", s.handleStart)
	mux.HandleFunc("POST /api/simulation/reset", s.handleReset)
	mux.HandleFunc("GET /api/simulation/stream", s.handleStream)
	mux.HandleFunc("GET /api/bodies", s.handleBodies)
	mux.HandleFunc("OPTIONS /api/", s.handlePreflight)
	if s.cfg.Registry != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.cfg.Registry))
	}
	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Viewer-Session")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	timeScale, vq, err := ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, "step", http.StatusBadRequest, err)
		return
	}
	state := s.sim.Step(timeScale, vq)
	s.metrics.Step()
	s.writeJSON(w, "step", http.StatusOK, state)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, "start", http.StatusBadRequest, err)
		return
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		s.writeError(w, "start", http.StatusBadRequest, errors.New("body must be a JSON array of body names"))
		return
	}
	if err := s.sim.Start(r.Context(), names); err != nil {
		s.writeError(w, "start", http.StatusBadRequest, err)
		return
	}
	monitoring.Logf("session %s started %v", sessionOf(r), names)
	s.writeJSON(w, "start", http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	bodies, err := s.sim.Reset(r.Context())
	if err != nil {
		s.writeError(w, "reset", http.StatusInternalServerError, err)
		return
	}
	monitoring.Logf("session %s reset", sessionOf(r))
	s.writeJSON(w, "reset", http.StatusOK, bodies)
}

func (s *Server) handleBodies(w http.ResponseWriter, r *http.Request) {
	entries, err := s.sim.catalog.All(r.Context())
	if err != nil {
		s.writeError(w, "bodies", http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, "bodies", http.StatusOK, entries)
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, code int, v any) {
	s.metrics.Request(endpoint, code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("%s: write response: %v", endpoint, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, code int, err error) {
	monitoring.Logf("%s: %v", endpoint, err)
	s.writeJSON(w, endpoint, code, map[string]string{"error": err.Error()})
}

func sessionOf(r *http.Request) string {
	if id := r.Header.Get("X-Viewer-Session"); id != "" {
		return id
	}
	return "-"
}
