// Package httpapi exposes the chat agent over a REST API.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/calbolt/calbolt/pkg/agent"
	"github.com/calbolt/calbolt/pkg/tools"
)

// Version reported by the status endpoints
const Version = "0.1.0"

// Server represents the REST front end
type Server struct {
	manager  *agent.Manager
	registry *tools.Registry
	mux      *http.ServeMux
}

// NewServer creates the REST server and wires its routes
func NewServer(manager *agent.Manager, registry *tools.Registry) *Server {
	s := &Server{
		manager:  manager,
		registry: registry,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleStatus)
	s.mux.HandleFunc("GET /health", s.handleStatus)

	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /chat/{session_id}", s.handleChat)

	s.mux.HandleFunc("GET /sessions", s.handleListSessions)
	s.mux.HandleFunc("POST /sessions/cleanup", s.handleCleanup)
	s.mux.HandleFunc("GET /sessions/{session_id}", s.handleSessionInfo)
	s.mux.HandleFunc("DELETE /sessions/{session_id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /sessions/{session_id}/reset", s.handleResetSession)
	s.mux.HandleFunc("GET /sessions/{session_id}/history", s.handleSessionHistory)

	s.mux.HandleFunc("GET /tools", s.handleTools)
}

// Handler returns the route handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	log.Printf("Starting REST server on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
