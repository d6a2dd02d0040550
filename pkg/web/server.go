// Package web serves the browser chat UI over a websocket.
package web

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/calbolt/calbolt/pkg/agent"
)

//go:embed templates/chat.html
var templatesFS embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Server serves the chat page and its websocket endpoint
type Server struct {
	manager     *agent.Manager
	mux         *http.ServeMux
	connections map[*websocket.Conn]string // conn -> session id
	connMutex   sync.Mutex
}

// NewServer creates the web chat server
func NewServer(manager *agent.Manager) *Server {
	s := &Server{
		manager:     manager,
		mux:         http.NewServeMux(),
		connections: make(map[*websocket.Conn]string),
	}

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	return s
}

// Handler returns the route handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	log.Printf("Starting web chat on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page, err := templatesFS.ReadFile("templates/chat.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.connMutex.Lock()
	s.connections[conn] = ""
	s.connMutex.Unlock()

	log.Printf("WebSocket client connected")

	// Messages are handled in order; one in-flight exchange per connection
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}
		s.handleMessage(conn, msg)
	}

	s.connMutex.Lock()
	delete(s.connections, conn)
	s.connMutex.Unlock()

	log.Printf("WebSocket client disconnected")
}

func (s *Server) handleMessage(conn *websocket.Conn, msg map[string]interface{}) {
	msgType, ok := msg["type"].(string)
	if !ok {
		s.sendError(conn, "missing message type")
		return
	}

	switch msgType {
	case "chat":
		s.handleChat(conn, msg)
	case "reset":
		s.handleReset(conn)
	default:
		s.sendError(conn, fmt.Sprintf("unknown message type: %s", msgType))
	}
}

func (s *Server) handleChat(conn *websocket.Conn, msg map[string]interface{}) {
	message, ok := msg["message"].(string)
	if !ok || message == "" {
		s.sendError(conn, "missing message")
		return
	}

	// A session id in the message wins; otherwise the connection keeps the
	// session it was assigned on its first chat
	sessionID, _ := msg["session_id"].(string)
	if sessionID == "" {
		sessionID = s.connectionSession(conn)
	}

	session := s.manager.GetSession(sessionID)
	s.rememberSession(conn, session.ID)

	reply := session.SendMessage(context.Background(), message)
	s.send(conn, map[string]interface{}{
		"type":       "response",
		"response":   reply,
		"session_id": session.ID,
	})
}

func (s *Server) handleReset(conn *websocket.Conn) {
	sessionID := s.connectionSession(conn)
	if sessionID == "" {
		s.sendError(conn, "no active session")
		return
	}

	if session, ok := s.manager.Lookup(sessionID); ok {
		session.Reset()
	}
	s.send(conn, map[string]interface{}{
		"type":       "reset",
		"session_id": sessionID,
	})
}

func (s *Server) connectionSession(conn *websocket.Conn) string {
	s.connMutex.Lock()
	defer s.connMutex.Unlock()
	return s.connections[conn]
}

func (s *Server) rememberSession(conn *websocket.Conn, sessionID string) {
	s.connMutex.Lock()
	s.connections[conn] = sessionID
	s.connMutex.Unlock()
}

func (s *Server) send(conn *websocket.Conn, msg map[string]interface{}) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("WebSocket write error: %v", err)
	}
}

func (s *Server) sendError(conn *websocket.Conn, errMsg string) {
	s.send(conn, map[string]interface{}{
		"type":  "error",
		"error": errMsg,
	})
}
