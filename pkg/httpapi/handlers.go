package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/calbolt/calbolt/pkg/llm"
)

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the reply to a chat request
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// SessionInfo describes one session
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	MessageCount int       `json:"message_count"`
}

// HistoryMessage is one conversation message in a history reply
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	// A path session id wins over one in the body
	sessionID := req.SessionID
	if pathID := r.PathValue("session_id"); pathID != "" {
		sessionID = pathID
	}

	session := s.manager.GetSession(sessionID)
	reply := session.SendMessage(r.Context(), req.Message)

	respondJSON(w, http.StatusOK, ChatResponse{
		Response:  reply,
		SessionID: session.ID,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.manager.ListSessions()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	})
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	session, ok := s.manager.Lookup(r.PathValue("session_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, SessionInfo{
		SessionID:    session.ID,
		CreatedAt:    session.CreatedAt,
		LastActive:   session.LastActive(),
		MessageCount: session.MessageCount(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	if !s.manager.DeleteSession(id) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.manager.Lookup(r.PathValue("session_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	session.Reset()
	respondJSON(w, http.StatusOK, map[string]string{"reset": session.ID})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := s.manager.Lookup(r.PathValue("session_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	messages := []HistoryMessage{}
	for _, msg := range session.Agent.History() {
		// Tool plumbing stays internal; clients see the conversation
		if msg.Role != llm.RoleUser && msg.Role != llm.RoleAssistant {
			continue
		}
		if msg.Content == "" {
			continue
		}
		messages = append(messages, HistoryMessage{Role: msg.Role, Content: msg.Content})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": session.ID,
		"messages":   messages,
	})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	maxInactiveHours := 24
	if v := r.URL.Query().Get("max_inactive_hours"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			respondError(w, http.StatusBadRequest, "max_inactive_hours must be a positive integer")
			return
		}
		maxInactiveHours = hours
	}

	removed := s.manager.Cleanup(maxInactiveHours)
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	defs := s.registry.Definitions()
	infos := make([]toolInfo, len(defs))
	for i, def := range defs {
		infos[i] = toolInfo{Name: def.Name, Description: def.Description}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tools": infos,
		"count": len(infos),
	})
}
