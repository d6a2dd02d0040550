package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/calbolt/calbolt/pkg/agent"
	"github.com/calbolt/calbolt/pkg/llm"
	"github.com/calbolt/calbolt/pkg/tools"
	"github.com/calbolt/calbolt/pkg/transcript"
)

// echoBackend replies with the user's last message
type echoBackend struct{}

func (echoBackend) Infer(_ context.Context, req *llm.InferenceRequest) (*llm.InferenceResponse, error) {
	last := req.Messages[len(req.Messages)-1]
	text := "echo: " + last.Content
	return &llm.InferenceResponse{
		Text:      text,
		Assistant: llm.Message{Role: llm.RoleAssistant, Content: text},
	}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry := tools.NewRegistry()
	schema := tools.NewParameterSchema()
	schema.AddProperty("date", tools.StringProperty("date to check"), true)
	err := registry.Register(&tools.Definition{
		Name:        "get_available_slots",
		Description: "Lists open time slots",
		Parameters:  schema,
		Handler: func(context.Context, map[string]interface{}) (*tools.Result, error) {
			return &tools.Result{Success: true, Output: "none"}, nil
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	manager := agent.NewManager(func() *agent.Agent {
		return agent.New(agent.Config{
			Backend:   echoBackend{},
			Registry:  registry,
			UserEmail: "dana@example.com",
			Location:  time.UTC,
		})
	}, transcript.NewMemoryStore())

	return NewServer(manager, registry)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode %s %s response: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestStatusEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/health"} {
		rec, body := doJSON(t, srv.Handler(), http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
		if body["status"] != "ok" || body["version"] != Version {
			t.Errorf("GET %s body = %v", path, body)
		}
	}
}

func TestChatCreatesSession(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/chat", `{"message":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /chat = %d: %s", rec.Code, rec.Body.String())
	}
	if body["response"] != "echo: hello" {
		t.Errorf("response = %v", body["response"])
	}
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("no session id generated")
	}

	// Same id continues the same session
	rec, body = doJSON(t, srv.Handler(), http.MethodPost, "/chat/"+sessionID, `{"message":"again"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /chat/{id} = %d", rec.Code)
	}
	if body["session_id"] != sessionID {
		t.Errorf("session id changed: %v", body["session_id"])
	}

	_, info := doJSON(t, srv.Handler(), http.MethodGet, "/sessions/"+sessionID, "")
	if count, _ := info["message_count"].(float64); count != 4 {
		t.Errorf("message_count = %v, want 4", info["message_count"])
	}
}

func TestChatRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/chat", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON = %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/chat", `{"message":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message = %d, want 400", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	_, body := doJSON(t, srv.Handler(), http.MethodPost, "/chat", `{"message":"hi","session_id":"s1"}`)
	if body["session_id"] != "s1" {
		t.Fatalf("session_id = %v", body["session_id"])
	}

	_, list := doJSON(t, srv.Handler(), http.MethodGet, "/sessions", "")
	if count, _ := list["count"].(float64); count != 1 {
		t.Errorf("count = %v", list["count"])
	}

	_, history := doJSON(t, srv.Handler(), http.MethodGet, "/sessions/s1/history", "")
	messages, _ := history["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("history = %v", history)
	}
	first, _ := messages[0].(map[string]interface{})
	if first["role"] != "user" || first["content"] != "hi" {
		t.Errorf("first message = %v", first)
	}

	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/sessions/s1/reset", "")
	if rec.Code != http.StatusOK {
		t.Errorf("reset = %d", rec.Code)
	}
	_, history = doJSON(t, srv.Handler(), http.MethodGet, "/sessions/s1/history", "")
	if messages, _ := history["messages"].([]interface{}); len(messages) != 0 {
		t.Errorf("history after reset = %v", messages)
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodDelete, "/sessions/s1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("delete = %d", rec.Code)
	}
	rec, _ = doJSON(t, srv.Handler(), http.MethodDelete, "/sessions/s1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/sessions/nope"},
		{http.MethodGet, "/sessions/nope/history"},
		{http.MethodPost, "/sessions/nope/reset"},
		{http.MethodDelete, "/sessions/nope"},
	} {
		rec, _ := doJSON(t, srv.Handler(), tc.method, tc.path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestCleanupEndpoint(t *testing.T) {
	srv := newTestServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/chat", `{"message":"hi","session_id":"s1"}`)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/sessions/cleanup?max_inactive_hours=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cleanup = %d", rec.Code)
	}
	if removed, _ := body["removed"].(float64); removed != 0 {
		t.Errorf("removed = %v, want 0 (session just active)", body["removed"])
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/sessions/cleanup?max_inactive_hours=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad hours = %d, want 400", rec.Code)
	}
}

func TestToolsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/tools", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /tools = %d", rec.Code)
	}
	toolsList, _ := body["tools"].([]interface{})
	if len(toolsList) != 1 {
		t.Fatalf("tools = %v", body)
	}
	first, _ := toolsList[0].(map[string]interface{})
	if first["name"] != "get_available_slots" || first["description"] == "" {
		t.Errorf("tool entry = %v", first)
	}
}
