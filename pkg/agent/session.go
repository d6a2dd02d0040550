package agent

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/calbolt/calbolt/pkg/llm"
	"github.com/calbolt/calbolt/pkg/transcript"
)

// Session pairs an agent with an id and activity tracking. Messages within a
// session are expected to arrive one at a time; only the activity timestamps
// are guarded for the manager's cleanup scan.
type Session struct {
	ID        string
	Agent     *Agent
	CreatedAt time.Time

	mu         sync.Mutex
	lastActive time.Time

	store transcript.Store
}

// NewSession creates a session around an agent
func NewSession(id string, a *Agent, store transcript.Store) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Agent:      a,
		CreatedAt:  now,
		lastActive: now,
		store:      store,
	}
}

// SendMessage runs one exchange and records it in the transcript store
func (s *Session) SendMessage(ctx context.Context, message string) string {
	s.touch()

	before := len(s.Agent.History())
	s.record(ctx, transcript.Entry{SessionID: s.ID, Role: llm.RoleUser, Content: message})

	reply := s.Agent.Chat(ctx, message)

	for _, msg := range s.Agent.History()[before:] {
		switch msg.Role {
		case llm.RoleAssistant:
			for _, call := range msg.ToolCalls {
				s.record(ctx, transcript.Entry{
					SessionID: s.ID,
					Role:      llm.RoleTool,
					Tool:      call.Function.Name,
					Args:      call.Function.Arguments,
				})
			}
			if msg.Content != "" {
				s.record(ctx, transcript.Entry{SessionID: s.ID, Role: llm.RoleAssistant, Content: msg.Content})
			}
		case llm.RoleTool:
			s.record(ctx, transcript.Entry{
				SessionID: s.ID,
				Role:      llm.RoleTool,
				Tool:      msg.Name,
				Content:   msg.Content,
			})
		}
	}

	return reply
}

// record appends a transcript entry; storage failures are logged, never fatal
func (s *Session) record(ctx context.Context, entry transcript.Entry) {
	if s.store == nil {
		return
	}
	if err := s.store.Append(ctx, entry); err != nil {
		fmt.Fprintf(os.Stderr, "session %s: transcript append failed: %v\n", s.ID, err)
	}
}

// Reset clears the session's conversation history
func (s *Session) Reset() {
	s.touch()
	s.Agent.Reset()
}

// MessageCount returns the number of messages in the conversation
func (s *Session) MessageCount() int {
	return len(s.Agent.History())
}

// LastActive returns the time of the session's most recent activity
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}
