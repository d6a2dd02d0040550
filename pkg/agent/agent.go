// Package agent runs the tool-calling conversation loop and manages chat
// sessions. The agent never surfaces tool failures as errors; tools report
// their own outcomes as text and the model relays them to the user.
package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/calbolt/calbolt/pkg/llm"
	"github.com/calbolt/calbolt/pkg/tools"
)

// maxToolRounds bounds how many inference rounds a single user message may
// trigger before the loop gives up.
const maxToolRounds = 5

const apologyMessage = "I encountered an error while processing your request. Please try again or contact support."

// Config configures an Agent
type Config struct {
	Backend     llm.Backend
	Registry    *tools.Registry
	UserEmail   string
	Location    *time.Location
	Persona     *Persona // Optional, overrides the built-in prompt
	Temperature float64
	MaxTokens   int
	Now         func() time.Time // Optional, defaults to time.Now
}

// Agent holds one conversation with the model. It is not safe for concurrent
// use; callers serialize access per session.
type Agent struct {
	backend      llm.Backend
	registry     *tools.Registry
	systemPrompt string
	history      []llm.Message
	temperature  float64
	maxTokens    int
}

// New creates an agent with an empty conversation
func New(cfg Config) *Agent {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Agent{
		backend:      cfg.Backend,
		registry:     cfg.Registry,
		systemPrompt: systemPrompt(cfg.Persona, cfg.UserEmail, now().In(loc)),
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
	}
}

// Chat sends one user message through the conversation loop and returns the
// assistant's reply. Backend failures come back as an apology, never an error.
func (a *Agent) Chat(ctx context.Context, message string) string {
	a.history = append(a.history, llm.Message{Role: llm.RoleUser, Content: message})

	toolDefs := a.toolDefinitions()

	for round := 0; round < maxToolRounds; round++ {
		messages := make([]llm.Message, 0, len(a.history)+1)
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
		messages = append(messages, a.history...)

		resp, err := a.backend.Infer(ctx, &llm.InferenceRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: a.temperature,
			MaxTokens:   a.maxTokens,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "agent: inference failed: %v\n", err)
			return apologyMessage
		}

		a.history = append(a.history, resp.Assistant)

		if len(resp.ToolCalls) == 0 {
			return resp.Text
		}

		for _, call := range resp.ToolCalls {
			a.history = append(a.history, llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    a.runTool(ctx, call),
			})
		}
	}

	return apologyMessage
}

// runTool dispatches one tool call through the registry. Unknown tools and
// schema violations come back as text for the model to relay.
func (a *Agent) runTool(ctx context.Context, call llm.ToolCall) string {
	if os.Getenv("DEBUG") != "" {
		fmt.Fprintf(os.Stderr, "[DEBUG] Executing tool %s with args %v\n", call.Name, call.Args)
	}

	result, err := a.registry.Execute(ctx, call.Name, call.Args)
	if err != nil {
		return fmt.Sprintf("Tool execution failed: %v", err)
	}
	return result.Text()
}

// toolDefinitions converts the registry's definitions to the backend format
func (a *Agent) toolDefinitions() []llm.ToolDefinition {
	defs := a.registry.Definitions()
	out := make([]llm.ToolDefinition, len(defs))
	for i, def := range defs {
		out[i] = llm.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		}
	}
	return out
}

// Reset clears the conversation history
func (a *Agent) Reset() {
	a.history = nil
}

// History returns a copy of the conversation so far
func (a *Agent) History() []llm.Message {
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

// AvailableTools returns the names of the registered tools
func (a *Agent) AvailableTools() []string {
	defs := a.registry.Definitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}
