// Package llm provides the inference backend abstraction and an
// OpenAI-compatible chat completions client with native tool calling.
package llm

import "context"

// Backend represents an LLM inference backend
type Backend interface {
	// Infer performs one inference round over the conversation so far
	Infer(ctx context.Context, req *InferenceRequest) (*InferenceResponse, error)
}

// Chat message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single chat message. Tool results carry the id of the call
// they answer; assistant messages that requested tools carry the raw calls so
// the exchange can be replayed to the API verbatim.
type Message struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	Name       string        `json:"name,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	ToolCalls  []RawToolCall `json:"tool_calls,omitempty"`
}

// RawToolCall is the wire form of a tool call in an assistant message
type RawToolCall struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function RawFunctionCall `json:"function"`
}

// RawFunctionCall carries the function name and its arguments as a JSON string
type RawFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition defines a tool for native API-based tool calling
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  interface{} // JSON Schema
}

// InferenceRequest represents a request for one inference round
type InferenceRequest struct {
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int
}

// ToolCall is a parsed tool invocation requested by the model
type ToolCall struct {
	ID   string
	Name string
	Args map[string]interface{}
}

// InferenceResponse represents the model's reply for one round
type InferenceResponse struct {
	Text       string
	ToolCalls  []ToolCall
	Assistant  Message // raw assistant message, for replaying the exchange
	TokensUsed int
}
