// Package tools defines the closed set of calendar tools exposed to the
// conversational agent, along with the registry that validates and dispatches
// tool calls.
package tools

import "context"

// Definition represents a tool with its input schema.
// This is the canonical format consumed by the LLM backend.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
	Handler     Handler         `json:"-"` // Not serialized
}

// Handler is the function signature for tool execution
type Handler func(ctx context.Context, args map[string]interface{}) (*Result, error)

// Result represents the outcome of a tool execution. Domain failures
// (unavailable slot, unresolvable identifier, API refusal) are reported as
// unsuccessful results with descriptive text, never as Go errors.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Text returns the user-facing text of the result
func (r *Result) Text() string {
	if r.Success {
		return r.Output
	}
	return r.Error
}

func textResult(output string) *Result {
	return &Result{Success: true, Output: output}
}

func errorResult(message string) *Result {
	return &Result{Success: false, Error: message}
}

// ParameterSchema describes the parameters a tool accepts using JSON Schema
type ParameterSchema struct {
	Type       string                    `json:"type"` // Always "object" for tool params
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySchema describes a single parameter property
type PropertySchema struct {
	Type        string      `json:"type"` // "string", "number", "boolean"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// NewParameterSchema creates a new empty parameter schema
func NewParameterSchema() ParameterSchema {
	return ParameterSchema{
		Type:       "object",
		Properties: make(map[string]PropertySchema),
		Required:   []string{},
	}
}

// AddProperty adds a property to the schema
func (p *ParameterSchema) AddProperty(name string, prop PropertySchema, required bool) {
	p.Properties[name] = prop
	if required {
		p.Required = append(p.Required, name)
	}
}

// StringProperty creates a string property schema
func StringProperty(description string) PropertySchema {
	return PropertySchema{
		Type:        "string",
		Description: description,
	}
}

// StringPropertyDefault creates an optional string property with a default value
func StringPropertyDefault(description, defaultValue string) PropertySchema {
	return PropertySchema{
		Type:        "string",
		Description: description,
		Default:     defaultValue,
	}
}

// NumberProperty creates a number property schema
func NumberProperty(description string) PropertySchema {
	return PropertySchema{
		Type:        "number",
		Description: description,
	}
}
