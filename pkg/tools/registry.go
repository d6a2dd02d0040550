package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Registry is the closed registry of calendar tools. Arguments are validated
// against each tool's declared schema before dispatch; there is no dynamic or
// self-describing registration path.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Definition),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %q has no handler", tool.Name)
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %q already registered", tool.Name)
	}

	r.tools[tool.Name] = tool
	return nil
}

// Get returns a tool by name
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools sorted by name
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Definition, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Definitions returns copies of all tool definitions (without handlers),
// sorted by name
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Definition, 0, len(r.tools))
	for _, tool := range r.tools {
		def := *tool
		def.Handler = nil
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Execute looks up a tool by name, fills declared defaults for absent
// optional arguments, validates the arguments against the tool's schema, and
// dispatches to the handler. Schema violations come back as unsuccessful
// results, not errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (*Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool %q not found", name)
	}

	if args == nil {
		args = make(map[string]interface{})
	}
	for propName, prop := range tool.Parameters.Properties {
		if _, present := args[propName]; !present && prop.Default != nil {
			args[propName] = prop.Default
		}
	}

	if result := validateArgs(tool, args); result != nil {
		return result, nil
	}

	return tool.Handler(ctx, args)
}

// validateArgs checks args against the tool's parameter schema, returning a
// failure result describing the violations or nil when valid
func validateArgs(tool *Definition, args map[string]interface{}) *Result {
	schemaBytes, err := json.Marshal(tool.Parameters)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid schema for tool %q: %v", tool.Name, err))
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	docLoader := gojsonschema.NewGoLoader(args)

	validation, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return errorResult(fmt.Sprintf("could not validate arguments for %q: %v", tool.Name, err))
	}

	if !validation.Valid() {
		var problems []string
		for _, desc := range validation.Errors() {
			problems = append(problems, desc.String())
		}
		return errorResult(fmt.Sprintf("invalid arguments for %s: %s", tool.Name, strings.Join(problems, "; ")))
	}

	return nil
}
