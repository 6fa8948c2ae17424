package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/grantix/internal/domain"
)

// ToolOutcome is what a tool execution hands back to the model: the payload
// the model reads plus the record ids it surfaced, which feed citations.
type ToolOutcome struct {
	Payload   string
	RecordIDs []string
}

// ExecutorFunc runs one tool call with its raw JSON arguments.
type ExecutorFunc func(ctx context.Context, args json.RawMessage) (ToolOutcome, error)

// Tool pairs a model-facing schema with its executor.
type Tool struct {
	Schema  domain.ToolSchema
	Execute ExecutorFunc
}

// Registry holds the callable tools bound to chat turns.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(t Tool) error {
	if t.Schema.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Execute == nil {
		return fmt.Errorf("tool %q has no executor", t.Schema.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Schema.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Schema.Name)
	}
	r.tools[t.Schema.Name] = t
	return nil
}

// Execute runs the named tool against its arguments.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (ToolOutcome, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return ToolOutcome{}, fmt.Errorf("unknown tool %q", name)
	}
	return t.Execute(ctx, args)
}

// Schemas returns the model-facing tool schemas, sorted by name so every
// turn binds tools in a stable order.
func (r *Registry) Schemas() []domain.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ToolSchema, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
