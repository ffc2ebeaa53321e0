package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/llm"
)

// ErrToolNotFound indicates the named tool is not registered.
var ErrToolNotFound = errors.New("tool: not found")

// Func is a tool implementation. It receives parsed arguments and returns
// an opaque result.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Result is the uniform outcome record of a tool execution. Execution
// errors are folded into the record rather than raised, so a misbehaving
// tool cannot break the caller.
type Result struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
	Tool    string `json:"tool"`
}

// Registry maps tool names to functions and schemas. Safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Func
	schemas map[string]llm.ToolSchema
	logger  *zap.Logger
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:   make(map[string]Func),
		schemas: make(map[string]llm.ToolSchema),
		logger:  logger.With(zap.String("component", "tool_registry")),
	}
}

// Register adds or replaces a tool.
func (r *Registry) Register(name string, fn Func, schema llm.ToolSchema) {
	r.mu.Lock()
	r.tools[name] = fn
	schema.Name = name
	r.schemas[name] = schema
	r.mu.Unlock()

	r.logger.Info("tool registered", zap.String("tool", name))
}

// Unregister removes a tool; absent names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.tools, name)
	delete(r.schemas, name)
	r.mu.Unlock()
}

// Execute runs the named tool. An unknown tool returns ErrToolNotFound;
// tool failures are reported inside the Result.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	out, err := fn(ctx, args)
	if err != nil {
		return &Result{Success: false, Error: err.Error(), Tool: name}, nil
	}
	return &Result{Success: true, Result: out, Tool: name}, nil
}

// List returns the sorted names of all registered tools.
func (r *Registry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Schema returns the schema for the named tool.
func (r *Registry) Schema(name string) (llm.ToolSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[name]
	return schema, ok
}

// Schemas returns all schemas sorted by tool name, in the shape the model
// tool-calling API expects.
func (r *Registry) Schemas() []llm.ToolSchema {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolSchema, 0, len(names))
	for _, name := range names {
		out = append(out, r.schemas[name])
	}
	return out
}
