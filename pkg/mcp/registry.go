package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrToolNotFound indicates a tools/call named a tool that is not registered.
var ErrToolNotFound = errors.New("tool not found")

// Tool describes a registered tool: its stable name, human description, the
// declared shape of its arguments, and a grouping category.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Category    string                 `json:"category,omitempty"`
}

// Handler executes a tool call. Any state a handler needs (database client,
// upstream endpoint) is captured by closure at registration time.
type Handler func(ctx context.Context, args map[string]interface{}, ictx *InvocationContext) (interface{}, error)

// binding pairs a descriptor with its handler.
type binding struct {
	tool    Tool
	handler Handler
}

// Registry is the in-memory catalog of tools. It is populated once at startup
// and read concurrently afterwards; registration is not safe to interleave
// with request traffic.
type Registry struct {
	bindings map[string]binding
	order    []string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. timeout bounds each tool invocation;
// zero disables the deadline.
func NewRegistry(timeout time.Duration, logger *slog.Logger) (registry *Registry) {
	registry = &Registry{
		bindings: make(map[string]binding),
		timeout:  timeout,
		logger:   logger,
	}
	return registry
}

// Register adds or replaces the binding for tool.Name. Replacing an existing
// binding is allowed but logged, since it usually means two providers chose
// the same name.
func (r *Registry) Register(tool Tool, handler Handler) {
	_, exists := r.bindings[tool.Name]
	if exists {
		r.logger.Warn("overwriting existing tool registration",
			slog.String("tool", tool.Name))
	} else {
		r.order = append(r.order, tool.Name)
	}

	r.bindings[tool.Name] = binding{
		tool:    tool,
		handler: handler,
	}
}

// Get returns the descriptor for a tool name.
func (r *Registry) Get(name string) (tool Tool, found bool) {
	b, found := r.bindings[name]
	if found {
		tool = b.tool
	}
	return tool, found
}

// List returns all descriptors in registration order.
func (r *Registry) List() (tools []Tool) {
	tools = make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.bindings[name].tool)
	}
	return tools
}

// ListByCategory filters List by exact category match.
func (r *Registry) ListByCategory(category string) (tools []Tool) {
	for _, tool := range r.List() {
		if tool.Category == category {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Categories returns tool counts grouped by category, in first-seen order.
func (r *Registry) Categories() (counts map[string]int) {
	counts = make(map[string]int)
	for _, tool := range r.List() {
		counts[tool.Category]++
	}
	return counts
}

// Invoke runs the handler bound to name. A single invocation is a single
// attempt: no retry, no circuit breaking. When the registry carries a timeout,
// the handler context is bounded by it and an overrun surfaces as
// context.DeadlineExceeded.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}, ictx *InvocationContext) (result interface{}, err error) {
	b, found := r.bindings[name]
	if !found {
		err = fmt.Errorf("tool '%s' not found: %w", name, ErrToolNotFound)
		return result, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err = b.handler(ctx, args, ictx)
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("tool '%s' timed out: %w", name, context.DeadlineExceeded)
		return result, err
	}

	return result, err
}
