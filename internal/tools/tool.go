package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Tool is a capability mikey offers to agents over MCP and HTTP.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage // JSON Schema
	Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
}

// ToolDef is the advertised form of a tool.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Content is one block of a tool call result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the generic envelope returned for every tool call.
type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Text returns the concatenated text blocks.
func (c *CallResult) Text() string {
	var b bytes.Buffer
	for _, ct := range c.Content {
		b.WriteString(ct.Text)
	}
	return b.String()
}

// Hooks are optional callbacks fired after each Call.
type Hooks struct {
	OnCall func(name string, duration float64, inputBytes, outputBytes int, isError bool)
}

// Registry holds available tools in registration order.
type Registry struct {
	tools map[string]Tool
	order []string
	hooks Hooks
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// SetHooks installs observability callbacks. Not safe to call concurrently
// with Call.
func (r *Registry) SetHooks(h Hooks) {
	r.hooks = h
}

// Register adds a tool to the registry, keyed by its Name. Registering a
// name again replaces the tool but keeps its position.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name, returns the tool and a boolean indicating if it was found.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// ToToolDefs returns the tool definitions in registration order.
func (r *Registry) ToToolDefs() []ToolDef {
	out := make([]ToolDef, 0, len(r.order))
	for _, t := range r.Tools() {
		out = append(out, ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Parameters(),
		})
	}
	return out
}

// Call executes the named tool and wraps the outcome in a CallResult.
// Failures, including unknown tools, are reported in-band with IsError set.
func (r *Registry) Call(ctx context.Context, name string, params json.RawMessage) *CallResult {
	start := time.Now()

	res := r.call(ctx, name, params)

	if r.hooks.OnCall != nil {
		label := name
		if _, ok := r.tools[name]; !ok {
			label = "unknown"
		}
		r.hooks.OnCall(label, time.Since(start).Seconds(), len(params), len(res.Text()), res.IsError)
	}
	return res
}

func (r *Registry) call(ctx context.Context, name string, params json.RawMessage) *CallResult {
	t, ok := r.tools[name]
	if !ok {
		return ErrorResult(name, fmt.Errorf("unknown tool: %s", name))
	}

	if len(bytes.TrimSpace(params)) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		params = json.RawMessage(`{}`)
	}

	out, err := t.Execute(ctx, params)
	if err != nil {
		return ErrorResult(name, err)
	}

	var b bytes.Buffer
	if err := json.Indent(&b, out, "", "  "); err != nil {
		return ErrorResult(name, fmt.Errorf("format output: %w", err))
	}
	return &CallResult{Content: []Content{{Type: "text", Text: b.String()}}}
}

// ErrorResult builds the error envelope for a failed call.
func ErrorResult(name string, err error) *CallResult {
	return &CallResult{
		Content: []Content{{Type: "text", Text: fmt.Sprintf("Error in %s: %s", name, err)}},
		IsError: true,
	}
}
