package agent

import (
	"context"
	"fmt"
)

// Tool is one callable the model may invoke by name. Implementations bind
// the scalar arguments themselves and return plain text. A returned error
// (or a panic) is converted to an error-text observation by the registry;
// it never aborts the run.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, args []Value, kwargs map[string]Value) (string, error)
}

// Registry is a closed set of tools resolved once at construction.
// It doubles as the dispatcher: Execute maps a parsed call onto its tool
// and isolates every per-call failure.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from the given tools. On duplicate names
// the last registration wins.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if _, dup := r.tools[t.Name()]; !dup {
			r.order = append(r.order, t.Name())
		}
		r.tools[t.Name()] = t
	}
	return r
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Execute dispatches one parsed call. It never returns an error: an
// unknown tool name, a tool error, and a tool panic all come back as the
// result text, visible to the model on the next turn so it can
// self-correct.
func (r *Registry) Execute(ctx context.Context, call *ParsedCall) ToolResult {
	tool, ok := r.tools[call.Tool]
	if !ok {
		return ToolResult{
			Tool:   call.Tool,
			Result: fmt.Sprintf("Error: unknown tool '%s'", call.Tool),
		}
	}
	out, err := safeCall(ctx, tool, call)
	if err != nil {
		return ToolResult{
			Tool:   call.Tool,
			Result: fmt.Sprintf("Error executing %s: %s", call.Tool, err),
		}
	}
	return ToolResult{Tool: call.Tool, Result: out}
}

func safeCall(ctx context.Context, tool Tool, call *ParsedCall) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return tool.Call(ctx, call.Args, call.Kwargs)
}
