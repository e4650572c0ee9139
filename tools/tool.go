// Package tools provides the tool registry and the plan executor.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Registry implementation details hidden from consumers
// - Handler failures converted to structured step results
package tools

import (
	"context"
	"fmt"
)

// Tool is a callable registered under a tool id.
//
// Execute receives the step's named arguments and returns any
// JSON-serializable value. Returning an error marks the step as failed.
type Tool interface {
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// Validator is implemented by tools that check arguments before running.
// A validation error fails the step without calling Execute.
type Validator interface {
	Validate(args map[string]any) error
}

// ToolFunc adapts a plain function to the Tool interface.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// Execute calls f.
func (f ToolFunc) Execute(ctx context.Context, args map[string]any) (any, error) {
	return f(ctx, args)
}

// Echo returns a tool that reports its tool id and the arguments it
// was called with. The CLI registers it for indexed tools so plans can be
// run end to end without real side effects.
func Echo(toolID string) Tool {
	return ToolFunc(func(_ context.Context, args map[string]any) (any, error) {
		return map[string]any{"tool_id": toolID, "echo": args}, nil
	})
}

// RequireFilled returns a Validator-backed tool that rejects calls whose
// required arguments are missing or still hold the placeholder.
func RequireFilled(tool Tool, placeholder string, required ...string) Tool {
	return &filledTool{Tool: tool, placeholder: placeholder, required: required}
}

type filledTool struct {
	Tool
	placeholder string
	required    []string
}

func (t *filledTool) Validate(args map[string]any) error {
	for _, name := range t.required {
		v, ok := args[name]
		if !ok {
			return fmt.Errorf("missing argument %q", name)
		}
		if s, isString := v.(string); isString && s == t.placeholder {
			return fmt.Errorf("argument %q was not filled", name)
		}
	}
	return nil
}

var (
	_ Tool      = ToolFunc(nil)
	_ Validator = (*filledTool)(nil)
)
