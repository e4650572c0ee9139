// Tool registration and lookup.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Registration and discovery mechanisms abstracted

package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps tool ids to tools. It is owned by the caller and safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool under toolID.
// Returns error if a tool with the same id already exists.
func (r *Registry) Register(toolID string, tool Tool) error {
	if toolID == "" {
		return fmt.Errorf("tool id must not be empty")
	}
	if tool == nil {
		return fmt.Errorf("tool '%s' is nil", toolID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[toolID]; exists {
		return fmt.Errorf("tool '%s' already registered", toolID)
	}
	r.tools[toolID] = tool
	return nil
}

// RegisterFunc is Register for a plain function.
func (r *Registry) RegisterFunc(toolID string, fn func(ctx context.Context, args map[string]any) (any, error)) error {
	return r.Register(toolID, ToolFunc(fn))
}

// Get returns a tool by id.
func (r *Registry) Get(toolID string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[toolID]
	return tool, exists
}

// Has checks if a tool exists in the registry.
func (r *Registry) Has(toolID string) bool {
	_, exists := r.Get(toolID)
	return exists
}

// Names returns all registered tool ids in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
