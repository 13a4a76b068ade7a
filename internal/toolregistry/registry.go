package toolregistry

import (
	"fmt"
	"sort"
	"sync"

	"donna/internal/agent/ports"
	"donna/internal/logging"
)

// Registry is the static action catalog. Actions are registered once during
// startup; lookups are read-mostly and safe for concurrent use.
//
// Guarded status is declared at registration, not derived from tool metadata:
// which actions need a human in the loop is deployment policy, and the
// registry is where that policy lives.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]ports.ToolExecutor
	guarded map[string]bool
	logger  logging.Logger
}

// New creates an empty registry.
func New(logger logging.Logger) *Registry {
	return &Registry{
		tools:   make(map[string]ports.ToolExecutor),
		guarded: make(map[string]bool),
		logger:  logging.OrNop(logger),
	}
}

// Register adds an unguarded action. Registering the respond sentinel or a
// duplicate name is a programming error.
func (r *Registry) Register(tool ports.ToolExecutor) error {
	return r.register(tool, false)
}

// RegisterGuarded adds an action that requires human approval before dispatch.
func (r *Registry) RegisterGuarded(tool ports.ToolExecutor) error {
	return r.register(tool, true)
}

func (r *Registry) register(tool ports.ToolExecutor, guarded bool) error {
	if tool == nil {
		return fmt.Errorf("register: nil tool")
	}
	name := tool.Definition().Name
	if name == "" {
		return fmt.Errorf("register: tool has empty name")
	}
	if name == ports.ActionRespond {
		return fmt.Errorf("register: %q is a reserved sentinel, not an action", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("register: duplicate action %q", name)
	}
	r.tools[name] = tool
	r.guarded[name] = guarded
	r.logger.Info("Registered action: %s (guarded=%v)", name, guarded)
	return nil
}

// Get retrieves an action executor by name.
func (r *Registry) Get(name string) (ports.ToolExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown action: %q", name)
	}
	return tool, nil
}

// List returns definitions for every registered action, sorted by name so the
// planner prompt is stable across runs.
func (r *Registry) List() []ports.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ports.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// IsKnown reports whether name is a registered action.
func (r *Registry) IsKnown(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// IsGuarded reports whether name requires approval. Unknown names are not
// guarded; they are rejected earlier by plan validation.
func (r *Registry) IsGuarded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.guarded[name]
}

var _ ports.ActionRegistry = (*Registry)(nil)
