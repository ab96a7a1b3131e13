package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coursepilot/pkg/llm"
)

var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("unknown tool")
)

// Tool is a capability the model can invoke by name.
type Tool interface {
	Definition() llm.Tool
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// SourceProvider is implemented by tools that retrieve content and track
// where it came from. Recorded sources are replaced on every execution.
type SourceProvider interface {
	LastSources() []Source
	ResetSources()
}

// Source points at the course material a tool result was drawn from.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// Registry holds the tools exposed to the model, preserving registration
// order for definitions and source aggregation.
type Registry struct {
	mu     sync.RWMutex
	order  []Tool
	byName map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) error {
	name := tool.Definition().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.byName[name] = tool
	r.order = append(r.order, tool)
	return nil
}

// Definitions returns every tool definition in registration order.
func (r *Registry) Definitions() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]llm.Tool, 0, len(r.order))
	for _, tool := range r.order {
		defs = append(defs, tool.Definition())
	}
	return defs
}

// Execute dispatches to the named tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	tool, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.Execute(ctx, args)
}

// LastSources flattens the sources recorded by each tracking tool, in
// registration order.
func (r *Registry) LastSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sources []Source
	for _, tool := range r.order {
		if tracker, ok := tool.(SourceProvider); ok {
			sources = append(sources, tracker.LastSources()...)
		}
	}
	return sources
}

// ResetSources clears the recorded sources of every tracking tool.
func (r *Registry) ResetSources() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tool := range r.order {
		if tracker, ok := tool.(SourceProvider); ok {
			tracker.ResetSources()
		}
	}
}

func toolParams(properties map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
