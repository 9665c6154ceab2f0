// Package tools exposes the retrieval operations as model-callable tools:
// declarative definitions the generator advertises to the model, plus an
// execution registry that tracks the sources behind the last answer.
package tools

import (
	"context"
	"fmt"
)

// Property describes one parameter of a tool in a provider-neutral form.
// Type follows JSON Schema ("string", "integer").
type Property struct {
	Type        string
	Description string
}

type Definition struct {
	Name        string
	Description string
	Parameters  map[string]Property
	Required    []string
}

type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, args map[string]interface{}) string
}

// Source points a rendered answer back at the material it came from.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// SourceRecorder is implemented by tools that can attribute their output.
type SourceRecorder interface {
	LastSources() []Source
	ResetSources()
}

// Executor is what a generator needs to advertise and run tools.
type Executor interface {
	Definitions() []Definition
	Execute(ctx context.Context, name string, args map[string]interface{}) string
}

// Manager registers tools by name and dispatches model tool calls to them.
// It is not safe for concurrent use; build one per request.
type Manager struct {
	tools map[string]Tool
	order []string
}

func NewManager(tools ...Tool) *Manager {
	m := &Manager{tools: make(map[string]Tool)}
	for _, t := range tools {
		m.Register(t)
	}
	return m
}

func (m *Manager) Register(t Tool) {
	name := t.Definition().Name
	if _, exists := m.tools[name]; !exists {
		m.order = append(m.order, name)
	}
	m.tools[name] = t
}

func (m *Manager) Definitions() []Definition {
	defs := make([]Definition, 0, len(m.order))
	for _, name := range m.order {
		defs = append(defs, m.tools[name].Definition())
	}
	return defs
}

// Execute runs the named tool. Unknown names come back as a message for the
// model rather than an error, so a bad call never aborts the exchange.
func (m *Manager) Execute(ctx context.Context, name string, args map[string]interface{}) string {
	t, ok := m.tools[name]
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name)
	}
	return t.Execute(ctx, args)
}

// LastSources collects the attribution recorded by the most recent tool
// executions, in registration order.
func (m *Manager) LastSources() []Source {
	var sources []Source
	for _, name := range m.order {
		if rec, ok := m.tools[name].(SourceRecorder); ok {
			sources = append(sources, rec.LastSources()...)
		}
	}
	return sources
}

func (m *Manager) ResetSources() {
	for _, t := range m.tools {
		if rec, ok := t.(SourceRecorder); ok {
			rec.ResetSources()
		}
	}
}
