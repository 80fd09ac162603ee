// Package tool defines the callable contract every domain tool implements
// and the registry that dispatches invocations by declared name.
package tool

import (
	"fmt"
	"sort"

	"github.com/metalagman/verdict/internal/state"
)

// Description is a tool's self-describing metadata. Name is the invocation
// name used in action traces; it may differ from the implementation's Go
// identifier.
type Description struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool is a named, schema-described callable that reads or mutates domain
// state. Invoke returns an observation for the agent.
type Tool interface {
	Describe() Description
	Invoke(snap state.Snapshot, kwargs map[string]any) (string, error)
}

// DuplicateNameError reports two tools declaring the same invocation name
// at bind time. Ambiguous dispatch is never silently resolved.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate tool invocation name %q", e.Name)
}

// Registry maps invocation names to tool implementations. Describe is
// called once per tool at construction time.
type Registry struct {
	byName  map[string]Tool
	ordered []Description
}

// NewRegistry indexes the given tools by their declared invocation name.
// A name collision fails the whole construction; neither colliding tool is
// registered.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		desc := t.Describe()
		if _, exists := r.byName[desc.Name]; exists {
			return nil, &DuplicateNameError{Name: desc.Name}
		}
		r.byName[desc.Name] = t
		r.ordered = append(r.ordered, desc)
	}
	return r, nil
}

// Get returns the tool registered under the invocation name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns all registered invocation names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptions returns tool metadata in registration order.
func (r *Registry) Descriptions() []Description {
	out := make([]Description, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.byName) }
