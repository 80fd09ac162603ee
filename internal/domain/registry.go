package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Registry stores descriptors by name. Writes happen at startup and
// discovery time only; lookups may run concurrently.
type Registry struct {
	mu      sync.RWMutex
	domains map[string]*Descriptor
	origins map[string]string
}

// NewRegistry returns an empty registry. Tests construct isolated
// instances rather than sharing a process-wide one.
func NewRegistry() *Registry {
	return &Registry{
		domains: make(map[string]*Descriptor),
		origins: make(map[string]string),
	}
}

// Register stores the descriptor under its name, overwriting any previous
// entry. origin is the file the descriptor came from, empty for built-ins.
func (r *Registry) Register(d *Descriptor, origin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains[d.Name] = d
	if origin != "" {
		r.origins[d.Name] = origin
	}
}

// Get returns the descriptor registered under name, or nil.
func (r *Registry) Get(name string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.domains[name]
}

// Origin returns the file the named descriptor was loaded from.
func (r *Registry) Origin(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.origins[name]
}

// List returns all registered domain names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.domains))
	for name := range r.domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFromFile parses a YAML or JSON descriptor document, validates it
// against the schema and registers the result.
func (r *Registry) LoadFromFile(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	doc := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, &FormatError{Path: path, Err: err}
		}
	case ".json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, &FormatError{Path: path, Err: err}
		}
	default:
		return nil, &FormatError{Path: path, Err: fmt.Errorf("unsupported descriptor format %q", filepath.Ext(path))}
	}

	if err := validateRaw(doc); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}

	d := &Descriptor{Version: DefaultVersion}
	if err := mapstructure.Decode(doc, d); err != nil {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("decode descriptor: %w", err)}
	}
	if d.DisplayName == "" {
		d.DisplayName = d.Name
	}

	r.Register(d, path)
	return d, nil
}
