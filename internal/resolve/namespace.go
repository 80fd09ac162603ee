// Package resolve binds descriptor references to live components. A
// reference is either a symbolic path into an in-process namespace or a
// file location; an ordered fallback chain tolerates both without the
// caller knowing which it has.
package resolve

import (
	"sort"
	"strings"
	"sync"
)

// Namespace is the explicit symbol table symbolic references resolve
// against. Compiled-in domain packages bind their loaders, tool
// implementations and task lists here under dotted paths, e.g.
// "healthcare.load_data". Construct one per process or per test; there is
// no ambient global instance.
type Namespace struct {
	mu      sync.RWMutex
	modules map[string]map[string]any
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{modules: make(map[string]map[string]any)}
}

// Bind registers value under ref, where ref is "<module>.<symbol>" with
// the split at the last dot. Rebinding overwrites.
func (ns *Namespace) Bind(ref string, value any) {
	module, symbol, ok := splitRef(ref)
	if !ok {
		module, symbol = "", ref
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	symbols, exists := ns.modules[module]
	if !exists {
		symbols = make(map[string]any)
		ns.modules[module] = symbols
	}
	symbols[symbol] = value
}

// Lookup resolves "<module>.<symbol>". The second result distinguishes a
// missing module from a module lacking the symbol only in the error text;
// both are "not found" to the fallback chain.
func (ns *Namespace) Lookup(ref string) (any, bool) {
	module, symbol, ok := splitRef(ref)
	if !ok {
		module, symbol = "", ref
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	symbols, exists := ns.modules[module]
	if !exists {
		return nil, false
	}
	value, exists := symbols[symbol]
	return value, exists
}

// Module returns the symbol table bound under the module path, if any.
func (ns *Namespace) Module(path string) (map[string]any, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	symbols, exists := ns.modules[path]
	if !exists {
		return nil, false
	}
	out := make(map[string]any, len(symbols))
	for k, v := range symbols {
		out[k] = v
	}
	return out, true
}

// Modules returns all bound module paths, sorted.
func (ns *Namespace) Modules() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	out := make([]string, 0, len(ns.modules))
	for path := range ns.modules {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func splitRef(ref string) (module, symbol string, ok bool) {
	idx := strings.LastIndex(ref, ".")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", false
	}
	return ref[:idx], ref[idx+1:], true
}
