package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind selects the component type a reference is resolved into.
type Kind int

const (
	KindDataLoader Kind = iota
	KindToolClass
	KindTaskList
	KindWikiText
	KindRulesList
)

func (k Kind) String() string {
	switch k {
	case KindDataLoader:
		return "data loader"
	case KindToolClass:
		return "tool class"
	case KindTaskList:
		return "task list"
	case KindWikiText:
		return "wiki text"
	case KindRulesList:
		return "rules list"
	default:
		return "unknown"
	}
}

// Conventional symbol names searched, in priority order, when a reference
// names a whole module or a loaded document rather than a single symbol.
var (
	DataLoaderNames = []string{"load_data", "load", "get_data"}
	TaskListNames   = []string{"TASKS", "TASKS_TEST", "TASKS_TRAIN", "TASKS_DEV", "tasks"}
	RulesNames      = []string{"RULES", "rules", "RULE_LIST"}
)

// Error reports a reference for which every fallback strategy was
// exhausted.
type Error struct {
	Ref   string
	Kind  Kind
	Tried []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("could not resolve %s from %q (tried %s)",
		e.Kind, e.Ref, strings.Join(e.Tried, ", "))
}

// Resolver binds one domain's references. BasePath anchors file
// references; OriginDir is the directory of the descriptor file itself and
// feeds the wiki-specific strategies.
type Resolver struct {
	NS        *Namespace
	BasePath  string
	OriginDir string
}

// strategy is one step of the fallback chain. found=false with a nil err
// means "not my reference, try the next one"; a non-nil err aborts the
// chain immediately.
type strategy struct {
	name string
	run  func(ref string, kind Kind) (any, bool, error)
}

// Resolve runs the kind's ordered strategy chain and returns the first
// bound value. The chain for wiki text tries the descriptor's origin
// directory before anything else; tool classes resolve symbolically only,
// since there is no way to load compiled code from an ad hoc file.
func (r *Resolver) Resolve(ref string, kind Kind) (any, error) {
	var chain []strategy
	switch kind {
	case KindWikiText:
		chain = []strategy{
			{"file:base", r.fileAtBase},
			{"file:origin-filename", r.fileAtOriginFilename},
			{"file:origin", r.fileAtOrigin},
			{"symbolic", r.symbolic},
		}
	case KindToolClass:
		chain = []strategy{
			{"symbolic", r.symbolic},
		}
	default:
		chain = []strategy{
			{"symbolic", r.symbolic},
			{"file:base", r.fileAtBase},
		}
	}

	tried := make([]string, 0, len(chain))
	for _, s := range chain {
		value, found, err := s.run(ref, kind)
		if err != nil {
			return nil, fmt.Errorf("resolve %s from %q via %s: %w", kind, ref, s.name, err)
		}
		if found {
			return value, nil
		}
		tried = append(tried, s.name)
	}
	return nil, &Error{Ref: ref, Kind: kind, Tried: tried}
}

// symbolic treats ref as "<module>.<symbol>". If ref instead names a whole
// module, its symbol table is searched for the kind's conventional names.
func (r *Resolver) symbolic(ref string, kind Kind) (any, bool, error) {
	if r.NS == nil {
		return nil, false, nil
	}
	if value, ok := r.NS.Lookup(ref); ok {
		converted, err := convert(value, kind)
		if err != nil {
			return nil, false, err
		}
		return converted, true, nil
	}
	symbols, ok := r.NS.Module(ref)
	if !ok {
		return nil, false, nil
	}
	for _, name := range conventionalNames(kind) {
		if value, exists := symbols[name]; exists {
			converted, err := convert(value, kind)
			if err != nil {
				return nil, false, err
			}
			return converted, true, nil
		}
	}
	return nil, false, nil
}

// fileAtBase treats ref as a path relative to BasePath.
func (r *Resolver) fileAtBase(ref string, kind Kind) (any, bool, error) {
	return r.loadFile(resolvePath(r.BasePath, ref), kind)
}

// fileAtOriginFilename tries the ref's filename alone next to the
// descriptor file.
func (r *Resolver) fileAtOriginFilename(ref string, kind Kind) (any, bool, error) {
	if r.OriginDir == "" {
		return nil, false, nil
	}
	return r.loadFile(filepath.Join(r.OriginDir, filepath.Base(ref)), kind)
}

// fileAtOrigin tries the full ref relative to the descriptor's directory.
func (r *Resolver) fileAtOrigin(ref string, kind Kind) (any, bool, error) {
	if r.OriginDir == "" {
		return nil, false, nil
	}
	return r.loadFile(resolvePath(r.OriginDir, ref), kind)
}

func (r *Resolver) loadFile(path string, kind Kind) (any, bool, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false, nil
	}
	value, err := loadFileAs(path, kind)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func conventionalNames(kind Kind) []string {
	switch kind {
	case KindDataLoader:
		return DataLoaderNames
	case KindTaskList:
		return TaskListNames
	case KindRulesList:
		return RulesNames
	default:
		return nil
	}
}

func resolvePath(base, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(base, ref)
}
