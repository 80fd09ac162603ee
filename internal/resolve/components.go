package resolve

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/metalagman/verdict/internal/domain"
	"github.com/metalagman/verdict/internal/task"
	"github.com/metalagman/verdict/internal/tool"
)

// Components is the bundle of live values bound for one domain instance.
// Rebuilt fresh per environment; binding is pure, so callers may cache by
// (domain, split) if they want to.
type Components struct {
	DataLoader     DataLoader
	Tools          *tool.Registry
	Tasks          []task.Task
	Wiki           string
	Rules          []string
	TerminateTools map[string]struct{}
}

// Bind resolves every field of the descriptor into live components. split
// selects the task list; origin is the descriptor's own file location
// (empty for built-ins) and anchors the wiki fallback strategies.
func Bind(d *domain.Descriptor, ns *Namespace, basePath, origin, split string) (*Components, error) {
	originDir := ""
	if origin != "" {
		originDir = filepath.Dir(origin)
	}
	r := &Resolver{NS: ns, BasePath: basePath, OriginDir: originDir}

	loaderValue, err := r.Resolve(d.DataLoader, KindDataLoader)
	if err != nil {
		return nil, fmt.Errorf("domain %s: %w", d.Name, err)
	}

	tools := make([]tool.Tool, 0, len(d.Tools))
	for _, ref := range d.Tools {
		value, err := r.Resolve(ref.SymbolRef(), KindToolClass)
		if err != nil {
			return nil, fmt.Errorf("domain %s tool %s: %w", d.Name, ref.Name, err)
		}
		tools = append(tools, value.(tool.Tool))
	}
	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		return nil, fmt.Errorf("domain %s: %w", d.Name, err)
	}

	splitRef, ok := d.TaskSplits[split]
	if !ok {
		available := d.Splits()
		sort.Strings(available)
		return nil, fmt.Errorf("domain %s: task split %q not available (have %s)",
			d.Name, split, strings.Join(available, ", "))
	}
	tasksValue, err := r.Resolve(splitRef, KindTaskList)
	if err != nil {
		return nil, fmt.Errorf("domain %s split %s: %w", d.Name, split, err)
	}

	wikiValue, err := r.Resolve(d.WikiFile, KindWikiText)
	if err != nil {
		return nil, fmt.Errorf("domain %s: %w", d.Name, err)
	}

	rulesValue, err := r.Resolve(d.RulesFile, KindRulesList)
	if err != nil {
		return nil, fmt.Errorf("domain %s: %w", d.Name, err)
	}

	terminate := make(map[string]struct{}, len(d.TerminateTools))
	for _, name := range d.TerminateTools {
		terminate[name] = struct{}{}
	}

	return &Components{
		DataLoader:     loaderValue.(DataLoader),
		Tools:          registry,
		Tasks:          tasksValue.([]task.Task),
		Wiki:           wikiValue.(string),
		Rules:          rulesValue.([]string),
		TerminateTools: terminate,
	}, nil
}
