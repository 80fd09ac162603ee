package resolve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/metalagman/verdict/internal/snapshotdb"
	"github.com/metalagman/verdict/internal/state"
	"github.com/metalagman/verdict/internal/task"
	"github.com/metalagman/verdict/internal/tool"
)

// DataLoader produces a fresh, independent snapshot on every call.
type DataLoader func() (state.Snapshot, error)

// convert coerces a namespace-bound value to the kind's Go type.
func convert(value any, kind Kind) (any, error) {
	switch kind {
	case KindDataLoader:
		return convertDataLoader(value)
	case KindToolClass:
		return convertTool(value)
	case KindTaskList:
		return convertTasks(value)
	case KindWikiText:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("bound wiki value is %T, want string", value)
		}
		return s, nil
	case KindRulesList:
		return convertRules(value)
	default:
		return nil, fmt.Errorf("unknown component kind %d", kind)
	}
}

func convertDataLoader(value any) (DataLoader, error) {
	switch v := value.(type) {
	case DataLoader:
		return v, nil
	case func() (state.Snapshot, error):
		return v, nil
	case func() state.Snapshot:
		return func() (state.Snapshot, error) { return v(), nil }, nil
	case state.Snapshot:
		return templateLoader(v), nil
	case map[string]any:
		return templateLoader(state.Snapshot(v)), nil
	default:
		return nil, fmt.Errorf("bound data loader is %T, want loader func or snapshot template", value)
	}
}

func convertTool(value any) (tool.Tool, error) {
	switch v := value.(type) {
	case tool.Tool:
		return v, nil
	case func() tool.Tool:
		return v(), nil
	default:
		return nil, fmt.Errorf("bound tool is %T, want tool.Tool", value)
	}
}

func convertTasks(value any) ([]task.Task, error) {
	switch v := value.(type) {
	case []task.Task:
		return v, nil
	case func() []task.Task:
		return v(), nil
	default:
		return nil, fmt.Errorf("bound task list is %T, want []task.Task", value)
	}
}

func convertRules(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("rule entry is %T, want string", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("bound rules list is %T, want []string", value)
	}
}

// templateLoader hands out deep copies of an in-memory snapshot so callers
// never alias the template or each other.
func templateLoader(template state.Snapshot) DataLoader {
	return func() (state.Snapshot, error) {
		return template.Clone(), nil
	}
}

// loadFileAs binds a file location to the kind. Data loaders accept JSON
// and YAML snapshot documents plus SQLite fixtures; task and rules lists
// are structured documents searched for the conventional top-level keys.
func loadFileAs(path string, kind Kind) (any, error) {
	switch kind {
	case KindWikiText:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read wiki file: %w", err)
		}
		return string(raw), nil
	case KindDataLoader:
		return fileDataLoader(path)
	case KindTaskList:
		return fileTasks(path)
	case KindRulesList:
		return fileRules(path)
	default:
		return nil, fmt.Errorf("%s cannot be loaded from a file", kind)
	}
}

func fileDataLoader(path string) (DataLoader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return DataLoader(snapshotdb.Loader(path)), nil
	default:
		template, err := decodeDocument(path)
		if err != nil {
			return nil, err
		}
		snap, ok := template.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("data file %s: top level is %T, want mapping", path, template)
		}
		return templateLoader(state.Snapshot(snap)), nil
	}
}

func fileTasks(path string) ([]task.Task, error) {
	doc, err := decodeDocument(path)
	if err != nil {
		return nil, err
	}
	listDoc := doc
	if mapping, ok := doc.(map[string]any); ok {
		found := false
		for _, key := range TaskListNames {
			if v, exists := mapping[key]; exists {
				listDoc = v
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("task file %s: no %s key", path, strings.Join(TaskListNames, "/"))
		}
	}
	// Round-trip through JSON so kwargs and nested values decode uniformly.
	raw, err := json.Marshal(listDoc)
	if err != nil {
		return nil, fmt.Errorf("task file %s: %w", path, err)
	}
	var tasks []task.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("task file %s: %w", path, err)
	}
	return tasks, nil
}

func fileRules(path string) ([]string, error) {
	doc, err := decodeDocument(path)
	if err != nil {
		return nil, err
	}
	listDoc := doc
	if mapping, ok := doc.(map[string]any); ok {
		found := false
		for _, key := range RulesNames {
			if v, exists := mapping[key]; exists {
				listDoc = v
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("rules file %s: no %s key", path, strings.Join(RulesNames, "/"))
		}
	}
	return convertRules(listDoc)
}

func decodeDocument(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", filepath.Ext(path))
	}
	return doc, nil
}
