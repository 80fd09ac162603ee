package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/verdict/internal/snapshotdb"
	"github.com/metalagman/verdict/internal/state"
	"github.com/metalagman/verdict/internal/task"
	"github.com/metalagman/verdict/internal/tool"
)

type markerTool struct {
	name string
}

func (m markerTool) Describe() tool.Description {
	return tool.Description{Name: m.name, Description: "marker"}
}

func (m markerTool) Invoke(snap state.Snapshot, kwargs map[string]any) (string, error) {
	return "marker", nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve_SymbolicWinsOverFile(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	// A file that literally matches the ref: unparseable on purpose, so any
	// fall-through to file resolution would surface as an error.
	writeFile(t, base, "shop.load_data", "!! not a data document !!")

	ns := NewNamespace()
	ns.Bind("shop.load_data", func() (state.Snapshot, error) {
		return state.Snapshot{"source": "symbolic"}, nil
	})

	r := &Resolver{NS: ns, BasePath: base}
	value, err := r.Resolve("shop.load_data", KindDataLoader)
	require.NoError(t, err)

	snap, err := value.(DataLoader)()
	require.NoError(t, err)
	assert.Equal(t, "symbolic", snap["source"])
}

func TestResolve_FileFallbackForDataLoader(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, base, "data.json", `{"patients": {"PAT001": {"name": "John"}}}`)

	r := &Resolver{NS: NewNamespace(), BasePath: base}
	value, err := r.Resolve("data.json", KindDataLoader)
	require.NoError(t, err)

	loader := value.(DataLoader)
	first, err := loader()
	require.NoError(t, err)
	first["patients"].(map[string]any)["PAT001"].(map[string]any)["name"] = "mutated"

	second, err := loader()
	require.NoError(t, err)
	assert.Equal(t, "John", second["patients"].(map[string]any)["PAT001"].(map[string]any)["name"],
		"each load must hand out an independent snapshot")
}

func TestResolve_ModuleConventionalNamePriority(t *testing.T) {
	t.Parallel()

	ns := NewNamespace()
	ns.Bind("healthcare.load", func() (state.Snapshot, error) {
		return state.Snapshot{"via": "load"}, nil
	})
	ns.Bind("healthcare.load_data", func() (state.Snapshot, error) {
		return state.Snapshot{"via": "load_data"}, nil
	})

	r := &Resolver{NS: ns, BasePath: t.TempDir()}
	value, err := r.Resolve("healthcare", KindDataLoader)
	require.NoError(t, err)

	snap, err := value.(DataLoader)()
	require.NoError(t, err)
	assert.Equal(t, "load_data", snap["via"], "load_data outranks load in the priority list")
}

func TestResolve_TaskFileConventionalKeys(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, base, "tasks.yaml", `
tasks:
  - user_id: wrong
    instruction: lower-priority key
    actions: []
TASKS_TEST:
  - user_id: PAT001
    instruction: Check results
    actions:
      - name: get_test_results
        kwargs:
          patient_id: PAT001
    outputs: ["Normal"]
`)

	r := &Resolver{NS: NewNamespace(), BasePath: base}
	value, err := r.Resolve("tasks.yaml", KindTaskList)
	require.NoError(t, err)

	tasks := value.([]task.Task)
	require.Len(t, tasks, 1)
	assert.Equal(t, "PAT001", tasks[0].UserID, "TASKS_TEST outranks tasks in the priority list")
	require.Len(t, tasks[0].Actions, 1)
	assert.Equal(t, "get_test_results", tasks[0].Actions[0].Name)
	assert.Equal(t, "PAT001", tasks[0].Actions[0].Kwargs["patient_id"])
	assert.Equal(t, []string{"Normal"}, tasks[0].Outputs)
}

func TestResolve_TaskFileBareList(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, base, "tasks.json", `[{"user_id": "U1", "instruction": "do", "actions": []}]`)

	r := &Resolver{NS: NewNamespace(), BasePath: base}
	value, err := r.Resolve("tasks.json", KindTaskList)
	require.NoError(t, err)

	tasks := value.([]task.Task)
	require.Len(t, tasks, 1)
	assert.Equal(t, "U1", tasks[0].UserID)
}

func TestResolve_RulesFileKeys(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, base, "rules.yaml", "RULES:\n  - Always verify identity.\n  - Never disclose records.\n")

	r := &Resolver{NS: NewNamespace(), BasePath: base}
	value, err := r.Resolve("rules.yaml", KindRulesList)
	require.NoError(t, err)
	assert.Equal(t, []string{"Always verify identity.", "Never disclose records."}, value)
}

func TestResolve_WikiOriginDirectoryStrategies(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	origin := t.TempDir()
	writeFile(t, origin, "wiki.md", "# Healthcare wiki")

	// Ref points into a directory that only exists next to the descriptor.
	r := &Resolver{NS: NewNamespace(), BasePath: base, OriginDir: origin}
	value, err := r.Resolve("docs/wiki.md", KindWikiText)
	require.NoError(t, err)
	assert.Equal(t, "# Healthcare wiki", value, "filename-alone strategy should find the wiki")

	// Full relative path from the origin directory.
	writeFile(t, origin, "docs/guide.md", "# Guide")
	value, err = r.Resolve("docs/guide.md", KindWikiText)
	require.NoError(t, err)
	assert.Equal(t, "# Guide", value)
}

func TestResolve_WikiSymbolicFallback(t *testing.T) {
	t.Parallel()

	ns := NewNamespace()
	ns.Bind("healthcare.WIKI", "bound wiki text")

	r := &Resolver{NS: ns, BasePath: t.TempDir()}
	value, err := r.Resolve("healthcare.WIKI", KindWikiText)
	require.NoError(t, err)
	assert.Equal(t, "bound wiki text", value)
}

func TestResolve_ExhaustedChain(t *testing.T) {
	t.Parallel()

	r := &Resolver{NS: NewNamespace(), BasePath: t.TempDir()}
	_, err := r.Resolve("ghost.load_data", KindDataLoader)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "ghost.load_data", rerr.Ref)
	assert.Equal(t, KindDataLoader, rerr.Kind)
	assert.NotEmpty(t, rerr.Tried)
}

func TestResolve_ToolClassSymbolicOnly(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, base, "tools.yaml", "irrelevant: true\n")

	ns := NewNamespace()
	ns.Bind("healthcare_tools.Schedule", markerTool{name: "schedule_appointment"})

	r := &Resolver{NS: ns, BasePath: base}
	value, err := r.Resolve("healthcare_tools.Schedule", KindToolClass)
	require.NoError(t, err)
	assert.Equal(t, "schedule_appointment", value.(tool.Tool).Describe().Name)

	// A file location cannot provide a compiled tool.
	_, err = r.Resolve("tools.yaml", KindToolClass)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
}

func TestResolve_SymbolicTypeMismatchFailsFast(t *testing.T) {
	t.Parallel()

	ns := NewNamespace()
	ns.Bind("shop.load_data", 42)

	r := &Resolver{NS: ns, BasePath: t.TempDir()}
	_, err := r.Resolve("shop.load_data", KindDataLoader)
	require.Error(t, err)
	var rerr *Error
	assert.False(t, errors.As(err, &rerr), "a bad binding is a hard error, not an exhausted chain")
}

func TestResolve_SnapshotTemplateBinding(t *testing.T) {
	t.Parallel()

	ns := NewNamespace()
	ns.Bind("shop.load_data", state.Snapshot{"orders": map[string]any{}})

	r := &Resolver{NS: ns, BasePath: t.TempDir()}
	value, err := r.Resolve("shop.load_data", KindDataLoader)
	require.NoError(t, err)

	loader := value.(DataLoader)
	a, err := loader()
	require.NoError(t, err)
	a["orders"].(map[string]any)["O1"] = "x"

	b, err := loader()
	require.NoError(t, err)
	assert.Empty(t, b["orders"].(map[string]any), "template snapshots must be cloned per load")
}

func TestResolve_SQLiteDataLoader(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	path := filepath.Join(base, "fixture.db")
	db, err := snapshotdb.Open(path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE users (user_id TEXT PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (user_id, name) VALUES ('U1', 'Ada')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r := &Resolver{NS: NewNamespace(), BasePath: base}
	value, err := r.Resolve("fixture.db", KindDataLoader)
	require.NoError(t, err)

	snap, err := value.(DataLoader)()
	require.NoError(t, err)
	users := snap["users"].(map[string]any)
	assert.Equal(t, "Ada", users["U1"].(map[string]any)["name"])
}

func TestNamespace_LookupAndModules(t *testing.T) {
	t.Parallel()

	ns := NewNamespace()
	ns.Bind("a.b", 1)
	ns.Bind("a.c", 2)
	ns.Bind("z.y", 3)

	v, ok := ns.Lookup("a.b")
	if !ok || v != 1 {
		t.Fatalf("Lookup(a.b) = %v, %v", v, ok)
	}
	if _, ok := ns.Lookup("a.missing"); ok {
		t.Fatalf("Lookup(a.missing) must miss")
	}
	if _, ok := ns.Lookup("missing.b"); ok {
		t.Fatalf("Lookup(missing.b) must miss")
	}
	assert.Equal(t, []string{"a", "z"}, ns.Modules())
}
