package snapshotdb

import (
	"embed"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/verdict/internal/canonical"
)

//go:embed testdata/migrations/*.sql
var fixtureMigrations embed.FS

func newFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Provision(db, fixtureMigrations, "testdata/migrations"))
	return path
}

func TestLoad_MaterializesTables(t *testing.T) {
	path := newFixture(t)

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	snap, err := Load(db)
	require.NoError(t, err)

	patients, ok := snap["patients"].(map[string]any)
	require.True(t, ok, "patients table missing: %v", snap)
	require.Len(t, patients, 2)

	john, ok := patients["PAT001"].(map[string]any)
	require.True(t, ok, "rows must key by first textual column")
	assert.Equal(t, "John Smith", john["name"])
	assert.Equal(t, int64(44), john["age"])

	_, hasGoose := snap["goose_db_version"]
	assert.False(t, hasGoose, "migration bookkeeping must not leak into the snapshot")
}

func TestLoad_Deterministic(t *testing.T) {
	path := newFixture(t)
	loader := Loader(path)

	a, err := loader()
	require.NoError(t, err)
	b, err := loader()
	require.NoError(t, err)

	ha, err := canonical.HashState(a)
	require.NoError(t, err)
	hb, err := canonical.HashState(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestLoader_SnapshotsAreIndependent(t *testing.T) {
	path := newFixture(t)
	loader := Loader(path)

	a, err := loader()
	require.NoError(t, err)
	a["patients"].(map[string]any)["PAT001"].(map[string]any)["name"] = "mutated"

	b, err := loader()
	require.NoError(t, err)
	assert.Equal(t, "John Smith", b["patients"].(map[string]any)["PAT001"].(map[string]any)["name"])
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "fixture.db"))
	require.Error(t, err)
}
