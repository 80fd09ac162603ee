// Package snapshotdb loads domain snapshots out of SQLite fixture files.
// A fixture database maps onto a snapshot as table -> row key -> row, so a
// domain can ship its seed data as a .db file instead of JSON.
package snapshotdb

import (
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/metalagman/verdict/internal/state"
)

// Open opens a SQLite fixture with the required pragmas.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	stmts := []string{
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA journal_mode=WAL;",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			if stmt == "PRAGMA journal_mode=WAL;" {
				log.Warn().Err(err).Msg("sqlite: WAL mode not enabled")
				continue
			}
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return nil
}

// Provision applies goose migrations from fsys/dir to the fixture, so seed
// schemas are built the same way on every machine.
func Provision(db *sql.DB, fsys fs.FS, dir string) error {
	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Load materializes every user table into a snapshot. Rows are keyed by
// their first column when it is textual, by rowid position otherwise, so
// the result is deterministic for a given fixture.
func Load(db *sql.DB) (state.Snapshot, error) {
	tableRows, err := db.Query(
		`SELECT name FROM sqlite_master
		 WHERE type='table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'goose_%'
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer tableRows.Close()

	var tables []string
	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := tableRows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	snap := make(state.Snapshot, len(tables))
	for _, table := range tables {
		records, err := loadTable(db, table)
		if err != nil {
			return nil, fmt.Errorf("load table %s: %w", table, err)
		}
		snap[table] = records
	}
	return snap, nil
}

func loadTable(db *sql.DB, table string) (map[string]any, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %q ORDER BY rowid", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make(map[string]any)
	index := 0
	for rows.Next() {
		values := make([]any, len(cols))
		dests := make([]any, len(cols))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}

		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = normalizeValue(values[i])
		}

		key := rowKey(values, index)
		records[key] = record
		index++
	}
	return records, rows.Err()
}

func rowKey(values []any, index int) string {
	if len(values) > 0 {
		switch kv := values[0].(type) {
		case string:
			return kv
		case int64:
			return strconv.FormatInt(kv, 10)
		}
	}
	return strconv.Itoa(index)
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Loader adapts a fixture path to the data-loader contract: each call
// opens the fixture fresh and returns an independent snapshot.
func Loader(path string) func() (state.Snapshot, error) {
	return func() (state.Snapshot, error) {
		db, err := Open(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return Load(db)
	}
}
