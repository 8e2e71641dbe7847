package pg

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"

	migrations "github.com/dropDatabas3/hellotodo/migrations/postgres"
)

// Formato de archivo: {version}_{name}.sql (ej: 0001_app_user.sql)
var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

type migration struct {
	version int
	name    string
	sql     string
}

func parseMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []migration
	for _, e := range entries {
		m := migrationFilePattern.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		version, _ := strconv.Atoi(m[1])
		body, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		out = append(out, migration{version: version, name: m[2], sql: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// Migrate aplica las migraciones embebidas pendientes y devuelve las versiones aplicadas.
func Migrate(ctx context.Context, db DB) ([]int, error) {
	return migrate(ctx, db, migrations.FS)
}

func migrate(ctx context.Context, db DB, fsys fs.FS) ([]int, error) {
	const ensure = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := db.Exec(ctx, ensure); err != nil {
		return nil, fmt.Errorf("pg: creating migrations table: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("pg: reading applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	all, err := parseMigrations(fsys)
	if err != nil {
		return nil, fmt.Errorf("pg: parsing migrations: %w", err)
	}

	var done []int
	for _, m := range all {
		if applied[m.version] {
			continue
		}
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return done, fmt.Errorf("pg: applying migration %04d_%s: %w", m.version, m.name, err)
		}
		if _, err := db.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name); err != nil {
			return done, fmt.Errorf("pg: recording migration %d: %w", m.version, err)
		}
		done = append(done, m.version)
	}
	return done, nil
}
