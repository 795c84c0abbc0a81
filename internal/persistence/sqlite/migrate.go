package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationFilePattern matches {version}_{description}.sql with a numeric
// version prefix that determines execution order.
var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Migration is one embedded schema change with its tracking metadata.
type Migration struct {
	Version     string
	Description string
	SQL         string
	Checksum    string
}

// Migrate applies all pending embedded migrations in version order, tracking
// applied versions in the schema_migrations table. Each migration runs in its
// own transaction; a failure aborts the sequence and leaves earlier
// migrations applied.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if err := cp.initVersionTable(ctx); err != nil {
		return err
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	applied, err := cp.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		started := time.Now()
		if err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("sqlite: migration %s (%s) failed: %w", m.Version, m.Description, err)
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)",
				m.Version, m.Checksum, time.Now().UTC().Format(time.RFC3339), time.Since(started).Milliseconds(),
			)
			return err
		}); err != nil {
			return err
		}
	}

	return nil
}

// AppliedMigrations returns the versions recorded in schema_migrations in
// application order.
func (cp *ConnectionPool) AppliedMigrations(ctx context.Context) ([]string, error) {
	if err := cp.initVersionTable(ctx); err != nil {
		return nil, err
	}

	rows, err := cp.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version ASC")
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, mapSQLiteError(err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (cp *ConnectionPool) initVersionTable(ctx context.Context) error {
	_, err := cp.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version      TEXT PRIMARY KEY,
			checksum     TEXT NOT NULL,
			applied_at   TEXT NOT NULL,
			execution_ms INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: failed to initialise schema_migrations: %w", err)
	}
	return nil
}

func (cp *ConnectionPool) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	versions, err := cp.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]struct{}, len(versions))
	for _, version := range versions {
		applied[version] = struct{}{}
	}
	return applied, nil
}

func loadMigrations() ([]Migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to read embedded migrations: %w", err)
	}

	seen := make(map[string]string, len(entries))
	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		match := migrationFilePattern.FindStringSubmatch(name)
		if match == nil {
			return nil, fmt.Errorf("sqlite: migration file %q does not match {version}_{description}.sql", name)
		}
		version, description := match[1], match[2]
		if prior, dup := seen[version]; dup {
			return nil, fmt.Errorf("sqlite: duplicate migration version %s (%s and %s)", version, prior, name)
		}
		seen[version] = name

		content, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to read migration %q: %w", name, err)
		}
		sum := sha256.Sum256(content)

		migrations = append(migrations, Migration{
			Version:     version,
			Description: strings.ReplaceAll(description, "_", " "),
			SQL:         string(content),
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}
