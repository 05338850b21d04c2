package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// migrationLockKey serializes migrators sharing one postgres database, e.g. several `klix serve`
// replicas starting together.
const migrationLockKey int64 = 0x6b6c6978

// Migration is one numbered schema change, loaded from NNNN_name_up.sql and NNNN_name_down.sql.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// parseMigrationName splits "0001_create_trial_users_up.sql" into 1, "create_trial_users", "up".
func parseMigrationName(file string) (version int, name, direction string, ok bool) {
	base, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", "", false
	}

	switch {
	case strings.HasSuffix(base, "_up"):
		base, direction = strings.TrimSuffix(base, "_up"), "up"
	case strings.HasSuffix(base, "_down"):
		base, direction = strings.TrimSuffix(base, "_down"), "down"
	default:
		return 0, "", "", false
	}

	prefix, name, found := strings.Cut(base, "_")
	if !found {
		return 0, "", "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", "", false
	}
	return version, name, direction, true
}

// loadMigrations reads the embedded scripts sorted by version. A version missing either direction is an error.
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, direction, ok := parseMigrationName(entry.Name())
		if !ok {
			continue
		}

		content, err := migrationFiles.ReadFile(path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if direction == "up" {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", m.Version)
		}
		migrations = append(migrations, *m)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })
	return migrations, nil
}

// migrationsTableDDL returns the bookkeeping table for the connected driver.
func migrationsTableDDL(db *sql.DB) string {
	if IsPostgres(db) {
		return `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	}
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
}

// RunMigrations applies every pending migration, each in its own transaction.
//
// On postgres each transaction holds an advisory lock and re-checks the version, so concurrent
// migrators apply every script exactly once.
func RunMigrations(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if _, err := db.Exec(migrationsTableDDL(db)); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("failed to apply migration %04d_%s: %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if current == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	i := slices.IndexFunc(migrations, func(m Migration) bool { return m.Version == current })
	if i < 0 {
		return fmt.Errorf("migration version %d not found", current)
	}

	m := migrations[i]
	if err := inMigrationTx(db, func(tx *sql.Tx) error {
		if err := execScript(tx, m.Down); err != nil {
			return err
		}
		_, err := tx.Exec(Rebind(db, "DELETE FROM schema_migrations WHERE version = ?"), m.Version)
		return err
	}); err != nil {
		return fmt.Errorf("failed to rollback migration %04d_%s: %w", m.Version, m.Name, err)
	}
	return nil
}

// AppliedMigrations lists schema_migrations in version order.
func AppliedMigrations(db *sql.DB) ([]AppliedMigration, error) {
	rows, err := db.Query("SELECT version, name, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var a AppliedMigration
		if err := rows.Scan(&a.Version, &a.Name, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		applied = append(applied, a)
	}
	return applied, rows.Err()
}

func currentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

func applyMigration(db *sql.DB, m Migration) error {
	return inMigrationTx(db, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRow(Rebind(db, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)"), m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			return nil
		}

		if err := execScript(tx, m.Up); err != nil {
			return err
		}
		_, err = tx.Exec(Rebind(db, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"), m.Version, m.Name)
		return err
	})
}

// inMigrationTx runs fn in a transaction, taking the advisory lock first on postgres.
func inMigrationTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if IsPostgres(db) {
		if _, err := tx.Exec("SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// execScript runs each ";"-separated statement of script with "--" comments stripped.
func execScript(tx *sql.Tx, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var statements []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line, _, _ = strings.Cut(line, "--")
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
