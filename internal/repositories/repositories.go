// Package repositories implements SQL persistence for the reporting core.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Queries are written with "?" placeholders and rebound for postgres by [shared.Rebind].
//
// Key Implementations:
//   - [UserRepository] : Profiles with status and self-service webhook URL
//   - [TrialUserRepository] : Trial registrations keyed uniquely by normalized email
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/klix/internal/shared"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., user #42).
// They are NOT exposed in CLI output but used internally for sorting and debugging.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// requireRow turns a zero-row update into [shared.ErrNotFound].
func requireRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s not found or already deleted", shared.ErrNotFound, kind, id)
	}
	return nil
}
