package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/klix/internal/models"
	"github.com/desertthunder/klix/internal/shared"
)

// TrialUserRepository persists trial registrations.
//
// It is write-once: registrations are inserted and read back, never updated through this type.
type TrialUserRepository struct {
	db *sql.DB
}

// NewTrialUserRepository creates a new [TrialUserRepository] with the given database connection
func NewTrialUserRepository(db *sql.DB) *TrialUserRepository {
	return &TrialUserRepository{db: db}
}

const trialUserColumns = `id, sequence, username, email, phone, storyboard_usage_count, created_at`

// Insert stores a new registration with a generated ID and sequence.
//
// The email is normalized before insert. A second registration for the same normalized email
// returns an error wrapping [shared.ErrDuplicate].
func (r *TrialUserRepository) Insert(ctx context.Context, fullName, email, phone string) (*models.TrialUser, error) {
	trial := models.NewTrialUser(fullName, shared.NormalizeEmail(email), phone)
	trial.SetID(shared.GenerateID())

	if err := trial.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "trial_users")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}
	trial.SetSequence(sequence)

	query := `
		INSERT INTO trial_users (id, sequence, username, email, phone, storyboard_usage_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, shared.Rebind(r.db, query),
		trial.ID(), sequence, trial.Username(), trial.Email(), trial.Phone(), trial.StoryboardUsageCount(), trial.CreatedAt())
	if shared.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: trial user %s", shared.ErrDuplicate, trial.Email())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert trial user: %w", err)
	}

	return trial, nil
}

// GetByEmail looks a registration up by email, normalizing it first.
func (r *TrialUserRepository) GetByEmail(ctx context.Context, email string) (*models.TrialUser, error) {
	query := `SELECT ` + trialUserColumns + ` FROM trial_users WHERE email = ?`

	normalized := shared.NormalizeEmail(email)
	trial, err := scanTrialUser(r.db.QueryRowContext(ctx, shared.Rebind(r.db, query), normalized))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: trial user %s", shared.ErrNotFound, normalized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trial user: %w", err)
	}

	return trial, nil
}

// List returns every registration ordered by sequence.
func (r *TrialUserRepository) List(ctx context.Context) ([]*models.TrialUser, error) {
	query := `SELECT ` + trialUserColumns + ` FROM trial_users ORDER BY sequence ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial users: %w", err)
	}
	defer rows.Close()

	var trials []*models.TrialUser
	for rows.Next() {
		trial, err := scanTrialUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trial user: %w", err)
		}
		trials = append(trials, trial)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return trials, nil
}

// Count returns the number of rows for the normalized email. Used to check uniqueness in tests and tooling.
func (r *TrialUserRepository) Count(ctx context.Context, email string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM trial_users WHERE email = ?`
	if err := r.db.QueryRowContext(ctx, shared.Rebind(r.db, query), shared.NormalizeEmail(email)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trial users: %w", err)
	}
	return n, nil
}

func scanTrialUser(row rowScanner) (*models.TrialUser, error) {
	var (
		id        string
		sequence  int
		username  string
		email     string
		phone     string
		usage     int
		createdAt time.Time
	)

	if err := row.Scan(&id, &sequence, &username, &email, &phone, &usage, &createdAt); err != nil {
		return nil, err
	}

	trial := models.NewTrialUser(username, email, phone)
	trial.SetID(id)
	trial.SetSequence(sequence)
	trial.SetStoryboardUsageCount(usage)
	trial.SetCreatedAt(createdAt)

	return trial, nil
}
