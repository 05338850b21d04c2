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

// UserRepository implements [models.Repository] for user [models.User] persistence.
//
// It also serves the per-user webhook endpoint lookups made by the dispatcher.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, sequence, username, email, status, webhook_url, created_at, updated_at, deleted_at`

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	id := shared.GenerateID()
	user.SetID(id)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: validation failed: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	user.SetSequence(sequence)

	query := `
		INSERT INTO users (id, sequence, username, email, status, webhook_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(shared.Rebind(r.db, query),
		id, sequence, user.Username(), user.Email(), string(user.Status()), user.WebhookURL(), user.CreatedAt(), user.UpdatedAt())
	if shared.IsUniqueViolation(err) {
		return fmt.Errorf("%w: user with email %s already exists", shared.ErrDuplicate, user.Email())
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRow(shared.Rebind(r.db, query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// Update modifies an existing user in the database
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: validation failed: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	query := `
		UPDATE users
		SET username = ?, email = ?, status = ?, webhook_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(shared.Rebind(r.db, query),
		user.Username(), user.Email(), string(user.Status()), user.WebhookURL(), now, user.ID())
	if shared.IsUniqueViolation(err) {
		return fmt.Errorf("%w: user with email %s already exists", shared.ErrDuplicate, user.Email())
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return requireRow(result, "user", user.ID())
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(shared.Rebind(r.db, query), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return requireRow(result, "user", id)
}

// List retrieves all users matching the given criteria, excluding soft-deleted users
//
// Supported criteria: "email" (string), "status" ([models.Status] or string).
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`

	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	switch status := criteria["status"].(type) {
	case models.Status:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(shared.Rebind(r.db, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

// WebhookURL reads the user's configured endpoint. An empty string means none is configured.
//
// The value is read on every call so a changed endpoint takes effect immediately.
func (r *UserRepository) WebhookURL(ctx context.Context, userID string) (string, error) {
	query := `SELECT webhook_url FROM users WHERE id = ? AND deleted_at IS NULL`

	var url string
	err := r.db.QueryRowContext(ctx, shared.Rebind(r.db, query), userID).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: user %s", shared.ErrNotFound, userID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query webhook url: %w", err)
	}

	return url, nil
}

// SetWebhookURL replaces the user's endpoint. An empty url disables delivery.
func (r *UserRepository) SetWebhookURL(ctx context.Context, userID, url string) error {
	if err := models.ValidateWebhookURL(url); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `UPDATE users SET webhook_url = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, shared.Rebind(r.db, query), url, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update webhook url: %w", err)
	}

	return requireRow(result, "user", userID)
}

// rowScanner is satisfied by both [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		userID     string
		sequence   int
		username   string
		email      string
		status     string
		webhookURL string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&userID, &sequence, &username, &email, &status, &webhookURL, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(sequence, email, username, models.Status(status))
	user.SetID(userID)
	user.SetWebhookURL(webhookURL)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}

	return user, nil
}
