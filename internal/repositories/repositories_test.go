package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/desertthunder/klix/internal/models"
	"github.com/desertthunder/klix/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User", models.StatusLifetime)

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
		if user.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User", models.StatusSubscription)
		user.SetWebhookURL("https://hooks.example.com/u1")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}
		if retrieved.Email() != user.Email() {
			t.Errorf("expected email %s, got %s", user.Email(), retrieved.Email())
		}
		if retrieved.Status() != models.StatusSubscription {
			t.Errorf("expected status subscription, got %s", retrieved.Status())
		}
		if retrieved.WebhookURL() != "https://hooks.example.com/u1" {
			t.Errorf("expected webhook url to round-trip, got %s", retrieved.WebhookURL())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User", models.StatusTrial)

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		retrieved.SetStatus(models.StatusLifetime)
		if err := repo.Update(retrieved); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		updated, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if updated.Status() != models.StatusLifetime {
			t.Errorf("expected status lifetime, got %s", updated.Status())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User", models.StatusTrial)

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(user.ID()); err == nil {
			t.Error("expected error when getting deleted user")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		for _, u := range []*models.User{
			models.NewUser(0, "a@example.com", "A", models.StatusTrial),
			models.NewUser(0, "b@example.com", "B", models.StatusLifetime),
			models.NewUser(0, "c@example.com", "C", models.StatusLifetime),
		} {
			if err := repo.Create(u); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 users, got %d", len(all))
		}
		if all[0].Email() != "a@example.com" {
			t.Errorf("expected ordering by sequence, first was %s", all[0].Email())
		}

		lifetime, err := repo.List(map[string]any{"status": models.StatusLifetime})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(lifetime) != 2 {
			t.Errorf("expected 2 lifetime users, got %d", len(lifetime))
		}

		byEmail, err := repo.List(map[string]any{"email": "b@example.com"})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(byEmail) != 1 || byEmail[0].Username() != "B" {
			t.Errorf("expected user B, got %v", byEmail)
		}
	})

	t.Run("WebhookURL", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		ctx := context.Background()
		repo := NewUserRepository(db)
		user := models.NewUser(0, "hook@example.com", "Hook", models.StatusLifetime)
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		url, err := repo.WebhookURL(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to read webhook url: %v", err)
		}
		if url != "" {
			t.Errorf("expected empty webhook url, got %q", url)
		}

		if err := repo.SetWebhookURL(ctx, user.ID(), "https://hooks.example.com/new"); err != nil {
			t.Fatalf("failed to set webhook url: %v", err)
		}

		url, err = repo.WebhookURL(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to read webhook url: %v", err)
		}
		if url != "https://hooks.example.com/new" {
			t.Errorf("expected updated webhook url, got %q", url)
		}

		if err := repo.SetWebhookURL(ctx, user.ID(), ""); err != nil {
			t.Fatalf("failed to clear webhook url: %v", err)
		}
		url, _ = repo.WebhookURL(ctx, user.ID())
		if url != "" {
			t.Errorf("expected cleared webhook url, got %q", url)
		}
	})
}

func TestTrialUserRepository(t *testing.T) {
	t.Run("Insert", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrialUserRepository(db)
		trial, err := repo.Insert(context.Background(), "Aina Rahman", "  Aina@Example.COM ", "+60123456789")
		if err != nil {
			t.Fatalf("failed to insert trial user: %v", err)
		}

		if trial.Email() != "aina@example.com" {
			t.Errorf("expected normalized email, got %s", trial.Email())
		}
		if trial.ID() == "" {
			t.Error("expected ID to be set")
		}
		if trial.StoryboardUsageCount() != 0 {
			t.Errorf("expected zero usage count, got %d", trial.StoryboardUsageCount())
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		ctx := context.Background()
		repo := NewTrialUserRepository(db)
		if _, err := repo.Insert(ctx, "Aina", "aina@example.com", "0123"); err != nil {
			t.Fatalf("failed to insert trial user: %v", err)
		}

		trial, err := repo.GetByEmail(ctx, "AINA@example.com")
		if err != nil {
			t.Fatalf("failed to get trial user: %v", err)
		}
		if trial.Username() != "Aina" || trial.Phone() != "0123" {
			t.Errorf("unexpected trial user: %s %s", trial.Username(), trial.Phone())
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		ctx := context.Background()
		repo := NewTrialUserRepository(db)
		for _, email := range []string{"one@example.com", "two@example.com"} {
			if _, err := repo.Insert(ctx, "Someone", email, ""); err != nil {
				t.Fatalf("failed to insert trial user: %v", err)
			}
		}

		trials, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list trial users: %v", err)
		}
		if len(trials) != 2 {
			t.Fatalf("expected 2 trial users, got %d", len(trials))
		}
		if trials[0].Sequence() >= trials[1].Sequence() {
			t.Error("expected ascending sequence order")
		}
	})
}
