package services

import (
	"context"

	"github.com/desertthunder/klix/internal/models"
)

// ProfileStore reads a user's current webhook endpoint.
//
// Implementations must not cache: a changed endpoint applies to the next call.
type ProfileStore interface {
	WebhookURL(ctx context.Context, userID string) (string, error)
}

// TrialStore persists trial registrations keyed by normalized email.
type TrialStore interface {
	// Insert returns an error wrapping [shared.ErrDuplicate] when the email is already registered.
	Insert(ctx context.Context, fullName, email, phone string) (*models.TrialUser, error)
}

// ErrorReporter receives raw errors for the admin endpoint.
type ErrorReporter interface {
	ReportError(ctx context.Context, raw any, user *models.User)
}

// Result is the outcome of an explicit-result operation, shown to the user as-is.
type Result struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Delivery Delivery `json:"delivery"`
}

func failure(message string) Result {
	return Result{Success: false, Message: message, Delivery: NotIssued}
}
