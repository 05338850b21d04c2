package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Status is a user's account tier.
type Status string

const (
	StatusTrial        Status = "trial"
	StatusSubscription Status = "subscription"
	StatusLifetime     Status = "lifetime"
	StatusAdmin        Status = "admin"
	StatusInactive     Status = "inactive"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusTrial, StatusSubscription, StatusLifetime, StatusAdmin, StatusInactive:
		return st, nil
	default:
		return "", fmt.Errorf("unknown user status %q", s)
	}
}

// User is an account profile. The session layer owns its lifecycle; the reporting core only reads it.
type User struct {
	id         string
	sequence   int
	username   string
	email      string
	status     Status
	webhookURL string
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewUser creates a [User] with creation timestamps set to now.
func NewUser(sequence int, email, username string, status Status) *User {
	now := time.Now()
	return &User{
		sequence:  sequence,
		email:     email,
		username:  username,
		status:    status,
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() string { return u.id }
func (u *User) Sequence() int { return u.sequence }
func (u *User) Username() string { return u.username }
func (u *User) Email() string { return u.email }
func (u *User) Status() Status { return u.status }
func (u *User) WebhookURL() string { return u.webhookURL }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string) { u.id = id }
func (u *User) SetSequence(seq int) { u.sequence = seq }
func (u *User) SetStatus(s Status) { u.status = s }
func (u *User) SetWebhookURL(raw string) { u.webhookURL = raw }
func (u *User) SetCreatedAt(t time.Time) { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time) { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }
func (u *User) SetUsername(username string) { u.username = username }
func (u *User) SetEmail(email string) { u.email = email }

// IsAdmin reports whether the user may watch the operator event stream.
func (u *User) IsAdmin() bool {
	return u.status == StatusAdmin
}

// IsTrial reports whether webhook-dependent features are gated off for this user.
func (u *User) IsTrial() bool {
	return u.status == StatusTrial
}

// Validate checks required fields and the webhook URL shape.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("user ID is required")
	}
	if strings.TrimSpace(u.email) == "" {
		return fmt.Errorf("user email is required")
	}
	if _, err := ParseStatus(string(u.status)); err != nil {
		return err
	}
	return ValidateWebhookURL(u.webhookURL)
}

// ValidateWebhookURL accepts an empty URL (disabled) or an absolute http(s) URL.
func ValidateWebhookURL(raw string) error {
	if raw == "" {
		return nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid webhook URL: scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid webhook URL: missing host")
	}
	return nil
}
