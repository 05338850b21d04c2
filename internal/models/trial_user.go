package models

import (
	"fmt"
	"strings"
	"time"
)

// TrialUser is a trial registration. Email is stored normalized and is unique.
type TrialUser struct {
	id                   string
	sequence             int
	username             string
	email                string
	phone                string
	storyboardUsageCount int
	createdAt            time.Time
}

// NewTrialUser creates a [TrialUser] with a zero usage count.
//
// The caller is responsible for normalizing email.
func NewTrialUser(username, email, phone string) *TrialUser {
	return &TrialUser{
		username:  username,
		email:     email,
		phone:     phone,
		createdAt: time.Now(),
	}
}

func (t *TrialUser) ID() string { return t.id }
func (t *TrialUser) Sequence() int { return t.sequence }
func (t *TrialUser) Username() string { return t.username }
func (t *TrialUser) Email() string { return t.email }
func (t *TrialUser) Phone() string { return t.phone }
func (t *TrialUser) StoryboardUsageCount() int { return t.storyboardUsageCount }
func (t *TrialUser) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt equals CreatedAt; trial registrations are write-once.
func (t *TrialUser) UpdatedAt() time.Time { return t.createdAt }

func (t *TrialUser) SetID(id string) { t.id = id }
func (t *TrialUser) SetSequence(seq int) { t.sequence = seq }
func (t *TrialUser) SetCreatedAt(ts time.Time) { t.createdAt = ts }
func (t *TrialUser) SetStoryboardUsageCount(n int) { t.storyboardUsageCount = n }

// Validate checks required fields.
func (t *TrialUser) Validate() error {
	if t.id == "" {
		return fmt.Errorf("trial user ID is required")
	}
	if strings.TrimSpace(t.username) == "" {
		return fmt.Errorf("trial user name is required")
	}
	if !strings.Contains(t.email, "@") {
		return fmt.Errorf("trial user email %q is invalid", t.email)
	}
	return nil
}
