package services

import "github.com/desertthunder/klix/internal/models"

// ActionType is the kind of generated result relayed to the user's endpoint.
type ActionType string

const (
	ActionText  ActionType = "text"
	ActionImage ActionType = "image"
	ActionVideo ActionType = "video"
	ActionAudio ActionType = "audio"
)

// ParseActionType accepts the lower-case wire names and the capitalized history item names.
func ParseActionType(s string) (ActionType, bool) {
	switch ActionType(s) {
	case ActionText, ActionImage, ActionVideo, ActionAudio:
		return ActionType(s), true
	}
	switch models.ItemType(s) {
	case models.ItemText:
		return ActionText, true
	case models.ItemImage, models.ItemCanvas:
		return ActionImage, true
	case models.ItemVideo:
		return ActionVideo, true
	case models.ItemAudio:
		return ActionAudio, true
	}
	return "", false
}

// Action is a successful generation to relay with [WebhookService.ReportResult].
type Action struct {
	Type   ActionType
	Prompt string
	Result models.Media
	// MIMEType applies to text results. Blob results always use the blob's own type.
	MIMEType string
}

// SocialPost is a composed post for [WebhookService.ReportSocialPost].
type SocialPost struct {
	Caption  string
	Hashtags string
	CTA      string
	Link     string
	// ScheduleDate is any accepted date-time form; empty means unscheduled.
	ScheduleDate string
	Media        []models.HistoryItem
}

// ErrorReport is sent to the admin endpoint.
type ErrorReport struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorObject  string `json:"errorObject"`
	Timestamp    int64  `json:"timestamp"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

// errorDetails is indented into [ErrorReport.ErrorObject].
type errorDetails struct {
	Code          string `json:"code"`
	ProbableCause string `json:"probableCause"`
	SuggestedFix  string `json:"suggestedFix"`
	RawMessage    string `json:"rawMessage"`
}

// ActionResult is sent to the user's endpoint after a successful generation.
type ActionResult struct {
	Type      ActionType `json:"type"`
	Prompt    string     `json:"prompt"`
	Result    string     `json:"result"`
	MIMEType  string     `json:"mimeType,omitempty"`
	Timestamp int64      `json:"timestamp"`
	UserID    string     `json:"userId"`
}

// SocialMedia is one encoded attachment of a [SocialPostPayload].
type SocialMedia struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
	FileName string `json:"fileName"`
}

// SocialPostPayload is sent to the user's endpoint for scheduling.
type SocialPostPayload struct {
	Type         string        `json:"type"`
	Caption      string        `json:"caption"`
	Hashtags     string        `json:"hashtags"`
	CTA          string        `json:"cta"`
	Link         string        `json:"link"`
	ScheduleDate string        `json:"schedule_date"`
	Media        []SocialMedia `json:"media"`
	Timestamp    int64         `json:"timestamp"`
	UserID       string        `json:"userId"`
}

// TestPing validates a user's endpoint.
type TestPing struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"userId"`
}

// RegistrationNotice goes to the automation endpoint after a trial sign-up.
// Timestamp is RFC 3339.
type RegistrationNotice struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Timestamp string `json:"timestamp"`
}
