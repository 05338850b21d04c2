// Package classifier turns arbitrary upstream AI API failures into a normalized code and a message
// that is safe to show to users.
//
// # Classification
//
// [Classifier.Classify] first checks for definitive credential failures. Those short-circuit to a
// fixed message and fire the auth-failure hook. Otherwise a code is derived in strict order:
//
//  1. "resource exhausted" or "quota exceeded" → [Code429]
//  2. "bad request" together with "safety" or "filter" → [Code400Safety]
//  3. an embedded JSON object with a truthy error.code
//  4. a three digit token, bracketed ([NNN]) or standing alone
//  5. keyword fallbacks: "permission denied", "bad request", "server error"/"503", "failed to fetch"
//
// The code selects a fixed message. Without a code the first line of the error is shown, unless it
// is too long or carries an internal library tag.
//
// Classification never fails and never panics.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/desertthunder/klix/internal/shared"
)

// Code is a normalized error code. The empty Code means none could be derived.
type Code string

const (
	CodeNone      Code = ""
	Code400Safety Code = "400_SAFETY"
	Code400       Code = "400"
	Code401       Code = "401"
	Code403       Code = "403"
	Code429       Code = "429"
	Code500       Code = "500"
	Code503       Code = "503"
	CodeNetwork   Code = "NET"
)

// Kind is the error taxonomy shown to operators.
type Kind string

const (
	AuthFailure         Kind = "AuthFailure"
	RateLimited         Kind = "RateLimited"
	SafetyBlocked       Kind = "SafetyBlocked"
	BadRequest          Kind = "BadRequest"
	PermissionDenied    Kind = "PermissionDenied"
	UpstreamUnavailable Kind = "UpstreamUnavailable"
	NetworkError        Kind = "NetworkError"
	Unclassified        Kind = "Unclassified"
)

const (
	MessageAuthFailure = "Your connection token is invalid or has expired. An automatic update has been triggered. If this fails, please claim a new token from the Key icon in the header."
	MessageSafety      = "Request blocked by safety filters. Please try a different prompt or image."
	MessageBadRequest  = `Invalid request. This can be caused by an unsupported image format (please use PNG or JPG) or an issue with the prompt. The AI considers this an "invalid argument".`
	MessagePermission  = "Permission denied for this resource. Your token may lack permissions for this specific model, or there might be a temporary access issue. Please try again later or contact support."
	MessageRateLimited = "Server Penuh. Sila tunggu sebentar sebelum mencuba lagi."
	MessageUnavailable = "Google API is temporarily unavailable. Please try again in a few moments."
	MessageNetwork     = "Network error. Please check your internet connection."
	MessageUnexpected  = "An unexpected error occurred. Please try again. If the problem persists, check the AI API Log for details."
)

// maxFirstLine is the longest first line shown verbatim to the user.
const maxFirstLine = 150

// internalTag marks messages produced inside the AI client library.
const internalTag = "[GoogleGenerativeAI Error]"

var authPhrases = []string{
	"api key not valid",
	"api key not found",
	"invalid authentication credentials",
	"request had invalid authentication credentials",
	"failed to verify the api key",
}

var (
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
	statusCodeRe = regexp.MustCompile(`\[(\d{3})\]|\b(\d{3})\b`)
)

// Result is a classified error.
type Result struct {
	Code          Code   `json:"code"`
	UserMessage   string `json:"userMessage"`
	IsAuthFailure bool   `json:"isAuthFailure"`
	// Message is the coerced raw message the classification was derived from.
	Message string `json:"-"`
}

// Kind maps the result onto the error taxonomy.
func (r Result) Kind() Kind {
	if r.IsAuthFailure {
		return AuthFailure
	}
	switch r.Code {
	case Code429:
		return RateLimited
	case Code400Safety:
		return SafetyBlocked
	case Code400:
		return BadRequest
	case Code401, Code403:
		return PermissionDenied
	case Code500, Code503:
		return UpstreamUnavailable
	case CodeNetwork:
		return NetworkError
	default:
		return Unclassified
	}
}

// Option configures a [Classifier].
type Option func(*Classifier)

// WithAuthFailureHook registers fn to run once for every classification that detects a credential failure.
func WithAuthFailureHook(fn func()) Option {
	return func(c *Classifier) {
		c.onAuthFailure = fn
	}
}

// Classifier classifies errors. The zero value is usable and has no auth-failure hook.
type Classifier struct {
	onAuthFailure func()
}

// New creates a [Classifier] with the given options.
func New(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify classifies raw with a hookless [Classifier].
func Classify(raw any) Result {
	return (&Classifier{}).Classify(raw)
}

// Classify coerces raw to a message and classifies it.
func (c *Classifier) Classify(raw any) Result {
	message, ok := readMessage(raw)
	if !ok {
		return Result{UserMessage: MessageUnexpected, Message: message}
	}
	lower := strings.ToLower(message)

	if IsAuthFailure(lower) {
		c.fireAuthFailure()
		return Result{IsAuthFailure: true, UserMessage: MessageAuthFailure, Message: message}
	}

	code := deriveCode(message, lower)
	return Result{Code: code, UserMessage: userMessage(code, message), Message: message}
}

// fireAuthFailure runs the hook, isolating the caller from a panicking hook.
func (c *Classifier) fireAuthFailure() {
	if c == nil || c.onAuthFailure == nil {
		return
	}
	defer func() { _ = recover() }()
	c.onAuthFailure()
}

// IsAuthFailure reports whether message contains a definitive credential-failure phrase.
func IsAuthFailure(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range authPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func deriveCode(message, lower string) Code {
	if strings.Contains(lower, "resource exhausted") || strings.Contains(lower, "quota exceeded") {
		return Code429
	}
	if strings.Contains(lower, "bad request") && (strings.Contains(lower, "safety") || strings.Contains(lower, "filter")) {
		return Code400Safety
	}
	if code, ok := embeddedCode(message); ok {
		return code
	}
	if code, ok := statusCode(message); ok {
		return code
	}

	switch {
	case strings.Contains(lower, "permission denied"):
		return Code403
	case strings.Contains(lower, "bad request"):
		return Code400
	case strings.Contains(lower, "server error"), strings.Contains(lower, "503"):
		return Code500
	case strings.Contains(lower, "failed to fetch"):
		return CodeNetwork
	}
	return CodeNone
}

// statusCode finds the first bracketed or standalone three digit token.
func statusCode(message string) (Code, bool) {
	m := statusCodeRe.FindStringSubmatch(message)
	if m == nil {
		return CodeNone, false
	}
	if m[1] != "" {
		return Code(m[1]), true
	}
	return Code(m[2]), true
}

func userMessage(code Code, message string) string {
	switch code {
	case Code400Safety:
		return MessageSafety
	case Code400:
		return MessageBadRequest
	case Code401, Code403:
		return MessagePermission
	case Code429:
		return MessageRateLimited
	case Code500, Code503:
		return MessageUnavailable
	case CodeNetwork:
		return MessageNetwork
	}

	first := shared.FirstLine(message)
	if textLength(first) > maxFirstLine || strings.Contains(first, internalTag) {
		return MessageUnexpected
	}
	return first
}

// textLength counts UTF-16 code units, the unit upstream messages are measured in.
func textLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}
