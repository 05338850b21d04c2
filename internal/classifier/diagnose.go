package classifier

import (
	"strings"

	"github.com/desertthunder/klix/internal/shared"
)

// Diagnosis is the operator-facing breakdown attached to admin error reports.
type Diagnosis struct {
	Code          Code   `json:"code"`
	ProbableCause string `json:"probableCause"`
	SuggestedFix  string `json:"suggestedFix"`
	RawMessage    string `json:"rawMessage"`
	// Summary is the first line of RawMessage.
	Summary string `json:"-"`
}

// CodeOrNA renders the code for reports.
func (d Diagnosis) CodeOrNA() string {
	if d.Code == CodeNone {
		return "N/A"
	}
	return string(d.Code)
}

const veoTokenPhrase = "veo auth token is required"

type remedy struct {
	cause string
	fix   string
}

var (
	unknownRemedy = remedy{
		cause: "Unknown.",
		fix:   "Check the technical log for more details.",
	}
	veoRemedy = remedy{
		cause: "The Veo 3.0 authentication token has expired, is missing, or is invalid.",
		fix:   "An admin needs to fetch a fresh __SESSION token from labs.google.com and update the database.",
	}
	missingKeyRemedy = remedy{
		cause: "No active API key was found in the user's session. This happens before any API call is made.",
		fix:   "The user needs to enter a personal API key on the Settings page, or claim a temporary key from the Key icon in the header.",
	}
)

var remedies = map[Code]remedy{
	Code401: {
		cause: "The API key is invalid, expired, or lacks the right permissions. This error comes from Google's servers.",
		fix:   "The user should check their API key in Settings or claim a new temporary key. If it persists, the key may need to be regenerated in Google AI Studio.",
	},
	Code400: {
		cause: "Invalid request, most likely because Google's safety filters blocked content in the prompt or image.",
		fix:   "Advise the user to rephrase the prompt with more neutral wording or use a different reference image.",
	},
	Code429: {
		cause: "The user exceeded the API rate limit, usually the free tier quota.",
		fix:   "Wait 1-2 minutes before retrying. If it happens often, enable billing on the Google Cloud project.",
	},
	Code500: {
		cause: "A temporary problem on Google's servers (Internal Server Error).",
		fix:   "Not a user-side issue. Advise the user to retry in a few minutes.",
	},
	CodeNetwork: {
		cause: "A connectivity problem on the user's side, or a firewall or ad-blocker blocking the request.",
		fix:   "Check the internet connection, reload the page, or temporarily disable VPN or firewall software.",
	},
}

func init() {
	remedies[Code403] = remedies[Code401]
	remedies[Code503] = remedies[Code500]
}

// Diagnose derives a code for the admin report and picks a probable cause and fix.
//
// The derivation order differs from [Classifier.Classify]: embedded JSON and status digits are
// checked before any keyword, and credential phrases map to 403 instead of short-circuiting.
func Diagnose(raw any) Diagnosis {
	message := Message(raw)
	lower := strings.ToLower(message)

	code, ok := embeddedCode(message)
	if !ok {
		code, ok = statusCode(message)
	}
	if !ok {
		code = diagnoseKeyword(lower)
	}

	r := unknownRemedy
	switch {
	case strings.Contains(lower, veoTokenPhrase):
		r = veoRemedy
	case (code == Code401 || code == Code403) && strings.Contains(lower, "api key not found"):
		r = missingKeyRemedy
	default:
		if known, found := remedies[code]; found {
			r = known
		}
	}

	return Diagnosis{
		Code:          code,
		ProbableCause: r.cause,
		SuggestedFix:  r.fix,
		RawMessage:    message,
		Summary:       shared.FirstLine(message),
	}
}

func diagnoseKeyword(lower string) Code {
	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "api key not valid"),
		strings.Contains(lower, "api key not found"):
		return Code403
	case strings.Contains(lower, "resource exhausted"):
		return Code429
	case strings.Contains(lower, "bad request"):
		return Code400
	case strings.Contains(lower, "server error"), strings.Contains(lower, "503"):
		return Code500
	case strings.Contains(lower, "failed to fetch"):
		return CodeNetwork
	}
	return CodeNone
}
