package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/classifier"
	"github.com/desertthunder/klix/internal/models"
	"github.com/desertthunder/klix/internal/services"
	"github.com/desertthunder/klix/internal/shared"
)

const maxBody = 32 << 20

// Dispatcher sends reports to the configured webhooks.
type Dispatcher interface {
	ReportResult(ctx context.Context, action services.Action, user *models.User)
	ReportSocialPost(ctx context.Context, post services.SocialPost, user *models.User) services.Result
	SendTestPing(ctx context.Context, user *models.User) services.Result
	ReportRegistration(ctx context.Context, fullName, email, phone string) services.Result
}

// ErrorHandling classifies an error and forwards it to the admin endpoint.
type ErrorHandling interface {
	Handle(ctx context.Context, raw any, user *models.User) classifier.Result
}

// WebhookSettings updates a user's own webhook endpoint.
type WebhookSettings interface {
	SetWebhookURL(ctx context.Context, userID, url string) error
}

// API serves the JSON endpoints under /api.
type API struct {
	dispatcher Dispatcher
	errors     ErrorHandling
	settings   WebhookSettings
	logger     *log.Logger
}

// NewAPI creates the JSON API handlers.
func NewAPI(d Dispatcher, e ErrorHandling, s WebhookSettings, logger *log.Logger) *API {
	return &API{dispatcher: d, errors: e, settings: s, logger: logger}
}

// Register adds every API route to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodPost, "/api/errors", http.HandlerFunc(a.handleError))
	r.Handle(http.MethodPost, "/api/results", http.HandlerFunc(a.handleResult))
	r.Handle(http.MethodPost, "/api/social-posts", http.HandlerFunc(a.handleSocialPost))
	r.Handle(http.MethodPost, "/api/webhook/test", http.HandlerFunc(a.handleTestPing))
	r.Handle(http.MethodPost, "/api/registrations", http.HandlerFunc(a.handleRegistration))
	r.Handle(http.MethodPut, "/api/webhook", http.HandlerFunc(a.handleSetWebhook))
}

type classification struct {
	Code          *string         `json:"code"`
	UserMessage   string          `json:"userMessage"`
	IsAuthFailure bool            `json:"isAuthFailure"`
	Kind          classifier.Kind `json:"kind"`
}

func (a *API) handleError(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Error any `json:"error"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	res := a.errors.Handle(r.Context(), body.Error, CurrentUser(r.Context()))

	out := classification{UserMessage: res.UserMessage, IsAuthFailure: res.IsAuthFailure, Kind: res.Kind()}
	if res.Code != classifier.CodeNone {
		code := string(res.Code)
		out.Code = &code
	}
	writeJSON(w, http.StatusOK, out)
}

// mediaBody is binary media sent as base64 or plain text.
type mediaBody struct {
	Result   string `json:"result"`
	MIMEType string `json:"mimeType"`
	Encoding string `json:"encoding"`
}

func (m mediaBody) media() (models.Media, error) {
	if m.Encoding != "base64" {
		return models.TextMedia(m.Result), nil
	}
	data, err := base64.StdEncoding.DecodeString(m.Result)
	if err != nil {
		return models.Media{}, err
	}
	return models.BlobMedia(data, m.MIMEType), nil
}

func (a *API) handleResult(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type   string `json:"type"`
		Prompt string `json:"prompt"`
		mediaBody
	}
	if !a.decode(w, r, &body) {
		return
	}

	actionType, ok := services.ParseActionType(body.Type)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown result type")
		return
	}
	media, err := body.media()
	if err != nil {
		writeError(w, http.StatusBadRequest, "result is not valid base64")
		return
	}

	a.dispatcher.ReportResult(r.Context(), services.Action{
		Type:     actionType,
		Prompt:   body.Prompt,
		Result:   media,
		MIMEType: body.MIMEType,
	}, CurrentUser(r.Context()))

	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (a *API) handleSocialPost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Caption      string `json:"caption"`
		Hashtags     string `json:"hashtags"`
		CTA          string `json:"cta"`
		Link         string `json:"link"`
		ScheduleDate string `json:"scheduleDate"`
		Media        []struct {
			ID     string `json:"id"`
			Type   string `json:"type"`
			Prompt string `json:"prompt"`
			mediaBody
		} `json:"media"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	post := services.SocialPost{
		Caption:      body.Caption,
		Hashtags:     body.Hashtags,
		CTA:          body.CTA,
		Link:         body.Link,
		ScheduleDate: body.ScheduleDate,
	}
	for _, m := range body.Media {
		media, err := m.media()
		if err != nil {
			writeError(w, http.StatusBadRequest, "media "+m.ID+" is not valid base64")
			return
		}
		post.Media = append(post.Media, models.HistoryItem{
			ID:     m.ID,
			Type:   models.ItemType(m.Type),
			Prompt: m.Prompt,
			Result: media,
		})
	}

	writeJSON(w, http.StatusOK, a.dispatcher.ReportSocialPost(r.Context(), post, CurrentUser(r.Context())))
}

func (a *API) handleTestPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dispatcher.SendTestPing(r.Context(), CurrentUser(r.Context())))
}

func (a *API) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	writeJSON(w, http.StatusOK, a.dispatcher.ReportRegistration(r.Context(), body.FullName, body.Email, body.Phone))
}

func (a *API) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, services.MsgNotLoggedIn)
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	err := a.settings.SetWebhookURL(r.Context(), user.ID(), body.URL)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"url": body.URL})
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		a.logger.Error("failed to save webhook url", "user_id", user.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save webhook url")
	}
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
