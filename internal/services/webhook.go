package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/classifier"
	"github.com/desertthunder/klix/internal/events"
	"github.com/desertthunder/klix/internal/models"
	"github.com/desertthunder/klix/internal/shared"
	"github.com/dustin/go-humanize"
)

// User-facing result messages.
const (
	MsgNotAuthenticated  = "User not authenticated."
	MsgNotLoggedIn       = "You are not logged in."
	MsgTrialAccount      = "Webhooks are not available for trial accounts."
	MsgNoWebhookURL      = "No webhook URL is configured. Please set it in Settings."
	MsgNoSavedWebhookURL = "No webhook URL is saved for your account."
	MsgInvalidSchedule   = "Invalid schedule date."
	MsgPostSent          = "Post data sent to webhook successfully."
	MsgPostFailed        = "Could not send request to webhook URL. Check the log for details."
	MsgTestSent          = "Test payload sent. Please check your webhook service to confirm receipt. (Note: the server's response is not inspected, so receipt cannot be confirmed here)."
	MsgTestConfirmed     = "Test payload delivered. Your webhook service acknowledged the request."
	MsgTestFailed        = "Test failed. Could not send request. Check the log for details."
	MsgDuplicateTrial    = "This email is already registered as a trial user."
	MsgRegistrationOK    = "Registration submitted successfully!"

	// TestPingMessage is the body of every test ping.
	TestPingMessage = "This is a test message from MONOKlix.com"
)

// Payload kinds, used for metrics labels and events.
const (
	KindError        = "error"
	KindResult       = "result"
	KindSocialPost   = "social_post"
	KindTest         = "test"
	KindRegistration = "registration"
)

const unknownIdentity = "unknown"

// WebhookService dispatches payloads to the admin and per-user endpoints.
type WebhookService struct {
	profiles ProfileStore
	trials   TrialStore

	poster      Poster
	adminPoster Poster
	queue       *Queue
	bus         *events.Bus
	logger      *log.Logger
	now         func() time.Time

	errorURL        string
	registrationURL string
}

// WebhookOption configures a [WebhookService].
type WebhookOption func(*WebhookService)

// WithPoster sets the poster used for per-user and registration endpoints.
func WithPoster(p Poster) WebhookOption {
	return func(s *WebhookService) { s.poster = p }
}

// WithAdminPoster sets the poster used for the admin error endpoint.
func WithAdminPoster(p Poster) WebhookOption {
	return func(s *WebhookService) { s.adminPoster = p }
}

// WithBus publishes delivery outcomes to bus.
func WithBus(bus *events.Bus) WebhookOption {
	return func(s *WebhookService) { s.bus = bus }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) WebhookOption {
	return func(s *WebhookService) { s.logger = l }
}

// WithClock overrides time.Now for payload timestamps.
func WithClock(now func() time.Time) WebhookOption {
	return func(s *WebhookService) { s.now = now }
}

// NewWebhookService creates the dispatcher and starts its delivery queue. Call Close to drain it.
//
// Posters not set by options are built with [NewPosterFromConfig].
func NewWebhookService(cfg shared.WebhookConfig, profiles ProfileStore, trials TrialStore, opts ...WebhookOption) *WebhookService {
	s := &WebhookService{
		profiles:        profiles,
		trials:          trials,
		now:             time.Now,
		errorURL:        cfg.ErrorURL,
		registrationURL: cfg.RegistrationURL,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	s.logger = s.logger.WithPrefix("webhooks")

	if s.poster == nil || s.adminPoster == nil {
		user, admin := NewPosterFromConfig(cfg, nil)
		if s.poster == nil {
			s.poster = user
		}
		if s.adminPoster == nil {
			s.adminPoster = admin
		}
	}

	s.queue = NewQueue(QueueOptions{
		Workers:   cfg.Workers,
		Size:      cfg.QueueSize,
		RateLimit: cfg.RateLimit,
	}, s.logger, s.jobDone)

	return s
}

// Close drains the delivery queue, giving up when ctx ends.
func (s *WebhookService) Close(ctx context.Context) error {
	return s.queue.Close(ctx)
}

// ReportError queues a diagnostic report of raw for the admin endpoint. It never blocks on the network.
//
// A nil user reports "unknown" identity fields. No admin URL means no report.
func (s *WebhookService) ReportError(ctx context.Context, raw any, user *models.User) {
	if s.errorURL == "" {
		return
	}

	d := classifier.Diagnose(raw)
	details, err := json.MarshalIndent(errorDetails{
		Code:          d.CodeOrNA(),
		ProbableCause: d.ProbableCause,
		SuggestedFix:  d.SuggestedFix,
		RawMessage:    d.RawMessage,
	}, "", "  ")
	if err != nil {
		s.logger.Error("failed to encode error details", "error", err)
		return
	}

	report := ErrorReport{
		ErrorMessage: d.Summary,
		ErrorObject:  string(details),
		Timestamp:    s.now().UnixMilli(),
		UserID:       unknownIdentity,
		Username:     unknownIdentity,
		Email:        unknownIdentity,
	}
	if user != nil {
		report.UserID = orUnknown(user.ID())
		report.Username = orUnknown(user.Username())
		report.Email = orUnknown(user.Email())
	}

	url := s.errorURL
	s.enqueue(Job{
		Kind:   KindError,
		UserID: report.UserID,
		Poster: s.adminPoster,
		Resolve: func(context.Context) (string, any, error) {
			return url, report, nil
		},
	})
}

// ReportResult queues a generated result for the user's endpoint. It never blocks on the network.
//
// Missing users, trial users and users without an endpoint are skipped silently.
func (s *WebhookService) ReportResult(ctx context.Context, action Action, user *models.User) {
	if user == nil {
		s.logger.Error("user not authenticated, cannot trigger webhook", "type", action.Type)
		return
	}
	if user.IsTrial() {
		return
	}

	userID := user.ID()
	s.enqueue(Job{
		Kind:   KindResult,
		UserID: userID,
		Poster: s.poster,
		Resolve: func(ctx context.Context) (string, any, error) {
			url, err := s.profiles.WebhookURL(ctx, userID)
			if err != nil {
				return "", nil, fmt.Errorf("%w: endpoint lookup: %v", errSkip, err)
			}
			if url == "" {
				return "", nil, nil
			}

			result, mimeType := encodeAction(action)
			return url, ActionResult{
				Type:      action.Type,
				Prompt:    action.Prompt,
				Result:    result,
				MIMEType:  mimeType,
				Timestamp: s.now().UnixMilli(),
				UserID:    userID,
			}, nil
		},
	})
}

// ReportSocialPost sends a composed post with its media to the user's endpoint and waits for the send.
func (s *WebhookService) ReportSocialPost(ctx context.Context, post SocialPost, user *models.User) Result {
	url, res, ok := s.userEndpoint(ctx, user, MsgNotAuthenticated, MsgNoWebhookURL)
	if !ok {
		s.skipped(KindSocialPost, user, res.Message)
		return res
	}

	schedule, err := NormalizeScheduleDate(post.ScheduleDate)
	if err != nil {
		s.logger.Warn("invalid schedule date", "user_id", user.ID(), "error", err)
		return failure(MsgInvalidSchedule)
	}

	media, err := encodeSocialMedia(ctx, post.Media)
	if err != nil {
		s.logger.Error("failed to encode social media", "user_id", user.ID(), "error", err)
		return failure(MsgPostFailed)
	}

	payload := SocialPostPayload{
		Type:         KindSocialPost,
		Caption:      post.Caption,
		Hashtags:     post.Hashtags,
		CTA:          post.CTA,
		Link:         post.Link,
		ScheduleDate: schedule,
		Media:        media,
		Timestamp:    s.now().UnixMilli(),
		UserID:       user.ID(),
	}

	s.logger.Debug("sending social post",
		"user_id", user.ID(), "items", len(media), "size", humanize.Bytes(mediaSize(post.Media)))

	d, err := s.poster.Post(ctx, url, payload)
	s.sent(KindSocialPost, user.ID(), url, d, err)
	if err != nil {
		return failure(MsgPostFailed)
	}
	return Result{Success: true, Message: MsgPostSent, Delivery: d}
}

// SendTestPing sends a minimal payload to the user's endpoint so they can check their configuration.
func (s *WebhookService) SendTestPing(ctx context.Context, user *models.User) Result {
	url, res, ok := s.userEndpoint(ctx, user, MsgNotLoggedIn, MsgNoSavedWebhookURL)
	if !ok {
		s.skipped(KindTest, user, res.Message)
		return res
	}

	d, err := s.poster.Post(ctx, url, TestPing{
		Type:      KindTest,
		Message:   TestPingMessage,
		Timestamp: s.now().UnixMilli(),
		UserID:    user.ID(),
	})
	s.sent(KindTest, user.ID(), url, d, err)
	if err != nil {
		return failure(MsgTestFailed)
	}
	if d == Confirmed {
		return Result{Success: true, Message: MsgTestConfirmed, Delivery: d}
	}
	return Result{Success: true, Message: MsgTestSent, Delivery: d}
}

// ReportRegistration stores a trial registration and, when configured, queues a notice for the
// automation endpoint. The notice's fate never changes the result.
func (s *WebhookService) ReportRegistration(ctx context.Context, fullName, email, phone string) Result {
	trial, err := s.trials.Insert(ctx, fullName, email, phone)
	if errors.Is(err, shared.ErrDuplicate) {
		s.logger.Warn("duplicate trial registration", "email", shared.NormalizeEmail(email))
		return failure(MsgDuplicateTrial)
	}
	if err != nil {
		s.logger.Error("failed to register trial user", "error", err)
		return failure(fmt.Sprintf("Failed to submit registration: %v", err))
	}

	s.publish(events.New(events.Registration, "trial user registered", "email", trial.Email()))

	if s.registrationURL != "" {
		notice := RegistrationNotice{
			FullName:  fullName,
			Email:     email,
			Phone:     phone,
			Timestamp: s.now().UTC().Format(time.RFC3339),
		}
		url := s.registrationURL
		s.enqueue(Job{
			Kind:   KindRegistration,
			Poster: s.poster,
			Resolve: func(context.Context) (string, any, error) {
				return url, notice, nil
			},
		})
	}

	return Result{Success: true, Message: MsgRegistrationOK, Delivery: NotIssued}
}

// userEndpoint applies the session, trial and endpoint gates shared by the explicit-result operations.
func (s *WebhookService) userEndpoint(ctx context.Context, user *models.User, noUser, noURL string) (string, Result, bool) {
	if user == nil || user.ID() == "" {
		return "", failure(noUser), false
	}
	if user.IsTrial() {
		return "", failure(MsgTrialAccount), false
	}

	url, err := s.profiles.WebhookURL(ctx, user.ID())
	if err != nil {
		s.logger.Warn("webhook endpoint lookup failed", "user_id", user.ID(), "error", err)
		return "", failure(noURL), false
	}
	if url == "" {
		return "", failure(noURL), false
	}
	return url, Result{}, true
}

func (s *WebhookService) enqueue(j Job) {
	if err := s.queue.Enqueue(j); err != nil {
		webhookDropped.WithLabelValues(j.Kind).Inc()
		s.logger.Warn("dropping webhook job", "kind", j.Kind, "user_id", j.UserID, "error", err)
		s.publish(events.New(events.WebhookFailed, err.Error(), "kind", j.Kind, "user_id", j.UserID))
	}
}

// jobDone logs and publishes the outcome of a queued job.
func (s *WebhookService) jobDone(out JobOutcome) {
	if out.Skipped {
		recordSkipped(out.Job.Kind)
		reason := "no endpoint"
		if out.Err != nil {
			reason = out.Err.Error()
		}
		s.logger.Debug("webhook skipped", "kind", out.Job.Kind, "user_id", out.Job.UserID, "reason", reason)
		s.publish(events.New(events.WebhookSkipped, reason, "kind", out.Job.Kind, "user_id", out.Job.UserID))
		return
	}
	s.sent(out.Job.Kind, out.Job.UserID, out.URL, out.Delivery, out.Err)
}

// sent records a finished send. Published events carry only the endpoint's origin; the full URL
// often embeds a trigger secret.
func (s *WebhookService) sent(kind, userID, url string, d Delivery, err error) {
	recordDispatch(kind, d, err)
	endpoint := RedactEndpoint(url)
	if err != nil {
		s.logger.Error("failed to trigger webhook", "kind", kind, "user_id", userID, "endpoint", endpoint, "error", err)
		s.publish(events.New(events.WebhookFailed, redactMessage(err.Error(), url, endpoint),
			"kind", kind, "user_id", userID, "endpoint", endpoint))
		return
	}
	s.logger.Info("webhook triggered", "kind", kind, "user_id", userID, "endpoint", endpoint, "delivery", d)
	s.publish(events.New(events.WebhookIssued, d.String(), "kind", kind, "user_id", userID, "endpoint", endpoint))
}

func (s *WebhookService) skipped(kind string, user *models.User, reason string) {
	recordSkipped(kind)
	userID := ""
	if user != nil {
		userID = user.ID()
	}
	s.publish(events.New(events.WebhookSkipped, reason, "kind", kind, "user_id", userID))
}

func (s *WebhookService) publish(evt events.Event) {
	if s.bus != nil {
		s.bus.Publish(evt)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknownIdentity
	}
	return s
}

// RedactEndpoint reduces a webhook URL to scheme and host.
func RedactEndpoint(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := neturl.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid endpoint"
	}
	return u.Scheme + "://" + u.Host
}

// redactMessage replaces every spelling of raw in msg with endpoint. Transport errors quote the
// request URL.
func redactMessage(msg, raw, endpoint string) string {
	if raw == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, raw, endpoint)
	if u, err := neturl.Parse(raw); err == nil {
		u.User = nil
		msg = strings.ReplaceAll(msg, u.String(), endpoint)
		if u.RawQuery != "" {
			u.RawQuery = ""
			msg = strings.ReplaceAll(msg, u.String(), endpoint)
		}
	}
	return msg
}
