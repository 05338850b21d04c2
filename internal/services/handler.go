package services

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/classifier"
	"github.com/desertthunder/klix/internal/events"
	"github.com/desertthunder/klix/internal/models"
	"github.com/desertthunder/klix/internal/shared"
)

// ErrorHandler is the entry point for a failed AI call: it logs the error, queues the admin report
// and returns the classification to show the user.
type ErrorHandler struct {
	classifier *classifier.Classifier
	reporter   ErrorReporter
	logger     *log.Logger
}

// NewErrorHandler wires a classifier to a reporter. reporter may be nil to disable admin reports.
func NewErrorHandler(c *classifier.Classifier, reporter ErrorReporter, logger *log.Logger) *ErrorHandler {
	if c == nil {
		c = classifier.New()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ErrorHandler{classifier: c, reporter: reporter, logger: logger.WithPrefix("errors")}
}

// Handle reports raw and classifies it. The report is queued before classification so it is sent
// whatever the classification decides.
func (h *ErrorHandler) Handle(ctx context.Context, raw any, user *models.User) classifier.Result {
	h.logger.Error("original API error", "error", classifier.Message(raw))

	if h.reporter != nil {
		h.reporter.ReportError(ctx, raw, user)
	}

	res := h.classifier.Classify(raw)
	errorsClassified.WithLabelValues(string(res.Kind())).Inc()
	return res
}

// CredentialFailedHook returns a classifier hook that publishes [events.CredentialFailed] on bus.
func CredentialFailedHook(bus *events.Bus) func() {
	return func() {
		bus.Publish(events.New(events.CredentialFailed, classifier.MessageAuthFailure))
	}
}
