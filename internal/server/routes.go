package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/events"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Users      UserLookup
	Settings   WebhookSettings
	Dispatcher Dispatcher
	Errors     ErrorHandling
	Bus        *events.Bus
	Logger     *log.Logger
}

// NewRouter builds the full klix HTTP API.
func NewRouter(d Deps) *BasicRouter {
	logger := d.Logger.WithPrefix("http")

	r := NewBasicRouter()
	r.Use(RecoverMiddleware(logger), LoggingMiddleware(logger), SessionMiddleware(d.Users, logger))

	NewAPI(d.Dispatcher, d.Errors, d.Settings, logger).Register(r)
	r.Handler(NewEventStream(d.Bus, logger))

	r.Handle(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "subscribers": d.Bus.Subscribers()})
	}))
	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
