// Outbound JSON POSTs to webhook endpoints
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/klix/internal/shared"
	"golang.org/x/oauth2"
)

// Delivery says how far a POST got. It never claims remote processing.
type Delivery int

const (
	NotIssued Delivery = iota
	Issued
	Confirmed
)

func (d Delivery) String() string {
	switch d {
	case Issued:
		return "issued"
	case Confirmed:
		return "confirmed"
	default:
		return "not_issued"
	}
}

// MarshalText renders the delivery by name in JSON.
func (d Delivery) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Poster sends a payload to url as JSON.
type Poster interface {
	Post(ctx context.Context, url string, payload any) (Delivery, error)
}

// maxDrain bounds how much of a response body is read before closing it.
const maxDrain = 64 << 10

// HTTPPoster is the [Poster] backed by an [http.Client].
type HTTPPoster struct {
	httpClient *http.Client
	confirm    bool
}

// PosterOption configures an [HTTPPoster].
type PosterOption func(*HTTPPoster)

// WithHTTPClient replaces the underlying client. Options applied later wrap this client.
func WithHTTPClient(client *http.Client) PosterOption {
	return func(p *HTTPPoster) {
		if client != nil {
			c := *client
			p.httpClient = &c
		}
	}
}

// WithTimeout sets the client timeout. Zero disables it.
func WithTimeout(d time.Duration) PosterOption {
	return func(p *HTTPPoster) { p.httpClient.Timeout = d }
}

// WithConfirmDelivery makes 2xx responses report [Confirmed] instead of [Issued].
func WithConfirmDelivery(confirm bool) PosterOption {
	return func(p *HTTPPoster) { p.confirm = confirm }
}

// WithBearerToken sends "Authorization: Bearer <token>" on every request. An empty token is ignored.
func WithBearerToken(token string) PosterOption {
	return func(p *HTTPPoster) {
		if token == "" {
			return
		}
		base := p.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		p.httpClient.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		}
	}
}

// NewHTTPPoster creates a poster with a 30 second timeout unless overridden.
func NewHTTPPoster(opts ...PosterOption) *HTTPPoster {
	p := &HTTPPoster{httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPosterFromConfig builds the user-endpoint and admin-endpoint posters from the webhook settings.
//
// Only the admin poster carries the bearer token.
func NewPosterFromConfig(cfg shared.WebhookConfig, client *http.Client) (user, admin *HTTPPoster) {
	base := []PosterOption{
		WithHTTPClient(client),
		WithTimeout(cfg.Timeout()),
		WithConfirmDelivery(cfg.ConfirmDelivery),
	}
	user = NewHTTPPoster(base...)
	admin = NewHTTPPoster(append(base, WithBearerToken(cfg.ErrorToken))...)
	return user, admin
}

// Post marshals payload and POSTs it with Content-Type application/json.
//
// A transport failure returns [NotIssued] and an error wrapping [shared.ErrDeliveryFailed].
// Any completed exchange is at least [Issued], whatever the status code.
func (p *HTTPPoster) Post(ctx context.Context, url string, payload any) (Delivery, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return NotIssued, fmt.Errorf("%w: failed to encode payload: %v", shared.ErrInvalidInput, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return NotIssued, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return NotIssued, fmt.Errorf("%w: %v", shared.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	if p.confirm && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Confirmed, nil
	}
	return Issued, nil
}
