// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"
)

// Post is a single request captured by [RecordingPoster].
type Post struct {
	URL     string
	Payload any
}

// RecordingPoster records every post instead of sending it.
//
// It satisfies services.Poster. Delivery values are returned as ints so this package does not
// import services; set Delivery to the value the test expects back.
type RecordingPoster struct {
	mu       sync.Mutex
	posts    []Post
	Err      error
	Delivery int
}

func (p *RecordingPoster) Record(url string, payload any) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, Post{URL: url, Payload: payload})
	return p.Delivery, p.Err
}

// Posts returns a copy of the recorded posts.
func (p *RecordingPoster) Posts() []Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Post(nil), p.posts...)
}

// Count returns the number of recorded posts.
func (p *RecordingPoster) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.posts)
}

// StaticProfiles maps user IDs to webhook URLs. Unknown users get Err (or an empty URL).
type StaticProfiles struct {
	mu   sync.Mutex
	URLs map[string]string
	Err  error
}

func (s *StaticProfiles) WebhookURL(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.URLs[userID], nil
}

// Set changes a user's URL.
func (s *StaticProfiles) Set(userID, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.URLs == nil {
		s.URLs = map[string]string{}
	}
	s.URLs[userID] = url
}

// FixedClock returns a clock func that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// NewResponse builds a minimal response with the given status and body.
func NewResponse(status int, body io.ReadCloser) *http.Response {
	if body == nil {
		body = http.NoBody
	}
	return &http.Response{StatusCode: status, Body: body, Header: make(http.Header)}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
