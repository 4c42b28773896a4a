// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// MockPlayer is a test double for services.Player. It records every call and returns Err (and State for PlayerState).
type MockPlayer struct {
	mu    sync.Mutex
	State *spotify.PlayerState
	Err   error
	Calls []string
	Args  []any
}

func (m *MockPlayer) record(name string, arg any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
	m.Args = append(m.Args, arg)
	return m.Err
}

// CallCount returns the number of recorded upstream calls.
func (m *MockPlayer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockPlayer) PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error) {
	if err := m.record("PlayerState", nil); err != nil {
		return nil, err
	}
	if m.State == nil {
		return &spotify.PlayerState{}, nil
	}
	return m.State, nil
}

func (m *MockPlayer) Play(ctx context.Context) error     { return m.record("Play", nil) }
func (m *MockPlayer) Pause(ctx context.Context) error    { return m.record("Pause", nil) }
func (m *MockPlayer) Next(ctx context.Context) error     { return m.record("Next", nil) }
func (m *MockPlayer) Previous(ctx context.Context) error { return m.record("Previous", nil) }
func (m *MockPlayer) Volume(ctx context.Context, percent int) error {
	return m.record("Volume", percent)
}
func (m *MockPlayer) Shuffle(ctx context.Context, shuffle bool) error {
	return m.record("Shuffle", shuffle)
}
func (m *MockPlayer) Repeat(ctx context.Context, state string) error {
	return m.record("Repeat", state)
}
func (m *MockPlayer) Seek(ctx context.Context, position int) error {
	return m.record("Seek", position)
}

// OAuthServer is a fake Spotify accounts service.
//
// The authorization_code grant accepts any code except "bad". The refresh_token grant accepts any refresh token
// except "revoked". Issued access tokens are "access-<n>".
type OAuthServer struct {
	*httptest.Server
	Exchanges atomic.Int32
	Refreshes atomic.Int32
	issued    atomic.Int32
}

// NewOAuthServer starts a fake accounts service that is closed with the test.
func NewOAuthServer(t *testing.T) *OAuthServer {
	t.Helper()
	s := &OAuthServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", s.token)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns an [oauth2.Endpoint] pointing at the fake service.
func (s *OAuthServer) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   s.URL + "/authorize",
		TokenURL:  s.URL + "/api/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func (s *OAuthServer) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var reject bool
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.Exchanges.Add(1)
		reject = r.PostForm.Get("code") == "bad"
	case "refresh_token":
		s.Refreshes.Add(1)
		reject = r.PostForm.Get("refresh_token") == "revoked"
	default:
		reject = true
	}

	w.Header().Set("Content-Type", "application/json")
	if reject {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		return
	}

	n := s.issued.Add(1)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  "access-" + strconv.Itoa(int(n)),
		"token_type":    "Bearer",
		"refresh_token": "refresh-" + strconv.Itoa(int(n)),
		"expires_in":    3600,
	})
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
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

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
