package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
)

// StateTTL is how long an issued OAuth state stays redeemable.
const StateTTL = 10 * time.Minute

// Callback redirect reasons, sent as /?error=<reason>.
const (
	ReasonAccessDenied = "access_denied"
	ReasonAuthFailed   = "auth_failed"
	ReasonConfigError  = "config_error"
	ReasonTokenFailed  = "token_failed"
	ReasonNoCode       = "no_code"
	ReasonAuthError    = "auth_error"
)

// StateStore issues single-use OAuth state values for CSRF protection.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

// NewStateStore creates an empty store.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]time.Time), now: time.Now}
}

// Issue returns a fresh state value.
func (s *StateStore) Issue() (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.states[state] = now.Add(StateTTL)
	return state, nil
}

// Consume redeems state. It succeeds at most once per issued value and never after expiry.
func (s *StateStore) Consume(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expires, ok := s.states[state]
	delete(s.states, state)
	s.sweep(now)
	if !ok || state == "" || !now.Before(expires) {
		return shared.ErrInvalidState
	}
	return nil
}

func (s *StateStore) sweep(now time.Time) {
	for k, exp := range s.states {
		if !now.Before(exp) {
			delete(s.states, k)
		}
	}
}

// OAuthHandler handles the authorization code callback for the browser flow.
//
// It never renders an error page: every outcome is a redirect to / with success=true or error=<reason>.
type OAuthHandler struct {
	auth   *services.AuthManager
	states *StateStore
	logger *log.Logger
}

// NewOAuthHandler creates a callback handler.
func NewOAuthHandler(auth *services.AuthManager, states *StateStore, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{auth: auth, states: states, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback"}
}

// ServeHTTP validates state, exchanges the code and redirects.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		h.logger.Warn("authorization declined", "error", e, "description", q.Get("error_description"))
		if e == ReasonAccessDenied {
			redirectError(w, r, ReasonAccessDenied)
			return
		}
		redirectError(w, r, ReasonAuthFailed)
		return
	}

	code := q.Get("code")
	if code == "" {
		redirectError(w, r, ReasonNoCode)
		return
	}

	if err := h.states.Consume(q.Get("state")); err != nil {
		h.logger.Warn("rejected callback", "error", err)
		redirectError(w, r, ReasonAuthFailed)
		return
	}

	if _, err := h.auth.Exchange(r.Context(), code); err != nil {
		reason := exchangeReason(err)
		h.logger.Error("authorization failed", "reason", reason, "error", err)
		redirectError(w, r, reason)
		return
	}

	http.Redirect(w, r, "/?success=true", http.StatusFound)
}

func exchangeReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotConfigured):
		return ReasonConfigError
	case errors.Is(err, shared.ErrAuthExchange):
		return ReasonTokenFailed
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTokenFailed
	default:
		return ReasonAuthError
	}
}

func redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(reason), http.StatusFound)
}
