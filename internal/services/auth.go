package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

// DefaultUpstreamTimeout bounds every call to the Spotify accounts service and Web API.
const DefaultUpstreamTimeout = 10 * time.Second

// Scopes are the permissions requested from the user. They are fixed.
var Scopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
}

// AuthHandle is an OAuth client built for one specific set of credentials. It is never mutated: a credential change
// produces a new handle.
type AuthHandle struct {
	fingerprint string
	clientID    string
	oauth       *oauth2.Config
}

// ClientID returns the client id the handle was built for.
func (h *AuthHandle) ClientID() string { return h.clientID }

// AuthManager binds the persisted [shared.Config] to the OAuth flow and the token cache.
//
// It holds at most one [AuthHandle]. The handle is rebuilt whenever the fingerprint of
// (client_id, client_secret, redirect_uri) changes, and every credential mutation goes through [AuthManager.MutateConfig]
// so that config writes, token cache deletes and token refresh writes never interleave.
type AuthManager struct {
	mu         sync.Mutex
	config     *shared.ConfigStore
	tokens     models.Repository
	logger     *log.Logger
	endpoint   oauth2.Endpoint
	httpClient *http.Client
	handle     *AuthHandle
}

// AuthOption configures an [AuthManager].
type AuthOption func(*AuthManager)

// WithEndpoint overrides the Spotify accounts endpoint.
func WithEndpoint(e oauth2.Endpoint) AuthOption {
	return func(m *AuthManager) { m.endpoint = e }
}

// WithHTTPClient sets the client used for code exchange and token refresh.
func WithHTTPClient(c *http.Client) AuthOption {
	return func(m *AuthManager) { m.httpClient = c }
}

// WithAuthLogger sets the logger. Tokens are never logged.
func WithAuthLogger(l *log.Logger) AuthOption {
	return func(m *AuthManager) { m.logger = l }
}

// NewAuthManager creates a manager in the Absent state.
func NewAuthManager(config *shared.ConfigStore, tokens models.Repository, opts ...AuthOption) *AuthManager {
	m := &AuthManager{
		config:     config,
		tokens:     tokens,
		endpoint:   spotify.Endpoint,
		httpClient: &http.Client{Timeout: DefaultUpstreamTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
	}
	return m
}

// Config returns the current persisted config.
func (m *AuthManager) Config() shared.Config {
	return m.config.Load()
}

// Get returns the handle for the current credentials, building it if absent or stale.
func (m *AuthManager) Get() (*AuthHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get()
}

func (m *AuthManager) get() (*AuthHandle, error) {
	cfg := m.config.Load()
	if !cfg.HasCredentials() {
		return nil, shared.ErrNotConfigured
	}

	fp := fingerprint(cfg)
	if m.handle != nil && m.handle.fingerprint == fp {
		return m.handle, nil
	}

	m.handle = &AuthHandle{
		fingerprint: fp,
		clientID:    cfg.ClientID,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint:     m.endpoint,
		},
	}
	m.logger.Debug("built oauth handle", "client_id", cfg.ClientID, "redirect_uri", cfg.RedirectURI)
	return m.handle, nil
}

// Invalidate drops the cached handle. The next [AuthManager.Get] rebuilds it.
func (m *AuthManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handle = nil
}

// AuthURL returns the provider authorize URL carrying state.
func (m *AuthManager) AuthURL(state string) (string, error) {
	h, err := m.Get()
	if err != nil {
		return "", err
	}
	return h.oauth.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for a token and caches it. The cache is never consulted.
func (m *AuthManager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	h, err := m.Get()
	if err != nil {
		return nil, err
	}

	token, err := h.oauth.Exchange(m.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthExchange, err)
	}

	if err := m.persist(ctx, h, token); err != nil {
		if errors.Is(err, errStaleHandle) {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthExchange, err)
		}
		return nil, err
	}
	m.logger.Info("authorization code exchanged", "client_id", h.clientID)
	return token, nil
}

// CachedToken returns a usable token without user interaction, refreshing it when it has expired.
//
// It fails with [shared.ErrNotConfigured] or [shared.ErrNotAuthenticated]. A refresh the provider did not answer with
// a 4xx is a [shared.UpstreamError].
func (m *AuthManager) CachedToken(ctx context.Context) (*oauth2.Token, error) {
	_, token, err := m.cachedToken(ctx)
	return token, err
}

// cachedToken returns the token together with the handle it belongs to. The handle must still be current after the
// cache read and after any refresh.
func (m *AuthManager) cachedToken(ctx context.Context) (*AuthHandle, *oauth2.Token, error) {
	h, err := m.Get()
	if err != nil {
		return nil, nil, err
	}

	rec, err := m.tokens.Get(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrTokenNotFound) {
			m.logger.Warn("failed to read token cache", "error", err)
		}
		return nil, nil, shared.ErrNotAuthenticated
	}
	if !rec.BelongsTo(h.clientID) || !m.current(h) {
		return nil, nil, shared.ErrNotAuthenticated
	}
	if rec.Token.Valid() {
		return h, rec.Token, nil
	}
	if rec.Token.RefreshToken == "" {
		return nil, nil, shared.ErrNotAuthenticated
	}

	fresh, err := h.oauth.TokenSource(m.oauthContext(ctx), rec.Token).Token()
	if err != nil {
		m.logger.Warn("token refresh failed", "client_id", h.clientID, "error", err)
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && (re.Response == nil || re.Response.StatusCode < http.StatusInternalServerError) {
			return nil, nil, fmt.Errorf("%w: refresh rejected", shared.ErrNotAuthenticated)
		}
		return nil, nil, shared.NewUpstreamError(err)
	}
	if err := m.persist(ctx, h, fresh); err != nil {
		if errors.Is(err, errStaleHandle) {
			return nil, nil, shared.ErrNotAuthenticated
		}
		m.logger.Warn("failed to persist refreshed token", "error", err)
	}
	return h, fresh, nil
}

// current reports whether h was built for the credentials in the config right now.
func (m *AuthManager) current(h *AuthHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, err := m.get()
	return err == nil && cur.fingerprint == h.fingerprint
}

// IsAuthenticated reports whether [AuthManager.CachedToken] would succeed.
func (m *AuthManager) IsAuthenticated(ctx context.Context) bool {
	_, err := m.CachedToken(ctx)
	return err == nil
}

// Status summarizes credential and token readiness.
func (m *AuthManager) Status(ctx context.Context) models.SetupStatus {
	has := m.config.Load().HasCredentials()
	return models.NewSetupStatus(has, has && m.IsAuthenticated(ctx))
}

// Client returns an HTTP client that authorizes requests with the cached token. Tokens refreshed by the client are
// written back to the cache while the credentials they belong to are still current.
func (m *AuthManager) Client(ctx context.Context) (*http.Client, error) {
	h, token, err := m.cachedToken(ctx)
	if err != nil {
		return nil, err
	}

	octx := m.oauthContext(ctx)
	src := &refreshableTokenSource{
		base: h.oauth.TokenSource(octx, token),
		last: token.AccessToken,
		onRefresh: func(t *oauth2.Token) {
			err := m.persist(context.WithoutCancel(ctx), h, t)
			if err != nil && !errors.Is(err, errStaleHandle) {
				m.logger.Warn("failed to persist refreshed token", "error", err)
			}
		},
	}
	return oauth2.NewClient(octx, src), nil
}

// MutateConfig is the single exclusive region for config writes. It loads the config, applies fn, saves it, and when
// the client credentials changed deletes the token cache and drops the handle before releasing the lock.
func (m *AuthManager) MutateConfig(ctx context.Context, fn func(*shared.Config) error) (shared.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var before shared.Config
	after, err := m.config.Update(func(c *shared.Config) error {
		before = *c
		return fn(c)
	})
	if err != nil {
		return after, err
	}

	if before.ClientID == after.ClientID && before.ClientSecret == after.ClientSecret {
		return after, nil
	}

	m.handle = nil
	if err := m.tokens.Delete(ctx); err != nil {
		return after, fmt.Errorf("credentials saved but token cache could not be cleared: %w", err)
	}
	m.logger.Info("client credentials changed, token cache cleared", "client_id", after.ClientID)
	return after, nil
}

// SetCredentials stores a new client id and secret. Both are required.
func (m *AuthManager) SetCredentials(ctx context.Context, creds models.Credentials) error {
	if !creds.Valid() {
		return shared.ErrInvalidCredentials
	}
	_, err := m.MutateConfig(ctx, func(c *shared.Config) error {
		c.ClientID = creds.ClientID
		c.ClientSecret = creds.ClientSecret
		return nil
	})
	return err
}

// ClearCredentials resets the client id and secret, which also signs the user out.
func (m *AuthManager) ClearCredentials(ctx context.Context) error {
	_, err := m.MutateConfig(ctx, func(c *shared.Config) error {
		c.ClientID = ""
		c.ClientSecret = ""
		return nil
	})
	return err
}

// errStaleHandle is returned by persist when the credentials changed after the token was obtained.
var errStaleHandle = errors.New("credentials changed while the token was in flight")

// persist writes token to the cache unless the handle it was obtained with has been replaced.
func (m *AuthManager) persist(ctx context.Context, h *AuthHandle, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.get()
	if err != nil || current.fingerprint != h.fingerprint {
		m.logger.Debug("discarding token for stale credentials", "client_id", h.clientID)
		return errStaleHandle
	}

	rec := &models.TokenRecord{ClientID: h.clientID, Token: token, UpdatedAt: time.Now()}
	if err := m.tokens.Put(ctx, rec); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	return nil
}

func (m *AuthManager) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

func fingerprint(c shared.Config) string {
	sum := sha256.New()
	for _, part := range []string{c.ClientID, c.ClientSecret, c.RedirectURI} {
		sum.Write([]byte(part))
		sum.Write([]byte{0})
	}
	return hex.EncodeToString(sum.Sum(nil))
}

// refreshableTokenSource reports every new access token handed out by base.
type refreshableTokenSource struct {
	mu        sync.Mutex
	base      oauth2.TokenSource
	last      string
	onRefresh func(*oauth2.Token)
}

func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if t.AccessToken != s.last {
		s.last = t.AccessToken
		if s.onRefresh != nil {
			s.onRefresh(t)
		}
	}
	return t, nil
}
