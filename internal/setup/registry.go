// Package setup implements short-lived, single-use pairing sessions that let a second device hand API credentials
// to the server.
//
// A session moves pending → completed when the phone submits credentials, and is deleted when the server pulls them
// into its config. Expired sessions are removed lazily on every registry access; there is no background timer.
package setup

import (
	"errors"
	"sync"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
)

// TTL is how long a pairing session stays usable.
const TTL = 600 * time.Second

// idBytes is the amount of randomness in a session id (256 bits).
const idBytes = 32

// Status of a [Session].
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Session is a snapshot of a pairing session. Credentials are nil until submitted.
type Session struct {
	ID          string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Status      Status
	Credentials *models.Credentials
}

func (s *Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Registry is the in-memory table of pairing sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
	newID    func() (string, error)
}

// Option configures a [Registry].
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator replaces the crypto-random id source.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(r *Registry) { r.newID = fn }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
		newID:    func() (string, error) { return shared.RandomToken(idBytes) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a new pending session.
func (r *Registry) Create() (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	id, err := r.newID()
	if err != nil {
		return Session{}, err
	}
	if _, taken := r.sessions[id]; taken {
		return Session{}, errors.New("session id collision")
	}

	s := &Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
		Status:    StatusPending,
	}
	r.sessions[id] = s
	return s.snapshot(), nil
}

// Get returns the session or [shared.ErrSessionNotFound] when it is unknown or expired.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}
	return s.snapshot(), nil
}

// Submit records credentials for a pending session. Exactly one of several concurrent submits succeeds; the others get
// [shared.ErrSessionUsed].
func (r *Registry) Submit(id string, creds models.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id)
	if err != nil {
		return err
	}
	if s.Status != StatusPending {
		return shared.ErrSessionUsed
	}
	if !creds.Valid() {
		return shared.ErrInvalidCredentials
	}

	s.Credentials = &creds
	s.Status = StatusCompleted
	return nil
}

// Complete hands the submitted credentials to apply and deletes the session once apply succeeds. If apply fails the
// session is left as it was so the caller can retry.
//
// apply runs with the registry lock held; it must not call back into the registry.
func (r *Registry) Complete(id string, apply func(models.Credentials) error) (models.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id)
	if err != nil {
		return models.Credentials{}, err
	}
	if s.Status != StatusCompleted || s.Credentials == nil {
		return models.Credentials{}, shared.ErrSessionNotReady
	}

	creds := *s.Credentials
	if apply != nil {
		if err := apply(creds); err != nil {
			return models.Credentials{}, err
		}
	}
	delete(r.sessions, id)
	return creds, nil
}

// Len returns the number of live sessions after sweeping.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(r.now())
	return len(r.sessions)
}

// ExpiresIn returns the whole seconds left before s expires, never negative.
func (r *Registry) ExpiresIn(s Session) int {
	return ExpiresIn(s, r.now())
}

// ExpiresIn returns the whole seconds left at now before s expires, never negative.
func ExpiresIn(s Session, now time.Time) int {
	left := s.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// lookup sweeps, then finds a live session. Callers hold r.mu.
func (r *Registry) lookup(id string) (*Session, error) {
	now := r.now()
	r.sweep(now)

	s, ok := r.sessions[id]
	if !ok || s.expired(now) {
		return nil, shared.ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) sweep(now time.Time) {
	for id, s := range r.sessions {
		if s.expired(now) {
			delete(r.sessions, id)
		}
	}
}

func (s *Session) snapshot() Session {
	c := *s
	if s.Credentials != nil {
		creds := *s.Credentials
		c.Credentials = &creds
	}
	return c
}
