package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrNotConfigured      = errors.New("spotify credentials not configured")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidCredentials = errors.New("client_id and client_secret are required")

	// Authentication errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAuthExchange     = errors.New("authorization code exchange failed")
	ErrTokenNotFound    = errors.New("no cached token")
	ErrInvalidState     = errors.New("invalid oauth state")

	// Playback errors
	ErrNoActiveDevice = errors.New("no active device")
	ErrUpstream       = errors.New("spotify API request failed")

	// Setup session errors
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrSessionUsed     = errors.New("session already used")
	ErrSessionNotReady = errors.New("credentials not yet received")

	// Input validation errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingArgument = errors.New("missing required argument")
	ErrTimeout         = errors.New("operation timed out")
)

// UpstreamError carries the message reported by the Spotify Web API so it can be surfaced verbatim.
type UpstreamError struct {
	Message string
	Err     error
}

// NewUpstreamError wraps err, keeping its message as the user facing detail.
func NewUpstreamError(err error) *UpstreamError {
	return &UpstreamError{Message: err.Error(), Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUpstream, e.Message)
}

// Unwrap lets callers match both [ErrUpstream] and the underlying client error.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}
