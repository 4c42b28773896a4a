// package models defines the data model for the playback proxy
package models

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Repository defines the storage operations for the single cached token.
// Implementations handle file or database interactions.
type Repository interface {
	Get(ctx context.Context) (*TokenRecord, error) // Get returns the stored record or [shared.ErrTokenNotFound]
	Put(ctx context.Context, r *TokenRecord) error // Put replaces the stored record
	Delete(ctx context.Context) error               // Delete removes the stored record, if any
}

// TokenRecord is a cached OAuth token bound to the client id that obtained it.
type TokenRecord struct {
	ClientID  string        `json:"client_id"`
	Token     *oauth2.Token `json:"token"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BelongsTo reports whether the record was issued for clientID.
func (r *TokenRecord) BelongsTo(clientID string) bool {
	return r != nil && r.Token != nil && clientID != "" && r.ClientID == clientID
}

// Playback is the normalized playback state returned by GET /api/playback.
type Playback struct {
	IsPlaying  bool    `json:"is_playing"`
	TrackName  string  `json:"track_name"`
	ArtistName string  `json:"artist_name"`
	AlbumName  string  `json:"album_name"`
	AlbumArt   *string `json:"album_art"`
	DurationMS int     `json:"duration_ms"`
	ProgressMS int     `json:"progress_ms"`
	Volume     int     `json:"volume"`
	Shuffle    bool    `json:"shuffle"`
	Repeat     string  `json:"repeat"`
}

// Credentials are the Spotify application keys a user enters during setup.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Valid reports whether both fields are non-empty.
func (c Credentials) Valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// SetupStatus describes what the user still has to do before playback works.
type SetupStatus struct {
	HasCredentials  bool `json:"has_credentials"`
	IsAuthenticated bool `json:"is_authenticated"`
	NeedsSetup      bool `json:"needs_setup"`
	NeedsAuth       bool `json:"needs_auth"`
}

// NewSetupStatus derives the needs_* flags from the two facts that matter.
func NewSetupStatus(hasCredentials, authenticated bool) SetupStatus {
	return SetupStatus{
		HasCredentials:  hasCredentials,
		IsAuthenticated: authenticated,
		NeedsSetup:      !hasCredentials,
		NeedsAuth:       hasCredentials && !authenticated,
	}
}

// QRSession is returned when a pairing session is created.
type QRSession struct {
	SessionID     string `json:"session_id"`
	QRCodeDataURL string `json:"qr_code_data_url"`
	SetupURL      string `json:"setup_url"`
	ExpiresIn     int    `json:"expires_in"`
}

// QRStatus is the polling view of a pairing session.
type QRStatus struct {
	Status              string `json:"status"`
	CredentialsReceived bool   `json:"credentials_received"`
	ExpiresIn           int    `json:"expires_in"`
}

// QRSubmission is posted by the second device.
type QRSubmission struct {
	SessionID string `json:"session_id"`
	Credentials
}

// AuthURL is the body of GET /api/auth/url. URL is nil once authenticated.
type AuthURL struct {
	Authenticated bool    `json:"authenticated"`
	URL           *string `json:"auth_url"`
}

// Ack is a bare acknowledgement.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status          string `json:"status"`
	PairingSessions int    `json:"pairing_sessions"` // live, unexpired pairing sessions
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}
