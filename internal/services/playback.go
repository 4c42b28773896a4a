// Spotify Web API playback control
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/zmb3/spotify/v2"
)

// Repeat modes accepted by [PlaybackService.SetRepeat].
const (
	RepeatOff     = "off"
	RepeatTrack   = "track"
	RepeatContext = "context"
)

// Player is the subset of [spotify.Client] the playback façade drives.
type Player interface {
	PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error)
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Volume(ctx context.Context, percent int) error
	Shuffle(ctx context.Context, shuffle bool) error
	Repeat(ctx context.Context, state string) error
	Seek(ctx context.Context, position int) error
}

// PlayerFactory builds a [Player] around an authorized HTTP client.
type PlayerFactory func(*http.Client) Player

// NewSpotifyPlayer is the default [PlayerFactory].
func NewSpotifyPlayer(c *http.Client) Player {
	return spotify.New(c)
}

// PlaybackService translates control commands into exactly one Web API call each.
//
// Every operation resolves the [AuthManager] first and maps failures onto the shared sentinels:
//   - [shared.ErrNotConfigured], [shared.ErrNotAuthenticated] : nothing to call the API with
//   - [shared.ErrInvalidArgument] : rejected before any upstream call
//   - [shared.ErrNoActiveDevice] : nothing is playing anywhere
//   - [shared.UpstreamError] : anything else the API or network reported
type PlaybackService struct {
	auth      *AuthManager
	newPlayer PlayerFactory
	timeout   time.Duration
	logger    *log.Logger
}

// PlaybackOption configures a [PlaybackService].
type PlaybackOption func(*PlaybackService)

// WithPlayerFactory replaces the Spotify client, mostly for tests.
func WithPlayerFactory(f PlayerFactory) PlaybackOption {
	return func(s *PlaybackService) { s.newPlayer = f }
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) PlaybackOption {
	return func(s *PlaybackService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPlaybackLogger sets the logger.
func WithPlaybackLogger(l *log.Logger) PlaybackOption {
	return func(s *PlaybackService) { s.logger = l }
}

// NewPlaybackService creates a façade over auth.
func NewPlaybackService(auth *AuthManager, opts ...PlaybackOption) *PlaybackService {
	s := &PlaybackService{auth: auth, newPlayer: NewSpotifyPlayer, timeout: DefaultUpstreamTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	return s
}

// Current returns the normalized playback state.
func (s *PlaybackService) Current(ctx context.Context) (*models.Playback, error) {
	var state *spotify.PlayerState
	err := s.call(ctx, "playback", func(ctx context.Context, p Player) error {
		var err error
		state, err = p.PlayerState(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if state == nil || state.Item == nil {
		return nil, shared.ErrNoActiveDevice
	}
	return NormalizePlayback(state), nil
}

// Play resumes playback on the active device.
func (s *PlaybackService) Play(ctx context.Context) error {
	return s.call(ctx, "play", func(ctx context.Context, p Player) error { return p.Play(ctx) })
}

// Pause pauses playback.
func (s *PlaybackService) Pause(ctx context.Context) error {
	return s.call(ctx, "pause", func(ctx context.Context, p Player) error { return p.Pause(ctx) })
}

// Next skips to the next track.
func (s *PlaybackService) Next(ctx context.Context) error {
	return s.call(ctx, "next", func(ctx context.Context, p Player) error { return p.Next(ctx) })
}

// Previous skips to the previous track.
func (s *PlaybackService) Previous(ctx context.Context) error {
	return s.call(ctx, "previous", func(ctx context.Context, p Player) error { return p.Previous(ctx) })
}

// SetVolume sets the device volume, 0 to 100.
func (s *PlaybackService) SetVolume(ctx context.Context, percent int) error {
	if err := ValidateVolume(percent); err != nil {
		return err
	}
	return s.call(ctx, "volume", func(ctx context.Context, p Player) error { return p.Volume(ctx, percent) })
}

// SetShuffle turns shuffle on or off.
func (s *PlaybackService) SetShuffle(ctx context.Context, on bool) error {
	return s.call(ctx, "shuffle", func(ctx context.Context, p Player) error { return p.Shuffle(ctx, on) })
}

// SetRepeat sets the repeat mode to one of off, track or context.
func (s *PlaybackService) SetRepeat(ctx context.Context, mode string) error {
	if err := ValidateRepeat(mode); err != nil {
		return err
	}
	return s.call(ctx, "repeat", func(ctx context.Context, p Player) error { return p.Repeat(ctx, mode) })
}

// Seek moves to positionMS within the current track.
func (s *PlaybackService) Seek(ctx context.Context, positionMS int) error {
	if err := ValidateSeek(positionMS); err != nil {
		return err
	}
	return s.call(ctx, "seek", func(ctx context.Context, p Player) error { return p.Seek(ctx, positionMS) })
}

func (s *PlaybackService) call(ctx context.Context, op string, fn func(context.Context, Player) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := s.auth.Client(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	err = fn(ctx, s.newPlayer(client))
	if err != nil {
		err = translateError(err)
		s.logger.Debug("spotify call failed", "op", op, "duration", time.Since(start), "error", err)
		return err
	}
	s.logger.Debug("spotify call", "op", op, "duration", time.Since(start))
	return nil
}

// ValidateVolume rejects values outside 0..100.
func ValidateVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume must be between 0 and 100, got %d", shared.ErrInvalidArgument, percent)
	}
	return nil
}

// ValidateRepeat rejects unknown repeat modes.
func ValidateRepeat(mode string) error {
	switch mode {
	case RepeatOff, RepeatTrack, RepeatContext:
		return nil
	default:
		return fmt.Errorf("%w: repeat must be one of off, track or context, got %q", shared.ErrInvalidArgument, mode)
	}
}

// ValidateSeek rejects negative positions. The upper bound is the track length, which only Spotify knows.
func ValidateSeek(positionMS int) error {
	if positionMS < 0 {
		return fmt.Errorf("%w: position_ms must not be negative, got %d", shared.ErrInvalidArgument, positionMS)
	}
	return nil
}

// NormalizePlayback flattens a player state into [models.Playback]. state.Item must be non-nil.
func NormalizePlayback(state *spotify.PlayerState) *models.Playback {
	track := state.Item

	artists := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, a.Name)
	}

	var art *string
	if len(track.Album.Images) > 0 {
		url := track.Album.Images[0].URL
		art = &url
	}

	return &models.Playback{
		IsPlaying:  state.Playing,
		TrackName:  track.Name,
		ArtistName: strings.Join(artists, ", "),
		AlbumName:  track.Album.Name,
		AlbumArt:   art,
		DurationMS: int(track.Duration),
		ProgressMS: int(state.Progress),
		Volume:     int(state.Device.Volume),
		Shuffle:    state.ShuffleState,
		Repeat:     state.RepeatState,
	}
}

// translateError maps a Web API failure onto [shared.ErrNoActiveDevice] or a [shared.UpstreamError].
func translateError(err error) error {
	var (
		se  spotify.Error
		sep *spotify.Error
	)
	switch {
	case errors.As(err, &se):
	case errors.As(err, &sep):
		se = *sep
	default:
		return shared.NewUpstreamError(err)
	}

	if se.Status == http.StatusNotFound || strings.Contains(strings.ToLower(se.Message), "no active device") {
		return shared.ErrNoActiveDevice
	}
	return shared.NewUpstreamError(err)
}
