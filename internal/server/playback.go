package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/spotctl/internal/shared"
)

type volumeRequest struct {
	Volume *int `json:"volume"`
}

type shuffleRequest struct {
	State *bool `json:"state"`
}

type repeatRequest struct {
	State *string `json:"state"`
}

type seekRequest struct {
	PositionMS *int `json:"position_ms"`
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", shared.ErrMissingArgument, field)
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	p, err := s.playback.Current(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// command adapts a body-less transport call.
func (s *Server) command(fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, r, fn(r.Context()))
	}
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Volume == nil {
		s.writeError(w, r, missing("volume"))
		return
	}
	s.reply(w, r, s.playback.SetVolume(r.Context(), *req.Volume))
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	var req shuffleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.State == nil {
		s.writeError(w, r, missing("state"))
		return
	}
	s.reply(w, r, s.playback.SetShuffle(r.Context(), *req.State))
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	var req repeatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.State == nil {
		s.writeError(w, r, missing("state"))
		return
	}
	s.reply(w, r, s.playback.SetRepeat(r.Context(), *req.State))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.PositionMS == nil {
		s.writeError(w, r, missing("position_ms"))
		return
	}
	s.reply(w, r, s.playback.Seek(r.Context(), *req.PositionMS))
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w)
}
