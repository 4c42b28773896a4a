package server

import "net/http"

func (s *Server) routes() {
	r := s.router
	limited := s.limiter.Middleware()

	r.HandleFunc(http.MethodGet, "/{$}", s.handleIndex)
	r.HandleFunc(http.MethodGet, "/healthz", s.handleHealth)
	r.HandleFunc(http.MethodGet, "/setup", s.handleSetupPage)

	r.HandleFunc(http.MethodGet, "/api/config", s.handleGetConfig)
	r.HandleFunc(http.MethodPost, "/api/config", s.handleUpdateConfig)
	r.HandleFunc(http.MethodDelete, "/api/config", s.handleDeleteConfig)

	r.HandleFunc(http.MethodGet, "/api/setup/status", s.handleSetupStatus)
	r.HandleFunc(http.MethodPost, "/api/setup", s.handleSetup, limited)
	r.HandleFunc(http.MethodGet, "/api/setup/qr/generate", s.handleQRGenerate)
	r.HandleFunc(http.MethodGet, "/api/setup/qr/status/{id}", s.handleQRStatus)
	r.HandleFunc(http.MethodPost, "/api/setup/qr/submit", s.handleQRSubmit, limited)
	r.HandleFunc(http.MethodPost, "/api/setup/qr/complete/{id}", s.handleQRComplete)

	r.HandleFunc(http.MethodGet, "/api/auth/url", s.handleAuthURL)
	r.Handler(NewOAuthHandler(s.auth, s.states, s.logger))

	r.HandleFunc(http.MethodGet, "/api/playback", s.handlePlayback)
	r.HandleFunc(http.MethodPost, "/api/play", s.command(s.playback.Play))
	r.HandleFunc(http.MethodPost, "/api/pause", s.command(s.playback.Pause))
	r.HandleFunc(http.MethodPost, "/api/next", s.command(s.playback.Next))
	r.HandleFunc(http.MethodPost, "/api/previous", s.command(s.playback.Previous))
	r.HandleFunc(http.MethodPost, "/api/volume", s.handleVolume)
	r.HandleFunc(http.MethodPost, "/api/shuffle", s.handleShuffle)
	r.HandleFunc(http.MethodPost, "/api/repeat", s.handleRepeat)
	r.HandleFunc(http.MethodPost, "/api/seek", s.handleSeek)
}
