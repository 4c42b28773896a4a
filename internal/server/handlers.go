package server

import (
	"net/http"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/setup"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/desertthunder/spotctl/internal/web"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.Index(w); err != nil {
		s.logger.Error("failed to write index page", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Health{Status: "ok", PairingSessions: s.sessions.Len()})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.auth.Config().Masked())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch shared.ConfigPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.auth.MutateConfig(r.Context(), func(c *shared.Config) error { return c.Apply(patch) }); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.ClearCredentials(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Success: true, Message: "Credentials cleared"})
}

func (s *Server) handleSetupStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.auth.Status(r.Context()))
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.auth.SetCredentials(r.Context(), creds); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("credentials saved", "client_id", creds.ClientID)
	writeJSON(w, http.StatusOK, models.Ack{Success: true, Message: "Credentials saved"})
}

func (s *Server) handleQRGenerate(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Create()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setupURL := setup.PairingURL(s.localIP(), s.listenPort(), session.ID)
	dataURL, err := setup.DataURL(setupURL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.QRSession{
		SessionID:     session.ID,
		QRCodeDataURL: dataURL,
		SetupURL:      setupURL,
		ExpiresIn:     setup.ExpiresIn(session, session.CreatedAt),
	})
}

func (s *Server) handleQRStatus(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.QRStatus{
		Status:              string(session.Status),
		CredentialsReceived: session.Credentials != nil,
		ExpiresIn:           s.sessions.ExpiresIn(session),
	})
}

func (s *Server) handleQRSubmit(w http.ResponseWriter, r *http.Request) {
	var sub models.QRSubmission
	if err := decodeJSON(r, &sub); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.sessions.Submit(sub.SessionID, sub.Credentials); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("pairing credentials received", "client_id", sub.ClientID)
	writeJSON(w, http.StatusOK, models.Ack{Success: true, Message: "Credentials received"})
}

func (s *Server) handleQRComplete(w http.ResponseWriter, r *http.Request) {
	_, err := s.sessions.Complete(r.PathValue("id"), func(c models.Credentials) error {
		return s.auth.SetCredentials(r.Context(), c)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Success: true, Message: "Credentials saved"})
}

func (s *Server) handleSetupPage(w http.ResponseWriter, r *http.Request) {
	data := web.SetupPage{SessionID: r.URL.Query().Get("session")}
	status := http.StatusOK

	session, err := s.sessions.Get(data.SessionID)
	switch {
	case err != nil:
		data.Error = "This pairing link is invalid or has expired."
		status = http.StatusNotFound
	case session.Status != setup.StatusPending:
		data.Error = "Credentials were already sent with this link."
		status = http.StatusBadRequest
	default:
		data.ExpiresIn = s.sessions.ExpiresIn(session)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := s.pages.Setup(w, data); err != nil {
		s.logger.Error("failed to render setup page", "error", err)
	}
}

func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.Get(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.auth.IsAuthenticated(r.Context()) {
		writeJSON(w, http.StatusOK, models.AuthURL{Authenticated: true})
		return
	}

	state, err := s.states.Issue()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.auth.AuthURL(state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AuthURL{URL: &u})
}
