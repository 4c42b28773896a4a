package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
)

const maxBodyBytes = 64 << 10

const notAuthenticatedDetail = "Not authenticated. Visit /api/auth/url to authorize."

func errorBody(detail string) models.ErrorBody {
	return models.ErrorBody{Detail: detail}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, models.Ack{Success: true})
}

// statusFor maps a sentinel onto its HTTP status. Anything unrecognized is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotConfigured),
		errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNoActiveDevice),
		errors.Is(err, shared.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrSessionUsed),
		errors.Is(err, shared.ErrSessionNotReady),
		errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func detailFor(err error) string {
	var ue *shared.UpstreamError
	switch {
	case errors.As(err, &ue):
		return ue.Message
	case errors.Is(err, shared.ErrNotAuthenticated):
		return notAuthenticatedDetail
	default:
		return err.Error()
	}
}

// writeError renders err as {"detail": ...} with the mapped status. Server side failures are logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "error", err)
	}
	writeJSON(w, status, errorBody(detailFor(err)))
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidArgument, err)
	}
	return nil
}
