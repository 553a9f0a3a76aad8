package api

import (
	"errors"
	"net/http"
	"time"

	authapp "hero-server/internal/app/auth"
	"hero-server/internal/domain/hero"
)

// StandardError is the body of every non-2xx response.
type StandardError struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// requestError carries a status decided at the boundary: malformed input,
// unknown routes, failed readiness.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

var statusText = map[int]string{
	http.StatusBadRequest:            "Bad request",
	http.StatusUnauthorized:          "Unauthorized",
	http.StatusNotFound:              "Resource not found",
	http.StatusMethodNotAllowed:      "Method not allowed",
	http.StatusRequestEntityTooLarge: "Payload too large",
	http.StatusInternalServerError:   "Internal server error",
	http.StatusServiceUnavailable:    "Service unavailable",
}

func errorResponse(err error, r *http.Request) StandardError {
	status := http.StatusInternalServerError
	msg := "An unexpected error occurred"

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		status, msg = reqErr.status, reqErr.msg
	case errors.Is(err, hero.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, hero.ErrInvalidHero), errors.Is(err, hero.ErrInvalidRace):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, authapp.ErrMissingToken), errors.Is(err, authapp.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	}

	text, ok := statusText[status]
	if !ok {
		text = http.StatusText(status)
	}
	return StandardError{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     text,
		Message:   msg,
		Path:      r.URL.Path,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorResponse(err, r)
	if body.Status == http.StatusInternalServerError {
		ev := h.logger.Error()
		if isClientGone(err) {
			ev = h.logger.Debug()
		}
		ev.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, body.Status, body)
}
