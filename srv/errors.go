package srv

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/webframp/changelogd/changelog"
)

// ErrUnauthorized is returned when the admin secret is missing or wrong.
var ErrUnauthorized = errors.New("unauthorized")

// ErrRateLimited is returned when a client exceeds the admin rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// ConfigError lists environment keys a request needed but that are unset.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "Missing ENV"
}

// MethodNotAllowedError is returned for methods other than GET, POST and DELETE.
type MethodNotAllowedError struct {
	Method string
}

func (e *MethodNotAllowedError) Error() string {
	return "method not allowed"
}

// errorBody is the failure half of the response envelope.
type errorBody struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

// classify maps an error to its HTTP status and envelope.
func classify(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var (
		verr    changelog.ValidationError
		nf      changelog.NotFoundError
		cfgErr  *ConfigError
		methErr *MethodNotAllowedError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, body
	case errors.As(err, &nf):
		return http.StatusNotFound, body
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, body
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, body
	case errors.As(err, &methErr):
		return http.StatusMethodNotAllowed, body
	case errors.As(err, &cfgErr):
		body.Missing = cfgErr.Missing
		return http.StatusInternalServerError, body
	}
	// store failures, including lost concurrency races
	return http.StatusInternalServerError, body
}

// WriteError writes err as a JSON failure envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("changelog request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		RecordError(spanFromRequest(r), err)
	}
	WriteJSON(w, status, body)
}
