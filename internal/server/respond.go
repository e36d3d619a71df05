package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discwatch/internal/shared"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrFeatureDisabled):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrMetadataFetch):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, shared.ErrQueueFull), errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status for err. Server-side failures are logged with the request id
// and the full error before the client gets a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			"request_id", r.Header.Get("X-Request-ID"),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"err", err,
		)
	}
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeStringList reads a JSON array of strings. Anything else is an [shared.ErrInvalidArgument].
func decodeStringList(body io.Reader) ([]string, error) {
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))

	var ids []string
	if err := dec.Decode(&ids); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON array of album ids", shared.ErrInvalidArgument)
	}
	if ids == nil {
		return nil, fmt.Errorf("%w: body must be a JSON array of album ids", shared.ErrInvalidArgument)
	}
	return ids, nil
}
