package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/shared"
	"github.com/desertthunder/mpq/internal/tasks"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: kind, Message: message})
}

// classify maps an error to its wire kind and HTTP status.
func classify(err error) (string, int) {
	if kind := queue.Kind(err); kind != "unknown" {
		switch {
		case errors.Is(err, queue.ErrInternalConsistency):
			return kind, http.StatusInternalServerError
		case errors.Is(err, queue.ErrNoSuchID):
			return kind, http.StatusNotFound
		case errors.Is(err, queue.ErrQueueFull):
			return kind, http.StatusConflict
		default:
			return kind, http.StatusBadRequest
		}
	}

	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrNoSnapshot):
		return "not_found", http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrUnsupported):
		return "invalid_input", http.StatusBadRequest
	case errors.Is(err, shared.ErrLoad):
		return "invalid_input", http.StatusUnprocessableEntity
	case errors.Is(err, tasks.ErrLoopStopped), errors.Is(err, context.Canceled):
		return "unavailable", http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return "unavailable", http.StatusGatewayTimeout
	default:
		return "internal", http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	writeError(w, status, kind, err.Error())
}

// decode reads a JSON body into v. An empty body leaves v at its zero value.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return nil
}
