package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
)

// H is a shorthand for ad-hoc JSON objects.
type H map[string]any

const kindUnauthenticated = "UNAUTHENTICATED"

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// statusForKind maps a domain error kind to its HTTP status.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidState, domain.KindUnavailable, domain.KindAlreadyExists:
		return http.StatusConflict
	case domain.KindInvalidAmount, domain.KindEmptyCart:
		return http.StatusUnprocessableEntity
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// store failures can leak driver details
		msg = "internal error"
	}
	writeJSON(w, status, H{"error": msg, "kind": kind})
}

func writeUnauthenticated(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, H{"error": msg, "kind": kindUnauthenticated})
}

// decodeJSON reads the request body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.InvalidInput("malformed request body: " + err.Error())
	}
	return nil
}

// parseTime accepts RFC 3339 timestamps.
func parseTime(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, domain.InvalidInput(name + " is required")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domain.InvalidInput(name + " must be an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}
