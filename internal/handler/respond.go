// Package handler exposes the pantry services as a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/auth"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:   http.StatusNotFound,
	apperr.KindForbidden:  http.StatusForbidden,
	apperr.KindValidation: http.StatusBadRequest,
	apperr.KindConflict:   http.StatusConflict,
}

// writeError maps err to a status code and writes {"error", "code"}.
// Uncategorized errors are logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": apperr.Message(err), "code": string(kind)})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.Validation("request body too large")
	}
	return apperr.Validation("invalid JSON: %v", err)
}

func actor(r *http.Request) string {
	return auth.UserID(r.Context())
}

func householdParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("household"))
}
