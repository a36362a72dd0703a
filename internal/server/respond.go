package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mmcdole/lunastream/internal/domain"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the envelope of every error reply
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError describes a failed request
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorCode writes an error envelope with an explicit status and code
func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: APIError{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

// writeError maps a domain error to a status and code
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var upErr *domain.UpstreamError
	status, code := http.StatusInternalServerError, "INTERNAL"

	switch {
	case errors.Is(err, context.Canceled):
		status, code = http.StatusServiceUnavailable, "CANCELED"
	case errors.As(err, &upErr) && upErr.Status == http.StatusNotFound:
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUpstream):
		status, code = http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrPersistence):
		status, code = http.StatusInternalServerError, "PERSISTENCE_ERROR"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "requestID", RequestIDFromContext(r.Context()), "error", err)
		message = "Internal server error"
	}
	writeErrorCode(w, r, status, code, message)
}

// decodeBody decodes a JSON request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

// readBody returns the raw request body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return data, nil
}

// pathInt parses a positive integer URL parameter
func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", domain.ErrValidation, name, raw)
	}
	return n, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrValidation, name, raw)
	}
	return n, nil
}

// queryFloat parses an optional float query parameter
func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrValidation, name, raw)
	}
	return f, nil
}
