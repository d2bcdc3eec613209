/*-------------------------------------------------------------------------
 *
 * errors.go
 *    API error types and response helpers for NeuronChat
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/api/errors.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* APIError is the JSON error shape returned by every endpoint */
type APIError struct {
	Status    int                    `json:"-"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	cause     error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

/* NewError creates an API error with an HTTP status */
func NewError(status int, message string, cause error) *APIError {
	return &APIError{Status: status, Message: message, cause: cause}
}

/* WrapError attaches the request id to an API error */
func WrapError(err *APIError, requestID string) *APIError {
	err.RequestID = requestID
	return err
}

/* Common errors */
var (
	ErrBadRequest = NewError(http.StatusBadRequest, "invalid request", nil)
	ErrNotFound   = NewError(http.StatusNotFound, "resource not found", nil)
	ErrInternal   = NewError(http.StatusInternalServerError, "internal server error", nil)
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err *APIError) {
	if err.Status >= http.StatusInternalServerError {
		metrics.ErrorWithContext(r.Context(), "request failed", err, map[string]interface{}{
			"endpoint": r.URL.Path,
			"method":   r.Method,
		})
	}
	respondJSON(w, err.Status, map[string]interface{}{"error": err})
}
