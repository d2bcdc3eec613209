/*-------------------------------------------------------------------------
 *
 * middleware.go
 *    HTTP middleware for NeuronChat API
 *
 * Provides logging, CORS, security header, and panic recovery
 * middleware for the NeuronChat HTTP API server.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/api/middleware.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* statusRecorder captures the response status for logging */
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

/* LoggingMiddleware logs each request with its outcome and duration */
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(recorder.status), duration)
		metrics.InfoWithContext(r.Context(), "request completed", map[string]interface{}{
			"method":      r.Method,
			"endpoint":    r.URL.Path,
			"status":      recorder.status,
			"duration_ms": duration.Milliseconds(),
		})
	})
}

/* CORSMiddleware adds permissive CORS headers for browser clients */
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

/* SecurityHeadersMiddleware adds security headers to all responses */
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

/* RecoveryMiddleware converts panics into 500 responses */
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				requestID := GetRequestID(r.Context())
				metrics.ErrorWithContext(r.Context(), "handler panicked",
					fmt.Errorf("panic: %v", rec), map[string]interface{}{
						"endpoint": r.URL.Path,
					})
				respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "internal server error", nil), requestID))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
