/*-------------------------------------------------------------------------
 *
 * log_context.go
 *    Log context helpers for structured logging
 *
 * Provides helpers for consistent structured logging with request_id,
 * session_id, workflow_id, node_id fields across all components.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/metrics/log_context.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	sessionIDKey  contextKey = "session_id"
	workflowIDKey contextKey = "workflow_id"
	nodeIDKey     contextKey = "node_id"
)

/* WithLogContext adds logging fields to context */
func WithLogContext(ctx context.Context, requestID, sessionID, workflowID, nodeID string) context.Context {
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if sessionID != "" {
		ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	}
	if workflowID != "" {
		ctx = context.WithValue(ctx, workflowIDKey, workflowID)
	}
	if nodeID != "" {
		ctx = context.WithValue(ctx, nodeIDKey, nodeID)
	}
	return ctx
}

/* WithSessionIDLogContext adds session ID to log context */
func WithSessionIDLogContext(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

/* WithWorkflowIDLogContext adds workflow ID to log context */
func WithWorkflowIDLogContext(ctx context.Context, workflowID string) context.Context {
	return context.WithValue(ctx, workflowIDKey, workflowID)
}

/* WithNodeIDLogContext adds node ID to log context */
func WithNodeIDLogContext(ctx context.Context, nodeID string) context.Context {
	return context.WithValue(ctx, nodeIDKey, nodeID)
}

/* GetRequestIDFromContext gets request ID from context */
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

/* GetSessionIDFromContext gets session ID from context */
func GetSessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

/* GetWorkflowIDFromContext gets workflow ID from context */
func GetWorkflowIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(workflowIDKey).(string); ok {
		return id
	}
	return ""
}

/* GetNodeIDFromContext gets node ID from context */
func GetNodeIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(nodeIDKey).(string); ok {
		return id
	}
	return ""
}

/* LoggerFromContext creates a zerolog logger with fields from context */
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	logger := log.Logger

	requestID := GetRequestIDFromContext(ctx)
	sessionID := GetSessionIDFromContext(ctx)
	workflowID := GetWorkflowIDFromContext(ctx)
	nodeID := GetNodeIDFromContext(ctx)

	if requestID != "" {
		logger = logger.With().Str("request_id", requestID).Logger()
	}
	if sessionID != "" {
		logger = logger.With().Str("session_id", sessionID).Logger()
	}
	if workflowID != "" {
		logger = logger.With().Str("workflow_id", workflowID).Logger()
	}
	if nodeID != "" {
		logger = logger.With().Str("node_id", nodeID).Logger()
	}

	return logger
}

/* LogWithContext logs a message with context fields */
func LogWithContext(ctx context.Context, level zerolog.Level, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	event := logger.WithLevel(level)

	for key, value := range fields {
		event = event.Interface(key, value)
	}

	event.Msg(message)
}

/* DebugWithContext logs a debug message with context */
func DebugWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.DebugLevel, message, fields)
}

/* InfoWithContext logs an info message with context */
func InfoWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.InfoLevel, message, fields)
}

/* WarnWithContext logs a warning message with context */
func WarnWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.WarnLevel, message, fields)
}

/* ErrorWithContext logs an error message with context */
func ErrorWithContext(ctx context.Context, message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogWithContext(ctx, zerolog.ErrorLevel, message, fields)
}
