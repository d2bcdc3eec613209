/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    API handlers for NeuronChat
 *
 * Provides HTTP handlers for chat turns, sessions, federation nodes,
 * and collectors.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronChat/internal/chat"
	"github.com/neurondb/NeuronChat/internal/collector"
	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/federation"
	"github.com/neurondb/NeuronChat/internal/session"
	"github.com/neurondb/NeuronChat/internal/validation"
	"github.com/neurondb/NeuronChat/internal/workflow"
)

const (
	maxBodySize    = 1024 * 1024
	maxMessageSize = 32 * 1024
)

type Handlers struct {
	orchestrator *chat.Orchestrator
	sessions     *session.Store
	queries      *db.Queries
	nodes        *federation.SQLNodeRegistry
	collectors   *collector.Registry
	workflows    *workflow.Registry
}

/*
NewHandlers creates the handler set.
nodes and collectors may be nil; the corresponding endpoints answer
404.
*/
func NewHandlers(orchestrator *chat.Orchestrator, sessions *session.Store, queries *db.Queries,
	nodes *federation.SQLNodeRegistry, collectors *collector.Registry, workflows *workflow.Registry) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		sessions:     sessions,
		queries:      queries,
		nodes:        nodes,
		collectors:   collectors,
		workflows:    workflows,
	}
}

/* Routes registers all endpoints on a new router */
func (h *Handlers) Routes(metricsHandler http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware)
	router.Use(RecoveryMiddleware)
	router.Use(CORSMiddleware)
	router.Use(SecurityHeadersMiddleware)
	router.Use(LoggingMiddleware)

	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", metricsHandler).Methods("GET")

	apiRouter := router.PathPrefix("/v1").Subrouter()
	apiRouter.HandleFunc("/chat", h.Chat).Methods("POST")
	apiRouter.HandleFunc("/sessions", h.ListSessions).Methods("GET")
	apiRouter.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	apiRouter.HandleFunc("/sessions/{id}", h.DeleteSession).Methods("DELETE")
	apiRouter.HandleFunc("/sessions/{id}/messages", h.GetMessages).Methods("GET")
	apiRouter.HandleFunc("/nodes", h.ListNodes).Methods("GET")
	apiRouter.HandleFunc("/nodes", h.RegisterNode).Methods("POST")
	apiRouter.HandleFunc("/nodes/{slug}", h.DeregisterNode).Methods("DELETE")
	apiRouter.HandleFunc("/collectors", h.ListCollectors).Methods("GET")
	apiRouter.HandleFunc("/workflows", h.ListWorkflows).Methods("GET")

	return router
}

/* Chat */

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
}

func validateChatRequest(req *chatRequest) error {
	if err := validation.ValidateRequired(req.SessionID, "session_id"); err != nil {
		return err
	}
	if err := validation.ValidateRequired(req.Message, "message"); err != nil {
		return err
	}
	return validation.ValidateMaxLength(req.Message, "message", maxMessageSize)
}

func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, r, WrapError(NewError(http.StatusBadRequest, "request body validation failed", err), requestID))
		return
	}

	var req chatRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		respondError(w, r, WrapError(NewError(http.StatusBadRequest, "chat request parsing failed", err), requestID))
		return
	}
	if err := validateChatRequest(&req); err != nil {
		respondError(w, r, WrapError(NewError(http.StatusBadRequest, "chat request validation failed", err), requestID))
		return
	}

	turn, err := h.orchestrator.HandleTurn(r.Context(), req.SessionID, req.UserID, req.Message)
	if err != nil {
		respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "chat turn failed", err), requestID))
		return
	}

	respondJSON(w, http.StatusOK, turn)
}

/* Sessions */

type sessionResponse struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func toSessionResponse(record *db.SessionRecord) sessionResponse {
	resp := sessionResponse{
		SessionID:      record.SessionID,
		CreatedAt:      record.CreatedAt,
		LastActivityAt: record.LastActivityAt,
		ExpiresAt:      record.ExpiresAt,
	}
	if record.UserID != nil {
		resp.UserID = *record.UserID
	}
	return resp
}

func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	limit := queryLimit(r, 50)
	offset := queryOffset(r)
	var userID *string
	if v := r.URL.Query().Get("user_id"); v != "" {
		userID = &v
	}

	records, err := h.queries.ListSessions(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "session listing failed", err), requestID))
		return
	}

	sessions := make([]sessionResponse, 0, len(records))
	for i := range records {
		sessions = append(sessions, toSessionResponse(&records[i]))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	sessionID := mux.Vars(r)["id"]

	record, err := h.queries.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "session lookup failed", err), requestID))
		return
	}
	if record == nil {
		respondError(w, r, WrapError(ErrNotFound, requestID))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session": toSessionResponse(record),
		"context": record.Context,
	})
}

func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	sessionID := mux.Vars(r)["id"]

	if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
		respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "session deletion failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	sessionID := mux.Vars(r)["id"]

	limit := queryLimit(r, 100)
	offset := queryOffset(r)

	messages, err := h.queries.GetMessages(r.Context(), sessionID, limit, offset)
	if err != nil {
		respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "message listing failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

/* Federation nodes */

type nodeRequest struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Endpoint    string   `json:"endpoint"`
	Collections []string `json:"collections,omitempty"`
	DataTypes   []string `json:"data_types,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Collectors  []string `json:"collectors,omitempty"`
	Workflows   []string `json:"workflows,omitempty"`
}

func (h *Handlers) ListNodes(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if h.nodes == nil {
		respondError(w, r, WrapError(ErrNotFound, requestID))
		return
	}

	nodes, err := h.nodes.ActiveNodes(r.Context())
	if err != nil {
		respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "node listing failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"nodes": nodes})
}

func validateNodeRequest(req *nodeRequest) error {
	if err := validation.ValidateRequired(req.Slug, "slug"); err != nil {
		return err
	}
	if err := validation.ValidateMaxLength(req.Slug, "slug", 128); err != nil {
		return err
	}
	return validation.ValidateRequired(req.Endpoint, "endpoint")
}

func (h *Handlers) RegisterNode(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if h.nodes == nil {
		respondError(w, r, WrapError(ErrNotFound, requestID))
		return
	}

	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, r, WrapError(NewError(http.StatusBadRequest, "request body validation failed", err), requestID))
		return
	}

	var req nodeRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		respondError(w, r, WrapError(NewError(http.StatusBadRequest, "node registration parsing failed", err), requestID))
		return
	}
	if err := validateNodeRequest(&req); err != nil {
		respondError(w, r, WrapError(NewError(http.StatusBadRequest, "node registration validation failed", err), requestID))
		return
	}

	node := &federation.Node{
		Slug:        req.Slug,
		Name:        req.Name,
		Endpoint:    req.Endpoint,
		Collections: req.Collections,
		DataTypes:   req.DataTypes,
		Keywords:    req.Keywords,
		Collectors:  req.Collectors,
		Workflows:   req.Workflows,
	}
	if err := h.nodes.Register(r.Context(), node); err != nil {
		respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "node registration failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusCreated, node)
}

func (h *Handlers) DeregisterNode(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if h.nodes == nil {
		respondError(w, r, WrapError(ErrNotFound, requestID))
		return
	}

	slug := mux.Vars(r)["slug"]
	if err := h.nodes.Deregister(r.Context(), slug); err != nil {
		respondError(w, r, WrapError(NewError(http.StatusInternalServerError, "node deregistration failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

/* Collectors */

func (h *Handlers) ListCollectors(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if h.collectors == nil {
		respondError(w, r, WrapError(ErrNotFound, requestID))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"collectors": h.collectors.Names()})
}

/* Workflows */

type workflowResponse struct {
	ID   string `json:"id"`
	Goal string `json:"goal,omitempty"`
}

func (h *Handlers) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if h.workflows == nil {
		respondError(w, r, WrapError(ErrNotFound, requestID))
		return
	}

	ids := h.workflows.IDs()
	workflows := make([]workflowResponse, 0, len(ids))
	for _, id := range ids {
		resp := workflowResponse{ID: id}
		if def := h.workflows.Get(id); def != nil {
			resp.Goal = def.Goal
		}
		workflows = append(workflows, resp)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"workflows": workflows})
}

/* Health */

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func queryLimit(r *http.Request, def int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && validation.ValidateLimit(n) == nil {
			return n
		}
	}
	return def
}

func queryOffset(r *http.Request) int {
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && validation.ValidateOffset(n) == nil {
			return n
		}
	}
	return 0
}
