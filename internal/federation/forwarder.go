/*-------------------------------------------------------------------------
 *
 * forwarder.go
 *    Remote node message forwarding for NeuronChat federation
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/federation/forwarder.go
 *
 *-------------------------------------------------------------------------
 */

package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/reliability"
)

/* Per-node circuit thresholds for forwarding */
const (
	forwardMaxFailures  = 5
	forwardResetTimeout = 30 * time.Second
)

/* ForwardResult is a remote node's answer to a forwarded message */
type ForwardResult struct {
	Success  bool                   `json:"success"`
	Response string                 `json:"response"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

/* Forwarder sends a turn to a remote node and returns its reply */
type Forwarder interface {
	Forward(ctx context.Context, node *Node, message, sessionID string, options map[string]interface{}, userID string) (*ForwardResult, error)
}

/* forwardRequest is the wire shape of a forwarded turn */
type forwardRequest struct {
	Message   string                 `json:"message"`
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id,omitempty"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

/* HTTPForwarder forwards turns over the node's chat endpoint */
type HTTPForwarder struct {
	client   *http.Client
	timeout  time.Duration
	breakers *reliability.BreakerSet
}

/* NewHTTPForwarder creates a forwarder with the given per-call timeout */
func NewHTTPForwarder(timeout time.Duration) *HTTPForwarder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPForwarder{
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		breakers: reliability.NewBreakerSet(forwardMaxFailures, forwardResetTimeout),
	}
}

/*
Forward posts the message to the node and decodes its reply.
A transport or decode error returns a Go error; the caller surfaces
a user-facing message naming the node and must not mutate the
session's node pin. Each node endpoint sits behind its own circuit
breaker so a dead peer fails fast instead of eating the timeout on
every turn.
*/
func (f *HTTPForwarder) Forward(ctx context.Context, node *Node, message, sessionID string, options map[string]interface{}, userID string) (*ForwardResult, error) {
	var result *ForwardResult
	err := f.breakers.For(node.Slug).Execute(ctx, func() error {
		r, err := f.forward(ctx, node, message, sessionID, options, userID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *HTTPForwarder) forward(ctx context.Context, node *Node, message, sessionID string, options map[string]interface{}, userID string) (*ForwardResult, error) {
	start := time.Now()

	body, err := json.Marshal(forwardRequest{
		Message:   message,
		SessionID: sessionID,
		UserID:    userID,
		Options:   options,
	})
	if err != nil {
		return nil, fmt.Errorf("forward encoding failed: node='%s', error=%w", node.Slug, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, node.Endpoint+"/v1/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("forward request failed: node='%s', error=%w", node.Slug, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-Session", sessionID)

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.RecordNodeForward(node.Slug, "error")
		return nil, fmt.Errorf("forward transport failed: node='%s', error=%w", node.Slug, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.RecordNodeForward(node.Slug, "error")
		return nil, fmt.Errorf("forward read failed: node='%s', error=%w", node.Slug, err)
	}
	if resp.StatusCode >= 400 {
		metrics.RecordNodeForward(node.Slug, "error")
		return nil, fmt.Errorf("forward rejected: node='%s', status=%d", node.Slug, resp.StatusCode)
	}

	result := &ForwardResult{}
	if err := json.Unmarshal(data, result); err != nil {
		metrics.RecordNodeForward(node.Slug, "error")
		return nil, fmt.Errorf("forward decode failed: node='%s', error=%w", node.Slug, err)
	}

	metrics.RecordNodeForward(node.Slug, "ok")
	metrics.RecordTurn("route_to_remote_node", "forwarded", time.Since(start))
	return result, nil
}
