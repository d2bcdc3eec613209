/*-------------------------------------------------------------------------
 *
 * coordinator.go
 *    Collector execution coordination for NeuronChat
 *
 * Runs a triggered collector either locally, through the workflow
 * engine, or by delegating to the remote node that owns it. Each
 * execution is tracked as a collector run row; an open run claims the
 * session's subsequent turns until it completes or is cancelled.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/collector/coordinator.go
 *
 *-------------------------------------------------------------------------
 */

package collector

import (
	"context"
	"fmt"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/federation"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/session"
	"github.com/neurondb/NeuronChat/internal/utils"
	"github.com/neurondb/NeuronChat/internal/workflow"
)

/* Collector run statuses */
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

/* Session metadata key tracking the open run id */
const metaActiveRunID = "activeCollectorRun"

/* ExecutionCoordinator runs collectors locally or by delegation */
type ExecutionCoordinator struct {
	registry  *Registry
	engine    *workflow.Engine
	queries   *db.Queries
	nodes     federation.NodeRegistry
	forwarder federation.Forwarder
}

/*
NewExecutionCoordinator creates a coordinator.
queries may be nil (runs are not persisted); nodes and forwarder may
be nil (remote collectors fail with a user-facing message).
*/
func NewExecutionCoordinator(registry *Registry, engine *workflow.Engine, queries *db.Queries,
	nodes federation.NodeRegistry, forwarder federation.Forwarder) *ExecutionCoordinator {
	return &ExecutionCoordinator{
		registry:  registry,
		engine:    engine,
		queries:   queries,
		nodes:     nodes,
		forwarder: forwarder,
	}
}

/* Start begins the named collector for the session */
func (c *ExecutionCoordinator) Start(ctx context.Context, name string, sc *session.Context, message string) (*workflow.Reply, error) {
	col := c.registry.Get(name)
	if col == nil {
		metrics.RecordRoutingDecision("collector_unknown")
		return &workflow.Reply{
			Message: "I don't have a collector by that name. What else can I help you with?",
		}, nil
	}

	runID, err := c.openRun(ctx, sc, col)
	if err != nil {
		return nil, err
	}
	sc.Set(session.MetaActiveCollector, col.Name)
	sc.Set(metaActiveRunID, runID)

	if col.NodeSlug != "" {
		return c.forward(ctx, col, sc, message)
	}

	reply, err := c.engine.Start(ctx, col.Workflow, sc, message)
	if err != nil {
		c.closeRun(ctx, sc, StatusFailed)
		return nil, err
	}
	c.settle(ctx, sc, reply)
	return reply, nil
}

/* Continue feeds the next message to the session's open collector */
func (c *ExecutionCoordinator) Continue(ctx context.Context, sc *session.Context, message string) (*workflow.Reply, error) {
	name, _ := sc.Get(session.MetaActiveCollector, "").(string)
	col := c.registry.Get(name)
	if col == nil {
		c.closeRun(ctx, sc, StatusFailed)
		return &workflow.Reply{
			Message: "That collection flow is no longer available. What else can I help you with?",
		}, nil
	}

	if col.NodeSlug != "" {
		return c.forward(ctx, col, sc, message)
	}

	reply, err := c.engine.Continue(ctx, message, sc)
	if err != nil {
		return nil, err
	}
	c.settle(ctx, sc, reply)
	return reply, nil
}

/* Cancel abandons the session's open collector run */
func (c *ExecutionCoordinator) Cancel(ctx context.Context, sc *session.Context) *workflow.Reply {
	c.closeRun(ctx, sc, StatusCancelled)
	return c.engine.Cancel(sc)
}

/* settle closes the run when the underlying workflow finished */
func (c *ExecutionCoordinator) settle(ctx context.Context, sc *session.Context, reply *workflow.Reply) {
	switch {
	case reply.Completed:
		c.closeRun(ctx, sc, StatusCompleted)
	case reply.Cancelled:
		c.closeRun(ctx, sc, StatusCancelled)
	}
}

/* forward delegates the turn to the node that owns the collector */
func (c *ExecutionCoordinator) forward(ctx context.Context, col *Collector, sc *session.Context, message string) (*workflow.Reply, error) {
	if c.nodes == nil || c.forwarder == nil {
		c.closeRun(ctx, sc, StatusFailed)
		return &workflow.Reply{
			Message: fmt.Sprintf("The '%s' collector runs on another node, which isn't reachable right now.", col.Name),
		}, nil
	}

	node, err := c.nodes.Node(ctx, col.NodeSlug)
	if err != nil || node == nil {
		c.closeRun(ctx, sc, StatusFailed)
		return &workflow.Reply{
			Message: fmt.Sprintf("The '%s' collector runs on node '%s', which isn't registered right now.", col.Name, col.NodeSlug),
		}, nil
	}

	result, err := c.forwarder.Forward(ctx, node, message, sc.SessionID,
		map[string]interface{}{"collector": col.Name}, sc.UserID)
	if err != nil {
		/* Run stays open so the user can retry or cancel */
		return &workflow.Reply{
			Message: fmt.Sprintf("I couldn't reach %s to run the '%s' collector. Try again, or say 'cancel'.", node.Name, col.Name),
		}, nil
	}
	if !result.Success {
		c.closeRun(ctx, sc, StatusFailed)
		msg := result.Error
		if msg == "" {
			msg = "the collector reported a failure"
		}
		return &workflow.Reply{
			Message: fmt.Sprintf("The '%s' collector on %s failed: %s.", col.Name, node.Name, msg),
		}, nil
	}

	if done, ok := result.Metadata["completed"].(bool); ok && done {
		c.closeRun(ctx, sc, StatusCompleted)
		return &workflow.Reply{Message: result.Response, Completed: true, Data: result.Metadata}, nil
	}
	return &workflow.Reply{Message: result.Response}, nil
}

/* openRun records the start of an execution */
func (c *ExecutionCoordinator) openRun(ctx context.Context, sc *session.Context, col *Collector) (string, error) {
	if c.queries == nil {
		return "", nil
	}
	run := &db.CollectorRunRecord{
		SessionID: sc.SessionID,
		Collector: col.Name,
		Status:    StatusRunning,
	}
	if col.NodeSlug != "" {
		slug := col.NodeSlug
		run.NodeSlug = &slug
	}
	if err := c.queries.CreateCollectorRun(ctx, run); err != nil {
		return "", fmt.Errorf("collector run creation failed: collector='%s', error=%w", col.Name, err)
	}
	return run.ID.String(), nil
}

/* closeRun finalizes the open run and releases the session claim */
func (c *ExecutionCoordinator) closeRun(ctx context.Context, sc *session.Context, status string) {
	runID, _ := sc.Get(metaActiveRunID, "").(string)
	sc.Forget(session.MetaActiveCollector)
	sc.Forget(metaActiveRunID)

	if c.queries == nil || runID == "" {
		return
	}
	id, err := utils.ParseID(runID)
	if err != nil {
		return
	}
	state := db.JSONBMap{}
	for k, v := range sc.WorkflowState {
		state[k] = v
	}
	if err := c.queries.UpdateCollectorRun(ctx, id, status, state); err != nil {
		metrics.ErrorWithContext(ctx, "collector run update failed", err, map[string]interface{}{
			"run_id": runID,
			"status": status,
		})
	}
}
