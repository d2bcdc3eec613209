/*-------------------------------------------------------------------------
 *
 * orchestrator.go
 *    Per-turn conversation orchestration for NeuronChat
 *
 * Ties the routing, workflow, federation, collector, and knowledge
 * components into one turn cycle: load the session, route the message,
 * dispatch the decision, and persist the mutated context. Every branch
 * terminates in a user-facing reply; collaborator failures degrade to
 * fallback replies rather than surfacing as faults.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/chat/orchestrator.go
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neurondb/NeuronChat/internal/collector"
	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/federation"
	"github.com/neurondb/NeuronChat/internal/knowledge"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/routing"
	"github.com/neurondb/NeuronChat/internal/session"
	"github.com/neurondb/NeuronChat/internal/workflow"
)

/* Turn is the outcome of one orchestrated message */
type Turn struct {
	SessionID string                 `json:"session_id"`
	Message   string                 `json:"message"`
	Action    string                 `json:"action"`
	Workflow  string                 `json:"workflow,omitempty"`
	Completed bool                   `json:"completed,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

/* Orchestrator drives one turn per inbound message */
type Orchestrator struct {
	sessions   *session.Store
	router     *routing.Router
	engine     *workflow.Engine
	workflows  *workflow.Registry
	collectors *collector.ExecutionCoordinator
	nodes      federation.NodeRegistry
	forwarder  federation.Forwarder
	searcher   knowledge.Searcher
	gen        llm.Generator
	cfg        *config.Config
}

/*
NewOrchestrator wires the turn cycle.
collectors, nodes, forwarder, searcher, and gen may be nil; the
corresponding dispatch branches degrade to fallback replies.
*/
func NewOrchestrator(sessions *session.Store, router *routing.Router, engine *workflow.Engine,
	workflows *workflow.Registry, collectors *collector.ExecutionCoordinator,
	nodes federation.NodeRegistry, forwarder federation.Forwarder,
	searcher knowledge.Searcher, gen llm.Generator, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		sessions:   sessions,
		router:     router,
		engine:     engine,
		workflows:  workflows,
		collectors: collectors,
		nodes:      nodes,
		forwarder:  forwarder,
		searcher:   searcher,
		gen:        gen,
		cfg:        cfg,
	}
}

/* HandleTurn processes one inbound message for a session */
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userID, message string) (*Turn, error) {
	start := time.Now()

	sc, err := o.sessions.Load(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("turn failed: session_id='%s', error=%w", sessionID, err)
	}
	ctx = metrics.WithLogContext(ctx, metrics.GetRequestIDFromContext(ctx), sessionID, "", "")

	sc.AddUserMessage(message)

	decision, err := o.router.Route(ctx, message, sc)
	if err != nil {
		return nil, fmt.Errorf("turn routing failed: session_id='%s', error=%w", sessionID, err)
	}
	metrics.DebugWithContext(ctx, "message routed", map[string]interface{}{
		"action":    decision.Action,
		"resource":  decision.ResourceName,
		"reasoning": decision.Reasoning,
	})

	reply, err := o.dispatch(ctx, decision, sc, message)
	if err != nil {
		metrics.ErrorWithContext(ctx, "turn dispatch failed", err, map[string]interface{}{
			"action": decision.Action,
		})
		reply = &workflow.Reply{
			Message: "Something went wrong handling that. Please try again.",
		}
	}

	sc.AddAssistantMessage(reply.Message)
	if err := o.sessions.Save(ctx, sc); err != nil {
		return nil, fmt.Errorf("turn persistence failed: session_id='%s', error=%w", sessionID, err)
	}

	metrics.RecordTurn(decision.Action, "ok", time.Since(start))
	return &Turn{
		SessionID: sessionID,
		Message:   reply.Message,
		Action:    decision.Action,
		Workflow:  sc.CurrentWorkflow,
		Completed: reply.Completed,
		Data:      reply.Data,
	}, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, decision *routing.Decision, sc *session.Context, message string) (*workflow.Reply, error) {
	switch decision.Action {
	case routing.ActionContinueWorkflow:
		return o.engine.Continue(ctx, message, sc)

	case routing.ActionCancelWorkflow:
		return o.engine.Cancel(sc), nil

	case routing.ActionStartWorkflow:
		return o.engine.Start(ctx, decision.ResourceName, sc, message)

	case routing.ActionStartCollector:
		return o.dispatchCollector(ctx, decision, sc, message)

	case routing.ActionRouteToRemoteNode:
		return o.forwardToNode(ctx, decision.ResourceName, sc, message)

	case routing.ActionSearchKnowledge:
		return o.handleSearch(ctx, decision, sc, message)

	case routing.ActionConversational:
		return o.handleConversational(ctx, decision, sc, message)
	}

	return &workflow.Reply{
		Message: "I'm not sure how to help with that. Could you rephrase?",
	}, nil
}

/* dispatchCollector starts or continues a collector run */
func (o *Orchestrator) dispatchCollector(ctx context.Context, decision *routing.Decision, sc *session.Context, message string) (*workflow.Reply, error) {
	if o.collectors == nil {
		return &workflow.Reply{
			Message: "Data collection isn't available right now. What else can I help you with?",
		}, nil
	}
	if open, _ := sc.Get(session.MetaActiveCollector, "").(string); open != "" {
		if routing.IsCancelMessage(message) {
			return o.collectors.Cancel(ctx, sc), nil
		}
		return o.collectors.Continue(ctx, sc, message)
	}
	return o.collectors.Start(ctx, decision.ResourceName, sc, message)
}

/*
forwardToNode sends the turn to a remote node and pins the session
on success. A failed forward names the node and leaves any existing
pin untouched.
*/
func (o *Orchestrator) forwardToNode(ctx context.Context, slug string, sc *session.Context, message string) (*workflow.Reply, error) {
	if o.nodes == nil || o.forwarder == nil {
		return &workflow.Reply{
			Message: "That topic is handled by another system, which isn't reachable right now.",
		}, nil
	}

	node, err := o.nodes.Node(ctx, slug)
	if err != nil || node == nil {
		return &workflow.Reply{
			Message: fmt.Sprintf("That topic is handled by node '%s', which isn't registered right now.", slug),
		}, nil
	}

	result, err := o.forwarder.Forward(ctx, node, message, sc.SessionID, nil, sc.UserID)
	if err != nil {
		return &workflow.Reply{
			Message: fmt.Sprintf("I couldn't reach %s to handle that. Please try again in a moment.", node.Name),
		}, nil
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "it reported a failure"
		}
		return &workflow.Reply{
			Message: fmt.Sprintf("%s couldn't handle that: %s.", node.Name, msg),
		}, nil
	}

	sc.SetRoutedNode(&session.RoutedNode{NodeID: node.ID, NodeSlug: node.Slug})
	return &workflow.Reply{Message: result.Response, Data: result.Metadata}, nil
}

/*
handleSearch runs the knowledge backend, trying a workflow match for
mutation intents first
*/
func (o *Orchestrator) handleSearch(ctx context.Context, decision *routing.Decision, sc *session.Context, message string) (*workflow.Reply, error) {
	/* A create/update/delete intent naming a registered workflow's
	   subject starts that workflow instead of searching */
	if decision.Operation != routing.OpQuery {
		if id := o.matchWorkflow(decision.Operation, message); id != "" {
			return o.engine.Start(ctx, id, sc, message)
		}
	}

	if o.searcher == nil {
		return o.handleConversational(ctx, decision, sc, message)
	}

	if decision.Operation == routing.OpQuery && isAggregateQuery(message) {
		if reply := o.tryAggregate(ctx, sc, message); reply != nil {
			return reply, nil
		}
	}

	history := make([]knowledge.HistoryEntry, 0)
	for _, m := range sc.RecentHistory(o.cfg.Session.HistoryWindow) {
		history = append(history, knowledge.HistoryEntry{Role: m.Role, Content: m.Content})
	}

	result, err := o.searcher.Search(ctx, message, o.cfg.Knowledge.Collections, history,
		knowledge.SearchOptions{Limit: o.cfg.Knowledge.SearchLimit, Operation: decision.Operation}, sc.UserID)
	if err != nil {
		metrics.ErrorWithContext(ctx, "knowledge search failed", err, nil)
		return &workflow.Reply{
			Message: "I couldn't search for that right now. Please try again.",
		}, nil
	}

	o.rememberEntityList(sc, result)

	if result.Content == "" {
		return &workflow.Reply{Message: "I didn't find anything matching that."}, nil
	}
	return &workflow.Reply{Message: result.Content, Data: result.Metadata}, nil
}

/*
tryAggregate answers count/sum questions from the fast path, nil
when the path yields nothing usable
*/
func (o *Orchestrator) tryAggregate(ctx context.Context, sc *session.Context, message string) *workflow.Reply {
	counts, err := o.searcher.Aggregate(ctx, o.cfg.Knowledge.Collections, message, sc.UserID)
	if err != nil || len(counts) == 0 {
		return nil
	}
	parts := make([]string, 0, len(counts))
	for name, n := range counts {
		parts = append(parts, fmt.Sprintf("%v %s", n, name))
	}
	return &workflow.Reply{
		Message: "There are " + strings.Join(parts, ", ") + ".",
		Data:    counts,
	}
}

/*
rememberEntityList records the presented result list for follow-up
and positional resolution on later turns
*/
func (o *Orchestrator) rememberEntityList(sc *session.Context, result *knowledge.Result) {
	entityType, _ := result.Metadata["entityType"].(string)
	if entityType == "" {
		return
	}
	ids := toStringSlice(result.Metadata["entityIds"])
	if len(ids) == 0 {
		return
	}
	list := &session.EntityList{EntityType: entityType, EntityIDs: ids}
	if rows, ok := result.Metadata["entityData"].([]map[string]interface{}); ok {
		list.EntityData = rows
	}
	sc.SetLastEntityList(list)
}

/*
handleConversational generates a free-form reply, grounding it in
the selected entity when the message was a positional reference
*/
func (o *Orchestrator) handleConversational(ctx context.Context, decision *routing.Decision, sc *session.Context, message string) (*workflow.Reply, error) {
	if decision.Position > 0 {
		o.selectEntity(sc, decision.Position)
	}

	if o.gen == nil {
		return &workflow.Reply{Message: "I'm here. What would you like to do?"}, nil
	}

	var sb strings.Builder
	for _, m := range sc.RecentHistory(o.cfg.Session.HistoryWindow) {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	if selected, ok := sc.Get(session.MetaSelectedEntityContext, nil).(map[string]interface{}); ok && selected != nil {
		fmt.Fprintf(&sb, "\nThe user is referring to this record: %v\n", selected)
	}
	if list := sc.LastEntityList(); list != nil {
		fmt.Fprintf(&sb, "\nThe user was last shown %d %s record(s).\n", len(list.EntityIDs), list.EntityType)
	}
	fmt.Fprintf(&sb, "\nuser: %s\nassistant:", message)

	system := "You are a helpful assistant for business records and support questions. Answer concisely from the conversation context."

	tokens := o.cfg.Knowledge.ChatTokens
	if tokens <= 0 {
		tokens = 500
	}
	reply, err := o.gen.Generate(ctx, sb.String(), system, tokens, 0.7)
	if err != nil {
		metrics.ErrorWithContext(ctx, "conversational generation failed", err, nil)
		return &workflow.Reply{
			Message: "I'm having trouble answering right now. Please try again.",
		}, nil
	}
	return &workflow.Reply{Message: strings.TrimSpace(reply)}, nil
}

/* selectEntity stores the referenced list item for later turns */
func (o *Orchestrator) selectEntity(sc *session.Context, position int) {
	list := sc.LastEntityList()
	if list == nil || position < 1 {
		return
	}
	selected := map[string]interface{}{
		"entityType": list.EntityType,
		"position":   position,
	}
	if position <= len(list.EntityIDs) {
		selected["id"] = list.EntityIDs[position-1]
	}
	if position <= len(list.EntityData) {
		selected["record"] = list.EntityData[position-1]
	}
	sc.Set(session.MetaSelectedEntityContext, selected)
}

/*
matchWorkflow maps a mutation intent to a registered workflow id of
the form <op>_<subject> when the message names the subject
*/
func (o *Orchestrator) matchWorkflow(op, message string) string {
	lower := strings.ToLower(message)
	for _, id := range o.workflows.IDs() {
		subject, found := strings.CutPrefix(id, op+"_")
		if !found {
			continue
		}
		subject = strings.ReplaceAll(subject, "_", " ")
		if strings.Contains(lower, subject) || strings.Contains(lower, subject+"s") {
			return id
		}
	}
	return ""
}

var aggregateMarkers = []string{"how many", "count", "total number", "number of"}

func isAggregateQuery(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range aggregateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func toStringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	}
	return nil
}
