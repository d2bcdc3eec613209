/*-------------------------------------------------------------------------
 *
 * router.go
 *    Per-turn message routing for NeuronChat
 *
 * Produces exactly one routing decision per inbound message through a
 * priority-ordered, short-circuiting chain: pinned remote node, open
 * collector run, active workflow, collector trigger, federation
 * capability match, and finally CRUD/chat classification with a
 * keyword fallback.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/routing/router.go
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/session"
)

/* NodeMatcher matches a message against remote node capabilities */
type NodeMatcher interface {
	/* Match returns the slug of the matching node, "" when none */
	Match(ctx context.Context, message string, sc *session.Context) (string, error)
}

/* ContinuationPolicy decides whether a pinned session stays pinned */
type ContinuationPolicy interface {
	ShouldContinue(ctx context.Context, message string, sc *session.Context, node *session.RoutedNode) bool
}

/* CollectorMatcher matches messages against autonomous collector triggers */
type CollectorMatcher interface {
	/* MatchTrigger returns the collector name triggered by the message,
	   "" when none, honoring any per-user permission check */
	MatchTrigger(ctx context.Context, message, userID string) string
}

var cancelWords = map[string]bool{
	"cancel": true, "nevermind": true, "never mind": true, "abort": true,
	"stop": true, "forget it": true, "quit": true, "exit": true,
}

var searchFallbackWords = map[string]bool{
	"count": true, "list": true, "show": true, "find": true,
	"search": true, "create": true, "add": true, "total": true,
	"sum": true, "update": true, "delete": true, "remove": true,
}

/* Router turns inbound messages into routing decisions */
type Router struct {
	intents    *IntentClassifier
	followUp   *FollowUpResolver
	positional *PositionalResolver
	gen        llm.Generator
	nodes      NodeMatcher
	policy     ContinuationPolicy
	collectors CollectorMatcher
	cfg        config.RoutingConfig
	federation config.FederationConfig
}

/*
NewRouter creates a message router.
nodes, policy, and collectors may be nil; the corresponding chain
steps are skipped.
*/
func NewRouter(intents *IntentClassifier, followUp *FollowUpResolver, positional *PositionalResolver,
	gen llm.Generator, nodes NodeMatcher, policy ContinuationPolicy, collectors CollectorMatcher,
	cfg config.RoutingConfig, federation config.FederationConfig) *Router {
	return &Router{
		intents:    intents,
		followUp:   followUp,
		positional: positional,
		gen:        gen,
		nodes:      nodes,
		policy:     policy,
		collectors: collectors,
		cfg:        cfg,
		federation: federation,
	}
}

/* Route produces the single routing decision for this turn */
func (r *Router) Route(ctx context.Context, message string, sc *session.Context) (*Decision, error) {
	decision := r.route(ctx, message, sc)
	metrics.RecordRoutingDecision(decision.Action)
	return decision, nil
}

func (r *Router) route(ctx context.Context, message string, sc *session.Context) *Decision {
	/* 1. Session pinned to a remote node */
	if pin := sc.RoutedNode(); pin != nil {
		if r.policy != nil && r.policy.ShouldContinue(ctx, message, sc, pin) {
			return &Decision{
				Action:       ActionRouteToRemoteNode,
				ResourceName: pin.NodeSlug,
				Reasoning:    "session pinned to remote node",
				Confidence:   0.9,
			}
		}
		/* Un-pin and re-route as if never pinned, skipping the local
		   workflow/collector steps the pin had bypassed */
		sc.SetRoutedNode(nil)
		return r.routeUnpinned(ctx, message, sc)
	}

	/* 2. Open collector run */
	if active, _ := sc.Get(session.MetaActiveCollector, "").(string); active != "" {
		return &Decision{
			Action:       ActionStartCollector,
			ResourceName: active,
			Reasoning:    "continuing open collector run",
			Confidence:   1,
		}
	}

	/* 3. Active workflow */
	if sc.InWorkflow() {
		if IsCancelMessage(message) {
			return &Decision{
				Action:       ActionCancelWorkflow,
				ResourceName: sc.CurrentWorkflow,
				Reasoning:    "explicit cancellation of active workflow",
				Confidence:   1,
			}
		}
		/* Ambiguity is deferred into the step itself */
		return &Decision{
			Action:       ActionContinueWorkflow,
			ResourceName: sc.CurrentWorkflow,
			Reasoning:    "workflow already active",
			Confidence:   1,
		}
	}

	/* 4. Collector trigger */
	if r.collectors != nil {
		if name := r.collectors.MatchTrigger(ctx, message, sc.UserID); name != "" {
			return &Decision{
				Action:       ActionStartCollector,
				ResourceName: name,
				Reasoning:    "message matched collector trigger",
				Confidence:   0.8,
			}
		}
	}

	return r.routeUnpinned(ctx, message, sc)
}

/*
routeUnpinned runs the federation match and default classification,
the chain's entry point for sessions with no pin, workflow, or
collector claim on the message
*/
func (r *Router) routeUnpinned(ctx context.Context, message string, sc *session.Context) *Decision {
	/* 5. Federation capability match */
	if r.federation.Enabled && r.nodes != nil {
		slug, err := r.nodes.Match(ctx, message, sc)
		if err != nil {
			metrics.RecordClassification("node_match", "error")
		} else if slug != "" {
			return &Decision{
				Action:       ActionRouteToRemoteNode,
				ResourceName: slug,
				Reasoning:    "message matched remote node capability",
				Confidence:   0.7,
			}
		}
	}

	/* 6. Default classification, informed by entity-list context */
	if sc.LastEntityList() != nil {
		if pos := r.positional.Resolve(ctx, message, sc); pos > 0 {
			return &Decision{
				Action:     ActionConversational,
				Position:   pos,
				Reasoning:  fmt.Sprintf("positional reference to item %d of the last list", pos),
				Confidence: 0.9,
			}
		}

		classification := r.followUp.Classify(ctx, message, sc)
		switch classification {
		case LabelRefreshList:
			return &Decision{
				Action:     ActionSearchKnowledge,
				Operation:  OpQuery,
				Reasoning:  "explicit request to refresh the last list",
				Confidence: 0.8,
			}
		case LabelEntityLookup:
			return &Decision{
				Action:     ActionSearchKnowledge,
				Operation:  OpQuery,
				Reasoning:  "lookup of a specific record from context",
				Confidence: 0.8,
			}
		case LabelFollowUpAnswer:
			return &Decision{
				Action:     ActionConversational,
				Reasoning:  "follow-up answer to the previous result list",
				Confidence: 0.8,
			}
		}
		/* NEW_QUERY and UNKNOWN fall through to CRUD/chat, with the
		   classification kept for the guard */
		decision := r.classifyCRUD(ctx, message, sc)
		return ApplyGuard(decision, message, sc, classification)
	}

	return r.classifyCRUD(ctx, message, sc)
}

/*
classifyCRUD maps the message to create/update/delete/query/chat.
The first four become search_knowledge with the verb attached as an
operation hint; chat becomes conversational. A failed classification
call falls back to keyword patterns, never to an error.
*/
func (r *Router) classifyCRUD(ctx context.Context, message string, sc *session.Context) *Decision {
	if r.gen == nil {
		return r.keywordFallback(message)
	}

	var sb strings.Builder
	for _, m := range sc.RecentHistory(classifierHistoryWindow) {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&sb, "\nMessage: %s\n\nClassify the message as exactly one of: create, update, delete, query, chat.", message)
	system := "You classify chat messages by intent against business records. 'query' covers listing, counting, and looking things up. 'chat' covers greetings and small talk. Answer with one word."

	raw, err := r.gen.Generate(ctx, sb.String(), system, 10, 0)
	if err != nil {
		metrics.RecordClassification("crud_ai", "error")
		return r.keywordFallback(message)
	}

	answer := strings.ToLower(strings.TrimSpace(raw))
	for _, op := range []string{OpCreate, OpUpdate, OpDelete, OpQuery} {
		if strings.Contains(answer, op) {
			metrics.RecordClassification("crud_ai", op)
			return &Decision{
				Action:     ActionSearchKnowledge,
				Operation:  op,
				Reasoning:  fmt.Sprintf("classified as %s intent", op),
				Confidence: 0.7,
			}
		}
	}
	if strings.Contains(answer, "chat") {
		metrics.RecordClassification("crud_ai", "chat")
		return &Decision{
			Action:     ActionConversational,
			Reasoning:  "classified as conversational",
			Confidence: 0.7,
		}
	}

	metrics.RecordClassification("crud_ai", "unparsed")
	return r.keywordFallback(message)
}

/* keywordFallback picks between search and chat from vocabulary alone */
func (r *Router) keywordFallback(message string) *Decision {
	matched := containsAny(tokenize(message), searchFallbackWords) ||
		strings.Contains(strings.ToLower(message), "how many")
	if matched {
		metrics.RecordClassification("crud_fallback", "search")
		return &Decision{
			Action:     ActionSearchKnowledge,
			Operation:  OpQuery,
			Reasoning:  "keyword fallback matched search vocabulary",
			Confidence: 0.4,
		}
	}
	metrics.RecordClassification("crud_fallback", "chat")
	return &Decision{
		Action:     ActionConversational,
		Reasoning:  "keyword fallback default",
		Confidence: 0.3,
	}
}

/* IsCancelMessage reports an explicit cancellation request */
func IsCancelMessage(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	lower = strings.Trim(lower, ".,!?")
	if cancelWords[lower] {
		return true
	}
	for phrase := range cancelWords {
		if strings.Contains(phrase, " ") && strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
