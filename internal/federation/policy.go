/*-------------------------------------------------------------------------
 *
 * policy.go
 *    Routed-session continuation policy for NeuronChat federation
 *
 * A session pinned to a remote node is re-evaluated every turn: the
 * new message must still be about that node's domain before the pin
 * keeps forwarding. A negative or failed evaluation un-pins rather
 * than forwarding blindly.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/federation/policy.go
 *
 *-------------------------------------------------------------------------
 */

package federation

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/session"
)

/* History window consulted when the message alone is inconclusive */
const policyHistoryWindow = 4

/* RoutedSessionPolicy decides whether a pinned session stays pinned */
type RoutedSessionPolicy struct {
	registry NodeRegistry
	gen      llm.Generator
	cfg      config.FederationConfig
}

/*
NewRoutedSessionPolicy creates a continuation policy.
gen may be nil; continuation then rests on keyword overlap alone.
*/
func NewRoutedSessionPolicy(registry NodeRegistry, gen llm.Generator, cfg config.FederationConfig) *RoutedSessionPolicy {
	return &RoutedSessionPolicy{registry: registry, gen: gen, cfg: cfg}
}

/*
ShouldContinue reports whether the message still belongs to the
pinned node's domain.
On a transport failure during classification the configured flag
decides; it defaults to false so a broken classifier stops
forwarding instead of forwarding blindly.
*/
func (p *RoutedSessionPolicy) ShouldContinue(ctx context.Context, message string, sc *session.Context, pin *session.RoutedNode) bool {
	node, err := p.registry.Node(ctx, pin.NodeSlug)
	if err != nil || node == nil {
		metrics.RecordClassification("routed_continuation", "node_missing")
		return false
	}

	if overlapsDomain(message, node) {
		metrics.RecordClassification("routed_continuation", "keyword_match")
		return true
	}
	if p.historyOverlaps(sc, node) && isTerseContinuation(message) {
		metrics.RecordClassification("routed_continuation", "history_match")
		return true
	}

	if p.gen == nil {
		metrics.RecordClassification("routed_continuation", "no_match")
		return false
	}

	continues, err := p.classifyAI(ctx, message, sc, node)
	if err != nil {
		metrics.RecordClassification("routed_continuation", "error")
		return p.cfg.AssumeContinuationOnError
	}
	if continues {
		metrics.RecordClassification("routed_continuation", "ai_continue")
	} else {
		metrics.RecordClassification("routed_continuation", "ai_unpin")
	}
	return continues
}

/*
overlapsDomain reports whether the message names anything the node
declares
*/
func overlapsDomain(message string, node *Node) bool {
	lower := strings.ToLower(message)
	for _, group := range [][]string{node.Keywords, node.Collections, node.DataTypes} {
		for _, term := range group {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" && strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}

/*
historyOverlaps reports whether the recent transcript names the
node's domain
*/
func (p *RoutedSessionPolicy) historyOverlaps(sc *session.Context, node *Node) bool {
	for _, m := range sc.RecentHistory(policyHistoryWindow) {
		if overlapsDomain(m.Content, node) {
			return true
		}
	}
	return false
}

/*
isTerseContinuation reports a short message that only makes sense
against the preceding exchange
*/
func isTerseContinuation(message string) bool {
	return len(strings.Fields(message)) <= 4
}

func (p *RoutedSessionPolicy) classifyAI(ctx context.Context, message string, sc *session.Context, node *Node) (bool, error) {
	var sb strings.Builder
	sb.WriteString("Recent conversation:\n")
	for _, m := range sc.RecentHistory(policyHistoryWindow) {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&sb, "\nThe conversation has been handled by '%s', which owns: %s.\n",
		node.Name, strings.Join(append(append([]string{}, node.Keywords...), node.DataTypes...), ", "))
	fmt.Fprintf(&sb, "New message: %s\n\nIs the new message still about that domain? Answer yes or no.", message)

	system := "You decide whether a chat message continues the same topic domain. Answer with exactly 'yes' or 'no'."

	raw, err := p.gen.Generate(ctx, sb.String(), system, 5, 0)
	if err != nil {
		return false, fmt.Errorf("continuation classification failed: node='%s', error=%w", node.Slug, err)
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "yes"), nil
}
