/*-------------------------------------------------------------------------
 *
 * coordinator.go
 *    Node routing coordination for NeuronChat federation
 *
 * Matches inbound messages against the capability catalog of active
 * remote nodes. Short, context-laden queries are deliberately left to
 * the default router path so terse follow-ups are not mis-routed to
 * the wrong node.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/federation/coordinator.go
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

/* NodeRoutingCoordinator matches messages to remote node capabilities */
type NodeRoutingCoordinator struct {
	registry NodeRegistry
	gen      llm.Generator
	cfg      config.FederationConfig
}

/*
NewNodeRoutingCoordinator creates a coordinator.
gen may be nil; matching then falls back to direct catalog key
containment.
*/
func NewNodeRoutingCoordinator(registry NodeRegistry, gen llm.Generator, cfg config.FederationConfig) *NodeRoutingCoordinator {
	return &NodeRoutingCoordinator{registry: registry, gen: gen, cfg: cfg}
}

/*
Match returns the slug of the node whose capability the message
matches, or "" when no node should take it
*/
func (c *NodeRoutingCoordinator) Match(ctx context.Context, message string, sc *session.Context) (string, error) {
	if c.skipShortQuery(message, sc) {
		metrics.RecordClassification("node_match", "skipped_short")
		return "", nil
	}

	nodes, err := c.registry.ActiveNodes(ctx)
	if err != nil {
		return "", fmt.Errorf("node matching failed: error=%w", err)
	}
	if len(nodes) == 0 {
		return "", nil
	}

	catalog := BuildCatalog(nodes)
	if catalog.Len() == 0 {
		return "", nil
	}

	if c.gen == nil {
		return c.matchDirect(message, catalog), nil
	}

	key, err := c.matchAI(ctx, message, catalog)
	if err != nil {
		metrics.RecordClassification("node_match", "error")
		return c.matchDirect(message, catalog), nil
	}
	if key == "" {
		metrics.RecordClassification("node_match", "none")
		return "", nil
	}
	entry := catalog.Lookup(key)
	if entry == nil {
		metrics.RecordClassification("node_match", "unknown_key")
		return "", nil
	}
	metrics.RecordClassification("node_match", "matched")
	return entry.NodeSlug, nil
}

/*
skipShortQuery leaves terse messages with conversation context to
the default router path
*/
func (c *NodeRoutingCoordinator) skipShortQuery(message string, sc *session.Context) bool {
	minWords := c.cfg.MinMatchWords
	if minWords <= 0 {
		minWords = 5
	}
	return len(strings.Fields(message)) < minWords && len(sc.RecentHistory(1)) > 0
}

/* matchDirect matches when a catalog key appears verbatim in the message */
func (c *NodeRoutingCoordinator) matchDirect(message string, catalog *Catalog) string {
	lower := strings.ToLower(message)
	for _, key := range catalog.Keys() {
		probe := strings.ReplaceAll(key, "_", " ")
		if strings.Contains(lower, probe) || strings.Contains(lower, probe+"s") {
			entry := catalog.Lookup(key)
			metrics.RecordClassification("node_match", "direct")
			return entry.NodeSlug
		}
	}
	return ""
}

/* matchAI asks the classifier for exactly one catalog key or "none" */
func (c *NodeRoutingCoordinator) matchAI(ctx context.Context, message string, catalog *Catalog) (string, error) {
	prompt := fmt.Sprintf(
		"Known data domains: %s\n\nMessage: %s\n\nWhich single domain does the message belong to? Answer with exactly one domain name from the list, or 'none'.",
		strings.Join(catalog.Keys(), ", "), message)
	system := "You match a chat message to one of the listed data domains. Answer with one domain name or 'none'."

	raw, err := c.gen.Generate(ctx, prompt, system, 20, 0)
	if err != nil {
		return "", fmt.Errorf("capability classification failed: error=%w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(raw))
	answer = strings.Trim(answer, ".'\"")
	if answer == "" || answer == "none" {
		return "", nil
	}
	return answer, nil
}
