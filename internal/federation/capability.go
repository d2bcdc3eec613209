/*-------------------------------------------------------------------------
 *
 * capability.go
 *    Node capability catalog for NeuronChat federation
 *
 * Every active remote node advertises what it owns: autonomous
 * collector names, data types, keywords, and workflow entity names.
 * The catalog flattens those into capability entries deduplicated by
 * normalized entity key, keeping the highest-priority source per key.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/federation/capability.go
 *
 *-------------------------------------------------------------------------
 */

package federation

import (
	"sort"
	"strings"
)

/* Capability sources, in ascending priority */
const (
	SourceKeyword   = "keyword"
	SourceDataType  = "data_type"
	SourceWorkflow  = "workflow"
	SourceCollector = "collector"
)

var sourcePriority = map[string]int{
	SourceKeyword:   1,
	SourceDataType:  2,
	SourceWorkflow:  3,
	SourceCollector: 4,
}

/* NodeCapability is one advertised ownership claim of a remote node */
type NodeCapability struct {
	EntityKey string
	Label     string
	NodeID    string
	NodeSlug  string
	NodeName  string
	Source    string
	Priority  int
}

/* Node is the registry's view of one remote federation peer */
type Node struct {
	ID          string
	Slug        string
	Name        string
	Endpoint    string
	Collections []string
	DataTypes   []string
	Keywords    []string
	Collectors  []string
	Workflows   []string
}

/* Catalog is the deduplicated capability index over all active nodes */
type Catalog struct {
	byKey map[string]NodeCapability
}

/*
BuildCatalog flattens node advertisements into a capability catalog.
When two nodes claim the same normalized key, the entry with the
higher source priority wins; ties keep the first node seen.
*/
func BuildCatalog(nodes []Node) *Catalog {
	c := &Catalog{byKey: make(map[string]NodeCapability)}
	for i := range nodes {
		n := &nodes[i]
		c.addAll(n, n.Collectors, SourceCollector)
		c.addAll(n, n.Workflows, SourceWorkflow)
		c.addAll(n, n.DataTypes, SourceDataType)
		c.addAll(n, n.Keywords, SourceKeyword)
	}
	return c
}

func (c *Catalog) addAll(n *Node, labels []string, source string) {
	for _, label := range labels {
		key := NormalizeKey(label)
		if key == "" {
			continue
		}
		entry := NodeCapability{
			EntityKey: key,
			Label:     label,
			NodeID:    n.ID,
			NodeSlug:  n.Slug,
			NodeName:  n.Name,
			Source:    source,
			Priority:  sourcePriority[source],
		}
		existing, ok := c.byKey[key]
		if !ok || entry.Priority > existing.Priority {
			c.byKey[key] = entry
		}
	}
}

/* Lookup returns the capability for a normalized key, nil when absent */
func (c *Catalog) Lookup(key string) *NodeCapability {
	entry, ok := c.byKey[NormalizeKey(key)]
	if !ok {
		return nil
	}
	return &entry
}

/* Keys returns all catalog keys, sorted for stable prompts */
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

/* Len returns the number of catalog entries */
func (c *Catalog) Len() int {
	return len(c.byKey)
}

/*
NormalizeKey lowercases, trims, singularizes, and underscores a
capability label so equivalent claims collide
*/
func NormalizeKey(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if len(key) > 3 && strings.HasSuffix(key, "s") && !strings.HasSuffix(key, "ss") {
		key = strings.TrimSuffix(key, "s")
	}
	return key
}
