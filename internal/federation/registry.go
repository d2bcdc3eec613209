/*-------------------------------------------------------------------------
 *
 * registry.go
 *    Remote node registry for NeuronChat federation
 *
 * Nodes register what they own; the registry persists them and serves
 * active nodes to the routing coordinator. It is an explicitly
 * constructed, injected object so tests can run against an empty
 * in-memory registry.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/federation/registry.go
 *
 *-------------------------------------------------------------------------
 */

package federation

import (
	"context"
	"fmt"
	"sync"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/utils"
)

/* NodeRegistry serves the active federation peers */
type NodeRegistry interface {
	ActiveNodes(ctx context.Context) ([]Node, error)
	Node(ctx context.Context, slug string) (*Node, error)
}

/* SQLNodeRegistry persists node registrations in PostgreSQL */
type SQLNodeRegistry struct {
	queries *db.Queries
}

/* NewSQLNodeRegistry creates a registry over the node table */
func NewSQLNodeRegistry(queries *db.Queries) *SQLNodeRegistry {
	return &SQLNodeRegistry{queries: queries}
}

/* Register upserts a node advertisement */
func (r *SQLNodeRegistry) Register(ctx context.Context, node *Node) error {
	record := &db.NodeRecord{
		Slug:        node.Slug,
		Name:        node.Name,
		Endpoint:    node.Endpoint,
		Collections: node.Collections,
		DataTypes:   node.DataTypes,
		Keywords:    node.Keywords,
		Collectors:  node.Collectors,
		Workflows:   node.Workflows,
		Active:      true,
	}
	if node.ID != "" {
		id, err := utils.ParseID(node.ID)
		if err != nil {
			return fmt.Errorf("node registration failed: slug='%s', error=%w", node.Slug, err)
		}
		record.ID = id
	} else {
		record.ID = utils.NewUUID()
	}
	if err := r.queries.UpsertNode(ctx, record); err != nil {
		return fmt.Errorf("node registration failed: slug='%s', error=%w", node.Slug, err)
	}
	return nil
}

/* Deregister removes a node by slug */
func (r *SQLNodeRegistry) Deregister(ctx context.Context, slug string) error {
	if err := r.queries.DeleteNode(ctx, slug); err != nil {
		return fmt.Errorf("node deregistration failed: slug='%s', error=%w", slug, err)
	}
	return nil
}

/* ActiveNodes returns all active peers */
func (r *SQLNodeRegistry) ActiveNodes(ctx context.Context) ([]Node, error) {
	records, err := r.queries.ListActiveNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("node listing failed: error=%w", err)
	}
	nodes := make([]Node, 0, len(records))
	for i := range records {
		nodes = append(nodes, fromRecord(&records[i]))
	}
	return nodes, nil
}

/* Node returns one peer by slug, nil when absent */
func (r *SQLNodeRegistry) Node(ctx context.Context, slug string) (*Node, error) {
	record, err := r.queries.GetNode(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("node lookup failed: slug='%s', error=%w", slug, err)
	}
	if record == nil {
		return nil, nil
	}
	node := fromRecord(record)
	return &node, nil
}

func fromRecord(record *db.NodeRecord) Node {
	return Node{
		ID:          record.ID.String(),
		Slug:        record.Slug,
		Name:        record.Name,
		Endpoint:    record.Endpoint,
		Collections: record.Collections,
		DataTypes:   record.DataTypes,
		Keywords:    record.Keywords,
		Collectors:  record.Collectors,
		Workflows:   record.Workflows,
	}
}

/* MemoryNodeRegistry is an in-memory NodeRegistry for tests */
type MemoryNodeRegistry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

/* NewMemoryNodeRegistry creates an empty in-memory registry */
func NewMemoryNodeRegistry() *MemoryNodeRegistry {
	return &MemoryNodeRegistry{nodes: make(map[string]Node)}
}

/* Register stores a node advertisement */
func (r *MemoryNodeRegistry) Register(node Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[node.Slug] = node
}

/* ActiveNodes returns all registered nodes */
func (r *MemoryNodeRegistry) ActiveNodes(ctx context.Context) ([]Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		nodes = append(nodes, n)
	}
	return nodes, nil
}

/* Node returns one node by slug, nil when absent */
func (r *MemoryNodeRegistry) Node(ctx context.Context, slug string) (*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.nodes[slug]; ok {
		return &n, nil
	}
	return nil, nil
}
