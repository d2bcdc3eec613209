/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Database queries for NeuronChat
 *
 * Provides database query functions for conversation sessions,
 * transcript messages, federation nodes, and collector runs.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

/* Session queries */
const (
	upsertSessionQuery = `
		INSERT INTO neurondb_chat.sessions (session_id, user_id, context, expires_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			context = EXCLUDED.context,
			last_activity_at = NOW(),
			expires_at = EXCLUDED.expires_at
		RETURNING created_at, last_activity_at`

	getSessionQuery = `
		SELECT * FROM neurondb_chat.sessions
		WHERE session_id = $1 AND expires_at > NOW()`

	listSessionsQuery = `
		SELECT * FROM neurondb_chat.sessions
		WHERE ($1::text IS NULL OR user_id = $1)
		ORDER BY last_activity_at DESC
		LIMIT $2 OFFSET $3`

	deleteSessionQuery = `DELETE FROM neurondb_chat.sessions WHERE session_id = $1`

	deleteExpiredSessionsQuery = `DELETE FROM neurondb_chat.sessions WHERE expires_at <= NOW()`
)

/* Message queries */
const (
	createMessageQuery = `
		INSERT INTO neurondb_chat.messages (session_id, role, content, metadata)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING id, created_at`

	getMessagesQuery = `
		SELECT * FROM neurondb_chat.messages
		WHERE session_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`

	getRecentMessagesQuery = `
		SELECT * FROM neurondb_chat.messages
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	deleteMessagesQuery = `DELETE FROM neurondb_chat.messages WHERE session_id = $1`
)

/* Node queries */
const (
	upsertNodeQuery = `
		INSERT INTO neurondb_chat.nodes
		(slug, name, endpoint, collections, data_types, keywords, collectors, workflows, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			endpoint = EXCLUDED.endpoint,
			collections = EXCLUDED.collections,
			data_types = EXCLUDED.data_types,
			keywords = EXCLUDED.keywords,
			collectors = EXCLUDED.collectors,
			workflows = EXCLUDED.workflows,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	getNodeQuery = `SELECT * FROM neurondb_chat.nodes WHERE slug = $1`

	listActiveNodesQuery = `
		SELECT * FROM neurondb_chat.nodes
		WHERE active = true
		ORDER BY slug ASC`

	deleteNodeQuery = `DELETE FROM neurondb_chat.nodes WHERE slug = $1`
)

/* Collector run queries */
const (
	createCollectorRunQuery = `
		INSERT INTO neurondb_chat.collector_runs (id, session_id, collector, node_slug, status, state)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING created_at, updated_at`

	updateCollectorRunQuery = `
		UPDATE neurondb_chat.collector_runs
		SET status = $2, state = $3::jsonb, updated_at = NOW(),
			ended_at = CASE WHEN $2 IN ('completed', 'failed', 'cancelled') THEN NOW() ELSE ended_at END
		WHERE id = $1`

	getOpenCollectorRunQuery = `
		SELECT * FROM neurondb_chat.collector_runs
		WHERE session_id = $1 AND status = 'running'
		ORDER BY created_at DESC
		LIMIT 1`
)

type Queries struct {
	db *sqlx.DB
}

func NewQueries(db *sqlx.DB) *Queries {
	return &Queries{db: db}
}

/* GetDB returns the underlying database handle */
func (q *Queries) GetDB() *sqlx.DB {
	return q.db
}

/* UpsertSession stores a session snapshot, overwriting any previous one */
func (q *Queries) UpsertSession(ctx context.Context, record *SessionRecord) error {
	err := q.db.QueryRowContext(ctx, upsertSessionQuery,
		record.SessionID, record.UserID, record.Context, record.ExpiresAt).
		Scan(&record.CreatedAt, &record.LastActivityAt)
	if err != nil {
		return fmt.Errorf("session upsert failed: session_id='%s', error=%w", record.SessionID, err)
	}
	return nil
}

/* GetSession retrieves a non-expired session by ID, nil when absent */
func (q *Queries) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	var record SessionRecord
	err := q.db.GetContext(ctx, &record, getSessionQuery, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session retrieval failed: session_id='%s', error=%w", sessionID, err)
	}
	return &record, nil
}

/* ListSessions lists sessions, optionally filtered by user */
func (q *Queries) ListSessions(ctx context.Context, userID *string, limit, offset int) ([]SessionRecord, error) {
	records := []SessionRecord{}
	err := q.db.SelectContext(ctx, &records, listSessionsQuery, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("session listing failed: limit=%d, offset=%d, error=%w", limit, offset, err)
	}
	return records, nil
}

/* DeleteSession deletes a session and its transcript */
func (q *Queries) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := q.db.ExecContext(ctx, deleteMessagesQuery, sessionID); err != nil {
		return fmt.Errorf("session transcript deletion failed: session_id='%s', error=%w", sessionID, err)
	}
	if _, err := q.db.ExecContext(ctx, deleteSessionQuery, sessionID); err != nil {
		return fmt.Errorf("session deletion failed: session_id='%s', error=%w", sessionID, err)
	}
	return nil
}

/* DeleteExpiredSessions removes sessions past their TTL, returning the count */
func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessionsQuery)
	if err != nil {
		return 0, fmt.Errorf("expired session cleanup failed: error=%w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return deleted, nil
}

/* CreateMessage appends a transcript message */
func (q *Queries) CreateMessage(ctx context.Context, message *MessageRecord) error {
	if message.Metadata == nil {
		message.Metadata = make(JSONBMap)
	}
	err := q.db.QueryRowContext(ctx, createMessageQuery,
		message.SessionID, message.Role, message.Content, message.Metadata).
		Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("message creation failed: session_id='%s', role='%s', error=%w",
			message.SessionID, message.Role, err)
	}
	return nil
}

/* GetMessages retrieves transcript messages in chronological order */
func (q *Queries) GetMessages(ctx context.Context, sessionID string, limit, offset int) ([]MessageRecord, error) {
	messages := []MessageRecord{}
	err := q.db.SelectContext(ctx, &messages, getMessagesQuery, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("message retrieval failed: session_id='%s', error=%w", sessionID, err)
	}
	return messages, nil
}

/* GetRecentMessages retrieves the most recent transcript messages */
func (q *Queries) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]MessageRecord, error) {
	messages := []MessageRecord{}
	err := q.db.SelectContext(ctx, &messages, getRecentMessagesQuery, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent message retrieval failed: session_id='%s', limit=%d, error=%w",
			sessionID, limit, err)
	}
	return messages, nil
}

/* UpsertNode registers or updates a federation node */
func (q *Queries) UpsertNode(ctx context.Context, node *NodeRecord) error {
	err := q.db.QueryRowContext(ctx, upsertNodeQuery,
		node.Slug, node.Name, node.Endpoint, node.Collections, node.DataTypes,
		node.Keywords, node.Collectors, node.Workflows, node.Active).
		Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		return fmt.Errorf("node upsert failed: slug='%s', error=%w", node.Slug, err)
	}
	return nil
}

/* GetNode retrieves a node by slug */
func (q *Queries) GetNode(ctx context.Context, slug string) (*NodeRecord, error) {
	var node NodeRecord
	err := q.db.GetContext(ctx, &node, getNodeQuery, slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("node retrieval failed: slug='%s', error=%w", slug, err)
	}
	return &node, nil
}

/* ListActiveNodes lists all active federation nodes */
func (q *Queries) ListActiveNodes(ctx context.Context) ([]NodeRecord, error) {
	nodes := []NodeRecord{}
	err := q.db.SelectContext(ctx, &nodes, listActiveNodesQuery)
	if err != nil {
		return nil, fmt.Errorf("node listing failed: error=%w", err)
	}
	return nodes, nil
}

/* DeleteNode removes a node registration */
func (q *Queries) DeleteNode(ctx context.Context, slug string) error {
	if _, err := q.db.ExecContext(ctx, deleteNodeQuery, slug); err != nil {
		return fmt.Errorf("node deletion failed: slug='%s', error=%w", slug, err)
	}
	return nil
}

/* CreateCollectorRun records the start of a collector execution */
func (q *Queries) CreateCollectorRun(ctx context.Context, run *CollectorRunRecord) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.State == nil {
		run.State = make(JSONBMap)
	}
	err := q.db.QueryRowContext(ctx, createCollectorRunQuery,
		run.ID, run.SessionID, run.Collector, run.NodeSlug, run.Status, run.State).
		Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("collector run creation failed: session_id='%s', collector='%s', error=%w",
			run.SessionID, run.Collector, err)
	}
	return nil
}

/* UpdateCollectorRun updates a collector run's status and state */
func (q *Queries) UpdateCollectorRun(ctx context.Context, id uuid.UUID, status string, state JSONBMap) error {
	if state == nil {
		state = make(JSONBMap)
	}
	if _, err := q.db.ExecContext(ctx, updateCollectorRunQuery, id, status, state); err != nil {
		return fmt.Errorf("collector run update failed: run_id='%s', status='%s', error=%w",
			id.String(), status, err)
	}
	return nil
}

/* GetOpenCollectorRun returns the running collector for a session, nil when none */
func (q *Queries) GetOpenCollectorRun(ctx context.Context, sessionID string) (*CollectorRunRecord, error) {
	var run CollectorRunRecord
	err := q.db.GetContext(ctx, &run, getOpenCollectorRunQuery, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("collector run retrieval failed: session_id='%s', error=%w", sessionID, err)
	}
	return &run, nil
}
