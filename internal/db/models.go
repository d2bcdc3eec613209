/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for NeuronChat
 *
 * Defines data structures for conversation sessions, transcript
 * messages, federation nodes, and collector runs.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

/* SessionRecord is the persisted snapshot of a conversation session */
type SessionRecord struct {
	SessionID      string    `db:"session_id"`
	UserID         *string   `db:"user_id"`
	Context        JSONBMap  `db:"context"`
	CreatedAt      time.Time `db:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at"`
	ExpiresAt      time.Time `db:"expires_at"`
}

/* MessageRecord is one transcript entry of a session */
type MessageRecord struct {
	ID        int64     `db:"id"`
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	Metadata  JSONBMap  `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}

/* NodeRecord is a cooperating remote node in the federation */
type NodeRecord struct {
	ID          uuid.UUID      `db:"id"`
	Slug        string         `db:"slug"`
	Name        string         `db:"name"`
	Endpoint    string         `db:"endpoint"`
	Collections pq.StringArray `db:"collections"`
	DataTypes   pq.StringArray `db:"data_types"`
	Keywords    pq.StringArray `db:"keywords"`
	Collectors  pq.StringArray `db:"collectors"`
	Workflows   pq.StringArray `db:"workflows"`
	Active      bool           `db:"active"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

/* CollectorRunRecord tracks one execution of an autonomous collector */
type CollectorRunRecord struct {
	ID        uuid.UUID  `db:"id"`
	SessionID string     `db:"session_id"`
	Collector string     `db:"collector"`
	NodeSlug  *string    `db:"node_slug"`
	Status    string     `db:"status"`
	State     JSONBMap   `db:"state"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	EndedAt   *time.Time `db:"ended_at"`
}
