/*-------------------------------------------------------------------------
 *
 * migrations.go
 *    Schema bootstrap for NeuronChat
 *
 * Creates the neurondb_chat schema and its tables when missing. The
 * statements are idempotent so they can run at every startup.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/db/migrations.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"
)

var migrationStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS neurondb_chat`,

	`CREATE TABLE IF NOT EXISTS neurondb_chat.sessions (
		session_id       TEXT PRIMARY KEY,
		user_id          TEXT,
		context          JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_activity_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at       TIMESTAMPTZ NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS sessions_expires_at_idx
		ON neurondb_chat.sessions (expires_at)`,

	`CREATE TABLE IF NOT EXISTS neurondb_chat.messages (
		id         BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS messages_session_id_idx
		ON neurondb_chat.messages (session_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS neurondb_chat.nodes (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		slug        TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		endpoint    TEXT NOT NULL,
		collections TEXT[] NOT NULL DEFAULT '{}',
		data_types  TEXT[] NOT NULL DEFAULT '{}',
		keywords    TEXT[] NOT NULL DEFAULT '{}',
		collectors  TEXT[] NOT NULL DEFAULT '{}',
		workflows   TEXT[] NOT NULL DEFAULT '{}',
		active      BOOLEAN NOT NULL DEFAULT true,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS neurondb_chat.collector_runs (
		id         UUID PRIMARY KEY,
		session_id TEXT NOT NULL,
		collector  TEXT NOT NULL,
		node_slug  TEXT,
		status     TEXT NOT NULL,
		state      JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		ended_at   TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS collector_runs_session_idx
		ON neurondb_chat.collector_runs (session_id, status)`,
}

/* Migrate applies the schema bootstrap statements */
func Migrate(ctx context.Context, database *DB) error {
	for i, stmt := range migrationStatements {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: statement=%d, error=%w", i, err)
		}
	}
	return nil
}
