/*-------------------------------------------------------------------------
 *
 * store.go
 *    Session persistence for NeuronChat
 *
 * Loads and saves session context snapshots with TTL-based expiry,
 * fronted by an in-memory cache. Save is idempotent: it overwrites the
 * stored snapshot and appends only transcript messages added since the
 * context was loaded.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/session/store.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/metrics"
)

type Store struct {
	queries *db.Queries
	cache   *Cache
	ttl     time.Duration
}

/* NewStore creates a session store with the given TTL policy */
func NewStore(queries *db.Queries, cache *Cache, ttl time.Duration) *Store {
	return &Store{
		queries: queries,
		cache:   cache,
		ttl:     ttl,
	}
}

/* TTL returns the configured session TTL */
func (s *Store) TTL() time.Duration {
	return s.ttl
}

/* Load retrieves a session context, creating an empty one when absent */
func (s *Store) Load(ctx context.Context, sessionID, userID string) (*Context, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session load failed: session_id_empty=true")
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("session load cancelled: session_id='%s', context_error=%w", sessionID, ctx.Err())
	}

	if s.cache != nil {
		if sc := s.cache.Get(sessionID); sc != nil {
			return sc, nil
		}
	}

	record, err := s.queries.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		metrics.DebugWithContext(ctx, "Session not found, creating empty context", map[string]interface{}{
			"session_id": sessionID,
		})
		return NewContext(sessionID, userID), nil
	}

	storedUser := userID
	if record.UserID != nil && *record.UserID != "" {
		storedUser = *record.UserID
	}

	sc, err := FromSnapshot(sessionID, storedUser, record.Context)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(sessionID, sc)
	}
	return sc, nil
}

/* Save overwrites the stored snapshot and appends new transcript rows */
func (s *Store) Save(ctx context.Context, sc *Context) error {
	if sc == nil {
		return fmt.Errorf("session save failed: context_nil=true")
	}
	if ctx.Err() != nil {
		return fmt.Errorf("session save cancelled: session_id='%s', context_error=%w", sc.SessionID, ctx.Err())
	}

	snap, err := sc.Snapshot()
	if err != nil {
		return err
	}

	var userID *string
	if sc.UserID != "" {
		userID = &sc.UserID
	}

	record := &db.SessionRecord{
		SessionID: sc.SessionID,
		UserID:    userID,
		Context:   snap,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.queries.UpsertSession(ctx, record); err != nil {
		return err
	}

	/* Append transcript rows for messages added this turn */
	for i := sc.persistedMessages; i < len(sc.History); i++ {
		msg := sc.History[i]
		row := &db.MessageRecord{
			SessionID: sc.SessionID,
			Role:      msg.Role,
			Content:   msg.Content,
			Metadata:  db.JSONBMap(msg.Metadata),
		}
		if err := s.queries.CreateMessage(ctx, row); err != nil {
			return err
		}
	}
	sc.persistedMessages = len(sc.History)

	if s.cache != nil {
		s.cache.Set(sc.SessionID, sc)
	}
	return nil
}

/* Delete removes a session and evicts it from the cache */
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session deletion failed: session_id_empty=true")
	}
	if err := s.queries.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Delete(sessionID)
	}
	return nil
}
