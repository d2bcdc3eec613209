/*-------------------------------------------------------------------------
 *
 * cleanup.go
 *    Session cleanup service for NeuronChat
 *
 * Provides background service for automatically removing sessions whose
 * TTL has elapsed. The TTL policy is owned here; the orchestration core
 * never expires sessions itself.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/session/cleanup.go
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

type CleanupService struct {
	queries  *db.Queries
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewCleanupService(queries *db.Queries, interval time.Duration) *CleanupService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		queries:  queries,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

/* Start starts the cleanup service */
func (s *CleanupService) Start() {
	go s.run()
}

/* Stop stops the cleanup service */
func (s *CleanupService) Stop() {
	s.cancel()
	<-s.done
}

func (s *CleanupService) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	/* Run immediately on start */
	s.cleanup()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *CleanupService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	/* Recover from panics in cleanup */
	defer func() {
		if r := recover(); r != nil {
			metrics.ErrorWithContext(ctx, "Panic in session cleanup", fmt.Errorf("panic: %v", r), nil)
		}
	}()

	deleted, err := s.queries.DeleteExpiredSessions(ctx)
	if err != nil {
		/* Log error but don't crash - cleanup will retry on next interval */
		metrics.WarnWithContext(ctx, "Session cleanup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if deleted > 0 {
		metrics.RecordSessionsExpired(int(deleted))
		metrics.InfoWithContext(ctx, "Expired sessions removed", map[string]interface{}{
			"deleted": deleted,
		})
	}
}
