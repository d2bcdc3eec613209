/*-------------------------------------------------------------------------
 *
 * client.go
 *    Knowledge search collaborator contract for NeuronChat
 *
 * The orchestration core answers query-style turns through this
 * interface. Search runs retrieval over named collections; Aggregate is
 * the fast path for count/sum-style questions that do not need a full
 * retrieval round trip.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/knowledge/client.go
 *
 *-------------------------------------------------------------------------
 */

package knowledge

import (
	"context"
)

/* HistoryEntry is one recent conversation message passed to search */
type HistoryEntry struct {
	Role    string
	Content string
}

/* SearchOptions carries per-call knobs for search */
type SearchOptions struct {
	Limit     int
	Operation string /* create/update/delete/query hint from the router */
}

/* Source identifies one retrieved document */
type Source struct {
	ID         interface{}            `json:"id"`
	Collection string                 `json:"collection"`
	Score      float64                `json:"score"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

/* Result is the outcome of a knowledge search */
type Result struct {
	Content  string
	Sources  []Source
	Metadata map[string]interface{}
}

/* Searcher is the knowledge/search backend contract */
type Searcher interface {
	Search(ctx context.Context, message string, collections []string, history []HistoryEntry, opts SearchOptions, userID string) (*Result, error)
	Aggregate(ctx context.Context, collections []string, message string, userID string) (map[string]interface{}, error)
}
