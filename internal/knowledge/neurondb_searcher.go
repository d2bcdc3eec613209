/*-------------------------------------------------------------------------
 *
 * neurondb_searcher.go
 *    NeuronDB-backed knowledge search for NeuronChat
 *
 * Implements the Searcher contract over NeuronDB's in-database
 * embedding and hybrid search functions. Each collection maps to one
 * table carrying an embedding column and a text column.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/knowledge/neurondb_searcher.go
 *
 *-------------------------------------------------------------------------
 */

package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/neurondb/NeuronChat/pkg/neurondb"
)

const (
	defaultSearchLimit = 5
	vectorColumn       = "embedding"
	textColumn         = "content"
)

/* NeuronDBSearcher answers knowledge queries via NeuronDB */
type NeuronDBSearcher struct {
	db         *sqlx.DB
	embeddings *neurondb.EmbeddingClient
	search     *neurondb.HybridSearchClient
	embedModel string
}

/* NewNeuronDBSearcher creates a searcher over the given database */
func NewNeuronDBSearcher(db *sqlx.DB, embedModel string) *NeuronDBSearcher {
	return &NeuronDBSearcher{
		db:         db,
		embeddings: neurondb.NewEmbeddingClient(db),
		search:     neurondb.NewHybridSearchClient(db),
		embedModel: embedModel,
	}
}

/* Search runs hybrid retrieval over the named collections */
func (s *NeuronDBSearcher) Search(ctx context.Context, message string, collections []string, history []HistoryEntry, opts SearchOptions, userID string) (*Result, error) {
	if len(collections) == 0 {
		return nil, fmt.Errorf("knowledge search failed: collections_empty=true")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	/* Fold the recent history into the query so terse refinements
	   retrieve against the full topic, not just the last message. */
	query := message
	if len(history) > 0 {
		var b strings.Builder
		for _, h := range history {
			if h.Role == "user" {
				b.WriteString(h.Content)
				b.WriteString(" ")
			}
		}
		b.WriteString(message)
		query = b.String()
	}

	embedding, err := s.embeddings.Embed(ctx, query, s.embedModel)
	if err != nil {
		return nil, err
	}

	result := &Result{Metadata: map[string]interface{}{"operation": opts.Operation}}
	var parts []string
	for _, collection := range collections {
		rows, err := s.search.SemanticKeywordSearch(ctx, message, embedding, collection, vectorColumn, textColumn, limit)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			parts = append(parts, row.Content)
			result.Sources = append(result.Sources, Source{
				ID:         row.ID,
				Collection: collection,
				Score:      row.CombinedScore,
				Metadata:   row.Metadata,
			})
		}
	}

	result.Content = strings.Join(parts, "\n\n")
	return result, nil
}

/* Aggregate answers count-style questions directly from collection tables */
func (s *NeuronDBSearcher) Aggregate(ctx context.Context, collections []string, message string, userID string) (map[string]interface{}, error) {
	counts := make(map[string]interface{}, len(collections))
	for _, collection := range collections {
		if err := neurondb.ValidateSQLIdentifier(collection, "collection"); err != nil {
			return nil, fmt.Errorf("knowledge aggregate failed: %w", err)
		}
		var count int64
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, neurondb.EscapeSQLIdentifier(collection))
		if err := s.db.GetContext(ctx, &count, query); err != nil {
			return nil, fmt.Errorf("knowledge aggregate failed: collection='%s', error=%w", collection, err)
		}
		counts[collection] = count
	}
	return counts, nil
}
