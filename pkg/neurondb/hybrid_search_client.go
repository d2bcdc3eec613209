/*-------------------------------------------------------------------------
 *
 * hybrid_search_client.go
 *    Hybrid search operations via NeuronDB
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronChat/pkg/neurondb/hybrid_search_client.go
 *
 *-------------------------------------------------------------------------
 */

package neurondb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

/* HybridSearchClient handles hybrid search operations via NeuronDB */
type HybridSearchClient struct {
	db *sqlx.DB
}

/* NewHybridSearchClient creates a new hybrid search client */
func NewHybridSearchClient(db *sqlx.DB) *HybridSearchClient {
	return &HybridSearchClient{db: db}
}

/* SemanticKeywordSearch performs semantic + keyword search over a collection table */
func (c *HybridSearchClient) SemanticKeywordSearch(ctx context.Context, query string, queryEmbedding Vector, tableName, vectorCol, textCol string, limit int) ([]HybridSearchResult, error) {
	if err := ValidateSQLIdentifier(tableName, "table_name"); err != nil {
		return nil, fmt.Errorf("semantic keyword search failed: %w", err)
	}

	var resultsJSON string
	querySQL := `SELECT neurondb_semantic_keyword_search($1, $2::vector, $3, $4, $5, $6) AS results`

	err := c.db.GetContext(ctx, &resultsJSON, querySQL, query, queryEmbedding, tableName, vectorCol, textCol, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic keyword search failed via NeuronDB: query_length=%d, table_name='%s', vector_col='%s', text_col='%s', limit=%d, function='neurondb_semantic_keyword_search', error=%w",
			len(query), tableName, vectorCol, textCol, limit, err)
	}

	var results []HybridSearchResult
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		return nil, fmt.Errorf("semantic keyword search result parsing failed: query_length=%d, results_json_length=%d, error=%w",
			len(query), len(resultsJSON), err)
	}

	return results, nil
}
