/*-------------------------------------------------------------------------
 *
 * embedding.go
 *    Embedding generation via NeuronDB
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/pkg/neurondb/embedding.go
 *
 *-------------------------------------------------------------------------
 */

package neurondb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

/* EmbeddingClient handles embedding generation via NeuronDB */
type EmbeddingClient struct {
	db *sqlx.DB
}

/* NewEmbeddingClient creates a new embedding client */
func NewEmbeddingClient(db *sqlx.DB) *EmbeddingClient {
	return &EmbeddingClient{db: db}
}

/* Embed generates an embedding for the given text using the specified model */
func (c *EmbeddingClient) Embed(ctx context.Context, text string, model string) (Vector, error) {
	var embeddingStr string
	query := `SELECT neurondb_embed($1, $2)::text AS embedding`

	err := c.db.GetContext(ctx, &embeddingStr, query, text, model)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed via NeuronDB: model_name='%s', text_length=%d, function='neurondb_embed', error=%w",
			model, len(text), err)
	}

	embedding, err := parseVector(embeddingStr)
	if err != nil {
		return nil, fmt.Errorf("embedding parsing failed: model_name='%s', text_length=%d, embedding_string_length=%d, function='neurondb_embed', error=%w",
			model, len(text), len(embeddingStr), err)
	}

	return embedding, nil
}

/* parseVector parses a vector string like "[1.0, 2.0, 3.0]" into a Vector */
func parseVector(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return nil, fmt.Errorf("empty vector string")
	}

	if (s[0] == '[' && s[len(s)-1] == ']') || (s[0] == '{' && s[len(s)-1] == '}') {
		s = s[1 : len(s)-1]
	} else {
		return nil, fmt.Errorf("invalid vector format: expected brackets or braces, got: %s", s)
	}

	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return Vector([]float32{}), nil
	}

	parts := strings.Split(s, ",")
	values := make([]float32, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var val float32
		if _, err := fmt.Sscanf(part, "%f", &val); err != nil {
			return nil, fmt.Errorf("failed to parse float at index %d: '%s', error: %w", i, part, err)
		}
		values = append(values, val)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("no values found in vector string: %s", s)
	}

	return Vector(values), nil
}
