/*-------------------------------------------------------------------------
 *
 * client.go
 *    Unified NeuronDB client
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/pkg/neurondb/client.go
 *
 *-------------------------------------------------------------------------
 */

package neurondb

import (
	"github.com/jmoiron/sqlx"
)

/* Client provides a unified interface to NeuronDB functions */
type Client struct {
	LLM          *LLMClient
	Embedding    *EmbeddingClient
	HybridSearch *HybridSearchClient
}

/* NewClient creates a new NeuronDB client */
func NewClient(db *sqlx.DB) *Client {
	return &Client{
		LLM:          NewLLMClient(db),
		Embedding:    NewEmbeddingClient(db),
		HybridSearch: NewHybridSearchClient(db),
	}
}
