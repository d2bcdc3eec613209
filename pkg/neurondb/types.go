/*-------------------------------------------------------------------------
 *
 * types.go
 *    Type definitions for NeuronDB client package
 *
 * Defines data structures used by the NeuronDB client package for
 * embeddings, LLM generation, and hybrid search.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/pkg/neurondb/types.go
 *
 *-------------------------------------------------------------------------
 */

package neurondb

/* Vector represents a NeuronDB vector type */
type Vector []float32

/* LLMOptions contains options for LLM generation */
type LLMOptions struct {
	Model        string  `json:"model,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float64 `json:"temperature"`
}

/* HybridSearchResult is one row of a hybrid search */
type HybridSearchResult struct {
	ID            interface{}            `json:"id"`
	Content       string                 `json:"content"`
	VectorScore   float64                `json:"vector_score"`
	TextScore     float64                `json:"text_score"`
	CombinedScore float64                `json:"combined_score"`
	Metadata      map[string]interface{} `json:"metadata"`
}
