/*-------------------------------------------------------------------------
 *
 * llm_client.go
 *    LLM generation client via NeuronDB
 *
 * Calls NeuronDB's in-database LLM functions. The orchestrator uses
 * this exclusively for short-label classification (deterministic,
 * temperature 0, small max_tokens), never for long completions.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/pkg/neurondb/llm_client.go
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

/* LLMClient handles LLM generation via NeuronDB */
type LLMClient struct {
	db *sqlx.DB
}

/* NewLLMClient creates a new LLM client */
func NewLLMClient(db *sqlx.DB) *LLMClient {
	return &LLMClient{db: db}
}

/* Generate produces a completion for the given prompt */
func (c *LLMClient) Generate(ctx context.Context, prompt string, opts LLMOptions) (string, error) {
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("llm generation failed: prompt_length=%d, option_marshaling_error=true, error=%w",
			len(prompt), err)
	}

	var output string
	query := `SELECT neurondb_llm_generate($1, $2::jsonb)::text AS output`

	err = c.db.GetContext(ctx, &output, query, prompt, optsJSON)
	if err != nil {
		return "", fmt.Errorf("llm generation failed via NeuronDB: prompt_length=%d, model_name='%s', max_tokens=%d, function='neurondb_llm_generate', error=%w",
			len(prompt), opts.Model, opts.MaxTokens, err)
	}

	return output, nil
}
