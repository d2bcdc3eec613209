/*-------------------------------------------------------------------------
 *
 * generator.go
 *    Language model classifier boundary for NeuronChat
 *
 * The orchestration core calls language models only through this
 * interface, and only for short deterministic label outputs. The
 * NeuronDB-backed implementation runs generation in-database.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/llm/generator.go
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"context"
	"time"

	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/pkg/neurondb"
)

/* Generator produces text completions for classification prompts */
type Generator interface {
	Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int, temperature float64) (string, error)
}

/* NeuronDBGenerator runs generation through NeuronDB's LLM functions */
type NeuronDBGenerator struct {
	client  *neurondb.LLMClient
	model   string
	timeout time.Duration
}

/* NewNeuronDBGenerator creates a generator bound to a model and timeout */
func NewNeuronDBGenerator(client *neurondb.LLMClient, model string, timeout time.Duration) *NeuronDBGenerator {
	return &NeuronDBGenerator{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

/* Generate produces a completion, bounded by the configured timeout */
func (g *NeuronDBGenerator) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int, temperature float64) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	output, err := g.client.Generate(ctx, prompt, neurondb.LLMOptions{
		Model:        g.model,
		SystemPrompt: systemPrompt,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMCall("classification", status, time.Since(started))

	return output, err
}
