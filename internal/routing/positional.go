/*-------------------------------------------------------------------------
 *
 * positional.go
 *    Positional reference resolution for NeuronChat
 *
 * Resolves "the second one" / "number 3" style references against the
 * most recently presented entity list. The rule path is bounded and
 * deterministic; the optional probabilistic path can override it under
 * the same enable/fallback semantics as the follow-up resolver. A
 * value outside [1, max] is rejected, never clamped.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/routing/positional.go
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/session"
)

var aiIntPattern = regexp.MustCompile(`-?\d+`)

/* PositionalResolver resolves list-position references to an index */
type PositionalResolver struct {
	gen     llm.Generator
	intents *IntentClassifier
	cfg     config.RoutingConfig
}

/*
NewPositionalResolver creates a positional resolver.
gen may be nil, which disables the probabilistic path regardless of
configuration.
*/
func NewPositionalResolver(gen llm.Generator, intents *IntentClassifier, cfg config.RoutingConfig) *PositionalResolver {
	return &PositionalResolver{gen: gen, intents: intents, cfg: cfg}
}

/*
Resolve returns the 1-based index the message refers to, or 0 when
no position resolves (absent context, no reference, out of range)
*/
func (r *PositionalResolver) Resolve(ctx context.Context, message string, sc *session.Context) int {
	list := sc.LastEntityList()
	if list == nil {
		return 0
	}
	max := r.maxIndex(list)
	if max < 1 {
		return 0
	}

	rulePosition := r.intents.Signals(message, sc).ExtractedPosition

	if r.cfg.AIPositionalEnabled && r.gen != nil {
		aiPosition, err := r.resolveAI(ctx, message, list, max)
		if err != nil {
			metrics.RecordClassification("positional_ai", "error")
			if !r.cfg.RulesFallbackOnAIFail {
				return 0
			}
		} else if aiPosition != 0 {
			metrics.RecordClassification("positional_ai", "resolved")
			return inRange(aiPosition, max)
		}
	}

	return inRange(rulePosition, max)
}

/*
maxIndex bounds resolution by the presented list, its explicit
display range, and the configured ceiling
*/
func (r *PositionalResolver) maxIndex(list *session.EntityList) int {
	max := r.cfg.MaxPositionalIndex
	if max <= 0 {
		max = 20
	}
	if list.RangeStart > 0 && list.RangeEnd >= list.RangeStart {
		if span := list.RangeEnd; span < max {
			max = span
		}
	} else if n := len(list.EntityIDs); n > 0 && n < max {
		max = n
	}
	return max
}

/*
resolveAI asks the language model for the referenced index, "none"
when the message is not positional
*/
func (r *PositionalResolver) resolveAI(ctx context.Context, message string, list *session.EntityList, max int) (int, error) {
	prompt := fmt.Sprintf(
		"The user was shown a numbered list of %d %s record(s).\nMessage: %s\n\nWhich list position does the message refer to? Answer with the number alone, or 'none' if the message does not refer to a position.",
		max, list.EntityType, message)
	system := "You resolve positional references against a numbered list. Answer with a single number or 'none'."

	raw, err := r.gen.Generate(ctx, prompt, system, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("positional resolution failed: error=%w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(raw))
	if answer == "" || strings.Contains(answer, "none") {
		return 0, nil
	}
	m := aiIntPattern.FindString(answer)
	if m == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

/* inRange rejects values outside [1, max] rather than clamping */
func inRange(n, max int) int {
	if n < 1 || n > max {
		return 0
	}
	return n
}
