/*-------------------------------------------------------------------------
 *
 * followup.go
 *    Follow-up classification for NeuronChat
 *
 * Classifies a message against the most recently presented entity list
 * into one of four labels. The probabilistic path is optional; when it
 * is disabled, fails, or answers UNKNOWN with rule fallback enabled,
 * the deterministic signals decide.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/routing/followup.go
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/session"
)

/* Canonical follow-up classification labels */
const (
	LabelFollowUpAnswer = "FOLLOW_UP_ANSWER"
	LabelRefreshList    = "REFRESH_LIST"
	LabelEntityLookup   = "ENTITY_LOOKUP"
	LabelNewQuery       = "NEW_QUERY"
	LabelUnknown        = "UNKNOWN"
)

/* Recent conversation window handed to the probabilistic classifier */
const classifierHistoryWindow = 6

/* FollowUpResolver classifies messages relative to the last entity list */
type FollowUpResolver struct {
	gen     llm.Generator
	intents *IntentClassifier
	cfg     config.RoutingConfig
}

/*
NewFollowUpResolver creates a follow-up resolver.
gen may be nil, which disables the probabilistic path regardless of
configuration.
*/
func NewFollowUpResolver(gen llm.Generator, intents *IntentClassifier, cfg config.RoutingConfig) *FollowUpResolver {
	return &FollowUpResolver{gen: gen, intents: intents, cfg: cfg}
}

/* Classify returns one of the canonical labels for the message */
func (r *FollowUpResolver) Classify(ctx context.Context, message string, sc *session.Context) string {
	list := sc.LastEntityList()
	if list == nil {
		return LabelNewQuery
	}

	if r.cfg.AIFollowUpEnabled && r.gen != nil {
		label, err := r.classifyAI(ctx, message, sc, list)
		if err != nil {
			metrics.RecordClassification("followup_ai", "error")
			if !r.cfg.RulesFallbackOnAIFail {
				return LabelUnknown
			}
		} else if label != LabelUnknown {
			metrics.RecordClassification("followup_ai", strings.ToLower(label))
			return label
		} else if !r.cfg.RulesFallbackOnAIFail {
			return LabelUnknown
		}
	}

	return r.classifyRules(message, sc)
}

/* classifyRules decides from deterministic signals alone */
func (r *FollowUpResolver) classifyRules(message string, sc *session.Context) string {
	signals := r.intents.Signals(message, sc)
	switch {
	case signals.IsExplicitListRequest:
		metrics.RecordClassification("followup_rules", "refresh_list")
		return LabelRefreshList
	case signals.IsFollowUpQuestion:
		metrics.RecordClassification("followup_rules", "follow_up_answer")
		return LabelFollowUpAnswer
	default:
		metrics.RecordClassification("followup_rules", "new_query")
		return LabelNewQuery
	}
}

/*
classifyAI asks the language model for one of the configured labels
and maps the answer back to the canonical vocabulary
*/
func (r *FollowUpResolver) classifyAI(ctx context.Context, message string, sc *session.Context, list *session.EntityList) (string, error) {
	labels := r.labelVocabulary()

	var sb strings.Builder
	sb.WriteString("Recent conversation:\n")
	for _, m := range sc.RecentHistory(classifierHistoryWindow) {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&sb, "\nThe user was last shown a list of %d %s record(s).\n", len(list.EntityIDs), list.EntityType)
	fmt.Fprintf(&sb, "\nNew message: %s\n", message)
	fmt.Fprintf(&sb, "\nAnswer with exactly one word: %s, %s, %s, or %s.",
		labels[LabelFollowUpAnswer], labels[LabelRefreshList], labels[LabelEntityLookup], labels[LabelNewQuery])

	system := "You classify whether a chat message continues the previous topic, asks to refresh the shown list, looks up a specific record, or starts a new topic. Answer with exactly one label."

	raw, err := r.gen.Generate(ctx, sb.String(), system, 20, 0)
	if err != nil {
		return "", fmt.Errorf("followup classification failed: error=%w", err)
	}

	answer := strings.ToUpper(strings.TrimSpace(raw))
	for canonical, mapped := range labels {
		if answer == strings.ToUpper(mapped) || strings.Contains(answer, strings.ToUpper(mapped)) {
			return canonical, nil
		}
	}
	return LabelUnknown, nil
}

/* labelVocabulary returns canonical label -> configured output label */
func (r *FollowUpResolver) labelVocabulary() map[string]string {
	labels := map[string]string{
		LabelFollowUpAnswer: LabelFollowUpAnswer,
		LabelRefreshList:    LabelRefreshList,
		LabelEntityLookup:   LabelEntityLookup,
		LabelNewQuery:       LabelNewQuery,
	}
	remapped := r.cfg.FollowUpLabels
	if remapped.FollowUpAnswer != "" {
		labels[LabelFollowUpAnswer] = remapped.FollowUpAnswer
	}
	if remapped.RefreshList != "" {
		labels[LabelRefreshList] = remapped.RefreshList
	}
	if remapped.EntityLookup != "" {
		labels[LabelEntityLookup] = remapped.EntityLookup
	}
	if remapped.NewQuery != "" {
		labels[LabelNewQuery] = remapped.NewQuery
	}
	return labels
}

/*
ApplyGuard rewrites a tentative search_knowledge decision to
conversational when the classification says the message is a terse
continuation of the previous answer.
The guard is deliberately one-directional: REFRESH_LIST and
ENTITY_LOOKUP leave search_knowledge untouched, and conversational
decisions are never promoted to search. The cheap signal extraction
over-triggers search on purpose; this is the correctness backstop.
*/
func ApplyGuard(decision *Decision, message string, sc *session.Context, classification string) *Decision {
	if decision == nil {
		return nil
	}
	if decision.Action == ActionSearchKnowledge && classification == LabelFollowUpAnswer {
		metrics.RecordClassification("followup_guard", "rewritten")
		return &Decision{
			Action:     ActionConversational,
			Reasoning:  "follow-up answer to the previous result list",
			Confidence: decision.Confidence,
		}
	}
	return decision
}
