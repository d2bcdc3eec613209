/*-------------------------------------------------------------------------
 *
 * followup_test.go
 *    Tests for follow-up classification and the search guard
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/routing/followup_test.go
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	"context"
	"fmt"
	"testing"

	"github.com/neurondb/NeuronChat/internal/config"
)

/* stubGenerator returns a canned reply or error, recording prompts */
type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int, temperature float64) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func rulesOnlyConfig() config.RoutingConfig {
	return config.RoutingConfig{
		AIFollowUpEnabled:     false,
		AIPositionalEnabled:   false,
		RulesFallbackOnAIFail: true,
		MaxPositionalIndex:    20,
	}
}

/* TestClassifyRules tests the deterministic label matrix */
func TestClassifyRules(t *testing.T) {
	r := NewFollowUpResolver(nil, NewIntentClassifier(20), rulesOnlyConfig())
	ctx := context.Background()

	cases := []struct {
		message string
		want    string
	}{
		{"what is the total amount?", LabelFollowUpAnswer},
		{"how many are there?", LabelFollowUpAnswer},
		{"list invoices again", LabelRefreshList},
		{"show the latest", LabelRefreshList},
		{"create a new customer", LabelNewQuery},
	}
	for _, tc := range cases {
		sc := contextWithList(3)
		if got := r.Classify(ctx, tc.message, sc); got != tc.want {
			t.Errorf("Classify(%q) = %s, expected %s", tc.message, got, tc.want)
		}
	}
}

/* TestClassifyWithoutContext tests that no list means NEW_QUERY always */
func TestClassifyWithoutContext(t *testing.T) {
	gen := &stubGenerator{reply: LabelFollowUpAnswer}
	cfg := rulesOnlyConfig()
	cfg.AIFollowUpEnabled = true
	r := NewFollowUpResolver(gen, NewIntentClassifier(20), cfg)

	sc := contextWithList(0)
	sc.SetLastEntityList(nil)
	if got := r.Classify(context.Background(), "what about it?", sc); got != LabelNewQuery {
		t.Errorf("Expected NEW_QUERY without list context, got %s", got)
	}
	if len(gen.prompts) != 0 {
		t.Error("Expected no classifier call without list context")
	}
}

/* TestClassifyAI tests the probabilistic path and its answer mapping */
func TestClassifyAI(t *testing.T) {
	cfg := rulesOnlyConfig()
	cfg.AIFollowUpEnabled = true
	ctx := context.Background()

	gen := &stubGenerator{reply: "REFRESH_LIST"}
	r := NewFollowUpResolver(gen, NewIntentClassifier(20), cfg)
	if got := r.Classify(ctx, "anything", contextWithList(3)); got != LabelRefreshList {
		t.Errorf("Expected the AI label honored, got %s", got)
	}

	/* Sloppy model output still maps */
	gen = &stubGenerator{reply: "  follow_up_answer.\n"}
	r = NewFollowUpResolver(gen, NewIntentClassifier(20), cfg)
	if got := r.Classify(ctx, "anything", contextWithList(3)); got != LabelFollowUpAnswer {
		t.Errorf("Expected case-insensitive label mapping, got %s", got)
	}
}

/* TestClassifyAIFailureFallsBack tests rule fallback on classifier error */
func TestClassifyAIFailureFallsBack(t *testing.T) {
	cfg := rulesOnlyConfig()
	cfg.AIFollowUpEnabled = true
	gen := &stubGenerator{err: fmt.Errorf("model unavailable")}
	r := NewFollowUpResolver(gen, NewIntentClassifier(20), cfg)

	got := r.Classify(context.Background(), "list invoices again", contextWithList(3))
	if got != LabelRefreshList {
		t.Errorf("Expected the rule label after AI failure, got %s", got)
	}
}

/* TestClassifyAIFailureNoFallback tests UNKNOWN when fallback is off */
func TestClassifyAIFailureNoFallback(t *testing.T) {
	cfg := rulesOnlyConfig()
	cfg.AIFollowUpEnabled = true
	cfg.RulesFallbackOnAIFail = false
	gen := &stubGenerator{err: fmt.Errorf("model unavailable")}
	r := NewFollowUpResolver(gen, NewIntentClassifier(20), cfg)

	got := r.Classify(context.Background(), "list invoices again", contextWithList(3))
	if got != LabelUnknown {
		t.Errorf("Expected UNKNOWN with fallback disabled, got %s", got)
	}
}

/* TestLabelRemap tests the configurable label vocabulary */
func TestLabelRemap(t *testing.T) {
	cfg := rulesOnlyConfig()
	cfg.AIFollowUpEnabled = true
	cfg.FollowUpLabels = config.FollowUpLabels{
		FollowUpAnswer: "CONTINUE",
		RefreshList:    "RELOAD",
		EntityLookup:   "LOOKUP",
		NewQuery:       "FRESH",
	}
	gen := &stubGenerator{reply: "RELOAD"}
	r := NewFollowUpResolver(gen, NewIntentClassifier(20), cfg)

	got := r.Classify(context.Background(), "anything", contextWithList(3))
	if got != LabelRefreshList {
		t.Errorf("Expected the remapped answer to map back to REFRESH_LIST, got %s", got)
	}
}

/* TestApplyGuard tests the one-directional rewrite */
func TestApplyGuard(t *testing.T) {
	sc := contextWithList(3)

	search := &Decision{Action: ActionSearchKnowledge, Operation: OpQuery, Confidence: 0.8}
	got := ApplyGuard(search, "what is the total?", sc, LabelFollowUpAnswer)
	if got.Action != ActionConversational {
		t.Errorf("Expected search rewritten to conversational on FOLLOW_UP_ANSWER, got %s", got.Action)
	}
	if got.Confidence != 0.8 {
		t.Errorf("Expected confidence carried over, got %v", got.Confidence)
	}

	/* Other labels leave search untouched */
	for _, label := range []string{LabelRefreshList, LabelEntityLookup, LabelNewQuery, LabelUnknown} {
		got := ApplyGuard(search, "anything", sc, label)
		if got.Action != ActionSearchKnowledge {
			t.Errorf("Expected search untouched for %s, got %s", label, got.Action)
		}
	}

	/* Conversational decisions are never promoted */
	conv := &Decision{Action: ActionConversational}
	if got := ApplyGuard(conv, "anything", sc, LabelRefreshList); got.Action != ActionConversational {
		t.Errorf("Expected conversational untouched, got %s", got.Action)
	}

	if got := ApplyGuard(nil, "anything", sc, LabelFollowUpAnswer); got != nil {
		t.Errorf("Expected nil passthrough, got %v", got)
	}
}
