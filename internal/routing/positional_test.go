/*-------------------------------------------------------------------------
 *
 * positional_test.go
 *    Tests for positional reference resolution
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/routing/positional_test.go
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	"context"
	"fmt"
	"testing"

	"github.com/neurondb/NeuronChat/internal/session"
)

/* TestResolveRules tests the deterministic resolution path */
func TestResolveRules(t *testing.T) {
	r := NewPositionalResolver(nil, NewIntentClassifier(20), rulesOnlyConfig())
	ctx := context.Background()
	sc := contextWithList(3)

	cases := []struct {
		message string
		want    int
	}{
		{"the second one", 2},
		{"tell me about number 3", 3},
		{"the last one", 3},
		{"item 7", 0}, /* out of range is rejected, not clamped */
		{"what is the total?", 0},
	}
	for _, tc := range cases {
		if got := r.Resolve(ctx, tc.message, sc); got != tc.want {
			t.Errorf("Resolve(%q) = %d, expected %d", tc.message, got, tc.want)
		}
	}
}

/* TestResolveWithoutContext tests that no list means no position */
func TestResolveWithoutContext(t *testing.T) {
	r := NewPositionalResolver(nil, NewIntentClassifier(20), rulesOnlyConfig())
	sc := session.NewContext("s1", "u1")
	if got := r.Resolve(context.Background(), "the second one", sc); got != 0 {
		t.Errorf("Expected 0 without list context, got %d", got)
	}
}

/* TestResolveAIOverride tests that a confident AI answer wins */
func TestResolveAIOverride(t *testing.T) {
	cfg := rulesOnlyConfig()
	cfg.AIPositionalEnabled = true
	gen := &stubGenerator{reply: "3"}
	r := NewPositionalResolver(gen, NewIntentClassifier(20), cfg)

	/* The rule path extracts nothing here; the AI answer resolves it */
	got := r.Resolve(context.Background(), "the one we just discussed", contextWithList(3))
	if got != 3 {
		t.Errorf("Expected the AI position honored, got %d", got)
	}
}

/* TestResolveAINone tests that 'none' defers to rules */
func TestResolveAINone(t *testing.T) {
	cfg := rulesOnlyConfig()
	cfg.AIPositionalEnabled = true
	gen := &stubGenerator{reply: "none"}
	r := NewPositionalResolver(gen, NewIntentClassifier(20), cfg)

	if got := r.Resolve(context.Background(), "the second one", contextWithList(3)); got != 2 {
		t.Errorf("Expected the rule position when AI answers 'none', got %d", got)
	}
}

/* TestResolveAIOutOfRange tests that AI answers are range-checked too */
func TestResolveAIOutOfRange(t *testing.T) {
	cfg := rulesOnlyConfig()
	cfg.AIPositionalEnabled = true
	gen := &stubGenerator{reply: "9"}
	r := NewPositionalResolver(gen, NewIntentClassifier(20), cfg)

	if got := r.Resolve(context.Background(), "that one", contextWithList(3)); got != 0 {
		t.Errorf("Expected an out-of-range AI answer rejected, got %d", got)
	}
}

/* TestResolveAIFailure tests both fallback settings on classifier error */
func TestResolveAIFailure(t *testing.T) {
	ctx := context.Background()

	cfg := rulesOnlyConfig()
	cfg.AIPositionalEnabled = true
	gen := &stubGenerator{err: fmt.Errorf("model unavailable")}
	r := NewPositionalResolver(gen, NewIntentClassifier(20), cfg)
	if got := r.Resolve(ctx, "the second one", contextWithList(3)); got != 2 {
		t.Errorf("Expected the rule position after AI failure with fallback, got %d", got)
	}

	cfg.RulesFallbackOnAIFail = false
	r = NewPositionalResolver(gen, NewIntentClassifier(20), cfg)
	if got := r.Resolve(ctx, "the second one", contextWithList(3)); got != 0 {
		t.Errorf("Expected 0 after AI failure with fallback disabled, got %d", got)
	}
}

/* TestResolveDisplayRange tests that an explicit range bounds resolution */
func TestResolveDisplayRange(t *testing.T) {
	r := NewPositionalResolver(nil, NewIntentClassifier(20), rulesOnlyConfig())
	sc := session.NewContext("s1", "u1")
	sc.SetLastEntityList(&session.EntityList{
		EntityType: "invoice",
		EntityIDs:  []string{"a", "b"},
		RangeStart: 1,
		RangeEnd:   5,
	})

	if got := r.Resolve(context.Background(), "item 4", sc); got != 4 {
		t.Errorf("Expected position 4 within the display range, got %d", got)
	}
	if got := r.Resolve(context.Background(), "item 6", sc); got != 0 {
		t.Errorf("Expected position 6 rejected beyond the display range, got %d", got)
	}
}
