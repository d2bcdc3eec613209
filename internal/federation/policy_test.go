/*-------------------------------------------------------------------------
 *
 * policy_test.go
 *    Tests for the routed-session continuation policy
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/federation/policy_test.go
 *
 *-------------------------------------------------------------------------
 */

package federation

import (
	"context"
	"fmt"
	"testing"

	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/session"
)

/* stubGenerator returns a canned reply or error */
type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int, temperature float64) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func billingRegistry() *MemoryNodeRegistry {
	reg := NewMemoryNodeRegistry()
	reg.Register(Node{
		ID: "1", Slug: "billing-node", Name: "Billing Node",
		Keywords:  []string{"invoice", "payment"},
		DataTypes: []string{"invoices"},
	})
	return reg
}

func pinned() *session.RoutedNode {
	return &session.RoutedNode{NodeID: "1", NodeSlug: "billing-node"}
}

/*
TestContinueOnKeywordOverlap tests that a message naming the node's
domain keeps the pin without a classifier call
*/
func TestContinueOnKeywordOverlap(t *testing.T) {
	gen := &stubGenerator{reply: "no"}
	p := NewRoutedSessionPolicy(billingRegistry(), gen, config.FederationConfig{})
	sc := session.NewContext("s1", "u1")

	if !p.ShouldContinue(context.Background(), "show the unpaid invoices", sc, pinned()) {
		t.Error("Expected continuation on keyword overlap")
	}
	if gen.calls != 0 {
		t.Errorf("Expected no classifier call on keyword overlap, got %d", gen.calls)
	}
}

/*
TestContinueOnTerseFollowUp tests that a short message with matching
history keeps the pin
*/
func TestContinueOnTerseFollowUp(t *testing.T) {
	p := NewRoutedSessionPolicy(billingRegistry(), nil, config.FederationConfig{})
	sc := session.NewContext("s1", "u1")
	sc.AddUserMessage("show the unpaid invoices")
	sc.AddAssistantMessage("You have 3 unpaid invoices.")

	if !p.ShouldContinue(context.Background(), "and last month?", sc, pinned()) {
		t.Error("Expected continuation for a terse follow-up with matching history")
	}
}

/* TestUnpinOnDomainChange tests that an unrelated message drops the pin */
func TestUnpinOnDomainChange(t *testing.T) {
	gen := &stubGenerator{reply: "no"}
	p := NewRoutedSessionPolicy(billingRegistry(), gen, config.FederationConfig{})
	sc := session.NewContext("s1", "u1")
	sc.AddUserMessage("show the unpaid invoices")

	if p.ShouldContinue(context.Background(), "what is the weather like in Lisbon today?", sc, pinned()) {
		t.Error("Expected un-pin for an unrelated message")
	}
	if gen.calls != 1 {
		t.Errorf("Expected one classifier call, got %d", gen.calls)
	}
}

/*
TestTerseWithoutHistoryAsksClassifier tests that terseness alone is
not enough without history overlap
*/
func TestTerseWithoutHistoryAsksClassifier(t *testing.T) {
	gen := &stubGenerator{reply: "yes"}
	p := NewRoutedSessionPolicy(billingRegistry(), gen, config.FederationConfig{})
	sc := session.NewContext("s1", "u1")
	sc.AddUserMessage("hello there")

	if !p.ShouldContinue(context.Background(), "and the rest?", sc, pinned()) {
		t.Error("Expected the affirmative classifier answer honored")
	}
	if gen.calls != 1 {
		t.Errorf("Expected one classifier call, got %d", gen.calls)
	}
}

/* TestClassifierErrorDefaultsToUnpin tests the conservative default */
func TestClassifierErrorDefaultsToUnpin(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("model unavailable")}
	p := NewRoutedSessionPolicy(billingRegistry(), gen, config.FederationConfig{AssumeContinuationOnError: false})
	sc := session.NewContext("s1", "u1")

	if p.ShouldContinue(context.Background(), "tell me more", sc, pinned()) {
		t.Error("Expected un-pin on classifier error by default")
	}

	p = NewRoutedSessionPolicy(billingRegistry(), gen, config.FederationConfig{AssumeContinuationOnError: true})
	if !p.ShouldContinue(context.Background(), "tell me more", sc, pinned()) {
		t.Error("Expected continuation on classifier error when configured")
	}
}

/* TestMissingNodeUnpins tests that a vanished node drops the pin */
func TestMissingNodeUnpins(t *testing.T) {
	p := NewRoutedSessionPolicy(NewMemoryNodeRegistry(), nil, config.FederationConfig{})
	sc := session.NewContext("s1", "u1")

	if p.ShouldContinue(context.Background(), "show the unpaid invoices", sc, pinned()) {
		t.Error("Expected un-pin when the node is no longer registered")
	}
}

/*
TestNilGeneratorUnpins tests that no classifier means no blind
forwarding
*/
func TestNilGeneratorUnpins(t *testing.T) {
	p := NewRoutedSessionPolicy(billingRegistry(), nil, config.FederationConfig{})
	sc := session.NewContext("s1", "u1")

	if p.ShouldContinue(context.Background(), "something else entirely, quite long and unrelated", sc, pinned()) {
		t.Error("Expected un-pin without a classifier and no overlap")
	}
}
