/*-------------------------------------------------------------------------
 *
 * context_test.go
 *    Tests for the per-conversation session context
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/session/context_test.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"testing"
	"time"
)

/*
TestWorkflowStepInvariant tests that workflow and step are always
set or cleared as a pair
*/
func TestWorkflowStepInvariant(t *testing.T) {
	sc := NewContext("s1", "u1")

	sc.SetWorkflow("create_invoice", "collect")
	if sc.CurrentWorkflow != "create_invoice" || sc.CurrentStep != "collect" {
		t.Errorf("Expected workflow/step pair set, got %q/%q", sc.CurrentWorkflow, sc.CurrentStep)
	}
	if !sc.InWorkflow() {
		t.Error("Expected InWorkflow true after SetWorkflow")
	}

	/* An empty half clears both */
	sc.SetWorkflow("create_invoice", "")
	if sc.CurrentWorkflow != "" || sc.CurrentStep != "" {
		t.Errorf("Expected both cleared, got %q/%q", sc.CurrentWorkflow, sc.CurrentStep)
	}

	sc.SetWorkflow("", "collect")
	if sc.CurrentWorkflow != "" || sc.CurrentStep != "" {
		t.Errorf("Expected both cleared, got %q/%q", sc.CurrentWorkflow, sc.CurrentStep)
	}
	if sc.InWorkflow() {
		t.Error("Expected InWorkflow false after clearing")
	}
}

/* TestPushPopWorkflow tests stack suspend and resume ordering */
func TestPushPopWorkflow(t *testing.T) {
	sc := NewContext("s1", "u1")

	sc.PushWorkflow("outer", "collect", map[string]interface{}{"items": "2 laptops"})
	sc.PushWorkflow("inner", "collect", map[string]interface{}{"name": "John Smith"})

	if !sc.InSubworkflow() {
		t.Error("Expected InSubworkflow true with frames on the stack")
	}

	frame := sc.PopWorkflow()
	if frame == nil {
		t.Fatal("Expected a frame, got nil")
	}
	if frame.WorkflowID != "inner" {
		t.Errorf("Expected LIFO pop to return 'inner', got %q", frame.WorkflowID)
	}
	if frame.State["name"] != "John Smith" {
		t.Errorf("Expected suspended state preserved, got %v", frame.State)
	}
	if frame.CollectedData["name"] != "John Smith" {
		t.Errorf("Expected collected data snapshot, got %v", frame.CollectedData)
	}

	frame = sc.PopWorkflow()
	if frame == nil || frame.WorkflowID != "outer" {
		t.Fatalf("Expected 'outer' frame, got %v", frame)
	}
	if sc.InSubworkflow() {
		t.Error("Expected InSubworkflow false after draining the stack")
	}
}

/* TestPopEmptyStack tests that popping an empty stack is a nil no-op */
func TestPopEmptyStack(t *testing.T) {
	sc := NewContext("s1", "u1")
	if frame := sc.PopWorkflow(); frame != nil {
		t.Errorf("Expected nil from empty stack, got %v", frame)
	}
	/* Still usable afterward */
	sc.PushWorkflow("wf", "step", map[string]interface{}{})
	if frame := sc.PopWorkflow(); frame == nil {
		t.Error("Expected frame after push, got nil")
	}
}

/*
TestClearWorkflowAtDepth tests that cancellation discards the whole
stack in one mutation
*/
func TestClearWorkflowAtDepth(t *testing.T) {
	sc := NewContext("s1", "u1")
	sc.PushWorkflow("grandparent", "collect", map[string]interface{}{})
	sc.PushWorkflow("parent", "collect", map[string]interface{}{})
	sc.SetWorkflow("child", "collect")
	sc.WorkflowState["name"] = "partial"
	sc.Set(MetaAwaitingConfirmation, "complete")
	sc.Set(MetaAskingFor, "field:email")

	sc.ClearWorkflow()

	if sc.InWorkflow() {
		t.Error("Expected no active workflow after ClearWorkflow")
	}
	if len(sc.Stack) != 0 {
		t.Errorf("Expected empty stack, got %d frames", len(sc.Stack))
	}
	if len(sc.WorkflowState) != 0 {
		t.Errorf("Expected empty workflow state, got %v", sc.WorkflowState)
	}
	if sc.Has(MetaAwaitingConfirmation) || sc.Has(MetaAskingFor) {
		t.Error("Expected workflow scratch flags cleared")
	}
}

/* TestRecentHistory tests history windowing */
func TestRecentHistory(t *testing.T) {
	sc := NewContext("s1", "u1")
	sc.AddUserMessage("one")
	sc.AddAssistantMessage("two")
	sc.AddUserMessage("three")

	recent := sc.RecentHistory(2)
	if len(recent) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(recent))
	}
	if recent[0].Content != "two" || recent[1].Content != "three" {
		t.Errorf("Expected the most recent messages in order, got %v", recent)
	}

	if got := sc.RecentHistory(10); len(got) != 3 {
		t.Errorf("Expected all 3 messages when window exceeds history, got %d", len(got))
	}
	if got := sc.RecentHistory(0); got != nil {
		t.Errorf("Expected nil for zero window, got %v", got)
	}
}

/* TestSnapshotRoundTrip tests that a context survives persistence */
func TestSnapshotRoundTrip(t *testing.T) {
	sc := NewContext("s1", "u1")
	sc.AddUserMessage("create an invoice")
	sc.AddAssistantMessage("Which customer is this for?")
	sc.PushWorkflow("create_invoice", "collect", map[string]interface{}{"items": "2 laptops"})
	sc.SetWorkflow("create_customer", "collect")
	sc.WorkflowState["name"] = "John Smith"
	sc.SetLastEntityList(&EntityList{
		EntityType: "invoice",
		EntityIDs:  []string{"a", "b", "c"},
		RangeStart: 1,
		RangeEnd:   3,
		Timestamp:  time.Now().UTC(),
	})
	sc.SetRoutedNode(&RoutedNode{NodeID: "n1", NodeSlug: "billing-node"})

	snap, err := sc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	restored, err := FromSnapshot("s1", "u1", snap)
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}

	if len(restored.History) != 2 {
		t.Errorf("Expected 2 history messages, got %d", len(restored.History))
	}
	if restored.CurrentWorkflow != "create_customer" || restored.CurrentStep != "collect" {
		t.Errorf("Expected active workflow restored, got %q/%q", restored.CurrentWorkflow, restored.CurrentStep)
	}
	if restored.WorkflowState["name"] != "John Smith" {
		t.Errorf("Expected workflow state restored, got %v", restored.WorkflowState)
	}
	if len(restored.Stack) != 1 || restored.Stack[0].WorkflowID != "create_invoice" {
		t.Fatalf("Expected suspended frame restored, got %v", restored.Stack)
	}
	if restored.Stack[0].State["items"] != "2 laptops" {
		t.Errorf("Expected frame state restored, got %v", restored.Stack[0].State)
	}

	/* Typed accessors re-hydrate from the JSONB shapes */
	list := restored.LastEntityList()
	if list == nil {
		t.Fatal("Expected entity list after round trip, got nil")
	}
	if list.EntityType != "invoice" || len(list.EntityIDs) != 3 || list.RangeEnd != 3 {
		t.Errorf("Expected entity list fields restored, got %+v", list)
	}

	node := restored.RoutedNode()
	if node == nil {
		t.Fatal("Expected routed node after round trip, got nil")
	}
	if node.NodeSlug != "billing-node" {
		t.Errorf("Expected node slug 'billing-node', got %q", node.NodeSlug)
	}
}

/* TestMetadataAccessors tests Get/Set/Has/Forget semantics */
func TestMetadataAccessors(t *testing.T) {
	sc := NewContext("s1", "u1")

	if got := sc.Get("missing", "default"); got != "default" {
		t.Errorf("Expected default for missing key, got %v", got)
	}
	sc.Set("k", "v")
	if !sc.Has("k") {
		t.Error("Expected Has true after Set")
	}
	if got := sc.Get("k", ""); got != "v" {
		t.Errorf("Expected 'v', got %v", got)
	}
	sc.Forget("k")
	if sc.Has("k") {
		t.Error("Expected Has false after Forget")
	}
}
