/*-------------------------------------------------------------------------
 *
 * registry_test.go
 *    Tests for workflow registration and validation
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/workflow/registry_test.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"testing"

	"github.com/neurondb/NeuronChat/internal/session"
)

func noopStep(ctx context.Context, message string, sc *session.Context, state map[string]interface{}) (*StepResult, error) {
	return &StepResult{Outcome: OutcomeSuccess}, nil
}

/* TestRegisterAndGet tests basic registration */
func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	def := &Definition{
		ID:     "create_customer",
		Fields: []FieldDef{{Name: "name", Required: true}},
	}
	if err := reg.Register(def); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got := reg.Get("create_customer"); got != def {
		t.Error("Expected the registered definition back")
	}
	if got := reg.Get("missing"); got != nil {
		t.Errorf("Expected nil for an unknown id, got %v", got)
	}

	if err := reg.Register(def); err == nil {
		t.Error("Expected duplicate registration rejected")
	}
}

/* TestValidation tests the definition checks */
func TestValidation(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name string
		def  *Definition
	}{
		{"nil definition", nil},
		{"empty id", &Definition{Fields: []FieldDef{{Name: "x"}}}},
		{"declarative with nothing to collect", &Definition{ID: "empty"}},
		{"nil execute", &Definition{ID: "g", Steps: []Step{{ID: "a"}}}},
		{"duplicate step id", &Definition{ID: "g", Steps: []Step{
			{ID: "a", Execute: noopStep}, {ID: "a", Execute: noopStep},
		}}},
		{"unknown transition", &Definition{ID: "g", Steps: []Step{
			{ID: "a", Execute: noopStep, OnSuccess: "missing"},
		}}},
		{"unknown entry step", &Definition{ID: "g", EntryStep: "missing", Steps: []Step{
			{ID: "a", Execute: noopStep},
		}}},
	}
	for _, tc := range cases {
		if err := reg.Register(tc.def); err == nil {
			t.Errorf("Expected %s rejected", tc.name)
		}
	}

	/* Terminal transitions and a defaulted entry step are valid */
	ok := &Definition{ID: "g", Steps: []Step{
		{ID: "a", Execute: noopStep, OnSuccess: StepTerminal},
	}}
	if err := reg.Register(ok); err != nil {
		t.Errorf("Expected a valid graph accepted, got %v", err)
	}
}

/* TestIDs tests sorted id listing */
func TestIDs(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"zeta", "alpha"} {
		if err := reg.Register(&Definition{ID: id, Fields: []FieldDef{{Name: "x"}}}); err != nil {
			t.Fatalf("Register(%s) failed: %v", id, err)
		}
	}
	ids := reg.IDs()
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "zeta" {
		t.Errorf("Expected sorted ids, got %v", ids)
	}
}
