/*-------------------------------------------------------------------------
 *
 * registry_test.go
 *    Tests for the autonomous collector registry
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/collector/registry_test.go
 *
 *-------------------------------------------------------------------------
 */

package collector

import (
	"context"
	"testing"
)

func expenseCollector() Collector {
	return Collector{
		Name:     "expense-report",
		Triggers: []string{"expense report", "log an expense"},
		Workflow: "collect_expenses",
	}
}

/* TestMatchTrigger tests trigger phrase containment */
func TestMatchTrigger(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(expenseCollector())
	ctx := context.Background()

	cases := []struct {
		message string
		want    string
	}{
		{"start my expense report for March", "expense-report"},
		{"I want to LOG AN EXPENSE", "expense-report"},
		{"show me the invoices", ""},
		{"expenses", ""}, /* partial phrase does not trigger */
	}
	for _, tc := range cases {
		if got := reg.MatchTrigger(ctx, tc.message, "u1"); got != tc.want {
			t.Errorf("MatchTrigger(%q) = %q, expected %q", tc.message, got, tc.want)
		}
	}
}

/* TestMatchTriggerPermission tests the per-user permission gate */
func TestMatchTriggerPermission(t *testing.T) {
	allowed := func(userID, collector string) bool {
		return userID == "manager"
	}
	reg := NewRegistry(allowed)
	reg.Register(expenseCollector())
	ctx := context.Background()

	if got := reg.MatchTrigger(ctx, "start my expense report", "manager"); got != "expense-report" {
		t.Errorf("Expected the permitted user to trigger, got %q", got)
	}
	if got := reg.MatchTrigger(ctx, "start my expense report", "intern"); got != "" {
		t.Errorf("Expected the denied user blocked, got %q", got)
	}
}

/*
TestMatchTriggerDeterminism tests that overlapping triggers resolve
by sorted collector name
*/
func TestMatchTriggerDeterminism(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(Collector{Name: "zeta", Triggers: []string{"daily report"}})
	reg.Register(Collector{Name: "alpha", Triggers: []string{"daily report"}})

	for i := 0; i < 10; i++ {
		if got := reg.MatchTrigger(context.Background(), "run the daily report", "u1"); got != "alpha" {
			t.Fatalf("Expected the first collector in name order, got %q", got)
		}
	}
}

/* TestGetAndNames tests registry accessors */
func TestGetAndNames(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(expenseCollector())
	reg.Register(Collector{Name: "audit-log", Triggers: []string{"audit"}})

	if c := reg.Get("expense-report"); c == nil || c.Workflow != "collect_expenses" {
		t.Errorf("Expected the registered collector, got %v", c)
	}
	if c := reg.Get("missing"); c != nil {
		t.Errorf("Expected nil for an unknown name, got %v", c)
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "audit-log" || names[1] != "expense-report" {
		t.Errorf("Expected sorted names, got %v", names)
	}
}
