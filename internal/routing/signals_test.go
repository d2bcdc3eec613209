/*-------------------------------------------------------------------------
 *
 * signals_test.go
 *    Tests for deterministic intent signal extraction
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/routing/signals_test.go
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	"testing"

	"github.com/neurondb/NeuronChat/internal/session"
)

func contextWithList(n int) *session.Context {
	sc := session.NewContext("s1", "u1")
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	sc.SetLastEntityList(&session.EntityList{EntityType: "invoice", EntityIDs: ids})
	return sc
}

/* TestExplicitListRequest tests list verb + record noun detection */
func TestExplicitListRequest(t *testing.T) {
	c := NewIntentClassifier(20)

	cases := []struct {
		message string
		hasList bool
		want    bool
	}{
		{"list invoices again", true, true},
		{"show me all customers", false, true},
		{"list them again", true, true},
		{"what is the total amount?", true, false},
		{"the second one", true, false},
		{"hello there", false, false},
	}
	for _, tc := range cases {
		sc := session.NewContext("s1", "u1")
		if tc.hasList {
			sc = contextWithList(3)
		}
		s := c.Signals(tc.message, sc)
		if s.IsExplicitListRequest != tc.want {
			t.Errorf("Signals(%q).IsExplicitListRequest = %v, expected %v", tc.message, s.IsExplicitListRequest, tc.want)
		}
	}
}

/*
TestFollowUpSignal tests that follow-up vocabulary only fires with
list context and never alongside an explicit list request
*/
func TestFollowUpSignal(t *testing.T) {
	c := NewIntentClassifier(20)

	sc := contextWithList(3)
	if s := c.Signals("what is the total amount?", sc); !s.IsFollowUpQuestion {
		t.Error("Expected a follow-up signal for 'what is the total amount?' with list context")
	}
	if s := c.Signals("list invoices again", sc); s.IsFollowUpQuestion {
		t.Error("Expected no follow-up signal when the message is an explicit list request")
	}

	empty := session.NewContext("s1", "u1")
	if s := c.Signals("what is the total amount?", empty); s.IsFollowUpQuestion {
		t.Error("Expected no follow-up signal without list context")
	}
}

/* TestExtractPosition tests ordinal words, patterns, and bounds */
func TestExtractPosition(t *testing.T) {
	c := NewIntentClassifier(20)
	sc := contextWithList(3)

	cases := []struct {
		message string
		want    int
	}{
		{"the second one", 2},
		{"tell me about the first", 1},
		{"item 3", 3},
		{"number 2 please", 2},
		{"option #1", 1},
		{"the 4th one", 4},
		{"2", 2},
		{"#3", 3},
		{"the last one", 3},
		{"item 25", 0},
		{"no position here", 0},
	}
	for _, tc := range cases {
		got := c.Signals(tc.message, sc).ExtractedPosition
		if got != tc.want {
			t.Errorf("Signals(%q).ExtractedPosition = %d, expected %d", tc.message, got, tc.want)
		}
	}
}

/* TestOptionSelection tests bare-number selection against list bounds */
func TestOptionSelection(t *testing.T) {
	c := NewIntentClassifier(20)

	sc := contextWithList(3)
	if !c.Signals("2", sc).IsOptionSelection {
		t.Error("Expected '2' to be an option selection within a 3-item list")
	}
	if c.Signals("7", sc).IsOptionSelection {
		t.Error("Expected '7' rejected outside a 3-item list")
	}
	if c.Signals("the second one", sc).IsOptionSelection {
		t.Error("Expected only bare integers to count as option selections")
	}

	/* An explicit display range overrides the id count */
	ranged := session.NewContext("s1", "u1")
	ranged.SetLastEntityList(&session.EntityList{
		EntityType: "invoice",
		EntityIDs:  []string{"a"},
		RangeStart: 5,
		RangeEnd:   8,
	})
	if !c.Signals("6", ranged).IsOptionSelection {
		t.Error("Expected '6' accepted within the display range 5-8")
	}
	if c.Signals("2", ranged).IsOptionSelection {
		t.Error("Expected '2' rejected below the display range")
	}
}
