/*-------------------------------------------------------------------------
 *
 * workflows_test.go
 *    Tests for the built-in workflow definitions
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cmd/chat-server/workflows_test.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"testing"

	"github.com/neurondb/NeuronChat/internal/entity"
	"github.com/neurondb/NeuronChat/internal/session"
	"github.com/neurondb/NeuronChat/internal/workflow"
)

/*
TestExtractCustomerName tests that the name capture stops at lowercase
stop-words and only the keyword itself is case-insensitive
*/
func TestExtractCustomerName(t *testing.T) {
	cases := []struct {
		message string
		name    string
		ok      bool
	}{
		{"Create invoice for John Smith with 2 laptops", "John Smith", true},
		{"Create invoice For Jane Doe", "Jane Doe", true},
		{"invoice for Mary O'Brien due friday", "Mary O'Brien", true},
		{"create an invoice for the usual customer", "", false},
		{"hello there", "", false},
	}
	for _, tc := range cases {
		name, ok := extractCustomerName(tc.message)
		if ok != tc.ok {
			t.Errorf("Expected ok=%v for %q, got %v", tc.ok, tc.message, ok)
			continue
		}
		if name != tc.name {
			t.Errorf("Expected name %q for %q, got %q", tc.name, tc.message, name)
		}
	}
}

/* TestExtractInvoiceItems tests the item capture after "with" */
func TestExtractInvoiceItems(t *testing.T) {
	items, ok := extractInvoiceItems("Create invoice for John Smith with 2 laptops")
	if !ok || items != "2 laptops" {
		t.Errorf("Expected items '2 laptops', got %v (ok=%v)", items, ok)
	}
	if _, ok := extractInvoiceItems("Create invoice for John Smith"); ok {
		t.Error("Expected no items without a 'with' clause")
	}
}

/*
TestCreateCustomerActionPersists tests that completing the stock
customer workflow writes the record through the entity store and
returns its id for the delegating workflow
*/
func TestCreateCustomerActionPersists(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	registry := workflow.NewRegistry()
	registerWorkflows(registry, store)

	def := registry.Get("create_customer")
	if def == nil {
		t.Fatal("Expected create_customer to be registered")
	}

	sc := session.NewContext("s1", "u1")
	result, err := def.FinalAction(ctx, sc, map[string]interface{}{
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	})
	if err != nil {
		t.Fatalf("FinalAction failed: %v", err)
	}
	if result.Data["id"] == nil {
		t.Error("Expected created record data to carry an id")
	}

	record, err := store.Find(ctx, "customer", "name", "Ada Lovelace")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if record == nil {
		t.Fatal("Expected the customer to be persisted in the store")
	}
	if record["email"] != "ada@example.com" {
		t.Errorf("Expected persisted email ada@example.com, got %v", record["email"])
	}
}

/*
TestCreateInvoiceActionPersists tests that completing the stock
invoice workflow writes the invoice through the entity store
*/
func TestCreateInvoiceActionPersists(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	registry := workflow.NewRegistry()
	registerWorkflows(registry, store)

	def := registry.Get("create_invoice")
	if def == nil {
		t.Fatal("Expected create_invoice to be registered")
	}

	sc := session.NewContext("s2", "u1")
	result, err := def.FinalAction(ctx, sc, map[string]interface{}{
		"customer_id": "42",
		"items":       "2 laptops",
	})
	if err != nil {
		t.Fatalf("FinalAction failed: %v", err)
	}
	if result.Data["id"] == nil {
		t.Error("Expected created invoice data to carry an id")
	}

	record, err := store.Find(ctx, "invoice", "customer_id", "42")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if record == nil {
		t.Fatal("Expected the invoice to be persisted in the store")
	}
	if record["items"] != "2 laptops" {
		t.Errorf("Expected persisted items '2 laptops', got %v", record["items"])
	}
}
