/*-------------------------------------------------------------------------
 *
 * workflows.go
 *    Built-in workflow definitions for the NeuronChat server
 *
 * Registers the stock invoice and customer workflows. Deployments
 * extend or replace these through their own registrations before the
 * engine is constructed.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cmd/chat-server/workflows.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neurondb/NeuronChat/internal/entity"
	"github.com/neurondb/NeuronChat/internal/session"
	"github.com/neurondb/NeuronChat/internal/workflow"
)

/*
forNamePattern matches a capitalized proper name after "for"; the case
flag stays on the keyword so the capture stops at lowercase stop-words
("for John Smith with 2 laptops" captures "John Smith")
*/
var forNamePattern = regexp.MustCompile(`\b[Ff]or\s+([A-Z][\w']*(?:\s+[A-Z][\w']*)*)`)

func registerWorkflows(registry *workflow.Registry, store entity.Store) {
	_ = registry.Register(&workflow.Definition{
		ID:   "create_customer",
		Goal: "creating a customer",
		Fields: []workflow.FieldDef{
			{Name: "name", Type: "string", Required: true, Prompt: "What is the customer's name?"},
			{Name: "email", Type: "string", Required: true, Prompt: "What is the customer's email address?"},
			{Name: "phone", Type: "string", Required: false, Prompt: "What is the customer's phone number?"},
			{Name: "company", Type: "string", Required: false, Prompt: "What company is the customer with?"},
		},
		FinalAction: func(ctx context.Context, sc *session.Context, state map[string]interface{}) (*workflow.ActionResult, error) {
			record, err := store.Create(ctx, "customer", state)
			if err != nil {
				return nil, fmt.Errorf("customer creation failed: name='%v', error=%w", state["name"], err)
			}
			return &workflow.ActionResult{
				Message: fmt.Sprintf("Customer '%v' has been created.", state["name"]),
				Data:    map[string]interface{}(record),
			}, nil
		},
	})

	_ = registry.Register(&workflow.Definition{
		ID:   "create_invoice",
		Goal: "creating an invoice",
		Entities: []workflow.EntityDef{
			{
				Name:            "customer",
				Model:           "customer",
				SearchKeys:      []string{"name", "email"},
				CreateIfMissing: true,
				Subflow:         "create_customer",
				Prompt:          "Which customer is this invoice for?",
				Extract:         extractCustomerName,
			},
		},
		Fields: []workflow.FieldDef{
			{Name: "items", Type: "text", Required: true, Prompt: "What items should the invoice include?", Extract: extractInvoiceItems},
			{Name: "due_date", Type: "string", Required: false, Prompt: "When is the invoice due?"},
			{Name: "notes", Type: "text", Required: false, Prompt: "Any notes for the invoice?"},
		},
		ConfirmBeforeComplete: true,
		FinalAction: func(ctx context.Context, sc *session.Context, state map[string]interface{}) (*workflow.ActionResult, error) {
			fields := map[string]interface{}{
				"customer_id": state["customer_id"],
				"items":       state["items"],
				"due_date":    state["due_date"],
				"notes":       state["notes"],
			}
			record, err := store.Create(ctx, "invoice", fields)
			if err != nil {
				return nil, fmt.Errorf("invoice creation failed: customer_id='%v', error=%w", state["customer_id"], err)
			}
			return &workflow.ActionResult{
				Message: "The invoice has been created.",
				Data:    map[string]interface{}(record),
			}, nil
		},
	})
}

/*
extractCustomerName pulls a proper name after "for" from the opening
message ("Create invoice for John Smith with 2 laptops")
*/
func extractCustomerName(message string) (string, bool) {
	m := forNamePattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

/* extractInvoiceItems pulls the item description after "with" */
func extractInvoiceItems(message string) (interface{}, bool) {
	lower := strings.ToLower(message)
	idx := strings.Index(lower, " with ")
	if idx < 0 {
		return nil, false
	}
	items := strings.TrimSpace(message[idx+len(" with "):])
	if items == "" {
		return nil, false
	}
	return items, true
}
