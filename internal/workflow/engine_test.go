/*-------------------------------------------------------------------------
 *
 * engine_test.go
 *    Tests for the workflow execution engine
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/workflow/engine_test.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/entity"
	"github.com/neurondb/NeuronChat/internal/session"
)

var testForPattern = regexp.MustCompile(`\b[Ff]or\s+([A-Z][\w']*(?:\s+[A-Z][\w']*)*)`)

/*
customerDefinition builds a create_customer workflow that writes to
the given store
*/
func customerDefinition(store entity.Store) *Definition {
	return &Definition{
		ID:   "create_customer",
		Goal: "creating a customer",
		Fields: []FieldDef{
			{Name: "name", Type: "string", Required: true, Prompt: "What is the customer's name?"},
			{Name: "email", Type: "string", Required: true, Prompt: "What is the customer's email?"},
			{Name: "phone", Type: "string", Required: false, Prompt: "What is their phone number?"},
		},
		FinalAction: func(ctx context.Context, sc *session.Context, state map[string]interface{}) (*ActionResult, error) {
			record, err := store.Create(ctx, "customer", state)
			if err != nil {
				return nil, err
			}
			return &ActionResult{
				Message: fmt.Sprintf("Customer '%v' has been created.", state["name"]),
				Data:    map[string]interface{}(record),
			}, nil
		},
	}
}

/*
invoiceDefinition builds a create_invoice workflow delegating missing
customers to create_customer
*/
func invoiceDefinition() *Definition {
	return &Definition{
		ID:   "create_invoice",
		Goal: "creating an invoice",
		Entities: []EntityDef{
			{
				Name:            "customer",
				Model:           "customer",
				SearchKeys:      []string{"name", "email"},
				CreateIfMissing: true,
				Subflow:         "create_customer",
				Prompt:          "Which customer is this invoice for?",
				Extract: func(message string) (string, bool) {
					m := testForPattern.FindStringSubmatch(message)
					if m == nil {
						return "", false
					}
					return strings.TrimSpace(m[1]), true
				},
			},
		},
		Fields: []FieldDef{
			{
				Name: "items", Type: "text", Required: true,
				Prompt: "What items should be on the invoice?",
				Extract: func(message string) (interface{}, bool) {
					lower := strings.ToLower(message)
					if idx := strings.Index(lower, " with "); idx >= 0 {
						return strings.TrimSpace(message[idx+len(" with "):]), true
					}
					return nil, false
				},
			},
			{Name: "due_date", Type: "string", Required: false, Prompt: "When is it due?"},
		},
		ConfirmBeforeComplete: true,
		FinalAction: func(ctx context.Context, sc *session.Context, state map[string]interface{}) (*ActionResult, error) {
			return &ActionResult{
				Message: "Invoice created.",
				Data: map[string]interface{}{
					"customer_id": state["customer_id"],
					"items":       state["items"],
				},
			}, nil
		},
	}
}

func newTestEngine(t *testing.T, store entity.Store) (*Engine, *Registry) {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Register(customerDefinition(store)); err != nil {
		t.Fatalf("register create_customer failed: %v", err)
	}
	if err := reg.Register(invoiceDefinition()); err != nil {
		t.Fatalf("register create_invoice failed: %v", err)
	}
	cfg := config.WorkflowConfig{SkipConfirmInSubflow: true, MaxStackDepth: 8}
	return NewEngine(reg, store, cfg), reg
}

/*
TestInvoiceWithMissingCustomer walks the full nested scenario: the
opening message names a customer that does not exist, the engine
delegates to the customer sub-workflow, and the invoice resumes with
the created customer's id
*/
func TestInvoiceWithMissingCustomer(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	engine, _ := newTestEngine(t, store)
	sc := session.NewContext("s1", "u1")

	reply, err := engine.Start(ctx, "create_invoice", sc, "Create invoice for John Smith with 2 laptops")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !strings.Contains(reply.Message, "create one") {
		t.Errorf("Expected offer to create the missing customer, got %q", reply.Message)
	}
	if sc.WorkflowState["items"] != "2 laptops" {
		t.Errorf("Expected items pre-extracted from the opening message, got %v", sc.WorkflowState["items"])
	}

	/* Accepting the offer suspends the invoice and starts the customer
	   sub-workflow, pre-seeded with the searched name */
	reply, err = engine.Continue(ctx, "yes", sc)
	if err != nil {
		t.Fatalf("Continue(yes) failed: %v", err)
	}
	if sc.CurrentWorkflow != "create_customer" {
		t.Fatalf("Expected active workflow 'create_customer', got %q", sc.CurrentWorkflow)
	}
	if !sc.InSubworkflow() {
		t.Fatal("Expected the invoice workflow suspended on the stack")
	}
	if sc.WorkflowState["name"] != "John Smith" {
		t.Errorf("Expected child state seeded with the searched name, got %v", sc.WorkflowState["name"])
	}
	if !strings.Contains(reply.Message, "email") {
		t.Errorf("Expected the email prompt (name already seeded), got %q", reply.Message)
	}

	reply, err = engine.Continue(ctx, "john@example.com", sc)
	if err != nil {
		t.Fatalf("Continue(email) failed: %v", err)
	}
	if !strings.Contains(reply.Message, "phone") {
		t.Errorf("Expected the optional phone prompt, got %q", reply.Message)
	}
	if !strings.Contains(reply.Message, "skip") {
		t.Errorf("Expected the skip hint on an optional field, got %q", reply.Message)
	}

	/* Skipping the last optional field completes the sub-workflow
	   without a confirmation gate and resumes the invoice in the same
	   turn */
	reply, err = engine.Continue(ctx, "skip", sc)
	if err != nil {
		t.Fatalf("Continue(skip) failed: %v", err)
	}
	if sc.CurrentWorkflow != "create_invoice" {
		t.Fatalf("Expected the invoice workflow resumed, got %q", sc.CurrentWorkflow)
	}
	if sc.InSubworkflow() {
		t.Error("Expected the stack drained after the sub-workflow completed")
	}
	if !strings.Contains(reply.Message, "created") {
		t.Errorf("Expected the child completion message prefixed, got %q", reply.Message)
	}
	if !strings.Contains(reply.Message, "due") {
		t.Errorf("Expected the resumed parent to ask for due_date, got %q", reply.Message)
	}
	if id, _ := sc.WorkflowState["customer_id"].(string); id == "" {
		t.Errorf("Expected customer_id merged into the invoice state, got %v", sc.WorkflowState["customer_id"])
	}
	if _, ok := sc.WorkflowState["customer"]; !ok {
		t.Error("Expected child data merged under the delegating entity name")
	}

	/* Skip due_date, then confirm */
	reply, err = engine.Continue(ctx, "skip", sc)
	if err != nil {
		t.Fatalf("Continue(skip due_date) failed: %v", err)
	}
	if !strings.Contains(reply.Message, "go ahead") {
		t.Errorf("Expected the completion confirmation, got %q", reply.Message)
	}

	reply, err = engine.Continue(ctx, "yes", sc)
	if err != nil {
		t.Fatalf("Continue(confirm) failed: %v", err)
	}
	if !reply.Completed {
		t.Error("Expected a completed reply")
	}
	if reply.Data["customer_id"] == nil || reply.Data["customer_id"] == "" {
		t.Errorf("Expected customer_id in the final data, got %v", reply.Data)
	}
	if sc.InWorkflow() {
		t.Error("Expected no active workflow after completion")
	}

	/* The customer actually exists now */
	record, err := store.Find(ctx, "customer", "name", "John Smith")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if record == nil {
		t.Fatal("Expected the created customer in the store")
	}
	if record["email"] != "john@example.com" {
		t.Errorf("Expected the collected email on the record, got %v", record["email"])
	}
}

/*
TestExistingCustomerSkipsSubflow tests that a resolvable entity never
delegates
*/
func TestExistingCustomerSkipsSubflow(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	store.Seed("customer", entity.Record{"id": "42", "name": "Jane Doe", "email": "jane@example.com"})
	engine, _ := newTestEngine(t, store)
	sc := session.NewContext("s1", "u1")

	reply, err := engine.Start(ctx, "create_invoice", sc, "Create invoice for Jane Doe with 3 monitors")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sc.InSubworkflow() {
		t.Error("Expected no sub-workflow for an existing customer")
	}
	if sc.WorkflowState["customer_id"] != "42" {
		t.Errorf("Expected customer_id '42', got %v", sc.WorkflowState["customer_id"])
	}
	/* items extracted, customer resolved: the next question is due_date */
	if !strings.Contains(reply.Message, "due") {
		t.Errorf("Expected the due_date prompt, got %q", reply.Message)
	}
}

/* TestDeclineEntityCreation tests the 'no' branch of the create offer */
func TestDeclineEntityCreation(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	store.Seed("customer", entity.Record{"id": "7", "name": "Jane Doe"})
	engine, _ := newTestEngine(t, store)
	sc := session.NewContext("s1", "u1")

	if _, err := engine.Start(ctx, "create_invoice", sc, "Create invoice for John Smith with 2 laptops"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	reply, err := engine.Continue(ctx, "no", sc)
	if err != nil {
		t.Fatalf("Continue(no) failed: %v", err)
	}
	if sc.InSubworkflow() {
		t.Error("Expected no sub-workflow after declining")
	}
	if !strings.Contains(reply.Message, "Which customer") {
		t.Errorf("Expected a re-prompt for the customer, got %q", reply.Message)
	}

	/* Naming an existing customer resolves normally */
	if _, err := engine.Continue(ctx, "Jane Doe", sc); err != nil {
		t.Fatalf("Continue(Jane Doe) failed: %v", err)
	}
	if sc.WorkflowState["customer_id"] != "7" {
		t.Errorf("Expected customer_id '7', got %v", sc.WorkflowState["customer_id"])
	}
}

/*
TestAmbiguousCreateReplyReprompts tests that a non-yes/no answer to
the create offer re-prompts without losing the pending entity
*/
func TestAmbiguousCreateReplyReprompts(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	engine, _ := newTestEngine(t, store)
	sc := session.NewContext("s1", "u1")

	if _, err := engine.Start(ctx, "create_invoice", sc, "Create invoice for John Smith with 2 laptops"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	reply, err := engine.Continue(ctx, "maybe later", sc)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if !strings.Contains(reply.Message, "yes") {
		t.Errorf("Expected a yes/no re-prompt, got %q", reply.Message)
	}
	if _, ok := sc.WorkflowState["__pending_entity"]; !ok {
		t.Error("Expected the pending entity preserved across the re-prompt")
	}

	/* The offer is still answerable */
	if _, err := engine.Continue(ctx, "yes", sc); err != nil {
		t.Fatalf("Continue(yes) failed: %v", err)
	}
	if sc.CurrentWorkflow != "create_customer" {
		t.Errorf("Expected the sub-workflow started after the delayed yes, got %q", sc.CurrentWorkflow)
	}
}

/*
TestCancelAtDepth tests that cancellation abandons nested workflows
in one operation
*/
func TestCancelAtDepth(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	engine, _ := newTestEngine(t, store)
	sc := session.NewContext("s1", "u1")

	if _, err := engine.Start(ctx, "create_invoice", sc, "Create invoice for John Smith with 2 laptops"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := engine.Continue(ctx, "yes", sc); err != nil {
		t.Fatalf("Continue(yes) failed: %v", err)
	}
	if !sc.InSubworkflow() {
		t.Fatal("Expected a nested workflow before cancelling")
	}

	reply := engine.Cancel(sc)
	if !reply.Cancelled {
		t.Error("Expected a cancelled reply")
	}
	if sc.InWorkflow() || sc.InSubworkflow() {
		t.Error("Expected workflow and stack cleared by cancellation")
	}
	if len(sc.WorkflowState) != 0 {
		t.Errorf("Expected workflow state cleared, got %v", sc.WorkflowState)
	}
}

/* TestUnknownWorkflowStart tests the safe fallback for unknown ids */
func TestUnknownWorkflowStart(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	engine, _ := newTestEngine(t, store)
	sc := session.NewContext("s1", "u1")

	reply, err := engine.Start(ctx, "no_such_workflow", sc, "hello")
	if err != nil {
		t.Fatalf("Start returned an error for an unknown workflow: %v", err)
	}
	if reply.Completed || reply.Cancelled {
		t.Error("Expected a plain fallback reply")
	}
	if sc.InWorkflow() {
		t.Error("Expected no workflow activated for an unknown id")
	}
}

/*
TestContinueUnknownWorkflowClears tests recovery when the persisted
workflow id no longer resolves
*/
func TestContinueUnknownWorkflowClears(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	engine, _ := newTestEngine(t, store)
	sc := session.NewContext("s1", "u1")
	sc.SetWorkflow("removed_workflow", "collect")

	reply, err := engine.Continue(ctx, "anything", sc)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if sc.InWorkflow() {
		t.Error("Expected the stale workflow cleared")
	}
	if reply.Message == "" {
		t.Error("Expected a fallback message")
	}
}

/*
TestConfirmationRejection tests that a negative confirmation answer
re-prompts instead of finalizing
*/
func TestConfirmationRejection(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	store.Seed("customer", entity.Record{"id": "1", "name": "Jane Doe"})
	engine, _ := newTestEngine(t, store)
	sc := session.NewContext("s1", "u1")

	if _, err := engine.Start(ctx, "create_invoice", sc, "Create invoice for Jane Doe with 1 desk"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := engine.Continue(ctx, "skip", sc); err != nil {
		t.Fatalf("Continue(skip due_date) failed: %v", err)
	}

	reply, err := engine.Continue(ctx, "no", sc)
	if err != nil {
		t.Fatalf("Continue(no) failed: %v", err)
	}
	if reply.Completed {
		t.Error("Expected the workflow not to complete on a rejected confirmation")
	}
	if !sc.InWorkflow() {
		t.Error("Expected the workflow still active after rejection")
	}

	reply, err = engine.Continue(ctx, "yes", sc)
	if err != nil {
		t.Fatalf("Continue(yes) failed: %v", err)
	}
	if !reply.Completed {
		t.Error("Expected completion after the eventual yes")
	}
}

/* TestNumberFieldReprompts tests typed field parsing */
func TestNumberFieldReprompts(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	reg := NewRegistry()
	def := &Definition{
		ID:   "set_quota",
		Goal: "setting a quota",
		Fields: []FieldDef{
			{Name: "limit", Type: "number", Required: true, Prompt: "What limit?"},
		},
	}
	if err := reg.Register(def); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	engine := NewEngine(reg, store, config.WorkflowConfig{})
	sc := session.NewContext("s1", "u1")

	if _, err := engine.Start(ctx, "set_quota", sc, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	reply, err := engine.Continue(ctx, "a lot", sc)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if !strings.Contains(reply.Message, "number") {
		t.Errorf("Expected a type re-prompt, got %q", reply.Message)
	}

	reply, err = engine.Continue(ctx, "50", sc)
	if err != nil {
		t.Fatalf("Continue(50) failed: %v", err)
	}
	if !reply.Completed {
		t.Errorf("Expected completion after a valid number, got %q", reply.Message)
	}
	if sc.InWorkflow() {
		t.Error("Expected workflow cleared after completion")
	}
}

/*
TestMaxStackDepth tests that delegation past the depth limit re-asks
instead of pushing
*/
func TestMaxStackDepth(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	reg := NewRegistry()
	if err := reg.Register(customerDefinition(store)); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := reg.Register(invoiceDefinition()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	engine := NewEngine(reg, store, config.WorkflowConfig{SkipConfirmInSubflow: true, MaxStackDepth: 1})
	sc := session.NewContext("s1", "u1")

	/* Simulate an already-suspended ancestor so the next push would
	   exceed the limit */
	sc.PushWorkflow("create_invoice", "collect", map[string]interface{}{})

	if _, err := engine.Start(ctx, "create_invoice", sc, "Create invoice for John Smith with 2 laptops"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	reply, err := engine.Continue(ctx, "yes", sc)
	if err != nil {
		t.Fatalf("Continue(yes) failed: %v", err)
	}
	if sc.CurrentWorkflow == "create_customer" {
		t.Error("Expected delegation refused at the depth limit")
	}
	if !strings.Contains(reply.Message, "customer") {
		t.Errorf("Expected a re-prompt for the entity, got %q", reply.Message)
	}
}

/*
TestFinalActionFailureKeepsWorkflow tests that a failed final action
surfaces the error with the workflow still active
*/
func TestFinalActionFailureKeepsWorkflow(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	reg := NewRegistry()
	attempts := 0
	def := &Definition{
		ID:   "flaky",
		Goal: "a flaky action",
		Fields: []FieldDef{
			{Name: "value", Type: "string", Required: true},
		},
		FinalAction: func(ctx context.Context, sc *session.Context, state map[string]interface{}) (*ActionResult, error) {
			attempts++
			if attempts == 1 {
				return nil, fmt.Errorf("final action failed: key='value', error=backend unavailable")
			}
			return &ActionResult{Message: "done"}, nil
		},
	}
	if err := reg.Register(def); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	engine := NewEngine(reg, store, config.WorkflowConfig{})
	sc := session.NewContext("s1", "u1")

	if _, err := engine.Start(ctx, "flaky", sc, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	reply, err := engine.Continue(ctx, "v", sc)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if reply.Completed {
		t.Error("Expected the first attempt to fail")
	}
	if !strings.Contains(reply.Message, "backend unavailable") {
		t.Errorf("Expected the innermost error surfaced, got %q", reply.Message)
	}
	if !sc.InWorkflow() {
		t.Fatal("Expected the workflow still active after the failure")
	}

	/* Retrying re-enters advance with everything collected */
	reply, err = engine.Continue(ctx, "try again", sc)
	if err != nil {
		t.Fatalf("Continue(retry) failed: %v", err)
	}
	if !reply.Completed {
		t.Errorf("Expected completion on retry, got %q", reply.Message)
	}
}

/*
TestExplicitGraph tests step transitions, needs_input, and failure
routing in an explicit workflow
*/
func TestExplicitGraph(t *testing.T) {
	ctx := context.Background()
	store := entity.NewMemoryStore()
	reg := NewRegistry()

	def := &Definition{
		ID:        "sync_records",
		Goal:      "syncing records",
		EntryStep: "ask_source",
		Steps: []Step{
			{
				ID:                "ask_source",
				RequiresUserInput: true,
				OnSuccess:         "validate",
				Execute: func(ctx context.Context, message string, sc *session.Context, state map[string]interface{}) (*StepResult, error) {
					if message == "" {
						return &StepResult{Outcome: OutcomeNeedsInput, Prompt: "Which source?"}, nil
					}
					return &StepResult{Outcome: OutcomeSuccess, Data: map[string]interface{}{"source": message}}, nil
				},
			},
			{
				ID:        "validate",
				OnSuccess: StepTerminal,
				OnFailure: "ask_source",
				Execute: func(ctx context.Context, message string, sc *session.Context, state map[string]interface{}) (*StepResult, error) {
					if state["source"] == "bad" {
						return &StepResult{Outcome: OutcomeFailure, Prompt: "That source is not reachable. Which source?"}, nil
					}
					return &StepResult{Outcome: OutcomeSuccess}, nil
				},
			},
		},
		FinalAction: func(ctx context.Context, sc *session.Context, state map[string]interface{}) (*ActionResult, error) {
			return &ActionResult{Message: fmt.Sprintf("Synced from %v.", state["source"])}, nil
		},
	}
	if err := reg.Register(def); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	engine := NewEngine(reg, store, config.WorkflowConfig{})
	sc := session.NewContext("s1", "u1")

	reply, err := engine.Start(ctx, "sync_records", sc, "")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !strings.Contains(reply.Message, "Which source?") {
		t.Errorf("Expected the entry prompt, got %q", reply.Message)
	}

	/* Failure transitions back and surfaces the step prompt */
	reply, err = engine.Continue(ctx, "bad", sc)
	if err != nil {
		t.Fatalf("Continue(bad) failed: %v", err)
	}
	if !strings.Contains(reply.Message, "not reachable") {
		t.Errorf("Expected the failure prompt, got %q", reply.Message)
	}
	if sc.CurrentStep != "ask_source" {
		t.Errorf("Expected the failure transition back to ask_source, got %q", sc.CurrentStep)
	}

	reply, err = engine.Continue(ctx, "warehouse", sc)
	if err != nil {
		t.Fatalf("Continue(warehouse) failed: %v", err)
	}
	if !reply.Completed {
		t.Errorf("Expected completion, got %q", reply.Message)
	}
	if !strings.Contains(reply.Message, "warehouse") {
		t.Errorf("Expected the final message to name the source, got %q", reply.Message)
	}
}
