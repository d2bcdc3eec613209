/*-------------------------------------------------------------------------
 *
 * definition.go
 *    Workflow definitions for NeuronChat
 *
 * A workflow is a named, possibly multi-turn procedure that collects
 * fields and entities and executes a final action. Definitions are
 * either declarative (steps generated per field/entity in declared
 * order) or explicit (a directed step graph).
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/workflow/definition.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"

	"github.com/neurondb/NeuronChat/internal/session"
)

/* StepTerminal marks a transition that finalizes the workflow */
const StepTerminal = "__complete__"

/* Step outcomes */
const (
	OutcomeSuccess    = "success"
	OutcomeNeedsInput = "needs_input"
	OutcomeFailure    = "failure"
)

/* StepResult is the outcome of one step execution */
type StepResult struct {
	Outcome string
	/* Prompt surfaced to the user for needs_input and failure outcomes */
	Prompt string
	/* Data merged into the workflow state on success */
	Data map[string]interface{}
}

/* StepFunc executes one explicit step against the current message */
type StepFunc func(ctx context.Context, message string, sc *session.Context, state map[string]interface{}) (*StepResult, error)

/* Step is a node in an explicit workflow graph */
type Step struct {
	ID                string
	Execute           StepFunc
	RequiresUserInput bool
	OnSuccess         string /* next step id, or StepTerminal, or empty to finalize */
	OnFailure         string /* next step id; empty surfaces the failure and stays put */
}

/* FieldDef is one collected field of a declarative workflow */
type FieldDef struct {
	Name     string
	Type     string /* string, number, text */
	Required bool
	Prompt   string
	/* Extract optionally pulls the value from a free-form message */
	Extract func(message string) (interface{}, bool)
}

/* EntityDef is one resolved business object of a declarative workflow */
type EntityDef struct {
	Name            string
	Model           string
	SearchKeys      []string
	CreateIfMissing bool
	/* Subflow names the workflow delegated to when the entity is
	   missing and CreateIfMissing is set */
	Subflow       string
	AllowMultiple bool
	Prompt        string
	Extract       func(message string) (string, bool)
}

/* ActionResult is what a final action returns on success */
type ActionResult struct {
	Message string
	Data    map[string]interface{}
}

/* FinalAction completes a workflow with the collected state */
type FinalAction func(ctx context.Context, sc *session.Context, state map[string]interface{}) (*ActionResult, error)

/* Definition describes one workflow */
type Definition struct {
	ID       string
	Goal     string
	Entities []EntityDef
	Fields   []FieldDef

	/* Explicit graph mode; empty means declarative */
	Steps     []Step
	EntryStep string

	FinalAction           FinalAction
	ConfirmBeforeComplete bool
}

/* Declarative reports whether the definition uses generated steps */
func (d *Definition) Declarative() bool {
	return len(d.Steps) == 0
}

/* step returns the explicit step with the given id, nil when absent */
func (d *Definition) step(id string) *Step {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}

/* entity returns the entity definition with the given name, nil when absent */
func (d *Definition) entity(name string) *EntityDef {
	for i := range d.Entities {
		if d.Entities[i].Name == name {
			return &d.Entities[i]
		}
	}
	return nil
}
