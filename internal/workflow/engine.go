/*-------------------------------------------------------------------------
 *
 * engine.go
 *    Workflow execution engine for NeuronChat
 *
 * Runs a named workflow against a session context across turns.
 * Declarative definitions collect entities and fields in declared
 * order; explicit definitions walk a step graph. Missing entities can
 * delegate to a sub-workflow: the parent frame is pushed onto the
 * session's workflow stack and resumed when the child's final action
 * succeeds, with the child's returned data merged under the delegating
 * entity name.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/workflow/engine.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/entity"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/session"
)

/* Synthetic step ids used by declarative workflows */
const (
	stepCollect = "collect"
	stepConfirm = "confirm"
)

/* Pending confirmation markers stored in MetaAwaitingConfirmation */
const (
	confirmComplete     = "complete"
	confirmCreatePrefix = "create_entity:"
)

/* askingFor markers stored in MetaAskingFor */
const (
	askFieldPrefix  = "field:"
	askEntityPrefix = "entity:"
)

/* State key carrying the search value of an entity pending creation */
const pendingEntityKey = "__pending_entity"

/* Prefix for state keys marking an optional field the user skipped */
const skippedKeyPrefix = "__skipped_"

/* Maximum explicit-graph steps executed within one turn */
const maxStepsPerTurn = 32

/* Reply is the user-facing outcome of one engine invocation */
type Reply struct {
	Message   string
	Completed bool
	Cancelled bool
	Data      map[string]interface{}
}

/* Engine executes workflow definitions against session contexts */
type Engine struct {
	registry *Registry
	entities entity.Store
	cfg      config.WorkflowConfig
}

/* NewEngine creates a workflow engine */
func NewEngine(registry *Registry, entities entity.Store, cfg config.WorkflowConfig) *Engine {
	return &Engine{
		registry: registry,
		entities: entities,
		cfg:      cfg,
	}
}

/*
Start begins the named workflow for the session.
An unknown workflow id is a configuration error and produces a safe
fallback reply with no context mutation, never a Go error.
*/
func (e *Engine) Start(ctx context.Context, workflowID string, sc *session.Context, initialMessage string) (*Reply, error) {
	def := e.registry.Get(workflowID)
	if def == nil {
		metrics.RecordWorkflowTransition(workflowID, "unknown")
		return fallbackReply(), nil
	}

	sc.WorkflowState = make(map[string]interface{})
	metrics.RecordWorkflowTransition(workflowID, "started")

	if !def.Declarative() {
		sc.SetWorkflow(def.ID, entryStep(def))
		return e.runExplicit(ctx, def, sc, initialMessage)
	}

	sc.SetWorkflow(def.ID, stepCollect)

	/* Pull whatever the opening message already carries */
	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Extract == nil {
			continue
		}
		if v, ok := f.Extract(initialMessage); ok {
			sc.WorkflowState[f.Name] = v
		}
	}
	for i := range def.Entities {
		ent := &def.Entities[i]
		if ent.Extract == nil {
			continue
		}
		value, ok := ent.Extract(initialMessage)
		if !ok {
			continue
		}
		if reply, err := e.resolveEntity(ctx, def, ent, sc, value); err != nil || reply != nil {
			return reply, err
		}
	}

	return e.advance(ctx, def, sc)
}

/* Continue re-enters the session's active workflow with a new message */
func (e *Engine) Continue(ctx context.Context, message string, sc *session.Context) (*Reply, error) {
	def := e.registry.Get(sc.CurrentWorkflow)
	if def == nil {
		metrics.RecordWorkflowTransition(sc.CurrentWorkflow, "unknown")
		sc.ClearWorkflow()
		return fallbackReply(), nil
	}

	if !def.Declarative() {
		return e.runExplicit(ctx, def, sc, message)
	}

	/* A pending confirmation consumes the message first */
	if pending, _ := sc.Get(session.MetaAwaitingConfirmation, "").(string); pending != "" {
		return e.handleConfirmation(ctx, def, sc, pending, message)
	}

	/* A pending question consumes the message next */
	if asking, _ := sc.Get(session.MetaAskingFor, "").(string); asking != "" {
		if reply, err := e.consumeAnswer(ctx, def, sc, asking, message); err != nil || reply != nil {
			return reply, err
		}
	}

	return e.advance(ctx, def, sc)
}

/*
Cancel abandons the active workflow at any nesting depth.
The entire stack is discarded in one context mutation; ancestors of
a sub-workflow are abandoned along with it.
*/
func (e *Engine) Cancel(sc *session.Context) *Reply {
	workflowID := sc.CurrentWorkflow
	sc.ClearWorkflow()
	if workflowID != "" {
		metrics.RecordWorkflowCompletion(workflowID, "cancelled")
	}
	return &Reply{
		Message:   "Okay, I've cancelled that. What else can I help you with?",
		Cancelled: true,
	}
}

/*
advance finds the first unsatisfied entity or field and asks for it,
or finalizes once everything is collected
*/
func (e *Engine) advance(ctx context.Context, def *Definition, sc *session.Context) (*Reply, error) {
	state := sc.WorkflowState

	for i := range def.Entities {
		ent := &def.Entities[i]
		if _, ok := state[ent.Name]; ok {
			continue
		}
		sc.Set(session.MetaAskingFor, askEntityPrefix+ent.Name)
		return &Reply{Message: entityPrompt(ent)}, nil
	}

	for i := range def.Fields {
		f := &def.Fields[i]
		if _, ok := state[f.Name]; ok {
			continue
		}
		if _, skipped := state[skippedKeyPrefix+f.Name]; skipped {
			continue
		}
		sc.Set(session.MetaAskingFor, askFieldPrefix+f.Name)
		return &Reply{Message: fieldPrompt(f)}, nil
	}

	if def.ConfirmBeforeComplete && !e.skipConfirmation(sc) {
		sc.SetWorkflow(def.ID, stepConfirm)
		sc.Set(session.MetaAwaitingConfirmation, confirmComplete)
		return &Reply{Message: confirmationPrompt(def, state)}, nil
	}

	return e.finalize(ctx, def, sc)
}

/*
skipConfirmation reports whether the confirmation gate is bypassed
for sub-workflows
*/
func (e *Engine) skipConfirmation(sc *session.Context) bool {
	return e.cfg.SkipConfirmInSubflow && sc.InSubworkflow()
}

/*
consumeAnswer applies the user's answer to the question asked on the
previous turn. Returns a non-nil reply when the turn ends here.
*/
func (e *Engine) consumeAnswer(ctx context.Context, def *Definition, sc *session.Context, asking, message string) (*Reply, error) {
	answer := strings.TrimSpace(message)

	if name, ok := strings.CutPrefix(asking, askFieldPrefix); ok {
		f := fieldByName(def, name)
		if f == nil {
			sc.Forget(session.MetaAskingFor)
			return nil, nil
		}
		if !f.Required && strings.EqualFold(answer, "skip") {
			sc.WorkflowState[skippedKeyPrefix+f.Name] = true
			sc.Forget(session.MetaAskingFor)
			return nil, nil
		}
		value, ok := extractFieldValue(f, answer)
		if !ok {
			return &Reply{Message: fmt.Sprintf("I couldn't read that as a %s. %s", f.Type, fieldPrompt(f))}, nil
		}
		sc.WorkflowState[f.Name] = value
		sc.Forget(session.MetaAskingFor)
		return nil, nil
	}

	if name, ok := strings.CutPrefix(asking, askEntityPrefix); ok {
		ent := def.entity(name)
		if ent == nil {
			sc.Forget(session.MetaAskingFor)
			return nil, nil
		}
		value := answer
		if ent.Extract != nil {
			if extracted, ok := ent.Extract(message); ok {
				value = extracted
			}
		}
		if value == "" {
			return &Reply{Message: entityPrompt(ent)}, nil
		}
		sc.Forget(session.MetaAskingFor)
		return e.resolveEntity(ctx, def, ent, sc, value)
	}

	sc.Forget(session.MetaAskingFor)
	return nil, nil
}

/*
resolveEntity looks up an entity by each search key in turn.
Not-found is a first-class branch, never an error: depending on the
definition it asks to delegate to a creation sub-workflow, or
re-prompts in place. Returns a nil reply when the entity resolved
and the caller should keep advancing.
*/
func (e *Engine) resolveEntity(ctx context.Context, def *Definition, ent *EntityDef, sc *session.Context, value string) (*Reply, error) {
	for _, key := range ent.SearchKeys {
		record, err := e.entities.Find(ctx, ent.Model, key, value)
		if err != nil {
			return nil, fmt.Errorf("entity lookup failed: model='%s', key='%s', error=%w", ent.Model, key, err)
		}
		if record == nil {
			continue
		}
		sc.WorkflowState[ent.Name] = map[string]interface{}(record)
		if id := record.ID(); id != "" {
			sc.WorkflowState[ent.Name+"_id"] = id
		}
		return nil, nil
	}

	if ent.CreateIfMissing && ent.Subflow != "" {
		sc.WorkflowState[pendingEntityKey] = map[string]interface{}{
			"name":  ent.Name,
			"value": value,
		}
		sc.Set(session.MetaAwaitingConfirmation, confirmCreatePrefix+ent.Name)
		return &Reply{
			Message: fmt.Sprintf("I couldn't find a %s matching '%s'. Would you like to create one?", ent.Name, value),
		}, nil
	}

	sc.Set(session.MetaAskingFor, askEntityPrefix+ent.Name)
	return &Reply{
		Message: fmt.Sprintf("I couldn't find a %s matching '%s'. %s", ent.Name, value, entityPrompt(ent)),
	}, nil
}

/* handleConfirmation resolves a pending yes/no question */
func (e *Engine) handleConfirmation(ctx context.Context, def *Definition, sc *session.Context, pending, message string) (*Reply, error) {
	if pending == confirmComplete {
		if IsAffirmative(message) {
			sc.Forget(session.MetaAwaitingConfirmation)
			return e.finalize(ctx, def, sc)
		}
		/* Negative or ambiguous replies re-prompt rather than proceed */
		return &Reply{
			Message: "Please reply 'yes' to confirm, or say 'cancel' to abandon this.",
		}, nil
	}

	if name, ok := strings.CutPrefix(pending, confirmCreatePrefix); ok {
		ent := def.entity(name)
		if ent == nil {
			sc.Forget(session.MetaAwaitingConfirmation)
			delete(sc.WorkflowState, pendingEntityKey)
			return e.advance(ctx, def, sc)
		}
		if IsAffirmative(message) {
			sc.Forget(session.MetaAwaitingConfirmation)
			return e.startSubflow(ctx, ent, sc)
		}
		if IsNegative(message) {
			sc.Forget(session.MetaAwaitingConfirmation)
			delete(sc.WorkflowState, pendingEntityKey)
			sc.Set(session.MetaAskingFor, askEntityPrefix+ent.Name)
			return &Reply{
				Message: fmt.Sprintf("Okay, no %s was created. %s", ent.Name, entityPrompt(ent)),
			}, nil
		}
		return &Reply{
			Message: fmt.Sprintf("Please reply 'yes' to create the %s, or 'no' to try a different one.", ent.Name),
		}, nil
	}

	sc.Forget(session.MetaAwaitingConfirmation)
	return e.advance(ctx, def, sc)
}

/*
startSubflow suspends the current workflow and begins the entity's
creation sub-workflow, pre-seeded from shared field names
*/
func (e *Engine) startSubflow(ctx context.Context, ent *EntityDef, sc *session.Context) (*Reply, error) {
	child := e.registry.Get(ent.Subflow)
	if child == nil {
		metrics.RecordWorkflowTransition(ent.Subflow, "unknown")
		delete(sc.WorkflowState, pendingEntityKey)
		sc.Set(session.MetaAskingFor, askEntityPrefix+ent.Name)
		return &Reply{
			Message: fmt.Sprintf("I can't create a %s right now. %s", ent.Name, entityPrompt(ent)),
		}, nil
	}

	if e.cfg.MaxStackDepth > 0 && len(sc.Stack)+1 > e.cfg.MaxStackDepth {
		delete(sc.WorkflowState, pendingEntityKey)
		sc.Set(session.MetaAskingFor, askEntityPrefix+ent.Name)
		return &Reply{
			Message: fmt.Sprintf("This request is nested too deeply to create a %s automatically. %s", ent.Name, entityPrompt(ent)),
		}, nil
	}

	pendingValue := pendingEntityValue(sc.WorkflowState)

	sc.PushWorkflow(sc.CurrentWorkflow, sc.CurrentStep, sc.WorkflowState)
	metrics.RecordWorkflowTransition(child.ID, "subflow_started")

	/* Fresh child state seeded from parent fields that share names,
	   plus the search value that triggered the delegation */
	parentState := sc.Stack[len(sc.Stack)-1].State
	childState := make(map[string]interface{})
	for i := range child.Fields {
		name := child.Fields[i].Name
		if v, ok := parentState[name]; ok {
			childState[name] = v
		}
	}
	if pendingValue != "" && len(ent.SearchKeys) > 0 {
		seedKey := ent.SearchKeys[0]
		if fieldByName(child, seedKey) != nil {
			childState[seedKey] = pendingValue
		}
	}
	sc.WorkflowState = childState

	if !child.Declarative() {
		sc.SetWorkflow(child.ID, entryStep(child))
		return e.runExplicit(ctx, child, sc, "")
	}
	sc.SetWorkflow(child.ID, stepCollect)
	return e.advance(ctx, child, sc)
}

/*
finalize runs the workflow's final action and completes, or surfaces
the failure with the workflow still active
*/
func (e *Engine) finalize(ctx context.Context, def *Definition, sc *session.Context) (*Reply, error) {
	result := &ActionResult{}
	if def.FinalAction != nil {
		var err error
		result, err = def.FinalAction(ctx, sc, collectedState(sc.WorkflowState))
		if err != nil {
			metrics.RecordWorkflowCompletion(def.ID, "failed")
			return &Reply{
				Message: fmt.Sprintf("I couldn't complete that: %s. You can try again or say 'cancel'.", userFacing(err)),
			}, nil
		}
	}
	if result == nil {
		result = &ActionResult{}
	}
	if result.Message == "" {
		result.Message = fmt.Sprintf("Done, %s is complete.", def.ID)
	}
	return e.complete(ctx, def, sc, result)
}

/*
complete pops the workflow stack after a successful final action.
A non-empty popped frame resumes the parent synchronously within the
same turn, with the child's returned data merged under the entity
name that delegated to it.
*/
func (e *Engine) complete(ctx context.Context, def *Definition, sc *session.Context, result *ActionResult) (*Reply, error) {
	metrics.RecordWorkflowCompletion(def.ID, "completed")

	frame := sc.PopWorkflow()
	if frame == nil {
		sc.ClearWorkflow()
		return &Reply{
			Message:   result.Message,
			Completed: true,
			Data:      result.Data,
		}, nil
	}

	sc.SetWorkflow(frame.WorkflowID, frame.Step)
	sc.WorkflowState = frame.State

	if name := pendingEntityName(sc.WorkflowState); name != "" {
		delete(sc.WorkflowState, pendingEntityKey)
		sc.WorkflowState[name] = result.Data
		if result.Data != nil {
			if id, ok := result.Data["id"]; ok {
				sc.WorkflowState[name+"_id"] = fmt.Sprintf("%v", id)
			}
		}
	}

	parent := e.registry.Get(frame.WorkflowID)
	if parent == nil {
		metrics.RecordWorkflowTransition(frame.WorkflowID, "unknown")
		sc.ClearWorkflow()
		return &Reply{Message: result.Message, Completed: true, Data: result.Data}, nil
	}

	var resumed *Reply
	var err error
	if parent.Declarative() {
		resumed, err = e.advance(ctx, parent, sc)
	} else {
		resumed, err = e.runExplicit(ctx, parent, sc, "")
	}
	if err != nil {
		return nil, err
	}
	resumed.Message = result.Message + " " + resumed.Message
	return resumed, nil
}

/*
runExplicit walks the explicit step graph until a step needs input,
fails without a transition, or the workflow finalizes
*/
func (e *Engine) runExplicit(ctx context.Context, def *Definition, sc *session.Context, message string) (*Reply, error) {
	for i := 0; i < maxStepsPerTurn; i++ {
		step := def.step(sc.CurrentStep)
		if step == nil {
			metrics.RecordWorkflowTransition(def.ID, "bad_step")
			sc.ClearWorkflow()
			return fallbackReply(), nil
		}

		result, err := step.Execute(ctx, message, sc, sc.WorkflowState)
		if err != nil {
			metrics.RecordWorkflowTransition(def.ID, "step_error")
			return &Reply{
				Message: fmt.Sprintf("Something went wrong with that step: %s. You can try again or say 'cancel'.", userFacing(err)),
			}, nil
		}
		message = ""

		switch result.Outcome {
		case OutcomeNeedsInput:
			return &Reply{Message: result.Prompt}, nil

		case OutcomeFailure:
			metrics.RecordWorkflowTransition(def.ID, "step_failed")
			if step.OnFailure == "" || step.OnFailure == StepTerminal {
				prompt := result.Prompt
				if prompt == "" {
					prompt = "That didn't work. You can try again or say 'cancel'."
				}
				return &Reply{Message: prompt}, nil
			}
			sc.SetWorkflow(def.ID, step.OnFailure)
			if result.Prompt != "" && def.step(step.OnFailure).RequiresUserInput {
				return &Reply{Message: result.Prompt}, nil
			}

		case OutcomeSuccess:
			for k, v := range result.Data {
				sc.WorkflowState[k] = v
			}
			metrics.RecordWorkflowTransition(def.ID, "step_succeeded")
			if step.OnSuccess == "" || step.OnSuccess == StepTerminal {
				return e.finalize(ctx, def, sc)
			}
			sc.SetWorkflow(def.ID, step.OnSuccess)

		default:
			metrics.RecordWorkflowTransition(def.ID, "bad_outcome")
			sc.ClearWorkflow()
			return fallbackReply(), nil
		}
	}

	metrics.RecordWorkflowTransition(def.ID, "step_limit")
	sc.ClearWorkflow()
	return fallbackReply(), nil
}

/* entryStep resolves the first step of an explicit graph */
func entryStep(def *Definition) string {
	if def.EntryStep != "" {
		return def.EntryStep
	}
	if len(def.Steps) > 0 {
		return def.Steps[0].ID
	}
	return stepCollect
}

/* extractFieldValue parses an answer into the field's declared type */
func extractFieldValue(f *FieldDef, answer string) (interface{}, bool) {
	if f.Extract != nil {
		return f.Extract(answer)
	}
	if answer == "" {
		return nil, false
	}
	if f.Type == "number" {
		n, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return answer, true
}

/* collectedState returns the workflow state without internal markers */
func collectedState(state map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(state))
	for k, v := range state {
		if k == pendingEntityKey || strings.HasPrefix(k, skippedKeyPrefix) {
			continue
		}
		out[k] = v
	}
	return out
}

func fieldByName(def *Definition, name string) *FieldDef {
	for i := range def.Fields {
		if def.Fields[i].Name == name {
			return &def.Fields[i]
		}
	}
	return nil
}

func fieldPrompt(f *FieldDef) string {
	if f.Prompt != "" {
		if !f.Required {
			return f.Prompt + " (or say 'skip')"
		}
		return f.Prompt
	}
	if !f.Required {
		return fmt.Sprintf("What is the %s? (or say 'skip')", f.Name)
	}
	return fmt.Sprintf("What is the %s?", f.Name)
}

func entityPrompt(ent *EntityDef) string {
	if ent.Prompt != "" {
		return ent.Prompt
	}
	return fmt.Sprintf("Which %s is this for?", ent.Name)
}

func confirmationPrompt(def *Definition, state map[string]interface{}) string {
	parts := []string{}
	for i := range def.Fields {
		name := def.Fields[i].Name
		if v, ok := state[name]; ok {
			parts = append(parts, fmt.Sprintf("%s: %v", name, v))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Ready to complete %s. Shall I go ahead?", def.Goal)
	}
	return fmt.Sprintf("Ready to complete %s (%s). Shall I go ahead?", def.Goal, strings.Join(parts, ", "))
}

func pendingEntityName(state map[string]interface{}) string {
	pending, ok := state[pendingEntityKey].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := pending["name"].(string)
	return name
}

func pendingEntityValue(state map[string]interface{}) string {
	pending, ok := state[pendingEntityKey].(map[string]interface{})
	if !ok {
		return ""
	}
	value, _ := pending["value"].(string)
	return value
}

/* userFacing strips wrapped error chains down to the innermost message */
func userFacing(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, "error="); idx >= 0 {
		msg = msg[idx+len("error="):]
	}
	return msg
}

func fallbackReply() *Reply {
	return &Reply{
		Message: "I'm not able to continue with that right now. What else can I help you with?",
	}
}
