/*-------------------------------------------------------------------------
 *
 * context.go
 *    Per-conversation session context for NeuronChat
 *
 * Holds the durable state of one conversation: transcript history, the
 * active workflow and its step, the workflow call stack for nested
 * sub-workflows, and free-form scratch metadata that survives across
 * turns (last presented entity list, node routing pin, confirmation
 * flags).
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/session/context.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/neurondb/NeuronChat/internal/db"
)

/* Metadata keys used by the orchestration components */
const (
	MetaLastEntityList        = "lastEntityList"
	MetaSelectedEntityContext = "selectedEntityContext"
	MetaRoutedToNode          = "routedToNode"
	MetaAwaitingConfirmation  = "awaitingConfirmation"
	MetaAskingFor             = "askingFor"
	MetaActiveCollector       = "activeCollector"
)

/* Message is one transcript entry */
type Message struct {
	Role     string                 `json:"role"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

/* Frame is a suspended parent workflow on the workflow stack */
type Frame struct {
	WorkflowID    string                 `json:"workflowId"`
	Step          string                 `json:"step"`
	State         map[string]interface{} `json:"state"`
	CollectedData map[string]interface{} `json:"collectedData"`
}

/* EntityList is the most recent result list presented to the user */
type EntityList struct {
	EntityType string                   `json:"entityType"`
	EntityIDs  []string                 `json:"entityIds"`
	EntityData []map[string]interface{} `json:"entityData,omitempty"`
	NodeRef    string                   `json:"nodeRef,omitempty"`
	RangeStart int                      `json:"rangeStart,omitempty"`
	RangeEnd   int                      `json:"rangeEnd,omitempty"`
	Timestamp  time.Time                `json:"timestamp"`
}

/* RoutedNode pins a session to a remote federation node */
type RoutedNode struct {
	NodeID   string `json:"nodeId"`
	NodeSlug string `json:"nodeSlug"`
}

/* Context is the durable per-conversation state container */
type Context struct {
	SessionID string
	UserID    string

	History         []Message
	CurrentWorkflow string
	CurrentStep     string
	WorkflowState   map[string]interface{}
	Stack           []Frame
	Metadata        map[string]interface{}

	/* History entries already written to the transcript table */
	persistedMessages int
}

/* NewContext creates an empty session context */
func NewContext(sessionID, userID string) *Context {
	return &Context{
		SessionID:     sessionID,
		UserID:        userID,
		History:       []Message{},
		WorkflowState: make(map[string]interface{}),
		Stack:         []Frame{},
		Metadata:      make(map[string]interface{}),
	}
}

/* Get returns a metadata value, or def when absent */
func (c *Context) Get(key string, def interface{}) interface{} {
	if v, ok := c.Metadata[key]; ok {
		return v
	}
	return def
}

/* Set stores a metadata value */
func (c *Context) Set(key string, value interface{}) {
	c.Metadata[key] = value
}

/* Has reports whether a metadata key is present */
func (c *Context) Has(key string) bool {
	_, ok := c.Metadata[key]
	return ok
}

/* Forget removes a metadata key */
func (c *Context) Forget(key string) {
	delete(c.Metadata, key)
}

/* AddUserMessage appends a user message to the history */
func (c *Context) AddUserMessage(content string) {
	c.History = append(c.History, Message{Role: "user", Content: content})
}

/* AddAssistantMessage appends an assistant message to the history */
func (c *Context) AddAssistantMessage(content string) {
	c.History = append(c.History, Message{Role: "assistant", Content: content})
}

/* RecentHistory returns up to n most recent messages in order */
func (c *Context) RecentHistory(n int) []Message {
	if n <= 0 || len(c.History) == 0 {
		return nil
	}
	if len(c.History) <= n {
		return c.History
	}
	return c.History[len(c.History)-n:]
}

/*
SetWorkflow sets the active workflow and step together.
The pair is always mutated as a unit so that the invariant
CurrentWorkflow == "" iff CurrentStep == "" holds at every
observable point.
*/
func (c *Context) SetWorkflow(workflowID, step string) {
	if workflowID == "" || step == "" {
		c.CurrentWorkflow = ""
		c.CurrentStep = ""
		return
	}
	c.CurrentWorkflow = workflowID
	c.CurrentStep = step
}

/* InWorkflow reports whether a workflow is active */
func (c *Context) InWorkflow() bool {
	return c.CurrentWorkflow != ""
}

/* PushWorkflow suspends the current workflow onto the stack */
func (c *Context) PushWorkflow(workflowID, step string, state map[string]interface{}) {
	collected := make(map[string]interface{}, len(state))
	for k, v := range state {
		collected[k] = v
	}
	c.Stack = append(c.Stack, Frame{
		WorkflowID:    workflowID,
		Step:          step,
		State:         state,
		CollectedData: collected,
	})
}

/*
PopWorkflow removes and returns the innermost suspended frame.
Popping an empty stack is a no-op returning nil rather than an
error.
*/
func (c *Context) PopWorkflow() *Frame {
	if len(c.Stack) == 0 {
		return nil
	}
	frame := c.Stack[len(c.Stack)-1]
	c.Stack = c.Stack[:len(c.Stack)-1]
	return &frame
}

/* InSubworkflow reports whether the active workflow has a suspended parent */
func (c *Context) InSubworkflow() bool {
	return len(c.Stack) > 0
}

/*
ClearWorkflow abandons the entire active workflow in one mutation.
The stack is cleared wholesale, not popped frame by frame, so
cancellation at any nesting depth is a single operation. Scratch
flags tied to workflow progress are cleared with it.
*/
func (c *Context) ClearWorkflow() {
	c.CurrentWorkflow = ""
	c.CurrentStep = ""
	c.WorkflowState = make(map[string]interface{})
	c.Stack = c.Stack[:0]
	c.Forget(MetaAwaitingConfirmation)
	c.Forget(MetaAskingFor)
}

/* SetLastEntityList stores the most recent presented result list */
func (c *Context) SetLastEntityList(list *EntityList) {
	if list == nil {
		c.Forget(MetaLastEntityList)
		return
	}
	if list.Timestamp.IsZero() {
		list.Timestamp = time.Now().UTC()
	}
	c.Set(MetaLastEntityList, list)
}

/* LastEntityList returns the most recent presented result list, nil when absent */
func (c *Context) LastEntityList() *EntityList {
	v, ok := c.Metadata[MetaLastEntityList]
	if !ok || v == nil {
		return nil
	}
	if list, ok := v.(*EntityList); ok {
		return list
	}
	/* Re-hydrate after a JSONB round trip */
	list := &EntityList{}
	if err := remarshal(v, list); err != nil {
		return nil
	}
	c.Metadata[MetaLastEntityList] = list
	return list
}

/* SetRoutedNode pins the session to a remote node */
func (c *Context) SetRoutedNode(node *RoutedNode) {
	if node == nil {
		c.Forget(MetaRoutedToNode)
		return
	}
	c.Set(MetaRoutedToNode, node)
}

/* RoutedNode returns the session's node pin, nil when not pinned */
func (c *Context) RoutedNode() *RoutedNode {
	v, ok := c.Metadata[MetaRoutedToNode]
	if !ok || v == nil {
		return nil
	}
	if node, ok := v.(*RoutedNode); ok {
		return node
	}
	node := &RoutedNode{}
	if err := remarshal(v, node); err != nil {
		return nil
	}
	c.Metadata[MetaRoutedToNode] = node
	return node
}

/* snapshot is the JSONB shape of a persisted context */
type snapshot struct {
	History         []Message              `json:"conversationHistory"`
	CurrentWorkflow string                 `json:"currentWorkflow,omitempty"`
	CurrentStep     string                 `json:"currentStep,omitempty"`
	WorkflowState   map[string]interface{} `json:"workflowState,omitempty"`
	Stack           []Frame                `json:"workflowStack,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

/* Snapshot serializes the context for storage */
func (c *Context) Snapshot() (db.JSONBMap, error) {
	snap := snapshot{
		History:         c.History,
		CurrentWorkflow: c.CurrentWorkflow,
		CurrentStep:     c.CurrentStep,
		WorkflowState:   c.WorkflowState,
		Stack:           c.Stack,
		Metadata:        c.Metadata,
	}
	out := db.JSONBMap{}
	if err := remarshal(snap, &out); err != nil {
		return nil, fmt.Errorf("context snapshot failed: session_id='%s', error=%w", c.SessionID, err)
	}
	return out, nil
}

/* FromSnapshot restores a context from a stored snapshot */
func FromSnapshot(sessionID, userID string, data db.JSONBMap) (*Context, error) {
	snap := snapshot{}
	if err := remarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("context restore failed: session_id='%s', error=%w", sessionID, err)
	}

	ctx := NewContext(sessionID, userID)
	if snap.History != nil {
		ctx.History = snap.History
	}
	ctx.CurrentWorkflow = snap.CurrentWorkflow
	ctx.CurrentStep = snap.CurrentStep
	if snap.WorkflowState != nil {
		ctx.WorkflowState = snap.WorkflowState
	}
	if snap.Stack != nil {
		ctx.Stack = snap.Stack
	}
	if snap.Metadata != nil {
		ctx.Metadata = snap.Metadata
	}
	ctx.persistedMessages = len(ctx.History)
	return ctx, nil
}

/* remarshal converts between representations via JSON */
func remarshal(src, dst interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
