/*-------------------------------------------------------------------------
 *
 * decision.go
 *    Routing decision types for NeuronChat
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/routing/decision.go
 *
 *-------------------------------------------------------------------------
 */

package routing

/* Routing actions, one per turn */
const (
	ActionContinueWorkflow = "continue_workflow"
	/* ActionStartWorkflow is never produced by the router itself;
	   workflow starts surface as search_knowledge create operations.
	   Hosts calling the orchestrator directly use it to launch a
	   named workflow. */
	ActionStartWorkflow     = "start_workflow"
	ActionSearchKnowledge   = "search_knowledge"
	ActionConversational    = "conversational"
	ActionRouteToRemoteNode = "route_to_remote_node"
	ActionCancelWorkflow    = "cancel_workflow"
	ActionStartCollector    = "start_collector"
)

/* Operation hints attached to search_knowledge decisions */
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpQuery  = "query"
)

/* Decision is the routing outcome of one inbound message */
type Decision struct {
	Action string
	/* ResourceName names the workflow, collector, or node the action
	   targets, when the action has a target */
	ResourceName string
	/* Operation is the CRUD hint attached to search_knowledge */
	Operation string
	/* Position is the resolved list index for option selections */
	Position int

	/* Diagnostics */
	Reasoning  string
	Confidence float64
}
