/*-------------------------------------------------------------------------
 *
 * registry.go
 *    Workflow registry for NeuronChat
 *
 * Maps stable workflow identifiers to definitions. The registry is
 * constructed explicitly and injected; there is no process-wide
 * registry, so tests can build an empty one per test.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/workflow/registry.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"fmt"
	"sort"
	"sync"
)

type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

/* NewRegistry creates an empty workflow registry */
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]*Definition)}
}

/* Register validates and adds a definition */
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("workflow registration failed: definition_or_id_empty=true")
	}
	if err := validateDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.ID]; exists {
		return fmt.Errorf("workflow registration failed: duplicate_workflow_id='%s'", def.ID)
	}
	r.definitions[def.ID] = def
	return nil
}

/* Get returns a definition by id, nil when unknown */
func (r *Registry) Get(id string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.definitions[id]
}

/* IDs returns all registered workflow ids, sorted */
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.definitions))
	for id := range r.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

/* validateDefinition checks graph references and entity wiring */
func validateDefinition(def *Definition) error {
	if def.Declarative() {
		if len(def.Fields) == 0 && len(def.Entities) == 0 {
			return fmt.Errorf("workflow validation failed: workflow_id='%s', no_fields_or_entities=true", def.ID)
		}
		return nil
	}

	ids := make(map[string]bool, len(def.Steps))
	for i := range def.Steps {
		step := &def.Steps[i]
		if step.ID == "" {
			return fmt.Errorf("workflow validation failed: workflow_id='%s', step_index=%d, step_id_empty=true", def.ID, i)
		}
		if step.Execute == nil {
			return fmt.Errorf("workflow validation failed: workflow_id='%s', step_id='%s', execute_nil=true", def.ID, step.ID)
		}
		if ids[step.ID] {
			return fmt.Errorf("workflow validation failed: workflow_id='%s', duplicate_step_id='%s'", def.ID, step.ID)
		}
		ids[step.ID] = true
	}

	/* Every transition must reference an existing step or the terminal marker */
	for i := range def.Steps {
		step := &def.Steps[i]
		for _, target := range []string{step.OnSuccess, step.OnFailure} {
			if target == "" || target == StepTerminal {
				continue
			}
			if !ids[target] {
				return fmt.Errorf("workflow validation failed: workflow_id='%s', step_id='%s', unknown_transition='%s'",
					def.ID, step.ID, target)
			}
		}
	}

	entry := def.EntryStep
	if entry == "" && len(def.Steps) > 0 {
		entry = def.Steps[0].ID
	}
	if !ids[entry] {
		return fmt.Errorf("workflow validation failed: workflow_id='%s', unknown_entry_step='%s'", def.ID, entry)
	}
	return nil
}
