/*-------------------------------------------------------------------------
 *
 * registry.go
 *    Autonomous collector registry for NeuronChat
 *
 * Collectors are trigger-activated data collection flows, structurally
 * similar to workflows but discoverable by name and trigger phrases.
 * The registry is an explicitly constructed, injected object; tests
 * build an empty one per test.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/collector/registry.go
 *
 *-------------------------------------------------------------------------
 */

package collector

import (
	"context"
	"sort"
	"strings"
	"sync"
)

/* PermissionCheck gates collector triggering per user. nil allows all */
type PermissionCheck func(userID, collector string) bool

/* Collector is one registered autonomous collection flow */
type Collector struct {
	Name     string
	Triggers []string
	/* Workflow names the flow executed when the collector runs locally */
	Workflow string
	/* NodeSlug delegates execution to a remote node when set */
	NodeSlug string
}

/* Registry holds registered collectors and matches trigger phrases */
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	permission PermissionCheck
}

/* NewRegistry creates an empty collector registry */
func NewRegistry(permission PermissionCheck) *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
		permission: permission,
	}
}

/* Register stores a collector definition */
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Name] = c
}

/* Get returns a collector by name, nil when unknown */
func (r *Registry) Get(name string) *Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.collectors[name]; ok {
		return &c
	}
	return nil
}

/* Names returns registered collector names, sorted */
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

/*
MatchTrigger returns the collector whose trigger phrase the message
contains, "" when none, honoring the permission check
*/
func (r *Registry) MatchTrigger(ctx context.Context, message, userID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lower := strings.ToLower(message)
	for _, name := range r.sortedNamesLocked() {
		c := r.collectors[name]
		for _, trigger := range c.Triggers {
			trigger = strings.ToLower(strings.TrimSpace(trigger))
			if trigger == "" || !strings.Contains(lower, trigger) {
				continue
			}
			if r.permission != nil && !r.permission(userID, c.Name) {
				continue
			}
			return c.Name
		}
	}
	return ""
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
