/*-------------------------------------------------------------------------
 *
 * store.go
 *    Entity store collaborator contract for NeuronChat
 *
 * Workflows resolve referenced business objects (customers, invoices,
 * products) through this interface. The host application owns the
 * actual schema; the orchestrator only looks up by a search key and
 * creates with collected fields.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/entity/store.go
 *
 *-------------------------------------------------------------------------
 */

package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

/* Record is a host business object as seen by the orchestrator */
type Record map[string]interface{}

/* ID returns the record's identifier as a string, empty when missing */
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	if v, ok := r["id"]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

/*
Store finds and creates host business objects.
Find returns (nil, nil) when no entity matches; not-found is a
first-class branch for the workflow engine, never an error.
*/
type Store interface {
	Find(ctx context.Context, model, key string, value interface{}) (Record, error)
	Create(ctx context.Context, model string, fields map[string]interface{}) (Record, error)
}

/* MemoryStore is an in-memory Store for tests and embedded use */
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
	nextID  int
}

/* NewMemoryStore creates an empty in-memory store */
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]Record),
		nextID:  1,
	}
}

/* Find looks up the first record whose key matches value (case-insensitive for strings) */
func (s *MemoryStore) Find(ctx context.Context, model, key string, value interface{}) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := fmt.Sprintf("%v", value)
	for _, record := range s.records[model] {
		got, ok := record[key]
		if !ok {
			continue
		}
		if strings.EqualFold(fmt.Sprintf("%v", got), want) {
			return record, nil
		}
	}
	return nil, nil
}

/* Create stores a new record, assigning a sequential id */
func (s *MemoryStore) Create(ctx context.Context, model string, fields map[string]interface{}) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := make(Record, len(fields)+1)
	for k, v := range fields {
		record[k] = v
	}
	if _, ok := record["id"]; !ok {
		record["id"] = fmt.Sprintf("%d", s.nextID)
		s.nextID++
	}
	s.records[model] = append(s.records[model], record)
	return record, nil
}

/* Seed inserts a record directly, for test setup */
func (s *MemoryStore) Seed(model string, record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[model] = append(s.records[model], record)
}
