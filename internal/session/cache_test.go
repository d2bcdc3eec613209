/*-------------------------------------------------------------------------
 *
 * cache_test.go
 *    Tests for the session cache
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/session/cache_test.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"testing"
	"time"
)

/* TestCacheGetSet tests basic storage, expiry, and deletion */
func TestCacheGetSet(t *testing.T) {
	cache := NewCache(50*time.Millisecond, 8)
	defer cache.Stop()

	if got := cache.Get("missing"); got != nil {
		t.Errorf("Expected nil on miss, got %v", got)
	}

	cache.Set("s1", NewContext("s1", "u1"))
	if got := cache.Get("s1"); got == nil || got.SessionID != "s1" {
		t.Fatalf("Expected cached context s1, got %v", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := cache.Get("s1"); got != nil {
		t.Errorf("Expected expired entry to read as nil, got %v", got)
	}

	cache.Set("s2", NewContext("s2", "u1"))
	cache.Delete("s2")
	if got := cache.Get("s2"); got != nil {
		t.Errorf("Expected deleted entry to read as nil, got %v", got)
	}
}

/* TestCacheEviction tests that a full cache evicts the least recently used entry */
func TestCacheEviction(t *testing.T) {
	cache := NewCache(time.Minute, 2)
	defer cache.Stop()

	cache.Set("a", NewContext("a", ""))
	cache.Set("b", NewContext("b", ""))
	cache.Get("a")
	cache.Set("c", NewContext("c", ""))

	if cache.Len() != 2 {
		t.Fatalf("Expected 2 cached entries, got %d", cache.Len())
	}
	if cache.Get("b") != nil {
		t.Error("Expected least recently used entry b to be evicted")
	}
	if cache.Get("a") == nil || cache.Get("c") == nil {
		t.Error("Expected a and c to survive eviction")
	}
}

/* TestCacheStop tests that Stop terminates the sweep and is idempotent */
func TestCacheStop(t *testing.T) {
	cache := NewCache(time.Minute, 8)
	cache.Stop()
	cache.Stop()

	cache.Set("s1", NewContext("s1", ""))
	if got := cache.Get("s1"); got == nil {
		t.Error("Expected cache reads to keep working after Stop")
	}
}
