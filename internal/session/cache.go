/*-------------------------------------------------------------------------
 *
 * cache.go
 *    In-memory session cache for NeuronChat
 *
 * Provides a bounded TTL cache for hot session contexts so that
 * consecutive turns of an active conversation avoid a database round
 * trip per turn.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/session/cache.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"sync"
	"time"

	"github.com/neurondb/NeuronChat/internal/metrics"
)

type cacheItem struct {
	context    *Context
	expiresAt  time.Time
	lastAccess time.Time
}

/* Cache is a bounded TTL cache for session contexts */
type Cache struct {
	items    map[string]*cacheItem
	mu       sync.RWMutex
	ttl      time.Duration
	maxSize  int
	done     chan struct{}
	stopOnce sync.Once
}

/* NewCache creates a session cache */
func NewCache(ttl time.Duration, maxSize int) *Cache {
	cache := &Cache{
		items:   make(map[string]*cacheItem),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go cache.cleanup()
	return cache
}

/* Stop terminates the background expiry sweep; safe to call twice */
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

/* Get returns the cached context, nil on miss or expiry */
func (c *Cache) Get(sessionID string) *Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[sessionID]
	if !exists {
		return nil
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, sessionID)
		return nil
	}
	item.lastAccess = time.Now()
	return item.context
}

/* Set stores a context, evicting the least recently used entry when full */
func (c *Cache) Set(sessionID string, sc *Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxSize {
		if _, exists := c.items[sessionID]; !exists {
			c.evictOldest()
		}
	}

	c.items[sessionID] = &cacheItem{
		context:    sc,
		expiresAt:  time.Now().Add(c.ttl),
		lastAccess: time.Now(),
	}
	metrics.SetActiveSessions(len(c.items))
}

/* Delete evicts a session from the cache */
func (c *Cache) Delete(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, sessionID)
	metrics.SetActiveSessions(len(c.items))
}

/* Len returns the number of cached sessions */
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

/* evictOldest removes the least recently accessed entry; caller holds the lock */
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAccess time.Time
	for key, item := range c.items {
		if oldestKey == "" || item.lastAccess.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = item.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			metrics.SetActiveSessions(len(c.items))
			c.mu.Unlock()
		}
	}
}
