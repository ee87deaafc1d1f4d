/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package cache provides the parsed statement cache of FlyMem.

Statement Cache Overview:
=========================

Parsing is the only step of statement execution that depends on the SQL
text alone. The cache keeps the parse result of recently executed texts so
that an application issuing the same statements over and over skips the
lexer and parser.

Parse results are purely syntactic, so an entry never goes stale: schema
changes do not invalidate it. Names are resolved by the planner on every
execution.

Features:
=========

  - LRU eviction when the cache is full
  - Thread-safe operations
  - Hit/miss statistics
  - A size of zero disables caching

Usage Example:
==============

	stmts := cache.New[[]sql.Statement](cache.Config{MaxEntries: 256})

	if parsed, ok := stmts.Get(text); ok {
		return parsed
	}
	parsed, err := sql.Parse(text)
	if err == nil {
		stmts.Set(text, parsed)
	}
*/
package cache

import (
	"container/list"
	"sync"
)

// Config holds the configuration for the statement cache.
type Config struct {
	// MaxEntries is the maximum number of cached texts. When exceeded, the
	// least recently used entries are evicted. Zero disables the cache.
	MaxEntries int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{MaxEntries: 256}
}

// entry represents one cached text.
type entry[V any] struct {
	key     string
	value   V
	element *list.Element
}

// Cache is an LRU cache keyed by statement text.
type Cache[V any] struct {
	config Config

	mu sync.Mutex

	// entries maps texts to entries
	entries map[string]*entry[V]

	// lru tracks access order, most recent at the front
	lru *list.List

	hits   int64
	misses int64
}

// New creates a new Cache with the given configuration.
func New[V any](config Config) *Cache[V] {
	if config.MaxEntries < 0 {
		config.MaxEntries = 0
	}
	return &Cache[V]{
		config:  config,
		entries: make(map[string]*entry[V]),
		lru:     list.New(),
	}
}

// Enabled reports whether the cache stores anything.
func (c *Cache[V]) Enabled() bool {
	return c.config.MaxEntries > 0
}

// Get returns the value cached for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	c.lru.MoveToFront(e.element)
	c.hits++
	return e.value, true
}

// Set caches value under key, evicting the least recently used entries as
// needed.
func (c *Cache[V]) Set(key string, value V) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.lru.MoveToFront(e.element)
		return
	}

	for len(c.entries) >= c.config.MaxEntries {
		c.evictOldest()
	}

	e := &entry[V]{key: key, value: value}
	e.element = c.lru.PushFront(e)
	c.entries[key] = e
}

// Purge clears the entire cache. Statistics are kept.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[V])
	c.lru = list.New()
}

// evictOldest removes the least recently used entry (must hold lock).
func (c *Cache[V]) evictOldest() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	e := elem.Value.(*entry[V])
	delete(c.entries, e.key)
	c.lru.Remove(elem)
}

// Stats holds cache statistics.
type Stats struct {
	Hits       int64
	Misses     int64
	Entries    int
	MaxEntries int
	HitRate    float64
}

// Stats returns current cache statistics.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		Entries:    len(c.entries),
		MaxEntries: c.config.MaxEntries,
		HitRate:    hitRate,
	}
}
