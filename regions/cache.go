// Package regions caches bucket-to-region mappings so that each bucket's
// location is discovered once and reused until the entry is invalidated.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package regions

import "sync"

// Cache is a concurrent bucket→region map. The zero value is not usable;
// construct with New. Clients share the process-wide Default instance
// unless configured with their own.
type Cache struct {
	mu sync.RWMutex
	m  map[string]string
}

// Default is the process-wide cache shared by all clients that do not
// supply their own.
var Default = New()

func New() *Cache {
	return &Cache{m: make(map[string]string)}
}

// Get returns the cached region for bucket, or "" when unknown.
func (c *Cache) Get(bucket string) string {
	c.mu.RLock()
	region := c.m[bucket]
	c.mu.RUnlock()
	return region
}

// Set records the region for bucket, replacing any previous entry.
func (c *Cache) Set(bucket, region string) {
	c.mu.Lock()
	c.m[bucket] = region
	c.mu.Unlock()
}

// Invalidate drops the entry for bucket. Called when the server reports
// NoSuchBucket so that a re-created bucket is re-resolved.
func (c *Cache) Invalidate(bucket string) {
	c.mu.Lock()
	delete(c.m, bucket)
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.m)
	c.mu.RUnlock()
	return n
}
