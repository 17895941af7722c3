// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache stores built hardware snapshots with per-entry TTL
// expiration. Concurrent builds for the same key are coalesced, forced
// refreshes are rate limited, and callers always receive deep copies so a
// cached snapshot can never be mutated through a returned value.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/hwsnap/pkg/defaults"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// BuildFunc produces a fresh snapshot on a cache miss.
type BuildFunc func(ctx context.Context) (*topology.HardwareSnapshot, error)

// Stats are cumulative cache counters.
type Stats struct {
	Hits   uint64 `json:"hits" yaml:"hits"`
	Misses uint64 `json:"misses" yaml:"misses"`
	Size   int    `json:"size" yaml:"size"`
}

// Options tunes cache construction.
type Options struct {
	// DefaultTTL applies to entries stored without an explicit TTL.
	DefaultTTL time.Duration

	// RefreshRate and RefreshBurst bound forced refreshes (cache
	// bypasses), protecting privileged probes from hot loops.
	RefreshRate  float64
	RefreshBurst int
}

type entry struct {
	snap     *topology.HardwareSnapshot
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Cache is a TTL snapshot cache safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	defaultTTL time.Duration
	hits       uint64
	misses     uint64

	group   singleflight.Group
	limiter *rate.Limiter
}

// New creates a Cache, filling zero options from the defaults.
func New(opts Options) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = defaults.SnapshotTTL
	}
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = defaults.RefreshRate
	}
	if opts.RefreshBurst <= 0 {
		opts.RefreshBurst = defaults.RefreshBurst
	}
	return &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: opts.DefaultTTL,
		limiter:    rate.NewLimiter(rate.Limit(opts.RefreshRate), opts.RefreshBurst),
	}
}

// Snapshot returns the snapshot for key. A live entry within its TTL is
// returned as a copy with Cached set, unless useCache is false. Misses run
// build, coalescing concurrent builds of the same key; every waiter gets
// its own copy. A forced refresh that exceeds the refresh rate falls back
// to the cached value when one exists.
func (c *Cache) Snapshot(ctx context.Context, key string, build BuildFunc, ttl time.Duration, useCache bool) (*topology.HardwareSnapshot, error) {
	if ttl <= 0 {
		c.mu.RLock()
		ttl = c.defaultTTL
		c.mu.RUnlock()
	}

	if useCache {
		if snap := c.lookup(key); snap != nil {
			return snap, nil
		}
	} else if !c.limiter.Allow() {
		if snap := c.lookup(key); snap != nil {
			slog.Debug("refresh rate exceeded, serving cached snapshot", "key", key)
			return snap, nil
		}
	} else {
		// A forced refresh rebuilds regardless of the stored entry.
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		snap, err := build(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, snap, ttl)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}

	fresh := v.(*topology.HardwareSnapshot).Clone()
	return &fresh, nil
}

// lookup returns a copy of a live entry, dropping it when expired.
func (c *Cache) lookup(key string) *topology.HardwareSnapshot {
	now := time.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && !e.expired(now) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()

		snap := e.snap.Clone()
		snap.Cached = true
		return &snap
	}

	c.mu.Lock()
	if e2, ok2 := c.entries[key]; ok2 && e2.expired(now) {
		delete(c.entries, key)
	}
	c.misses++
	c.mu.Unlock()
	return nil
}

// store replaces the entry for key atomically; readers never observe a
// partially updated entry.
func (c *Cache) store(key string, snap *topology.HardwareSnapshot, ttl time.Duration) {
	clone := snap.Clone()
	c.mu.Lock()
	c.entries[key] = &entry{snap: &clone, storedAt: time.Now(), ttl: ttl}
	c.mu.Unlock()
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// SetDefaultTTL changes the TTL applied to future stores. Existing entries
// keep the TTL they were stored with.
func (c *Cache) SetDefaultTTL(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.defaultTTL = d
	c.mu.Unlock()
}

// Stats returns a point-in-time view of the counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}
