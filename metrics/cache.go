// Copyright 2025 The Rivaas Authors
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

package metrics

import (
	"context"
	"time"
)

// Cache is the minimal store interface WrapCache instruments. Any get/set
// store (in-process LRU, Redis client, etc.) can satisfy it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// instrumentedCache wraps a Cache, recording a CacheEntry into an Engine
// for every operation (spec §12 supplemented feature: cache observability
// surfaced through the same engine that serves request/component stats).
type instrumentedCache struct {
	inner     Cache
	engine    *Engine
	storeType string
}

// WrapCache decorates inner so every Get/Set/Delete call is timed and
// recorded into engine, labeled with storeType (e.g. "redis", "lru").
func WrapCache(inner Cache, engine *Engine, storeType string) Cache {
	return &instrumentedCache{inner: inner, engine: engine, storeType: storeType}
}

func (c *instrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, hit, err := c.inner.Get(ctx, key)
	c.engine.RecordCache(CacheEntry{
		StoreType:  c.storeType,
		Operation:  "get",
		Duration:   time.Since(start),
		Hit:        hit,
		ValueSize:  int64(len(value)),
		Error:      err != nil,
		RecordedAt: start,
	})
	return value, hit, err
}

func (c *instrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, value, ttl)
	c.engine.RecordCache(CacheEntry{
		StoreType:  c.storeType,
		Operation:  "set",
		Duration:   time.Since(start),
		ValueSize:  int64(len(value)),
		Error:      err != nil,
		RecordedAt: start,
	})
	return err
}

func (c *instrumentedCache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := c.inner.Delete(ctx, key)
	c.engine.RecordCache(CacheEntry{
		StoreType:  c.storeType,
		Operation:  "delete",
		Duration:   time.Since(start),
		Error:      err != nil,
		RecordedAt: start,
	})
	return err
}
