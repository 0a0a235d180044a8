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

package router

import (
	lru "github.com/hashicorp/golang-lru"
)

// lookupResult is the cached outcome of resolving a (method, path) pair,
// per spec §4.1's "implementations are encouraged to maintain an LRU cache
// of recent (method,path) results".
type lookupResult struct {
	route  *Route
	params map[string]string
	found  bool
}

// routeCache wraps an LRU cache keyed by "METHOD path". It is read-only
// from the hot path's perspective once warmed: entries are invalidated
// wholesale whenever the route table changes (routes are expected to be
// registered at startup, per spec §5's "Route table ... read-only
// thereafter").
type routeCache struct {
	lru *lru.Cache
}

func newRouteCache(size int) *routeCache {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New(size)
	if err != nil {
		// lru.New only errors on size <= 0, already guarded above.
		panic(err)
	}
	return &routeCache{lru: c}
}

func cacheKey(method, path string) string {
	return method + " " + path
}

func (c *routeCache) get(method, path string) (lookupResult, bool) {
	v, ok := c.lru.Get(cacheKey(method, path))
	if !ok {
		return lookupResult{}, false
	}
	return v.(lookupResult), true
}

func (c *routeCache) put(method, path string, res lookupResult) {
	c.lru.Add(cacheKey(method, path), res)
}

func (c *routeCache) purge() {
	c.lru.Purge()
}
