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
	"net/http"
	"strings"
	"sync"

	"github.com/sparkkit/spark/negotiate"
)

// wsPrefix is the synthetic path prefix WebSocket upgrade requests are
// looked up under, per spec §4.1.
const wsPrefix = "/ws"

// Router maps (method, path) to a handler and extracts path parameters.
//
// The route table is built at startup and is read-only thereafter (spec
// §5); the mutex below protects registration only, not the hot lookup
// path, which only touches the LRU cache and the immutable trees.
type Router struct {
	mu          sync.RWMutex
	trees       map[string]*tree // method -> tree
	namedRoutes map[string]*Route
	cache       *routeCache
	notFound    HandlerFunc
	middleware  []HandlerFunc
	reaper      *negotiate.Reaper
}

// NewRouter constructs an empty Router with its LRU lookup cache sized to
// cacheSize entries (0 selects a sane default).
func NewRouter(cacheSize int) *Router {
	return &Router{
		trees:       make(map[string]*tree),
		namedRoutes: make(map[string]*Route),
		cache:       newRouteCache(cacheSize),
	}
}

// SetNotFound installs a custom handler invoked when Find reports no match.
func (r *Router) SetNotFound(h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notFound = h
}

// SetReaper attaches a negotiate.Reaper that every multipart upload parsed
// by this router registers with, so temp files are scheduled for cleanup
// within reaper's configured max age (spec §3). A nil reaper (the
// default) leaves uploads untracked.
func (r *Router) SetReaper(reaper *negotiate.Reaper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reaper = reaper
}

func normalizeMethod(method string) string {
	return strings.ToUpper(method)
}

func normalizePath(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}

// Register adds handler at (method, pattern). A GET registration also
// implicitly registers HEAD with the same handler; any method other than
// TRACE/CONNECT/OPTIONS/HEAD also registers an OPTIONS stub that responds
// 204 No Content; the stub sets no Allow header (spec §4.1).
func (r *Router) Register(method, pattern string, handler HandlerFunc) (*Route, error) {
	return r.register(method, pattern, handler, true)
}

// RegisterWS registers a WebSocket upgrade handler under the synthetic
// "/ws" namespace so it does not collide with ordinary HTTP routes.
func (r *Router) RegisterWS(pattern string, handler HandlerFunc) (*Route, error) {
	return r.register("GET", wsPrefix+normalizePath(pattern), handler, false)
}

func (r *Router) register(method, pattern string, handler HandlerFunc, implicit bool) (*Route, error) {
	method = normalizeMethod(method)
	pattern = normalizePath(pattern)

	r.mu.Lock()
	defer r.mu.Unlock()

	route, err := r.insertLocked(method, pattern, handler)
	if err != nil {
		return nil, err
	}

	if implicit {
		if method == http.MethodGet {
			// Duplicate HEAD registration is not an error: many callers
			// register GET routes repeatedly across groups that happen to
			// share a literal path only at the HEAD shadow; silently skip.
			_, _ = r.insertLocked(http.MethodHead, pattern, handler)
		}
		if !noImplicitMethods[method] {
			_, _ = r.insertLocked(http.MethodOptions, pattern, optionsStub)
		}
	}

	r.cache.purge()
	return route, nil
}

func optionsStub(c *Context) {
	c.Response.WriteHeader(http.StatusNoContent)
}

func (r *Router) insertLocked(method, pattern string, handler HandlerFunc) (*Route, error) {
	t, ok := r.trees[method]
	if !ok {
		t = newTree()
		r.trees[method] = t
	}
	route := &Route{Method: method, Pattern: pattern, Handler: handler, ParamNames: paramNames(pattern)}
	if err := t.insert(pattern, route); err != nil {
		if dup, ok := err.(*DuplicateRouteError); ok {
			dup.Method = method
			dup.Pattern = pattern
			return nil, dup
		}
		return nil, err
	}
	return route, nil
}

func paramNames(pattern string) []string {
	var names []string
	for _, seg := range splitPath(pattern) {
		if strings.HasPrefix(seg, ":") {
			names = append(names, seg[1:])
		}
	}
	return names
}

// Find resolves method and path to a handler and its extracted path
// parameters. Lookups are served from the LRU cache when possible and are
// O(len(path)); every call, including a cache hit, allocates the
// "METHOD path" cache key.
func (r *Router) Find(method, path string) (*Route, map[string]string, bool) {
	method = normalizeMethod(method)
	path = normalizePath(path)

	if res, ok := r.cache.get(method, path); ok {
		return res.route, res.params, res.found
	}

	r.mu.RLock()
	t, ok := r.trees[method]
	r.mu.RUnlock()
	if !ok {
		r.cache.put(method, path, lookupResult{found: false})
		return nil, nil, false
	}

	route, params := t.lookup(path)
	found := route != nil
	r.cache.put(method, path, lookupResult{route: route, params: params, found: found})
	return route, params, found
}

// Name associates a human-readable name with a route for reverse-routing
// helpers (spec §4.4 path helpers).
func (r *Router) Name(name string, route *Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route.Name = name
	r.namedRoutes[name] = route
}

// RouteByName looks up a previously named route.
func (r *Router) RouteByName(name string) (*Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.namedRoutes[name]
	return route, ok
}

// Routes returns a snapshot of every registered route, including the
// implicit HEAD/OPTIONS entries, for introspection and tests.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Route
	for _, t := range r.trees {
		collect(t.root, &out)
	}
	return out
}

func collect(n *node, out *[]*Route) {
	if n == nil {
		return
	}
	if n.route != nil {
		*out = append(*out, n.route)
	}
	for _, child := range n.children {
		collect(child, out)
	}
	collect(n.namedChild, out)
}
