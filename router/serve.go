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
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/sparkkit/spark/negotiate"
)

// overridableMethods are the methods a POST request's "_method" form field
// is allowed to rewrite to, per spec §4.4.
var overridableMethods = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

var respWriterPool = sync.Pool{New: func() any { return &responseWriter{} }}

// Use appends stage to the global middleware chain applied to every
// route, in registration order (spec §4.2).
func (r *Router) Use(stage HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, stage)
}

// ServeHTTP implements http.Handler: it resolves the effective method
// (honoring _method overrides), matches a route, builds the lazy params
// bag, and runs the global middleware chain followed by the route handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rw := respWriterPool.Get().(*responseWriter)
	rw.reset(w)
	defer respWriterPool.Put(rw)

	c := acquireContext(rw, req)
	defer releaseContext(c)

	method := r.resolveMethod(c)
	lookupPath := req.URL.Path
	if isWebSocketUpgrade(req) {
		method = http.MethodGet
		lookupPath = wsPrefix + normalizePath(req.URL.Path)
	}
	route, params, found := r.Find(method, lookupPath)

	c.Params = negotiate.NewParams(params, req.URL.Query(), func() error {
		return r.parseFormInto(c)
	})

	if !found {
		r.mu.RLock()
		nf := r.notFound
		r.mu.RUnlock()
		if nf != nil {
			nf(c)
		} else {
			http.NotFound(rw, req)
		}
		return
	}
	c.Route = route

	r.mu.RLock()
	global := r.middleware
	r.mu.RUnlock()

	handlers := make([]HandlerFunc, 0, len(global)+1)
	handlers = append(handlers, global...)
	handlers = append(handlers, route.Handler)

	c.handlers = handlers
	c.index = -1
	c.Next()
}

// resolveMethod honors the "_method" form override for POST requests with
// a form body (spec §4.4). JSON bodies are intentionally excluded; see
// DESIGN.md's Open Question resolution.
func (r *Router) resolveMethod(c *Context) string {
	req := c.Request
	if req.Method != http.MethodPost {
		return req.Method
	}
	contentType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if contentType == "application/json" {
		return req.Method
	}
	if contentType != "application/x-www-form-urlencoded" && !strings.HasPrefix(contentType, "multipart/form-data") {
		return req.Method
	}

	body, err := c.Body()
	if err != nil || len(body) == 0 {
		return req.Method
	}
	if err := r.peekFormOverride(c, contentType); err == nil {
		if override, ok := c.Get(methodOverrideKey); ok {
			if m, ok := override.(string); ok && overridableMethods[strings.ToUpper(m)] {
				return strings.ToUpper(m)
			}
		}
	}
	return req.Method
}

const methodOverrideKey = "router:_method"

// isWebSocketUpgrade reports whether req is a WebSocket upgrade request,
// per spec §4.1's "WebSocket upgrade requests are looked up under a
// synthetic /ws prefix".
func isWebSocketUpgrade(req *http.Request) bool {
	return strings.EqualFold(req.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(req.Header.Get("Connection")), "upgrade")
}

func (r *Router) peekFormOverride(c *Context, contentType string) error {
	value, err := extractMethodOverride(c, contentType)
	if err != nil {
		return err
	}
	if value != "" {
		c.Set(methodOverrideKey, value)
	}
	return nil
}

// parseFormInto lazily parses the request body into c.Params.Form,
// honoring JSON, urlencoded, and multipart content types (spec §3, §4.4).
func (r *Router) parseFormInto(c *Context) error {
	req := c.Request
	contentType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))

	if contentType == "application/json" {
		// JSON bodies are bound directly by the endpoint layer; the
		// params bag's Form stays empty per spec §4.4 step 2 ("If body
		// content-type is application/json, parse body JSON into fields"
		// happens in endpoint.Call, not here).
		return nil
	}

	body, err := c.Body()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}

	if contentType == "application/x-www-form-urlencoded" {
		values, err := parseURLEncoded(string(body))
		if err != nil {
			return err
		}
		c.Params.Form = values
		return nil
	}

	if strings.HasPrefix(contentType, "multipart/form-data") {
		r.mu.RLock()
		reaper := r.reaper
		r.mu.RUnlock()
		return parseMultipartInto(c, req.Header.Get("Content-Type"), body, reaper)
	}
	return nil
}
