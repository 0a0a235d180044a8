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
	"bytes"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/sparkkit/spark/negotiate"
)

// Context carries per-request state through the pipeline: the request and
// response, the resolved route and path parameters, the lazily-parsed
// params bag, and a small key/value store for inter-stage communication
// (e.g. endpoint identity, request id).
//
// THREAD SAFETY: a Context is bound to the goroutine handling its request
// and must never be retained or used after the handler returns; it is
// pooled and reused by the Router the same way rivaas.dev/router pools
// its contexts.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter

	Route  *Route
	Params *negotiate.Params

	handlers []HandlerFunc
	index    int32

	store   map[string]any
	storeMu sync.Mutex

	rawBody  []byte
	bodyRead bool
	aborted  bool
	abortErr error
}

func newContext() *Context {
	return &Context{index: -1}
}

func (c *Context) reset() {
	c.Request = nil
	c.Response = nil
	c.Route = nil
	c.Params = nil
	c.handlers = nil
	c.index = -1
	c.store = nil
	c.rawBody = nil
	c.bodyRead = false
	c.aborted = false
	c.abortErr = nil
}

// Next invokes the next stage in the handler chain. Calling Next from the
// last stage is a no-op, which is how a terminal endpoint handler
// naturally "falls off the end" of the chain. A stage that returns without
// calling Next ends the chain there.
func (c *Context) Next() {
	c.index++
	if c.index < int32(len(c.handlers)) {
		c.handlers[c.index](c)
	}
}

// Abort marks the chain as short-circuited due to a transport-level error
// (e.g. the client disconnected mid-write), per spec §5's cancellation
// model: stages propagate the error up and the rescuer logs it without
// producing a response.
func (c *Context) Abort(err error) {
	c.aborted = true
	c.abortErr = err
	c.index = int32(len(c.handlers))
}

// Aborted reports whether Abort was called during this request.
func (c *Context) Aborted() bool { return c.aborted }

// AbortError returns the error passed to Abort, if any.
func (c *Context) AbortError() error { return c.abortErr }

// Set stores a value under key for the lifetime of the request. Used for
// cross-stage data such as the endpoint identity header value or the
// resolved request id.
func (c *Context) Set(key string, value any) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = value
}

// Get retrieves a value stored with Set.
func (c *Context) Get(key string) (any, bool) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	v, ok := c.store[key]
	return v, ok
}

// RecoveredFail carries a structured error up to the rescuer stage via
// panic, the same "signal via panic, recover at a single boundary" idiom
// the rescuer itself uses for unstructured exceptions (spec §4.5).
type RecoveredFail struct{ Err error }

// Fail aborts the current stage and hands err to the Rescuer stage
// (assumed to be the first stage in the pipeline, per spec §4.5) for
// content-negotiated rendering. Any stage, not just the endpoint layer,
// may call this to report a structured error.
func (c *Context) Fail(err error) {
	panic(RecoveredFail{Err: err})
}

// ClientIP returns the first X-Forwarded-For address, falling back to the
// request's direct remote address (used by the rate limiter and the
// performance monitor to key per-client state).
func (c *Context) ClientIP() string {
	if xff := c.Request.Header.Get("X-Forwarded-For"); xff != "" {
		if comma := strings.IndexByte(xff, ','); comma != -1 {
			xff = xff[:comma]
		}
		if ip := strings.TrimSpace(xff); ip != "" {
			return ip
		}
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// Param returns a path parameter extracted by the router.
func (c *Context) Param(name string) string {
	if c.Params == nil {
		return ""
	}
	v := c.Params.Path[name]
	return v
}

// Body materializes the request body into an in-memory buffer on first
// call and replaces c.Request.Body with a fresh reader over that buffer
// every time, so any number of stages (e.g. CSRF, then the endpoint layer)
// can read the full body independently (spec §4.3, §9 body re-reading).
func (c *Context) Body() ([]byte, error) {
	if !c.bodyRead {
		if c.Request.Body != nil {
			data, err := io.ReadAll(c.Request.Body)
			c.Request.Body.Close()
			if err != nil {
				return nil, err
			}
			c.rawBody = data
		}
		c.bodyRead = true
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(c.rawBody))
	return c.rawBody, nil
}

// Status writes the response status code.
func (c *Context) Status(code int) {
	c.Response.WriteHeader(code)
}

// Header returns the response header map for direct manipulation by
// stages (e.g. setting Retry-After, Content-Type).
func (c *Context) Header() http.Header {
	return c.Response.Header()
}

// Negotiate renders value according to the request's Accept header and
// writes status, Content-Type, and body. A nil value writes 204 No
// Content with an empty body (spec §4.3).
func (c *Context) Negotiate(status int, value any) error {
	if value == nil {
		c.Response.WriteHeader(http.StatusNoContent)
		return nil
	}
	contentType, body, err := negotiate.Negotiate(c.Request.Header.Get("Accept"), value)
	if err != nil {
		return err
	}
	if contentType != "" {
		c.Response.Header().Set("Content-Type", contentType)
	}
	c.Response.WriteHeader(status)
	_, err = c.Response.Write(body)
	return err
}

// JSON writes value as a JSON response regardless of Accept header
// negotiation, for handlers that want an unconditional format.
func (c *Context) JSON(status int, value any) error {
	_, body, err := negotiate.Negotiate("application/json", value)
	if err != nil {
		return err
	}
	c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.Response.WriteHeader(status)
	_, err = c.Response.Write(body)
	return err
}

var contextPool = sync.Pool{
	New: func() any { return newContext() },
}

func acquireContext(w http.ResponseWriter, r *http.Request) *Context {
	c := contextPool.Get().(*Context)
	c.Request = r
	c.Response = w
	return c
}

func releaseContext(c *Context) {
	c.reset()
	contextPool.Put(c)
}
