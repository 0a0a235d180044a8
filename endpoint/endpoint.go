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

// Package endpoint implements the typed endpoint layer (C4): binding a
// request DTO and a response DTO to a route, with field-level validation
// and framework-generated path/form helpers.
package endpoint

import (
	"context"

	"github.com/sparkkit/spark/errorkit"
	"github.com/sparkkit/spark/router"
)

// EndpointIdentityHeader is set on the request context before the
// business method runs, so the performance monitor middleware (C9) can
// attribute metrics to the right endpoint (spec §4.4 step 1).
const EndpointIdentityHeader = "X-Endpoint"

// Handler is the business method an endpoint implements: given a bound and
// validated request, produce a response or a structured error.
type Handler[Req any, Res any] func(ctx context.Context, req *Req) (Res, error)

// Endpoint binds an HTTP method and URL pattern to a typed request and
// response pair (spec §4.4).
type Endpoint[Req any, Res any] struct {
	Name    string
	Method  string
	Pattern string
	Handle  Handler[Req, Res]

	// Binder and Validator allow callers to override the default
	// reflection/validator-tag based behavior; nil selects the defaults.
	Binder    func(c *router.Context, req *Req) error
	Validator func(req *Req) error
}

// Register installs the endpoint on r and records a path helper under
// Name (or "Method Pattern", if Name is empty) for reverse routing and template
// link/form helpers (spec §4.4).
func (e *Endpoint[Req, Res]) Register(r *router.Router) (*router.Route, error) {
	name := e.Name
	if name == "" {
		name = e.Method + " " + e.Pattern
	}

	route, err := r.Register(e.Method, e.Pattern, e.handlerFunc(name))
	if err != nil {
		return nil, err
	}
	r.Name(name, route)
	DefaultHelpers.Register(name, e.Pattern)
	return route, nil
}

func (e *Endpoint[Req, Res]) handlerFunc(name string) router.HandlerFunc {
	return func(c *router.Context) {
		c.Set(EndpointIdentityHeader, name)
		c.Header().Set(EndpointIdentityHeader, name)

		var req Req
		if err := e.bind(c, &req); err != nil {
			c.Fail(err)
		}
		if err := e.validate(&req); err != nil {
			c.Fail(err)
		}

		res, err := e.Handle(c.Request.Context(), &req)
		if err != nil {
			c.Fail(err)
		}
		if err := c.Negotiate(statusFor(c), res); err != nil {
			c.Fail(errorkit.NewInternalServerError(err))
		}
	}
}

func (e *Endpoint[Req, Res]) bind(c *router.Context, req *Req) error {
	if e.Binder != nil {
		return e.Binder(c, req)
	}
	return Bind(c, req)
}

func (e *Endpoint[Req, Res]) validate(req *Req) error {
	if e.Validator != nil {
		return e.Validator(req)
	}
	return Validate(req)
}

// statusFor returns 200 unless a handler has already written a different
// status (e.g. 201 Created) directly on the response before returning.
func statusFor(c *router.Context) int {
	if info, ok := c.Response.(router.ResponseInfo); ok && info.Written() {
		return info.StatusCode()
	}
	return 200
}
