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

// Package router implements the framework's core dispatch: a radix-tree
// route matcher (C1) and the ordered middleware pipeline that runs each
// request through (C2).
package router

import "fmt"

// HandlerFunc is a single pipeline stage or terminal endpoint handler.
type HandlerFunc func(c *Context)

// Route is a registered (method, pattern) pair together with its handler
// chain and the names of any path placeholders it declares.
type Route struct {
	Method     string
	Pattern    string
	Handler    HandlerFunc
	ParamNames []string
	Name       string
}

// DuplicateRouteError is returned by Router.Register when the same
// (method, pattern) pair is registered twice, per spec §4.1.
type DuplicateRouteError struct {
	Namespace string
	Method    string
	Pattern   string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("router: duplicate route %s %s already registered in namespace %q",
		e.Method, e.Pattern, e.Namespace)
}

// EmptyPipelineError is raised by Pipeline.Build when no stages were added,
// per spec §4.2.
type EmptyPipelineError struct{}

func (EmptyPipelineError) Error() string {
	return "router: cannot build an empty pipeline"
}

// safeMethods are the HTTP methods CSRF and other defense-in-depth checks
// treat as side-effect free (spec §4.7).
var safeMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"OPTIONS": true,
	"TRACE":   true,
}

// IsSafeMethod reports whether method is one of GET/HEAD/OPTIONS/TRACE.
func IsSafeMethod(method string) bool {
	return safeMethods[method]
}

// noImplicitMethods are methods for which Register does not auto-register
// a companion HEAD/OPTIONS stub (spec §4.1).
var noImplicitMethods = map[string]bool{
	"TRACE":   true,
	"CONNECT": true,
	"OPTIONS": true,
	"HEAD":    true,
}
