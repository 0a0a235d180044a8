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

package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// ErrHelperNotFound is returned by Helpers.URLFor when name was never
// registered via Register (i.e. no Endpoint was registered under it).
var ErrHelperNotFound = errors.New("endpoint: no path helper registered under this name")

// ErrMissingParameter is returned by Helpers.URLFor when a named segment
// in the pattern has no corresponding entry in params.
var ErrMissingParameter = errors.New("endpoint: missing path parameter")

type segment struct {
	static bool
	value  string
}

// Helpers is a registry of endpoint name -> URL pattern, queryable by
// template code that wants to build links and form actions without
// hardcoding paths (spec §9, replacing the macro-generated path helpers
// of the system this spec was distilled from).
type Helpers struct {
	mu       sync.RWMutex
	patterns map[string][]segment
}

// DefaultHelpers is the registry every Endpoint.Register populates by
// default.
var DefaultHelpers = NewHelpers()

// NewHelpers constructs an empty registry.
func NewHelpers() *Helpers {
	return &Helpers{patterns: make(map[string][]segment)}
}

// Register records pattern under name, compiling it into path segments
// once so repeated URLFor calls don't re-split the string.
func (h *Helpers) Register(name, pattern string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.patterns[name] = compileSegments(pattern)
}

func compileSegments(pattern string) []segment {
	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, ":") || strings.HasPrefix(p, "*") {
			segs = append(segs, segment{static: false, value: strings.TrimLeft(p, ":*")})
		} else {
			segs = append(segs, segment{static: true, value: p})
		}
	}
	return segs
}

// URLFor builds a URL for the endpoint registered under name, substituting
// params into its named segments and appending query as a query string
// (spec §4.4 "framework-generated path helpers").
func (h *Helpers) URLFor(name string, params map[string]string, query url.Values) (string, error) {
	h.mu.RLock()
	segs, ok := h.patterns[name]
	h.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrHelperNotFound, name)
	}

	var b strings.Builder
	for _, seg := range segs {
		b.WriteByte('/')
		if seg.static {
			b.WriteString(seg.value)
			continue
		}
		v, ok := params[seg.value]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingParameter, seg.value)
		}
		b.WriteString(url.PathEscape(v))
	}
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String(), nil
}

// MustURLFor panics instead of returning an error, for use in templates
// rendering a link whose endpoint and parameters are known statically.
func (h *Helpers) MustURLFor(name string, params map[string]string, query url.Values) string {
	u, err := h.URLFor(name, params, query)
	if err != nil {
		panic(err)
	}
	return u
}

// FormHelper builds the (action, method, hiddenMethodField) triple a
// template needs to submit a non-GET request through an HTML form, which
// only natively supports GET and POST: non-GET/POST methods ride along as
// a hidden "_method" field on a POST form, mirroring the override the
// router itself honors on incoming requests (spec §4.4, router/serve.go).
type FormHelper struct {
	Action         string
	Method         string
	OverrideMethod string
}

// Form builds a FormHelper for endpoint name. If the endpoint's method is
// not GET or POST, the returned Method is "POST" and OverrideMethod carries
// the real method for a hidden "_method" input.
func (h *Helpers) Form(name, realMethod string, params map[string]string) (FormHelper, error) {
	action, err := h.URLFor(name, params, nil)
	if err != nil {
		return FormHelper{}, err
	}
	fh := FormHelper{Action: action, Method: strings.ToUpper(realMethod)}
	if fh.Method != "GET" && fh.Method != "POST" {
		fh.OverrideMethod = fh.Method
		fh.Method = "POST"
	}
	return fh, nil
}
