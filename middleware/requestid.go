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

// Package middleware implements the standalone handlers of C12:
// RequestID, the access Logger, and the static file server.
package middleware

import (
	"github.com/google/uuid"

	"github.com/sparkkit/spark/router"
)

const requestIDKey = "spark.requestID"

// RequestIDOption configures the RequestID stage.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

func defaultRequestIDConfig() *requestIDConfig {
	return &requestIDConfig{
		headerName:    "X-Request-ID",
		generator:     uuid.NewString,
		allowClientID: true,
	}
}

// WithRequestIDHeader overrides the header name. Default: "X-Request-ID".
func WithRequestIDHeader(name string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if name != "" {
			cfg.headerName = name
		}
	}
}

// WithRequestIDGenerator overrides the ID generator. Default: a random
// UUIDv4 via google/uuid.
func WithRequestIDGenerator(fn func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if fn != nil {
			cfg.generator = fn
		}
	}
}

// WithAllowClientID controls whether an incoming request's own header
// value is trusted as-is. Default: true.
func WithAllowClientID(allow bool) RequestIDOption {
	return func(cfg *requestIDConfig) { cfg.allowClientID = allow }
}

// RequestID ensures every request carries a request id: it reuses the
// client-supplied header value when allowed, otherwise generates one, and
// mirrors the value onto both the request (for downstream stages via
// c.Get) and the response header (spec §4.12).
func RequestID(opts ...RequestIDOption) router.HandlerFunc {
	cfg := defaultRequestIDConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		var id string
		if cfg.allowClientID {
			id = c.Request.Header.Get(cfg.headerName)
		}
		if id == "" {
			id = cfg.generator()
		}

		c.Set(requestIDKey, id)
		c.Request.Header.Set(cfg.headerName, id)
		c.Header().Set(cfg.headerName, id)

		c.Next()
	}
}

// RequestIDFrom retrieves the request id stored by RequestID, returning
// "" if the stage never ran for this request.
func RequestIDFrom(c *router.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
