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
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/sparkkit/spark/router"
)

const (
	requestIDKey = "spark.requestID"

	// endpointKey matches endpoint.EndpointIdentityHeader — duplicated
	// here rather than imported to avoid a metrics -> endpoint dependency
	// for a single shared constant.
	endpointKey = "X-Endpoint"

	defaultSlowThreshold   = 500 * time.Millisecond
	defaultMemDeltaWarning = 16 << 20 // 16 MiB
)

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithSlowThreshold overrides the duration past which a request is logged
// as slow. Default: 500ms.
func WithSlowThreshold(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.slowThreshold = d
		}
	}
}

// WithMemoryDeltaWarning overrides the threshold, in bytes allocated
// during the request (runtime TotalAlloc growth), past which a request is
// logged as memory-heavy. Default: 16 MiB.
func WithMemoryDeltaWarning(bytes int64) MonitorOption {
	return func(m *Monitor) {
		if bytes > 0 {
			m.memDeltaWarning = bytes
		}
	}
}

// WithMonitorLogger overrides the logger used for slow/memory-heavy
// request warnings. Default: slog.Default().
func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Monitor is the performance monitor middleware (spec §4.9): it records
// every request's duration and memory delta into an Engine, and logs a
// warning when either crosses a configured threshold, regardless of
// whether the downstream handler succeeded or failed.
type Monitor struct {
	engine          *Engine
	slowThreshold   time.Duration
	memDeltaWarning int64
	logger          *slog.Logger
}

// NewMonitor constructs a Monitor backed by engine.
func NewMonitor(engine *Engine, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		engine:          engine,
		slowThreshold:   defaultSlowThreshold,
		memDeltaWarning: defaultMemDeltaWarning,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler returns the pipeline stage implementing spec §4.9's five steps:
// read memoryBefore, ensure a request id exists, invoke downstream,
// record the outcome unconditionally, then warn on slow/memory-heavy
// requests.
func (m *Monitor) Handler() router.HandlerFunc {
	return func(c *router.Context) {
		var before runtime.MemStats
		runtime.ReadMemStats(&before)

		requestID := ensureRequestID(c)
		start := time.Now()

		// Deferred rather than run after c.Next() returns: a structured
		// failure unwinds through c.Next() as a panic (router.Context.Fail,
		// recovered only at the rescuer stage upstream of this one), and
		// the request metric must still be recorded for that outcome.
		defer func() {
			duration := time.Since(start)

			var after runtime.MemStats
			runtime.ReadMemStats(&after)
			delta := memDelta(before, after)

			status := statusOf(c)
			endpoint := endpointOf(c)

			m.engine.RecordRequest(RequestEntry{
				Endpoint:    endpoint,
				Method:      c.Request.Method,
				Status:      status,
				Duration:    duration,
				MemoryDelta: delta,
				RecordedAt:  start,
			})

			if duration >= m.slowThreshold {
				m.logger.Warn("slow request",
					"requestID", requestID,
					"endpoint", endpoint,
					"method", c.Request.Method,
					"status", status,
					"duration", duration,
				)
			}
			if delta >= m.memDeltaWarning {
				m.logger.Warn("memory-heavy request",
					"requestID", requestID,
					"endpoint", endpoint,
					"method", c.Request.Method,
					"status", status,
					"memoryDelta", delta,
				)
			}
		}()

		c.Next()
	}
}

// Stats returns aggregate request stats recorded since the given time.
func (m *Monitor) Stats(since time.Time) Stats { return m.engine.Aggregate(since) }

// EndpointStats returns per-endpoint stats recorded since the given time.
func (m *Monitor) EndpointStats(endpoint string, since time.Time) Stats {
	return m.engine.EndpointStats(endpoint, since)
}

func memDelta(before, after runtime.MemStats) int64 {
	delta := int64(after.TotalAlloc) - int64(before.TotalAlloc)
	if delta < 0 {
		return 0
	}
	return delta
}

func statusOf(c *router.Context) int {
	if rw, ok := c.Response.(router.ResponseInfo); ok {
		return rw.StatusCode()
	}
	return 200
}

func endpointOf(c *router.Context) string {
	if v, ok := c.Get(endpointKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Route != nil && c.Route.Pattern != "" {
		return c.Route.Pattern
	}
	return c.Request.URL.Path
}

// ensureRequestID generates an X-Request-ID (also set on the request) if
// the request carried none, then always records the id in the context
// store and on the response (spec §4.12 RequestID).
func ensureRequestID(c *router.Context) string {
	id := c.Request.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
		c.Request.Header.Set("X-Request-ID", id)
	}
	c.Set(requestIDKey, id)
	c.Header().Set("X-Request-ID", id)
	return id
}
