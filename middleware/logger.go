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

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/sparkkit/spark/router"
)

const defaultLogQueueSize = 1024

// bgCtx is reused across every async log call: it carries no
// cancellation or values we need, and slog.Logger.Log requires a
// context argument.
var bgCtx = context.Background()

// logEntry is one completed request's access-log fields (spec §4.12).
type logEntry struct {
	method        string
	path          string
	status        int
	latency       time.Duration
	remoteAddr    string
	userAgent     string
	endpoint      string
	contentLength int64
}

// LoggerOption configures the Logger stage.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	logger    *slog.Logger
	queueSize int
	skipPaths map[string]bool
}

func defaultLoggerConfig() *loggerConfig {
	return &loggerConfig{
		logger:    slog.Default(),
		queueSize: defaultLogQueueSize,
		skipPaths: make(map[string]bool),
	}
}

// WithAccessLogger overrides the slog.Logger used to emit access log
// lines. Default: slog.Default().
func WithAccessLogger(logger *slog.Logger) LoggerOption {
	return func(cfg *loggerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithLoggerQueueSize overrides the async emission queue's buffer size.
// Entries are dropped, not blocked on, once the queue is full, so the
// request-handling goroutine is never slowed down by logging (spec
// §4.12 "must not block the request thread"). Default: 1024.
func WithLoggerQueueSize(n int) LoggerOption {
	return func(cfg *loggerConfig) {
		if n > 0 {
			cfg.queueSize = n
		}
	}
}

// WithLoggerSkipPaths exempts the given exact paths from access logging,
// e.g. health checks.
func WithLoggerSkipPaths(paths ...string) LoggerOption {
	return func(cfg *loggerConfig) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}

// Logger is the access-log stage: on request completion it emits exactly
// one structured log line asynchronously, via a buffered channel drained
// by a background goroutine, so a slow log sink never adds latency to
// the request path (spec §4.12).
type Logger struct {
	cfg   *loggerConfig
	queue chan logEntry
	done  chan struct{}
}

// NewLogger starts the background emission goroutine and returns a
// Logger. Call Close to stop it (e.g. during graceful shutdown).
func NewLogger(opts ...LoggerOption) *Logger {
	cfg := defaultLoggerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	l := &Logger{
		cfg:   cfg,
		queue: make(chan logEntry, cfg.queueSize),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Logger) run() {
	for {
		select {
		case entry, ok := <-l.queue:
			if !ok {
				return
			}
			l.emit(entry)
		case <-l.done:
			return
		}
	}
}

func (l *Logger) emit(e logEntry) {
	level := slog.LevelInfo
	switch {
	case e.status >= 500:
		level = slog.LevelError
	case e.status >= 400:
		level = slog.LevelWarn
	}
	l.cfg.logger.Log(bgCtx, level, "request completed",
		"method", e.method,
		"path", e.path,
		"status", e.status,
		"latency", e.latency,
		"remoteAddr", e.remoteAddr,
		"userAgent", e.userAgent,
		"endpoint", e.endpoint,
		"contentLength", e.contentLength,
	)
}

// Handler returns the pipeline stage. It records the start time, invokes
// downstream, then pushes one logEntry onto the async queue; if the
// queue is full the entry is dropped rather than blocking the request.
func (l *Logger) Handler() router.HandlerFunc {
	return func(c *router.Context) {
		if l.cfg.skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		entry := logEntry{
			method:        c.Request.Method,
			path:          c.Request.URL.Path,
			status:        statusOf(c),
			latency:       time.Since(start),
			remoteAddr:    c.ClientIP(),
			userAgent:     c.Request.UserAgent(),
			endpoint:      endpointOf(c),
			contentLength: c.Request.ContentLength,
		}

		select {
		case l.queue <- entry:
		default:
		}
	}
}

// Close stops the background emission goroutine. Entries still in the
// queue are not flushed.
func (l *Logger) Close() {
	close(l.done)
}

func statusOf(c *router.Context) int {
	if rw, ok := c.Response.(router.ResponseInfo); ok {
		return rw.StatusCode()
	}
	return 200
}

func endpointOf(c *router.Context) string {
	if c.Route != nil && c.Route.Pattern != "" {
		return c.Route.Pattern
	}
	return c.Request.URL.Path
}
