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

package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// ContextLogger binds a Logger to a context.Context, injecting
// trace_id/span_id attributes into every call when the context carries a
// live OpenTelemetry span (spec §10.1). Typically constructed once per
// request and used by a single goroutine.
type ContextLogger struct {
	logger  *slog.Logger
	ctx     context.Context
	traceID string
	spanID  string
}

// NewContextLogger wraps logger for the given context, extracting trace
// correlation fields if an active span is present.
func NewContextLogger(ctx context.Context, logger *Logger) *ContextLogger {
	sl := logger.Logger()

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		traceID := sc.TraceID().String()
		spanID := sc.SpanID().String()

		return &ContextLogger{
			logger:  sl.With(fieldTraceID, traceID, fieldSpanID, spanID),
			ctx:     ctx,
			traceID: traceID,
			spanID:  spanID,
		}
	}

	return &ContextLogger{logger: sl, ctx: ctx}
}

func (cl *ContextLogger) Logger() *slog.Logger { return cl.logger }
func (cl *ContextLogger) TraceID() string      { return cl.traceID }
func (cl *ContextLogger) SpanID() string       { return cl.spanID }

func (cl *ContextLogger) With(args ...any) *slog.Logger { return cl.logger.With(args...) }

func (cl *ContextLogger) Debug(msg string, args ...any) { cl.logger.DebugContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Info(msg string, args ...any)  { cl.logger.InfoContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Warn(msg string, args ...any)  { cl.logger.WarnContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Error(msg string, args ...any) { cl.logger.ErrorContext(cl.ctx, msg, args...) }

var _ Interface = (*ContextLogger)(nil)
