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

package errorkit

import (
	"fmt"
	"net"
	"net/http"

	"github.com/sparkkit/spark/router"
)

// Logger is the minimal logging capability the rescuer needs; satisfied
// by *logging.Logger (see the logging package) without creating an import
// cycle back into it.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures the rescuer middleware.
type Options struct {
	// Development switches between the verbose development rendering
	// (backtrace, request details) and the minimal production rendering
	// (spec §4.5).
	Development bool
	Logger      Logger
}

// failSignal is the panic value router.Context.Fail raises.
type failSignal = router.RecoveredFail

// New returns the rescuer stage (spec §4.5), meant to be the first stage
// registered on the pipeline. It recovers panics raised anywhere
// downstream — both explicit router.Context.Fail(err) signals and
// unstructured panics — and renders a content-negotiated error response.
func New(opts Options) router.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return func(c *router.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			var err error
			if fs, ok := rec.(failSignal); ok {
				err = fs.Err
			} else {
				err = fmt.Errorf("panic: %v", rec)
			}

			e := FromError(err)
			if isBrokenPipe(err) {
				logger.Warn("client disconnected during response", "error", err)
				return
			}
			logger.Error("request failed", "errorId", e.ErrorID, "status", e.Kind.Status, "error", err)

			var params map[string]string
			if c.Params != nil {
				params = c.Params.All()
			}
			rendered := Render(e, opts.Development, c.Request, params)
			if werr := c.Negotiate(e.Kind.Status, rendered); werr != nil {
				c.Header().Set("Content-Type", "application/json; charset=utf-8")
				c.Response.WriteHeader(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// isBrokenPipe reports whether err represents a client-gone network error,
// which the rescuer logs but must not try to write a response for (spec
// §5 cancellation: "the rescuer logs it but does not produce a response").
func isBrokenPipe(err error) bool {
	var netErr net.Error
	return err != nil && (asNetError(err, &netErr))
}

func asNetError(err error, target *net.Error) bool {
	for err != nil {
		if ne, ok := err.(net.Error); ok {
			*target = ne
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
