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

// Package spark implements the live component registry (C10) and the
// Spark Channel WebSocket runtime (C11): a single upgrade endpoint that
// subscribes connected clients to registered components and dispatches
// their events, re-rendering and pushing content back over the socket.
package spark

import (
	"context"
	"fmt"
	"html"
)

// Component is a live, server-rendered view that can receive browser
// events over a Spark Channel connection (spec §4.11).
type Component interface {
	// Mount is called once, the first time a client subscribes to this
	// component's id.
	Mount(ctx context.Context) error
	// OnEvent handles a client-dispatched event. Implementations that
	// mutate state expect the channel to call Render again afterward.
	OnEvent(ctx context.Context, name string, data map[string]any) error
	// Render produces the component's current HTML fragment. The
	// fragment is wrapped with a data-spark-view attribute by the
	// channel before it is sent to the client; Render itself returns the
	// unwrapped inner markup.
	Render(ctx context.Context) (string, error)
	// Unmount is called when the component is removed from the
	// registry: immediately when its socket closes, when the GC sweep
	// removes it after a disconnect, or when the process is shutting down.
	Unmount(ctx context.Context) error
}

// wrapView wraps rendered content with the data-spark-view marker
// attribute the client-side runtime uses to locate and patch the
// component's DOM node (spec §4.11).
func wrapView(id, content string) string {
	return fmt.Sprintf(`<div data-spark-view="%s">%s</div>`, html.EscapeString(id), content)
}
