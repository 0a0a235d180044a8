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

package spark

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sparkkit/spark/router"
)

const defaultGCInterval = 10 * time.Second

// clientMessage is the JSON shape a browser sends over a Spark Channel
// (spec §4.11): either a subscribe request naming the component id, or
// an event dispatch naming the target channel (component id), the event
// name, and its payload.
type clientMessage struct {
	Subscribe string         `json:"subscribe,omitempty"`
	Event     string         `json:"event,omitempty"`
	Channel   string         `json:"channel,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// serverMessage is the JSON shape pushed back to the client: the
// component id and its freshly rendered, wrapped content.
type serverMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithGCInterval overrides the background sweep period. Default: 10s.
func WithGCInterval(d time.Duration) ChannelOption {
	return func(ch *Channel) {
		if d > 0 {
			ch.gcInterval = d
		}
	}
}

// WithChannelLogger overrides the logger used for connection and
// dispatch errors. Default: slog.Default().
func WithChannelLogger(logger *slog.Logger) ChannelOption {
	return func(ch *Channel) {
		if logger != nil {
			ch.logger = logger
		}
	}
}

// Channel is the single WebSocket endpoint that multiplexes every live
// component connection in a process (spec §4.11).
type Channel struct {
	registry   *Registry
	gcInterval time.Duration
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	stopOnce sync.Once
	stop     chan struct{}
}

// NewChannel constructs a Channel backed by registry.
func NewChannel(registry *Registry, opts ...ChannelOption) *Channel {
	ch := &Channel{
		registry:   registry,
		gcInterval: defaultGCInterval,
		logger:     slog.Default(),
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// StartGC launches the background sweep goroutine that removes
// components disconnected past the grace period (spec §4.11). It returns
// immediately; call Stop (or cancel ctx) to end the sweep.
func (ch *Channel) StartGC(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(ch.gcInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch.stop:
				return
			case <-ticker.C:
				ch.registry.CleanupDisconnected(ch.gcInterval)
			}
		}
	}()
}

// Stop ends a running GC sweep goroutine.
func (ch *Channel) Stop() {
	ch.stopOnce.Do(func() { close(ch.stop) })
}

// Handler upgrades the request to a WebSocket and serves the subscribe/
// event protocol until the client disconnects, at which point every
// component subscribed on this connection is unmounted and removed from
// the registry immediately (spec §4.11 "socket close calls unmount() on
// all attached components").
func (ch *Channel) Handler() router.HandlerFunc {
	return func(c *router.Context) {
		conn, err := ch.upgrader.Upgrade(c.Response, c.Request, nil)
		if err != nil {
			ch.logger.Warn("spark channel upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		ctx := c.Request.Context()
		subscribed := make(map[string]struct{})

		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				break
			}
			ch.dispatch(ctx, conn, &msg, subscribed)
		}

		for id := range subscribed {
			ch.registry.Disconnect(ctx, id)
		}
	}
}

func (ch *Channel) dispatch(ctx context.Context, conn *websocket.Conn, msg *clientMessage, subscribed map[string]struct{}) {
	switch {
	case msg.Subscribe != "":
		component, ok := ch.registry.MarkConnected(ctx, msg.Subscribe)
		if !ok {
			return
		}
		subscribed[msg.Subscribe] = struct{}{}
		ch.render(ctx, conn, msg.Subscribe, component)

	case msg.Event != "":
		component, ok := ch.registry.Get(msg.Channel)
		if !ok {
			return
		}
		if err := component.OnEvent(ctx, msg.Event, msg.Data); err != nil {
			ch.logger.Warn("spark component event failed", "channel", msg.Channel, "event", msg.Event, "error", err)
			return
		}
		ch.render(ctx, conn, msg.Channel, component)
	}
}

func (ch *Channel) render(ctx context.Context, conn *websocket.Conn, id string, component Component) {
	content, err := component.Render(ctx)
	if err != nil {
		ch.logger.Warn("spark component render failed", "id", id, "error", err)
		return
	}
	out := serverMessage{ID: id, Content: wrapView(id, content)}
	payload, err := json.Marshal(out)
	if err != nil {
		ch.logger.Warn("spark server message marshal failed", "id", id, "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		ch.logger.Warn("spark channel write failed", "id", id, "error", err)
	}
}

// SetCheckOrigin restricts WebSocket upgrades to origins accepted by fn.
func (ch *Channel) SetCheckOrigin(fn func(r *http.Request) bool) {
	ch.upgrader.CheckOrigin = fn
}
