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

package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sparkkit/spark/router"
)

// tracker holds per-client state: a request count within the current
// watch window, and block state once the threshold trips. windowStart is
// moved to each counted request, so the watch resets only after a full
// window without requests.
type tracker struct {
	count        int
	windowStart  time.Time
	blocked      bool
	blockExpires time.Time
}

// Stats is the snapshot returned by Throttle.Stats for tests and
// introspection endpoints (spec §4.6 "stats()").
type Stats struct {
	TrackedIPs int
	BlockedIPs int
}

// Throttle is a per-client rate limiter keyed by remote address, with a
// watch window and a block duration (spec §4.6).
type Throttle struct {
	cfg      *config
	mu       sync.Mutex
	trackers map[string]*tracker
}

// New constructs a Throttle middleware. Use Handler to obtain the
// router.HandlerFunc stage.
func New(opts ...Option) *Throttle {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Throttle{cfg: cfg, trackers: make(map[string]*tracker)}
}

func (t *Throttle) logger() *slog.Logger {
	if t.cfg.logger != nil {
		return t.cfg.logger
	}
	return slog.New(slog.DiscardHandler)
}

func (t *Throttle) key(addr string) string {
	if t.cfg.keyFunc != nil {
		return t.cfg.keyFunc(addr)
	}
	return addr
}

// Handler returns the router.HandlerFunc pipeline stage. It should run
// early in the pipeline, ahead of any expensive work (spec §4.6 step 3
// "no lock is held across I/O").
func (t *Throttle) Handler() router.HandlerFunc {
	return func(c *router.Context) {
		addr := c.ClientIP()

		if _, ok := t.cfg.whitelist[addr]; ok {
			c.Next()
			return
		}
		if _, ok := t.cfg.blacklist[addr]; ok {
			t.deny(c, time.Now().Add(t.cfg.block))
			return
		}

		allowed, retryAt := t.check(addr, time.Now())
		if !allowed {
			t.deny(c, retryAt)
			return
		}
		c.Next()
	}
}

// check mutates the tracker under a single lock and returns whether the
// request is allowed, mirroring spec §4.6 step 3 exactly.
func (t *Throttle) check(addr string, now time.Time) (allowed bool, retryAt time.Time) {
	key := t.key(addr)

	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.trackers[key]
	if !ok {
		t.trackers[key] = &tracker{count: 1, windowStart: now}
		return true, time.Time{}
	}

	if !tr.blocked && now.Sub(tr.windowStart) > t.cfg.window {
		delete(t.trackers, key)
		t.trackers[key] = &tracker{count: 1, windowStart: now}
		return true, time.Time{}
	}

	if tr.blocked {
		if now.After(tr.blockExpires) {
			t.logReleased(key)
			delete(t.trackers, key)
			t.trackers[key] = &tracker{count: 1, windowStart: now}
			return true, time.Time{}
		}
		return false, tr.blockExpires
	}

	tr.windowStart = now
	tr.count++
	if tr.count > t.cfg.threshold {
		tr.blocked = true
		tr.blockExpires = now.Add(t.cfg.block)
		t.logBlocked(key)
		return false, tr.blockExpires
	}

	return true, time.Time{}
}

func (t *Throttle) logBlocked(key string) {
	logger := t.logger()
	if logger != nil {
		logger.Warn("throttle: client blocked", "key", key)
	}
}

func (t *Throttle) logReleased(key string) {
	logger := t.logger()
	if logger != nil {
		logger.Info("throttle: client released", "key", key)
	}
}

// deny writes the spec §4.6 deny response: 429, text/plain, empty body,
// Retry-After as a Unix timestamp.
func (t *Throttle) deny(c *router.Context, retryAt time.Time) {
	if retryAt.IsZero() {
		retryAt = time.Now().Add(t.cfg.block)
	}
	c.Header().Set("Content-Type", "text/plain")
	c.Header().Set("Content-Length", "0")
	c.Header().Set("Retry-After", strconv.FormatInt(retryAt.Unix(), 10))
	c.Status(http.StatusTooManyRequests)
	c.Abort(nil)
}

// Stats reports the current tracker population, for tests and
// introspection endpoints (spec §4.6).
func (t *Throttle) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{TrackedIPs: len(t.trackers)}
	for _, tr := range t.trackers {
		if tr.blocked {
			s.BlockedIPs++
		}
	}
	return s
}

// Reset clears all tracker state, for test isolation (spec §4.6 "reset()").
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trackers = make(map[string]*tracker)
}
