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

// Package ratelimit implements the throttle middleware (C6): a per-client
// tracker keyed by remote address, with a watch window and a block
// duration, plus whitelist/blacklist bypass.
package ratelimit

import (
	"log/slog"
	"time"
)

// Option configures a Throttle.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	window    time.Duration
	threshold int
	block     time.Duration
	whitelist map[string]struct{}
	blacklist map[string]struct{}
	keyFunc   func(string) string
}

func newConfig() *config {
	return &config{
		window:    time.Minute,
		threshold: 60,
		block:     5 * time.Minute,
		whitelist: map[string]struct{}{},
		blacklist: map[string]struct{}{},
	}
}

// WithWindow sets the watch window; the request counter resets once a
// client has gone this long without a request. Default: 1 minute.
func WithWindow(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.window = d
		}
	}
}

// WithThreshold sets the number of requests allowed within the watch
// window before a client is blocked. Default: 60.
func WithThreshold(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.threshold = n
		}
	}
}

// WithBlockDuration sets how long a client stays blocked once it trips
// the threshold. Default: 5 minutes.
func WithBlockDuration(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.block = d
		}
	}
}

// WithWhitelist exempts the given addresses from throttling entirely.
func WithWhitelist(addrs ...string) Option {
	return func(cfg *config) {
		for _, a := range addrs {
			cfg.whitelist[a] = struct{}{}
		}
	}
}

// WithBlacklist denies the given addresses unconditionally with 429,
// without ever tracking or releasing them.
func WithBlacklist(addrs ...string) Option {
	return func(cfg *config) {
		for _, a := range addrs {
			cfg.blacklist[a] = struct{}{}
		}
	}
}

// WithLogger sets the slog.Logger used to record block/release events. If
// not provided, those events are not logged.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithKeyFunc overrides how a tracking key is derived from the request's
// remote address (e.g. to strip a port, or key by a forwarded header
// already resolved by the caller). Default: used as-is.
func WithKeyFunc(fn func(string) string) Option {
	return func(cfg *config) {
		cfg.keyFunc = fn
	}
}
