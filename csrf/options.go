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

// Package csrf implements the CSRF engine (C7): three token strategies
// (synchronizer, signed double-submit, plain double-submit), bypass rules
// for safe methods/skip-routes/preflight-protected requests, and origin
// validation as a defense-in-depth option.
package csrf

import "time"

// Strategy selects the token scheme (spec §4.7).
type Strategy int

const (
	// Synchronizer stores a random token in the cookie and requires the
	// same value echoed back in a form field, header, or query parameter.
	Synchronizer Strategy = iota
	// SignedDoubleSubmit is the default: the cookie value is
	// "base:ts:HMAC_SHA256(secret, base:ts)", verified by recomputing the
	// HMAC and checking the timestamp's age.
	SignedDoubleSubmit
	// PlainDoubleSubmit compares the submitted token against the cookie
	// value with a constant-time compare only; no HMAC involved.
	PlainDoubleSubmit
)

// Option configures a Protector.
type Option func(*config)

type config struct {
	strategy     Strategy
	secret       []byte
	cookieName   string
	headerName   string
	formField    string
	queryParam   string
	cookieMaxAge time.Duration
	sameSite     string
	skipRoutes   []string
	ajaxHeaders  []string
}

func newConfig() *config {
	return &config{
		strategy:     SignedDoubleSubmit,
		cookieName:   "csrf_token",
		headerName:   "X-CSRF-Token",
		formField:    "_csrf",
		queryParam:   "_csrf",
		cookieMaxAge: 24 * time.Hour,
		sameSite:     "Strict",
	}
}

// WithStrategy selects the token scheme. Default: SignedDoubleSubmit.
func WithStrategy(s Strategy) Option {
	return func(cfg *config) { cfg.strategy = s }
}

// WithSecret sets the HMAC signing secret, required by SignedDoubleSubmit.
func WithSecret(secret []byte) Option {
	return func(cfg *config) { cfg.secret = secret }
}

// WithCookieName overrides the cookie name. Default: "csrf_token".
func WithCookieName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.cookieName = name
		}
	}
}

// WithHeaderName overrides the header checked during token extraction.
// Default: "X-CSRF-Token".
func WithHeaderName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.headerName = name
		}
	}
}

// WithCookieMaxAge sets the cookie Max-Age and, for SignedDoubleSubmit,
// the maximum age a token is accepted at. Default: 24h.
func WithCookieMaxAge(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.cookieMaxAge = d
		}
	}
}

// WithSkipRoutes exempts any request whose path has one of the given
// prefixes from CSRF verification (spec §4.7 "Configured skip-routes").
func WithSkipRoutes(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.skipRoutes = append(cfg.skipRoutes, prefixes...)
	}
}

// WithAJAXHeaders names additional headers whose presence marks a request
// as already protected by CORS preflight, bypassing verification (spec
// §4.7), in addition to the built-in application/json content-type check.
func WithAJAXHeaders(headers ...string) Option {
	return func(cfg *config) {
		cfg.ajaxHeaders = append(cfg.ajaxHeaders, headers...)
	}
}
