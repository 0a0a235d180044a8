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

package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sparkkit/spark/errorkit"
	"github.com/sparkkit/spark/router"
)

var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// Protector issues and verifies CSRF tokens according to its configured
// Strategy (spec §4.7).
type Protector struct {
	cfg *config
}

// New constructs a Protector. Panics if a SignedDoubleSubmit strategy is
// selected (the default) without WithSecret, since an unsigned "signed"
// token would be a silent security downgrade.
func New(opts ...Option) *Protector {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.strategy == SignedDoubleSubmit && len(cfg.secret) == 0 {
		panic("csrf: SignedDoubleSubmit strategy requires WithSecret")
	}
	return &Protector{cfg: cfg}
}

// Handler returns the pipeline stage: issue a token cookie if absent, and
// verify the submitted token on unsafe methods unless a bypass rule
// applies (spec §4.7).
func (p *Protector) Handler() router.HandlerFunc {
	return func(c *router.Context) {
		cookie, err := c.Request.Cookie(p.cfg.cookieName)
		var token string
		if err != nil || cookie.Value == "" {
			token = p.issue()
			p.setCookie(c, token)
		} else {
			token = cookie.Value
		}

		if !safeMethods[c.Request.Method] && !p.bypassed(c) {
			submitted := extractToken(c, p.cfg)
			if submitted == "" || !p.verify(token, submitted) {
				c.Fail(errorkit.NewForbidden("CSRF token missing or invalid"))
				return
			}
		}

		c.Header().Add("Vary", "Cookie")
		c.Next()
	}
}

// bypassed reports whether verification (not token issuance) should be
// skipped for an unsafe-method request, per spec §4.7's skip-route and
// preflight-protected rules.
func (p *Protector) bypassed(c *router.Context) bool {
	for _, prefix := range p.cfg.skipRoutes {
		if strings.HasPrefix(c.Request.URL.Path, prefix) {
			return true
		}
	}
	ct := c.Request.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		return true
	}
	for _, h := range p.cfg.ajaxHeaders {
		if c.Request.Header.Get(h) != "" {
			return true
		}
	}
	return false
}

// issue generates a new token string according to the configured
// strategy: random for Synchronizer/PlainDoubleSubmit, signed
// base:ts:HMAC for SignedDoubleSubmit.
func (p *Protector) issue() string {
	base := randomToken(32)
	if p.cfg.strategy != SignedDoubleSubmit {
		return base
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := sign(p.cfg.secret, base+":"+ts)
	return base + ":" + ts + ":" + sig
}

// verify compares the submitted token against the cookie's token
// according to the configured strategy (spec §4.7).
func (p *Protector) verify(cookieToken, submitted string) bool {
	switch p.cfg.strategy {
	case SignedDoubleSubmit:
		return p.verifySigned(cookieToken, submitted)
	default:
		return constantTimeEqual(cookieToken, submitted)
	}
}

func (p *Protector) verifySigned(cookieToken, submitted string) bool {
	if !constantTimeEqual(cookieToken, submitted) {
		return false
	}
	parts := strings.SplitN(cookieToken, ":", 3)
	if len(parts) != 3 {
		return false
	}
	base, tsStr, sig := parts[0], parts[1], parts[2]
	if !constantTimeEqual(sign(p.cfg.secret, base+":"+tsStr), sig) {
		return false
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return false
	}
	age := time.Since(time.Unix(ts, 0))
	return age >= 0 && age <= p.cfg.cookieMaxAge
}

func (p *Protector) setCookie(c *router.Context, token string) {
	http.SetCookie(c.Response, &http.Cookie{
		Name:     p.cfg.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(c.Request),
		SameSite: sameSiteFromString(p.cfg.sameSite),
		MaxAge:   int(p.cfg.cookieMaxAge.Seconds()),
	})
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func sameSiteFromString(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// extractToken follows spec §4.7's header -> form -> query precedence.
// Form access goes through c.Params, which buffers and restores the body
// (spec §4.7 "must not consume the body destructively").
func extractToken(c *router.Context, cfg *config) string {
	if v := c.Request.Header.Get(cfg.headerName); v != "" {
		return v
	}
	if c.Params != nil {
		if v, ok := c.Params.Get(cfg.formField); ok && v != "" {
			return v
		}
	}
	return c.Request.URL.Query().Get(cfg.queryParam)
}

// ValidateOrigin compares the Origin header (falling back to Referer)
// against the scheme://host reconstructed from the request, for callers
// that want defense-in-depth beyond token verification (spec §4.7).
func ValidateOrigin(c *router.Context) bool {
	origin := c.Request.Header.Get("Origin")
	if origin == "" {
		referer := c.Request.Header.Get("Referer")
		if referer == "" {
			return false
		}
		origin = referer
	}
	scheme := "http"
	if isHTTPS(c.Request) {
		scheme = "https"
	}
	expected := scheme + "://" + c.Request.Host
	return strings.HasPrefix(origin, expected)
}

func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: failed to read random bytes: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func sign(secret []byte, data string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
