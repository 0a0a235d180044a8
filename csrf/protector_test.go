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

package csrf_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkkit/spark/csrf"
	"github.com/sparkkit/spark/negotiate"
	"github.com/sparkkit/spark/router"
)

func issueToken(t *testing.T, p *csrf.Protector) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := &router.Context{Request: req, Response: rec, Params: negotiate.NewParams(nil, req.URL.Query(), nil)}
	p.Handler()(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSignedDoubleSubmitRoundTrip(t *testing.T) {
	t.Parallel()
	p := csrf.New(csrf.WithSecret([]byte("s3cr3t")))

	cookie := issueToken(t, p)
	assert.True(t, cookie.HttpOnly)

	rec := httptest.NewRecorder()
	body := strings.NewReader(url.Values{"_csrf": {cookie.Value}}.Encode())
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	params := negotiate.NewParams(nil, req.URL.Query(), func() error { return nil })
	params.Form = url.Values{"_csrf": {cookie.Value}}
	c := &router.Context{Request: req, Response: rec, Params: params}

	nextRan := false
	handlers := []router.HandlerFunc{p.Handler(), func(c *router.Context) { nextRan = true }}
	chainContext(c, handlers)
	assert.True(t, nextRan)
}

func chainContext(c *router.Context, handlers []router.HandlerFunc) *router.Context {
	for _, h := range handlers {
		h(c)
		if c.Aborted() {
			break
		}
	}
	return c
}

func TestMissingTokenIsForbidden(t *testing.T) {
	t.Parallel()
	p := csrf.New(csrf.WithSecret([]byte("s3cr3t")))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	params := negotiate.NewParams(nil, req.URL.Query(), func() error { return nil })
	c := &router.Context{Request: req, Response: rec, Params: params}

	assert.Panics(t, func() {
		p.Handler()(c)
	})
}

func TestJSONRequestBypasses(t *testing.T) {
	t.Parallel()
	p := csrf.New(csrf.WithSecret([]byte("s3cr3t")))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	params := negotiate.NewParams(nil, req.URL.Query(), func() error { return nil })
	c := &router.Context{Request: req, Response: rec, Params: params}

	nextRan := false
	p2 := []router.HandlerFunc{p.Handler(), func(c *router.Context) { nextRan = true }}
	chainContext(c, p2)
	assert.True(t, nextRan)
}

func TestValidateOrigin(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "https://example.com")
	req.TLS = &tls.ConnectionState{}
	c := &router.Context{Request: req}

	assert.True(t, csrf.ValidateOrigin(c))
}
