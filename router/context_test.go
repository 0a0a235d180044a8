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

package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkkit/spark/router"
)

func TestContextSetGetRoundTrips(t *testing.T) {
	t.Parallel()
	c := &router.Context{}
	c.Set("request-id", "abc-123")

	v, ok := c.Get("request-id")
	require.True(t, ok)
	assert.Equal(t, "abc-123", v)
}

func TestContextGetMissingKeyNotOK(t *testing.T) {
	t.Parallel()
	c := &router.Context{}
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestContextClientIPPrefersForwardedFor(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.RemoteAddr = "10.0.0.1:4444"
	c := &router.Context{Request: req}

	assert.Equal(t, "203.0.113.9", c.ClientIP())
}

func TestContextClientIPFallsBackToRemoteAddr(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.5:5555"
	c := &router.Context{Request: req}

	assert.Equal(t, "192.0.2.5", c.ClientIP())
}

func TestContextBodyCanBeReadTwice(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("payload"))
	c := &router.Context{Request: req}

	first, err := c.Body()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(first))

	second, err := c.Body()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(second))
}

func TestContextAbortStopsChainAndRecordsError(t *testing.T) {
	t.Parallel()
	var secondRan bool
	c := &router.Context{}

	p := router.NewPipeline().
		Use(func(c *router.Context) { c.Abort(assert.AnError) }).
		Use(func(c *router.Context) { secondRan = true })
	h, err := p.Build()
	require.NoError(t, err)
	h(c)

	assert.False(t, secondRan)
	assert.True(t, c.Aborted())
	assert.ErrorIs(t, c.AbortError(), assert.AnError)
}

func TestContextFailPanicsWithRecoveredFail(t *testing.T) {
	t.Parallel()
	c := &router.Context{}
	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		fail, ok := rec.(router.RecoveredFail)
		require.True(t, ok)
		assert.ErrorIs(t, fail.Err, assert.AnError)
	}()
	c.Fail(assert.AnError)
}

func TestContextJSONWritesContentTypeAndBody(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	c := &router.Context{Response: rec}

	require.NoError(t, c.JSON(http.StatusCreated, map[string]string{"ok": "yes"}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rec.Body.String(), `"ok":"yes"`)
}

func TestContextNegotiateNilWritesNoContent(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := &router.Context{Response: rec, Request: req}

	require.NoError(t, c.Negotiate(http.StatusOK, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestContextStatusAndHeader(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	c := &router.Context{Response: rec}

	c.Header().Set("X-Test", "1")
	c.Status(http.StatusAccepted)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Test"))
}
