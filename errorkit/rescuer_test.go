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

package errorkit_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkkit/spark/errorkit"
	"github.com/sparkkit/spark/router"
)

func runRescued(t *testing.T, dev bool, downstream router.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	c := &router.Context{Request: req, Response: rec}

	rescuer := errorkit.New(errorkit.Options{Development: dev})
	p := router.NewPipeline().Use(rescuer).Use(downstream)
	h, err := p.Build()
	require.NoError(t, err)
	h(c)
	return rec
}

func TestRescuerRendersStructuredFail(t *testing.T) {
	t.Parallel()
	rec := runRescued(t, false, func(c *router.Context) {
		c.Fail(errorkit.NewConflict("already exists"))
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["Title"])
}

func TestRescuerRecoversUnstructuredPanic(t *testing.T) {
	t.Parallel()
	rec := runRescued(t, false, func(c *router.Context) {
		panic("unexpected failure")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRescuerOmitsBacktraceInProduction(t *testing.T) {
	t.Parallel()
	rec := runRescued(t, false, func(c *router.Context) {
		c.Fail(errors.New("boom"))
	})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body["Backtrace"])
}

func TestRescuerIncludesBacktraceInDevelopment(t *testing.T) {
	t.Parallel()
	rec := runRescued(t, true, func(c *router.Context) {
		c.Fail(errors.New("boom"))
	})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["Backtrace"])
}

func TestRescuerPassesThroughWhenNoPanic(t *testing.T) {
	t.Parallel()
	rec := runRescued(t, false, func(c *router.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
