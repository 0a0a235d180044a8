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

package endpoint_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkkit/spark/endpoint"
	"github.com/sparkkit/spark/negotiate"
	"github.com/sparkkit/spark/router"
)

type createUserRequest struct {
	Name string `json:"name" validate:"required"`
	Age  int    `json:"age" validate:"gte=0"`
}

func newTestContext(t *testing.T, req *http.Request, path map[string]string) *router.Context {
	t.Helper()
	rec := httptest.NewRecorder()
	query := req.URL.Query()
	p := negotiate.NewParams(path, query, nil)
	return &router.Context{Request: req, Response: rec, Params: p}
}

func TestBindJSON(t *testing.T) {
	t.Parallel()

	body := strings.NewReader(`{"name":"ada","age":30}`)
	req := httptest.NewRequest(http.MethodPost, "/t", body)
	req.Header.Set("Content-Type", "application/json")
	c := newTestContext(t, req, nil)

	var out createUserRequest
	err := endpoint.Bind(c, &out)
	require.NoError(t, err)
	assert.Equal(t, "ada", out.Name)
	assert.Equal(t, 30, out.Age)
}

func TestBindJSONInvalid(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/t", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	c := newTestContext(t, req, nil)

	var out createUserRequest
	err := endpoint.Bind(c, &out)
	require.Error(t, err)
}

func TestBindFromParams(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/t?age=42", nil)
	c := newTestContext(t, req, map[string]string{"name": "grace"})

	var out createUserRequest
	err := endpoint.Bind(c, &out)
	require.NoError(t, err)
	assert.Equal(t, "grace", out.Name)
	assert.Equal(t, 42, out.Age)
}

func TestBindFromParamsConversionFailure(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/t?age=not-a-number", nil)
	c := newTestContext(t, req, nil)

	var out createUserRequest
	err := endpoint.Bind(c, &out)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	err := endpoint.Validate(&createUserRequest{Name: "ada", Age: 30})
	assert.NoError(t, err)

	err = endpoint.Validate(&createUserRequest{Age: -1})
	require.Error(t, err)
}

func TestHelpersURLFor(t *testing.T) {
	t.Parallel()

	h := endpoint.NewHelpers()
	h.Register("users.get", "/users/:id")

	u, err := h.URLFor("users.get", map[string]string{"id": "123"}, url.Values{"include": []string{"posts"}})
	require.NoError(t, err)
	assert.Equal(t, "/users/123?include=posts", u)

	_, err = h.URLFor("users.get", nil, nil)
	require.ErrorIs(t, err, endpoint.ErrMissingParameter)

	_, err = h.URLFor("missing", nil, nil)
	require.ErrorIs(t, err, endpoint.ErrHelperNotFound)
}

func TestHelpersForm(t *testing.T) {
	t.Parallel()

	h := endpoint.NewHelpers()
	h.Register("users.delete", "/users/:id")

	fh, err := h.Form("users.delete", http.MethodDelete, map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/users/7", fh.Action)
	assert.Equal(t, "POST", fh.Method)
	assert.Equal(t, "DELETE", fh.OverrideMethod)
}
