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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkkit/spark/errorkit"
)

func TestRenderProductionOmitsBacktrace(t *testing.T) {
	t.Parallel()
	r := errorkit.Render(errors.New("boom"), false, nil, nil)
	assert.Empty(t, r.Backtrace)
	assert.Equal(t, http.StatusInternalServerError, r.StatusCode)
}

func TestRenderDevelopmentIncludesBacktrace(t *testing.T) {
	t.Parallel()
	r := errorkit.Render(errors.New("boom"), true, nil, nil)
	assert.NotEmpty(t, r.Backtrace)
}

func TestRenderDevelopmentIncludesRequestHeadersParamsAndEnvironment(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/widgets/1", nil)
	req.Header.Set("X-Trace-Id", "abc123")

	r := errorkit.Render(errors.New("boom"), true, req, map[string]string{"id": "1"})
	assert.Equal(t, "abc123", r.Headers.Get("X-Trace-Id"))
	assert.Equal(t, "1", r.Params["id"])
	assert.NotEmpty(t, r.Environment)

	body, err := r.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(body), "X-Trace-Id")
	assert.Contains(t, string(body), "abc123")
}

func TestRenderProductionOmitsHeadersParamsAndEnvironment(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/widgets/1", nil)

	r := errorkit.Render(errors.New("boom"), false, req, map[string]string{"id": "1"})
	assert.Nil(t, r.Headers)
	assert.Nil(t, r.Params)
	assert.Nil(t, r.Environment)
}

func TestRenderedJSONRoundTrips(t *testing.T) {
	t.Parallel()
	r := errorkit.Render(errorkit.NewNotFound("gone"), false, nil, nil)
	body, err := r.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"Title":"Not Found"`)
}

func TestRenderedXMLHasErrorElement(t *testing.T) {
	t.Parallel()
	r := errorkit.Render(errorkit.NewNotFound("gone"), false, nil, nil)
	body, err := r.XML()
	require.NoError(t, err)
	assert.Contains(t, string(body), "<Error>")
}

func TestRenderedTextIncludesErrorID(t *testing.T) {
	t.Parallel()
	e := errorkit.NewNotFound("gone")
	r := errorkit.Render(e, false, nil, nil)
	body, err := r.Text()
	require.NoError(t, err)
	assert.Contains(t, string(body), e.ErrorID)
}

func TestRenderedYAMLIncludesTitle(t *testing.T) {
	t.Parallel()
	r := errorkit.Render(errorkit.NewNotFound("gone"), false, nil, nil)
	body, err := r.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(body), "title: Not Found")
}

func TestRenderedHTMLEscapesAndIncludesTitle(t *testing.T) {
	t.Parallel()
	r := errorkit.Render(errorkit.NewNotFound("gone"), false, nil, nil)
	body, err := r.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Not Found")
}

func TestRenderedLinkPointsAtMDNStatusPage(t *testing.T) {
	t.Parallel()
	r := errorkit.Render(errorkit.NewConflict("dup"), false, nil, nil)
	assert.Contains(t, r.Link, "409")
}
