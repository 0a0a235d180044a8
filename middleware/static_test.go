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

package middleware_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparkkit/spark/errorkit"
	"github.com/sparkkit/spark/middleware"
	"github.com/sparkkit/spark/router"
)

func newStaticRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>home</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0o644))

	sub := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "index.html"), []byte("<h1>docs</h1>"), 0o644))

	return dir
}

func serveStatic(handler router.HandlerFunc, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := &router.Context{Request: req, Response: rec}
	// Static reports 400/404 through Context.Fail, so it runs behind the
	// errorkit rescuer exactly as it would as a pipeline stage.
	chain, err := router.NewPipeline().Use(errorkit.New(errorkit.Options{})).Use(handler).Build()
	if err != nil {
		panic(err)
	}
	chain(c)
	return rec
}

func TestStaticServesFileWithETag(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodGet, "/app.js", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))
	require.Contains(t, rec.Body.String(), "console.log")
}

func TestStaticDirectoryResolvesToIndex(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodGet, "/docs/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "docs")
}

func TestStaticRootResolvesToIndex(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "home")
}

func TestStaticRejectsPathTraversal(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodGet, "/../etc/passwd", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticRejectsNullByte(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodGet, "/app.js%00.html", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticUnknownFileNotFound(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodGet, "/missing.txt", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticRejectsNonGetMethod(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodPost, "/app.js", nil)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestStaticCompressesWhenAcceptEncodingMatches(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodGet, "/app.js", map[string]string{
		"Accept-Encoding": "gzip, deflate",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gr)
	require.NoError(t, err)
	require.Contains(t, string(body), "console.log")
}

func TestStaticRangeRequestBypassesCompression(t *testing.T) {
	t.Parallel()
	handler := middleware.Static(newStaticRoot(t))

	rec := serveStatic(handler, http.MethodGet, "/app.js", map[string]string{
		"Accept-Encoding": "gzip",
		"Range":           "bytes=0-4",
	})

	require.Empty(t, rec.Header().Get("Content-Encoding"))
	require.Equal(t, http.StatusPartialContent, rec.Code)
}

func TestStaticIndexFileOptionOverride(t *testing.T) {
	t.Parallel()
	root := newStaticRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.html"), []byte("<h1>main</h1>"), 0o644))
	handler := middleware.Static(root, middleware.WithIndexFile("main.html"))

	rec := serveStatic(handler, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "main")
}
