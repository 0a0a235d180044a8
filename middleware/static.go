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

package middleware

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"github.com/sparkkit/spark/errorkit"
	"github.com/sparkkit/spark/router"
)

// StaticOption configures a static file server.
type StaticOption func(*staticConfig)

type staticConfig struct {
	root               string
	index              string
	compressExtensions map[string]bool
}

func defaultStaticConfig(root string) *staticConfig {
	return &staticConfig{
		root:  root,
		index: "index.html",
		compressExtensions: map[string]bool{
			".html": true, ".css": true, ".js": true, ".json": true,
			".svg": true, ".txt": true, ".xml": true,
		},
	}
}

// WithIndexFile overrides the file served for a directory request.
// Default: "index.html".
func WithIndexFile(name string) StaticOption {
	return func(cfg *staticConfig) {
		if name != "" {
			cfg.index = name
		}
	}
}

// WithCompressExtensions overrides the set of file extensions eligible
// for gzip/deflate content-encoding. Default: common text formats.
func WithCompressExtensions(extensions ...string) StaticOption {
	return func(cfg *staticConfig) {
		cfg.compressExtensions = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			cfg.compressExtensions[ext] = true
		}
	}
}

// Static returns a standalone handler serving files under root (spec
// §4.12): it rejects path traversal, sets an ETag derived from the
// file's modification time, delegates Range and conditional-request
// handling to http.ServeContent, and content-encodes eligible text
// assets with gzip or deflate when the client accepts it. Grounded on
// the root/index-file configuration shape of air's static gas
// (`_examples/aofei-air/gases/static.go`), adapted from its framework's
// Context to this module's router.Context and stdlib http.Dir/ServeContent.
func Static(root string, opts ...StaticOption) router.HandlerFunc {
	cfg := defaultStaticConfig(root)
	for _, opt := range opts {
		opt(cfg)
	}
	fs := http.Dir(cfg.root)

	return func(c *router.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Header().Set("Allow", "GET, HEAD")
			c.Header().Set("Content-Length", "0")
			c.Status(http.StatusMethodNotAllowed)
			c.Abort(nil)
			return
		}

		requestPath := c.Request.URL.Path
		if strings.ContainsRune(requestPath, 0) || strings.Contains(requestPath, "..") {
			c.Fail(errorkit.NewBadRequest("invalid path", requestPath))
			return
		}

		cleaned := path.Clean(requestPath)
		f, err := fs.Open(cleaned)
		if err != nil {
			c.Fail(errorkit.NewNotFound("static asset " + cleaned))
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil {
			c.Fail(errorkit.NewInternalServerError(err))
			return
		}

		if fi.IsDir() {
			f.Close()
			indexPath := path.Join(cleaned, cfg.index)
			f, err = fs.Open(indexPath)
			if err != nil {
				c.Fail(errorkit.NewNotFound("static asset " + cleaned))
				return
			}
			defer f.Close()
			fi, err = f.Stat()
			if err != nil {
				c.Fail(errorkit.NewInternalServerError(err))
				return
			}
			cleaned = indexPath
		}

		c.Header().Set("ETag", etagFor(fi.ModTime().UnixNano(), fi.Size()))

		if cfg.compressExtensions[strings.ToLower(path.Ext(cleaned))] {
			if serveCompressed(c, f, fi.Name()) {
				return
			}
		}

		http.ServeContent(c.Response, c.Request, fi.Name(), fi.ModTime(), f)
	}
}

func etagFor(modNano int64, size int64) string {
	return fmt.Sprintf(`"%x-%x"`, modNano, size)
}

// serveCompressed content-encodes the full file body with gzip or
// deflate when the client advertises support, falling back to
// http.ServeContent (which can satisfy Range requests) when it can't.
// Range requests are incompatible with on-the-fly compression, so a
// Range header always takes the fallback path.
func serveCompressed(c *router.Context, content http.File, name string) bool {
	if c.Request.Header.Get("Range") != "" {
		return false
	}

	encoding := negotiateEncoding(c.Request.Header.Get("Accept-Encoding"))
	if encoding == "" {
		return false
	}

	c.Header().Set("Content-Encoding", encoding)
	c.Header().Set("Vary", "Accept-Encoding")
	c.Header().Set("Content-Type", mimeTypeFor(name))

	switch encoding {
	case "gzip":
		gw := gzip.NewWriter(c.Response)
		defer gw.Close()
		_, _ = io.Copy(gw, content)
	case "deflate":
		fw, _ := flate.NewWriter(c.Response, flate.DefaultCompression)
		defer fw.Close()
		_, _ = io.Copy(fw, content)
	}
	return true
}

func negotiateEncoding(acceptEncoding string) string {
	switch {
	case strings.Contains(acceptEncoding, "gzip"):
		return "gzip"
	case strings.Contains(acceptEncoding, "deflate"):
		return "deflate"
	default:
		return ""
	}
}

func mimeTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".xml":
		return "application/xml; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
