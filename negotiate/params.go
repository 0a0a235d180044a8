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

package negotiate

import (
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"sync"
	"time"
)

// Upload describes one multipart file field, per spec §3.
type Upload struct {
	Filename    string
	TempPath    string
	Size        int64
	ContentType string
	Headers     textproto
	createdAt   time.Time
}

// textproto mirrors textproto.MIMEHeader without importing net/textproto
// into every call site that only wants to read a couple of headers.
type textproto = map[string][]string

// Params holds the three disjoint parameter bags described in spec §3:
// path (from route matching), query (from the URL), and form (from the
// body). Lookup (Get) follows form -> path -> query precedence. Body
// parsing is lazy: Parse is only invoked on first access to any form/JSON
// accessor.
type Params struct {
	mu sync.Mutex

	Path  map[string]string
	Query url.Values
	Form  url.Values

	Uploads map[string]*Upload

	parsed    bool
	parseErr  error
	parseFunc func() error
}

// NewParams constructs a Params bag. parseBody is invoked exactly once, on
// first access to any form-derived accessor, to perform lazy body parsing
// (spec §4.3 "JSON/body parsing occurs only on first access").
func NewParams(path map[string]string, query url.Values, parseBody func() error) *Params {
	return &Params{Path: path, Query: query, parseFunc: parseBody}
}

func (p *Params) ensureParsed() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parsed {
		return p.parseErr
	}
	p.parsed = true
	if p.parseFunc != nil {
		p.parseErr = p.parseFunc()
	}
	return p.parseErr
}

// Get resolves key using form -> path -> query precedence (spec §3, §8
// invariant 6). It forces lazy body parsing.
func (p *Params) Get(key string) (string, bool) {
	_ = p.ensureParsed()
	if p.Form != nil {
		if v := p.Form.Get(key); v != "" || p.Form.Has(key) {
			return v, true
		}
	}
	if v, ok := p.Path[key]; ok {
		return v, true
	}
	if p.Query != nil {
		if v := p.Query.Get(key); v != "" || p.Query.Has(key) {
			return v, true
		}
	}
	return "", false
}

// All returns the merged parameter map honoring the same precedence as
// Get, useful for populating request DTOs from non-JSON bodies (spec
// §4.4).
func (p *Params) All() map[string]string {
	_ = p.ensureParsed()
	merged := make(map[string]string)
	for k, v := range p.Query {
		if len(v) > 0 {
			merged[k] = v[0]
		}
	}
	for k, v := range p.Path {
		merged[k] = v
	}
	if p.Form != nil {
		for k, v := range p.Form {
			if len(v) > 0 {
				merged[k] = v[0]
			}
		}
	}
	return merged
}

// SetUpload registers a multipart upload and schedules it for cleanup once
// it exceeds maxAge, per spec §3's temp-file invariant. The cleanup itself
// is performed by a Reaper (see upload.go); SetUpload only records intent.
func (p *Params) SetUpload(name string, u *Upload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Uploads == nil {
		p.Uploads = make(map[string]*Upload)
	}
	u.createdAt = time.Now()
	p.Uploads[name] = u
}

// ParseMultipartUploads copies multipart.FileHeader entries into the
// Uploads map, spilling each part to a temp file under dir.
func ParseMultipartUploads(form *multipart.Form, dir string, uploads map[string]*Upload) error {
	for name, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		src, err := fh.Open()
		if err != nil {
			return err
		}
		tmp, err := os.CreateTemp(dir, "spark-upload-*")
		if err != nil {
			src.Close()
			return err
		}
		size, err := io.Copy(tmp, src)
		src.Close()
		tmp.Close()
		if err != nil {
			return err
		}
		uploads[name] = &Upload{
			Filename:    fh.Filename,
			TempPath:    tmp.Name(),
			Size:        size,
			ContentType: fh.Header.Get("Content-Type"),
			Headers:     fh.Header,
			createdAt:   time.Now(),
		}
	}
	return nil
}
