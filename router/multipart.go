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

package router

import (
	"bytes"
	"mime"
	"mime/multipart"
	"net/url"
	"os"

	"github.com/sparkkit/spark/negotiate"
)

func parseURLEncoded(body string) (url.Values, error) {
	return url.ParseQuery(body)
}

// parseMultipartInto parses a buffered multipart body without consuming
// c.Request.Body, so downstream stages can still call c.Body() and get the
// full original bytes back (spec §4.7 "Multipart parsing MUST not consume
// the body destructively"). Every file part spilled to a temp file is
// registered with reaper, if one is set, so it is scheduled for cleanup
// rather than leaking (spec §3's max_temp_age invariant).
func parseMultipartInto(c *Context, contentTypeHeader string, body []byte, reaper *negotiate.Reaper) error {
	_, params, err := mime.ParseMediaType(contentTypeHeader)
	if err != nil {
		return err
	}
	boundary, ok := params["boundary"]
	if !ok {
		return nil
	}

	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		return err
	}
	defer form.RemoveAll()

	values := url.Values{}
	for key, vals := range form.Value {
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	c.Params.Form = values

	if len(form.File) > 0 {
		uploads := make(map[string]*negotiate.Upload)
		if err := negotiate.ParseMultipartUploads(form, os.TempDir(), uploads); err != nil {
			return err
		}
		for name, u := range uploads {
			c.Params.SetUpload(name, u)
		}
		if reaper != nil {
			reaper.TrackUploads(uploads)
		}
	}
	return nil
}

// extractMethodOverride reads the "_method" field from a urlencoded or
// multipart body without disturbing c's buffered body.
func extractMethodOverride(c *Context, contentType string) (string, error) {
	if contentType == "application/x-www-form-urlencoded" {
		values, err := parseURLEncoded(string(c.rawBody))
		if err != nil {
			return "", err
		}
		return values.Get("_method"), nil
	}
	// multipart
	_, params, err := mime.ParseMediaType(c.Request.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	boundary, ok := params["boundary"]
	if !ok {
		return "", nil
	}
	reader := multipart.NewReader(bytes.NewReader(c.rawBody), boundary)
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		return "", err
	}
	defer form.RemoveAll()
	if vals, ok := form.Value["_method"]; ok && len(vals) > 0 {
		return vals[0], nil
	}
	return "", nil
}
