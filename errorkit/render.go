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

package errorkit

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sparkkit/spark/negotiate"
)

// Rendered is the error wire shape from spec §6:
// {Status, Link, Title, Detail, Source, Errors, Backtrace}. It implements
// negotiate.MultiFormatRenderable so the content negotiator can pick its
// representation the same way it picks an endpoint response's.
type Rendered struct {
	StatusCode int                 `json:"Status"`
	Link       string              `json:"Link"`
	Title      string              `json:"Title"`
	Detail     string              `json:"Detail,omitempty"`
	Source     string              `json:"Source,omitempty"`
	Errors     map[string][]string `json:"Errors,omitempty"`
	Backtrace  []string            `json:"Backtrace,omitempty"`
	ErrorID    string              `json:"-"`
	Timestamp  time.Time           `json:"-"`

	// Headers, Params, and Environment are populated only in development
	// mode (spec §4.5 "render an HTML exception page with ... request
	// headers, params, environment variables"). They never appear in the
	// wire formats other callers negotiate against.
	Headers     http.Header       `json:"-" xml:"-"`
	Params      map[string]string `json:"-" xml:"-"`
	Environment map[string]string `json:"-" xml:"-"`
}

var _ negotiate.MultiFormatRenderable = Rendered{}

func linkFor(status int) string {
	return fmt.Sprintf("https://developer.mozilla.org/en-US/docs/Web/HTTP/Status/%d", status)
}

// Render produces the dev- or production-appropriate Rendered value for
// err. developmentMode controls whether backtrace, request headers,
// params, and environment variables are included (spec §4.5, §7); req and
// params may be nil and are only consulted in development mode.
func Render(err error, developmentMode bool, req *http.Request, params map[string]string) Rendered {
	e := FromError(err)
	r := Rendered{
		StatusCode: e.Kind.Status,
		Link:       linkFor(e.Kind.Status),
		Title:      e.Title,
		Detail:     e.Detail,
		Source:     e.Source,
		Errors:     e.FieldErrs,
		ErrorID:    e.ErrorID,
		Timestamp:  e.Timestamp,
	}
	if developmentMode {
		r.Backtrace = e.Backtrace
		if req != nil {
			r.Headers = req.Header
		}
		r.Params = params
		r.Environment = redactedEnviron()
	}
	return r
}

// sensitiveEnvSubstrings flags environment variables the dev exception
// page redacts rather than printing in the clear, mirroring the
// logging package's redactSensitive attribute list.
var sensitiveEnvSubstrings = []string{"PASSWORD", "TOKEN", "SECRET", "API_KEY", "AUTHORIZATION"}

func redactedEnviron() map[string]string {
	raw := os.Environ()
	env := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if isSensitiveEnvKey(key) {
			value = "***REDACTED***"
		}
		env[key] = value
	}
	return env
}

func isSensitiveEnvKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, s := range sensitiveEnvSubstrings {
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}

// JSON implements negotiate.MultiFormatRenderable.
func (r Rendered) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// XML implements negotiate.MultiFormatRenderable. Field errors are written
// as one <Errors field="..."> element per field, sorted by field name.
func (r Rendered) XML() ([]byte, error) {
	type xmlRendered Rendered
	type fieldErrors struct {
		Field    string   `xml:"field,attr"`
		Messages []string `xml:"Message"`
	}
	fields := make([]string, 0, len(r.Errors))
	for field := range r.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	errs := make([]fieldErrors, 0, len(fields))
	for _, field := range fields {
		errs = append(errs, fieldErrors{Field: field, Messages: r.Errors[field]})
	}
	return xml.Marshal(struct {
		xmlRendered
		XMLName struct{}      `xml:"Error"`
		Errors  []fieldErrors `xml:"Errors"`
	}{xmlRendered: xmlRendered(r), Errors: errs})
}

// Text implements negotiate.MultiFormatRenderable.
func (r Rendered) Text() ([]byte, error) {
	return []byte(fmt.Sprintf("%d %s: %s (errorId=%s)", r.StatusCode, r.Title, r.Detail, r.ErrorID)), nil
}

// YAML implements negotiate.MultiFormatRenderable.
func (r Rendered) YAML() ([]byte, error) {
	return negotiate.YAML(r)
}

var htmlTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}}</title></head>
<body>
<h1>{{.StatusCode}} {{.Title}}</h1>
<p>{{.Detail}}</p>
{{if .Backtrace}}<h2>Backtrace</h2><pre>{{range .Backtrace}}{{.}}
{{end}}</pre>{{end}}
{{if .Headers}}<h2>Request headers</h2><table>{{range $k, $v := .Headers}}<tr><td>{{$k}}</td><td>{{range $v}}{{.}} {{end}}</td></tr>{{end}}</table>{{end}}
{{if .Params}}<h2>Params</h2><table>{{range $k, $v := .Params}}<tr><td>{{$k}}</td><td>{{$v}}</td></tr>{{end}}</table>{{end}}
{{if .Environment}}<h2>Environment</h2><table>{{range $k, $v := .Environment}}<tr><td>{{$k}}</td><td>{{$v}}</td></tr>{{end}}</table>{{end}}
<p>errorId: {{.ErrorID}}</p>
</body></html>`))

// HTML implements negotiate.MultiFormatRenderable. In production mode the
// Backtrace, Headers, Params, and Environment fields are already empty by
// the time Render built this value, so the HTML page never leaks them
// (spec §4.5 "production renderings never include backtrace").
func (r Rendered) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
