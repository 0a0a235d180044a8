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
	"encoding/json"
	"encoding/xml"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Renderable is the minimal capability trait every response value that
// wants framework-driven rendering must implement (spec §9 "duck-typed
// anything with render"). Render returns the serialized body.
type Renderable interface {
	Render() ([]byte, error)
}

// MultiFormatRenderable is the richer trait content-negotiated endpoint
// responses implement; the negotiator picks one method based on the
// resolved media type (spec §9).
type MultiFormatRenderable interface {
	HTML() ([]byte, error)
	JSON() ([]byte, error)
	XML() ([]byte, error)
	Text() ([]byte, error)
	YAML() ([]byte, error)
}

// formats lists the media types this package knows how to pick between, in
// the fixed preference order used when the caller doesn't constrain offers.
var formats = []string{"application/json", "text/html", "application/xml", "text/plain", "application/yaml"}

// Negotiate picks the best representation of value for the given Accept
// header and renders it. It returns the chosen content type and body.
//
// A nil value produces 204 semantics at the caller (content type "" and a
// nil body); callers must check for that case themselves since this
// function has no HTTP status to set (spec §4.3 "A nil response produces
// 204 No Content with an empty body").
func Negotiate(accept string, value any) (contentType string, body []byte, err error) {
	if value == nil {
		return "", nil, nil
	}

	switch v := value.(type) {
	case MultiFormatRenderable:
		ranges := ParseAccept(accept)
		chosen := Best(ranges, formats...)
		if chosen == "" {
			chosen = "application/json"
		}
		switch chosen {
		case "text/html":
			body, err = v.HTML()
		case "application/xml":
			body, err = v.XML()
		case "text/plain":
			body, err = v.Text()
		case "application/yaml":
			body, err = v.YAML()
		default:
			chosen = "application/json"
			body, err = v.JSON()
		}
		return chosen, body, err

	case Renderable:
		body, err = v.Render()
		return "application/octet-stream", body, err

	case string:
		// Default media type when the response is a plain string is
		// text/plain, per spec §4.3.
		return "text/plain; charset=utf-8", []byte(v), nil

	case []byte:
		return "application/octet-stream", v, nil

	default:
		body, err = json.Marshal(v)
		return "application/json", body, err
	}
}

// YAML renders v as YAML, used by MultiFormatRenderable implementations
// that want to offer application/yaml alongside the four built-in formats.
func YAML(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// MarshalXML is a small helper wrapping encoding/xml with a consistent
// error wrapper so callers get a uniform error shape across formats.
func MarshalXML(v any) ([]byte, error) {
	b, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("negotiate: xml render: %w", err)
	}
	return b, nil
}
