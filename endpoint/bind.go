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

package endpoint

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/sparkkit/spark/errorkit"
	"github.com/sparkkit/spark/router"
)

// Bind populates req from the request per spec §4.4 step 2: a JSON body
// is unmarshaled directly into req; any other content type populates req's
// fields from the merged path/query/form parameters, converting each
// field's string value to its declared scalar type. A field fails to
// convert reports a BadRequest naming the offending field.
func Bind(c *router.Context, req any) error {
	if isJSONRequest(c) {
		body, err := c.Body()
		if err != nil {
			return errorkit.NewInternalServerError(err)
		}
		if len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, req); err != nil {
			return errorkit.NewBadRequest("request body is not valid JSON", "")
		}
		return nil
	}
	return bindFromParams(c, req)
}

func isJSONRequest(c *router.Context) bool {
	ct := c.Request.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/json")
}

func bindFromParams(c *router.Context, req any) error {
	if c.Params == nil {
		return nil
	}
	values := c.Params.All()

	v := reflect.ValueOf(req)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return errorkit.NewInternalServerError(nil)
	}
	structVal := v.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		key := fieldKey(field)
		raw, ok := values[key]
		if !ok {
			continue
		}
		fieldVal := structVal.Field(i)
		if err := assignScalar(fieldVal, raw); err != nil {
			return errorkit.NewBadRequest("cannot convert value for field", key)
		}
	}
	return nil
}

func fieldKey(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		tag = field.Tag.Get("param")
	}
	if tag == "" {
		return field.Name
	}
	if idx := strings.Index(tag, ","); idx != -1 {
		tag = tag[:idx]
	}
	if tag == "-" || tag == "" {
		return field.Name
	}
	return tag
}

func assignScalar(fieldVal reflect.Value, raw string) error {
	if !fieldVal.CanSet() {
		return nil
	}
	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return err
		}
		fieldVal.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(raw)
		if err != nil {
			return err
		}
		fieldVal.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := cast.ToFloat64E(raw)
		if err != nil {
			return err
		}
		fieldVal.SetFloat(n)
	case reflect.Bool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		fieldVal.SetBool(b)
	case reflect.Ptr:
		elem := reflect.New(fieldVal.Type().Elem())
		if err := assignScalar(elem.Elem(), raw); err != nil {
			return err
		}
		fieldVal.Set(elem)
	default:
		// Unsupported field kinds (structs, slices, maps) are left zero;
		// JSON bodies are the expected path for nested shapes.
	}
	return nil
}
