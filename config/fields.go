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

package config

import (
	"fmt"

	"github.com/spf13/cast"
)

// fieldSource looks up a raw value for one of the spec §6 variable names.
// Both current sources (the process environment and WithEnvMap's map)
// produce strings; cast coerces them to each field's type.
type fieldSource func(key string) (any, bool)

// applyFields overlays every recognized field from source onto c,
// coercing with cast and failing on the first malformed value. Shared by
// WithEnv and WithEnvMap so the two sources agree on every key name and
// target type; WithFile does not use it.
func applyFields(c *Config, sourceName string, source fieldSource) error {
	var firstErr error
	set := func(key string, assign func(v any) error) {
		if firstErr != nil {
			return
		}
		v, ok := source(key)
		if !ok {
			return
		}
		if s, isStr := v.(string); isStr && s == "" {
			return
		}
		if err := assign(v); err != nil {
			firstErr = fmt.Errorf("config: %s %s: %w", sourceName, key, err)
		}
	}

	set("PORT", func(v any) error {
		n, err := cast.ToIntE(v)
		if err != nil {
			return err
		}
		c.Port = n
		return nil
	})
	set("HOST", func(v any) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		c.Host = s
		return nil
	})
	set("PORT_REUSE", func(v any) error {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		c.PortReuse = b
		return nil
	})
	set("APP_ENV", func(v any) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		c.Env = s
		return nil
	})
	set("CRYSTAL_ENV", func(v any) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		c.Env = s
		return nil
	})

	set("SSL_CERT", func(v any) error { return assignString(&c.SSLCert, v) })
	set("SSL_KEY", func(v any) error { return assignString(&c.SSLKey, v) })
	set("SSL_CA", func(v any) error { return assignString(&c.SSLCA, v) })
	set("SSL_MODE", func(v any) error { return assignString(&c.SSLMode, v) })

	set("TEMPLATES_PATH", func(v any) error { return assignString(&c.TemplatesPath, v) })
	set("ERROR_TEMPLATE", func(v any) error { return assignString(&c.ErrorTemplate, v) })

	set("UPLOAD_MAX_FILE_SIZE", func(v any) error {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return err
		}
		c.UploadMaxFileSize = n
		return nil
	})
	set("UPLOAD_TEMP_DIR", func(v any) error { return assignString(&c.UploadTempDir, v) })
	set("UPLOAD_BUFFER_SIZE", func(v any) error {
		n, err := cast.ToIntE(v)
		if err != nil {
			return err
		}
		c.UploadBufferSize = n
		return nil
	})
	set("UPLOAD_CLEANUP_INTERVAL", func(v any) error {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return err
		}
		c.UploadCleanupInterval = d
		return nil
	})
	set("UPLOAD_MAX_TEMP_AGE", func(v any) error {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return err
		}
		c.UploadMaxTempAge = d
		return nil
	})

	set("PERFORMANCE_SLOW_REQUEST_THRESHOLD", func(v any) error {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return err
		}
		c.PerformanceSlowRequestThreshold = d
		return nil
	})
	set("PERFORMANCE_MEMORY_THRESHOLD", func(v any) error {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return err
		}
		c.PerformanceMemoryThreshold = n
		return nil
	})

	return firstErr
}

func assignString(dst *string, v any) error {
	s, err := cast.ToStringE(v)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}
