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

import "os"

// WithEnv layers the process environment over whatever the Config holds
// so far. Every variable from spec §6's list is optional; an unset
// variable leaves the current value (default or previously loaded file
// value) untouched. A variable that is present but malformed for its
// target type fails loudly rather than silently falling back to the
// default, since a typo'd duration or port is exactly the kind of
// misconfiguration spec §7 says should abort boot.
func WithEnv() Option {
	return func(c *Config) error {
		return applyFields(c, "env", func(key string) (any, bool) {
			v, ok := os.LookupEnv(key)
			return v, ok
		})
	}
}

// WithEnvMap layers a fixed map over the Config instead of the real
// process environment, so tests can exercise the env source without
// mutating global state.
func WithEnvMap(env map[string]string) Option {
	return func(c *Config) error {
		return applyFields(c, "env", func(key string) (any, bool) {
			v, ok := env[key]
			return v, ok
		})
	}
}
