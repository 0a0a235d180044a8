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

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
)

// WithFile layers a TOML file over whatever the Config holds so far, for
// deployments that prefer a file over environment variables (spec §10.3).
// Field names match the Config struct's `toml` tags, e.g.
// `upload_max_file_size`. Only keys present in the file are applied:
// mergo.WithOverride overwrites a non-zero destination field only when
// the decoded file also supplies a non-zero value for it, so a file that
// omits a key never resets it back to the compiled-in default.
func WithFile(path string) Option {
	return func(c *Config) error {
		var fromFile Config
		if _, err := toml.DecodeFile(path, &fromFile); err != nil {
			return fmt.Errorf("config: decode toml file %s: %w", path, err)
		}
		if err := mergo.Merge(c, fromFile, mergo.WithOverride); err != nil {
			return fmt.Errorf("config: merge toml file %s: %w", path, err)
		}
		return nil
	}
}
