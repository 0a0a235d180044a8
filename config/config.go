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

// Package config loads the framework's runtime configuration from
// environment variables and, optionally, a TOML file, layering both over
// compiled-in defaults the way rivaas.dev/config layers its sources.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Option is a functional option applied while building a Config.
type Option func(*Config) error

// Config holds every environment-driven setting the framework consults
// (spec §6's "representative, not exhaustive" variable list).
type Config struct {
	// Server
	Port      int    `toml:"port"`
	Host      string `toml:"host"`
	PortReuse bool   `toml:"port_reuse"`
	Env       string `toml:"env"` // "development" or "production"

	// TLS
	SSLCert string `toml:"ssl_cert"`
	SSLKey  string `toml:"ssl_key"`
	SSLCA   string `toml:"ssl_ca"`
	SSLMode string `toml:"ssl_mode"`

	// Templates
	TemplatesPath string `toml:"templates_path"`
	ErrorTemplate string `toml:"error_template"`

	// Uploads
	UploadMaxFileSize     int64         `toml:"upload_max_file_size"`
	UploadTempDir         string        `toml:"upload_temp_dir"`
	UploadBufferSize      int           `toml:"upload_buffer_size"`
	UploadCleanupInterval time.Duration `toml:"upload_cleanup_interval"`
	UploadMaxTempAge      time.Duration `toml:"upload_max_temp_age"`

	// Performance monitor thresholds
	PerformanceSlowRequestThreshold time.Duration `toml:"performance_slow_request_threshold"`
	PerformanceMemoryThreshold      int64         `toml:"performance_memory_threshold"`
}

// defaults returns the compiled-in configuration every Config starts
// from, before environment or file sources are layered on top.
func defaults() *Config {
	return &Config{
		Port:      8080,
		Host:      "0.0.0.0",
		PortReuse: false,
		Env:       "development",

		SSLMode: "none",

		TemplatesPath: "templates",
		ErrorTemplate: "",

		UploadMaxFileSize:     32 << 20,
		UploadTempDir:         "",
		UploadBufferSize:      32 * 1024,
		UploadCleanupInterval: 5 * time.Minute,
		UploadMaxTempAge:      1 * time.Hour,

		PerformanceSlowRequestThreshold: 500 * time.Millisecond,
		PerformanceMemoryThreshold:      16 << 20,
	}
}

// New builds a Config by applying defaults, then every Option in order.
// Options are expected to layer sources (WithEnv, WithFile) over whatever
// came before them, mirroring the teacher's multi-source load order.
func New(opts ...Option) (*Config, error) {
	cfg := defaults()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustNew is New, panicking on error. Intended for program startup where
// a broken configuration should abort boot immediately (spec §7 "Fatal").
func MustNew(opts ...Option) *Config {
	cfg, err := New(opts...)
	if err != nil {
		panic("config initialization failed: " + err.Error())
	}
	return cfg
}

// Validate rejects configurations the framework cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("config: invalid env %q (want development or production)", c.Env)
	}
	switch c.SSLMode {
	case "none", "tls", "mtls":
	default:
		return fmt.Errorf("config: invalid ssl mode %q", c.SSLMode)
	}
	if c.SSLMode != "none" && (c.SSLCert == "" || c.SSLKey == "") {
		return errors.New("config: ssl_cert and ssl_key are required when ssl_mode is not none")
	}
	if c.UploadMaxFileSize <= 0 {
		return errors.New("config: upload_max_file_size must be positive")
	}
	return nil
}

// IsProduction reports whether Env is "production" — the switch the
// error rescuer and the development debug page key off (spec §7).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the host:port pair suitable for http.Server.Addr.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
