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
	"context"
	"os"
	"sync"
	"time"
)

// Reaper periodically removes multipart upload temp files older than
// MaxAge, fulfilling spec §3's "every temp file is scheduled for cleanup
// within a configurable max_temp_age" invariant. It is the out-of-scope
// "upload temp-file reaping" collaborator named in spec §1, implemented
// here since the core module is the only place that knows which temp
// files it created.
type Reaper struct {
	MaxAge   time.Duration
	Interval time.Duration

	mu      sync.Mutex
	tracked map[string]time.Time
}

// NewReaper constructs a Reaper with the given retention window and sweep
// interval.
func NewReaper(maxAge, interval time.Duration) *Reaper {
	return &Reaper{MaxAge: maxAge, Interval: interval, tracked: make(map[string]time.Time)}
}

// Track registers path for eventual cleanup.
func (r *Reaper) Track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked[path] = time.Now()
}

// TrackUploads registers every upload in uploads for cleanup.
func (r *Reaper) TrackUploads(uploads map[string]*Upload) {
	for _, u := range uploads {
		r.Track(u.TempPath)
	}
}

// sweep removes tracked files older than MaxAge and returns how many were
// removed. It is safe to call concurrently with Track.
func (r *Reaper) sweep() int {
	cutoff := time.Now().Add(-r.MaxAge)
	r.mu.Lock()
	var stale []string
	for path, created := range r.tracked {
		if created.Before(cutoff) {
			stale = append(stale, path)
		}
	}
	for _, path := range stale {
		delete(r.tracked, path)
	}
	r.mu.Unlock()

	removed := 0
	for _, path := range stale {
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed
}

// Run starts the periodic sweep loop. It blocks until ctx is cancelled,
// matching spec §5's "periodic tasks ... spawned at startup ... explicit
// stop on shutdown" via context cancellation rather than a stop channel.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}
