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

package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentileEdgeCases(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), percentile(nil, 0.95))

	single := []time.Duration{42 * time.Millisecond}
	assert.Equal(t, 42*time.Millisecond, percentile(single, 0.95))

	// N=10 sorted 1..10ms, p95 -> floor(0.95*9) = 8 -> index 8 -> 9ms.
	sorted := make([]time.Duration, 10)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	assert.Equal(t, 9*time.Millisecond, percentile(sorted, 0.95))
	// p99 -> floor(0.99*9) = 8 -> index 8 -> 9ms as well.
	assert.Equal(t, 9*time.Millisecond, percentile(sorted, 0.99))
}

func TestEngineAggregate(t *testing.T) {
	t.Parallel()
	e := New()
	now := time.Now()

	e.RecordRequest(RequestEntry{Endpoint: "/users", Method: "GET", Status: 200, Duration: 10 * time.Millisecond, RecordedAt: now})
	e.RecordRequest(RequestEntry{Endpoint: "/users", Method: "GET", Status: 500, Duration: 30 * time.Millisecond, RecordedAt: now})
	e.RecordRequest(RequestEntry{Endpoint: "/posts", Method: "GET", Status: 200, Duration: 20 * time.Millisecond, RecordedAt: now})

	stats := e.Aggregate(now.Add(-time.Minute))
	require.Equal(t, 3, stats.Count)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 10*time.Millisecond, stats.MinDuration)
	assert.Equal(t, 30*time.Millisecond, stats.MaxDuration)

	userStats := e.EndpointStats("/users", now.Add(-time.Minute))
	assert.Equal(t, 2, userStats.Count)
	assert.Equal(t, 1, userStats.ErrorCount)
}

func TestEngineAggregateRespectsSince(t *testing.T) {
	t.Parallel()
	e := New()
	past := time.Now().Add(-time.Hour)
	e.RecordRequest(RequestEntry{Endpoint: "/old", Status: 200, Duration: time.Millisecond, RecordedAt: past})

	stats := e.Aggregate(time.Now().Add(-time.Minute))
	assert.Equal(t, 0, stats.Count)
}

func TestEngineCapacityBounds(t *testing.T) {
	t.Parallel()
	e := New(WithCapacity(3))
	now := time.Now()
	for i := 0; i < 10; i++ {
		e.RecordRequest(RequestEntry{Endpoint: "/x", Status: 200, Duration: time.Millisecond, RecordedAt: now})
	}
	stats := e.Aggregate(now.Add(-time.Minute))
	assert.Equal(t, 3, stats.Count)
}

func TestCacheOperationBreakdown(t *testing.T) {
	t.Parallel()
	e := New()
	now := time.Now()

	e.RecordCache(CacheEntry{StoreType: "lru", Operation: "get", Hit: true, Duration: time.Millisecond, RecordedAt: now})
	e.RecordCache(CacheEntry{StoreType: "lru", Operation: "get", Hit: false, Duration: 2 * time.Millisecond, RecordedAt: now})
	e.RecordCache(CacheEntry{StoreType: "lru", Operation: "set", ValueSize: 128, Duration: time.Millisecond, RecordedAt: now})

	breakdown := e.CacheOperationBreakdown(now.Add(-time.Minute))
	require.Len(t, breakdown, 2)

	var getStats, setStats CacheOperationStats
	for _, b := range breakdown {
		switch b.Operation {
		case "get":
			getStats = b
		case "set":
			setStats = b
		}
	}
	assert.Equal(t, 2, getStats.Count)
	assert.InDelta(t, 0.5, getStats.HitRate, 0.001)
	assert.Equal(t, int64(128), setStats.TotalDataWritten)
}

func TestEngineToJSONDoesNotDeadlock(t *testing.T) {
	t.Parallel()
	e := New()
	e.RecordRequest(RequestEntry{Endpoint: "/x", Status: 200, Duration: time.Millisecond, RecordedAt: time.Now()})

	var buf bytes.Buffer
	err := e.ToJSON(&buf, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"requests\"")
}

func TestEnginePrometheusSinkObserves(t *testing.T) {
	t.Parallel()
	sink := NewPrometheusSink()
	e := New(WithPrometheusSink(sink))

	e.RecordRequest(RequestEntry{Endpoint: "/users", Method: "GET", Status: 200, Duration: time.Millisecond, RecordedAt: time.Now()})
	e.RecordCache(CacheEntry{StoreType: "lru", Operation: "get", Hit: true, Duration: time.Millisecond, RecordedAt: time.Now()})

	require.NotNil(t, sink.Handler())
}
