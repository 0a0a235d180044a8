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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusSink mirrors Engine recordings into client_golang instruments.
// It is deliberately independent of the OpenTelemetry SDK: the engine's
// ring-buffer/percentile model already owns aggregation, so this sink only
// needs counters and histograms for an external scrape target.
type PrometheusSink struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheDuration   *prometheus.HistogramVec
	cacheTotal      *prometheus.CounterVec
}

// NewPrometheusSink registers a fresh set of instruments on a private
// registry, so multiple Engines in the same process never collide.
func NewPrometheusSink() *PrometheusSink {
	registry := prometheus.NewRegistry()

	sink := &PrometheusSink{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spark",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spark",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"endpoint", "method", "status"}),
		cacheDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spark",
			Subsystem: "cache",
			Name:      "operation_duration_seconds",
			Help:      "Cache operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spark",
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Total cache operations, labeled by hit/miss.",
		}, []string{"store", "operation", "result"}),
	}

	registry.MustRegister(
		sink.requestDuration,
		sink.requestTotal,
		sink.cacheDuration,
		sink.cacheTotal,
	)
	return sink
}

// Handler exposes the registry on the standard Prometheus exposition
// format, for mounting at e.g. /metrics.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func (s *PrometheusSink) observeRequest(entry RequestEntry) {
	status := statusClass(entry.Status)
	labels := prometheus.Labels{
		"endpoint": entry.Endpoint,
		"method":   entry.Method,
		"status":   status,
	}
	s.requestDuration.With(labels).Observe(entry.Duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

func (s *PrometheusSink) observeCache(entry CacheEntry) {
	s.cacheDuration.With(prometheus.Labels{
		"store":     entry.StoreType,
		"operation": entry.Operation,
	}).Observe(entry.Duration.Seconds())

	result := "miss"
	if entry.Error {
		result = "error"
	} else if entry.Hit {
		result = "hit"
	}
	s.cacheTotal.With(prometheus.Labels{
		"store":     entry.StoreType,
		"operation": entry.Operation,
		"result":    result,
	}).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
