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

// Command exampleserver wires every Spark component into a single
// runnable server: the rescuer, the standard middleware stack, a typed
// endpoint, the static file handler, and a live component served over a
// Spark Channel websocket.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sparkkit/spark/config"
	"github.com/sparkkit/spark/csrf"
	"github.com/sparkkit/spark/endpoint"
	"github.com/sparkkit/spark/errorkit"
	"github.com/sparkkit/spark/logging"
	"github.com/sparkkit/spark/metrics"
	"github.com/sparkkit/spark/middleware"
	"github.com/sparkkit/spark/negotiate"
	"github.com/sparkkit/spark/ratelimit"
	"github.com/sparkkit/spark/router"
	"github.com/sparkkit/spark/spark"
)

type greetingRequest struct {
	Name string `param:"name" validate:"required"`
}

type greetingResponse struct {
	Message string `json:"message"`
}

func main() {
	cfg := config.MustNew(config.WithEnv())

	log := logging.MustNew(
		logging.WithServiceName("spark-exampleserver"),
		logging.WithEnvironment(cfg.Env),
		logging.WithConsoleHandler(),
	)

	promSink := metrics.NewPrometheusSink()
	engine := metrics.New(metrics.WithPrometheusSink(promSink))
	monitor := metrics.NewMonitor(engine,
		metrics.WithSlowThreshold(cfg.PerformanceSlowRequestThreshold),
		metrics.WithMemoryDeltaWarning(cfg.PerformanceMemoryThreshold),
		metrics.WithMonitorLogger(log.Logger()),
	)

	accessLog := middleware.NewLogger(
		middleware.WithAccessLogger(log.Logger()),
		middleware.WithLoggerSkipPaths("/healthz", "/metrics"),
	)
	defer accessLog.Close()

	throttle := ratelimit.New(
		ratelimit.WithThreshold(100),
		ratelimit.WithWindow(time.Minute),
		ratelimit.WithLogger(log.Logger()),
	)

	protector := csrf.New(csrf.WithSecret([]byte("change-me-in-production")))

	rescuer := errorkit.New(errorkit.Options{
		Development: !cfg.IsProduction(),
		Logger:      log,
	})

	reaper := negotiate.NewReaper(cfg.UploadMaxTempAge, cfg.UploadCleanupInterval)
	reaperCtx, cancelReaper := context.WithCancel(context.Background())
	defer cancelReaper()
	go reaper.Run(reaperCtx)

	r := router.NewRouter(1024)
	r.SetReaper(reaper)
	r.Use(rescuer)
	r.Use(middleware.RequestID())
	r.Use(accessLog.Handler())
	r.Use(monitor.Handler())
	r.Use(throttle.Handler())
	r.Use(protector.Handler())

	greet := endpoint.Endpoint[greetingRequest, greetingResponse]{
		Name:    "greet",
		Method:  http.MethodGet,
		Pattern: "/greet/:name",
		Handle: func(_ context.Context, req *greetingRequest) (greetingResponse, error) {
			return greetingResponse{Message: "hello, " + req.Name}, nil
		},
	}
	if _, err := greet.Register(r); err != nil {
		panic(err)
	}

	registry := spark.NewRegistry()
	channel := spark.NewChannel(registry, spark.WithChannelLogger(log.Logger()))
	gcCtx, cancelGC := context.WithCancel(context.Background())
	defer cancelGC()
	channel.StartGC(gcCtx)
	if _, err := r.RegisterWS("/live", channel.Handler()); err != nil {
		panic(err)
	}

	// The radix router only matches literal and ":name" segments, not
	// multi-segment wildcards, so static assets are served outside it
	// (spec §4.1's route tree has no catch-all concept to borrow).
	static := middleware.Static(cfg.TemplatesPath)
	http.Handle("/assets/", staticAdapter(static))
	http.Handle("/metrics", promSink.Handler())
	http.Handle("/", r)

	log.Info("server starting", "addr", cfg.Addr(), "env", cfg.Env)
	if err := http.ListenAndServe(cfg.Addr(), nil); err != nil {
		log.Error("server exited", "error", err)
	}
}

// staticAdapter lets a router.HandlerFunc serve as a plain http.Handler
// for the handful of stages (like Static) that are mounted outside the
// router itself.
func staticAdapter(h router.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		c := &router.Context{Request: req, Response: w}
		h(c)
	})
}
