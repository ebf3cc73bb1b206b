// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"time"

	"codeberg.org/agora/agora/server/middleware"
	"codeberg.org/agora/agora/server/routes"
)

// DefineRoutes registers the markup API on the router.
func (router *Router) DefineRoutes(api *routes.API, inDevelopment bool) {
	// Rendering
	router.HandleFunc("POST /api/preview", middleware.CatchError(api.Preview))
	router.HandleFunc("POST /api/plaintext", middleware.CatchError(api.PlainText))
	router.HandleFunc("POST /api/snippet", middleware.CatchError(api.Snippet))
	router.HandleFunc("POST /api/preview/batch", middleware.CatchError(api.Batch))

	// Operations
	router.HandleFunc("GET /api/stats", middleware.CatchError(api.Stats))
	router.HandleFunc("GET /healthz", middleware.CatchError(routes.Health))

	if inDevelopment {
		registerDebugRoutes(router)
	}
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func registerDebugRoutes(router *Router) {
	if !flightRecorder.Enabled() {
		if err := flightRecorder.Start(); err != nil {
			panic(err)
		}
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
