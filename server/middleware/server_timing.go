// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	"github.com/mitchellh/go-server-timing"
)

// WithServerTiming attaches a Server-Timing header to the request context.
// Audit spans started further down the chain report into it.
func WithServerTiming(w http.ResponseWriter, r *http.Request, next http.Handler) {
	servertiming.Middleware(next, nil).ServeHTTP(w, r)
}
