// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	"codeberg.org/agora/agora/server/request_context"
)

// WithRequestContext attaches a fresh RequestContext to each request and
// echoes its ID in the X-Request-Id response header.
func WithRequestContext(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := request_context.WithRequestContext(r.Context())

	w.Header().Set("X-Request-Id", request_context.FromContext(ctx).RequestID)

	next.ServeHTTP(w, r.WithContext(ctx))
}
