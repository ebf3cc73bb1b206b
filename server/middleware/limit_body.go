// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	"codeberg.org/agora/agora/server/request_context"
	"codeberg.org/agora/agora/server/routes"
)

// LimitBody caps request bodies at maxBytes.
//
// Requests that declare a larger Content-Length are refused with 413 before
// the handler runs. Bodies without a declared length are cut off while being
// read, and the handler reports the same status.
func LimitBody(maxBytes int64) Middleware {
	return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		if r.ContentLength > maxBytes {
			ctx := request_context.FromRequest(r)
			ctx.StatusCode = http.StatusRequestEntityTooLarge
			ctx.RequestError = routes.NewHTTPError(ctx.StatusCode, "request body exceeds %d bytes", maxBytes)

			routes.ErrorPage(w, r)

			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		next.ServeHTTP(w, r)
	}
}

