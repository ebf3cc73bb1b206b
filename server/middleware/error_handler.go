// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"codeberg.org/agora/agora/core/audit"
	"codeberg.org/agora/agora/server/request_context"
	"codeberg.org/agora/agora/server/routes"
)

// CatchError wraps HTTP handlers that return an error, providing centralized error handling,
// response buffering, and request logging.
//
// It operates as follows:
//  1. It times the request as an audit span.
//  2. It runs the handler, which has the signature
//     `func(w http.ResponseWriter, r *http.Request) error`, against an
//     httptest.ResponseRecorder so that nothing reaches the client yet.
//  3. Any error returned by the handler is stored in the request context.
//
// After the handler runs, it decides on the final response:
//   - If the handler returned an error and did not write an error status itself,
//     the buffered response is discarded and a JSON error body is written instead.
//     The status comes from a routes.HTTPError, or is 500 for any other error.
//   - Otherwise the buffered response is written to the client.
//
// Finally, it logs the completed request via the audit package.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			Kind:      audit.KindRequest,
			RequestID: ctx.RequestID,
			Method:    r.Method,
			URL:       r.URL.String(),
		}

		_ = span.Begin(r.Context())

		recorder := httptest.NewRecorder()

		err := handler(recorder, r)

		ctx.RequestError = err

		if err != nil && recorder.Code < http.StatusBadRequest {
			ctx.StatusCode = routes.StatusCodeOf(err)

			routes.ErrorPage(w, r)
		} else {
			if recorder.Code == 0 {
				recorder.Code = http.StatusOK
			}

			ctx.StatusCode = recorder.Code
			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			span.Bytes = recorder.Body.Len()

			if _, err := recorder.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		}

		span.End()

		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError
		span.Log()
	}
}
