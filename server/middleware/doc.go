// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP middleware chain for the Agora markup server.

A [Middleware] receives the next handler explicitly; the router in server/router runs
them in registration order. [CatchError] adapts error-returning route handlers to
http.HandlerFunc and turns returned errors into JSON error responses.
*/
package middleware
