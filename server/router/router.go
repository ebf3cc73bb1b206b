// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package router assembles the HTTP surface of the markup service.

A [Router] is an [http.ServeMux] with an ordered middleware chain in front of
it. [Router.RegisterMiddleware] installs the chain every response passes
through:

	WithServerTiming -> WithRequestContext -> SetResponseHeaders -> LimitBody -> limiter (optional) -> mux

and [Router.DefineRoutes] registers the preview API on the mux.
*/
package router

import (
	"net/http"
	"sync"

	"codeberg.org/agora/agora/server/middleware"
)

// Router wraps http.ServeMux with a middleware chain.
//
// Middlewares must be added with Use before the first request is served; the
// chain is composed once on first use.
type Router struct {
	*http.ServeMux

	middlewares []middleware.Middleware

	once    sync.Once
	handler http.Handler
}

// NewRouter creates a Router with an empty mux and no middleware.
func NewRouter() *Router {
	return &Router{
		ServeMux: http.NewServeMux(),
	}
}

// Use appends middlewares to the chain. The first middleware added is the
// outermost, so it sees the request first and the response last.
func (router *Router) Use(mws ...middleware.Middleware) {
	router.middlewares = append(router.middlewares, mws...)
}

// Len returns the number of middlewares in the chain.
func (router *Router) Len() int {
	return len(router.middlewares)
}

// compose wraps the mux in the middlewares, innermost first.
func (router *Router) compose() http.Handler {
	var next http.Handler = router.ServeMux

	for i := len(router.middlewares) - 1; i >= 0; i-- {
		next = middleware.Wrap(router.middlewares[i], next)
	}

	return next
}

// ServeHTTP runs the request through the middleware chain and then the mux.
func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.once.Do(func() {
		router.handler = router.compose()
	})

	router.handler.ServeHTTP(w, r)
}
