// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/agora/agora/server/routes"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit"
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
)

// excludedPaths are never limited.
var excludedPaths = map[string]bool{
	"/healthz": true,
}

// Evaluate is the entrypoint to the limiter middleware.
func (l *Limiter) Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	defer l.maybeCleanup()

	if excludedPaths[r.URL.Path] {
		next.ServeHTTP(w, r)

		return
	}

	ip, ok := clientIP(r)
	if !ok {
		// Nothing to group by; the reverse proxy in front of the unix socket
		// is expected to set X-Real-IP.
		log.Debug().
			Str("remote_addr", r.RemoteAddr).
			Msg("Could not determine client IP, not limiting")
		next.ServeHTTP(w, r)

		return
	}

	if l.passed(ip) {
		next.ServeHTTP(w, r)

		return
	}

	network := l.network(ip).String()
	v := l.take(network)

	addRateLimitHeaders(w, v)

	if !v.allowed {
		log.Warn().
			Str("ip", ip.String()).
			Str("network", network).
			Msg("Request blocked, exceeded rate limit")

		routes.BlockPage(w, routes.BlockData{Reason: "Rate limit exceeded"}, http.StatusTooManyRequests)

		return
	}

	next.ServeHTTP(w, r)
}

// addRateLimitHeaders adds rate limiting information to the response headers.
func addRateLimitHeaders(w http.ResponseWriter, v verdict) {
	reset := strconv.FormatInt(int64(math.Ceil(v.reset.Seconds())), 10)

	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(v.limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(v.remaining))
	w.Header().Set(HeaderRateLimitReset, reset)

	if !v.allowed {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(math.Ceil(max(v.retry, time.Second).Seconds())), 10))
	}
}
