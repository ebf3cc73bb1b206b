// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter is a middleware that enforces per-network rate limiting for HTTP requests.

Clients are grouped by their IP network (a /24 for IPv4 and a /48 for IPv6 by default)
and each network shares one token bucket. Networks on the pass list are never limited.
*/
package limiter
