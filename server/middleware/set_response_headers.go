// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"strings"

	"codeberg.org/agora/agora/config"
)

var (
	// baseHeaders defines the default headers to be set in responses.
	//
	// Agora-Version and Agora-Revision are added dynamically in SetResponseHeaders.
	//
	// NOTE: we intentionally don't set HSTS; TLS is terminated by the reverse proxy.
	baseHeaders = http.Header{
		"Referrer-Policy":              {"no-referrer"},
		"X-Frame-Options":              {"DENY"},
		"X-Content-Type-Options":       {"nosniff"},
		"Cross-Origin-Resource-Policy": {"same-origin"},
		"Permissions-Policy":           {strings.Join(defaultPermissionsPolicy, ", ")},
		"Content-Security-Policy":      {strings.Join(baseCSP, "; ") + ";"},
	}

	// baseCSP forbids everything. Responses are HTML fragments meant to be
	// embedded by the forum frontend, never documents in their own right.
	baseCSP = []string{
		"default-src 'none'",
		"base-uri 'none'",
		"form-action 'none'",
		"frame-ancestors 'none'",
	}

	defaultPermissionsPolicy = []string{
		"camera=()",
		"display-capture=()",
		"geolocation=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}
)

// SetResponseHeaders adds default headers to HTTP responses.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	// Rendered previews change with every keystroke; caching them in the
	// browser only wastes memory.
	headers.Set("Cache-Control", "no-store")

	headers.Set("Agora-Version", config.BuildVersion)
	headers.Set("Agora-Revision", config.Global.Build.Revision())

	next.ServeHTTP(w, r)
}
