// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package markup

import (
	"net/url"
	"strings"
)

// allowedSchemes are the href prefixes, compared case-insensitively, that
// may become anchors.
var allowedSchemes = []string{
	"http://",
	"https://",
	"mailto:",
}

// ResolveLink reports whether href may be rendered as an anchor target.
//
// Accepted are http, https and mailto URLs and same-origin paths that start
// with a single "/". Everything else is rejected, including javascript:,
// data:, vbscript:, file: and protocol-relative "//host" or "/\host" forms.
// Hrefs that contain whitespace or control characters are rejected too, as
// browsers silently strip some of them before parsing. An href that does not
// parse as a URL is rejected as well, since an output sanitizer would drop it
// and leave an anchor without a target.
//
// The returned string is the href unchanged; callers escape it on output.
func ResolveLink(href string) (string, bool) {
	if href == "" {
		return "", false
	}

	for i := range len(href) {
		if c := href[i]; c <= ' ' || c == 0x7f {
			return "", false
		}
	}

	if _, err := url.Parse(href); err != nil {
		return "", false
	}

	if href[0] == '/' {
		if len(href) > 1 && (href[1] == '/' || href[1] == '\\') {
			return "", false
		}

		return href, true
	}

	for _, scheme := range allowedSchemes {
		if len(href) >= len(scheme) && strings.EqualFold(href[:len(scheme)], scheme) {
			return href, true
		}
	}

	return "", false
}
