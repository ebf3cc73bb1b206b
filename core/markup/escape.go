// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package markup

import (
	"html"
	"strings"
)

// Escape encodes &, <, >, " and ' so that text can be embedded in HTML
// element content or a double-quoted attribute value.
func Escape(text string) string {
	return html.EscapeString(text)
}

// writeEscaped appends the escaped form of text to sb.
func writeEscaped(sb *strings.Builder, text string) {
	if text == "" {
		return
	}

	sb.WriteString(html.EscapeString(text))
}
