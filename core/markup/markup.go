// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package markup

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Engine exposes ToHTML and ToPlainText as methods for callers that take
// the renderer as a dependency. The zero value is ready to use.
type Engine struct{}

// HTML is ToHTML.
func (Engine) HTML(source string) string { return ToHTML(source) }

// PlainText is ToPlainText.
func (Engine) PlainText(source string) string { return ToPlainText(source) }

// ToHTML renders untrusted markup as a safe HTML fragment.
//
// It never panics: an internal fault is logged and the whole input is
// returned escaped inside a single paragraph.
func ToHTML(source string) (out string) {
	if source == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Int("len", len(source)).
				Msg("Markup rendering failed, falling back to escaped text")

			out = fallbackHTML(source)
		}
	}()

	return Render(Segment(source))
}

// ToPlainText returns the text content of untrusted markup with all
// formatting syntax removed. The result is not HTML-escaped.
func ToPlainText(source string) (out string) {
	if source == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Int("len", len(source)).
				Msg("Markup flattening failed, falling back to raw text")

			out = strings.TrimSpace(normalizeSource(source))
		}
	}()

	return Flatten(Segment(source))
}

func fallbackHTML(source string) string {
	text := strings.TrimSpace(normalizeSource(source))
	if text == "" {
		return ""
	}

	return "<p>" + strings.ReplaceAll(Escape(text), "\n", lineBreak) + "</p>"
}
