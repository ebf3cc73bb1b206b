// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package preview

import (
	"context"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ellipsis marks a truncated snippet.
const ellipsis = "…"

// Snippet returns the plain text of source on a single line, cut to at most
// limit runes at a word boundary. A non-positive limit selects the service
// default.
func (s *Service) Snippet(ctx context.Context, source string, limit int) string {
	if limit <= 0 {
		limit = s.snippet
	}

	return truncateWords(strings.Join(strings.Fields(s.PlainText(ctx, source)), " "), limit)
}

// truncateWords cuts text to at most limit runes, preferring the last space
// before the cut, and appends an ellipsis when anything was removed.
func truncateWords(text string, limit int) string {
	count := 0
	cut := -1

	for i := range text {
		if count == limit {
			cut = i

			break
		}

		count++
	}

	if cut < 0 {
		return text
	}

	head := text[:cut]
	if text[cut] != ' ' {
		if space := strings.LastIndexByte(head, ' '); space > 0 {
			head = head[:space]
		}
	}

	return strings.TrimRight(head, " ") + ellipsis
}

// Tokens returns the distinct search terms of source in order of first
// appearance. Text is NFKC-normalised and case-folded, so "Ｆｏｏ" and "foo"
// produce the same token.
func (s *Service) Tokens(ctx context.Context, source string) []string {
	text := norm.NFKC.String(s.PlainText(ctx, source))
	text = cases.Fold().String(text)

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))

	for _, field := range fields {
		if _, dup := seen[field]; dup {
			continue
		}

		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}

	return slices.Clip(tokens)
}
