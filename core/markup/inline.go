// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package markup

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a single inline element of one line of markup.
type Span interface {
	// isSpan is a marker method to ensure only our defined span types
	// can implement this interface.
	isSpan()
}

// Concrete span types.
type (
	// Text is a run of literal characters.
	Text struct{ Raw string }
	// Bold wraps its children in <strong>.
	Bold struct{ Children []Span }
	// Italic wraps its children in <em>.
	Italic struct{ Children []Span }
	// Code is an inline code literal; nothing inside it is interpreted.
	Code struct{ Literal string }
	// Link is a [Text](Href) pair. Safe reports whether Href passed
	// ResolveLink; unsafe links are rendered as their literal source.
	Link struct {
		Text string
		Href string
		Safe bool
	}
)

// Marker method implementations.
func (Text) isSpan() {}

func (Bold) isSpan() {}

func (Italic) isSpan() {}

func (Code) isSpan() {}

func (Link) isSpan() {}

// maxNesting bounds how deep emphasis may nest. Content below this depth is
// kept as literal text.
const maxNesting = 4

// closerKind identifies a memoised closing-delimiter search.
type closerKind int

const (
	closeBacktick closerKind = iota
	closeStar1
	closeStar2
	closeStar3
	closeUnderscore1
	closeUnderscore2
	closeUnderscore3

	closerKinds
)

// inlineScanner performs a single left-to-right pass over one line.
type inlineScanner struct {
	src   string
	depth int
	spans []Span

	// textStart is the first byte of the pending literal run.
	textStart int

	// failedFrom[k] is the lowest start offset at which a search for closer
	// k found nothing. Any later search starting at or after that offset
	// cannot succeed either, so it is answered without scanning.
	failedFrom [closerKinds]int
}

// ParseInline splits a single line into spans.
func ParseInline(line string) []Span {
	return parseInline(line, 0)
}

// FormatInline renders a single line of markup as escaped HTML.
func FormatInline(line string) string {
	var sb strings.Builder

	writeSpans(&sb, ParseInline(line))

	return sb.String()
}

func parseInline(src string, depth int) []Span {
	if src == "" {
		return nil
	}

	if depth >= maxNesting {
		return []Span{Text{Raw: src}}
	}

	sc := inlineScanner{src: src, depth: depth}
	for k := range sc.failedFrom {
		sc.failedFrom[k] = len(src) + 1
	}

	sc.run()

	return sc.spans
}

func (sc *inlineScanner) run() {
	i := 0
	for i < len(sc.src) {
		var next int

		switch sc.src[i] {
		case '`':
			next = sc.scanCode(i)
		case '[':
			next = sc.scanLink(i)
		case '*', '_':
			next = sc.scanEmphasis(i)
		default:
			next = -1
		}

		if next < 0 {
			i++

			continue
		}

		i = next
	}

	sc.flushText(len(sc.src))
}

// flushText emits the pending literal run that ends at end.
func (sc *inlineScanner) flushText(end int) {
	if end > sc.textStart {
		sc.spans = append(sc.spans, Text{Raw: sc.src[sc.textStart:end]})
	}

	sc.textStart = end
}

// emit appends span, which covers src[start:end].
func (sc *inlineScanner) emit(span Span, start, end int) int {
	sc.flushText(start)
	sc.spans = append(sc.spans, span)
	sc.textStart = end

	return end
}

// scanCode handles a backtick at i. It returns the offset after the
// consumed span, or -1 if nothing was recognised.
func (sc *inlineScanner) scanCode(i int) int {
	run := runLength(sc.src, i, '`')
	if run > 1 {
		// Doubled backticks are literal; skip the whole run so that its
		// second half is not taken for an opener.
		return i + run
	}

	j := sc.findBacktick(i + 1)
	if j < 0 {
		return -1
	}

	return sc.emit(Code{Literal: sc.src[i+1 : j]}, i, j+1)
}

func (sc *inlineScanner) findBacktick(from int) int {
	if from >= sc.failedFrom[closeBacktick] {
		return -1
	}

	if j := strings.IndexByte(sc.src[from:], '`'); j >= 0 {
		return from + j
	}

	sc.failedFrom[closeBacktick] = from

	return -1
}

// scanLink handles a '[' at i.
//
// The display text may not contain brackets and the href may not contain
// whitespace or brackets, so every byte is examined by at most one failed
// attempt.
func (sc *inlineScanner) scanLink(i int) int {
	j := i + 1
	for j < len(sc.src) && sc.src[j] != ']' && sc.src[j] != '[' {
		j++
	}

	if j >= len(sc.src) || sc.src[j] != ']' || j == i+1 {
		return -1
	}

	if j+1 >= len(sc.src) || sc.src[j+1] != '(' {
		return -1
	}

	k := j + 2
	for k < len(sc.src) && sc.src[k] != ')' && !isLinkStop(sc.src[k]) {
		k++
	}

	if k >= len(sc.src) || sc.src[k] != ')' || k == j+2 {
		return -1
	}

	href := sc.src[j+2 : k]
	resolved, ok := ResolveLink(href)

	if !ok {
		resolved = href
	}

	return sc.emit(Link{Text: sc.src[i+1 : j], Href: resolved, Safe: ok}, i, k+1)
}

func isLinkStop(c byte) bool {
	return c == ' ' || c == '\t' || c == '[' || c == ']'
}

// scanEmphasis handles a run of '*' or '_' starting at i.
//
// Longer delimiters are tried first, so "**" is bold before "*" is italic
// and "***" wraps the content in both. When a shorter delimiter matches, the
// opener is taken from the end of the run and the leading markers stay
// literal.
func (sc *inlineScanner) scanEmphasis(i int) int {
	marker := sc.src[i]
	run := runLength(sc.src, i, marker)

	if run > 3 || (marker == '_' && i > 0 && isWordByte(sc.src, i-1)) {
		return i + run
	}

	contentStart := i + run
	if contentStart >= len(sc.src) || isSpaceAt(sc.src, contentStart) {
		return i + run
	}

	for n := run; n >= 1; n-- {
		j := sc.findEmphasisCloser(marker, n, contentStart+1)
		if j < 0 {
			continue
		}

		open := i + run - n
		children := parseInline(sc.src[contentStart:j], sc.depth+1)

		var span Span
		switch n {
		case 3:
			span = Bold{Children: []Span{Italic{Children: children}}}
		case 2:
			span = Bold{Children: children}
		default:
			span = Italic{Children: children}
		}

		return sc.emit(span, open, j+n)
	}

	return i + run
}

// findEmphasisCloser returns the offset of a closing run of exactly n
// markers at or after from, or -1.
//
// A closer must follow a non-space character; for '_' it must also not be
// followed by a letter or digit, so snake_case identifiers stay intact.
// Whether a candidate qualifies does not depend on the opener, which is what
// makes the failure memo sound.
func (sc *inlineScanner) findEmphasisCloser(marker byte, n, from int) int {
	kind := emphasisCloser(marker, n)
	if from >= sc.failedFrom[kind] {
		return -1
	}

	for j := from; j < len(sc.src); {
		if sc.src[j] != marker {
			j++

			continue
		}

		run := runLength(sc.src, j, marker)
		if run == n && !isSpaceBefore(sc.src, j) &&
			(marker != '_' || j+n >= len(sc.src) || !isWordByte(sc.src, j+n)) {
			return j
		}

		j += run
	}

	sc.failedFrom[kind] = from

	return -1
}

func emphasisCloser(marker byte, n int) closerKind {
	if marker == '_' {
		return closeUnderscore1 + closerKind(n-1)
	}

	return closeStar1 + closerKind(n-1)
}

// runLength counts consecutive c bytes starting at i.
func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}

	return n
}

func isSpaceAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}

	r, _ := utf8.DecodeRuneInString(s[i:])

	return unicode.IsSpace(r)
}

// isSpaceBefore reports whether the rune ending just before byte i is a space.
func isSpaceBefore(s string, i int) bool {
	if i <= 0 {
		return true
	}

	r, _ := utf8.DecodeLastRuneInString(s[:i])

	return unicode.IsSpace(r)
}

// isWordByte reports whether the character containing byte i is a letter or
// digit.
func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}

	if s[i] < utf8.RuneSelf {
		c := s[i]

		return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
	}

	// Step back to the first byte of a multi-byte rune.
	start := i
	for start > 0 && !utf8.RuneStart(s[start]) {
		start--
	}

	r, _ := utf8.DecodeRuneInString(s[start:])

	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// writeSpans renders spans as HTML.
func writeSpans(sb *strings.Builder, spans []Span) {
	for _, span := range spans {
		switch s := span.(type) {
		case Text:
			writeEscaped(sb, s.Raw)
		case Bold:
			sb.WriteString("<strong>")
			writeSpans(sb, s.Children)
			sb.WriteString("</strong>")
		case Italic:
			sb.WriteString("<em>")
			writeSpans(sb, s.Children)
			sb.WriteString("</em>")
		case Code:
			sb.WriteString("<code>")
			writeEscaped(sb, s.Literal)
			sb.WriteString("</code>")
		case Link:
			if !s.Safe {
				writeEscaped(sb, "["+s.Text+"]("+s.Href+")")

				continue
			}

			sb.WriteString(`<a href="`)
			writeEscaped(sb, s.Href)
			sb.WriteString(`" target="_blank" rel="noopener noreferrer">`)
			writeEscaped(sb, s.Text)
			sb.WriteString("</a>")
		}
	}
}

// writePlainSpans appends the text content of spans, dropping all markers
// and link targets.
func writePlainSpans(sb *strings.Builder, spans []Span) {
	for _, span := range spans {
		switch s := span.(type) {
		case Text:
			sb.WriteString(s.Raw)
		case Bold:
			writePlainSpans(sb, s.Children)
		case Italic:
			writePlainSpans(sb, s.Children)
		case Code:
			sb.WriteString(s.Literal)
		case Link:
			sb.WriteString(s.Text)
		}
	}
}
