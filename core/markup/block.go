// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package markup

import "strings"

// Block is a structural unit of markup.
type Block interface {
	// isBlock is a marker method to ensure only our defined block types
	// can implement this interface.
	isBlock()
}

// Concrete block types.
type (
	// Paragraph holds consecutive text lines, each trimmed of surrounding
	// whitespace.
	Paragraph struct{ Lines []string }
	// CodeBlock holds the verbatim content of a fenced block.
	CodeBlock struct{ Content string }
	// Blockquote holds its lines with the leading "> " removed.
	Blockquote struct{ Lines []string }
	// List holds item texts with their markers removed.
	List struct {
		Ordered bool
		Items   []string
	}
)

// Marker method implementations.
func (Paragraph) isBlock() {}

func (CodeBlock) isBlock() {}

func (Blockquote) isBlock() {}

func (List) isBlock() {}

// fence opens and closes a code block.
const fence = "```"

// maxOrderedDigits bounds the numeric part of an ordered list marker.
const maxOrderedDigits = 9

type segmentState int

const (
	scanningBlockStart segmentState = iota
	inCodeBlock
	inBlockquoteRun
	inListRun
	inParagraph
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineFence
	lineQuote
	lineBullet
	lineOrdered
	lineText
)

// segmenter is the line-driven state machine behind Segment.
type segmenter struct {
	state   segmentState
	ordered bool
	lines   []string
	blocks  []Block
}

// Segment splits source into blocks.
//
// Line endings are normalised first, invalid UTF-8 is replaced and NUL bytes
// are turned into U+FFFD. An unterminated fence runs to the end of the input
// and keeps its content.
func Segment(source string) []Block {
	source = normalizeSource(source)
	if source == "" {
		return nil
	}

	var seg segmenter

	for line := range strings.SplitSeq(source, "\n") {
		seg.feed(line)
	}

	seg.flush()

	return seg.blocks
}

func normalizeSource(source string) string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	source = strings.ReplaceAll(source, "\x00", "\uFFFD")

	return strings.ToValidUTF8(source, "\uFFFD")
}

func (seg *segmenter) feed(line string) {
	trimmed := strings.TrimLeft(line, " \t")

	if seg.state == inCodeBlock {
		if strings.HasPrefix(trimmed, fence) {
			seg.flush()

			return
		}

		seg.lines = append(seg.lines, line)

		return
	}

	kind, body := classifyLine(trimmed)

	// Continue the current run if the line belongs to it.
	switch seg.state {
	case inBlockquoteRun:
		if kind == lineQuote {
			seg.lines = append(seg.lines, body)

			return
		}
	case inListRun:
		if (kind == lineBullet && !seg.ordered) || (kind == lineOrdered && seg.ordered) {
			seg.lines = append(seg.lines, body)

			return
		}
	case inParagraph:
		if kind == lineText {
			seg.lines = append(seg.lines, body)

			return
		}
	case scanningBlockStart, inCodeBlock:
	}

	seg.flush()

	switch kind {
	case lineBlank:
		return
	case lineFence:
		seg.state = inCodeBlock
	case lineQuote:
		seg.state = inBlockquoteRun
		seg.lines = append(seg.lines, body)
	case lineBullet, lineOrdered:
		seg.state = inListRun
		seg.ordered = kind == lineOrdered
		seg.lines = append(seg.lines, body)
	case lineText:
		seg.state = inParagraph
		seg.lines = append(seg.lines, body)
	}
}

// flush closes the current run, if any, and returns to scanningBlockStart.
func (seg *segmenter) flush() {
	lines := seg.lines

	switch seg.state {
	case inCodeBlock:
		seg.blocks = append(seg.blocks, CodeBlock{Content: strings.Join(lines, "\n")})
	case inBlockquoteRun:
		seg.blocks = append(seg.blocks, Blockquote{Lines: lines})
	case inListRun:
		seg.blocks = append(seg.blocks, List{Ordered: seg.ordered, Items: lines})
	case inParagraph:
		seg.blocks = append(seg.blocks, Paragraph{Lines: lines})
	case scanningBlockStart:
	}

	seg.state = scanningBlockStart
	seg.lines = nil
}

// classifyLine determines what a line with its leading indentation removed
// starts, and returns the line's content without any block marker.
func classifyLine(trimmed string) (lineKind, string) {
	switch {
	case strings.TrimSpace(trimmed) == "":
		return lineBlank, ""
	case strings.HasPrefix(trimmed, fence):
		return lineFence, ""
	case trimmed[0] == '>':
		// Nested quote markers flatten into a single quote level.
		body := trimmed
		for body != "" && body[0] == '>' {
			body = body[1:]
			if body != "" && body[0] == ' ' {
				body = body[1:]
			}
		}

		return lineQuote, strings.TrimRight(body, " \t")
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		return lineBullet, strings.TrimSpace(trimmed[2:])
	}

	if n := orderedMarkerLength(trimmed); n > 0 {
		return lineOrdered, strings.TrimSpace(trimmed[n:])
	}

	return lineText, strings.TrimSpace(trimmed)
}

// orderedMarkerLength returns the length of a leading `\d+\.\s` marker, or
// 0 if there is none.
func orderedMarkerLength(s string) int {
	digits := 0
	for digits < len(s) && digits <= maxOrderedDigits && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}

	if digits == 0 || digits > maxOrderedDigits || digits+1 >= len(s) {
		return 0
	}

	if s[digits] != '.' || (s[digits+1] != ' ' && s[digits+1] != '\t') {
		return 0
	}

	return digits + 2
}
