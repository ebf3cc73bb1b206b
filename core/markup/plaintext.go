// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package markup

import "strings"

// Flatten returns the text content of blocks without any formatting syntax.
//
// Lines inside a block are joined with a space and blocks with a newline.
// Link targets are dropped whether or not they are safe; code keeps its
// literal content. The result is not escaped.
func Flatten(blocks []Block) string {
	parts := make([]string, 0, len(blocks))

	for _, block := range blocks {
		var text string

		switch b := block.(type) {
		case Paragraph:
			text = plainLines(b.Lines)
		case CodeBlock:
			text = b.Content
		case Blockquote:
			text = plainLines(b.Lines)
		case List:
			text = plainLines(b.Items)
		}

		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n")
}

func plainLines(lines []string) string {
	var sb strings.Builder

	for _, line := range lines {
		if line == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		writePlainSpans(&sb, ParseInline(line))
	}

	return sb.String()
}
