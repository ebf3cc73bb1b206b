// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package markup

import "strings"

// lineBreak joins the lines of a paragraph or quote.
const lineBreak = "<br>"

// Render assembles the HTML fragment for blocks. Blocks are separated by a
// newline; there is no surrounding document markup.
func Render(blocks []Block) string {
	var sb strings.Builder

	for i, block := range blocks {
		if i > 0 {
			sb.WriteByte('\n')
		}

		renderBlock(&sb, block)
	}

	return sb.String()
}

func renderBlock(sb *strings.Builder, block Block) {
	switch b := block.(type) {
	case Paragraph:
		sb.WriteString("<p>")
		writeLines(sb, b.Lines)
		sb.WriteString("</p>")
	case CodeBlock:
		// Fenced content is never formatted, only escaped.
		sb.WriteString("<pre><code>")
		writeEscaped(sb, b.Content)
		sb.WriteString("</code></pre>")
	case Blockquote:
		sb.WriteString("<blockquote>")
		writeLines(sb, b.Lines)
		sb.WriteString("</blockquote>")
	case List:
		tag := "ul"
		if b.Ordered {
			tag = "ol"
		}

		sb.WriteString("<" + tag + ">")

		for _, item := range b.Items {
			sb.WriteString("<li>")
			writeSpans(sb, ParseInline(item))
			sb.WriteString("</li>")
		}

		sb.WriteString("</" + tag + ">")
	}
}

func writeLines(sb *strings.Builder, lines []string) {
	for i, line := range lines {
		if i > 0 {
			sb.WriteString(lineBreak)
		}

		writeSpans(sb, ParseInline(line))
	}
}
