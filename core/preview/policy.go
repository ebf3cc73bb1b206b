// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package preview

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// outputPolicy admits exactly the markup the engine produces.
func outputPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "pre", "code", "blockquote", "ul", "ol", "li", "strong", "em")

	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^noopener noreferrer$`)).OnElements("a")

	return p
}
