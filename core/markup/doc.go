// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package markup converts untrusted, user-authored post text into safe HTML
fragments and plain-text summaries.

The accepted syntax is a small, closed subset of Markdown:

	**bold** __bold__ *italic* _italic_ `code` [text](href)
	> quote
	- item / * item / 1. item
	```
	fenced code
	```

Every character that originates from the input is entity-encoded before it is
written; the only markup in the output comes from a fixed tag vocabulary
(p, br, pre, code, blockquote, ul, ol, li, strong, em, a). Links are emitted
only for http, https, mailto and same-origin paths.

All functions are pure and safe for concurrent use. Scanning is a single
forward pass per line with memoised closer searches, so run time stays linear
in the input for adversarial marker runs.
*/
package markup
