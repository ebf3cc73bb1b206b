// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package preview

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/agora/agora/core/markup"
	"codeberg.org/agora/agora/core/rendercache"
)

const sampleDocument = "Hello **world**, see [docs](https://agora.example/docs?a=1&b=2).\n\n" +
	"> quoted `code`\n\n- one\n- two\n\n```\n<raw>\n```"

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()

	s, err := NewService(opts)
	require.NoError(t, err)

	return s
}

func TestNewService(t *testing.T) {
	t.Parallel()

	_, err := NewService(Options{CacheSize: -1})
	require.ErrorIs(t, err, errNegativeCacheSize)

	s := newTestService(t, Options{})
	assert.Nil(t, s.cache)
	assert.Nil(t, s.policy)
	assert.Equal(t, defaultSnippetLength, s.snippet)
	assert.Equal(t, defaultBatchConcurrency, s.workers)
	assert.Equal(t, rendercache.Stats{}, s.Stats())
}

func TestService_HTMLMatchesEngine(t *testing.T) {
	t.Parallel()

	s := newTestService(t, Options{})

	assert.Equal(t, markup.ToHTML(sampleDocument), s.HTML(context.Background(), sampleDocument))
	assert.Equal(t, markup.ToPlainText(sampleDocument), s.PlainText(context.Background(), sampleDocument))
}

func TestService_Cache(t *testing.T) {
	t.Parallel()

	s := newTestService(t, Options{CacheSize: 8, Compress: true})
	ctx := context.Background()

	first := s.HTML(ctx, sampleDocument)
	second := s.HTML(ctx, sampleDocument)
	text := s.PlainText(ctx, sampleDocument)

	assert.Equal(t, first, second)
	assert.Equal(t, markup.ToPlainText(sampleDocument), text)
	assert.Equal(t, rendercache.Stats{Entries: 2, Hits: 1, Misses: 2}, s.Stats())
}

func TestService_SanitizedOutputKeepsStructure(t *testing.T) {
	t.Parallel()

	s := newTestService(t, Options{Sanitize: true})

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.HTML(context.Background(), sampleDocument)))
	require.NoError(t, err)

	link := doc.Find("p a")
	require.Equal(t, 1, link.Length())

	href, _ := link.Attr("href")
	target, _ := link.Attr("target")
	rel, _ := link.Attr("rel")

	assert.Equal(t, "https://agora.example/docs?a=1&b=2", href)
	assert.Equal(t, "_blank", target)
	assert.Equal(t, "noopener noreferrer", rel)
	assert.Equal(t, "world", doc.Find("p strong").Text())
	assert.Equal(t, "code", doc.Find("blockquote code").Text())
	assert.Equal(t, 2, doc.Find("ul li").Length())
	assert.Equal(t, "<raw>", doc.Find("pre code").Text())
}

func TestService_SanitizedAnchorsKeepHref(t *testing.T) {
	t.Parallel()

	s := newTestService(t, Options{Sanitize: true})

	inputs := []string{
		"[x](http://%zz)",
		"[x](/a%zz)",
		"[x](https://example.com/%4)",
		"[ok](/a%20b) [mail](mailto:me@example.com) [web](HTTPS://agora.example)",
		"[x](//evil.example) [y](javascript:alert(1))",
		sampleDocument,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			out := s.HTML(context.Background(), input)

			if strings.Contains(input, "%zz") || strings.Contains(input, "%4)") {
				assert.Equal(t, "<p>"+input+"</p>", out, "unparseable hrefs stay literal")
			}

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
			require.NoError(t, err)

			doc.Find("a").Each(func(_ int, a *goquery.Selection) {
				href, ok := a.Attr("href")
				require.True(t, ok, "anchor without href in %q", out)

				lower := strings.ToLower(href)
				assert.True(t,
					strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
						strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "/"),
					"disallowed href %q", href)
			})

		})
	}
}

func TestOutputPolicy(t *testing.T) {
	t.Parallel()

	out := outputPolicy().Sanitize(
		`<p onclick="x"><a href="javascript:alert(1)">a</a><a href="/ok" target="_top">b</a><script>q()</script><img src=x></p>`)

	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "javascript")
	assert.NotContains(t, out, "_top")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, `href="/ok"`)
}

func TestService_RenderBatch(t *testing.T) {
	t.Parallel()

	s := newTestService(t, Options{CacheSize: 16, BatchConcurrency: 3})

	sources := make([]string, 40)
	for i := range sources {
		sources[i] = fmt.Sprintf("item **%d**", i%10)
	}

	results, err := s.RenderBatch(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, results, len(sources))

	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("<p>item <strong>%d</strong></p>", i%10), r.HTML)
		assert.Equal(t, fmt.Sprintf("item %d", i%10), r.Text)
	}

	empty, err := s.RenderBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestService_RenderBatchCancelled(t *testing.T) {
	t.Parallel()

	s := newTestService(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := s.RenderBatch(ctx, []string{"a", "b"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}
