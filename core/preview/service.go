// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package preview wraps the markup engine for serving: it caches rendered
output, optionally passes HTML through an allowlist policy, and derives
snippets and search tokens for notification and search collaborators.
*/
package preview

import (
	"context"
	"errors"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"codeberg.org/agora/agora/core/audit"
	"codeberg.org/agora/agora/core/markup"
	"codeberg.org/agora/agora/core/rendercache"
)

const (
	defaultSnippetLength    = 140
	defaultBatchConcurrency = 4
)

var errNegativeCacheSize = errors.New("cache size must not be negative")

// Options configures a Service.
type Options struct {
	// CacheSize is the number of rendered outputs kept in memory. Zero
	// disables caching.
	CacheSize int
	// Compress stores cached output zstd-compressed.
	Compress bool
	// Sanitize passes HTML output through an allowlist policy.
	Sanitize bool
	// SnippetLength is used when Snippet is called with a non-positive limit.
	SnippetLength int
	// BatchConcurrency bounds the goroutines used by RenderBatch.
	BatchConcurrency int
}

// Rendered holds both renditions of one source.
type Rendered struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Service renders markup for the HTTP layer. It is safe for concurrent use.
type Service struct {
	engine  markup.Engine
	cache   *rendercache.Cache // nil when caching is disabled
	policy  *bluemonday.Policy // nil when sanitizing is disabled
	snippet int
	workers int
}

// NewService creates a Service from opts, filling in defaults for unset
// limits.
func NewService(opts Options) (*Service, error) {
	if opts.CacheSize < 0 {
		return nil, errNegativeCacheSize
	}

	s := &Service{
		snippet: opts.SnippetLength,
		workers: opts.BatchConcurrency,
	}

	if s.snippet <= 0 {
		s.snippet = defaultSnippetLength
	}

	if s.workers <= 0 {
		s.workers = defaultBatchConcurrency
	}

	if opts.CacheSize > 0 {
		cache, err := rendercache.New(opts.CacheSize, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating render cache: %w", err)
		}

		s.cache = cache
	}

	if opts.Sanitize {
		s.policy = outputPolicy()
	}

	return s, nil
}

// HTML renders source as a safe HTML fragment.
func (s *Service) HTML(ctx context.Context, source string) string {
	return s.render(ctx, audit.KindHTML, source, func(source string) string {
		out := s.engine.HTML(source)
		if s.policy != nil {
			out = s.policy.Sanitize(out)
		}

		return out
	})
}

// PlainText returns the text content of source without formatting syntax.
func (s *Service) PlainText(ctx context.Context, source string) string {
	return s.render(ctx, audit.KindPlain, source, s.engine.PlainText)
}

// render looks source up in the cache and falls back to fn, timing the
// operation as an audit span.
func (s *Service) render(ctx context.Context, kind audit.SpanKind, source string, fn func(string) string) string {
	span := audit.Span{Kind: kind}
	span.Begin(ctx)

	defer func() {
		span.End()
		span.Log()
	}()

	if s.cache == nil {
		out := fn(source)
		span.Bytes = len(out)

		return out
	}

	cacheKind := rendercache.KindHTML
	if kind == audit.KindPlain {
		cacheKind = rendercache.KindPlain
	}

	key := rendercache.Key(cacheKind, source)

	if out, ok := s.cache.Get(key); ok {
		span.CacheHit = true
		span.Bytes = len(out)

		return out
	}

	out := fn(source)
	s.cache.Add(key, out)
	span.Bytes = len(out)

	return out
}

// RenderBatch renders every source in both forms using a bounded number of
// goroutines. The result is in input order. If ctx is cancelled before all
// sources are rendered, the context's error is returned.
func (s *Service) RenderBatch(ctx context.Context, sources []string) ([]Rendered, error) {
	span := audit.Span{Kind: audit.KindBatch}
	ctx = span.Begin(ctx)

	defer func() {
		span.End()
		span.Log()
	}()

	results := make([]Rendered, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, source := range sources {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = Rendered{
				HTML: s.HTML(gctx, source),
				Text: s.PlainText(gctx, source),
			}

			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		span.Error = err

		return nil, fmt.Errorf("rendering batch: %w", err)
	}

	for _, r := range results {
		span.Bytes += len(r.HTML) + len(r.Text)
	}

	return results, nil
}

// Stats returns the cache counters, or zero values when caching is disabled.
func (s *Service) Stats() rendercache.Stats {
	if s.cache == nil {
		return rendercache.Stats{}
	}

	return s.cache.Stats()
}
