// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"fmt"
	"runtime/trace"
	"strconv"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"
)

// Span represents one unit of work: an HTTP request in flight or a markup
// operation performed while serving one.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration
	metric   *servertiming.Metric

	Kind       SpanKind
	RequestID  string
	Method     string
	URL        string
	StatusCode int
	Error      error
	Bytes      int  // size of the response or rendered output
	CacheHit   bool // only meaningful for markup operations
}

// SpanKind describes what a span measures.
type SpanKind string

// Constants for span kinds.
const (
	KindRequest SpanKind = "request"
	KindHTML    SpanKind = "html"
	KindPlain   SpanKind = "plain"
	KindBatch   SpanKind = "batch"
)

// ServerTimingName is the metric name reported in the Server-Timing header.
func (span Span) ServerTimingName() string {
	if span.Kind == KindRequest {
		return "app"
	}

	return "markup-" + string(span.Kind)
}

// Begin starts the span's timer, runtime trace task and Server-Timing metric.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, "agora."+string(span.Kind))
	if servertimingContext := servertiming.FromContext(ctx); servertimingContext != nil {
		span.metric = servertimingContext.NewMetric(span.ServerTimingName())
		span.metric.Extra = make(map[string]string)
		span.metric.Extra["start"] = strconv.FormatFloat(float64(span.start.UnixNano())/float64(time.Millisecond), 'f', -1, 64)
	}

	return ctx
}

// End stops the span. Calling it again has no effect.
func (span *Span) End() {
	if span.task == nil {
		return
	}

	span.duration = time.Since(span.start)
	span.task.End()

	if span.metric != nil {
		span.metric.Duration = span.duration
		if span.Kind != KindRequest {
			span.metric.Extra["cache"] = strconv.FormatBool(span.CacheHit)
		}
	}

	span.task = nil
}

// Duration returns how long the span ran. It is zero until End is called.
func (span Span) Duration() time.Duration {
	return span.duration
}

// Log writes the span at debug level.
func (span Span) Log() {
	event := log.Debug()

	event.Str("sys", string(span.Kind))
	event.Str("len", humanizeSize(span.Bytes))
	event.Dur("dur", span.duration)

	if span.RequestID != "" {
		event.Str("request_id", span.RequestID)
	}

	if span.Kind == KindRequest {
		event.Str("method", span.Method)
		event.Str("url", span.URL)
		event.Int("status_code", span.StatusCode)
	} else {
		event.Bool("cache_hit", span.CacheHit)
	}

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}

const (
	bytesInKB = 1024
	bytesInMB = bytesInKB * bytesInKB
	bytesInGB = bytesInMB * bytesInKB
)

func humanizeSize(x int) string {
	if x < bytesInKB {
		return strconv.Itoa(x)
	}

	if x < bytesInMB {
		return fmt.Sprintf("%.2fK", float64(x)/bytesInKB)
	}

	if x < bytesInGB {
		return fmt.Sprintf("%.2fM", float64(x)/bytesInMB)
	}

	return fmt.Sprintf("%.2fG", float64(x)/bytesInGB)
}
