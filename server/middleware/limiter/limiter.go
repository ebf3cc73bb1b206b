// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// CleanupInterval is the minimum time between two sweeps of idle buckets.
const CleanupInterval = 5 * time.Minute

var (
	errInvalidRate   = errors.New("rate must be positive")
	errInvalidBurst  = errors.New("burst must be positive")
	errInvalidPrefix = errors.New("network prefix length out of range")
)

// Options configures a Limiter.
type Options struct {
	Rate       float64       // Tokens added per second.
	Burst      int           // Maximum tokens held by one network.
	IdleTTL    time.Duration // How long an unused bucket is kept in memory.
	IPv4Prefix int
	IPv6Prefix int
	PassList   []netip.Prefix // Networks that bypass limiting entirely.
}

// Limiter holds one token bucket per client network.
type Limiter struct {
	opts Options

	buckets     sync.Map // network string -> *bucket
	lastCleanup atomic.Int64

	// now allows tests to control time.
	now func() time.Time
}

// bucket wraps a rate.Limiter with the time it was last used.
type bucket struct {
	mu         sync.Mutex
	limiter    *rate.Limiter
	lastAccess time.Time
}

// verdict is the outcome of taking a token from a bucket.
type verdict struct {
	allowed   bool
	limit     int
	remaining int
	reset     time.Duration // until the bucket is full again
	retry     time.Duration // until the next token, when not allowed
}

// New creates a Limiter from opts.
func New(opts Options) (*Limiter, error) {
	switch {
	case opts.Rate <= 0:
		return nil, errInvalidRate
	case opts.Burst <= 0:
		return nil, errInvalidBurst
	case opts.IPv4Prefix < 0 || opts.IPv4Prefix > ipv4BitLength,
		opts.IPv6Prefix < 0 || opts.IPv6Prefix > ipv6BitLength:
		return nil, errInvalidPrefix
	}

	l := &Limiter{opts: opts, now: time.Now}
	l.lastCleanup.Store(l.now().UnixNano())

	return l, nil
}

// take consumes one token from the bucket of network.
func (l *Limiter) take(network string) verdict {
	now := l.now()

	value, _ := l.buckets.LoadOrStore(network, &bucket{
		limiter:    rate.NewLimiter(rate.Limit(l.opts.Rate), l.opts.Burst),
		lastAccess: now,
	})
	b := value.(*bucket) //nolint:forcetypeassert // only *bucket is stored

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastAccess = now

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	v := verdict{
		allowed:   allowed,
		limit:     l.opts.Burst,
		remaining: max(0, int(tokens)),
	}

	if deficit := float64(l.opts.Burst) - tokens; deficit > 0 {
		v.reset = time.Duration(deficit / l.opts.Rate * float64(time.Second))
	}

	if !allowed {
		v.retry = time.Duration((1 - tokens) / l.opts.Rate * float64(time.Second))
	}

	return v
}
