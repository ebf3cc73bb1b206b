// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClock is a controllable time source.
type mockClock struct {
	current time.Time
}

func (m *mockClock) Now() time.Time { return m.current }

func (m *mockClock) Sleep(d time.Duration) { m.current = m.current.Add(d) }

func newTestLimiter(t *testing.T, opts Options) (*Limiter, *mockClock) {
	t.Helper()

	if opts.Rate == 0 {
		opts.Rate = 1
	}

	if opts.Burst == 0 {
		opts.Burst = 2
	}

	if opts.IdleTTL == 0 {
		opts.IdleTTL = 10 * time.Minute
	}

	if opts.IPv4Prefix == 0 {
		opts.IPv4Prefix = 24
	}

	if opts.IPv6Prefix == 0 {
		opts.IPv6Prefix = 48
	}

	l, err := New(opts)
	require.NoError(t, err)

	clock := &mockClock{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l.now = clock.Now
	l.lastCleanup.Store(clock.current.UnixNano())

	return l, clock
}

func serve(l *Limiter, path, remoteAddr string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, nil)
	r.RemoteAddr = remoteAddr

	rr := httptest.NewRecorder()
	l.Evaluate(rr, r, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	return rr
}

func TestNew(t *testing.T) {
	t.Parallel()

	valid := Options{Rate: 1, Burst: 1, IPv4Prefix: 24, IPv6Prefix: 48}

	tests := []struct {
		name   string
		modify func(*Options)
		want   error
	}{
		{"valid", func(*Options) {}, nil},
		{"zero rate", func(o *Options) { o.Rate = 0 }, errInvalidRate},
		{"zero burst", func(o *Options) { o.Burst = 0 }, errInvalidBurst},
		{"ipv4 prefix too long", func(o *Options) { o.IPv4Prefix = 33 }, errInvalidPrefix},
		{"negative ipv6 prefix", func(o *Options) { o.IPv6Prefix = -1 }, errInvalidPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := valid
			tt.modify(&opts)

			_, err := New(opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvaluate_BlocksAfterBurst(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(t, Options{Rate: 1, Burst: 2})

	first := serve(l, "/api/preview", "203.0.113.5:1000")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get(HeaderRateLimitLimit))
	assert.Equal(t, "1", first.Header().Get(HeaderRateLimitRemaining))

	assert.Equal(t, http.StatusOK, serve(l, "/api/preview", "203.0.113.5:1000").Code)

	blocked := serve(l, "/api/preview", "203.0.113.5:1000")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get(HeaderRateLimitRemaining))
	assert.Equal(t, "2", blocked.Header().Get(HeaderRateLimitReset))
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "Rate limit exceeded")

	// Another address in the same /24 shares the bucket.
	assert.Equal(t, http.StatusTooManyRequests, serve(l, "/api/preview", "203.0.113.77:1000").Code)

	// A different network has its own bucket.
	assert.Equal(t, http.StatusOK, serve(l, "/api/preview", "198.51.100.1:1000").Code)

	clock.Sleep(time.Second)
	assert.Equal(t, http.StatusOK, serve(l, "/api/preview", "203.0.113.5:1000").Code)
}

func TestEvaluate_PassListAndExcludedPaths(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t, Options{
		Burst:    1,
		PassList: []netip.Prefix{netip.MustParsePrefix("203.0.113.0/24")},
	})

	for range 5 {
		rr := serve(l, "/api/preview", "203.0.113.5:1000")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get(HeaderRateLimitLimit))
	}

	for range 5 {
		assert.Equal(t, http.StatusOK, serve(l, "/healthz", "198.51.100.1:1000").Code)
	}
}

func TestEvaluate_UnknownClientIsNotLimited(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t, Options{Burst: 1})

	for range 3 {
		assert.Equal(t, http.StatusOK, serve(l, "/api/preview", "@").Code)
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.5:1234",
			want:       "203.0.113.5",
		},
		{
			name:       "proxy headers from public source are ignored",
			remoteAddr: "203.0.113.5:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.1"},
			want:       "203.0.113.5",
		},
		{
			name:       "X-Real-IP from loopback proxy",
			remoteAddr: "127.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.1"},
			want:       "198.51.100.1",
		},
		{
			name:       "last X-Forwarded-For entry from private proxy",
			remoteAddr: "10.0.0.2:1234",
			headers:    map[string]string{"X-Forwarded-For": "192.0.2.9, 198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			name:       "garbage header falls back to remote address",
			remoteAddr: "10.0.0.2:1234",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.2",
		},
		{
			name:       "unix socket peer with X-Real-IP",
			remoteAddr: "@",
			headers:    map[string]string{"X-Real-IP": "2001:db8::1"},
			want:       "2001:db8::1",
		},
		{
			name:       "mapped IPv4 is unmapped",
			remoteAddr: "[::ffff:203.0.113.5]:1234",
			want:       "203.0.113.5",
		},
		{
			name:       "unix socket peer without headers",
			remoteAddr: "@",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr

			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			ip, ok := clientIP(r)
			if tt.want == "" {
				assert.False(t, ok)

				return
			}

			require.True(t, ok)
			assert.Equal(t, tt.want, ip.String())
		})
	}
}

func TestNetwork(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t, Options{IPv4Prefix: 24, IPv6Prefix: 48})

	assert.Equal(t, "203.0.113.0/24", l.network(netip.MustParseAddr("203.0.113.77")).String())
	assert.Equal(t, "2001:db8:1::/48", l.network(netip.MustParseAddr("2001:db8:1:2::5")).String())
}

func TestCleanupExpired(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(t, Options{IdleTTL: time.Minute})

	serve(l, "/api/preview", "203.0.113.5:1000")
	clock.Sleep(30 * time.Second)
	serve(l, "/api/preview", "198.51.100.1:1000")
	clock.Sleep(45 * time.Second)

	assert.Equal(t, 1, l.cleanupExpired(clock.Now()))

	_, ok := l.buckets.Load("198.51.100.0/24")
	assert.True(t, ok)
}
