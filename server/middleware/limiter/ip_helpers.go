// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/rs/zerolog/log"
)

// IPv4 and IPv6 address lengths as measured in bits.
const (
	ipv4BitLength = 32
	ipv6BitLength = 128
)

// clientIP extracts the client's IP address from an HTTP request with proxy awareness.
//
// Proxy headers (X-Real-IP, X-Forwarded-For) are only trusted when the connection
// comes from a private or loopback address, or over a unix socket.
func clientIP(r *http.Request) (netip.Addr, bool) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	remote, err := netip.ParseAddr(host)
	remote = remote.Unmap()

	// Unix socket peers have no IP address and are always local.
	trusted := err != nil || remote.IsPrivate() || remote.IsLoopback()

	if trusted {
		if ip, ok := parseHeaderIP(r.Header.Get("X-Real-IP")); ok {
			return ip, true
		}

		// The last entry is the one appended by our own proxy.
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if ip, ok := parseHeaderIP(parts[len(parts)-1]); ok {
				return ip, true
			}
		}
	} else if r.Header.Get("X-Real-IP") != "" || r.Header.Get("X-Forwarded-For") != "" {
		log.Debug().
			Str("remote_ip", host).
			Msg("Request from untrusted source, ignoring proxy headers")
	}

	if err != nil {
		return netip.Addr{}, false
	}

	return remote, true
}

func parseHeaderIP(value string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(strings.TrimSpace(value))
	if err != nil {
		return netip.Addr{}, false
	}

	return ip.Unmap(), true
}

// network returns the masked network that ip is grouped under.
func (l *Limiter) network(ip netip.Addr) netip.Prefix {
	bits := l.opts.IPv6Prefix
	if ip.Is4() {
		bits = l.opts.IPv4Prefix
	}

	// Prefix only fails for out-of-range bits, which New rejects.
	prefix, _ := ip.Prefix(bits)

	return prefix
}

// passed reports whether ip is on the pass list.
func (l *Limiter) passed(ip netip.Addr) bool {
	for _, prefix := range l.opts.PassList {
		if prefix.Contains(ip) {
			return true
		}
	}

	return false
}
