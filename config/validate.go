// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// validation errors.
var (
	errInvalidSocketMode       = errors.New("basic.unixSocketMode must be an octal permission such as 0660")
	errInvalidMaxInputBytes    = errors.New("markup.maxInputBytes must be positive")
	errInvalidSnippetLength    = errors.New("markup.snippetLength must be positive")
	errInvalidBatchLimit       = errors.New("markup.batchLimit must be positive")
	errInvalidBatchConcurrency = errors.New("markup.batchConcurrency must be positive")
	errInvalidCacheSize        = errors.New("cache.cacheSize must be positive when the cache is enabled")
	errInvalidLogLevel         = errors.New("invalid Log.Level value")
	errInvalidLogFormat        = errors.New("invalid Log.Format value")
	errInvalidLimiterRate      = errors.New("limiter.rate must be positive")
	errInvalidLimiterBurst     = errors.New("limiter.burst must be at least 1")
	errInvalidPassListEntry    = errors.New("limiter.passList entry is not an IP address or CIDR prefix")
	errInvalidIPv4Prefix       = errors.New("IPv4 prefix must be between 0 and 32")
	errInvalidIPv6Prefix       = errors.New("IPv6 prefix must be between 0 and 128")
)

// validateAndSet validates the server configuration and populates some fields.
func (cfg *ServerConfig) validateAndSet() error {
	// Handle listener configuration
	if cfg.Basic.UnixSocket != "" {
		if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
			log.Info().
				Str("socket", cfg.Basic.UnixSocket).
				Msg("Unix socket configured, ignoring host and port")
		}

		cfg.Basic.Host = ""
		cfg.Basic.Port = ""

		if _, err := cfg.SocketMode(); err != nil {
			return err
		}
	} else {
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "8383"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}
	}

	switch {
	case cfg.Markup.MaxInputBytes <= 0:
		return errInvalidMaxInputBytes
	case cfg.Markup.SnippetLength <= 0:
		return errInvalidSnippetLength
	case cfg.Markup.BatchLimit <= 0:
		return errInvalidBatchLimit
	case cfg.Markup.BatchConcurrency <= 0:
		return errInvalidBatchConcurrency
	case cfg.Cache.Enabled && cfg.Cache.Size <= 0:
		return errInvalidCacheSize
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "console", "json":
		// valid
	default:
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Log.Format)
	}

	// Skip validating Limiter configuration if it's not enabled
	if !cfg.Limiter.Enabled {
		return nil
	}

	if cfg.Limiter.Rate <= 0 {
		return errInvalidLimiterRate
	}

	if cfg.Limiter.Burst < 1 {
		return errInvalidLimiterBurst
	}

	if cfg.Limiter.IPv4Prefix < 0 || cfg.Limiter.IPv4Prefix > 32 {
		return errInvalidIPv4Prefix
	}

	if cfg.Limiter.IPv6Prefix < 0 || cfg.Limiter.IPv6Prefix > 128 {
		return errInvalidIPv6Prefix
	}

	for _, entry := range cfg.Limiter.PassIPs {
		if _, err := ParsePassListEntry(entry); err != nil {
			return err
		}
	}

	return nil
}

// SocketMode parses Basic.UnixSocketMode.
func (cfg *ServerConfig) SocketMode() (os.FileMode, error) {
	mode, err := strconv.ParseUint(cfg.Basic.UnixSocketMode, 8, 32)
	if err != nil || mode > 0o777 {
		return 0, fmt.Errorf("%w, got %q", errInvalidSocketMode, cfg.Basic.UnixSocketMode)
	}

	return os.FileMode(mode), nil
}

// ParsePassListEntry parses a limiter pass list entry, which is either a
// single address or a CIDR prefix.
func ParsePassListEntry(entry string) (netip.Prefix, error) {
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: %q", errInvalidPassListEntry, entry)
		}

		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %q", errInvalidPassListEntry, entry)
	}

	addr = addr.Unmap()

	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
