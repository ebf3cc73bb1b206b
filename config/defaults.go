// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	// Default request body cap in bytes.
	defaultMaxInputBytes = 256 << 10
	// Default snippet length in runes.
	defaultSnippetLength = 140
	// Default idle time after which a limiter bucket is dropped, in minutes.
	defaultLimiterIdleTTLMinutes = 10
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "8383"
	cfg.Basic.UnixSocketMode = "0660"

	cfg.Markup.MaxInputBytes = defaultMaxInputBytes
	cfg.Markup.SnippetLength = defaultSnippetLength
	cfg.Markup.Sanitize = true
	cfg.Markup.BatchLimit = 100
	cfg.Markup.BatchConcurrency = 8

	cfg.Cache.Enabled = true
	cfg.Cache.Size = 1000
	cfg.Cache.Compress = true

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = false
	cfg.Limiter.Rate = 5
	cfg.Limiter.Burst = 20
	cfg.Limiter.IdleTTL = defaultLimiterIdleTTLMinutes * time.Minute
	cfg.Limiter.IPv4Prefix = 24
	cfg.Limiter.IPv6Prefix = 48
}
