// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/agora/agora/config"
)

func defaults() *config.ServerConfig {
	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	return cfg
}

func TestWriteEnvExample(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	require.NoError(t, writeEnvExample(&sb, defaults()))

	out := sb.String()

	assert.True(t, strings.HasPrefix(out, envFileHeader))
	assert.Contains(t, out, "## Markup\n")
	assert.Contains(t, out, "AGORA_PORT=\"8383\"\n")
	assert.Contains(t, out, "# AGORA_SNIPPET_LENGTH=140\n")
	assert.Contains(t, out, "# AGORA_UNIXSOCKET=\n")
	assert.Contains(t, out, "# AGORA_LOG_OUTPUTS=/dev/stderr\n")
	assert.Contains(t, out, "# AGORA_LIMITER_IDLE_TTL=10m0s\n")
	assert.NotContains(t, out, "## Build")
	assert.NotContains(t, out, "## Instance")
}

func TestWriteYAMLExample(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	require.NoError(t, writeYAMLExample(&sb, defaults()))

	out := sb.String()

	assert.True(t, strings.HasPrefix(out, yamlFileHeader))
	assert.Contains(t, out, "\nmarkup:\n")
	assert.Contains(t, out, "  # snippetLength: 140\n")

	for line := range strings.SplitSeq(out, "\n") {
		if strings.HasPrefix(line, " ") {
			assert.True(t, strings.HasPrefix(strings.TrimLeft(line, " "), "#"), "uncommented value %q", line)
		}
	}
}
