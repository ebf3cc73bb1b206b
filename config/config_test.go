// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
Tests that touch the environment use t.Setenv and therefore cannot run in
parallel. They call load directly so that no command-line flags are parsed.
*/

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg := &ServerConfig{}

	require.NoError(t, cfg.load(filepath.Join(t.TempDir(), "missing.yaml"), true))

	assert.Equal(t, "localhost", cfg.Basic.Host)
	assert.Equal(t, "8383", cfg.Basic.Port)
	assert.Equal(t, int64(defaultMaxInputBytes), cfg.Markup.MaxInputBytes)
	assert.Equal(t, defaultSnippetLength, cfg.Markup.SnippetLength)
	assert.True(t, cfg.Markup.Sanitize)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Limiter.Enabled)
	assert.NotEmpty(t, cfg.Instance.InstanceID)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
basic:
  port: "9000"
markup:
  snippetLength: 80
  batchLimit: 10
limiter:
  enabled: true
  rate: 2.5
  idleTTL: 30s
`)

	t.Setenv("AGORA_SNIPPET_LENGTH", "60")
	t.Setenv("AGORA_LIMITER_PASS_IPS", "10.0.0.0/8, 127.0.0.1,")

	cfg := &ServerConfig{}
	require.NoError(t, cfg.load(path, true))

	assert.Equal(t, "9000", cfg.Basic.Port)
	assert.Equal(t, 60, cfg.Markup.SnippetLength, "environment overrides the file")
	assert.Equal(t, 10, cfg.Markup.BatchLimit)
	assert.True(t, cfg.Limiter.Enabled)
	assert.InDelta(t, 2.5, cfg.Limiter.Rate, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Limiter.IdleTTL)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Limiter.PassIPs)
}

func TestLoad_UnixSocketClearsHostAndPort(t *testing.T) {
	t.Setenv("AGORA_UNIXSOCKET", "/run/agora.sock")

	cfg := &ServerConfig{}
	require.NoError(t, cfg.load("", true))

	assert.Equal(t, "/run/agora.sock", cfg.Basic.UnixSocket)
	assert.Empty(t, cfg.Basic.Host)
	assert.Empty(t, cfg.Basic.Port)

	mode, err := cfg.SocketMode()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o660), mode)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
		want string
	}{
		{
			name: "unknown log level",
			env:  map[string]string{"AGORA_LOG_LEVEL": "loud"},
			want: "Log.Level",
		},
		{
			name: "unknown log format",
			env:  map[string]string{"AGORA_LOG_FORMAT": "xml"},
			want: "Log.Format",
		},
		{
			name: "zero batch limit",
			env:  map[string]string{"AGORA_BATCH_LIMIT": "0"},
			want: "batchLimit",
		},
		{
			name: "malformed integer",
			env:  map[string]string{"AGORA_MAX_INPUT_BYTES": "lots"},
			want: "AGORA_MAX_INPUT_BYTES",
		},
		{
			name: "malformed duration",
			env:  map[string]string{"AGORA_LIMITER_IDLE_TTL": "soon"},
			want: "duration",
		},
		{
			name: "limiter prefix out of range",
			env:  map[string]string{"AGORA_LIMITER": "true", "AGORA_LIMITER_IPV4_PREFIX": "33"},
			want: "IPv4 prefix",
		},
		{
			name: "limiter pass list entry",
			env:  map[string]string{"AGORA_LIMITER": "true", "AGORA_LIMITER_PASS_IPS": "not-an-ip"},
			want: "passList",
		},
		{
			name: "cache enabled without size",
			env:  map[string]string{"AGORA_CACHE_SIZE": "0"},
			want: "cacheSize",
		},
		{
			name: "socket mode is not octal",
			env:  map[string]string{"AGORA_UNIXSOCKET": "/run/agora.sock", "AGORA_UNIXSOCKET_MODE": "rw-rw----"},
			want: "unixSocketMode",
		},
		{
			name: "unknown YAML key",
			yaml: "markup:\n  snipetLength: 10\n",
			want: "YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.yaml != "" {
				path = writeConfigFile(t, tt.yaml)
			}

			err := (&ServerConfig{}).load(path, true)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadEnv(t *testing.T) {
	type nested struct {
		Keep    string   `env:"AGORA_TEST_KEEP"`
		Replace string   `env:"AGORA_TEST_REPLACE,overwrite"`
		List    []string `env:"AGORA_TEST_LIST,overwrite"`
	}

	var spec struct {
		Inner nested
		Ratio float64 `env:"AGORA_TEST_RATIO"`
	}

	spec.Inner.Keep = "from file"
	spec.Inner.Replace = "from file"

	t.Setenv("AGORA_TEST_KEEP", "from env")
	t.Setenv("AGORA_TEST_REPLACE", "from env")
	t.Setenv("AGORA_TEST_LIST", " a , ,b")
	t.Setenv("AGORA_TEST_RATIO", "0.25")

	require.NoError(t, readEnv(&spec))

	assert.Equal(t, "from file", spec.Inner.Keep, "fields without overwrite keep their value")
	assert.Equal(t, "from env", spec.Inner.Replace)
	assert.Equal(t, []string{"a", "b"}, spec.Inner.List)
	assert.InDelta(t, 0.25, spec.Ratio, 1e-9)

	require.ErrorIs(t, readEnv(spec), errExpectedPointerToStruct)
}

func TestParsePassListEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		entry   string
		want    netip.Prefix
		wantErr bool
	}{
		{entry: "127.0.0.1", want: netip.MustParsePrefix("127.0.0.1/32")},
		{entry: "::ffff:10.1.2.3", want: netip.MustParsePrefix("10.1.2.3/32")},
		{entry: "10.1.2.3/8", want: netip.MustParsePrefix("10.0.0.0/8")},
		{entry: "2001:db8::/32", want: netip.MustParsePrefix("2001:db8::/32")},
		{entry: "example.com", wantErr: true},
		{entry: "10.0.0.0/40", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePassListEntry(tt.entry)
		if tt.wantErr {
			require.ErrorIs(t, err, errInvalidPassListEntry, tt.entry)

			continue
		}

		require.NoError(t, err, tt.entry)
		assert.Equal(t, tt.want, got, tt.entry)
	}
}

func TestResolveConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/agora.yaml", resolveConfigPath("/etc/agora.yaml", true))

	t.Setenv("AGORA_CONFIGFILE", "/srv/agora.yaml")
	assert.Equal(t, "/srv/agora.yaml", resolveConfigPath("./config.yaml", false))
	assert.Equal(t, "/etc/agora.yaml", resolveConfigPath("/etc/agora.yaml", true))
}

func TestBuildInfo_Revision(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown", (&buildInfo{}).Revision())
	assert.Equal(t, "2025-06-01-0123abcd+dirty", (&buildInfo{
		VcsRevision: "0123abcdef456789",
		VcsTime:     "2025-06-01T10:00:00Z",
		VcsModified: true,
	}).Revision())
	assert.Equal(t, "-abc", (&buildInfo{VcsRevision: "abc"}).Revision())
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	cfg := &ServerConfig{}
	cfg.SetDefaults()

	var sb strings.Builder
	require.NoError(t, cfg.WriteYAML(&sb))

	out := sb.String()
	assert.Contains(t, out, "10m0s")
	assert.Contains(t, out, "snippetLength: 140")
	assert.NotContains(t, out, "instance")
	assert.NotContains(t, out, "build")
}
